package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino-ext/components/model/gemini"
	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"google.golang.org/genai"
)

// Config aggregates every setting of the service.
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	LLM       LLMConfig
	Interview InterviewConfig
	Avatar    AvatarConfig
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	llm, err := loadLLMConfig()
	if err != nil {
		return nil, err
	}

	interview, err := loadInterviewConfig()
	if err != nil {
		return nil, err
	}

	return &Config{
		Server:    server,
		Database:  loadDatabaseConfig(),
		LLM:       llm,
		Interview: interview,
		Avatar:    loadAvatarConfig(),
	}, nil
}

// ServerConfig describes the HTTP listener.
type ServerConfig struct {
	Addr string
}

func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	if strings.Contains(port, ":") {
		// Allow ":8080" or "127.0.0.1:8080" directly.
		return ServerConfig{Addr: port}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port}, nil
}

// DatabaseConfig locates the SQLite file.
type DatabaseConfig struct {
	Path string
}

func loadDatabaseConfig() DatabaseConfig {
	return DatabaseConfig{
		Path: getEnvOrDefault("DATABASE_PATH", "instance/interview.db"),
	}
}

// LLMConfig describes the primary chat model provider and the
// OpenAI-compatible fallback (typically a local Ollama).
type LLMConfig struct {
	Provider string // gemini | ark | openai

	GeminiAPIKey string
	GeminiModel  string

	ArkAPIKey    string
	ArkAccessKey string
	ArkSecretKey string
	ArkModel     string
	ArkBaseURL   string
	ArkRegion    string

	FallbackBaseURL string
	FallbackModel   string
	FallbackAPIKey  string

	Temperature *float64
	MaxTokens   *int
}

func loadLLMConfig() (LLMConfig, error) {
	temperature, err := parseOptionalFloatEnv("LLM_TEMPERATURE")
	if err != nil {
		return LLMConfig{}, err
	}

	maxTokens, err := parseOptionalIntEnv("LLM_MAX_TOKENS")
	if err != nil {
		return LLMConfig{}, err
	}

	return LLMConfig{
		Provider:        getEnvOrDefault("LLM_PROVIDER", "gemini"),
		GeminiAPIKey:    strings.TrimSpace(os.Getenv("GOOGLE_API_KEY")),
		GeminiModel:     getEnvOrDefault("GOOGLE_CHAT_MODEL", "gemini-2.5-flash"),
		ArkAPIKey:       strings.TrimSpace(os.Getenv("ARK_API_KEY")),
		ArkAccessKey:    strings.TrimSpace(os.Getenv("ARK_ACCESS_KEY")),
		ArkSecretKey:    strings.TrimSpace(os.Getenv("ARK_SECRET_KEY")),
		ArkModel:        strings.TrimSpace(os.Getenv("ARK_MODEL")),
		ArkBaseURL:      getEnvOrDefault("ARK_BASE_URL", "https://ark.cn-beijing.volces.com/api/v3"),
		ArkRegion:       getEnvOrDefault("ARK_REGION", "cn-beijing"),
		FallbackBaseURL: getEnvOrDefault("OLLAMA_BASE_URL", "http://localhost:11434/v1"),
		FallbackModel:   getEnvOrDefault("OLLAMA_CHAT_MODEL", "gpt-oss:20b-cloud"),
		FallbackAPIKey:  getEnvOrDefault("OLLAMA_API_KEY", "ollama"),
		Temperature:     temperature,
		MaxTokens:       maxTokens,
	}, nil
}

// PrimaryEnabled reports whether credentials for the configured primary
// provider are present.
func (c LLMConfig) PrimaryEnabled() bool {
	switch c.Provider {
	case "ark":
		return c.ArkModel != "" && (c.ArkAPIKey != "" || (c.ArkAccessKey != "" && c.ArkSecretKey != ""))
	case "openai":
		return c.FallbackModel != ""
	default: // gemini
		return c.GeminiAPIKey != ""
	}
}

// NewPrimaryModel builds the configured primary chat model.
func (c LLMConfig) NewPrimaryModel(ctx context.Context) (model.BaseChatModel, error) {
	switch c.Provider {
	case "ark":
		return c.newArkModel(ctx)
	case "openai":
		return c.NewFallbackModel(ctx)
	case "gemini", "":
		return c.newGeminiModel(ctx)
	default:
		return nil, fmt.Errorf("unsupported LLM_PROVIDER: %q", c.Provider)
	}
}

// NewFallbackModel builds the OpenAI-compatible fallback model.
func (c LLMConfig) NewFallbackModel(ctx context.Context) (model.BaseChatModel, error) {
	if c.FallbackModel == "" {
		return nil, fmt.Errorf("OLLAMA_CHAT_MODEL is required for the fallback provider")
	}

	return openai.NewChatModel(ctx, &openai.ChatModelConfig{
		BaseURL:     c.FallbackBaseURL,
		APIKey:      c.FallbackAPIKey,
		Model:       c.FallbackModel,
		Temperature: c.temperature32(),
		MaxTokens:   c.MaxTokens,
	})
}

func (c LLMConfig) newGeminiModel(ctx context.Context) (model.BaseChatModel, error) {
	if c.GeminiAPIKey == "" {
		return nil, fmt.Errorf("GOOGLE_API_KEY is required for the gemini provider")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  c.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	return gemini.NewChatModel(ctx, &gemini.Config{
		Client:      client,
		Model:       c.GeminiModel,
		Temperature: c.temperature32(),
		MaxTokens:   c.MaxTokens,
	})
}

func (c LLMConfig) newArkModel(ctx context.Context) (model.BaseChatModel, error) {
	if c.ArkModel == "" || (c.ArkAPIKey == "" && (c.ArkAccessKey == "" || c.ArkSecretKey == "")) {
		return nil, fmt.Errorf("ark provider requires ARK_MODEL plus ARK_API_KEY or AK/SK")
	}

	return ark.NewChatModel(ctx, &ark.ChatModelConfig{
		BaseURL:     c.ArkBaseURL,
		Region:      c.ArkRegion,
		APIKey:      c.ArkAPIKey,
		AccessKey:   c.ArkAccessKey,
		SecretKey:   c.ArkSecretKey,
		Model:       c.ArkModel,
		Temperature: c.temperature32(),
		MaxTokens:   c.MaxTokens,
	})
}

func (c LLMConfig) temperature32() *float32 {
	if c.Temperature == nil {
		return nil
	}
	val := float32(*c.Temperature)
	return &val
}

// InterviewConfig tunes the interview and analysis flows.
type InterviewConfig struct {
	HistoryLimit     int // message turns fed back to the interviewer model
	TranscriptWindow int // newest messages kept when assembling transcripts
}

func loadInterviewConfig() (InterviewConfig, error) {
	history := 6
	if override, err := parseOptionalIntEnv("INTERVIEW_HISTORY_LIMIT"); err != nil {
		return InterviewConfig{}, err
	} else if override != nil && *override >= 1 {
		history = *override
	}

	window := 200
	if override, err := parseOptionalIntEnv("TRANSCRIPT_WINDOW"); err != nil {
		return InterviewConfig{}, err
	} else if override != nil && *override >= 1 {
		window = *override
	}

	return InterviewConfig{HistoryLimit: history, TranscriptWindow: window}, nil
}

// AvatarConfig holds credentials for the streaming-avatar provider.
type AvatarConfig struct {
	APIKey   string
	AvatarID string
	BaseURL  string
}

func loadAvatarConfig() AvatarConfig {
	return AvatarConfig{
		APIKey:   strings.TrimSpace(os.Getenv("HEYGEN_API_KEY")),
		AvatarID: strings.TrimSpace(os.Getenv("HEYGEN_AVATAR_ID")),
		BaseURL:  getEnvOrDefault("HEYGEN_BASE_URL", "https://api.heygen.com/v1"),
	}
}

// Enabled reports whether the avatar integration is configured.
func (c AvatarConfig) Enabled() bool {
	return c.APIKey != "" && c.AvatarID != ""
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseOptionalFloatEnv(key string) (*float64, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}
