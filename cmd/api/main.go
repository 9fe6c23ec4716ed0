package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/joho/godotenv"

	"github.com/mockview/backend/internal/config"
	"github.com/mockview/backend/internal/database"
	"github.com/mockview/backend/internal/handler"
	"github.com/mockview/backend/internal/repository"
	"github.com/mockview/backend/internal/service/analysis"
	avatarservice "github.com/mockview/backend/internal/service/avatar"
	"github.com/mockview/backend/internal/service/codeeval"
	emotionservice "github.com/mockview/backend/internal/service/emotion"
	interviewservice "github.com/mockview/backend/internal/service/interview"
	"github.com/mockview/backend/internal/service/llm"
	skillsservice "github.com/mockview/backend/internal/service/skills"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
		log.Println("continuing with system environment variables only")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	db, err := database.Init(database.Config{Path: cfg.Database.Path})
	if err != nil {
		log.Fatalf("failed to initialize database: %v", err)
	}

	chats := repository.NewChatRepository(db)
	messages := repository.NewMessageRepository(db)
	scores := repository.NewScoreRepository(db)
	jds := repository.NewJobDescriptionRepository(db)
	checks := repository.NewCodeCheckRepository(db)

	selector := buildSelector(ctx, cfg.LLM)

	// Avatar is optional; without credentials the interviewer is text-only
	// and the avatar endpoints answer 502.
	var avatarClient *avatarservice.Client
	var speaker interviewservice.Speaker
	if cfg.Avatar.Enabled() {
		avatarClient = avatarservice.NewClient(cfg.Avatar.APIKey, cfg.Avatar.AvatarID, cfg.Avatar.BaseURL)
		speaker = avatarClient
		log.Println("avatar client initialized")
	} else {
		log.Println("avatar credentials not configured, replies will be text-only")
	}

	interviewSvc := interviewservice.NewService(selector, chats, messages, jds, cfg.Interview.HistoryLimit, speaker)
	analysisSvc := analysis.NewService(selector, scores, messages, chats, jds, cfg.Interview.TranscriptWindow)
	codeSvc := codeeval.NewService(selector, checks, scores, chats)
	skillAnalyzer := skillsservice.NewAnalyzer(selector)
	tracker := emotionservice.NewTracker()

	router := handler.NewRouter(interviewSvc, analysisSvc, codeSvc, skillAnalyzer, jds, tracker, avatarClient)

	startServer(ctx, cfg.Server, router)
}

// buildSelector wires the primary provider with the OpenAI-compatible
// fallback. Either side may be absent; the selector errors only when a
// request finds no usable model.
func buildSelector(ctx context.Context, cfg config.LLMConfig) *llm.Selector {
	var primary, fallback model.BaseChatModel

	if cfg.PrimaryEnabled() {
		p, err := cfg.NewPrimaryModel(ctx)
		if err != nil {
			log.Printf("warning: failed to initialize %s provider: %v", cfg.Provider, err)
		} else {
			primary = p
			log.Printf("primary chat model initialized (provider=%s)", cfg.Provider)
		}
	} else {
		log.Printf("no credentials for provider %s, relying on fallback", cfg.Provider)
	}

	f, err := cfg.NewFallbackModel(ctx)
	if err != nil {
		log.Printf("warning: failed to initialize fallback model: %v", err)
	} else {
		fallback = f
	}

	if primary == nil && fallback == nil {
		log.Fatal("no chat model available; configure a provider or the fallback endpoint")
	}

	return llm.NewSelector(primary, fallback)
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) {
	srv := &http.Server{
		Addr:              serverCfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("mockview backend listening on %s", serverCfg.Addr)
	if err := runServer(ctx, srv); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
