// Package codeeval runs the coding-round: it has the chat model judge a
// submission, records the verdict and scores the chat's code dimension.
package codeeval

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"regexp"
	"strconv"
	"strings"

	"github.com/cloudwego/eino/schema"

	"github.com/mockview/backend/internal/model/interview"
	"github.com/mockview/backend/internal/service/llm"
)

const evaluationPromptTemplate = `You are an Expert Code Evaluator.
Question: %s
Language: %s
Code:
` + "```%s\n%s\n```" + `

Analyze for syntax, logic, correctness, and proper indentation (critical for languages like Python).
Return ONLY this JSON format:
{
    "passed": true/false,
    "score": "X/Y",
    "feedback": "detailed feedback",
    "test_results": [
        { "test_case": 1, "input": "...", "expected": "...", "predicted_output": "...", "passed": true/false }
    ]
}`

const hintSystemPrompt = "You are a helpful coding assistant. Provide concise, accurate hints for the " +
	"given question without giving away the full solution. Only give 1 language agnostic hint. " +
	"Do not include any other text before or after."

var fencedJSONRe = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.*\\})\\s*```")

// CheckStore persists evaluation audit rows.
type CheckStore interface {
	Create(ctx context.Context, c *interview.CodeCheck) error
}

// ScoreWriter records the code score of a chat.
type ScoreWriter interface {
	PutScoreIfAbsent(ctx context.Context, chatID, username string, scoreType interview.ScoreType, value float64) (bool, error)
}

// ActivityToucher bumps a chat's last-activity marker.
type ActivityToucher interface {
	TouchActivity(ctx context.Context, id string) error
}

// Request is one code submission.
type Request struct {
	ChatID   string `json:"chat_id"`
	Username string `json:"username"`
	Code     string `json:"code"`
	Language string `json:"language"`
	Question string `json:"question"`
}

// TestResult is one predicted test outcome from the model's verdict.
type TestResult struct {
	TestCase        int    `json:"test_case"`
	Input           string `json:"input"`
	Expected        string `json:"expected"`
	PredictedOutput string `json:"predicted_output"`
	Passed          bool   `json:"passed"`
}

// Result is the model's verdict on a submission. Score keeps the model's
// "X/Y" shape for display; ScoreValue is its 0-10 normalization.
type Result struct {
	Passed      bool         `json:"passed"`
	Score       string       `json:"score"`
	Feedback    string       `json:"feedback"`
	TestResults []TestResult `json:"test_results,omitempty"`
}

// Service evaluates coding submissions.
type Service struct {
	generator llm.Generator
	checks    CheckStore
	scores    ScoreWriter
	chats     ActivityToucher
}

func NewService(generator llm.Generator, checks CheckStore, scores ScoreWriter, chats ActivityToucher) *Service {
	return &Service{generator: generator, checks: checks, scores: scores, chats: chats}
}

// Evaluate judges a submission. A model failure yields a failed Result with
// the error as feedback rather than an error: the coding page always gets a
// verdict to show.
func (s *Service) Evaluate(ctx context.Context, req Request) *Result {
	if req.Language == "" {
		req.Language = "python"
	}

	prompt := fmt.Sprintf(evaluationPromptTemplate, req.Question, req.Language, req.Language, req.Code)
	response, err := s.generator.Generate(ctx, []*schema.Message{schema.UserMessage(prompt)})
	if err != nil {
		log.Printf("[codeeval] evaluation failed: %v", err)
		return &Result{Passed: false, Score: "0/0", Feedback: err.Error()}
	}

	result := ParseVerdict(response.Content)
	s.record(ctx, req, result)

	if req.ChatID != "" {
		s.scoreChat(ctx, req, result)
	}

	return result
}

// Hint asks for a single language-agnostic hint for the question.
func (s *Service) Hint(ctx context.Context, question string) (string, error) {
	response, err := s.generator.Generate(ctx, []*schema.Message{
		schema.SystemMessage(hintSystemPrompt),
		schema.UserMessage(question),
	})
	if err != nil {
		return "", fmt.Errorf("generate hint: %w", err)
	}
	return response.Content, nil
}

// ParseVerdict extracts the verdict JSON, tolerating markdown fences. Text
// that holds no parseable verdict becomes a failed result carrying the raw
// text as feedback.
func ParseVerdict(text string) *Result {
	cleaned := strings.TrimSpace(text)
	if strings.Contains(cleaned, "```") {
		if m := fencedJSONRe.FindStringSubmatch(cleaned); m != nil {
			cleaned = m[1]
		}
	}

	var result Result
	if err := json.Unmarshal([]byte(cleaned), &result); err != nil {
		return &Result{Passed: false, Score: "0/0", Feedback: text}
	}
	if result.Score == "" {
		result.Score = "0/0"
	}
	return &result
}

// ScoreValue normalizes the "X/Y" grade to the 0-10 scale. ok is false when
// the grade cannot be read or the denominator is zero.
func (r *Result) ScoreValue() (float64, bool) {
	parts := strings.SplitN(strings.TrimSpace(r.Score), "/", 2)
	if len(parts) != 2 {
		return 0, false
	}
	numerator, err1 := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	denominator, err2 := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err1 != nil || err2 != nil || denominator == 0 {
		return 0, false
	}
	return numerator / denominator * 10.0, true
}

// record keeps the audit row; a storage failure is logged, not surfaced,
// the user still gets the verdict.
func (s *Service) record(ctx context.Context, req Request, result *Result) {
	resultJSON, err := json.Marshal(result)
	if err != nil {
		log.Printf("[codeeval] marshal verdict: %v", err)
		return
	}

	check := &interview.CodeCheck{
		Username:   req.Username,
		Language:   req.Language,
		Question:   req.Question,
		Code:       req.Code,
		ResultJSON: string(resultJSON),
		Passed:     result.Passed,
	}
	if err := s.checks.Create(ctx, check); err != nil {
		log.Printf("[codeeval] save check: %v", err)
	}
}

func (s *Service) scoreChat(ctx context.Context, req Request, result *Result) {
	value, ok := result.ScoreValue()
	if !ok {
		return
	}

	if _, err := s.scores.PutScoreIfAbsent(ctx, req.ChatID, req.Username, interview.ScoreCode, value); err != nil {
		log.Printf("[codeeval] save score for chat=%s: %v", req.ChatID, err)
		return
	}
	if err := s.chats.TouchActivity(ctx, req.ChatID); err != nil {
		log.Printf("[codeeval] touch activity for chat=%s: %v", req.ChatID, err)
	}
}
