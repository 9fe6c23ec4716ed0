package llm

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// Generator is the single entry point services use to talk to a chat model.
type Generator interface {
	Generate(ctx context.Context, messages []*schema.Message) (*schema.Message, error)
}

// ErrNoModel is returned when neither provider is configured.
var ErrNoModel = errors.New("no chat model configured")

// Selector routes chat completions to a primary provider and switches to the
// fallback after the first primary failure. The switch is sticky for the
// lifetime of the Selector value: callers that want per-request fallback
// scope construct a fresh Selector, callers that want a process-wide policy
// share one and call Reset when the primary is known healthy again.
type Selector struct {
	mu            sync.Mutex
	primary       model.BaseChatModel
	fallback      model.BaseChatModel
	usingFallback bool
}

// NewSelector builds a selector. Either model may be nil; at least one must
// be set for Generate to succeed.
func NewSelector(primary, fallback model.BaseChatModel) *Selector {
	return &Selector{primary: primary, fallback: fallback}
}

// Generate invokes the current provider. A primary failure is retried once
// against the fallback and the selector stays on the fallback for
// subsequent calls.
func (s *Selector) Generate(ctx context.Context, messages []*schema.Message) (*schema.Message, error) {
	current, onFallback := s.current()
	if current == nil {
		return nil, ErrNoModel
	}

	response, err := current.Generate(ctx, messages)
	if err == nil {
		return response, nil
	}
	if onFallback || s.fallback == nil {
		return nil, fmt.Errorf("chat model generate: %w", err)
	}

	log.Printf("[llm] primary provider failed, switching to fallback: %v", err)
	s.switchToFallback()

	response, err = s.fallback.Generate(ctx, messages)
	if err != nil {
		return nil, fmt.Errorf("fallback model generate: %w", err)
	}
	return response, nil
}

// UsingFallback reports whether the selector has switched providers.
func (s *Selector) UsingFallback() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.usingFallback
}

// Reset restores the primary provider as the preferred one.
func (s *Selector) Reset() {
	s.mu.Lock()
	s.usingFallback = false
	s.mu.Unlock()
}

func (s *Selector) current() (model.BaseChatModel, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.usingFallback || s.primary == nil {
		if s.fallback != nil {
			return s.fallback, true
		}
		return s.primary, false
	}
	return s.primary, false
}

func (s *Selector) switchToFallback() {
	s.mu.Lock()
	s.usingFallback = true
	s.mu.Unlock()
}
