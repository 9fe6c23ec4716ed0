// Package interview drives the live mock-interview conversation.
package interview

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"
	"github.com/google/uuid"

	interviewmodel "github.com/mockview/backend/internal/model/interview"
	"github.com/mockview/backend/internal/repository"
	"github.com/mockview/backend/internal/service/llm"
)

// Speaker voices interviewer replies on the streaming avatar. Optional;
// replies are returned to the client either way.
type Speaker interface {
	Speak(ctx context.Context, text string) error
}

// Service owns session lifecycle and the question/answer exchange.
type Service struct {
	generator    llm.Generator
	chats        repository.ChatRepository
	messages     repository.MessageRepository
	jds          repository.JobDescriptionRepository
	template     prompt.ChatTemplate
	historyLimit int
	speaker      Speaker
}

// NewService wires the interviewer. speaker may be nil.
func NewService(generator llm.Generator, chats repository.ChatRepository, messages repository.MessageRepository, jds repository.JobDescriptionRepository, historyLimit int, speaker Speaker) *Service {
	template := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage("{system}"),
		schema.MessagesPlaceholder("history", true),
		schema.UserMessage("{query}"),
	)

	return &Service{
		generator:    generator,
		chats:        chats,
		messages:     messages,
		jds:          jds,
		template:     template,
		historyLimit: historyLimit,
		speaker:      speaker,
	}
}

// StartChat provisions a new interview chat, optionally linked to a job
// description.
func (s *Service) StartChat(ctx context.Context, username string, jdID *uint) (*interviewmodel.Chat, error) {
	now := time.Now().UTC()
	chat := &interviewmodel.Chat{
		ID:           uuid.NewString(),
		Username:     username,
		JDID:         jdID,
		StartedAt:    now,
		LastActivity: now,
	}

	if err := s.chats.Create(ctx, chat); err != nil {
		return nil, fmt.Errorf("create chat: %w", err)
	}
	return chat, nil
}

// Turn is one user answer plus the client-held context that shapes the
// interviewer's next question. ResumeSkills and Questions come from the
// skill-analysis step; the client carries them because sessions are
// stateless server-side.
type Turn struct {
	Text           string
	EmotionContext string
	ResumeSkills   string
	Questions      []string
}

// Exchange handles one turn: the transcribed user answer goes in, the
// interviewer's next line comes out. Both turns are persisted and
// last_activity is bumped for dashboard ordering.
func (s *Service) Exchange(ctx context.Context, chatID string, turn Turn) (string, error) {
	chat, err := s.chats.FindByID(ctx, chatID)
	if err != nil {
		return "", err
	}

	system, err := s.buildSystemPrompt(ctx, chat, turn)
	if err != nil {
		return "", err
	}

	history, err := s.buildHistory(ctx, chatID)
	if err != nil {
		return "", err
	}

	msgs, err := s.template.Format(ctx, map[string]any{
		"system":  system,
		"history": history,
		"query":   turn.Text,
	})
	if err != nil {
		return "", fmt.Errorf("format prompt: %w", err)
	}

	response, err := s.generator.Generate(ctx, msgs)
	if err != nil {
		return "", fmt.Errorf("generate interviewer reply: %w", err)
	}
	reply := response.Content

	if err := s.messages.Create(ctx, &interviewmodel.Message{
		ChatID:         chatID,
		Role:           interviewmodel.RoleUser,
		Body:           turn.Text,
		EmotionContext: turn.EmotionContext,
	}); err != nil {
		return "", fmt.Errorf("save user message: %w", err)
	}
	if err := s.messages.Create(ctx, &interviewmodel.Message{
		ChatID: chatID,
		Role:   interviewmodel.RoleAI,
		Body:   reply,
	}); err != nil {
		return "", fmt.Errorf("save ai message: %w", err)
	}
	if err := s.chats.TouchActivity(ctx, chatID); err != nil {
		log.Printf("[interview] touch activity for chat=%s: %v", chatID, err)
	}

	if s.speaker != nil {
		// Voicing is best effort; the text reply already carries the turn.
		if err := s.speaker.Speak(ctx, reply); err != nil {
			log.Printf("[interview] avatar speak failed for chat=%s: %v", chatID, err)
		}
	}

	return reply, nil
}

func (s *Service) buildSystemPrompt(ctx context.Context, chat *interviewmodel.Chat, turn Turn) (string, error) {
	jdSkills := "N/A"
	if chat.JDID != nil {
		jd, err := s.jds.FindByID(ctx, *chat.JDID)
		if err != nil {
			return "", fmt.Errorf("load job description: %w", err)
		}
		if jd != nil && jd.Skills != "" {
			jdSkills = jd.Skills
		}
	}

	resumeSkills := turn.ResumeSkills
	if resumeSkills == "" {
		resumeSkills = "N/A"
	}
	emotionContext := turn.EmotionContext
	if emotionContext == "" {
		emotionContext = "{}"
	}

	var b strings.Builder
	b.WriteString("You are an AI Interviewer.\n")
	b.WriteString("Context:\n")
	fmt.Fprintf(&b, "Resume Skills: %s\n", resumeSkills)
	fmt.Fprintf(&b, "JD Skills: %s\n", jdSkills)
	fmt.Fprintf(&b, "Questions: %s\n", formatQuestions(turn.Questions))
	fmt.Fprintf(&b, "User Emotion: %s\n", emotionContext)
	b.WriteString("\nRules:\n")
	b.WriteString("1. Ask one question at a time based on the Context.\n")
	b.WriteString("2. Be professional but conversational.\n")
	b.WriteString("3. Keep responses concise (under 3 sentences) suitable for a spoken avatar.\n")
	return b.String(), nil
}

func formatQuestions(questions []string) string {
	if len(questions) == 0 {
		return "[]"
	}
	data, err := json.Marshal(questions)
	if err != nil {
		return "[]"
	}
	return string(data)
}

func (s *Service) buildHistory(ctx context.Context, chatID string) ([]*schema.Message, error) {
	recent, err := s.messages.ListRecent(ctx, chatID, s.historyLimit)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}

	history := make([]*schema.Message, 0, len(recent))
	for _, msg := range recent {
		switch msg.Role {
		case interviewmodel.RoleUser:
			history = append(history, schema.UserMessage(msg.Body))
		case interviewmodel.RoleAI:
			history = append(history, schema.AssistantMessage(msg.Body, nil))
		}
	}
	return history, nil
}
