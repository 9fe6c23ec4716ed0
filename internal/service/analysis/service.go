// Package analysis scores finished interview sessions: it renders the
// transcript, asks the chat model for a narrative, extracts numeric scores
// and persists them exactly once per dimension.
package analysis

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/cloudwego/eino/schema"

	"github.com/mockview/backend/internal/model/interview"
	"github.com/mockview/backend/internal/service/llm"
	"github.com/mockview/backend/internal/service/transcript"
)

const (
	analysisPrompt = "Analyze this interview transcript for technical and emotional performance. " +
		"Provide a Technical Score (0-10) and Emotional Score (0-10) and constructive feedback:\n"

	// Sessions below this many messages never really started; asking the
	// model about them only produces meaningless default scores.
	minMessagesForAnalysis = 3

	// Neutral midpoint used when the narrative yields no parseable score.
	defaultScore = 5.0

	placeholderNarrative = "No analysis generated yet."
	failureNarrative     = "Failed to generate analysis."

	defaultRoleName = "Interview"
)

// ScoreStore is the persistence boundary for evaluation scores.
type ScoreStore interface {
	GetScores(ctx context.Context, chatID string) (map[interview.ScoreType]float64, error)
	PutScoreIfAbsent(ctx context.Context, chatID, username string, scoreType interview.ScoreType, value float64) (bool, error)
	ListByUsername(ctx context.Context, username string) ([]interview.EvaluationScore, error)
}

// MessageSource supplies stored messages in insertion order.
type MessageSource interface {
	ListByChat(ctx context.Context, chatID string) ([]interview.Message, error)
	CountByChat(ctx context.Context, chatID string) (int64, error)
}

// ChatSource resolves chat metadata.
type ChatSource interface {
	FindByID(ctx context.Context, id string) (*interview.Chat, error)
	ListByUsername(ctx context.Context, username string) ([]interview.Chat, error)
}

// JobDescriptionSource resolves the JD a chat was started from, if any.
type JobDescriptionSource interface {
	FindByID(ctx context.Context, id uint) (*interview.JobDescription, error)
	FindByIDs(ctx context.Context, ids []uint) (map[uint]*interview.JobDescription, error)
}

// Service orchestrates session analysis.
type Service struct {
	generator llm.Generator
	scores    ScoreStore
	messages  MessageSource
	chats     ChatSource
	jds       JobDescriptionSource
	window    int
}

// NewService wires the orchestrator. window bounds the rendered transcript
// (see transcript.Render).
func NewService(generator llm.Generator, scores ScoreStore, messages MessageSource, chats ChatSource, jds JobDescriptionSource, window int) *Service {
	return &Service{
		generator: generator,
		scores:    scores,
		messages:  messages,
		chats:     chats,
		jds:       jds,
		window:    window,
	}
}

// Result is the payload of the analytics endpoint.
type Result struct {
	Analysis       string  `json:"analysis"`
	TechnicalScore float64 `json:"technical_score"`
	EmotionalScore float64 `json:"emotional_score"`
}

// Analyze produces the analysis narrative plus technical and emotional
// scores for a chat.
//
// The narrative is regenerated on every call so feedback stays fresh; only
// the persisted scores are protected from duplication. When a dimension was
// already scored, the stored value wins and the freshly derived one is
// discarded, so the prose may mention numbers that differ from the returned
// fields. A model failure on this path is not recovered locally.
func (s *Service) Analyze(ctx context.Context, chatID, username string) (*Result, error) {
	existing, err := s.scores.GetScores(ctx, chatID)
	if err != nil {
		return nil, fmt.Errorf("load scores: %w", err)
	}

	msgs, err := s.messages.ListByChat(ctx, chatID)
	if err != nil {
		return nil, fmt.Errorf("load transcript: %w", err)
	}

	narrative, err := s.generateNarrative(ctx, msgs)
	if err != nil {
		return nil, err
	}

	newTech, newEmo := ParseScores(narrative)

	techScore, err := s.resolveScore(ctx, chatID, username, interview.ScoreTechnical, existing, newTech)
	if err != nil {
		return nil, err
	}
	emoScore, err := s.resolveScore(ctx, chatID, username, interview.ScoreEmotional, existing, newEmo)
	if err != nil {
		return nil, err
	}

	return &Result{
		Analysis:       narrative,
		TechnicalScore: techScore,
		EmotionalScore: emoScore,
	}, nil
}

// ScoreSet mirrors the three dimensions of a session; nil means not
// recorded.
type ScoreSet struct {
	Technical *float64 `json:"technical"`
	Emotional *float64 `json:"emotional"`
	Code      *float64 `json:"code"`
}

// TranscriptEntry is one message of the detail payload.
type TranscriptEntry struct {
	Role           string    `json:"role"`
	Message        string    `json:"message"`
	EmotionContext string    `json:"emotion_context,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
}

// SessionDetail is the full payload for a single session.
type SessionDetail struct {
	ChatID     string            `json:"chat_id"`
	RoleName   string            `json:"role_name"`
	Transcript []TranscriptEntry `json:"transcript"`
	Scores     ScoreSet          `json:"evaluation_scores"`
	Analysis   string            `json:"analysis"`
}

// SessionDetail returns transcript, scores and narrative for one chat.
//
// Sessions with fewer than three messages short-circuit: no model call, a
// placeholder narrative, and no score rows written. A model failure is
// caught here and reported as a failure narrative, again with no score side
// effects.
func (s *Service) SessionDetail(ctx context.Context, chatID, username string) (*SessionDetail, error) {
	chat, err := s.chats.FindByID(ctx, chatID)
	if err != nil {
		return nil, err
	}

	roleName := defaultRoleName
	if chat.JDID != nil {
		jd, err := s.jds.FindByID(ctx, *chat.JDID)
		if err != nil {
			return nil, fmt.Errorf("load job description: %w", err)
		}
		if jd != nil && jd.Filename != "" {
			roleName = jd.Filename
		}
	}

	msgs, err := s.messages.ListByChat(ctx, chatID)
	if err != nil {
		return nil, fmt.Errorf("load transcript: %w", err)
	}

	existing, err := s.scores.GetScores(ctx, chatID)
	if err != nil {
		return nil, fmt.Errorf("load scores: %w", err)
	}

	detail := &SessionDetail{
		ChatID:     chatID,
		RoleName:   roleName,
		Transcript: toEntries(msgs),
		Scores:     toScoreSet(existing),
	}

	if len(msgs) < minMessagesForAnalysis {
		detail.Analysis = placeholderNarrative
		return detail, nil
	}

	narrative, err := s.generateNarrative(ctx, msgs)
	if err != nil {
		log.Printf("[analysis] narrative generation failed for chat=%s: %v", chatID, err)
		detail.Analysis = failureNarrative
		return detail, nil
	}
	detail.Analysis = narrative

	newTech, newEmo := ParseScores(narrative)

	techScore, err := s.resolveScore(ctx, chatID, username, interview.ScoreTechnical, existing, newTech)
	if err != nil {
		return nil, err
	}
	emoScore, err := s.resolveScore(ctx, chatID, username, interview.ScoreEmotional, existing, newEmo)
	if err != nil {
		return nil, err
	}
	detail.Scores.Technical = &techScore
	detail.Scores.Emotional = &emoScore

	return detail, nil
}

// SessionSummary is one row of the dashboard session list.
type SessionSummary struct {
	ChatID       string    `json:"chat_id"`
	RoleName     string    `json:"role_name"`
	Date         time.Time `json:"date"`
	LastTime     time.Time `json:"last_time"`
	MessageCount int64     `json:"message_count"`
	Scores       ScoreSet  `json:"scores"`
}

// Overview is the dashboard payload: per-session summaries plus the flat
// score list used for aggregate charts.
type Overview struct {
	Sessions []SessionSummary            `json:"sessions"`
	Scores   []interview.EvaluationScore `json:"evaluation_scores"`
}

// Overview lists a user's sessions newest-first with their recorded scores.
func (s *Service) Overview(ctx context.Context, username string) (*Overview, error) {
	chats, err := s.chats.ListByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("list chats: %w", err)
	}

	allScores, err := s.scores.ListByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("list scores: %w", err)
	}

	scoresByChat := make(map[string]map[interview.ScoreType]float64)
	for _, row := range allScores {
		byType, ok := scoresByChat[row.ChatID]
		if !ok {
			byType = make(map[interview.ScoreType]float64, 3)
			scoresByChat[row.ChatID] = byType
		}
		byType[row.ScoreType] = row.Value
	}

	// One batched lookup instead of one query per chat.
	jdIDs := make([]uint, 0, len(chats))
	seen := make(map[uint]bool, len(chats))
	for _, chat := range chats {
		if chat.JDID != nil && !seen[*chat.JDID] {
			seen[*chat.JDID] = true
			jdIDs = append(jdIDs, *chat.JDID)
		}
	}
	jdByID, err := s.jds.FindByIDs(ctx, jdIDs)
	if err != nil {
		return nil, fmt.Errorf("load job descriptions: %w", err)
	}

	sessions := make([]SessionSummary, 0, len(chats))
	for _, chat := range chats {
		roleName := "General Interview"
		if chat.JDID != nil {
			if jd := jdByID[*chat.JDID]; jd != nil && jd.Filename != "" {
				roleName = jd.Filename
			}
		}

		count, err := s.messages.CountByChat(ctx, chat.ID)
		if err != nil {
			return nil, fmt.Errorf("count messages: %w", err)
		}

		sessions = append(sessions, SessionSummary{
			ChatID:       chat.ID,
			RoleName:     roleName,
			Date:         chat.StartedAt,
			LastTime:     chat.LastActivity,
			MessageCount: count,
			Scores:       toScoreSet(scoresByChat[chat.ID]),
		})
	}

	if allScores == nil {
		allScores = []interview.EvaluationScore{}
	}
	return &Overview{Sessions: sessions, Scores: allScores}, nil
}

func (s *Service) generateNarrative(ctx context.Context, msgs []interview.Message) (string, error) {
	prompt := analysisPrompt + transcript.Render(msgs, s.window)
	response, err := s.generator.Generate(ctx, []*schema.Message{schema.UserMessage(prompt)})
	if err != nil {
		return "", fmt.Errorf("generate analysis: %w", err)
	}
	return response.Content, nil
}

// resolveScore returns the authoritative value for one dimension: the
// pre-existing row when there is one, otherwise the freshly derived value
// (defaulted to the neutral midpoint) persisted via an atomic
// insert-if-absent. Losing the insert race means another request scored the
// chat first; the surviving row wins.
func (s *Service) resolveScore(ctx context.Context, chatID, username string, scoreType interview.ScoreType, existing map[interview.ScoreType]float64, derived *float64) (float64, error) {
	if value, ok := existing[scoreType]; ok {
		return value, nil
	}

	value := defaultScore
	if derived != nil {
		value = *derived
	}

	inserted, err := s.scores.PutScoreIfAbsent(ctx, chatID, username, scoreType, value)
	if err != nil {
		return 0, fmt.Errorf("persist %s score: %w", scoreType, err)
	}
	if !inserted {
		current, err := s.scores.GetScores(ctx, chatID)
		if err != nil {
			return 0, fmt.Errorf("reload %s score: %w", scoreType, err)
		}
		if stored, ok := current[scoreType]; ok {
			return stored, nil
		}
	}
	return value, nil
}

func toEntries(msgs []interview.Message) []TranscriptEntry {
	entries := make([]TranscriptEntry, 0, len(msgs))
	for _, msg := range msgs {
		entries = append(entries, TranscriptEntry{
			Role:           msg.Role,
			Message:        msg.Body,
			EmotionContext: msg.EmotionContext,
			Timestamp:      msg.Timestamp,
		})
	}
	return entries
}

func toScoreSet(scores map[interview.ScoreType]float64) ScoreSet {
	var set ScoreSet
	if value, ok := scores[interview.ScoreTechnical]; ok {
		v := value
		set.Technical = &v
	}
	if value, ok := scores[interview.ScoreEmotional]; ok {
		v := value
		set.Emotional = &v
	}
	if value, ok := scores[interview.ScoreCode]; ok {
		v := value
		set.Code = &v
	}
	return set
}
