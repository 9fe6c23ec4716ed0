package analysis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cloudwego/eino/schema"

	"github.com/mockview/backend/internal/model/interview"
	"github.com/mockview/backend/internal/repository"
)

type fakeGenerator struct {
	reply string
	err   error
	calls int
}

func (g *fakeGenerator) Generate(_ context.Context, _ []*schema.Message) (*schema.Message, error) {
	g.calls++
	if g.err != nil {
		return nil, g.err
	}
	return schema.AssistantMessage(g.reply, nil), nil
}

type fakeScoreStore struct {
	rows map[string]map[interview.ScoreType]float64
}

func newFakeScoreStore() *fakeScoreStore {
	return &fakeScoreStore{rows: make(map[string]map[interview.ScoreType]float64)}
}

func (s *fakeScoreStore) GetScores(_ context.Context, chatID string) (map[interview.ScoreType]float64, error) {
	scores := make(map[interview.ScoreType]float64)
	for t, v := range s.rows[chatID] {
		scores[t] = v
	}
	return scores, nil
}

func (s *fakeScoreStore) PutScoreIfAbsent(_ context.Context, chatID, _ string, scoreType interview.ScoreType, value float64) (bool, error) {
	byType, ok := s.rows[chatID]
	if !ok {
		byType = make(map[interview.ScoreType]float64)
		s.rows[chatID] = byType
	}
	if _, exists := byType[scoreType]; exists {
		return false, nil
	}
	byType[scoreType] = value
	return true, nil
}

func (s *fakeScoreStore) ListByUsername(_ context.Context, _ string) ([]interview.EvaluationScore, error) {
	var rows []interview.EvaluationScore
	for chatID, byType := range s.rows {
		for t, v := range byType {
			rows = append(rows, interview.EvaluationScore{ChatID: chatID, ScoreType: t, Value: v})
		}
	}
	return rows, nil
}

func (s *fakeScoreStore) count(chatID string) int {
	return len(s.rows[chatID])
}

type fakeMessageSource struct {
	msgs map[string][]interview.Message
}

func (m *fakeMessageSource) ListByChat(_ context.Context, chatID string) ([]interview.Message, error) {
	return m.msgs[chatID], nil
}

func (m *fakeMessageSource) CountByChat(_ context.Context, chatID string) (int64, error) {
	return int64(len(m.msgs[chatID])), nil
}

type fakeChatSource struct {
	chats map[string]*interview.Chat
}

func (c *fakeChatSource) FindByID(_ context.Context, id string) (*interview.Chat, error) {
	chat, ok := c.chats[id]
	if !ok {
		return nil, repository.ErrChatNotFound
	}
	return chat, nil
}

func (c *fakeChatSource) ListByUsername(_ context.Context, username string) ([]interview.Chat, error) {
	var out []interview.Chat
	for _, chat := range c.chats {
		if chat.Username == username {
			out = append(out, *chat)
		}
	}
	return out, nil
}

type fakeJDSource struct {
	jds         map[uint]*interview.JobDescription
	singleCalls int
	batchCalls  int
}

func (j *fakeJDSource) FindByID(_ context.Context, id uint) (*interview.JobDescription, error) {
	j.singleCalls++
	return j.jds[id], nil
}

func (j *fakeJDSource) FindByIDs(_ context.Context, ids []uint) (map[uint]*interview.JobDescription, error) {
	j.batchCalls++
	byID := make(map[uint]*interview.JobDescription, len(ids))
	for _, id := range ids {
		if jd, ok := j.jds[id]; ok {
			byID[id] = jd
		}
	}
	return byID, nil
}

func conversation(chatID string, n int) []interview.Message {
	ts := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	msgs := make([]interview.Message, 0, n)
	for i := 0; i < n; i++ {
		role := interview.RoleUser
		if i%2 == 1 {
			role = interview.RoleAI
		}
		msgs = append(msgs, interview.Message{
			ID:        uint(i + 1),
			ChatID:    chatID,
			Role:      role,
			Body:      "turn",
			Timestamp: ts,
		})
	}
	return msgs
}

func newTestService(gen *fakeGenerator, store *fakeScoreStore, msgs map[string][]interview.Message, chats map[string]*interview.Chat) *Service {
	return NewService(
		gen,
		store,
		&fakeMessageSource{msgs: msgs},
		&fakeChatSource{chats: chats},
		&fakeJDSource{jds: map[uint]*interview.JobDescription{}},
		200,
	)
}

func TestAnalyzePersistsDerivedScores(t *testing.T) {
	store := newFakeScoreStore()
	gen := &fakeGenerator{reply: "Technical Score: 8, Emotional Score: 6. Good pacing."}
	svc := newTestService(gen, store, map[string][]interview.Message{"c1": conversation("c1", 4)}, nil)

	res, err := svc.Analyze(context.Background(), "c1", "alice")
	if err != nil {
		t.Fatalf("Analyze err: %v", err)
	}
	if res.TechnicalScore != 8.0 || res.EmotionalScore != 6.0 {
		t.Fatalf("scores = (%v, %v), want (8, 6)", res.TechnicalScore, res.EmotionalScore)
	}
	if store.count("c1") != 2 {
		t.Fatalf("expected 2 score rows, got %d", store.count("c1"))
	}
}

func TestAnalyzeIdempotentScoring(t *testing.T) {
	store := newFakeScoreStore()
	store.rows["c1"] = map[interview.ScoreType]float64{
		interview.ScoreTechnical: 7.0,
		interview.ScoreEmotional: 4.0,
	}
	gen := &fakeGenerator{reply: "Technical: 9, Emotional: 9. Stellar round."}
	svc := newTestService(gen, store, map[string][]interview.Message{"c1": conversation("c1", 4)}, nil)

	for i := 0; i < 2; i++ {
		res, err := svc.Analyze(context.Background(), "c1", "alice")
		if err != nil {
			t.Fatalf("Analyze err: %v", err)
		}
		// Persisted values win regardless of what the fresh narrative says.
		if res.TechnicalScore != 7.0 || res.EmotionalScore != 4.0 {
			t.Fatalf("scores = (%v, %v), want persisted (7, 4)", res.TechnicalScore, res.EmotionalScore)
		}
	}
	if store.count("c1") != 2 {
		t.Fatalf("expected 2 score rows after repeat calls, got %d", store.count("c1"))
	}
	// The narrative itself is regenerated every time.
	if gen.calls != 2 {
		t.Fatalf("generator called %d times, want 2", gen.calls)
	}
}

func TestAnalyzePartialRegeneration(t *testing.T) {
	store := newFakeScoreStore()
	store.rows["c1"] = map[interview.ScoreType]float64{interview.ScoreTechnical: 7.0}
	gen := &fakeGenerator{reply: "Technical: 2, Emotional: 9."}
	svc := newTestService(gen, store, map[string][]interview.Message{"c1": conversation("c1", 4)}, nil)

	res, err := svc.Analyze(context.Background(), "c1", "alice")
	if err != nil {
		t.Fatalf("Analyze err: %v", err)
	}
	if res.TechnicalScore != 7.0 {
		t.Fatalf("technical = %v, want persisted 7", res.TechnicalScore)
	}
	if res.EmotionalScore != 9.0 {
		t.Fatalf("emotional = %v, want derived 9", res.EmotionalScore)
	}
	if store.rows["c1"][interview.ScoreEmotional] != 9.0 {
		t.Fatal("emotional score row not written")
	}
}

func TestAnalyzeDefaultSubstitution(t *testing.T) {
	store := newFakeScoreStore()
	gen := &fakeGenerator{reply: "A thoughtful candidate, pleasant to talk to."}
	svc := newTestService(gen, store, map[string][]interview.Message{"c1": conversation("c1", 4)}, nil)

	res, err := svc.Analyze(context.Background(), "c1", "alice")
	if err != nil {
		t.Fatalf("Analyze err: %v", err)
	}
	if res.TechnicalScore != 5.0 || res.EmotionalScore != 5.0 {
		t.Fatalf("scores = (%v, %v), want neutral defaults (5, 5)", res.TechnicalScore, res.EmotionalScore)
	}
	if store.rows["c1"][interview.ScoreTechnical] != 5.0 {
		t.Fatal("default technical score not persisted")
	}
}

func TestAnalyzeModelFailurePropagates(t *testing.T) {
	store := newFakeScoreStore()
	gen := &fakeGenerator{err: errors.New("provider down")}
	svc := newTestService(gen, store, map[string][]interview.Message{"c1": conversation("c1", 4)}, nil)

	if _, err := svc.Analyze(context.Background(), "c1", "alice"); err == nil {
		t.Fatal("expected error from failing model")
	}
	if store.count("c1") != 0 {
		t.Fatalf("no scores should be written on failure, got %d rows", store.count("c1"))
	}
}

func TestSessionDetailShortTranscriptShortCircuit(t *testing.T) {
	store := newFakeScoreStore()
	gen := &fakeGenerator{reply: "should never be called"}
	chats := map[string]*interview.Chat{"c1": {ID: "c1", Username: "alice"}}
	svc := newTestService(gen, store, map[string][]interview.Message{"c1": conversation("c1", 2)}, chats)

	detail, err := svc.SessionDetail(context.Background(), "c1", "alice")
	if err != nil {
		t.Fatalf("SessionDetail err: %v", err)
	}
	if detail.Analysis != "No analysis generated yet." {
		t.Fatalf("analysis = %q, want placeholder", detail.Analysis)
	}
	if detail.Scores.Technical != nil || detail.Scores.Emotional != nil || detail.Scores.Code != nil {
		t.Fatalf("scores should all be absent: %+v", detail.Scores)
	}
	if gen.calls != 0 {
		t.Fatalf("model invoked %d times, want 0", gen.calls)
	}
	if store.count("c1") != 0 {
		t.Fatalf("score rows written on short-circuit: %d", store.count("c1"))
	}
}

func TestSessionDetailModelFailurePlaceholder(t *testing.T) {
	store := newFakeScoreStore()
	gen := &fakeGenerator{err: errors.New("provider down")}
	chats := map[string]*interview.Chat{"c1": {ID: "c1", Username: "alice"}}
	svc := newTestService(gen, store, map[string][]interview.Message{"c1": conversation("c1", 4)}, chats)

	detail, err := svc.SessionDetail(context.Background(), "c1", "alice")
	if err != nil {
		t.Fatalf("SessionDetail err: %v", err)
	}
	if detail.Analysis != "Failed to generate analysis." {
		t.Fatalf("analysis = %q, want failure narrative", detail.Analysis)
	}
	if store.count("c1") != 0 {
		t.Fatalf("score rows written despite failure: %d", store.count("c1"))
	}
}

func TestSessionDetailGeneratesAndPersists(t *testing.T) {
	store := newFakeScoreStore()
	jdID := uint(3)
	chats := map[string]*interview.Chat{"c1": {ID: "c1", Username: "alice", JDID: &jdID}}
	gen := &fakeGenerator{reply: `{"technical": 7.5, "emotional": 6.0}`}
	svc := NewService(
		gen,
		store,
		&fakeMessageSource{msgs: map[string][]interview.Message{"c1": conversation("c1", 5)}},
		&fakeChatSource{chats: chats},
		&fakeJDSource{jds: map[uint]*interview.JobDescription{3: {ID: 3, Filename: "backend-engineer.pdf"}}},
		200,
	)

	detail, err := svc.SessionDetail(context.Background(), "c1", "alice")
	if err != nil {
		t.Fatalf("SessionDetail err: %v", err)
	}
	if detail.RoleName != "backend-engineer.pdf" {
		t.Fatalf("role name = %q", detail.RoleName)
	}
	if detail.Scores.Technical == nil || *detail.Scores.Technical != 7.5 {
		t.Fatalf("technical = %v, want 7.5", detail.Scores.Technical)
	}
	if detail.Scores.Emotional == nil || *detail.Scores.Emotional != 6.0 {
		t.Fatalf("emotional = %v, want 6.0", detail.Scores.Emotional)
	}
	if len(detail.Transcript) != 5 {
		t.Fatalf("transcript has %d entries, want 5", len(detail.Transcript))
	}
}

func TestSessionDetailUnknownChat(t *testing.T) {
	svc := newTestService(&fakeGenerator{}, newFakeScoreStore(), nil, map[string]*interview.Chat{})

	if _, err := svc.SessionDetail(context.Background(), "ghost", "alice"); !errors.Is(err, repository.ErrChatNotFound) {
		t.Fatalf("expected ErrChatNotFound, got %v", err)
	}
}

func TestOverviewBatchesJobDescriptionLookups(t *testing.T) {
	store := newFakeScoreStore()
	jdBackend := uint(3)
	jdMissing := uint(4)
	chats := map[string]*interview.Chat{
		"c1": {ID: "c1", Username: "alice", JDID: &jdBackend},
		"c2": {ID: "c2", Username: "alice", JDID: &jdBackend},
		"c3": {ID: "c3", Username: "alice", JDID: &jdMissing},
	}
	jds := &fakeJDSource{jds: map[uint]*interview.JobDescription{
		3: {ID: 3, Filename: "backend-engineer.pdf"},
	}}
	svc := NewService(
		&fakeGenerator{},
		store,
		&fakeMessageSource{msgs: map[string][]interview.Message{}},
		&fakeChatSource{chats: chats},
		jds,
		200,
	)

	overview, err := svc.Overview(context.Background(), "alice")
	if err != nil {
		t.Fatalf("Overview err: %v", err)
	}
	if jds.batchCalls != 1 {
		t.Fatalf("batch lookups = %d, want 1", jds.batchCalls)
	}
	if jds.singleCalls != 0 {
		t.Fatalf("per-chat lookups = %d, want 0", jds.singleCalls)
	}

	roleNames := make(map[string]string, len(overview.Sessions))
	for _, s := range overview.Sessions {
		roleNames[s.ChatID] = s.RoleName
	}
	if roleNames["c1"] != "backend-engineer.pdf" || roleNames["c2"] != "backend-engineer.pdf" {
		t.Fatalf("role names = %v", roleNames)
	}
	if roleNames["c3"] != "General Interview" {
		t.Fatalf("unknown jd must fall back to the default role name, got %q", roleNames["c3"])
	}
}

func TestOverviewAggregatesScores(t *testing.T) {
	store := newFakeScoreStore()
	store.rows["c1"] = map[interview.ScoreType]float64{
		interview.ScoreTechnical: 8.0,
		interview.ScoreCode:      6.0,
	}
	chats := map[string]*interview.Chat{
		"c1": {ID: "c1", Username: "alice", StartedAt: time.Now()},
	}
	svc := newTestService(&fakeGenerator{}, store, map[string][]interview.Message{"c1": conversation("c1", 6)}, chats)

	overview, err := svc.Overview(context.Background(), "alice")
	if err != nil {
		t.Fatalf("Overview err: %v", err)
	}
	if len(overview.Sessions) != 1 {
		t.Fatalf("got %d sessions, want 1", len(overview.Sessions))
	}
	s := overview.Sessions[0]
	if s.RoleName != "General Interview" {
		t.Fatalf("role name = %q", s.RoleName)
	}
	if s.MessageCount != 6 {
		t.Fatalf("message count = %d", s.MessageCount)
	}
	if s.Scores.Technical == nil || *s.Scores.Technical != 8.0 {
		t.Fatalf("technical = %v", s.Scores.Technical)
	}
	if s.Scores.Emotional != nil {
		t.Fatal("emotional should be absent")
	}
	if len(overview.Scores) != 2 {
		t.Fatalf("flat score list has %d rows, want 2", len(overview.Scores))
	}
}
