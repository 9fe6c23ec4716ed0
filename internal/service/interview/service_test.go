package interview

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/cloudwego/eino/schema"

	interviewmodel "github.com/mockview/backend/internal/model/interview"
	"github.com/mockview/backend/internal/repository"
)

type fakeGenerator struct {
	reply string
	last  []*schema.Message
}

func (g *fakeGenerator) Generate(_ context.Context, msgs []*schema.Message) (*schema.Message, error) {
	g.last = msgs
	return schema.AssistantMessage(g.reply, nil), nil
}

type memChats struct {
	chats   map[string]*interviewmodel.Chat
	touched int
}

func (m *memChats) Create(_ context.Context, c *interviewmodel.Chat) error {
	m.chats[c.ID] = c
	return nil
}

func (m *memChats) FindByID(_ context.Context, id string) (*interviewmodel.Chat, error) {
	c, ok := m.chats[id]
	if !ok {
		return nil, repository.ErrChatNotFound
	}
	return c, nil
}

func (m *memChats) ListByUsername(_ context.Context, _ string) ([]interviewmodel.Chat, error) {
	return nil, nil
}

func (m *memChats) TouchActivity(_ context.Context, _ string) error {
	m.touched++
	return nil
}

type memMessages struct {
	msgs []interviewmodel.Message
}

func (m *memMessages) Create(_ context.Context, msg *interviewmodel.Message) error {
	msg.ID = uint(len(m.msgs) + 1)
	m.msgs = append(m.msgs, *msg)
	return nil
}

func (m *memMessages) ListByChat(_ context.Context, chatID string) ([]interviewmodel.Message, error) {
	var out []interviewmodel.Message
	for _, msg := range m.msgs {
		if msg.ChatID == chatID {
			out = append(out, msg)
		}
	}
	return out, nil
}

func (m *memMessages) ListRecent(ctx context.Context, chatID string, limit int) ([]interviewmodel.Message, error) {
	all, _ := m.ListByChat(ctx, chatID)
	if len(all) > limit {
		all = all[len(all)-limit:]
	}
	return all, nil
}

func (m *memMessages) CountByChat(ctx context.Context, chatID string) (int64, error) {
	all, _ := m.ListByChat(ctx, chatID)
	return int64(len(all)), nil
}

type memJDs struct{ jds map[uint]*interviewmodel.JobDescription }

func (m *memJDs) Create(_ context.Context, jd *interviewmodel.JobDescription) error {
	m.jds[jd.ID] = jd
	return nil
}

func (m *memJDs) FindByID(_ context.Context, id uint) (*interviewmodel.JobDescription, error) {
	return m.jds[id], nil
}

func (m *memJDs) FindByIDs(_ context.Context, ids []uint) (map[uint]*interviewmodel.JobDescription, error) {
	byID := make(map[uint]*interviewmodel.JobDescription, len(ids))
	for _, id := range ids {
		if jd, ok := m.jds[id]; ok {
			byID[id] = jd
		}
	}
	return byID, nil
}

type recordingSpeaker struct{ spoken []string }

func (r *recordingSpeaker) Speak(_ context.Context, text string) error {
	r.spoken = append(r.spoken, text)
	return nil
}

func newFixture(reply string, speaker Speaker) (*Service, *memChats, *memMessages, *fakeGenerator) {
	gen := &fakeGenerator{reply: reply}
	chats := &memChats{chats: make(map[string]*interviewmodel.Chat)}
	msgs := &memMessages{}
	jds := &memJDs{jds: make(map[uint]*interviewmodel.JobDescription)}
	svc := NewService(gen, chats, msgs, jds, 6, speaker)
	return svc, chats, msgs, gen
}

func TestStartChat(t *testing.T) {
	svc, chats, _, _ := newFixture("", nil)

	chat, err := svc.StartChat(context.Background(), "alice", nil)
	if err != nil {
		t.Fatalf("StartChat err: %v", err)
	}
	if chat.ID == "" {
		t.Fatal("chat id must be assigned")
	}
	if _, ok := chats.chats[chat.ID]; !ok {
		t.Fatal("chat not persisted")
	}
}

func TestExchangePersistsBothTurns(t *testing.T) {
	speaker := &recordingSpeaker{}
	svc, chats, msgs, gen := newFixture("Tell me about goroutines.", speaker)

	chat, _ := svc.StartChat(context.Background(), "alice", nil)

	reply, err := svc.Exchange(context.Background(), chat.ID, Turn{
		Text:           "I like Go.",
		EmotionContext: `{"happy":0.9}`,
		ResumeSkills:   "Go, SQL",
		Questions:      []string{"Explain channels."},
	})
	if err != nil {
		t.Fatalf("Exchange err: %v", err)
	}
	if reply != "Tell me about goroutines." {
		t.Fatalf("reply = %q", reply)
	}

	if len(msgs.msgs) != 2 {
		t.Fatalf("persisted %d messages, want 2", len(msgs.msgs))
	}
	if msgs.msgs[0].Role != interviewmodel.RoleUser || msgs.msgs[0].EmotionContext != `{"happy":0.9}` {
		t.Fatalf("user turn = %+v", msgs.msgs[0])
	}
	if msgs.msgs[1].Role != interviewmodel.RoleAI {
		t.Fatalf("ai turn = %+v", msgs.msgs[1])
	}
	if chats.touched != 1 {
		t.Fatalf("last activity touched %d times, want 1", chats.touched)
	}
	if len(speaker.spoken) != 1 {
		t.Fatalf("avatar spoke %d times, want 1", len(speaker.spoken))
	}

	system := gen.last[0].Content
	for _, want := range []string{"Resume Skills: Go, SQL", `Questions: ["Explain channels."]`, `User Emotion: {"happy":0.9}`} {
		if !strings.Contains(system, want) {
			t.Fatalf("system prompt missing %q:\n%s", want, system)
		}
	}
}

func TestExchangeUnknownChat(t *testing.T) {
	svc, _, _, _ := newFixture("", nil)

	if _, err := svc.Exchange(context.Background(), "ghost", Turn{Text: "hi"}); !errors.Is(err, repository.ErrChatNotFound) {
		t.Fatalf("expected ErrChatNotFound, got %v", err)
	}
}

func TestExchangeHistoryWindow(t *testing.T) {
	svc, _, msgs, gen := newFixture("next question", nil)

	chat, _ := svc.StartChat(context.Background(), "alice", nil)
	// Preload more turns than the window keeps.
	for i := 0; i < 10; i++ {
		msgs.msgs = append(msgs.msgs, interviewmodel.Message{
			ID: uint(i + 1), ChatID: chat.ID, Role: interviewmodel.RoleUser, Body: "old",
		})
	}

	if _, err := svc.Exchange(context.Background(), chat.ID, Turn{Text: "latest"}); err != nil {
		t.Fatalf("Exchange err: %v", err)
	}

	// system + 6 history turns + current query.
	if len(gen.last) != 8 {
		t.Fatalf("prompt carried %d messages, want 8", len(gen.last))
	}
	if gen.last[0].Role != schema.System {
		t.Fatalf("first message role = %v, want system", gen.last[0].Role)
	}
	if gen.last[len(gen.last)-1].Content != "latest" {
		t.Fatalf("query missing from prompt tail: %q", gen.last[len(gen.last)-1].Content)
	}
}
