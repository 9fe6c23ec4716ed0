package avatar

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	avatarservice "github.com/mockview/backend/internal/service/avatar"
)

type fakeAvatarClient struct {
	started bool
	stopped bool
}

func (f *fakeAvatarClient) StartSession(_ context.Context) (*avatarservice.Session, error) {
	f.started = true
	return &avatarservice.Session{SessionID: "s-1", LivekitURL: "wss://example", LivekitToken: "tok"}, nil
}

func (f *fakeAvatarClient) StopSession(_ context.Context) error {
	f.stopped = true
	return nil
}

func newTestRouter(client AvatarClient) http.Handler {
	r := chi.NewRouter()
	New(client).RegisterRoutes(r)
	return r
}

func TestStartSession(t *testing.T) {
	client := &fakeAvatarClient{}
	router := newTestRouter(client)

	req := httptest.NewRequest(http.MethodPost, "/avatar/session", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rr.Code)
	}
	if !client.started {
		t.Fatal("client was not asked to start a session")
	}

	var session avatarservice.Session
	if err := json.Unmarshal(rr.Body.Bytes(), &session); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if session.SessionID != "s-1" {
		t.Fatalf("session = %+v", session)
	}
}

func TestStopSession(t *testing.T) {
	client := &fakeAvatarClient{}
	router := newTestRouter(client)

	req := httptest.NewRequest(http.MethodPost, "/avatar/stop", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rr.Code)
	}
	if !client.stopped {
		t.Fatal("client was not asked to stop the session")
	}
}

func TestUnconfiguredAnswers502(t *testing.T) {
	router := newTestRouter(nil)

	for _, path := range []string{"/avatar/session", "/avatar/stop"} {
		req := httptest.NewRequest(http.MethodPost, path, nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		if rr.Code != http.StatusBadGateway {
			t.Fatalf("%s: unexpected status %d", path, rr.Code)
		}
	}
}
