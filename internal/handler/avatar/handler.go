// Package avatar exposes streaming-avatar session control.
package avatar

import (
	"context"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	avatarservice "github.com/mockview/backend/internal/service/avatar"
	"github.com/mockview/backend/pkg/utils"
)

// AvatarClient controls the upstream streaming session.
type AvatarClient interface {
	StartSession(ctx context.Context) (*avatarservice.Session, error)
	StopSession(ctx context.Context) error
}

// Handler serves the avatar endpoints. client is nil when the avatar
// provider is not configured; the endpoints then answer 502.
type Handler struct {
	client AvatarClient
}

func New(client AvatarClient) *Handler {
	return &Handler{client: client}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/avatar/session", h.handleStartSession)
	r.Post("/avatar/stop", h.handleStopSession)
}

func (h *Handler) handleStartSession(w http.ResponseWriter, r *http.Request) {
	if h.client == nil {
		utils.RespondError(w, http.StatusBadGateway, "avatar provider not configured")
		return
	}

	session, err := h.client.StartSession(r.Context())
	if err != nil {
		log.Printf("[avatar] start session failed: %v", err)
		utils.RespondError(w, http.StatusBadGateway, "failed to start avatar session")
		return
	}

	utils.RespondJSON(w, http.StatusOK, session)
}

func (h *Handler) handleStopSession(w http.ResponseWriter, r *http.Request) {
	if h.client == nil {
		utils.RespondError(w, http.StatusBadGateway, "avatar provider not configured")
		return
	}

	if err := h.client.StopSession(r.Context()); err != nil {
		log.Printf("[avatar] stop session failed: %v", err)
		utils.RespondError(w, http.StatusBadGateway, "failed to stop avatar session")
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "stopped"})
}
