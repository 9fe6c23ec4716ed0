// Package analytics exposes the session scoring and dashboard endpoints.
package analytics

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mockview/backend/internal/repository"
	"github.com/mockview/backend/internal/service/analysis"
	"github.com/mockview/backend/pkg/utils"
)

// AnalysisService produces session analyses and dashboard listings.
type AnalysisService interface {
	Analyze(ctx context.Context, chatID, username string) (*analysis.Result, error)
	SessionDetail(ctx context.Context, chatID, username string) (*analysis.SessionDetail, error)
	Overview(ctx context.Context, username string) (*analysis.Overview, error)
}

// Handler serves the analytics endpoints.
type Handler struct {
	svc AnalysisService
}

func New(svc AnalysisService) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/analytics/{chatID}", h.handleAnalyze)
	r.Get("/sessions", h.handleOverview)
	r.Get("/sessions/{chatID}", h.handleSessionDetail)
}

func (h *Handler) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	chatID := chi.URLParam(r, "chatID")
	username := usernameParam(r)

	result, err := h.svc.Analyze(r.Context(), chatID, username)
	if err != nil {
		if errors.Is(err, repository.ErrChatNotFound) {
			utils.RespondError(w, http.StatusNotFound, "chat not found")
			return
		}
		utils.RespondError(w, http.StatusInternalServerError, "analysis failed")
		return
	}

	utils.RespondJSON(w, http.StatusOK, result)
}

func (h *Handler) handleOverview(w http.ResponseWriter, r *http.Request) {
	overview, err := h.svc.Overview(r.Context(), usernameParam(r))
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, "failed to list sessions")
		return
	}

	utils.RespondJSON(w, http.StatusOK, overview)
}

func (h *Handler) handleSessionDetail(w http.ResponseWriter, r *http.Request) {
	chatID := chi.URLParam(r, "chatID")

	detail, err := h.svc.SessionDetail(r.Context(), chatID, usernameParam(r))
	if err != nil {
		if errors.Is(err, repository.ErrChatNotFound) {
			utils.RespondError(w, http.StatusNotFound, "chat not found")
			return
		}
		utils.RespondError(w, http.StatusInternalServerError, "failed to load session")
		return
	}

	utils.RespondJSON(w, http.StatusOK, detail)
}

// usernameParam reads the caller identity; there is no auth layer, the
// frontend passes the name through.
func usernameParam(r *http.Request) string {
	if username := r.URL.Query().Get("username"); username != "" {
		return username
	}
	return "guest"
}
