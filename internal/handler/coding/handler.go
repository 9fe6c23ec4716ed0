// Package coding exposes the coding-round endpoints.
package coding

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mockview/backend/internal/service/codeeval"
	"github.com/mockview/backend/pkg/utils"
)

// EvalService judges code submissions and produces hints.
type EvalService interface {
	Evaluate(ctx context.Context, req codeeval.Request) *codeeval.Result
	Hint(ctx context.Context, question string) (string, error)
}

// Handler serves the coding-round endpoints.
type Handler struct {
	svc EvalService
}

func New(svc EvalService) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/code/evaluate", h.handleEvaluate)
	r.Post("/code/hint", h.handleHint)
}

func (h *Handler) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	var req codeeval.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Code == "" || req.Question == "" {
		utils.RespondError(w, http.StatusBadRequest, "code and question are required")
		return
	}
	if req.Username == "" {
		req.Username = "guest"
	}

	// Evaluate never fails outward; a model error arrives as a failed
	// verdict with the error text as feedback.
	utils.RespondJSON(w, http.StatusOK, h.svc.Evaluate(r.Context(), req))
}

func (h *Handler) handleHint(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Question string `json:"question"`
	}

	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if payload.Question == "" {
		utils.RespondError(w, http.StatusBadRequest, "question is required")
		return
	}

	hint, err := h.svc.Hint(r.Context(), payload.Question)
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, "failed to generate hint")
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]string{"hint": hint})
}
