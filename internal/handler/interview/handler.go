// Package interview exposes the chat-session endpoints.
package interview

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	interviewmodel "github.com/mockview/backend/internal/model/interview"
	"github.com/mockview/backend/internal/repository"
	interviewservice "github.com/mockview/backend/internal/service/interview"
	"github.com/mockview/backend/pkg/utils"
)

// SessionService drives chat lifecycle and turns.
type SessionService interface {
	StartChat(ctx context.Context, username string, jdID *uint) (*interviewmodel.Chat, error)
	Exchange(ctx context.Context, chatID string, turn interviewservice.Turn) (string, error)
}

// Handler serves the interview chat endpoints.
type Handler struct {
	svc SessionService
}

func New(svc SessionService) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/chats", h.handleStartChat)
	r.Post("/chats/{chatID}/messages", h.handleMessage)
}

func (h *Handler) handleStartChat(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Username string `json:"username"`
		JDID     *uint  `json:"jd_id"`
	}

	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if payload.Username == "" {
		payload.Username = "guest"
	}

	chat, err := h.svc.StartChat(r.Context(), payload.Username, payload.JDID)
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, "failed to start chat")
		return
	}

	utils.RespondJSON(w, http.StatusCreated, map[string]string{"chat_id": chat.ID})
}

func (h *Handler) handleMessage(w http.ResponseWriter, r *http.Request) {
	chatID := chi.URLParam(r, "chatID")

	var payload struct {
		Text           string   `json:"text"`
		EmotionContext string   `json:"emotion_context"`
		ResumeSkills   string   `json:"resume_skills"`
		Questions      []string `json:"questions"`
	}

	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if payload.Text == "" {
		utils.RespondError(w, http.StatusBadRequest, "text is required")
		return
	}

	reply, err := h.svc.Exchange(r.Context(), chatID, interviewservice.Turn{
		Text:           payload.Text,
		EmotionContext: payload.EmotionContext,
		ResumeSkills:   payload.ResumeSkills,
		Questions:      payload.Questions,
	})
	if err != nil {
		if errors.Is(err, repository.ErrChatNotFound) {
			utils.RespondError(w, http.StatusNotFound, "chat not found")
			return
		}
		utils.RespondError(w, http.StatusInternalServerError, "failed to generate reply")
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]string{"reply": reply})
}
