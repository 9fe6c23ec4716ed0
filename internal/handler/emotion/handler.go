// Package emotion exposes frame ingestion and averaging, over plain POST
// and over a websocket for clients that stream detector output.
package emotion

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	emotionservice "github.com/mockview/backend/internal/service/emotion"
	"github.com/mockview/backend/pkg/utils"
)

// Handler serves the emotion-tracking endpoints.
type Handler struct {
	tracker  *emotionservice.Tracker
	upgrader websocket.Upgrader
}

func New(tracker *emotionservice.Tracker) *Handler {
	return &Handler{
		tracker: tracker,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/emotion/{chatID}/frames", h.handleFrame)
	r.Get("/emotion/{chatID}/average", h.handleAverage)
	r.Get("/emotion/ws/{chatID}", h.handleWebSocket)
}

type framePayload struct {
	Emotions emotionservice.Frame `json:"emotions"`
}

func (h *Handler) handleFrame(w http.ResponseWriter, r *http.Request) {
	chatID := chi.URLParam(r, "chatID")

	var payload framePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if !h.tracker.Record(chatID, payload.Emotions) {
		utils.RespondError(w, http.StatusBadRequest, "emotions map is required")
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *Handler) handleAverage(w http.ResponseWriter, r *http.Request) {
	chatID := chi.URLParam(r, "chatID")
	utils.RespondJSON(w, http.StatusOK, h.tracker.Average(chatID))
}

// handleWebSocket ingests a stream of detector frames. Each inbound message
// is a framePayload; every frame is acknowledged with the running count so
// the client can detect drops.
func (h *Handler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	chatID := chi.URLParam(r, "chatID")

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[emotion] websocket upgrade failed for chat=%s: %v", chatID, err)
		return
	}
	defer conn.Close()

	log.Printf("[emotion] websocket opened for chat=%s", chatID)
	recorded := 0

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[emotion] websocket error for chat=%s: %v", chatID, err)
			}
			break
		}

		var payload framePayload
		if err := json.Unmarshal(data, &payload); err != nil {
			h.writeAck(conn, chatID, recorded, "invalid frame")
			continue
		}

		if h.tracker.Record(chatID, payload.Emotions) {
			recorded++
			h.writeAck(conn, chatID, recorded, "")
		} else {
			h.writeAck(conn, chatID, recorded, "empty frame")
		}
	}

	log.Printf("[emotion] websocket closed for chat=%s after %d frames", chatID, recorded)
}

func (h *Handler) writeAck(conn *websocket.Conn, chatID string, recorded int, errMsg string) {
	ack := map[string]any{"type": "ack", "recorded": recorded}
	if errMsg != "" {
		ack["error"] = errMsg
	}
	if err := conn.WriteJSON(ack); err != nil {
		log.Printf("[emotion] websocket write failed for chat=%s: %v", chatID, err)
	}
}
