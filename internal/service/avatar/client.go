// Package avatar wraps the HeyGen interactive-avatar streaming API. The
// avatar lip-syncs interviewer replies; everything else about the video
// session lives client-side.
package avatar

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"
)

// ErrNoSession is returned when a task is sent before StartSession.
var ErrNoSession = errors.New("no active avatar session")

// Session carries what the browser needs to join the avatar stream.
type Session struct {
	SessionID    string `json:"session_id"`
	LivekitURL   string `json:"livekit_url"`
	LivekitToken string `json:"livekit_token"`
}

// Client talks to the streaming API. One client drives at most one avatar
// session at a time.
type Client struct {
	apiKey   string
	avatarID string
	baseURL  string
	http     *http.Client

	mu        sync.Mutex
	token     string
	sessionID string
}

func NewClient(apiKey, avatarID, baseURL string) *Client {
	return &Client{
		apiKey:   apiKey,
		avatarID: avatarID,
		baseURL:  baseURL,
		http:     &http.Client{Timeout: 30 * time.Second},
	}
}

// StartSession creates a streaming token, opens a new avatar session and
// starts it.
func (c *Client) StartSession(ctx context.Context) (*Session, error) {
	var tokenResp struct {
		Data struct {
			Token string `json:"token"`
		} `json:"data"`
	}
	if err := c.post(ctx, "/streaming.create_token", nil, "", &tokenResp); err != nil {
		return nil, fmt.Errorf("create token: %w", err)
	}
	token := tokenResp.Data.Token

	var newResp struct {
		Data struct {
			SessionID   string `json:"session_id"`
			URL         string `json:"url"`
			AccessToken string `json:"access_token"`
		} `json:"data"`
	}
	body := map[string]any{
		"version":        "v2",
		"avatar_id":      c.avatarID,
		"quality":        "medium",
		"video_encoding": "VP8",
	}
	if err := c.post(ctx, "/streaming.new", body, token, &newResp); err != nil {
		return nil, fmt.Errorf("new session: %w", err)
	}

	startBody := map[string]any{"session_id": newResp.Data.SessionID}
	if err := c.post(ctx, "/streaming.start", startBody, token, nil); err != nil {
		return nil, fmt.Errorf("start session: %w", err)
	}

	c.mu.Lock()
	c.token = token
	c.sessionID = newResp.Data.SessionID
	c.mu.Unlock()

	return &Session{
		SessionID:    newResp.Data.SessionID,
		LivekitURL:   newResp.Data.URL,
		LivekitToken: newResp.Data.AccessToken,
	}, nil
}

// Speak has the avatar repeat the given text.
func (c *Client) Speak(ctx context.Context, text string) error {
	token, sessionID := c.session()
	if sessionID == "" {
		return ErrNoSession
	}

	body := map[string]any{
		"session_id": sessionID,
		"text":       text,
		"task_type":  "repeat",
	}
	return c.post(ctx, "/streaming.task", body, token, nil)
}

// StopSession tears the active session down; stopping an already-stopped
// session is a no-op.
func (c *Client) StopSession(ctx context.Context) error {
	token, sessionID := c.session()
	if sessionID == "" {
		return nil
	}

	c.mu.Lock()
	c.token = ""
	c.sessionID = ""
	c.mu.Unlock()

	body := map[string]any{"session_id": sessionID}
	return c.post(ctx, "/streaming.stop", body, token, nil)
}

func (c *Client) session() (token, sessionID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token, c.sessionID
}

// post sends a JSON request. With an empty token the API key header is used
// instead (the token-minting call itself).
func (c *Client) post(ctx context.Context, path string, payload any, token string, out any) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	} else {
		req.Header.Set("X-API-KEY", c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("avatar API %s returned %d: %s", path, resp.StatusCode, data)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}
