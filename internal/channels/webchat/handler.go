// Package webchat exposes the dialog engine to a website widget over
// WebSocket, with a plain HTTP fallback for environments that cannot
// hold a socket open.
package webchat

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/potolkibot/leadbot/internal/dialog"
	"github.com/potolkibot/leadbot/pkg/logging"
)

// Platform is the identity prefix for conversations on this channel.
const Platform = "web"

const (
	historyDepth = 30
	replyTimeout = 3 * time.Minute
)

const resetText = "Ок, историю и данные сбросил. Напишите новый запрос."

// InboundMessage is what the widget sends.
type InboundMessage struct {
	Type string `json:"type"` // "message", "reset", "ping"
	Text string `json:"text"`
}

// OutboundMessage is what we send to the widget.
type OutboundMessage struct {
	Type      string           `json:"type"` // "message", "typing", "history", "session", "pong", "error"
	Text      string           `json:"text,omitempty"`
	Role      string           `json:"role,omitempty"`
	SessionID string           `json:"session_id,omitempty"`
	Timestamp string           `json:"timestamp,omitempty"`
	Messages  []HistoryMessage `json:"messages,omitempty"`
}

// HistoryMessage is one stored turn for history responses.
type HistoryMessage struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

// Handler manages widget connections and routes their messages into
// the dialog engine.
type Handler struct {
	engine   *dialog.Engine
	upgrader websocket.Upgrader
	logger   *logging.Logger

	mu       sync.RWMutex
	sessions map[string]*wsConn // session id -> active connection
}

type wsConn struct {
	conn *websocket.Conn
	mu   sync.Mutex // gorilla allows one concurrent writer
}

func (c *wsConn) sendJSON(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteJSON(v)
}

// NewHandler creates the webchat handler.
func NewHandler(engine *dialog.Engine, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		engine: engine,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// the widget is embedded on customer sites
			CheckOrigin: func(*http.Request) bool { return true },
		},
		logger:   logger,
		sessions: make(map[string]*wsConn),
	}
}

// generateSessionID creates a random session identifier.
func generateSessionID() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return uuid.New().String()
	}
	return hex.EncodeToString(b)
}

// HandleWebSocket upgrades to WebSocket and serves the session.
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("webchat: upgrade failed", "error", err)
		return
	}
	defer conn.Close()
	h.serveWS(conn, r)
}

func (h *Handler) serveWS(conn *websocket.Conn, r *http.Request) {
	sessionID := r.URL.Query().Get("session")
	if sessionID == "" {
		sessionID = generateSessionID()
	}

	wsc := &wsConn{conn: conn}
	_ = wsc.sendJSON(OutboundMessage{Type: "session", SessionID: sessionID})

	if turns, err := h.engine.History(r.Context(), Platform, sessionID, historyDepth); err == nil && len(turns) > 0 {
		history := make([]HistoryMessage, 0, len(turns))
		for _, t := range turns {
			history = append(history, HistoryMessage{Role: t.Role, Text: t.Text})
		}
		_ = wsc.sendJSON(OutboundMessage{Type: "history", Messages: history})
	}

	h.mu.Lock()
	h.sessions[sessionID] = wsc
	h.mu.Unlock()
	defer func() {
		h.mu.Lock()
		if h.sessions[sessionID] == wsc {
			delete(h.sessions, sessionID)
		}
		h.mu.Unlock()
	}()

	h.logger.Info("webchat: connection opened", "session_id", sessionID)

	for {
		var msg InboundMessage
		if err := conn.ReadJSON(&msg); err != nil {
			h.logger.Debug("webchat: connection closed", "session_id", sessionID, "error", err)
			return
		}

		switch msg.Type {
		case "ping":
			_ = wsc.sendJSON(OutboundMessage{Type: "pong"})
		case "reset":
			if err := h.engine.Reset(r.Context(), Platform, sessionID); err != nil {
				h.logger.Error("webchat: reset failed", "error", err, "session_id", sessionID)
				continue
			}
			h.push(sessionID, resetText)
		case "message":
			if strings.TrimSpace(msg.Text) == "" {
				continue
			}
			_ = wsc.sendJSON(OutboundMessage{Type: "typing"})
			h.processMessage(sessionID, msg.Text)
		}
	}
}

func (h *Handler) processMessage(sessionID, text string) {
	ctx, cancel := context.WithTimeout(context.Background(), replyTimeout)
	defer cancel()

	reply, err := h.reply(ctx, sessionID, text)
	if err != nil {
		h.logger.Error("webchat: reply failed", "error", err, "session_id", sessionID)
		h.push(sessionID, "Извините, что-то пошло не так. Попробуйте ещё раз.")
		return
	}
	if reply != "" {
		h.push(sessionID, reply)
	}
}

func (h *Handler) reply(ctx context.Context, sessionID, text string) (string, error) {
	reply, err := h.engine.Reply(ctx, dialog.Input{
		Platform: Platform,
		UserID:   sessionID,
		Text:     text,
	})
	if err != nil {
		return "", err
	}
	// the widget cannot attach the promo image
	return strings.TrimPrefix(reply, dialog.PromoImageMarker), nil
}

// push sends an assistant message to the session's socket, if open.
func (h *Handler) push(sessionID, text string) {
	h.mu.RLock()
	wsc, ok := h.sessions[sessionID]
	h.mu.RUnlock()
	if !ok {
		return
	}
	_ = wsc.sendJSON(OutboundMessage{
		Type:      "message",
		Role:      "assistant",
		Text:      text,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// HandleMessage is the HTTP fallback: one request, one reply.
func (h *Handler) HandleMessage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SessionID string `json:"session_id"`
		Text      string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		http.Error(w, "text is required", http.StatusBadRequest)
		return
	}
	if req.SessionID == "" {
		req.SessionID = generateSessionID()
	}

	reply, err := h.reply(r.Context(), req.SessionID, req.Text)
	if err != nil {
		h.logger.Error("webchat: reply failed", "error", err, "session_id", req.SessionID)
		http.Error(w, "failed to process message", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{
		"session_id": req.SessionID,
		"reply":      reply,
	})
}

// HandleHistory returns the stored turns for a session.
func (h *Handler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session")
	if sessionID == "" {
		http.Error(w, "session parameter required", http.StatusBadRequest)
		return
	}

	turns, err := h.engine.History(r.Context(), Platform, sessionID, historyDepth)
	if err != nil {
		h.logger.Error("webchat: failed to load history", "error", err, "session_id", sessionID)
		http.Error(w, "failed to load history", http.StatusInternalServerError)
		return
	}

	history := make([]HistoryMessage, 0, len(turns))
	for _, t := range turns {
		history = append(history, HistoryMessage{Role: t.Role, Text: t.Text})
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"messages": history})
}
