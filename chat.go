package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// DirectMessage is one member-to-member message.
type DirectMessage struct {
	ID   int64     `json:"id"`
	Type string    `json:"type"` // "message"
	From int       `json:"from"`
	To   int       `json:"to,omitempty"`
	Body string    `json:"body,omitempty"`
	Ts   time.Time `json:"ts"`
}

// ServerEvent represents a server-sent event
type ServerEvent struct {
	Type string `json:"type"` // "message" | "typing" | "info" | "error"
	From int    `json:"from,omitempty"`
	Data any    `json:"data,omitempty"`
}

// Client represents a WebSocket client connection
type Client struct {
	userID int
	conn   *websocket.Conn
	send   chan ServerEvent
	db     *sql.DB
}

// trySend queues an event without blocking. Events are dropped when the
// buffer is full, so a stalled or exited writer never wedges the reader.
func (c *Client) trySend(evt ServerEvent) {
	select {
	case c.send <- evt:
	default:
	}
}

// Hub manages WebSocket client connections
type Hub struct {
	clientsByUser map[int]map[*Client]bool
	mu            sync.RWMutex
}

func newHub() *Hub {
	return &Hub{
		clientsByUser: make(map[int]map[*Client]bool),
	}
}

func (h *Hub) register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clientsByUser[c.userID] == nil {
		h.clientsByUser[c.userID] = make(map[*Client]bool)
	}
	h.clientsByUser[c.userID][c] = true
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if peers, ok := h.clientsByUser[c.userID]; ok {
		delete(peers, c)
		if len(peers) == 0 {
			delete(h.clientsByUser, c.userID)
		}
	}
}

func (h *Hub) sendToUser(userID int, evt ServerEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if peers, ok := h.clientsByUser[userID]; ok {
		for c := range peers {
			select {
			case c.send <- evt:
			default:
				// Drop message if user's buffer is full
			}
		}
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// global hub
var chatHub = newHub()

// GET /ws/messages (token via Authorization header or ?token=)
func wsMessagesHandler(db *sql.DB, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := userIDFromRequest(r)
		if !ok {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Warn("websocket upgrade failed", zap.Int("user_id", userID), zap.Error(err))
			return
		}

		client := &Client{
			userID: userID,
			conn:   conn,
			send:   make(chan ServerEvent, 16),
			db:     db,
		}
		chatHub.register(client)

		client.trySend(ServerEvent{Type: "info", Data: "connected"})

		go clientWriter(client)
		clientReader(client)
	}
}

func clientReader(c *Client) {
	defer func() {
		chatHub.unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(1 << 20)
	_ = c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		_, payload, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		var msg DirectMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			c.trySend(ServerEvent{Type: "error", Data: "invalid message format"})
			continue
		}

		switch msg.Type {
		case "message":
			id, ts, err := saveDirectMessage(c.db, c.userID, msg.To, msg.Body)
			if err != nil {
				c.trySend(ServerEvent{Type: "error", Data: "cannot send message"})
				continue
			}

			out := ServerEvent{
				Type: "message",
				From: c.userID,
				Data: DirectMessage{
					ID:   id,
					Type: "message",
					From: c.userID,
					To:   msg.To,
					Body: msg.Body,
					Ts:   ts,
				},
			}
			chatHub.sendToUser(msg.To, out)
			chatHub.sendToUser(c.userID, out) // echo so sender UI updates instantly

		case "typing":
			chatHub.sendToUser(msg.To, ServerEvent{Type: "typing", From: c.userID})

		default:
			c.trySend(ServerEvent{Type: "error", Data: "unknown message type"})
		}
	}
}

func clientWriter(c *Client) {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case evt, ok := <-c.send:
			if !ok {
				return
			}
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteJSON(evt); err != nil {
				return
			}
		case <-ticker.C:
			// ping to keep the connection alive
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// saveDirectMessage persists a message after checking the recipient is
// reachable: either their profile is public or they already messaged the
// sender first.
func saveDirectMessage(db *sql.DB, fromUserID, toUserID int, content string) (int64, time.Time, error) {
	var msgID int64
	var createdAt time.Time

	err := withTx(context.Background(), db, func(tx *sql.Tx) error {
		var reachable bool
		err := tx.QueryRow(`
			SELECT EXISTS (
				SELECT 1 FROM profiles WHERE user_id = $2 AND is_public = TRUE
			) OR EXISTS (
				SELECT 1 FROM messages WHERE sender_id = $2 AND recipient_id = $1
			)
		`, fromUserID, toUserID).Scan(&reachable)
		if err != nil {
			return err
		}
		if !reachable {
			return sql.ErrNoRows
		}

		return tx.QueryRow(`
			INSERT INTO messages (sender_id, recipient_id, content)
			VALUES ($1, $2, $3)
			RETURNING id, created_at
		`, fromUserID, toUserID, content).Scan(&msgID, &createdAt)
	})
	if err != nil {
		return 0, time.Time{}, err
	}
	return msgID, createdAt, nil
}

func getMessageHistory(db *sql.DB, userID, peerID, limit int, before *time.Time) ([]DirectMessage, error) {
	q := `
		SELECT id, sender_id, recipient_id, content, created_at
		FROM messages
		WHERE ((sender_id = $1 AND recipient_id = $2) OR (sender_id = $2 AND recipient_id = $1))
		  AND ($3::timestamptz IS NULL OR created_at < $3)
		ORDER BY created_at DESC
		LIMIT $4`

	var rows *sql.Rows
	var err error
	if before != nil {
		rows, err = db.Query(q, userID, peerID, *before, limit)
	} else {
		rows, err = db.Query(q, userID, peerID, nil, limit)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	msgs := make([]DirectMessage, 0, limit)
	for rows.Next() {
		var m DirectMessage
		if err := rows.Scan(&m.ID, &m.From, &m.To, &m.Body, &m.Ts); err != nil {
			return nil, err
		}
		m.Type = "message"
		msgs = append(msgs, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Mark everything from the peer as read.
	_, _ = db.Exec(`
		UPDATE messages
		SET is_read = TRUE
		WHERE sender_id = $2 AND recipient_id = $1 AND is_read IS FALSE
	`, userID, peerID)

	return msgs, nil
}

// GET /api/messages/{peerId}?limit=50&before=2026-08-01T08:00:00Z
func messageHistoryHandler(db *sql.DB) http.HandlerFunc {
	return authenticate(func(w http.ResponseWriter, r *http.Request) {
		userID := r.Context().Value(userIDKey).(int)

		peerID, err := strconv.Atoi(chi.URLParam(r, "peerId"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "bad_peer_id")
			return
		}

		limit := queryInt(r, "limit", 50)
		if limit < 1 || limit > 200 {
			limit = 50
		}
		var beforePtr *time.Time
		if s := r.URL.Query().Get("before"); s != "" {
			if t, err := time.Parse(time.RFC3339, s); err == nil {
				beforePtr = &t
			}
		}

		msgs, err := getMessageHistory(db, userID, peerID, limit, beforePtr)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "message_fetch_error")
			return
		}
		writeJSON(w, http.StatusOK, msgs)
	})
}
