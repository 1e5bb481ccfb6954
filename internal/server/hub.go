package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/easeaico/project-pet/internal/emotion"
	"github.com/easeaico/project-pet/internal/engine"
)

const (
	writeWait    = 10 * time.Second
	pongWait     = 60 * time.Second
	pingPeriod   = pongWait * 9 / 10
	sendQueueLen = 64
)

// Frame types pushed to renderers.
const (
	FrameHello  = "hello"
	FrameSpeech = "speech"
	FrameHide   = "hide"
	FrameMood   = "mood"
	FrameEffect = "effect"
	FrameLogs   = "logs"
)

// Frame is one message on the renderer stream.
type Frame struct {
	Type       string                          `json:"type"`
	Actor      engine.ActorID                  `json:"actor,omitempty"`
	Text       string                          `json:"text,omitempty"`
	DurationMS int64                           `json:"duration_ms,omitempty"`
	Priority   bool                            `json:"priority,omitempty"`
	Mood       emotion.Mood                    `json:"mood,omitempty"`
	Effect     string                          `json:"effect,omitempty"`
	Moods      map[engine.ActorID]emotion.Mood `json:"moods,omitempty"`
	Timestamp  int64                           `json:"timestamp"`
}

type client struct {
	conn      *websocket.Conn
	send      chan []byte
	closeOnce sync.Once
}

func (c *client) close() {
	c.closeOnce.Do(func() {
		close(c.send)
	})
}

// Hub fans renderer frames out to every connected websocket client.
// It implements engine.Renderer.
type Hub struct {
	upgrader websocket.Upgrader
	snapshot func() map[engine.ActorID]emotion.Mood

	mu      sync.RWMutex
	clients map[*client]struct{}
	closed  bool
}

// NewHub creates a Hub. snapshot, if set, provides the moods sent in the hello frame.
func NewHub(snapshot func() map[engine.ActorID]emotion.Mood) *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		snapshot: snapshot,
		clients:  map[*client]struct{}{},
	}
}

// ServeHTTP upgrades the request and streams frames until the client goes away.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("failed to upgrade websocket", "error", err.Error())
		return
	}
	c := &client{conn: conn, send: make(chan []byte, sendQueueLen)}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		conn.Close()
		return
	}
	h.clients[c] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()
	slog.Info("renderer connected", "remote", r.RemoteAddr, "clients", n)

	hello := Frame{Type: FrameHello}
	if h.snapshot != nil {
		hello.Moods = h.snapshot()
	}
	h.sendTo(c, hello)

	go h.writePump(c)
	h.readPump(c)
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects every client and rejects new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for c := range h.clients {
		delete(h.clients, c)
		c.close()
	}
}

func (h *Hub) ShowSpeech(id engine.ActorID, text string, duration time.Duration, priority bool) {
	h.broadcast(Frame{Type: FrameSpeech, Actor: id, Text: text, DurationMS: duration.Milliseconds(), Priority: priority})
}

func (h *Hub) HideSpeech(id engine.ActorID) {
	h.broadcast(Frame{Type: FrameHide, Actor: id})
}

func (h *Hub) MoodChanged(id engine.ActorID, mood emotion.Mood) {
	h.broadcast(Frame{Type: FrameMood, Actor: id, Mood: mood})
}

func (h *Hub) Effect(id engine.ActorID, effect string) {
	h.broadcast(Frame{Type: FrameEffect, Actor: id, Effect: effect})
}

func (h *Hub) LogsChanged() {
	h.broadcast(Frame{Type: FrameLogs})
}

func (h *Hub) broadcast(f Frame) {
	msg, ok := encodeFrame(f)
	if !ok {
		return
	}
	h.mu.RLock()
	var slow []*client
	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		slog.Warn("dropping slow renderer")
		h.remove(c)
	}
}

func (h *Hub) sendTo(c *client, f Frame) {
	msg, ok := encodeFrame(f)
	if !ok {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	if _, live := h.clients[c]; !live {
		return
	}
	select {
	case c.send <- msg:
	default:
	}
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	_, live := h.clients[c]
	delete(h.clients, c)
	h.mu.Unlock()
	if live {
		c.close()
	}
}

func (h *Hub) readPump(c *client) {
	defer func() {
		h.remove(c)
		c.conn.Close()
	}()
	c.conn.SetReadLimit(4096)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Warn("renderer connection error", "error", err.Error())
			}
			return
		}
	}
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func encodeFrame(f Frame) ([]byte, bool) {
	if f.Timestamp == 0 {
		f.Timestamp = time.Now().UnixMilli()
	}
	msg, err := json.Marshal(f)
	if err != nil {
		slog.Error("failed to encode frame", "type", f.Type, "error", err.Error())
		return nil, false
	}
	return msg, true
}
