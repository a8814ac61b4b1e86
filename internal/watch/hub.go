package watch

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 54 * time.Second
	maxMessageSize = 512
)

// upgrader allows any local origin; watch mode is a localhost developer
// convenience, not a public service, so origin checking gitvista's
// SaaS upgrader performs has no equivalent here.
var upgrader = websocket.Upgrader{
	CheckOrigin:       func(_ *http.Request) bool { return true },
	EnableCompression: true,
}

// Hub tracks connected WebSocket clients and fans a Message out to all of
// them, carried over from gitvista's RepoSession client bookkeeping
// (registerClient/sendToAllClients) with the repo-diff/cache machinery
// that doesn't apply to dotgit's single-process watch mode stripped out.
type Hub struct {
	log *slog.Logger

	mu      sync.RWMutex
	clients map[*websocket.Conn]*sync.Mutex
}

// NewHub returns an empty Hub.
func NewHub(log *slog.Logger) *Hub {
	if log == nil {
		log = slog.Default()
	}
	return &Hub{log: log, clients: map[*websocket.Conn]*sync.Mutex{}}
}

// ServeHTTP upgrades the request to a WebSocket and registers the client
// for broadcasts until it disconnects.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request, initial Message) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Error("websocket upgrade failed", "error", err)
		return
	}

	conn.SetReadLimit(maxMessageSize)
	if err := conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		h.log.Error("failed to set read deadline", "error", err)
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	writeMu := &sync.Mutex{}
	writeMu.Lock()
	if err := conn.WriteJSON(initial); err != nil {
		h.log.Warn("failed to send initial state", "error", err)
	}
	writeMu.Unlock()

	h.mu.Lock()
	h.clients[conn] = writeMu
	h.mu.Unlock()

	h.log.Info("websocket client connected", "addr", conn.RemoteAddr())

	done := make(chan struct{})
	go h.readPump(conn, done)
	go h.writePump(conn, done, writeMu)
}

func (h *Hub) readPump(conn *websocket.Conn, done chan struct{}) {
	defer h.removeClient(conn)
	defer close(done)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writePump(conn *websocket.Conn, done chan struct{}, writeMu *sync.Mutex) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			writeMu.Lock()
			err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
			writeMu.Unlock()
			if err != nil {
				return
			}
		}
	}
}

func (h *Hub) removeClient(conn *websocket.Conn) {
	h.mu.Lock()
	delete(h.clients, conn)
	h.mu.Unlock()
	conn.Close()
}

// Broadcast sends msg to every connected client, dropping any client whose
// write fails.
func (h *Hub) Broadcast(msg Message) {
	h.mu.RLock()
	snapshot := make(map[*websocket.Conn]*sync.Mutex, len(h.clients))
	for conn, mu := range h.clients {
		snapshot[conn] = mu
	}
	h.mu.RUnlock()

	var failed []*websocket.Conn
	for conn, mu := range snapshot {
		mu.Lock()
		err := conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err == nil {
			err = conn.WriteJSON(msg)
		}
		mu.Unlock()
		if err != nil {
			failed = append(failed, conn)
		}
	}

	if len(failed) > 0 {
		h.mu.Lock()
		for _, conn := range failed {
			delete(h.clients, conn)
		}
		h.mu.Unlock()
	}
}
