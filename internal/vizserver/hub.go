// Package vizserver exposes persisted runs over HTTP and streams live ticks
// to websocket watchers.
package vizserver

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"sensorsim/internal/experiment"
	"sensorsim/internal/logging"
)

const (
	watcherBuffer = 64
	writeTimeout  = 5 * time.Second
)

// tickMessage is the frame sent to watchers for every tick.
type tickMessage struct {
	Type string                 `json:"type"`
	Data []experiment.TickEvent `json:"data"`
}

type watcher struct {
	id   string
	conn *websocket.Conn
	send chan []byte
}

// Hub fans tick events out to every connected watcher. A watcher that falls
// behind loses frames instead of slowing the simulation down.
type Hub struct {
	mu       sync.RWMutex
	watchers map[string]*watcher
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Hub{
		watchers: make(map[string]*watcher),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
		logger: logger,
	}
}

func (h *Hub) ObserveTick(events []experiment.TickEvent) {
	frame, err := json.Marshal(tickMessage{Type: "tick", Data: events})
	if err != nil {
		h.logger.Error("encode tick frame", "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, w := range h.watchers {
		select {
		case w.send <- frame:
		default:
			h.logger.Debug("dropping frame for slow watcher", "watcher", w.id)
		}
	}
}

func (h *Hub) Watchers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.watchers)
}

// ServeWS upgrades the request and streams frames until the client goes away.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	wt := &watcher{id: uuid.NewString(), conn: conn, send: make(chan []byte, watcherBuffer)}
	h.add(wt)
	defer func() {
		h.remove(wt.id)
		conn.Close()
	}()

	// The read loop only exists to notice the client closing the socket.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-closed:
			return
		case <-r.Context().Done():
			return
		case frame := <-wt.send:
			_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				h.logger.Debug("watcher write failed", "watcher", wt.id, "error", err)
				return
			}
		}
	}
}

func (h *Hub) add(w *watcher) {
	h.mu.Lock()
	h.watchers[w.id] = w
	n := len(h.watchers)
	h.mu.Unlock()
	h.logger.Info("watcher connected", "watcher", w.id, "watchers", n)
}

func (h *Hub) remove(id string) {
	h.mu.Lock()
	delete(h.watchers, id)
	n := len(h.watchers)
	h.mu.Unlock()
	h.logger.Info("watcher disconnected", "watcher", id, "watchers", n)
}
