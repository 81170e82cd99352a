// Package stream pushes feed snapshots to websocket clients.
package stream

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/trenchpulse/trenchpulse/internal/domain"
)

const (
	writeWait  = 10 * time.Second
	pingPeriod = 30 * time.Second
	// Slow readers get one snapshot of slack before disconnect.
	clientBuffer = 2
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// The read surface is public and stateless, same as the REST routes.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Snapshotter is the slice of the feed assembler the hub needs.
type Snapshotter interface {
	Snapshot() *domain.FeedSnapshot
	Subscribe() (<-chan *domain.FeedSnapshot, func())
}

// Hub fans published snapshots out to connected websocket clients.
type Hub struct {
	feed Snapshotter

	mu      sync.Mutex
	clients map[chan *domain.FeedSnapshot]struct{}
}

func NewHub(feed Snapshotter) *Hub {
	return &Hub{
		feed:    feed,
		clients: make(map[chan *domain.FeedSnapshot]struct{}),
	}
}

// Run consumes the assembler's publish stream until ctx is canceled.
func (h *Hub) Run(ctx context.Context) {
	updates, cancel := h.feed.Subscribe()
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case snap, ok := <-updates:
			if !ok {
				h.closeAll()
				return
			}
			h.broadcast(snap)
		}
	}
}

func (h *Hub) broadcast(snap *domain.FeedSnapshot) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.clients {
		select {
		case ch <- snap:
		default:
			// Client is not keeping up; drop it rather than block the tick.
			close(ch)
			delete(h.clients, ch)
		}
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.clients {
		close(ch)
		delete(h.clients, ch)
	}
}

func (h *Hub) register() chan *domain.FeedSnapshot {
	ch := make(chan *domain.FeedSnapshot, clientBuffer)
	h.mu.Lock()
	h.clients[ch] = struct{}{}
	h.mu.Unlock()
	return ch
}

func (h *Hub) unregister(ch chan *domain.FeedSnapshot) {
	h.mu.Lock()
	if _, ok := h.clients[ch]; ok {
		close(ch)
		delete(h.clients, ch)
	}
	h.mu.Unlock()
}

// Serve upgrades the request and streams snapshots until the peer leaves.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Debug().Err(err).Msg("websocket upgrade failed")
		return
	}

	ch := h.register()
	defer h.unregister(ch)
	defer conn.Close()

	// Drain the peer's control frames so pongs and close are processed.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	// New clients get the current state immediately.
	if snap := h.feed.Snapshot(); !snap.Empty() {
		if err := h.write(conn, snap); err != nil {
			return
		}
	}

	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()

	for {
		select {
		case <-done:
			return
		case snap, ok := <-ch:
			if !ok {
				conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, ""), time.Now().Add(writeWait))
				return
			}
			if err := h.write(conn, snap); err != nil {
				return
			}
		case <-ping.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *Hub) write(conn *websocket.Conn, snap *domain.FeedSnapshot) error {
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(snap)
}
