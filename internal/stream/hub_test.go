package stream

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/trenchpulse/trenchpulse/internal/domain"
)

type fakeFeed struct {
	snap    *domain.FeedSnapshot
	updates chan *domain.FeedSnapshot
}

func (f *fakeFeed) Snapshot() *domain.FeedSnapshot { return f.snap }
func (f *fakeFeed) Subscribe() (<-chan *domain.FeedSnapshot, func()) {
	return f.updates, func() {}
}

func wsURL(s *httptest.Server) string {
	return "ws" + strings.TrimPrefix(s.URL, "http")
}

func TestServeSendsCurrentSnapshotOnConnect(t *testing.T) {
	feed := &fakeFeed{
		snap: &domain.FeedSnapshot{
			Tokens:      []domain.Token{{Address: "a1", Symbol: "WIF"}},
			LastUpdated: time.Now(),
		},
		updates: make(chan *domain.FeedSnapshot),
	}
	hub := NewHub(feed)
	srv := httptest.NewServer(http.HandlerFunc(hub.Serve))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv), nil)
	require.NoError(t, err)
	defer conn.Close()

	var snap domain.FeedSnapshot
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	require.NoError(t, conn.ReadJSON(&snap))
	require.Len(t, snap.Tokens, 1)
	require.Equal(t, "a1", snap.Tokens[0].Address)
}

func TestBroadcastReachesClient(t *testing.T) {
	feed := &fakeFeed{
		snap:    &domain.FeedSnapshot{},
		updates: make(chan *domain.FeedSnapshot),
	}
	hub := NewHub(feed)
	srv := httptest.NewServer(http.HandlerFunc(hub.Serve))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv), nil)
	require.NoError(t, err)
	defer conn.Close()

	// Let the client register before publishing.
	require.Eventually(t, func() bool {
		hub.mu.Lock()
		defer hub.mu.Unlock()
		return len(hub.clients) == 1
	}, time.Second, 10*time.Millisecond)

	feed.updates <- &domain.FeedSnapshot{
		Tokens:      []domain.Token{{Address: "b2"}},
		LastUpdated: time.Now(),
	}

	var snap domain.FeedSnapshot
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	require.NoError(t, conn.ReadJSON(&snap))
	require.Equal(t, "b2", snap.Tokens[0].Address)
}

func TestClientCleanupOnDisconnect(t *testing.T) {
	feed := &fakeFeed{snap: &domain.FeedSnapshot{}, updates: make(chan *domain.FeedSnapshot)}
	hub := NewHub(feed)
	srv := httptest.NewServer(http.HandlerFunc(hub.Serve))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv), nil)
	require.NoError(t, err)
	conn.Close()

	require.Eventually(t, func() bool {
		hub.mu.Lock()
		defer hub.mu.Unlock()
		return len(hub.clients) == 0
	}, 2*time.Second, 10*time.Millisecond)
}
