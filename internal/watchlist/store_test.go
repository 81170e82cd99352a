package watchlist

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/trenchpulse/trenchpulse/internal/domain"
)

type memKV struct {
	data map[string]string
}

func newMemKV() *memKV { return &memKV{data: make(map[string]string)} }

func (m *memKV) Get(ctx context.Context, key string) (string, error) {
	return m.data[key], nil
}

func (m *memKV) Set(ctx context.Context, key, value string) error {
	m.data[key] = value
	return nil
}

const validMint = "So11111111111111111111111111111111111111112"

func TestListEmptyStore(t *testing.T) {
	s := NewStore(newMemKV())
	entries, err := s.List(context.Background())
	require.NoError(t, err)
	require.NotNil(t, entries)
	require.Empty(t, entries)
}

func TestAddAndList(t *testing.T) {
	s := NewStore(newMemKV())
	err := s.Add(context.Background(), domain.WatchlistEntry{
		Address: validMint,
		Symbol:  "SOL",
		Name:    "Wrapped SOL",
	})
	require.NoError(t, err)

	entries, err := s.List(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, validMint, entries[0].Address)
	require.NotZero(t, entries[0].AddedAt)
}

func TestAddRejectsInvalidAddress(t *testing.T) {
	s := NewStore(newMemKV())
	err := s.Add(context.Background(), domain.WatchlistEntry{Address: "not-an-address"})
	require.ErrorIs(t, err, ErrInvalidAddress)
}

func TestAddDeduplicatesByAddress(t *testing.T) {
	s := NewStore(newMemKV())
	for i := 0; i < 3; i++ {
		require.NoError(t, s.Add(context.Background(), domain.WatchlistEntry{Address: validMint, Symbol: "SOL"}))
	}
	entries, _ := s.List(context.Background())
	require.Len(t, entries, 1)
}

func TestAddTruncatesLongFields(t *testing.T) {
	s := NewStore(newMemKV())
	require.NoError(t, s.Add(context.Background(), domain.WatchlistEntry{
		Address: validMint,
		Symbol:  strings.Repeat("A", 50),
		Name:    strings.Repeat("B", 300),
	}))
	entries, _ := s.List(context.Background())
	require.Len(t, entries[0].Symbol, 20)
	require.Len(t, entries[0].Name, 100)
}

func TestRemove(t *testing.T) {
	s := NewStore(newMemKV())
	require.NoError(t, s.Add(context.Background(), domain.WatchlistEntry{Address: validMint}))
	require.NoError(t, s.Remove(context.Background(), validMint))
	entries, _ := s.List(context.Background())
	require.Empty(t, entries)
}

func TestRemoveMissingIsNoop(t *testing.T) {
	s := NewStore(newMemKV())
	require.NoError(t, s.Remove(context.Background(), validMint))
}

func TestCorruptDocumentResets(t *testing.T) {
	kv := newMemKV()
	kv.data[Key] = "{not json"
	s := NewStore(kv)
	entries, err := s.List(context.Background())
	require.NoError(t, err)
	require.Empty(t, entries)
}
