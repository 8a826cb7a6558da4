package store

import (
	"context"
	"testing"

	"github.com/oap75/freecalls/stats"
	"github.com/oap75/freecalls/store/memory"
	"github.com/stretchr/testify/require"
)

func TestConsumerStore_LoadSaveRoundTrip(t *testing.T) {
	kv := memory.NewWithCleanup(0)
	defer kv.Close()
	s := NewConsumerStore(kv, "stats:")
	ctx := context.Background()

	_, _, ok, err := s.Load(ctx, "alice")
	require.NoError(t, err)
	require.False(t, ok)

	rec := stats.New([]stats.WindowStats{{TimelineIndex: 5, UsedCalls: 3}}, 42)
	require.NoError(t, s.Save(ctx, "alice", "", rec))

	loaded, raw, ok, err := s.Load(ctx, "alice")
	require.NoError(t, err)
	require.True(t, ok)
	require.NotEmpty(t, raw)
	require.Equal(t, rec, loaded)
}

func TestConsumerStore_SaveRetriesOnStaleExpected(t *testing.T) {
	kv := memory.NewWithCleanup(0)
	defer kv.Close()
	s := NewConsumerStore(kv, "stats:")
	ctx := context.Background()

	rec := stats.New([]stats.WindowStats{{TimelineIndex: 1, UsedCalls: 1}}, 1)
	require.NoError(t, s.Save(ctx, "alice", "", rec))

	_, _, _, err := s.Load(ctx, "alice")
	require.NoError(t, err)

	next := stats.New([]stats.WindowStats{{TimelineIndex: 1, UsedCalls: 2}}, 1)
	require.NoError(t, s.Save(ctx, "alice", "stale-expected-value", next))

	loaded, _, _, err := s.Load(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, next, loaded)
}

func TestEligibleStore_AddRemove(t *testing.T) {
	kv := memory.NewWithCleanup(0)
	defer kv.Close()
	s := NewEligibleStore(kv, "elig:")
	ctx := context.Background()

	require.False(t, s.IsEligible("alice"))
	require.NoError(t, s.Add(ctx, "alice"))
	require.True(t, s.IsEligible("alice"))
	require.NoError(t, s.Remove(ctx, "alice"))
	require.False(t, s.IsEligible("alice"))
}

func TestEligibleStore_AddMany(t *testing.T) {
	kv := memory.NewWithCleanup(0)
	defer kv.Close()
	s := NewEligibleStore(kv, "elig:")
	ctx := context.Background()

	require.NoError(t, s.AddMany(ctx, []string{"alice", "bob"}))
	require.True(t, s.IsEligible("alice"))
	require.True(t, s.IsEligible("bob"))
}
