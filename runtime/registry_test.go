package runtime

import (
	"context"
	"testing"

	"call-lab/domain/event"

	"github.com/stretchr/testify/require"
)

type nullSink struct{}

func (nullSink) Consume(context.Context, event.Outbound) error { return nil }

func TestRegistry_RegisterResolveUnregister(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	sink := nullSink{}

	registry.Register("alice", sink)

	resolved, ok := registry.Sink("alice")
	req.True(ok)
	req.Equal(sink, resolved)

	registry.Unregister("alice")
	_, ok = registry.Sink("alice")
	req.False(ok)
}

func TestRegistry_RoomMembership(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()

	registry.Register("alice", nullSink{})
	registry.Register("bob", nullSink{})
	registry.Subscribe("alice", "daily")
	registry.Subscribe("bob", "daily")

	req.Len(registry.SinksForRoom("daily"), 2)

	// A member whose connection vanished is skipped, not delivered to
	registry.Unregister("bob")
	req.Len(registry.SinksForRoom("daily"), 1)

	// Empty groups are dropped entirely
	registry.Unsubscribe("alice", "daily")
	registry.Unsubscribe("bob", "daily")
	req.Nil(registry.SinksForRoom("daily"))
	req.Zero(registry.Stats().Rooms)
}

func TestRegistry_Stats(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()

	registry.Register("alice", nullSink{})
	registry.Subscribe("alice", "daily")

	stats := registry.Stats()
	req.Equal(1, stats.Sessions)
	req.Equal(1, stats.Rooms)
}

func TestRegistry_SinksForRoom_UnknownRoom(t *testing.T) {
	registry := NewRegistry()
	require.Nil(t, registry.SinksForRoom("ghost"))
}
