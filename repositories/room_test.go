package repositories

import (
	"fmt"
	"log/slog"
	"sync"
	"testing"

	"call-lab/domain"

	"github.com/dgraph-io/badger/v4"
	"github.com/samber/lo"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *RoomStore {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions("").
		WithInMemory(true).
		WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewRoomStore(db, slog.New(slog.DiscardHandler))
}

func TestRoomStore_ClaimOwner_FirstClaimWins(t *testing.T) {
	req := require.New(t)
	store := newTestStore(t)
	room := domain.RoomID("daily")

	owner, err := store.ClaimOwner(room, "alice")
	req.NoError(err)
	req.Equal("alice", owner)

	// A later claim sees the existing owner, not itself
	owner, err = store.ClaimOwner(room, "bob")
	req.NoError(err)
	req.Equal("alice", owner)

	stored, err := store.Owner(room)
	req.NoError(err)
	req.Equal("alice", stored)
}

func TestRoomStore_ClaimOwner_ConcurrentClaimsElectExactlyOne(t *testing.T) {
	req := require.New(t)
	store := newTestStore(t)
	room := domain.RoomID("contended")

	const claimers = 32
	results := make([]string, claimers)

	var wg sync.WaitGroup
	for i := 0; i < claimers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			owner, err := store.ClaimOwner(room, fmt.Sprintf("session-%d", i))
			require.NoError(t, err)
			results[i] = owner
		}(i)
	}
	wg.Wait()

	// Every claimer must agree on the same winner
	winners := lo.Uniq(results)
	req.Len(winners, 1)

	stored, err := store.Owner(room)
	req.NoError(err)
	req.Equal(winners[0], stored)
}

func TestRoomStore_Owner_UnclaimedRoomIsEmpty(t *testing.T) {
	store := newTestStore(t)
	owner, err := store.Owner("ghost")
	require.NoError(t, err)
	require.Empty(t, owner)
}

func TestRoomStore_Participants_AddRemoveList(t *testing.T) {
	req := require.New(t)
	store := newTestStore(t)
	room := domain.RoomID("daily")

	req.NoError(store.AddParticipant(room, "b-session", "Bob"))
	req.NoError(store.AddParticipant(room, "a-session", "Alice"))

	participants, err := store.Participants(room)
	req.NoError(err)
	req.Equal([]domain.Participant{
		{SocketID: "a-session", Name: "Alice"},
		{SocketID: "b-session", Name: "Bob"},
	}, participants)

	req.NoError(store.RemoveParticipant(room, "a-session"))
	participants, err = store.Participants(room)
	req.NoError(err)
	req.Len(participants, 1)
	req.Equal("b-session", participants[0].SocketID)

	// Removing an unknown member is a no-op
	req.NoError(store.RemoveParticipant(room, "nobody"))
}

func TestRoomStore_Pending_OrderedByRequestTime(t *testing.T) {
	req := require.New(t)
	store := newTestStore(t)
	room := domain.RoomID("daily")

	req.NoError(store.AddPending(room, "first", "First"))
	req.NoError(store.AddPending(room, "second", "Second"))

	pending, err := store.Pending(room)
	req.NoError(err)
	req.Len(pending, 2)
	req.Equal("first", pending[0].SocketID)
	req.Equal("second", pending[1].SocketID)
	req.False(pending[0].Ts.After(pending[1].Ts))

	req.NoError(store.RemovePending(room, "first"))
	pending, err = store.Pending(room)
	req.NoError(err)
	req.Len(pending, 1)
	req.Equal("second", pending[0].SocketID)
}

func TestRoomStore_Permissions_SetMergeRemove(t *testing.T) {
	req := require.New(t)
	store := newTestStore(t)
	room := domain.RoomID("daily")

	req.NoError(store.SetPermissions(room, "guest", domain.DefaultPermissions()))

	// A partial patch only touches the named fields
	merged, err := store.MergePermissions(room, "guest", domain.PermissionPatch{
		Unmute: lo.ToPtr(false),
	})
	req.NoError(err)
	req.False(merged.Unmute)
	req.True(merged.Allowed)
	req.True(merged.Video)

	// Merging against an absent target starts from the defaults
	merged, err = store.MergePermissions(room, "stranger", domain.PermissionPatch{
		Video: lo.ToPtr(false),
	})
	req.NoError(err)
	req.True(merged.Allowed)
	req.False(merged.Video)

	req.NoError(store.RemovePermissions(room, "guest"))
	req.NoError(store.RemovePermissions(room, "guest"))
}

func TestRoomStore_RoomsAreIsolated(t *testing.T) {
	req := require.New(t)
	store := newTestStore(t)

	req.NoError(store.AddParticipant("room-a", "alice", "Alice"))

	participants, err := store.Participants("room-b")
	req.NoError(err)
	req.Empty(participants)
}
