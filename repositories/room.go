package repositories

import (
	"call-lab/contract"
	"call-lab/domain"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/samber/lo"
)

// maxTxnRetries bounds how often a conflicting transaction is replayed.
// Conflicts are short single-slot read-modify-writes, so contention
// resolves within a handful of attempts.
const maxTxnRetries = 16

var _ contract.IRoomStore = (*RoomStore)(nil)

// RoomStore persists per-room signaling state in BadgerDB. Each mutation
// runs in one transaction; Badger's conflict detection turns every
// read-then-write into a compare-and-set, which is what makes the owner
// claim safe under concurrent first joins.
type RoomStore struct {
	db  *badger.DB
	log *slog.Logger
}

func NewRoomStore(db *badger.DB, log *slog.Logger) *RoomStore {
	return &RoomStore{db: db, log: log}
}

type participantInfo struct {
	Name string `json:"name"`
}

type pendingInfo struct {
	Name string    `json:"name"`
	Ts   time.Time `json:"ts"`
}

// update retries the transaction on write conflicts. A conflict means
// another session raced us on the same slot; replaying the closure against
// the new state preserves the lost update.
func (s *RoomStore) update(fn func(txn *badger.Txn) error) error {
	var err error
	for i := 0; i < maxTxnRetries; i++ {
		err = s.db.Update(fn)
		if !stderrors.Is(err, badger.ErrConflict) {
			return err
		}
		s.log.Debug("registry transaction conflict, retrying", "attempt", i+1)
	}
	return fmt.Errorf("registry slot contention not resolved after %d attempts: %w", maxTxnRetries, err)
}

func readSlot[T any](txn *badger.Txn, key []byte, out *T) (bool, error) {
	item, err := txn.Get(key)
	if stderrors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := item.Value(func(v []byte) error {
		return json.Unmarshal(v, out)
	}); err != nil {
		return false, err
	}
	return true, nil
}

func writeSlot(txn *badger.Txn, key []byte, v any) error {
	bytes, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return txn.Set(key, bytes)
}

// ClaimOwner is the atomic set-if-absent on the owner slot. Exactly one of
// any number of concurrent claims on an unclaimed room wins; everyone gets
// the resulting owner back.
func (s *RoomStore) ClaimOwner(room domain.RoomID, sessionID string) (string, error) {
	var owner string
	err := s.update(func(txn *badger.Txn) error {
		item, err := txn.Get(ownerKey(room))
		if stderrors.Is(err, badger.ErrKeyNotFound) {
			owner = sessionID
			return txn.Set(ownerKey(room), []byte(sessionID))
		}
		if err != nil {
			return err
		}
		return item.Value(func(v []byte) error {
			owner = string(v)
			return nil
		})
	})
	return owner, err
}

// Owner returns the owner slot, empty when the room is unclaimed.
func (s *RoomStore) Owner(room domain.RoomID) (string, error) {
	var owner string
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(ownerKey(room))
		if stderrors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(v []byte) error {
			owner = string(v)
			return nil
		})
	})
	return owner, err
}

func (s *RoomStore) AddParticipant(room domain.RoomID, sessionID, name string) error {
	return s.update(func(txn *badger.Txn) error {
		participants := make(map[string]participantInfo)
		if _, err := readSlot(txn, participantsKey(room), &participants); err != nil {
			return err
		}
		participants[sessionID] = participantInfo{Name: name}
		return writeSlot(txn, participantsKey(room), participants)
	})
}

func (s *RoomStore) RemoveParticipant(room domain.RoomID, sessionID string) error {
	return s.update(func(txn *badger.Txn) error {
		participants := make(map[string]participantInfo)
		found, err := readSlot(txn, participantsKey(room), &participants)
		if err != nil || !found {
			return err
		}
		if _, ok := participants[sessionID]; !ok {
			return nil
		}
		delete(participants, sessionID)
		return writeSlot(txn, participantsKey(room), participants)
	})
}

// Participants lists admitted members, ordered by connection id so callers
// get a deterministic fan-out order.
func (s *RoomStore) Participants(room domain.RoomID) ([]domain.Participant, error) {
	participants := make(map[string]participantInfo)
	err := s.db.View(func(txn *badger.Txn) error {
		_, err := readSlot(txn, participantsKey(room), &participants)
		return err
	})
	if err != nil {
		return nil, err
	}
	result := lo.MapToSlice(participants, func(id string, info participantInfo) domain.Participant {
		return domain.Participant{SocketID: id, Name: info.Name}
	})
	sort.Slice(result, func(i, j int) bool { return result[i].SocketID < result[j].SocketID })
	return result, nil
}

func (s *RoomStore) AddPending(room domain.RoomID, sessionID, name string) error {
	return s.update(func(txn *badger.Txn) error {
		pending := make(map[string]pendingInfo)
		if _, err := readSlot(txn, pendingKey(room), &pending); err != nil {
			return err
		}
		pending[sessionID] = pendingInfo{Name: name, Ts: time.Now().UTC()}
		return writeSlot(txn, pendingKey(room), pending)
	})
}

func (s *RoomStore) RemovePending(room domain.RoomID, sessionID string) error {
	return s.update(func(txn *badger.Txn) error {
		pending := make(map[string]pendingInfo)
		found, err := readSlot(txn, pendingKey(room), &pending)
		if err != nil || !found {
			return err
		}
		if _, ok := pending[sessionID]; !ok {
			return nil
		}
		delete(pending, sessionID)
		return writeSlot(txn, pendingKey(room), pending)
	})
}

func (s *RoomStore) Pending(room domain.RoomID) ([]domain.PendingEntry, error) {
	pending := make(map[string]pendingInfo)
	err := s.db.View(func(txn *badger.Txn) error {
		_, err := readSlot(txn, pendingKey(room), &pending)
		return err
	})
	if err != nil {
		return nil, err
	}
	result := lo.MapToSlice(pending, func(id string, info pendingInfo) domain.PendingEntry {
		return domain.PendingEntry{SocketID: id, Name: info.Name, Ts: info.Ts}
	})
	sort.Slice(result, func(i, j int) bool { return result[i].Ts.Before(result[j].Ts) })
	return result, nil
}

func (s *RoomStore) SetPermissions(room domain.RoomID, sessionID string, perms domain.PermissionSet) error {
	return s.update(func(txn *badger.Txn) error {
		permsMap := make(map[string]domain.PermissionSet)
		if _, err := readSlot(txn, permissionsKey(room), &permsMap); err != nil {
			return err
		}
		permsMap[sessionID] = perms
		return writeSlot(txn, permissionsKey(room), permsMap)
	})
}

// MergePermissions applies a partial update over the stored set, starting
// from the defaults when the target has none yet. Fields absent from the
// patch are preserved.
func (s *RoomStore) MergePermissions(room domain.RoomID, sessionID string, patch domain.PermissionPatch) (domain.PermissionSet, error) {
	var merged domain.PermissionSet
	err := s.update(func(txn *badger.Txn) error {
		permsMap := make(map[string]domain.PermissionSet)
		if _, err := readSlot(txn, permissionsKey(room), &permsMap); err != nil {
			return err
		}
		current, ok := permsMap[sessionID]
		if !ok {
			current = domain.DefaultPermissions()
		}
		merged = current.Apply(patch)
		permsMap[sessionID] = merged
		return writeSlot(txn, permissionsKey(room), permsMap)
	})
	return merged, err
}

func (s *RoomStore) RemovePermissions(room domain.RoomID, sessionID string) error {
	return s.update(func(txn *badger.Txn) error {
		permsMap := make(map[string]domain.PermissionSet)
		found, err := readSlot(txn, permissionsKey(room), &permsMap)
		if err != nil || !found {
			return err
		}
		if _, ok := permsMap[sessionID]; !ok {
			return nil
		}
		delete(permsMap, sessionID)
		return writeSlot(txn, permissionsKey(room), permsMap)
	})
}
