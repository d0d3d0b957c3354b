//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"call-lab/domain"
	"call-lab/domain/event"
	"context"
	"reflect"
)

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

// Worker doesn't protect itself.
// Can be silly, focused.
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// This is used for logging and supervision purposes during worker
// initialization or lifecycle events, avoiding the need for manual naming
// in the Worker interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

// EventSink is one connection's outbound queue.
type EventSink interface {
	Consume(ctx context.Context, e event.Outbound) error
}

// DeliveryResult is what the delivery primitive reports back. Callers
// decide whether to react; nothing is retried.
type DeliveryResult int

const (
	Delivered DeliveryResult = iota
	TargetGone
	Failed
)

func (r DeliveryResult) String() string {
	switch r {
	case Delivered:
		return "delivered"
	case TargetGone:
		return "target_gone"
	default:
		return "failed"
	}
}

// IMessenger delivers events: point-to-point by connection id, or
// fan-out to every connection subscribed to a room's group. Both are
// best-effort, at-most-once, never blocking beyond the delivery timeout.
type IMessenger interface {
	Send(ctx context.Context, sessionID string, e event.Outbound) DeliveryResult
	Broadcast(ctx context.Context, room domain.RoomID, e event.Outbound)
}

// RegistryStats is a point-in-time gauge of live connections and groups.
type RegistryStats struct {
	Sessions int
	Rooms    int
}

// IRegistry is the connection directory and group membership table.
// Register/Unregister follow the connection lifetime; Subscribe binds a
// connection to a room's broadcast group.
type IRegistry interface {
	Register(sessionID string, sink EventSink)
	Unregister(sessionID string)
	Subscribe(sessionID string, room domain.RoomID)
	Unsubscribe(sessionID string, room domain.RoomID)
	Sink(sessionID string) (EventSink, bool)
	SinksForRoom(room domain.RoomID) []EventSink
	Stats() RegistryStats
}

// IRoomStore is the shared room registry. Implementations must make every
// read-then-write below atomic with respect to concurrent mutations of the
// same room; ClaimOwner in particular is a single set-if-absent.
type IRoomStore interface {
	// ClaimOwner sets sessionID as owner if the slot is empty and returns
	// the owner after the operation, claimed or pre-existing.
	ClaimOwner(room domain.RoomID, sessionID string) (string, error)
	Owner(room domain.RoomID) (string, error)

	AddParticipant(room domain.RoomID, sessionID, name string) error
	RemoveParticipant(room domain.RoomID, sessionID string) error
	Participants(room domain.RoomID) ([]domain.Participant, error)

	AddPending(room domain.RoomID, sessionID, name string) error
	RemovePending(room domain.RoomID, sessionID string) error
	Pending(room domain.RoomID) ([]domain.PendingEntry, error)

	SetPermissions(room domain.RoomID, sessionID string, perms domain.PermissionSet) error
	MergePermissions(room domain.RoomID, sessionID string, patch domain.PermissionPatch) (domain.PermissionSet, error)
	RemovePermissions(room domain.RoomID, sessionID string) error
}
