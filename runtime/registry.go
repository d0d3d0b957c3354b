package runtime

import (
	"call-lab/contract"
	"call-lab/domain"
	"sync"
)

type set map[string]struct{}

var _ contract.IRegistry = (*Registry)(nil)

// Registry is the live-connection directory: it maps connection ids to
// their outbound sinks and rooms to their subscribed members. Direct
// delivery resolves through sessions; group broadcast through roomMembers.
type Registry struct {
	mu          sync.RWMutex
	sessions    map[string]contract.EventSink
	roomMembers map[domain.RoomID]set
}

func NewRegistry() *Registry {
	return &Registry{
		sessions:    make(map[string]contract.EventSink),
		roomMembers: make(map[domain.RoomID]set),
	}
}

// Register records a connection's sink. Done once at accept time, before
// any command from that connection can be processed.
func (r *Registry) Register(sessionID string, sink contract.EventSink) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[sessionID] = sink
}

// Unregister drops the connection from the directory. Any group
// membership left behind resolves to nothing on the next broadcast.
func (r *Registry) Unregister(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, sessionID)
}

// Subscribe adds a connection to a room's broadcast group.
func (r *Registry) Subscribe(sessionID string, room domain.RoomID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.roomMembers[room]; !ok {
		r.roomMembers[room] = make(set)
	}
	r.roomMembers[room][sessionID] = struct{}{}
}

// Unsubscribe removes a connection from a room's group and drops empty
// groups so the member table doesn't leak over time.
func (r *Registry) Unsubscribe(sessionID string, room domain.RoomID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if members, ok := r.roomMembers[room]; ok {
		delete(members, sessionID)
		if len(members) == 0 {
			delete(r.roomMembers, room)
		}
	}
}

// Sink resolves a connection id to its outbound queue.
func (r *Registry) Sink(sessionID string) (contract.EventSink, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sink, ok := r.sessions[sessionID]
	return sink, ok
}

// SinksForRoom retrieves the active sinks of every member subscribed to
// the room. Members whose connection vanished are skipped.
func (r *Registry) SinksForRoom(room domain.RoomID) []contract.EventSink {
	r.mu.RLock()
	defer r.mu.RUnlock()
	members, ok := r.roomMembers[room]
	if !ok {
		return nil
	}
	var sinks []contract.EventSink
	for sessionID := range members {
		if sink, exists := r.sessions[sessionID]; exists {
			sinks = append(sinks, sink)
		}
	}
	return sinks
}

func (r *Registry) Stats() contract.RegistryStats {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return contract.RegistryStats{Sessions: len(r.sessions), Rooms: len(r.roomMembers)}
}
