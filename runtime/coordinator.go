// Package runtime wires the signaling decision logic to the registry,
// the delivery edge, and the moderation pipeline. It orchestrates the
// system without containing transport or storage details.
package runtime

import (
	"call-lab/contract"
	"call-lab/domain"
	"call-lab/domain/event"
	"call-lab/errors"
	"call-lab/observability"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/samber/lo"
)

const (
	waitingForApproval = "Waiting for host approval"
	hostDeniedRequest  = "Host denied the request"
	kickedByHost       = "You have been kicked by the host."
	guestFallbackName  = "Guest"
)

// Coordinator is the room-state machine: it validates requests against the
// room registry, mutates it, and issues the resulting sends. Every
// connection goroutine calls into the same Coordinator concurrently; all
// shared state lives behind the store's transactional slots and the
// registry's locks, so the Coordinator itself is stateless and safe.
type Coordinator struct {
	log       *slog.Logger
	store     contract.IRoomStore
	registry  contract.IRegistry
	messenger contract.IMessenger
	monitor   *observability.Monitor
	chatQueue chan<- domain.ChatPost
}

func NewCoordinator(log *slog.Logger, store contract.IRoomStore,
	registry contract.IRegistry, messenger contract.IMessenger,
	monitor *observability.Monitor, chatQueue chan<- domain.ChatPost) *Coordinator {
	return &Coordinator{
		log:       log,
		store:     store,
		registry:  registry,
		messenger: messenger,
		monitor:   monitor,
		chatQueue: chatQueue,
	}
}

// Handle dispatches one inbound command for one session. The switch is
// exhaustive over the closed command set; an unknown type can only appear
// through a missed case here, which the default loudly reports.
func (c *Coordinator) Handle(ctx context.Context, s *domain.Session, cmd domain.Command) {
	switch cmd := cmd.(type) {
	case domain.JoinRoom:
		c.joinRoom(ctx, s, cmd)
	case domain.Admit:
		c.admit(ctx, s, cmd)
	case domain.Deny:
		c.deny(ctx, s, cmd)
	case domain.ReadyForOffers:
		c.readyForOffers(ctx, s, cmd)
	case domain.GrantPermission:
		c.grantPermission(ctx, s, cmd)
	case domain.RelaySignal:
		c.relaySignal(ctx, s, cmd)
	case domain.ChatMessage:
		c.chatMessage(s, cmd)
	case domain.EndCall:
		c.endCall(ctx, s, cmd)
	case domain.KickUser:
		c.kickUser(ctx, s, cmd)
	default:
		c.log.Error(fmt.Sprintf("Unhandled command %T from %s", cmd, s.ID))
	}
}

// joinRoom claims ownership of an unclaimed room or queues the session
// for host approval. The claim is a single set-if-absent on the owner
// slot: of N concurrent first joins exactly one becomes owner.
func (c *Coordinator) joinRoom(ctx context.Context, s *domain.Session, cmd domain.JoinRoom) {
	if cmd.MeetingID == "" {
		c.messenger.Send(ctx, s.ID, event.Error{Message: errors.ErrMeetingIDRequired.Error()})
		return
	}
	room := domain.SanitizeRoomID(cmd.MeetingID)
	s.Room = room
	if cmd.Name != "" {
		s.Name = cmd.Name
	} else {
		s.Name = domain.DefaultDisplayName(s.ID)
	}

	owner, err := c.store.ClaimOwner(room, s.ID)
	if err != nil {
		c.log.Error("Owner claim failed", "room", room, "session", s.ID, "err", err)
		return
	}

	if owner == s.ID {
		c.becomeOwner(ctx, s, room)
		return
	}
	c.enterPendingQueue(ctx, s, room)
}

func (c *Coordinator) becomeOwner(ctx context.Context, s *domain.Session, room domain.RoomID) {
	c.registry.Subscribe(s.ID, room)
	if err := c.store.AddParticipant(room, s.ID, s.Name); err != nil {
		c.log.Error("Owner registration failed", "room", room, "err", err)
		return
	}
	if err := c.store.SetPermissions(room, s.ID, domain.OwnerPermissions()); err != nil {
		c.log.Error("Owner permissions write failed", "room", room, "err", err)
		return
	}

	// Reply ordering matters for the client's bootstrap: permissions first,
	// then identity, then the current room picture.
	c.messenger.Send(ctx, s.ID, event.PermissionUpdate{Permissions: domain.OwnerPermissions()})
	c.messenger.Send(ctx, s.ID, event.OwnerAssigned{SocketID: s.ID})
	c.messenger.Send(ctx, s.ID, event.YourID{SocketID: s.ID})

	participants, err := c.store.Participants(room)
	if err != nil {
		c.log.Error("Participant read failed", "room", room, "err", err)
		return
	}
	existing := lo.Filter(participants, func(p domain.Participant, _ int) bool {
		return p.SocketID != s.ID
	})
	c.messenger.Send(ctx, s.ID, event.ExistingParticipants{Participants: existing})

	// Pending entries can pre-exist when a previous owner vacated the room
	// without the registry being cleared.
	pending, err := c.store.Pending(room)
	if err != nil {
		c.log.Error("Pending read failed", "room", room, "err", err)
		return
	}
	if len(pending) > 0 {
		c.messenger.Send(ctx, s.ID, event.PendingList{Pending: pending})
	}
}

func (c *Coordinator) enterPendingQueue(ctx context.Context, s *domain.Session, room domain.RoomID) {
	if err := c.store.AddPending(room, s.ID, s.Name); err != nil {
		c.log.Error("Pending enqueue failed", "room", room, "err", err)
		return
	}
	c.messenger.Send(ctx, s.ID, event.YourID{SocketID: s.ID})

	participants, err := c.store.Participants(room)
	if err != nil {
		c.log.Error("Participant read failed", "room", room, "err", err)
		return
	}
	for _, p := range participants {
		c.messenger.Send(ctx, p.SocketID, event.JoinRequest{SocketID: s.ID, Name: s.Name})
	}
	c.messenger.Send(ctx, s.ID, event.JoinPending{Message: waitingForApproval})
}

// isOwner authorizes a privileged operation; a negative answer already
// carries the error reply to the caller.
func (c *Coordinator) isOwner(ctx context.Context, s *domain.Session, room domain.RoomID) bool {
	owner, err := c.store.Owner(room)
	if err != nil {
		c.log.Error("Owner read failed", "room", room, "err", err)
		return false
	}
	if owner != s.ID {
		c.messenger.Send(ctx, s.ID, event.Error{Message: errors.ErrNotAuthorized.Error()})
		return false
	}
	return true
}

// admit moves a pending session into the participants and tells both
// sides about each other. The admitted peer must learn of existing peers
// before they learn of it, so each side can deterministically decide who
// initiates the negotiation offer.
func (c *Coordinator) admit(ctx context.Context, s *domain.Session, cmd domain.Admit) {
	room := domain.SanitizeRoomID(cmd.MeetingID)
	if !c.isOwner(ctx, s, room) {
		return
	}
	name := cmd.Name
	if name == "" {
		name = guestFallbackName
	}

	if err := c.store.RemovePending(room, cmd.SocketID); err != nil {
		c.log.Error("Pending removal failed", "room", room, "err", err)
		return
	}
	c.registry.Subscribe(cmd.SocketID, room)
	if err := c.store.AddParticipant(room, cmd.SocketID, name); err != nil {
		c.log.Error("Participant add failed", "room", room, "err", err)
		return
	}
	if err := c.store.SetPermissions(room, cmd.SocketID, domain.DefaultPermissions()); err != nil {
		c.log.Error("Permissions write failed", "room", room, "err", err)
		return
	}

	participants, err := c.store.Participants(room)
	if err != nil {
		c.log.Error("Participant read failed", "room", room, "err", err)
		return
	}
	existing := lo.Filter(participants, func(p domain.Participant, _ int) bool {
		return p.SocketID != cmd.SocketID
	})

	c.messenger.Send(ctx, cmd.SocketID, event.PermissionUpdate{Permissions: domain.DefaultPermissions()})
	c.messenger.Send(ctx, cmd.SocketID, event.ExistingParticipants{Participants: existing})
	c.messenger.Send(ctx, cmd.SocketID, event.Admitted{})

	for _, p := range existing {
		c.messenger.Send(ctx, p.SocketID, event.NewParticipant{SocketID: cmd.SocketID, Name: name})
	}
}

func (c *Coordinator) deny(ctx context.Context, s *domain.Session, cmd domain.Deny) {
	room := domain.SanitizeRoomID(cmd.MeetingID)
	if !c.isOwner(ctx, s, room) {
		return
	}
	if err := c.store.RemovePending(room, cmd.SocketID); err != nil {
		c.log.Error("Pending removal failed", "room", room, "err", err)
		return
	}
	c.messenger.Send(ctx, cmd.SocketID, event.JoinDenied{Message: hostDeniedRequest})
}

// readyForOffers asks every other participant to initiate a peer
// connection offer toward the newly connected one, establishing the full
// mesh without the coordinator brokering negotiation content.
func (c *Coordinator) readyForOffers(ctx context.Context, s *domain.Session, cmd domain.ReadyForOffers) {
	room := domain.SanitizeRoomID(cmd.MeetingID)
	participants, err := c.store.Participants(room)
	if err != nil {
		c.log.Error("Participant read failed", "room", room, "err", err)
		return
	}
	for _, p := range participants {
		if p.SocketID == s.ID {
			continue
		}
		c.messenger.Send(ctx, p.SocketID, event.CreateOffers{SocketID: s.ID})
	}
}

// grantPermission merges a partial update over the target's stored set.
// Fields absent from the patch keep their current value.
func (c *Coordinator) grantPermission(ctx context.Context, s *domain.Session, cmd domain.GrantPermission) {
	room := domain.SanitizeRoomID(cmd.MeetingID)
	if !c.isOwner(ctx, s, room) {
		return
	}
	merged, err := c.store.MergePermissions(room, cmd.SocketID, cmd.Patch)
	if err != nil {
		c.log.Error("Permission merge failed", "room", room, "target", cmd.SocketID, "err", err)
		return
	}
	c.messenger.Send(ctx, cmd.SocketID, event.PermissionUpdate{Permissions: merged})
	c.messenger.Send(ctx, s.ID, event.PermissionGranted{SocketID: cmd.SocketID, Permissions: merged})
}

// relaySignal forwards the opaque negotiation blob verbatim, tagged with
// the sender. Any connected session may target any id it has learned.
func (c *Coordinator) relaySignal(ctx context.Context, s *domain.Session, cmd domain.RelaySignal) {
	var e event.Outbound
	switch cmd.Kind {
	case domain.SignalOffer:
		e = event.Offer{From: s.ID, Offer: cmd.Payload}
	case domain.SignalAnswer:
		e = event.Answer{From: s.ID, Answer: cmd.Payload}
	case domain.SignalICE:
		e = event.ICECandidate{From: s.ID, Candidate: cmd.Payload}
	default:
		c.log.Debug(fmt.Sprintf("Dropping signal of unknown kind %q from %s", cmd.Kind, s.ID))
		return
	}
	c.monitor.IncrSignalRelayed()
	c.messenger.Send(ctx, cmd.To, e)
}

// chatMessage resolves the sender's display name and hands the message to
// the moderation pipeline, which broadcasts after censoring. The sender
// receives its own message through the group like everyone else.
func (c *Coordinator) chatMessage(s *domain.Session, cmd domain.ChatMessage) {
	room := domain.SanitizeRoomID(cmd.MeetingID)
	fromName := cmd.FromName
	if fromName == "" {
		fromName = s.Name
	}
	if fromName == "" {
		fromName = s.ID
	}
	post := domain.ChatPost{Room: room, FromName: fromName, Text: cmd.Text, At: time.Now().UTC()}
	select {
	case c.chatQueue <- post:
	default:
		c.log.Warn(fmt.Sprintf("Chat queue full for room %s, dropping message", room))
	}
}

func (c *Coordinator) endCall(ctx context.Context, s *domain.Session, cmd domain.EndCall) {
	c.messenger.Send(ctx, cmd.To, event.EndCall{From: s.ID})
}

// kickUser notifies the target it was removed by the host. The meeting id
// may be omitted, in which case the caller's joined room is used. Only
// the room owner may kick.
func (c *Coordinator) kickUser(ctx context.Context, s *domain.Session, cmd domain.KickUser) {
	room := s.Room
	if cmd.MeetingID != "" {
		room = domain.SanitizeRoomID(cmd.MeetingID)
	}
	if !c.isOwner(ctx, s, room) {
		return
	}
	c.messenger.Send(ctx, cmd.SocketID, event.Kicked{Message: kickedByHost, Reason: cmd.Reason})
}

// Disconnect runs the session teardown: registry slots are cleaned, the
// room is told exactly once, and the group subscription is dropped.
// Pending entries are left in place; admission state only changes through
// an explicit admit or deny, or through external registry eviction.
func (c *Coordinator) Disconnect(ctx context.Context, s *domain.Session) {
	if s.Room == "" {
		return
	}
	if err := c.store.RemoveParticipant(s.Room, s.ID); err != nil {
		c.log.Error("Participant removal failed", "room", s.Room, "session", s.ID, "err", err)
	}
	if err := c.store.RemovePermissions(s.Room, s.ID); err != nil {
		c.log.Error("Permissions removal failed", "room", s.Room, "session", s.ID, "err", err)
	}
	c.messenger.Broadcast(ctx, s.Room, event.ParticipantLeft{SocketID: s.ID})
	c.registry.Unsubscribe(s.ID, s.Room)
}
