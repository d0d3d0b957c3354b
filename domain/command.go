package domain

import (
	"encoding/json"
	"time"
)

// Command is the closed set of inbound operations. The transport maps
// wire envelopes into exactly one of these types; the coordinator
// switches over them exhaustively, so a new kind must be handled
// everywhere before it compiles into the system.
type Command interface {
	isCommand()
}

type JoinRoom struct {
	MeetingID string `validate:"required"`
	Name      string
}

type Admit struct {
	MeetingID string `validate:"required"`
	SocketID  string `validate:"required"`
	Name      string
}

type Deny struct {
	MeetingID string `validate:"required"`
	SocketID  string `validate:"required"`
}

type ReadyForOffers struct {
	MeetingID string `validate:"required"`
}

type GrantPermission struct {
	MeetingID string `validate:"required"`
	SocketID  string `validate:"required"`
	Patch     PermissionPatch
}

// SignalKind discriminates the three opaque negotiation payloads.
type SignalKind string

const (
	SignalOffer  SignalKind = "offer"
	SignalAnswer SignalKind = "answer"
	SignalICE    SignalKind = "ice_candidate"
)

// RelaySignal forwards an opaque negotiation blob to one connection.
// The payload is never inspected.
type RelaySignal struct {
	Kind    SignalKind      `validate:"required"`
	To      string          `validate:"required"`
	Payload json.RawMessage `validate:"required"`
}

type ChatMessage struct {
	MeetingID string `validate:"required"`
	FromName  string
	Text      string `validate:"required"`
}

type EndCall struct {
	To string `validate:"required"`
}

type KickUser struct {
	MeetingID string // optional, falls back to the caller's joined room
	SocketID  string `validate:"required"`
	Reason    string
}

func (JoinRoom) isCommand()        {}
func (Admit) isCommand()           {}
func (Deny) isCommand()            {}
func (ReadyForOffers) isCommand()  {}
func (GrantPermission) isCommand() {}
func (RelaySignal) isCommand()     {}
func (ChatMessage) isCommand()     {}
func (EndCall) isCommand()         {}
func (KickUser) isCommand()        {}

// ChatPost is a chat message resolved against the sender's session,
// queued for the moderation pipeline before room broadcast.
type ChatPost struct {
	Room     RoomID
	FromName string
	Text     string
	At       time.Time
}
