// Package domain contains core concepts of the signaling system:
// rooms, sessions, permissions and the closed set of inbound commands.
// No runtime, network, or storage logic should be added here.
package domain

import (
	"regexp"
	"time"
)

// DefaultRoomID is used when a client sends an empty or absent meeting id.
const DefaultRoomID RoomID = "default"

// maxRoomIDLen bounds sanitized room identifiers.
const maxRoomIDLen = 80

type RoomID string

var roomIDInvalidChars = regexp.MustCompile(`[^0-9A-Za-z\-._]`)

// SanitizeRoomID normalizes a raw meeting id into a registry-safe identifier.
// Disallowed characters are replaced with '_' and the result is truncated.
// The mapping is total: every input yields a usable RoomID.
func SanitizeRoomID(raw string) RoomID {
	if raw == "" {
		return DefaultRoomID
	}
	safe := roomIDInvalidChars.ReplaceAllString(raw, "_")
	if len(safe) > maxRoomIDLen {
		safe = safe[:maxRoomIDLen]
	}
	return RoomID(safe)
}

// GroupName derives the broadcast group identifier for a room.
func (r RoomID) GroupName() string {
	return "video_room." + string(r)
}

// Participant is an admitted member of a room.
type Participant struct {
	SocketID string `json:"socketId"`
	Name     string `json:"name"`
}

// PendingEntry is a join request waiting for the host's decision.
type PendingEntry struct {
	SocketID string    `json:"socketId"`
	Name     string    `json:"name"`
	Ts       time.Time `json:"ts"`
}

// Session is the per-connection state. Identity is assigned by the
// transport and is unique per connection. A session mutates only from
// its own connection goroutine, so no locking is needed here.
type Session struct {
	ID   string
	Name string
	Room RoomID // empty until a join-room was processed
}

// DisplayName returns the chosen name, falling back to a name derived
// from the connection id.
func (s *Session) DisplayName() string {
	if s.Name != "" {
		return s.Name
	}
	return DefaultDisplayName(s.ID)
}

// DefaultDisplayName builds a fallback display name from the tail of the
// connection id, enough to tell anonymous participants apart.
func DefaultDisplayName(sessionID string) string {
	suffix := sessionID
	if len(suffix) > 6 {
		suffix = suffix[len(suffix)-6:]
	}
	return "User-" + suffix
}
