// Package event defines the typed outbound events the coordinator emits.
// Every event carries a "typeof" discriminator on the wire; Encode injects
// it so event structs stay plain data.
package event

import (
	"call-lab/domain"
	"encoding/json"
)

// Outbound is implemented by every event delivered to a connection.
type Outbound interface {
	Typeof() string
}

// Encode marshals an event and injects its typeof discriminator.
func Encode(e Outbound) ([]byte, error) {
	raw, err := json.Marshal(e)
	if err != nil {
		return nil, err
	}
	fields := make(map[string]json.RawMessage)
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, err
	}
	typeof, err := json.Marshal(e.Typeof())
	if err != nil {
		return nil, err
	}
	fields["typeof"] = typeof
	return json.Marshal(fields)
}

type Error struct {
	Message string `json:"message"`
}

type PermissionUpdate struct {
	Permissions domain.PermissionSet `json:"permissions"`
}

type OwnerAssigned struct {
	SocketID string `json:"socketId"`
}

type YourID struct {
	SocketID string `json:"socketId"`
}

type ExistingParticipants struct {
	Participants []domain.Participant `json:"participants"`
}

type PendingList struct {
	Pending []domain.PendingEntry `json:"pending"`
}

type JoinRequest struct {
	SocketID string `json:"socketId"`
	Name     string `json:"name"`
}

type JoinPending struct {
	Message string `json:"message"`
}

type JoinDenied struct {
	Message string `json:"message"`
}

type Admitted struct{}

type NewParticipant struct {
	SocketID string `json:"socketId"`
	Name     string `json:"name"`
}

type ParticipantLeft struct {
	SocketID string `json:"socketId"`
}

type CreateOffers struct {
	SocketID string `json:"socketId"`
}

type PermissionGranted struct {
	SocketID    string               `json:"socketId"`
	Permissions domain.PermissionSet `json:"permissions"`
}

type Offer struct {
	From  string          `json:"from"`
	Offer json.RawMessage `json:"offer"`
}

type Answer struct {
	From   string          `json:"from"`
	Answer json.RawMessage `json:"answer"`
}

type ICECandidate struct {
	From      string          `json:"from"`
	Candidate json.RawMessage `json:"candidate"`
}

type Chat struct {
	FromName string `json:"fromName"`
	Text     string `json:"text"`
}

type EndCall struct {
	From string `json:"from"`
}

type Kicked struct {
	Message string `json:"message"`
	Reason  string `json:"reason,omitempty"`
}

func (Error) Typeof() string                { return "error" }
func (PermissionUpdate) Typeof() string     { return "permission-update" }
func (OwnerAssigned) Typeof() string        { return "owner-assigned" }
func (YourID) Typeof() string               { return "your-id" }
func (ExistingParticipants) Typeof() string { return "existing-participants" }
func (PendingList) Typeof() string          { return "pending-list" }
func (JoinRequest) Typeof() string          { return "join-request" }
func (JoinPending) Typeof() string          { return "join-pending" }
func (JoinDenied) Typeof() string           { return "join-denied" }
func (Admitted) Typeof() string             { return "admitted" }
func (NewParticipant) Typeof() string       { return "new-participant" }
func (ParticipantLeft) Typeof() string      { return "participant-left" }
func (CreateOffers) Typeof() string         { return "create-offers" }
func (PermissionGranted) Typeof() string    { return "permission-granted" }
func (Offer) Typeof() string                { return "offer" }
func (Answer) Typeof() string               { return "answer" }
func (ICECandidate) Typeof() string         { return "ice_candidate" }
func (Chat) Typeof() string                 { return "chat-message" }
func (EndCall) Typeof() string              { return "endcall" }
func (Kicked) Typeof() string               { return "you-were-kicked" }
