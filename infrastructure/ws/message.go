// Package ws is the transport edge: it upgrades HTTP connections,
// assigns connection identities, decodes wire envelopes into the closed
// command set, and pumps outbound events back to the peer.
package ws

import (
	"call-lab/domain"
	"call-lab/errors"
	"encoding/json"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Envelope is the inbound wire record: a typeof discriminator (the legacy
// "type" key is still honored) plus the union of type-specific fields.
type Envelope struct {
	Typeof     string                 `json:"typeof"`
	LegacyType string                 `json:"type"`
	MeetingID  string                 `json:"meetingId"`
	Name       string                 `json:"name"`
	SocketID   string                 `json:"socketId"`
	To         string                 `json:"to"`
	Text       string                 `json:"text"`
	FromName   string                 `json:"fromName"`
	Reason     string                 `json:"reason"`
	Perms      domain.PermissionPatch `json:"permissions"`
	Offer      json.RawMessage        `json:"offer"`
	Answer     json.RawMessage        `json:"answer"`
	Candidate  json.RawMessage        `json:"candidate"`
	Ice        json.RawMessage        `json:"ice"`
}

// Kind resolves the discriminator, preferring typeof over the legacy key.
func (e Envelope) Kind() string {
	if e.Typeof != "" {
		return e.Typeof
	}
	return e.LegacyType
}

// Command maps the envelope into the closed command set and validates the
// type-specific required fields. An error means the message must not reach
// the coordinator; whether the peer learns about it is per-kind policy
// (only join-room gets an explicit error reply).
func (e Envelope) Command() (domain.Command, error) {
	switch e.Kind() {
	case "join-room":
		cmd := domain.JoinRoom{MeetingID: e.MeetingID, Name: e.Name}
		return cmd, validate.Struct(cmd)
	case "admit":
		cmd := domain.Admit{MeetingID: e.MeetingID, SocketID: e.SocketID, Name: e.Name}
		return cmd, validate.Struct(cmd)
	case "deny":
		cmd := domain.Deny{MeetingID: e.MeetingID, SocketID: e.SocketID}
		return cmd, validate.Struct(cmd)
	case "ready-for-offers":
		cmd := domain.ReadyForOffers{MeetingID: e.MeetingID}
		return cmd, validate.Struct(cmd)
	case "grant-permission":
		cmd := domain.GrantPermission{MeetingID: e.MeetingID, SocketID: e.SocketID, Patch: e.Perms}
		return cmd, validate.Struct(cmd)
	case "offer":
		cmd := domain.RelaySignal{Kind: domain.SignalOffer, To: e.To, Payload: e.Offer}
		return cmd, validate.Struct(cmd)
	case "answer":
		cmd := domain.RelaySignal{Kind: domain.SignalAnswer, To: e.To, Payload: e.Answer}
		return cmd, validate.Struct(cmd)
	case "ice_candidate", "ice-candidate":
		payload := e.Candidate
		if payload == nil {
			payload = e.Ice
		}
		cmd := domain.RelaySignal{Kind: domain.SignalICE, To: e.To, Payload: payload}
		return cmd, validate.Struct(cmd)
	case "chat-message":
		cmd := domain.ChatMessage{MeetingID: e.MeetingID, FromName: e.FromName, Text: e.Text}
		return cmd, validate.Struct(cmd)
	case "endcall":
		cmd := domain.EndCall{To: e.To}
		return cmd, validate.Struct(cmd)
	case "kick-user":
		cmd := domain.KickUser{MeetingID: e.MeetingID, SocketID: e.SocketID, Reason: e.Reason}
		return cmd, validate.Struct(cmd)
	default:
		return nil, errors.ErrUnknownMessageType
	}
}
