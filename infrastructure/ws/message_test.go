package ws

import (
	"encoding/json"
	"testing"

	"call-lab/domain"
	"call-lab/errors"

	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, raw string) Envelope {
	t.Helper()
	var envelope Envelope
	require.NoError(t, json.Unmarshal([]byte(raw), &envelope))
	return envelope
}

func TestEnvelope_Kind_PrefersTypeofOverLegacyType(t *testing.T) {
	req := require.New(t)

	req.Equal("join-room", decode(t, `{"typeof":"join-room"}`).Kind())
	req.Equal("join-room", decode(t, `{"type":"join-room"}`).Kind())
	req.Equal("admit", decode(t, `{"typeof":"admit","type":"join-room"}`).Kind())
}

func TestEnvelope_Command_JoinRoom(t *testing.T) {
	req := require.New(t)

	cmd, err := decode(t, `{"typeof":"join-room","meetingId":"daily","name":"Alice"}`).Command()
	req.NoError(err)
	req.Equal(domain.JoinRoom{MeetingID: "daily", Name: "Alice"}, cmd)

	// Missing meeting id fails validation but still identifies the kind
	_, err = decode(t, `{"typeof":"join-room","name":"Alice"}`).Command()
	req.Error(err)
}

func TestEnvelope_Command_AdmitRequiresTarget(t *testing.T) {
	req := require.New(t)

	cmd, err := decode(t, `{"typeof":"admit","meetingId":"daily","socketId":"guest","name":"Bob"}`).Command()
	req.NoError(err)
	req.Equal(domain.Admit{MeetingID: "daily", SocketID: "guest", Name: "Bob"}, cmd)

	_, err = decode(t, `{"typeof":"admit","meetingId":"daily"}`).Command()
	req.Error(err)
}

func TestEnvelope_Command_SignalKinds(t *testing.T) {
	req := require.New(t)

	cmd, err := decode(t, `{"typeof":"offer","to":"callee","offer":{"sdp":"v=0"}}`).Command()
	req.NoError(err)
	relay := cmd.(domain.RelaySignal)
	req.Equal(domain.SignalOffer, relay.Kind)
	req.Equal("callee", relay.To)
	req.JSONEq(`{"sdp":"v=0"}`, string(relay.Payload))

	cmd, err = decode(t, `{"typeof":"answer","to":"caller","answer":{"sdp":"v=0"}}`).Command()
	req.NoError(err)
	req.Equal(domain.SignalAnswer, cmd.(domain.RelaySignal).Kind)

	// A signal without a target cannot be relayed
	_, err = decode(t, `{"typeof":"offer","offer":{}}`).Command()
	req.Error(err)
}

func TestEnvelope_Command_IceCandidateSpellings(t *testing.T) {
	req := require.New(t)

	// Current spelling with the candidate field
	cmd, err := decode(t, `{"typeof":"ice_candidate","to":"peer","candidate":{"c":"udp"}}`).Command()
	req.NoError(err)
	relay := cmd.(domain.RelaySignal)
	req.Equal(domain.SignalICE, relay.Kind)
	req.JSONEq(`{"c":"udp"}`, string(relay.Payload))

	// Legacy spelling with the legacy ice field
	cmd, err = decode(t, `{"typeof":"ice-candidate","to":"peer","ice":{"c":"tcp"}}`).Command()
	req.NoError(err)
	req.JSONEq(`{"c":"tcp"}`, string(cmd.(domain.RelaySignal).Payload))

	// Candidate wins when both fields are present
	cmd, err = decode(t, `{"typeof":"ice_candidate","to":"peer","candidate":{"c":"a"},"ice":{"c":"b"}}`).Command()
	req.NoError(err)
	req.JSONEq(`{"c":"a"}`, string(cmd.(domain.RelaySignal).Payload))
}

func TestEnvelope_Command_GrantPermissionCarriesPartialPatch(t *testing.T) {
	req := require.New(t)

	cmd, err := decode(t, `{"typeof":"grant-permission","meetingId":"daily","socketId":"guest","permissions":{"unmute":false}}`).Command()
	req.NoError(err)

	grant := cmd.(domain.GrantPermission)
	req.NotNil(grant.Patch.Unmute)
	req.False(*grant.Patch.Unmute)
	req.Nil(grant.Patch.Allowed)
	req.Nil(grant.Patch.Video)
}

func TestEnvelope_Command_ChatAndKick(t *testing.T) {
	req := require.New(t)

	cmd, err := decode(t, `{"typeof":"chat-message","meetingId":"daily","fromName":"Alice","text":"hi"}`).Command()
	req.NoError(err)
	req.Equal(domain.ChatMessage{MeetingID: "daily", FromName: "Alice", Text: "hi"}, cmd)

	// kick-user works without a meeting id, the coordinator falls back to
	// the caller's room
	cmd, err = decode(t, `{"typeof":"kick-user","socketId":"guest","reason":"bye"}`).Command()
	req.NoError(err)
	req.Equal(domain.KickUser{SocketID: "guest", Reason: "bye"}, cmd)

	_, err = decode(t, `{"typeof":"kick-user"}`).Command()
	req.Error(err)
}

func TestEnvelope_Command_UnknownType(t *testing.T) {
	_, err := decode(t, `{"typeof":"teleport"}`).Command()
	require.ErrorIs(t, err, errors.ErrUnknownMessageType)
}
