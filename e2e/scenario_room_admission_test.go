package e2e

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
)

type testRoomAdmissionSuite struct {
	BaseWsSuite
}

func TestRoomAdmissionSuite(t *testing.T) {
	suite.Run(t, &testRoomAdmissionSuite{})
}

func (s *testRoomAdmissionSuite) TestFullAdmissionFlow() {
	meetingID := "e2e-" + uuid.New().String()

	host := s.Dial("Host")
	guest := s.Dial("Guest")

	// --- STEP 1: FIRST JOIN CLAIMS THE ROOM ---
	s.Run("Step 1: First join becomes owner", func() {
		host.Send(map[string]any{"typeof": "join-room", "meetingId": meetingID, "name": "Host"})

		perms := host.WaitFor("permission-update")
		s.Require().Equal(true, perms["permissions"].(map[string]any)["is_owner"])

		assigned := host.WaitFor("owner-assigned")
		yourID := host.WaitFor("your-id")
		s.Require().Equal(assigned["socketId"], yourID["socketId"])
		host.ID = yourID["socketId"].(string)

		existing := host.WaitFor("existing-participants")
		s.Require().Empty(existing["participants"])
	})

	// --- STEP 2: SECOND JOIN WAITS FOR APPROVAL ---
	s.Run("Step 2: Second join lands in the waiting room", func() {
		guest.Join(meetingID)

		pending := guest.WaitFor("join-pending")
		s.Require().Equal("Waiting for host approval", pending["message"])

		request := host.WaitFor("join-request")
		s.Require().Equal(guest.ID, request["socketId"])
		s.Require().Equal("Guest", request["name"])
	})

	// --- STEP 3: ADMISSION ---
	s.Run("Step 3: Host admits the guest", func() {
		host.Send(map[string]any{
			"typeof": "admit", "meetingId": meetingID,
			"socketId": guest.ID, "name": "Guest",
		})

		perms := guest.WaitFor("permission-update")
		s.Require().Equal(true, perms["permissions"].(map[string]any)["allowed"])

		existing := guest.WaitFor("existing-participants")
		s.Require().Len(existing["participants"], 1)
		guest.WaitFor("admitted")

		joined := host.WaitFor("new-participant")
		s.Require().Equal(guest.ID, joined["socketId"])
	})

	// --- STEP 4: NEGOTIATION KICK-OFF AND RELAY ---
	s.Run("Step 4: Offers are requested and relayed verbatim", func() {
		guest.Send(map[string]any{"typeof": "ready-for-offers", "meetingId": meetingID})

		create := host.WaitFor("create-offers")
		s.Require().Equal(guest.ID, create["socketId"])

		host.Send(map[string]any{
			"typeof": "offer", "to": guest.ID,
			"offer": map[string]any{"sdp": "v=0", "type": "offer"},
		})
		offer := guest.WaitFor("offer")
		s.Require().Equal(host.ID, offer["from"])
		s.Require().Equal("v=0", offer["offer"].(map[string]any)["sdp"])
	})

	// --- STEP 5: CHAT FAN-OUT ---
	s.Run("Step 5: Chat reaches the whole room, sender included", func() {
		guest.Send(map[string]any{
			"typeof": "chat-message", "meetingId": meetingID,
			"fromName": "Guest", "text": "hello room",
		})

		for _, peer := range []*Peer{host, guest} {
			chat := peer.WaitFor("chat-message")
			s.Require().Equal("hello room", chat["text"])
			s.Require().Equal("Guest", chat["fromName"])
		}
	})

	// --- STEP 6: KICK ---
	s.Run("Step 6: Host kicks the guest", func() {
		host.Send(map[string]any{
			"typeof": "kick-user", "meetingId": meetingID,
			"socketId": guest.ID, "reason": "session over",
		})

		kicked := guest.WaitFor("you-were-kicked")
		s.Require().Equal("You have been kicked by the host.", kicked["message"])
		s.Require().Equal("session over", kicked["reason"])
	})
}

func (s *testRoomAdmissionSuite) TestDenyLeavesGuestOutside() {
	meetingID := "e2e-" + uuid.New().String()

	host := s.Dial("Host")
	host.Join(meetingID)

	guest := s.Dial("Guest")
	guest.Join(meetingID)
	guest.WaitFor("join-pending")

	request := host.WaitFor("join-request")
	s.Require().Equal(guest.ID, request["socketId"])

	host.Send(map[string]any{"typeof": "deny", "meetingId": meetingID, "socketId": guest.ID})

	denied := guest.WaitFor("join-denied")
	s.Require().Equal("Host denied the request", denied["message"])
}
