package e2e

import (
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/gookit/color"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/suite"
)

const recvTimeout = 10 * time.Second

type BaseWsSuite struct {
	suite.Suite
	Config Config
}

// SetupSuite loads the environment configuration before running tests
func (s *BaseWsSuite) SetupSuite() {
	var err error
	s.Config, err = LoadConfig()
	s.Require().NoError(err)

	if s.Config.ServerAddr == "" {
		s.T().Skip("E2E_SERVER_ADDR not set, skipping end-to-end suite")
	}
}

// Peer is one websocket connection to the signaling server under test.
type Peer struct {
	suite *BaseWsSuite
	Name  string
	conn  *websocket.Conn
	// ID is filled from the your-id event once the peer joins a room.
	ID string
}

// Dial opens a connection with a colorized header in the test log.
func (s *BaseWsSuite) Dial(name string) *Peer {
	header := fmt.Sprintf("  ====== %s ======", name)
	if s.Config.Colours {
		header = color.New(color.BgBlack, color.FgGreen).Render(header)
	}
	s.T().Log(header)

	endpoint := url.URL{Scheme: "ws", Host: s.Config.ServerAddr, Path: "/ws"}
	conn, _, err := websocket.DefaultDialer.Dial(endpoint.String(), nil)
	s.Require().NoError(err, "Failed to connect to signaling server at "+s.Config.ServerAddr)

	peer := &Peer{suite: s, Name: name, conn: conn}
	s.T().Cleanup(peer.Close)
	return peer
}

func (p *Peer) Close() {
	_ = p.conn.Close()
}

// Send writes one JSON message to the server.
func (p *Peer) Send(msg map[string]any) {
	p.suite.Require().NoError(p.conn.WriteJSON(msg), "%s failed to send %v", p.Name, msg["typeof"])
}

// Join issues a join-room and records the id the server assigns.
func (p *Peer) Join(meetingID string) {
	p.Send(map[string]any{"typeof": "join-room", "meetingId": meetingID, "name": p.Name})
	msg := p.WaitFor("your-id")
	id, _ := msg["socketId"].(string)
	p.suite.Require().NotEmpty(id, "%s received your-id without a socketId", p.Name)
	p.ID = id
}

// WaitFor reads frames until one carries the wanted typeof, failing the
// test when the deadline passes first. Other frames are consumed, which
// keeps the scenarios independent of exact interleavings.
func (p *Peer) WaitFor(typeof string) map[string]any {
	deadline := time.Now().Add(recvTimeout)
	for {
		p.suite.Require().NoError(p.conn.SetReadDeadline(deadline))
		_, raw, err := p.conn.ReadMessage()
		p.suite.Require().NoError(err, "%s timed out waiting for %q", p.Name, typeof)

		if p.suite.Config.DebugJSON {
			p.suite.T().Logf("%s <- %s", p.Name, string(raw))
		}

		var msg map[string]any
		p.suite.Require().NoError(json.Unmarshal(raw, &msg))
		if msg["typeof"] == typeof {
			return msg
		}
	}
}
