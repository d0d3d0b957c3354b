package ws

import (
	"call-lab/domain"
	"call-lab/domain/event"
	"call-lab/runtime"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer. SDP offers fit comfortably.
	maxMessageSize = 64 * 1024
)

// Session serves one websocket connection: the read pump decodes
// envelopes and feeds the coordinator, the write pump drains the sink.
// There is at most one reader and one writer per connection.
type Session struct {
	conn        *websocket.Conn
	sink        *Sink
	state       domain.Session
	coordinator *runtime.Coordinator
	log         *slog.Logger
	unregister  func(sessionID string)
}

func newSession(conn *websocket.Conn, sink *Sink, sessionID string,
	coordinator *runtime.Coordinator, log *slog.Logger, unregister func(sessionID string)) *Session {
	return &Session{
		conn:        conn,
		sink:        sink,
		state:       domain.Session{ID: sessionID},
		coordinator: coordinator,
		log:         log,
		unregister:  unregister,
	}
}

// readPump decodes inbound envelopes and dispatches them. On exit the
// session is torn down: coordinator cleanup first, then the directory
// entry, then the write pump via cancel. The sink channel is never
// closed; a late Consume from a concurrent fan-out only times out.
func (s *Session) readPump(ctx context.Context, cancel context.CancelFunc) {
	defer func() {
		s.coordinator.Disconnect(ctx, &s.state)
		s.unregister(s.state.ID)
		cancel()
		_ = s.conn.Close()
	}()

	s.conn.SetReadLimit(maxMessageSize)
	_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				s.log.Debug("Unexpected close", "session", s.state.ID, "err", err)
			}
			return
		}
		s.dispatch(ctx, raw)
	}
}

// dispatch turns one wire message into one coordinator call. Validation
// failures on join-room get an explicit error reply; every other invalid
// message is dropped with a debug trace.
func (s *Session) dispatch(ctx context.Context, raw []byte) {
	var envelope Envelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		s.log.Debug("Undecodable message", "session", s.state.ID, "err", err)
		return
	}

	cmd, err := envelope.Command()
	if err != nil {
		if envelope.Kind() == "join-room" {
			_ = s.sink.Consume(ctx, event.Error{Message: "meetingId required"})
			return
		}
		s.log.Debug(fmt.Sprintf("Dropping invalid %q message", envelope.Kind()), "session", s.state.ID, "err", err)
		return
	}

	s.coordinator.Handle(ctx, &s.state, cmd)
}

// writePump serializes outbound events onto the socket and keeps the
// connection alive with pings.
func (s *Session) writePump(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = s.conn.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = s.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		case e := <-s.sink.Events:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			payload, err := event.Encode(e)
			if err != nil {
				s.log.Error("Event encoding failed", "typeof", e.Typeof(), "err", err)
				continue
			}
			if err := s.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				s.log.Debug("Write failed", "session", s.state.ID, "err", err)
				return
			}
		case <-ticker.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
