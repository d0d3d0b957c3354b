package ws

import (
	"call-lab/contract"
	"call-lab/runtime"
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Server upgrades signaling connections and runs one Session per peer.
type Server struct {
	log         *slog.Logger
	coordinator *runtime.Coordinator
	registry    contract.IRegistry
	bufferSize  int
	upgrader    websocket.Upgrader
}

func NewServer(log *slog.Logger, coordinator *runtime.Coordinator,
	registry contract.IRegistry, bufferSize int) *Server {
	return &Server{
		log:         log,
		coordinator: coordinator,
		registry:    registry,
		bufferSize:  bufferSize,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  maxMessageSize,
			WriteBufferSize: maxMessageSize,
			// Origin enforcement belongs to the reverse proxy in front of us.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Handler returns the websocket endpoint. Each accepted connection gets a
// transport-assigned id, a registered sink, and its two pumps.
func (s *Server) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(w, r, nil)
		if err != nil {
			s.log.Warn("Upgrade failed", "remote", r.RemoteAddr, "err", err)
			return
		}

		sessionID := uuid.NewString()
		sink := NewSink(s.bufferSize)
		s.registry.Register(sessionID, sink)

		session := newSession(conn, sink, sessionID, s.coordinator, s.log, s.registry.Unregister)
		s.log.Info(fmt.Sprintf("Session %s connected from %s", sessionID, r.RemoteAddr))

		ctx, cancel := context.WithCancel(context.Background())
		go session.writePump(ctx)
		go session.readPump(ctx, cancel)
	}
}

// HealthHandler reports liveness for load balancers.
func HealthHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("signaling server is healthy"))
}
