package ws

import (
	"call-lab/contract"
	"call-lab/domain/event"
	"context"
)

var _ contract.EventSink = (*Sink)(nil)

// Sink is one connection's outbound queue. Consume is called by the
// messenger; the session's write pump drains Events onto the socket.
type Sink struct {
	Events chan event.Outbound
}

func NewSink(bufferSize int) *Sink {
	return &Sink{Events: make(chan event.Outbound, bufferSize)}
}

// Consume hands the event to the write pump. A full queue blocks until
// the caller's delivery timeout fires, which the messenger reports as a
// failed delivery.
func (s *Sink) Consume(ctx context.Context, e event.Outbound) error {
	select {
	case s.Events <- e:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
