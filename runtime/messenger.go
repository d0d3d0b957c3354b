package runtime

import (
	"call-lab/contract"
	"call-lab/domain"
	"call-lab/domain/event"
	"call-lab/observability"
	"context"
	"fmt"
	"log/slog"
	"time"
)

var _ contract.IMessenger = (*Messenger)(nil)

// Messenger is the delivery edge: point-to-point sends by connection id
// and group broadcasts over the registry. Delivery is fire-and-forget and
// at-most-once; a failure is reported to the caller as a DeliveryResult
// and counted, never retried, and never aborts the rest of a fan-out.
type Messenger struct {
	log             *slog.Logger
	registry        contract.IRegistry
	monitor         *observability.Monitor
	deliveryTimeout time.Duration
}

func NewMessenger(log *slog.Logger, registry contract.IRegistry,
	monitor *observability.Monitor, deliveryTimeout time.Duration) *Messenger {
	return &Messenger{
		log:             log,
		registry:        registry,
		monitor:         monitor,
		deliveryTimeout: deliveryTimeout,
	}
}

// Send delivers one event to one connection. A missing connection is
// TargetGone; a sink that cannot accept within the delivery timeout is
// Failed. Both outcomes are the caller's to interpret.
func (m *Messenger) Send(ctx context.Context, sessionID string, e event.Outbound) contract.DeliveryResult {
	sink, ok := m.registry.Sink(sessionID)
	if !ok {
		m.monitor.IncrDeliveryFailed()
		m.log.Debug(fmt.Sprintf("Target %s is gone, dropping %s", sessionID, e.Typeof()))
		return contract.TargetGone
	}
	deliveryCtx, cancel := context.WithTimeout(ctx, m.deliveryTimeout)
	defer cancel()
	if err := sink.Consume(deliveryCtx, e); err != nil {
		m.monitor.IncrDeliveryFailed()
		m.log.Warn("Direct delivery failed", "target", sessionID, "typeof", e.Typeof(), "err", err)
		return contract.Failed
	}
	m.monitor.IncrDirectSent()
	return contract.Delivered
}

// Broadcast fans the event out to every sink subscribed to the room's
// group. Cost is linear in room size; individual failures are swallowed.
func (m *Messenger) Broadcast(ctx context.Context, room domain.RoomID, e event.Outbound) {
	sinks := m.registry.SinksForRoom(room)
	for _, sink := range sinks {
		deliveryCtx, cancel := context.WithTimeout(ctx, m.deliveryTimeout)
		if err := sink.Consume(deliveryCtx, e); err != nil {
			m.monitor.IncrDeliveryFailed()
			m.log.Warn("Group delivery failed", "group", room.GroupName(), "typeof", e.Typeof(), "err", err)
		}
		cancel()
	}
	m.monitor.IncrBroadcast()
}
