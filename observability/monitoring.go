// Package observability aggregates runtime telemetry for the heartbeat
// worker and the debug inspector. Counters are atomic; nothing here sits
// on the delivery hot path longer than an atomic add.
package observability

import (
	"runtime"
	"sync/atomic"
)

// Stats is a point-in-time snapshot of the coordinator's activity.
type Stats struct {
	DirectSent     uint64 `json:"direct_sent"`
	Broadcasts     uint64 `json:"broadcasts"`
	DeliveryFailed uint64 `json:"delivery_failed"`
	SignalsRelayed uint64 `json:"signals_relayed"`
	ChatModerated  uint64 `json:"chat_moderated"`
	CensorHits     uint64 `json:"censor_hits"`
	AllocMemMb     uint64 `json:"alloc_mem_mb"`
	NumGC          uint32 `json:"num_gc"`
}

type Monitor struct {
	directSent     atomic.Uint64
	broadcasts     atomic.Uint64
	deliveryFailed atomic.Uint64
	signalsRelayed atomic.Uint64
	chatModerated  atomic.Uint64
	censorHits     atomic.Uint64
}

func NewMonitor() *Monitor {
	return &Monitor{}
}

func (m *Monitor) IncrDirectSent()     { m.directSent.Add(1) }
func (m *Monitor) IncrBroadcast()      { m.broadcasts.Add(1) }
func (m *Monitor) IncrDeliveryFailed() { m.deliveryFailed.Add(1) }
func (m *Monitor) IncrSignalRelayed()  { m.signalsRelayed.Add(1) }
func (m *Monitor) IncrChatModerated()  { m.chatModerated.Add(1) }

func (m *Monitor) AddCensorHits(n int) {
	if n > 0 {
		m.censorHits.Add(uint64(n))
	}
}

// Snapshot folds the counters with current memory figures. Session and
// room gauges live in the registry, which the heartbeat reads directly.
func (m *Monitor) Snapshot() Stats {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)
	return Stats{
		DirectSent:     m.directSent.Load(),
		Broadcasts:     m.broadcasts.Load(),
		DeliveryFailed: m.deliveryFailed.Load(),
		SignalsRelayed: m.signalsRelayed.Load(),
		ChatModerated:  m.chatModerated.Load(),
		CensorHits:     m.censorHits.Load(),
		AllocMemMb:     mem.Alloc / 1024 / 1024,
		NumGC:          mem.NumGC,
	}
}
