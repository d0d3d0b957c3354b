package workers

import (
	"call-lab/contract"
	"call-lab/observability"
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/shirou/gopsutil/process"
)

var _ contract.Worker = (*HeartbeatWorker)(nil)

// HeartbeatWorker periodically logs process health (CPU, RSS, status)
// together with the coordinator's activity gauges. It is the only
// consumer of the monitor's snapshot.
type HeartbeatWorker struct {
	log      *slog.Logger
	registry contract.IRegistry
	monitor  *observability.Monitor
	interval time.Duration
}

func NewHeartbeatWorker(log *slog.Logger, registry contract.IRegistry,
	monitor *observability.Monitor, interval time.Duration) *HeartbeatWorker {
	return &HeartbeatWorker{log: log, registry: registry, monitor: monitor, interval: interval}
}

func (w *HeartbeatWorker) Run(ctx context.Context) error {
	w.log.Info("Starting heartbeat worker")
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			rss, cpu, status, err := selfStats(p)
			if err != nil {
				w.log.Error("Failed to collect self stats", "err", err)
				continue
			}

			stats := w.monitor.Snapshot()
			registryStats := w.registry.Stats()

			w.log.Info("heartbeat",
				"pid", os.Getpid(),
				"status", status,
				"cpu_percent", cpu,
				"ram_bytes", rss,
				"alloc_mem_mb", stats.AllocMemMb,
				"num_gc", stats.NumGC,
				"sessions", registryStats.Sessions,
				"rooms", registryStats.Rooms,
				"direct_sent", stats.DirectSent,
				"broadcasts", stats.Broadcasts,
				"delivery_failed", stats.DeliveryFailed,
				"signals_relayed", stats.SignalsRelayed,
				"chat_moderated", stats.ChatModerated,
				"censor_hits", stats.CensorHits,
			)
		}
	}
}

// selfStats retrieves technical metrics (memory, CPU and OS status) for
// the given process.
func selfStats(p *process.Process) (uint64, float64, string, error) {
	memInfo, err := p.MemoryInfo()
	if err != nil {
		return 0, 0, "", err
	}

	cpuPercent, err := p.CPUPercent()
	if err != nil {
		return 0, 0, "", err
	}

	status, err := p.Status()
	if err != nil {
		return 0, 0, "", err
	}
	return memInfo.RSS, cpuPercent, status, nil
}
