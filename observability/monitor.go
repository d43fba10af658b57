// Package observability aggregates live router gauges for the stats
// endpoint. Counters are atomic; the snapshot adds process-level figures
// on demand.
package observability

import (
	"os"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/shirou/gopsutil/process"
)

type Monitor struct {
	agentsOnline    atomic.Int64
	usersQueued     atomic.Int64
	activeSessions  atomic.Int64
	messagesRelayed atomic.Uint64
	sessionsTotal   atomic.Uint64
	startedAt       time.Time

	proc *process.Process
}

func NewMonitor() *Monitor {
	m := &Monitor{startedAt: time.Now().UTC()}
	// Best effort: stats degrade to zero when the pid lookup fails.
	if p, err := process.NewProcess(int32(os.Getpid())); err == nil {
		m.proc = p
	}
	return m
}

func (m *Monitor) AgentOnline() {
	if m == nil {
		return
	}
	m.agentsOnline.Add(1)
}

func (m *Monitor) AgentOffline() {
	if m == nil {
		return
	}
	if m.agentsOnline.Add(-1) < 0 {
		m.agentsOnline.Store(0)
	}
}

func (m *Monitor) UserQueued() {
	if m == nil {
		return
	}
	m.usersQueued.Add(1)
}

func (m *Monitor) UserDequeued() {
	if m == nil {
		return
	}
	if m.usersQueued.Add(-1) < 0 {
		m.usersQueued.Store(0)
	}
}

func (m *Monitor) SessionStarted() {
	if m == nil {
		return
	}
	m.activeSessions.Add(1)
	m.sessionsTotal.Add(1)
}

func (m *Monitor) SessionEnded() {
	if m == nil {
		return
	}
	if m.activeSessions.Add(-1) < 0 {
		m.activeSessions.Store(0)
	}
}

func (m *Monitor) MessageRelayed() {
	if m == nil {
		return
	}
	m.messagesRelayed.Add(1)
}

// Snapshot returns the current gauges plus process CPU/RSS and Go
// runtime memory, shaped for the JSON stats endpoint.
func (m *Monitor) Snapshot() map[string]any {
	if m == nil {
		return map[string]any{}
	}
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	stats := map[string]any{
		"agents_online":    m.agentsOnline.Load(),
		"users_queued":     m.usersQueued.Load(),
		"active_sessions":  m.activeSessions.Load(),
		"sessions_total":   m.sessionsTotal.Load(),
		"messages_relayed": m.messagesRelayed.Load(),
		"uptime":           time.Since(m.startedAt).Round(time.Second).String(),
		"alloc_mem_mb":     mem.Alloc / 1024 / 1024,
		"num_gc":           mem.NumGC,
	}

	if m.proc != nil {
		if cpu, err := m.proc.CPUPercent(); err == nil {
			stats["cpu_percent"] = cpu
		}
		if info, err := m.proc.MemoryInfo(); err == nil && info != nil {
			stats["rss_mb"] = info.RSS / 1024 / 1024
		}
	}
	return stats
}
