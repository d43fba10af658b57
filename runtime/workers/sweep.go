package workers

import (
	"context"
	"time"
)

// SweepWorker periodically fires the reconnect-window check. It only
// injects a command; the router loop does the actual work, so timeouts
// obey the same single-threaded discipline as everything else.
type SweepWorker struct {
	interval time.Duration
	fire     func()
}

func NewSweepWorker(interval time.Duration, fire func()) *SweepWorker {
	return &SweepWorker{interval: interval, fire: fire}
}

func (w *SweepWorker) Run(ctx context.Context) error {
	if w.interval <= 0 {
		return nil
	}
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			w.fire()
		}
	}
}
