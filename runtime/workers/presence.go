package workers

import (
	"context"
	"log/slog"

	"chat-desk/contract"
	"chat-desk/domain/event"
)

// PresenceWorker fans presence events (agent online/offline) out to every
// connected console. Best-effort: no delivery, ordering, or retry
// guarantees. It holds no state of record; everything derives from
// router transitions.
type PresenceWorker struct {
	log      *slog.Logger
	registry contract.IRegistry
	events   chan event.Event
}

func NewPresenceWorker(log *slog.Logger, registry contract.IRegistry, events chan event.Event) *PresenceWorker {
	return &PresenceWorker{log: log, registry: registry, events: events}
}

func (w *PresenceWorker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Stopping presence fanout")
			return nil
		case evt, ok := <-w.events:
			if !ok {
				return nil
			}
			w.fanout(evt)
		}
	}
}

// fanout delivers one event to every live sink. A failed sink is the
// transport's problem; the broadcast keeps going.
func (w *PresenceWorker) fanout(evt event.Event) {
	for _, sink := range w.registry.Sinks() {
		if err := sink.Deliver(evt); err != nil {
			w.log.Debug("Presence delivery failed", "event", evt.Name(), "error", err)
		}
	}
}
