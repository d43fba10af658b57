package workers

import (
	"context"
	"log/slog"

	"chat-desk/contract"
	"chat-desk/domain"
)

// ArchiveWorker persists ended-conversation snapshots off the router
// loop. Disk latency never blocks event handling; a failed write loses
// one archive entry, not the router.
type ArchiveWorker struct {
	log       *slog.Logger
	archive   contract.IArchive
	snapshots chan domain.ArchivedConversation
}

func NewArchiveWorker(log *slog.Logger, archive contract.IArchive, snapshots chan domain.ArchivedConversation) *ArchiveWorker {
	return &ArchiveWorker{log: log, archive: archive, snapshots: snapshots}
}

func (w *ArchiveWorker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			// Drain what is already queued before stopping.
			for {
				select {
				case snapshot := <-w.snapshots:
					w.store(snapshot)
				default:
					w.log.Debug("Stopping archive worker")
					return nil
				}
			}
		case snapshot, ok := <-w.snapshots:
			if !ok {
				return nil
			}
			w.store(snapshot)
		}
	}
}

func (w *ArchiveWorker) store(snapshot domain.ArchivedConversation) {
	if err := w.archive.StoreConversation(snapshot); err != nil {
		w.log.Error("Failed to archive conversation",
			"session_id", snapshot.SessionID, "error", err)
	}
}
