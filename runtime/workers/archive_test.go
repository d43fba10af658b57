package workers

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"chat-desk/domain"
	"chat-desk/mocks"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestArchiveWorker_StoresSnapshots(t *testing.T) {
	req := require.New(t)
	log := slog.Default()
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	mockArchive := mocks.NewMockIArchive(ctrl)

	snapshots := make(chan domain.ArchivedConversation, 4)
	worker := NewArchiveWorker(log, mockArchive, snapshots)

	snapshot := domain.ArchivedConversation{
		SessionID: uuid.New(),
		AgentID:   uuid.NewString(),
		UserID:    uuid.NewString(),
		EndedAt:   time.Now().UTC(),
	}

	done := make(chan struct{})
	mockArchive.EXPECT().StoreConversation(snapshot).
		Do(func(domain.ArchivedConversation) { close(done) }).
		Return(nil).Times(1)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = worker.Run(ctx) }()

	snapshots <- snapshot

	select {
	case <-done:
	case <-time.After(1 * time.Second):
		req.Fail("Snapshot was not stored in time")
	}
}

func TestArchiveWorker_DrainsQueueOnShutdown(t *testing.T) {
	req := require.New(t)
	log := slog.Default()
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	mockArchive := mocks.NewMockIArchive(ctrl)

	snapshots := make(chan domain.ArchivedConversation, 4)
	worker := NewArchiveWorker(log, mockArchive, snapshots)

	// Given two snapshots already queued when the context is gone
	snapshots <- domain.ArchivedConversation{SessionID: uuid.New()}
	snapshots <- domain.ArchivedConversation{SessionID: uuid.New()}
	mockArchive.EXPECT().StoreConversation(gomock.Any()).Return(nil).Times(2)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// When the worker runs on the canceled context
	// Then it flushes the queue before returning
	req.NoError(worker.Run(ctx))
}
