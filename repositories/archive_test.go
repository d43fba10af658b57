package repositories

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"chat-desk/domain"

	"github.com/blugelabs/bluge"
	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func newTestArchive(t *testing.T) *ConversationArchive {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).
		WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	writer, err := bluge.OpenWriter(bluge.DefaultConfig(t.TempDir()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = writer.Close() })

	return NewConversationArchive(db, writer, slog.Default())
}

func archived(agentID, text string, endedAt time.Time) domain.ArchivedConversation {
	return domain.ArchivedConversation{
		SessionID: uuid.New(),
		UserID:    uuid.NewString(),
		AgentID:   agentID,
		UserName:  "Alice",
		Domain:    "billing",
		Messages: []domain.Message{
			{ID: uuid.New(), Sender: domain.RoleUser, Text: text, At: endedAt.Add(-time.Minute)},
		},
		EndedAt: endedAt,
	}
}

func TestConversationArchive_PreviousChats_NewestFirst(t *testing.T) {
	req := require.New(t)
	archive := newTestArchive(t)
	agentID := uuid.NewString()
	base := time.Now().UTC()

	req.NoError(archive.StoreConversation(archived(agentID, "oldest", base.Add(-2*time.Hour))))
	req.NoError(archive.StoreConversation(archived(agentID, "middle", base.Add(-time.Hour))))
	req.NoError(archive.StoreConversation(archived(agentID, "newest", base)))
	// Another agent's chats must never leak in
	req.NoError(archive.StoreConversation(archived(uuid.NewString(), "other", base)))

	conversations, total, err := archive.PreviousChats(agentID, 1, 10)
	req.NoError(err)
	req.Equal(3, total)
	req.Len(conversations, 3)
	req.Equal("newest", conversations[0].Messages[0].Text)
	req.Equal("middle", conversations[1].Messages[0].Text)
	req.Equal("oldest", conversations[2].Messages[0].Text)
}

func TestConversationArchive_PreviousChats_Pagination(t *testing.T) {
	req := require.New(t)
	archive := newTestArchive(t)
	agentID := uuid.NewString()
	base := time.Now().UTC()

	for i := 0; i < 5; i++ {
		req.NoError(archive.StoreConversation(
			archived(agentID, "chat", base.Add(time.Duration(i)*time.Minute))))
	}

	firstPage, total, err := archive.PreviousChats(agentID, 1, 2)
	req.NoError(err)
	req.Equal(5, total)
	req.Len(firstPage, 2)

	lastPage, total, err := archive.PreviousChats(agentID, 3, 2)
	req.NoError(err)
	req.Equal(5, total)
	req.Len(lastPage, 1)

	empty, total, err := archive.PreviousChats(agentID, 4, 2)
	req.NoError(err)
	req.Equal(5, total)
	req.Empty(empty)
}

func TestConversationArchive_PreviousChats_UnknownAgent(t *testing.T) {
	req := require.New(t)
	archive := newTestArchive(t)

	conversations, total, err := archive.PreviousChats(uuid.NewString(), 1, 10)
	req.NoError(err)
	req.Zero(total)
	req.Empty(conversations)
}

func TestConversationArchive_Search_FindsTranscriptWords(t *testing.T) {
	req := require.New(t)
	archive := newTestArchive(t)
	agentID := uuid.NewString()

	req.NoError(archive.StoreConversation(archived(agentID, "my invoice is wrong", time.Now().UTC())))
	req.NoError(archive.StoreConversation(archived(agentID, "where is my parcel", time.Now().UTC())))

	hits, err := archive.Search(context.Background(), "invoice", 10)
	req.NoError(err)
	req.Len(hits, 1)
	req.Equal("my invoice is wrong", hits[0].Messages[0].Text)

	// A blank query short-circuits without touching the index
	hits, err = archive.Search(context.Background(), "   ", 10)
	req.NoError(err)
	req.Empty(hits)
}
