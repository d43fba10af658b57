//go:generate go run go.uber.org/mock/mockgen -source=archive.go -destination=../mocks/mock_archive.go -package=mocks
package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"chat-desk/domain"

	"github.com/blugelabs/bluge"
	"github.com/dgraph-io/badger/v4"
	"github.com/samber/lo"
)

type IConversationArchive interface {
	StoreConversation(c domain.ArchivedConversation) error
	PreviousChats(agentID string, page, perPage int) ([]domain.ArchivedConversation, int, error)
	Search(ctx context.Context, query string, limit int) ([]domain.ArchivedConversation, error)
}

// ConversationArchive persists ended conversations in BadgerDB and
// indexes their transcripts in Bluge. Records are JSON, matching the
// wire shape of a replay, so the previous-chats endpoint serves them
// without remapping.
type ConversationArchive struct {
	db     *badger.DB
	writer *bluge.Writer
	log    *slog.Logger
}

func NewConversationArchive(db *badger.DB, writer *bluge.Writer, log *slog.Logger) *ConversationArchive {
	return &ConversationArchive{db: db, writer: writer, log: log}
}

// conversationKey sorts archives per agent by end time. 19-digit zero
// padding keeps lexicographic order equal to chronological order; the
// session id disambiguates same-nanosecond endings.
func conversationKey(c domain.ArchivedConversation) string {
	return fmt.Sprintf("conv:%s:%019d:%s", c.AgentID, c.EndedAt.UnixNano(), c.SessionID)
}

func (a *ConversationArchive) StoreConversation(c domain.ArchivedConversation) error {
	key := conversationKey(c)
	bytes, err := json.Marshal(c)
	if err != nil {
		return err
	}
	if err := a.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), bytes)
	}); err != nil {
		return err
	}
	if a.writer == nil {
		return nil
	}

	doc := bluge.NewDocument(key).
		AddField(bluge.NewTextField("transcript", transcript(c)).StoreValue()).
		AddField(bluge.NewKeywordField("agent_id", c.AgentID)).
		AddField(bluge.NewKeywordField("user_name", c.UserName)).
		AddField(bluge.NewKeywordField("domain", c.Domain))
	if err := a.writer.Update(doc.ID(), doc); err != nil {
		// The badger record is the source of truth; a lost index entry
		// only degrades search.
		a.log.Error("Failed to index conversation", "session_id", c.SessionID, "error", err)
	}
	return nil
}

func transcript(c domain.ArchivedConversation) string {
	lines := lo.FilterMap(c.Messages, func(m domain.Message, _ int) (string, bool) {
		return m.Text, m.Text != ""
	})
	return strings.Join(lines, "\n")
}

// PreviousChats returns one page of an agent's archived conversations,
// newest first, plus the total count for the has_more flag.
func (a *ConversationArchive) PreviousChats(agentID string, page, perPage int) ([]domain.ArchivedConversation, int, error) {
	if page < 1 {
		page = 1
	}
	offset := (page - 1) * perPage

	var raw [][]byte
	total := 0
	err := a.db.View(func(txn *badger.Txn) error {
		prefix := []byte(fmt.Sprintf("conv:%s:", agentID))
		options := badger.DefaultIteratorOptions
		options.Reverse = true
		it := txn.NewIterator(options)
		defer it.Close()

		// Reverse iteration needs a seek past the newest key.
		seekKey := append(append([]byte{}, prefix...), 0xFF)
		for it.Seek(seekKey); it.ValidForPrefix(prefix); it.Next() {
			if total >= offset && len(raw) < perPage {
				value, err := it.Item().ValueCopy(nil)
				if err != nil {
					return err
				}
				raw = append(raw, value)
			}
			total++
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}

	conversations := make([]domain.ArchivedConversation, 0, len(raw))
	for _, bytes := range raw {
		var c domain.ArchivedConversation
		if err := json.Unmarshal(bytes, &c); err != nil {
			return nil, 0, err
		}
		conversations = append(conversations, c)
	}
	return conversations, total, nil
}

// Search runs a full-text match over archived transcripts and resolves
// the hits back to their badger records.
func (a *ConversationArchive) Search(ctx context.Context, query string, limit int) ([]domain.ArchivedConversation, error) {
	if a.writer == nil || strings.TrimSpace(query) == "" {
		return nil, nil
	}
	reader, err := a.writer.Reader()
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	match := bluge.NewMatchQuery(query).SetField("transcript")
	request := bluge.NewTopNSearch(limit, match)
	iterator, err := reader.Search(ctx, request)
	if err != nil {
		return nil, err
	}

	var keys []string
	for {
		next, err := iterator.Next()
		if err != nil {
			return nil, err
		}
		if next == nil {
			break
		}
		err = next.VisitStoredFields(func(field string, value []byte) bool {
			if field == "_id" {
				keys = append(keys, string(value))
			}
			return true
		})
		if err != nil {
			return nil, err
		}
	}

	var conversations []domain.ArchivedConversation
	err = a.db.View(func(txn *badger.Txn) error {
		for _, key := range keys {
			item, err := txn.Get([]byte(key))
			if err != nil {
				// Index ahead of store or behind a purge; skip the hit.
				a.log.Debug("Search hit without badger record", "key", key)
				continue
			}
			value, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			var c domain.ArchivedConversation
			if err := json.Unmarshal(value, &c); err != nil {
				return err
			}
			conversations = append(conversations, c)
		}
		return nil
	})
	return conversations, err
}
