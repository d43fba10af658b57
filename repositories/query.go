//go:generate go run go.uber.org/mock/mockgen -source=query.go -destination=../mocks/mock_query.go -package=mocks
package repositories

import (
	"encoding/json"
	"sort"
	"time"

	"chat-desk/domain"
	"chat-desk/errors"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

type IQueryRepository interface {
	Create(emailID, userName, message, dom string) (domain.Query, error)
	List(status domain.QueryStatus, dom string, page, perPage int) ([]domain.Query, int, error)
	Resolve(id uuid.UUID, resolvedBy, agentID string) (domain.Query, error)
}

// QueryRepository stores offline query tickets in BadgerDB. Tickets are
// few and small; listing scans the prefix and sorts in memory rather
// than maintaining secondary keys per status.
type QueryRepository struct {
	db *badger.DB
}

func NewQueryRepository(db *badger.DB) *QueryRepository {
	return &QueryRepository{db: db}
}

func queryKey(id uuid.UUID) []byte {
	return []byte("query:" + id.String())
}

func (r *QueryRepository) Create(emailID, userName, message, dom string) (domain.Query, error) {
	query := domain.Query{
		ID:        uuid.New(),
		EmailID:   emailID,
		UserName:  userName,
		Message:   message,
		Domain:    dom,
		Status:    domain.QueryPending,
		UpdatedAt: time.Now().UTC(),
	}
	return query, r.put(query)
}

func (r *QueryRepository) put(query domain.Query) error {
	bytes, err := json.Marshal(query)
	if err != nil {
		return err
	}
	return r.db.Update(func(txn *badger.Txn) error {
		return txn.Set(queryKey(query.ID), bytes)
	})
}

// List returns one page of tickets with the given status, newest first,
// optionally narrowed to a domain, plus the total match count.
func (r *QueryRepository) List(status domain.QueryStatus, dom string, page, perPage int) ([]domain.Query, int, error) {
	if page < 1 {
		page = 1
	}
	var matches []domain.Query
	err := r.db.View(func(txn *badger.Txn) error {
		prefix := []byte("query:")
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			value, err := it.Item().ValueCopy(nil)
			if err != nil {
				return err
			}
			var query domain.Query
			if err := json.Unmarshal(value, &query); err != nil {
				return err
			}
			if query.Status != status {
				continue
			}
			if dom != "" && query.Domain != dom {
				continue
			}
			matches = append(matches, query)
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}

	sort.Slice(matches, func(i, j int) bool {
		return matches[i].UpdatedAt.After(matches[j].UpdatedAt)
	})

	total := len(matches)
	offset := (page - 1) * perPage
	if offset >= total {
		return nil, total, nil
	}
	end := offset + perPage
	if end > total {
		end = total
	}
	return matches[offset:end], total, nil
}

// Resolve marks a ticket resolved.
func (r *QueryRepository) Resolve(id uuid.UUID, resolvedBy, agentID string) (domain.Query, error) {
	var query domain.Query
	err := r.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(queryKey(id))
		if err != nil {
			return errors.ErrQueryNotFound
		}
		value, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		if err := json.Unmarshal(value, &query); err != nil {
			return err
		}
		query.Status = domain.QueryResolved
		query.ResolvedBy = resolvedBy
		query.AgentID = agentID
		query.UpdatedAt = time.Now().UTC()
		bytes, err := json.Marshal(query)
		if err != nil {
			return err
		}
		return txn.Set(queryKey(id), bytes)
	})
	return query, err
}
