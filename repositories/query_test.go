package repositories

import (
	"testing"

	"chat-desk/domain"
	"chat-desk/errors"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func newTestQueryRepository(t *testing.T) *QueryRepository {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).
		WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewQueryRepository(db)
}

func TestQueryRepository_CreateAndList(t *testing.T) {
	req := require.New(t)
	repository := newTestQueryRepository(t)

	created, err := repository.Create("alice@example.com", "Alice", "No agent was around", "billing")
	req.NoError(err)
	req.Equal(domain.QueryPending, created.Status)

	pending, total, err := repository.List(domain.QueryPending, "", 1, 10)
	req.NoError(err)
	req.Equal(1, total)
	req.Len(pending, 1)
	req.Equal("alice@example.com", pending[0].EmailID)

	resolved, total, err := repository.List(domain.QueryResolved, "", 1, 10)
	req.NoError(err)
	req.Zero(total)
	req.Empty(resolved)
}

func TestQueryRepository_List_FiltersByDomain(t *testing.T) {
	req := require.New(t)
	repository := newTestQueryRepository(t)

	_, err := repository.Create("alice@example.com", "Alice", "billing issue", "billing")
	req.NoError(err)
	_, err = repository.Create("bob@example.com", "Bob", "parcel issue", "shipping")
	req.NoError(err)

	billing, total, err := repository.List(domain.QueryPending, "billing", 1, 10)
	req.NoError(err)
	req.Equal(1, total)
	req.Len(billing, 1)
	req.Equal("Alice", billing[0].UserName)
}

func TestQueryRepository_Resolve(t *testing.T) {
	req := require.New(t)
	repository := newTestQueryRepository(t)
	agentID := uuid.NewString()

	created, err := repository.Create("alice@example.com", "Alice", "No agent was around", "billing")
	req.NoError(err)

	resolved, err := repository.Resolve(created.ID, "Clara", agentID)
	req.NoError(err)
	req.Equal(domain.QueryResolved, resolved.Status)
	req.Equal("Clara", resolved.ResolvedBy)
	req.Equal(agentID, resolved.AgentID)

	// The ticket moved from one listing to the other
	pending, _, err := repository.List(domain.QueryPending, "", 1, 10)
	req.NoError(err)
	req.Empty(pending)
	done, _, err := repository.List(domain.QueryResolved, "", 1, 10)
	req.NoError(err)
	req.Len(done, 1)
}

func TestQueryRepository_Resolve_Unknown(t *testing.T) {
	req := require.New(t)
	repository := newTestQueryRepository(t)

	_, err := repository.Resolve(uuid.New(), "Clara", uuid.NewString())
	req.ErrorIs(err, errors.ErrQueryNotFound)
}
