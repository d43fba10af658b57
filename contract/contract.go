//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"context"
	"reflect"

	"chat-desk/domain"
	"chat-desk/domain/event"
)

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

type WorkerName string

// Worker doesn't protect itself
// Can be silly, focused
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// This is used for logging and supervision purposes during worker
// lifecycle events, avoiding manual naming in the Worker interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

// EventSink is one client connection's outbound side. Deliver must not
// block the router; slow consumers drop.
type EventSink interface {
	Deliver(e event.Event) error
	Close()
}

// IRegistry maps transport connection ids to stable participant
// identities and their live sinks.
type IRegistry interface {
	ResolveOrCreate(connectionID, claimedID, name string, role domain.Role, domain string) string
	Attach(connectionID string, sink EventSink)
	Detach(connectionID string)
	SinkFor(persistentID string) (EventSink, bool)
	Sinks() []EventSink
	ParticipantByConnection(connectionID string) (domain.Participant, bool)
	Participant(persistentID string) (domain.Participant, bool)
	Forget(persistentID string)
}

type IRouter interface {
	Dispatch(cmd domain.Command)
	Start(ctx context.Context) error
	Stop()
}

// IArchive persists ended conversations for the previous-chats views.
type IArchive interface {
	StoreConversation(c domain.ArchivedConversation) error
	PreviousChats(agentID string, page, perPage int) ([]domain.ArchivedConversation, int, error)
	Search(ctx context.Context, query string, limit int) ([]domain.ArchivedConversation, error)
}
