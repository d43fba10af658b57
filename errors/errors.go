package errors

import "fmt"

var (
	ErrWorkerPanic = fmt.Errorf("worker panic")

	// Router taxonomy. All of these are recovered locally with a soft
	// notice to the affected client; none are fatal.
	ErrUnknownTarget = fmt.Errorf("recipient or session not found")
	ErrAlreadyPaired = fmt.Errorf("participant already holds an active session")
	ErrSessionEnded  = fmt.Errorf("session already ended")
	ErrNoCapacity    = fmt.Errorf("no agents registered for domain")

	ErrQueryNotFound = fmt.Errorf("query not found")
	ErrBotFallback   = fmt.Errorf("could not fetch a response")
)
