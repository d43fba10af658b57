package workers

import (
	"context"
	"log/slog"

	"chat-desk/domain"
)

// CommandLoop is the router's single event-handling goroutine. Each
// inbound command is processed to completion before the next, so no two
// handlers ever interleave on the stores.
type CommandLoop struct {
	log      *slog.Logger
	commands chan domain.Command
	handle   func(domain.Command)
}

func NewCommandLoop(log *slog.Logger, commands chan domain.Command, handle func(domain.Command)) *CommandLoop {
	return &CommandLoop{log: log, commands: commands, handle: handle}
}

func (w *CommandLoop) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Stopping command loop")
			return nil
		case cmd, ok := <-w.commands:
			if !ok {
				return nil
			}
			w.handle(cmd)
		}
	}
}
