package audit

import (
	"context"
	"errors"
	"log/slog"
)

// ErrInboxFull signals the channel publisher's buffer is exhausted.
var ErrInboxFull = errors.New("audit inbox full")

// Worker consumes audit events from a channel and persists them. It keeps
// background processing testable without wiring a broker.
type Worker struct {
	store  Store
	inbox  <-chan Event
	logger *slog.Logger
}

func NewWorker(store Store, inbox <-chan Event, logger *slog.Logger) *Worker {
	return &Worker{store: store, inbox: inbox, logger: logger}
}

// Run processes events until the context is cancelled. Persistence errors
// are logged and skipped; audit loss must not stop the worker.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-w.inbox:
			if err := w.store.Append(ctx, event); err != nil {
				w.logger.ErrorContext(ctx, "failed to persist audit event",
					"event_id", event.ID.String(),
					"kind", string(event.Kind),
					"error", err,
				)
			}
		}
	}
}
