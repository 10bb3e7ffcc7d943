package commands

import (
	"context"
	"sync"

	inbox_errors "talentlink-inbox/pkg/errors"
	"talentlink-inbox/pkg/logger"
)

type task struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// Runner executes mutating commands as cancellable tasks keyed by
// (kind, target id). Submitting a command while another with the same
// key is in flight cancels the earlier one: last write wins, and the
// superseded task's result is never applied.
type Runner struct {
	mu       sync.Mutex
	inflight map[Key]*task
	log      *logger.Logger
}

func NewRunner(log *logger.Logger) *Runner {
	return &Runner{
		inflight: make(map[Key]*task),
		log:      log,
	}
}

// Submit validates and runs cmd, returning a channel that yields its
// single result. A superseded command yields ErrSuperseded; a command
// cancelled through the caller's own context keeps the context error.
func (r *Runner) Submit(parent context.Context, cmd Command) <-chan error {
	out := make(chan error, 1)
	if err := cmd.Validate(); err != nil {
		out <- err
		return out
	}

	ctx, cancel := context.WithCancel(parent)
	t := &task{cancel: cancel, done: make(chan struct{})}
	key := cmd.Key()

	r.mu.Lock()
	if prev, ok := r.inflight[key]; ok {
		prev.cancel()
		r.log.Warnf("command %s on %d superseded", key.Kind, key.TargetID)
	}
	r.inflight[key] = t
	r.mu.Unlock()

	go func() {
		defer close(t.done)
		defer cancel()

		err := cmd.Execute(ctx)
		// Only the task-local cancel means supersession; the caller
		// cancelling its own context keeps the context error.
		if ctx.Err() == context.Canceled && parent.Err() == nil {
			err = inbox_errors.ErrSuperseded
		}

		r.mu.Lock()
		if r.inflight[key] == t {
			delete(r.inflight, key)
		}
		r.mu.Unlock()

		out <- err
	}()
	return out
}
