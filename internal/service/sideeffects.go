package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/zenora-hq/zenora-core/internal/port/messagequeue"
)

// SideEffect is one best-effort task to run after the primary mutation has
// committed: an email, a cache invalidation, an audit append. Side effects
// never influence the success of the request that produced them.
type SideEffect struct {
	Name string
	Fn   func(ctx context.Context) error
}

// RunSideEffects executes the post-commit task list. Each task runs in its
// own error boundary: a failing task is logged and swallowed so one failure
// never affects another. Callers that must not block run this in a goroutine
// with a detached context.
func RunSideEffects(ctx context.Context, effects []SideEffect) {
	var g errgroup.Group
	for _, eff := range effects {
		eff := eff
		g.Go(func() error {
			defer func() {
				if r := recover(); r != nil {
					slog.Error("side effect panicked", "name", eff.Name, "panic", r)
				}
			}()
			if err := eff.Fn(ctx); err != nil {
				slog.Warn("side effect failed", "name", eff.Name, "error", err)
			}
			return nil
		})
	}
	_ = g.Wait()
}

// publishJSON marshals payload and publishes it on the given subject.
func publishJSON(ctx context.Context, q messagequeue.Queue, subject string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", subject, err)
	}
	if err := q.Publish(ctx, subject, data); err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}
	return nil
}
