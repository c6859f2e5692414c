// Package retry runs one scrape call as a bounded sequence of attempts and
// turns exhaustion into a diagnostic snapshot plus a terminal error.
package retry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/use-agent/socialpulse/models"
)

// Policy bounds the attempts of one call.
type Policy struct {
	// MaxAttempts is the total number of attempts, including the first.
	MaxAttempts int

	// Delay is the fixed pause between attempts. No backoff, no jitter.
	Delay time.Duration
}

// DefaultPolicy is two attempts two seconds apart.
func DefaultPolicy() Policy {
	return Policy{MaxAttempts: 2, Delay: 2 * time.Second}
}

// State is what the orchestrator knows after a call finished.
type State struct {
	AttemptsMade int
	MaxAttempts  int
	LastError    error
}

// Call describes the scrape being orchestrated.
type Call struct {
	// Kind labels log lines, e.g. "instagram_profile".
	Kind string

	// Target is the request identifier (username or URL).
	Target string

	// Subject completes "Failed to extract <Subject>." in the terminal
	// error message, e.g. "data for sufitramp".
	Subject string

	// SnapshotName is the file name of the diagnostic dump.
	SnapshotName string

	// Snapshot returns the markup currently held by the render session.
	// May be nil, in which case no file is written.
	Snapshot func(ctx context.Context) (string, error)
}

// Attempt performs attempt number n (1-based).
type Attempt[T any] func(ctx context.Context, n int) (T, error)

// Run calls attempt until it succeeds, fails with an error that is not
// recoverable, or the policy runs out.
//
// On exhaustion the current page markup is written through w and the
// returned error is a *models.ScrapeError with code EXTRACTION_EXHAUSTED
// whose message references the snapshot file. A cancelled ctx stops the
// call immediately and returns the cancellation without writing anything.
// An expired deadline counts as exhaustion.
func Run[T any](ctx context.Context, p Policy, w *SnapshotWriter, call Call, attempt Attempt[T]) (T, State, error) {
	var zero T
	if p.MaxAttempts < 1 {
		p.MaxAttempts = 1
	}
	st := State{MaxAttempts: p.MaxAttempts}

	for n := 1; ; n++ {
		v, err := attempt(ctx, n)
		st.AttemptsMade = n
		if err == nil {
			if n > 1 {
				slog.Info("scrape succeeded after retry", "kind", call.Kind, "target", call.Target, "attempt", n)
			}
			return v, st, nil
		}
		st.LastError = err

		if errors.Is(ctx.Err(), context.Canceled) {
			return zero, st, ctx.Err()
		}
		if !models.IsRecoverable(err) {
			return zero, st, err
		}

		slog.Warn("scrape attempt failed",
			"kind", call.Kind,
			"target", call.Target,
			"attempt", n,
			"max_attempts", p.MaxAttempts,
			"error", err,
		)
		if n >= p.MaxAttempts || ctx.Err() != nil {
			break
		}
		if err := sleep(ctx, p.Delay); err != nil {
			if errors.Is(err, context.Canceled) {
				return zero, st, err
			}
			break
		}
	}

	return zero, st, exhaust(ctx, w, call, st)
}

func exhaust(ctx context.Context, w *SnapshotWriter, call Call, st State) error {
	var path string
	if call.Snapshot != nil && w != nil {
		// The snapshot is taken even when the deadline already passed.
		content, err := call.Snapshot(context.WithoutCancel(ctx))
		if err != nil {
			slog.Error("snapshot capture failed", "kind", call.Kind, "target", call.Target, "error", err)
		} else if path, err = w.Write(call.SnapshotName, content); err != nil {
			slog.Error("snapshot write failed", "kind", call.Kind, "target", call.Target, "error", err)
			path = ""
		}
	}

	msg := fmt.Sprintf("Failed to extract %s.", call.Subject)
	if path != "" {
		msg = fmt.Sprintf("Failed to extract %s. Check %s.", call.Subject, path)
	}
	slog.Error("scrape exhausted",
		"kind", call.Kind,
		"target", call.Target,
		"attempts", st.AttemptsMade,
		"snapshot", path,
		"error", st.LastError,
	)

	return &models.ScrapeError{
		Code:         models.ErrCodeExhausted,
		Message:      msg,
		Err:          st.LastError,
		SnapshotPath: path,
	}
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
