package engine

import (
	"context"
	"sync/atomic"
)

// TrackedLauncher counts the sessions it launched that are not closed yet.
type TrackedLauncher struct {
	Launcher
	active atomic.Int64
}

// Track wraps l so its open sessions can be reported.
func Track(l Launcher) *TrackedLauncher {
	return &TrackedLauncher{Launcher: l}
}

// Launch implements Launcher.
func (t *TrackedLauncher) Launch(ctx context.Context) (Session, error) {
	s, err := t.Launcher.Launch(ctx)
	if err != nil {
		return nil, err
	}
	t.active.Add(1)
	return &trackedSession{Session: s, owner: t}, nil
}

// Active returns the number of sessions launched and not yet closed.
func (t *TrackedLauncher) Active() int {
	return int(t.active.Load())
}

type trackedSession struct {
	Session
	owner  *TrackedLauncher
	closed atomic.Bool
}

func (s *trackedSession) Close() error {
	if s.closed.CompareAndSwap(false, true) {
		s.owner.active.Add(-1)
	}
	return s.Session.Close()
}
