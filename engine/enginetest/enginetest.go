// Package enginetest provides a scripted in-memory Launcher for tests.
package enginetest

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/use-agent/socialpulse/engine"
)

// Step is the scripted outcome of one Session.Open call.
type Step struct {
	// HTML is returned as the page markup when Err is nil.
	HTML  string
	Title string
	Err   error
}

// Launcher hands out sessions that replay Steps in order across all
// sessions it launched. Once the script runs out the last step repeats.
type Launcher struct {
	Steps     []Step
	LaunchErr error

	// Snapshot is what Session.Content returns. Defaults to the HTML of the
	// last opened page.
	Snapshot string

	mu       sync.Mutex
	next     int
	sessions []*Session

	launches atomic.Int32
	opens    atomic.Int32
	closes   atomic.Int32
}

// Name implements engine.Launcher.
func (l *Launcher) Name() string { return "fake" }

// Launch implements engine.Launcher.
func (l *Launcher) Launch(ctx context.Context) (engine.Session, error) {
	l.launches.Add(1)
	if l.LaunchErr != nil {
		return nil, l.LaunchErr
	}
	s := &Session{l: l}
	l.mu.Lock()
	l.sessions = append(l.sessions, s)
	l.mu.Unlock()
	return s, nil
}

// Launches is the number of Launch calls.
func (l *Launcher) Launches() int { return int(l.launches.Load()) }

// Opens is the number of Open calls across all sessions.
func (l *Launcher) Opens() int { return int(l.opens.Load()) }

// Closes is the number of Close calls across all sessions.
func (l *Launcher) Closes() int { return int(l.closes.Load()) }

// Sessions returns every session launched so far.
func (l *Launcher) Sessions() []*Session {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]*Session(nil), l.sessions...)
}

func (l *Launcher) step() Step {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.Steps) == 0 {
		return Step{}
	}
	i := l.next
	if i >= len(l.Steps) {
		i = len(l.Steps) - 1
	}
	l.next++
	return l.Steps[i]
}

// Session is a fake engine.Session.
type Session struct {
	l *Launcher

	mu     sync.Mutex
	last   string
	closes int
}

// Open implements engine.Session.
func (s *Session) Open(ctx context.Context, url string) (*engine.Page, error) {
	s.l.opens.Add(1)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	st := s.l.step()
	s.mu.Lock()
	s.last = st.HTML
	s.mu.Unlock()
	if st.Err != nil {
		return nil, st.Err
	}
	return &engine.Page{URL: url, FinalURL: url, HTML: st.HTML, Title: st.Title}, nil
}

// Content implements engine.Session.
func (s *Session) Content(ctx context.Context) (string, error) {
	if s.l.Snapshot != "" {
		return s.l.Snapshot, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last, nil
}

// Close implements engine.Session. Closing twice is reported as an error.
func (s *Session) Close() error {
	s.l.closes.Add(1)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closes++
	if s.closes > 1 {
		return fmt.Errorf("enginetest: session closed %d times", s.closes)
	}
	return nil
}

// Closed reports how many times this session was closed.
func (s *Session) Closed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closes
}
