package aqs

import (
	"context"
	"sync"
)

type sessionKey struct{}

// WithSession tags ctx with a UI session identifier. Requests sharing a
// session follow last-request-wins.
func WithSession(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, sessionKey{}, id)
}

// SessionFromContext returns the session identifier set by WithSession.
func SessionFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(sessionKey{}).(string); ok {
		return id
	}
	return ""
}

// Sessions tracks the in-flight request of each session. Starting a
// request cancels the previous one of the same session, and a result
// that completes after a newer request started is discarded.
type Sessions struct {
	mu     sync.Mutex
	seq    uint64
	active map[string]*inflight
}

type inflight struct {
	seq    uint64
	cancel context.CancelFunc
}

// NewSessions creates an empty session tracker.
func NewSessions() *Sessions {
	return &Sessions{
		active: make(map[string]*inflight),
	}
}

// Begin registers a request for session id and returns its context and
// a finish function. finish must be called exactly once with the result
// of the request; it returns that result, or an ErrSuperseded result if
// a newer request for the session started in the meantime. An empty id
// is not tracked.
func (s *Sessions) Begin(ctx context.Context, id string) (context.Context, func(Result) Result) {
	if id == "" {
		return ctx, func(r Result) Result { return r }
	}

	reqCtx, cancel := context.WithCancel(ctx)

	s.mu.Lock()
	s.seq++
	mine := &inflight{seq: s.seq, cancel: cancel}
	if prev, ok := s.active[id]; ok {
		prev.cancel()
	}
	s.active[id] = mine
	s.mu.Unlock()

	finish := func(r Result) Result {
		defer cancel()

		s.mu.Lock()
		defer s.mu.Unlock()

		if cur, ok := s.active[id]; ok && cur.seq == mine.seq {
			delete(s.active, id)
			return r
		}
		return failed(ErrSuperseded)
	}

	return reqCtx, finish
}

// InFlight returns the number of sessions with a request in progress.
func (s *Sessions) InFlight() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.active)
}
