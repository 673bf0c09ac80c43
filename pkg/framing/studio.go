package framing

import (
	"context"
	"io"
	"log/slog"
	"sync"
)

// Studio keeps at most one framing session open. Opening a new session
// cancels the previous one.
type Studio struct {
	mu     sync.Mutex
	active *Session
	logger *slog.Logger
}

// NewStudio creates a studio. logger may be nil.
func NewStudio(logger *slog.Logger) *Studio {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Studio{logger: logger}
}

// Open cancels any open session and starts a new one over r.
func (st *Studio) Open(ctx context.Context, r io.Reader, opts Options) (*Session, error) {
	st.mu.Lock()
	defer st.mu.Unlock()

	if st.active != nil {
		st.logger.Debug("replacing open framing session")
		st.active.Cancel()
		st.active = nil
	}

	if opts.Logger == nil {
		opts.Logger = st.logger
	}
	s, err := Open(ctx, r, opts)
	if err != nil {
		return nil, err
	}
	st.active = s
	return s, nil
}

// Active returns the open session, or nil.
func (st *Studio) Active() *Session {
	st.mu.Lock()
	defer st.mu.Unlock()

	if st.active != nil && st.active.Err() != nil {
		st.active = nil
	}
	return st.active
}
