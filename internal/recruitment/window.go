package recruitment

import (
	"time"

	"github.com/gcsrm/recruitment-portal/internal/config"
)

// Window is an inclusive [OpensAt, ClosesAt] admission interval
type Window struct {
	OpensAt  time.Time
	ClosesAt time.Time
}

// WindowFromConfig converts a configured window
func WindowFromConfig(w config.Window) Window {
	return Window{OpensAt: w.OpensAt, ClosesAt: w.ClosesAt}
}

// Check returns a *WindowError when now falls outside the window
func (w Window) Check(now time.Time) error {
	if now.Before(w.OpensAt) {
		return &WindowError{Kind: ErrWindowNotOpen, Boundary: w.OpensAt}
	}
	return w.CheckDeadline(now)
}

// CheckDeadline only enforces the closing boundary
func (w Window) CheckDeadline(t time.Time) error {
	if t.After(w.ClosesAt) {
		return &WindowError{Kind: ErrWindowClosed, Boundary: w.ClosesAt}
	}
	return nil
}

// Option configures the core components
type Option func(*options)

type options struct {
	now func() time.Time
}

// WithClock replaces time.Now, mainly for tests
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

func applyOptions(opts []Option) options {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
