package core

import (
	"context"
	"encoding/json"
)

var (
	// StridesInitialCap is the initial capacity for a Walked's
	// Strides.
	StridesInitialCap = 16

	// DefaultControl will be used by walks when the given
	// control is nil.
	DefaultControl = &Control{
		Limit: 100,
	}
)

// StopReason represents the possible reasons for a walk to terminate.
type StopReason int

const (
	Done              StopReason = iota // Took every requested step.
	Limited                             // Too many steps.
	Aborted                             // A step failed unrecoverably.
	BreakpointReached                   // A Breakpoint said so.
)

func (r StopReason) String() string {
	switch r {
	case Done:
		return "done"
	case Limited:
		return "limited"
	case Aborted:
		return "aborted"
	case BreakpointReached:
		return "breakpoint"
	default:
		return "unknown"
	}
}

func (r StopReason) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.String())
}

// Breakpoint is a Pointer predicate.
//
// When a Breakpoint returns true after a step, the walk stops.
type Breakpoint func(context.Context, *Pointer) bool

// Control influences how a walk operates.
type Control struct {
	// Limit is the maximum number of steps that a walk can take.
	Limit       int
	Breakpoints map[string]Breakpoint
}

func (c *Control) Copy() *Control {
	bs := make(map[string]Breakpoint, len(c.Breakpoints))
	for id, b := range c.Breakpoints {
		bs[id] = b
	}
	return &Control{
		Limit:       c.Limit,
		Breakpoints: bs,
	}
}

// Stride represents a step that a walk has taken or attempted.
type Stride struct {
	// From is the selection before the step.
	From string `json:"from,omitempty"`

	// To is the selection after the step.
	To string `json:"to,omitempty"`

	// Commands are the command lines the step executed.
	Commands []string `json:"commands,omitempty"`

	// Error is the reason the step didn't move, if it didn't.
	Error string `json:"error,omitempty"`
}

// Moved reports whether the step changed the selection.
func (s *Stride) Moved() bool {
	return s.Error == "" && s.From != s.To
}

// Walked represents a sequence of strides.
type Walked struct {
	Strides        []*Stride  `json:"strides"`
	StoppedBecause StopReason `json:"stoppedBecause"`
	Error          error      `json:"-"`
}

// NewWalked makes an empty Walked.
func NewWalked() *Walked {
	return &Walked{
		Strides: make([]*Stride, 0, StridesInitialCap),
	}
}

// Add records a stride.
func (w *Walked) Add(s *Stride) {
	w.Strides = append(w.Strides, s)
}

// To returns the last selection reached, if any.
func (w *Walked) To() string {
	for i := len(w.Strides) - 1; 0 <= i; i-- {
		if s := w.Strides[i]; s.To != "" {
			return s.To
		}
	}
	return ""
}

// Path returns the distinct selections reached in order.
func (w *Walked) Path() []string {
	acc := make([]string, 0, len(w.Strides))
	for _, s := range w.Strides {
		if s.To == "" {
			continue
		}
		if n := len(acc); 0 < n && acc[n-1] == s.To {
			continue
		}
		acc = append(acc, s.To)
	}
	return acc
}
