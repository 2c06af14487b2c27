package core

// User errors are reported and forgotten.  Missing-state errors are
// legitimate empty results.  Unrecoverable errors stop scripts and
// walks.

import (
	"errors"
	"fmt"
	"strconv"
)

var (
	// NoSelection occurs when a command needs a selected page
	// and the pointer has none.
	NoSelection = &Missing{What: "no page selected"}

	// NoSearch occurs when a command needs the last search
	// results and there are none.
	NoSearch = &Missing{What: "no search results"}

	// NoStats occurs when the selected page hasn't been analyzed.
	NoStats = &Missing{What: "page has no analysis"}

	// NoCandidates occurs when a similarity search has nothing
	// to compare against.
	NoCandidates = &Missing{What: "nothing to compare"}

	// EmptyStack occurs when popping from an empty stack.
	EmptyStack = &Missing{What: "stack is empty"}
)

// Missing is a missing-state condition.  Callers usually treat it as
// an empty result rather than a failure.
type Missing struct {
	What string
}

func (e *Missing) Error() string {
	return e.What
}

// IsMissing reports whether err is (or wraps) a Missing.
func IsMissing(err error) bool {
	var m *Missing
	return errors.As(err, &m)
}

// UserError is a problem with what the user typed.
type UserError struct {
	Msg string
}

func (e *UserError) Error() string {
	return e.Msg
}

// UsageError occurs when a command's arguments are malformed.
type UsageError struct {
	Command string
	Usage   string
}

func (e *UsageError) Error() string {
	return `usage: ` + e.Usage
}

// IndexError occurs when an index is out of range.
type IndexError struct {
	What  string
	Index int
	Len   int
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("%s index %d out of range (%d available)", e.What, e.Index, e.Len)
}

// IsUserError reports whether err is (or wraps) one of the user
// error types.
func IsUserError(err error) bool {
	var (
		u *UserError
		s *UsageError
		i *IndexError
	)
	return errors.As(err, &u) || errors.As(err, &s) || errors.As(err, &i)
}

// Unrecoverable wraps an error that should stop a script or a walk.
type Unrecoverable struct {
	Err error
}

func (e *Unrecoverable) Error() string {
	return "unrecoverable: " + e.Err.Error()
}

func (e *Unrecoverable) Unwrap() error {
	return e.Err
}

// IsUnrecoverable reports whether err is (or wraps) an Unrecoverable.
func IsUnrecoverable(err error) bool {
	var u *Unrecoverable
	return errors.As(err, &u)
}

// InvariantViolation reports a dangling title in the navigation
// state.  Seeing one is a bug.
type InvariantViolation struct {
	What  string
	Title string
}

func (e *InvariantViolation) Error() string {
	return e.What + ` refers to unknown page "` + e.Title + `"`
}

// ParseIndex parses a non-negative index argument.
func ParseIndex(what, s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, &UserError{Msg: fmt.Sprintf("bad %s index %q", what, s)}
	}
	return n, nil
}
