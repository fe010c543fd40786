package engine

import (
	"errors"
	"fmt"

	"questforge/apcore/pkg/state"
)

// Common sentinel errors.
var (
	// ErrInvalidConfig indicates invalid engine configuration.
	ErrInvalidConfig = errors.New("invalid engine configuration")

	// ErrQueueFull indicates the candidate queue cannot accept more
	// submissions before the next tick drains it.
	ErrQueueFull = errors.New("candidate queue full")

	// ErrUnknownRule indicates a rule id that is not registered.
	ErrUnknownRule = errors.New("unknown rule")
)

// RegistrationError indicates a rule could not be registered. Registration
// is all-or-nothing: a failed registration leaves the table untouched.
type RegistrationError struct {
	RuleID  string
	Message string
	Cause   error
}

// Error returns the error message.
func (e *RegistrationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("rule %s: registration failed: %s: %v", e.RuleID, e.Message, e.Cause)
	}
	return fmt.Sprintf("rule %s: registration failed: %s", e.RuleID, e.Message)
}

// Unwrap returns the underlying cause.
func (e *RegistrationError) Unwrap() error { return e.Cause }

// FootprintError indicates a declared read/write set is narrower than the
// computed one, which would silently mask a real conflict.
type FootprintError struct {
	RuleID  string
	Kind    string // "read" or "write"
	Missing []state.Path
}

// Error returns the error message.
func (e *FootprintError) Error() string {
	return fmt.Sprintf("rule %s: declared %s_set is missing computed paths %v", e.RuleID, e.Kind, e.Missing)
}

// ValidationFailureError indicates the post-effect snapshot violated a
// declared invariant and the whole tick was rolled back.
type ValidationFailureError struct {
	Tick       uint64
	Violations []Violation
}

// Error returns the error message.
func (e *ValidationFailureError) Error() string {
	if len(e.Violations) == 1 {
		return fmt.Sprintf("tick %d rolled back: %s", e.Tick, e.Violations[0].Message)
	}
	return fmt.Sprintf("tick %d rolled back: %d invariant violations", e.Tick, len(e.Violations))
}

// ReloadError indicates a rule-set reload failure; the previous table
// stays in effect.
type ReloadError struct {
	Source string
	Cause  error
}

// Error returns the error message.
func (e *ReloadError) Error() string {
	return fmt.Sprintf("rule reload failed from %q: %v", e.Source, e.Cause)
}

// Unwrap returns the underlying cause.
func (e *ReloadError) Unwrap() error { return e.Cause }

// CommitError indicates the event log rejected the tick's events; the
// tick was rolled back to preserve replay equivalence.
type CommitError struct {
	Tick  uint64
	Cause error
}

// Error returns the error message.
func (e *CommitError) Error() string {
	return fmt.Sprintf("tick %d: event log append failed, tick rolled back: %v", e.Tick, e.Cause)
}

// Unwrap returns the underlying cause.
func (e *CommitError) Unwrap() error { return e.Cause }
