package shared

import (
	"errors"
	"fmt"
)

// ErrNotFound indicates a document that does not exist.
var ErrNotFound = errors.New("not found")

// ErrVersionConflict indicates a concurrent update detected by the optimistic
// version check in the storage layer.
var ErrVersionConflict = errors.New("version conflict")

// ValidationError reports malformed or missing input. The caller corrects the
// input and retries.
type ValidationError struct {
	Document string
	Field    string
	Reason   string
}

func (e *ValidationError) Error() string {
	if e.Document != "" {
		return fmt.Sprintf("%s: invalid %s: %s", e.Document, e.Field, e.Reason)
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// InvalidStateError reports a mutation attempted outside the document's
// editable state set.
type InvalidStateError struct {
	Document  string
	State     string
	Operation string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("%s: cannot %s in state %s", e.Document, e.Operation, e.State)
}

// InvalidTransitionError reports a target state unreachable from the current
// one.
type InvalidTransitionError struct {
	Document string
	From     string
	To       string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("%s: transition %s -> %s is not allowed", e.Document, e.From, e.To)
}

// PreconditionError reports a derivation attempted from a source document that
// is not in the required upstream state.
type PreconditionError struct {
	Document string
	State    string
	Required string
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("%s: must be in state %s to derive from, current state is %s", e.Document, e.Required, e.State)
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

// IsInvalidState reports whether err is an InvalidStateError.
func IsInvalidState(err error) bool {
	var target *InvalidStateError
	return errors.As(err, &target)
}

// IsInvalidTransition reports whether err is an InvalidTransitionError.
func IsInvalidTransition(err error) bool {
	var target *InvalidTransitionError
	return errors.As(err, &target)
}

// IsPrecondition reports whether err is a PreconditionError.
func IsPrecondition(err error) bool {
	var target *PreconditionError
	return errors.As(err, &target)
}
