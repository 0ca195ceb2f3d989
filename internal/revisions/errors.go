package revisions

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownOwnerKind  = errors.New("revisions: unknown owner kind")
	ErrOwnerRequired     = errors.New("revisions: owner is required")
	ErrInvalidRevision   = errors.New("revisions: revision must be positive")
	ErrPublishInProgress = errors.New("revisions: publish already in progress")
	ErrGetterInvocation  = errors.New("revisions: getter failed")
)

// GetterInvocationError wraps a failure raised by a registered getter. The
// message is the getter's own message.
type GetterInvocationError struct {
	Getter string
	Key    string
	Err    error
}

func (e *GetterInvocationError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("revisions: getter %q failed for %q", e.Getter, e.Key)
	}
	return e.Err.Error()
}

func (e *GetterInvocationError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrGetterInvocation}
	}
	return []error{ErrGetterInvocation, e.Err}
}

// UnknownKindError names the owner kind that has no registration.
type UnknownKindError struct {
	Kind string
}

func (e *UnknownKindError) Error() string {
	return fmt.Sprintf("revisions: owner kind %q is not registered", e.Kind)
}

func (e *UnknownKindError) Unwrap() error { return ErrUnknownOwnerKind }
