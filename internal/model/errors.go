package model

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Sentinel errors for the validation family.
// Use errors.Is to check: errors.Is(err, model.ErrValidation) matches every
// validation failure, including the state-transition and snapshot-ordering
// specializations below.
var (
	ErrValidation         = errors.New("hibiki: validation failed")
	ErrInvalidTransition  = errors.New("hibiki: invalid state transition")
	ErrOutOfOrderSnapshot = errors.New("hibiki: health snapshot out of order")
)

// ValidationError reports an out-of-range or malformed input.
// Operations that return it have no side effects.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("hibiki: invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// Invalidf builds a ValidationError with a formatted reason.
func Invalidf(field, format string, args ...any) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// InvalidStateTransitionError reports an illegal time-block status change.
type InvalidStateTransitionError struct {
	BlockID uuid.UUID
	From    BlockStatus
	To      BlockStatus
}

func (e *InvalidStateTransitionError) Error() string {
	return fmt.Sprintf("hibiki: block %s: illegal transition %s -> %s", e.BlockID, e.From, e.To)
}

func (e *InvalidStateTransitionError) Unwrap() []error {
	return []error{ErrValidation, ErrInvalidTransition}
}

// OutOfOrderSnapshotError reports a health snapshot whose timestamp is not
// after the pillar's latest recorded snapshot.
type OutOfOrderSnapshotError struct {
	PillarID string
}

func (e *OutOfOrderSnapshotError) Error() string {
	return fmt.Sprintf("hibiki: pillar %s: health snapshot timestamp precedes history tail", e.PillarID)
}

func (e *OutOfOrderSnapshotError) Unwrap() []error {
	return []error{ErrValidation, ErrOutOfOrderSnapshot}
}
