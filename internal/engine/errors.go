package engine

import (
	"errors"
	"fmt"

	"github.com/roach88/teamsplit/internal/ir"
)

// ErrorCode categorizes engine errors.
type ErrorCode string

const (
	// ErrCodeInternal indicates an unexpected failure inside a reducer or stage.
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"

	// ErrCodePanic indicates a recovered panic inside a reducer or stage.
	ErrCodePanic ErrorCode = "PANIC"

	// ErrCodeInvariant indicates a state invariant did not hold after dispatch.
	ErrCodeInvariant ErrorCode = "INVARIANT_VIOLATION"
)

// InternalError is a contained failure. It never crosses Dispatch; it is
// logged and carried as the detail of an INTERNAL_ERROR action.
type InternalError struct {
	Code   ErrorCode
	Action ir.ActionType
	Detail string
	Cause  error
}

// Error implements the error interface.
func (e *InternalError) Error() string {
	return fmt.Sprintf("%s: %s (action=%s)", e.Code, e.Detail, e.Action)
}

// Unwrap returns the underlying cause, if any.
func (e *InternalError) Unwrap() error {
	return e.Cause
}

// Invariant names reported by CheckInvariants.
const (
	InvariantTotalPositive  = "total_confirmed_positive"
	InvariantMembersInTotal = "members_within_total"
	InvariantTeamCountRange = "team_count_in_range"
	InvariantUniqueMembers  = "unique_members"
	InvariantTeamsCoverage  = "teams_cover_roster"
)

// InvariantViolation describes one invariant that failed on a state.
type InvariantViolation struct {
	Invariant string
	Message   string
}

// Error implements the error interface.
func (v InvariantViolation) Error() string {
	return fmt.Sprintf("%s: %s: %s", ErrCodeInvariant, v.Invariant, v.Message)
}

// IsValidationError reports whether err is (or wraps) an ir.ValidationError.
func IsValidationError(err error) bool {
	var ve ir.ValidationError
	return errors.As(err, &ve)
}

// newPanicError wraps a recovered panic value.
func newPanicError(action ir.ActionType, recovered any) *InternalError {
	err, _ := recovered.(error)
	return &InternalError{
		Code:   ErrCodePanic,
		Action: action,
		Detail: fmt.Sprintf("panic: %v", recovered),
		Cause:  err,
	}
}
