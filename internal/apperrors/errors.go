package apperrors

import (
	"errors"
	"fmt"
	"time"
)

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrDuplicate indicates that an attempt was made to create a resource that already exists.
var ErrDuplicate = errors.New("resource already exists")

// ErrForbidden indicates that the caller is not allowed to perform the operation.
var ErrForbidden = errors.New("forbidden")

// ErrConflict indicates that the operation conflicts with the current state of the resource.
var ErrConflict = errors.New("conflict")

// ErrInternal indicates an unexpected internal failure.
var ErrInternal = errors.New("internal error")

// AppError carries a status code and a human readable message alongside the
// underlying cause. Callers match on the wrapped sentinel via errors.Is.
type AppError struct {
	Code    int
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError wraps err with a status code and message.
func NewAppError(code int, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

// NewNotFoundError returns an AppError that unwraps to ErrNotFound.
func NewNotFoundError(message string) *AppError {
	return &AppError{Code: 404, Message: message, Err: ErrNotFound}
}

// NewValidationFailedError returns an AppError that unwraps to ErrValidation.
func NewValidationFailedError(message string) *AppError {
	return &AppError{Code: 400, Message: message, Err: ErrValidation}
}

// NewConflictError returns an AppError that unwraps to ErrConflict.
func NewConflictError(message string) *AppError {
	return &AppError{Code: 409, Message: message, Err: ErrConflict}
}

// NewForbiddenError returns an AppError that unwraps to ErrForbidden.
func NewForbiddenError(message string) *AppError {
	return &AppError{Code: 403, Message: message, Err: ErrForbidden}
}

// NewInternalError returns an AppError that unwraps to ErrInternal.
func NewInternalError(message string, err error) *AppError {
	if err == nil {
		err = ErrInternal
	}
	return &AppError{Code: 500, Message: message, Err: err}
}

// LedgerNotDeletableError is returned when a ledger fails the state
// precondition for deletion. The message names the ledger and reports both
// flags so the caller can see which one blocked the delete.
type LedgerNotDeletableError struct {
	LedgerName string
	Posted     bool
	Locked     bool
}

func (e *LedgerNotDeletableError) Error() string {
	return fmt.Sprintf("ledger %q cannot be deleted: posted=%t, locked=%t", e.LedgerName, e.Posted, e.Locked)
}

func (e *LedgerNotDeletableError) Unwrap() error {
	return ErrValidation
}

// ClosedPeriodViolationError is returned when a journal entry timestamp falls
// on or before the owning entity's last closing date.
type ClosedPeriodViolationError struct {
	EntryTimestamp time.Time
	ClosingDate    time.Time
}

func (e *ClosedPeriodViolationError) Error() string {
	return fmt.Sprintf("journal entry dated %s falls within the closed period ending %s",
		e.EntryTimestamp.Format("2006-01-02"), e.ClosingDate.Format("2006-01-02"))
}

func (e *ClosedPeriodViolationError) Unwrap() error {
	return ErrValidation
}
