package database

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrInvalidState denotes an operation attempted on an object in the wrong
// lifecycle state, e.g. reading from a closed reader. This is a caller bug
// and is never auto-recovered.
var ErrInvalidState = errors.New("invalid state")

// ErrInvalidArgument denotes a caller-supplied value that violates an
// operation's precondition, e.g. an out-of-range column index.
var ErrInvalidArgument = errors.New("invalid argument")

// ErrNoResult denotes that executing a query produced no cursor at all.
// Note that an empty-but-valid cursor is not an error.
var ErrNoResult = errors.New("query returned no result")

// ErrInvalidQuery denotes a query whose supplied parameter values do not
// match what its subquery join graph requires.
var ErrInvalidQuery = errors.New("invalid query")

// ErrQueryExecution denotes that the underlying cursor primitive failed
// during execution, movement or value access. The originating driver error
// is carried on the chain and can be recovered with errors.Cause.
var ErrQueryExecution = errors.New("query execution failure")

// IsInvalidStateError checks whether an error is an ErrInvalidState.
func IsInvalidStateError(err error) bool {
	return errors.Is(err, ErrInvalidState)
}

// IsInvalidArgumentError checks whether an error is an ErrInvalidArgument.
func IsInvalidArgumentError(err error) bool {
	return errors.Is(err, ErrInvalidArgument)
}

// IsNoResultError checks whether an error is an ErrNoResult.
func IsNoResultError(err error) bool {
	return errors.Is(err, ErrNoResult)
}

// IsInvalidQueryError checks whether an error is an ErrInvalidQuery.
func IsInvalidQueryError(err error) bool {
	return errors.Is(err, ErrInvalidQuery)
}

// IsQueryExecutionError checks whether an error is an ErrQueryExecution.
func IsQueryExecutionError(err error) bool {
	return errors.Is(err, ErrQueryExecution)
}

// executionError marks a driver failure as an ErrQueryExecution while
// keeping the originating error on the chain.
type executionError struct {
	msg   string
	cause error
}

func (e *executionError) Error() string {
	return fmt.Sprintf("%s: %s: %s", ErrQueryExecution, e.msg, e.cause)
}

func (e *executionError) Unwrap() error { return e.cause }

func (e *executionError) Cause() error { return e.cause }

func (e *executionError) Is(target error) bool { return target == ErrQueryExecution }

// WrapExecutionError wraps a low-level driver error as an ErrQueryExecution,
// annotated with a description of the failed operation. A nil cause returns
// nil.
func WrapExecutionError(cause error, format string, args ...interface{}) error {
	if cause == nil {
		return nil
	}
	return &executionError{msg: fmt.Sprintf(format, args...), cause: cause}
}
