package blogengine

import (
	"errors"
	"fmt"
)

// Error codes shared by every query method.
const (
	CodeNotFound     = "not_found"
	CodeInvalidParam = "invalid_param"
	CodeStore        = "store"
	CodeInternal     = "internal"
)

// Error is the uniform failure shape returned by the engine. A failed call
// carries exactly one Error; there are no retries and no partial results.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`

	cause error
}

func (e *Error) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("blogengine: %s: %s (%s)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("blogengine: %s: %s", e.Code, e.Message)
}

// Unwrap exposes the underlying cause for errors.Is / errors.As.
func (e *Error) Unwrap() error {
	return e.cause
}

// Is makes two engine errors with the same code match under errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// ErrNotFound is the sentinel for a missing or non-published post.
var ErrNotFound = &Error{Code: CodeNotFound, Message: "post not found"}

// NotFoundErr returns a not-found error naming the missing resource.
func NotFoundErr(details string) *Error {
	return &Error{Code: CodeNotFound, Message: "post not found", Details: details}
}

// InvalidParamErr reports a rejected caller parameter.
func InvalidParamErr(details string) *Error {
	return &Error{Code: CodeInvalidParam, Message: "invalid parameter", Details: details}
}

// StoreErr wraps a failure from the backing store.
func StoreErr(op string, cause error) *Error {
	return &Error{Code: CodeStore, Message: op + " failed", Details: cause.Error(), cause: cause}
}

// InternalErr wraps an unexpected failure.
func InternalErr(op string, cause error) *Error {
	return &Error{Code: CodeInternal, Message: op + " failed", Details: cause.Error(), cause: cause}
}

// AsError converts any error into the engine's uniform shape. Errors that are
// already *Error pass through unchanged.
func AsError(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return &Error{Code: CodeInternal, Message: "internal error", Details: err.Error(), cause: err}
}
