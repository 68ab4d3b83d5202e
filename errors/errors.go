package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// AppError is the unified framegraph error type.
type AppError struct {
	// Code is a machine-readable error code.
	Code ErrorCode `json:"code"`
	// Message is a human-readable error message.
	Message string `json:"message"`
	// Recoverable indicates the frame may continue past this error.
	Recoverable bool `json:"recoverable"`
	// HTTPStatus is the status the debug surface answers with.
	HTTPStatus int `json:"-"`
	// Details contains additional context for the error.
	Details map[string]any `json:"details,omitempty"`
	// Cause is the underlying error that caused this error.
	Cause error `json:"-"`
}

// Error returns the string representation of the error.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause of the error.
func (e *AppError) Unwrap() error { return e.Cause }

// Is matches another *AppError with the same code, so callers can write
// errors.Is(err, &AppError{Code: ErrCodeUnboundInput}).
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// WithCause sets the underlying cause of the error and returns the receiver.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithDetail sets a single detail key-value pair and returns the receiver.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// New creates a new AppError with automatic recoverable detection.
func New(code ErrorCode, message string, httpStatus int) *AppError {
	return &AppError{
		Code:        code,
		Message:     message,
		HTTPStatus:  httpStatus,
		Recoverable: IsRecoverableCode(code),
	}
}

// --- Wiring errors ---

// UnboundInput reports a child input bound to a slot nobody in scope produces.
func UnboundInput(node, slot string) *AppError {
	return &AppError{
		Code:       ErrCodeUnboundInput,
		Message:    fmt.Sprintf("node %q binds slot %q which is not produced by an earlier sibling or the task input", node, slot),
		HTTPStatus: http.StatusUnprocessableEntity,
		Details:    map[string]any{"node": node, "slot": slot},
	}
}

// TypeMismatch reports a slot read or bound with the wrong static type.
func TypeMismatch(slot, want, got string) *AppError {
	return &AppError{
		Code:       ErrCodeTypeMismatch,
		Message:    fmt.Sprintf("slot %q holds %s, accessed as %s", slot, got, want),
		HTTPStatus: http.StatusUnprocessableEntity,
		Details:    map[string]any{"slot": slot, "want": want, "got": got},
	}
}

// ReadOnlySlot reports a write to a derived slot view.
func ReadOnlySlot(slot string) *AppError {
	return &AppError{
		Code:       ErrCodeReadOnlySlot,
		Message:    fmt.Sprintf("slot %q is a derived view and cannot be written", slot),
		HTTPStatus: http.StatusUnprocessableEntity,
		Details:    map[string]any{"slot": slot},
	}
}

// AlreadyBuilt reports reuse of a builder or a task after it was built or bound.
func AlreadyBuilt(name string) *AppError {
	return &AppError{
		Code:       ErrCodeAlreadyBuilt,
		Message:    fmt.Sprintf("%q is already built", name),
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"name": name},
	}
}

// DuplicateNode reports two children of one task sharing a name.
func DuplicateNode(task, name string) *AppError {
	return &AppError{
		Code:       ErrCodeDuplicateNode,
		Message:    fmt.Sprintf("task %q already has a child named %q", task, name),
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"task": task, "node": name},
	}
}

// InvalidGraph reports any other malformed composition.
func InvalidGraph(task, reason string) *AppError {
	return &AppError{
		Code:       ErrCodeInvalidGraph,
		Message:    fmt.Sprintf("task %q: %s", task, reason),
		HTTPStatus: http.StatusUnprocessableEntity,
		Details:    map[string]any{"task": task},
	}
}

// --- Frame-time errors ---

// NotPermitted reports a node using a capability it was not granted.
func NotPermitted(node, action string) *AppError {
	return &AppError{
		Code:        ErrCodeNotPermitted,
		Message:     fmt.Sprintf("node %q is not permitted to %s", node, action),
		HTTPStatus:  http.StatusForbidden,
		Recoverable: true,
		Details:     map[string]any{"node": node, "action": action},
	}
}

// ResourceMissing reports a frame resource a job needs but cannot get.
func ResourceMissing(resource string) *AppError {
	return &AppError{
		Code:        ErrCodeResourceMissing,
		Message:     fmt.Sprintf("resource %q is unavailable this frame", resource),
		HTTPStatus:  http.StatusServiceUnavailable,
		Recoverable: true,
		Details:     map[string]any{"resource": resource},
	}
}

// JobPanic wraps a recovered panic value raised inside a job.
func JobPanic(node string, value any) *AppError {
	return &AppError{
		Code:        ErrCodeJobPanic,
		Message:     fmt.Sprintf("node %q panicked: %v", node, value),
		HTTPStatus:  http.StatusInternalServerError,
		Recoverable: true,
		Details:     map[string]any{"node": node},
	}
}

// --- Configuration errors ---

// ConfigNotFound reports a configuration path with no node behind it.
func ConfigNotFound(path string) *AppError {
	return &AppError{
		Code:       ErrCodeConfigNotFound,
		Message:    fmt.Sprintf("no node at configuration path %q", path),
		HTTPStatus: http.StatusNotFound,
		Details:    map[string]any{"path": path},
	}
}

// InvalidConfig reports an override that does not fit a node's parameters.
func InvalidConfig(path, reason string) *AppError {
	return &AppError{
		Code:       ErrCodeInvalidConfig,
		Message:    fmt.Sprintf("invalid configuration for %q: %s", path, reason),
		HTTPStatus: http.StatusBadRequest,
		Details:    map[string]any{"path": path},
	}
}

// Validation creates an InvalidConfig error with a free-form message.
func Validation(message string) *AppError {
	return &AppError{
		Code:       ErrCodeInvalidConfig,
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
	}
}

// ProfileNotFound reports an override profile that could not be loaded.
func ProfileNotFound(name string) *AppError {
	return &AppError{
		Code:       ErrCodeProfileNotFound,
		Message:    fmt.Sprintf("override profile %q not found", name),
		HTTPStatus: http.StatusNotFound,
		Details:    map[string]any{"profile": name},
	}
}

// --- Surface errors ---

// Unauthorized creates a new AppError for unauthorized access.
func Unauthorized(reason string) *AppError {
	if reason == "" {
		reason = "Authentication required."
	}
	return &AppError{
		Code:       ErrCodeUnauthorized,
		Message:    reason,
		HTTPStatus: http.StatusUnauthorized,
	}
}

// Internal creates a new AppError for an unexpected failure.
func Internal(cause error) *AppError {
	return &AppError{
		Code:       ErrCodeInternal,
		Message:    "An unexpected error occurred.",
		HTTPStatus: http.StatusInternalServerError,
		Cause:      cause,
	}
}

// IsCode reports whether err, or any error in its tree, is an AppError with code.
func IsCode(err error, code ErrorCode) bool {
	return stderrors.Is(err, &AppError{Code: code})
}

// Wrap converts any error into an AppError, passing AppErrors through.
func Wrap(err error) *AppError {
	if err == nil {
		return nil
	}
	if appErr, ok := AsAppError(err); ok {
		return appErr
	}
	return Internal(err)
}

// IsAppError checks if an error is an AppError.
func IsAppError(err error) bool {
	var appErr *AppError
	return stderrors.As(err, &appErr)
}

// AsAppError converts an error to an AppError if possible.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}
