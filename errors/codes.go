package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Build-time wiring errors (never recoverable).
const (
	// ErrCodeUnboundInput indicates a child input with no producer in scope.
	ErrCodeUnboundInput ErrorCode = "UNBOUND_INPUT"
	// ErrCodeTypeMismatch indicates a slot accessed with a type other than its creation type.
	ErrCodeTypeMismatch ErrorCode = "TYPE_MISMATCH"
	// ErrCodeReadOnlySlot indicates a write to a derived slot view.
	ErrCodeReadOnlySlot ErrorCode = "READ_ONLY_SLOT"
	// ErrCodeAlreadyBuilt indicates a builder or task reused after Build.
	ErrCodeAlreadyBuilt ErrorCode = "ALREADY_BUILT"
	// ErrCodeDuplicateNode indicates two siblings sharing a name.
	ErrCodeDuplicateNode ErrorCode = "DUPLICATE_NODE"
	// ErrCodeInvalidGraph indicates any other malformed composition.
	ErrCodeInvalidGraph ErrorCode = "INVALID_GRAPH"
)

// Frame-time errors (recoverable).
const (
	// ErrCodeNotPermitted indicates a node used a capability it was not granted.
	ErrCodeNotPermitted ErrorCode = "NOT_PERMITTED"
	// ErrCodeResourceMissing indicates a required frame resource is unavailable.
	ErrCodeResourceMissing ErrorCode = "RESOURCE_MISSING"
	// ErrCodeJobPanic indicates a job panicked and was contained.
	ErrCodeJobPanic ErrorCode = "JOB_PANIC"
)

// Configuration errors
const (
	// ErrCodeConfigNotFound indicates no node lives at a configuration path.
	ErrCodeConfigNotFound ErrorCode = "CONFIG_NOT_FOUND"
	// ErrCodeInvalidConfig indicates an override that does not fit the node's parameters.
	ErrCodeInvalidConfig ErrorCode = "INVALID_CONFIG"
	// ErrCodeProfileNotFound indicates an override profile could not be loaded.
	ErrCodeProfileNotFound ErrorCode = "PROFILE_NOT_FOUND"
)

// Surface errors
const (
	// ErrCodeUnauthorized indicates the request is unauthorized.
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"
	// ErrCodeInternal indicates an internal error.
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

var recoverableCodes = map[ErrorCode]bool{
	ErrCodeNotPermitted:    true,
	ErrCodeResourceMissing: true,
	ErrCodeJobPanic:        true,
}

// IsRecoverableCode reports whether errors with this code may be absorbed
// by the frame that raised them.
func IsRecoverableCode(code ErrorCode) bool {
	return recoverableCodes[code]
}
