// Package errors provides the structured error type used across framegraph.
//
// Errors carry a machine-readable code, a human-readable message and a
// recoverable flag. Wiring errors raised while a task graph is built are
// never recoverable; soft failures raised by jobs at frame time are.
// HTTP status mapping is kept so the debug surface can render them.
package errors
