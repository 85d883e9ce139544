// Package errors provides the structured error type shared by every sttkit
// package. Errors carry a machine-readable code, an HTTP status hint and a
// retryable flag, and render to an RFC 7807 style body for the HTTP surface.
package errors
