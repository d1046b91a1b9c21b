// Package errors provides foundational, type-safe error primitives used across normalize.
//
// This package contains classified error types and helpers for robust error handling,
// including a fluent builder API for constructing ClassifiedError values with context.
//
// Key features:
//   - ErrorCategory: Broad error classification (manifest, bringup, test, discovery, etc.)
//   - ErrorSeverity: Impact level (fatal, error, warning, info)
//   - ClassifiedError: Structured error with category, severity, and context
//   - ErrorBuilder: Fluent API for creating classified errors
//   - CLI adapter for exit codes and verbatim output of failing steps
//
// Example usage:
//
//	err := errors.BringupError("step failed").
//		WithContext("module", "tool.py").
//		WithContext(errors.ContextOutput, captured).
//		WithCause(exitErr).
//		Build()
package errors
