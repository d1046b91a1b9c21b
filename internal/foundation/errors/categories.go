package errors

import "maps"

// ErrorCategory represents the broad category of an error for classification and routing.
type ErrorCategory string

const (
	// CategoryConfig represents user-facing configuration and input errors.
	CategoryConfig     ErrorCategory = "config"
	CategoryValidation ErrorCategory = "validation"
	CategoryNotFound   ErrorCategory = "not_found"

	// CategoryManifest represents malformed dependency declarations in a module header.
	CategoryManifest ErrorCategory = "manifest"
	// CategoryBringup represents a failing setup step.
	CategoryBringup ErrorCategory = "bringup"
	// CategoryTest represents a failing usage example (mismatch, exit status or timeout).
	CategoryTest ErrorCategory = "test"
	// CategoryDiscovery represents project tree anomalies. Most are treated as absence.
	CategoryDiscovery ErrorCategory = "discovery"

	// CategoryCollaborator represents installer, review service and other external failures.
	CategoryCollaborator ErrorCategory = "collaborator"
	CategoryVCS          ErrorCategory = "vcs"
	CategoryFileSystem   ErrorCategory = "filesystem"

	CategoryRuntime  ErrorCategory = "runtime"
	CategoryInternal ErrorCategory = "internal"
)

// ErrorSeverity indicates the impact level of an error.
type ErrorSeverity string

const (
	SeverityFatal   ErrorSeverity = "fatal"   // Stops execution completely
	SeverityError   ErrorSeverity = "error"   // Fails the current operation
	SeverityWarning ErrorSeverity = "warning" // Continues with degraded functionality
	SeverityInfo    ErrorSeverity = "info"    // Informational, no impact
)

// Well-known context keys.
const (
	// ContextOutput holds the captured output of the failing step or example.
	ContextOutput = "output"
	// ContextOutcome holds the test outcome kind (mismatch, timeout, exit-status).
	ContextOutcome = "outcome"
	ContextTarget  = "target"
	ContextPath    = "path"
)

// ErrorContext provides structured context for errors.
type ErrorContext map[string]any

// Set adds or updates a context value.
func (c ErrorContext) Set(key string, value any) ErrorContext {
	if c == nil {
		c = make(ErrorContext)
	}
	c[key] = value
	return c
}

// Get retrieves a context value.
func (c ErrorContext) Get(key string) (any, bool) {
	if c == nil {
		return nil, false
	}
	value, exists := c[key]
	return value, exists
}

// GetString retrieves a string context value.
func (c ErrorContext) GetString(key string) (string, bool) {
	if value, exists := c.Get(key); exists {
		if str, ok := value.(string); ok {
			return str, true
		}
	}
	return "", false
}

// Merge combines two contexts, with other taking precedence.
func (c ErrorContext) Merge(other ErrorContext) ErrorContext {
	if c == nil {
		return other
	}
	if other == nil {
		return c
	}
	result := make(ErrorContext)
	maps.Copy(result, c)
	maps.Copy(result, other)
	return result
}
