package errors

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestCLIErrorAdapter_ExitCodeFor(t *testing.T) {
	adapter := NewCLIErrorAdapter(false, slog.Default())

	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{name: "nil error", err: nil, expected: 0},
		{name: "validation error", err: ValidationError("invalid input").Build(), expected: 2},
		{name: "config error", err: ConfigError("bad config").Build(), expected: 7},
		{name: "collaborator error", err: CollaboratorError("installer missing").Build(), expected: 8},
		{name: "manifest error", err: ManifestError("bare prompt").Build(), expected: 9},
		{name: "bringup error", err: BringupError("step failed").Build(), expected: 11},
		{name: "test error", err: TestError("example failed").Build(), expected: 13},
		{name: "internal error", err: InternalError("boom").Build(), expected: 10},
		{name: "unclassified error", err: &customError{msg: "unknown error"}, expected: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := adapter.ExitCodeFor(tt.err)
			if got != tt.expected {
				t.Errorf("ExitCodeFor() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestCLIErrorAdapter_FormatError(t *testing.T) {
	adapter := NewCLIErrorAdapter(false, slog.Default())

	tests := []struct {
		name     string
		err      error
		contains []string
	}{
		{
			name:     "internal error in non-verbose mode",
			err:      InternalError("internal issue").Build(),
			contains: []string{"Internal error occurred (use -v for details)"},
		},
		{
			name:     "config error",
			err:      ConfigError("bad config").Build(),
			contains: []string{"Error: bad config"},
		},
		{
			name: "bringup error prints captured output verbatim",
			err: BringupError("step failed").
				WithContext(ContextOutput, "ERROR: No matching distribution found for nosuchpkg").
				Build(),
			contains: []string{"ERROR: No matching distribution found for nosuchpkg\n", "Error: step failed"},
		},
		{
			name:     "unclassified error",
			err:      &customError{msg: "unknown error"},
			contains: []string{"Error: unknown error"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := adapter.FormatError(tt.err)
			for _, want := range tt.contains {
				if !strings.Contains(got, want) {
					t.Errorf("FormatError() = %q, want to contain %q", got, want)
				}
			}
		})
	}

	if got := adapter.FormatError(nil); got != "" {
		t.Errorf("FormatError(nil) = %q, want empty string", got)
	}
}

func TestCLIErrorAdapter_Report(t *testing.T) {
	var out bytes.Buffer
	adapter := NewCLIErrorAdapter(true, slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))).WithOutput(&out)

	code := adapter.Report(TestError("example failed").WithContext(ContextOutput, "mismatch\n").Build())
	if code != 13 {
		t.Errorf("Report() = %d, want 13", code)
	}
	if !strings.HasPrefix(out.String(), "mismatch\n[test:fatal] example failed") {
		t.Errorf("unexpected output %q", out.String())
	}
}

// customError is a test helper for unclassified errors
type customError struct {
	msg string
}

func (e *customError) Error() string {
	return e.msg
}
