package logfields

import (
	"log/slog"
	"testing"
)

// TestHelperKeyNames verifies string-based helper key/value stability.
func TestHelperKeyNames(t *testing.T) {
	cases := []struct {
		name    string
		attrKey string
		attrVal string
		attr    slog.Attr
	}{
		{"RunID", KeyRunID, "123", RunID("123")},
		{"Target", KeyTarget, "build/tool.py.tested", Target("build/tool.py.tested")},
		{"Module", KeyModule, "tool.py", Module("tool.py")},
		{"Namespace", KeyNamespace, "sub/", Namespace("sub/")},
		{"Stage", KeyStage, "bringup", Stage("bringup")},
		{"Step", KeyStep, "make", Step("make")},
		{"Outcome", KeyOutcome, "mismatch", Outcome("mismatch")},
		{"Path", KeyPath, "/tmp/x", Path("/tmp/x")},
		{"File", KeyFile, "README.md", File("README.md")},
		{"Revision", KeyRevision, "v1.0", Revision("v1.0")},
		{"Provider", KeyProvider, "openai", Provider("openai")},
		{"Model", KeyModel, "gpt-4o", Model("gpt-4o")},
		{"Subject", KeySubject, "normalize.runs", Subject("normalize.runs")},
		{"URL", KeyURL, "nats://localhost", URL("nats://localhost")},
	}

	for _, tc := range cases {
		if tc.attr.Key != tc.attrKey {
			t.Fatalf("%s: expected key %s, got %s", tc.name, tc.attrKey, tc.attr.Key)
		}
		if got := tc.attr.Value.String(); got != tc.attrVal {
			t.Fatalf("%s: expected value %s, got %v", tc.name, tc.attrVal, got)
		}
	}
}

// TestNumericHelpers verifies keys for numeric & float helpers.
func TestNumericHelpers(t *testing.T) {
	if v := Example(3); v.Key != KeyExample || v.Value.Int64() != 3 {
		t.Fatalf("Example mismatch: %v", v)
	}
	if v := Attempt(2); v.Key != KeyAttempt {
		t.Fatalf("Attempt key mismatch: %s", v.Key)
	}
	if v := Bytes(42); v.Key != KeyBytes {
		t.Fatalf("Bytes key mismatch: %s", v.Key)
	}
	if v := Count(7); v.Key != KeyCount {
		t.Fatalf("Count key mismatch: %s", v.Key)
	}
	if v := DurationMS(12.5); v.Key != KeyDurationMS {
		t.Fatalf("DurationMS key mismatch: %s", v.Key)
	}
}

// TestErrorHelper ensures Error() handles nil and non-nil errors predictably.
func TestErrorHelper(t *testing.T) {
	attr := Error(nil)
	if attr.Key != KeyError {
		t.Fatalf("Error key mismatch: %s", attr.Key)
	}
	if attr.Value.String() != "" {
		t.Fatalf("Expected empty error string, got %s", attr.Value.String())
	}
	attr = Error(errTest{})
	if attr.Value.String() != "err-test" {
		t.Fatalf("Expected 'err-test', got %s", attr.Value.String())
	}
}

type errTest struct{}

func (e errTest) Error() string { return "err-test" }
