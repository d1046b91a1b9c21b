package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyRunID      = "run_id"
	KeyTarget     = "target"
	KeyModule     = "module"
	KeyNamespace  = "namespace"
	KeyStage      = "stage"
	KeyStep       = "step"
	KeyExample    = "example"
	KeyOutcome    = "outcome"
	KeyDurationMS = "duration_ms"
	KeyPath       = "path"
	KeyFile       = "file"
	KeyRevision   = "revision"
	KeyProvider   = "provider"
	KeyModel      = "model"
	KeyAttempt    = "attempt"
	KeyBytes      = "bytes"
	KeyCount      = "count"
	KeySubject    = "subject"
	KeyURL        = "url"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func RunID(id string) slog.Attr       { return slog.String(KeyRunID, id) }
func Target(t string) slog.Attr       { return slog.String(KeyTarget, t) }
func Module(m string) slog.Attr       { return slog.String(KeyModule, m) }
func Namespace(ns string) slog.Attr   { return slog.String(KeyNamespace, ns) }
func Stage(name string) slog.Attr     { return slog.String(KeyStage, name) }
func Step(cmd string) slog.Attr       { return slog.String(KeyStep, cmd) }
func Example(n int) slog.Attr         { return slog.Int(KeyExample, n) }
func Outcome(o string) slog.Attr      { return slog.String(KeyOutcome, o) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func File(f string) slog.Attr         { return slog.String(KeyFile, f) }
func Revision(r string) slog.Attr     { return slog.String(KeyRevision, r) }
func Provider(p string) slog.Attr     { return slog.String(KeyProvider, p) }
func Model(m string) slog.Attr        { return slog.String(KeyModel, m) }
func Attempt(n int) slog.Attr         { return slog.Int(KeyAttempt, n) }
func Bytes(n int) slog.Attr           { return slog.Int(KeyBytes, n) }
func Count(n int) slog.Attr           { return slog.Int(KeyCount, n) }
func Subject(s string) slog.Attr      { return slog.String(KeySubject, s) }
func URL(u string) slog.Attr          { return slog.String(KeyURL, u) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
