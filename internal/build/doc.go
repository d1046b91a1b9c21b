// Package build is the single execution path for make-like runs: CLI
// commands, the watcher and the daemon all go through Service.
//
// A run discovers the project tree, assembles its build graph with Service as
// the target actions, makes the requested goal and records the outcome in the
// run history, the metrics recorder and the event publisher.
package build
