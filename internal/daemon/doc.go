// Package daemon keeps a project tree tested: it re-runs the test goal when
// files change and on a fixed interval, and serves metrics and the last run
// status over HTTP.
//
// Runs never overlap. A trigger that arrives while a run is in progress
// queues exactly one follow-up run; further triggers are absorbed by it.
package daemon
