// Package metrics provides an observability framework for normalize runs.
//
// # Design Philosophy
//
// This package implements the Null Object pattern to enable metrics collection
// without requiring explicit nil checks throughout the codebase. By default,
// all components use NoopRecorder which implements the Recorder interface with
// no-op methods.
//
// # Usage Pattern
//
// Components receive a Recorder through dependency injection:
//
//	exec := bringup.New(bringup.Options{Recorder: metrics.NoopRecorder{}})
//
// # Activation
//
// The daemon serves a Prometheus registry on /metrics; one-shot commands write
// the same registry to a node-exporter textfile when metrics.textfile is set:
//
//	reg := prom.NewRegistry()
//	recorder := metrics.NewPrometheusRecorder(reg)
//	defer metrics.WriteTextfile(reg, cfg.Metrics.Textfile)
package metrics
