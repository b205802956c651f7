// Package metrics provides build metrics for the asset bundler.
//
// Components receive a Recorder through dependency injection and default to
// NoopRecorder, so metrics collection never needs nil checks at call sites:
//
//	b := bundle.New(contents, bundle.WithRecorder(metrics.NoopRecorder{}))
//
// When a textfile path is configured the CLI swaps in a PrometheusRecorder
// backed by its own registry and writes the registry with WriteTextfile after
// each build pass, suitable for node_exporter's textfile collector.
package metrics
