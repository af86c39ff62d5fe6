// Package metrics records generation pipeline metrics.
//
// Components receive a Recorder. NoopRecorder is the default and does
// nothing; PrometheusRecorder registers its collectors on a registry the
// caller owns, which the CLI can dump to a node-exporter textfile.
package metrics
