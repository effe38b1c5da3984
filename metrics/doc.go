// Package metrics counts container events and exposes them in the Prometheus
// text exposition format.
//
// Collector implements types.Metrics, so it can be handed straight to
// cache.WithMetrics. Gather converts the counters into client_model
// MetricFamily values; WriteText and Handler render those with expfmt.
package metrics
