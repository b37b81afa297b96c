// Package otel bridges the engine's internal counters to an OpenTelemetry
// meter. The exporter registers observable counters that poll a metrics
// snapshot on each collection cycle; the engine itself never blocks on the
// metrics pipeline.
package otel
