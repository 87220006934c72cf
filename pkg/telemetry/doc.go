// Package telemetry wires OpenTelemetry exporters and meters for the
// generation service.
//
// It centralises trace provider setup, applies service resource attributes,
// and records workflow execution metrics so operators can correlate engine
// behaviour with API traffic.
package telemetry
