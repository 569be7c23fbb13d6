// Package observability provides structured logging, Prometheus
// metrics, OpenTelemetry tracing setup, health probes, and graceful
// shutdown helpers for the TalentStats service.
package observability
