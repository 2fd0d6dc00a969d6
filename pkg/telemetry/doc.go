// Package telemetry provides the observability plumbing for planwheel:
// structured logging via zerolog, Prometheus metrics for the plan engine and
// control surface, and OpenTelemetry tracing for scheduling cycles and
// control commands.
package telemetry
