// Package observability provides structured logging, Prometheus metrics,
// OpenTelemetry tracing and an in-memory event timeline for computer-use
// action dispatch.
//
// # Logging
//
// Logger wraps slog. Request and call ids stored in the context are added to
// every record, and secrets found in messages or arguments are replaced with
// [REDACTED].
//
//	logger := observability.NewLogger(observability.LogConfig{Level: "debug", Format: "json"})
//	ctx = observability.AddCallID(ctx, "call-1")
//	logger.Info(ctx, "action completed", "action", "computer_click")
//
// # Metrics
//
// Metrics registers its collectors with the registerer passed to NewMetrics,
// so tests can use an isolated prometheus.Registry.
//
//	reg := prometheus.NewRegistry()
//	metrics := observability.NewMetrics(reg)
//	metrics.RecordAction("computer_key", "error", 0.002)
//	metrics.RecordBlockedCombo("ctrl+w")
//
// # Tracing
//
// Each action is a server span named computeruse.<action>; each helper
// invocation is a client span named process.<tool>. With no OTLP endpoint
// configured, spans go to the global provider.
//
// # Events
//
// EventRecorder appends action, process and combo-guard events to an
// EventStore. FormatTimeline renders them for the terminal.
package observability
