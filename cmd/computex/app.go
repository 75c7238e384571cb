package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/haasonsaas/computex/internal/agent"
	"github.com/haasonsaas/computex/internal/computeruse"
	"github.com/haasonsaas/computex/internal/config"
	"github.com/haasonsaas/computex/internal/observability"
)

// app bundles the runtime wired from configuration.
type app struct {
	cfg        *config.Config
	configPath string

	logger   *observability.Logger
	registry *prometheus.Registry
	metrics  *observability.Metrics
	tracer   *observability.Tracer
	events   *observability.MemoryEventStore
	recorder *observability.EventRecorder

	dispatcher *computeruse.Dispatcher
	tools      *agent.ToolRegistry

	shutdown func(context.Context) error
}

// loadConfig resolves the configuration file and applies flag overrides.
func loadConfig(opts *rootOptions) (*config.Config, string, error) {
	cfg, path, err := config.LoadResolved(opts.configPath)
	if err != nil {
		return nil, path, fmt.Errorf("failed to load config: %w", err)
	}
	switch {
	case opts.gui:
		enabled := true
		cfg.ComputerUse.Enabled = &enabled
	case opts.headless:
		enabled := false
		cfg.ComputerUse.Enabled = &enabled
	}
	if opts.logLevel != "" {
		cfg.Logging.Level = opts.logLevel
	}
	if opts.logFormat != "" {
		cfg.Logging.Format = opts.logFormat
	}
	return cfg, path, nil
}

// newApp loads configuration and wires logging, metrics, tracing and the
// dispatcher. Logs go to logOut.
func newApp(opts *rootOptions, logOut io.Writer) (*app, error) {
	cfg, path, err := loadConfig(opts)
	if err != nil {
		return nil, err
	}

	logger := observability.NewLogger(observability.LogConfig{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: logOut,
	})
	slog.SetDefault(logger.Slog())

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := observability.NewMetrics(registry)

	tracing := cfg.Observability.Tracing
	tracer, shutdown := observability.NewTracer(observability.TraceConfig{
		ServiceName:    tracing.ServiceName,
		ServiceVersion: firstNonEmpty(tracing.ServiceVersion, version),
		Endpoint:       tracing.Endpoint,
		SamplingRate:   tracing.SamplingRate,
		Attributes:     tracing.Attributes,
		EnableInsecure: tracing.Insecure,
	})

	events := observability.NewMemoryEventStore(0)
	recorder := observability.NewEventRecorder(events, logger)

	cu := cfg.ComputerUse
	dispatcher := computeruse.NewDispatcher(
		computeruse.WithEnabled(cu.GUIEnabled()),
		computeruse.WithLocator(computeruse.NewPathLocator(cu.ToolOverrides())),
		computeruse.WithRunner(computeruse.NewExecRunner(cu.Timeout())),
		computeruse.WithDisplayCheck(computeruse.DisplayCheck{EnvVar: cu.DisplayEnv}),
		computeruse.WithGuard(computeruse.NewComboGuard(cu.ExtraDestructiveCombos...)),
		computeruse.WithScreenshotPath(cu.Screenshot.Dir, cu.Screenshot.Prefix),
		computeruse.WithLogger(logger),
		computeruse.WithMetrics(metrics),
		computeruse.WithTracer(tracer),
		computeruse.WithEventRecorder(recorder),
	)

	tools := agent.NewToolRegistry()
	tools.Register(computeruse.Tools(dispatcher)...)

	if path != "" {
		logger.Debug(context.Background(), "configuration loaded", "path", path)
	}

	return &app{
		cfg:        cfg,
		configPath: path,
		logger:     logger,
		registry:   registry,
		metrics:    metrics,
		tracer:     tracer,
		events:     events,
		recorder:   recorder,
		dispatcher: dispatcher,
		tools:      tools,
		shutdown:   shutdown,
	}, nil
}

func (a *app) close(ctx context.Context) {
	if a.shutdown == nil {
		return
	}
	if err := a.shutdown(ctx); err != nil {
		a.logger.Warn(ctx, "tracer shutdown failed", "error", err)
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
