package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/haasonsaas/computex/internal/agent"
	"github.com/haasonsaas/computex/internal/artifacts"
	"github.com/haasonsaas/computex/internal/computeruse"
	"github.com/haasonsaas/computex/internal/config"
	"github.com/haasonsaas/computex/internal/observability"
)

type serveOptions struct {
	metricsAddr string
	parallel    bool
	timeline    bool
	watch       bool
}

// serveRequest is one line of serve input. Arguments may be a JSON object or
// a string containing one.
type serveRequest struct {
	CallID    string          `json:"call_id"`
	Action    string          `json:"action"`
	Arguments json.RawMessage `json:"arguments"`
}

// serveResponse is one line of serve output.
type serveResponse struct {
	CallID    string           `json:"call_id"`
	Content   string           `json:"content"`
	IsError   bool             `json:"is_error"`
	Artifacts []agent.Artifact `json:"artifacts,omitempty"`
}

// lineWriter serializes JSON lines onto a shared writer.
type lineWriter struct {
	mu  sync.Mutex
	enc *json.Encoder
}

func newLineWriter(w io.Writer) *lineWriter {
	return &lineWriter{enc: json.NewEncoder(w)}
}

func (l *lineWriter) write(v any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	_ = l.enc.Encode(v)
}

// runServe handles the serve command.
func runServe(cmd *cobra.Command, opts *rootOptions, sopts serveOptions) error {
	stderr := cmd.ErrOrStderr()
	a, err := newApp(opts, stderr)
	if err != nil {
		return err
	}

	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	// Create a context that cancels on shutdown signals.
	ctx, cancel := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if sopts.watch {
		if a.configPath == "" {
			a.logger.Warn(ctx, "config watch requested without a config file")
		} else {
			watcher, err := config.NewWatcher(a.configPath, 0,
				func(cfg *config.Config) {
					a.dispatcher.SetGuard(computeruse.NewComboGuard(cfg.ComputerUse.ExtraDestructiveCombos...))
					a.logger.Info(ctx, "destructive combos reloaded",
						"path", a.configPath,
						"extra", len(cfg.ComputerUse.ExtraDestructiveCombos),
					)
				},
				func(err error) { a.logger.Warn(ctx, "config reload failed", "path", a.configPath, "error", err) },
			)
			if err != nil {
				a.close(ctx)
				return err
			}
			defer watcher.Close()
			go watcher.Run(ctx)
		}
	}

	metricsAddr := firstNonEmpty(sopts.metricsAddr, a.cfg.Observability.MetricsAddr)
	var metricsServer *http.Server
	if metricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{}))
		metricsServer = &http.Server{Addr: metricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				a.logger.Error(ctx, "metrics server failed", "addr", metricsAddr, "error", err)
			}
		}()
	}

	shots := a.cfg.ComputerUse.Screenshot
	if shots.MaxAge > 0 {
		pruner := artifacts.NewPruner(shots.Dir, shots.Prefix, shots.MaxAge)
		cleanup := artifacts.NewCleanupService(pruner, shots.CleanupInterval,
			a.logger.WithFields("component", "screenshot_cleanup"))
		cleanup.Prune(ctx)
		go cleanup.Start(ctx)
		defer cleanup.Stop()
	}

	a.logger.Info(ctx, "computex serve started",
		"gui_enabled", a.cfg.ComputerUse.GUIEnabled(),
		"metrics_addr", metricsAddr,
		"parallel", sopts.parallel,
	)

	s := &server{
		app:    a,
		out:    newLineWriter(cmd.OutOrStdout()),
		events: newLineWriter(stderr),
	}
	serveErr := s.serve(ctx, cmd.InOrStdin(), sopts.parallel)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if metricsServer != nil {
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			a.logger.Warn(shutdownCtx, "metrics server shutdown failed", "error", err)
		}
	}
	if sopts.timeline {
		printTimeline(stderr, a.events, "")
	}
	a.close(shutdownCtx)
	a.logger.Info(shutdownCtx, "computex serve stopped")
	return serveErr
}

type server struct {
	app    *app
	out    *lineWriter
	events *lineWriter
}

// maxRequestLine bounds one serve input line. Longer lines are answered with
// an error and skipped.
const maxRequestLine = agent.MaxToolParamsSize + 64*1024

type inputLine struct {
	text    string
	tooLong bool
}

// readRequestLine reads one newline-terminated line from r. Once a line grows
// past limit the rest of it is discarded and tooLong is set.
func readRequestLine(r *bufio.Reader, limit int) (inputLine, error) {
	var (
		buf     []byte
		tooLong bool
		read    bool
	)
	for {
		chunk, isPrefix, err := r.ReadLine()
		if err != nil {
			if read && errors.Is(err, io.EOF) {
				return inputLine{text: string(buf), tooLong: tooLong}, nil
			}
			return inputLine{}, err
		}
		read = true
		if !tooLong {
			if len(buf)+len(chunk) > limit {
				tooLong = true
				buf = nil
			} else {
				buf = append(buf, chunk...)
			}
		}
		if !isPrefix {
			return inputLine{text: string(buf), tooLong: tooLong}, nil
		}
	}
}

// serve reads requests until EOF or cancellation. In parallel mode each
// request runs on its own goroutine; the tool registry still serializes
// mutating actions.
func (s *server) serve(ctx context.Context, in io.Reader, parallel bool) error {
	reader := bufio.NewReaderSize(in, 64*1024)

	lines := make(chan inputLine)
	readErr := make(chan error, 1)
	go func() {
		defer close(lines)
		for {
			line, err := readRequestLine(reader, maxRequestLine)
			if err != nil {
				if !errors.Is(err, io.EOF) {
					readErr <- err
				}
				return
			}
			select {
			case lines <- line:
			case <-ctx.Done():
				return
			}
		}
	}()

	var wg sync.WaitGroup
	defer wg.Wait()
	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-readErr:
					return fmt.Errorf("read requests: %w", err)
				default:
				}
				return nil
			}
			if line.tooLong {
				s.out.write(serveResponse{
					Content: fmt.Sprintf("invalid request: line exceeds %d bytes", maxRequestLine),
					IsError: true,
				})
				continue
			}
			if strings.TrimSpace(line.text) == "" {
				continue
			}
			if !parallel {
				s.out.write(s.handleLine(ctx, line.text))
				continue
			}
			wg.Add(1)
			go func() {
				defer wg.Done()
				s.out.write(s.handleLine(ctx, line.text))
			}()
		}
	}
}

func (s *server) handleLine(ctx context.Context, line string) serveResponse {
	var req serveRequest
	if err := json.Unmarshal([]byte(line), &req); err != nil {
		return serveResponse{Content: "invalid request: " + err.Error(), IsError: true}
	}
	if req.CallID == "" {
		req.CallID = "call_" + uuid.NewString()
	}
	resp := serveResponse{CallID: req.CallID}

	params, err := normalizeArguments(req.Arguments)
	if err != nil {
		resp.Content = "invalid arguments: " + err.Error()
		resp.IsError = true
		return resp
	}

	session := agent.NewTaskSession(func(e agent.Event) { s.events.write(map[string]any{"event": e}) })
	session.Begin()

	callCtx := observability.AddRequestID(ctx, uuid.NewString())
	callCtx = observability.AddCallID(callCtx, req.CallID)
	callCtx = agent.WithSession(callCtx, session)

	result, err := s.app.tools.Execute(callCtx, req.Action, params)
	if inputs := session.End(); len(inputs) > 0 {
		s.events.write(map[string]any{"call_id": req.CallID, "inputs": inputs})
	}
	if err != nil {
		s.app.logger.Error(callCtx, "tool execution failed", "error", err)
		resp.Content = err.Error()
		resp.IsError = true
		return resp
	}

	resp.Content = result.Content
	resp.IsError = result.IsError
	resp.Artifacts = result.Artifacts
	return resp
}

// normalizeArguments accepts an object, a JSON string holding an object, or
// nothing, and returns the raw object text.
func normalizeArguments(raw json.RawMessage) (json.RawMessage, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return json.RawMessage("{}"), nil
	}
	if trimmed[0] != '"' {
		return json.RawMessage(trimmed), nil
	}
	var encoded string
	if err := json.Unmarshal(trimmed, &encoded); err != nil {
		return nil, err
	}
	if strings.TrimSpace(encoded) == "" {
		return json.RawMessage("{}"), nil
	}
	return json.RawMessage(encoded), nil
}
