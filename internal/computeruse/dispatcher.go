package computeruse

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"github.com/haasonsaas/computex/internal/agent"
	"github.com/haasonsaas/computex/internal/observability"
)

// DefaultScreenshotPrefix prefixes every screenshot filename.
const DefaultScreenshotPrefix = "computex-screenshot-"

// PayloadKind distinguishes the shapes a tool call payload can take.
type PayloadKind string

const (
	// PayloadFunction carries JSON function-call arguments.
	PayloadFunction PayloadKind = "function"
	// PayloadCustom carries freeform tool input.
	PayloadCustom PayloadKind = "custom"
)

// Payload is the raw input of a tool call.
type Payload struct {
	Kind      PayloadKind
	Arguments string
}

// FunctionPayload wraps JSON arguments as a function-call payload.
func FunctionPayload(arguments string) Payload {
	return Payload{Kind: PayloadFunction, Arguments: arguments}
}

// Request is one action invocation.
type Request struct {
	Action  ActionName
	Payload Payload
	CallID  string
	Session agent.Session
}

// OutputItem is structured output attached to a result.
type OutputItem struct {
	Type     string `json:"type"`
	Path     string `json:"path,omitempty"`
	MimeType string `json:"mime_type,omitempty"`
}

// CommandResult is the outcome of a successful action.
type CommandResult struct {
	Success bool         `json:"success"`
	Message string       `json:"message"`
	Output  []OutputItem `json:"output,omitempty"`
}

// Dispatcher routes action requests to helper invocations. Nothing observed
// during one call, display geometry included, carries over to the next.
type Dispatcher struct {
	locator       Locator
	runner        Runner
	display       DisplayCheck
	guard         atomic.Pointer[ComboGuard]
	enabled       bool
	screenshotDir string
	prefix        string
	newToken      func() string
	stat          func(string) (os.FileInfo, error)

	logger   *observability.Logger
	metrics  *observability.Metrics
	tracer   *observability.Tracer
	recorder *observability.EventRecorder
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithLocator sets the helper locator.
func WithLocator(l Locator) Option { return func(d *Dispatcher) { d.locator = l } }

// WithRunner sets the process runner.
func WithRunner(r Runner) Option { return func(d *Dispatcher) { d.runner = r } }

// WithDisplayCheck sets the display precondition check.
func WithDisplayCheck(c DisplayCheck) Option { return func(d *Dispatcher) { d.display = c } }

// WithGuard sets the destructive combo guard.
func WithGuard(g *ComboGuard) Option { return func(d *Dispatcher) { d.SetGuard(g) } }

// WithEnabled toggles GUI tools; a disabled dispatcher rejects every action.
func WithEnabled(enabled bool) Option { return func(d *Dispatcher) { d.enabled = enabled } }

// WithScreenshotPath sets the directory and filename prefix for screenshots.
// Empty values keep the defaults.
func WithScreenshotPath(dir, prefix string) Option {
	return func(d *Dispatcher) {
		if dir != "" {
			d.screenshotDir = dir
		}
		if prefix != "" {
			d.prefix = prefix
		}
	}
}

// WithTokenSource overrides the screenshot filename token generator.
func WithTokenSource(fn func() string) Option { return func(d *Dispatcher) { d.newToken = fn } }

// WithLogger sets the logger.
func WithLogger(l *observability.Logger) Option { return func(d *Dispatcher) { d.logger = l } }

// WithMetrics sets the metrics sink.
func WithMetrics(m *observability.Metrics) Option { return func(d *Dispatcher) { d.metrics = m } }

// WithTracer sets the tracer.
func WithTracer(t *observability.Tracer) Option { return func(d *Dispatcher) { d.tracer = t } }

// WithEventRecorder sets the timeline recorder.
func WithEventRecorder(r *observability.EventRecorder) Option {
	return func(d *Dispatcher) { d.recorder = r }
}

// NewDispatcher creates a dispatcher that uses the search path, os/exec with
// DefaultProcessTimeout, DISPLAY, and the default combo table unless
// overridden.
func NewDispatcher(opts ...Option) *Dispatcher {
	d := &Dispatcher{
		locator:       NewPathLocator(nil),
		runner:        NewExecRunner(DefaultProcessTimeout),
		enabled:       true,
		screenshotDir: os.TempDir(),
		prefix:        DefaultScreenshotPrefix,
		newToken:      uuid.NewString,
		stat:          os.Stat,
	}
	d.guard.Store(NewComboGuard())
	for _, opt := range opts {
		opt(d)
	}
	if d.logger == nil {
		d.logger = observability.NopLogger()
	}
	if d.tracer == nil {
		d.tracer, _ = observability.NewTracer(observability.TraceConfig{})
	}
	return d
}

// SetGuard replaces the combo guard. Calls in flight keep the guard they
// started with. A nil guard is ignored.
func (d *Dispatcher) SetGuard(g *ComboGuard) {
	if g != nil {
		d.guard.Store(g)
	}
}

// Guard returns the combo guard currently in effect.
func (d *Dispatcher) Guard() *ComboGuard { return d.guard.Load() }

// Handle runs one action to completion. Validation failures are reported
// before any process is spawned. Every failure is an *ActionError.
func (d *Dispatcher) Handle(ctx context.Context, req Request) (*CommandResult, error) {
	start := time.Now()
	ctx = observability.AddAction(ctx, string(req.Action))
	if req.CallID != "" {
		ctx = observability.AddCallID(ctx, req.CallID)
	}
	ctx, span := d.tracer.TraceAction(ctx, string(req.Action), req.CallID)
	defer span.End()
	_ = d.recorder.Record(ctx, observability.EventTypeActionStart, string(req.Action), nil)

	result, err := d.handle(ctx, req)
	duration := time.Since(start)

	if err != nil {
		actionErr, isActionErr := AsActionError(err)
		if !isActionErr {
			actionErr = &ActionError{Kind: KindToolSpawnFailure, Message: err.Error(), Cause: err}
		}
		if actionErr.Action == "" {
			actionErr.Action = string(req.Action)
		}
		d.tracer.RecordError(span, actionErr)
		d.metrics.RecordAction(string(req.Action), "error", duration.Seconds())
		d.metrics.RecordError(string(req.Action), string(actionErr.Kind))
		_ = d.recorder.RecordActionEnd(ctx, string(req.Action), duration, "", actionErr)
		d.logger.Warn(ctx, "action failed",
			"kind", string(actionErr.Kind),
			"duration_ms", duration.Milliseconds(),
			"error", actionErr.Message,
		)
		return nil, actionErr
	}

	d.metrics.RecordAction(string(req.Action), "success", duration.Seconds())
	_ = d.recorder.RecordActionEnd(ctx, string(req.Action), duration, result.Message, nil)
	d.logger.Info(ctx, "action completed", "duration_ms", duration.Milliseconds(), "message", result.Message)
	return result, nil
}

func (d *Dispatcher) handle(ctx context.Context, req Request) (*CommandResult, error) {
	if req.Payload.Kind != PayloadFunction {
		return nil, newError(KindInvalidPayloadShape, "unsupported payload for %s", req.Action)
	}
	if !d.enabled {
		return nil, newError(KindGUIDisabled, "computer-use GUI tools are disabled; restart with --gui to enable them")
	}
	if err := d.display.EnsureAvailable(); err != nil {
		return nil, err
	}

	action, err := ParseAction(req.Action, req.Payload.Arguments)
	if err != nil {
		return nil, err
	}

	switch a := action.(type) {
	case ScreenshotAction:
		return d.screenshot(ctx, req)
	case ClickAction:
		return d.click(ctx, a)
	case DragAction:
		return d.drag(ctx, a)
	case ScrollAction:
		return d.scroll(ctx, a)
	case TypeAction:
		return d.typeText(ctx, a)
	case KeyAction:
		return d.key(ctx, a)
	default:
		return nil, newError(KindUnsupportedAction, "unsupported computer-use tool: %s", req.Action)
	}
}

func (d *Dispatcher) click(ctx context.Context, a ClickAction) (*CommandResult, error) {
	button, err := resolveButton(a.Button)
	if err != nil {
		return nil, err
	}
	xdotool, err := d.locator.Locate(ToolXdotool)
	if err != nil {
		return nil, err
	}
	geometry, err := d.geometry(ctx, xdotool)
	if err != nil {
		return nil, err
	}

	target := ScalePoint(LogicalPoint{X: a.X, Y: a.Y}, geometry)
	cmd := (&Command{}).MouseMove(target).Click(button.Code(), 1)
	if a.Double != nil && *a.Double {
		cmd.Click(button.Code(), 1)
	}
	if err := d.run(ctx, ToolXdotool, xdotool, cmd.Args()); err != nil {
		return nil, err
	}
	return ok("clicked at %s", target), nil
}

func (d *Dispatcher) drag(ctx context.Context, a DragAction) (*CommandResult, error) {
	button, err := resolveButton(a.Button)
	if err != nil {
		return nil, err
	}
	xdotool, err := d.locator.Locate(ToolXdotool)
	if err != nil {
		return nil, err
	}
	geometry, err := d.geometry(ctx, xdotool)
	if err != nil {
		return nil, err
	}

	from := ScalePoint(LogicalPoint{X: a.FromX, Y: a.FromY}, geometry)
	to := ScalePoint(LogicalPoint{X: a.ToX, Y: a.ToY}, geometry)
	cmd := (&Command{}).MouseMove(from).MouseDown(button).MouseMove(to).MouseUp(button)
	if err := d.run(ctx, ToolXdotool, xdotool, cmd.Args()); err != nil {
		return nil, err
	}
	return ok("dragged from %s to %s", from, to), nil
}

func (d *Dispatcher) scroll(ctx context.Context, a ScrollAction) (*CommandResult, error) {
	if (a.X == nil) != (a.Y == nil) {
		return nil, newError(KindMalformedScrollPosition,
			"computer_scroll requires both x and y when positioning the cursor")
	}
	direction, err := ParseScrollDirection(a.Direction)
	if err != nil {
		return nil, err
	}
	ticks := DefaultScrollTicks
	if a.Amount != nil {
		ticks = *a.Amount
	}
	if ticks < 1 {
		ticks = 1
	}

	xdotool, err := d.locator.Locate(ToolXdotool)
	if err != nil {
		return nil, err
	}

	cmd := &Command{}
	if a.X != nil {
		geometry, err := d.geometry(ctx, xdotool)
		if err != nil {
			return nil, err
		}
		cmd.MouseMove(ScalePoint(LogicalPoint{X: *a.X, Y: *a.Y}, geometry))
	}
	cmd.Click(direction.Code(), int(ticks))
	if err := d.run(ctx, ToolXdotool, xdotool, cmd.Args()); err != nil {
		return nil, err
	}
	return ok("scrolled %d ticks", ticks), nil
}

func (d *Dispatcher) typeText(ctx context.Context, a TypeAction) (*CommandResult, error) {
	xdotool, err := d.locator.Locate(ToolXdotool)
	if err != nil {
		return nil, err
	}
	cmd := (&Command{}).Type(a.Text, a.DelayMs)
	if err := d.run(ctx, ToolXdotool, xdotool, cmd.Args()); err != nil {
		return nil, err
	}
	return ok("typed %d characters", utf8.RuneCountInString(a.Text)), nil
}

func (d *Dispatcher) key(ctx context.Context, a KeyAction) (*CommandResult, error) {
	if len(a.Keys) == 0 {
		return nil, newError(KindArgumentParseFailure, "computer_key requires at least one key")
	}
	for _, k := range a.Keys {
		if strings.TrimSpace(k) == "" {
			return nil, newError(KindArgumentParseFailure, "computer_key keys must not be empty")
		}
	}

	if rule, matched := d.guard.Load().Match(splitKeyTokens(a.Keys)); matched && (a.Confirm == nil || !*a.Confirm) {
		combo := strings.Join(rule, "+")
		d.metrics.RecordBlockedCombo(combo)
		_ = d.recorder.Record(ctx, observability.EventTypeComboBlocked, combo, map[string]any{"keys": a.Keys})
		return nil, newError(KindConfirmationRequired,
			"destructive key combo requires confirm=true after user approval")
	}

	xdotool, err := d.locator.Locate(ToolXdotool)
	if err != nil {
		return nil, err
	}
	combo := strings.Join(a.Keys, "+")
	if err := d.run(ctx, ToolXdotool, xdotool, (&Command{}).Key(combo).Args()); err != nil {
		return nil, err
	}
	return ok("pressed %s", combo), nil
}

func (d *Dispatcher) screenshot(ctx context.Context, req Request) (*CommandResult, error) {
	importPath, err := d.locator.Locate(ToolImport)
	if err != nil {
		return nil, err
	}

	path := filepath.Join(d.screenshotDir, d.prefix+d.newToken()+".png")
	if err := d.run(ctx, ToolImport, importPath, ScreenshotArgs(path)); err != nil {
		return nil, err
	}
	if info, err := d.stat(path); err != nil || !info.Mode().IsRegular() {
		return nil, newError(KindOutputFileMissing, "screenshot was not created at %s", path)
	}

	if req.Session == nil {
		return nil, newError(KindAttachmentFailed, "unable to attach screenshot (no active task)")
	}
	if err := req.Session.InjectInput(ctx, []agent.UserInput{agent.LocalImage(path)}); err != nil {
		return nil, wrapError(KindAttachmentFailed, err, "unable to attach screenshot (no active task)")
	}
	req.Session.SendEvent(ctx, agent.Event{Type: agent.EventViewImage, CallID: req.CallID, Path: path})
	_ = d.recorder.Record(ctx, observability.EventTypeViewImage, path, nil)

	result := ok("captured screenshot at %s", path)
	result.Output = []OutputItem{{Type: "image", Path: path, MimeType: "image/png"}}
	return result, nil
}

// geometry queries the display size. It is never cached.
func (d *Dispatcher) geometry(ctx context.Context, xdotool string) (DisplayGeometry, error) {
	out, err := d.runOutput(ctx, ToolXdotool, xdotool, GeometryArgs())
	if err != nil {
		if IsKind(err, KindToolNonZeroExit) {
			return DisplayGeometry{}, wrapError(KindToolNonZeroExit, err,
				"xdotool getdisplaygeometry failed: %s", out.Stderr)
		}
		return DisplayGeometry{}, err
	}
	geometry, err := ParseDisplayGeometry(out.Stdout)
	if err != nil {
		return DisplayGeometry{}, err
	}
	d.tracer.RecordGeometry(trace.SpanFromContext(ctx), geometry.Width, geometry.Height)
	return geometry, nil
}

func (d *Dispatcher) run(ctx context.Context, tool, path string, args []string) error {
	_, err := d.runOutput(ctx, tool, path, args)
	return err
}

func (d *Dispatcher) runOutput(ctx context.Context, tool, path string, args []string) (Output, error) {
	start := time.Now()
	ctx, span := d.tracer.TraceProcess(ctx, tool, len(args))
	defer span.End()

	d.logger.Debug(ctx, "running helper", "tool", tool, "path", path, "args", redactArgs(args))
	out, err := d.runner.Run(ctx, path, args)
	duration := time.Since(start)

	status := "success"
	if err != nil {
		status = "error"
		d.tracer.RecordError(span, err)
	}
	d.metrics.RecordProcess(tool, status, duration.Seconds())
	_ = d.recorder.Record(ctx, observability.EventTypeProcessRun, tool, map[string]any{
		"status":      status,
		"duration_ms": duration.Milliseconds(),
	})
	return out, err
}

// redactArgs hides the literal text of a type subcommand.
func redactArgs(args []string) []string {
	out := append([]string(nil), args...)
	for i := range out {
		if out[i] == "--" && i > 0 && i+1 < len(out) {
			out[i+1] = fmt.Sprintf("<%d chars>", utf8.RuneCountInString(out[i+1]))
			break
		}
	}
	return out
}

// splitKeyTokens expands tokens such as "ctrl+w" so that combined spellings
// are classified like separate keys.
func splitKeyTokens(keys []string) []string {
	out := make([]string, 0, len(keys))
	for _, key := range keys {
		for _, part := range strings.Split(key, "+") {
			if strings.TrimSpace(part) != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func ok(format string, args ...any) *CommandResult {
	return &CommandResult{Success: true, Message: fmt.Sprintf(format, args...)}
}
