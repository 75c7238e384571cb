package computeruse

import (
	"context"
	"errors"
	"os"
	"strings"
	"sync"
	"testing"
)

// fakeRunner records invocations and answers getdisplaygeometry.
type fakeRunner struct {
	mu          sync.Mutex
	calls       [][]string
	geometry    string
	geometryErr error
	onRun       func(path string, args []string) error
}

func (f *fakeRunner) Run(_ context.Context, path string, args []string) (Output, error) {
	f.mu.Lock()
	f.calls = append(f.calls, append([]string{path}, args...))
	f.mu.Unlock()

	if len(args) > 0 && args[0] == "getdisplaygeometry" {
		if f.geometryErr != nil {
			return Output{Stderr: "cannot open display"}, f.geometryErr
		}
		return Output{Stdout: f.geometry}, nil
	}
	if f.onRun != nil {
		return Output{}, f.onRun(path, args)
	}
	return Output{}, nil
}

func (f *fakeRunner) commandLines() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	for i, call := range f.calls {
		out[i] = strings.Join(call, " ")
	}
	return out
}

func fakeLookPath(found map[string]string) func(string) (string, error) {
	return func(name string) (string, error) {
		if path, ok := found[name]; ok {
			return path, nil
		}
		return "", errors.New("executable file not found in $PATH")
	}
}

func availableDisplay() DisplayCheck {
	return DisplayCheck{
		GOOS:      "linux",
		LookupEnv: func(string) (string, bool) { return ":0", true },
	}
}

func allTools() *PathLocator {
	return &PathLocator{lookPath: fakeLookPath(map[string]string{
		ToolXdotool: "/usr/bin/xdotool",
		ToolImport:  "/usr/bin/import",
	})}
}

func newTestDispatcher(t *testing.T, runner Runner, opts ...Option) *Dispatcher {
	t.Helper()
	base := []Option{
		WithRunner(runner),
		WithLocator(allTools()),
		WithDisplayCheck(availableDisplay()),
		WithTokenSource(func() string { return "token" }),
	}
	return NewDispatcher(append(base, opts...)...)
}

func handle(t *testing.T, d *Dispatcher, action ActionName, args string) (*CommandResult, error) {
	t.Helper()
	return d.Handle(context.Background(), Request{
		Action:  action,
		Payload: FunctionPayload(args),
		CallID:  "call-test",
	})
}

func requireKind(t *testing.T, err error, kind ErrorKind) *ActionError {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", kind)
	}
	actionErr, ok := AsActionError(err)
	if !ok {
		t.Fatalf("expected *ActionError, got %T: %v", err, err)
	}
	if actionErr.Kind != kind {
		t.Fatalf("kind = %s, want %s (message %q)", actionErr.Kind, kind, actionErr.Message)
	}
	return actionErr
}

func writeFile(path string) error {
	return os.WriteFile(path, []byte("\x89PNG"), 0o600)
}

func contains(s, substr string) bool {
	return strings.Contains(s, substr)
}
