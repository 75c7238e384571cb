package agent

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type stubTool struct {
	name     string
	mutating bool
	run      func(ctx context.Context, params json.RawMessage) (*ToolResult, error)
}

func (s *stubTool) Name() string            { return s.name }
func (s *stubTool) Description() string     { return "stub" }
func (s *stubTool) Schema() json.RawMessage { return json.RawMessage(`{"type":"object"}`) }
func (s *stubTool) Mutating() bool          { return s.mutating }
func (s *stubTool) Execute(ctx context.Context, params json.RawMessage) (*ToolResult, error) {
	if s.run != nil {
		return s.run(ctx, params)
	}
	return &ToolResult{Content: s.name + ":" + string(params)}, nil
}

func TestToolRegistryExecute(t *testing.T) {
	reg := NewToolRegistry()
	reg.Register(&stubTool{name: "b"}, &stubTool{name: "a"})

	tests := []struct {
		name        string
		tool        string
		params      json.RawMessage
		wantError   bool
		wantContent string
	}{
		{name: "known tool", tool: "a", params: json.RawMessage(`{}`), wantContent: "a:{}"},
		{name: "unknown tool", tool: "zzz", params: json.RawMessage(`{}`), wantError: true, wantContent: "tool not found: zzz"},
		{name: "long name", tool: strings.Repeat("x", MaxToolNameLength+1), wantError: true, wantContent: "maximum length"},
		{name: "oversized params", tool: "a", params: make(json.RawMessage, MaxToolParamsSize+1), wantError: true, wantContent: "maximum size"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := reg.Execute(context.Background(), tt.tool, tt.params)
			if err != nil {
				t.Fatalf("Execute() error = %v", err)
			}
			if res.IsError != tt.wantError {
				t.Errorf("IsError = %v, want %v", res.IsError, tt.wantError)
			}
			if !strings.Contains(res.Content, tt.wantContent) {
				t.Errorf("Content = %q, want it to contain %q", res.Content, tt.wantContent)
			}
		})
	}
}

func TestToolRegistryToolsSorted(t *testing.T) {
	reg := NewToolRegistry()
	reg.Register(&stubTool{name: "computer_type"}, &stubTool{name: "computer_click"})

	tools := reg.Tools()
	if len(tools) != 2 || tools[0].Name() != "computer_click" {
		t.Fatalf("unexpected order: %v", tools)
	}
	if _, ok := reg.Get("computer_type"); !ok {
		t.Error("Get() missed a registered tool")
	}
}

func TestToolRegistrySerializesMutatingTools(t *testing.T) {
	var running, peak int32
	run := func(context.Context, json.RawMessage) (*ToolResult, error) {
		n := atomic.AddInt32(&running, 1)
		for {
			p := atomic.LoadInt32(&peak)
			if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		atomic.AddInt32(&running, -1)
		return &ToolResult{Content: "ok"}, nil
	}

	reg := NewToolRegistry()
	reg.Register(&stubTool{name: "click", mutating: true, run: run})

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = reg.Execute(context.Background(), "click", json.RawMessage(`{}`))
		}()
	}
	wg.Wait()

	if peak != 1 {
		t.Errorf("mutating tools overlapped: peak concurrency %d", peak)
	}
}

func TestIsMutating(t *testing.T) {
	if !IsMutating(&stubTool{mutating: true}) {
		t.Error("expected mutating")
	}
	if IsMutating(&stubTool{}) {
		t.Error("expected read-only")
	}
}
