package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
)

// Limits applied to every call before a tool sees it.
const (
	MaxToolNameLength = 256
	MaxToolParamsSize = 1 << 20
)

// ToolRegistry looks tools up by name and runs them. Calls to mutating tools
// hold a single lock for their whole duration, so two tools that inject
// input never interleave; read-only tools run concurrently.
type ToolRegistry struct {
	mu      sync.RWMutex
	tools   map[string]Tool
	inputMu sync.Mutex
}

// NewToolRegistry creates a new empty tool registry.
func NewToolRegistry() *ToolRegistry {
	return &ToolRegistry{tools: make(map[string]Tool)}
}

// Register adds tools by name. A later tool replaces an earlier one with the
// same name.
func (r *ToolRegistry) Register(tools ...Tool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, tool := range tools {
		r.tools[tool.Name()] = tool
	}
}

// Get returns the tool registered under name.
func (r *ToolRegistry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tool, ok := r.tools[name]
	return tool, ok
}

// Tools returns the registered tools sorted by name.
func (r *ToolRegistry) Tools() []Tool {
	r.mu.RLock()
	out := make([]Tool, 0, len(r.tools))
	for _, tool := range r.tools {
		out = append(out, tool)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}

// Execute runs the named tool. Rejected calls (unknown tool, oversized name
// or parameters) come back as error results so the model can see them.
func (r *ToolRegistry) Execute(ctx context.Context, name string, params json.RawMessage) (*ToolResult, error) {
	if reason := checkCall(name, params); reason != "" {
		return &ToolResult{Content: reason, IsError: true}, nil
	}
	tool, ok := r.Get(name)
	if !ok {
		return &ToolResult{Content: "tool not found: " + name, IsError: true}, nil
	}

	if IsMutating(tool) {
		r.inputMu.Lock()
		defer r.inputMu.Unlock()
	}
	return tool.Execute(ctx, params)
}

func checkCall(name string, params json.RawMessage) string {
	switch {
	case len(name) > MaxToolNameLength:
		return fmt.Sprintf("tool name exceeds maximum length of %d characters", MaxToolNameLength)
	case len(params) > MaxToolParamsSize:
		return fmt.Sprintf("tool parameters exceed maximum size of %d bytes", MaxToolParamsSize)
	}
	return ""
}
