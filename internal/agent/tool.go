// Package agent defines the contract between tools and the host that runs
// them on a model's behalf: the Tool interface, tool results with artifacts,
// and the task session a tool may attach input to.
package agent

import (
	"context"
	"encoding/json"
)

// Tool is a capability that can be offered to a model for function calling.
//
// Example implementation:
//
//	type Clicker struct{}
//
//	func (c *Clicker) Name() string        { return "computer_click" }
//	func (c *Clicker) Description() string { return "Click at a logical coordinate" }
//	func (c *Clicker) Schema() json.RawMessage {
//	    return json.RawMessage(`{"type":"object","properties":{"x":{"type":"number"}}}`)
//	}
//
//	func (c *Clicker) Execute(ctx context.Context, params json.RawMessage) (*ToolResult, error) {
//	    return &ToolResult{Content: "clicked"}, nil
//	}
type Tool interface {
	// Name returns the tool name for function calling.
	Name() string

	// Description returns a natural language description of what the tool does.
	Description() string

	// Schema returns the JSON Schema defining the tool's parameters.
	Schema() json.RawMessage

	// Execute runs the tool with the given JSON parameters.
	// Failures the model should see are reported with IsError=true; a
	// non-nil error means the tool itself could not run.
	Execute(ctx context.Context, params json.RawMessage) (*ToolResult, error)
}

// MutatingTool is implemented by tools that may change external state.
// Hosts use it to serialize mutating calls.
type MutatingTool interface {
	Tool
	Mutating() bool
}

// IsMutating reports whether tool declares itself mutating.
func IsMutating(tool Tool) bool {
	m, ok := tool.(MutatingTool)
	return ok && m.Mutating()
}

// ToolResult contains the output from a tool execution.
type ToolResult struct {
	// Content is the tool's output text.
	Content string `json:"content"`

	// IsError indicates this result represents an error condition.
	IsError bool `json:"is_error,omitempty"`

	// Artifacts contains any files/media produced by the tool.
	Artifacts []Artifact `json:"artifacts,omitempty"`
}

// Artifact represents a file or media produced by a tool execution.
type Artifact struct {
	// ID is the unique identifier for the artifact.
	ID string `json:"id"`

	// Type describes the artifact type (screenshot, recording, file).
	Type string `json:"type"`

	// MimeType is the MIME type of the artifact data.
	MimeType string `json:"mime_type"`

	// Filename is the suggested filename for the artifact.
	Filename string `json:"filename,omitempty"`

	// Path is the local filesystem location of the artifact.
	Path string `json:"path,omitempty"`

	// Data contains the raw artifact bytes, when inlined.
	Data []byte `json:"data,omitempty"`
}
