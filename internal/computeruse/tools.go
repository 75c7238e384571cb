package computeruse

import (
	"context"
	"encoding/json"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/haasonsaas/computex/internal/agent"
	"github.com/haasonsaas/computex/internal/observability"
)

// ActionTool exposes one action through the agent.Tool interface.
type ActionTool struct {
	name       ActionName
	dispatcher *Dispatcher
}

// NewTool creates the tool for a single action.
func NewTool(d *Dispatcher, name ActionName) *ActionTool {
	return &ActionTool{name: name, dispatcher: d}
}

// Tools returns one tool per supported action.
func Tools(d *Dispatcher) []agent.Tool {
	tools := make([]agent.Tool, 0, len(ActionNames))
	for _, name := range ActionNames {
		tools = append(tools, NewTool(d, name))
	}
	return tools
}

func (t *ActionTool) Name() string        { return string(t.name) }
func (t *ActionTool) Description() string { return Description(t.name) }
func (t *ActionTool) Mutating() bool      { return t.name.Mutating() }

// Schema returns the reflected argument schema, or an empty object schema
// if reflection failed.
func (t *ActionTool) Schema() json.RawMessage {
	schema, err := Schema(t.name)
	if err != nil {
		return json.RawMessage(`{"type":"object"}`)
	}
	return schema
}

// Execute runs the action. Action failures become error results so the
// model can react to them. The session and call id are taken from ctx.
func (t *ActionTool) Execute(ctx context.Context, params json.RawMessage) (*agent.ToolResult, error) {
	req := Request{
		Action:  t.name,
		Payload: FunctionPayload(string(params)),
		CallID:  observability.GetCallID(ctx),
		Session: agent.SessionFromContext(ctx),
	}

	result, err := t.dispatcher.Handle(ctx, req)
	if err != nil {
		if actionErr, ok := AsActionError(err); ok {
			return &agent.ToolResult{Content: actionErr.Message, IsError: true}, nil
		}
		return nil, err
	}

	out := &agent.ToolResult{Content: result.Message}
	for _, item := range result.Output {
		out.Artifacts = append(out.Artifacts, agent.Artifact{
			ID:       uuid.NewString(),
			Type:     "screenshot",
			MimeType: item.MimeType,
			Filename: filepath.Base(item.Path),
			Path:     item.Path,
		})
	}
	return out, nil
}
