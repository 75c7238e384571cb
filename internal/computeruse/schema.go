package computeruse

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/invopop/jsonschema"
	validator "github.com/santhosh-tekuri/jsonschema/v5"
)

// Instructions is the system prompt fragment describing the computer-use
// tools to a model.
const Instructions = `You can operate a Linux desktop through computer-use tools.

Coordinates: every x and y you pass is measured in a fixed 1280x720 viewport,
the same frame as the screenshots you receive. Values outside the frame are
clamped to its edges. The real display may be larger or smaller; scaling is
handled for you.

Tools:
- computer_screenshot: capture the screen. The image is attached to the
  conversation. Take one before acting and after anything that changes the
  screen.
- computer_click {x, y, button?, double?}: move the pointer and click.
  button is left (default), middle or right.
- computer_drag {from_x, from_y, to_x, to_y, button?}: press at the start
  point, move, and release at the end point.
- computer_scroll {direction, amount?, x?, y?}: scroll up or down by amount
  wheel ticks (default 3). Give both x and y to move the pointer first, or
  neither.
- computer_type {text, delay_ms?}: type literal text into the focused window.
- computer_key {keys, confirm?}: press keys together, e.g. ["ctrl","l"] or
  ["Return"].

Safety: key combinations that close windows, quit applications or end the
session (such as alt+f4, ctrl+w, ctrl+q, super+q, ctrl+alt+backspace) are
refused unless confirm is true. Ask the user first, and only set confirm
after they approve.

Errors are returned as text. Read them and adjust your next request instead
of repeating it unchanged.`

var descriptions = map[ActionName]string{
	ActionScreenshot: "Capture the full screen resized to 1280x720 and attach it to the conversation.",
	ActionClick:      "Move the pointer to a point in the 1280x720 viewport and click, optionally twice.",
	ActionDrag:       "Press a mouse button at one point in the 1280x720 viewport and release it at another.",
	ActionScroll:     "Scroll up or down by a number of wheel ticks, optionally after moving the pointer.",
	ActionType:       "Type literal text into the focused window.",
	ActionKey:        "Press a key combination. Destructive combos require confirm=true after user approval.",
}

// Description returns the model-facing description of an action.
func Description(name ActionName) string {
	return descriptions[name]
}

type compiledSchema struct {
	raw       json.RawMessage
	validator *validator.Schema
}

var (
	schemasOnce sync.Once
	schemas     map[ActionName]compiledSchema
	schemasErr  error
)

func loadSchemas() (map[ActionName]compiledSchema, error) {
	schemasOnce.Do(func() {
		r := &jsonschema.Reflector{
			Anonymous:                 true,
			DoNotReference:            true,
			ExpandedStruct:            true,
			AllowAdditionalProperties: true,
		}
		out := make(map[ActionName]compiledSchema, len(ActionNames))
		for _, name := range ActionNames {
			raw, err := json.Marshal(r.Reflect(newArgs(name)))
			if err != nil {
				schemasErr = fmt.Errorf("reflect %s schema: %w", name, err)
				return
			}
			compiled, err := validator.CompileString(string(name)+".schema.json", string(raw))
			if err != nil {
				schemasErr = fmt.Errorf("compile %s schema: %w", name, err)
				return
			}
			out[name] = compiledSchema{raw: raw, validator: compiled}
		}
		schemas = out
	})
	return schemas, schemasErr
}

// Schema returns the JSON Schema for an action's arguments.
func Schema(name ActionName) (json.RawMessage, error) {
	all, err := loadSchemas()
	if err != nil {
		return nil, err
	}
	s, ok := all[name]
	if !ok {
		return nil, newError(KindUnsupportedAction, "unsupported computer-use tool: %s", name)
	}
	return append(json.RawMessage(nil), s.raw...), nil
}

func validateArgs(name ActionName, doc any) error {
	all, err := loadSchemas()
	if err != nil {
		return err
	}
	s, ok := all[name]
	if !ok {
		return fmt.Errorf("no schema for %s", name)
	}
	return s.validator.Validate(doc)
}
