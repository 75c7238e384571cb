package computeruse

import "encoding/json"

// ActionName identifies one of the fixed computer-use actions.
type ActionName string

const (
	ActionScreenshot ActionName = "computer_screenshot"
	ActionClick      ActionName = "computer_click"
	ActionDrag       ActionName = "computer_drag"
	ActionScroll     ActionName = "computer_scroll"
	ActionType       ActionName = "computer_type"
	ActionKey        ActionName = "computer_key"
)

// ActionNames lists every supported action in presentation order.
var ActionNames = []ActionName{
	ActionScreenshot,
	ActionClick,
	ActionDrag,
	ActionScroll,
	ActionType,
	ActionKey,
}

// Valid reports whether n is a supported action.
func (n ActionName) Valid() bool {
	for _, name := range ActionNames {
		if name == n {
			return true
		}
	}
	return false
}

// Mutating reports whether the action changes GUI state. Only screenshots
// are read-only.
func (n ActionName) Mutating() bool {
	return n != ActionScreenshot
}

// DefaultScrollTicks is used when a scroll request omits amount.
const DefaultScrollTicks uint32 = 3

// Action is one typed action request. The set of implementations is closed.
type Action interface {
	Name() ActionName
	action()
}

// ScreenshotAction captures the screen. It takes no arguments.
type ScreenshotAction struct{}

// ClickAction clicks at a logical coordinate.
type ClickAction struct {
	X      float64 `json:"x" jsonschema:"description=Horizontal position in the 1280x720 viewport"`
	Y      float64 `json:"y" jsonschema:"description=Vertical position in the 1280x720 viewport"`
	Button *string `json:"button,omitempty" jsonschema:"description=left (default) or middle or right"`
	Double *bool   `json:"double,omitempty" jsonschema:"description=Click twice"`
}

// DragAction presses at one logical coordinate and releases at another.
type DragAction struct {
	FromX  float64 `json:"from_x" jsonschema:"description=Start x in the 1280x720 viewport"`
	FromY  float64 `json:"from_y" jsonschema:"description=Start y in the 1280x720 viewport"`
	ToX    float64 `json:"to_x" jsonschema:"description=End x in the 1280x720 viewport"`
	ToY    float64 `json:"to_y" jsonschema:"description=End y in the 1280x720 viewport"`
	Button *string `json:"button,omitempty" jsonschema:"description=left (default) or middle or right"`
}

// ScrollAction scrolls vertically, optionally after moving the cursor.
type ScrollAction struct {
	Direction string   `json:"direction" jsonschema:"description=up or down"`
	Amount    *uint32  `json:"amount,omitempty" jsonschema:"description=Number of wheel ticks (default 3)"`
	X         *float64 `json:"x,omitempty" jsonschema:"description=Cursor x before scrolling; requires y"`
	Y         *float64 `json:"y,omitempty" jsonschema:"description=Cursor y before scrolling; requires x"`
}

// TypeAction types literal text.
type TypeAction struct {
	Text    string  `json:"text" jsonschema:"description=Literal text to type"`
	DelayMs *uint64 `json:"delay_ms,omitempty" jsonschema:"description=Delay between keystrokes in milliseconds"`
}

// KeyAction presses a key combination.
type KeyAction struct {
	Keys    []string `json:"keys" jsonschema:"description=Key names pressed together such as ctrl and l"`
	Confirm *bool    `json:"confirm,omitempty" jsonschema:"description=Must be true for destructive combos after the user approved them"`
}

func (ScreenshotAction) Name() ActionName { return ActionScreenshot }
func (ClickAction) Name() ActionName      { return ActionClick }
func (DragAction) Name() ActionName       { return ActionDrag }
func (ScrollAction) Name() ActionName     { return ActionScroll }
func (TypeAction) Name() ActionName       { return ActionType }
func (KeyAction) Name() ActionName        { return ActionKey }

func (ScreenshotAction) action() {}
func (ClickAction) action()      {}
func (DragAction) action()       {}
func (ScrollAction) action()     {}
func (TypeAction) action()       {}
func (KeyAction) action()        {}

// newArgs returns a zero argument record for name, or nil if unknown.
func newArgs(name ActionName) Action {
	switch name {
	case ActionScreenshot:
		return &ScreenshotAction{}
	case ActionClick:
		return &ClickAction{}
	case ActionDrag:
		return &DragAction{}
	case ActionScroll:
		return &ScrollAction{}
	case ActionType:
		return &TypeAction{}
	case ActionKey:
		return &KeyAction{}
	default:
		return nil
	}
}

// ParseAction decodes raw function-call arguments into the typed record for
// name. Arguments are validated against the action's schema first, so type
// mismatches and missing required fields surface as ArgumentParseFailure.
// A null field counts as omitted. Screenshot arguments are ignored.
func ParseAction(name ActionName, raw string) (Action, error) {
	args := newArgs(name)
	if args == nil {
		return nil, newError(KindUnsupportedAction, "unsupported computer-use tool: %s", name)
	}
	if name == ActionScreenshot {
		return ScreenshotAction{}, nil
	}

	var doc any
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return nil, parseFailure(err)
	}
	dropNulls(doc)
	if err := validateArgs(name, doc); err != nil {
		return nil, parseFailure(err)
	}

	if err := json.Unmarshal([]byte(raw), args); err != nil {
		return nil, parseFailure(err)
	}

	switch v := args.(type) {
	case *ClickAction:
		return *v, nil
	case *DragAction:
		return *v, nil
	case *ScrollAction:
		return *v, nil
	case *TypeAction:
		return *v, nil
	case *KeyAction:
		return *v, nil
	}
	return nil, newError(KindUnsupportedAction, "unsupported computer-use tool: %s", name)
}

// dropNulls removes null-valued fields from a decoded argument object.
func dropNulls(doc any) {
	obj, ok := doc.(map[string]any)
	if !ok {
		return
	}
	for key, value := range obj {
		if value == nil {
			delete(obj, key)
		}
	}
}

func parseFailure(err error) error {
	return wrapError(KindArgumentParseFailure, err, "failed to parse function arguments: %v", err)
}

// resolveButton applies the left-button default for an omitted button.
func resolveButton(raw *string) (MouseButton, error) {
	if raw == nil {
		return ButtonLeft, nil
	}
	return ParseMouseButton(*raw)
}
