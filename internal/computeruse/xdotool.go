package computeruse

import (
	"strconv"
	"strings"
)

// MouseButton is a friendly button name; Code returns the xdotool wire value.
type MouseButton string

const (
	ButtonLeft   MouseButton = "left"
	ButtonMiddle MouseButton = "middle"
	ButtonRight  MouseButton = "right"
)

var buttonCodes = map[MouseButton]string{
	ButtonLeft:   "1",
	ButtonMiddle: "2",
	ButtonRight:  "3",
}

// Code returns the xdotool button number.
func (b MouseButton) Code() string {
	return buttonCodes[b]
}

// ParseMouseButton accepts a friendly name or wire code, case-insensitively.
func ParseMouseButton(raw string) (MouseButton, error) {
	token := strings.ToLower(raw)
	switch token {
	case "left", "1":
		return ButtonLeft, nil
	case "middle", "2":
		return ButtonMiddle, nil
	case "right", "3":
		return ButtonRight, nil
	default:
		return "", newError(KindUnsupportedButton, "unsupported mouse button: %s", token)
	}
}

// ScrollDirection is a vertical scroll direction.
type ScrollDirection string

const (
	ScrollUp   ScrollDirection = "up"
	ScrollDown ScrollDirection = "down"
)

// Code returns the xdotool wheel button number.
func (d ScrollDirection) Code() string {
	if d == ScrollUp {
		return "4"
	}
	return "5"
}

// ParseScrollDirection accepts up or down, case-insensitively.
func ParseScrollDirection(raw string) (ScrollDirection, error) {
	switch strings.ToLower(raw) {
	case "up":
		return ScrollUp, nil
	case "down":
		return ScrollDown, nil
	default:
		return "", newError(KindUnsupportedDirection, "unsupported scroll direction: %s", raw)
	}
}

// Command accumulates chained xdotool subcommands. xdotool runs them in order
// within one process.
type Command struct {
	args []string
}

// Args returns the assembled argument list.
func (c *Command) Args() []string {
	return append([]string(nil), c.args...)
}

// MouseMove appends a synchronous cursor move.
func (c *Command) MouseMove(p PhysicalPoint) *Command {
	c.args = append(c.args, "mousemove", "--sync", strconv.Itoa(p.X), strconv.Itoa(p.Y))
	return c
}

// Click appends a click; repeat > 1 adds a --repeat modifier.
func (c *Command) Click(code string, repeat int) *Command {
	c.args = append(c.args, "click")
	if repeat > 1 {
		c.args = append(c.args, "--repeat", strconv.Itoa(repeat))
	}
	c.args = append(c.args, code)
	return c
}

// MouseDown appends a button press.
func (c *Command) MouseDown(button MouseButton) *Command {
	c.args = append(c.args, "mousedown", button.Code())
	return c
}

// MouseUp appends a button release.
func (c *Command) MouseUp(button MouseButton) *Command {
	c.args = append(c.args, "mouseup", button.Code())
	return c
}

// Type appends literal text injection with an optional per-key delay.
func (c *Command) Type(text string, delayMs *uint64) *Command {
	c.args = append(c.args, "type")
	if delayMs != nil {
		c.args = append(c.args, "--delay", strconv.FormatUint(*delayMs, 10))
	}
	c.args = append(c.args, "--", text)
	return c
}

// Key appends a key combo such as "ctrl+shift+t".
func (c *Command) Key(combo string) *Command {
	c.args = append(c.args, "key", combo)
	return c
}

// GeometryArgs queries the physical display size.
func GeometryArgs() []string {
	return []string{"getdisplaygeometry"}
}

// ScreenshotArgs captures the root window resized to the logical viewport.
func ScreenshotArgs(path string) []string {
	return []string{
		"-window", "root",
		"-resize", strconv.Itoa(LogicalWidth) + "x" + strconv.Itoa(LogicalHeight) + "!",
		path,
	}
}
