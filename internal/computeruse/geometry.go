package computeruse

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// The logical viewport every model-facing coordinate is expressed in. It
// matches the size screenshots are resized to.
const (
	LogicalWidth  = 1280
	LogicalHeight = 720
)

// LogicalPoint is a coordinate in the logical viewport.
type LogicalPoint struct {
	X float64
	Y float64
}

// PhysicalPoint is a pixel coordinate on the real display.
type PhysicalPoint struct {
	X int
	Y int
}

func (p PhysicalPoint) String() string {
	return fmt.Sprintf("%d,%d", p.X, p.Y)
}

// DisplayGeometry is the physical display size. It is queried per action and
// never cached.
type DisplayGeometry struct {
	Width  int
	Height int
}

// Clamp limits p to [0, LogicalWidth-1] x [0, LogicalHeight-1].
func (p LogicalPoint) Clamp() LogicalPoint {
	return LogicalPoint{
		X: clamp(p.X, 0, LogicalWidth-1),
		Y: clamp(p.Y, 0, LogicalHeight-1),
	}
}

// Scale maps a logical coordinate onto a display of the given size. Input
// outside the viewport is clamped first; rounding is half away from zero.
func Scale(x, y float64, displayWidth, displayHeight int) PhysicalPoint {
	clamped := LogicalPoint{X: x, Y: y}.Clamp()
	scaledX := (clamped.X / LogicalWidth) * float64(displayWidth)
	scaledY := (clamped.Y / LogicalHeight) * float64(displayHeight)
	return PhysicalPoint{
		X: int(math.Round(scaledX)),
		Y: int(math.Round(scaledY)),
	}
}

// ScalePoint is Scale applied to a LogicalPoint and DisplayGeometry.
func ScalePoint(p LogicalPoint, display DisplayGeometry) PhysicalPoint {
	return Scale(p.X, p.Y, display.Width, display.Height)
}

func clamp(v, lo, hi float64) float64 {
	// NaN compares false everywhere; pin it to the origin.
	if math.IsNaN(v) {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}

// ParseDisplayGeometry parses `xdotool getdisplaygeometry` output ("W H").
func ParseDisplayGeometry(output string) (DisplayGeometry, error) {
	fields := strings.Fields(output)
	if len(fields) < 1 {
		return DisplayGeometry{}, newError(KindInvalidGeometry, "xdotool getdisplaygeometry returned no width")
	}
	width, err := parseDimension(fields[0])
	if err != nil {
		return DisplayGeometry{}, wrapError(KindInvalidGeometry, err, "xdotool getdisplaygeometry invalid width: %v", err)
	}
	if len(fields) < 2 {
		return DisplayGeometry{}, newError(KindInvalidGeometry, "xdotool getdisplaygeometry returned no height")
	}
	height, err := parseDimension(fields[1])
	if err != nil {
		return DisplayGeometry{}, wrapError(KindInvalidGeometry, err, "xdotool getdisplaygeometry invalid height: %v", err)
	}
	return DisplayGeometry{Width: width, Height: height}, nil
}

func parseDimension(raw string) (int, error) {
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, err
	}
	if value <= 0 || math.IsInf(value, 0) {
		return 0, fmt.Errorf("%q is not a positive size", raw)
	}
	return int(math.Round(value)), nil
}
