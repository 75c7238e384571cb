package computeruse

import (
	"os"
	"runtime"
)

// DefaultDisplayEnv is the environment variable that signals an X11 session.
const DefaultDisplayEnv = "DISPLAY"

// DisplayCheck verifies the host can support GUI interaction.
type DisplayCheck struct {
	// GOOS is the host platform; defaults to runtime.GOOS.
	GOOS string
	// EnvVar names the display-session marker; defaults to DISPLAY.
	EnvVar string
	// LookupEnv defaults to os.LookupEnv.
	LookupEnv func(string) (string, bool)
}

// EnsureAvailable fails fast on unsupported platforms or when the display
// session marker is absent or empty.
func (c DisplayCheck) EnsureAvailable() error {
	goos := c.GOOS
	if goos == "" {
		goos = runtime.GOOS
	}
	if goos != "linux" {
		return newError(KindUnsupportedPlatform, "computer-use GUI tools are only supported on Linux/X11")
	}

	envVar := c.EnvVar
	if envVar == "" {
		envVar = DefaultDisplayEnv
	}
	lookup := c.LookupEnv
	if lookup == nil {
		lookup = os.LookupEnv
	}
	if value, ok := lookup(envVar); !ok || value == "" {
		return newError(KindDisplayUnavailable, "%s is not set; GUI tools require an X11 session", envVar)
	}
	return nil
}
