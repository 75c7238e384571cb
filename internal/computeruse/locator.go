package computeruse

import (
	osexec "os/exec"

	safeexec "github.com/haasonsaas/computex/internal/exec"
)

// Names of the external helpers the translator drives.
const (
	ToolXdotool = "xdotool"
	ToolImport  = "import"
)

// installHints maps helper names to their remediation command.
var installHints = map[string]string{
	ToolXdotool: "sudo apt-get install -y xdotool",
	ToolImport:  "sudo apt-get install -y imagemagick",
}

const genericInstallHint = "install the required package"

// InstallHint returns the remediation command for a helper name.
func InstallHint(name string) string {
	if hint, ok := installHints[name]; ok {
		return hint
	}
	return genericInstallHint
}

// Locator resolves helper executables by name.
type Locator interface {
	Locate(name string) (string, error)
}

// PathLocator looks helpers up on the search path. Overrides maps a helper
// name to the configured executable name or path that replaces it.
type PathLocator struct {
	Overrides map[string]string
	lookPath  func(string) (string, error)
}

// NewPathLocator creates a locator backed by exec.LookPath.
func NewPathLocator(overrides map[string]string) *PathLocator {
	return &PathLocator{Overrides: overrides, lookPath: osexec.LookPath}
}

// Locate returns the resolved path for name or a ToolNotFound error carrying
// the install hint for name.
func (l *PathLocator) Locate(name string) (string, error) {
	target := name
	if override, ok := l.Overrides[name]; ok && override != "" {
		sanitized, err := safeexec.SanitizeExecutableValue(override)
		if err != nil {
			return "", wrapError(KindToolNotFound, err, "configured command for `%s` is unusable: %v", name, err)
		}
		target = sanitized
	}

	lookPath := l.lookPath
	if lookPath == nil {
		lookPath = osexec.LookPath
	}
	path, err := lookPath(target)
	if err != nil {
		return "", wrapError(KindToolNotFound, err,
			"required command `%s` not found; install it with `%s`", name, InstallHint(name))
	}
	return path, nil
}
