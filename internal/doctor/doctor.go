// Package doctor verifies that the host can run the computer-use GUI tools
// and offers to install what is missing.
package doctor

import (
	"context"
	"fmt"
	"io"
	"os"
	"runtime"

	"golang.org/x/term"

	"github.com/haasonsaas/computex/internal/computeruse"
)

// Exit codes returned by Run.
const (
	ExitOK                  = 0
	ExitMissingDependencies = 1
	ExitUnsupportedPlatform = 2
)

// Check is the outcome of a single dependency check.
type Check struct {
	Name   string
	Passed bool
	// Detail is shown for passing checks in verbose mode.
	Detail string
	// Hint is shown for failing checks.
	Hint    string
	Path    string
	Version string
}

// Report collects the results of one run.
type Report struct {
	Platform Check
	Display  Check
	Tools    []Check
}

// PlatformSupported reports whether the platform check passed.
func (r Report) PlatformSupported() bool { return r.Platform.Passed }

// OK reports whether every check passed.
func (r Report) OK() bool {
	if !r.Platform.Passed || !r.Display.Passed {
		return false
	}
	for _, tool := range r.Tools {
		if !tool.Passed {
			return false
		}
	}
	return true
}

// ExitCode maps the report to the process exit status.
func (r Report) ExitCode() int {
	switch {
	case !r.Platform.Passed:
		return ExitUnsupportedPlatform
	case !r.OK():
		return ExitMissingDependencies
	default:
		return ExitOK
	}
}

func (r Report) missingTools() bool {
	for _, tool := range r.Tools {
		if !tool.Passed {
			return true
		}
	}
	return false
}

// Doctor runs dependency checks and renders them.
type Doctor struct {
	Out io.Writer

	// GOOS defaults to runtime.GOOS.
	GOOS string
	// DisplayEnv defaults to DISPLAY.
	DisplayEnv string
	// LookupEnv defaults to os.LookupEnv.
	LookupEnv func(string) (string, bool)
	// Locator resolves xdotool and import.
	Locator computeruse.Locator
	// LookPath finds package managers; defaults to exec.LookPath.
	LookPath func(string) (string, error)
	// Runner runs version probes.
	Runner computeruse.Runner
	// Installer runs the install command; defaults to ShellInstaller.
	Installer Installer

	Verbose bool
	Color   bool
}

// Inspect runs every check without printing.
func (d *Doctor) Inspect(ctx context.Context) Report {
	var report Report
	report.Platform = d.checkPlatform()
	if !report.Platform.Passed {
		return report
	}
	report.Display = d.checkDisplay()
	for _, name := range []string{computeruse.ToolXdotool, computeruse.ToolImport} {
		report.Tools = append(report.Tools, d.checkTool(ctx, name))
	}
	return report
}

func (d *Doctor) checkPlatform() Check {
	goos := d.GOOS
	if goos == "" {
		goos = runtime.GOOS
	}
	return Check{
		Name:   "Platform",
		Passed: goos == "linux",
		Detail: fmt.Sprintf("Running on %s (Linux required)", goos),
		Hint:   "Not Linux - computer-use requires Linux/X11",
	}
}

func (d *Doctor) checkDisplay() Check {
	envVar := d.DisplayEnv
	if envVar == "" {
		envVar = computeruse.DefaultDisplayEnv
	}
	lookup := d.LookupEnv
	if lookup == nil {
		lookup = os.LookupEnv
	}
	value, _ := lookup(envVar)
	return Check{
		Name:   envVar + " variable",
		Passed: value != "",
		Detail: envVar + "=" + value,
		Hint:   fmt.Sprintf("Set %s (e.g., export %s=:0) or use 'computex --headless'", envVar, envVar),
	}
}

func (d *Doctor) checkTool(ctx context.Context, name string) Check {
	check := Check{Name: name, Hint: "Install: " + computeruse.InstallHint(name)}
	locator := d.Locator
	if locator == nil {
		locator = computeruse.NewPathLocator(nil)
	}
	path, err := locator.Locate(name)
	if err != nil {
		if !computeruse.IsKind(err, computeruse.KindToolNotFound) {
			check.Hint = err.Error()
		}
		return check
	}
	check.Passed = true
	check.Path = path
	check.Detail = "Found at " + path
	if d.Verbose {
		check.Version = ProbeVersion(ctx, d.Runner, path)
	}
	return check
}

// Run inspects the host, prints the results, optionally installs missing
// packages, and returns the exit code.
func (d *Doctor) Run(ctx context.Context, install bool) int {
	out := d.out()
	fmt.Fprintf(out, "%s\n\n", d.paint(bold, "Computex Computer-Use Dependency Check"))

	report := d.Inspect(ctx)
	d.printCheck(report.Platform)
	if !report.PlatformSupported() {
		fmt.Fprintf(out, "\n%s\n", d.paint(red, "Computer-use GUI tools are only supported on Linux/X11."))
		fmt.Fprintln(out, "Alternatives:")
		fmt.Fprintln(out, "  - Use 'computex --headless' for shell-only mode")
		fmt.Fprintln(out, "  - Run in a Linux VM or container")
		return report.ExitCode()
	}
	d.printCheck(report.Display)
	for _, tool := range report.Tools {
		d.printCheck(tool)
	}

	fmt.Fprintln(out)
	if report.OK() {
		fmt.Fprintln(out, d.paint(green+bold, "✓ All dependencies satisfied!"))
		fmt.Fprintf(out, "\nYou can now use: %s\n", d.paint(blue, "computex --gui"))
		return ExitOK
	}
	fmt.Fprintln(out, d.paint(red+bold, "✗ Some dependencies are missing"))

	if install && report.missingTools() {
		if d.install(ctx) {
			fmt.Fprintf(out, "\n%s\n\n", d.paint(green, "Installation completed. Re-running checks..."))
			return d.Run(ctx, false)
		}
		fmt.Fprintf(out, "\n%s\n", d.paint(red, "Auto-installation failed. Please install manually."))
	}

	d.printInstructions(report)
	return report.ExitCode()
}

func (d *Doctor) install(ctx context.Context) bool {
	out := d.out()
	fmt.Fprintf(out, "\n%s\n\n", d.paint(bold, "Attempting to install dependencies..."))

	pm, ok := DetectPackageManager(d.LookPath)
	if !ok {
		fmt.Fprintln(out, d.paint(red, "Unable to detect package manager. Please install manually."))
		return false
	}
	fmt.Fprintf(out, "Running: %s\n\n", pm.Command)

	installer := d.Installer
	if installer == nil {
		installer = ShellInstaller
	}
	if err := installer(ctx, pm.Command, out, out); err != nil {
		fmt.Fprintln(out, d.paint(red, "Installation failed: "+err.Error()))
		return false
	}
	return true
}

func (d *Doctor) printInstructions(report Report) {
	out := d.out()
	fmt.Fprintln(out, "\nTo install missing dependencies:")

	if !report.Display.Passed {
		fmt.Fprintf(out, "\n  %s Set up X11 or use --headless mode\n", d.paint(yellow, "DISPLAY:"))
		fmt.Fprintln(out, "    export DISPLAY=:0           # If X11 is running")
		fmt.Fprintln(out, "    computex --headless         # Use shell-only mode (no GUI tools)")
	}

	if report.missingTools() {
		if pm, ok := DetectPackageManager(d.LookPath); ok {
			fmt.Fprintf(out, "\n  %s\n", d.paint(yellow, "Install commands:"))
			fmt.Fprintf(out, "    %s\n", pm.Command)
		} else {
			fmt.Fprintf(out, "\n  %s\n", d.paint(yellow, "Manual installation:"))
			for _, tool := range report.Tools {
				if tool.Passed {
					continue
				}
				pkg := tool.Name
				if tool.Name == computeruse.ToolImport {
					pkg = "imagemagick"
				}
				fmt.Fprintf(out, "    Install %s using your package manager\n", pkg)
			}
		}
		fmt.Fprintf(out, "\nOr run with auto-install: %s\n", d.paint(blue, "computex doctor --install"))
	}
}

func (d *Doctor) printCheck(c Check) {
	out := d.out()
	if c.Passed {
		status := d.paint(green, "✓ PASS")
		if d.Verbose && c.Detail != "" {
			fmt.Fprintf(out, "%s %s: %s\n", status, c.Name, c.Detail)
		} else {
			fmt.Fprintf(out, "%s %s\n", status, c.Name)
		}
		if c.Version != "" {
			fmt.Fprintf(out, "       Version: %s\n", c.Version)
		}
		return
	}
	fmt.Fprintf(out, "%s %s\n", d.paint(red, "✗ FAIL"), c.Name)
	if c.Hint != "" {
		fmt.Fprintf(out, "       %s\n", c.Hint)
	}
}

func (d *Doctor) out() io.Writer {
	if d.Out == nil {
		return os.Stdout
	}
	return d.Out
}

const (
	green  = "\033[92m"
	yellow = "\033[93m"
	red    = "\033[91m"
	blue   = "\033[94m"
	bold   = "\033[1m"
	reset  = "\033[0m"
)

func (d *Doctor) paint(code, s string) string {
	if !d.Color {
		return s
	}
	return code + s + reset
}

// ColorEnabled reports whether w is a terminal and NO_COLOR is unset.
func ColorEnabled(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	if _, set := os.LookupEnv("NO_COLOR"); set {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}
