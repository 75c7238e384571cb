package doctor

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/haasonsaas/computex/internal/computeruse"
)

type fakeLocator map[string]string

func (f fakeLocator) Locate(name string) (string, error) {
	if path, ok := f[name]; ok {
		return path, nil
	}
	return "", &computeruse.ActionError{Kind: computeruse.KindToolNotFound, Message: name + " not found"}
}

func lookPath(found ...string) func(string) (string, error) {
	return func(name string) (string, error) {
		for _, f := range found {
			if f == name {
				return "/usr/bin/" + name, nil
			}
		}
		return "", errors.New("not found")
	}
}

func display(value string) func(string) (string, bool) {
	return func(string) (string, bool) { return value, value != "" }
}

var bothTools = fakeLocator{"xdotool": "/usr/bin/xdotool", "import": "/usr/bin/import"}

func TestInspectExitCodes(t *testing.T) {
	tests := []struct {
		name    string
		doctor  Doctor
		want    int
		failing []string
	}{
		{
			name:   "all satisfied",
			doctor: Doctor{GOOS: "linux", LookupEnv: display(":0"), Locator: bothTools},
			want:   ExitOK,
		},
		{
			name:    "unsupported platform",
			doctor:  Doctor{GOOS: "darwin", LookupEnv: display(":0"), Locator: bothTools},
			want:    ExitUnsupportedPlatform,
			failing: []string{"Platform"},
		},
		{
			name:    "no display",
			doctor:  Doctor{GOOS: "linux", LookupEnv: display(""), Locator: bothTools},
			want:    ExitMissingDependencies,
			failing: []string{"DISPLAY variable"},
		},
		{
			name:    "missing import",
			doctor:  Doctor{GOOS: "linux", LookupEnv: display(":1"), Locator: fakeLocator{"xdotool": "/usr/bin/xdotool"}},
			want:    ExitMissingDependencies,
			failing: []string{"import"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report := tt.doctor.Inspect(context.Background())
			if got := report.ExitCode(); got != tt.want {
				t.Fatalf("ExitCode() = %d, want %d", got, tt.want)
			}
			var failing []string
			for _, c := range append([]Check{report.Platform, report.Display}, report.Tools...) {
				if c.Name != "" && !c.Passed {
					failing = append(failing, c.Name)
				}
			}
			if strings.Join(failing, ",") != strings.Join(tt.failing, ",") {
				t.Fatalf("failing = %v, want %v", failing, tt.failing)
			}
		})
	}
}

func TestRunAllSatisfiedVerbose(t *testing.T) {
	var out bytes.Buffer
	d := Doctor{
		Out:       &out,
		GOOS:      "linux",
		LookupEnv: display(":0"),
		Locator:   bothTools,
		Runner: computeruse.RunnerFunc(func(_ context.Context, path string, _ []string) (computeruse.Output, error) {
			return computeruse.Output{Stdout: path + " 1.0\n"}, nil
		}),
		Verbose: true,
	}

	if code := d.Run(context.Background(), false); code != ExitOK {
		t.Fatalf("Run() = %d, want 0", code)
	}
	for _, want := range []string{
		"✓ PASS Platform: Running on linux (Linux required)",
		"✓ PASS DISPLAY variable: DISPLAY=:0",
		"✓ PASS xdotool: Found at /usr/bin/xdotool",
		"       Version: /usr/bin/xdotool 1.0",
		"✓ PASS import: Found at /usr/bin/import",
		"✓ All dependencies satisfied!",
		"You can now use: computex --gui",
	} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output missing %q:\n%s", want, out.String())
		}
	}
	if strings.Contains(out.String(), "\033[") {
		t.Error("expected no colour codes when Color is false")
	}
}

func TestRunUnsupportedPlatform(t *testing.T) {
	var out bytes.Buffer
	d := Doctor{Out: &out, GOOS: "windows", Locator: bothTools}

	if code := d.Run(context.Background(), false); code != ExitUnsupportedPlatform {
		t.Fatalf("Run() = %d, want 2", code)
	}
	if !strings.Contains(out.String(), "only supported on Linux/X11") {
		t.Errorf("output = %s", out.String())
	}
	if strings.Contains(out.String(), "xdotool") {
		t.Error("tool checks must not run on unsupported platforms")
	}
}

func TestRunMissingPrintsInstructions(t *testing.T) {
	var out bytes.Buffer
	d := Doctor{
		Out:       &out,
		GOOS:      "linux",
		LookupEnv: display(""),
		Locator:   fakeLocator{},
		LookPath:  lookPath("dnf", "yum"),
	}

	if code := d.Run(context.Background(), false); code != ExitMissingDependencies {
		t.Fatalf("Run() = %d, want 1", code)
	}
	for _, want := range []string{
		"✗ FAIL xdotool",
		"Install: sudo apt-get install -y xdotool",
		"Install: sudo apt-get install -y imagemagick",
		"Set DISPLAY (e.g., export DISPLAY=:0) or use 'computex --headless'",
		"sudo dnf install -y xdotool ImageMagick",
		"computex doctor --install",
	} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output missing %q:\n%s", want, out.String())
		}
	}
}

func TestRunManualInstructionsWithoutPackageManager(t *testing.T) {
	var out bytes.Buffer
	d := Doctor{
		Out:       &out,
		GOOS:      "linux",
		LookupEnv: display(":0"),
		Locator:   fakeLocator{"xdotool": "/usr/bin/xdotool"},
		LookPath:  lookPath(),
	}
	d.Run(context.Background(), false)
	if !strings.Contains(out.String(), "Install imagemagick using your package manager") {
		t.Errorf("output = %s", out.String())
	}
	if strings.Contains(out.String(), "Install xdotool using") {
		t.Error("xdotool is present and must not be listed")
	}
}

func TestRunInstall(t *testing.T) {
	t.Run("success re-runs checks", func(t *testing.T) {
		locator := fakeLocator{}
		var ran string
		var out bytes.Buffer
		d := Doctor{
			Out:       &out,
			GOOS:      "linux",
			LookupEnv: display(":0"),
			Locator:   locator,
			LookPath:  lookPath("apt-get"),
			Installer: func(_ context.Context, command string, _, _ io.Writer) error {
				ran = command
				locator["xdotool"] = "/usr/bin/xdotool"
				locator["import"] = "/usr/bin/import"
				return nil
			},
		}

		if code := d.Run(context.Background(), true); code != ExitOK {
			t.Fatalf("Run() = %d, want 0\n%s", code, out.String())
		}
		if ran != "sudo apt-get update && sudo apt-get install -y xdotool imagemagick" {
			t.Errorf("ran %q", ran)
		}
		if !strings.Contains(out.String(), "Re-running checks") {
			t.Errorf("output = %s", out.String())
		}
	})

	t.Run("failure", func(t *testing.T) {
		var out bytes.Buffer
		d := Doctor{
			Out:       &out,
			GOOS:      "linux",
			LookupEnv: display(":0"),
			Locator:   fakeLocator{},
			LookPath:  lookPath("pacman"),
			Installer: func(context.Context, string, io.Writer, io.Writer) error {
				return errors.New("exit status 1")
			},
		}
		if code := d.Run(context.Background(), true); code != ExitMissingDependencies {
			t.Fatalf("Run() = %d, want 1", code)
		}
		if !strings.Contains(out.String(), "Auto-installation failed") {
			t.Errorf("output = %s", out.String())
		}
	})

	t.Run("no package manager", func(t *testing.T) {
		var out bytes.Buffer
		installed := false
		d := Doctor{
			Out:       &out,
			GOOS:      "linux",
			LookupEnv: display(":0"),
			Locator:   fakeLocator{},
			LookPath:  lookPath(),
			Installer: func(context.Context, string, io.Writer, io.Writer) error {
				installed = true
				return nil
			},
		}
		d.Run(context.Background(), true)
		if installed {
			t.Error("installer must not run without a package manager")
		}
		if !strings.Contains(out.String(), "Unable to detect package manager") {
			t.Errorf("output = %s", out.String())
		}
	})
}

func TestDetectPackageManagerPriority(t *testing.T) {
	pm, ok := DetectPackageManager(lookPath("yum", "apt-get"))
	if !ok || pm.Name != "apt-get" {
		t.Fatalf("DetectPackageManager() = %+v, %v", pm, ok)
	}
	if _, ok := DetectPackageManager(lookPath()); ok {
		t.Fatal("expected no package manager")
	}
}

func TestColour(t *testing.T) {
	var out bytes.Buffer
	d := Doctor{Out: &out, GOOS: "linux", LookupEnv: display(":0"), Locator: bothTools, Color: true}
	d.Run(context.Background(), false)
	if !strings.Contains(out.String(), green+"✓ PASS"+reset) {
		t.Errorf("expected coloured output, got %q", out.String())
	}
	if ColorEnabled(&out) {
		t.Error("a buffer is never a terminal")
	}
}
