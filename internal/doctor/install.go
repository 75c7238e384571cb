package doctor

import (
	"context"
	"fmt"
	"io"
	osexec "os/exec"
)

// PackageManager describes a supported system package manager.
type PackageManager struct {
	Name    string
	Command string
}

// PackageManagers lists the detected managers in priority order.
var PackageManagers = []PackageManager{
	{Name: "apt-get", Command: "sudo apt-get update && sudo apt-get install -y xdotool imagemagick"},
	{Name: "dnf", Command: "sudo dnf install -y xdotool ImageMagick"},
	{Name: "pacman", Command: "sudo pacman -S xdotool imagemagick"},
	{Name: "yum", Command: "sudo yum install -y xdotool ImageMagick"},
}

// DetectPackageManager returns the first manager found on the search path.
func DetectPackageManager(lookPath func(string) (string, error)) (PackageManager, bool) {
	if lookPath == nil {
		lookPath = osexec.LookPath
	}
	for _, pm := range PackageManagers {
		if _, err := lookPath(pm.Name); err == nil {
			return pm, true
		}
	}
	return PackageManager{}, false
}

// Installer runs an install command line.
type Installer func(ctx context.Context, command string, stdout, stderr io.Writer) error

// ShellInstaller runs command through /bin/sh with the caller's streams.
func ShellInstaller(ctx context.Context, command string, stdout, stderr io.Writer) error {
	cmd := osexec.CommandContext(ctx, "/bin/sh", "-c", command)
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("install command failed: %w", err)
	}
	return nil
}
