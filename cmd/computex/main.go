// Package main provides the CLI entry point for computex, a translator from
// model-issued computer-use tool calls to X11 desktop automation.
//
// # Basic Usage
//
// Run a single action:
//
//	computex action computer_click '{"x":640,"y":360}'
//
// Serve tool calls as JSON lines on stdin/stdout:
//
//	computex serve --metrics-addr 127.0.0.1:9464
//
// Check host dependencies:
//
//	computex doctor --verbose
//
// # Environment Variables
//
//   - COMPUTEX_CONFIG: Path to configuration file (default: ~/.computex/config.yaml)
//   - DISPLAY: X11 display used by xdotool and import
package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

// Build information - populated by ldflags during build.
//
// Example build command:
//
//	go build -ldflags "-X main.version=v1.0.0 -X main.commit=$(git rev-parse HEAD) -X main.date=$(date -u +%Y-%m-%dT%H:%M:%SZ)"
var (
	version = "dev"     // Semantic version (e.g., "v1.0.0")
	commit  = "none"    // Git commit SHA
	date    = "unknown" // Build timestamp
)

// rootOptions holds the persistent flags shared by every subcommand.
type rootOptions struct {
	configPath string
	gui        bool
	headless   bool
	logLevel   string
	logFormat  string
}

// exitError carries a specific process exit status out of a command.
type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}

func main() {
	rootCmd := buildRootCmd()
	if err := rootCmd.Execute(); err != nil {
		var exit *exitError
		if errors.As(err, &exit) {
			os.Exit(exit.code)
		}
		slog.Error("command execution failed", "error", err)
		os.Exit(1)
	}
}

// buildRootCmd creates the root command with all subcommands attached.
// This is separated from main() to facilitate testing.
func buildRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "computex",
		Short: "computex - computer-use actions for X11 desktops",
		Long: `computex turns computer-use tool calls into xdotool and ImageMagick invocations.

Coordinates are given in a 1280x720 logical viewport and scaled to the real
display. Destructive key combinations require explicit confirmation.

Supported actions: computer_screenshot, computer_click, computer_drag,
computer_scroll, computer_type, computer_key`,
		Version: versionString(),
		// SilenceUsage prevents printing usage on every error.
		SilenceUsage: true,
		// Errors are logged by main; exit codes are carried by exitError.
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&opts.configPath, "config", "c", "",
		"Path to configuration file (or set COMPUTEX_CONFIG)")
	flags.BoolVar(&opts.gui, "gui", false, "Enable computer-use GUI tools")
	flags.BoolVar(&opts.headless, "headless", false, "Disable computer-use GUI tools")
	flags.StringVar(&opts.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	flags.StringVar(&opts.logFormat, "log-format", "", "Log format: text or json")
	rootCmd.MarkFlagsMutuallyExclusive("gui", "headless")

	rootCmd.AddCommand(
		buildActionCmd(opts),
		buildServeCmd(opts),
		buildDoctorCmd(opts),
		buildSchemaCmd(),
		buildPromptCmd(),
		buildCombosCmd(opts),
		buildVersionCmd(),
	)

	return rootCmd
}

func versionString() string {
	return fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date)
}
