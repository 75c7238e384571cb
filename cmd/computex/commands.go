package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// =============================================================================
// Action Command
// =============================================================================

// buildActionCmd creates the "action" command that runs one tool call.
func buildActionCmd(opts *rootOptions) *cobra.Command {
	var (
		callID   string
		timeline bool
	)

	cmd := &cobra.Command{
		Use:   "action <name> [arguments-json]",
		Short: "Run a single computer-use action",
		Long: `Run a single computer-use action and print the result as JSON.

Arguments are the tool call's JSON object; they default to {}. Screenshots are
attached to a task that exists for the duration of the command, and the
attached inputs are printed to stderr.`,
		Example: `  # Click the centre of the logical viewport
  computex action computer_click '{"x":640,"y":360}'

  # Capture the screen
  computex action computer_screenshot

  # Confirm a destructive combo after the user approved it
  computex action computer_key '{"keys":["ctrl","w"],"confirm":true}'`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			arguments := "{}"
			if len(args) == 2 {
				arguments = args[1]
			}
			return runAction(cmd, opts, args[0], arguments, callID, timeline)
		},
	}

	cmd.Flags().StringVar(&callID, "call-id", "", "Tool call id (generated when empty)")
	cmd.Flags().BoolVar(&timeline, "timeline", false, "Print the event timeline to stderr")

	return cmd
}

// =============================================================================
// Serve Command
// =============================================================================

// buildServeCmd creates the "serve" command that answers JSON-line tool calls.
func buildServeCmd(opts *rootOptions) *cobra.Command {
	var (
		metricsAddr string
		parallel    bool
		timeline    bool
		watch       bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve computer-use tool calls over stdin/stdout",
		Long: `Read one JSON request per line from stdin and write one JSON result per line.

Request:  {"call_id":"call_1","action":"computer_click","arguments":{"x":10,"y":20}}
Result:   {"call_id":"call_1","content":"clicked at 15,30","is_error":false}

Session events and attached inputs are written to stderr as JSON lines.
With --parallel, requests run concurrently; GUI-mutating actions still run
one at a time. With --watch-config, edits to extra_destructive_combos take
effect without a restart.

Graceful shutdown is handled on SIGINT/SIGTERM signals.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, opts, serveOptions{
				metricsAddr: metricsAddr,
				parallel:    parallel,
				timeline:    timeline,
				watch:       watch,
			})
		},
	}

	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "",
		"Expose Prometheus metrics at this address (overrides observability.metrics_addr)")
	cmd.Flags().BoolVar(&parallel, "parallel", false, "Handle requests concurrently")
	cmd.Flags().BoolVar(&timeline, "timeline", false, "Print the event timeline to stderr on exit")
	cmd.Flags().BoolVar(&watch, "watch-config", false,
		"Reload extra_destructive_combos when the config file changes")

	return cmd
}

// =============================================================================
// Doctor Command
// =============================================================================

// buildDoctorCmd creates the "doctor" command for dependency checks.
func buildDoctorCmd(opts *rootOptions) *cobra.Command {
	var (
		verbose bool
		install bool
	)

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check computer-use dependencies",
		Long: `Verify the Linux platform, the display variable, xdotool and ImageMagick import.

Exit codes:
  0 - All dependencies satisfied
  1 - Missing dependencies
  2 - Platform not supported`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDoctor(cmd, opts, verbose, install)
		},
	}

	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Show paths and versions")
	cmd.Flags().BoolVar(&install, "install", false,
		"Attempt to install missing dependencies (requires sudo)")

	return cmd
}

// =============================================================================
// Schema and Prompt Commands
// =============================================================================

// buildSchemaCmd creates the "schema" command that prints JSON schemas.
func buildSchemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schema [action|config]",
		Short: "Print tool argument or configuration JSON schemas",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target := ""
			if len(args) == 1 {
				target = args[0]
			}
			return runSchema(cmd, target)
		},
	}
}

// buildPromptCmd creates the "prompt" command that prints model instructions.
func buildPromptCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "prompt",
		Short: "Print the computer-use instructions for a model",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPrompt(cmd)
		},
	}
}

// buildCombosCmd creates the "combos" command that lists guarded key combos.
func buildCombosCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "combos",
		Short: "List key combinations that require confirmation",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCombos(cmd, opts)
		},
	}
}

func buildVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "computex "+versionString())
		},
	}
}
