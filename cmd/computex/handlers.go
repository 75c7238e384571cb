package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/haasonsaas/computex/internal/agent"
	"github.com/haasonsaas/computex/internal/computeruse"
	"github.com/haasonsaas/computex/internal/config"
	"github.com/haasonsaas/computex/internal/doctor"
	"github.com/haasonsaas/computex/internal/observability"
)

// =============================================================================
// Action Command Handler
// =============================================================================

// actionOutput is the JSON printed by the action command.
type actionOutput struct {
	CallID  string                   `json:"call_id"`
	Success bool                     `json:"success"`
	Message string                   `json:"message"`
	Output  []computeruse.OutputItem `json:"output,omitempty"`
	Kind    string                   `json:"kind,omitempty"`
}

// runAction handles the action command.
func runAction(cmd *cobra.Command, opts *rootOptions, name, arguments, callID string, timeline bool) error {
	stderr := cmd.ErrOrStderr()
	a, err := newApp(opts, stderr)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	defer a.close(ctx)

	if callID == "" {
		callID = "call_" + uuid.NewString()
	}
	ctx = observability.AddRequestID(ctx, uuid.NewString())

	events := newLineWriter(stderr)
	session := agent.NewTaskSession(func(e agent.Event) { events.write(map[string]any{"event": e}) })
	session.Begin()

	result, handleErr := a.dispatcher.Handle(ctx, computeruse.Request{
		Action:  computeruse.ActionName(name),
		Payload: computeruse.FunctionPayload(arguments),
		CallID:  callID,
		Session: session,
	})
	if inputs := session.End(); len(inputs) > 0 {
		events.write(map[string]any{"call_id": callID, "inputs": inputs})
	}
	if timeline {
		printTimeline(stderr, a.events, callID)
	}

	out := actionOutput{CallID: callID}
	if handleErr != nil {
		actionErr, ok := computeruse.AsActionError(handleErr)
		if !ok {
			return handleErr
		}
		out.Message = actionErr.Message
		out.Kind = string(actionErr.Kind)
		if err := writeJSON(cmd.OutOrStdout(), out); err != nil {
			return err
		}
		return &exitError{code: 1}
	}

	out.Success = result.Success
	out.Message = result.Message
	out.Output = result.Output
	return writeJSON(cmd.OutOrStdout(), out)
}

func printTimeline(w io.Writer, store observability.EventStore, callID string) {
	var events []*observability.Event
	if callID != "" {
		events, _ = store.GetByCallID(callID)
	} else {
		events, _ = store.All()
	}
	fmt.Fprintln(w, observability.FormatTimeline(events))
}

// =============================================================================
// Doctor Command Handler
// =============================================================================

// runDoctor handles the doctor command.
func runDoctor(cmd *cobra.Command, opts *rootOptions, verbose, install bool) error {
	cfg, _, err := loadConfig(opts)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	cu := cfg.ComputerUse

	d := &doctor.Doctor{
		Out:        out,
		DisplayEnv: cu.DisplayEnv,
		Locator:    computeruse.NewPathLocator(cu.ToolOverrides()),
		Runner:     computeruse.NewExecRunner(doctor.VersionProbeTimeout),
		Verbose:    verbose,
		Color:      doctor.ColorEnabled(out),
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if code := d.Run(ctx, install); code != doctor.ExitOK {
		return &exitError{code: code}
	}
	return nil
}

// =============================================================================
// Schema, Prompt and Combos Handlers
// =============================================================================

// runSchema prints one action schema, the config schema, or every action
// schema keyed by name.
func runSchema(cmd *cobra.Command, target string) error {
	out := cmd.OutOrStdout()
	switch target {
	case "":
		all := make(map[string]json.RawMessage, len(computeruse.ActionNames))
		for _, name := range computeruse.ActionNames {
			schema, err := computeruse.Schema(name)
			if err != nil {
				return err
			}
			all[string(name)] = schema
		}
		return writeJSONIndent(out, all)
	case "config":
		schema, err := config.JSONSchema()
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(out, string(schema))
		return err
	default:
		schema, err := computeruse.Schema(computeruse.ActionName(target))
		if err != nil {
			return err
		}
		var buf bytes.Buffer
		if err := json.Indent(&buf, schema, "", "  "); err != nil {
			return err
		}
		_, err = fmt.Fprintln(out, buf.String())
		return err
	}
}

// runPrompt prints the model-facing instructions.
func runPrompt(cmd *cobra.Command) error {
	_, err := fmt.Fprintln(cmd.OutOrStdout(), computeruse.Instructions)
	return err
}

// runCombos lists the confirmation table, including configured extras.
func runCombos(cmd *cobra.Command, opts *rootOptions) error {
	cfg, _, err := loadConfig(opts)
	if err != nil {
		return err
	}
	guard := computeruse.NewComboGuard(cfg.ComputerUse.ExtraDestructiveCombos...)
	out := cmd.OutOrStdout()
	for _, rule := range guard.Rules() {
		fmt.Fprintln(out, strings.Join(rule, "+"))
	}
	return nil
}

// =============================================================================
// Output Helpers
// =============================================================================

func writeJSON(w io.Writer, v any) error {
	return json.NewEncoder(w).Encode(v)
}

func writeJSONIndent(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
