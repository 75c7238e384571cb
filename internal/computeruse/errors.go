package computeruse

import (
	"errors"
	"fmt"
)

// ErrorKind categorizes action failures. Every kind is recoverable by the
// caller: the message is meant to be shown back to the requesting model.
type ErrorKind string

const (
	KindUnsupportedPlatform     ErrorKind = "unsupported_platform"
	KindDisplayUnavailable      ErrorKind = "display_unavailable"
	KindGUIDisabled             ErrorKind = "gui_disabled"
	KindInvalidPayloadShape     ErrorKind = "invalid_payload_shape"
	KindArgumentParseFailure    ErrorKind = "argument_parse_failure"
	KindUnsupportedButton       ErrorKind = "unsupported_button"
	KindUnsupportedDirection    ErrorKind = "unsupported_direction"
	KindMalformedScrollPosition ErrorKind = "malformed_scroll_position"
	KindToolNotFound            ErrorKind = "tool_not_found"
	KindToolSpawnFailure        ErrorKind = "tool_spawn_failure"
	KindToolNonZeroExit         ErrorKind = "tool_non_zero_exit"
	KindToolTimeout             ErrorKind = "tool_timeout"
	KindInvalidGeometry         ErrorKind = "invalid_geometry"
	KindConfirmationRequired    ErrorKind = "confirmation_required"
	KindUnsupportedAction       ErrorKind = "unsupported_action"
	KindAttachmentFailed        ErrorKind = "attachment_failed"
	KindOutputFileMissing       ErrorKind = "output_file_missing"
)

// ActionError is a tagged failure produced while handling one action.
type ActionError struct {
	// Kind categorizes the failure.
	Kind ErrorKind

	// Action is the action name being handled, when known.
	Action string

	// Message is the model-facing description of the failure.
	Message string

	// Cause is the underlying error, if any.
	Cause error
}

// Error implements the error interface.
func (e *ActionError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Cause != nil {
		return e.Cause.Error()
	}
	return string(e.Kind)
}

// Unwrap returns the underlying error.
func (e *ActionError) Unwrap() error {
	return e.Cause
}

func newError(kind ErrorKind, format string, args ...any) *ActionError {
	return &ActionError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func wrapError(kind ErrorKind, cause error, format string, args ...any) *ActionError {
	return &ActionError{Kind: kind, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// AsActionError extracts an ActionError from an error chain.
func AsActionError(err error) (*ActionError, bool) {
	var actionErr *ActionError
	if errors.As(err, &actionErr) {
		return actionErr, true
	}
	return nil, false
}

// IsKind reports whether err is an ActionError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	actionErr, ok := AsActionError(err)
	return ok && actionErr.Kind == kind
}
