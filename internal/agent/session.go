package agent

import (
	"context"
	"errors"
	"sync"
)

// ErrNoActiveTask is returned when input is injected with no task running.
var ErrNoActiveTask = errors.New("no active task")

// InputType identifies the kind of a UserInput.
type InputType string

const (
	InputText       InputType = "text"
	InputLocalImage InputType = "local_image"
)

// UserInput is content appended to the running task as if the user sent it.
type UserInput struct {
	Type InputType `json:"type"`
	Text string    `json:"text,omitempty"`
	Path string    `json:"path,omitempty"`
}

// LocalImage returns an input referencing an image file on disk.
func LocalImage(path string) UserInput {
	return UserInput{Type: InputLocalImage, Path: path}
}

// EventType identifies session events.
type EventType string

// EventViewImage announces that a tool call produced an image for the model.
const EventViewImage EventType = "view_image_tool_call"

// Event is emitted to the session's observers.
type Event struct {
	Type   EventType `json:"type"`
	CallID string    `json:"call_id,omitempty"`
	Path   string    `json:"path,omitempty"`
}

// Session is the host-side conversation a tool runs within.
type Session interface {
	// InjectInput appends inputs to the active task.
	InjectInput(ctx context.Context, inputs []UserInput) error

	// SendEvent publishes an event to observers of the session.
	SendEvent(ctx context.Context, event Event)
}

// TaskSession is an in-memory Session. Input is accepted only while a task
// is active.
type TaskSession struct {
	mu     sync.Mutex
	active bool
	inputs []UserInput
	events []Event
	notify func(Event)
}

// NewTaskSession creates a session. notify, if non-nil, receives every event
// sent to the session.
func NewTaskSession(notify func(Event)) *TaskSession {
	return &TaskSession{notify: notify}
}

// Begin marks a task active.
func (s *TaskSession) Begin() {
	s.mu.Lock()
	s.active = true
	s.mu.Unlock()
}

// End marks the task finished and returns the input injected during it.
func (s *TaskSession) End() []UserInput {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = false
	inputs := s.inputs
	s.inputs = nil
	return inputs
}

// InjectInput implements Session.
func (s *TaskSession) InjectInput(_ context.Context, inputs []UserInput) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active {
		return ErrNoActiveTask
	}
	s.inputs = append(s.inputs, inputs...)
	return nil
}

// SendEvent implements Session.
func (s *TaskSession) SendEvent(_ context.Context, event Event) {
	s.mu.Lock()
	s.events = append(s.events, event)
	notify := s.notify
	s.mu.Unlock()
	if notify != nil {
		notify(event)
	}
}

// Events returns a copy of every event sent so far.
func (s *TaskSession) Events() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Event(nil), s.events...)
}

type sessionKey struct{}

// WithSession stores the session in context for tool execution.
func WithSession(ctx context.Context, session Session) context.Context {
	if session == nil {
		return ctx
	}
	return context.WithValue(ctx, sessionKey{}, session)
}

// SessionFromContext retrieves the session from context.
func SessionFromContext(ctx context.Context) Session {
	session, ok := ctx.Value(sessionKey{}).(Session)
	if !ok {
		return nil
	}
	return session
}
