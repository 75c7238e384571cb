package observability

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// EventType categorizes events for filtering and display.
type EventType string

const (
	EventTypeActionStart  EventType = "action.start"
	EventTypeActionEnd    EventType = "action.end"
	EventTypeActionError  EventType = "action.error"
	EventTypeProcessRun   EventType = "process.run"
	EventTypeComboBlocked EventType = "combo.blocked"
	EventTypeViewImage    EventType = "view_image"
)

// Event represents a single entry in the action timeline.
type Event struct {
	ID        string         `json:"id"`
	Type      EventType      `json:"type"`
	Timestamp time.Time      `json:"timestamp"`
	RequestID string         `json:"request_id,omitempty"`
	CallID    string         `json:"call_id,omitempty"`
	Name      string         `json:"name,omitempty"`
	Data      map[string]any `json:"data,omitempty"`
	Duration  time.Duration  `json:"duration_ns,omitempty"`
	Error     string         `json:"error,omitempty"`
	TraceID   string         `json:"trace_id,omitempty"`
}

// EventStore stores and retrieves events.
type EventStore interface {
	// Record stores an event.
	Record(event *Event) error

	// GetByCallID returns all events for a tool call, oldest first.
	GetByCallID(callID string) ([]*Event, error)

	// GetByType returns events of a specific type, most recent first.
	GetByType(eventType EventType, limit int) ([]*Event, error)

	// All returns every stored event, oldest first.
	All() ([]*Event, error)
}

// MemoryEventStore is a bounded in-memory EventStore. When full, the oldest
// tenth of its events is evicted.
type MemoryEventStore struct {
	mu       sync.RWMutex
	events   map[string]*Event
	byCallID map[string][]string
	maxSize  int
}

// NewMemoryEventStore creates a new in-memory event store.
func NewMemoryEventStore(maxSize int) *MemoryEventStore {
	if maxSize <= 0 {
		maxSize = 10000
	}
	return &MemoryEventStore{
		events:   make(map[string]*Event),
		byCallID: make(map[string][]string),
		maxSize:  maxSize,
	}
}

func (s *MemoryEventStore) Record(event *Event) error {
	if event == nil {
		return errors.New("event cannot be nil")
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.events) >= s.maxSize {
		s.evictOldest()
	}
	s.events[event.ID] = event
	if event.CallID != "" {
		s.byCallID[event.CallID] = append(s.byCallID[event.CallID], event.ID)
	}
	return nil
}

func (s *MemoryEventStore) GetByCallID(callID string) ([]*Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.byCallID[callID]
	events := make([]*Event, 0, len(ids))
	for _, id := range ids {
		if e, ok := s.events[id]; ok {
			events = append(events, e)
		}
	}
	sortOldestFirst(events)
	return events, nil
}

func (s *MemoryEventStore) GetByType(eventType EventType, limit int) ([]*Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var events []*Event
	for _, e := range s.events {
		if e.Type == eventType {
			events = append(events, e)
		}
	}
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Timestamp.After(events[j].Timestamp)
	})
	if limit > 0 && len(events) > limit {
		events = events[:limit]
	}
	return events, nil
}

func (s *MemoryEventStore) All() ([]*Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	events := make([]*Event, 0, len(s.events))
	for _, e := range s.events {
		events = append(events, e)
	}
	sortOldestFirst(events)
	return events, nil
}

// evictOldest must be called with the write lock held.
func (s *MemoryEventStore) evictOldest() {
	toRemove := s.maxSize / 10
	if toRemove < 1 {
		toRemove = 1
	}

	events := make([]*Event, 0, len(s.events))
	for _, e := range s.events {
		events = append(events, e)
	}
	sortOldestFirst(events)

	for i := 0; i < toRemove && i < len(events); i++ {
		delete(s.events, events[i].ID)
	}
	for callID, ids := range s.byCallID {
		remaining := ids[:0]
		for _, id := range ids {
			if _, ok := s.events[id]; ok {
				remaining = append(remaining, id)
			}
		}
		if len(remaining) == 0 {
			delete(s.byCallID, callID)
		} else {
			s.byCallID[callID] = remaining
		}
	}
}

func sortOldestFirst(events []*Event) {
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Timestamp.Before(events[j].Timestamp)
	})
}

// EventRecorder records events, pulling correlation ids from context.
type EventRecorder struct {
	store  EventStore
	logger *Logger
}

// NewEventRecorder creates a new event recorder.
func NewEventRecorder(store EventStore, logger *Logger) *EventRecorder {
	return &EventRecorder{store: store, logger: logger}
}

// Store returns the underlying store.
func (r *EventRecorder) Store() EventStore {
	return r.store
}

// Record records an event.
func (r *EventRecorder) Record(ctx context.Context, eventType EventType, name string, data map[string]any) error {
	return r.record(ctx, eventType, name, 0, nil, data)
}

// RecordError records an error event.
func (r *EventRecorder) RecordError(ctx context.Context, eventType EventType, name string, err error, data map[string]any) error {
	return r.record(ctx, eventType, name, 0, err, data)
}

// RecordActionEnd records the completion of an action, as an error event
// when err is non-nil.
func (r *EventRecorder) RecordActionEnd(ctx context.Context, action string, duration time.Duration, message string, err error) error {
	data := map[string]any{"duration_ms": duration.Milliseconds()}
	if err != nil {
		return r.record(ctx, EventTypeActionError, action, duration, err, data)
	}
	data["message"] = message
	return r.record(ctx, EventTypeActionEnd, action, duration, nil, data)
}

func (r *EventRecorder) record(ctx context.Context, eventType EventType, name string, duration time.Duration, err error, data map[string]any) error {
	if r == nil || r.store == nil {
		return nil
	}
	event := &Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Timestamp: time.Now(),
		RequestID: GetRequestID(ctx),
		CallID:    GetCallID(ctx),
		Name:      name,
		Data:      data,
		Duration:  duration,
		TraceID:   GetTraceID(ctx),
	}
	if err != nil {
		event.Error = err.Error()
	}

	if r.logger != nil {
		r.logger.Debug(ctx, "event recorded",
			"event_type", string(eventType),
			"event_name", name,
			"event_id", event.ID,
		)
	}
	return r.store.Record(event)
}

// TimelineSummary provides aggregate statistics for a set of events.
type TimelineSummary struct {
	TotalEvents   int `json:"total_events"`
	ErrorCount    int `json:"error_count"`
	Actions       int `json:"actions"`
	Processes     int `json:"processes"`
	BlockedCombos int `json:"blocked_combos"`
}

// Summarize computes aggregate statistics for events.
func Summarize(events []*Event) TimelineSummary {
	summary := TimelineSummary{TotalEvents: len(events)}
	for _, e := range events {
		if e.Error != "" {
			summary.ErrorCount++
		}
		switch e.Type {
		case EventTypeActionStart:
			summary.Actions++
		case EventTypeProcessRun:
			summary.Processes++
		case EventTypeComboBlocked:
			summary.BlockedCombos++
		}
	}
	return summary
}

// FormatTimeline renders events as a tree for terminal display.
func FormatTimeline(events []*Event) string {
	if len(events) == 0 {
		return "No events recorded"
	}
	sorted := append([]*Event(nil), events...)
	sortOldestFirst(sorted)
	summary := Summarize(sorted)

	var b strings.Builder
	fmt.Fprintf(&b, "Events: %d (Errors: %d)\n", summary.TotalEvents, summary.ErrorCount)
	fmt.Fprintf(&b, "Actions: %d, Processes: %d, Blocked combos: %d\n\n",
		summary.Actions, summary.Processes, summary.BlockedCombos)

	for i, e := range sorted {
		prefix := "├─"
		if i == len(sorted)-1 {
			prefix = "└─"
		}
		fmt.Fprintf(&b, "%s [%s] %s: %s\n", prefix, e.Timestamp.Format("15:04:05.000"), e.Type, e.Name)
		if e.CallID != "" {
			fmt.Fprintf(&b, "   Call: %s\n", e.CallID)
		}
		if e.Duration > 0 {
			fmt.Fprintf(&b, "   Duration: %v\n", e.Duration)
		}
		if e.Error != "" {
			fmt.Fprintf(&b, "   Error: %s\n", e.Error)
		}
	}
	return b.String()
}
