package observability

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestMemoryEventStore(t *testing.T) {
	store := NewMemoryEventStore(100)
	base := time.Now()

	events := []*Event{
		{Type: EventTypeActionStart, CallID: "call-1", Name: "computer_click", Timestamp: base},
		{Type: EventTypeProcessRun, CallID: "call-1", Name: "xdotool", Timestamp: base.Add(time.Millisecond)},
		{Type: EventTypeActionEnd, CallID: "call-1", Name: "computer_click", Timestamp: base.Add(2 * time.Millisecond)},
		{Type: EventTypeActionStart, CallID: "call-2", Name: "computer_key", Timestamp: base.Add(3 * time.Millisecond)},
	}
	for _, e := range events {
		if err := store.Record(e); err != nil {
			t.Fatalf("Record() error = %v", err)
		}
		if e.ID == "" {
			t.Fatal("Record() should assign an id")
		}
	}

	t.Run("by call id", func(t *testing.T) {
		got, err := store.GetByCallID("call-1")
		if err != nil {
			t.Fatal(err)
		}
		if len(got) != 3 {
			t.Fatalf("expected 3 events, got %d", len(got))
		}
		if got[0].Type != EventTypeActionStart || got[2].Type != EventTypeActionEnd {
			t.Errorf("events not in timestamp order: %v, %v", got[0].Type, got[2].Type)
		}
	})

	t.Run("by type most recent first", func(t *testing.T) {
		got, _ := store.GetByType(EventTypeActionStart, 0)
		if len(got) != 2 || got[0].CallID != "call-2" {
			t.Fatalf("unexpected order: %+v", got)
		}
		limited, _ := store.GetByType(EventTypeActionStart, 1)
		if len(limited) != 1 {
			t.Errorf("limit not applied, got %d", len(limited))
		}
	})

	t.Run("nil event", func(t *testing.T) {
		if err := store.Record(nil); err == nil {
			t.Error("expected error for nil event")
		}
	})
}

func TestMemoryEventStoreEviction(t *testing.T) {
	store := NewMemoryEventStore(10)
	base := time.Now()
	for i := 0; i < 15; i++ {
		_ = store.Record(&Event{Type: EventTypeProcessRun, CallID: "c", Timestamp: base.Add(time.Duration(i) * time.Second)})
	}

	all, _ := store.All()
	if len(all) > 10 {
		t.Fatalf("store exceeded max size: %d", len(all))
	}
	byCall, _ := store.GetByCallID("c")
	if len(byCall) != len(all) {
		t.Errorf("call index out of sync: %d vs %d", len(byCall), len(all))
	}
}

func TestEventRecorder(t *testing.T) {
	store := NewMemoryEventStore(0)
	recorder := NewEventRecorder(store, NopLogger())
	ctx := AddCallID(AddRequestID(context.Background(), "req-1"), "call-9")

	if err := recorder.Record(ctx, EventTypeActionStart, "computer_type", nil); err != nil {
		t.Fatal(err)
	}
	if err := recorder.RecordActionEnd(ctx, "computer_type", 5*time.Millisecond, "typed 5 characters", nil); err != nil {
		t.Fatal(err)
	}
	if err := recorder.RecordActionEnd(ctx, "computer_type", time.Millisecond, "", errors.New("failed")); err != nil {
		t.Fatal(err)
	}

	got, _ := store.GetByCallID("call-9")
	if len(got) != 3 {
		t.Fatalf("expected 3 events, got %d", len(got))
	}
	for _, e := range got {
		if e.RequestID != "req-1" {
			t.Errorf("request id not captured: %+v", e)
		}
	}
	errorsOnly, _ := store.GetByType(EventTypeActionError, 0)
	if len(errorsOnly) != 1 || errorsOnly[0].Error != "failed" {
		t.Errorf("unexpected error events: %+v", errorsOnly)
	}
}

func TestNilRecorderIsSafe(t *testing.T) {
	var recorder *EventRecorder
	if err := recorder.Record(context.Background(), EventTypeActionStart, "x", nil); err != nil {
		t.Errorf("nil recorder returned %v", err)
	}
}

func TestFormatTimeline(t *testing.T) {
	if got := FormatTimeline(nil); got != "No events recorded" {
		t.Errorf("empty timeline = %q", got)
	}

	base := time.Now()
	out := FormatTimeline([]*Event{
		{Type: EventTypeActionStart, Name: "computer_key", CallID: "c1", Timestamp: base},
		{Type: EventTypeComboBlocked, Name: "ctrl+w", CallID: "c1", Timestamp: base.Add(time.Millisecond)},
		{Type: EventTypeActionError, Name: "computer_key", Error: "needs confirm", Timestamp: base.Add(2 * time.Millisecond)},
	})
	for _, want := range []string{"Events: 3 (Errors: 1)", "Blocked combos: 1", "combo.blocked: ctrl+w", "Error: needs confirm"} {
		if !strings.Contains(out, want) {
			t.Errorf("timeline missing %q:\n%s", want, out)
		}
	}
}
