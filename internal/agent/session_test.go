package agent

import (
	"context"
	"errors"
	"testing"
)

func TestTaskSessionInjectInput(t *testing.T) {
	ctx := context.Background()
	session := NewTaskSession(nil)

	if err := session.InjectInput(ctx, []UserInput{LocalImage("/tmp/a.png")}); !errors.Is(err, ErrNoActiveTask) {
		t.Fatalf("InjectInput() without task = %v, want ErrNoActiveTask", err)
	}

	session.Begin()
	if err := session.InjectInput(ctx, []UserInput{LocalImage("/tmp/a.png")}); err != nil {
		t.Fatalf("InjectInput() error = %v", err)
	}
	inputs := session.End()
	if len(inputs) != 1 || inputs[0].Type != InputLocalImage || inputs[0].Path != "/tmp/a.png" {
		t.Fatalf("unexpected inputs: %+v", inputs)
	}
	if again := session.End(); len(again) != 0 {
		t.Errorf("End() should drain inputs, got %+v", again)
	}
}

func TestTaskSessionSendEvent(t *testing.T) {
	var seen []Event
	session := NewTaskSession(func(e Event) { seen = append(seen, e) })

	session.SendEvent(context.Background(), Event{Type: EventViewImage, CallID: "c1", Path: "/tmp/a.png"})

	if len(seen) != 1 || seen[0].CallID != "c1" {
		t.Fatalf("notify not called: %+v", seen)
	}
	if events := session.Events(); len(events) != 1 || events[0].Type != EventViewImage {
		t.Fatalf("unexpected events: %+v", events)
	}
}

func TestSessionContext(t *testing.T) {
	ctx := context.Background()
	if SessionFromContext(ctx) != nil {
		t.Fatal("expected no session")
	}
	if WithSession(ctx, nil) != ctx {
		t.Error("WithSession(nil) should return ctx unchanged")
	}

	session := NewTaskSession(nil)
	if got := SessionFromContext(WithSession(ctx, session)); got != session {
		t.Errorf("SessionFromContext() = %v, want %v", got, session)
	}
}
