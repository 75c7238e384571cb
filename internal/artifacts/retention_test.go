package artifacts

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func touch(t *testing.T, path string, mtime time.Time) {
	t.Helper()
	if err := os.WriteFile(path, []byte("png"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.Chtimes(path, mtime, mtime); err != nil {
		t.Fatal(err)
	}
}

func TestPruneExpired(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	touch(t, filepath.Join(dir, "shot-old.png"), now.Add(-2*time.Hour))
	touch(t, filepath.Join(dir, "shot-new.png"), now.Add(-time.Minute))
	touch(t, filepath.Join(dir, "notes-old.txt"), now.Add(-48*time.Hour))
	if err := os.Mkdir(filepath.Join(dir, "shot-dir"), 0o700); err != nil {
		t.Fatal(err)
	}

	p := NewPruner(dir, "shot-", time.Hour)
	p.now = func() time.Time { return now }

	pruned, err := p.PruneExpired(context.Background())
	if err != nil {
		t.Fatalf("PruneExpired() error = %v", err)
	}
	if pruned != 1 {
		t.Fatalf("pruned = %d, want 1", pruned)
	}

	for name, want := range map[string]bool{
		"shot-old.png":  false,
		"shot-new.png":  true,
		"notes-old.txt": true,
		"shot-dir":      true,
	} {
		_, err := os.Stat(filepath.Join(dir, name))
		if exists := err == nil; exists != want {
			t.Errorf("%s exists = %v, want %v", name, exists, want)
		}
	}
}

func TestPruneExpiredDisabled(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "shot-old.png"), time.Now().Add(-24*time.Hour))

	tests := []struct {
		name   string
		prefix string
		maxAge time.Duration
	}{
		{name: "zero max age", prefix: "shot-", maxAge: 0},
		{name: "empty prefix", prefix: "", maxAge: time.Second},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pruned, err := NewPruner(dir, tt.prefix, tt.maxAge).PruneExpired(context.Background())
			if err != nil || pruned != 0 {
				t.Fatalf("PruneExpired() = %d, %v", pruned, err)
			}
		})
	}
}

func TestPruneExpiredMissingDir(t *testing.T) {
	p := NewPruner(filepath.Join(t.TempDir(), "missing"), "shot-", time.Hour)
	if _, err := p.PruneExpired(context.Background()); err == nil {
		t.Fatal("expected error for missing directory")
	}
}

func TestCleanupServicePrune(t *testing.T) {
	dir := t.TempDir()
	old := filepath.Join(dir, "shot-old.png")
	touch(t, old, time.Now().Add(-2*time.Hour))

	svc := NewCleanupService(NewPruner(dir, "shot-", time.Hour), 0, nil)
	if svc.interval != 10*time.Minute {
		t.Errorf("interval = %v, want default", svc.interval)
	}
	svc.Prune(context.Background())
	if _, err := os.Stat(old); !os.IsNotExist(err) {
		t.Fatalf("expired screenshot still present: %v", err)
	}
}

func TestCleanupServicePrunesOnTick(t *testing.T) {
	dir := t.TempDir()
	old := filepath.Join(dir, "shot-old.png")
	touch(t, old, time.Now().Add(-2*time.Hour))

	svc := NewCleanupService(NewPruner(dir, "shot-", time.Hour), 10*time.Millisecond, nil)
	done := make(chan struct{})
	go func() {
		svc.Start(context.Background())
		close(done)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for {
		if _, err := os.Stat(old); os.IsNotExist(err) {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("expired screenshot was not pruned")
		}
		time.Sleep(10 * time.Millisecond)
	}

	svc.Stop()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("cleanup service did not stop")
	}
}
