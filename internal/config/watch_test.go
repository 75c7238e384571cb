package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWatcherReloadsOnWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "computex.yaml")
	writeFile(t, path, "computer_use:\n  enabled: true\n")

	changes := make(chan *Config, 4)
	errs := make(chan error, 4)
	w, err := NewWatcher(path, 50*time.Millisecond,
		func(cfg *Config) { changes <- cfg },
		func(err error) { errs <- err },
	)
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	writeFile(t, path, "computer_use:\n  extra_destructive_combos:\n    - [ctrl, shift, delete]\n")

	select {
	case cfg := <-changes:
		if len(cfg.ComputerUse.ExtraDestructiveCombos) != 1 {
			t.Fatalf("extra combos = %v", cfg.ComputerUse.ExtraDestructiveCombos)
		}
	case err := <-errs:
		t.Fatalf("unexpected reload error: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for reload")
	}
}

func TestWatcherReportsInvalidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "computex.yaml")
	writeFile(t, path, "logging:\n  level: info\n")

	errs := make(chan error, 4)
	w, err := NewWatcher(path, 50*time.Millisecond,
		func(*Config) { t.Error("invalid config must not be delivered") },
		func(err error) { errs <- err },
	)
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	writeFile(t, path, "logging:\n  level: loud\n")

	select {
	case err := <-errs:
		if err == nil {
			t.Fatal("expected an error")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for reload error")
	}
}

func TestNewWatcherRequiresExistingDir(t *testing.T) {
	if _, err := NewWatcher("", 0, nil, nil); err == nil {
		t.Fatal("expected error for empty path")
	}
	missing := filepath.Join(t.TempDir(), "missing", "computex.yaml")
	if _, err := NewWatcher(missing, 0, nil, nil); err == nil {
		t.Fatal("expected error for missing directory")
	}
	if _, err := os.Stat(filepath.Dir(missing)); !os.IsNotExist(err) {
		t.Fatalf("watcher must not create directories: %v", err)
	}
}
