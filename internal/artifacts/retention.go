// Package artifacts manages screenshot files left behind by the capture action.
package artifacts

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/haasonsaas/computex/internal/observability"
)

// Pruner deletes captures in Dir whose names start with Prefix and whose
// modification time is older than MaxAge.
type Pruner struct {
	Dir    string
	Prefix string
	MaxAge time.Duration

	now func() time.Time
}

// NewPruner creates a pruner for one screenshot directory.
func NewPruner(dir, prefix string, maxAge time.Duration) *Pruner {
	return &Pruner{Dir: dir, Prefix: prefix, MaxAge: maxAge, now: time.Now}
}

// PruneExpired removes expired captures and returns how many were deleted.
// Files that vanish between listing and removal are not errors.
func (p *Pruner) PruneExpired(ctx context.Context) (int, error) {
	if p.MaxAge <= 0 || p.Prefix == "" {
		return 0, nil
	}
	entries, err := os.ReadDir(p.Dir)
	if err != nil {
		return 0, fmt.Errorf("list screenshots: %w", err)
	}

	cutoff := p.now().Add(-p.MaxAge)
	var (
		pruned int
		errs   []error
	)
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return pruned, err
		}
		if !entry.Type().IsRegular() || !strings.HasPrefix(entry.Name(), p.Prefix) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			errs = append(errs, err)
			continue
		}
		if !info.ModTime().Before(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(p.Dir, entry.Name())); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, err)
			continue
		}
		pruned++
	}
	return pruned, errors.Join(errs...)
}

// CleanupService periodically prunes expired screenshots.
type CleanupService struct {
	pruner   *Pruner
	interval time.Duration
	logger   *observability.Logger
	stopCh   chan struct{}
}

// NewCleanupService creates a cleanup service.
func NewCleanupService(pruner *Pruner, interval time.Duration, logger *observability.Logger) *CleanupService {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	if logger == nil {
		logger = observability.NopLogger()
	}
	return &CleanupService{
		pruner:   pruner,
		interval: interval,
		logger:   logger,
		stopCh:   make(chan struct{}),
	}
}

// Start prunes once per interval until the context is cancelled or Stop is
// called.
func (s *CleanupService) Start(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info(ctx, "screenshot cleanup started",
		"dir", s.pruner.Dir,
		"max_age", s.pruner.MaxAge,
		"interval", s.interval,
	)

	for {
		select {
		case <-ctx.Done():
			s.logger.Debug(ctx, "screenshot cleanup stopping (context)")
			return
		case <-s.stopCh:
			s.logger.Debug(ctx, "screenshot cleanup stopping (signal)")
			return
		case <-ticker.C:
			s.Prune(ctx)
		}
	}
}

// Stop signals the cleanup service to stop.
func (s *CleanupService) Stop() {
	close(s.stopCh)
}

// Prune runs a single pass and logs its outcome.
func (s *CleanupService) Prune(ctx context.Context) {
	count, err := s.pruner.PruneExpired(ctx)
	if err != nil && ctx.Err() == nil {
		s.logger.Error(ctx, "screenshot cleanup failed", "error", err)
	}
	if count > 0 {
		s.logger.Info(ctx, "screenshot cleanup completed", "pruned", count)
	}
}
