// Package janitor removes stale report files from the scan directory.
package janitor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
)

const reportPattern = "*.txt"

type Janitor struct {
	logger zerolog.Logger
	dir    string
	maxAge time.Duration
	now    func() time.Time
}

func New(logger zerolog.Logger, dir string, maxAge time.Duration) *Janitor {
	return &Janitor{
		logger: logger.With().Str("component", "janitor").Logger(),
		dir:    dir,
		maxAge: maxAge,
		now:    time.Now,
	}
}

// EnsureDir creates the scan directory if it does not exist yet.
func EnsureDir(dir string) error {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("failed to create scan directory: %w", err)
	}
	return nil
}

// Sweep deletes report files older than maxAge and returns how many were removed.
// A file that cannot be removed does not stop the sweep.
func (j *Janitor) Sweep() (int, error) {
	matches, err := filepath.Glob(filepath.Join(j.dir, reportPattern))
	if err != nil {
		return 0, err
	}

	cutoff := j.now().Add(-j.maxAge)
	removed := 0
	var errs []error
	for _, path := range matches {
		info, err := os.Lstat(path)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		if !info.ModTime().Before(cutoff) {
			continue
		}
		if err := os.Remove(path); err != nil {
			errs = append(errs, err)
			continue
		}
		removed++
	}

	return removed, errors.Join(errs...)
}

// Run sweeps immediately and then every interval until ctx is done.
func (j *Janitor) Run(ctx context.Context, interval time.Duration) {
	j.sweepAndLog()
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			j.sweepAndLog()
		}
	}
}

func (j *Janitor) sweepAndLog() {
	removed, err := j.Sweep()
	if err != nil {
		j.logger.Warn().Err(err).Msg("Failed to cleanup temp files")
	}
	if removed > 0 {
		j.logger.Info().Int("removed", removed).Msgf("Removed stale files from %s", j.dir)
	}
}
