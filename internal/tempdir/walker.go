package tempdir

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"gitlab.com/stagehand/stagehand/internal/dontpanic"
	"gitlab.com/stagehand/stagehand/internal/log"
)

// StaleAge is how old a staging directory must be before CleanStale removes
// it. A crashed process leaves at most an orphaned staging directory behind;
// anything older than this cannot belong to a live transaction.
const StaleAge = 7 * 24 * time.Hour

const cleanWalkFrequency = 10 * time.Minute

// CleanStale removes staging directories under root that were last modified
// before the given age. A missing root is a no-op. Removals run concurrently
// and the first error is returned after all of them finish.
func CleanStale(root string, age time.Duration, logger log.Logger) error {
	entries, err := os.ReadDir(root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read staging root: %w", err)
	}

	threshold := time.Now().Add(-age)

	var g errgroup.Group
	for _, entry := range entries {
		if !entry.IsDir() || !strings.HasPrefix(entry.Name(), dirPrefix) {
			continue
		}

		staleCheckTotal.Inc()

		info, err := entry.Info()
		if err != nil {
			// The directory was removed while we walked it.
			continue
		}
		if info.ModTime().After(threshold) {
			continue
		}

		path := filepath.Join(root, entry.Name())
		g.Go(func() error {
			logger.WithField("path", path).Info("removing stale staging directory")
			if err := os.RemoveAll(path); err != nil {
				return fmt.Errorf("remove stale staging directory: %w", err)
			}
			staleRemovalTotal.Inc()
			return nil
		})
	}

	return g.Wait()
}

// StartCleanWalker periodically removes staging directories under root that
// are older than the given age. Cancel the returned supervisor to stop the
// walker.
func StartCleanWalker(root string, age time.Duration, logger log.Logger) *dontpanic.Forever {
	logger.WithField("staging_root", root).Info("starting stale staging directory walker")

	forever := dontpanic.NewForever(cleanWalkFrequency)
	forever.Go(func() {
		if err := CleanStale(root, age, logger); err != nil {
			logger.WithError(err).Error("stale staging directory walk")
		}
	})

	return forever
}
