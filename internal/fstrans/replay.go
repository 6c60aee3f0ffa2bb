package fstrans

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
)

// replay applies the ledgered operations to the real filesystem in append
// order. Replaying a write whose staged source has vanished and replaying a
// removal whose target is already absent are silent no-ops: external actors
// may have partially cleaned up already, and the tolerance keeps the replay
// idempotent so an interrupted Commit can be retried.
func (t *Transaction) replay() error {
	for _, op := range t.ops {
		if err := applyOperation(op); err != nil {
			return ReplayError{TargetPath: op.targetPath, err: err}
		}
	}

	return nil
}

func applyOperation(op operation) error {
	switch op.kind {
	case opWrite:
		info, err := os.Stat(op.stagingPath)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			return nil
		case err != nil:
			return fmt.Errorf("stat staged content: %w", err)
		}

		if info.IsDir() {
			if err := copyDirectory(op.stagingPath, op.targetPath); err != nil {
				return fmt.Errorf("copy staged directory: %w", err)
			}
			return nil
		}

		if err := copyFile(op.stagingPath, op.targetPath); err != nil {
			return fmt.Errorf("copy staged file: %w", err)
		}
		return nil
	case opRemove:
		if op.recursive {
			// RemoveAll already treats an absent target as a no-op.
			return os.RemoveAll(op.targetPath)
		}

		if err := os.Remove(op.targetPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
		return nil
	default:
		return fmt.Errorf("unknown operation kind %d", op.kind)
	}
}
