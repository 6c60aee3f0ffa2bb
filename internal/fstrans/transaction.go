// Package fstrans implements transactional staging of filesystem mutations.
//
// A Transaction accumulates a batch of file writes and removals without
// touching the real filesystem. Writes are staged in a private directory and
// every mutation is recorded in an ordered ledger. Committing the outermost
// transaction replays the ledger onto the real paths; rolling back discards
// the staged state and leaves the real filesystem untouched.
package fstrans

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"gitlab.com/stagehand/stagehand/internal/helper/perm"
	"gitlab.com/stagehand/stagehand/internal/log"
)

// ErrInvalidTransactionState is returned when a mutation is attempted
// without an open transaction, or when Commit or Rollback observe a negative
// nesting level. This is always a caller bug and is never retried.
var ErrInvalidTransactionState = errors.New("invalid transaction state")

// ReplayError wraps a filesystem error raised while replaying the ledger
// during Commit. The ledger and staging directory are left intact when it is
// returned, so a retried Commit resumes the replay.
type ReplayError struct {
	// TargetPath is the real path of the operation that failed.
	TargetPath string
	err        error
}

func (e ReplayError) Error() string {
	return fmt.Sprintf("replay %q: %v", e.TargetPath, e.err)
}

func (e ReplayError) Unwrap() error { return e.err }

// Transaction coordinates a batch of staged filesystem mutations applied
// all-or-nothing at commit time.
//
// Open, Commit and Rollback form a critical section guarded by a mutex and
// nest reentrantly: only the Commit returning the nesting level to zero
// replays the ledger. The read accessors Resolve, Exists, IsDir and ReadFile
// are unsynchronized; callers sharing one Transaction across goroutines must
// provide their own ordering. A Transaction owns at most one live staging
// directory at a time and is not safe against another process, or another
// Transaction, operating on overlapping paths.
type Transaction struct {
	mu sync.Mutex

	// level counts unmatched Open calls. The ledger is replayed only on the
	// transition back to zero, and the level is never allowed to go negative.
	level int

	// stagingDir is the private directory holding staged content. It is
	// created lazily on the first Open and owned exclusively by the live
	// transaction.
	stagingDir string
	// stagingDirInjected is set when the staging directory was supplied at
	// construction instead of being allocated from the platform temporary
	// directory.
	stagingDirInjected bool

	ops    operations
	logger log.Logger
}

type transactionCfg struct {
	stagingDir string
	logger     log.Logger
}

// Option configures a Transaction at construction.
type Option func(*transactionCfg)

// WithStagingDir makes the transaction stage content under the given
// pre-existing directory instead of allocating one from the platform
// temporary directory. The directory is created when missing and removed
// when the transaction is discarded.
func WithStagingDir(path string) Option {
	return func(cfg *transactionCfg) {
		cfg.stagingDir = path
	}
}

// WithLogger sets the logger used for transaction lifecycle events.
func WithLogger(logger log.Logger) Option {
	return func(cfg *transactionCfg) {
		cfg.logger = logger
	}
}

// New returns a Transaction ready to be opened.
func New(options ...Option) *Transaction {
	var cfg transactionCfg
	for _, apply := range options {
		apply(&cfg)
	}

	logger := cfg.logger
	if logger == nil {
		logger = log.Discard()
	}

	return &Transaction{
		stagingDir:         cfg.stagingDir,
		stagingDirInjected: cfg.stagingDir != "",
		logger:             logger.WithField("transaction_id", uuid.New().String()),
	}
}

// Open starts a new transaction context. Nested calls only increment the
// nesting level; the first call allocates the staging directory and resets
// the ledger.
func (t *Transaction) Open() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.level == 0 {
		if err := t.createStagingDir(); err != nil {
			return fmt.Errorf("create staging directory: %w", err)
		}
		t.ops = nil
	}
	t.level++

	t.logger.WithFields(log.Fields{
		"level":       t.level,
		"staging_dir": t.stagingDir,
	}).Debug("transaction opened")

	return nil
}

func (t *Transaction) createStagingDir() error {
	if t.stagingDirInjected {
		return os.MkdirAll(t.stagingDir, perm.PrivateDir)
	}

	dir, err := os.MkdirTemp("", "stagehand-")
	if err != nil {
		return err
	}
	t.stagingDir = dir

	return nil
}

// StagedPath virtualizes targetPath into the staging directory, records a
// pending write for it and returns the staging path. The caller can stream
// content directly into the returned path instead of buffering it in memory;
// parent directories are created so the path is immediately writable.
// Staging without an open transaction returns ErrInvalidTransactionState.
func (t *Transaction) StagedPath(targetPath string) (string, error) {
	if t.level == 0 {
		return "", fmt.Errorf("staging %q: %w", targetPath, ErrInvalidTransactionState)
	}

	stagingPath := virtualPath(t.stagingDir, targetPath)

	if err := os.MkdirAll(filepath.Dir(stagingPath), perm.PrivateDir); err != nil {
		return "", fmt.Errorf("create staging parent: %w", err)
	}

	t.ops.stageWrite(stagingPath, targetPath)
	stagedOperationsTotal.WithLabelValues("write").Inc()

	return stagingPath, nil
}

// Write stages content for targetPath and records a pending write. Staging
// the same target again overwrites the earlier staged content.
func (t *Transaction) Write(targetPath string, content []byte) error {
	stagingPath, err := t.StagedPath(targetPath)
	if err != nil {
		return err
	}

	if err := os.WriteFile(stagingPath, content, perm.SharedFile); err != nil {
		return fmt.Errorf("stage %q: %w", targetPath, err)
	}

	return nil
}

// Remove records targetPath for deletion at commit time, recursively if
// requested. Nothing is touched on disk until the ledger is replayed.
// Removing without an open transaction returns ErrInvalidTransactionState.
func (t *Transaction) Remove(targetPath string, recursive bool) error {
	if t.level == 0 {
		return fmt.Errorf("removing %q: %w", targetPath, ErrInvalidTransactionState)
	}

	t.ops.remove(targetPath, recursive)
	stagedOperationsTotal.WithLabelValues("remove").Inc()

	return nil
}

// RemoveImmediate deletes the tree at path synchronously, bypassing the
// ledger. The staged copy is preferred when present so the removal is
// visible within the transaction before commit. An absent target is a no-op.
func (t *Transaction) RemoveImmediate(path string) error {
	return os.RemoveAll(t.Resolve(path))
}

// Resolve returns the staging path of targetPath when a staged copy exists,
// and targetPath itself otherwise. This gives read-your-writes visibility of
// uncommitted changes within the transaction.
func (t *Transaction) Resolve(targetPath string) string {
	if t.stagingDir == "" {
		return targetPath
	}

	stagingPath := virtualPath(t.stagingDir, targetPath)
	if _, err := os.Stat(stagingPath); err == nil {
		return stagingPath
	}

	return targetPath
}

// Exists reports whether targetPath exists, staged or real.
func (t *Transaction) Exists(targetPath string) bool {
	_, err := os.Stat(t.Resolve(targetPath))
	return err == nil
}

// IsDir reports whether targetPath refers to a directory, staged or real.
func (t *Transaction) IsDir(targetPath string) bool {
	info, err := os.Stat(t.Resolve(targetPath))
	return err == nil && info.IsDir()
}

// ReadFile reads targetPath through Resolve, returning staged content when
// present.
func (t *Transaction) ReadFile(targetPath string) ([]byte, error) {
	return os.ReadFile(t.Resolve(targetPath))
}

// Commit finalizes one level of the transaction. A nested commit only
// decrements the nesting level; the commit returning the level to zero
// replays the ledger onto the real filesystem and then discards the staging
// directory. Committing with no open transaction is a no-op.
//
// When the replay fails, the error propagates and the ledger, staging
// directory and nesting level are left intact: the replay is idempotent, so
// a retried Commit resumes where the failed one stopped.
func (t *Transaction) Commit() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch {
	case t.level < 0:
		return ErrInvalidTransactionState
	case t.level == 0:
		return nil
	case t.level > 1:
		t.level--
		t.logger.WithField("level", t.level).Debug("nested transaction committed")
		return nil
	}

	if err := t.replay(); err != nil {
		replayFailuresTotal.Inc()
		t.logger.WithError(err).Error("transaction replay failed")
		return err
	}

	t.level = 0
	commitsTotal.Inc()
	t.logger.WithField("operations", len(t.ops)).Info("transaction committed")

	return t.discard()
}

// Rollback aborts the entire transaction irrespective of nesting depth: the
// staging directory and ledger are discarded and the nesting level is forced
// back to zero. Rolling back with no open transaction is a no-op.
func (t *Transaction) Rollback() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch {
	case t.level < 0:
		return ErrInvalidTransactionState
	case t.level == 0:
		return nil
	}

	t.level = 0
	rollbacksTotal.Inc()
	t.logger.Info("transaction rolled back")

	return t.discard()
}

// discard drops the ledger and removes the staging directory. A
// non-injected staging directory is cleared so the next Open allocates a
// fresh one.
func (t *Transaction) discard() error {
	t.ops = nil

	dir := t.stagingDir
	if !t.stagingDirInjected {
		t.stagingDir = ""
	}
	if dir == "" {
		return nil
	}

	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("discard staging directory: %w", err)
	}

	return nil
}
