package fstrans

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"gitlab.com/stagehand/stagehand/internal/testhelper"
)

func TestTransactionCommitAppliesWrites(t *testing.T) {
	t.Parallel()

	targetRoot := t.TempDir()
	targetPath := filepath.Join(targetRoot, "plugins", "example", "plugin.py")

	tx := New(WithLogger(testhelper.NewLogger(t)))
	require.NoError(t, tx.Open())
	require.NoError(t, tx.Write(targetPath, []byte("content")))

	// Nothing is applied before commit.
	require.NoFileExists(t, targetPath)

	require.NoError(t, tx.Commit())

	// After commit the staged copy is gone, so Resolve returns the real
	// path, and the content has been applied.
	require.Equal(t, targetPath, tx.Resolve(targetPath))
	require.Equal(t, []byte("content"), testhelper.MustReadFile(t, targetPath))
}

func TestTransactionRollbackLeavesFilesystemUntouched(t *testing.T) {
	t.Parallel()

	targetRoot := t.TempDir()
	existingPath := filepath.Join(targetRoot, "existing")
	testhelper.MustWriteFile(t, existingPath, []byte("pre-existing"))

	tx := New(WithLogger(testhelper.NewLogger(t)))
	require.NoError(t, tx.Open())
	require.NoError(t, tx.Write(filepath.Join(targetRoot, "new"), []byte("staged")))
	require.NoError(t, tx.Remove(existingPath, false))
	require.NoError(t, tx.Remove(filepath.Join(targetRoot, "whatever"), true))

	require.NoError(t, tx.Rollback())

	testhelper.RequireDirectoryState(t, targetRoot, testhelper.DirectoryState{
		"/":         {},
		"/existing": {Content: []byte("pre-existing")},
	})
}

func TestTransactionNestedCommit(t *testing.T) {
	t.Parallel()

	targetRoot := t.TempDir()
	targetPath := filepath.Join(targetRoot, "file")

	tx := New(WithLogger(testhelper.NewLogger(t)))
	require.NoError(t, tx.Open())
	require.NoError(t, tx.Open())
	require.NoError(t, tx.Write(targetPath, []byte("content")))

	// The inner commit must not touch the real filesystem.
	require.NoError(t, tx.Commit())
	require.NoFileExists(t, targetPath)

	// The outer commit replays the ledger.
	require.NoError(t, tx.Commit())
	require.Equal(t, []byte("content"), testhelper.MustReadFile(t, targetPath))
}

func TestTransactionRollbackUnwindsNesting(t *testing.T) {
	t.Parallel()

	targetRoot := t.TempDir()
	targetPath := filepath.Join(targetRoot, "file")

	tx := New(WithLogger(testhelper.NewLogger(t)))
	require.NoError(t, tx.Open())
	require.NoError(t, tx.Open())
	require.NoError(t, tx.Write(targetPath, []byte("content")))

	// Rollback aborts the whole transaction irrespective of nesting depth.
	require.NoError(t, tx.Rollback())

	// The following commit has no transaction left to finalize.
	require.NoError(t, tx.Commit())
	require.NoFileExists(t, targetPath)
}

func TestTransactionCommitWithoutTransaction(t *testing.T) {
	t.Parallel()

	tx := New(WithLogger(testhelper.NewLogger(t)))

	// Neither commit nor rollback have anything to do at level zero.
	require.NoError(t, tx.Commit())
	require.NoError(t, tx.Rollback())

	require.NoError(t, tx.Open())
	require.NoError(t, tx.Commit())

	// Committing again immediately after a successful commit is a no-op,
	// not an error.
	require.NoError(t, tx.Commit())
}

func TestTransactionMutationsRequireOpenTransaction(t *testing.T) {
	t.Parallel()

	targetPath := filepath.Join(t.TempDir(), "plugins", "file")

	tx := New(WithLogger(testhelper.NewLogger(t)))

	// Staging without an open transaction must fault instead of writing
	// through to the real path.
	_, err := tx.StagedPath(targetPath)
	require.ErrorIs(t, err, ErrInvalidTransactionState)
	require.ErrorIs(t, tx.Write(targetPath, []byte("leaked")), ErrInvalidTransactionState)
	require.ErrorIs(t, tx.Remove(targetPath, false), ErrInvalidTransactionState)
	require.NoFileExists(t, targetPath)

	// The same holds once a commit has returned the transaction to level
	// zero.
	require.NoError(t, tx.Open())
	require.NoError(t, tx.Commit())
	require.ErrorIs(t, tx.Write(targetPath, []byte("leaked")), ErrInvalidTransactionState)
	require.NoFileExists(t, targetPath)
}

func TestTransactionRemove(t *testing.T) {
	t.Parallel()

	targetRoot := t.TempDir()
	filePath := filepath.Join(targetRoot, "file")
	dirPath := filepath.Join(targetRoot, "dir")
	testhelper.MustWriteFile(t, filePath, []byte("content"))
	testhelper.MustWriteFile(t, filepath.Join(dirPath, "nested"), []byte("nested"))

	tx := New(WithLogger(testhelper.NewLogger(t)))
	require.NoError(t, tx.Open())
	require.NoError(t, tx.Remove(filePath, false))
	require.NoError(t, tx.Remove(dirPath, true))
	// Removing an absent target replays as a silent no-op.
	require.NoError(t, tx.Remove(filepath.Join(targetRoot, "missing"), false))

	// Ledgered removals touch nothing before commit.
	require.FileExists(t, filePath)

	require.NoError(t, tx.Commit())

	testhelper.RequireDirectoryState(t, targetRoot, testhelper.DirectoryState{
		"/": {},
	})
}

func TestTransactionRemoveImmediate(t *testing.T) {
	t.Parallel()

	targetRoot := t.TempDir()
	dirPath := filepath.Join(targetRoot, "dir")
	testhelper.MustWriteFile(t, filepath.Join(dirPath, "file"), []byte("content"))

	tx := New(WithLogger(testhelper.NewLogger(t)))
	require.NoError(t, tx.Open())

	stagedFile := filepath.Join(dirPath, "staged")
	require.NoError(t, tx.Write(stagedFile, []byte("staged")))

	// The staged copy is preferred, so the immediate removal deletes the
	// staged directory and is visible within the transaction right away.
	require.NoError(t, tx.RemoveImmediate(dirPath))
	require.False(t, tx.Exists(stagedFile))
	require.DirExists(t, dirPath)

	require.NoError(t, tx.Rollback())
	require.FileExists(t, filepath.Join(dirPath, "file"))
}

func TestTransactionReadYourWrites(t *testing.T) {
	t.Parallel()

	targetRoot := t.TempDir()
	targetPath := filepath.Join(targetRoot, "dir", "file")

	tx := New(WithLogger(testhelper.NewLogger(t)))
	require.NoError(t, tx.Open())

	require.False(t, tx.Exists(targetPath))
	require.Equal(t, targetPath, tx.Resolve(targetPath))

	require.NoError(t, tx.Write(targetPath, []byte("uncommitted")))

	require.True(t, tx.Exists(targetPath))
	require.True(t, tx.IsDir(filepath.Join(targetRoot, "dir")))
	require.NotEqual(t, targetPath, tx.Resolve(targetPath))

	content, err := tx.ReadFile(targetPath)
	require.NoError(t, err)
	require.Equal(t, []byte("uncommitted"), content)

	require.NoError(t, tx.Rollback())
}

func TestTransactionRestagingOverwrites(t *testing.T) {
	t.Parallel()

	targetRoot := t.TempDir()
	targetPath := filepath.Join(targetRoot, "file")

	tx := New(WithLogger(testhelper.NewLogger(t)))
	require.NoError(t, tx.Open())
	require.NoError(t, tx.Write(targetPath, []byte("first")))
	require.NoError(t, tx.Write(targetPath, []byte("second")))

	// The ledger is not deduplicated, replay just copies the final staged
	// content twice.
	require.Len(t, tx.ops, 2)

	require.NoError(t, tx.Commit())
	require.Equal(t, []byte("second"), testhelper.MustReadFile(t, targetPath))
}

func TestTransactionStagedPathStreaming(t *testing.T) {
	t.Parallel()

	targetRoot := t.TempDir()
	targetPath := filepath.Join(targetRoot, "dir", "streamed")

	tx := New(WithLogger(testhelper.NewLogger(t)))
	require.NoError(t, tx.Open())

	stagingPath, err := tx.StagedPath(targetPath)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(stagingPath, []byte("streamed"), 0o644))

	require.NoError(t, tx.Commit())
	require.Equal(t, []byte("streamed"), testhelper.MustReadFile(t, targetPath))
}

func TestTransactionVanishedStagedSource(t *testing.T) {
	t.Parallel()

	targetRoot := t.TempDir()
	targetPath := filepath.Join(targetRoot, "never-written")

	tx := New(WithLogger(testhelper.NewLogger(t)))
	require.NoError(t, tx.Open())

	// A write whose staged source never materialized replays as a silent
	// no-op.
	_, err := tx.StagedPath(targetPath)
	require.NoError(t, err)

	require.NoError(t, tx.Commit())
	require.NoFileExists(t, targetPath)
}

func TestTransactionCommitRetryAfterReplayError(t *testing.T) {
	t.Parallel()

	targetRoot := t.TempDir()
	blockedDir := filepath.Join(targetRoot, "blocked")
	blockerPath := filepath.Join(blockedDir, "blocker")
	testhelper.MustWriteFile(t, blockerPath, []byte("blocker"))

	appliedPath := filepath.Join(targetRoot, "applied")

	tx := New(WithLogger(testhelper.NewLogger(t)))
	require.NoError(t, tx.Open())
	require.NoError(t, tx.Write(appliedPath, []byte("applied")))
	// A non-recursive removal of a non-empty directory fails during replay.
	require.NoError(t, tx.Remove(blockedDir, false))

	err := tx.Commit()
	var replayErr ReplayError
	require.ErrorAs(t, err, &replayErr)
	require.Equal(t, blockedDir, replayErr.TargetPath)

	// The ledger and staging directory survive the failure.
	require.Len(t, tx.ops, 2)

	// Once the obstacle is gone, the retried commit resumes and succeeds.
	require.NoError(t, os.Remove(blockerPath))
	require.NoError(t, tx.Commit())

	testhelper.RequireDirectoryState(t, targetRoot, testhelper.DirectoryState{
		"/":        {},
		"/applied": {Content: []byte("applied")},
	})
}

func TestTransactionInjectedStagingDir(t *testing.T) {
	t.Parallel()

	stagingDir := filepath.Join(t.TempDir(), "staging")
	targetRoot := t.TempDir()
	targetPath := filepath.Join(targetRoot, "file")

	tx := New(WithStagingDir(stagingDir), WithLogger(testhelper.NewLogger(t)))
	require.NoError(t, tx.Open())
	require.NoError(t, tx.Write(targetPath, []byte("content")))

	// Staged content lives under the injected directory.
	require.DirExists(t, stagingDir)

	require.NoError(t, tx.Commit())

	// Discarding the transaction removed the staging directory; a new
	// transaction recreates it.
	require.NoDirExists(t, stagingDir)
	require.NoError(t, tx.Open())
	require.DirExists(t, stagingDir)
	require.NoError(t, tx.Rollback())
}

func TestTransactionDirectoryWriteReplaysRecursively(t *testing.T) {
	t.Parallel()

	targetRoot := t.TempDir()
	targetDir := filepath.Join(targetRoot, "tree")

	tx := New(WithLogger(testhelper.NewLogger(t)))
	require.NoError(t, tx.Open())

	stagingPath, err := tx.StagedPath(targetDir)
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(filepath.Join(stagingPath, "nested"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(stagingPath, "nested", "file"), []byte("deep"), 0o644))

	require.NoError(t, tx.Commit())

	require.Equal(t, []byte("deep"), testhelper.MustReadFile(t, filepath.Join(targetDir, "nested", "file")))
}
