package testhelper

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// DirectoryEntry models an entry in a directory.
type DirectoryEntry struct {
	// Mode, when non-zero, is asserted against the entry's file mode.
	Mode fs.FileMode
	// Content is the expected content of a regular file.
	Content []byte
}

// DirectoryState models the contents of a directory. The keys are paths
// relative to the walked root, with the root itself stored as "/".
type DirectoryState map[string]DirectoryEntry

// RequireDirectoryState asserts that the given directory matches the
// expected state. The root prefix is trimmed from the walked paths so the
// expected state uses relative paths only, e.g. "/relative/path".
func RequireDirectoryState(tb testing.TB, rootDirectory string, expected DirectoryState) {
	tb.Helper()

	actual := DirectoryState{}
	require.NoError(tb, filepath.WalkDir(rootDirectory, func(path string, entry os.DirEntry, err error) error {
		if os.IsNotExist(err) {
			return nil
		}
		require.NoError(tb, err)

		trimmedPath := strings.TrimPrefix(path, rootDirectory)
		if trimmedPath == "" {
			// Store the walked directory itself as "/". Less confusing than
			// having it be an empty string.
			trimmedPath = string(os.PathSeparator)
		}

		info, err := entry.Info()
		require.NoError(tb, err)

		actualEntry := DirectoryEntry{
			Mode: info.Mode(),
		}

		if entry.Type().IsRegular() {
			content, err := os.ReadFile(path)
			require.NoError(tb, err)

			actualEntry.Content = content
		}

		// Modes are only asserted when the expectation names one: most
		// tests only care about the shape and contents of the tree, and the
		// effective modes depend on the environment's umask.
		if expectedEntry, ok := expected[trimmedPath]; ok && expectedEntry.Mode == 0 {
			actualEntry.Mode = 0
		}

		actual[trimmedPath] = actualEntry
		return nil
	}))

	require.Equal(tb, expected, actual)
}
