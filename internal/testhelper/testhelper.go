// Package testhelper provides shared helpers for the stagehand test suite.
package testhelper

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"gitlab.com/stagehand/stagehand/internal/log"
)

// Run sets up the test suite, executes it and verifies no goroutines were
// leaked. Call it from TestMain.
func Run(m *testing.M) {
	code := m.Run()

	if code == 0 {
		if err := goleak.Find(); err != nil {
			fmt.Fprintf(os.Stderr, "goleak: %v\n", err)
			code = 1
		}
	}

	os.Exit(code)
}

// NewLogger returns a logger for use in tests. It logs to stdout when tests
// run with `-v` and discards everything otherwise.
func NewLogger(tb testing.TB) log.Logger {
	logger := logrus.New()
	logger.Out = os.Stdout
	if !testing.Verbose() {
		return log.Discard()
	}

	return log.FromLogrusEntry(logrus.NewEntry(logger))
}

// MustReadFile returns the content of the file at the given path.
func MustReadFile(tb testing.TB, path string) []byte {
	tb.Helper()

	content, err := os.ReadFile(path)
	require.NoError(tb, err)

	return content
}

// MustWriteFile writes content to the file at the given path, creating
// parent directories as needed.
func MustWriteFile(tb testing.TB, path string, content []byte) {
	tb.Helper()

	require.NoError(tb, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(tb, os.WriteFile(path, content, 0o644))
}
