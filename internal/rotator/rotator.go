// Package rotator implements a bounded-size append-only file writer with
// rename-based rotation.
//
// The base path always holds the most recent data. When a write would push
// the active file past its size budget, the retired files shift one slot up
// (base.1 becomes base.2 and so on), the oldest retired file is evicted, the
// active file is renamed to base.1 and a fresh base file is opened.
package rotator

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"gitlab.com/stagehand/stagehand/internal/helper/perm"
)

const (
	// DefaultMaxFileSize bounds the active file before rotation kicks in.
	DefaultMaxFileSize = 1048576
	// DefaultFileCount is the number of retired files kept next to the base
	// file.
	DefaultFileCount = 5
)

// ErrClosed is returned when writing to a Writer that is not open. This is
// always a caller bug.
var ErrClosed = errors.New("rotator: writer is closed")

// Writer appends opaque bytes to the base file, rotating it into a bounded
// history when it would exceed the maximum size. A write is never split
// across two files, so the active file may transiently exceed the maximum
// size by the size of the last write.
//
// Writer is not safe for concurrent use; callers sharing one instance across
// goroutines must synchronize externally.
type Writer struct {
	basePath    string
	maxFileSize int64
	fileCount   int

	file *os.File
	buf  *bufio.Writer
	// size tracks the bytes written to the active file since it was last
	// opened or rotated. It is initialized from the on-disk length so the
	// rotation state survives process restarts.
	size int64
}

// Option configures a Writer at construction.
type Option func(*Writer)

// WithMaxFileSize overrides the size budget of the active file.
func WithMaxFileSize(size int64) Option {
	return func(w *Writer) {
		w.maxFileSize = size
	}
}

// WithFileCount overrides how many retired files are kept.
func WithFileCount(count int) Option {
	return func(w *Writer) {
		w.fileCount = count
	}
}

// NewWriter returns a Writer for the given base path. The writer starts out
// closed; call Open before writing.
func NewWriter(basePath string, options ...Option) *Writer {
	w := &Writer{
		basePath:    basePath,
		maxFileSize: DefaultMaxFileSize,
		fileCount:   DefaultFileCount,
	}
	for _, apply := range options {
		apply(w)
	}

	return w
}

// Open opens or creates the base file in append mode and initializes the
// size counter from the file's current length. Opening an open writer is a
// no-op.
func (w *Writer) Open() error {
	if w.file != nil {
		return nil
	}

	file, err := os.OpenFile(w.basePath, os.O_WRONLY|os.O_CREATE|os.O_APPEND, perm.SharedFile)
	if err != nil {
		return fmt.Errorf("open base file: %w", err)
	}

	size, err := file.Seek(0, io.SeekEnd)
	if err != nil {
		file.Close()
		return fmt.Errorf("seek to end: %w", err)
	}

	w.file = file
	w.buf = bufio.NewWriter(file)
	w.size = size

	return nil
}

// Close flushes and closes the active file. Closing a closed writer is a
// no-op.
func (w *Writer) Close() error {
	if w.file == nil {
		return nil
	}

	err := w.closeFile()
	w.file, w.buf = nil, nil

	return err
}

// IsClosed reports whether the writer has no open file.
func (w *Writer) IsClosed() bool {
	return w.file == nil
}

// Write appends p to the active file, rotating first when the write would
// push it past the maximum size, and flushes. It implements io.Writer.
func (w *Writer) Write(p []byte) (int, error) {
	n, err := w.write(p)
	if err != nil {
		return n, err
	}

	return n, w.buf.Flush()
}

// WriteBuffered appends p like Write but leaves the content buffered. Call
// Flush or Close to make it durable.
func (w *Writer) WriteBuffered(p []byte) (int, error) {
	return w.write(p)
}

// Flush writes any buffered content to the active file.
func (w *Writer) Flush() error {
	if w.file == nil {
		return ErrClosed
	}

	return w.buf.Flush()
}

func (w *Writer) write(p []byte) (int, error) {
	if w.file == nil {
		return 0, ErrClosed
	}

	if w.size+int64(len(p)) > w.maxFileSize {
		if err := w.rotate(); err != nil {
			return 0, fmt.Errorf("rotate: %w", err)
		}
	}

	n, err := w.buf.Write(p)
	w.size += int64(n)
	bytesWrittenTotal.Add(float64(n))

	return n, err
}

// rotate shifts the retired files one slot up, evicting the oldest, retires
// the active file as base.1 and opens a fresh base file. The shift costs
// O(fileCount) renames, acceptable since rotation is rare relative to
// writes.
func (w *Writer) rotate() error {
	for index := w.fileCount; index >= 1; index-- {
		retired := fmt.Sprintf("%s.%d", w.basePath, index)

		if _, err := os.Stat(retired); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("stat retired file: %w", err)
		}

		if index < w.fileCount {
			if err := os.Rename(retired, fmt.Sprintf("%s.%d", w.basePath, index+1)); err != nil {
				return fmt.Errorf("shift retired file: %w", err)
			}
			continue
		}

		if err := os.Remove(retired); err != nil {
			return fmt.Errorf("evict oldest retired file: %w", err)
		}
	}

	if err := w.closeFile(); err != nil {
		return err
	}
	w.file, w.buf = nil, nil

	if err := os.Rename(w.basePath, w.basePath+".1"); err != nil {
		return fmt.Errorf("retire active file: %w", err)
	}

	rotationsTotal.Inc()

	return w.Open()
}

func (w *Writer) closeFile() error {
	if err := w.buf.Flush(); err != nil {
		w.file.Close()
		return fmt.Errorf("flush: %w", err)
	}

	if err := w.file.Close(); err != nil {
		return fmt.Errorf("close: %w", err)
	}

	return nil
}
