// Package dontpanic provides function wrappers and supervisors to ensure
// that wrapped code does not panic and cause program crashes.
//
// When should you use this package? Anytime you are running a function or
// goroutine where it isn't obvious whether it can or can't panic. This may
// be a higher risk in long running goroutines and functions or ones that are
// difficult to test completely.
package dontpanic

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Try will wrap the provided function with a panic recovery and return any
// recovered value.
func Try(fn func()) (recovered any) {
	defer func() {
		recovered = recover()
	}()

	fn()
	return nil
}

// Forever repeatedly runs a function in a goroutine until cancelled, waiting
// the configured backoff between runs. Panics are recovered and logged so a
// crashing iteration never takes the supervisor down with it.
type Forever struct {
	backoff time.Duration
	done    chan struct{}
	once    sync.Once
}

// NewForever returns a Forever supervisor waiting backoff between runs.
func NewForever(backoff time.Duration) *Forever {
	return &Forever{
		backoff: backoff,
		done:    make(chan struct{}),
	}
}

// Go starts running fn until the supervisor is cancelled.
func (f *Forever) Go(fn func()) {
	go func() {
		for {
			if recovered := Try(fn); recovered != nil {
				logrus.WithField("recovered", recovered).Error("dontpanic: recovered from panic")
			}

			select {
			case <-f.done:
				return
			case <-time.After(f.backoff):
			}
		}
	}()
}

// Cancel stops the supervisor. The running iteration, if any, completes
// before the goroutine exits. Cancel is safe to call more than once.
func (f *Forever) Cancel() {
	f.once.Do(func() {
		close(f.done)
	})
}
