// Package test holds helpers shared by the end-to-end scenario tests and the
// fuzzy convergence tests, mirroring the teacher's test/testing.go: a
// WaitGroup-backed Invoker so a suite can block until every actor goroutine
// it spawned has actually exited, plus a timeout-guarded wait for shutdown.
package test

import (
	"time"

	"github.com/jabolina/go-social/pkg/social/definition"
	"github.com/jabolina/go-social/pkg/social/types"
)

// NewInvoker returns a WaitGroupInvoker so callers can Wait() for every
// actor spawned during a test to finish before checking for leaked
// goroutines with goleak.
func NewInvoker() *types.WaitGroupInvoker {
	return types.NewWaitGroupInvoker()
}

// NewLogger returns the default logger with debug output off, matching the
// volume the teacher's own tests ran at.
func NewLogger() types.Logger {
	return definition.NewDefaultLogger()
}

// WaitThisOrTimeout runs fn in a goroutine and reports whether it finished
// before d elapsed.
func WaitThisOrTimeout(fn func(), d time.Duration) bool {
	done := make(chan struct{})
	go func() {
		fn()
		close(done)
	}()
	select {
	case <-done:
		return true
	case <-time.After(d):
		return false
	}
}
