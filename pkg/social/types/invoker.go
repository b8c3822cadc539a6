package types

import "sync"

// Invoker spawns the goroutines that back an actor's mailbox loop and any
// continuations it kicks off. Grounded on the teacher's core.Invoker /
// test.TestInvoker split (pkg/mcast/core/peer.go, test/testing.go): tests
// use a WaitGroup-backed invoker so Stop can block until every spawned
// goroutine has actually exited before a goleak check runs.
type Invoker interface {
	Spawn(f func())
}

// DefaultInvoker spawns bare goroutines, used in production where nothing
// waits for them beyond the actor's own shutdown signaling.
type DefaultInvoker struct{}

func (DefaultInvoker) Spawn(f func()) {
	go f()
}

// WaitGroupInvoker tracks every spawned goroutine so Wait can block until
// all of them finish, matching test.TestInvoker in the teacher so cluster
// shutdown in tests can be verified with goleak.
type WaitGroupInvoker struct {
	group sync.WaitGroup
}

func NewWaitGroupInvoker() *WaitGroupInvoker {
	return &WaitGroupInvoker{}
}

func (w *WaitGroupInvoker) Spawn(f func()) {
	w.group.Add(1)
	go func() {
		defer w.group.Done()
		f()
	}()
}

func (w *WaitGroupInvoker) Wait() {
	w.group.Wait()
}
