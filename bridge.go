// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package intercept

import "sync"

// Executor runs interceptor bodies.
//
// Execute must eventually run fn exactly once. It may run fn on the calling
// goroutine, in which case a synchronous call blocks the caller for the whole
// body and an asynchronous call is released only once the body returns.
type Executor interface {
	Execute(fn func())
}

// ExecutorFunc adapts a function into an Executor.
type ExecutorFunc func(fn func())

// Execute calls f(fn).
func (f ExecutorFunc) Execute(fn func()) { f(fn) }

// goExecutor runs each body on a new goroutine.
type goExecutor struct{}

func (goExecutor) Execute(fn func()) { go fn() }

// spawn starts body through exec and returns its future.
func spawn[T any](exec Executor, body func() (T, error)) *Future[T] {
	f := newFuture[T]()
	exec.Execute(func() { settle(f, body) })
	return f
}

// runSync runs body on a worker and blocks until it has completed or
// faulted. A returned error is passed through as is; a panic is re-raised
// on the calling goroutine with its original value.
func runSync[T any](exec Executor, body func() (T, error)) (T, error) {
	return spawn(exec, body).Wait()
}

// runAsync starts body on a worker and returns its future as soon as
// proceeded is closed or the body finishes, whichever happens first.
// The body keeps running after the caller is released.
func runAsync[T any](exec Executor, proceeded <-chan struct{}, body func() (T, error)) *Future[T] {
	f := spawn(exec, body)
	select {
	case <-proceeded:
	case <-f.done:
	}
	return f
}

// release is the proceed-called signal of one asynchronous call.
type release struct {
	c    chan struct{}
	once sync.Once
}

func newRelease() *release {
	return &release{c: make(chan struct{})}
}

func (r *release) fire() {
	r.once.Do(func() { close(r.c) })
}
