// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package intercept

import (
	"context"
	"reflect"
	"runtime/debug"
	"sync"
)

// Awaitable is the type-erased view of a [Task] or a [Future].
// Interceptors return it from asynchronous value-returning calls; the
// router narrows it back to the concrete result type of the method.
type Awaitable interface {
	// Done is closed once the computation has completed or faulted.
	Done() <-chan struct{}

	// Result blocks until completion and returns the erased outcome.
	// A panic captured from the computation is re-raised with its
	// original value.
	Result() (any, error)
}

// fault is a panic recovered from a future body.
type fault struct {
	value any
	stack []byte
}

// Future is the pending result of an asynchronous computation.
// A Future completes exactly once; all methods are safe for concurrent use.
//
// Methods returning *Future[T] are classified as asynchronous with a result
// of type T.
type Future[T any] struct {
	done  chan struct{}
	once  sync.Once
	value T
	err   error
	fault *fault
}

func newFuture[T any]() *Future[T] {
	return &Future[T]{done: make(chan struct{})}
}

// complete resolves f. Later completions are ignored.
func (f *Future[T]) complete(v T, err error) {
	f.once.Do(func() {
		f.value = v
		f.err = err
		close(f.done)
	})
}

// crash faults f with a recovered panic value.
func (f *Future[T]) crash(r any, stack []byte) {
	f.once.Do(func() {
		f.fault = &fault{value: r, stack: stack}
		close(f.done)
	})
}

// settle runs body and completes f with its outcome.
// Panics are recovered into f and re-raised by Wait, Await and Result.
func settle[T any](f *Future[T], body func() (T, error)) {
	returned := false
	defer func() {
		if returned {
			return
		}
		if r := recover(); r != nil {
			f.crash(r, debug.Stack())
			return
		}
		f.crash(errAbandoned, debug.Stack())
	}()
	v, err := body()
	returned = true
	f.complete(v, err)
}

// Done returns a channel closed when f completes.
func (f *Future[T]) Done() <-chan struct{} { return f.done }

// IsCompleted reports whether f has completed or faulted.
func (f *Future[T]) IsCompleted() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// Wait blocks until f completes and returns its outcome.
func (f *Future[T]) Wait() (T, error) {
	<-f.done
	return f.outcome()
}

// Await blocks until f completes or ctx is done.
// When ctx ends first it returns ctx.Err(); the computation keeps running.
func (f *Future[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.outcome()
	default:
	}
	select {
	case <-f.done:
		return f.outcome()
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Result implements [Awaitable].
func (f *Future[T]) Result() (any, error) {
	v, err := f.Wait()
	if err != nil {
		return nil, err
	}
	return v, nil
}

func (f *Future[T]) outcome() (T, error) {
	if f.fault != nil {
		panic(f.fault.value)
	}
	return f.value, f.err
}

func (*Future[T]) futureTypes() (self, result reflect.Type) {
	return reflect.TypeFor[*Future[T]](), reflect.TypeFor[T]()
}

func (*Future[T]) dispatchEntry() entry { return asyncValueEntry[T] }

// Task is the pending completion of an asynchronous computation without a
// result. Methods returning *Task are classified as asynchronous without a
// result.
type Task struct {
	f *Future[struct{}]
}

func taskOf(f *Future[struct{}]) *Task { return &Task{f: f} }

// Done returns a channel closed when t completes.
func (t *Task) Done() <-chan struct{} { return t.f.done }

// IsCompleted reports whether t has completed or faulted.
func (t *Task) IsCompleted() bool { return t.f.IsCompleted() }

// Wait blocks until t completes and returns its error.
func (t *Task) Wait() error {
	_, err := t.f.Wait()
	return err
}

// Await blocks until t completes or ctx is done.
func (t *Task) Await(ctx context.Context) error {
	_, err := t.f.Await(ctx)
	return err
}

// Err returns the error of a completed task, or nil while it is pending.
// A captured panic is re-raised.
func (t *Task) Err() error {
	if !t.f.IsCompleted() {
		return nil
	}
	_, err := t.f.outcome()
	return err
}

// Result implements [Awaitable]. The value is always nil.
func (t *Task) Result() (any, error) {
	return nil, t.Wait()
}

// Go runs fn on a new goroutine and returns its task.
func Go(fn func() error) *Task {
	f := newFuture[struct{}]()
	go settle(f, func() (struct{}, error) { return struct{}{}, fn() })
	return taskOf(f)
}

// GoValue runs fn on a new goroutine and returns its future.
func GoValue[T any](fn func() (T, error)) *Future[T] {
	f := newFuture[T]()
	go settle(f, fn)
	return f
}

// CompletedTask returns a successfully completed task.
func CompletedTask() *Task {
	f := newFuture[struct{}]()
	f.complete(struct{}{}, nil)
	return taskOf(f)
}

// FailedTask returns a task completed with err.
func FailedTask(err error) *Task {
	f := newFuture[struct{}]()
	f.complete(struct{}{}, err)
	return taskOf(f)
}

// FromValue returns a future completed with v.
func FromValue[T any](v T) *Future[T] {
	f := newFuture[T]()
	f.complete(v, nil)
	return f
}

// FromError returns a future completed with err.
func FromError[T any](err error) *Future[T] {
	f := newFuture[T]()
	var zero T
	f.complete(zero, err)
	return f
}

// Adopt narrows an erased awaitable to a *Future[T].
// A *Future[T] is returned as is; nil adopts as the zero value; any other
// awaitable is followed and its value asserted to T, failing with
// [ErrResultType] on mismatch.
func Adopt[T any](a Awaitable) *Future[T] {
	if a == nil {
		var zero T
		return FromValue(zero)
	}
	if f, ok := a.(*Future[T]); ok {
		if f == nil {
			var zero T
			return FromValue(zero)
		}
		return f
	}
	if isNil(a) {
		var zero T
		return FromValue(zero)
	}
	return continueWith(a, func(v any, err error) (T, error) {
		if err != nil {
			var zero T
			return zero, err
		}
		return coerce[T](v)
	})
}

// continueWith runs fn with a's outcome once a completes.
// fn runs inline when a has already completed.
func continueWith[T any](a Awaitable, fn func(any, error) (T, error)) *Future[T] {
	next := newFuture[T]()
	whenDone(a.Done(), func() {
		settle(next, func() (T, error) { return fn(a.Result()) })
	})
	return next
}

// whenDone calls run after done is closed, inline if it already is.
func whenDone(done <-chan struct{}, run func()) {
	select {
	case <-done:
		run()
	default:
		go func() {
			<-done
			run()
		}()
	}
}

// coerce asserts v to T; nil becomes the zero value.
func coerce[T any](v any) (T, error) {
	var zero T
	if v == nil {
		return zero, nil
	}
	if t, ok := v.(T); ok {
		return t, nil
	}
	return zero, resultTypeError(v, reflect.TypeFor[T]())
}

// isNil reports whether v holds a nil pointer, func, map, chan or slice.
func isNil(v any) bool {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Func, reflect.Map, reflect.Chan, reflect.Slice, reflect.Interface:
		return rv.IsNil()
	default:
		return !rv.IsValid()
	}
}
