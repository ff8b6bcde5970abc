// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package intercept

import "context"

// AroundFunc wraps a call without a value result.
// proceed runs the next link of the chain at most once; later calls return
// [ErrProceeded]. The body may block freely: it runs on a worker.
type AroundFunc func(ctx context.Context, call CallInfo, proceed func() error) error

// AroundValueFunc wraps a value-returning call.
// For asynchronous methods proceed waits for the real method's future.
type AroundValueFunc func(ctx context.Context, call CallInfo, proceed func() (any, error)) (any, error)

// Base implements every [Interceptor] operation with two around functions,
// one for calls without a value result and one for calls with a value
// result, regardless of whether the call is synchronous or asynchronous.
//
// Synchronous calls run the around function on a worker and block the
// caller until it returns. Asynchronous calls run it on a worker and hand
// the caller its future as soon as the function calls proceed or returns,
// whichever comes first.
type Base struct {
	around      AroundFunc
	aroundValue AroundValueFunc
	exec        Executor
}

// BaseOption configures a Base.
type BaseOption func(*Base)

// WithExecutor sets the executor running around functions.
// The default starts a goroutine per call.
func WithExecutor(e Executor) BaseOption {
	return func(b *Base) {
		if e != nil {
			b.exec = e
		}
	}
}

// NewBase returns a Base. A nil around function proceeds unchanged.
func NewBase(around AroundFunc, aroundValue AroundValueFunc, opts ...BaseOption) *Base {
	if around == nil {
		around = func(_ context.Context, _ CallInfo, proceed func() error) error {
			return proceed()
		}
	}
	if aroundValue == nil {
		aroundValue = func(_ context.Context, _ CallInfo, proceed func() (any, error)) (any, error) {
			return proceed()
		}
	}
	b := &Base{around: around, aroundValue: aroundValue, exec: goExecutor{}}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// InterceptAction implements [Interceptor].
func (b *Base) InterceptAction(inv ActionInvocation) error {
	_, err := runSync(b.exec, func() (struct{}, error) {
		return struct{}{}, b.around(inv.Context(), inv, inv.Proceed)
	})
	return err
}

// InterceptFunction implements [Interceptor].
func (b *Base) InterceptFunction(inv FunctionInvocation) (any, error) {
	return runSync(b.exec, func() (any, error) {
		return b.aroundValue(inv.Context(), inv, inv.Proceed)
	})
}

// InterceptAsyncAction implements [Interceptor].
func (b *Base) InterceptAsyncAction(inv AsyncActionInvocation) *Task {
	rel := newRelease()
	proceed := func() error {
		t := inv.Proceed()
		rel.fire()
		return t.Wait()
	}
	f := runAsync(b.exec, rel.c, func() (struct{}, error) {
		return struct{}{}, b.around(inv.Context(), inv, proceed)
	})
	return taskOf(f)
}

// InterceptAsyncFunction implements [Interceptor].
func (b *Base) InterceptAsyncFunction(inv AsyncFunctionInvocation) Awaitable {
	rel := newRelease()
	proceed := func() (any, error) {
		a := inv.Proceed()
		rel.fire()
		return a.Result()
	}
	return runAsync(b.exec, rel.c, func() (any, error) {
		return b.aroundValue(inv.Context(), inv, proceed)
	})
}
