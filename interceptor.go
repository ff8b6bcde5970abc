// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package intercept

import "iter"

// Interceptor wraps intercepted calls, one operation per calling convention.
//
// An implementation may proceed zero or one time, override arguments before
// proceeding, replace the result afterwards, or fail the call by returning an
// error. The router builds a fresh view for every call, so an Interceptor
// that keeps no state of its own may serve concurrent calls.
type Interceptor interface {
	// InterceptAction intercepts a call without a value result.
	InterceptAction(inv ActionInvocation) error

	// InterceptFunction intercepts a synchronous value-returning call.
	// The returned value must be assignable to the method's result type.
	InterceptFunction(inv FunctionInvocation) (any, error)

	// InterceptAsyncAction intercepts a call returning a *Task.
	InterceptAsyncAction(inv AsyncActionInvocation) *Task

	// InterceptAsyncFunction intercepts a call returning a *Future[T].
	// The awaitable's value must be assignable to T.
	InterceptAsyncFunction(inv AsyncFunctionInvocation) Awaitable
}

// StreamInterceptor is implemented by interceptors that follow streams
// element by element. Stream-returning calls reach interceptors without it
// through InterceptFunction, with the stream as an ordinary value.
type StreamInterceptor interface {
	Interceptor

	// InterceptAsyncStream intercepts a call returning a Stream[T].
	InterceptAsyncStream(inv StreamInvocation) iter.Seq2[any, error]
}

// InterceptorFuncs adapts plain functions into an Interceptor.
// Nil fields proceed unchanged.
type InterceptorFuncs struct {
	Action        func(ActionInvocation) error
	Function      func(FunctionInvocation) (any, error)
	AsyncAction   func(AsyncActionInvocation) *Task
	AsyncFunction func(AsyncFunctionInvocation) Awaitable
}

// InterceptAction implements [Interceptor].
func (f InterceptorFuncs) InterceptAction(inv ActionInvocation) error {
	if f.Action == nil {
		return inv.Proceed()
	}
	return f.Action(inv)
}

// InterceptFunction implements [Interceptor].
func (f InterceptorFuncs) InterceptFunction(inv FunctionInvocation) (any, error) {
	if f.Function == nil {
		return inv.Proceed()
	}
	return f.Function(inv)
}

// InterceptAsyncAction implements [Interceptor].
func (f InterceptorFuncs) InterceptAsyncAction(inv AsyncActionInvocation) *Task {
	if f.AsyncAction == nil {
		return inv.Proceed()
	}
	return f.AsyncAction(inv)
}

// InterceptAsyncFunction implements [Interceptor].
func (f InterceptorFuncs) InterceptAsyncFunction(inv AsyncFunctionInvocation) Awaitable {
	if f.AsyncFunction == nil {
		return inv.Proceed()
	}
	return f.AsyncFunction(inv)
}
