// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package intercept

import (
	"iter"
	"sync"
)

// Processing is an interceptor that runs a hook before and after every call,
// threading a state value of type S from one hook to the other.
//
// Starting runs immediately before the call proceeds. Completed runs once the
// outcome is known: on return for synchronous calls, on completion of the
// future for asynchronous calls, and when iteration ends for streams, with
// the number of elements yielded as result. Completed receives nil as result
// for calls without a value. A panic, whether raised by the call or by the
// consumer of a stream, skips Completed.
//
// Processing holds no per-call state and is safe for concurrent use when
// its hooks are.
type Processing[S any] struct {
	Starting  func(call CallInfo) S
	Completed func(call CallInfo, state S, result any, err error)
}

// NewProcessing returns a Processing interceptor with the given hooks.
// Either hook may be nil.
func NewProcessing[S any](starting func(CallInfo) S, completed func(CallInfo, S, any, error)) *Processing[S] {
	return &Processing[S]{Starting: starting, Completed: completed}
}

func (p *Processing[S]) start(call CallInfo) S {
	if p.Starting == nil {
		var zero S
		return zero
	}
	return p.Starting(call)
}

func (p *Processing[S]) complete(call CallInfo, s S, result any, err error) {
	if p.Completed != nil {
		p.Completed(call, s, result, err)
	}
}

// InterceptAction implements [Interceptor].
func (p *Processing[S]) InterceptAction(inv ActionInvocation) error {
	s := p.start(inv)
	err := inv.Proceed()
	p.complete(inv, s, nil, err)
	return err
}

// InterceptFunction implements [Interceptor].
func (p *Processing[S]) InterceptFunction(inv FunctionInvocation) (any, error) {
	s := p.start(inv)
	v, err := inv.Proceed()
	p.complete(inv, s, v, err)
	return v, err
}

// InterceptAsyncAction implements [Interceptor].
func (p *Processing[S]) InterceptAsyncAction(inv AsyncActionInvocation) *Task {
	s := p.start(inv)
	return ThenTask(inv.Proceed(), func(err error) error {
		p.complete(inv, s, nil, err)
		return err
	})
}

// InterceptAsyncFunction implements [Interceptor].
func (p *Processing[S]) InterceptAsyncFunction(inv AsyncFunctionInvocation) Awaitable {
	s := p.start(inv)
	return continueWith(inv.Proceed(), func(v any, err error) (any, error) {
		p.complete(inv, s, v, err)
		return v, err
	})
}

// InterceptAsyncStream implements [StreamInterceptor].
func (p *Processing[S]) InterceptAsyncStream(inv StreamInvocation) iter.Seq2[any, error] {
	s := p.start(inv)
	seq := inv.Proceed()
	var once sync.Once
	return func(yield func(any, error) bool) {
		n := 0
		var failure error
		for v, err := range seq {
			if err != nil {
				failure = err
			} else {
				n++
			}
			if !yield(v, err) {
				break
			}
		}
		once.Do(func() { p.complete(inv, s, n, failure) })
	}
}
