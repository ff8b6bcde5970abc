// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package intercept

import (
	"iter"
	"sync/atomic"
)

// oneShot is a consuming proceed capability.
// The first claim succeeds; every later claim fails, concurrently or not.
type oneShot struct {
	used atomic.Uintptr
}

func (o *oneShot) claim() bool {
	return o.used.Add(1) == 1
}

// actionInvocation implements ActionInvocation.
type actionInvocation struct {
	callInfo
	once oneShot
}

func newActionInvocation(inv Invocation) *actionInvocation {
	return &actionInvocation{callInfo: callInfo{inv: inv}}
}

func (a *actionInvocation) Proceed() error {
	if !a.once.claim() {
		return ErrProceeded
	}
	a.inv.Proceed()
	return a.inv.Err()
}

// functionInvocation implements FunctionInvocation.
type functionInvocation struct {
	callInfo
	once oneShot
}

func newFunctionInvocation(inv Invocation) *functionInvocation {
	return &functionInvocation{callInfo: callInfo{inv: inv}}
}

func (f *functionInvocation) Proceed() (any, error) {
	if !f.once.claim() {
		return nil, ErrProceeded
	}
	f.inv.Proceed()
	return f.inv.ReturnValue(), f.inv.Err()
}

// asyncActionInvocation implements AsyncActionInvocation.
// A synchronous error from the real method is folded into the task.
type asyncActionInvocation struct {
	callInfo
	once oneShot
}

func newAsyncActionInvocation(inv Invocation) *asyncActionInvocation {
	return &asyncActionInvocation{callInfo: callInfo{inv: inv}}
}

func (a *asyncActionInvocation) Proceed() *Task {
	if !a.once.claim() {
		return FailedTask(ErrProceeded)
	}
	a.inv.Proceed()
	if err := a.inv.Err(); err != nil {
		a.inv.SetErr(nil)
		return FailedTask(err)
	}
	if t, ok := a.inv.ReturnValue().(*Task); ok && t != nil {
		return t
	}
	return CompletedTask()
}

// asyncFunctionInvocation implements AsyncFunctionInvocation.
type asyncFunctionInvocation struct {
	callInfo
	once oneShot
}

func newAsyncFunctionInvocation(inv Invocation) *asyncFunctionInvocation {
	return &asyncFunctionInvocation{callInfo: callInfo{inv: inv}}
}

func (a *asyncFunctionInvocation) Proceed() Awaitable {
	if !a.once.claim() {
		return FromError[any](ErrProceeded)
	}
	a.inv.Proceed()
	if err := a.inv.Err(); err != nil {
		a.inv.SetErr(nil)
		return FromError[any](err)
	}
	if aw, ok := a.inv.ReturnValue().(Awaitable); ok && !isNil(aw) {
		return aw
	}
	return FromValue[any](nil)
}

// streamInvocation implements StreamInvocation.
// erase is supplied by the dispatch entry that knows the element type.
type streamInvocation struct {
	callInfo
	once  oneShot
	erase func(any) iter.Seq2[any, error]
}

func newStreamInvocation(inv Invocation, erase func(any) iter.Seq2[any, error]) *streamInvocation {
	return &streamInvocation{callInfo: callInfo{inv: inv}, erase: erase}
}

func (s *streamInvocation) Proceed() iter.Seq2[any, error] {
	if !s.once.claim() {
		return errorSeq(ErrProceeded)
	}
	s.inv.Proceed()
	if err := s.inv.Err(); err != nil {
		s.inv.SetErr(nil)
		return errorSeq(err)
	}
	return s.erase(s.inv.ReturnValue())
}
