// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package intercept

import (
	"context"
	"iter"
	"reflect"

	"github.com/google/uuid"
)

// Method describes an intercepted method.
type Method struct {
	// Name identifies the method in logs and metrics.
	Name string
	// Type is the method's func type. It excludes the receiver for
	// proxied methods and includes it for invocation targets obtained
	// from a receiver type.
	Type reflect.Type
}

// ReturnType is the declared value result, ignoring a trailing error.
// It is nil for methods without a value result.
func (m Method) ReturnType() reflect.Type { return declaredReturn(m.Type) }

// ReturnsError reports whether the method's last result is an error.
func (m Method) ReturnsError() bool {
	if m.Type == nil || m.Type.Kind() != reflect.Func {
		return false
	}
	n := m.Type.NumOut()
	return n > 0 && m.Type.Out(n-1) == errorType
}

// Shape classifies the method.
func (m Method) Shape() MethodShape { return Classify(m.ReturnType()) }

func (m Method) String() string { return m.Name }

// Invocation is the call handle of one in-flight method call, supplied by
// the proxy mechanism. It is owned by a single call and is discarded once
// the call returns.
//
// The result slot is the pair ReturnValue/Err; Proceed invokes the next link
// of the interception chain, ultimately the real method, with the current
// arguments and writes its outcome into the slot.
type Invocation interface {
	ID() uuid.UUID
	Arguments() []any
	Argument(i int) any
	SetArgument(i int, v any)
	GenericArguments() []reflect.Type
	Method() Method
	MethodInvocationTarget() Method
	Target() any
	Proxy() any
	TargetType() reflect.Type

	ReturnValue() any
	SetReturnValue(v any)
	Err() error
	SetErr(err error)

	Proceed()
}

// CallInfo is the read-only view of an invocation handed to interceptors.
// Arguments may still be overridden before proceeding.
type CallInfo interface {
	// ID is unique per call.
	ID() uuid.UUID
	// Context is the call's first argument when it is a context.Context,
	// and context.Background() otherwise.
	Context() context.Context
	Arguments() []any
	Argument(i int) any
	SetArgument(i int, v any)
	GenericArguments() []reflect.Type
	Method() Method
	MethodInvocationTarget() Method
	Target() any
	Proxy() any
	TargetType() reflect.Type
}

// ActionInvocation is the view of a call without a value result.
type ActionInvocation interface {
	CallInfo
	// Proceed runs the real method and returns its error.
	Proceed() error
}

// FunctionInvocation is the view of a synchronous value-returning call.
type FunctionInvocation interface {
	CallInfo
	// Proceed runs the real method and returns its result.
	Proceed() (any, error)
}

// AsyncActionInvocation is the view of a call returning a *Task.
type AsyncActionInvocation interface {
	CallInfo
	// Proceed runs the real method and returns its task.
	Proceed() *Task
}

// AsyncFunctionInvocation is the view of a call returning a *Future[T].
type AsyncFunctionInvocation interface {
	CallInfo
	// Proceed runs the real method and returns its future.
	Proceed() Awaitable
}

// StreamInvocation is the view of a call returning a Stream[T].
type StreamInvocation interface {
	CallInfo
	// Proceed runs the real method and returns its element-erased stream.
	Proceed() iter.Seq2[any, error]
}

// callInfo forwards the read accessors to the underlying handle.
type callInfo struct {
	inv Invocation
}

func (c callInfo) ID() uuid.UUID                    { return c.inv.ID() }
func (c callInfo) Arguments() []any                 { return c.inv.Arguments() }
func (c callInfo) Argument(i int) any               { return c.inv.Argument(i) }
func (c callInfo) SetArgument(i int, v any)         { c.inv.SetArgument(i, v) }
func (c callInfo) GenericArguments() []reflect.Type { return c.inv.GenericArguments() }
func (c callInfo) Method() Method                   { return c.inv.Method() }
func (c callInfo) MethodInvocationTarget() Method   { return c.inv.MethodInvocationTarget() }
func (c callInfo) Target() any                      { return c.inv.Target() }
func (c callInfo) Proxy() any                       { return c.inv.Proxy() }
func (c callInfo) TargetType() reflect.Type         { return c.inv.TargetType() }

func (c callInfo) Context() context.Context {
	if args := c.inv.Arguments(); len(args) > 0 {
		if ctx, ok := args[0].(context.Context); ok && ctx != nil {
			return ctx
		}
	}
	return context.Background()
}
