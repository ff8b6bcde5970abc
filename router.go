// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package intercept

import (
	"go.uber.org/zap"
)

// Router routes every call of an intercepted object to the one operation of
// its interceptor that matches the method's calling convention.
//
// Router never suspends, retries or recovers: interceptor failures reach the
// caller unchanged, through the error slot for synchronous shapes and
// through the returned future or stream for asynchronous ones.
type Router struct {
	interceptor Interceptor
	dispatch    *dispatchCache
	logger      *zap.Logger
}

// Option configures a Router.
type Option func(*Router)

// WithLogger sets the logger used for routing decisions.
// Routing is logged at debug level.
func WithLogger(l *zap.Logger) Option {
	return func(r *Router) {
		if l != nil {
			r.logger = l
		}
	}
}

// withDispatch replaces the process-wide dispatch cache.
func withDispatch(c *dispatchCache) Option {
	return func(r *Router) {
		r.dispatch = c
	}
}

// NewRouter returns a Router wrapping i.
// NewRouter panics if i is nil.
func NewRouter(i Interceptor, opts ...Option) *Router {
	if i == nil {
		panic("intercept: nil interceptor")
	}
	r := &Router{
		interceptor: i,
		dispatch:    defaultDispatch,
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Interceptor returns the wrapped interceptor.
func (r *Router) Interceptor() Interceptor { return r.interceptor }

// Intercept routes inv. On return the result slot of inv holds the
// outcome: the error for plain methods, the value and error for value
// methods, and the task, future or stream for asynchronous methods.
func (r *Router) Intercept(inv Invocation) {
	rt := inv.Method().ReturnType()
	shape := Classify(rt)
	if ce := r.logger.Check(zap.DebugLevel, "routing invocation"); ce != nil {
		ce.Write(
			zap.Stringer("call_id", inv.ID()),
			zap.String("method", inv.Method().Name),
			zap.Stringer("shape", shape),
		)
	}
	switch shape.Kind {
	case ShapePlain:
		plainEntry(r.interceptor, inv)
	case ShapeAsync:
		asyncEntry(r.interceptor, inv)
	default:
		r.dispatch.load(rt)(r.interceptor, inv)
	}
}
