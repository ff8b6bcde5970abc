// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package intercept lets a single interceptor wrap calls of every calling
// convention: plain calls, synchronous value-returning calls, asynchronous
// calls with and without a result, and asynchronous streams.
//
// An interceptor is written once against the [Interceptor] contract. The
// [Router] classifies each intercepted call by its declared return type and
// routes it to the matching operation; [Base] collapses the operations into
// two around functions; [Processing] reduces them to a pair of hooks.
//
// # Calling Conventions
//
// The shape of a method is derived from its results, ignoring a trailing
// error:
//
//   - no value: [ShapePlain]
//   - [*Task]: [ShapeAsync]
//   - [*Future][T]: [ShapeAsyncValue]
//   - [Stream][T]: [ShapeStream]
//   - any other type: [ShapeValue]
//
// [Classify] is total and never panics. Interface-typed results are values.
//
// # Dispatch
//
// Value, future and stream shapes are generic over their result type. The
// router looks up a per-type entry in a process-wide cache, built on first
// use and reused for every later call. *Future[T] and Stream[T] carry typed
// entries of their own; other value types get a reflective entry unless one
// is installed with [Register].
//
// # Proceeding
//
// An interceptor receives a view of the call with a Proceed method that runs
// the next link of the chain, ultimately the real method. Proceed is
// one-shot: every call after the first fails with [ErrProceeded] without
// reaching the method. Not proceeding at all short-circuits the call.
//
// # Bridging
//
// Around functions given to [NewBase] are ordinary blocking functions.
// For a synchronous call the function runs on a worker and the caller is
// blocked until it returns; an error is returned unchanged and a panic is
// re-raised on the caller's goroutine with its original value. For an
// asynchronous call the caller receives its future as soon as the function
// proceeds or returns, whichever happens first, so logic before proceed has
// observably started while the future is already in the caller's hands.
// Workers are started through an [Executor].
//
// # Weaving
//
// Go has no runtime proxy generation. [Weave] and [WeaveMethod] wrap a
// function or a bound method with [reflect.MakeFunc] and drive the chain of
// routers for every call:
//
//	get, err := intercept.WeaveMethod[func(context.Context, string) (*intercept.Future[User], error)](
//	    store, "Get",
//	    intercept.WithInterceptors(intercept.NewLogging(logger)),
//	)
//
// # Observability
//
//   - [NewLogging]: zap logging of call start, completion and failure
//   - [NewTiming]: duration callbacks
//   - [NewMetrics]: Prometheus counters, histograms and gauges
package intercept
