// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package intercept

import (
	"reflect"
	"strconv"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"
)

// entry invokes the interceptor operation matching one concrete return type
// and writes the outcome into the invocation's result slot.
type entry func(i Interceptor, inv Invocation)

// dispatcher is implemented by generic result types that carry their own
// T-instantiated entry: *Future[T] and Stream[T].
type dispatcher interface {
	dispatchEntry() entry
}

// dispatchCache memoizes entries per concrete return type for the process
// lifetime. Lookups are lock-free once an entry is published; concurrent
// first lookups of one type build it once, and distinct types never wait
// on each other.
type dispatchCache struct {
	entries sync.Map // reflect.Type → entry
	group   singleflight.Group
	builds  atomic.Int64
}

var defaultDispatch = &dispatchCache{}

// load returns the entry for rt, building it on first use.
func (c *dispatchCache) load(rt reflect.Type) entry {
	if e, ok := c.entries.Load(rt); ok {
		return e.(entry)
	}
	v, _, _ := c.group.Do(typeKey(rt), func() (any, error) {
		if e, ok := c.entries.Load(rt); ok {
			return e, nil
		}
		e, _ := c.entries.LoadOrStore(rt, c.build(rt))
		return e, nil
	})
	return v.(entry)
}

// store publishes e for rt, replacing any existing entry.
func (c *dispatchCache) store(rt reflect.Type, e entry) {
	c.entries.Store(rt, e)
}

// build constructs the entry for rt.
func (c *dispatchCache) build(rt reflect.Type) entry {
	c.builds.Add(1)
	switch Classify(rt).Kind {
	case ShapePlain:
		return plainEntry
	case ShapeAsync:
		return asyncEntry
	case ShapeAsyncValue, ShapeStream:
		if d, ok := zeroOf(rt).(dispatcher); ok {
			return d.dispatchEntry()
		}
	}
	return reflectValueEntry(rt)
}

// typeKey identifies rt by its runtime type descriptor address, which is
// unique and stable for the process lifetime.
func typeKey(rt reflect.Type) string {
	return strconv.FormatUint(uint64(reflect.ValueOf(rt).Pointer()), 16)
}

// Register installs a typed entry for methods returning T, replacing the
// reflective one built on first use. Registering is optional; it saves the
// assignability check on every call for value-returning methods.
// *Future[T] and Stream[T] already carry typed entries.
//
// The entry goes into the process-wide dispatch cache shared by every
// router, so it applies to all woven proxies, including those woven before
// the call. Register is safe for concurrent use.
func Register[T any]() {
	rt := reflect.TypeFor[T]()
	if Classify(rt).Kind != ShapeValue {
		defaultDispatch.store(rt, defaultDispatch.build(rt))
		return
	}
	defaultDispatch.store(rt, valueEntry[T])
}

func plainEntry(i Interceptor, inv Invocation) {
	inv.SetErr(i.InterceptAction(newActionInvocation(inv)))
}

func asyncEntry(i Interceptor, inv Invocation) {
	t := i.InterceptAsyncAction(newAsyncActionInvocation(inv))
	if t == nil {
		t = CompletedTask()
	}
	inv.SetReturnValue(t)
}

func valueEntry[T any](i Interceptor, inv Invocation) {
	v, err := i.InterceptFunction(newFunctionInvocation(inv))
	r, cerr := coerce[T](v)
	if cerr != nil && err == nil {
		err = cerr
	}
	inv.SetReturnValue(r)
	inv.SetErr(err)
}

func reflectValueEntry(rt reflect.Type) entry {
	return func(i Interceptor, inv Invocation) {
		v, err := i.InterceptFunction(newFunctionInvocation(inv))
		if v != nil && !reflect.TypeOf(v).AssignableTo(rt) {
			if err == nil {
				err = resultTypeError(v, rt)
			}
			v = nil
		}
		inv.SetReturnValue(v)
		inv.SetErr(err)
	}
}

func asyncValueEntry[T any](i Interceptor, inv Invocation) {
	a := i.InterceptAsyncFunction(newAsyncFunctionInvocation(inv))
	inv.SetReturnValue(Adopt[T](a))
}

func streamEntry[T any](i Interceptor, inv Invocation) {
	si, ok := i.(StreamInterceptor)
	if !ok {
		valueEntry[Stream[T]](i, inv)
		return
	}
	seq := si.InterceptAsyncStream(newStreamInvocation(inv, eraseStreamValue[T]))
	inv.SetReturnValue(narrowStream[T](seq))
}
