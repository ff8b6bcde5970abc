// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package intercept

import (
	"fmt"
	"reflect"
	"runtime"
	"strings"

	"github.com/google/uuid"
)

type weaveConfig struct {
	routers  []*Router
	name     string
	target   any
	invoked  *Method
	generics []reflect.Type
}

// WeaveOption configures Weave and WeaveMethod.
type WeaveOption func(*weaveConfig)

// WithRouters appends routers to the interception chain.
// The first router is outermost: its interceptor proceeds into the second,
// and the last proceeds into the real function.
func WithRouters(rs ...*Router) WeaveOption {
	return func(c *weaveConfig) {
		for _, r := range rs {
			if r != nil {
				c.routers = append(c.routers, r)
			}
		}
	}
}

// WithInterceptors appends a default router for each interceptor.
func WithInterceptors(is ...Interceptor) WeaveOption {
	return func(c *weaveConfig) {
		for _, i := range is {
			c.routers = append(c.routers, NewRouter(i))
		}
	}
}

// WithName sets the method name reported by [Method.Name].
func WithName(name string) WeaveOption {
	return func(c *weaveConfig) { c.name = name }
}

// WithTarget sets the object reported by [CallInfo.Target].
func WithTarget(target any) WeaveOption {
	return func(c *weaveConfig) { c.target = target }
}

// WithGenericArguments sets the types reported by
// [CallInfo.GenericArguments].
func WithGenericArguments(ts ...reflect.Type) WeaveOption {
	return func(c *weaveConfig) { c.generics = ts }
}

func withInvocationTarget(m Method) WeaveOption {
	return func(c *weaveConfig) { c.invoked = &m }
}

// Weave returns a function of type F that routes every call of fn through
// the configured interception chain.
//
// F must be a func type with at most one result besides an optional
// trailing error; other signatures fail with [ErrSignature]. When F has no
// trailing error, an error produced by an interceptor is raised as a panic.
func Weave[F any](fn F, opts ...WeaveOption) (F, error) {
	var zero F
	ft := reflect.TypeFor[F]()
	if ft.Kind() != reflect.Func {
		return zero, fmt.Errorf("%w: %s is not a func", ErrSignature, ft)
	}
	fv := reflect.ValueOf(fn)
	if fv.IsNil() {
		return zero, fmt.Errorf("%w: nil %s", ErrSignature, ft)
	}
	if err := checkSignature(ft); err != nil {
		return zero, err
	}
	var cfg weaveConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.name == "" {
		cfg.name = funcName(fv)
	}
	p := &proxy{
		fn:       fv,
		method:   Method{Name: cfg.name, Type: ft},
		routers:  cfg.routers,
		target:   cfg.target,
		generics: cfg.generics,
	}
	p.invoked = p.method
	if cfg.invoked != nil {
		p.invoked = *cfg.invoked
	}
	woven := reflect.MakeFunc(ft, p.invoke).Interface().(F)
	p.self = woven
	return woven, nil
}

// MustWeave is like Weave but panics on error.
func MustWeave[F any](fn F, opts ...WeaveOption) F {
	w, err := Weave(fn, opts...)
	if err != nil {
		panic(err)
	}
	return w
}

// WeaveMethod weaves the method name of target, typed as F.
// The method's signature must be convertible to F.
func WeaveMethod[F any](target any, name string, opts ...WeaveOption) (F, error) {
	var zero F
	tv := reflect.ValueOf(target)
	if !tv.IsValid() {
		return zero, fmt.Errorf("%w: nil target", ErrSignature)
	}
	m, ok := tv.Type().MethodByName(name)
	if !ok {
		return zero, fmt.Errorf("%w: %T has no method %s", ErrSignature, target, name)
	}
	ft := reflect.TypeFor[F]()
	mv := tv.Method(m.Index)
	if !mv.Type().ConvertibleTo(ft) {
		return zero, fmt.Errorf("%w: %T.%s is %s, not %s", ErrSignature, target, name, mv.Type(), ft)
	}
	fn := mv.Convert(ft).Interface().(F)
	base := []WeaveOption{
		WithName(typeName(tv.Type()) + "." + name),
		WithTarget(target),
		withInvocationTarget(Method{Name: name, Type: m.Type}),
	}
	return Weave(fn, append(base, opts...)...)
}

func checkSignature(ft reflect.Type) error {
	n := ft.NumOut()
	if n > 0 && ft.Out(n-1) == errorType {
		n--
	}
	if n > 1 {
		return fmt.Errorf("%w: %s has %d value results", ErrSignature, ft, n)
	}
	return nil
}

func funcName(fv reflect.Value) string {
	f := runtime.FuncForPC(fv.Pointer())
	if f == nil {
		return fv.Type().String()
	}
	name := f.Name()
	if i := strings.LastIndexByte(name, '/'); i >= 0 {
		name = name[i+1:]
	}
	return name
}

func typeName(t reflect.Type) string {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Name() != "" {
		return t.Name()
	}
	return t.String()
}

// proxy holds what every call of one woven function shares.
type proxy struct {
	fn       reflect.Value
	method   Method
	invoked  Method
	routers  []*Router
	target   any
	generics []reflect.Type
	self     any
}

func (p *proxy) invoke(in []reflect.Value) []reflect.Value {
	c := &call{p: p, id: uuid.New(), args: make([]any, len(in))}
	for i, v := range in {
		c.args[i] = v.Interface()
	}
	c.Proceed()
	return c.results()
}

// call is the Invocation of one call of a woven function.
type call struct {
	p    *proxy
	id   uuid.UUID
	args []any
	next int
	ret  any
	err  error
}

func (c *call) ID() uuid.UUID                    { return c.id }
func (c *call) Arguments() []any                 { return c.args }
func (c *call) Argument(i int) any               { return c.args[i] }
func (c *call) GenericArguments() []reflect.Type { return c.p.generics }
func (c *call) Method() Method                   { return c.p.method }
func (c *call) MethodInvocationTarget() Method   { return c.p.invoked }
func (c *call) Target() any                      { return c.p.target }
func (c *call) Proxy() any                       { return c.p.self }
func (c *call) ReturnValue() any                 { return c.ret }
func (c *call) SetReturnValue(v any)             { c.ret = v }
func (c *call) Err() error                       { return c.err }
func (c *call) SetErr(err error)                 { c.err = err }

func (c *call) TargetType() reflect.Type {
	if c.p.target == nil {
		return nil
	}
	return reflect.TypeOf(c.p.target)
}

// SetArgument overrides argument i for the rest of the chain.
// It panics if v is not assignable to the parameter type.
func (c *call) SetArgument(i int, v any) {
	t := c.p.method.Type.In(i)
	if v != nil && !reflect.TypeOf(v).AssignableTo(t) {
		panic(fmt.Sprintf("intercept: argument %d of %s: %T is not assignable to %s", i, c.p.method.Name, v, t))
	}
	c.args[i] = v
}

// Proceed runs the next router of the chain, or the real function once the
// chain is exhausted.
func (c *call) Proceed() {
	if c.next < len(c.p.routers) {
		r := c.p.routers[c.next]
		c.next++
		r.Intercept(c)
		return
	}
	ft := c.p.method.Type
	in := make([]reflect.Value, len(c.args))
	for i, a := range c.args {
		in[i] = valueOf(a, ft.In(i))
	}
	var out []reflect.Value
	if ft.IsVariadic() {
		out = c.p.fn.CallSlice(in)
	} else {
		out = c.p.fn.Call(in)
	}
	c.ret, c.err = nil, nil
	if c.p.method.ReturnsError() {
		last := out[len(out)-1]
		out = out[:len(out)-1]
		if !last.IsNil() {
			c.err = last.Interface().(error)
		}
	}
	if len(out) > 0 {
		c.ret = out[0].Interface()
	}
}

func (c *call) results() []reflect.Value {
	ft := c.p.method.Type
	out := make([]reflect.Value, ft.NumOut())
	if ft.NumOut() == 0 {
		if c.err != nil {
			panic(c.err)
		}
		return out
	}
	if !c.p.method.ReturnsError() {
		if c.err != nil {
			panic(c.err)
		}
		out[0] = valueOf(c.ret, ft.Out(0))
		return out
	}
	if len(out) == 2 {
		out[0] = valueOf(c.ret, ft.Out(0))
	}
	out[len(out)-1] = valueOf(c.err, errorType)
	return out
}

// valueOf converts v to a value of type t; nil becomes the zero value.
func valueOf(v any, t reflect.Type) reflect.Value {
	rv := reflect.New(t).Elem()
	if v != nil {
		rv.Set(reflect.ValueOf(v))
	}
	return rv
}
