// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package intercept

import (
	"reflect"
	"strconv"
)

// ShapeKind is the calling convention of an intercepted method.
type ShapeKind uint8

const (
	// ShapePlain methods return nothing, or only an error.
	ShapePlain ShapeKind = iota
	// ShapeValue methods return a value synchronously.
	ShapeValue
	// ShapeAsync methods return a *Task.
	ShapeAsync
	// ShapeAsyncValue methods return a *Future[T].
	ShapeAsyncValue
	// ShapeStream methods return a Stream[T].
	ShapeStream
)

var shapeNames = [...]string{
	ShapePlain:      "plain",
	ShapeValue:      "value",
	ShapeAsync:      "async",
	ShapeAsyncValue: "async-value",
	ShapeStream:     "stream",
}

func (k ShapeKind) String() string {
	if int(k) < len(shapeNames) {
		return shapeNames[k]
	}
	return "ShapeKind(" + strconv.Itoa(int(k)) + ")"
}

// MethodShape is a classified return type.
// Result is the value type T for ShapeValue, ShapeAsyncValue and
// ShapeStream, and nil otherwise.
type MethodShape struct {
	Kind   ShapeKind
	Result reflect.Type
}

func (s MethodShape) String() string {
	if s.Result == nil {
		return s.Kind.String()
	}
	return s.Kind.String() + "[" + s.Result.String() + "]"
}

// futureMarker is implemented by *Future[T], and by pointers to structs
// embedding one, which self tells apart.
type futureMarker interface {
	futureTypes() (self, result reflect.Type)
}

// streamMarker is implemented by Stream[T] only.
type streamMarker interface {
	streamElem() reflect.Type
}

var (
	taskType         = reflect.TypeFor[*Task]()
	errorType        = reflect.TypeFor[error]()
	futureMarkerType = reflect.TypeFor[futureMarker]()
	streamMarkerType = reflect.TypeFor[streamMarker]()
)

// Classify determines the shape of a method from its declared return type,
// which is nil for methods without a value result. The first matching rule
// wins:
//
//  1. no value → ShapePlain
//  2. exactly *Task → ShapeAsync
//  3. *Future[T] → ShapeAsyncValue with Result T
//  4. Stream[T] → ShapeStream with Result T
//  5. anything else → ShapeValue
//
// Classify never panics.
func Classify(rt reflect.Type) MethodShape {
	switch {
	case rt == nil:
		return MethodShape{Kind: ShapePlain}
	case rt == taskType:
		return MethodShape{Kind: ShapeAsync}
	case rt.Kind() == reflect.Pointer && rt.Implements(futureMarkerType):
		m := reflect.New(rt.Elem()).Interface().(futureMarker)
		if self, result := m.futureTypes(); self == rt {
			return MethodShape{Kind: ShapeAsyncValue, Result: result}
		}
	case rt.Kind() == reflect.Func && rt.Implements(streamMarkerType):
		if m, ok := zeroOf(rt).(streamMarker); ok {
			return MethodShape{Kind: ShapeStream, Result: m.streamElem()}
		}
	}
	return MethodShape{Kind: ShapeValue, Result: rt}
}

// ClassifyFunc classifies a function signature by its declared return type.
func ClassifyFunc(ft reflect.Type) MethodShape {
	return Classify(declaredReturn(ft))
}

// declaredReturn is the first result of ft once a trailing error is
// dropped, or nil when nothing remains.
func declaredReturn(ft reflect.Type) reflect.Type {
	if ft == nil || ft.Kind() != reflect.Func {
		return nil
	}
	n := ft.NumOut()
	if n > 0 && ft.Out(n-1) == errorType {
		n--
	}
	if n == 0 {
		return nil
	}
	return ft.Out(0)
}

// zeroOf returns the zero value of rt boxed in an interface.
func zeroOf(rt reflect.Type) any {
	return reflect.Zero(rt).Interface()
}
