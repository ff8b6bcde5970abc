// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package intercept

import (
	"iter"
	"reflect"
)

// Stream is an asynchronous sequence of T values.
// Each element is paired with an error; a producer reports a failure by
// yielding a non-nil error and stopping. Stream is directly usable with
// range-over-func:
//
//	for v, err := range s {
//	    if err != nil {
//	        return err
//	    }
//	    use(v)
//	}
//
// Methods returning Stream[T] are classified as asynchronous streams of T.
type Stream[T any] func(yield func(T, error) bool)

// StreamOf adapts a plain sequence into a Stream.
func StreamOf[T any](seq iter.Seq[T]) Stream[T] {
	return func(yield func(T, error) bool) {
		for v := range seq {
			if !yield(v, nil) {
				return
			}
		}
	}
}

// StreamError returns a stream that yields err once.
func StreamError[T any](err error) Stream[T] {
	return func(yield func(T, error) bool) {
		var zero T
		yield(zero, err)
	}
}

// Collect drains s, stopping at the first error.
func (s Stream[T]) Collect() ([]T, error) {
	var out []T
	for v, err := range s {
		if err != nil {
			return out, err
		}
		out = append(out, v)
	}
	return out, nil
}

// erase converts s into an element-erased sequence. A nil stream is empty.
func (s Stream[T]) erase() iter.Seq2[any, error] {
	return func(yield func(any, error) bool) {
		if s == nil {
			return
		}
		for v, err := range s {
			if !yield(v, err) {
				return
			}
		}
	}
}

func (Stream[T]) streamElem() reflect.Type { return reflect.TypeFor[T]() }

func (Stream[T]) dispatchEntry() entry { return streamEntry[T] }

// narrowStream converts an erased sequence back into a Stream[T].
// Elements that are not T end the stream with ErrResultType.
func narrowStream[T any](seq iter.Seq2[any, error]) Stream[T] {
	if seq == nil {
		return func(func(T, error) bool) {}
	}
	return func(yield func(T, error) bool) {
		for v, err := range seq {
			t, cerr := coerce[T](v)
			if err == nil && cerr != nil {
				var zero T
				yield(zero, cerr)
				return
			}
			if !yield(t, err) {
				return
			}
		}
	}
}

// eraseStreamValue erases a stream held as an untyped result value.
func eraseStreamValue[T any](v any) iter.Seq2[any, error] {
	s, _ := v.(Stream[T])
	return s.erase()
}

// errorSeq yields err once.
func errorSeq(err error) iter.Seq2[any, error] {
	return func(yield func(any, error) bool) {
		yield(nil, err)
	}
}
