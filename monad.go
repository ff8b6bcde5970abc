// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package intercept

// Continuations over futures.
//
// Each combinator runs its function inline when the source has already
// completed and on a new goroutine otherwise, so an already-completed
// source yields an already-completed result. A panic in the source is
// carried into the result unchanged.

// Then sequences fn after f completes, passing f's value and error.
func Then[A, B any](f *Future[A], fn func(A, error) (B, error)) *Future[B] {
	next := newFuture[B]()
	whenDone(f.done, func() {
		settle(next, func() (B, error) { return fn(f.Wait()) })
	})
	return next
}

// Map applies fn to the value of a successfully completed f.
// Errors pass through without calling fn.
func Map[A, B any](f *Future[A], fn func(A) B) *Future[B] {
	return Then(f, func(a A, err error) (B, error) {
		if err != nil {
			var zero B
			return zero, err
		}
		return fn(a), nil
	})
}

// ThenTask sequences fn after t completes, passing t's error.
func ThenTask(t *Task, fn func(error) error) *Task {
	return taskOf(Then(t.f, func(_ struct{}, err error) (struct{}, error) {
		return struct{}{}, fn(err)
	}))
}
