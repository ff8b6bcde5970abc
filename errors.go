// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package intercept

import (
	"errors"
	"fmt"
	"reflect"
)

var (
	// ErrProceeded is reported when an invocation view is proceeded twice.
	// The second attempt never reaches the underlying call handle.
	ErrProceeded = errors.New("intercept: invocation already proceeded")

	// ErrResultType is reported when an interceptor produces a value that
	// cannot be stored in the intercepted method's result.
	ErrResultType = errors.New("intercept: result type mismatch")

	// ErrSignature is returned by Weave and WeaveMethod for functions whose
	// signature cannot be intercepted.
	ErrSignature = errors.New("intercept: unsupported signature")

	// errAbandoned is the fault recorded when a future body exits its
	// goroutine without returning, e.g. via runtime.Goexit.
	errAbandoned = errors.New("intercept: body exited without returning")
)

func resultTypeError(v any, want reflect.Type) error {
	return fmt.Errorf("%w: %T is not assignable to %s", ErrResultType, v, want)
}
