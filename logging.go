// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package intercept

import (
	"time"

	"go.uber.org/zap"
)

// NewLogging returns an interceptor logging every call to l.
// Starts and successful completions are logged at debug level, failures at
// warn level with the error attached.
func NewLogging(l *zap.Logger) *Processing[time.Time] {
	if l == nil {
		l = zap.NewNop()
	}
	return NewProcessing(
		func(call CallInfo) time.Time {
			l.Debug("invocation starting", callFields(call)...)
			return time.Now()
		},
		func(call CallInfo, start time.Time, _ any, err error) {
			fields := append(callFields(call), zap.Duration("duration", time.Since(start)))
			if err != nil {
				l.Warn("invocation failed", append(fields, zap.Error(err))...)
				return
			}
			l.Debug("invocation completed", fields...)
		},
	)
}

func callFields(call CallInfo) []zap.Field {
	m := call.Method()
	return []zap.Field{
		zap.Stringer("call_id", call.ID()),
		zap.String("method", m.Name),
		zap.Stringer("shape", m.Shape()),
	}
}
