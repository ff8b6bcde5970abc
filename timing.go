// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package intercept

import "time"

// NewTiming returns an interceptor measuring the time from the start of each
// call to its completion. Either callback may be nil.
func NewTiming(starting func(CallInfo), completed func(CallInfo, time.Duration)) *Processing[time.Time] {
	return NewProcessing(
		func(call CallInfo) time.Time {
			if starting != nil {
				starting(call)
			}
			return time.Now()
		},
		func(call CallInfo, start time.Time, _ any, _ error) {
			if completed != nil {
				completed(call, time.Since(start))
			}
		},
	)
}
