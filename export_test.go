// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package intercept

import "reflect"

// DispatchCache is an isolated dispatch cache for tests.
type DispatchCache struct {
	c *dispatchCache
}

func NewDispatchCache() *DispatchCache {
	return &DispatchCache{c: &dispatchCache{}}
}

// Load resolves the entry for rt and reports whether one was returned.
func (d *DispatchCache) Load(rt reflect.Type) bool {
	return d.c.load(rt) != nil
}

// Builds is the number of entries constructed so far.
func (d *DispatchCache) Builds() int64 {
	return d.c.builds.Load()
}

// WithDispatch routes through d instead of the process-wide cache.
func WithDispatch(d *DispatchCache) Option {
	return withDispatch(d.c)
}
