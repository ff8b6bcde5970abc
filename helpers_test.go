// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package intercept_test

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"code.hybscloud.com/intercept"
)

var errTarget = errors.New("target failed")

// listLog is a concurrency-safe ordered log of entries.
type listLog struct {
	mu      sync.Mutex
	entries []string
}

// Add appends s. A nil log discards it.
func (l *listLog) Add(s string) {
	if l == nil {
		return
	}
	l.mu.Lock()
	l.entries = append(l.entries, s)
	l.mu.Unlock()
}

func (l *listLog) Entries() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.entries...)
}

func (l *listLog) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

func (l *listLog) Contains(s string) bool {
	for _, e := range l.Entries() {
		if e == s {
			return true
		}
	}
	return false
}

// target is the intercepted object. Each method logs its start and end.
// Asynchronous methods finish after delay; a zero delay returns an already
// completed future.
type target struct {
	log   *listLog
	delay time.Duration
}

func (t *target) SyncVoid() {
	t.log.Add("SyncVoid:Start")
	t.log.Add("SyncVoid:End")
}

func (t *target) SyncValue(x int) (int, error) {
	t.log.Add("SyncValue:Start")
	t.log.Add("SyncValue:End")
	return x * 2, nil
}

func (t *target) SyncFail() error {
	return errTarget
}

func (t *target) SyncPanic() int {
	panic("target exploded")
}

func (t *target) SyncArgs(ctx context.Context, prefix string, xs ...int) string {
	n := 0
	for _, x := range xs {
		n += x
	}
	return prefix + strconv.Itoa(n)
}

func (t *target) AsyncVoid() *intercept.Task {
	t.log.Add("AsyncVoid:Start")
	if t.delay == 0 {
		t.log.Add("AsyncVoid:End")
		return intercept.CompletedTask()
	}
	return intercept.Go(func() error {
		time.Sleep(t.delay)
		t.log.Add("AsyncVoid:End")
		return nil
	})
}

func (t *target) AsyncValue(s string) *intercept.Future[string] {
	t.log.Add("AsyncValue:Start")
	if t.delay == 0 {
		t.log.Add("AsyncValue:End")
		return intercept.FromValue("async " + s)
	}
	return intercept.GoValue(func() (string, error) {
		time.Sleep(t.delay)
		t.log.Add("AsyncValue:End")
		return "async " + s, nil
	})
}

func (t *target) AsyncFail() *intercept.Task {
	return intercept.Go(func() error {
		time.Sleep(t.delay)
		return errTarget
	})
}

func (t *target) AsyncFailEarly() (*intercept.Future[int], error) {
	return nil, errTarget
}

func (t *target) Count(n int) intercept.Stream[int] {
	return func(yield func(int, error) bool) {
		t.log.Add("Count:Start")
		for i := range n {
			if !yield(i, nil) {
				return
			}
		}
		t.log.Add("Count:End")
	}
}

func (t *target) CountFail(n int) intercept.Stream[int] {
	return func(yield func(int, error) bool) {
		for i := range n {
			if !yield(i, nil) {
				return
			}
		}
		yield(0, errTarget)
	}
}

// weave weaves the method name of tg as F, failing the test on error.
func weave[F any](t testing.TB, tg any, name string, opts ...intercept.WeaveOption) F {
	t.Helper()
	f, err := intercept.WeaveMethod[F](tg, name, opts...)
	if err != nil {
		t.Fatalf("WeaveMethod(%s): %v", name, err)
	}
	return f
}

// loggingBase returns a Base logging "<method>:Starting…" before proceeding
// and "<method>:Completed…" afterwards, sleeping delay on each side.
func loggingBase(log *listLog, delay time.Duration) *intercept.Base {
	pause := func() {
		if delay > 0 {
			time.Sleep(delay)
		}
	}
	return intercept.NewBase(
		func(_ context.Context, call intercept.CallInfo, proceed func() error) error {
			name := call.MethodInvocationTarget().Name
			log.Add(name + ":StartingVoidInvocation")
			pause()
			err := proceed()
			pause()
			log.Add(name + ":CompletedVoidInvocation")
			return err
		},
		func(_ context.Context, call intercept.CallInfo, proceed func() (any, error)) (any, error) {
			name := call.MethodInvocationTarget().Name
			log.Add(name + ":StartingResultInvocation")
			pause()
			v, err := proceed()
			pause()
			log.Add(name + ":CompletedResultInvocation")
			return v, err
		},
	)
}
