// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package intercept_test

import (
	"errors"
	"iter"
	"sync"
	"testing"

	"code.hybscloud.com/intercept"
)

// twice proceeds every call two times and records the second outcome.
type twice struct {
	intercept.InterceptorFuncs
	mu     sync.Mutex
	second []error
}

func (tw *twice) record(err error) {
	tw.mu.Lock()
	tw.second = append(tw.second, err)
	tw.mu.Unlock()
}

func newTwice() *twice {
	tw := &twice{}
	tw.InterceptorFuncs = intercept.InterceptorFuncs{
		Action: func(inv intercept.ActionInvocation) error {
			err := inv.Proceed()
			tw.record(inv.Proceed())
			return err
		},
		Function: func(inv intercept.FunctionInvocation) (any, error) {
			v, err := inv.Proceed()
			_, again := inv.Proceed()
			tw.record(again)
			return v, err
		},
		AsyncAction: func(inv intercept.AsyncActionInvocation) *intercept.Task {
			t := inv.Proceed()
			tw.record(inv.Proceed().Wait())
			return t
		},
		AsyncFunction: func(inv intercept.AsyncFunctionInvocation) intercept.Awaitable {
			a := inv.Proceed()
			_, again := inv.Proceed().Result()
			tw.record(again)
			return a
		},
	}
	return tw
}

func (tw *twice) InterceptAsyncStream(inv intercept.StreamInvocation) iter.Seq2[any, error] {
	seq := inv.Proceed()
	for _, err := range inv.Proceed() {
		tw.record(err)
	}
	return seq
}

func TestProceedIsOneShot(t *testing.T) {
	log := &listLog{}
	tg := &target{log: log}
	tw := newTwice()
	opt := intercept.WithInterceptors(tw)

	weave[func()](t, tg, "SyncVoid", opt)()
	if _, err := weave[func(int) (int, error)](t, tg, "SyncValue", opt)(1); err != nil {
		t.Fatal(err)
	}
	if err := weave[func() *intercept.Task](t, tg, "AsyncVoid", opt)().Wait(); err != nil {
		t.Fatal(err)
	}
	if _, err := weave[func(string) *intercept.Future[string]](t, tg, "AsyncValue", opt)("x").Wait(); err != nil {
		t.Fatal(err)
	}
	if _, err := weave[func(int) intercept.Stream[int]](t, tg, "Count", opt)(2).Collect(); err != nil {
		t.Fatal(err)
	}

	if len(tw.second) != 5 {
		t.Fatalf("recorded %d second attempts, want 5", len(tw.second))
	}
	for i, err := range tw.second {
		if !errors.Is(err, intercept.ErrProceeded) {
			t.Errorf("attempt %d: err = %v, want ErrProceeded", i, err)
		}
	}
	want := []string{
		"SyncVoid:Start", "SyncVoid:End",
		"SyncValue:Start", "SyncValue:End",
		"AsyncVoid:Start", "AsyncVoid:End",
		"AsyncValue:Start", "AsyncValue:End",
		"Count:Start", "Count:End",
	}
	got := log.Entries()
	if len(got) != len(want) {
		t.Fatalf("log = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("log[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestProceedConcurrentClaim(t *testing.T) {
	log := &listLog{}
	tg := &target{log: log}
	const n = 16
	var (
		mu       sync.Mutex
		rejected int
	)
	i := intercept.InterceptorFuncs{
		Action: func(inv intercept.ActionInvocation) error {
			var wg sync.WaitGroup
			for range n {
				wg.Go(func() {
					if errors.Is(inv.Proceed(), intercept.ErrProceeded) {
						mu.Lock()
						rejected++
						mu.Unlock()
					}
				})
			}
			wg.Wait()
			return nil
		},
	}
	weave[func()](t, tg, "SyncVoid", intercept.WithInterceptors(i))()

	if rejected != n-1 {
		t.Fatalf("rejected = %d, want %d", rejected, n-1)
	}
	if log.Len() != 2 {
		t.Fatalf("target ran %d times, want 1", log.Len()/2)
	}
}

func TestNeverProceed(t *testing.T) {
	log := &listLog{}
	tg := &target{log: log}
	i := intercept.InterceptorFuncs{
		Action:        func(intercept.ActionInvocation) error { return nil },
		Function:      func(intercept.FunctionInvocation) (any, error) { return 99, nil },
		AsyncAction:   func(intercept.AsyncActionInvocation) *intercept.Task { return nil },
		AsyncFunction: func(intercept.AsyncFunctionInvocation) intercept.Awaitable { return nil },
	}
	opt := intercept.WithInterceptors(i)

	weave[func()](t, tg, "SyncVoid", opt)()
	if got, _ := weave[func(int) (int, error)](t, tg, "SyncValue", opt)(1); got != 99 {
		t.Fatalf("SyncValue = %d, want 99", got)
	}
	task := weave[func() *intercept.Task](t, tg, "AsyncVoid", opt)()
	if task == nil || !task.IsCompleted() || task.Err() != nil {
		t.Fatalf("AsyncVoid task = %v", task)
	}
	if got, err := weave[func(string) *intercept.Future[string]](t, tg, "AsyncValue", opt)("x").Wait(); got != "" || err != nil {
		t.Fatalf("AsyncValue = %q, %v", got, err)
	}
	if log.Len() != 0 {
		t.Fatalf("target ran: %v", log.Entries())
	}
}
