// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package intercept

import (
	"errors"
	"iter"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	outcomeOK    = "ok"
	outcomeError = "error"
	outcomePanic = "panic"
)

// Metrics records Prometheus metrics for intercepted calls:
//
//	<namespace>_invocations_total{method,shape,outcome}
//	<namespace>_invocation_duration_seconds{method,shape}
//	<namespace>_invocations_in_flight{method}
//
// The shape label is the [ShapeKind]; outcome is "ok", "error" or "panic".
//
// A call is in flight from its start until the intercepted method has
// returned, and for asynchronous methods until the returned future has
// completed. A stream call leaves the in-flight gauge as soon as the stream
// is returned; its counter and duration are recorded when iteration ends,
// so a stream that is never iterated is not counted.
type Metrics struct {
	invocations *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	inFlight    *prometheus.GaugeVec
}

type metricsConfig struct {
	namespace  string
	registerer prometheus.Registerer
	buckets    []float64
}

// MetricsOption configures NewMetrics.
type MetricsOption func(*metricsConfig)

// WithNamespace sets the metric namespace. The default is "intercept".
func WithNamespace(ns string) MetricsOption {
	return func(c *metricsConfig) { c.namespace = ns }
}

// WithRegisterer sets the registerer the collectors are registered with.
// The default is prometheus.DefaultRegisterer.
func WithRegisterer(r prometheus.Registerer) MetricsOption {
	return func(c *metricsConfig) {
		if r != nil {
			c.registerer = r
		}
	}
}

// WithBuckets sets the duration histogram buckets, in seconds.
func WithBuckets(b ...float64) MetricsOption {
	return func(c *metricsConfig) { c.buckets = b }
}

// NewMetrics creates and registers the collectors.
// Collectors already registered under the same names are reused.
func NewMetrics(opts ...MetricsOption) (*Metrics, error) {
	cfg := metricsConfig{
		namespace:  "intercept",
		registerer: prometheus.DefaultRegisterer,
		buckets:    []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	invocations := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: cfg.namespace,
			Name:      "invocations_total",
			Help:      "Total number of intercepted invocations",
		},
		[]string{"method", "shape", "outcome"},
	)
	duration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: cfg.namespace,
			Name:      "invocation_duration_seconds",
			Help:      "Duration of intercepted invocations in seconds",
			Buckets:   cfg.buckets,
		},
		[]string{"method", "shape"},
	)
	inFlight := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: cfg.namespace,
			Name:      "invocations_in_flight",
			Help:      "Number of intercepted invocations currently in progress",
		},
		[]string{"method"},
	)

	var err error
	m := &Metrics{}
	if m.invocations, err = register(cfg.registerer, invocations); err != nil {
		return nil, err
	}
	if m.duration, err = register(cfg.registerer, duration); err != nil {
		return nil, err
	}
	if m.inFlight, err = register(cfg.registerer, inFlight); err != nil {
		return nil, err
	}
	return m, nil
}

func register[C prometheus.Collector](r prometheus.Registerer, c C) (C, error) {
	if err := r.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		var zero C
		return zero, err
	}
	return c, nil
}

// Interceptor returns an interceptor recording into m.
func (m *Metrics) Interceptor() StreamInterceptor {
	return metricsInterceptor{m: m}
}

// metricsCall is the accounting of one call. leave and observe take effect
// once each.
type metricsCall struct {
	m       *Metrics
	method  string
	shape   string
	start   time.Time
	left    sync.Once
	counted sync.Once
}

func (m *Metrics) begin(call CallInfo) *metricsCall {
	method := call.Method()
	c := &metricsCall{
		m:      m,
		method: method.Name,
		shape:  method.Shape().Kind.String(),
		start:  time.Now(),
	}
	m.inFlight.WithLabelValues(c.method).Inc()
	return c
}

func (c *metricsCall) leave() {
	c.left.Do(func() { c.m.inFlight.WithLabelValues(c.method).Dec() })
}

func (c *metricsCall) observe(outcome string) {
	c.counted.Do(func() {
		c.m.invocations.WithLabelValues(c.method, c.shape, outcome).Inc()
		c.m.duration.WithLabelValues(c.method, c.shape).Observe(time.Since(c.start).Seconds())
	})
}

func (c *metricsCall) finish(outcome string) {
	c.leave()
	c.observe(outcome)
}

func outcomeOf(err error) string {
	if err != nil {
		return outcomeError
	}
	return outcomeOK
}

// follow returns a future completing like f once c has been finished with
// f's outcome. A panic carried by f is counted and carried on.
func follow[T any](c *metricsCall, f *Future[T]) *Future[T] {
	next := newFuture[T]()
	whenDone(f.done, func() {
		settle(next, func() (T, error) {
			outcome := outcomePanic
			defer func() { c.finish(outcome) }()
			v, err := f.Wait()
			outcome = outcomeOf(err)
			return v, err
		})
	})
	return next
}

type metricsInterceptor struct {
	m *Metrics
}

func (mi metricsInterceptor) InterceptAction(inv ActionInvocation) error {
	c := mi.m.begin(inv)
	outcome := outcomePanic
	defer func() { c.finish(outcome) }()
	err := inv.Proceed()
	outcome = outcomeOf(err)
	return err
}

func (mi metricsInterceptor) InterceptFunction(inv FunctionInvocation) (any, error) {
	c := mi.m.begin(inv)
	outcome := outcomePanic
	defer func() { c.finish(outcome) }()
	v, err := inv.Proceed()
	outcome = outcomeOf(err)
	return v, err
}

func (mi metricsInterceptor) InterceptAsyncAction(inv AsyncActionInvocation) *Task {
	c := mi.m.begin(inv)
	returned := false
	defer func() {
		if !returned {
			c.finish(outcomePanic)
		}
	}()
	t := inv.Proceed()
	returned = true
	return taskOf(follow(c, t.f))
}

func (mi metricsInterceptor) InterceptAsyncFunction(inv AsyncFunctionInvocation) Awaitable {
	c := mi.m.begin(inv)
	returned := false
	defer func() {
		if !returned {
			c.finish(outcomePanic)
		}
	}()
	a := inv.Proceed()
	returned = true
	return follow(c, Adopt[any](a))
}

func (mi metricsInterceptor) InterceptAsyncStream(inv StreamInvocation) iter.Seq2[any, error] {
	c := mi.m.begin(inv)
	defer c.leave()
	seq := inv.Proceed()
	return func(yield func(any, error) bool) {
		outcome := outcomePanic
		defer func() { c.observe(outcome) }()
		var failure error
		for v, err := range seq {
			if err != nil {
				failure = err
			}
			if !yield(v, err) {
				break
			}
		}
		outcome = outcomeOf(failure)
	}
}
