package core

import (
	"context"
	"sync"
	"testing"
	"time"

	"lifeplan/pkg/domain"
)

type stubClock struct{ t time.Time }

func (s stubClock) Now() time.Time { return s.t }

type captureLogger struct {
	mu    sync.Mutex
	calls []string
}

func (c *captureLogger) add(s string) {
	c.mu.Lock()
	c.calls = append(c.calls, s)
	c.mu.Unlock()
}

func (c *captureLogger) Debug(msg string, _ ...any) { c.add("d:" + msg) }
func (c *captureLogger) Info(msg string, _ ...any)  { c.add("i:" + msg) }
func (c *captureLogger) Warn(msg string, _ ...any)  { c.add("w:" + msg) }
func (c *captureLogger) Error(msg string, _ ...any) { c.add("e:" + msg) }

func (c *captureLogger) has(entry string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, call := range c.calls {
		if call == entry {
			return true
		}
	}
	return false
}

type metricsCall struct {
	op      string
	success bool
}

type captureMetricsRecorder struct {
	mu    sync.Mutex
	calls []metricsCall
}

func (c *captureMetricsRecorder) Observe(_ context.Context, op string, success bool, _ time.Duration) {
	c.mu.Lock()
	c.calls = append(c.calls, metricsCall{op: op, success: success})
	c.mu.Unlock()
}

func (c *captureMetricsRecorder) has(op string, success bool) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, call := range c.calls {
		if call.op == op && call.success == success {
			return true
		}
	}
	return false
}

type spanRecord struct {
	op  string
	err error
}

type captureTracer struct {
	mu    sync.Mutex
	ended []spanRecord
}

func (c *captureTracer) Start(ctx context.Context, op string) (context.Context, TraceSpan) {
	return ctx, &captureSpan{tracer: c, op: op}
}

type captureSpan struct {
	tracer *captureTracer
	op     string
}

func (s *captureSpan) End(err error) {
	s.tracer.mu.Lock()
	s.tracer.ended = append(s.tracer.ended, spanRecord{op: s.op, err: err})
	s.tracer.mu.Unlock()
}

func newTestService(opts ...Option) *Service {
	base := []Option{
		WithClock(stubClock{t: time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)}),
		WithSettleDelay(0),
	}
	return NewInMemoryService(append(base, opts...)...)
}

func mustGoal(t *testing.T, svc *Service, title string) Goal {
	t.Helper()
	g, _, err := svc.AddGoal(context.Background(), Goal{Title: title})
	if err != nil {
		t.Fatalf("add goal %q: %v", title, err)
	}
	return g
}

func mustProject(t *testing.T, svc *Service, title, goalID string) Project {
	t.Helper()
	p, _, err := svc.AddProject(context.Background(), Project{Title: title, GoalID: domain.StringPtr(goalID)})
	if err != nil {
		t.Fatalf("add project %q: %v", title, err)
	}
	return p
}

func mustTask(t *testing.T, svc *Service, title, projectID string) Task {
	t.Helper()
	task, _, err := svc.AddTask(context.Background(), Task{Title: title, ProjectID: projectID})
	if err != nil {
		t.Fatalf("add task %q: %v", title, err)
	}
	return task
}

func goalProgress(t *testing.T, svc *Service, id string) Goal {
	t.Helper()
	g, ok := svc.GetGoal(context.Background(), id)
	if !ok {
		t.Fatalf("goal %s missing", id)
	}
	return g
}

func projectState(t *testing.T, svc *Service, id string) Project {
	t.Helper()
	p, ok := svc.GetProject(context.Background(), id)
	if !ok {
		t.Fatalf("project %s missing", id)
	}
	return p
}
