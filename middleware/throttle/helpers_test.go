package throttle

import (
	"context"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"verification-gateway/middleware/throttle/application"
	"verification-gateway/middleware/throttle/domain"
	"verification-gateway/middleware/throttle/infra"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestThrottle() (*application.Throttle, *testClock) {
	clock := &testClock{now: time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)}
	return application.NewThrottle(infra.NewMemoryStore(infra.WithClock(clock)), clock), clock
}

type stubDispatcher struct {
	mu   sync.Mutex
	err  error
	sent int
}

func (d *stubDispatcher) Send(context.Context, string) (domain.DispatchReceipt, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return domain.DispatchReceipt{}, d.err
	}
	d.sent++
	return domain.DispatchReceipt{MessageID: "msg-" + formatInt(d.sent)}, nil
}

func newTestVerification(t *testing.T) (application.VerificationService, *stubDispatcher, *testClock) {
	t.Helper()
	th, clock := newTestThrottle()
	disp := &stubDispatcher{}
	return application.VerificationService{
		Throttle:   th,
		Dispatcher: disp,
		Config:     domain.Config{Cooldown: time.Minute, DailyLimit: 5},
		Logger:     zaptest.NewLogger(t),
	}, disp, clock
}
