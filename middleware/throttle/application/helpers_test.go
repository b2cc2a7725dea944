package application

import (
	"context"
	"errors"
	"sync"
	"time"

	"verification-gateway/middleware/throttle/domain"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// mapStore é o mínimo de AttemptStore para testes da camada application.
type mapStore struct {
	mu   sync.Mutex
	recs map[domain.Identity]domain.AttemptRecord
	err  error
}

func newMapStore() *mapStore {
	return &mapStore{recs: make(map[domain.Identity]domain.AttemptRecord)}
}

func (s *mapStore) Load(_ context.Context, id domain.Identity) (domain.AttemptRecord, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return domain.AttemptRecord{}, false, s.err
	}
	rec, ok := s.recs[id]
	if !ok {
		return domain.AttemptRecord{Identity: id}, false, nil
	}
	return rec, true, nil
}

func (s *mapStore) Update(ctx context.Context, id domain.Identity, fn func(*domain.AttemptRecord, bool) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	rec, ok := s.recs[id]
	if !ok {
		rec = domain.AttemptRecord{Identity: id}
	}
	if err := fn(&rec, ok); err != nil {
		return err
	}
	s.recs[id] = rec
	return nil
}

type fakeDispatcher struct {
	mu    sync.Mutex
	err   error
	sent  []string
	msgID string
}

func (d *fakeDispatcher) Send(_ context.Context, phone string) (domain.DispatchReceipt, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return domain.DispatchReceipt{}, d.err
	}
	d.sent = append(d.sent, phone)
	return domain.DispatchReceipt{MessageID: d.msgID}, nil
}

// cancellingDispatcher simula o cliente desconectando durante o envio.
type cancellingDispatcher struct {
	cancel context.CancelFunc
}

func (d cancellingDispatcher) Send(ctx context.Context, _ string) (domain.DispatchReceipt, error) {
	d.cancel()
	return domain.DispatchReceipt{}, ctx.Err()
}

type recordingStats struct {
	events []domain.StatsEvent
}

func (r *recordingStats) Record(_ context.Context, ev domain.StatsEvent) error {
	r.events = append(r.events, ev)
	return nil
}

var errBoom = errors.New("boom")
