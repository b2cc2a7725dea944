package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"verification-gateway/middleware/throttle/domain"
)

var defaultCfg = domain.Config{Cooldown: 60 * time.Second, DailyLimit: 5}

func newTestThrottle() (*Throttle, *mapStore, *fakeClock) {
	store := newMapStore()
	clock := newFakeClock()
	return NewThrottle(store, clock), store, clock
}

func TestThrottle_FirstAttemptAllowed(t *testing.T) {
	th, _, _ := newTestThrottle()

	dec, err := th.CanAttempt(context.Background(), "user-1", domain.Config{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !dec.Allowed {
		t.Fatalf("expected allowed, got %+v", dec)
	}
}

func TestThrottle_CanAttemptHasNoSideEffects(t *testing.T) {
	th, store, _ := newTestThrottle()
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		if _, err := th.CanAttempt(ctx, "user-1", defaultCfg); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if len(store.recs) != 0 {
		t.Fatalf("expected no record to be written, got %d", len(store.recs))
	}
}

func TestThrottle_CooldownAfterRecord(t *testing.T) {
	th, _, _ := newTestThrottle()
	ctx := context.Background()

	if err := th.RecordAttempt(ctx, "user-1"); err != nil {
		t.Fatalf("record: %v", err)
	}

	dec, err := th.CanAttempt(ctx, "user-1", domain.Config{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dec.Allowed || dec.Reason != domain.ReasonCooldown {
		t.Fatalf("expected cooldown denial, got %+v", dec)
	}
	if dec.Wait != domain.DefaultCooldown {
		t.Fatalf("expected wait=%s, got %s", domain.DefaultCooldown, dec.Wait)
	}
}

func TestThrottle_CooldownScenario(t *testing.T) {
	th, _, clock := newTestThrottle()
	ctx := context.Background()

	dec, _ := th.CanAttempt(ctx, "user-1", defaultCfg)
	if !dec.Allowed {
		t.Fatalf("t=0: expected allowed, got %+v", dec)
	}
	if err := th.RecordAttempt(ctx, "user-1"); err != nil {
		t.Fatalf("record: %v", err)
	}

	clock.Advance(30 * time.Second)
	dec, _ = th.CanAttempt(ctx, "user-1", defaultCfg)
	if dec.Allowed || dec.Reason != domain.ReasonCooldown || dec.WaitMs() != 30000 {
		t.Fatalf("t=30000: expected cooldown with waitMs=30000, got %+v", dec)
	}

	clock.Advance(30001 * time.Millisecond)
	dec, _ = th.CanAttempt(ctx, "user-1", defaultCfg)
	if !dec.Allowed {
		t.Fatalf("t=60001: expected allowed, got %+v", dec)
	}
}

func TestThrottle_DailyLimitScenario(t *testing.T) {
	th, _, clock := newTestThrottle()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if i > 0 {
			clock.Advance(70 * time.Second)
		}
		dec, _ := th.CanAttempt(ctx, "user-1", defaultCfg)
		if !dec.Allowed {
			t.Fatalf("attempt %d: expected allowed, got %+v", i+1, dec)
		}
		if err := th.RecordAttempt(ctx, "user-1"); err != nil {
			t.Fatalf("record %d: %v", i+1, err)
		}
	}

	clock.Advance(70 * time.Second)
	dec, _ := th.CanAttempt(ctx, "user-1", defaultCfg)
	if dec.Allowed || dec.Reason != domain.ReasonDailyLimitExceeded || dec.Limit != 5 {
		t.Fatalf("6th attempt: expected daily limit denial with limit=5, got %+v", dec)
	}

	// cooldown esgotado não muda nada
	clock.Advance(time.Hour)
	dec, _ = th.CanAttempt(ctx, "user-1", defaultCfg)
	if dec.Reason != domain.ReasonDailyLimitExceeded {
		t.Fatalf("expected daily limit regardless of cooldown, got %+v", dec)
	}
}

func TestThrottle_WindowBoundaryResetsCount(t *testing.T) {
	th, _, clock := newTestThrottle()
	ctx := context.Background()
	cfg := domain.Config{Cooldown: time.Second, DailyLimit: 2}

	for i := 0; i < 2; i++ {
		if err := th.RecordAttempt(ctx, "user-1"); err != nil {
			t.Fatalf("record: %v", err)
		}
		clock.Advance(2 * time.Second)
	}
	if dec, _ := th.CanAttempt(ctx, "user-1", cfg); dec.Reason != domain.ReasonDailyLimitExceeded {
		t.Fatalf("expected limit reached, got %+v", dec)
	}

	clock.Advance(domain.DayWindow)
	dec, err := th.CanAttempt(ctx, "user-1", cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !dec.Allowed {
		t.Fatalf("expected allowed after window boundary, got %+v", dec)
	}

	// o registro após a virada começa uma janela nova com count=1
	if err := th.RecordAttempt(ctx, "user-1"); err != nil {
		t.Fatalf("record: %v", err)
	}
	rec, _, _ := th.Store.Load(ctx, "user-1")
	if rec.AttemptCount != 1 || !rec.WindowStartAt.Equal(clock.Now()) {
		t.Fatalf("expected fresh window with count=1, got %+v", rec)
	}
}

func TestThrottle_ResetCooldownKeepsDailyCount(t *testing.T) {
	th, _, _ := newTestThrottle()
	ctx := context.Background()
	cfg := domain.Config{Cooldown: time.Minute, DailyLimit: 2}

	if err := th.RecordAttempt(ctx, "user-1"); err != nil {
		t.Fatalf("record: %v", err)
	}
	if err := th.ResetCooldown(ctx, "user-1"); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if dec, _ := th.CanAttempt(ctx, "user-1", cfg); !dec.Allowed {
		t.Fatalf("expected allowed right after reset, got %+v", dec)
	}

	if err := th.RecordAttempt(ctx, "user-1"); err != nil {
		t.Fatalf("record: %v", err)
	}
	if err := th.ResetCooldown(ctx, "user-1"); err != nil {
		t.Fatalf("reset: %v", err)
	}
	dec, _ := th.CanAttempt(ctx, "user-1", cfg)
	if dec.Reason != domain.ReasonDailyLimitExceeded {
		t.Fatalf("reset must not clear daily cap, got %+v", dec)
	}
}

func TestThrottle_ResetCooldownUnknownIdentityIsNoop(t *testing.T) {
	th, store, _ := newTestThrottle()

	if err := th.ResetCooldown(context.Background(), "ghost"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(store.recs) != 0 {
		t.Fatalf("expected no record to be created")
	}
}

func TestThrottle_InvalidIdentity(t *testing.T) {
	th, _, _ := newTestThrottle()
	ctx := context.Background()

	if _, err := th.CanAttempt(ctx, "  ", defaultCfg); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Fatalf("CanAttempt: expected ErrInvalidArgument, got %v", err)
	}
	if err := th.RecordAttempt(ctx, ""); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Fatalf("RecordAttempt: expected ErrInvalidArgument, got %v", err)
	}
	if err := th.ResetCooldown(ctx, ""); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Fatalf("ResetCooldown: expected ErrInvalidArgument, got %v", err)
	}
	if _, err := th.Attempt(ctx, "user-1", domain.Config{DailyLimit: -1}); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Fatalf("Attempt: expected ErrInvalidArgument for bad config, got %v", err)
	}
}

func TestThrottle_StoreFailureIsWrapped(t *testing.T) {
	th, store, _ := newTestThrottle()
	store.err = errBoom

	_, err := th.CanAttempt(context.Background(), "user-1", defaultCfg)
	if !errors.Is(err, domain.ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}
	if err := th.RecordAttempt(context.Background(), "user-1"); !errors.Is(err, domain.ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}
}

func TestThrottle_AttemptRecordsOnlyWhenAllowed(t *testing.T) {
	th, store, clock := newTestThrottle()
	ctx := context.Background()

	dec, err := th.Attempt(ctx, "user-1", defaultCfg)
	if err != nil || !dec.Allowed {
		t.Fatalf("expected allowed, got %+v err=%v", dec, err)
	}

	clock.Advance(10 * time.Second)
	dec, err = th.Attempt(ctx, "user-1", defaultCfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dec.Allowed || dec.Wait != 50*time.Second {
		t.Fatalf("expected cooldown with 50s wait, got %+v", dec)
	}

	rec := store.recs["user-1"]
	if rec.AttemptCount != 1 {
		t.Fatalf("denied attempt must not be recorded, count=%d", rec.AttemptCount)
	}
}
