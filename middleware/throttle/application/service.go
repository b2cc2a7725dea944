package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"verification-gateway/middleware/throttle/domain"
)

// errSkipWrite aborta um Update sem gravar e sem ser tratado como falha.
var errSkipWrite = errors.New("skip write")

// Throttle concentra a regra de cooldown + limite diário por identidade.
//
// Ele não sabe nada sobre HTTP nem sobre SMS, apenas decide e registra.
// Store e Clock são injetados; o ciclo de vida é de quem hospeda o Throttle.
type Throttle struct {
	Store domain.AttemptStore
	Clock domain.Clock
}

func NewThrottle(store domain.AttemptStore, clock domain.Clock) *Throttle {
	if clock == nil {
		clock = domain.SystemClock{}
	}
	return &Throttle{Store: store, Clock: clock}
}

// CanAttempt é somente leitura: a janela expirada é reiniciada numa cópia
// local, nada é gravado.
func (t *Throttle) CanAttempt(ctx context.Context, id domain.Identity, cfg domain.Config) (domain.Decision, error) {
	if err := validate(id, cfg); err != nil {
		return domain.Decision{}, err
	}

	rec, _, err := t.Store.Load(ctx, id)
	if err != nil {
		return domain.Decision{}, storeErr(err)
	}
	now := t.Now()
	return rec.Rolled(now).Evaluate(now, cfg), nil
}

// RecordAttempt deve ser chamado só depois de CanAttempt retornar Allowed e de
// quem chama se comprometer com a ação.
func (t *Throttle) RecordAttempt(ctx context.Context, id domain.Identity) error {
	if err := id.Validate(); err != nil {
		return err
	}

	now := t.Now()
	err := t.Store.Update(ctx, id, func(rec *domain.AttemptRecord, _ bool) error {
		*rec = rec.Record(now)
		return nil
	})
	return storeErr(err)
}

// ResetCooldown zera LastAttemptAt sem mexer em AttemptCount.
// Identidade sem registro é no-op.
func (t *Throttle) ResetCooldown(ctx context.Context, id domain.Identity) error {
	if err := id.Validate(); err != nil {
		return err
	}

	err := t.Store.Update(ctx, id, func(rec *domain.AttemptRecord, found bool) error {
		if !found {
			return errSkipWrite
		}
		rec.LastAttemptAt = time.Time{}
		return nil
	})
	if errors.Is(err, errSkipWrite) {
		return nil
	}
	return storeErr(err)
}

// Attempt faz checagem + registro dentro do mesmo Update, evitando que duas
// sequências CanAttempt→RecordAttempt concorrentes vejam Allowed.
func (t *Throttle) Attempt(ctx context.Context, id domain.Identity, cfg domain.Config) (domain.Decision, error) {
	if err := validate(id, cfg); err != nil {
		return domain.Decision{}, err
	}

	now := t.Now()
	var dec domain.Decision
	err := t.Store.Update(ctx, id, func(rec *domain.AttemptRecord, _ bool) error {
		rolled := rec.Rolled(now)
		dec = rolled.Evaluate(now, cfg)
		if !dec.Allowed {
			return errSkipWrite
		}
		*rec = rolled.Record(now)
		return nil
	})
	if err != nil && !errors.Is(err, errSkipWrite) {
		return domain.Decision{}, storeErr(err)
	}
	return dec, nil
}

// Now lê o relógio injetado.
func (t *Throttle) Now() time.Time {
	if t.Clock == nil {
		return time.Now()
	}
	return t.Clock.Now()
}

func validate(id domain.Identity, cfg domain.Config) error {
	if err := id.Validate(); err != nil {
		return err
	}
	return cfg.Validate()
}

func storeErr(err error) error {
	if err == nil || errors.Is(err, domain.ErrStoreUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
}
