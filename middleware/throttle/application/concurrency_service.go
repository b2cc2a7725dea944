package application

import (
	"context"
	"time"

	"verification-gateway/middleware/throttle/domain"
)

// ConcurrencyService limita envios simultâneos ao provedor.
// Sem Pool, não há limite.
type ConcurrencyService struct {
	Pool           domain.SlotPool
	AcquireTimeout time.Duration
}

// Acquire espera por uma vaga até o ctx encerrar ou, se AcquireTimeout > 0,
// até o timeout. ok=false significa que nenhuma vaga foi tomada.
func (s ConcurrencyService) Acquire(ctx context.Context) (release func(), ok bool) {
	if s.Pool == nil {
		return func() {}, true
	}
	if s.AcquireTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.AcquireTimeout)
		defer cancel()
	}
	return s.Pool.Acquire(ctx)
}
