package infra

import (
	"context"
	"sync"

	"verification-gateway/middleware/throttle/domain"
)

type chanPool struct {
	sem chan struct{}
}

// NewChanPool cria um semáforo com `max` vagas para envios simultâneos.
func NewChanPool(max int) domain.SlotPool {
	return &chanPool{sem: make(chan struct{}, max)}
}

func (p *chanPool) Acquire(ctx context.Context) (func(), bool) {
	select {
	case p.sem <- struct{}{}:
	case <-ctx.Done():
		return nil, false
	}

	var once sync.Once
	return func() { once.Do(func() { <-p.sem }) }, true
}
