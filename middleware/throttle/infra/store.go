package infra

import (
	"context"
	"sync"
	"time"

	"verification-gateway/middleware/throttle/domain"
)

// MemoryStore guarda AttemptRecord em memória, com um mutex por identidade
// (Update de identidades diferentes não se bloqueiam) e limpeza periódica.
type MemoryStore struct {
	mu           sync.Mutex
	entries      map[domain.Identity]*memoryEntry
	clock        domain.Clock
	idleTTL      time.Duration
	cleanupEvery time.Duration
}

type memoryEntry struct {
	mu    sync.Mutex
	rec   domain.AttemptRecord
	found bool
	// removed é marcado pelo Cleanup; quem segurava o ponteiro busca de novo.
	removed bool
}

type StoreOption func(*MemoryStore)

// WithIdleTTL define após quanto tempo sem tentativas um registro pode ser descartado.
// Deve ser >= ao maior cooldown usado.
func WithIdleTTL(d time.Duration) StoreOption {
	return func(s *MemoryStore) { s.idleTTL = d }
}

func WithCleanupEvery(d time.Duration) StoreOption {
	return func(s *MemoryStore) { s.cleanupEvery = d }
}

func WithClock(c domain.Clock) StoreOption {
	return func(s *MemoryStore) { s.clock = c }
}

func NewMemoryStore(opts ...StoreOption) *MemoryStore {
	s := &MemoryStore{
		entries:      make(map[domain.Identity]*memoryEntry),
		clock:        domain.SystemClock{},
		idleTTL:      domain.DayWindow,
		cleanupEvery: 10 * time.Minute,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *MemoryStore) CleanupEvery() time.Duration { return s.cleanupEvery }

func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Load implementa domain.AttemptStore.
func (s *MemoryStore) Load(_ context.Context, id domain.Identity) (domain.AttemptRecord, bool, error) {
	s.mu.Lock()
	ent, ok := s.entries[id]
	s.mu.Unlock()
	if !ok {
		return domain.AttemptRecord{Identity: id}, false, nil
	}

	ent.mu.Lock()
	defer ent.mu.Unlock()
	if !ent.found {
		return domain.AttemptRecord{Identity: id}, false, nil
	}
	return ent.rec, true, nil
}

// Update implementa domain.AttemptStore.
func (s *MemoryStore) Update(ctx context.Context, id domain.Identity, fn func(*domain.AttemptRecord, bool) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	ent := s.lockedEntry(id)
	defer ent.mu.Unlock()

	rec := ent.rec
	if !ent.found {
		rec = domain.AttemptRecord{Identity: id}
	}
	if err := fn(&rec, ent.found); err != nil {
		return err
	}
	rec.Identity = id
	ent.rec = rec
	ent.found = true
	return nil
}

func (s *MemoryStore) lockedEntry(id domain.Identity) *memoryEntry {
	for {
		ent := s.entry(id)
		ent.mu.Lock()
		if !ent.removed {
			return ent
		}
		ent.mu.Unlock()
	}
}

func (s *MemoryStore) entry(id domain.Identity) *memoryEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ent, ok := s.entries[id]; ok {
		return ent
	}
	ent := &memoryEntry{}
	s.entries[id] = ent
	return ent
}

// Cleanup remove registros cuja última atividade (tentativa ou início de
// janela) é mais antiga que idleTTL.
func (s *MemoryStore) Cleanup() {
	cutoff := s.clock.Now().Add(-s.idleTTL)

	s.mu.Lock()
	defer s.mu.Unlock()

	for id, ent := range s.entries {
		if !ent.mu.TryLock() {
			continue // em uso agora, não é ocioso
		}
		if lastActivity(ent.rec).Before(cutoff) {
			ent.removed = true
			delete(s.entries, id)
		}
		ent.mu.Unlock()
	}
}

func lastActivity(rec domain.AttemptRecord) time.Time {
	if rec.LastAttemptAt.After(rec.WindowStartAt) {
		return rec.LastAttemptAt
	}
	return rec.WindowStartAt
}

// StartJanitor inicia uma goroutine que limpa identidades inativas periodicamente.
// Pare cancelando o contexto.
func (s *MemoryStore) StartJanitor(ctx context.Context) {
	if s.cleanupEvery <= 0 {
		return
	}

	t := time.NewTicker(s.cleanupEvery)
	go func() {
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				s.Cleanup()
			}
		}
	}()
}
