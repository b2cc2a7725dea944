package domain

import (
	"context"
	"time"
)

// StatsEvent representa uma decisão do throttle.
//
// Source identifica quem decidiu (ex: "verification", "ip-guard").
// Cuidado com cardinalidade ao persistir Identity.
type StatsEvent struct {
	Identity Identity
	Allowed  bool
	Reason   Reason
	Source   string

	At time.Time
}

// StatsStore é a estratégia de persistência para estatísticas.
// Quem chama trata erro como best-effort (não derruba a requisição).
type StatsStore interface {
	Record(ctx context.Context, ev StatsEvent) error
}
