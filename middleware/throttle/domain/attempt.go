package domain

import (
	"fmt"
	"strings"
	"time"
)

const (
	// DayWindow é a janela de contagem do limite diário.
	DayWindow = 24 * time.Hour

	DefaultCooldown   = 60 * time.Second
	DefaultDailyLimit = 5
)

// Identity é a chave contra a qual as tentativas são contadas
// (id de usuário, telefone em E.164, IP...).
type Identity string

func (id Identity) Validate() error {
	if strings.TrimSpace(string(id)) == "" {
		return fmt.Errorf("%w: identity is empty", ErrInvalidArgument)
	}
	return nil
}

// AttemptRecord é o estado derivado de uma identidade. Pode ser descartado
// a qualquer momento: não é fonte de verdade.
type AttemptRecord struct {
	Identity      Identity
	AttemptCount  int
	LastAttemptAt time.Time
	WindowStartAt time.Time
}

// Rolled devolve uma cópia com a janela diária reiniciada quando ela expirou
// (ou quando o registro ainda não tem janela).
func (r AttemptRecord) Rolled(now time.Time) AttemptRecord {
	if r.WindowStartAt.IsZero() || now.Sub(r.WindowStartAt) >= DayWindow {
		r.AttemptCount = 0
		r.WindowStartAt = now
	}
	if r.AttemptCount < 0 {
		r.AttemptCount = 0
	}
	return r
}

// InCooldown: LastAttemptAt zerado nunca dispara cooldown.
func (r AttemptRecord) InCooldown(now time.Time, cooldown time.Duration) bool {
	if r.LastAttemptAt.IsZero() {
		return false
	}
	return now.Sub(r.LastAttemptAt) < cooldown
}

// Evaluate decide sem efeitos colaterais. O limite diário tem precedência
// sobre o cooldown. Espera-se um registro já passado por Rolled.
func (r AttemptRecord) Evaluate(now time.Time, cfg Config) Decision {
	cfg = cfg.WithDefaults()

	if r.AttemptCount >= cfg.DailyLimit {
		return Decision{
			Reason: ReasonDailyLimitExceeded,
			Limit:  cfg.DailyLimit,
			Wait:   r.WindowStartAt.Add(DayWindow).Sub(now),
		}
	}
	if r.InCooldown(now, cfg.Cooldown) {
		return Decision{
			Reason: ReasonCooldown,
			Wait:   cfg.Cooldown - now.Sub(r.LastAttemptAt),
		}
	}
	return Decision{Allowed: true}
}

// Record registra uma tentativa consumida em now.
func (r AttemptRecord) Record(now time.Time) AttemptRecord {
	r = r.Rolled(now)
	r.AttemptCount++
	r.LastAttemptAt = now
	return r
}

// Config são as opções reconhecidas por CanAttempt.
// Campos zerados assumem os defaults.
type Config struct {
	Cooldown   time.Duration
	DailyLimit int
}

func (c Config) WithDefaults() Config {
	if c.Cooldown == 0 {
		c.Cooldown = DefaultCooldown
	}
	if c.DailyLimit == 0 {
		c.DailyLimit = DefaultDailyLimit
	}
	return c
}

func (c Config) Validate() error {
	if c.Cooldown < 0 {
		return fmt.Errorf("%w: cooldown must be >= 0, got %s", ErrInvalidArgument, c.Cooldown)
	}
	if c.DailyLimit < 0 {
		return fmt.Errorf("%w: daily limit must be >= 0, got %d", ErrInvalidArgument, c.DailyLimit)
	}
	return nil
}

type Reason int

const (
	ReasonNone Reason = iota
	ReasonCooldown
	ReasonDailyLimitExceeded
)

func (r Reason) String() string {
	switch r {
	case ReasonCooldown:
		return "cooldown"
	case ReasonDailyLimitExceeded:
		return "daily_limit_exceeded"
	default:
		return "none"
	}
}

// Decision é o resultado normal de uma checagem. Negar não é erro.
type Decision struct {
	Allowed bool
	Reason  Reason
	// Wait é o tempo até a próxima tentativa possível: fim do cooldown ou,
	// com ReasonDailyLimitExceeded, fim da janela diária.
	Wait time.Duration
	// Limit é o limite diário aplicado (apenas ReasonDailyLimitExceeded).
	Limit int
}

func (d Decision) WaitMs() int64 { return d.Wait.Milliseconds() }
