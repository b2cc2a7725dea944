package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"verification-gateway/middleware/throttle/domain"
)

const (
	statsSourceVerification = "verification"
	resetCooldownTimeout    = 2 * time.Second
)

// SendResult é o resultado de VerificationService.Send.
// Quando Decision.Allowed=false, nada foi despachado.
type SendResult struct {
	Identity  domain.Identity
	Decision  domain.Decision
	MessageID string
}

// VerificationService orquestra o envio de código de uso único:
// normaliza o telefone, consome uma tentativa, despacha e, se o despacho
// falhar, devolve o cooldown ao usuário (o limite diário continua contando).
type VerificationService struct {
	Throttle   *Throttle
	Dispatcher domain.Dispatcher
	Config     domain.Config
	Stats      domain.StatsStore
	Logger     *zap.Logger
}

func (s VerificationService) Send(ctx context.Context, rawPhone string) (SendResult, error) {
	log := s.logger()

	id, err := domain.NormalizePhone(rawPhone)
	if err != nil {
		return SendResult{}, err
	}

	dec, err := s.Throttle.Attempt(ctx, id, s.Config)
	if err != nil {
		log.Error("throttle attempt failed", zap.String("identity", string(id)), zap.Error(err))
		return SendResult{Identity: id}, err
	}
	s.record(ctx, id, dec)

	res := SendResult{Identity: id, Decision: dec}
	if !dec.Allowed {
		log.Info("verification denied",
			zap.String("identity", string(id)),
			zap.Stringer("reason", dec.Reason),
			zap.Duration("wait", dec.Wait),
			zap.Int("limit", dec.Limit),
		)
		return res, nil
	}

	receipt, err := s.Dispatcher.Send(ctx, string(id))
	if err != nil {
		// a tentativa fica contada, mas o usuário não espera por um envio que não aconteceu.
		// o ctx da requisição pode já estar cancelado justamente por isso.
		resetCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), resetCooldownTimeout)
		rerr := s.Throttle.ResetCooldown(resetCtx, id)
		cancel()
		if rerr != nil {
			log.Warn("reset cooldown failed", zap.String("identity", string(id)), zap.Error(rerr))
		}
		log.Warn("verification dispatch failed", zap.String("identity", string(id)), zap.Error(err))
		if errors.Is(err, domain.ErrDispatchFailed) {
			return res, err
		}
		return res, fmt.Errorf("%w: %v", domain.ErrDispatchFailed, err)
	}

	res.MessageID = receipt.MessageID
	log.Info("verification sent", zap.String("identity", string(id)), zap.String("message_id", receipt.MessageID))
	return res, nil
}

// Status consulta sem consumir tentativa.
func (s VerificationService) Status(ctx context.Context, rawPhone string) (SendResult, error) {
	id, err := domain.NormalizePhone(rawPhone)
	if err != nil {
		return SendResult{}, err
	}
	dec, err := s.Throttle.CanAttempt(ctx, id, s.Config)
	if err != nil {
		return SendResult{Identity: id}, err
	}
	return SendResult{Identity: id, Decision: dec}, nil
}

func (s VerificationService) record(ctx context.Context, id domain.Identity, dec domain.Decision) {
	if s.Stats == nil {
		return
	}
	err := s.Stats.Record(ctx, domain.StatsEvent{
		Identity: id,
		Allowed:  dec.Allowed,
		Reason:   dec.Reason,
		Source:   statsSourceVerification,
		At:       s.Throttle.Now(),
	})
	if err != nil {
		s.logger().Debug("stats record failed", zap.Error(err))
	}
}

func (s VerificationService) logger() *zap.Logger {
	if s.Logger == nil {
		return zap.NewNop()
	}
	return s.Logger
}

