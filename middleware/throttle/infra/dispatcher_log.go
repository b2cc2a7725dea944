package infra

import (
	"context"

	"verification-gateway/middleware/throttle/domain"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// LogDispatcher não envia nada: só registra no log. Para desenvolvimento.
type LogDispatcher struct {
	Logger *zap.Logger
}

func (d LogDispatcher) Send(_ context.Context, phone string) (domain.DispatchReceipt, error) {
	id := uuid.NewString()
	if d.Logger != nil {
		d.Logger.Info("verification code dispatch (log only)",
			zap.String("to", phone),
			zap.String("message_id", id),
		)
	}
	return domain.DispatchReceipt{MessageID: id}, nil
}
