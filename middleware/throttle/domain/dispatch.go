package domain

import "context"

type DispatchReceipt struct {
	MessageID string
}

// Dispatcher envia o código de uso único para o telefone (fora de banda).
// A geração e a verificação do código pertencem ao provedor.
type Dispatcher interface {
	Send(ctx context.Context, phone string) (DispatchReceipt, error)
}
