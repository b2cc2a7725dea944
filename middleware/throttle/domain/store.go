package domain

import "context"

// AttemptStore persiste AttemptRecord por identidade.
//
// Update deve executar fn de forma atômica por identidade: no máximo um
// escritor por vez. found=false significa registro novo (rec zerado com
// Identity preenchida). Se fn retornar erro, nada é gravado.
type AttemptStore interface {
	Load(ctx context.Context, id Identity) (rec AttemptRecord, found bool, err error)
	Update(ctx context.Context, id Identity, fn func(rec *AttemptRecord, found bool) error) error
}
