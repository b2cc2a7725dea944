package domain

import "errors"

var (
	// ErrInvalidArgument indica identidade vazia/malformada ou config inválida.
	// Nunca é re-tentado internamente.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrStoreUnavailable indica falha do storage de tentativas (ex: Redis fora).
	ErrStoreUnavailable = errors.New("attempt store unavailable")

	// ErrDispatchFailed indica que o provedor de código não despachou a mensagem.
	ErrDispatchFailed = errors.New("verification dispatch failed")
)
