// Package application contém os casos de uso do throttle de tentativas,
// do envio de código de verificação e do limite de concorrência.
//
// Ele depende apenas do pacote domain e não conhece net/http.
// Ex.: Throttle.CanAttempt(ctx, id, cfg) retorna uma Decision
// (allowed / cooldown + wait / limite diário).
package application
