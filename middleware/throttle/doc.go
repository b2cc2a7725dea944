// Package throttle fornece adapters HTTP (net/http + chi) para o throttle de
// tentativas de envio de código de verificação.
//
// Visão geral (camadas):
//
//   - domain: contratos e tipos (AttemptRecord, Decision, Clock, stores) sem net/http
//   - application: casos de uso (CanAttempt/RecordAttempt/ResetCooldown, envio de código)
//   - infra: implementações concretas (memória, Redis, provedor de SMS, semáforo)
//   - throttle (este pacote): rotas, middlewares e tradução para status/headers
//
// Fluxo do envio (POST /v1/verification/send):
//
//  1. Normaliza o telefone (E.164) e usa como identidade
//  2. Checa e registra a tentativa de forma atômica
//  3. Se negado, responde 429 com Retry-After e o motivo
//  4. Se permitido, chama o provedor; se ele falhar, devolve o cooldown
//
// Este throttle é o lado servidor e autoritativo. Uma cópia no cliente serve
// apenas como aviso antecipado de UX.
package throttle
