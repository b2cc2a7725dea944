// Package infra contém implementações concretas (infraestrutura) para os contratos
// definidos no pacote domain.
//
// Exemplos:
//   - MemoryStore / RedisStore: AttemptRecord por identidade
//   - MemoryStatsStore / RedisStatsStore: contadores de decisões
//   - HTTPDispatcher / LogDispatcher: envio do código de uso único
//   - ChanPool: semáforo simples para limite de concorrência
package infra
