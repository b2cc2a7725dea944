// Package domain define contratos e tipos de domínio do throttle de tentativas
// (cooldown + limite diário por identidade).
//
// Este pacote não depende de net/http nem de implementações concretas de
// storage. A intenção é permitir testes de unidade puros (com relógio falso)
// e desacoplar a regra de negócio de detalhes de infraestrutura.
package domain
