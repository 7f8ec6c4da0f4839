// Copyright 2025 Raywall Malheiros de Souza
// Licensed under the Mozilla Public License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	https://www.mozilla.org/en-US/MPL/2.0/
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
// Package fastservicemock é um mock HTTP dirigido por contrato: lê um documento
// OpenAPI, compila a tabela de rotas e responde cada requisição a partir de
// overrides, exemplos ou valores sintetizados do schema, validando segurança,
// parâmetros e body antes de responder.
//
// Visão Geral:
//
// Operações podem encadear chamadas por meio das extensões do contrato:
//   - x-mock-store: grava o body da requisição e injeta a referência emitida
//     na resposta (campo referenceField e header X-Mock-Reference).
//   - x-mock-retrieve: devolve o body gravado cuja referência chega no path
//     param sourceParam; referência desconhecida responde 404.
//
// A precedência de resolução é: override, retrieve, status pedido pelo header
// X-Mock-Status, exemplo, síntese pelo schema e, por fim, body vazio.
//
// Sub-Pacotes Principais:
//
//  1. pkg/contract, pkg/routes: leitura do documento e tabela de rotas imutável
//     (segmentos literais vencem parâmetros).
//  2. pkg/validation, pkg/rules: segurança (predicados CEL) e validação de
//     parâmetros e body contra o schema.
//  3. pkg/resolver, pkg/synth, pkg/overrides: montagem da resposta.
//  4. pkg/linkage: referências em memória, Redis, DynamoDB ou Postgres.
//  5. pkg/pipeline: ponto de entrada único, converte qualquer falha em resposta.
//  6. pkg/transport: servidor HTTP (gorilla/mux), rotas administrativas e Lambda.
//  7. pkg/engine, pkg/config: carga da configuração (arquivo, S3, DynamoDB) e
//     montagem do mock.
//
// Binários:
//
//	CONFIG_FILE_PATH=mock.yaml go run ./cmd/server
//	go run ./cmd/toolkit validate -f contrato.yaml
//	go run ./cmd/toolkit routes -f contrato.yaml --format json
//
// Exemplo de configuração:
//
//	version: "1.0"
//	service:
//	  name: payments-mock
//	  runtime: local
//	  port: 8080
//	  logging: {enabled: true, level: info, format: json}
//	contract:
//	  source: payments.yaml
//	  overrides: overrides.yaml
//	linkage:
//	  backend: redis
//	  ttl: 1h
//	  redis: {addr: "localhost:6379", prefix: "mock:"}
//	admin: {enabled: true, graphql: true}
package fastservicemock
