// Package testutil reúne contratos de exemplo compartilhados pelos testes.
package testutil

import (
	"testing"

	"github.com/raywall/fast-service-mock/pkg/contract"
)

// PaymentsContract cobre os três comportamentos (plain, store, retrieve),
// segurança por api key, rota literal concorrendo com rota parametrizada e uma
// operação sem respostas declaradas.
const PaymentsContract = `
openapi: 3.0.3
info:
  title: Payments
  version: "1.0"
components:
  securitySchemes:
    apiKey:
      type: apiKey
      in: header
      name: X-API-Key
  schemas:
    Payment:
      type: object
      required: [amount, currency]
      properties:
        amount:
          type: integer
          minimum: 1
        currency:
          type: string
          enum: [USD, EUR, BRL]
        description:
          type: string
    Summary:
      type: object
      required: [total, count]
      properties:
        total:
          type: number
        count:
          type: integer
paths:
  /payments:
    post:
      operationId: createPayment
      x-mock-store:
        referenceField: reference
      requestBody:
        required: true
        content:
          application/json:
            schema:
              $ref: '#/components/schemas/Payment'
      responses:
        201:
          description: created
          content:
            application/json:
              example:
                reference: ""
                status: pending
        400:
          description: invalid payment
  /payments/summary:
    get:
      operationId: paymentsSummary
      responses:
        "200":
          description: ok
          content:
            application/json:
              schema:
                $ref: '#/components/schemas/Summary'
  /payments/{reference}:
    parameters:
      - name: reference
        in: path
        required: true
        schema:
          type: string
    get:
      operationId: getPayment
      x-mock-retrieve:
        sourceParam: reference
      responses:
        "200":
          description: ok
          content:
            application/json:
              schema:
                $ref: '#/components/schemas/Payment'
        "404":
          description: not found
  /accounts/{id}:
    get:
      operationId: getAccount
      security:
        - apiKey: []
      parameters:
        - name: id
          in: path
          required: true
          schema:
            type: integer
        - name: verbose
          in: query
          schema:
            type: boolean
      responses:
        "200":
          description: ok
          content:
            application/json:
              schema:
                type: object
                required: [id, name]
                properties:
                  id:
                    type: integer
                  name:
                    type: string
              example:
                id: 7
                name: Ada
        "403":
          description: forbidden
          content:
            application/json:
              example:
                error: denied
  /ping:
    get:
      operationId: ping
      responses: {}
`

// LoadContract decodifica e valida o YAML, falhando o teste em caso de erro.
func LoadContract(t testing.TB, raw string) *contract.Document {
	t.Helper()
	doc, err := contract.Load([]byte(raw))
	if err != nil {
		t.Fatalf("contrato de teste inválido: %v", err)
	}
	return doc
}
