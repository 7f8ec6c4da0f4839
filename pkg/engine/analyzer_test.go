package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raywall/fast-service-mock/internal/testutil"
)

func TestAnalyzeContract_Payments(t *testing.T) {
	report, table := AnalyzeContract([]byte(testutil.PaymentsContract))
	require.NotNil(t, table)

	assert.True(t, report.Valid)
	assert.Empty(t, report.Errors)
	assert.Equal(t, 5, report.Operations)
	assert.Contains(t, report.Warnings, "GET /ping: nenhuma resposta declarada, requisições terão status 500")
}

func TestAnalyzeContract_Warnings(t *testing.T) {
	report, _ := AnalyzeContract([]byte(`
openapi: 3.0.0
paths:
  /orders:
    post:
      x-mock-store: {}
      responses:
        2XX: {description: faixa}
        "201":
          description: ok
          content:
            application/json:
              schema:
                type: object
                required: [id]
                properties:
                  id: {type: integer}
              example:
                id: "abc"
`))
	assert.True(t, report.Valid)
	assert.Len(t, report.Warnings, 3)
	assert.Contains(t, report.Warnings, "POST /orders: resposta '2XX' ignorada (faixas de status não são servidas)")
	assert.Contains(t, report.Warnings, "POST /orders: x-mock-store sem referenceField, a referência só vai no header")
	assert.Contains(t, report.Warnings[2], "example.id")
}

func TestAnalyzeContract_Errors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{"yaml malformado", "openapi: [", ""},
		{"versão", "openapi: 2.0\npaths: {}", "OpenAPI"},
		{"store e retrieve", `
openapi: 3.0.0
paths:
  /a/{id}:
    get:
      x-mock-store: {referenceField: id}
      x-mock-retrieve: {sourceParam: id}
      responses: {"200": {description: ok}}
`, "store"},
		{"predicado inválido", `
openapi: 3.0.0
components:
  securitySchemes:
    custom: {type: apiKey, in: header, name: X, x-mock-predicate: "header["}
paths:
  /a:
    get:
      security: [{custom: []}]
      responses: {"200": {description: ok}}
`, "custom"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report, _ := AnalyzeContract([]byte(tt.doc))
			assert.False(t, report.Valid)
			require.NotEmpty(t, report.Errors)
			assert.Contains(t, report.Errors[0], tt.want)
		})
	}
}
