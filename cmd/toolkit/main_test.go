package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raywall/fast-service-mock/internal/testutil"
	"github.com/raywall/fast-service-mock/pkg/engine"
	"github.com/raywall/fast-service-mock/pkg/routes"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestValidate_ValidContract(t *testing.T) {
	path := writeFile(t, t.TempDir(), "payments.yaml", testutil.PaymentsContract)

	out, err := execute(t, "validate", "-f", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Contrato válido: 5 operações")
	// ping não declara respostas
	assert.Contains(t, out, "aviso: GET /ping")

	out, err = execute(t, "validate", "-f", path, "--format", "json")
	require.NoError(t, err)
	var report engine.ValidationReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.True(t, report.Valid)
	assert.Equal(t, 5, report.Operations)
}

func TestValidate_InvalidContract(t *testing.T) {
	path := writeFile(t, t.TempDir(), "broken.yaml", `
openapi: 3.0.3
info: {title: broken, version: "1"}
paths:
  /payments/{reference}:
    get:
      x-mock-retrieve:
        sourceParam: id
      responses:
        "200": {description: ok}
`)

	out, err := execute(t, "validate", "-f", path)
	assert.ErrorIs(t, err, errInvalid)
	assert.Contains(t, out, "erro:")
}

func TestValidate_FromServiceConfig(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "payments.yaml", testutil.PaymentsContract)
	cfg := writeFile(t, dir, "mock.yaml", `
version: "1.0"
service: {name: cli-test, runtime: lambda}
contract: {source: payments.yaml}
`)

	out, err := execute(t, "validate", "-c", cfg)
	require.NoError(t, err)
	assert.Contains(t, out, "payments.yaml")
}

func TestFlags(t *testing.T) {
	_, err := execute(t, "validate")
	assert.Error(t, err)

	_, err = execute(t, "routes", "-f", "a.yaml", "--format", "xml")
	assert.ErrorContains(t, err, "formato inválido")
}

func TestRoutes(t *testing.T) {
	path := writeFile(t, t.TempDir(), "payments.yaml", testutil.PaymentsContract)

	out, err := execute(t, "routes", "-f", path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 6)
	assert.Contains(t, lines[1], "/accounts/{id}")
	assert.Contains(t, lines[3], "/payments/summary")
	assert.Contains(t, lines[4], "/payments/{reference}")

	out, err = execute(t, "routes", "-f", path, "--format", "json")
	require.NoError(t, err)
	var summary []routes.RouteSummary
	require.NoError(t, json.Unmarshal([]byte(out), &summary))
	assert.Equal(t, "retrieve(reference)", summary[3].Behavior)
}
