package engine

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raywall/fast-service-mock/pkg/config/injector"
)

// --- Mocks ---

type MockS3Loader struct {
	GetObjectFunc func(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

func (m *MockS3Loader) GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	return m.GetObjectFunc(ctx, params, optFns...)
}

type MockDynamoLoader struct {
	GetItemFunc func(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
}

func (m *MockDynamoLoader) GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	return m.GetItemFunc(ctx, params, optFns...)
}

const serviceYAML = `
version: "1.0"
service:
  name: "payments-mock"
  runtime: "local"
  port: 8080
  logging:
    enabled: false
contract:
  source: "contracts/payments.yaml"
  overrides: "contracts/overrides.yaml"
  seed: 42
`

func offlineInjector() *injector.Injector {
	none := func(ctx context.Context, key string) (string, error) {
		return "", errors.New("sem acesso à AWS nos testes")
	}
	return injector.NewWithLookups(none, none)
}

// --- Testes ---

func TestUniversalLoader_LoadConfig_Local(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "service.yaml")
	require.NoError(t, os.WriteFile(path, []byte(serviceYAML), 0o644))

	loader := NewUniversalLoader(WithInjector(offlineInjector()))
	cfg, err := loader.LoadConfig(context.Background(), "file://"+path)
	require.NoError(t, err)

	assert.Equal(t, "payments-mock", cfg.Service.Name)
	assert.Equal(t, uint64(42), cfg.Contract.Seed)
	assert.Equal(t, filepath.Join(dir, "contracts/payments.yaml"), cfg.Contract.Source)
	assert.Equal(t, filepath.Join(dir, "contracts/overrides.yaml"), cfg.Contract.Overrides)
}

func TestUniversalLoader_LoadConfig_Invalid(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "service.yaml")
	require.NoError(t, os.WriteFile(path, []byte("version: \"1.0\"\nservice: {name: x, runtime: local, port: 1}\n"), 0o644))

	_, err := NewUniversalLoader(WithInjector(offlineInjector())).LoadConfig(context.Background(), path)
	assert.ErrorContains(t, err, "Source")

	_, err = NewUniversalLoader().LoadConfig(context.Background(), filepath.Join(dir, "nao-existe.yaml"))
	assert.Error(t, err)
}

func TestUniversalLoader_S3(t *testing.T) {
	mockS3 := &MockS3Loader{
		GetObjectFunc: func(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
			assert.Equal(t, "contracts", *params.Bucket)
			assert.Equal(t, "payments/openapi.yaml", *params.Key)
			return &s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader("openapi: 3.0.0"))}, nil
		},
	}

	loader := NewUniversalLoader(WithS3Client(mockS3))
	data, err := loader.Fetch(context.Background(), "s3://contracts/payments/openapi.yaml")
	require.NoError(t, err)
	assert.Equal(t, "openapi: 3.0.0", string(data))

	_, err = loader.Fetch(context.Background(), "s3://somente-bucket")
	assert.ErrorContains(t, err, "s3://bucket/chave")
}

func TestUniversalLoader_DynamoDB(t *testing.T) {
	mockDynamo := &MockDynamoLoader{
		GetItemFunc: func(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
			assert.Equal(t, "mock-documents", *params.TableName)
			key := params.Key["name"].(*types.AttributeValueMemberS).Value
			if key != "payments" {
				return &dynamodb.GetItemOutput{}, nil
			}
			return &dynamodb.GetItemOutput{Item: map[string]types.AttributeValue{
				"name":     &types.AttributeValueMemberS{Value: "payments"},
				"contract": &types.AttributeValueMemberS{Value: "openapi: 3.0.1"},
			}}, nil
		},
	}
	loader := NewUniversalLoader(WithDynamoClient(mockDynamo))

	data, err := loader.Fetch(context.Background(), "dynamodb://mock-documents/payments?col=contract&pk=name")
	require.NoError(t, err)
	assert.Equal(t, "openapi: 3.0.1", string(data))

	_, err = loader.Fetch(context.Background(), "dynamodb://mock-documents/outro?pk=name")
	assert.ErrorContains(t, err, "não encontrado")

	_, err = loader.Fetch(context.Background(), "dynamodb://mock-documents/payments?pk=name")
	assert.ErrorContains(t, err, "coluna 'config'")
}

func TestRelativeTo(t *testing.T) {
	assert.Equal(t, "", relativeTo("/etc/mock", ""))
	assert.Equal(t, "s3://b/k", relativeTo("/etc/mock", "s3://b/k"))
	assert.Equal(t, "/abs/c.yaml", relativeTo("/etc/mock", "/abs/c.yaml"))
	assert.Equal(t, "/etc/mock/c.yaml", relativeTo("/etc/mock", "file://c.yaml"))
}
