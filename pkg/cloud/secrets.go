package cloud

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
)

// Interfaces para abstrair o SDK da AWS (Permite Mocking)
type SSMClient interface {
	GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

type SecretsClient interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// Parameter lê um parâmetro do SSM Parameter Store (com decrypt).
func Parameter(ctx context.Context, region, path string) (string, error) {
	cfg, err := GetAWSConfig(ctx, region)
	if err != nil {
		return "", err
	}
	return ParameterFrom(ctx, ssm.NewFromConfig(cfg), path)
}

// ParameterFrom é a versão testável de Parameter.
func ParameterFrom(ctx context.Context, client SSMClient, path string) (string, error) {
	decrypt := true
	out, err := client.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           &path,
		WithDecryption: &decrypt,
	})
	if err != nil {
		return "", fmt.Errorf("erro no SSM GetParameter: %w", err)
	}
	if out.Parameter == nil || out.Parameter.Value == nil {
		return "", fmt.Errorf("parâmetro '%s' sem valor", path)
	}
	return *out.Parameter.Value, nil
}

// Secret lê um segredo do Secrets Manager. Segredos JSON podem ser indexados
// com "#campo" (ex: "db/credentials#password").
func Secret(ctx context.Context, region, secretID string) (string, error) {
	cfg, err := GetAWSConfig(ctx, region)
	if err != nil {
		return "", err
	}
	return SecretFrom(ctx, secretsmanager.NewFromConfig(cfg), secretID)
}

// SecretFrom é a versão testável de Secret.
func SecretFrom(ctx context.Context, client SecretsClient, secretID string) (string, error) {
	id, field := splitSecretField(secretID)

	out, err := client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: &id,
	})
	if err != nil {
		return "", fmt.Errorf("erro no SecretsManager: %w", err)
	}
	if out.SecretString == nil {
		return "", fmt.Errorf("segredo '%s' sem SecretString", id)
	}

	val := *out.SecretString
	if field == "" {
		return val, nil
	}

	var data map[string]interface{}
	if err := json.Unmarshal([]byte(val), &data); err != nil {
		return "", fmt.Errorf("segredo '%s' não é JSON: %w", id, err)
	}
	v, ok := data[field]
	if !ok {
		return "", fmt.Errorf("campo '%s' ausente no segredo '%s'", field, id)
	}
	return fmt.Sprintf("%v", v), nil
}

func splitSecretField(secretID string) (string, string) {
	for i := len(secretID) - 1; i >= 0; i-- {
		if secretID[i] == '#' {
			return secretID[:i], secretID[i+1:]
		}
	}
	return secretID, ""
}
