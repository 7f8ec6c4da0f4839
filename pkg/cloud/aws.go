// Package cloud concentra a configuração compartilhada da AWS e o acesso a
// parâmetros (SSM) e segredos (Secrets Manager).
package cloud

import (
	"context"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
)

var (
	mu      sync.Mutex
	configs = map[string]aws.Config{}
)

// GetAWSConfig carrega a configuração da AWS (env vars, profile, IAM role) uma
// única vez por região. Região vazia usa a cadeia padrão do SDK.
func GetAWSConfig(ctx context.Context, region string) (aws.Config, error) {
	mu.Lock()
	defer mu.Unlock()

	if cfg, ok := configs[region]; ok {
		return cfg, nil
	}

	var opts []func(*config.LoadOptions) error
	if region != "" {
		opts = append(opts, config.WithRegion(region))
	}
	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, err
	}
	configs[region] = cfg
	return cfg, nil
}
