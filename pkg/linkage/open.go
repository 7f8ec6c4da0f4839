package linkage

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/redis/go-redis/v9"

	"github.com/raywall/fast-service-mock/pkg/cloud"
)

// Options descreve o backend escolhido na configuração do serviço.
type Options struct {
	Backend string // memory (padrão), redis, dynamodb, postgres
	TTL     time.Duration // opcional (redis, dynamodb); zero nunca expira

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string

	DynamoTable string
	Region      string

	PostgresDSN   string
	PostgresTable string
}

// Open instancia o store do backend configurado.
func Open(ctx context.Context, opts Options) (Store, error) {
	switch opts.Backend {
	case "", "memory":
		return NewMemoryStore(), nil

	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     opts.RedisAddr,
			Password: opts.RedisPassword,
			DB:       opts.RedisDB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			return nil, backendError("redis", "PING", err)
		}
		return NewRedisStore(client, opts.RedisPrefix, opts.TTL), nil

	case "dynamodb":
		cfg, err := cloud.GetAWSConfig(ctx, opts.Region)
		if err != nil {
			return nil, fmt.Errorf("erro config aws: %w", err)
		}
		return NewDynamoStore(dynamodb.NewFromConfig(cfg), opts.DynamoTable, opts.TTL), nil

	case "postgres":
		store, err := OpenPostgres(opts.PostgresDSN, opts.PostgresTable)
		if err != nil {
			return nil, err
		}
		if err := store.EnsureSchema(ctx); err != nil {
			store.Close()
			return nil, err
		}
		return store, nil
	}
	return nil, fmt.Errorf("backend de linkage desconhecido: %s", opts.Backend)
}
