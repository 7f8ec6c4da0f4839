package config

import "time"

// ServiceConfig representa a estrutura raiz do arquivo YAML do mock.
type ServiceConfig struct {
	Version   string         `yaml:"version" validate:"required"`
	Service   ServiceDetails `yaml:"service" validate:"required"`
	Contract  ContractConf   `yaml:"contract" validate:"required"`
	Linkage   LinkageConf    `yaml:"linkage"`
	Journal   JournalConf    `yaml:"journal"`
	Admin     AdminConf      `yaml:"admin"`
	RateLimit RateLimitConf  `yaml:"rate_limit"`
}

// ServiceDetails contém os metadados e configurações de runtime do serviço.
type ServiceDetails struct {
	Name    string      `yaml:"name" validate:"required,hostname_rfc1123"`
	Runtime string      `yaml:"runtime" validate:"required,oneof=local lambda ecs eks ec2"`
	Port    int         `yaml:"port" env:"PORT" validate:"required_if=Runtime local"` // Obrigatório apenas se local
	Timeout string      `yaml:"timeout"`                                              // Ex: "500ms", "2s"
	Logging LoggingConf `yaml:"logging"`
	Metrics MetricsConf `yaml:"metrics"`
}

// ContractConf aponta para o contrato OpenAPI e para o arquivo de overrides.
// Ambos aceitam caminho local, file://, s3:// ou dynamodb://.
type ContractConf struct {
	Source       string `yaml:"source" env:"MOCK_CONTRACT_SOURCE" validate:"required"`
	Overrides    string `yaml:"overrides" env:"MOCK_OVERRIDES_SOURCE"`
	StatusHeader string `yaml:"status_header"`
	Seed         uint64 `yaml:"seed"`
	MaxDepth     int    `yaml:"max_depth" validate:"gte=0"`
}

type LinkageConf struct {
	Backend  string       `yaml:"backend" env:"MOCK_LINKAGE_BACKEND" validate:"omitempty,oneof=memory redis dynamodb postgres"`
	TTL      string       `yaml:"ttl"`
	Redis    RedisConf    `yaml:"redis"`
	DynamoDB DynamoConf   `yaml:"dynamodb"`
	Postgres PostgresConf `yaml:"postgres"`
}

type RedisConf struct {
	Addr     string `yaml:"addr" env:"REDIS_ADDR"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Prefix   string `yaml:"prefix"`
}

type DynamoConf struct {
	Table  string `yaml:"table"`
	Region string `yaml:"region"`
}

type PostgresConf struct {
	DSN   string `yaml:"dsn" env:"POSTGRES_DSN"`
	Table string `yaml:"table"`
}

// JournalConf controla para onde vai o registro de cada requisição atendida.
type JournalConf struct {
	Log bool    `yaml:"log"`
	SQS SQSConf `yaml:"sqs"`
}

type SQSConf struct {
	Enabled  bool   `yaml:"enabled"`
	QueueURL string `yaml:"queue_url" validate:"required_if=Enabled true,omitempty,url"`
	Region   string `yaml:"region"`
}

// AdminConf expõe as rotas internas do mock (tabela de rotas, health, graphql).
type AdminConf struct {
	Enabled bool   `yaml:"enabled"`
	Prefix  string `yaml:"prefix" validate:"omitempty,startswith=/"`
	GraphQL bool   `yaml:"graphql"`
}

type RateLimitConf struct {
	Enabled bool    `yaml:"enabled"`
	RPS     float64 `yaml:"rps" validate:"required_if=Enabled true,gte=0"`
	Burst   int     `yaml:"burst" validate:"gte=0"`
}

type LoggingConf struct {
	Enabled bool   `yaml:"enabled"`
	Level   string `yaml:"level" validate:"omitempty,oneof=debug info warn error"`
	Format  string `yaml:"format" validate:"omitempty,oneof=json console"`
}

type MetricsConf struct {
	Datadog    DatadogConf    `yaml:"datadog"`
	Prometheus PrometheusConf `yaml:"prometheus"`
}

type DatadogConf struct {
	Enabled   bool   `yaml:"enabled" env:"DD_ENABLED"`
	Addr      string `yaml:"addr" env:"DD_AGENT_HOST" validate:"required_if=Enabled true"`
	Namespace string `yaml:"namespace"`
}

type PrometheusConf struct {
	Enabled bool   `yaml:"enabled"`
	Route   string `yaml:"route" validate:"omitempty,startswith=/"`
}

func (s ServiceDetails) GetTimeout() time.Duration {
	d, err := time.ParseDuration(s.Timeout)
	if err != nil || d <= 0 {
		return 30 * time.Second
	}
	return d
}

// GetTTL devolve zero (sem expiração) quando o valor não é informado ou é inválido.
func (l LinkageConf) GetTTL() time.Duration {
	d, err := time.ParseDuration(l.TTL)
	if err != nil || d < 0 {
		return 0
	}
	return d
}

// AdminPrefix devolve o prefixo das rotas internas, "/__mock" por padrão.
func (a AdminConf) AdminPrefix() string {
	if a.Prefix == "" {
		return "/__mock"
	}
	return a.Prefix
}
