package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

type ConfigValidator struct {
	validate *validator.Validate
}

// NewValidator cria uma nova instância do validador
func NewValidator() *ConfigValidator {
	return &ConfigValidator{
		validate: validator.New(),
	}
}

// Validate realiza validações estruturais (tags) e semânticas (lógica)
func (cv *ConfigValidator) Validate(cfg *ServiceConfig) error {
	// 1. Validação Estrutural (Tags do struct: required, oneof, etc)
	if err := cv.validate.Struct(cfg); err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			var errMsgs []string
			for _, e := range validationErrors {
				errMsgs = append(errMsgs, fmt.Sprintf("Campo '%s' falhou na regra '%s'", e.Field(), e.Tag()))
			}
			return fmt.Errorf("erros de validação estrutural:\n- %s", strings.Join(errMsgs, "\n- "))
		}
		return fmt.Errorf("erro de validação estrutural: %w", err)
	}

	// 2. Validação Semântica (Regras de negócio da configuração)
	if err := cv.validateSemantics(cfg); err != nil {
		return fmt.Errorf("erro de validação semântica: %w", err)
	}

	return nil
}

func (cv *ConfigValidator) validateSemantics(cfg *ServiceConfig) error {
	// 1. Cada backend de linkage exige o seu destino
	switch cfg.Linkage.Backend {
	case "redis":
		if cfg.Linkage.Redis.Addr == "" {
			return fmt.Errorf("linkage 'redis' exige 'linkage.redis.addr'")
		}
	case "dynamodb":
		if cfg.Linkage.DynamoDB.Table == "" {
			return fmt.Errorf("linkage 'dynamodb' exige 'linkage.dynamodb.table'")
		}
	case "postgres":
		if cfg.Linkage.Postgres.DSN == "" {
			return fmt.Errorf("linkage 'postgres' exige 'linkage.postgres.dsn'")
		}
	}

	// 2. Durações precisam ser parseáveis
	for field, value := range map[string]string{"service.timeout": cfg.Service.Timeout, "linkage.ttl": cfg.Linkage.TTL} {
		if value == "" {
			continue
		}
		if _, err := time.ParseDuration(value); err != nil {
			return fmt.Errorf("duração inválida em '%s': %q", field, value)
		}
	}

	// 3. Rotas internas não podem colidir com a rota de métricas
	prom := cfg.Service.Metrics.Prometheus
	if cfg.Admin.Enabled && prom.Enabled && prom.Route != "" && strings.HasPrefix(prom.Route, cfg.Admin.AdminPrefix()+"/") {
		return fmt.Errorf("rota de métricas '%s' conflita com o prefixo admin '%s'", prom.Route, cfg.Admin.AdminPrefix())
	}

	return nil
}
