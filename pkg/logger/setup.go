package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/raywall/fast-service-mock/pkg/config"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Configure inicializa o logger global baseando-se na configuração do YAML.
func Configure(cfg config.LoggingConf, service string) zerolog.Logger {
	return ConfigureTo(os.Stdout, cfg, service)
}

// ConfigureTo é Configure com destino explícito.
func ConfigureTo(out io.Writer, cfg config.LoggingConf, service string) zerolog.Logger {
	// Nível de log (default: info)
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	// JSON para produção, console para uso local
	output := out
	if !cfg.Enabled {
		output = io.Discard
	} else if cfg.Format == "console" {
		output = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}

	ctx := zerolog.New(output).With().Timestamp()
	if service != "" {
		ctx = ctx.Str("service", service)
	}
	logger := ctx.Logger()

	// middlewares de transporte usam log.Ctx/log.With a partir do logger global
	log.Logger = logger
	return logger
}
