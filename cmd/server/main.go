package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/raywall/fast-service-mock/envloader"
	"github.com/raywall/fast-service-mock/pkg/engine"
	"github.com/raywall/fast-service-mock/pkg/transport"
)

// envFiles é lido primeiro: os arquivos listados podem definir as demais variáveis de boot.
type envFiles struct {
	Files []string `env:"MOCK_ENV_FILES" envDefault:".env"`
}

// bootConfig são os parâmetros lidos do ambiente antes do arquivo de configuração.
type bootConfig struct {
	ConfigPath      string        `env:"CONFIG_FILE_PATH,required"`
	ShutdownTimeout time.Duration `env:"MOCK_SHUTDOWN_TIMEOUT" envDefault:"5s"`
}

var (
	// Variáveis injetáveis para mocking
	serverStarter = transport.StartHTTPServer
	lambdaStarter = lambda.Start
)

func main() {
	boot, err := loadBoot()
	if err != nil {
		log.Fatal().Err(err).Msg("Falha ao carregar o arquivo de roteirização")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, boot); err != nil {
		log.Fatal().Err(err).Msg("Falha ao iniciar o mock")
	}
}

// loadBoot carrega os arquivos .env e só então lê (e exige) as variáveis de boot.
func loadBoot() (bootConfig, error) {
	var files envFiles
	if err := envloader.Load(&files); err != nil {
		return bootConfig{}, err
	}
	if err := loadEnvFiles(files.Files); err != nil {
		return bootConfig{}, fmt.Errorf("falha ao carregar arquivo .env: %w", err)
	}

	var boot bootConfig
	if err := envloader.Load(&boot); err != nil {
		return bootConfig{}, err
	}
	return boot, nil
}

// loadEnvFiles carrega os arquivos existentes; ausentes são ignorados.
func loadEnvFiles(files []string) error {
	var existing []string
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			existing = append(existing, f)
		} else if !errors.Is(err, os.ErrNotExist) {
			return err
		}
	}
	if len(existing) == 0 {
		return nil
	}
	return godotenv.Load(existing...)
}

// run contém a lógica principal testável
func run(ctx context.Context, boot bootConfig) error {
	// 1. Configuração
	cfg, err := engine.LoadConfig(ctx, boot.ConfigPath)
	if err != nil {
		return err
	}

	// 2. Engine (contrato, overrides, linkage)
	eng, err := engine.New(ctx, cfg, engine.NewUniversalLoader())
	if err != nil {
		return err
	}
	defer eng.Close()

	// 3. Runtime
	switch cfg.Service.Runtime {
	case "local", "ec2", "ecs", "eks":
		return serverStarter(ctx, eng, boot.ShutdownTimeout)
	case "lambda":
		handler, err := transport.NewLambdaHandler(eng)
		if err != nil {
			return err
		}
		lambdaStarter(handler.Handle)
		return nil
	default:
		return fmt.Errorf("runtime desconhecido: %s", cfg.Service.Runtime)
	}
}
