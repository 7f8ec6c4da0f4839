// Package engine monta o mock a partir da configuração: carrega contrato e
// overrides, compila a tabela de rotas e conecta validação, resolução,
// linkage, journal e métricas em um único pipeline.
package engine

import (
	"context"
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"github.com/raywall/fast-service-mock/pkg/config"
	"github.com/raywall/fast-service-mock/pkg/contract"
	"github.com/raywall/fast-service-mock/pkg/journal"
	"github.com/raywall/fast-service-mock/pkg/linkage"
	"github.com/raywall/fast-service-mock/pkg/logger"
	"github.com/raywall/fast-service-mock/pkg/metrics"
	"github.com/raywall/fast-service-mock/pkg/observability"
	"github.com/raywall/fast-service-mock/pkg/overrides"
	"github.com/raywall/fast-service-mock/pkg/pipeline"
	"github.com/raywall/fast-service-mock/pkg/resolver"
	"github.com/raywall/fast-service-mock/pkg/routes"
	"github.com/raywall/fast-service-mock/pkg/rules"
	"github.com/raywall/fast-service-mock/pkg/synth"
	"github.com/raywall/fast-service-mock/pkg/validation"
)

// Documents são os documentos já lidos da fonte configurada.
type Documents struct {
	Contract  []byte
	Overrides []byte
}

// MockEngine é imutável após a montagem; só o linkage.Store muda em runtime.
type MockEngine struct {
	Config    *config.ServiceConfig
	Logger    zerolog.Logger
	Document  *contract.Document
	Table     *routes.Table
	Overrides *overrides.Table
	Store     linkage.Store
	Metrics   *observability.Setup
	Pipeline  *pipeline.Pipeline
}

// New lê contrato e overrides pelo loader e monta o engine.
func New(ctx context.Context, cfg *config.ServiceConfig, loader *UniversalLoader) (*MockEngine, error) {
	docs, err := FetchDocuments(ctx, cfg, loader)
	if err != nil {
		return nil, err
	}
	return Assemble(ctx, cfg, docs)
}

// FetchDocuments lê o contrato e, se configurado, o arquivo de overrides.
func FetchDocuments(ctx context.Context, cfg *config.ServiceConfig, loader *UniversalLoader) (Documents, error) {
	var docs Documents
	var err error

	docs.Contract, err = loader.Fetch(ctx, cfg.Contract.Source)
	if err != nil {
		return docs, fmt.Errorf("falha ao ler contrato: %w", err)
	}
	if cfg.Contract.Overrides != "" {
		docs.Overrides, err = loader.Fetch(ctx, cfg.Contract.Overrides)
		if err != nil {
			return docs, fmt.Errorf("falha ao ler overrides: %w", err)
		}
	}
	return docs, nil
}

// Assemble monta o engine a partir dos documentos. Qualquer erro aborta a
// inicialização: o serviço nunca sobe parcialmente configurado.
func Assemble(ctx context.Context, cfg *config.ServiceConfig, docs Documents) (*MockEngine, error) {
	log := logger.Configure(cfg.Service.Logging, cfg.Service.Name)

	// 1. Contrato e tabela de rotas
	doc, err := contract.Load(docs.Contract)
	if err != nil {
		return nil, fmt.Errorf("contrato inválido: %w", err)
	}
	table, err := routes.Build(doc)
	if err != nil {
		return nil, fmt.Errorf("estrutura do contrato inválida: %w", err)
	}

	// 2. Overrides
	ov := overrides.Empty()
	if len(docs.Overrides) > 0 {
		ov, err = overrides.Load(docs.Overrides)
		if err != nil {
			return nil, err
		}
	}

	// 3. Segurança e validação
	rm, err := rules.NewRuleManager()
	if err != nil {
		return nil, fmt.Errorf("falha fatal ao iniciar RuleManager: %w", err)
	}
	v, err := validation.New(table.Schemes(), rm)
	if err != nil {
		return nil, err
	}

	// 4. Métricas
	metricSetup, err := observability.SetupMetrics(cfg.Service.Metrics)
	if err != nil {
		return nil, fmt.Errorf("falha métricas: %w", err)
	}

	// 5. Linkage
	store, err := linkage.Open(ctx, linkageOptions(cfg.Linkage))
	if err != nil {
		return nil, fmt.Errorf("falha ao abrir linkage '%s': %w", cfg.Linkage.Backend, err)
	}

	// 6. Journal
	sink, err := journalSink(ctx, cfg.Journal, log)
	if err != nil {
		closeStore(store)
		return nil, err
	}

	// 7. Resolução e pipeline
	synthOpts := []synth.Option{synth.WithMaxDepth(cfg.Contract.MaxDepth)}
	if cfg.Contract.Seed != 0 {
		synthOpts = append(synthOpts, synth.WithSeed(cfg.Contract.Seed))
	}
	res := resolver.New(ov, store, synth.New(synthOpts...), log, resolver.Options{
		StatusHeader: cfg.Contract.StatusHeader,
	})
	p := pipeline.New(table, v, res, pipeline.Options{
		Journal:  sink,
		Recorder: metrics.NewRecorder(metricSetup.Provider),
		Logger:   log,
	})

	log.Info().
		Int("operations", table.Len()).
		Int("overrides", ov.Len()).
		Str("linkage", backendName(cfg.Linkage.Backend)).
		Msg("Mock montado a partir do contrato")

	return &MockEngine{
		Config:    cfg,
		Logger:    log,
		Document:  doc,
		Table:     table,
		Overrides: ov,
		Store:     store,
		Metrics:   metricSetup,
		Pipeline:  p,
	}, nil
}

// Close libera conexões do backend de linkage.
func (e *MockEngine) Close() error {
	return closeStore(e.Store)
}

func linkageOptions(c config.LinkageConf) linkage.Options {
	return linkage.Options{
		Backend:       c.Backend,
		TTL:           c.GetTTL(),
		RedisAddr:     c.Redis.Addr,
		RedisPassword: c.Redis.Password,
		RedisDB:       c.Redis.DB,
		RedisPrefix:   c.Redis.Prefix,
		DynamoTable:   c.DynamoDB.Table,
		Region:        c.DynamoDB.Region,
		PostgresDSN:   c.Postgres.DSN,
		PostgresTable: c.Postgres.Table,
	}
}

func journalSink(ctx context.Context, c config.JournalConf, log zerolog.Logger) (journal.Sink, error) {
	var sinks journal.Multi
	if c.Log {
		sinks = append(sinks, journal.NewLogSink(log))
	}
	if c.SQS.Enabled {
		sqsSink, err := journal.OpenSQSSink(ctx, c.SQS.Region, c.SQS.QueueURL)
		if err != nil {
			return nil, fmt.Errorf("falha ao iniciar journal sqs: %w", err)
		}
		sinks = append(sinks, sqsSink)
	}

	switch len(sinks) {
	case 0:
		return journal.Nop{}, nil
	case 1:
		return sinks[0], nil
	}
	return sinks, nil
}

func closeStore(store linkage.Store) error {
	if c, ok := store.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func backendName(b string) string {
	if b == "" {
		return "memory"
	}
	return b
}
