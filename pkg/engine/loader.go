package engine

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"gopkg.in/yaml.v2"

	"github.com/raywall/fast-service-mock/pkg/cloud"
	localConfig "github.com/raywall/fast-service-mock/pkg/config"
	"github.com/raywall/fast-service-mock/pkg/config/injector"
)

// LoadConfig é a função simplificada usada pelos binários.
func LoadConfig(ctx context.Context, source string) (*localConfig.ServiceConfig, error) {
	return NewUniversalLoader().LoadConfig(ctx, source)
}

// --- Interfaces para Mocking ---

type S3Downloader interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

type DynamoGetter interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
}

// UniversalLoader lê documentos (configuração, contrato, overrides) de
// arquivo local, S3 ou DynamoDB.
type UniversalLoader struct {
	validator *localConfig.ConfigValidator
	injector  *injector.Injector
	s3        S3Downloader
	dynamo    DynamoGetter
	region    string
}

type LoaderOption func(*UniversalLoader)

func WithS3Client(c S3Downloader) LoaderOption { return func(ul *UniversalLoader) { ul.s3 = c } }

func WithDynamoClient(c DynamoGetter) LoaderOption {
	return func(ul *UniversalLoader) { ul.dynamo = c }
}

func WithInjector(i *injector.Injector) LoaderOption {
	return func(ul *UniversalLoader) { ul.injector = i }
}

// NewUniversalLoader cria uma nova instância. Clientes AWS não informados são
// criados na primeira leitura remota.
func NewUniversalLoader(opts ...LoaderOption) *UniversalLoader {
	ul := &UniversalLoader{
		validator: localConfig.NewValidator(),
		region:    os.Getenv("AWS_REGION"),
	}
	for _, opt := range opts {
		opt(ul)
	}
	if ul.injector == nil {
		ul.injector = injector.New()
	}
	return ul
}

// Fetch detecta o esquema da fonte e devolve o conteúdo bruto.
func (ul *UniversalLoader) Fetch(ctx context.Context, source string) ([]byte, error) {
	var rawData []byte
	var err error

	switch {
	case strings.HasPrefix(source, "s3://"):
		if ul.s3 == nil {
			cfg, cfgErr := cloud.GetAWSConfig(ctx, ul.region)
			if cfgErr != nil {
				return nil, cfgErr
			}
			ul.s3 = s3.NewFromConfig(cfg)
		}
		rawData, err = ul.loadFromS3(ctx, source)

	case strings.HasPrefix(source, "dynamodb://"):
		if ul.dynamo == nil {
			cfg, cfgErr := cloud.GetAWSConfig(ctx, ul.region)
			if cfgErr != nil {
				return nil, cfgErr
			}
			ul.dynamo = dynamodb.NewFromConfig(cfg)
		}
		rawData, err = ul.loadFromDynamoDB(ctx, source)

	default:
		rawData, err = loadFromFile(source)
	}

	if err != nil {
		return nil, fmt.Errorf("falha leitura de '%s': %w", source, err)
	}
	return rawData, nil
}

// LoadConfig lê, interpola e valida o arquivo de configuração do serviço.
// Fontes locais relativas do contrato e dos overrides passam a ser relativas
// ao diretório do arquivo de configuração.
func (ul *UniversalLoader) LoadConfig(ctx context.Context, source string) (*localConfig.ServiceConfig, error) {
	rawData, err := ul.Fetch(ctx, source)
	if err != nil {
		return nil, err
	}
	cfg, err := ul.parseAndValidate(ctx, rawData)
	if err != nil {
		return nil, err
	}

	if isLocal(source) {
		base := filepath.Dir(strings.TrimPrefix(source, "file://"))
		cfg.Contract.Source = relativeTo(base, cfg.Contract.Source)
		cfg.Contract.Overrides = relativeTo(base, cfg.Contract.Overrides)
	}
	return cfg, nil
}

// --- Estratégias de carregamento ---

func loadFromFile(path string) ([]byte, error) {
	// Suporta tanto "file://config.yaml" quanto apenas "config.yaml"
	return os.ReadFile(strings.TrimPrefix(path, "file://"))
}

func (ul *UniversalLoader) loadFromS3(ctx context.Context, uri string) ([]byte, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return nil, fmt.Errorf("URL S3 inválida: %w", err)
	}
	bucket := u.Host
	key := strings.TrimPrefix(u.Path, "/")
	if bucket == "" || key == "" {
		return nil, fmt.Errorf("URL S3 deve ter o formato s3://bucket/chave")
	}

	out, err := ul.s3.GetObject(ctx, &s3.GetObjectInput{
		Bucket: &bucket,
		Key:    &key,
	})
	if err != nil {
		return nil, err
	}
	defer out.Body.Close()

	return io.ReadAll(out.Body)
}

func (ul *UniversalLoader) loadFromDynamoDB(ctx context.Context, uri string) ([]byte, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return nil, fmt.Errorf("URL DynamoDB inválida: %w", err)
	}

	tableName := u.Host
	pkValue := strings.TrimPrefix(u.Path, "/")

	// Query Params opcionais: dynamodb://tabela/chave?col=dado&pk=UserId
	colName := u.Query().Get("col")
	if colName == "" {
		colName = "config" // Coluna padrão onde o documento está salvo
	}
	pkName := u.Query().Get("pk")
	if pkName == "" {
		pkName = "id" // Nome padrão da Partition Key
	}

	out, err := ul.dynamo.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: &tableName,
		Key: map[string]types.AttributeValue{
			pkName: &types.AttributeValueMemberS{Value: pkValue},
		},
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("item '%s' não encontrado na tabela '%s'", pkValue, tableName)
	}

	var itemMap map[string]interface{}
	if err := attributevalue.UnmarshalMap(out.Item, &itemMap); err != nil {
		return nil, err
	}

	content, ok := itemMap[colName].(string)
	if !ok {
		return nil, fmt.Errorf("coluna '%s' inválida ou vazia no DynamoDB", colName)
	}
	return []byte(content), nil
}

func (ul *UniversalLoader) parseAndValidate(ctx context.Context, data []byte) (*localConfig.ServiceConfig, error) {
	var cfg localConfig.ServiceConfig

	// 1. Unmarshal (YAML -> Struct)
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("YAML malformado: %w", err)
	}

	// 2. Injection (Env/Secrets/SSM)
	if err := ul.injector.Inject(ctx, &cfg); err != nil {
		return nil, fmt.Errorf("falha na injeção de variáveis: %w", err)
	}

	// 3. Validation
	if err := ul.validator.Validate(&cfg); err != nil {
		return nil, fmt.Errorf("validação da configuração falhou: %w", err)
	}

	return &cfg, nil
}

func isLocal(source string) bool {
	return !strings.HasPrefix(source, "s3://") && !strings.HasPrefix(source, "dynamodb://")
}

func relativeTo(base, source string) string {
	if source == "" || !isLocal(source) {
		return source
	}
	path := strings.TrimPrefix(source, "file://")
	if filepath.IsAbs(path) {
		return source
	}
	return filepath.Join(base, path)
}
