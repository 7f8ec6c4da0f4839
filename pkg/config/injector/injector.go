// Package injector resolve placeholders ${env.X}, ${ssm./caminho} e
// ${secret.id} nos campos string da configuração e aplica as tags env:"...".
package injector

import (
	"context"
	"fmt"
	"os"
	"reflect"
	"regexp"
	"strconv"
	"strings"

	"github.com/raywall/fast-service-mock/pkg/cloud"
)

// Regex para capturar padrões ${tipo.chave}
// Ex: ${env.API_KEY}, ${ssm./app/config}, ${secret.db_pass}
var pattern = regexp.MustCompile(`\$\{(env|ssm|secret)\.([^}]+)\}`)

// Lookup busca um valor remoto pela chave.
type Lookup func(ctx context.Context, key string) (string, error)

type Injector struct {
	ssm    Lookup
	secret Lookup
}

// New usa o Parameter Store e o Secrets Manager da região em AWS_REGION.
func New() *Injector {
	region := os.Getenv("AWS_REGION")
	return &Injector{
		ssm: func(ctx context.Context, key string) (string, error) {
			return cloud.Parameter(ctx, region, key)
		},
		secret: func(ctx context.Context, key string) (string, error) {
			return cloud.Secret(ctx, region, key)
		},
	}
}

// NewWithLookups permite trocar as fontes remotas (testes, ambientes sem AWS).
func NewWithLookups(ssm, secret Lookup) *Injector {
	return &Injector{ssm: ssm, secret: secret}
}

func (i *Injector) Inject(ctx context.Context, target interface{}) error {
	v := reflect.ValueOf(target)
	if v.Kind() != reflect.Ptr || v.IsNil() {
		return fmt.Errorf("target deve ser um ponteiro para struct não nulo")
	}
	return i.injectRecursive(ctx, v.Elem())
}

func (i *Injector) injectRecursive(ctx context.Context, v reflect.Value) error {
	switch v.Kind() {
	case reflect.Struct:
		t := v.Type()
		for k := 0; k < t.NumField(); k++ {
			field := t.Field(k)
			value := v.Field(k)

			// 1. Tags env:"..." têm prioridade sobre o YAML
			if err := applyEnvTag(field, value); err != nil {
				return err
			}

			// 2. Strings com interpolação "${...}"
			if value.Kind() == reflect.String && value.CanSet() {
				newValue, err := i.interpolateString(ctx, value.String())
				if err != nil {
					return fmt.Errorf("campo '%s': %w", field.Name, err)
				}
				value.SetString(newValue)
			}

			// 3. Recursão
			if value.CanSet() || value.Kind() == reflect.Ptr {
				if err := i.injectRecursive(ctx, value); err != nil {
					return err
				}
			}
		}

	case reflect.Map:
		if v.Type().Key().Kind() == reflect.String && !v.IsNil() {
			return i.injectMap(ctx, v)
		}

	case reflect.Ptr:
		if !v.IsNil() {
			return i.injectRecursive(ctx, v.Elem())
		}

	case reflect.Slice:
		for j := 0; j < v.Len(); j++ {
			if err := i.injectRecursive(ctx, v.Index(j)); err != nil {
				return err
			}
		}
	}
	return nil
}

func applyEnvTag(field reflect.StructField, value reflect.Value) error {
	if !value.CanSet() {
		return nil
	}
	tag := field.Tag.Get("env")
	if tag == "" {
		return nil
	}
	val, exists := os.LookupEnv(tag)
	if !exists {
		return nil
	}
	if err := setField(value, val); err != nil {
		return fmt.Errorf("variável %s inválida para o campo '%s': %w", tag, field.Name, err)
	}
	return nil
}

func (i *Injector) interpolateString(ctx context.Context, input string) (string, error) {
	if !strings.Contains(input, "${") {
		return input, nil
	}

	var err error
	result := pattern.ReplaceAllStringFunc(input, func(match string) string {
		if err != nil {
			return match
		}
		sub := pattern.FindStringSubmatch(match)
		val, resolveErr := i.fetchValue(ctx, sub[1], sub[2])
		if resolveErr != nil {
			err = resolveErr
			return match
		}
		return val
	})

	return result, err
}

// injectMap lida com mapas dinâmicos (map[string]string e map[string]interface{}).
func (i *Injector) injectMap(ctx context.Context, v reflect.Value) error {
	iter := v.MapRange()
	updates := make(map[string]reflect.Value)

	for iter.Next() {
		key := iter.Key()
		elem := iter.Value()
		if elem.Kind() == reflect.Interface {
			elem = elem.Elem()
		}
		if !elem.IsValid() {
			continue
		}

		switch elem.Kind() {
		case reflect.String:
			newVal, err := i.interpolateString(ctx, elem.String())
			if err != nil {
				return fmt.Errorf("chave '%s': %w", key.String(), err)
			}
			updates[key.String()] = reflect.ValueOf(newVal).Convert(v.Type().Elem())
		case reflect.Map:
			if err := i.injectMap(ctx, elem); err != nil {
				return err
			}
		}
	}

	for k, val := range updates {
		v.SetMapIndex(reflect.ValueOf(k).Convert(v.Type().Key()), val)
	}
	return nil
}

func (i *Injector) fetchValue(ctx context.Context, sourceType, key string) (string, error) {
	switch sourceType {
	case "env":
		// variável ausente vira string vazia
		return os.Getenv(key), nil
	case "ssm":
		if i.ssm == nil {
			return "", fmt.Errorf("fonte ssm não configurada")
		}
		return i.ssm(ctx, key)
	case "secret":
		if i.secret == nil {
			return "", fmt.Errorf("fonte secret não configurada")
		}
		return i.secret(ctx, key)
	}
	return "", fmt.Errorf("fonte desconhecida: %s", sourceType)
}

func setField(field reflect.Value, val string) error {
	switch field.Kind() {
	case reflect.String:
		field.SetString(val)
	case reflect.Bool:
		b, err := strconv.ParseBool(val)
		if err != nil {
			return err
		}
		field.SetBool(b)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(val, 10, 64)
		if err != nil {
			return err
		}
		field.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := strconv.ParseUint(val, 10, 64)
		if err != nil {
			return err
		}
		field.SetUint(n)
	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return err
		}
		field.SetFloat(f)
	}
	return nil
}
