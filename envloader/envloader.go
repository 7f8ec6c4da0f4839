package envloader

import (
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"
)

var durationType = reflect.TypeOf(time.Duration(0))

// Load preenche uma struct com variáveis de ambiente usando as tags:
//
//	env:"NOME" ou env:"NOME,required"
//	envDefault:"valor"
//	envSeparator:";" (slices, padrão ",")
func Load(config interface{}) error {
	val := reflect.ValueOf(config)
	if !val.IsValid() {
		return &InvalidConfigError{}
	}
	if val.Kind() != reflect.Ptr || val.Elem().Kind() != reflect.Struct {
		return &InvalidConfigError{Value: val.Type()}
	}
	return loadStruct(val.Elem())
}

func loadStruct(val reflect.Value) error {
	typ := val.Type()

	for i := 0; i < val.NumField(); i++ {
		field := val.Field(i)
		fieldType := typ.Field(i)
		if !field.CanSet() {
			continue
		}

		envTag := fieldType.Tag.Get("env")

		// structs aninhadas sem tag própria
		if envTag == "" {
			switch {
			case field.Kind() == reflect.Struct:
				if err := loadStruct(field); err != nil {
					return err
				}
			case field.Kind() == reflect.Ptr && field.Type().Elem().Kind() == reflect.Struct:
				if field.IsNil() {
					field.Set(reflect.New(field.Type().Elem()))
				}
				if err := loadStruct(field.Elem()); err != nil {
					return err
				}
			}
			continue
		}

		name, required := parseTag(envTag)
		value, ok := os.LookupEnv(name)
		if !ok || value == "" {
			value = fieldType.Tag.Get("envDefault")
		}
		if value == "" {
			if required {
				return &MissingVarError{FieldName: fieldType.Name, EnvVar: name}
			}
			continue
		}

		separator := fieldType.Tag.Get("envSeparator")
		if separator == "" {
			separator = ","
		}
		if err := setFieldValue(field, value, separator); err != nil {
			return &FieldError{FieldName: fieldType.Name, EnvVar: name, Value: value, Err: err}
		}
	}
	return nil
}

func parseTag(tag string) (string, bool) {
	parts := strings.Split(tag, ",")
	required := false
	for _, opt := range parts[1:] {
		if strings.TrimSpace(opt) == "required" {
			required = true
		}
	}
	return strings.TrimSpace(parts[0]), required
}

func setFieldValue(field reflect.Value, value, separator string) error {
	if field.Type() == durationType {
		d, err := time.ParseDuration(value)
		if err != nil {
			return err
		}
		field.SetInt(int64(d))
		return nil
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(value)

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(value, 10, field.Type().Bits())
		if err != nil {
			return err
		}
		field.SetInt(n)

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := strconv.ParseUint(value, 10, field.Type().Bits())
		if err != nil {
			return err
		}
		field.SetUint(n)

	case reflect.Bool:
		b, err := strconv.ParseBool(strings.ToLower(value))
		if err != nil {
			return err
		}
		field.SetBool(b)

	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(value, field.Type().Bits())
		if err != nil {
			return err
		}
		field.SetFloat(f)

	case reflect.Slice:
		parts := strings.Split(value, separator)
		slice := reflect.MakeSlice(field.Type(), 0, len(parts))
		for _, part := range parts {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			item := reflect.New(field.Type().Elem()).Elem()
			if err := setFieldValue(item, part, separator); err != nil {
				return err
			}
			slice = reflect.Append(slice, item)
		}
		field.Set(slice)

	default:
		return &UnsupportedTypeError{Type: field.Type()}
	}
	return nil
}

// MustLoad é Load com panic em caso de erro.
func MustLoad(config interface{}) {
	if err := Load(config); err != nil {
		panic(err)
	}
}
