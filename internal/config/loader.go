package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"reflect"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Default returns a Config holding only the struct tag defaults
func Default() *Config {
	cfg := &Config{}
	// Defaults are compile-time constants; a bad one is a programming error
	if err := walkStruct(reflect.ValueOf(cfg).Elem(), applyDefault); err != nil {
		panic(fmt.Sprintf("invalid config default: %v", err))
	}
	return cfg
}

// Load resolves the configuration from defaults, the YAML file at path (if
// path is not empty) and environment variables, then validates it.
func Load(path string) (*Config, error) {
	cfg, err := LoadUnvalidated(path)
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

// LoadUnvalidated resolves the configuration like Load but leaves validation
// to the caller, which may still override fields
func LoadUnvalidated(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := loadFile(cfg, path); err != nil {
			return nil, fmt.Errorf("config load: %w", err)
		}
	}

	if err := walkStruct(reflect.ValueOf(cfg).Elem(), applyEnv); err != nil {
		return nil, fmt.Errorf("config load: %w", err)
	}

	return cfg, nil
}

// loadFile overlays the YAML document onto cfg; keys it omits keep their value.
// An empty file changes nothing.
func loadFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}

// walkStruct calls fn for every settable leaf field, recursing into nested structs
func walkStruct(v reflect.Value, fn func(reflect.StructField, reflect.Value) error) error {
	t := v.Type()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		fieldVal := v.Field(i)

		if !fieldVal.CanSet() {
			continue
		}

		if field.Type.Kind() == reflect.Struct && field.Type != reflect.TypeOf(time.Time{}) {
			if err := walkStruct(fieldVal, fn); err != nil {
				return err
			}
			continue
		}

		if err := fn(field, fieldVal); err != nil {
			return err
		}
	}

	return nil
}

func applyDefault(field reflect.StructField, fieldVal reflect.Value) error {
	value := field.Tag.Get("default")
	if value == "" {
		return nil
	}
	if err := setField(fieldVal, value); err != nil {
		return fmt.Errorf("invalid default for %s=%q: %w", field.Name, value, err)
	}
	return nil
}

func applyEnv(field reflect.StructField, fieldVal reflect.Value) error {
	envName := field.Tag.Get("env")
	if envName == "" {
		return nil
	}

	// Try primary env var, then alternate
	value := os.Getenv(envName)
	if value == "" {
		if envAlt := field.Tag.Get("envAlt"); envAlt != "" {
			value = os.Getenv(envAlt)
		}
	}

	if value == "" {
		return nil
	}

	if err := setField(fieldVal, value); err != nil {
		return fmt.Errorf("invalid value for %s=%q: %w", envName, value, err)
	}
	return nil
}

// setField sets a reflect.Value from a string based on its type
func setField(field reflect.Value, value string) error {
	switch field.Kind() {
	case reflect.String:
		field.SetString(value)

	case reflect.Int, reflect.Int64:
		if field.Type() == reflect.TypeOf(time.Duration(0)) {
			d, err := time.ParseDuration(value)
			if err != nil {
				return fmt.Errorf("invalid duration: %w", err)
			}
			field.Set(reflect.ValueOf(d))
		} else {
			i, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid integer: %w", err)
			}
			field.SetInt(i)
		}

	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean: %w", err)
		}
		field.SetBool(b)

	default:
		return fmt.Errorf("unsupported field type: %s", field.Kind())
	}

	return nil
}
