package config

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// Service loads configuration from defaults and environment variables.
type Service struct {
	koanf     *koanf.Koanf
	validator *validator.Validate
	environ   func() []string
}

// NewService creates a new configuration service with validation support.
func NewService() *Service {
	return &Service{
		koanf:     koanf.New("."),
		validator: validator.New(),
	}
}

// Load loads configuration with precedence defaults < environment.
func (s *Service) Load(_ context.Context) (*Config, error) {
	if err := s.loadDefaults(); err != nil {
		return nil, err
	}
	if err := s.loadEnvironment(); err != nil {
		return nil, err
	}
	return s.unmarshalAndValidate()
}

func (s *Service) loadDefaults() error {
	if err := s.koanf.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return fmt.Errorf("failed to load default configuration: %w", err)
	}
	return nil
}

func (s *Service) loadEnvironment() error {
	envToPath := generateEnvMappings()
	opt := env.Opt{
		TransformFunc: func(key, value string) (string, any) {
			if configPath, exists := envToPath[key]; exists {
				return configPath, value
			}
			// Unmapped variables are not configuration; skip them.
			return "", nil
		},
	}
	if s.environ != nil {
		opt.EnvironFunc = s.environ
	}
	if err := s.koanf.Load(env.Provider(".", opt), nil); err != nil {
		return fmt.Errorf("failed to load environment variables: %w", err)
	}
	return nil
}

func (s *Service) unmarshalAndValidate() (*Config, error) {
	cfg := &Config{}
	decoderConfig := &mapstructure.DecoderConfig{
		Result:           cfg,
		TagName:          "koanf",
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			sensitiveStringDecodeHook,
		),
	}
	if err := s.koanf.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{
		Tag:           "koanf",
		DecoderConfig: decoderConfig,
	}); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	if err := s.validator.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// sensitiveStringDecodeHook converts plain strings to SensitiveString targets.
func sensitiveStringDecodeHook(_ reflect.Type, to reflect.Type, data any) (any, error) {
	if to != reflect.TypeOf(SensitiveString("")) {
		return data, nil
	}
	switch v := data.(type) {
	case string:
		return SensitiveString(v), nil
	case []byte:
		return SensitiveString(v), nil
	default:
		return data, nil
	}
}

// generateEnvMappings walks the Config struct and maps `env` tags to their
// dotted koanf paths.
func generateEnvMappings() map[string]string {
	mappings := make(map[string]string)
	collectEnvMappings(reflect.TypeOf(Config{}), "", mappings)
	return mappings
}

func collectEnvMappings(t reflect.Type, prefix string, mappings map[string]string) {
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		koanfTag := field.Tag.Get("koanf")
		if koanfTag == "" {
			continue
		}
		path := koanfTag
		if prefix != "" {
			path = prefix + "." + koanfTag
		}
		if envTag := field.Tag.Get("env"); envTag != "" {
			mappings[strings.ToUpper(envTag)] = path
		}
		if field.Type.Kind() == reflect.Struct {
			collectEnvMappings(field.Type, path, mappings)
		}
	}
}
