package config

import (
	"context"
	"fmt"
	"maps"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/oetzilabs/wfa/pkg/logger"
)

// Loader layers defaults, sources and environment variables into a Config.
// Later sources take precedence over earlier ones; the environment wins over
// all of them.
type Loader struct {
	mu        sync.Mutex
	koanf     *koanf.Koanf
	validator *validator.Validate
	sources   map[string]SourceType
}

func NewLoader() *Loader {
	v := validator.New()
	if err := RegisterCustomValidators(v); err != nil {
		panic(fmt.Sprintf("failed to register config validators: %v", err))
	}
	return &Loader{
		koanf:     koanf.New("."),
		validator: v,
		sources:   make(map[string]SourceType),
	}
}

func (l *Loader) Load(ctx context.Context, sources ...Source) (*Config, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.koanf = koanf.New(".")
	l.sources = make(map[string]SourceType)
	if err := l.loadDefaults(); err != nil {
		return nil, err
	}
	for _, source := range sources {
		if source == nil {
			continue
		}
		if err := l.loadSource(source); err != nil {
			return nil, err
		}
	}
	if err := l.loadEnvironment(); err != nil {
		return nil, err
	}
	config, err := l.unmarshalAndValidate()
	if err != nil {
		return nil, err
	}
	logger.FromContext(ctx).Debug("Configuration loaded", "sources", len(sources))
	return config, nil
}

// GetSource reports which source last set key.
func (l *Loader) GetSource(key string) SourceType {
	l.mu.Lock()
	defer l.mu.Unlock()
	if source, ok := l.sources[key]; ok {
		return source
	}
	return SourceDefault
}

func (l *Loader) loadDefaults() error {
	if err := l.koanf.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return fmt.Errorf("failed to load defaults: %w", err)
	}
	for _, key := range l.koanf.Keys() {
		l.sources[key] = SourceDefault
	}
	return nil
}

func (l *Loader) loadSource(source Source) error {
	data, err := source.Load()
	if err != nil {
		return fmt.Errorf("failed to load from source %s: %w", source.Type(), err)
	}
	if len(data) == 0 {
		return nil
	}
	before := l.snapshot()
	for key, value := range flattenMap("", data) {
		if err := l.koanf.Set(key, value); err != nil {
			return fmt.Errorf("failed to set key %s from source %s: %w", key, source.Type(), err)
		}
	}
	l.track(before, source.Type())
	return nil
}

func (l *Loader) loadEnvironment() error {
	envToPath := make(map[string]string)
	for _, mapping := range GenerateEnvMappings() {
		envToPath[mapping.EnvVar] = mapping.ConfigPath
	}
	before := l.snapshot()
	if err := l.koanf.Load(env.Provider(".", env.Opt{
		Prefix: "WFA_",
		TransformFunc: func(key string, value string) (string, any) {
			// unmapped variables are dropped
			return envToPath[key], value
		},
	}), nil); err != nil {
		return fmt.Errorf("failed to load environment variables: %w", err)
	}
	l.track(before, SourceEnv)
	return nil
}

func (l *Loader) snapshot() map[string]any {
	return maps.Clone(l.koanf.All())
}

func (l *Loader) track(before map[string]any, source SourceType) {
	for key, after := range l.koanf.All() {
		prev, existed := before[key]
		if !existed || fmt.Sprint(prev) != fmt.Sprint(after) {
			l.sources[key] = source
		}
	}
}

// flattenMap flattens a nested map into dot-notation keys.
func flattenMap(prefix string, m map[string]any) map[string]any {
	result := make(map[string]any)
	for k, v := range m {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if nested, ok := v.(map[string]any); ok {
			maps.Copy(result, flattenMap(key, nested))
			continue
		}
		result[key] = v
	}
	return result
}

func (l *Loader) unmarshalAndValidate() (*Config, error) {
	var config Config
	if err := l.koanf.UnmarshalWithConf("", &config, koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			WeaklyTypedInput: true,
			Result:           &config,
			TagName:          "koanf",
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
				mapstructure.StringToSliceHookFunc(","),
			),
		},
	}); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	if err := l.Validate(&config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &config, nil
}

// Validate checks struct tags on config.
func (l *Loader) Validate(config *Config) error {
	if config == nil {
		return fmt.Errorf("configuration cannot be nil")
	}
	if err := l.validator.Struct(config); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	return nil
}
