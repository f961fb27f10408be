package config

import (
	"reflect"
	"sync"
)

// EnvMapping binds an environment variable to a config path.
type EnvMapping struct {
	EnvVar     string
	ConfigPath string
}

var generateEnvMappings = sync.OnceValue(func() []EnvMapping {
	return extractMappings(reflect.TypeFor[Config](), "")
})

// GenerateEnvMappings derives environment mappings from the env struct tags.
func GenerateEnvMappings() []EnvMapping {
	return generateEnvMappings()
}

func extractMappings(t reflect.Type, prefix string) []EnvMapping {
	var mappings []EnvMapping
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}
		koanfTag := field.Tag.Get("koanf")
		if koanfTag == "" || koanfTag == "-" {
			continue
		}
		configPath := koanfTag
		if prefix != "" {
			configPath = prefix + "." + koanfTag
		}
		if envTag := field.Tag.Get("env"); envTag != "" && envTag != "-" {
			mappings = append(mappings, EnvMapping{EnvVar: envTag, ConfigPath: configPath})
		}
		if field.Type.Kind() == reflect.Struct && field.Type.PkgPath() != "time" {
			mappings = append(mappings, extractMappings(field.Type, configPath)...)
		}
	}
	return mappings
}

// GetEnvVarForConfigPath returns the environment variable bound to path.
func GetEnvVarForConfigPath(configPath string) string {
	for _, m := range GenerateEnvMappings() {
		if m.ConfigPath == configPath {
			return m.EnvVar
		}
	}
	return ""
}
