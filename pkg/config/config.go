// Copyright 2026 © The Dirigent Authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads layered configuration: defaults, then an optional
// YAML file, then DIRIGENT_-prefixed environment variables.
package config

import (
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/dirigent-ai/dirigent/pkg/errors"
)

type Config struct {
	Log       LogConfig       `koanf:"log"`
	LLM       LLMConfig       `koanf:"llm"`
	Run       RunConfig       `koanf:"run"`
	Telemetry TelemetryConfig `koanf:"telemetry"`
	Audit     AuditConfig     `koanf:"audit"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"` // json, text
}

type LLMConfig struct {
	Provider string `koanf:"provider"` // ollama, mock
	Model    string `koanf:"model"`
	BaseURL  string `koanf:"base_url"`
	APIKey   string `koanf:"api_key"`
}

type RunConfig struct {
	Budget            int    `koanf:"budget"`
	ParallelToolCalls bool   `koanf:"parallel_tool_calls"`
	OnNoToolCalls     string `koanf:"on_no_tool_calls"` // stop, fail
	SystemPrompt      string `koanf:"system_prompt"`
}

type TelemetryConfig struct {
	Exporter     string `koanf:"exporter"` // stdout, otlp, none
	OTLPEndpoint string `koanf:"otlp_endpoint"`
	OTLPInsecure bool   `koanf:"otlp_insecure"`
}

type AuditConfig struct {
	Enabled bool   `koanf:"enabled"`
	Path    string `koanf:"path"` // sqlite file, empty means in-memory
}

// Load reads configuration from path (optional), overlaid with environment
// variables (DIRIGENT_LLM_MODEL -> llm.model).
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	k.Set("log.level", "info")
	k.Set("log.format", "text")
	k.Set("llm.provider", "ollama")
	k.Set("llm.model", "qwen2.5-coder:7b-instruct-q5_K_M")
	k.Set("llm.base_url", "http://localhost:11434")
	k.Set("run.budget", 20)
	k.Set("run.parallel_tool_calls", false)
	k.Set("run.on_no_tool_calls", "stop")
	k.Set("telemetry.exporter", "none")
	k.Set("telemetry.otlp_endpoint", "localhost:4317")
	k.Set("telemetry.otlp_insecure", true)
	k.Set("audit.enabled", false)

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, errors.New(errors.CodeConfiguration, "failed to load config file", err).
				WithContext("path", path)
		}
	}

	// Only the first underscore separates the section from the key, so
	// DIRIGENT_RUN_PARALLEL_TOOL_CALLS maps to run.parallel_tool_calls.
	if err := k.Load(env.Provider("DIRIGENT_", ".", func(s string) string {
		name := strings.ToLower(strings.TrimPrefix(s, "DIRIGENT_"))
		section, key, found := strings.Cut(name, "_")
		if !found {
			return name
		}
		return section + "." + key
	}), nil); err != nil {
		return nil, errors.New(errors.CodeConfiguration, "failed to load environment", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, errors.New(errors.CodeConfiguration, "failed to unmarshal config", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks cross-field constraints that koanf cannot express.
func (c *Config) Validate() error {
	if c.Run.Budget <= 0 {
		return errors.New(errors.CodeConfiguration, "run.budget must be positive", nil).
			WithContext("budget", c.Run.Budget)
	}
	switch c.Run.OnNoToolCalls {
	case "stop", "fail":
	default:
		return errors.New(errors.CodeConfiguration, "run.on_no_tool_calls must be stop or fail", nil).
			WithContext("value", c.Run.OnNoToolCalls)
	}
	switch c.Telemetry.Exporter {
	case "stdout", "otlp", "none", "":
	default:
		return errors.New(errors.CodeConfiguration, "unknown telemetry exporter", nil).
			WithContext("exporter", c.Telemetry.Exporter)
	}
	return nil
}
