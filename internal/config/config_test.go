package config

import (
	"strings"
	"testing"
)

func validConfig() Config {
	cfg := Config{HTTP: HTTPConfig{Port: 8080}}
	cfg.ApplyDefaults()
	return cfg
}

func TestApplyDefaults(t *testing.T) {
	cfg := validConfig()

	if cfg.Knowledge.ChunkWords != 1000 || cfg.Knowledge.EmbedConcurrency != 1 || cfg.Knowledge.TopK != 5 {
		t.Errorf("unexpected knowledge defaults: %+v", cfg.Knowledge)
	}
	if cfg.Parser.MaxFileBytes != 5<<20 {
		t.Errorf("unexpected max file bytes: %d", cfg.Parser.MaxFileBytes)
	}
	if cfg.Completion.Provider != "openai" || cfg.Completion.Model != "gpt-4.1-2025-04-14" {
		t.Errorf("unexpected completion defaults: %+v", cfg.Completion)
	}
	if cfg.Completion.Temperature == nil || *cfg.Completion.Temperature != 0.7 {
		t.Errorf("expected temperature 0.7, got %v", cfg.Completion.Temperature)
	}
	if cfg.Completion.MaxTokens != 1000 || cfg.Completion.TimeoutSec != 60 {
		t.Errorf("unexpected completion limits: %+v", cfg.Completion)
	}
	if cfg.Embedding.TimeoutSec != 30 || cfg.Embedding.Model != "text-embedding-3-small" {
		t.Errorf("unexpected embedding defaults: %+v", cfg.Embedding)
	}
}

func TestApplyDefaults_AnthropicModel(t *testing.T) {
	cfg := Config{Completion: CompletionConfig{Provider: "anthropic"}}
	cfg.ApplyDefaults()
	if !strings.HasPrefix(cfg.Completion.Model, "claude-") {
		t.Errorf("expected a claude model default, got %q", cfg.Completion.Model)
	}
}

func TestApplyDefaults_KeepsExplicitZeroTemperature(t *testing.T) {
	zero := 0.0
	cfg := Config{Completion: CompletionConfig{Temperature: &zero}}
	cfg.ApplyDefaults()
	if *cfg.Completion.Temperature != 0 {
		t.Errorf("explicit zero temperature was overwritten: %v", *cfg.Completion.Temperature)
	}
}

func TestValidate(t *testing.T) {
	hot := 2.5
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"invalid port", func(c *Config) { c.HTTP.Port = 0 }, "http.port"},
		{"unknown completion provider", func(c *Config) { c.Completion.Provider = "llama" }, "completion.provider"},
		{"unknown embedding provider", func(c *Config) { c.Embedding.Provider = "nebius" }, "embedding.provider"},
		{"temperature out of range", func(c *Config) { c.Completion.Temperature = &hot }, "completion.temperature"},
		{"negative rate limit", func(c *Config) { c.Embedding.RateLimitRPS = -1 }, "rate_limit_rps"},
		{"cache without addrs", func(c *Config) { c.Cache.Enabled = true }, "cache.addrs"},
		{"cache with addrs", func(c *Config) {
			c.Cache.Enabled = true
			c.Cache.Addrs = []string{"localhost:6379"}
		}, ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestParse_ExpandsEnvVars(t *testing.T) {
	t.Setenv("MOE_TEST_PORT", "9090")
	t.Setenv("MOE_TEST_KEY", "sk-test")

	yml := `
http:
  port: ${MOE_TEST_PORT}
credentials:
  openai_api_key: ${MOE_TEST_KEY}
  anthropic_api_key: ${MOE_TEST_UNSET:-fallback}
knowledge:
  embed_concurrency: 4
`
	cfg, err := Parse([]byte(yml))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.HTTP.Port != 9090 {
		t.Errorf("expected port 9090, got %d", cfg.HTTP.Port)
	}
	if cfg.Credentials.OpenAIAPIKey != "sk-test" {
		t.Errorf("expected expanded key, got %q", cfg.Credentials.OpenAIAPIKey)
	}
	if cfg.Credentials.AnthropicAPIKey != "fallback" {
		t.Errorf("expected default value, got %q", cfg.Credentials.AnthropicAPIKey)
	}
	if cfg.Knowledge.EmbedConcurrency != 4 {
		t.Errorf("expected concurrency 4, got %d", cfg.Knowledge.EmbedConcurrency)
	}
}

func TestParse_Invalid(t *testing.T) {
	if _, err := Parse([]byte("http: [")); err == nil {
		t.Error("expected YAML error")
	}
	if _, err := Parse([]byte("http:\n  port: 0\n")); err == nil {
		t.Error("expected validation error")
	}
}

func TestLoad_LocalConfig(t *testing.T) {
	cfg, err := Load("local")
	if err != nil {
		t.Fatalf("Load(local): %v", err)
	}
	if cfg.HTTP.Port == 0 {
		t.Error("expected port from local config")
	}
}
