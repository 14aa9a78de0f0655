package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fd1az/gas-genie/internal/apperror"
)

func TestLoad_EnvAliasesAndDefaults(t *testing.T) {
	t.Setenv("FIREWORKS_API_KEY", "fw-key")
	t.Setenv("ETHERSCAN_API_KEY", "es-key")

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing explicit config file")
	}

	t.Chdir(t.TempDir())
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.LLM.APIKey != "fw-key" || cfg.Gas.EtherscanAPIKey != "es-key" {
		t.Errorf("keys not bound: %+v %+v", cfg.LLM, cfg.Gas)
	}
	if cfg.Server.Port != 8000 || cfg.Server.Addr() != ":8000" {
		t.Errorf("port = %d", cfg.Server.Port)
	}
	if cfg.Gas.Source != SourceEtherscan || cfg.Gas.HistoryCapacity != 100 {
		t.Errorf("gas defaults = %+v", cfg.Gas)
	}
	if cfg.LLM.Timeout != 10*time.Second || cfg.LLM.Model != "accounts/fireworks/models/deepseek-v3" {
		t.Errorf("llm defaults = %+v", cfg.LLM)
	}
}

func TestLoad_ConfigFile(t *testing.T) {
	t.Setenv("GG_LLM_API_KEY", "fw-key")

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := []byte("gas:\n  source: rpc\n  rpc_url: http://localhost:8545\nserver:\n  port: 9000\n")
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Gas.Source != SourceRPC || cfg.Gas.RPCURL != "http://localhost:8545" || cfg.Server.Port != 9000 {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Server: ServerConfig{Port: 8000},
			Gas:    GasConfig{Source: SourceEtherscan, EtherscanAPIKey: "k", HistoryCapacity: 100},
			LLM:    LLMConfig{APIKey: "k"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"missing llm key", func(c *Config) { c.LLM.APIKey = "" }, true},
		{"missing etherscan key", func(c *Config) { c.Gas.EtherscanAPIKey = "" }, true},
		{"rpc without url", func(c *Config) { c.Gas.Source = SourceRPC }, true},
		{"rpc with url", func(c *Config) { c.Gas.Source = SourceRPC; c.Gas.RPCURL = "http://x" }, false},
		{"unknown source", func(c *Config) { c.Gas.Source = "oracle" }, true},
		{"zero capacity", func(c *Config) { c.Gas.HistoryCapacity = 0 }, true},
		{"bad port", func(c *Config) { c.Server.Port = 70000 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && apperror.GetCode(err) != apperror.CodeConfigurationError {
				t.Errorf("code = %s", apperror.GetCode(err))
			}
		})
	}
}
