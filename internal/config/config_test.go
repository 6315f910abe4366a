package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultServerConfig_Valid(t *testing.T) {
	cfg := DefaultServerConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.ControllerMax != 20 {
		t.Errorf("ControllerMax = %d, want 20", cfg.ControllerMax)
	}
}

func TestLoadFile_Overlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schedlab.yaml")
	content := `addr: ":9090"
log_format: json
backend_url: http://scheduler.internal:5000
schema_cache_ttl: 30s
controller_max: 50
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := DefaultServerConfig()
	if err := LoadFile(path, &cfg); err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.Addr != ":9090" || cfg.LogFormat != "json" || cfg.ControllerMax != 50 {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.SchemaCacheTTL != 30*time.Second {
		t.Errorf("SchemaCacheTTL = %v", cfg.SchemaCacheTTL)
	}
	if cfg.LogLevel != "info" || cfg.MaxDimension != 500 {
		t.Errorf("defaults not kept: %+v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestLoadFile_Errors(t *testing.T) {
	cfg := DefaultServerConfig()
	if err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"), &cfg); err == nil {
		t.Error("expected error for missing file")
	}

	path := filepath.Join(t.TempDir(), "bad.yaml")
	os.WriteFile(path, []byte("addr: [unclosed"), 0o644)
	if err := LoadFile(path, &cfg); err == nil {
		t.Error("expected parse error")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*ServerConfig)
		wantErr string
	}{
		{"bad log level", func(c *ServerConfig) { c.LogLevel = "verbose" }, "LogLevel"},
		{"bad log format", func(c *ServerConfig) { c.LogFormat = "xml" }, "LogFormat"},
		{"bad url", func(c *ServerConfig) { c.BackendURL = "not a url" }, "BackendURL"},
		{"zero timeout", func(c *ServerConfig) { c.RequestTimeout = 0 }, "RequestTimeout"},
		{"zero controller max", func(c *ServerConfig) { c.ControllerMax = 0 }, "ControllerMax"},
		{"no schema source", func(c *ServerConfig) { c.BackendURL = ""; c.CatalogDir = "" }, "backend_url or catalog_dir"},
		{"catalog only", func(c *ServerConfig) { c.BackendURL = ""; c.CatalogDir = "./algorithms" }, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultServerConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("err = %v, want mention of %q", err, tt.wantErr)
			}
		})
	}
}
