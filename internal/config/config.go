package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// ServerConfig holds configuration for the schedlab server.
type ServerConfig struct {
	Addr      string `yaml:"addr" validate:"required"`                         // Listen address (default ":8080")
	LogLevel  string `yaml:"log_level" validate:"oneof=debug info warn error"` // Log level: debug, info, warn, error
	LogFormat string `yaml:"log_format" validate:"oneof=text json"`            // Log format: text, json
	DBPath    string `yaml:"db_path"`                                          // SQLite run history (":memory:" for testing, "" disables)

	// BackendURL is the scheduling service root. Required unless CatalogDir
	// supplies the algorithm definitions.
	BackendURL string `yaml:"backend_url" validate:"omitempty,url"`
	// CatalogDir holds algorithm definition files served instead of the
	// backend's schema endpoints. Execution still goes to BackendURL.
	CatalogDir string `yaml:"catalog_dir"`

	SchemaCacheTTL time.Duration `yaml:"schema_cache_ttl" validate:"gte=0"`
	RequestTimeout time.Duration `yaml:"request_timeout" validate:"gt=0"`
	SessionTTL     time.Duration `yaml:"session_ttl" validate:"gt=0"`
	RunRetention   time.Duration `yaml:"run_retention" validate:"gte=0"` // 0 keeps runs forever

	ControllerMax int `yaml:"controller_max" validate:"gte=1"`
	MaxDimension  int `yaml:"max_dimension" validate:"gte=1"`
}

// DefaultServerConfig returns sensible defaults.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Addr:           ":8080",
		LogLevel:       "info",
		LogFormat:      "text",
		BackendURL:     "https://localhost:7292",
		SchemaCacheTTL: 5 * time.Minute,
		RequestTimeout: 60 * time.Second,
		SessionTTL:     24 * time.Hour,
		ControllerMax:  20,
		MaxDimension:   500,
	}
}

var validate = validator.New()

// LoadFile overlays the YAML file at path onto cfg. Keys absent from the
// file keep their current values.
func LoadFile(path string, cfg *ServerConfig) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// Validate checks field constraints and cross-field requirements.
func (c *ServerConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fe := verrs[0]
			return fmt.Errorf("config: %s: invalid value %v (%s)", fe.Field(), fe.Value(), fe.Tag())
		}
		return fmt.Errorf("config: %w", err)
	}
	if c.BackendURL == "" && c.CatalogDir == "" {
		return errors.New("config: one of backend_url or catalog_dir is required")
	}
	return nil
}
