// Package config loads recnotes settings from a YAML file layered over
// built-in defaults and validates them.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/anstrom/recnotes/internal/errors"
)

// Config represents the complete recnotes configuration
type Config struct {
	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`

	// Note emission configuration
	Notes NotesConfig `yaml:"notes" json:"notes"`

	// Host resolution configuration
	Resolve ResolveConfig `yaml:"resolve" json:"resolve"`

	// Run metrics configuration
	Metrics MetricsConfig `yaml:"metrics" json:"metrics"`
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	// Log level (debug, info, warn, error)
	Level string `yaml:"level" json:"level" validate:"oneof=debug info warn error"`

	// Log format (text, json)
	Format string `yaml:"format" json:"format" validate:"oneof=text json"`

	// Log output (stdout, stderr, file path)
	Output string `yaml:"output" json:"output" validate:"required"`
}

// NotesConfig holds templating settings
type NotesConfig struct {
	// Directory holding template overrides. Empty uses the built-in set.
	TemplateDir string `yaml:"template_dir" json:"template_dir"`

	// Token replaced by the operation name
	ProjectPlaceholder string `yaml:"project_placeholder" json:"project_placeholder" validate:"required"`

	// Frontmatter key after which open ports are injected
	OpenPortsMarker string `yaml:"open_ports_marker" json:"open_ports_marker" validate:"required"`

	// Frontmatter key after which services are injected
	ServicesMarker string `yaml:"services_marker" json:"services_marker" validate:"required"`
}

// ResolveConfig holds DNS resolver settings
type ResolveConfig struct {
	// DNS server as host:port. Empty uses the system resolver configuration.
	Server string `yaml:"server" json:"server" validate:"omitempty,hostname_port"`

	// Per-query timeout
	Timeout time.Duration `yaml:"timeout" json:"timeout" validate:"gt=0"`

	// Number of concurrent lookups
	Concurrency int `yaml:"concurrency" json:"concurrency" validate:"min=1,max=256"`
}

// MetricsConfig holds run metrics settings
type MetricsConfig struct {
	// Prometheus textfile written after a parse run. Empty disables it.
	Textfile string `yaml:"textfile" json:"textfile"`
}

// Default returns a configuration with sensible defaults
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
		Notes: NotesConfig{
			TemplateDir:        "",
			ProjectPlaceholder: "OpName",
			OpenPortsMarker:    "openPorts",
			ServicesMarker:     "services",
		},
		Resolve: ResolveConfig{
			Server:      "",
			Timeout:     5 * time.Second,
			Concurrency: 10,
		},
	}
}

// Load loads configuration from a file
func Load(path string) (*Config, error) {
	// Start with defaults
	config := Default()

	if path == "" {
		return config, nil
	}

	// Check if file exists
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return config, nil // Return defaults if no config file
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WrapConfigError(errors.CodeFileNotFound, "failed to read config file", err)
	}

	// JSON is a subset of YAML, so one decoder covers both extensions.
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, errors.WrapConfigError(errors.CodeConfiguration,
			fmt.Sprintf("failed to parse %s config", formatName(path)), err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func formatName(path string) string {
	switch filepath.Ext(path) {
	case ".json":
		return "JSON"
	default:
		return "YAML"
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate validates the configuration
func (c *Config) Validate() error {
	return Struct(c)
}

// Struct validates any struct carrying `validate` tags and converts the first
// failure into a ConfigError naming the offending field.
func Struct(s interface{}) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if ok := asValidationErrors(err, &verrs); ok && len(verrs) > 0 {
		fe := verrs[0]
		return errors.NewConfigFieldError(errors.CodeValidation,
			fmt.Sprintf("failed %q validation", fe.Tag()), fe.Namespace(), fe.Value())
	}
	return errors.WrapConfigError(errors.CodeValidation, "invalid configuration", err)
}

func asValidationErrors(err error, target *validator.ValidationErrors) bool {
	verrs, ok := err.(validator.ValidationErrors) //nolint:errorlint // validator returns the concrete type
	if ok {
		*target = verrs
	}
	return ok
}
