package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// SurveyIDPrefix is the prefix Qualtrics assigns to every survey identifier.
const SurveyIDPrefix = "SV_"

// Config represents the complete application configuration
type Config struct {
	Qualtrics QualtricsConfig `yaml:"qualtrics" envconfig:"QUALTRICS"`
	Export    ExportConfig    `yaml:"export" envconfig:"EXPORT"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
}

// QualtricsConfig contains the credentials for one survey export run.
// The token is an opaque secret passed through as the X-API-TOKEN header.
type QualtricsConfig struct {
	APIToken   string `yaml:"api_token" envconfig:"API_TOKEN" validate:"required"`
	Datacenter string `yaml:"datacenter" envconfig:"DATACENTER" validate:"required,hostname"`
	SurveyID   string `yaml:"survey_id" envconfig:"SURVEY_ID" validate:"required,startswith=SV_"`
}

// ExportConfig controls the export job request and the output file
type ExportConfig struct {
	Format          string        `yaml:"format" envconfig:"FORMAT" validate:"required,oneof=csv"`
	UseLabels       bool          `yaml:"use_labels" envconfig:"USE_LABELS"`
	Compress        bool          `yaml:"compress" envconfig:"COMPRESS"`
	OutputFile      string        `yaml:"output_file" envconfig:"OUTPUT_FILE" validate:"required"`
	PollInterval    time.Duration `yaml:"poll_interval" envconfig:"POLL_INTERVAL"`
	PollTimeout     time.Duration `yaml:"poll_timeout" envconfig:"POLL_TIMEOUT"`
	RequestTimeout  time.Duration `yaml:"request_timeout" envconfig:"REQUEST_TIMEOUT"`
	DownloadTimeout time.Duration `yaml:"download_timeout" envconfig:"DOWNLOAD_TIMEOUT"`
	RequestsPerSec  float64       `yaml:"requests_per_sec" envconfig:"REQUESTS_PER_SEC"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL"`
	Format   string `yaml:"format" envconfig:"FORMAT"`
	Output   string `yaml:"output" envconfig:"OUTPUT"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH"`
}

// Load loads configuration from the optional config file and environment
// variables. Environment variables (prefix QX) take precedence over the file,
// the file over built-in defaults.
func Load() (*Config, error) {
	cfg := Default()

	if configFile := getConfigFilePath(); configFile != "" {
		if err := loadFromFile(configFile, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	if err := envconfig.Process("QX", cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// loadFromFile overlays configuration from a YAML file onto cfg
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// Validate checks the configuration for values the export run cannot proceed without
func (c *Config) Validate() error {
	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(c); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok && len(verrs) > 0 {
			first := verrs[0]
			return fmt.Errorf("invalid %s: failed %q constraint", strings.ToLower(first.Namespace()), first.Tag())
		}
		return err
	}

	if c.Export.PollInterval <= 0 {
		return fmt.Errorf("export poll interval must be positive")
	}
	if c.Export.PollTimeout <= 0 {
		return fmt.Errorf("export poll timeout must be positive")
	}
	if c.Export.PollTimeout < c.Export.PollInterval {
		return fmt.Errorf("export poll timeout %s is shorter than the poll interval %s",
			c.Export.PollTimeout, c.Export.PollInterval)
	}
	if c.Export.RequestsPerSec <= 0 {
		return fmt.Errorf("export requests per second must be positive")
	}

	if c.Logging.FilePath == "" {
		c.Logging.FilePath = "logs/exporter.log"
	}

	return nil
}

// WantsXLSX reports whether the configured output file asks for an Excel workbook
func (c *ExportConfig) WantsXLSX() bool {
	return strings.HasSuffix(strings.ToLower(c.OutputFile), ".xlsx")
}

// getConfigFilePath returns the path to the config file
func getConfigFilePath() string {
	locations := []string{
		"config.yaml",
		"configs/config.yaml",
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return "" // No config file found, use env vars only
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Qualtrics: QualtricsConfig{
			Datacenter: "pdx1",
		},
		Export: ExportConfig{
			Format:          "csv",
			UseLabels:       true,
			Compress:        true,
			OutputFile:      "responses.csv",
			PollInterval:    2 * time.Second,
			PollTimeout:     10 * time.Minute,
			RequestTimeout:  60 * time.Second,
			DownloadTimeout: 5 * time.Minute,
			RequestsPerSec:  3,
		},
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "json",
			Output:   "both",
			FilePath: "logs/exporter.log",
		},
	}
}
