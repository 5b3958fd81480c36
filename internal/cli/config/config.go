package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"

	"github.com/conduit-lang/metaregistry/internal/catalog"
	"github.com/conduit-lang/metaregistry/internal/tracing"
)

// FileName is the config file name without extension.
const FileName = "metareg"

// EnvPrefix prefixes environment overrides, e.g. METAREG_LOG_LEVEL.
const EnvPrefix = "METAREG"

// Config represents the metareg configuration
type Config struct {
	ProjectName string         `mapstructure:"project_name"`
	Catalog     CatalogConfig  `mapstructure:"catalog"`
	Registry    RegistryConfig `mapstructure:"registry"`
	Log         LogConfig      `mapstructure:"log"`
	Tracing     tracing.Config `mapstructure:"tracing"`
	Output      OutputConfig   `mapstructure:"output"`

	// File is the config file that was read, empty when defaults were used.
	File string `mapstructure:"-"`
}

// CatalogConfig locates the catalogs discovered after the built-in types.
type CatalogConfig struct {
	Paths  []string `mapstructure:"paths"`
	Format string   `mapstructure:"format"`
}

// RegistryConfig controls registry construction.
type RegistryConfig struct {
	// IncludeCore registers the built-in type families before catalogs.
	IncludeCore bool `mapstructure:"include_core"`

	// CoreTypes lists the type families expected to have a base type.
	CoreTypes []string `mapstructure:"core_types"`
}

// LogConfig represents logging configuration
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// OutputConfig represents terminal output configuration
type OutputConfig struct {
	NoColor bool `mapstructure:"no_color"`
}

// CatalogFormat returns the parsed catalog format.
func (c *Config) CatalogFormat() catalog.Format {
	f, _ := catalog.ParseFormat(c.Catalog.Format)
	return f
}

// LogLevel returns the parsed log level.
func (c *Config) LogLevel() zapcore.Level {
	lvl, _ := zapcore.ParseLevel(c.Log.Level)
	return lvl
}

// Load loads the configuration from metareg.yml or metareg.yaml in the
// current directory.
func Load() (*Config, error) {
	return LoadFile("")
}

// LoadFile loads the configuration from path, or from the current directory
// when path is empty. Environment variables override file values.
func LoadFile(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(FileName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	config.File = v.ConfigFileUsed()

	if err := validateConfig(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	tc := tracing.DefaultConfig()
	v.SetDefault("project_name", "")
	v.SetDefault("catalog.paths", []string{"catalogs"})
	v.SetDefault("catalog.format", string(catalog.FormatAuto))
	v.SetDefault("registry.include_core", true)
	v.SetDefault("registry.core_types", []string{"field", "object", "attr", "validator", "key"})
	v.SetDefault("log.level", "warn")
	v.SetDefault("tracing.enabled", tc.Enabled)
	v.SetDefault("tracing.exporter", tc.Exporter)
	v.SetDefault("tracing.file_path", "")
	v.SetDefault("tracing.otlp_endpoint", tc.OTLPEndpoint)
	v.SetDefault("tracing.service_name", tc.ServiceName)
	v.SetDefault("output.no_color", false)
}

// InProject checks if the current directory holds a metareg config file
func InProject() bool {
	for _, name := range []string{FileName + ".yml", FileName + ".yaml"} {
		if _, err := os.Stat(name); err == nil {
			return true
		}
	}
	return false
}

// GetProjectRoot finds the nearest ancestor directory holding a metareg
// config file
func GetProjectRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		for _, name := range []string{FileName + ".yml", FileName + ".yaml"} {
			if _, err := os.Stat(filepath.Join(dir, name)); err == nil {
				return dir, nil
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("not in a metareg project (no %s.yml found)", FileName)
		}
		dir = parent
	}
}

// validateConfig validates the configuration
func validateConfig(cfg *Config) error {
	if _, err := catalog.ParseFormat(cfg.Catalog.Format); err != nil {
		return fmt.Errorf("catalog.format: %w", err)
	}
	if _, err := zapcore.ParseLevel(cfg.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	switch cfg.Tracing.Exporter {
	case tracing.ExporterNone, tracing.ExporterStdout, tracing.ExporterOTLP:
	case tracing.ExporterFile:
		if cfg.Tracing.Enabled && cfg.Tracing.FilePath == "" {
			return fmt.Errorf("tracing.file_path is required for the file exporter")
		}
	default:
		return fmt.Errorf("tracing.exporter must be one of none, stdout, file or otlp, got: %s", cfg.Tracing.Exporter)
	}
	for _, t := range cfg.Registry.CoreTypes {
		if strings.TrimSpace(t) == "" || strings.Contains(t, ".") {
			return fmt.Errorf("registry.core_types must be bare type names, got: %q", t)
		}
	}
	return nil
}
