package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/mozilla/glean-dictionary/internal/annotations"
	"github.com/mozilla/glean-dictionary/internal/autoevents"
	"github.com/mozilla/glean-dictionary/internal/expiry"
	"github.com/mozilla/glean-dictionary/internal/glean"
	"github.com/mozilla/glean-dictionary/internal/logging"
	"github.com/mozilla/glean-dictionary/internal/output"
	"github.com/mozilla/glean-dictionary/internal/sampling"
	"github.com/mozilla/glean-dictionary/internal/xref"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "GLEAN_DICTIONARY"

// Config represents the glean-dictionary build configuration
type Config struct {
	OutputDir    string         `mapstructure:"output_dir"`
	FunctionsDir string         `mapstructure:"functions_dir"`
	Sources      SourcesConfig  `mapstructure:"sources"`
	Glean        GleanConfig    `mapstructure:"glean"`
	BigQuery     BigQueryConfig `mapstructure:"bigquery"`
	Log          LogConfig      `mapstructure:"log"`
}

// SourcesConfig locates the remote metadata documents
type SourcesConfig struct {
	ProbeInfoURL      string `mapstructure:"probeinfo_url"`
	AnnotationsURL    string `mapstructure:"annotations_url"`
	NamespacesURL     string `mapstructure:"namespaces_url"`
	ProductDetailsURL string `mapstructure:"product_details_url"`
	ExperimentsURL    string `mapstructure:"experiments_url"`
	SchemasURL        string `mapstructure:"schemas_url"`
	SchemasBrowseURL  string `mapstructure:"schemas_browse_url"`
	CacheBust         bool   `mapstructure:"cache_bust"`
}

// GleanConfig represents dependency resolution configuration
type GleanConfig struct {
	DefaultDependency string `mapstructure:"default_dependency"`
}

// BigQueryConfig represents the automatic events query configuration. An
// empty project disables automatic events.
type BigQueryConfig struct {
	Project         string `mapstructure:"project"`
	AutoEventsTable string `mapstructure:"auto_events_table"`
}

// LogConfig represents logging configuration
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Environment variables of earlier releases, still honored.
var legacyEnv = map[string]string{
	"sources.annotations_url":     "ANNOTATIONS_URL",
	"sources.namespaces_url":      "NAMESPACES_URL",
	"sources.product_details_url": "FIREFOX_PRODUCT_DETAIL_URL",
	"sources.experiments_url":     "EXPERIMENT_DATA_URL",
}

// Load loads the configuration from defaults, glean-dictionary.yml or
// glean-dictionary.yaml, a .env file and the environment, in increasing
// precedence.
func Load() (*Config, error) {
	// a missing .env is fine; existing variables are never overridden
	_ = godotenv.Load()

	v := viper.New()

	// Set defaults
	v.SetDefault("output_dir", "public/data")
	v.SetDefault("functions_dir", ".netlify")
	v.SetDefault("sources.probeinfo_url", glean.DefaultProbeInfoURL)
	v.SetDefault("sources.annotations_url", annotations.DefaultIndexURL)
	v.SetDefault("sources.namespaces_url", xref.DefaultNamespacesURL)
	v.SetDefault("sources.product_details_url", expiry.DefaultReleasesURL)
	v.SetDefault("sources.experiments_url", sampling.DefaultExperimentsURL)
	v.SetDefault("sources.schemas_url", xref.DefaultSchemasURL)
	v.SetDefault("sources.schemas_browse_url", xref.DefaultSchemasBrowseURL)
	v.SetDefault("sources.cache_bust", true)
	v.SetDefault("glean.default_dependency", "glean-core")
	v.SetDefault("bigquery.project", autoevents.DefaultProject)
	v.SetDefault("bigquery.auto_events_table", autoevents.DefaultTable)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", logging.FormatConsole)

	// Set config name and paths
	v.SetConfigName("glean-dictionary")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Enable environment variable support
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	for key, legacy := range legacyEnv {
		if err := v.BindEnv(key, envName(key), legacy); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", legacy, err)
		}
	}

	// Read config file if it exists
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found - use defaults
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Validate configuration
	if err := validateConfig(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// envName is the prefixed environment variable of key.
func envName(key string) string {
	return EnvPrefix + "_" + strings.ToUpper(strings.NewReplacer(".", "_", "-", "_").Replace(key))
}

// validateConfig validates the configuration
func validateConfig(cfg *Config) error {
	if output.ContainsPathTraversal(cfg.OutputDir) {
		return fmt.Errorf("output_dir contains path traversal: %s", cfg.OutputDir)
	}
	if output.ContainsPathTraversal(cfg.FunctionsDir) {
		return fmt.Errorf("functions_dir contains path traversal: %s", cfg.FunctionsDir)
	}

	urls := map[string]string{
		"sources.probeinfo_url":       cfg.Sources.ProbeInfoURL,
		"sources.annotations_url":     cfg.Sources.AnnotationsURL,
		"sources.namespaces_url":      cfg.Sources.NamespacesURL,
		"sources.product_details_url": cfg.Sources.ProductDetailsURL,
		"sources.experiments_url":     cfg.Sources.ExperimentsURL,
		"sources.schemas_url":         cfg.Sources.SchemasURL,
		"sources.schemas_browse_url":  cfg.Sources.SchemasBrowseURL,
	}
	for key, raw := range urls {
		if err := validateURL(raw); err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
	}

	if _, err := logging.ParseLevel(cfg.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	if cfg.Log.Format != logging.FormatConsole && cfg.Log.Format != logging.FormatJSON {
		return fmt.Errorf("log.format must be %q or %q, got: %s", logging.FormatConsole, logging.FormatJSON, cfg.Log.Format)
	}
	return nil
}

func validateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("must be an absolute http(s) URL, got: %q", raw)
	}
	return nil
}
