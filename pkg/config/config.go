package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// FilterMode selects the inclusion-filtering strategy for results
type FilterMode string

const (
	// FilterModeBlocklist skips results whose original format matches a
	// blocked type
	FilterModeBlocklist FilterMode = "blocklist"
	// FilterModeAllowlist keeps only results whose original format matches
	// an allowed type
	FilterModeAllowlist FilterMode = "allowlist"
)

// Config holds all configuration options for the loc-images crawler
type Config struct {
	// API request and pacing settings
	API APIConfig `yaml:"api" json:"api"`

	// Output manifest settings
	Output OutputConfig `yaml:"output" json:"output"`

	// Result inclusion filtering
	Filter FilterConfig `yaml:"filter" json:"filter"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// APIConfig holds request pacing and pagination settings.
//
// The LOC API publishes a crawl limit of 80 requests per minute with a one
// hour block for violators, so RequestInterval defaults to 60/80 seconds and
// MaxBackoff to 4096 seconds: a power-of-two multiple of the interval that
// sits just past the ban duration.
type APIConfig struct {
	// RequestInterval is the minimum spacing between requests, and the
	// backoff floor
	RequestInterval time.Duration `yaml:"request_interval" json:"request_interval"`
	// MaxBackoff is the backoff ceiling
	MaxBackoff time.Duration `yaml:"max_backoff" json:"max_backoff"`
	// ResultsPerPage is the starting page size. Must be a power of two so
	// that the crawler can halve it cleanly when the server cannot
	// assemble a page in time.
	ResultsPerPage int `yaml:"results_per_page" json:"results_per_page"`
	// RequestTimeout is the per-request read timeout
	RequestTimeout time.Duration `yaml:"request_timeout" json:"request_timeout"`
	// MaxRetries bounds the retry loop (0 means unlimited, the observed
	// behavior of the service's temporary penalties makes eventual success
	// a safe assumption)
	MaxRetries int `yaml:"max_retries" json:"max_retries"`
}

// OutputConfig holds manifest output configuration
type OutputConfig struct {
	// AriaFormat emits aria2c input-file option lines for each URL
	AriaFormat bool `yaml:"aria_format" json:"aria_format"`
	// GroupByCollection sets each entry's dir option to the item's source
	// collection under RootDirectory
	GroupByCollection bool `yaml:"group_by_collection" json:"group_by_collection"`
	// RootDirectory is the root of image downloads in aria format
	RootDirectory string `yaml:"root_directory" json:"root_directory"`
	// ManifestFile writes the manifest there instead of stdout
	ManifestFile string `yaml:"manifest_file" json:"manifest_file"`
	// DebugDumpFile, when set, receives the raw JSON body of the most
	// recently fetched page
	DebugDumpFile string `yaml:"debug_dump_file" json:"debug_dump_file"`
}

// FilterConfig holds result inclusion filtering configuration
type FilterConfig struct {
	Mode FilterMode `yaml:"mode" json:"mode"`
	// BlockedFormats are original_format types skipped in blocklist mode
	BlockedFormats []string `yaml:"blocked_formats" json:"blocked_formats"`
	// AllowedFormats are original_format types kept in allowlist mode
	AllowedFormats []string `yaml:"allowed_formats" json:"allowed_formats"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// DefaultConfig returns a Config instance with the LOC API's published limits
func DefaultConfig() *Config {
	return &Config{
		API: APIConfig{
			RequestInterval: time.Minute / 80,
			MaxBackoff:      4096 * time.Second,
			ResultsPerPage:  128,
			RequestTimeout:  30 * time.Second,
			MaxRetries:      0,
		},
		Output: OutputConfig{
			AriaFormat:        true,
			GroupByCollection: true,
			RootDirectory:     ".",
		},
		Filter: FilterConfig{
			Mode:           FilterModeBlocklist,
			BlockedFormats: []string{"collection", "web page"},
			AllowedFormats: []string{"photo, print, drawing"},
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	if interval := os.Getenv("LOCIMAGES_REQUEST_INTERVAL"); interval != "" {
		if d, err := time.ParseDuration(interval); err == nil && d > 0 {
			c.API.RequestInterval = d
		}
	}
	if perPage := os.Getenv("LOCIMAGES_RESULTS_PER_PAGE"); perPage != "" {
		if val, err := strconv.Atoi(perPage); err == nil && val > 0 {
			c.API.ResultsPerPage = val
		}
	}
	if rootDir := os.Getenv("LOCIMAGES_ROOT_DIR"); rootDir != "" {
		c.Output.RootDirectory = rootDir
	}
	if manifest := os.Getenv("LOCIMAGES_MANIFEST_FILE"); manifest != "" {
		c.Output.ManifestFile = manifest
	}
	if mode := os.Getenv("LOCIMAGES_FILTER_MODE"); mode != "" {
		c.Filter.Mode = FilterMode(strings.ToLower(mode))
	}
	if logLevel := os.Getenv("LOCIMAGES_LOG_LEVEL"); logLevel != "" {
		c.Logging.Level = logLevel
	}

	return nil
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	// If path is empty, try default locations
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil // No config file found, not an error
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// findConfigFile searches for config file in standard locations
func (c *Config) findConfigFile() string {
	// Check in order of precedence
	locations := []string{
		".locimages.yaml",
		".locimages.yml",
		filepath.Join(os.Getenv("HOME"), ".config", "locimages", "config.yaml"),
		filepath.Join(os.Getenv("HOME"), ".config", "locimages", "config.yml"),
		filepath.Join(os.Getenv("HOME"), ".locimages.yaml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	if c.API.RequestInterval <= 0 {
		errs = append(errs, errors.New("request interval must be positive"))
	}
	if c.API.MaxBackoff < c.API.RequestInterval {
		errs = append(errs, errors.New("max backoff must not be below the request interval"))
	}
	if c.API.ResultsPerPage <= 0 {
		errs = append(errs, errors.New("results per page must be positive"))
	}
	// The page size split remaps page indices exactly only when the size
	// halves cleanly all the way down, so the starting size must be a
	// power of two.
	if c.API.ResultsPerPage&(c.API.ResultsPerPage-1) != 0 {
		errs = append(errs, errors.New("results per page must be a power of two"))
	}
	if c.API.RequestTimeout <= 0 {
		errs = append(errs, errors.New("request timeout must be positive"))
	}
	if c.API.MaxRetries < 0 {
		errs = append(errs, errors.New("max retries cannot be negative"))
	}

	if c.Output.AriaFormat && c.Output.RootDirectory == "" {
		errs = append(errs, errors.New("root directory is required in aria format"))
	}

	switch c.Filter.Mode {
	case FilterModeBlocklist, FilterModeAllowlist:
	default:
		errs = append(errs, fmt.Errorf("invalid filter mode %q", c.Filter.Mode))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if perPage, ok := flags["results-per-page"].(int); ok && perPage > 0 {
		c.API.ResultsPerPage = perPage
	}
	if ariaFormat, ok := flags["aria-format"].(bool); ok {
		c.Output.AriaFormat = ariaFormat
	}
	if groupBy, ok := flags["group-by-collection"].(bool); ok {
		c.Output.GroupByCollection = groupBy
	}
	if rootDir, ok := flags["root-dir"].(string); ok && rootDir != "" {
		c.Output.RootDirectory = rootDir
	}
	if manifest, ok := flags["manifest-file"].(string); ok && manifest != "" {
		c.Output.ManifestFile = manifest
	}
	if dump, ok := flags["debug-dump"].(string); ok && dump != "" {
		c.Output.DebugDumpFile = dump
	}
	if mode, ok := flags["filter-mode"].(string); ok && mode != "" {
		c.Filter.Mode = FilterMode(strings.ToLower(mode))
	}
	if logLevel, ok := flags["log-level"].(string); ok && logLevel != "" {
		c.Logging.Level = logLevel
	}
}

// Load loads configuration from all sources with proper precedence
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	// Try to load .env files (don't fail if they don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".locimages.env"))

	// Start with defaults
	config := DefaultConfig()

	// Load from config file
	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	// Override with environment variables (includes values from .env)
	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	// Override with command line flags
	config.MergeCommandLineFlags(flags)

	// Validate final configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
