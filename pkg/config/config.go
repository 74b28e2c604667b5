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

// Output formats
const (
	FormatCSV    = "csv"
	FormatSQLite = "sqlite"
)

// Policies for records whose geodata lookup failed
const (
	UnlocatedOmit  = "omit"
	UnlocatedEmpty = "empty"
)

// Write modes
const (
	ModeBuffered  = "buffered"
	ModeStreaming = "streaming"
)

// Placeholder values shipped in the example config file
const (
	PlaceholderAPIKey = "YOUR_API_KEY"
	PlaceholderSecret = "YOUR_SECRET"
)

// Config holds all configuration options for the crawler
type Config struct {
	// Flickr API access
	Flickr FlickrConfig `yaml:"flickr" json:"flickr"`

	// Fixed search filter
	Search SearchConfig `yaml:"search" json:"search"`

	// Date range partitioning
	Crawl CrawlConfig `yaml:"crawl" json:"crawl"`

	// Request pacing
	RateLimit RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`

	// Geodata pass
	Enrichment EnrichmentConfig `yaml:"enrichment" json:"enrichment"`

	// Output settings
	Output OutputConfig `yaml:"output" json:"output"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`

	// Metrics export
	Metrics MetricsConfig `yaml:"metrics" json:"metrics"`
}

// FlickrConfig holds Flickr-specific configuration
type FlickrConfig struct {
	APIKey    string        `yaml:"api_key" json:"api_key"`
	Secret    string        `yaml:"secret" json:"secret"`
	Account   string        `yaml:"account" json:"account"`
	BaseURL   string        `yaml:"base_url" json:"base_url"`
	UserAgent string        `yaml:"user_agent" json:"user_agent"`
	Timeout   time.Duration `yaml:"timeout" json:"timeout"`
}

// SearchConfig holds the place and accuracy constraints sent with every search
type SearchConfig struct {
	PlaceID  string `yaml:"place_id" json:"place_id"`
	Accuracy int    `yaml:"accuracy" json:"accuracy"`
	PerPage  int    `yaml:"per_page" json:"per_page"`
}

// CrawlConfig holds date range partitioning settings
type CrawlConfig struct {
	// MaxResults is the largest result set a single query may report
	MaxResults int `yaml:"max_results" json:"max_results"`
	// MinSegment is the shortest window that may still be split
	MinSegment time.Duration `yaml:"min_segment" json:"min_segment"`
	// Shuffle randomises record order before the geodata pass
	Shuffle bool `yaml:"shuffle" json:"shuffle"`
	// TimeZone used to interpret --start-date and --end-date
	TimeZone string `yaml:"time_zone" json:"time_zone"`
}

// RateLimitConfig holds request pacing configuration
type RateLimitConfig struct {
	Interval   time.Duration `yaml:"interval" json:"interval"`
	RetryDelay time.Duration `yaml:"retry_delay" json:"retry_delay"`
}

// EnrichmentConfig holds geodata lookup settings
type EnrichmentConfig struct {
	MaxAttempts int `yaml:"max_attempts" json:"max_attempts"`
}

// OutputConfig holds output file configuration
type OutputConfig struct {
	File      string `yaml:"file" json:"file"`
	Format    string `yaml:"format" json:"format"`
	Unlocated string `yaml:"unlocated" json:"unlocated"`
	Mode      string `yaml:"mode" json:"mode"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// MetricsConfig holds metrics export configuration
type MetricsConfig struct {
	Textfile string `yaml:"textfile" json:"textfile"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Flickr: FlickrConfig{
			BaseURL:   "https://api.flickr.com/services/rest/",
			UserAgent: "flickrgeo/1.0",
			Timeout:   30 * time.Second,
		},
		Search: SearchConfig{
			PlaceID:  "6dCBhRRTVrJiB5xOrg", // continent of Europe
			Accuracy: 16,
			PerPage:  200,
		},
		Crawl: CrawlConfig{
			MaxResults: 4000,
			MinSegment: time.Second,
			Shuffle:    false,
			TimeZone:   "Local",
		},
		RateLimit: RateLimitConfig{
			Interval:   1010 * time.Millisecond,
			RetryDelay: 0,
		},
		Enrichment: EnrichmentConfig{
			MaxAttempts: 1,
		},
		Output: OutputConfig{
			Format:    FormatCSV,
			Unlocated: UnlocatedOmit,
			Mode:      ModeBuffered,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	var errs []error

	// Flickr credentials
	if apiKey := os.Getenv("FLICKRGEO_API_KEY"); apiKey != "" {
		c.Flickr.APIKey = apiKey
	}
	if secret := os.Getenv("FLICKRGEO_SECRET"); secret != "" {
		c.Flickr.Secret = secret
	}
	if account := os.Getenv("FLICKRGEO_ACCOUNT"); account != "" {
		c.Flickr.Account = account
	}
	if baseURL := os.Getenv("FLICKRGEO_BASE_URL"); baseURL != "" {
		c.Flickr.BaseURL = baseURL
	}

	// Search filter
	if placeID := os.Getenv("FLICKRGEO_PLACE_ID"); placeID != "" {
		c.Search.PlaceID = placeID
	}
	if accuracy := os.Getenv("FLICKRGEO_ACCURACY"); accuracy != "" {
		val, err := strconv.Atoi(accuracy)
		if err != nil {
			errs = append(errs, fmt.Errorf("FLICKRGEO_ACCURACY: %w", err))
		} else {
			c.Search.Accuracy = val
		}
	}

	// Partitioning
	if maxResults := os.Getenv("FLICKRGEO_MAX_RESULTS"); maxResults != "" {
		val, err := strconv.Atoi(maxResults)
		if err != nil {
			errs = append(errs, fmt.Errorf("FLICKRGEO_MAX_RESULTS: %w", err))
		} else {
			c.Crawl.MaxResults = val
		}
	}
	if shuffle := os.Getenv("FLICKRGEO_SHUFFLE"); shuffle != "" {
		c.Crawl.Shuffle = strings.ToLower(shuffle) == "true"
	}

	// Pacing
	if interval := os.Getenv("FLICKRGEO_RATE_INTERVAL"); interval != "" {
		val, err := time.ParseDuration(interval)
		if err != nil {
			errs = append(errs, fmt.Errorf("FLICKRGEO_RATE_INTERVAL: %w", err))
		} else {
			c.RateLimit.Interval = val
		}
	}

	// Output
	if file := os.Getenv("FLICKRGEO_OUTPUT_FILE"); file != "" {
		c.Output.File = file
	}
	if format := os.Getenv("FLICKRGEO_OUTPUT_FORMAT"); format != "" {
		c.Output.Format = format
	}
	if unlocated := os.Getenv("FLICKRGEO_UNLOCATED"); unlocated != "" {
		c.Output.Unlocated = unlocated
	}
	if mode := os.Getenv("FLICKRGEO_OUTPUT_MODE"); mode != "" {
		c.Output.Mode = mode
	}

	// Logging level
	if logLevel := os.Getenv("FLICKRGEO_LOG_LEVEL"); logLevel != "" {
		c.Logging.Level = logLevel
	}

	if textfile := os.Getenv("FLICKRGEO_METRICS_TEXTFILE"); textfile != "" {
		c.Metrics.Textfile = textfile
	}

	return errors.Join(errs...)
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
	home := os.Getenv("HOME")
	locations := []string{
		".flickrgeo.yaml",
		".flickrgeo.yml",
		filepath.Join(home, ".config", "flickrgeo", "config.yaml"),
		filepath.Join(home, ".config", "flickrgeo", "config.yml"),
		filepath.Join(home, ".flickrgeo.yaml"),
		filepath.Join(home, ".flickrgeo.yml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks if the configuration is valid. Credentials are checked
// separately by HasCredentials since they may come from the credential store.
func (c *Config) Validate() error {
	var errs []error

	if c.Flickr.BaseURL == "" {
		errs = append(errs, errors.New("flickr base URL is required"))
	}
	if c.Flickr.Timeout <= 0 {
		errs = append(errs, errors.New("flickr timeout must be positive"))
	}

	if c.Search.PlaceID == "" {
		errs = append(errs, errors.New("search place ID is required"))
	}
	if c.Search.Accuracy < 1 || c.Search.Accuracy > 16 {
		errs = append(errs, errors.New("search accuracy must be between 1 and 16"))
	}
	if c.Search.PerPage < 1 || c.Search.PerPage > 500 {
		errs = append(errs, errors.New("search per_page must be between 1 and 500"))
	}

	if c.Crawl.MaxResults <= 0 {
		errs = append(errs, errors.New("crawl max_results must be positive"))
	}
	if c.Crawl.MinSegment < 0 {
		errs = append(errs, errors.New("crawl min_segment cannot be negative"))
	}
	if _, err := c.Location(); err != nil {
		errs = append(errs, err)
	}

	if c.RateLimit.Interval < time.Second {
		errs = append(errs, errors.New("rate limit interval must be at least 1s"))
	}
	if c.RateLimit.RetryDelay < 0 {
		errs = append(errs, errors.New("retry delay cannot be negative"))
	}

	if c.Enrichment.MaxAttempts < 1 {
		errs = append(errs, errors.New("enrichment max_attempts must be at least 1"))
	}

	validFormats := map[string]bool{FormatCSV: true, FormatSQLite: true}
	if !validFormats[c.Output.Format] {
		errs = append(errs, errors.New("invalid output format"))
	}
	validUnlocated := map[string]bool{UnlocatedOmit: true, UnlocatedEmpty: true}
	if !validUnlocated[c.Output.Unlocated] {
		errs = append(errs, errors.New("invalid unlocated policy"))
	}
	validModes := map[string]bool{ModeBuffered: true, ModeStreaming: true}
	if !validModes[c.Output.Mode] {
		errs = append(errs, errors.New("invalid output mode"))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[c.Logging.Level] {
		errs = append(errs, errors.New("invalid log level"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Normalize lowercases the enumerated settings so every consumer can
// compare them exactly. Load calls it before Validate.
func (c *Config) Normalize() {
	c.Output.Format = strings.ToLower(strings.TrimSpace(c.Output.Format))
	c.Output.Unlocated = strings.ToLower(strings.TrimSpace(c.Output.Unlocated))
	c.Output.Mode = strings.ToLower(strings.TrimSpace(c.Output.Mode))
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
}

// HasCredentials reports whether a usable API key is configured
func (c *Config) HasCredentials() bool {
	return c.Flickr.APIKey != "" && c.Flickr.APIKey != PlaceholderAPIKey
}

// Location resolves the configured time zone
func (c *Config) Location() (*time.Location, error) {
	switch c.Crawl.TimeZone {
	case "", "Local":
		return time.Local, nil
	case "UTC":
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.Crawl.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("invalid time zone %q: %w", c.Crawl.TimeZone, err)
	}
	return loc, nil
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// Create directory if it doesn't exist
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration.
// Only keys present in the map override the loaded values.
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if apiKey, ok := flags["api-key"].(string); ok && apiKey != "" {
		c.Flickr.APIKey = apiKey
	}
	if secret, ok := flags["secret"].(string); ok && secret != "" {
		c.Flickr.Secret = secret
	}
	if account, ok := flags["account"].(string); ok && account != "" {
		c.Flickr.Account = account
	}
	if output, ok := flags["output-file"].(string); ok && output != "" {
		c.Output.File = output
	}
	if format, ok := flags["format"].(string); ok && format != "" {
		c.Output.Format = format
	}
	if unlocated, ok := flags["unlocated"].(string); ok && unlocated != "" {
		c.Output.Unlocated = unlocated
	}
	if mode, ok := flags["mode"].(string); ok && mode != "" {
		c.Output.Mode = mode
	}
	if shuffle, ok := flags["shuffle"].(bool); ok {
		c.Crawl.Shuffle = shuffle
	}
	if maxResults, ok := flags["max-results"].(int); ok && maxResults > 0 {
		c.Crawl.MaxResults = maxResults
	}
	if interval, ok := flags["interval"].(time.Duration); ok && interval > 0 {
		c.RateLimit.Interval = interval
	}
	if logLevel, ok := flags["log-level"].(string); ok && logLevel != "" {
		c.Logging.Level = logLevel
	}
	if textfile, ok := flags["metrics-textfile"].(string); ok && textfile != "" {
		c.Metrics.Textfile = textfile
	}
}

// Load loads configuration from all sources with proper precedence
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	// Try to load .env files (don't fail if they don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".flickrgeo.env"))

	config := DefaultConfig()

	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	// Override with environment variables (includes values from .env)
	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	config.MergeCommandLineFlags(flags)
	config.Normalize()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
