package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"flickrgeo/pkg/auth"
	"flickrgeo/pkg/config"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration files",
	Long: `Manage flickrgeo configuration files.

Configuration is loaded from, highest priority first:
  - Command line flags
  - Environment variables (FLICKRGEO_*)
  - .env files
  - Configuration file
  - Default values`,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create an example configuration file",
	Long: `Create an example configuration file with every available option.

The file is written to .flickrgeo.yaml in the current directory unless a
different path is given with --config.`,
	Args: cobra.NoArgs,
	RunE: runConfigInit,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Long: `Show the configuration after merging every source. The API key and
secret are masked.`,
	Args: cobra.NoArgs,
	RunE: runConfigShow,
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration",
	Args:  cobra.NoArgs,
	RunE:  runConfigValidate,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configValidateCmd)
}

const exampleConfig = `# flickrgeo configuration
#
# Every option can also be set through an environment variable, e.g.
# FLICKRGEO_API_KEY, FLICKRGEO_PLACE_ID or FLICKRGEO_OUTPUT_FILE.

flickr:
  # API key and secret from https://www.flickr.com/services/apps/create/
  # Leave empty to use 'flickrgeo auth login' instead.
  api_key: "YOUR_API_KEY"
  secret: "YOUR_SECRET"
  # Stored account to use when api_key is empty
  account: ""
  base_url: "https://api.flickr.com/services/rest/"
  user_agent: "flickrgeo/1.0"
  timeout: 30s

search:
  # Flickr place id; the default is the continent of Europe
  place_id: "6dCBhRRTVrJiB5xOrg"
  # Geotag accuracy, 1 (world) to 16 (street)
  accuracy: 16
  # Results per page, at most 500
  per_page: 200

crawl:
  # A range whose search reports more results than this is split in half
  max_results: 4000
  # Ranges shorter than this are never split
  min_segment: 1s
  # Randomise record order before the coordinate lookups
  shuffle: false
  # Zone used to read --start-date and --end-date
  time_zone: "Local"

rate_limit:
  # Minimum pause after every API request; Flickr allows 3600 calls per hour
  interval: 1010ms
  # Extra pause before retrying a failed request
  retry_delay: 0s

enrichment:
  # Tries per coordinate lookup
  max_attempts: 1

output:
  file: "photos.csv"
  # csv or sqlite
  format: "csv"
  # Photos without coordinates: omit, or empty to keep them with blank x and y
  unlocated: "omit"
  # buffered writes everything at the end, streaming writes each row as it arrives
  mode: "buffered"

logging:
  # debug, info, warn, error
  level: "info"
  # Optional JSON log file
  file: ""

metrics:
  # Optional node_exporter textfile written when a run ends
  textfile: ""
`

func runConfigInit(cmd *cobra.Command, args []string) error {
	configPath := configFile
	if configPath == "" {
		configPath = ".flickrgeo.yaml"
	}

	if _, err := os.Stat(configPath); err == nil {
		stdout.Println("\nTo overwrite, first remove the existing file:")
		stdout.Printf("  rm %s\n", configPath)
		return fmt.Errorf("configuration file already exists: %s", configPath)
	}

	if dir := filepath.Dir(configPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}
	if err := os.WriteFile(configPath, []byte(exampleConfig), 0600); err != nil {
		return fmt.Errorf("failed to create configuration file: %w", err)
	}

	stdout.Success("Configuration file created: " + configPath)
	stdout.Println("\nNext steps:")
	stdout.Println("1. Add your API key, or run 'flickrgeo auth login'")
	stdout.Println("2. Run 'flickrgeo config validate' to check the configuration")
	stdout.Println(`3. Start a crawl with 'flickrgeo crawl -s "2024-01-01 00:00:00" -e "2024-01-31 23:59:59" -o photos.csv'`)
	return nil
}

// maskedConfig returns a copy of cfg that is safe to print
func maskedConfig(cfg *config.Config) config.Config {
	display := *cfg
	if display.Flickr.APIKey != "" || display.Flickr.Secret != "" {
		masked := auth.SanitizeAccount(&auth.Account{
			APIKey: display.Flickr.APIKey,
			Secret: display.Flickr.Secret,
		})
		display.Flickr.APIKey = masked.APIKey
		display.Flickr.Secret = masked.Secret
	}
	return display
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile, baseFlags())
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	display := maskedConfig(cfg)
	data, err := yaml.Marshal(&display)
	if err != nil {
		return fmt.Errorf("failed to format configuration: %w", err)
	}

	stdout.Highlight("Current Configuration")
	stdout.Println()
	stdout.Printf("%s", data)
	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile, baseFlags())
	if err != nil {
		stderr.Error("Configuration has errors")
		var joined interface{ Unwrap() []error }
		if errors.As(err, &joined) {
			for _, e := range joined.Unwrap() {
				stderr.Printf("  - %s\n", e)
			}
		}
		return err
	}

	var warnings []string
	if !cfg.HasCredentials() {
		warnings = append(warnings, "no API key configured; the credential store will be used")
	}
	if cfg.Output.File == "" {
		warnings = append(warnings, "no output file configured; pass --output to crawl")
	}
	if cfg.Logging.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Logging.File), 0755); err != nil {
			warnings = append(warnings, fmt.Sprintf("cannot create log directory: %v", err))
		}
	}

	if len(warnings) > 0 {
		stdout.Warning("Configuration warnings")
		for _, w := range warnings {
			stdout.Printf("  - %s\n", w)
		}
		stdout.Println()
	}

	stdout.Success("Configuration is valid")
	stdout.Table([][2]string{
		{"Place", cfg.Search.PlaceID},
		{"Accuracy", fmt.Sprint(cfg.Search.Accuracy)},
		{"Max results", fmt.Sprint(cfg.Crawl.MaxResults)},
		{"Interval", cfg.RateLimit.Interval.String()},
		{"Output", fmt.Sprintf("%s (%s, %s)", cfg.Output.File, cfg.Output.Format, cfg.Output.Mode)},
		{"Log level", cfg.Logging.Level},
	})
	return nil
}
