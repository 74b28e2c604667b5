package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"flickrgeo/pkg/auth"
	"flickrgeo/pkg/config"
	"flickrgeo/pkg/logger"
	"flickrgeo/pkg/pipeline"
)

var (
	// Crawl command flags
	startDate       string
	endDate         string
	outputFile      string
	outputFormat    string
	unlocatedPolicy string
	outputMode      string
	shuffle         bool
	accountName     string
	apiKey          string
	maxResults      int
	interval        time.Duration
	metricsTextfile string
)

// dateArg accepts unpadded months, days, minutes and seconds; hours stay two digits
var dateArg = regexp.MustCompile(`^\d{4}-(0?[1-9]|1[0-2])-(0?[1-9]|[12][0-9]|3[01]) ([01][0-9]|2[0-3]):([0-9]|[0-5][0-9]):([0-9]|[0-5][0-9])$`)

// crawlCmd represents the crawl command
var crawlCmd = &cobra.Command{
	Use:   "crawl",
	Short: "Collect photos taken in a date range",
	Long: `Collect every photo taken in the configured place between --start-date
and --end-date, look up its coordinates and write id,x,y,url rows.

The API key is taken, in order, from --api-key, FLICKRGEO_API_KEY, the
configuration file and the credential store ('flickrgeo auth login').`,
	Example: `  # One month of photos to CSV
  flickrgeo crawl -s "2024-01-01 00:00:00" -e "2024-01-31 23:59:59" -o january.csv

  # Stream rows into SQLite as they are enriched, keeping unlocated photos
  flickrgeo crawl -s "2024-01-01 00:00:00" -e "2024-01-02 00:00:00" \
    -o photos.db --format sqlite --mode streaming --unlocated empty`,
	Args: cobra.NoArgs,
	RunE: runCrawl,
}

func init() {
	rootCmd.AddCommand(crawlCmd)

	crawlCmd.Flags().StringVarP(&startDate, "start-date", "s", "", `start of the capture-time range, "YYYY-MM-DD HH:mm:ss"`)
	crawlCmd.Flags().StringVarP(&endDate, "end-date", "e", "", `end of the capture-time range, "YYYY-MM-DD HH:mm:ss"`)
	crawlCmd.Flags().StringVarP(&outputFile, "output", "o", "", "output file")
	crawlCmd.Flags().StringVar(&outputFormat, "format", "", "output format (csv, sqlite)")
	crawlCmd.Flags().StringVar(&unlocatedPolicy, "unlocated", "", "photos without coordinates (omit, empty)")
	crawlCmd.Flags().StringVar(&outputMode, "mode", "", "write rows at the end (buffered) or as they arrive (streaming)")
	crawlCmd.Flags().BoolVar(&shuffle, "shuffle", false, "randomise record order before looking up coordinates")
	crawlCmd.Flags().StringVarP(&accountName, "account", "a", "", "use a specific stored account")
	crawlCmd.Flags().StringVar(&apiKey, "api-key", "", "Flickr API key")
	crawlCmd.Flags().IntVar(&maxResults, "max-results", 0, "result count above which a range is split")
	crawlCmd.Flags().DurationVar(&interval, "interval", 0, "minimum pause after every API request")
	crawlCmd.Flags().StringVar(&metricsTextfile, "metrics-textfile", "", "write Prometheus metrics to this file when done")

	_ = crawlCmd.MarkFlagRequired("start-date")
	_ = crawlCmd.MarkFlagRequired("end-date")
}

// validateDateArg checks the "YYYY-MM-DD HH:mm:ss" form
func validateDateArg(name, value string) error {
	if !dateArg.MatchString(value) {
		return fmt.Errorf("invalid --%s %q: expected \"YYYY-MM-DD HH:mm:ss\"", name, value)
	}
	return nil
}

// crawlFlags collects only the flags that were set on the command line
func crawlFlags(cmd *cobra.Command) (map[string]interface{}, error) {
	flags := baseFlags()

	if outputFile != "" {
		abs, err := filepath.Abs(outputFile)
		if err != nil {
			return nil, fmt.Errorf("invalid --output %q: %w", outputFile, err)
		}
		flags["output-file"] = abs
	}
	if outputFormat != "" {
		flags["format"] = outputFormat
	}
	if unlocatedPolicy != "" {
		flags["unlocated"] = unlocatedPolicy
	}
	if outputMode != "" {
		flags["mode"] = outputMode
	}
	if cmd.Flags().Changed("shuffle") {
		flags["shuffle"] = shuffle
	}
	if accountName != "" {
		flags["account"] = accountName
	}
	if apiKey != "" {
		flags["api-key"] = apiKey
	}
	if maxResults > 0 {
		flags["max-results"] = maxResults
	}
	if interval > 0 {
		flags["interval"] = interval
	}
	if metricsTextfile != "" {
		flags["metrics-textfile"] = metricsTextfile
	}
	return flags, nil
}

func runCrawl(cmd *cobra.Command, args []string) error {
	if err := validateDateArg("start-date", startDate); err != nil {
		return err
	}
	if err := validateDateArg("end-date", endDate); err != nil {
		return err
	}

	flags, err := crawlFlags(cmd)
	if err != nil {
		return err
	}

	cfg, err := config.Load(configFile, flags)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if cfg.Output.File == "" {
		return errors.New("no output file: pass --output or set output.file")
	}

	if err := logger.Initialize(&cfg.Logging); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	log, runID := logger.WithRunID(logger.GetLogger())
	log.WithField("version", version).Info("flickrgeo starting")

	if err := resolveCredentials(cfg, log); err != nil {
		log.WithError(err).Error("Missing Flickr API key")
		return err
	}

	loc, err := cfg.Location()
	if err != nil {
		return err
	}
	window, err := pipeline.ParseWindow(startDate, endDate, loc)
	if err != nil {
		return err
	}

	p, err := pipeline.New(cfg, pipeline.Deps{Logger: log})
	if err != nil {
		return err
	}

	summary, err := p.Run(context.Background(), window)
	if err != nil {
		log.WithError(err).Error("Crawl failed")
		return err
	}

	stdout.Success("Crawl completed")
	stdout.Table([][2]string{
		{"Run", runID},
		{"Output", summary.Output},
		{"Photos found", strconv.Itoa(summary.Discovered)},
		{"Duplicates ignored", strconv.Itoa(summary.Duplicates)},
		{"Ranges split", strconv.Itoa(summary.Splits)},
		{"Search requests", fmt.Sprintf("%d (%d retried)", summary.Requests, summary.Retries)},
		{"With coordinates", strconv.Itoa(summary.Enriched)},
		{"Without coordinates", strconv.Itoa(summary.Failed)},
		{"Rows written", strconv.Itoa(summary.Written)},
		{"Elapsed", summary.Elapsed.Round(time.Second).String()},
	})
	return nil
}

// resolveCredentials fills the API key from the credential store when
// neither flags, environment nor config file provided one.
func resolveCredentials(cfg *config.Config, log logger.Logger) error {
	if cfg.HasCredentials() {
		return nil
	}

	manager, err := auth.NewManager()
	if err != nil {
		log.WithError(err).Warn("Credential store unavailable")
	} else if err := manager.Apply(cfg); err != nil && !errors.Is(err, auth.ErrCredentialsNotFound) {
		return fmt.Errorf("failed to read stored credentials: %w", err)
	}

	if !cfg.HasCredentials() {
		if cfg.Flickr.Account != "" {
			return fmt.Errorf("no stored credentials for account %q", cfg.Flickr.Account)
		}
		return fmt.Errorf("no Flickr API key: run 'flickrgeo auth login' or set %s", auth.EnvAPIKey)
	}
	return nil
}
