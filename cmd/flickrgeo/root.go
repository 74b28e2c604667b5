package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"flickrgeo/pkg/ui"
)

var (
	// Version information
	version   = "1.0.0"
	gitCommit = "unknown"
	buildDate = "unknown"

	// Global flags
	configFile string
	logLevel   string
	noColor    bool

	stdout = ui.NewPrinter(os.Stdout)
	stderr = ui.NewPrinter(os.Stderr)
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "flickrgeo",
	Short: "Collect geotagged Flickr photos taken within a date range",
	Long: `flickrgeo searches Flickr for every photo taken inside a place during a
capture-time range and records each photo's id, coordinates and image URL.

Ranges holding more photos than one search can return are split in half
until every piece fits, and every API call is paced to stay inside the
Flickr rate limit.`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if noColor {
			stdout.SetColor(false)
			stderr.SetColor(false)
		}
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		stdout.Printf("flickrgeo %s\n", rootCmd.Version)
		stdout.Printf("Go Version: %s\n", runtime.Version())
		stdout.Printf("OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
	},
}

// Execute runs the command tree and exits with status 1 on failure
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		stderr.Error("Error", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default is ./.flickrgeo.yaml or ~/.config/flickrgeo/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")

	rootCmd.SetVersionTemplate(`flickrgeo {{.Version}}
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.AddCommand(versionCmd)
}

// baseFlags returns the config overrides shared by every command
func baseFlags() map[string]interface{} {
	flags := make(map[string]interface{})
	if logLevel != "" {
		flags["log-level"] = logLevel
	}
	return flags
}
