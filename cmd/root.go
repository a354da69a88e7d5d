package cmd

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/apcloudy/apcloudy-go/apcloudy"
	"github.com/apcloudy/apcloudy-go/config"
)

var (
	cfgFile string
	cfg     *config.Config
	logger  zerolog.Logger
	client  *apcloudy.Client

	// Command flags
	jsonOutput bool
)

var (
	version   = "dev"
	buildTime = "unknown"
)

// SetVersion records build information for the version command.
func SetVersion(v, t string) {
	version = v
	buildTime = t
}

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "apcloudy",
	Short: "Manage APCloudy projects, spiders and jobs from the command line",
	Long: `apcloudy is a CLI for the APCloudy web-scraping platform. It lets you
inspect projects, deploy spiders, run jobs and retrieve logs and scraped
items using the platform REST API.`,
	PersistentPreRunE: initializeApp,
	SilenceUsage:      true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "print raw JSON instead of tables")

	rootCmd.AddCommand(verifyCmd)
	rootCmd.AddCommand(versionCmd)
}

// initializeApp loads the configuration and constructs the API client.
func initializeApp(cmd *cobra.Command, args []string) error {
	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger = setupLogger(cfg.Logging)

	client, err = apcloudy.New(
		cfg.API.Key,
		apcloudy.WithBaseURL(cfg.API.BaseURL),
		apcloudy.WithTimeout(time.Duration(cfg.API.Timeout)*time.Second),
		apcloudy.WithMaxRetries(cfg.API.MaxRetries),
		apcloudy.WithRateLimit(cfg.API.RateLimit),
		apcloudy.WithLogger(logger),
	)
	if err != nil {
		return fmt.Errorf("failed to create APCloudy client: %w", err)
	}

	return nil
}

// setupLogger configures the zerolog logger
func setupLogger(cfg config.LoggingConfig) zerolog.Logger {
	// Set log level
	level := zerolog.InfoLevel
	switch strings.ToLower(cfg.Level) {
	case "trace":
		level = zerolog.TraceLevel
	case "debug":
		level = zerolog.DebugLevel
	case "warn":
		level = zerolog.WarnLevel
	case "error":
		level = zerolog.ErrorLevel
	}

	zerolog.SetGlobalLevel(level)

	// Configure output format
	if cfg.Format == "json" {
		return zerolog.New(os.Stderr).With().Timestamp().Logger()
	}

	// Console format; color only when attached to a terminal
	color := cfg.Color && isatty.IsTerminal(os.Stderr.Fd())
	output := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
		NoColor:    !color,
	}

	return zerolog.New(output).With().Timestamp().Logger()
}

// verifyCmd tests connectivity and key validity
var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Verify API connectivity and key validity",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := client.Verify(cmd.Context()); err != nil {
			return err
		}
		fmt.Println("✓ Connected to APCloudy")
		return nil
	},
}

// versionCmd prints build information
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return nil // no config needed
	},
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("apcloudy %s (built %s)\n", version, buildTime)
	},
}
