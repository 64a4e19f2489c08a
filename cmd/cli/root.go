// Package cli provides the recnotes command line: init scaffolds an Obsidian
// vault or operation folder, parse turns host lists and scan output into host
// notes, and resolve builds the host map parse consumes.
package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/anstrom/recnotes/internal/config"
	"github.com/anstrom/recnotes/internal/errors"
	"github.com/anstrom/recnotes/internal/logging"
)

const envPrefix = "RECNOTES"

// Exit statuses. A fatal error (malformed scan, missing template or
// destination, invalid configuration) exits with exitFatal.
const (
	exitFailure = 1
	exitFatal   = 2
)

var (
	cfgFile string
	verbose bool

	// runID tags every log record of this invocation.
	runID = uuid.New().String()
)

// Build information - these will be set by ldflags during build.
var (
	version   = "dev"
	commit    = "none"
	buildTime = "unknown"
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "recnotes",
	Short: "Turn recon output into Obsidian host notes",
	Long: `recnotes sets up Obsidian vaults for an operation and fills them with one
note per host, built from host lists, nmap grepable or XML output and host,ip
maps. Open ports and services land in each note's frontmatter.`,
	Version:       getVersion(),
	SilenceUsage:  true,
	SilenceErrors: false,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(exitCode(err))
	}
}

func exitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.IsFatal(err):
		return exitFatal
	default:
		return exitFailure
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./recnotes.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	// Bind flags to viper
	if err := viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose")); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to bind verbose flag: %v\n", err)
	}
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Search for config in current directory
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName("recnotes")
	}

	bindEnv()

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		if verbose {
			fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
		}
	}

	// Initialize structured logging after config is loaded
	initLogging()
}

// bindEnv makes RECNOTES_LOGGING_LEVEL override logging.level and so on.
func bindEnv() {
	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
}

// loadConfig returns the file configuration with environment variables and
// changed command flags applied on top.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(viper.ConfigFileUsed())
	if err != nil {
		return nil, err
	}
	applyOverrides(cfg)
	if viper.GetBool("verbose") {
		cfg.Logging.Level = string(logging.LevelDebug)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyOverrides(cfg *config.Config) {
	overrideString("logging.level", &cfg.Logging.Level)
	overrideString("logging.format", &cfg.Logging.Format)
	overrideString("logging.output", &cfg.Logging.Output)
	overrideString("notes.template_dir", &cfg.Notes.TemplateDir)
	overrideString("notes.project_placeholder", &cfg.Notes.ProjectPlaceholder)
	overrideString("notes.open_ports_marker", &cfg.Notes.OpenPortsMarker)
	overrideString("notes.services_marker", &cfg.Notes.ServicesMarker)
	overrideString("resolve.server", &cfg.Resolve.Server)
	overrideString("metrics.textfile", &cfg.Metrics.Textfile)

	if viper.IsSet("resolve.timeout") {
		cfg.Resolve.Timeout = viper.GetDuration("resolve.timeout")
	}
	if viper.IsSet("resolve.concurrency") {
		cfg.Resolve.Concurrency = viper.GetInt("resolve.concurrency")
	}
}

func overrideString(key string, dst *string) {
	if viper.IsSet(key) {
		*dst = viper.GetString(key)
	}
}

// bindFlag ties a command flag to a configuration key.
func bindFlag(cmd *cobra.Command, key, flag string) {
	if err := viper.BindPFlag(key, cmd.Flags().Lookup(flag)); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to bind %s flag: %v\n", flag, err)
	}
}

// metricsFileFlag applies --metrics-file. Viper binds one flag per key and
// both parse and resolve carry this one.
func metricsFileFlag(flags *pflag.FlagSet, cfg *config.Config) {
	if f := flags.Lookup("metrics-file"); f != nil && f.Changed {
		cfg.Metrics.Textfile = f.Value.String()
	}
}

// getVersion returns the version string.
func getVersion() string {
	return fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildTime)
}

// SetVersion sets the version information (called from main).
func SetVersion(v, c, bt string) {
	version = v
	commit = c
	buildTime = bt
	rootCmd.Version = getVersion()
}

// initLogging initializes structured logging based on configuration.
func initLogging() {
	cfg, err := loadConfig()
	if err != nil {
		// If config loading fails, use default logging
		logging.SetDefault(logging.NewDefault().WithRunID(runID))
		logging.Warn("Using default configuration", "error", err)
		return
	}

	logConfig := logging.Config{
		Level:     logging.LogLevel(cfg.Logging.Level),
		Format:    logging.LogFormat(cfg.Logging.Format),
		Output:    cfg.Logging.Output,
		AddSource: cfg.Logging.Level == "debug",
	}

	logger, err := logging.New(logConfig)
	if err != nil {
		// Fall back to default if creation fails
		logger = logging.NewDefault()
		fmt.Fprintf(os.Stderr, "Warning: failed to initialize logging: %v\n", err)
	}

	logging.SetDefault(logger.WithRunID(runID))

	if verbose {
		logging.Info("Structured logging initialized", "level", cfg.Logging.Level, "format", cfg.Logging.Format)
	}
}
