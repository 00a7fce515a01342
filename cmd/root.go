package cmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/huangsam/liftwatch/core"
	"github.com/huangsam/liftwatch/internal/contract"
	"github.com/huangsam/liftwatch/internal/datawrapper"
	"github.com/huangsam/liftwatch/internal/iocache"
	"github.com/huangsam/liftwatch/internal/logging"
	"github.com/huangsam/liftwatch/internal/soda"
	"github.com/huangsam/liftwatch/schema"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"
)

// All linker flags will be set by goreleaser infra at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// rootCtx is the root context for all operations.
var rootCtx = context.Background()

// cfg will hold the validated, final configuration.
var cfg = &contract.Config{}

// input holds the raw, unvalidated configuration from all sources (file, env, flags).
// Viper will unmarshal into this struct.
var input = &contract.ConfigRawInput{}

// rootCmd is the command-line entrypoint for all other commands.
var rootCmd = &cobra.Command{
	Use:   "liftwatch",
	Short: "Publish NYC transit elevator and ADA availability charts.",
	Long: `Liftwatch pulls elevator availability and ADA entrance operability from the
NY open data portal, reduces it to chart-ready tables and pushes them to Datawrapper.`,
	Version:            version,
	SilenceErrors:      true,
	SilenceUsage:       true,
	DisableSuggestions: true,
	Run: func(cmd *cobra.Command, _ []string) {
		_ = cmd.Help()
	},
}

// initConfig reads in .env, config file and ENV variables if set.
func initConfig() {
	// A missing .env file is the normal case
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		contract.LogWarn("Error loading .env file", err)
	}

	setConfigFile()

	// Set environment variable prefix
	viper.SetEnvPrefix("LIFTWATCH")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv() // Read in environment variables that match

	// Credentials also come from the unprefixed names used by the charting service docs.
	if err := viper.BindEnv("datawrapper-token", "LIFTWATCH_DATAWRAPPER_TOKEN", "DATAWRAPPER_TOKEN"); err != nil {
		contract.LogFatal("Error binding datawrapper token", err)
	}
	if err := viper.BindEnv("soda-app-token", "LIFTWATCH_SODA_APP_TOKEN", "SODA_APP_TOKEN"); err != nil {
		contract.LogFatal("Error binding soda app token", err)
	}

	// Set defaults in Viper
	viper.SetDefault("soda-base-url", contract.DefaultSODABaseURL)
	viper.SetDefault("datawrapper-base-url", contract.DefaultDatawrapperBaseURL)
	viper.SetDefault("timeout", contract.DefaultTimeout.String())
	viper.SetDefault("output", schema.TextOut)
	viper.SetDefault("log-level", contract.DefaultLogLevel)
	viper.SetDefault("history-backend", schema.NoneBackend)
	viper.SetDefault("history-db-connect", "")
	viper.SetDefault("schedule", contract.DefaultSchedule)
	viper.SetDefault("emoji", "yes")
	viper.SetDefault("color", "yes")
}

// setConfigFile points viper at --config or the default .liftwatch.yaml locations.
func setConfigFile() {
	if configFile := viper.GetString("config"); configFile != "" {
		viper.SetConfigFile(configFile)
		return
	}
	viper.SetConfigName(".liftwatch") // Name of config file (without extension)
	viper.SetConfigType("yaml")       // We'll use YAML format
	viper.AddConfigPath(".")          // Look in the current directory
	viper.AddConfigPath("$HOME")      // Look in the home directory
}

// loadConfigFile reads the config file when one is present.
func loadConfigFile() error {
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			// Config file was found but another error was produced
			return fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found, which is fine; we'll use defaults/env/flags.
	}
	return nil
}

// sharedSetup unmarshals config and runs validation.
func sharedSetup(_ context.Context, _ *cobra.Command, _ []string) error {
	// 1. Read config file. This merges defaults, file, env, and flags.
	if err := loadConfigFile(); err != nil {
		return err
	}

	// 2. Unmarshal all resolved values from Viper into our raw input struct.
	if err := viper.Unmarshal(input); err != nil {
		return fmt.Errorf("unable to unmarshal config: %w", err)
	}

	// 3. Run all validation and complex parsing.
	if err := contract.ProcessAndValidate(cfg, input); err != nil {
		return err
	}

	// 4. Initialize run history with validated config
	if err := iocache.InitHistory(cfg.HistoryBackend, cfg.HistoryDBConnect); err != nil {
		return fmt.Errorf("failed to initialize history: %w", err)
	}

	return nil
}

// sharedSetupWrapper wraps sharedSetup to provide context for Cobra's PreRunE.
func sharedSetupWrapper(cmd *cobra.Command, args []string) error {
	return sharedSetup(rootCtx, cmd, args)
}

// newRunner wires the record source, logger and history into a runner.
// The chart publisher is only built when publish is set, which requires the credential.
func newRunner(publish bool) (*core.Runner, error) {
	color := cfg.UseColors && term.IsTerminal(int(os.Stderr.Fd()))
	logger := logging.New(os.Stderr, cfg.LogLevel, color)

	runner := &core.Runner{
		Source: soda.NewClient(soda.Config{
			BaseURL:  cfg.SODABaseURL,
			AppToken: cfg.SODAAppToken,
			Timeout:  cfg.Timeout,
		}, logger),
		History:   iocache.Manager.GetHistoryStore(),
		Out:       os.Stdout,
		Logger:    logger,
		UseEmojis: cfg.UseEmojis,
		UseColors: cfg.UseColors,
	}
	if !publish {
		return runner, nil
	}

	if err := cfg.RequireCredential(); err != nil {
		return nil, err
	}
	pub, err := datawrapper.NewClient(datawrapper.Config{
		Token:   cfg.DatawrapperToken,
		BaseURL: cfg.DatawrapperBaseURL,
		Timeout: cfg.Timeout,
	}, logger)
	if err != nil {
		return nil, err
	}
	runner.Publisher = pub
	return runner, nil
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
