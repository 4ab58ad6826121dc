package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/aretw0/strata"
	"github.com/aretw0/strata/internal/cli"
	"github.com/aretw0/strata/internal/config"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "strata",
	Short:         "Strata composes layered scene descriptions",
	Long:          `Strata opens a root layer, follows its reference arcs across layers and answers questions about the composed prims.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	flags := rootCmd.PersistentFlags()
	flags.String("dir", ".", "Directory containing the layers")
	flags.String("config", "", "Config file (default: ./"+config.DefaultFile+" when present)")
	flags.String("store", "", "Layer store: file, redis, loam or memory")
	flags.String("redis", "", "Redis address; implies --store=redis")
	flags.String("log-level", "", "Log level: debug, info, warn or error")
	flags.Int("max-depth", 0, "Maximum length of a reference chain")
}

// loadConfig reads the config file and applies flag overrides.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	flags := cmd.Flags()

	path, _ := flags.GetString("config")
	optional := path == ""
	if optional {
		path = config.DefaultFile
	}
	cfg, err := config.Load(path, optional)
	if err != nil {
		return config.Config{}, err
	}

	if flags.Changed("dir") {
		cfg.Dir, _ = flags.GetString("dir")
	}
	if flags.Changed("store") {
		cfg.Store, _ = flags.GetString("store")
	}
	if flags.Changed("redis") {
		cfg.Store = config.StoreRedis
		cfg.Redis.Addr, _ = flags.GetString("redis")
	}
	if flags.Changed("log-level") {
		cfg.LogLevel, _ = flags.GetString("log-level")
	}
	if flags.Changed("max-depth") {
		cfg.MaxDepth, _ = flags.GetInt("max-depth")
	}
	return cfg, cfg.Validate()
}

// openEngine builds the engine described by the config and flags.
func openEngine(cmd *cobra.Command, extra ...strata.Option) (*strata.Engine, func(), *slog.Logger, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, nil, err
	}
	logger, err := cli.NewLogger(cfg.LogLevel)
	if err != nil {
		return nil, nil, nil, err
	}
	engine, cleanup, err := cli.NewEngine(cfg, logger, extra...)
	if err != nil {
		return nil, nil, nil, err
	}
	return engine, cleanup, logger, nil
}
