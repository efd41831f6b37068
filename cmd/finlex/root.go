package main

import (
	"context"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/cognicore/finlex/internal/logging"
	"github.com/cognicore/finlex/pkg/finlex/config"
)

type commandContext struct {
	configPath string
	vocabPath  string
	storePath  string
	logLevel   string
	logFormat  string
}

func newRootCommand() *cobra.Command {
	cc := &commandContext{}

	root := &cobra.Command{
		Use:          "finlex",
		Short:        "Financial term dictionary",
		Long:         "Identify the financial term a question asks about and return its definition.",
		SilenceUsage: true,
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&cc.configPath, "config", "c", "", "Configuration file (.yaml or .toml)")
	flags.StringVar(&cc.vocabPath, "vocab", "", "Vocabulary file or .db store (overrides config)")
	flags.StringVar(&cc.storePath, "store", "", "Lookup history database (overrides config)")
	flags.StringVar(&cc.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	flags.StringVar(&cc.logFormat, "log-format", "", "Log format: auto, text, json")

	root.AddCommand(
		newServeCommand(cc),
		newQueryCommand(cc),
		newDefineCommand(cc),
		newImportCommand(cc),
		newExportCommand(cc),
		newStatsCommand(cc),
	)
	return root
}

// loadConfig reads the configuration file and applies flag overrides.
func (cc *commandContext) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cc.configPath)
	if err != nil {
		return nil, err
	}
	if cc.vocabPath != "" {
		cfg.Vocabulary.Path = cc.vocabPath
	}
	if cc.storePath != "" {
		cfg.Store.Path = cc.storePath
	}
	if cc.logLevel != "" {
		cfg.Logging.Level = cc.logLevel
	}
	if cc.logFormat != "" {
		cfg.Logging.Format = cc.logFormat
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (cc *commandContext) logger(cfg *config.Config, w io.Writer) (*slog.Logger, error) {
	return logging.New(logging.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Writer: w,
	})
}

// loadComponents builds the service from configuration.
func (cc *commandContext) loadComponents(ctx context.Context, cmd *cobra.Command) (*config.Config, *config.Components, *slog.Logger, error) {
	cfg, err := cc.loadConfig()
	if err != nil {
		return nil, nil, nil, err
	}
	logger, err := cc.logger(cfg, cmd.ErrOrStderr())
	if err != nil {
		return nil, nil, nil, err
	}
	comp, err := (&config.Loader{Config: cfg, Logger: logger}).Load(ctx)
	if err != nil {
		return nil, nil, nil, err
	}
	return cfg, comp, logger, nil
}
