// Package cli implements the nl2sql command line: serve, ask, schema and version.
package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/optimusx/nl2sql/internal/config"
	"github.com/optimusx/nl2sql/internal/handler"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// Version is overridden at build time with -ldflags "-X ...cli.Version=..."
var Version = "dev"

var configPath string

// NewRootCommand builds the command tree
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "nl2sql",
		Short:         "Answer questions about distribution, sort and store facilities with SQL",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if configPath != "" {
				_ = os.Setenv("NL2SQL_CONFIG", configPath)
			}
			handler.Version = Version
		},
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to a JSON config file (overrides NL2SQL_CONFIG)")

	root.AddCommand(newServeCommand(), newAskCommand(), newSchemaCommand(), newVersionCommand())
	return root
}

// Execute runs the CLI and exits non-zero on error
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	setupLogging(cfg, os.Stderr)
	return cfg, nil
}

// setupLogging installs the global zerolog logger: console output in
// development, JSON everywhere else.
func setupLogging(cfg *config.Config, w io.Writer) {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.LogLevel))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339

	if cfg.Environment == "development" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	}
	log.Logger = zerolog.New(w).With().Timestamp().Str("service", "nl2sql").Logger()
}
