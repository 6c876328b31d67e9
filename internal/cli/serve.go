package cli

import (
	"os/signal"
	"syscall"

	"github.com/optimusx/nl2sql/internal/server"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			log.Info().
				Str("version", Version).
				Str("environment", cfg.Environment).
				Int("port", cfg.Port).
				Msg("starting nl2sql")

			return server.New(ctx, cfg).Run(ctx)
		},
	}
}
