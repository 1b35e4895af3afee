package commands

import (
	"context"
	"fmt"
	"net"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mozilla/glean-dictionary/internal/cli/ui"
	"github.com/mozilla/glean-dictionary/internal/preview"
)

// NewServeCommand creates the serve command
func NewServeCommand() *cobra.Command {
	var port int
	var host string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the generated files for local preview",
		Long: `Serve the last build over HTTP: the data directory below /data/ and the
search functions below /functions/. Files are read on every request, so a
rebuild in another terminal shows up without restarting.`,
		Example: `  glean-dictionary serve
  glean-dictionary serve --port 8080`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, nil)
			if err != nil {
				return err
			}
			logger, err := newLogger(cfg, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck

			listener, err := net.Listen("tcp", fmt.Sprintf("%s:%d", host, port))
			if err != nil {
				return fmt.Errorf("failed to listen: %w", err)
			}

			fmt.Fprint(cmd.OutOrStdout(), ui.Info(
				fmt.Sprintf("Serving %s and %s on http://%s", cfg.OutputDir, cfg.FunctionsDir, listener.Addr()),
				noColorFlag(cmd)))

			parent := cmd.Context()
			if parent == nil {
				parent = context.Background()
			}
			ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			handler := preview.NewHandler(&preview.Config{
				DataDir:      cfg.OutputDir,
				FunctionsDir: cfg.FunctionsDir,
				Logger:       logger,
			})
			return preview.Serve(ctx, listener, handler, logger)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 5000, "Port to listen on")
	cmd.Flags().StringVar(&host, "host", "localhost", "Interface to listen on")

	return cmd
}
