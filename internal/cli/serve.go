package cli

import (
	"context"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"modelenv/internal/httpapi"
)

func serveCmd(a *app) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:     "serve",
		Short:   "Serve the read-only inventory API over HTTP",
		Example: "  modelenv serve --addr :8090",
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = a.cfg.Addr
			}

			httpapi.SetLogger(a.log)
			srv := &http.Server{Addr: addr, Handler: httpapi.NewMux(a.st)}

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			// pick up installs from other processes without a restart
			go func() {
				if err := a.st.Watch(ctx, nil); err != nil && ctx.Err() == nil {
					a.log.Warn().Err(err).Msg("registry watcher stopped")
				}
			}()

			errCh := make(chan error, 1)
			go func() {
				a.log.Info().Str("addr", addr).Str("store", a.st.Dir()).Msg("inventory API listening")
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					errCh <- err
				}
			}()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer shutdownCancel()
			return srv.Shutdown(shutdownCtx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "HTTP listen address (defaults to config addr)")
	return cmd
}
