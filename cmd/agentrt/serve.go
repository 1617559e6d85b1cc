package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve plugin routes over HTTP",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			rt, cfg, err := opts.newRuntime(ctx)
			if err != nil {
				return err
			}

			if addr == "" {
				addr = cfg.HTTP.Addr
			}

			srv := &http.Server{
				Addr:              addr,
				Handler:           rt.Handler(),
				ReadHeaderTimeout: 10 * time.Second,
			}

			serverErrors := make(chan error, 1)
			go func() {
				fmt.Fprintf(cmd.OutOrStdout(), "serving %s on %s\n", cfg.Character.Name, addr)
				serverErrors <- srv.ListenAndServe()
			}()

			select {
			case err := <-serverErrors:
				if !errors.Is(err, http.ErrServerClosed) {
					_ = rt.Close(context.Background())
					return err
				}
			case <-ctx.Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			return errors.Join(srv.Shutdown(shutdownCtx), rt.Close(shutdownCtx))
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (defaults to http.addr from the config)")

	return cmd
}
