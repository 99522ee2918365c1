package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func newServeCmd(root *rootOptions) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Expose the agent over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := root.container(cmd)
			if err != nil {
				return err
			}
			defer c.Close()

			if addr == "" {
				addr = c.Config.Server.Addr
			}
			if err := c.Config.RequireLLM(); err != nil {
				c.Logger.Warn("Chat endpoint will fail", "reason", err)
			}

			srv := &http.Server{
				Addr:              addr,
				Handler:           c.HTTPServer().Handler(),
				ReadHeaderTimeout: 10 * time.Second,
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				c.Logger.Info("HTTP server listening", "addr", addr)
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			})
			g.Go(func() error {
				<-gctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), c.Config.Server.ShutdownTimeout)
				defer cancel()
				c.Logger.Info("Shutting down HTTP server")
				return srv.Shutdown(shutdownCtx)
			})

			return g.Wait()
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default server.addr)")
	return cmd
}
