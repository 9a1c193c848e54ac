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

	"operation-list/internal/bootstrap"
	"operation-list/internal/config"
	"operation-list/internal/logger"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string
	cmd := &cobra.Command{
		Use:          "api",
		Short:        "Serve the operating-room booking form",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			lggr, err := logger.New(cfg.Log.Level)
			if err != nil {
				return err
			}
			defer lggr.Sync()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return run(ctx, cfg, lggr)
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "oplist.yaml", "path to the YAML config file")
	return cmd
}

func run(ctx context.Context, cfg *config.Config, lggr logger.Logger) error {
	rt, err := bootstrap.Open(ctx, cfg, lggr)
	if err != nil {
		return err
	}
	defer rt.Close()

	if rt.Remote != nil && cfg.Mirror.PullOnStart {
		if n, err := rt.Pull(ctx); err != nil {
			lggr.Warnw("pull on start failed", "err", err)
		} else {
			lggr.Infow("archive pulled on start", "rows", n)
		}
	}

	app, err := NewApp(cfg, rt.Service, lggr)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           app.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		lggr.Infow("API/UI Server started", "port", cfg.Server.Port, "store", cfg.Store.Driver, "mirror", cfg.Mirror.Enabled)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
