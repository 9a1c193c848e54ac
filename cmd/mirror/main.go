package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"operation-list/internal/config"
	"operation-list/internal/logger"
	"operation-list/internal/mirror"
	"operation-list/internal/store"
)

const debounce = 2 * time.Second

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string
	cmd := &cobra.Command{
		Use:          "mirror",
		Short:        "Keep the local operation archive in sync with its GitHub copy",
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
	if !cfg.Mirror.Enabled {
		return errors.New("mirror.enabled is false, nothing to do")
	}
	if cfg.Store.Driver != "csv" {
		return errors.New("the mirror daemon only watches csv archives")
	}

	local, err := store.NewCSVStore(cfg.Store.Path)
	if err != nil {
		return err
	}
	remote := mirror.NewArchive(mirror.NewClient(cfg.Mirror, lggr), cfg.MirrorPath())
	s := newSyncer(local, remote, lggr)

	start := s.Push
	if cfg.Mirror.PullOnStart {
		start = s.Pull
	}
	if err := start(ctx); err != nil {
		lggr.Warnw("initial sync failed", "err", err)
	}

	lggr.Infow("Mirror daemon started", "path", local.Path(), "remote", remote.Path(), "interval", cfg.Mirror.Interval)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return mirror.NewWatcher(local.Path(), debounce, s.Push, lggr).Run(ctx)
	})
	if cfg.Mirror.Interval > 0 {
		g.Go(func() error {
			ticker := time.NewTicker(cfg.Mirror.Interval)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return nil
				case <-ticker.C:
					if err := s.Tick(ctx); err != nil {
						lggr.Warnw("periodic sync failed", "err", err)
					}
				}
			}
		})
	}
	return g.Wait()
}
