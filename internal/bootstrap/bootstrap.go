// Package bootstrap builds the booking service from configuration for the
// commands that share it.
package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"operation-list/internal/booking"
	"operation-list/internal/config"
	"operation-list/internal/logger"
	"operation-list/internal/mirror"
	"operation-list/internal/models"
	"operation-list/internal/store"
)

type Runtime struct {
	Service *booking.Service
	Store   store.Archive
	Remote  *mirror.Archive // nil when the mirror is disabled
	lggr    logger.Logger
}

func Open(ctx context.Context, cfg *config.Config, lggr logger.Logger, opts ...booking.Option) (*Runtime, error) {
	ref, err := models.NewReferenceData(cfg.Catalog.Rooms, cfg.Catalog.SurgeryTypes)
	if err != nil {
		return nil, fmt.Errorf("catalog: %w", err)
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	archive, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return nil, err
	}

	rt := &Runtime{Store: archive, lggr: lggr}
	svcOpts := []booking.Option{booking.WithLocation(loc)}
	if cfg.Mirror.Enabled {
		rt.Remote = mirror.NewArchive(mirror.NewClient(cfg.Mirror, lggr), cfg.MirrorPath())
		svcOpts = append(svcOpts, booking.WithMirror(rt.Remote))
	}
	rt.Service = booking.NewService(archive, ref, lggr, append(svcOpts, opts...)...)
	return rt, nil
}

// Pull replaces the local archive with the remote copy. A missing remote
// file is not an error: the next push creates it.
func (r *Runtime) Pull(ctx context.Context) (int, error) {
	if r.Remote == nil {
		return 0, errors.New("mirror is not enabled")
	}
	rows, err := r.Remote.Fetch(ctx)
	if errors.Is(err, mirror.ErrRemoteMissing) {
		r.lggr.Infow("remote archive missing, keeping local copy", "path", r.Remote.Path())
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	if err := r.Service.Restore(ctx, rows); err != nil {
		return 0, err
	}
	return len(rows), nil
}

// Push uploads the whole local archive.
func (r *Runtime) Push(ctx context.Context, message string) error {
	if r.Remote == nil {
		return errors.New("mirror is not enabled")
	}
	rows, err := r.Service.All(ctx)
	if err != nil {
		return err
	}
	return r.Remote.Push(ctx, rows, message)
}

func (r *Runtime) Close() error { return r.Store.Close() }
