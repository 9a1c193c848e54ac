package main

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"os"
	"sync"

	"operation-list/internal/logger"
	"operation-list/internal/mirror"
	"operation-list/internal/models"
	"operation-list/internal/store"
)

const pushMessage = "Update Operation Archive via mirror"

type remoteArchive interface {
	Fetch(ctx context.Context) ([]*models.Booking, error)
	PushFile(ctx context.Context, data []byte, message string) error
}

// syncer keeps one local CSV archive and its remote copy equal. synced is the
// hash of the local file as of the last successful pull or push, so a pull's
// own write is not pushed back.
type syncer struct {
	local  *store.CSVStore
	remote remoteArchive
	lggr   logger.Logger

	mu     sync.Mutex
	synced [sha256.Size]byte
}

func newSyncer(local *store.CSVStore, remote remoteArchive, lggr logger.Logger) *syncer {
	return &syncer{local: local, remote: remote, lggr: lggr.Named("sync")}
}

func (s *syncer) read() ([]byte, [sha256.Size]byte, error) {
	data, err := os.ReadFile(s.local.Path())
	if err != nil {
		return nil, [sha256.Size]byte{}, err
	}
	return data, sha256.Sum256(data), nil
}

// Push uploads the local file if it changed since the last sync.
func (s *syncer) Push(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.push(ctx)
}

func (s *syncer) push(ctx context.Context) error {
	data, sum, err := s.read()
	if err != nil {
		return fmt.Errorf("read local archive: %w", err)
	}
	if sum == s.synced {
		s.lggr.Debugw("local archive unchanged, skipping push")
		return nil
	}
	if err := s.remote.PushFile(ctx, data, pushMessage); err != nil {
		return err
	}
	s.synced = sum
	return nil
}

// Pull overwrites the local archive with the remote one. A missing remote
// file is seeded from the local archive instead, and a local file that changed
// while the remote was being fetched is pushed rather than overwritten.
func (s *syncer) Pull(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pull(ctx)
}

func (s *syncer) pull(ctx context.Context) error {
	_, before, err := s.read()
	if err != nil {
		return fmt.Errorf("read local archive: %w", err)
	}
	rows, err := s.remote.Fetch(ctx)
	if errors.Is(err, mirror.ErrRemoteMissing) {
		s.lggr.Infow("remote archive missing, seeding it")
		return s.push(ctx)
	}
	if err != nil {
		return err
	}
	_, during, err := s.read()
	if err != nil {
		return fmt.Errorf("read local archive: %w", err)
	}
	if during != before {
		s.lggr.Infow("local archive changed during fetch, pushing instead of refreshing")
		return s.push(ctx)
	}
	if err := s.local.Replace(ctx, rows); err != nil {
		return fmt.Errorf("write local archive: %w", err)
	}
	_, sum, err := s.read()
	if err != nil {
		return err
	}
	s.synced = sum
	s.lggr.Infow("local archive refreshed", "rows", len(rows))
	return nil
}

// Tick pushes pending local edits, otherwise refreshes from the remote.
func (s *syncer) Tick(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, sum, err := s.read()
	if err != nil {
		return err
	}
	if sum != s.synced {
		return s.push(ctx)
	}
	return s.pull(ctx)
}
