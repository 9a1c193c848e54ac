package store

import (
	"bufio"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"operation-list/internal/models"
)

// CSVStore keeps the archive in a single CSV file.
type CSVStore struct {
	mu   sync.Mutex
	path string
}

// NewCSVStore opens the archive at path, creating it with the current header if
// it does not exist.
func NewCSVStore(path string) (*CSVStore, error) {
	s := &CSVStore{path: path}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create archive dir: %w", err)
		}
	}
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		if err := s.writeFile(nil); err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, err
	}
	return s, nil
}

func (s *CSVStore) Path() string { return s.path }

func (s *CSVStore) List(ctx context.Context) ([]*models.Booking, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

func (s *CSVStore) load() ([]*models.Booking, error) {
	f, err := os.Open(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()
	rows, err := DecodeCSV(bufio.NewReader(f))
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", s.path, err)
	}
	return rows, nil
}

// Append adds b to the end of the file. A header is written only when the file
// is missing or empty; an archive with an older header is rewritten under the
// current one first.
func (s *CSVStore) Append(ctx context.Context, b *models.Booking) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	header, err := s.readHeader()
	if err != nil {
		return err
	}
	if header == nil {
		return s.writeFile([]*models.Booking{b})
	}
	if !isCurrentHeader(header) {
		rows, err := s.load()
		if err != nil {
			return err
		}
		return s.writeFile(append(rows, b))
	}

	f, err := os.OpenFile(s.path, os.O_RDWR|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	if err := ensureTrailingNewline(f); err != nil {
		f.Close()
		return err
	}
	cw := csv.NewWriter(f)
	if err := cw.Write(newColumnWriter(header).record(b)); err != nil {
		f.Close()
		return err
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func (s *CSVStore) Replace(ctx context.Context, rows []*models.Booking) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeFile(rows)
}

func (s *CSVStore) Close() error { return nil }

// readHeader returns nil when the file is missing or has no header line.
func (s *CSVStore) readHeader() ([]string, error) {
	f, err := os.Open(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()
	cr := csv.NewReader(bufio.NewReader(f))
	cr.FieldsPerRecord = -1
	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	return header, err
}

// writeFile replaces the archive atomically through a temp file in the same directory.
func (s *CSVStore) writeFile(rows []*models.Booking) error {
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".archive-*.csv")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	w := bufio.NewWriter(tmp)
	if err := EncodeCSV(w, rows); err != nil {
		tmp.Close()
		return err
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), s.path)
}

func ensureTrailingNewline(f *os.File) error {
	info, err := f.Stat()
	if err != nil {
		return err
	}
	if info.Size() == 0 {
		return nil
	}
	last := make([]byte, 1)
	if _, err := f.ReadAt(last, info.Size()-1); err != nil {
		return err
	}
	if last[0] == '\n' {
		return nil
	}
	_, err = f.Write([]byte("\n"))
	return err
}
