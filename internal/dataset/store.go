package dataset

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	domerrors "github.com/rmadesk/rma-qa/internal/errors"
	"github.com/rmadesk/rma-qa/internal/metrics"
	"github.com/rmadesk/rma-qa/internal/table"
)

const reloadKey = "reload"

// LoaderFunc reads a dataset from a path.
type LoaderFunc func(ctx context.Context, path string) (*table.Table, error)

// Info describes the table currently served.
type Info struct {
	Path     string    `json:"path"`
	Rows     int       `json:"rows"`
	Columns  []string  `json:"columns"`
	LoadedAt time.Time `json:"loaded_at"`
}

// Store holds the current table and swaps it atomically on reload.
// Readers get an immutable *table.Table, so a swap never affects a question
// that is already being answered.
type Store struct {
	mu       sync.RWMutex
	current  *table.Table
	loadedAt time.Time

	path    string
	loader  LoaderFunc
	group   singleflight.Group
	metrics *metrics.Metrics
}

// NewStore creates an empty store reading from path. Call Reload to load it.
func NewStore(path string, m *metrics.Metrics) *Store {
	return &Store{
		path:    path,
		loader:  defaultLoader,
		metrics: m,
	}
}

// WithLoader replaces the loader, mainly for tests.
func (s *Store) WithLoader(loader LoaderFunc) *Store {
	s.loader = loader
	return s
}

func defaultLoader(_ context.Context, path string) (*table.Table, error) {
	return Load(path)
}

// Table returns the current table or ErrDatasetNotLoaded.
func (s *Store) Table() (*table.Table, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return nil, domerrors.ErrDatasetNotLoaded
	}
	return s.current, nil
}

// Ready reports whether a table has been loaded.
func (s *Store) Ready() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current != nil
}

// Info describes the current table. Rows is 0 before the first load.
func (s *Store) Info() Info {
	s.mu.RLock()
	defer s.mu.RUnlock()
	info := Info{Path: s.path, LoadedAt: s.loadedAt}
	if s.current != nil {
		info.Rows = s.current.Len()
		info.Columns = s.current.Columns()
	}
	return info
}

// Swap replaces the current table.
func (s *Store) Swap(t *table.Table) {
	s.mu.Lock()
	s.current = t
	s.loadedAt = time.Now()
	s.mu.Unlock()
	s.metrics.RecordDatasetLoad("success", t.Len())
}

// Reload re-reads the dataset path and swaps it in. Concurrent calls share
// one load. On failure the previous table stays in place.
func (s *Store) Reload(ctx context.Context) (Info, error) {
	if s.path == "" {
		return Info{}, domerrors.NewValidationError("dataset_path", "not configured")
	}

	_, err, shared := s.group.Do(reloadKey, func() (any, error) {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		start := time.Now()
		t, err := s.loader(ctx, s.path)
		if err != nil {
			s.metrics.RecordDatasetLoad("error", 0)
			return nil, fmt.Errorf("reload %s: %w", s.path, err)
		}
		s.Swap(t)

		slog.InfoContext(ctx, "dataset loaded",
			"path", s.path,
			"rows", t.Len(),
			"columns", len(t.Columns()),
			"duration", time.Since(start))
		return nil, nil
	})
	if shared {
		s.metrics.RecordSingleflightDedup("dataset")
	}
	if err != nil {
		return s.Info(), err
	}
	return s.Info(), nil
}
