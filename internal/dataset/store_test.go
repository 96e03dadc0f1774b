package dataset

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domerrors "github.com/rmadesk/rma-qa/internal/errors"
	"github.com/rmadesk/rma-qa/internal/metrics"
	"github.com/rmadesk/rma-qa/internal/table"
)

func oneRowTable(t *testing.T, value string) *table.Table {
	t.Helper()
	tbl, err := table.New([]string{"Sản phẩm"}, []table.Row{{value}})
	require.NoError(t, err)
	return tbl
}

func TestStore_NotLoaded(t *testing.T) {
	t.Parallel()
	s := NewStore("", nil)

	_, err := s.Table()
	assert.True(t, errors.Is(err, domerrors.ErrDatasetNotLoaded))
	assert.False(t, s.Ready())
	assert.Equal(t, 0, s.Info().Rows)

	_, err = s.Reload(context.Background())
	assert.True(t, domerrors.IsInvalidInput(err), "reload without a path is a validation error")
}

func TestStore_ReloadSwaps(t *testing.T) {
	t.Parallel()
	m := metrics.New(prometheus.NewRegistry())
	values := []string{"first", "second"}
	var calls atomic.Int32
	s := NewStore("rma.csv", m).WithLoader(func(_ context.Context, _ string) (*table.Table, error) {
		n := calls.Add(1) - 1
		return oneRowTable(t, values[n]), nil
	})

	info, err := s.Reload(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, info.Rows)
	assert.Equal(t, "rma.csv", info.Path)

	before, err := s.Table()
	require.NoError(t, err)

	_, err = s.Reload(context.Background())
	require.NoError(t, err)
	after, err := s.Table()
	require.NoError(t, err)

	assert.Equal(t, "first", before.String(0, "Sản phẩm"), "earlier readers keep their table")
	assert.Equal(t, "second", after.String(0, "Sản phẩm"))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.DatasetReloadsTotal.WithLabelValues("success")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.DatasetRows))
}

func TestStore_ReloadFailureKeepsTable(t *testing.T) {
	t.Parallel()
	fail := false
	s := NewStore("rma.csv", nil).WithLoader(func(_ context.Context, _ string) (*table.Table, error) {
		if fail {
			return nil, errors.New("disk gone")
		}
		return oneRowTable(t, "kept"), nil
	})

	_, err := s.Reload(context.Background())
	require.NoError(t, err)

	fail = true
	_, err = s.Reload(context.Background())
	require.Error(t, err)

	tbl, err := s.Table()
	require.NoError(t, err)
	assert.Equal(t, "kept", tbl.String(0, "Sản phẩm"))
}

func TestStore_ConcurrentReloadsShareOneLoad(t *testing.T) {
	t.Parallel()
	m := metrics.New(prometheus.NewRegistry())
	release := make(chan struct{})
	var calls atomic.Int32
	s := NewStore("rma.csv", m).WithLoader(func(_ context.Context, _ string) (*table.Table, error) {
		calls.Add(1)
		<-release
		return oneRowTable(t, "x"), nil
	})

	const callers = 8
	var started, done sync.WaitGroup
	started.Add(callers)
	done.Add(callers)
	for range callers {
		go func() {
			defer done.Done()
			started.Done()
			_, err := s.Reload(context.Background())
			assert.NoError(t, err)
		}()
	}
	started.Wait()
	// Give every goroutine time to join the in-flight load.
	time.Sleep(50 * time.Millisecond)
	close(release)
	done.Wait()

	assert.Equal(t, int32(1), calls.Load())
	assert.True(t, s.Ready())
}

func TestStore_ReloadCanceled(t *testing.T) {
	t.Parallel()
	s := NewStore("rma.csv", nil).WithLoader(func(_ context.Context, _ string) (*table.Table, error) {
		return oneRowTable(t, "x"), nil
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Reload(ctx)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.False(t, s.Ready())
}
