package storage

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prompt-forge/server/internal/config"
	"prompt-forge/server/internal/interfaces"
)

func newTestHistory(t *testing.T) *HistoryStore {
	t.Helper()
	store, err := NewHistoryStore(config.HistoryConfig{
		Enabled: true,
		Driver:  "sqlite",
		DSN:     filepath.Join(t.TempDir(), "nested", "history.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestHistoryRecordAndRecent(t *testing.T) {
	store := newTestHistory(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		err := store.Record(ctx, &interfaces.GenerationRecord{
			Keywords:       fmt.Sprintf("kw-%d", i),
			PositivePrompt: fmt.Sprintf("positive-%d", i),
			SamplingMethod: "Euler a",
			Scheduler:      "Karras",
		})
		require.NoError(t, err)
	}

	rows, err := store.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "kw-2", rows[0].Keywords)
	assert.Equal(t, "kw-1", rows[1].Keywords)
	assert.Equal(t, "Euler a", rows[0].SamplingMethod)
}

func TestHistoryRecentDefaultsLimit(t *testing.T) {
	store := newTestHistory(t)

	rows, err := store.Recent(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestHistoryUnsupportedDriver(t *testing.T) {
	_, err := NewHistoryStore(config.HistoryConfig{Driver: "oracle"})
	assert.ErrorContains(t, err, "unsupported history driver")
}
