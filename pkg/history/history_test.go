package history

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(context.Background(), Path(t.TempDir()))
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}

func TestStore_AppendAndList(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	run := NewRunID()
	other := NewRunID()
	require.NoError(t, store.Append(ctx, Record{RunID: run, Step: 200, MeanReturn: 2, MeanBias: 0.1, Rates: []float64{0.5, 0.4}}))
	require.NoError(t, store.Append(ctx, Record{RunID: run, Step: 100, MeanReturn: 1, StdReturn: 0.5, MeanBias: 0.2, Rates: []float64{0.6, 0.4}}))
	require.NoError(t, store.Append(ctx, Record{RunID: other, Step: 100, MeanReturn: 9}))

	records, err := store.List(ctx, run)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, 100, records[0].Step, "records are ordered by step")
	assert.Equal(t, 0.5, records[0].StdReturn)
	assert.Equal(t, []float64{0.6, 0.4}, records[0].Rates)
	assert.False(t, records[0].CreatedAt.IsZero())

	all, err := store.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	runs, err := store.Runs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{run, other}, runs)
}

func TestStore_RejectsInvalidRunID(t *testing.T) {
	store := openTestStore(t)
	err := store.Append(context.Background(), Record{RunID: "not-a-uuid", Step: 1})
	assert.Error(t, err)
}

func TestStore_Reopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), FileName)

	store, err := Open(ctx, path)
	require.NoError(t, err)
	run := NewRunID()
	require.NoError(t, store.Append(ctx, Record{RunID: run, Step: 1, MeanReturn: 3}))
	require.NoError(t, store.Close())

	_, err = store.List(ctx, run)
	assert.Error(t, err, "closed store")

	store, err = Open(ctx, path)
	require.NoError(t, err)
	defer store.Close()
	records, err := store.List(ctx, run)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, 3.0, records[0].MeanReturn)
}

func TestOpen_EmptyPath(t *testing.T) {
	_, err := Open(context.Background(), "")
	assert.Error(t, err)
}
