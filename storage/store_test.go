package storage

import (
	"context"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aether-insight/aether-go/analysis/dataset"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "aether.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func mixedDataset(t *testing.T) *dataset.Dataset {
	t.Helper()
	ds, err := dataset.New(
		dataset.NewNumeric("amount", []float64{1.5, math.NaN(), 3.0}),
		dataset.NewText("city", []string{"oslo", "", "bergen"}),
		dataset.NewBool("active", []bool{true, false, true}),
		dataset.NewTemporal("joined", []time.Time{
			time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
			{},
			time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC),
		}),
	)
	require.NoError(t, err)
	return ds
}

func TestSaveAndGetDataset(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	ds := mixedDataset(t)

	meta, err := store.SaveDataset(ctx, "orders", ds)
	require.NoError(t, err)
	assert.NotEmpty(t, meta.ID)
	assert.Equal(t, 3, meta.Rows)
	assert.Equal(t, 4, meta.Columns)

	gotMeta, got, err := store.GetDataset(ctx, meta.ID)
	require.NoError(t, err)
	assert.Equal(t, "orders", gotMeta.Name)
	require.Equal(t, ds.ColumnNames(), got.ColumnNames())

	amount := got.Column("amount")
	assert.Equal(t, dataset.KindNumeric, amount.Kind)
	assert.True(t, amount.Missing[1])
	assert.Equal(t, 1.5, amount.Floats[0])

	city := got.Column("city")
	assert.Equal(t, dataset.KindText, city.Kind)
	assert.True(t, city.Missing[1])

	joined := got.Column("joined")
	assert.Equal(t, dataset.KindTemporal, joined.Kind)
	assert.True(t, joined.Missing[1])
	assert.Equal(t, 2024, joined.Times[0].Year())

	active := got.Column("active")
	assert.Equal(t, dataset.KindBool, active.Kind)
	assert.False(t, active.Bools[1])
	assert.False(t, active.Missing[1])
}

func TestGetDatasetNotFound(t *testing.T) {
	store := openTestStore(t)

	_, _, err := store.GetDataset(context.Background(), "missing-id")
	require.Error(t, err)

	var notFound *ErrNotFound
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "dataset", notFound.Kind)
}

func TestReplaceDataset(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	meta, err := store.SaveDataset(ctx, "orders", mixedDataset(t))
	require.NoError(t, err)

	smaller, err := dataset.New(dataset.NewNumeric("amount", []float64{1.5, 3.0}))
	require.NoError(t, err)
	require.NoError(t, store.ReplaceDataset(ctx, meta.ID, smaller))

	gotMeta, got, err := store.GetDataset(ctx, meta.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, gotMeta.Rows)
	assert.Equal(t, 1, gotMeta.Columns)
	assert.Equal(t, []string{"amount"}, got.ColumnNames())

	err = store.ReplaceDataset(ctx, "missing-id", smaller)
	var notFound *ErrNotFound
	require.ErrorAs(t, err, &notFound)
}

func TestListAndDeleteDatasets(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	first, err := store.SaveDataset(ctx, "first", mixedDataset(t))
	require.NoError(t, err)
	_, err = store.SaveDataset(ctx, "second", mixedDataset(t))
	require.NoError(t, err)

	metas, err := store.ListDatasets(ctx)
	require.NoError(t, err)
	assert.Len(t, metas, 2)

	require.NoError(t, store.DeleteDataset(ctx, first.ID))
	metas, err = store.ListDatasets(ctx)
	require.NoError(t, err)
	require.Len(t, metas, 1)
	assert.Equal(t, "second", metas[0].Name)

	var notFound *ErrNotFound
	require.ErrorAs(t, store.DeleteDataset(ctx, first.ID), &notFound)
}

func TestSaveAndListRuns(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	meta, err := store.SaveDataset(ctx, "orders", mixedDataset(t))
	require.NoError(t, err)

	quality := map[string]float64{"quality_score": 90.0}
	record, err := store.SaveRun(ctx, meta.ID, RunQuality, quality)
	require.NoError(t, err)
	assert.NotEmpty(t, record.ID)
	assert.JSONEq(t, `{"quality_score": 90}`, string(record.Result))

	_, err = store.SaveRun(ctx, meta.ID, RunProfile, map[string]int{"columns": 4})
	require.NoError(t, err)

	got, err := store.GetRun(ctx, record.ID)
	require.NoError(t, err)
	assert.Equal(t, RunQuality, got.Kind)
	assert.Equal(t, meta.ID, got.DatasetID)

	all, err := store.ListRuns(ctx, meta.ID, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	onlyQuality, err := store.ListRuns(ctx, meta.ID, RunQuality)
	require.NoError(t, err)
	require.Len(t, onlyQuality, 1)
	assert.Equal(t, record.ID, onlyQuality[0].ID)

	// Deleting the dataset sweeps its runs.
	require.NoError(t, store.DeleteDataset(ctx, meta.ID))
	all, err = store.ListRuns(ctx, meta.ID, "")
	require.NoError(t, err)
	assert.Empty(t, all)

	var notFound *ErrNotFound
	_, err = store.GetRun(ctx, record.ID)
	require.ErrorAs(t, err, &notFound)
}
