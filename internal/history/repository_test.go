package history_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/qfactor/internal/history"
	"github.com/aristath/qfactor/internal/shor"
	qtesting "github.com/aristath/qfactor/internal/testing"
)

func newRepo(t *testing.T) *history.Repository {
	t.Helper()
	db, cleanup := qtesting.NewTestDB(t, "runs")
	t.Cleanup(cleanup)
	return history.NewRepository(db, zerolog.Nop())
}

func TestSaveAndGet(t *testing.T) {
	repo := newRepo(t)

	run := &history.Run{
		ID:          uuid.New().String(),
		N:           15,
		FactorP:     3,
		FactorQ:     5,
		Method:      "quantum",
		Base:        7,
		Order:       4,
		Attempts:    1,
		QuantumRuns: 2,
		Sample:      192,
		DurationMS:  44,
		Histogram:   []float64{0.25, 0, 0.25, 0},
	}
	require.NoError(t, repo.Save(run))

	got, err := repo.Get(run.ID)
	require.NoError(t, err)
	assert.Equal(t, run.N, got.N)
	assert.Equal(t, run.FactorP, got.FactorP)
	assert.Equal(t, run.FactorQ, got.FactorQ)
	assert.Equal(t, run.Method, got.Method)
	assert.Equal(t, run.Base, got.Base)
	assert.Equal(t, run.Order, got.Order)
	assert.Equal(t, run.Sample, got.Sample)
	assert.Equal(t, run.Histogram, got.Histogram)
	assert.False(t, got.CreatedAt.IsZero())
}

func TestGetMissingRun(t *testing.T) {
	repo := newRepo(t)

	_, err := repo.Get(uuid.New().String())
	assert.ErrorIs(t, err, history.ErrNotFound)
}

func TestSaveWithoutHistogram(t *testing.T) {
	repo := newRepo(t)

	run := &history.Run{
		ID: uuid.New().String(), N: 4, FactorP: 2, FactorQ: 2, Method: "even",
	}
	require.NoError(t, repo.Save(run))

	got, err := repo.Get(run.ID)
	require.NoError(t, err)
	assert.Nil(t, got.Histogram)
}

func TestSaveHonoursExplicitCreatedAt(t *testing.T) {
	repo := newRepo(t)

	run := qtesting.NewQuantumRunFixture(40 * 24 * time.Hour)
	require.NoError(t, repo.Save(run))

	got, err := repo.Get(run.ID)
	require.NoError(t, err)
	assert.WithinDuration(t, run.CreatedAt.UTC(), got.CreatedAt, 2*time.Second)
}

func TestListReturnsNewestFirstWithoutHistograms(t *testing.T) {
	repo := newRepo(t)

	for _, run := range qtesting.NewRunFixtures() {
		require.NoError(t, repo.Save(run))
	}

	runs, err := repo.List(10)
	require.NoError(t, err)
	require.Len(t, runs, 4)
	for _, run := range runs {
		assert.Nil(t, run.Histogram)
	}

	count, err := repo.Count()
	require.NoError(t, err)
	assert.Equal(t, 4, count)
}

func TestListHonoursLimit(t *testing.T) {
	repo := newRepo(t)

	for _, run := range qtesting.NewRunFixtures() {
		require.NoError(t, repo.Save(run))
	}

	runs, err := repo.List(2)
	require.NoError(t, err)
	assert.Len(t, runs, 2)
}

func TestNewRunFromResult(t *testing.T) {
	result := &shor.Result{
		RunID:        uuid.New().String(),
		N:            21,
		P:            3,
		Q:            7,
		Method:       shor.MethodQuantum,
		Base:         2,
		Order:        6,
		Attempts:     2,
		QuantumRuns:  3,
		Sample:       171,
		Distribution: []float64{0.5, 0.5},
		Elapsed:      1500 * time.Millisecond,
	}

	run := history.NewRun(result)
	assert.Equal(t, result.RunID, run.ID)
	assert.Equal(t, uint64(3), run.FactorP)
	assert.Equal(t, uint64(7), run.FactorQ)
	assert.Equal(t, int64(1500), run.DurationMS)
	assert.Equal(t, result.Distribution, run.Histogram)
}

func TestPruneOlderThan(t *testing.T) {
	repo := newRepo(t)

	run := &history.Run{
		ID: uuid.New().String(), N: 15, FactorP: 3, FactorQ: 5, Method: "quantum",
	}
	require.NoError(t, repo.Save(run))

	// Nothing is older than a cutoff in the past.
	pruned, err := repo.PruneOlderThan(time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.Zero(t, pruned)

	// A future cutoff sweeps the run away.
	pruned, err = repo.PruneOlderThan(time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.EqualValues(t, 1, pruned)

	count, err := repo.Count()
	require.NoError(t, err)
	assert.Zero(t, count)
}
