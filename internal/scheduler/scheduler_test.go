package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/qfactor/internal/events"
	"github.com/aristath/qfactor/internal/history"
	qtesting "github.com/aristath/qfactor/internal/testing"
)

type stubJob struct {
	name string
	runs int
	err  error
}

func (j *stubJob) Name() string { return j.name }
func (j *stubJob) Run() error {
	j.runs++
	return j.err
}

func TestRunNow(t *testing.T) {
	s := New(nil, zerolog.Nop())
	job := &stubJob{name: "stub"}

	require.NoError(t, s.RunNow(job))
	assert.Equal(t, 1, job.runs)
}

func TestAddJobRejectsBadSchedule(t *testing.T) {
	s := New(nil, zerolog.Nop())
	assert.Error(t, s.AddJob("not a schedule", &stubJob{name: "stub"}))
	assert.NoError(t, s.AddJob("@hourly", &stubJob{name: "stub"}))
}

func TestJobCompletionPublishesEvent(t *testing.T) {
	bus := events.NewBus(zerolog.Nop())
	var got []*events.Event
	bus.Subscribe(events.JobCompleted, func(e *events.Event) {
		got = append(got, e)
	})

	s := New(bus, zerolog.Nop())
	s.run(&stubJob{name: "ok"})
	s.run(&stubJob{name: "broken", err: errors.New("boom")})

	require.Len(t, got, 2)
	okData := got[0].Data.(*events.JobCompletedData)
	assert.Equal(t, "ok", okData.Job)
	assert.Empty(t, okData.Error)

	brokenData := got[1].Data.(*events.JobCompletedData)
	assert.Equal(t, "broken", brokenData.Job)
	assert.Equal(t, "boom", brokenData.Error)
}

func TestPruneRunsJob(t *testing.T) {
	db, cleanup := qtesting.NewTestDB(t, "runs")
	t.Cleanup(cleanup)
	repo := history.NewRepository(db, zerolog.Nop())

	// Aged past the retention window.
	old := qtesting.NewQuantumRunFixture(40 * 24 * time.Hour)
	require.NoError(t, repo.Save(old))

	recent := &history.Run{ID: uuid.New().String(), N: 21, FactorP: 3, FactorQ: 7, Method: "gcd"}
	require.NoError(t, repo.Save(recent))

	job := NewPruneRunsJob(repo, 30, zerolog.Nop())
	assert.Equal(t, "prune_runs", job.Name())
	require.NoError(t, job.Run())

	count, err := repo.Count()
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	_, err = repo.Get(old.ID)
	assert.ErrorIs(t, err, history.ErrNotFound)
}

func TestCheckpointJob(t *testing.T) {
	db, cleanup := qtesting.NewTestDB(t, "runs")
	t.Cleanup(cleanup)

	job := NewCheckpointJob(db, zerolog.Nop())
	assert.Equal(t, "wal_checkpoint", job.Name())
	assert.NoError(t, job.Run())
}

type stubBackupService struct {
	backups  int
	rotates  int
	fail     bool
	rotFails bool
}

func (s *stubBackupService) CreateAndUploadBackup(context.Context) error {
	s.backups++
	if s.fail {
		return errors.New("upload failed")
	}
	return nil
}

func (s *stubBackupService) RotateOldBackups(context.Context) error {
	s.rotates++
	if s.rotFails {
		return errors.New("rotation failed")
	}
	return nil
}

func TestBackupJob(t *testing.T) {
	svc := &stubBackupService{}
	job := NewBackupJob(svc, zerolog.Nop())
	assert.Equal(t, "backup", job.Name())

	require.NoError(t, job.Run())
	assert.Equal(t, 1, svc.backups)
	assert.Equal(t, 1, svc.rotates)
}

func TestBackupJobSurfacesUploadFailure(t *testing.T) {
	svc := &stubBackupService{fail: true}
	job := NewBackupJob(svc, zerolog.Nop())

	assert.Error(t, job.Run())
	assert.Zero(t, svc.rotates)
}

func TestBackupJobToleratesRotationFailure(t *testing.T) {
	svc := &stubBackupService{rotFails: true}
	job := NewBackupJob(svc, zerolog.Nop())

	assert.NoError(t, job.Run())
}
