package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/qfactor/internal/database"
	"github.com/aristath/qfactor/internal/history"
)

// PruneRunsJob deletes runs older than the configured retention.
type PruneRunsJob struct {
	repo          *history.Repository
	retentionDays int
	log           zerolog.Logger
}

// NewPruneRunsJob creates the retention pruning job.
func NewPruneRunsJob(repo *history.Repository, retentionDays int, log zerolog.Logger) *PruneRunsJob {
	return &PruneRunsJob{
		repo:          repo,
		retentionDays: retentionDays,
		log:           log.With().Str("job", "prune_runs").Logger(),
	}
}

// Name returns the job name for scheduler
func (j *PruneRunsJob) Name() string { return "prune_runs" }

// Run executes the pruning job
func (j *PruneRunsJob) Run() error {
	cutoff := time.Now().AddDate(0, 0, -j.retentionDays)
	pruned, err := j.repo.PruneOlderThan(cutoff)
	if err != nil {
		return fmt.Errorf("prune runs: %w", err)
	}
	j.log.Info().
		Int64("pruned", pruned).
		Int("retention_days", j.retentionDays).
		Msg("retention pruning completed")
	return nil
}

// CheckpointJob truncates the WAL file and verifies database health.
type CheckpointJob struct {
	db  *database.DB
	log zerolog.Logger
}

// NewCheckpointJob creates the WAL checkpoint job.
func NewCheckpointJob(db *database.DB, log zerolog.Logger) *CheckpointJob {
	return &CheckpointJob{
		db:  db,
		log: log.With().Str("job", "wal_checkpoint").Logger(),
	}
}

// Name returns the job name for scheduler
func (j *CheckpointJob) Name() string { return "wal_checkpoint" }

// Run executes the checkpoint job
func (j *CheckpointJob) Run() error {
	if err := j.db.WALCheckpoint("TRUNCATE"); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := j.db.QuickCheck(ctx); err != nil {
		return fmt.Errorf("post-checkpoint health check: %w", err)
	}

	if stats, err := j.db.GetStats(); err == nil {
		j.log.Debug().
			Int64("db_bytes", stats.SizeBytes).
			Int64("wal_bytes", stats.WALSizeBytes).
			Msg("checkpoint completed")
	}
	return nil
}

// BackupJob uploads a database backup through a backup service.
type BackupJob struct {
	service BackupService
	log     zerolog.Logger
}

// BackupService is the part of the reliability backup service the job
// needs.
type BackupService interface {
	CreateAndUploadBackup(ctx context.Context) error
	RotateOldBackups(ctx context.Context) error
}

// NewBackupJob creates the backup job.
func NewBackupJob(service BackupService, log zerolog.Logger) *BackupJob {
	return &BackupJob{
		service: service,
		log:     log.With().Str("job", "backup").Logger(),
	}
}

// Name returns the job name for scheduler
func (j *BackupJob) Name() string { return "backup" }

// Run executes the backup job
func (j *BackupJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	if err := j.service.CreateAndUploadBackup(ctx); err != nil {
		return fmt.Errorf("backup: %w", err)
	}
	if err := j.service.RotateOldBackups(ctx); err != nil {
		// Rotation failure leaves extra backups around, not data loss
		j.log.Warn().Err(err).Msg("backup rotation failed")
	}
	return nil
}
