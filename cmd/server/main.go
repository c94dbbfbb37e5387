// Package main is the entry point for the qfactor server: an HTTP API
// around a simulated Shor's-algorithm factoring pipeline, with a
// persistent run history and scheduled database maintenance.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aristath/qfactor/internal/config"
	"github.com/aristath/qfactor/internal/database"
	"github.com/aristath/qfactor/internal/events"
	"github.com/aristath/qfactor/internal/history"
	"github.com/aristath/qfactor/internal/reliability"
	"github.com/aristath/qfactor/internal/scheduler"
	"github.com/aristath/qfactor/internal/server"
	"github.com/aristath/qfactor/internal/shor"
	"github.com/aristath/qfactor/internal/simulator"
	"github.com/aristath/qfactor/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fallbackLog := logger.New(logger.Config{Level: "info", Pretty: true})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})

	log.Info().Msg("Starting qfactor")

	db, err := database.New(database.Config{
		Path:    cfg.DatabasePath(),
		Profile: database.ProfileStandard,
		Name:    "runs",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open runs database")
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("Failed to migrate runs database")
	}

	repo := history.NewRepository(db, log)
	bus := events.NewBus(log)

	// One backend shared across runs; the qubit and memory guards live
	// here.
	backendOpts := []simulator.Option{simulator.WithMaxQubits(cfg.MaxQubits)}
	if cfg.Seed != 0 {
		backendOpts = append(backendOpts, simulator.WithSeed(cfg.Seed))
	}
	backend := simulator.NewStatevector(log, backendOpts...)

	newDriver := func(seed uint64) server.Factorer {
		opts := []shor.DriverOption{
			shor.WithBus(bus),
			shor.WithMaxAttempts(cfg.MaxAttempts),
			shor.WithDriverOrderRetries(cfg.OrderRetries),
		}
		if seed != 0 {
			opts = append(opts, shor.WithSeed(seed))
		}
		return shor.NewDriver(backend, log, opts...)
	}

	// Background maintenance: retention pruning and WAL hygiene, plus
	// off-site backups when a bucket is configured.
	sched := scheduler.New(bus, log)
	if err := sched.AddJob("0 3 * * *", scheduler.NewPruneRunsJob(repo, cfg.RetentionDays, log)); err != nil {
		log.Fatal().Err(err).Msg("Failed to schedule retention pruning")
	}
	if err := sched.AddJob("@hourly", scheduler.NewCheckpointJob(db, log)); err != nil {
		log.Fatal().Err(err).Msg("Failed to schedule WAL checkpoint")
	}

	if cfg.Backup != nil && cfg.Backup.Enabled {
		store, err := reliability.NewS3Client(context.Background(), reliability.S3Config{
			Bucket:    cfg.Backup.Bucket,
			Endpoint:  cfg.Backup.Endpoint,
			Region:    cfg.Backup.Region,
			AccessKey: cfg.Backup.AccessKey,
			SecretKey: cfg.Backup.SecretKey,
		}, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create backup store client")
		}
		backupSvc := reliability.NewBackupService(store, db, cfg.DataDir, cfg.Backup.Retention, log)
		if err := sched.AddJob("0 4 * * *", scheduler.NewBackupJob(backupSvc, log)); err != nil {
			log.Fatal().Err(err).Msg("Failed to schedule backups")
		}
		log.Info().Str("bucket", cfg.Backup.Bucket).Msg("Backups enabled")
	}

	sched.Start()
	defer sched.Stop()

	srv := server.New(server.Config{
		Log:       log,
		Port:      cfg.Port,
		DevMode:   cfg.DevMode,
		DB:        db,
		Repo:      repo,
		Bus:       bus,
		NewDriver: newDriver,
	})

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	log.Info().Int("port", cfg.Port).Msg("Server started successfully")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}
