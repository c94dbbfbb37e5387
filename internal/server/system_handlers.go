package server

import (
	"net/http"
	"runtime"
	"time"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/aristath/qfactor/internal/database"
	"github.com/aristath/qfactor/internal/history"
)

// SystemHandlers serves process and database health information.
type SystemHandlers struct {
	log         zerolog.Logger
	db          *database.DB
	repo        *history.Repository
	startupTime time.Time
}

// SystemStatus is the response of GET /api/system/status.
type SystemStatus struct {
	Status        string  `json:"status"`
	UptimeSeconds int64   `json:"uptime_seconds"`
	Goroutines    int     `json:"goroutines"`
	MemoryUsedPct float64 `json:"memory_used_pct"`
	MemoryFreeMB  uint64  `json:"memory_free_mb"`
	CPUPct        float64 `json:"cpu_pct"`
	RunCount      int     `json:"run_count"`
	DBSizeBytes   int64   `json:"db_size_bytes"`
	WALSizeBytes  int64   `json:"wal_size_bytes"`
}

// NewSystemHandlers creates a new system handlers instance
func NewSystemHandlers(log zerolog.Logger, db *database.DB, repo *history.Repository) *SystemHandlers {
	return &SystemHandlers{
		log:         log.With().Str("component", "system_handlers").Logger(),
		db:          db,
		repo:        repo,
		startupTime: time.Now(),
	}
}

// HandleSystemStatus returns process, memory, CPU, and database status.
// Collection failures degrade individual fields instead of failing the
// request.
func (h *SystemHandlers) HandleSystemStatus(w http.ResponseWriter, r *http.Request) {
	status := SystemStatus{
		Status:        "ok",
		UptimeSeconds: int64(time.Since(h.startupTime).Seconds()),
		Goroutines:    runtime.NumGoroutine(),
	}

	if vm, err := mem.VirtualMemory(); err == nil {
		status.MemoryUsedPct = vm.UsedPercent
		status.MemoryFreeMB = vm.Available / (1024 * 1024)
	} else {
		h.log.Warn().Err(err).Msg("failed to read memory stats")
	}

	// Instantaneous reading; a sampling interval would block the request.
	if percents, err := cpu.Percent(0, false); err == nil && len(percents) > 0 {
		status.CPUPct = percents[0]
	} else if err != nil {
		h.log.Warn().Err(err).Msg("failed to read cpu stats")
	}

	if count, err := h.repo.Count(); err == nil {
		status.RunCount = count
	} else {
		status.Status = "degraded"
		h.log.Warn().Err(err).Msg("failed to count runs")
	}

	if stats, err := h.db.GetStats(); err == nil {
		status.DBSizeBytes = stats.SizeBytes
		status.WALSizeBytes = stats.WALSizeBytes
	} else {
		status.Status = "degraded"
		h.log.Warn().Err(err).Msg("failed to read database stats")
	}

	writeJSON(w, http.StatusOK, status)
}
