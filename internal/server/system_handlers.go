package server

import (
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/wuxing-lab/tianji/internal/database"
)

// SystemHandlers serves process and host level status.
type SystemHandlers struct {
	log       zerolog.Logger
	dataDir   string
	journalDB *database.DB
	startedAt time.Time
}

// NewSystemHandlers creates system status handlers
func NewSystemHandlers(log zerolog.Logger, dataDir string, journalDB *database.DB) *SystemHandlers {
	return &SystemHandlers{
		log:       log.With().Str("handler", "system").Logger(),
		dataDir:   dataDir,
		journalDB: journalDB,
		startedAt: time.Now(),
	}
}

// SystemStatusResponse is the /api/system/status payload.
type SystemStatusResponse struct {
	Status        string  `json:"status"`
	UptimeSeconds float64 `json:"uptime_seconds"`
	CPUPercent    float64 `json:"cpu_percent"`
	RAMPercent    float64 `json:"ram_percent"`
	Goroutines    int     `json:"goroutines"`
	DataDirMB     float64 `json:"data_dir_mb"`
	JournalDB     string  `json:"journal_db"`
}

// HandleSystemStatus returns CPU/memory usage, uptime and journal health.
func (h *SystemHandlers) HandleSystemStatus(w http.ResponseWriter, r *http.Request) {
	h.log.Debug().Msg("Getting system status")

	cpuPct, ramPct := h.getSystemStats()

	response := SystemStatusResponse{
		Status:        "ok",
		UptimeSeconds: time.Since(h.startedAt).Seconds(),
		CPUPercent:    cpuPct,
		RAMPercent:    ramPct,
		Goroutines:    runtime.NumGoroutine(),
		DataDirMB:     h.getDirSize(h.dataDir),
		JournalDB:     "ok",
	}

	if h.journalDB != nil {
		if err := h.journalDB.HealthCheck(r.Context()); err != nil {
			response.Status = "degraded"
			response.JournalDB = err.Error()
		}
	} else {
		response.JournalDB = "in-memory"
	}

	h.writeJSON(w, response)
}

// DiskUsageResponse is the /api/system/disk payload.
type DiskUsageResponse struct {
	DataDirMB float64 `json:"data_dir_mb"`
}

// HandleDiskUsage returns disk usage of the data directory.
func (h *SystemHandlers) HandleDiskUsage(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, DiskUsageResponse{DataDirMB: h.getDirSize(h.dataDir)})
}

// getSystemStats calculates CPU and RAM usage percentages.
// Uses a 100ms sample so the status endpoint stays fast.
func (h *SystemHandlers) getSystemStats() (float64, float64) {
	cpuPercent, err := cpu.Percent(100*time.Millisecond, false)
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get CPU percentage")
		cpuPercent = []float64{0}
	}

	memStat, err := mem.VirtualMemory()
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get memory statistics")
		return 0, 0
	}

	cpuAvg := 0.0
	if len(cpuPercent) > 0 {
		cpuAvg = cpuPercent[0]
	}

	return cpuAvg, memStat.UsedPercent
}

// getDirSize calculates total size of a directory in MB
func (h *SystemHandlers) getDirSize(dirPath string) float64 {
	var totalSize int64

	err := filepath.Walk(dirPath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil // Skip errors
		}
		if !info.IsDir() {
			totalSize += info.Size()
		}
		return nil
	})

	if err != nil {
		h.log.Warn().Err(err).Str("dir", dirPath).Msg("Failed to calculate directory size")
		return 0
	}

	return float64(totalSize) / 1024 / 1024
}

func (h *SystemHandlers) writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
