// Package main is the entry point for the Tianji position-sizing and
// trade-journaling service.
//
// Startup order:
//  1. Load configuration (.env + environment)
//  2. Initialize structured logging
//  3. Open and migrate the journal database
//  4. Hydrate the ledger (journal rows, else session snapshot, else fresh)
//  5. Wire clients, calculator, handlers, scheduler
//  6. Serve HTTP until SIGINT/SIGTERM, then snapshot and shut down
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/wuxing-lab/tianji/internal/clients/gemini"
	"github.com/wuxing-lab/tianji/internal/clients/tencent"
	"github.com/wuxing-lab/tianji/internal/config"
	"github.com/wuxing-lab/tianji/internal/database"
	advisoryhandlers "github.com/wuxing-lab/tianji/internal/modules/advisory/handlers"
	"github.com/wuxing-lab/tianji/internal/modules/ledger"
	ledgerhandlers "github.com/wuxing-lab/tianji/internal/modules/ledger/handlers"
	"github.com/wuxing-lab/tianji/internal/modules/strategy"
	strategyhandlers "github.com/wuxing-lab/tianji/internal/modules/strategy/handlers"
	"github.com/wuxing-lab/tianji/internal/scheduler"
	"github.com/wuxing-lab/tianji/internal/server"
	"github.com/wuxing-lab/tianji/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fallbackLog := logger.New(logger.Config{
			Level:  "info",
			Pretty: true,
		})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})

	log.Info().Msg("Starting Tianji")

	// Journal database: the durable copy of the ledger.
	journalDB, err := database.New(database.Config{
		Path:    filepath.Join(cfg.DataDir, "journal.db"),
		Profile: database.ProfileJournal,
		Name:    "journal",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open journal database")
	}
	defer journalDB.Close()

	if err := journalDB.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("Failed to migrate journal database")
	}

	positionRepo := ledger.NewPositionRepository(journalDB.Conn(), log)
	ledgerService := ledger.NewService(cfg.StartingCash, positionRepo, log)
	hydrateLedger(ledgerService, positionRepo, cfg.DataDir, log)

	calculator := strategy.NewCalculator(cfg.Strategy, log)
	quoteClient := tencent.NewClient(cfg.QuoteBaseURL, log)
	advisoryClient := gemini.NewClient(cfg.GeminiAPIKey, cfg.GeminiModel, log)
	if !advisoryClient.Configured() {
		log.Warn().Msg("GEMINI_API_KEY not set, advisory endpoints will degrade")
	}

	// Daily holding-deadline sweep at 09:00, before the A-share open.
	sched := scheduler.New(log)
	sweep := scheduler.NewDeadlineSweepJob(ledgerService, log)
	if err := sched.AddJob("0 9 * * *", sweep); err != nil {
		log.Fatal().Err(err).Msg("Failed to register deadline sweep job")
	}
	sched.Start()

	srv := server.New(server.Config{
		Log:       log,
		Port:      cfg.Port,
		DevMode:   cfg.DevMode,
		DataDir:   cfg.DataDir,
		JournalDB: journalDB,
		Handlers: []server.RouteRegistrar{
			strategyhandlers.NewHandler(calculator, quoteClient, ledgerService, log),
			ledgerhandlers.NewHandler(ledgerService, calculator, log),
			advisoryhandlers.NewHandler(advisoryClient, ledgerService, log),
		},
	})

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down...")

	sched.Stop()

	// Session snapshot: lets the next start recover even if journal writes
	// failed during the session.
	if err := ledger.SaveSnapshot(cfg.DataDir, ledgerService.Snapshot()); err != nil {
		log.Error().Err(err).Msg("Failed to write session snapshot")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	if err := journalDB.WALCheckpoint("TRUNCATE"); err != nil {
		log.Warn().Err(err).Msg("WAL checkpoint failed on shutdown")
	}

	log.Info().Msg("Server stopped")
}

// hydrateLedger restores ledger state at startup. The journal database is
// authoritative (it is written through on every mutation); the msgpack
// session snapshot covers the case where the journal has no rows yet.
func hydrateLedger(svc *ledger.Service, repo *ledger.PositionRepository, dataDir string, log zerolog.Logger) {
	state, err := repo.Load()
	if err != nil {
		log.Error().Err(err).Msg("Failed to load journal state")
	}
	if state != nil {
		svc.Restore(*state)
		log.Info().Int("open", len(state.Open)).Int("closed", len(state.Closed)).Msg("Ledger hydrated from journal")
		return
	}

	snap, err := ledger.LoadSnapshot(dataDir)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to read session snapshot")
		return
	}
	if snap != nil {
		svc.Restore(*snap)
		log.Info().Time("saved_at", snap.SavedAt).Msg("Ledger hydrated from session snapshot")
	}
}
