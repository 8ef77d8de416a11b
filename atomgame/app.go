// Package atomgame wires the configuration, database, repositories, game
// service and background sweeps into one application.
package atomgame

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/atomicprogress/atomgame/atomgame/database"
	"github.com/atomicprogress/atomgame/atomgame/database/repositories"
	"github.com/atomicprogress/atomgame/atomgame/economy/accrual"
	"github.com/atomicprogress/atomgame/atomgame/economy/boosters"
	"github.com/atomicprogress/atomgame/atomgame/economy/catalog"
	"github.com/atomicprogress/atomgame/atomgame/scheduler"
	"github.com/atomicprogress/atomgame/atomgame/services"
)

func New(cfg Config, version string, commit string) *App {
	return &App{
		Cfg:     cfg,
		Version: version,
		Commit:  commit,
	}
}

type App struct {
	Cfg     Config
	Version string
	Commit  string

	DB          *database.DB
	Catalog     *catalog.Catalog
	PlayerRepo  repositories.PlayerRepository
	ComplexRepo repositories.ComplexRepository
	BoosterRepo repositories.BoosterRepository
	LedgerRepo  repositories.LedgerRepository
	GameService *services.GameService

	accrualSweep *scheduler.AccrualSweep
	boosterSweep *scheduler.BoosterSweep
}

// Setup connects the database, initializes the schema and wires the game
// service and sweeps. Call Start afterwards to begin the background jobs.
func (a *App) Setup(ctx context.Context) error {
	db, err := database.New(ctx, a.Cfg.DB)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.InitializeSchema(ctx); err != nil {
		db.Close()
		return fmt.Errorf("failed to initialize schema: %w", err)
	}
	a.DB = db

	a.Catalog = catalog.Default()
	a.PlayerRepo = repositories.NewPlayerRepository(db.BunDB())
	a.ComplexRepo = repositories.NewComplexRepository(db.BunDB())
	a.BoosterRepo = repositories.NewBoosterRepository(db.BunDB())
	a.LedgerRepo = repositories.NewLedgerRepository(db.BunDB())

	boosterMgr := boosters.NewManager(a.Catalog, a.PlayerRepo, a.BoosterRepo, a.LedgerRepo)

	accrualCfg := accrual.DefaultConfig()
	if a.Cfg.Game.MinAccrualInterval > 0 {
		accrualCfg.MinInterval = a.Cfg.Game.MinAccrualInterval
	}
	if a.Cfg.Game.OfflineCap > 0 {
		accrualCfg.OfflineCap = a.Cfg.Game.OfflineCap
	}

	a.GameService = services.NewGameService(
		a.Catalog,
		a.PlayerRepo,
		a.ComplexRepo,
		a.BoosterRepo,
		a.LedgerRepo,
		boosterMgr,
		accrualCfg,
	)

	a.accrualSweep = scheduler.NewAccrualSweep(a.GameService, a.PlayerRepo, a.Cfg.Sweep.AccrualInterval)
	a.boosterSweep = scheduler.NewBoosterSweep(boosterMgr, a.Cfg.Sweep.BoosterExpiryInterval)

	slog.Info("Application setup complete",
		slog.String("version", a.Version),
		slog.String("commit", a.Commit))
	return nil
}

// Start launches the background sweeps.
func (a *App) Start() {
	a.accrualSweep.Start()
	a.boosterSweep.Start()
	slog.Info("Background sweeps started",
		slog.Duration("accrual_interval", a.Cfg.Sweep.AccrualInterval),
		slog.Duration("booster_expiry_interval", a.Cfg.Sweep.BoosterExpiryInterval))
}

// Shutdown stops the sweeps and closes the database.
func (a *App) Shutdown() {
	if a.accrualSweep != nil {
		a.accrualSweep.Shutdown()
	}
	if a.boosterSweep != nil {
		a.boosterSweep.Shutdown()
	}
	if a.DB != nil {
		a.DB.Close()
	}
	slog.Info("Application shutdown complete")
}
