package api

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/FACorreiaa/budget-dashboard/internal/domain/categorization"
	"github.com/FACorreiaa/budget-dashboard/internal/domain/import/gate"
	importhandler "github.com/FACorreiaa/budget-dashboard/internal/domain/import/handler"
	"github.com/FACorreiaa/budget-dashboard/internal/domain/import/parser"
	"github.com/FACorreiaa/budget-dashboard/internal/domain/import/preset"
	importservice "github.com/FACorreiaa/budget-dashboard/internal/domain/import/service"
	insightshandler "github.com/FACorreiaa/budget-dashboard/internal/domain/insights/handler"
	"github.com/FACorreiaa/budget-dashboard/internal/domain/ledger"
	"github.com/FACorreiaa/budget-dashboard/pkg/config"
	"github.com/FACorreiaa/budget-dashboard/pkg/db"
	"github.com/FACorreiaa/budget-dashboard/pkg/metrics"
	"github.com/FACorreiaa/budget-dashboard/pkg/money"
	"github.com/FACorreiaa/budget-dashboard/pkg/storage"
)

const maxPendingImports = 100

// Dependencies holds all application dependencies
type Dependencies struct {
	Config *config.Config
	DB     *db.DB // nil with the file backend
	Logger *slog.Logger

	// Storage
	Store   ledger.Store
	Ledger  *ledger.Ledger
	Archive storage.Archive

	// Services
	Registry      *preset.Registry
	Metrics       *metrics.Metrics
	Search        *categorization.SearchIndex
	ImportService *importservice.ImportService

	// Handlers
	Pending         *importhandler.Pending
	ImportHandler   *importhandler.ImportHandler
	InsightsHandler *insightshandler.InsightsHandler
}

// InitDependencies initializes all application dependencies
func InitDependencies(cfg *config.Config, logger *slog.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
	}

	if err := deps.initStorage(); err != nil {
		deps.Cleanup()
		return nil, fmt.Errorf("failed to init storage: %w", err)
	}

	if err := deps.initServices(); err != nil {
		deps.Cleanup()
		return nil, fmt.Errorf("failed to init services: %w", err)
	}

	if err := deps.initHandlers(); err != nil {
		deps.Cleanup()
		return nil, fmt.Errorf("failed to init handlers: %w", err)
	}

	logger.Info("all dependencies initialized successfully")

	return deps, nil
}

// initStorage opens the ledger backend and the statement archive, then loads
// the ledger.
func (d *Dependencies) initStorage() error {
	switch d.Config.Storage.Backend {
	case "postgres":
		if err := d.initDatabase(); err != nil {
			return err
		}
		d.Store = ledger.NewPostgresStore(d.DB.Pool)
	default:
		d.Store = ledger.NewFileStore(d.Config.Storage.LedgerPath)
	}

	archive, err := storage.NewLocalArchive(d.Config.Storage.ArchiveDir)
	if err != nil {
		return fmt.Errorf("failed to init statement archive: %w", err)
	}
	d.Archive = archive

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	d.Ledger = ledger.New(d.Store, d.Logger)
	if err := d.Ledger.Load(ctx); err != nil {
		return fmt.Errorf("failed to load ledger: %w", err)
	}

	d.Logger.Info("ledger loaded",
		slog.String("backend", d.Config.Storage.Backend),
		slog.Int("transactions", len(d.Ledger.Transactions())),
		slog.Int("categories", len(d.Ledger.Categories())),
	)
	return nil
}

// initDatabase initializes the database connection and runs migrations
func (d *Dependencies) initDatabase() error {
	database, err := db.New(db.Config{
		DSN:             d.Config.Database.DSN(),
		MaxConns:        int32(d.Config.Database.MaxConns),
		MinConns:        1,
		MaxConnLifetime: d.Config.Database.MaxConnLifetime,
		MaxConnIdleTime: 10 * time.Minute,
	}, d.Logger)
	if err != nil {
		return err
	}

	d.DB = database

	if err := d.DB.RunMigrations(); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	d.Logger.Info("database connected and migrations completed successfully")
	return nil
}

// initServices initializes all service layer dependencies
func (d *Dependencies) initServices() error {
	d.Registry = preset.DefaultRegistry()

	if d.Config.Observability.MetricsEnabled {
		d.Metrics = metrics.New()
	}

	d.ImportService = importservice.NewImportService(
		parser.NewDecoder(parser.NewExcelReader()),
		d.Registry,
		d.Ledger,
		gate.Policy{AlwaysConfirm: d.Config.Import.AlwaysConfirm},
		d.Logger,
	).WithMetrics(d.Metrics).WithArchive(d.Archive)

	if path := d.Config.Import.RulesFile; path != "" {
		rules, err := categorization.LoadRulesFile(path)
		if err != nil {
			return err
		}
		d.ImportService.WithRules(rules)
		d.Logger.Info("keyword rules file loaded", slog.String("path", path), slog.Int("rules", len(rules)))
	}

	search, err := categorization.NewSearchIndex(d.Config.Import.SuggestIndex)
	if err != nil {
		return fmt.Errorf("failed to open suggestion index: %w", err)
	}
	d.Search = search
	if err := d.Search.IndexCatalog(d.Ledger.Categories(), d.Ledger.Rules()); err != nil {
		return fmt.Errorf("failed to index categories: %w", err)
	}

	d.Logger.Info("services initialized")
	return nil
}

// initHandlers initializes all handler dependencies
func (d *Dependencies) initHandlers() error {
	pending, err := importhandler.NewPending(maxPendingImports, d.Config.Import.PendingTTL)
	if err != nil {
		return err
	}
	d.Pending = pending

	d.ImportHandler = importhandler.NewImportHandler(d.ImportService, d.Pending, d.Config.Server.MaxUploadBytes, d.Logger)
	d.InsightsHandler = insightshandler.NewInsightsHandler(d.Ledger, d.Search, money.DefaultCurrency, d.Logger)

	d.Logger.Info("handlers initialized")
	return nil
}

// Cleanup closes all resources
func (d *Dependencies) Cleanup() {
	if d.Pending != nil {
		d.Pending.Close()
	}
	if d.Search != nil {
		if err := d.Search.Close(); err != nil {
			d.Logger.Warn("failed to close suggestion index", slog.Any("error", err))
		}
	}
	if d.DB != nil {
		d.DB.Close()
	}
	d.Logger.Info("cleanup completed")
}
