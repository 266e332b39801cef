package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
	"github.com/templui/goalplanner/internal/config"
	"github.com/templui/goalplanner/internal/db"
	"github.com/templui/goalplanner/internal/docstore"
	"github.com/templui/goalplanner/internal/generation"
	"github.com/templui/goalplanner/internal/repository"
	"github.com/templui/goalplanner/internal/service"
	"github.com/templui/goalplanner/internal/storage"
)

type App struct {
	Cfg            *config.Config
	DB             *sqlx.DB // nil unless STORE_BACKEND=sql
	DocStore       docstore.Store
	GoalStore      *repository.GoalStore
	AuthService    *service.AuthService
	GoalService    *service.GoalService
	ArchiveService *service.ArchiveService
}

func New(ctx context.Context, cfg *config.Config) (*App, error) {
	a := &App{Cfg: cfg}

	store, database, err := NewDocStore(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize goal store: %w", err)
	}
	a.DocStore = store
	a.DB = database

	client, err := NewClient(ctx, cfg)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to initialize generative client: %w", err)
	}

	// Archive storage is optional; a nil interface disables archives.
	var archiveStorage storage.Storage
	if cfg.ArchiveEnabled() {
		s3Storage, err := storage.New(ctx, cfg)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to initialize storage: %w", err)
		}
		archiveStorage = s3Storage
	}

	// Repositories
	a.GoalStore = repository.NewGoalStore(store, cfg.GoalsCollection)

	// Services
	a.GoalService = service.NewGoalService(a.GoalStore, client, nil)
	a.AuthService = service.NewAuthService(cfg.JWTSecret, cfg.JWTExpiry)
	a.ArchiveService = service.NewArchiveService(a.GoalService, archiveStorage)

	slog.Info("app initialized",
		"store", cfg.StoreBackend,
		"genai", cfg.GenAIBackend,
		"archive", cfg.ArchiveEnabled(),
	)
	return a, nil
}

// NewDocStore opens the configured document store. The SQL backend also
// returns its connection so migrations can run against it.
func NewDocStore(ctx context.Context, cfg *config.Config) (docstore.Store, *sqlx.DB, error) {
	switch cfg.StoreBackend {
	case config.StoreMemory:
		return docstore.NewMemoryStore(), nil, nil

	case config.StoreFirestore:
		store, err := docstore.NewFirestoreStore(ctx, cfg.FirestoreProject)
		if err != nil {
			return nil, nil, err
		}
		return store, nil, nil

	case config.StoreSQL:
		database, err := db.Init(ctx, cfg.DBDriver, cfg.DBConnection)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize database: %w", err)
		}

		err = db.RunMigrations(ctx, database.DB, cfg.DBDriver)
		if err != nil {
			database.Close()
			return nil, nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		return docstore.NewSQLStore(database, cfg.DBDriver), database, nil
	}

	return nil, nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
}

func NewClient(ctx context.Context, cfg *config.Config) (generation.Client, error) {
	switch cfg.GenAIBackend {
	case config.GenAIMock:
		slog.Warn("using mock generative client, goals are canned")
		return generation.NewMockClient(), nil

	case config.GenAISDK:
		return generation.NewGenAIClient(ctx, cfg.GenAIAPIKey, cfg.GenAIModel)

	case config.GenAIHTTP:
		return generation.NewHTTPClient(generation.HTTPConfig{
			URL:     cfg.GenAIAPIURL,
			APIKey:  cfg.GenAIAPIKey,
			Timeout: cfg.GenAITimeout,
		}), nil
	}

	return nil, fmt.Errorf("unknown generative backend %q", cfg.GenAIBackend)
}

func (a *App) Close() error {
	var errs []error
	if a.DocStore != nil {
		errs = append(errs, a.DocStore.Close())
	}
	if a.DB != nil {
		errs = append(errs, a.DB.Close())
	}
	return errors.Join(errs...)
}
