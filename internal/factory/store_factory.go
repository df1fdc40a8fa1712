package factory

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mikey/outreach-agent/internal/adapters/store"
	"github.com/mikey/outreach-agent/internal/config"
	"github.com/mikey/outreach-agent/internal/core"
	"go.uber.org/zap"
)

// StoreFactory creates the thread, brand and profile repositories
type StoreFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewStoreFactory creates a new store factory
func NewStoreFactory(cfg *config.Config, logger *zap.Logger) *StoreFactory {
	return &StoreFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateThreadRepository creates the configured thread store, seeded from the fixture file
func (f *StoreFactory) CreateThreadRepository() (core.ThreadRepository, error) {
	storeCfg := f.cfg.GetStore()

	threads, err := store.LoadThreads(storeCfg.ThreadsPath)
	if err != nil {
		return nil, err
	}
	f.logger.Info("Loaded thread fixtures", zap.String("path", storeCfg.ThreadsPath), zap.Int("threads", len(threads)))

	switch storeCfg.Type {
	case "memory":
		return store.NewMemoryThreadRepository(threads), nil
	case "sqlite":
		if err := os.MkdirAll(filepath.Dir(storeCfg.SQLitePath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create SQLite directory: %w", err)
		}
		repo, err := store.NewSQLiteThreadRepository(storeCfg.SQLitePath, f.logger)
		if err != nil {
			return nil, err
		}
		if err := repo.Seed(context.Background(), threads); err != nil {
			repo.Close()
			return nil, err
		}
		return repo, nil
	default:
		return nil, fmt.Errorf("unsupported store type: %s", storeCfg.Type)
	}
}

// CreateBrandRepository loads brand profiles
func (f *StoreFactory) CreateBrandRepository() (core.BrandRepository, error) {
	brands, err := store.LoadBrands(f.cfg.GetStore().BrandsPath)
	if err != nil {
		return nil, err
	}
	return store.NewMemoryBrandRepository(brands), nil
}

// CreateProfileRepository loads local channel profiles
func (f *StoreFactory) CreateProfileRepository() (core.ProfileRepository, error) {
	profiles, err := store.LoadProfiles(f.cfg.GetStore().ProfilesPath)
	if err != nil {
		return nil, err
	}
	f.logger.Info("Loaded channel profiles", zap.Int("profiles", len(profiles)))
	return store.NewMemoryProfileRepository(profiles), nil
}
