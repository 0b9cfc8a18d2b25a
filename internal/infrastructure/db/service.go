package db

import (
	"fmt"
	"path/filepath"

	"github.com/ark-network/vault/internal/core/domain"
	"github.com/ark-network/vault/internal/core/ports"
	badgerdb "github.com/ark-network/vault/internal/infrastructure/db/badger"
	sqlitedb "github.com/ark-network/vault/internal/infrastructure/db/sqlite"
)

var (
	vaultStoreTypes = map[string]func(...interface{}) (domain.VaultRepository, error){
		"badger": badgerdb.NewVaultRepository,
		"sqlite": sqlitedb.NewVaultRepository,
	}
	activityStoreTypes = map[string]func(...interface{}) (domain.ActivityRepository, error){
		"badger": badgerdb.NewActivityRepository,
		"sqlite": sqlitedb.NewActivityRepository,
	}
)

const (
	sqliteDbFile = "sqlite.db"
)

// ServiceConfig selects the store backend. Badger expects the base dir
// (empty for in-memory) and a logger, sqlite expects the base dir only.
type ServiceConfig struct {
	DataStoreType   string
	DataStoreConfig []interface{}
}

type service struct {
	vaultStore    domain.VaultRepository
	activityStore domain.ActivityRepository
}

func NewService(config ServiceConfig) (ports.RepoManager, error) {
	vaultStoreFactory, ok := vaultStoreTypes[config.DataStoreType]
	if !ok {
		return nil, fmt.Errorf("invalid data store type: %s", config.DataStoreType)
	}
	activityStoreFactory, ok := activityStoreTypes[config.DataStoreType]
	if !ok {
		return nil, fmt.Errorf("invalid data store type: %s", config.DataStoreType)
	}

	storeConfig := config.DataStoreConfig
	if config.DataStoreType == "sqlite" {
		if len(storeConfig) != 1 {
			return nil, fmt.Errorf("invalid sqlite config")
		}
		baseDir, ok := storeConfig[0].(string)
		if !ok {
			return nil, fmt.Errorf("invalid sqlite base directory")
		}
		db, err := sqlitedb.OpenDb(filepath.Join(baseDir, sqliteDbFile))
		if err != nil {
			return nil, err
		}
		if err := sqlitedb.MigrateDb(db); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to migrate sqlite: %w", err)
		}
		storeConfig = []interface{}{db}
	}

	vaultStore, err := vaultStoreFactory(storeConfig...)
	if err != nil {
		return nil, fmt.Errorf("failed to create vault store: %w", err)
	}

	activityStore, err := activityStoreFactory(storeConfig...)
	if err != nil {
		vaultStore.Close()
		return nil, fmt.Errorf("failed to create activity store: %w", err)
	}

	return &service{
		vaultStore:    vaultStore,
		activityStore: activityStore,
	}, nil
}

func (s *service) Vaults() domain.VaultRepository {
	return s.vaultStore
}

func (s *service) Activities() domain.ActivityRepository {
	return s.activityStore
}

func (s *service) Close() {
	s.vaultStore.Close()
	s.activityStore.Close()
}
