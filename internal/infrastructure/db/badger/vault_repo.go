package badgerdb

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"time"

	"github.com/ark-network/vault/internal/core/domain"
	"github.com/dgraph-io/badger/v4"
	"github.com/timshannon/badgerhold/v4"
)

const vaultStoreDir = "vaults"

type vaultDTO struct {
	Key             string
	Txid            string
	VOut            uint32
	Status          int
	Amount          uint64
	Address         string
	DerivationIndex uint32
	Blockheight     uint32
	ReceivedAt      int64
	UpdatedAt       int64
}

type vaultRepository struct {
	store *badgerhold.Store
}

func NewVaultRepository(config ...interface{}) (domain.VaultRepository, error) {
	baseDir, logger, err := parseConfig(config)
	if err != nil {
		return nil, err
	}
	var dir string
	if len(baseDir) > 0 {
		dir = filepath.Join(baseDir, vaultStoreDir)
	}
	store, err := createDB(dir, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open vault store: %s", err)
	}
	return &vaultRepository{store}, nil
}

func (r *vaultRepository) SaveVaults(
	ctx context.Context, vaults []domain.Vault,
) error {
	return withRetry(func() error {
		return r.store.Badger().Update(func(tx *badger.Txn) error {
			for _, vault := range vaults {
				dto := toVaultDTO(vault)
				if err := r.store.TxUpsert(tx, dto.Key, dto); err != nil {
					return err
				}
			}
			return nil
		})
	})
}

func (r *vaultRepository) GetVaults(
	ctx context.Context, statuses ...domain.VaultStatus,
) ([]domain.Vault, error) {
	var query *badgerhold.Query
	if len(statuses) > 0 {
		values := make([]interface{}, 0, len(statuses))
		for _, status := range statuses {
			values = append(values, int(status))
		}
		query = badgerhold.Where("Status").In(values...)
	}

	dtos := make([]vaultDTO, 0)
	if err := r.store.Find(&dtos, query); err != nil {
		return nil, err
	}

	vaults := make([]domain.Vault, 0, len(dtos))
	for _, dto := range dtos {
		vaults = append(vaults, dto.toVault())
	}
	sort.SliceStable(vaults, func(i, j int) bool {
		return vaults[i].ReceivedAt.Before(vaults[j].ReceivedAt)
	})
	return vaults, nil
}

func (r *vaultRepository) GetVault(
	ctx context.Context, outpoint domain.Outpoint,
) (*domain.Vault, error) {
	var dto vaultDTO
	if err := r.store.Get(outpoint.String(), &dto); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil, fmt.Errorf("vault %s not found", outpoint)
		}
		return nil, err
	}
	vault := dto.toVault()
	return &vault, nil
}

func (r *vaultRepository) Close() {
	r.store.Close()
}

func toVaultDTO(vault domain.Vault) vaultDTO {
	return vaultDTO{
		Key:             vault.Outpoint.String(),
		Txid:            vault.Txid,
		VOut:            vault.VOut,
		Status:          int(vault.Status),
		Amount:          vault.Amount,
		Address:         vault.Address,
		DerivationIndex: vault.DerivationIndex,
		Blockheight:     vault.Blockheight,
		ReceivedAt:      vault.ReceivedAt.Unix(),
		UpdatedAt:       vault.UpdatedAt.Unix(),
	}
}

func (d vaultDTO) toVault() domain.Vault {
	return domain.Vault{
		Outpoint:        domain.Outpoint{Txid: d.Txid, VOut: d.VOut},
		Status:          domain.VaultStatus(d.Status),
		Amount:          d.Amount,
		Address:         d.Address,
		DerivationIndex: d.DerivationIndex,
		Blockheight:     d.Blockheight,
		ReceivedAt:      time.Unix(d.ReceivedAt, 0),
		UpdatedAt:       time.Unix(d.UpdatedAt, 0),
	}
}
