package sqlitedb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ark-network/vault/internal/core/domain"
)

const upsertVault = `
INSERT INTO vault (
    txid, vout, status, amount, address, derivation_index, blockheight,
    received_at, updated_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(txid, vout) DO UPDATE SET
    status = EXCLUDED.status,
    amount = EXCLUDED.amount,
    address = EXCLUDED.address,
    derivation_index = EXCLUDED.derivation_index,
    blockheight = EXCLUDED.blockheight,
    received_at = EXCLUDED.received_at,
    updated_at = EXCLUDED.updated_at`

const selectVaults = `
SELECT txid, vout, status, amount, address, derivation_index, blockheight,
    received_at, updated_at
FROM vault`

type vaultRepository struct {
	db *sql.DB
}

func NewVaultRepository(config ...interface{}) (domain.VaultRepository, error) {
	db, err := dbFromConfig(config)
	if err != nil {
		return nil, fmt.Errorf("cannot open vault repository: %w", err)
	}
	return &vaultRepository{db}, nil
}

func (r *vaultRepository) Close() {
	_ = r.db.Close()
}

func (r *vaultRepository) SaveVaults(
	ctx context.Context, vaults []domain.Vault,
) error {
	txBody := func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, upsertVault)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, vault := range vaults {
			if _, err := stmt.ExecContext(ctx,
				vault.Txid,
				int64(vault.VOut),
				int64(vault.Status),
				int64(vault.Amount),
				vault.Address,
				int64(vault.DerivationIndex),
				int64(vault.Blockheight),
				vault.ReceivedAt.Unix(),
				vault.UpdatedAt.Unix(),
			); err != nil {
				return err
			}
		}
		return nil
	}
	return execTx(ctx, r.db, txBody)
}

func (r *vaultRepository) GetVaults(
	ctx context.Context, statuses ...domain.VaultStatus,
) ([]domain.Vault, error) {
	query := selectVaults
	args := make([]interface{}, 0, len(statuses))
	if len(statuses) > 0 {
		placeholders := make([]string, 0, len(statuses))
		for _, status := range statuses {
			placeholders = append(placeholders, "?")
			args = append(args, int64(status))
		}
		query += fmt.Sprintf(" WHERE status IN (%s)", strings.Join(placeholders, ","))
	}
	query += " ORDER BY received_at"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	vaults := make([]domain.Vault, 0)
	for rows.Next() {
		vault, err := scanVault(rows)
		if err != nil {
			return nil, err
		}
		vaults = append(vaults, *vault)
	}
	return vaults, rows.Err()
}

func (r *vaultRepository) GetVault(
	ctx context.Context, outpoint domain.Outpoint,
) (*domain.Vault, error) {
	row := r.db.QueryRowContext(
		ctx, selectVaults+" WHERE txid = ? AND vout = ?",
		outpoint.Txid, int64(outpoint.VOut),
	)
	vault, err := scanVault(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("vault %s not found", outpoint)
		}
		return nil, err
	}
	return vault, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanVault(row scanner) (*domain.Vault, error) {
	var (
		txid, address                                      string
		vout, status, amount, index, height, recv, updated int64
	)
	if err := row.Scan(
		&txid, &vout, &status, &amount, &address, &index, &height, &recv, &updated,
	); err != nil {
		return nil, err
	}
	return &domain.Vault{
		Outpoint:        domain.Outpoint{Txid: txid, VOut: uint32(vout)},
		Status:          domain.VaultStatus(status),
		Amount:          uint64(amount),
		Address:         address,
		DerivationIndex: uint32(index),
		Blockheight:     uint32(height),
		ReceivedAt:      time.Unix(recv, 0),
		UpdatedAt:       time.Unix(updated, 0),
	}, nil
}
