package sqlitedb

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ark-network/vault/internal/core/domain"
)

const insertActivity = `
INSERT INTO activity (
    id, vault_txid, vault_vout, kind, txid, outcome, error, created_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

const selectActivities = `
SELECT id, vault_txid, vault_vout, kind, txid, outcome, error, created_at
FROM activity`

type activityRepository struct {
	db *sql.DB
}

func NewActivityRepository(config ...interface{}) (domain.ActivityRepository, error) {
	db, err := dbFromConfig(config)
	if err != nil {
		return nil, fmt.Errorf("cannot open activity repository: %w", err)
	}
	return &activityRepository{db}, nil
}

func (r *activityRepository) Close() {
	_ = r.db.Close()
}

func (r *activityRepository) AddActivity(
	ctx context.Context, activity domain.Activity,
) error {
	_, err := r.db.ExecContext(ctx, insertActivity,
		activity.Id,
		activity.Outpoint.Txid,
		int64(activity.Outpoint.VOut),
		int64(activity.Kind),
		activity.Txid,
		string(activity.Outcome),
		activity.Error,
		activity.CreatedAt.UnixNano(),
	)
	return err
}

func (r *activityRepository) GetActivities(
	ctx context.Context, outpoint *domain.Outpoint,
) ([]domain.Activity, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if outpoint != nil {
		rows, err = r.db.QueryContext(ctx,
			selectActivities+" WHERE vault_txid = ? AND vault_vout = ? ORDER BY created_at",
			outpoint.Txid, int64(outpoint.VOut),
		)
	} else {
		rows, err = r.db.QueryContext(ctx, selectActivities+" ORDER BY created_at")
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	activities := make([]domain.Activity, 0)
	for rows.Next() {
		var (
			id, txid, vaultTxid, outcome, errMsg string
			vout, kind, createdAt                int64
		)
		if err := rows.Scan(
			&id, &vaultTxid, &vout, &kind, &txid, &outcome, &errMsg, &createdAt,
		); err != nil {
			return nil, err
		}
		activities = append(activities, domain.Activity{
			Id:        id,
			Outpoint:  domain.Outpoint{Txid: vaultTxid, VOut: uint32(vout)},
			Kind:      domain.TransactionKind(kind),
			Txid:      txid,
			Outcome:   domain.ActivityOutcome(outcome),
			Error:     errMsg,
			CreatedAt: time.Unix(0, createdAt),
		})
	}
	return activities, rows.Err()
}
