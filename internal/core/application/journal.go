package application

import (
	"context"

	"github.com/ark-network/vault/internal/core/domain"
	"github.com/ark-network/vault/internal/core/ports"
	"github.com/btcsuite/btcd/btcutil/psbt"
	log "github.com/sirupsen/logrus"
)

// journal is a Daemon that stores every vault snapshot and every submission
// outcome. Storage failures are logged and never fail the daemon call.
type journal struct {
	ports.Daemon
	repoManager ports.RepoManager
}

func NewJournal(daemon ports.Daemon, repoManager ports.RepoManager) ports.Daemon {
	return &journal{daemon, repoManager}
}

func (j *journal) ListVaults(
	ctx context.Context, statuses []domain.VaultStatus, outpoints []domain.Outpoint,
) ([]domain.Vault, error) {
	vaults, err := j.Daemon.ListVaults(ctx, statuses, outpoints)
	if err != nil {
		return nil, err
	}
	if err := j.repoManager.Vaults().SaveVaults(ctx, vaults); err != nil {
		log.WithError(err).Warn("journal: failed to store vaults snapshot")
	}
	if len(statuses) > 0 && len(outpoints) <= 0 {
		j.refreshDropped(ctx, statuses, vaults)
	}
	return vaults, nil
}

// refreshDropped updates the cached vaults that matched statuses but are
// missing from the snapshot, ie. whose status changed to one out of the
// filter.
func (j *journal) refreshDropped(
	ctx context.Context, statuses []domain.VaultStatus, snapshot []domain.Vault,
) {
	cached, err := j.repoManager.Vaults().GetVaults(ctx, statuses...)
	if err != nil {
		log.WithError(err).Warn("journal: failed to get cached vaults")
		return
	}
	seen := make(map[domain.Outpoint]struct{}, len(snapshot))
	for _, vault := range snapshot {
		seen[vault.Outpoint] = struct{}{}
	}
	dropped := make([]domain.Outpoint, 0)
	for _, vault := range cached {
		if _, ok := seen[vault.Outpoint]; !ok {
			dropped = append(dropped, vault.Outpoint)
		}
	}
	if len(dropped) <= 0 {
		return
	}

	vaults, err := j.Daemon.ListVaults(ctx, nil, dropped)
	if err != nil {
		log.WithError(err).Warnf("journal: failed to refresh %d cached vaults", len(dropped))
		return
	}
	if err := j.repoManager.Vaults().SaveVaults(ctx, vaults); err != nil {
		log.WithError(err).Warn("journal: failed to store refreshed vaults")
	}
}

func (j *journal) SetUnvaultTransaction(
	ctx context.Context, outpoint domain.Outpoint, signed *psbt.Packet,
) error {
	err := j.Daemon.SetUnvaultTransaction(ctx, outpoint, signed)
	j.record(ctx, outpoint, domain.Unvault, signed, err)
	return err
}

func (j *journal) SetRevocationTransactions(
	ctx context.Context, outpoint domain.Outpoint,
	emergency, emergencyUnvault, cancel *psbt.Packet,
) error {
	err := j.Daemon.SetRevocationTransactions(
		ctx, outpoint, emergency, emergencyUnvault, cancel,
	)
	j.record(ctx, outpoint, domain.Emergency, emergency, err)
	j.record(ctx, outpoint, domain.EmergencyUnvault, emergencyUnvault, err)
	j.record(ctx, outpoint, domain.Cancel, cancel, err)
	return err
}

func (j *journal) UpdateSpendTransaction(ctx context.Context, ptx *psbt.Packet) error {
	err := j.Daemon.UpdateSpendTransaction(ctx, ptx)
	j.record(ctx, domain.Outpoint{}, domain.Spend, ptx, err)
	return err
}

func (j *journal) record(
	ctx context.Context, outpoint domain.Outpoint, kind domain.TransactionKind,
	ptx *psbt.Packet, err error,
) {
	txid := ""
	if ptx != nil {
		txid = domain.Txid(ptx).String()
	}
	activity := domain.NewActivity(outpoint, kind, txid, err)
	if err := j.repoManager.Activities().AddActivity(ctx, activity); err != nil {
		log.WithError(err).Warnf("journal: failed to store %s activity", kind)
	}
}
