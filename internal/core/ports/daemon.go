package ports

import (
	"context"

	"github.com/ark-network/vault/internal/core/domain"
	"github.com/btcsuite/btcd/btcutil/psbt"
)

// Daemon is the RPC surface of the wallet daemon. Every call is
// independently fallible and failures are returned as *domain.DaemonError.
type Daemon interface {
	// ListVaults returns the vaults in any of the given statuses, optionally
	// restricted to outpoints. Empty filters mean no restriction.
	ListVaults(
		ctx context.Context, statuses []domain.VaultStatus, outpoints []domain.Outpoint,
	) ([]domain.Vault, error)
	GetBlockHeight(ctx context.Context) (uint32, error)
	GetOnchainTransactions(
		ctx context.Context, outpoint domain.Outpoint,
	) (*domain.VaultTransactions, error)
	GetUnvaultTransaction(ctx context.Context, outpoint domain.Outpoint) (*psbt.Packet, error)
	GetRevocationTransactions(
		ctx context.Context, outpoint domain.Outpoint,
	) (*domain.RevocationTransactions, error)
	SetUnvaultTransaction(
		ctx context.Context, outpoint domain.Outpoint, signed *psbt.Packet,
	) error
	SetRevocationTransactions(
		ctx context.Context, outpoint domain.Outpoint,
		emergency, emergencyUnvault, cancel *psbt.Packet,
	) error
	// GetSpendTransaction asks the daemon to build a spend of outpoints
	// paying outputs (address -> sats) at feerate (sat/vbyte).
	GetSpendTransaction(
		ctx context.Context, outpoints []domain.Outpoint,
		outputs map[string]uint64, feerate uint32,
	) (*domain.SpendProposalTx, error)
	UpdateSpendTransaction(ctx context.Context, ptx *psbt.Packet) error
	ListSpendTransactions(ctx context.Context) ([]domain.SpendTx, error)
	Close()
}
