package ports

import (
	"context"

	"github.com/ark-network/vault/internal/core/domain"
	"github.com/btcsuite/btcd/btcutil/psbt"
)

// Signer is a directly attached signing module.
type Signer interface {
	SignPsbt(
		ctx context.Context, kind domain.TransactionKind, ptx *psbt.Packet,
	) (*psbt.Packet, error)
	Close()
}
