package application

import (
	"sync/atomic"

	"github.com/ark-network/vault/internal/core/domain"
	"github.com/btcsuite/btcd/btcutil/psbt"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// Messages carry enough identity (outpoint, txid, sequence number) for the
// receiver to detect and drop late responses of discarded requests.

// RefreshMsg asks the receiver to reload its data from the daemon.
type RefreshMsg struct{}

type VaultsLoadedMsg struct {
	Seq    uint64
	Vaults []domain.Vault
	Err    error
}

type BlockHeightMsg struct {
	Height uint32
	Err    error
}

type OnchainTransactionsMsg struct {
	Outpoint     domain.Outpoint
	Transactions *domain.VaultTransactions
	Err          error
}

type UnvaultTransactionMsg struct {
	Outpoint domain.Outpoint
	Psbt     *psbt.Packet
	Err      error
}

type RevocationTransactionsMsg struct {
	Outpoint     domain.Outpoint
	Transactions *domain.RevocationTransactions
	Err          error
}

// submissions numbers every submission to the daemon, so that a response is
// matched to the very request that produced it even when the same signed
// transactions are shared again.
var submissions atomic.Uint64

func nextSubmission() uint64 {
	return submissions.Add(1)
}

type UnvaultTransactionSetMsg struct {
	Submission uint64
	Outpoint   domain.Outpoint
	Txid       chainhash.Hash
	Err        error
}

// RevocationTransactionsSetMsg is identified by the txid of the cancel
// transaction of the submitted chain.
type RevocationTransactionsSetMsg struct {
	Submission uint64
	Outpoint   domain.Outpoint
	Txid       chainhash.Hash
	Err        error
}

// DirectSignatureMsg is the response of the attached signing module for the
// transaction identified by Txid.
type DirectSignatureMsg struct {
	Kind domain.TransactionKind
	Txid chainhash.Hash
	Psbt *psbt.Packet
	Err  error
}

type InputsLoadedMsg struct {
	Vaults []domain.Vault
	Err    error
}

// SpendTransactionMsg is the spend built by the daemon for the proposal at
// the given revision.
type SpendTransactionMsg struct {
	Revision    uint64
	Transaction *domain.SpendProposalTx
	Err         error
}

type SpendTransactionUpdatedMsg struct {
	Txid chainhash.Hash
	Err  error
}

type SpendTransactionsMsg struct {
	Transactions []domain.SpendTx
	Err          error
}
