package domain

import (
	"time"

	"github.com/btcsuite/btcd/btcutil/psbt"
)

const (
	Deposit TransactionKind = iota
	Unvault
	Cancel
	Emergency
	EmergencyUnvault
	Spend
)

type TransactionKind int

func (k TransactionKind) String() string {
	switch k {
	case Deposit:
		return "deposit"
	case Unvault:
		return "unvault"
	case Cancel:
		return "cancel"
	case Emergency:
		return "emergency"
	case EmergencyUnvault:
		return "emergency_unvault"
	case Spend:
		return "spend"
	default:
		return "unknown"
	}
}

// VaultTransaction is an onchain (or broadcast) transaction of a vault.
type VaultTransaction struct {
	Kind        TransactionKind
	Txid        string
	Hex         string
	Blockheight uint32
	ReceivedAt  time.Time
}

func (t VaultTransaction) IsConfirmed() bool {
	return t.Blockheight > 0
}

// VaultTransactions is the onchain transaction set tied to a vault. Only the
// deposit is guaranteed to exist.
type VaultTransactions struct {
	Vault            Outpoint
	Deposit          VaultTransaction
	Unvault          *VaultTransaction
	Cancel           *VaultTransaction
	Emergency        *VaultTransaction
	UnvaultEmergency *VaultTransaction
	Spend            *VaultTransaction
}

// List returns the known transactions, most recent step first.
func (t VaultTransactions) List() []VaultTransaction {
	list := make([]VaultTransaction, 0, 6)
	for _, tx := range []*VaultTransaction{
		t.Spend, t.Cancel, t.UnvaultEmergency, t.Emergency, t.Unvault,
	} {
		if tx != nil {
			list = append(list, *tx)
		}
	}
	return append(list, t.Deposit)
}

// RevocationTransactions are the unsigned psbts a stakeholder must sign
// before a vault is secured.
type RevocationTransactions struct {
	Emergency        *psbt.Packet
	EmergencyUnvault *psbt.Packet
	Cancel           *psbt.Packet
}

// SpendTx is a spend transaction known to the daemon.
type SpendTx struct {
	DepositOutpoints []Outpoint
	Psbt             *psbt.Packet
}

func (t SpendTx) Txid() string {
	return Txid(t.Psbt).String()
}

// SpendProposalTx is the spend transaction built by the daemon for a
// proposal, with the feerate it was built at.
type SpendProposalTx struct {
	Psbt    *psbt.Packet
	Feerate uint32
}
