package jsonrpcdaemon

import (
	"fmt"
	"time"

	"github.com/ark-network/vault/internal/core/domain"
)

type vaultInfo struct {
	Amount          uint64 `json:"amount"`
	Blockheight     uint32 `json:"blockheight"`
	Status          string `json:"status"`
	Txid            string `json:"txid"`
	VOut            uint32 `json:"vout"`
	Address         string `json:"address"`
	DerivationIndex uint32 `json:"derivation_index"`
	ReceivedAt      int64  `json:"received_at"`
	UpdatedAt       int64  `json:"updated_at"`
}

func (v vaultInfo) parse() (domain.Vault, error) {
	status, err := domain.ParseVaultStatus(v.Status)
	if err != nil {
		return domain.Vault{}, err
	}
	return domain.Vault{
		Outpoint:        domain.Outpoint{Txid: v.Txid, VOut: v.VOut},
		Status:          status,
		Amount:          v.Amount,
		Address:         v.Address,
		DerivationIndex: v.DerivationIndex,
		Blockheight:     v.Blockheight,
		ReceivedAt:      time.Unix(v.ReceivedAt, 0),
		UpdatedAt:       time.Unix(v.UpdatedAt, 0),
	}, nil
}

type listVaultsResult struct {
	Vaults []vaultInfo `json:"vaults"`
}

type getInfoResult struct {
	Blockheight uint32  `json:"blockheight"`
	Network     string  `json:"network"`
	Sync        float64 `json:"sync"`
	Version     string  `json:"version"`
}

type walletTransaction struct {
	Hex         string `json:"hex"`
	Txid        string `json:"txid"`
	Blockheight uint32 `json:"blockheight,omitempty"`
	ReceivedAt  int64  `json:"received_at"`
}

func (t *walletTransaction) parse(kind domain.TransactionKind) *domain.VaultTransaction {
	if t == nil {
		return nil
	}
	return &domain.VaultTransaction{
		Kind:        kind,
		Txid:        t.Txid,
		Hex:         t.Hex,
		Blockheight: t.Blockheight,
		ReceivedAt:  time.Unix(t.ReceivedAt, 0),
	}
}

type vaultTransactions struct {
	Outpoint         string             `json:"vault_outpoint"`
	Deposit          walletTransaction  `json:"deposit"`
	Unvault          *walletTransaction `json:"unvault"`
	Cancel           *walletTransaction `json:"cancel"`
	Emergency        *walletTransaction `json:"emergency"`
	UnvaultEmergency *walletTransaction `json:"unvault_emergency"`
	Spend            *walletTransaction `json:"spend"`
}

type listOnchainTransactionsResult struct {
	Transactions []vaultTransactions `json:"onchain_transactions"`
}

func (r listOnchainTransactionsResult) parse(
	outpoint domain.Outpoint,
) (*domain.VaultTransactions, error) {
	for _, txs := range r.Transactions {
		if txs.Outpoint != outpoint.String() {
			continue
		}
		return &domain.VaultTransactions{
			Vault:            outpoint,
			Deposit:          *txs.Deposit.parse(domain.Deposit),
			Unvault:          txs.Unvault.parse(domain.Unvault),
			Cancel:           txs.Cancel.parse(domain.Cancel),
			Emergency:        txs.Emergency.parse(domain.Emergency),
			UnvaultEmergency: txs.UnvaultEmergency.parse(domain.EmergencyUnvault),
			Spend:            txs.Spend.parse(domain.Spend),
		}, nil
	}
	return nil, fmt.Errorf("no onchain transactions for vault %s", outpoint)
}

type getUnvaultTxResult struct {
	UnvaultTx string `json:"unvault_tx"`
}

type getRevocationTxsResult struct {
	CancelTx           string `json:"cancel_tx"`
	EmergencyTx        string `json:"emergency_tx"`
	EmergencyUnvaultTx string `json:"emergency_unvault_tx"`
}

type getSpendTxResult struct {
	SpendTx string `json:"spend_tx"`
	Feerate uint32 `json:"feerate,omitempty"`
}

type spendTxInfo struct {
	DepositOutpoints []string `json:"deposit_outpoints"`
	Psbt             string   `json:"psbt"`
}

type listSpendTxsResult struct {
	SpendTxs []spendTxInfo `json:"spend_txs"`
}
