package application

import (
	"context"

	"github.com/ark-network/vault/internal/core/domain"
	"github.com/ark-network/vault/internal/core/ports"
	"github.com/btcsuite/btcd/btcutil/psbt"
	log "github.com/sirupsen/logrus"
)

func listVaults(
	daemon ports.Daemon, seq uint64, statuses []domain.VaultStatus,
) Cmd {
	return func(ctx context.Context) Msg {
		log.Debugf("daemon: listing vaults with statuses %v", statuses)
		vaults, err := daemon.ListVaults(ctx, statuses, nil)
		if err != nil {
			log.WithError(err).Warn("daemon: failed to list vaults")
		}
		return VaultsLoadedMsg{seq, vaults, err}
	}
}

func listInputs(daemon ports.Daemon) Cmd {
	return func(ctx context.Context) Msg {
		vaults, err := daemon.ListVaults(ctx, []domain.VaultStatus{domain.Active}, nil)
		if err != nil {
			log.WithError(err).Warn("daemon: failed to list spendable vaults")
		}
		return InputsLoadedMsg{vaults, err}
	}
}

func getBlockHeight(daemon ports.Daemon) Cmd {
	return func(ctx context.Context) Msg {
		height, err := daemon.GetBlockHeight(ctx)
		if err != nil {
			log.WithError(err).Warn("daemon: failed to get block height")
		}
		return BlockHeightMsg{height, err}
	}
}

func getOnchainTransactions(daemon ports.Daemon, outpoint domain.Outpoint) Cmd {
	return func(ctx context.Context) Msg {
		log.Debugf("daemon: fetching onchain transactions of vault %s", outpoint)
		txs, err := daemon.GetOnchainTransactions(ctx, outpoint)
		if err != nil {
			log.WithError(err).Warnf("daemon: failed to fetch transactions of vault %s", outpoint)
		}
		return OnchainTransactionsMsg{outpoint, txs, err}
	}
}

func getUnvaultTransaction(daemon ports.Daemon, outpoint domain.Outpoint) Cmd {
	return func(ctx context.Context) Msg {
		log.Debugf("daemon: fetching unvault transaction of vault %s", outpoint)
		ptx, err := daemon.GetUnvaultTransaction(ctx, outpoint)
		if err != nil {
			log.WithError(err).Warnf("daemon: failed to fetch unvault tx of vault %s", outpoint)
		}
		return UnvaultTransactionMsg{outpoint, ptx, err}
	}
}

func getRevocationTransactions(daemon ports.Daemon, outpoint domain.Outpoint) Cmd {
	return func(ctx context.Context) Msg {
		log.Debugf("daemon: fetching revocation transactions of vault %s", outpoint)
		txs, err := daemon.GetRevocationTransactions(ctx, outpoint)
		if err != nil {
			log.WithError(err).Warnf(
				"daemon: failed to fetch revocation txs of vault %s", outpoint,
			)
		}
		return RevocationTransactionsMsg{outpoint, txs, err}
	}
}

func setUnvaultTransaction(
	daemon ports.Daemon, submission uint64, outpoint domain.Outpoint,
	signed *psbt.Packet,
) Cmd {
	txid := domain.Txid(signed)
	return func(ctx context.Context) Msg {
		log.Debugf("daemon: sharing unvault tx %s of vault %s", txid, outpoint)
		err := daemon.SetUnvaultTransaction(ctx, outpoint, signed)
		if err != nil {
			log.WithError(err).Warnf("daemon: failed to share unvault tx %s", txid)
		}
		return UnvaultTransactionSetMsg{submission, outpoint, txid, err}
	}
}

func setRevocationTransactions(
	daemon ports.Daemon, submission uint64, outpoint domain.Outpoint,
	emergency, emergencyUnvault, cancel *psbt.Packet,
) Cmd {
	txid := domain.Txid(cancel)
	return func(ctx context.Context) Msg {
		log.Debugf("daemon: sharing revocation txs of vault %s", outpoint)
		err := daemon.SetRevocationTransactions(
			ctx, outpoint, emergency, emergencyUnvault, cancel,
		)
		if err != nil {
			log.WithError(err).Warnf(
				"daemon: failed to share revocation txs of vault %s", outpoint,
			)
		}
		return RevocationTransactionsSetMsg{submission, outpoint, txid, err}
	}
}

func getSpendTransaction(
	daemon ports.Daemon, revision uint64, outpoints []domain.Outpoint,
	outputs map[string]uint64, feerate uint32,
) Cmd {
	return func(ctx context.Context) Msg {
		log.Debugf(
			"daemon: building spend tx for %d inputs and %d outputs at %d sat/vb",
			len(outpoints), len(outputs), feerate,
		)
		tx, err := daemon.GetSpendTransaction(ctx, outpoints, outputs, feerate)
		if err != nil {
			log.WithError(err).Warn("daemon: failed to build spend tx")
		}
		return SpendTransactionMsg{revision, tx, err}
	}
}

func updateSpendTransaction(daemon ports.Daemon, ptx *psbt.Packet) Cmd {
	txid := domain.Txid(ptx)
	return func(ctx context.Context) Msg {
		log.Debugf("daemon: updating spend tx %s", txid)
		err := daemon.UpdateSpendTransaction(ctx, ptx)
		if err != nil {
			log.WithError(err).Warnf("daemon: failed to update spend tx %s", txid)
		}
		return SpendTransactionUpdatedMsg{txid, err}
	}
}

func listSpendTransactions(daemon ports.Daemon) Cmd {
	return func(ctx context.Context) Msg {
		txs, err := daemon.ListSpendTransactions(ctx)
		if err != nil {
			log.WithError(err).Warn("daemon: failed to list spend txs")
		}
		return SpendTransactionsMsg{txs, err}
	}
}

func signPsbt(
	signer ports.Signer, kind domain.TransactionKind, ptx *psbt.Packet,
) Cmd {
	txid := domain.Txid(ptx)
	return func(ctx context.Context) Msg {
		log.Debugf("signer: requesting signature of %s tx %s", kind, txid)
		signed, err := signer.SignPsbt(ctx, kind, ptx)
		if err != nil {
			log.WithError(err).Warnf("signer: failed to sign %s tx %s", kind, txid)
		}
		return DirectSignatureMsg{kind, txid, signed, err}
	}
}
