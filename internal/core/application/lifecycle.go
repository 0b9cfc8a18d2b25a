package application

import (
	"github.com/ark-network/vault/internal/core/domain"
	"github.com/ark-network/vault/internal/core/ports"
)

const (
	Unloaded VaultSection = iota
	OnchainTransactions
	Delegate
	Acknowledge
)

type VaultSection int

func (s VaultSection) String() string {
	switch s {
	case OnchainTransactions:
		return "onchain transactions"
	case Delegate:
		return "delegate"
	case Acknowledge:
		return "acknowledge"
	default:
		return "unloaded"
	}
}

// VaultLifecycle holds the selected vault and the sub-protocol running on
// it. At most one of delegation and acknowledgement is active at a time.
type VaultLifecycle struct {
	daemon ports.Daemon
	signer ports.Signer

	vault   domain.Vault
	section VaultSection
	// requested is the section whose data is being fetched.
	requested VaultSection
	loading   bool
	txs       *domain.VaultTransactions

	unvault    *SignatureCollector
	submitting bool
	inflight   uint64
	chain      *RevocationChain

	warning error
}

func NewVaultLifecycle(
	daemon ports.Daemon, signer ports.Signer, vault domain.Vault,
) *VaultLifecycle {
	return &VaultLifecycle{
		daemon: daemon,
		signer: signer,
		vault:  vault.Clone(),
	}
}

func (l *VaultLifecycle) Vault() domain.Vault {
	return l.vault
}

func (l *VaultLifecycle) Outpoint() domain.Outpoint {
	return l.vault.Outpoint
}

func (l *VaultLifecycle) Section() VaultSection {
	return l.section
}

func (l *VaultLifecycle) IsLoading() bool {
	return l.loading
}

func (l *VaultLifecycle) Transactions() *domain.VaultTransactions {
	return l.txs
}

// UnvaultCollector is the collector of the delegate section, nil otherwise.
func (l *VaultLifecycle) UnvaultCollector() *SignatureCollector {
	return l.unvault
}

// RevocationChain is the chain of the acknowledge section, nil otherwise.
func (l *VaultLifecycle) RevocationChain() *RevocationChain {
	return l.chain
}

func (l *VaultLifecycle) IsSubmitting() bool {
	if l.chain != nil {
		return l.chain.IsSubmitting()
	}
	return l.submitting
}

func (l *VaultLifecycle) Warning() error {
	if l.warning == nil && l.chain != nil {
		return l.chain.Warning()
	}
	return l.warning
}

// Merge replaces the vault with a fresher snapshot of it.
func (l *VaultLifecycle) Merge(vault domain.Vault) {
	if vault.Outpoint != l.vault.Outpoint {
		return
	}
	l.vault = vault.Clone()
}

// Load fetches the onchain transactions of the vault.
func (l *VaultLifecycle) Load() Cmd {
	l.loading = true
	return getOnchainTransactions(l.daemon, l.vault.Outpoint)
}

// Delegate fetches the unvault transaction to sign. A request for another
// vault is ignored.
func (l *VaultLifecycle) Delegate(outpoint domain.Outpoint) Cmd {
	if outpoint != l.vault.Outpoint {
		return nil
	}
	l.teardown()
	l.requested = Delegate
	l.loading = true
	return getUnvaultTransaction(l.daemon, outpoint)
}

// Acknowledge fetches the revocation transactions to sign. A request for
// another vault is ignored.
func (l *VaultLifecycle) Acknowledge(outpoint domain.Outpoint) Cmd {
	if outpoint != l.vault.Outpoint {
		return nil
	}
	l.teardown()
	l.requested = Acknowledge
	l.loading = true
	return getRevocationTransactions(l.daemon, outpoint)
}

// Back leaves the running sub-protocol, dropping its state.
func (l *VaultLifecycle) Back() {
	l.teardown()
	l.requested = Unloaded
	l.loading = false
	if l.txs != nil {
		l.section = OnchainTransactions
	} else {
		l.section = Unloaded
	}
}

func (l *VaultLifecycle) ChangeMethod() {
	switch l.section {
	case Delegate:
		if !l.submitting {
			l.unvault.ChangeMethod()
		}
	case Acknowledge:
		l.chain.ChangeMethod()
	}
}

// Submit hands the operator pasted psbt to the running sub-protocol.
func (l *VaultLifecycle) Submit(input string) (Cmd, error) {
	switch l.section {
	case Delegate:
		if l.submitting {
			return nil, nil
		}
		if err := l.unvault.Submit(input); err != nil {
			return nil, err
		}
		return l.shareUnvault(), nil
	case Acknowledge:
		return l.chain.Submit(input)
	}
	return nil, nil
}

// RequestSignature asks the attached signer to sign the transaction the
// running sub-protocol is waiting for.
func (l *VaultLifecycle) RequestSignature() (Cmd, error) {
	switch l.section {
	case Delegate:
		if l.submitting {
			return nil, nil
		}
		return l.unvault.RequestSignature(l.signer)
	case Acknowledge:
		return l.chain.RequestSignature(l.signer)
	}
	return nil, nil
}

// Retry shares again the signed transactions whose submission failed.
func (l *VaultLifecycle) Retry() Cmd {
	switch l.section {
	case Delegate:
		if l.submitting || !l.unvault.IsSigned() || l.unvault.IsShared() {
			return nil
		}
		return l.shareUnvault()
	case Acknowledge:
		return l.chain.Retry()
	}
	return nil
}

func (l *VaultLifecycle) Update(msg Msg) Cmd {
	switch msg := msg.(type) {
	case OnchainTransactionsMsg:
		if msg.Outpoint != l.vault.Outpoint {
			return nil
		}
		if l.requested == Unloaded {
			l.loading = false
		}
		if msg.Err != nil {
			l.warning = msg.Err
			return nil
		}
		l.txs = msg.Transactions
		if l.section == Unloaded {
			l.section = OnchainTransactions
		}
	case UnvaultTransactionMsg:
		if msg.Outpoint != l.vault.Outpoint || l.requested != Delegate {
			return nil
		}
		l.requested = Unloaded
		l.loading = false
		if msg.Err != nil {
			l.warning = msg.Err
			return nil
		}
		l.warning = nil
		l.unvault = NewSignatureCollector(domain.Unvault, msg.Psbt)
		l.section = Delegate
	case RevocationTransactionsMsg:
		if msg.Outpoint != l.vault.Outpoint || l.requested != Acknowledge {
			return nil
		}
		l.requested = Unloaded
		l.loading = false
		if msg.Err != nil {
			l.warning = msg.Err
			return nil
		}
		l.warning = nil
		l.chain = NewRevocationChain(l.daemon, l.vault.Outpoint, msg.Transactions)
		l.section = Acknowledge
	case DirectSignatureMsg:
		switch l.section {
		case Delegate:
			if !l.submitting && l.unvault.OnDirectSignature(msg) {
				return l.shareUnvault()
			}
		case Acknowledge:
			return l.chain.Update(msg)
		}
	case UnvaultTransactionSetMsg:
		if !l.accepts(msg) {
			return nil
		}
		l.submitting = false
		if msg.Err != nil {
			l.warning = msg.Err
			return nil
		}
		l.warning = nil
		l.unvault.NotifySuccess()
	case RevocationTransactionsSetMsg:
		if !l.accepts(msg) {
			return nil
		}
		return l.chain.Update(msg)
	}
	return nil
}

// accepts is true if msg is the response to the submission in flight of the
// running sub-protocol.
func (l *VaultLifecycle) accepts(msg Msg) bool {
	switch msg := msg.(type) {
	case UnvaultTransactionSetMsg:
		return l.section == Delegate && l.submitting &&
			msg.Submission == l.inflight && msg.Outpoint == l.vault.Outpoint &&
			msg.Txid == domain.Txid(l.unvault.Original())
	case RevocationTransactionsSetMsg:
		return l.section == Acknowledge && msg.Outpoint == l.vault.Outpoint &&
			l.chain.accepts(msg)
	}
	return false
}

func (l *VaultLifecycle) shareUnvault() Cmd {
	l.submitting = true
	l.inflight = nextSubmission()
	l.warning = nil
	return setUnvaultTransaction(
		l.daemon, l.inflight, l.vault.Outpoint, l.unvault.Signed(),
	)
}

func (l *VaultLifecycle) teardown() {
	l.unvault = nil
	l.submitting = false
	l.chain = nil
	l.warning = nil
	if l.section == Delegate || l.section == Acknowledge {
		l.section = OnchainTransactions
		if l.txs == nil {
			l.section = Unloaded
		}
	}
}
