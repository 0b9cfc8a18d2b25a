package application

import (
	"github.com/ark-network/vault/internal/core/domain"
	"github.com/ark-network/vault/internal/core/ports"
)

// SpendTransactions lists the spends known to the daemon and collects the
// signature of the selected one.
type SpendTransactions struct {
	daemon ports.Daemon
	signer ports.Signer

	txs        []domain.SpendTx
	loading    bool
	selected   *domain.SpendTx
	collector  *SignatureCollector
	submitting bool
	warning    error
}

func NewSpendTransactions(daemon ports.Daemon, signer ports.Signer) *SpendTransactions {
	return &SpendTransactions{daemon: daemon, signer: signer}
}

func (s *SpendTransactions) Init() Cmd {
	s.loading = true
	return listSpendTransactions(s.daemon)
}

func (s *SpendTransactions) Transactions() []domain.SpendTx {
	return s.txs
}

func (s *SpendTransactions) IsLoading() bool {
	return s.loading
}

func (s *SpendTransactions) Selected() *domain.SpendTx {
	return s.selected
}

func (s *SpendTransactions) Collector() *SignatureCollector {
	return s.collector
}

func (s *SpendTransactions) IsSubmitting() bool {
	return s.submitting
}

func (s *SpendTransactions) Warning() error {
	return s.warning
}

// Select selects the spend with the given txid, or deselects it if it is
// already selected.
func (s *SpendTransactions) Select(txid string) {
	if s.submitting {
		return
	}
	if s.selected != nil && s.selected.Txid() == txid {
		s.selected = nil
		s.collector = nil
		return
	}
	for _, tx := range s.txs {
		if tx.Txid() == txid {
			tx := tx
			s.selected = &tx
			s.collector = NewSignatureCollector(domain.Spend, tx.Psbt)
			s.warning = nil
			return
		}
	}
}

func (s *SpendTransactions) ChangeMethod() {
	if s.collector == nil || s.submitting {
		return
	}
	s.collector.ChangeMethod()
}

func (s *SpendTransactions) Submit(input string) (Cmd, error) {
	if s.collector == nil || s.submitting {
		return nil, nil
	}
	if err := s.collector.Submit(input); err != nil {
		return nil, err
	}
	return s.share(), nil
}

func (s *SpendTransactions) RequestSignature() (Cmd, error) {
	if s.collector == nil || s.submitting {
		return nil, nil
	}
	return s.collector.RequestSignature(s.signer)
}

func (s *SpendTransactions) Update(msg Msg) Cmd {
	switch msg := msg.(type) {
	case RefreshMsg:
		return s.Init()
	case SpendTransactionsMsg:
		s.loading = false
		if msg.Err != nil {
			s.warning = msg.Err
			return nil
		}
		s.txs = msg.Transactions
	case DirectSignatureMsg:
		if s.collector == nil || s.submitting {
			return nil
		}
		if s.collector.OnDirectSignature(msg) {
			return s.share()
		}
	case SpendTransactionUpdatedMsg:
		if s.collector == nil || !s.submitting ||
			msg.Txid != domain.Txid(s.collector.Original()) {
			return nil
		}
		s.submitting = false
		if msg.Err != nil {
			s.warning = msg.Err
			return nil
		}
		s.warning = nil
		s.collector.NotifySuccess()
		return s.Init()
	}
	return nil
}

func (s *SpendTransactions) share() Cmd {
	s.submitting = true
	s.warning = nil
	return updateSpendTransaction(s.daemon, s.collector.Signed())
}
