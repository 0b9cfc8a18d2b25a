package application

import (
	"fmt"

	"github.com/ark-network/vault/internal/core/domain"
	"github.com/ark-network/vault/internal/core/ports"
	"github.com/btcsuite/btcd/btcutil/psbt"
)

var revocationKinds = [3]domain.TransactionKind{
	domain.Emergency, domain.EmergencyUnvault, domain.Cancel,
}

// RevocationChain collects the signatures of the emergency, emergency
// unvault and cancel transactions of a vault, strictly in this order, and
// shares them with the daemon in a single call once all are signed.
type RevocationChain struct {
	daemon   ports.Daemon
	outpoint domain.Outpoint

	members    [3]*domain.Envelope
	signed     [3]bool
	collectors [3]*SignatureCollector
	step       int

	submitting bool
	inflight   uint64
	complete   bool
	warning    error
}

func NewRevocationChain(
	daemon ports.Daemon, outpoint domain.Outpoint,
	txs *domain.RevocationTransactions,
) *RevocationChain {
	c := &RevocationChain{
		daemon:   daemon,
		outpoint: outpoint,
		members: [3]*domain.Envelope{
			domain.NewEnvelope(domain.Emergency, txs.Emergency),
			domain.NewEnvelope(domain.EmergencyUnvault, txs.EmergencyUnvault),
			domain.NewEnvelope(domain.Cancel, txs.Cancel),
		},
	}
	c.collectors[0] = NewSignatureCollector(domain.Emergency, txs.Emergency)
	return c
}

func (c *RevocationChain) Outpoint() domain.Outpoint {
	return c.outpoint
}

// Step is the kind of the transaction being signed.
func (c *RevocationChain) Step() domain.TransactionKind {
	return revocationKinds[c.step]
}

// Active is the collector of the transaction being signed.
func (c *RevocationChain) Active() *SignatureCollector {
	return c.collectors[c.step]
}

// Collector returns the collector of the given member, nil if its step was
// not reached yet.
func (c *RevocationChain) Collector(kind domain.TransactionKind) *SignatureCollector {
	i, ok := memberIndex(kind)
	if !ok {
		return nil
	}
	return c.collectors[i]
}

func (c *RevocationChain) IsSigned(kind domain.TransactionKind) bool {
	i, ok := memberIndex(kind)
	return ok && c.signed[i]
}

func (c *RevocationChain) Signed(kind domain.TransactionKind) *psbt.Packet {
	i, ok := memberIndex(kind)
	if !ok {
		return nil
	}
	return c.members[i].Signed()
}

func (c *RevocationChain) IsSubmitting() bool {
	return c.submitting
}

// IsComplete is true once the daemon accepted the signed chain.
func (c *RevocationChain) IsComplete() bool {
	return c.complete
}

func (c *RevocationChain) Warning() error {
	return c.warning
}

func (c *RevocationChain) isLocked() bool {
	return c.submitting || c.complete
}

func (c *RevocationChain) ChangeMethod() {
	if c.isLocked() {
		return
	}
	c.Active().ChangeMethod()
}

// Submit hands the operator pasted psbt to the active collector. Once
// submitting or complete, the chain ignores any further input.
func (c *RevocationChain) Submit(input string) (Cmd, error) {
	if c.isLocked() {
		return nil, nil
	}
	if err := c.Active().Submit(input); err != nil {
		return nil, err
	}
	return c.advance(), nil
}

// Sign admits a signed psbt for the given member. Signing a member before
// the ones it depends on is rejected with ErrOutOfOrder.
func (c *RevocationChain) Sign(
	kind domain.TransactionKind, signed *psbt.Packet,
) (Cmd, error) {
	if c.isLocked() {
		return nil, nil
	}
	i, ok := memberIndex(kind)
	if !ok {
		return nil, fmt.Errorf("%s is not a revocation transaction", kind)
	}
	if i != c.step || c.signed[i] {
		return nil, fmt.Errorf(
			"%w: got %s while signing %s", domain.ErrOutOfOrder, kind, c.Step(),
		)
	}
	if err := c.Active().accept(signed); err != nil {
		return nil, err
	}
	return c.advance(), nil
}

func (c *RevocationChain) RequestSignature(signer ports.Signer) (Cmd, error) {
	if c.isLocked() {
		return nil, nil
	}
	return c.Active().RequestSignature(signer)
}

// Retry shares again a fully signed chain whose previous submission failed.
func (c *RevocationChain) Retry() Cmd {
	if c.isLocked() || !c.signed[2] {
		return nil
	}
	return c.submit()
}

func (c *RevocationChain) Update(msg Msg) Cmd {
	switch msg := msg.(type) {
	case DirectSignatureMsg:
		if c.isLocked() {
			return nil
		}
		if c.Active().OnDirectSignature(msg) {
			return c.advance()
		}
	case RevocationTransactionsSetMsg:
		return c.onSubmitted(msg)
	}
	return nil
}

// advance records the signature of the active collector and moves on to the
// next member, or submits the chain if the cancel transaction got signed.
func (c *RevocationChain) advance() Cmd {
	active := c.Active()
	// The collector already checked the identity against the same original.
	_ = c.members[c.step].Accept(active.Signed())
	c.signed[c.step] = true

	if c.step < len(c.members)-1 {
		c.step++
		next := NewSignatureCollector(revocationKinds[c.step], c.members[c.step].Original())
		if active.Method() != next.Method() {
			next.ChangeMethod()
		}
		c.collectors[c.step] = next
		return nil
	}
	return c.submit()
}

func (c *RevocationChain) submit() Cmd {
	c.submitting = true
	c.inflight = nextSubmission()
	c.warning = nil
	return setRevocationTransactions(
		c.daemon, c.inflight, c.outpoint,
		c.members[0].Signed(), c.members[1].Signed(), c.members[2].Signed(),
	)
}

func (c *RevocationChain) onSubmitted(msg RevocationTransactionsSetMsg) Cmd {
	if !c.accepts(msg) {
		return nil
	}
	c.submitting = false
	if msg.Err != nil {
		c.warning = msg.Err
		return nil
	}
	c.complete = true
	c.warning = nil
	for _, collector := range c.collectors {
		collector.NotifySuccess()
	}
	return nil
}

// accepts is true if msg is the response to the submission in flight.
func (c *RevocationChain) accepts(msg RevocationTransactionsSetMsg) bool {
	return c.submitting && msg.Submission == c.inflight &&
		msg.Outpoint == c.outpoint && msg.Txid == c.members[2].Txid()
}

func memberIndex(kind domain.TransactionKind) (int, bool) {
	for i, k := range revocationKinds {
		if k == kind {
			return i, true
		}
	}
	return -1, false
}
