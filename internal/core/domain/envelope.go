package domain

import (
	"github.com/btcsuite/btcd/btcutil/psbt"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// Envelope wraps a psbt awaiting signatures. The original psbt never changes
// and a signed psbt is accepted only if it spends the same unsigned tx.
type Envelope struct {
	kind     TransactionKind
	original *psbt.Packet
	signed   *psbt.Packet
}

func NewEnvelope(kind TransactionKind, original *psbt.Packet) *Envelope {
	return &Envelope{kind: kind, original: original}
}

func (e *Envelope) Kind() TransactionKind {
	return e.kind
}

func (e *Envelope) Original() *psbt.Packet {
	return e.original
}

func (e *Envelope) Signed() *psbt.Packet {
	return e.signed
}

func (e *Envelope) IsSigned() bool {
	return e.signed != nil
}

func (e *Envelope) Txid() chainhash.Hash {
	return Txid(e.original)
}

// Accept stores signed if its identity matches the original one, otherwise
// the envelope is left untouched.
func (e *Envelope) Accept(signed *psbt.Packet) error {
	if !SameTransaction(e.original, signed) {
		return ErrIdentityMismatch
	}
	e.signed = signed
	return nil
}
