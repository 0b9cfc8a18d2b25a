package application

import (
	"errors"
	"fmt"

	"github.com/ark-network/vault/internal/core/domain"
	"github.com/ark-network/vault/internal/core/ports"
	"github.com/btcsuite/btcd/btcutil/psbt"
)

const (
	// Direct signing goes through the attached signing module.
	Direct SignMethod = iota
	// Indirect signing expects the operator to paste the signed psbt.
	Indirect
)

var (
	ErrWrongMethod   = errors.New("operation not allowed with the current signing method")
	ErrAlreadyShared = errors.New("transaction already shared")
	ErrNoSigner      = errors.New("no signing module attached")
)

type SignMethod int

func (m SignMethod) String() string {
	if m == Indirect {
		return "indirect"
	}
	return "direct"
}

// SignatureCollector collects the signature of a single transaction, either
// from the attached signer or from a psbt pasted by the operator, and admits
// it only if it signs the very same transaction.
type SignatureCollector struct {
	envelope *domain.Envelope
	method   SignMethod
	input    string
	awaiting bool
	shared   bool
	warning  error
}

func NewSignatureCollector(
	kind domain.TransactionKind, original *psbt.Packet,
) *SignatureCollector {
	return &SignatureCollector{envelope: domain.NewEnvelope(kind, original)}
}

func (c *SignatureCollector) Kind() domain.TransactionKind {
	return c.envelope.Kind()
}

func (c *SignatureCollector) Method() SignMethod {
	return c.method
}

func (c *SignatureCollector) Input() string {
	return c.input
}

func (c *SignatureCollector) Original() *psbt.Packet {
	return c.envelope.Original()
}

func (c *SignatureCollector) Signed() *psbt.Packet {
	return c.envelope.Signed()
}

func (c *SignatureCollector) IsSigned() bool {
	return c.envelope.IsSigned()
}

// IsShared is true once the daemon accepted the signed transaction.
func (c *SignatureCollector) IsShared() bool {
	return c.shared
}

// IsAwaiting is true while a request to the signing module is in flight.
func (c *SignatureCollector) IsAwaiting() bool {
	return c.awaiting
}

func (c *SignatureCollector) Warning() error {
	return c.warning
}

// ChangeMethod toggles between direct and indirect signing. Any pending
// input or signing request is dropped.
func (c *SignatureCollector) ChangeMethod() {
	if c.shared {
		return
	}
	if c.method == Direct {
		c.method = Indirect
	} else {
		c.method = Direct
	}
	c.input = ""
	c.awaiting = false
	c.warning = nil
}

func (c *SignatureCollector) EditInput(input string) {
	if c.method != Indirect {
		return
	}
	c.input = input
}

// Submit validates the base64 psbt pasted by the operator. On failure the
// warning is set and the signed slot is left untouched.
func (c *SignatureCollector) Submit(input string) error {
	if c.shared {
		return ErrAlreadyShared
	}
	if c.method != Indirect {
		return ErrWrongMethod
	}
	c.input = input

	ptx, err := domain.DecodePsbt(input)
	if err != nil {
		c.warning = domain.ErrDecode
		return err
	}
	return c.accept(ptx)
}

// RequestSignature asks signer to sign the original transaction. Only one
// request is in flight at a time.
func (c *SignatureCollector) RequestSignature(signer ports.Signer) (Cmd, error) {
	if c.shared {
		return nil, ErrAlreadyShared
	}
	if c.method != Direct {
		return nil, ErrWrongMethod
	}
	if signer == nil {
		c.warning = ErrNoSigner
		return nil, ErrNoSigner
	}
	if c.awaiting {
		return nil, nil
	}
	c.awaiting = true
	c.warning = nil
	return signPsbt(signer, c.Kind(), c.Original()), nil
}

// OnDirectSignature handles the signing module response and returns whether
// a signature was admitted. Responses the collector is not waiting for are
// ignored.
func (c *SignatureCollector) OnDirectSignature(msg DirectSignatureMsg) bool {
	if !c.awaiting || c.method != Direct || msg.Txid != c.envelope.Txid() {
		return false
	}
	c.awaiting = false
	if msg.Err != nil {
		c.warning = fmt.Errorf("signing module: %w", msg.Err)
		return false
	}
	return c.accept(msg.Psbt) == nil
}

// NotifySuccess marks the signed transaction as shared with the daemon.
func (c *SignatureCollector) NotifySuccess() {
	c.shared = true
	c.awaiting = false
	c.warning = nil
}

func (c *SignatureCollector) accept(ptx *psbt.Packet) error {
	if err := c.envelope.Accept(ptx); err != nil {
		c.warning = err
		return err
	}
	c.warning = nil
	c.input = ""
	return nil
}
