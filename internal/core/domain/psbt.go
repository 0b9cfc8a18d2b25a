package domain

import (
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/btcutil/psbt"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// DecodePsbt parses a base64 encoded psbt. Any failure wraps ErrDecode.
func DecodePsbt(b64 string) (*psbt.Packet, error) {
	b64 = strings.TrimSpace(b64)
	if len(b64) <= 0 {
		return nil, fmt.Errorf("%w: empty payload", ErrDecode)
	}
	ptx, err := psbt.NewFromRawBytes(strings.NewReader(b64), true)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrDecode, err)
	}
	return ptx, nil
}

func EncodePsbt(ptx *psbt.Packet) (string, error) {
	if ptx == nil {
		return "", fmt.Errorf("missing psbt")
	}
	return ptx.B64Encode()
}

// Txid returns the identity of the unsigned transaction wrapped by ptx.
// Signatures live outside the unsigned tx, so signing never changes it.
func Txid(ptx *psbt.Packet) chainhash.Hash {
	return ptx.UnsignedTx.TxHash()
}

func SameTransaction(a, b *psbt.Packet) bool {
	if a == nil || b == nil {
		return false
	}
	return Txid(a) == Txid(b)
}
