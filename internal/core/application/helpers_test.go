package application_test

import (
	"context"
	"strings"
	"testing"

	"github.com/ark-network/vault/internal/core/application"
	"github.com/ark-network/vault/internal/core/domain"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/btcutil/psbt"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var (
	ctx       = context.Background()
	network   = &chaincfg.RegressionNetParams
	outpoint  = domain.Outpoint{Txid: strings.Repeat("a", 64), VOut: 0}
	outpoint2 = domain.Outpoint{Txid: strings.Repeat("b", 64), VOut: 1}
	outpoint3 = domain.Outpoint{Txid: strings.Repeat("c", 64), VOut: 2}
)

func newPsbt(t *testing.T, seed byte) *psbt.Packet {
	ptx, err := psbt.New(
		[]*wire.OutPoint{{Hash: chainhash.Hash{seed}, Index: 0}},
		[]*wire.TxOut{wire.NewTxOut(100000, []byte{0x51})},
		2, 0, []uint32{wire.MaxTxInSequenceNum},
	)
	require.NoError(t, err)
	return ptx
}

// signPsbt returns a copy of ptx with a finalized input, same unsigned tx.
func signPsbt(t *testing.T, ptx *psbt.Packet) *psbt.Packet {
	signed, err := domain.DecodePsbt(b64(t, ptx))
	require.NoError(t, err)
	signed.Inputs[0].FinalScriptSig = []byte{0x51}
	return signed
}

func b64(t *testing.T, ptx *psbt.Packet) string {
	str, err := domain.EncodePsbt(ptx)
	require.NoError(t, err)
	return str
}

// signedVersionOf matches a signed psbt of the same transaction as ptx.
func signedVersionOf(ptx *psbt.Packet) interface{} {
	return mock.MatchedBy(func(p *psbt.Packet) bool {
		return domain.SameTransaction(p, ptx) && p.Inputs[0].FinalScriptSig != nil
	})
}

func newAddress(t *testing.T, seed byte, params *chaincfg.Params) string {
	hash := make([]byte, 20)
	hash[0] = seed
	addr, err := btcutil.NewAddressWitnessPubKeyHash(hash, params)
	require.NoError(t, err)
	return addr.EncodeAddress()
}

// exec runs cmd and the cmds of any batch it returns, collecting the final
// messages.
func exec(t *testing.T, cmd application.Cmd) []application.Msg {
	require.NotNil(t, cmd)
	msg := cmd(ctx)
	if cmds, ok := application.ExpandBatch(msg); ok {
		msgs := make([]application.Msg, 0, len(cmds))
		for _, c := range cmds {
			msgs = append(msgs, exec(t, c)...)
		}
		return msgs
	}
	return []application.Msg{msg}
}

// execOne runs cmd and expects a single message.
func execOne(t *testing.T, cmd application.Cmd) application.Msg {
	msgs := exec(t, cmd)
	require.Len(t, msgs, 1)
	return msgs[0]
}

// feed executes cmd and hands every resulting message back to model,
// until no more cmds are returned.
func feed(t *testing.T, model application.Model, cmd application.Cmd) {
	for cmd != nil {
		cmds := make([]application.Cmd, 0)
		for _, msg := range exec(t, cmd) {
			if next := model.Update(msg); next != nil {
				cmds = append(cmds, next)
			}
		}
		cmd = application.Batch(cmds...)
	}
}

func vaultsFixture() []domain.Vault {
	return []domain.Vault{
		{Outpoint: outpoint, Status: domain.Funded, Amount: 200000},
		{Outpoint: outpoint2, Status: domain.Active, Amount: 300000},
		{Outpoint: outpoint3, Status: domain.Unvaulting, Amount: 100000},
	}
}
