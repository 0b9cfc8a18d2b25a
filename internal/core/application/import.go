package application

import (
	"github.com/ark-network/vault/internal/core/domain"
	"github.com/ark-network/vault/internal/core/ports"
	"github.com/btcsuite/btcd/btcutil/psbt"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// SpendImporter forwards an already assembled spend pasted by the operator
// to the daemon. There is no original to compare against, any decodable
// psbt is accepted.
type SpendImporter struct {
	daemon ports.Daemon

	input      string
	pending    *psbt.Packet
	imported   *psbt.Packet
	processing bool
	warning    error
}

func NewSpendImporter(daemon ports.Daemon) *SpendImporter {
	return &SpendImporter{daemon: daemon}
}

func (i *SpendImporter) Init() Cmd {
	return nil
}

func (i *SpendImporter) Input() string {
	return i.input
}

// Imported is the psbt accepted by the daemon, nil until then.
func (i *SpendImporter) Imported() *psbt.Packet {
	return i.imported
}

func (i *SpendImporter) IsProcessing() bool {
	return i.processing
}

func (i *SpendImporter) Warning() error {
	return i.warning
}

func (i *SpendImporter) Import(input string) (Cmd, error) {
	if i.processing {
		return nil, nil
	}
	i.input = input
	ptx, err := domain.DecodePsbt(input)
	if err != nil {
		i.warning = domain.ErrDecode
		return nil, err
	}
	i.warning = nil
	i.pending = ptx
	i.processing = true
	return updateSpendTransaction(i.daemon, ptx), nil
}

func (i *SpendImporter) Update(msg Msg) Cmd {
	updated, ok := msg.(SpendTransactionUpdatedMsg)
	if !ok || !i.processing || updated.Txid != i.pendingTxid() {
		return nil
	}
	i.processing = false
	if updated.Err != nil {
		i.warning = updated.Err
		return nil
	}
	i.imported = i.pending
	i.pending = nil
	i.input = ""
	return nil
}

func (i *SpendImporter) pendingTxid() chainhash.Hash {
	if i.pending == nil {
		return chainhash.Hash{}
	}
	return domain.Txid(i.pending)
}
