package application

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ark-network/vault/internal/core/domain"
	"github.com/ark-network/vault/internal/core/ports"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/shopspring/decimal"
)

const (
	SelectOutputs SpendStep = iota
	SelectInputs
	SelectFee
	Sign
	Success
)

const DefaultFeerate = uint32(20)

// ErrProcessing is returned when editing the feerate while the daemon is
// building the spend transaction.
var ErrProcessing = errors.New("spend transaction is being built")

type SpendStep int

func (s SpendStep) String() string {
	switch s {
	case SelectOutputs:
		return "select outputs"
	case SelectInputs:
		return "select inputs"
	case SelectFee:
		return "select fee"
	case Sign:
		return "sign"
	case Success:
		return "success"
	default:
		return "unknown"
	}
}

// Output is a recipient of a spend proposal as typed by the operator. The
// amount is in BTC.
type Output struct {
	Address        string
	Amount         string
	AddressWarning error
	AmountWarning  error
}

func (o Output) IsBlank() bool {
	return o.Address == "" && o.Amount == ""
}

func (o Output) IsValid() bool {
	return o.Address != "" && o.Amount != "" &&
		o.AddressWarning == nil && o.AmountWarning == nil
}

// SpendProposalBuilder assembles inputs, outputs and feerate of a spend,
// has the daemon build it and collects its signature. Any edit drops the
// spend built so far.
type SpendProposalBuilder struct {
	daemon  ports.Daemon
	signer  ports.Signer
	network *chaincfg.Params

	step     SpendStep
	inputs   []domain.Vault
	selected map[domain.Outpoint]bool
	loading  bool
	outputs  []Output
	feerate  uint32

	processing bool
	revision   uint64
	inflight   uint64
	proposal   *domain.SpendProposalTx

	collector  *SignatureCollector
	submitting bool

	warning error
}

func NewSpendProposalBuilder(
	daemon ports.Daemon, signer ports.Signer, network *chaincfg.Params,
	feerate uint32,
) *SpendProposalBuilder {
	if feerate == 0 {
		feerate = DefaultFeerate
	}
	return &SpendProposalBuilder{
		daemon:   daemon,
		signer:   signer,
		network:  network,
		selected: make(map[domain.Outpoint]bool),
		outputs:  []Output{{}},
		feerate:  feerate,
	}
}

// Init loads the active vaults, the only ones that can be spent.
func (b *SpendProposalBuilder) Init() Cmd {
	b.loading = true
	return listInputs(b.daemon)
}

func (b *SpendProposalBuilder) Step() SpendStep {
	return b.step
}

func (b *SpendProposalBuilder) Inputs() []domain.Vault {
	return b.inputs
}

func (b *SpendProposalBuilder) IsLoading() bool {
	return b.loading
}

func (b *SpendProposalBuilder) IsSelected(outpoint domain.Outpoint) bool {
	return b.selected[outpoint]
}

// SelectedInputs returns the selected outpoints in the order the inputs were
// loaded.
func (b *SpendProposalBuilder) SelectedInputs() []domain.Outpoint {
	outpoints := make([]domain.Outpoint, 0, len(b.selected))
	for _, vault := range b.inputs {
		if b.selected[vault.Outpoint] {
			outpoints = append(outpoints, vault.Outpoint)
		}
	}
	return outpoints
}

func (b *SpendProposalBuilder) Outputs() []Output {
	return b.outputs
}

func (b *SpendProposalBuilder) Feerate() uint32 {
	return b.feerate
}

func (b *SpendProposalBuilder) IsProcessing() bool {
	return b.processing
}

// Proposal is the spend built by the daemon for the current inputs,
// outputs and feerate, nil if there is none.
func (b *SpendProposalBuilder) Proposal() *domain.SpendProposalTx {
	return b.proposal
}

func (b *SpendProposalBuilder) Collector() *SignatureCollector {
	return b.collector
}

func (b *SpendProposalBuilder) IsSubmitting() bool {
	return b.submitting
}

func (b *SpendProposalBuilder) Warning() error {
	return b.warning
}

// InputAmount is the sum of the selected inputs in sats.
func (b *SpendProposalBuilder) InputAmount() uint64 {
	tot := uint64(0)
	for _, vault := range b.inputs {
		if b.selected[vault.Outpoint] {
			tot += vault.Amount
		}
	}
	return tot
}

// OutputAmount is the sum of the valid outputs in sats.
func (b *SpendProposalBuilder) OutputAmount() uint64 {
	tot := uint64(0)
	for _, out := range b.outputs {
		if !out.IsValid() {
			continue
		}
		amount, _ := parseBtcAmount(out.Amount)
		tot += amount
	}
	return tot
}

func (b *SpendProposalBuilder) SelectInput(outpoint domain.Outpoint, selected bool) {
	if b.isLocked() {
		return
	}
	found := false
	for _, vault := range b.inputs {
		if vault.Outpoint == outpoint {
			found = true
			break
		}
	}
	if !found {
		return
	}
	if selected {
		b.selected[outpoint] = true
	} else {
		delete(b.selected, outpoint)
	}
	b.invalidate()
}

func (b *SpendProposalBuilder) AddOutput() {
	if b.isLocked() {
		return
	}
	b.outputs = append(b.outputs, Output{})
	b.invalidate()
}

func (b *SpendProposalBuilder) RemoveOutput(index int) {
	if b.isLocked() || index < 0 || index >= len(b.outputs) {
		return
	}
	b.outputs = append(b.outputs[:index], b.outputs[index+1:]...)
	b.invalidate()
}

func (b *SpendProposalBuilder) EditOutputAddress(index int, address string) {
	if b.isLocked() || index < 0 || index >= len(b.outputs) {
		return
	}
	address = strings.TrimSpace(address)
	b.outputs[index].Address = address
	b.outputs[index].AddressWarning = validateAddress(address, b.network)
	b.invalidate()
}

func (b *SpendProposalBuilder) EditOutputAmount(index int, amount string) {
	if b.isLocked() || index < 0 || index >= len(b.outputs) {
		return
	}
	amount = strings.TrimSpace(amount)
	b.outputs[index].Amount = amount
	_, b.outputs[index].AmountWarning = parseBtcAmount(amount)
	b.invalidate()
}

// EditFeerate is rejected while the daemon is building the spend.
func (b *SpendProposalBuilder) EditFeerate(feerate uint32) error {
	if b.processing {
		return ErrProcessing
	}
	if b.isLocked() {
		return nil
	}
	if feerate == 0 {
		return fmt.Errorf("%w: feerate must be greater than zero", domain.ErrValidation)
	}
	b.feerate = feerate
	b.invalidate()
	return nil
}

// Generate asks the daemon to build the spend. It fails without calling the
// daemon if nothing is selected or an output is invalid. Only one request
// is in flight at a time.
func (b *SpendProposalBuilder) Generate() (Cmd, error) {
	if b.processing || b.isLocked() {
		return nil, nil
	}
	outpoints := b.SelectedInputs()
	if len(outpoints) <= 0 {
		b.warning = domain.ErrEmptySelection
		return nil, domain.ErrEmptySelection
	}
	outputs := make(map[string]uint64, len(b.outputs))
	for i, out := range b.outputs {
		if out.IsBlank() {
			continue
		}
		if err := validateAddress(out.Address, b.network); err != nil {
			b.warning = fmt.Errorf("output %d: %w", i, err)
			return nil, b.warning
		}
		amount, err := parseBtcAmount(out.Amount)
		if err != nil {
			b.warning = fmt.Errorf("output %d: %w", i, err)
			return nil, b.warning
		}
		outputs[out.Address] = amount
	}
	if len(outputs) <= 0 {
		b.warning = domain.ErrEmptySelection
		return nil, domain.ErrEmptySelection
	}

	b.processing = true
	b.inflight = b.revision
	b.warning = nil
	return getSpendTransaction(b.daemon, b.revision, outpoints, outputs, b.feerate), nil
}

// Next moves the wizard forward if the current step is filled in.
func (b *SpendProposalBuilder) Next() error {
	switch b.step {
	case SelectOutputs:
		if len(b.outputs) <= 0 {
			return domain.ErrEmptySelection
		}
		for i, out := range b.outputs {
			if !out.IsValid() {
				return fmt.Errorf("%w: output %d is not complete", domain.ErrValidation, i)
			}
		}
		b.step = SelectInputs
	case SelectInputs:
		if len(b.selected) <= 0 {
			return domain.ErrEmptySelection
		}
		b.step = SelectFee
	case SelectFee:
		if b.proposal == nil {
			return fmt.Errorf("spend transaction not built yet")
		}
		b.collector = NewSignatureCollector(domain.Spend, b.proposal.Psbt)
		b.step = Sign
	}
	return nil
}

func (b *SpendProposalBuilder) Previous() {
	switch b.step {
	case SelectInputs:
		b.step = SelectOutputs
	case SelectFee:
		b.step = SelectInputs
	case Sign:
		if b.submitting {
			return
		}
		b.collector = nil
		b.step = SelectFee
	}
}

func (b *SpendProposalBuilder) ChangeMethod() {
	if b.collector == nil || b.submitting {
		return
	}
	b.collector.ChangeMethod()
}

func (b *SpendProposalBuilder) Submit(input string) (Cmd, error) {
	if b.collector == nil || b.submitting {
		return nil, nil
	}
	if err := b.collector.Submit(input); err != nil {
		return nil, err
	}
	return b.share(), nil
}

func (b *SpendProposalBuilder) RequestSignature() (Cmd, error) {
	if b.collector == nil || b.submitting {
		return nil, nil
	}
	return b.collector.RequestSignature(b.signer)
}

// Retry shares again a signed spend whose update failed.
func (b *SpendProposalBuilder) Retry() Cmd {
	if b.collector == nil || b.submitting ||
		!b.collector.IsSigned() || b.collector.IsShared() {
		return nil
	}
	return b.share()
}

func (b *SpendProposalBuilder) Update(msg Msg) Cmd {
	switch msg := msg.(type) {
	case InputsLoadedMsg:
		b.loading = false
		if msg.Err != nil {
			b.warning = msg.Err
			return nil
		}
		b.inputs = msg.Vaults
		for outpoint := range b.selected {
			if !containsOutpoint(b.inputs, outpoint) {
				delete(b.selected, outpoint)
			}
		}
	case SpendTransactionMsg:
		if !b.processing || msg.Revision != b.inflight {
			return nil
		}
		b.processing = false
		// The proposal was edited while the daemon was building it.
		if msg.Revision != b.revision {
			return nil
		}
		if msg.Err != nil {
			b.warning = msg.Err
			return nil
		}
		b.warning = nil
		b.proposal = msg.Transaction
	case DirectSignatureMsg:
		if b.collector == nil || b.submitting {
			return nil
		}
		if b.collector.OnDirectSignature(msg) {
			return b.share()
		}
	case SpendTransactionUpdatedMsg:
		if b.collector == nil || !b.submitting ||
			msg.Txid != domain.Txid(b.collector.Original()) {
			return nil
		}
		b.submitting = false
		if msg.Err != nil {
			b.warning = msg.Err
			return nil
		}
		b.warning = nil
		b.collector.NotifySuccess()
		b.proposal = &domain.SpendProposalTx{
			Psbt: b.collector.Signed(), Feerate: b.proposal.Feerate,
		}
		b.step = Success
	}
	return nil
}

func (b *SpendProposalBuilder) share() Cmd {
	b.submitting = true
	b.warning = nil
	return updateSpendTransaction(b.daemon, b.collector.Signed())
}

// isLocked is true once the spend entered the signing step.
func (b *SpendProposalBuilder) isLocked() bool {
	return b.step >= Sign
}

func (b *SpendProposalBuilder) invalidate() {
	b.revision++
	b.proposal = nil
}

func validateAddress(address string, network *chaincfg.Params) error {
	if address == "" {
		return fmt.Errorf("%w: missing address", domain.ErrValidation)
	}
	addr, err := btcutil.DecodeAddress(address, network)
	if err != nil {
		return fmt.Errorf("%w: invalid address: %s", domain.ErrValidation, err)
	}
	if !addr.IsForNet(network) {
		return fmt.Errorf(
			"%w: address is not for network %s", domain.ErrValidation, network.Name,
		)
	}
	return nil
}

// parseBtcAmount converts a BTC denominated amount into sats.
func parseBtcAmount(amount string) (uint64, error) {
	if amount == "" {
		return 0, fmt.Errorf("%w: missing amount", domain.ErrValidation)
	}
	btc, err := decimal.NewFromString(amount)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid amount %q", domain.ErrValidation, amount)
	}
	sats := btc.Shift(8)
	if !sats.IsInteger() {
		return 0, fmt.Errorf(
			"%w: amount must have at most 8 decimal places", domain.ErrValidation,
		)
	}
	if !sats.IsPositive() {
		return 0, fmt.Errorf("%w: amount must be greater than zero", domain.ErrValidation)
	}
	if sats.GreaterThan(decimal.NewFromInt(btcutil.MaxSatoshi)) {
		return 0, fmt.Errorf("%w: amount exceeds max supply", domain.ErrValidation)
	}
	return uint64(sats.IntPart()), nil
}

func containsOutpoint(vaults []domain.Vault, outpoint domain.Outpoint) bool {
	for _, vault := range vaults {
		if vault.Outpoint == outpoint {
			return true
		}
	}
	return false
}
