package application_test

import (
	"context"

	"github.com/ark-network/vault/internal/core/domain"
	"github.com/btcsuite/btcd/btcutil/psbt"
	"github.com/stretchr/testify/mock"
)

// **** Daemon ****

type mockDaemon struct {
	mock.Mock
}

func (m *mockDaemon) ListVaults(
	ctx context.Context, statuses []domain.VaultStatus, outpoints []domain.Outpoint,
) ([]domain.Vault, error) {
	args := m.Called(ctx, statuses, outpoints)

	var res []domain.Vault
	if a := args.Get(0); a != nil {
		res = a.([]domain.Vault)
	}
	return res, args.Error(1)
}

func (m *mockDaemon) GetBlockHeight(ctx context.Context) (uint32, error) {
	args := m.Called(ctx)

	var res uint32
	if a := args.Get(0); a != nil {
		res = a.(uint32)
	}
	return res, args.Error(1)
}

func (m *mockDaemon) GetOnchainTransactions(
	ctx context.Context, outpoint domain.Outpoint,
) (*domain.VaultTransactions, error) {
	args := m.Called(ctx, outpoint)

	var res *domain.VaultTransactions
	if a := args.Get(0); a != nil {
		res = a.(*domain.VaultTransactions)
	}
	return res, args.Error(1)
}

func (m *mockDaemon) GetUnvaultTransaction(
	ctx context.Context, outpoint domain.Outpoint,
) (*psbt.Packet, error) {
	args := m.Called(ctx, outpoint)

	var res *psbt.Packet
	if a := args.Get(0); a != nil {
		res = a.(*psbt.Packet)
	}
	return res, args.Error(1)
}

func (m *mockDaemon) GetRevocationTransactions(
	ctx context.Context, outpoint domain.Outpoint,
) (*domain.RevocationTransactions, error) {
	args := m.Called(ctx, outpoint)

	var res *domain.RevocationTransactions
	if a := args.Get(0); a != nil {
		res = a.(*domain.RevocationTransactions)
	}
	return res, args.Error(1)
}

func (m *mockDaemon) SetUnvaultTransaction(
	ctx context.Context, outpoint domain.Outpoint, signed *psbt.Packet,
) error {
	args := m.Called(ctx, outpoint, signed)
	return args.Error(0)
}

func (m *mockDaemon) SetRevocationTransactions(
	ctx context.Context, outpoint domain.Outpoint,
	emergency, emergencyUnvault, cancel *psbt.Packet,
) error {
	args := m.Called(ctx, outpoint, emergency, emergencyUnvault, cancel)
	return args.Error(0)
}

func (m *mockDaemon) GetSpendTransaction(
	ctx context.Context, outpoints []domain.Outpoint,
	outputs map[string]uint64, feerate uint32,
) (*domain.SpendProposalTx, error) {
	args := m.Called(ctx, outpoints, outputs, feerate)

	var res *domain.SpendProposalTx
	if a := args.Get(0); a != nil {
		res = a.(*domain.SpendProposalTx)
	}
	return res, args.Error(1)
}

func (m *mockDaemon) UpdateSpendTransaction(ctx context.Context, ptx *psbt.Packet) error {
	args := m.Called(ctx, ptx)
	return args.Error(0)
}

func (m *mockDaemon) ListSpendTransactions(ctx context.Context) ([]domain.SpendTx, error) {
	args := m.Called(ctx)

	var res []domain.SpendTx
	if a := args.Get(0); a != nil {
		res = a.([]domain.SpendTx)
	}
	return res, args.Error(1)
}

func (m *mockDaemon) Close() {
	m.Called()
}

// **** Signer ****

type mockSigner struct {
	mock.Mock
}

func (m *mockSigner) SignPsbt(
	ctx context.Context, kind domain.TransactionKind, ptx *psbt.Packet,
) (*psbt.Packet, error) {
	args := m.Called(ctx, kind, ptx)

	var res *psbt.Packet
	if a := args.Get(0); a != nil {
		res = a.(*psbt.Packet)
	}
	return res, args.Error(1)
}

func (m *mockSigner) Close() {
	m.Called()
}

// **** Repositories ****

type mockRepoManager struct {
	mock.Mock
	vaults     *mockVaultRepository
	activities *mockActivityRepository
}

func (m *mockRepoManager) Vaults() domain.VaultRepository {
	return m.vaults
}

func (m *mockRepoManager) Activities() domain.ActivityRepository {
	return m.activities
}

func (m *mockRepoManager) Close() {
	m.Called()
}

type mockVaultRepository struct {
	mock.Mock
}

func (m *mockVaultRepository) SaveVaults(ctx context.Context, vaults []domain.Vault) error {
	args := m.Called(ctx, vaults)
	return args.Error(0)
}

func (m *mockVaultRepository) GetVaults(
	ctx context.Context, statuses ...domain.VaultStatus,
) ([]domain.Vault, error) {
	args := m.Called(ctx, statuses)

	var res []domain.Vault
	if a := args.Get(0); a != nil {
		res = a.([]domain.Vault)
	}
	return res, args.Error(1)
}

func (m *mockVaultRepository) GetVault(
	ctx context.Context, outpoint domain.Outpoint,
) (*domain.Vault, error) {
	args := m.Called(ctx, outpoint)

	var res *domain.Vault
	if a := args.Get(0); a != nil {
		res = a.(*domain.Vault)
	}
	return res, args.Error(1)
}

func (m *mockVaultRepository) Close() {
	m.Called()
}

type mockActivityRepository struct {
	mock.Mock
}

func (m *mockActivityRepository) AddActivity(
	ctx context.Context, activity domain.Activity,
) error {
	args := m.Called(ctx, activity)
	return args.Error(0)
}

func (m *mockActivityRepository) GetActivities(
	ctx context.Context, outpoint *domain.Outpoint,
) ([]domain.Activity, error) {
	args := m.Called(ctx, outpoint)

	var res []domain.Activity
	if a := args.Get(0); a != nil {
		res = a.([]domain.Activity)
	}
	return res, args.Error(1)
}

func (m *mockActivityRepository) Close() {
	m.Called()
}

// **** Scheduler ****

type mockScheduler struct {
	mock.Mock
}

func (m *mockScheduler) Start() {
	m.Called()
}

func (m *mockScheduler) Stop() {
	m.Called()
}

func (m *mockScheduler) ScheduleTask(interval int64, immediate bool, task func()) error {
	args := m.Called(interval, immediate, task)
	return args.Error(0)
}
