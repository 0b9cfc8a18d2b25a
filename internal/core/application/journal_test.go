package application_test

import (
	"fmt"
	"testing"

	"github.com/ark-network/vault/internal/core/application"
	"github.com/ark-network/vault/internal/core/domain"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newRepoManager() *mockRepoManager {
	return &mockRepoManager{
		vaults:     &mockVaultRepository{},
		activities: &mockActivityRepository{},
	}
}

func TestJournal(t *testing.T) {
	t.Run("vaults snapshot", func(t *testing.T) {
		vaults := vaultsFixture()
		daemon := &mockDaemon{}
		daemon.On("ListVaults", mock.Anything, domain.AckStatuses, mock.Anything).
			Return(vaults, nil).Once()
		daemon.On("ListVaults", mock.Anything, domain.AckStatuses, mock.Anything).
			Return(nil, fmt.Errorf("timeout")).Once()
		repoManager := newRepoManager()
		repoManager.vaults.On("SaveVaults", mock.Anything, vaults).
			Return(fmt.Errorf("disk full"))
		repoManager.vaults.On("GetVaults", mock.Anything, domain.AckStatuses).
			Return(nil, fmt.Errorf("disk full"))

		journal := application.NewJournal(daemon, repoManager)

		// Storage failures do not fail the call.
		got, err := journal.ListVaults(ctx, domain.AckStatuses, nil)
		require.NoError(t, err)
		require.Equal(t, vaults, got)

		got, err = journal.ListVaults(ctx, domain.AckStatuses, nil)
		require.Error(t, err)
		require.Nil(t, got)
		repoManager.vaults.AssertNumberOfCalls(t, "SaveVaults", 1)
	})

	t.Run("vaults out of the filter", func(t *testing.T) {
		active := []domain.Vault{
			{Outpoint: outpoint2, Status: domain.Active, Amount: 300000},
		}
		spent := []domain.Vault{
			{Outpoint: outpoint, Status: domain.Spent, Amount: 200000},
		}
		statuses := []domain.VaultStatus{domain.Active}
		daemon := &mockDaemon{}
		daemon.On("ListVaults", mock.Anything, statuses, mock.Anything).
			Return(active, nil)
		daemon.On(
			"ListVaults", mock.Anything, mock.Anything, []domain.Outpoint{outpoint},
		).Return(spent, nil)
		repoManager := newRepoManager()
		repoManager.vaults.On("SaveVaults", mock.Anything, mock.Anything).Return(nil)
		repoManager.vaults.On("GetVaults", mock.Anything, statuses).Return(
			[]domain.Vault{
				{Outpoint: outpoint, Status: domain.Active, Amount: 200000},
				{Outpoint: outpoint2, Status: domain.Active, Amount: 300000},
			}, nil,
		)

		journal := application.NewJournal(daemon, repoManager)

		got, err := journal.ListVaults(ctx, statuses, nil)
		require.NoError(t, err)
		require.Equal(t, active, got)
		repoManager.vaults.AssertCalled(t, "SaveVaults", mock.Anything, active)
		// The cached vault that left the filter gets its new status.
		repoManager.vaults.AssertCalled(t, "SaveVaults", mock.Anything, spent)
		daemon.AssertNumberOfCalls(t, "ListVaults", 2)
	})

	t.Run("submissions", func(t *testing.T) {
		unvaultTx := signPsbt(t, newPsbt(t, 70))
		emergency := signPsbt(t, newPsbt(t, 71))
		emergencyUnvault := signPsbt(t, newPsbt(t, 72))
		cancel := signPsbt(t, newPsbt(t, 73))
		spendTx := signPsbt(t, newPsbt(t, 74))

		daemon := &mockDaemon{}
		daemon.On("SetUnvaultTransaction", mock.Anything, outpoint, unvaultTx).
			Return(fmt.Errorf("rejected"))
		daemon.On(
			"SetRevocationTransactions", mock.Anything, outpoint,
			emergency, emergencyUnvault, cancel,
		).Return(nil)
		daemon.On("UpdateSpendTransaction", mock.Anything, spendTx).Return(nil)
		daemon.On("GetBlockHeight", mock.Anything).Return(uint32(12), nil)

		activities := make([]domain.Activity, 0)
		repoManager := newRepoManager()
		repoManager.activities.On("AddActivity", mock.Anything, mock.Anything).
			Run(func(args mock.Arguments) {
				activities = append(activities, args.Get(1).(domain.Activity))
			}).
			Return(nil)

		journal := application.NewJournal(daemon, repoManager)

		err := journal.SetUnvaultTransaction(ctx, outpoint, unvaultTx)
		require.Error(t, err)
		err = journal.SetRevocationTransactions(ctx, outpoint, emergency, emergencyUnvault, cancel)
		require.NoError(t, err)
		err = journal.UpdateSpendTransaction(ctx, spendTx)
		require.NoError(t, err)

		// Other calls go straight to the daemon.
		height, err := journal.GetBlockHeight(ctx)
		require.NoError(t, err)
		require.Equal(t, uint32(12), height)

		require.Len(t, activities, 5)
		expected := []struct {
			kind    domain.TransactionKind
			txid    string
			outcome domain.ActivityOutcome
		}{
			{domain.Unvault, domain.Txid(unvaultTx).String(), domain.ActivityFailed},
			{domain.Emergency, domain.Txid(emergency).String(), domain.ActivityAccepted},
			{domain.EmergencyUnvault, domain.Txid(emergencyUnvault).String(), domain.ActivityAccepted},
			{domain.Cancel, domain.Txid(cancel).String(), domain.ActivityAccepted},
			{domain.Spend, domain.Txid(spendTx).String(), domain.ActivityAccepted},
		}
		for i, e := range expected {
			activity := activities[i]
			require.NotEmpty(t, activity.Id)
			require.Equal(t, e.kind, activity.Kind)
			require.Equal(t, e.txid, activity.Txid)
			require.Equal(t, e.outcome, activity.Outcome)
		}
		require.Equal(t, "rejected", activities[0].Error)
		require.Equal(t, outpoint, activities[1].Outpoint)
		require.True(t, activities[4].Outpoint.IsZero())
	})
}
