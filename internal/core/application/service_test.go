package application_test

import (
	"context"
	"testing"
	"time"

	"github.com/ark-network/vault/internal/core/application"
	"github.com/ark-network/vault/internal/core/domain"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestService(t *testing.T) {
	t.Run("invalid", func(t *testing.T) {
		_, err := application.NewService(0, network, 0, nil, nil, nil, newRepoManager())
		require.Error(t, err)
		_, err = application.NewService(0, network, 0, &mockDaemon{}, nil, nil, nil)
		require.Error(t, err)
		_, err = application.NewService(0, nil, 0, &mockDaemon{}, nil, nil, newRepoManager())
		require.Error(t, err)
	})

	t.Run("polling", func(t *testing.T) {
		vaults := vaultsFixture()
		daemon := &mockDaemon{}
		daemon.On("ListVaults", mock.Anything, mock.Anything, mock.Anything).
			Return(vaults, nil)
		daemon.On("GetBlockHeight", mock.Anything).Return(uint32(1), nil)
		repoManager := newRepoManager()
		repoManager.vaults.On("SaveVaults", mock.Anything, vaults).Return(nil)
		repoManager.vaults.On("GetVaults", mock.Anything, mock.Anything).
			Return(vaults, nil)

		var task func()
		scheduler := &mockScheduler{}
		scheduler.On("ScheduleTask", int64(5), false, mock.Anything).
			Run(func(args mock.Arguments) {
				task = args.Get(2).(func())
			}).
			Return(nil)
		scheduler.On("Start").Return()
		scheduler.On("Stop").Return()

		svc, err := application.NewService(
			5, network, 0, daemon, nil, scheduler, repoManager,
		)
		require.NoError(t, err)

		ctrl := svc.VaultSet()
		program := application.NewProgram(ctrl)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		done := make(chan error, 1)
		go func() { done <- svc.Run(ctx, program) }()

		require.NoError(t, program.WaitFor(ctx, func(application.Model) bool {
			return len(ctrl.Vaults()) > 0
		}))
		require.NotNil(t, task)
		task()
		require.NoError(t, program.WaitFor(ctx, func(application.Model) bool {
			return !ctrl.IsLoading()
		}))

		program.Quit()
		require.NoError(t, <-done)
		scheduler.AssertCalled(t, "Start")
		scheduler.AssertCalled(t, "Stop")
		daemon.AssertNumberOfCalls(t, "ListVaults", 2)
		repoManager.vaults.AssertNumberOfCalls(t, "SaveVaults", 2)
	})

	t.Run("cached", func(t *testing.T) {
		vaults := vaultsFixture()
		activities := []domain.Activity{domain.NewActivity(outpoint, domain.Unvault, "txid", nil)}
		repoManager := newRepoManager()
		repoManager.vaults.On("GetVaults", mock.Anything, []domain.VaultStatus{domain.Funded}).
			Return(vaults[:1], nil)
		repoManager.activities.On("GetActivities", mock.Anything, &outpoint).
			Return(activities, nil)

		svc, err := application.NewService(0, network, 0, &mockDaemon{}, nil, nil, repoManager)
		require.NoError(t, err)

		got, err := svc.CachedVaults(ctx, domain.Funded)
		require.NoError(t, err)
		require.Equal(t, vaults[:1], got)

		gotActivities, err := svc.Activities(ctx, &outpoint)
		require.NoError(t, err)
		require.Equal(t, activities, gotActivities)
	})
}
