package db_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ark-network/vault/internal/core/domain"
	"github.com/ark-network/vault/internal/core/ports"
	"github.com/ark-network/vault/internal/infrastructure/db"
	"github.com/stretchr/testify/require"
)

var (
	ctx = context.Background()

	outpoint  = domain.Outpoint{Txid: "3f4ca8cf69a6d8e8e5b2abde41a8e0a6c9f4f02e44f7e2a4c3df1b6dca5a8e10", VOut: 0}
	outpoint2 = domain.Outpoint{Txid: "7e6b4f1a2c3d9e8f0a1b2c3d4e5f60718293a4b5c6d7e8f90a1b2c3d4e5f6071", VOut: 1}
	outpoint3 = domain.Outpoint{Txid: "c0ffee00c0ffee00c0ffee00c0ffee00c0ffee00c0ffee00c0ffee00c0ffee00", VOut: 2}
)

func TestService(t *testing.T) {
	dbDir := t.TempDir()
	tests := []struct {
		name   string
		config db.ServiceConfig
	}{
		{
			name: "repo_manager_with_badger_stores",
			config: db.ServiceConfig{
				DataStoreType:   "badger",
				DataStoreConfig: []interface{}{"", nil},
			},
		},
		{
			name: "repo_manager_with_sqlite_stores",
			config: db.ServiceConfig{
				DataStoreType:   "sqlite",
				DataStoreConfig: []interface{}{dbDir},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := db.NewService(tt.config)
			require.NoError(t, err)
			defer svc.Close()

			testVaultRepository(t, svc)
			testActivityRepository(t, svc)
		})
	}
}

func TestServiceInvalidStore(t *testing.T) {
	svc, err := db.NewService(db.ServiceConfig{DataStoreType: "postgres"})
	require.Error(t, err)
	require.Nil(t, svc)
}

func testVaultRepository(t *testing.T, svc ports.RepoManager) {
	t.Run("test_vault_repository", func(t *testing.T) {
		repo := svc.Vaults()
		now := time.Now()

		vaults, err := repo.GetVaults(ctx)
		require.NoError(t, err)
		require.Empty(t, vaults)

		_, err = repo.GetVault(ctx, outpoint)
		require.Error(t, err)

		snapshot := []domain.Vault{
			{
				Outpoint:    outpoint,
				Status:      domain.Funded,
				Amount:      200000,
				Address:     "bcrt1qfunded",
				Blockheight: 101,
				ReceivedAt:  now.Add(-2 * time.Hour),
				UpdatedAt:   now,
			},
			{
				Outpoint:        outpoint2,
				Status:          domain.Active,
				Amount:          300000,
				Address:         "bcrt1qactive",
				DerivationIndex: 3,
				ReceivedAt:      now.Add(-time.Hour),
				UpdatedAt:       now,
			},
		}
		require.NoError(t, repo.SaveVaults(ctx, snapshot))

		vaults, err = repo.GetVaults(ctx)
		require.NoError(t, err)
		require.Len(t, vaults, 2)
		require.Equal(t, outpoint, vaults[0].Outpoint)
		require.Equal(t, outpoint2, vaults[1].Outpoint)

		vault, err := repo.GetVault(ctx, outpoint2)
		require.NoError(t, err)
		require.Equal(t, domain.Active, vault.Status)
		require.Equal(t, uint64(300000), vault.Amount)
		require.Equal(t, uint32(3), vault.DerivationIndex)
		require.Equal(t, snapshot[1].ReceivedAt.Unix(), vault.ReceivedAt.Unix())

		// A fresher snapshot overwrites the cached vault.
		snapshot[0].Status = domain.Secured
		require.NoError(t, repo.SaveVaults(ctx, snapshot[:1]))
		require.NoError(t, repo.SaveVaults(ctx, []domain.Vault{{
			Outpoint:   outpoint3,
			Status:     domain.Spent,
			Amount:     100000,
			ReceivedAt: now,
			UpdatedAt:  now,
		}}))

		vaults, err = repo.GetVaults(ctx, domain.Secured, domain.Active)
		require.NoError(t, err)
		require.Len(t, vaults, 2)
		require.Equal(t, domain.Secured, vaults[0].Status)

		vaults, err = repo.GetVaults(ctx, domain.Spent)
		require.NoError(t, err)
		require.Len(t, vaults, 1)
		require.Equal(t, outpoint3, vaults[0].Outpoint)

		vaults, err = repo.GetVaults(ctx, domain.Canceled)
		require.NoError(t, err)
		require.Empty(t, vaults)
	})
}

func testActivityRepository(t *testing.T, svc ports.RepoManager) {
	t.Run("test_activity_repository", func(t *testing.T) {
		repo := svc.Activities()

		activities, err := repo.GetActivities(ctx, nil)
		require.NoError(t, err)
		require.Empty(t, activities)

		first := domain.NewActivity(outpoint, domain.Unvault, outpoint3.Txid, nil)
		second := domain.NewActivity(
			outpoint2, domain.Cancel, outpoint.Txid, errors.New("connection refused"),
		)
		second.CreatedAt = first.CreatedAt.Add(time.Second)
		third := domain.NewActivity(domain.Outpoint{}, domain.Spend, outpoint2.Txid, nil)
		third.CreatedAt = first.CreatedAt.Add(2 * time.Second)

		require.NoError(t, repo.AddActivity(ctx, third))
		require.NoError(t, repo.AddActivity(ctx, first))
		require.NoError(t, repo.AddActivity(ctx, second))

		activities, err = repo.GetActivities(ctx, nil)
		require.NoError(t, err)
		require.Len(t, activities, 3)
		require.Equal(t, first.Id, activities[0].Id)
		require.Equal(t, second.Id, activities[1].Id)
		require.Equal(t, third.Id, activities[2].Id)
		require.Equal(t, domain.Spend, activities[2].Kind)

		activities, err = repo.GetActivities(ctx, &outpoint2)
		require.NoError(t, err)
		require.Len(t, activities, 1)
		require.Equal(t, domain.ActivityFailed, activities[0].Outcome)
		require.Equal(t, "connection refused", activities[0].Error)
		require.Equal(t, domain.Cancel, activities[0].Kind)
		require.Equal(t, outpoint.Txid, activities[0].Txid)
	})
}
