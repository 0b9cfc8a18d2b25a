package domain_test

import (
	"testing"

	"github.com/ark-network/vault/internal/core/domain"
	"github.com/stretchr/testify/require"
)

func TestBalance(t *testing.T) {
	vaults := make([]domain.Vault, 0, len(domain.AllStatuses))
	for i, status := range domain.AllStatuses {
		vaults = append(vaults, domain.Vault{
			Outpoint: domain.Outpoint{Txid: txid, VOut: uint32(i)},
			Status:   status,
			Amount:   uint64(1000 * (i + 1)),
		})
	}
	amountOf := func(status domain.VaultStatus) uint64 {
		for _, v := range vaults {
			if v.Status == status {
				return v.Amount
			}
		}
		return 0
	}

	t.Run("buckets", func(t *testing.T) {
		balance := domain.ComputeBalance(vaults)

		expectedActive := amountOf(domain.Active) +
			amountOf(domain.Unvaulting) + amountOf(domain.Unvaulted)
		expectedInactive := amountOf(domain.Secured) +
			amountOf(domain.Funded) + amountOf(domain.Unconfirmed)
		require.Equal(t, expectedActive, balance.Active)
		require.Equal(t, expectedInactive, balance.Inactive)

		// Every status lands in exactly one bucket.
		for _, status := range domain.AllStatuses {
			inActive := status.IsIn(domain.ActiveStatuses)
			inInactive := status.IsIn(domain.InactiveStatuses)
			require.False(t, inActive && inInactive)
			switch {
			case inActive:
				require.Equal(t, domain.ActiveBucket, status.Bucket())
			case inInactive:
				require.Equal(t, domain.InactiveBucket, status.Bucket())
			default:
				require.Equal(t, domain.NoBucket, status.Bucket())
			}
		}

		require.Equal(t, balance, domain.ComputeBalance(vaults))
		require.Zero(t, domain.ComputeBalance(nil))
	})

	t.Run("by_status", func(t *testing.T) {
		vaults := append(vaults, domain.Vault{
			Outpoint: domain.Outpoint{Txid: txid2, VOut: 0},
			Status:   domain.Active,
			Amount:   500,
		})
		balance := domain.BalanceByStatus(vaults)

		require.NotContains(t, balance, domain.Unconfirmed)
		require.NotContains(t, balance, domain.Spent)
		require.NotContains(t, balance, domain.Spending)
		require.Equal(t, domain.StatusBalance{
			Count: 2, Amount: amountOf(domain.Active) + 500,
		}, balance[domain.Active])
		require.Equal(t, domain.StatusBalance{
			Count: 1, Amount: amountOf(domain.Funded),
		}, balance[domain.Funded])
	})

	t.Run("sum_and_filter", func(t *testing.T) {
		sum := domain.SumByStatus(vaults, domain.Funded, domain.Securing)
		require.Equal(t, amountOf(domain.Funded)+amountOf(domain.Securing), sum)
		require.Zero(t, domain.SumByStatus(vaults))

		filtered := domain.FilterByStatus(vaults, domain.MovingStatuses...)
		require.Len(t, filtered, len(domain.MovingStatuses))
		for _, v := range filtered {
			require.True(t, v.Status.IsIn(domain.MovingStatuses))
		}
	})
}
