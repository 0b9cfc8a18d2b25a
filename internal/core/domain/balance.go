package domain

const (
	NoBucket BalanceBucket = iota
	ActiveBucket
	InactiveBucket
)

// BalanceBucket is the two-bucket classification of a vault status. Every
// status maps to exactly one bucket, NoBucket included.
type BalanceBucket int

func (s VaultStatus) Bucket() BalanceBucket {
	switch s {
	case Active, Unvaulting, Unvaulted:
		return ActiveBucket
	case Secured, Funded, Unconfirmed:
		return InactiveBucket
	default:
		return NoBucket
	}
}

// CountsInBalance is false for statuses whose funds are neither spendable
// nor at risk.
func (s VaultStatus) CountsInBalance() bool {
	switch s {
	case Unconfirmed, Spent, Spending:
		return false
	default:
		return true
	}
}

type Balance struct {
	Active   uint64
	Inactive uint64
}

type StatusBalance struct {
	Count  int
	Amount uint64
}

// ComputeBalance sums vault amounts into the active and inactive buckets.
func ComputeBalance(vaults []Vault) Balance {
	var balance Balance
	for _, vault := range vaults {
		switch vault.Status.Bucket() {
		case ActiveBucket:
			balance.Active += vault.Amount
		case InactiveBucket:
			balance.Inactive += vault.Amount
		}
	}
	return balance
}

// BalanceByStatus returns count and amount per status, skipping statuses
// excluded from balance.
func BalanceByStatus(vaults []Vault) map[VaultStatus]StatusBalance {
	balance := make(map[VaultStatus]StatusBalance)
	for _, vault := range vaults {
		if !vault.Status.CountsInBalance() {
			continue
		}
		b := balance[vault.Status]
		b.Count++
		b.Amount += vault.Amount
		balance[vault.Status] = b
	}
	return balance
}

func SumByStatus(vaults []Vault, statuses ...VaultStatus) uint64 {
	tot := uint64(0)
	for _, vault := range vaults {
		if vault.Status.IsIn(statuses) {
			tot += vault.Amount
		}
	}
	return tot
}

func FilterByStatus(vaults []Vault, statuses ...VaultStatus) []Vault {
	filtered := make([]Vault, 0, len(vaults))
	for _, vault := range vaults {
		if vault.Status.IsIn(statuses) {
			filtered = append(filtered, vault)
		}
	}
	return filtered
}
