package domain

import "context"

// VaultRepository caches the last vault snapshot received from the daemon.
type VaultRepository interface {
	SaveVaults(ctx context.Context, vaults []Vault) error
	GetVaults(ctx context.Context, statuses ...VaultStatus) ([]Vault, error)
	GetVault(ctx context.Context, outpoint Outpoint) (*Vault, error)
	Close()
}

// ActivityRepository journals the signed payloads relayed to the daemon.
type ActivityRepository interface {
	AddActivity(ctx context.Context, activity Activity) error
	GetActivities(ctx context.Context, outpoint *Outpoint) ([]Activity, error)
	Close()
}
