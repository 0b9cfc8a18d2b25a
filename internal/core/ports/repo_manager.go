package ports

import "github.com/ark-network/vault/internal/core/domain"

type RepoManager interface {
	Vaults() domain.VaultRepository
	Activities() domain.ActivityRepository
	Close()
}
