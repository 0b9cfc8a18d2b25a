package application

import (
	"github.com/ark-network/vault/internal/core/domain"
	"github.com/ark-network/vault/internal/core/ports"
)

// VaultSetController holds the vaults matching the current status filter and
// routes events to the lifecycle of the selected one.
type VaultSetController struct {
	daemon ports.Daemon
	signer ports.Signer

	vaults      []domain.Vault
	filter      []domain.VaultStatus
	loading     bool
	seq         uint64
	blockheight uint32
	selected    *VaultLifecycle

	warning error
}

func NewVaultSetController(
	daemon ports.Daemon, signer ports.Signer,
) *VaultSetController {
	filter := make([]domain.VaultStatus, len(domain.CurrentStatuses))
	copy(filter, domain.CurrentStatuses)
	return &VaultSetController{
		daemon: daemon,
		signer: signer,
		filter: filter,
	}
}

func (c *VaultSetController) Init() Cmd {
	return c.Refresh()
}

func (c *VaultSetController) Vaults() []domain.Vault {
	return c.vaults
}

func (c *VaultSetController) Filter() []domain.VaultStatus {
	return c.filter
}

func (c *VaultSetController) IsLoading() bool {
	return c.loading
}

func (c *VaultSetController) Blockheight() uint32 {
	return c.blockheight
}

func (c *VaultSetController) Warning() error {
	return c.warning
}

// Selected is the lifecycle of the selected vault, nil if none is.
func (c *VaultSetController) Selected() *VaultLifecycle {
	return c.selected
}

func (c *VaultSetController) Balance() domain.Balance {
	return domain.ComputeBalance(c.vaults)
}

func (c *VaultSetController) BalanceByStatus() map[domain.VaultStatus]domain.StatusBalance {
	return domain.BalanceByStatus(c.vaults)
}

// ApplyFilter reloads the vaults from the daemon with the given statuses.
// An empty filter matches every status.
func (c *VaultSetController) ApplyFilter(statuses []domain.VaultStatus) Cmd {
	filter := make([]domain.VaultStatus, len(statuses))
	copy(filter, statuses)
	c.filter = filter
	return c.reload()
}

// Refresh reloads the vaults and the block height.
func (c *VaultSetController) Refresh() Cmd {
	return Batch(c.reload(), getBlockHeight(c.daemon))
}

// SelectVault selects the vault with the given outpoint, or deselects it if
// it is already selected.
func (c *VaultSetController) SelectVault(outpoint domain.Outpoint) Cmd {
	if c.selected != nil && c.selected.Outpoint() == outpoint {
		c.selected = nil
		return nil
	}
	for _, vault := range c.vaults {
		if vault.Outpoint == outpoint {
			c.selected = NewVaultLifecycle(c.daemon, c.signer, vault)
			return c.selected.Load()
		}
	}
	return nil
}

func (c *VaultSetController) Deselect() {
	c.selected = nil
}

// Delegate starts the delegation of the selected vault. Requests for another
// vault are ignored.
func (c *VaultSetController) Delegate(outpoint domain.Outpoint) Cmd {
	if c.selected == nil {
		return nil
	}
	return c.selected.Delegate(outpoint)
}

// Acknowledge starts the acknowledgement of the selected vault. Requests for
// another vault are ignored.
func (c *VaultSetController) Acknowledge(outpoint domain.Outpoint) Cmd {
	if c.selected == nil {
		return nil
	}
	return c.selected.Acknowledge(outpoint)
}

func (c *VaultSetController) Update(msg Msg) Cmd {
	switch msg := msg.(type) {
	case RefreshMsg:
		return c.Refresh()
	case VaultsLoadedMsg:
		c.onVaultsLoaded(msg)
		return nil
	case BlockHeightMsg:
		if msg.Err != nil {
			c.warning = msg.Err
			return nil
		}
		c.blockheight = msg.Height
		return nil
	case UnvaultTransactionSetMsg, RevocationTransactionsSetMsg:
		// Only a submission the selected vault was waiting for changes the
		// server side status.
		accepted := c.selected != nil && c.selected.accepts(msg)
		cmd := c.route(msg)
		if !accepted || msgErr(msg) != nil {
			return cmd
		}
		return Batch(cmd, c.reload())
	default:
		return c.route(msg)
	}
}

func (c *VaultSetController) route(msg Msg) Cmd {
	if c.selected == nil {
		return nil
	}
	return c.selected.Update(msg)
}

func msgErr(msg Msg) error {
	switch msg := msg.(type) {
	case UnvaultTransactionSetMsg:
		return msg.Err
	case RevocationTransactionsSetMsg:
		return msg.Err
	}
	return nil
}

func (c *VaultSetController) reload() Cmd {
	c.loading = true
	c.seq++
	return listVaults(c.daemon, c.seq, c.filter)
}

func (c *VaultSetController) onVaultsLoaded(msg VaultsLoadedMsg) {
	if msg.Seq != c.seq {
		return
	}
	c.loading = false
	if msg.Err != nil {
		c.warning = msg.Err
		return
	}
	c.warning = nil
	c.vaults = msg.Vaults
	if c.selected == nil {
		return
	}
	for _, vault := range c.vaults {
		if vault.Outpoint == c.selected.Outpoint() {
			c.selected.Merge(vault)
			return
		}
	}
}
