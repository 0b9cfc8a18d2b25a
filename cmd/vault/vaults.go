package main

import (
	"context"
	"fmt"

	"github.com/ark-network/vault/internal/core/application"
	"github.com/ark-network/vault/internal/core/domain"
	"github.com/urfave/cli/v2"
)

var (
	statusFlag = &cli.StringSliceFlag{
		Name:  "status",
		Usage: "vault statuses to list, defaults to the vaults holding or moving funds",
	}
	cachedFlag = &cli.BoolFlag{
		Name:  "cached",
		Usage: "list the last snapshot received from the daemon, without contacting it",
	}
)

var vaultsCommand = cli.Command{
	Name:   "vaults",
	Usage:  "List vaults",
	Action: vaultsAction,
	Flags:  []cli.Flag{statusFlag, cachedFlag},
}

var balanceCommand = cli.Command{
	Name:   "balance",
	Usage:  "Show the balance of the vaults",
	Action: balanceAction,
}

var heightCommand = cli.Command{
	Name:   "height",
	Usage:  "Show the current block height",
	Action: heightAction,
}

var txsCommand = cli.Command{
	Name:      "txs",
	Usage:     "Show the onchain transactions of a vault",
	ArgsUsage: "<txid:vout>",
	Action:    txsAction,
}

var activityCommand = cli.Command{
	Name:      "activity",
	Usage:     "Show the transactions shared with the daemon",
	ArgsUsage: "[txid:vout]",
	Action:    activityAction,
}

func vaultsAction(ctx *cli.Context) error {
	statuses, err := domain.ParseVaultStatuses(ctx.StringSlice(statusFlag.Name))
	if err != nil {
		return err
	}

	if ctx.Bool(cachedFlag.Name) {
		if len(statuses) <= 0 {
			statuses = domain.CurrentStatuses
		}
		vaults, err := svc.CachedVaults(ctx.Context, statuses...)
		if err != nil {
			return err
		}
		fmt.Println(renderVaults(vaults))
		return nil
	}

	return loadVaults(ctx.Context, statuses, func(c *application.VaultSetController) {
		fmt.Println(renderVaults(c.Vaults()))
	})
}

func balanceAction(ctx *cli.Context) error {
	return loadVaults(ctx.Context, domain.AllStatuses, func(c *application.VaultSetController) {
		fmt.Println(renderBalance(c.Balance(), c.BalanceByStatus()))
	})
}

func heightAction(ctx *cli.Context) error {
	vaultSet := svc.VaultSet()
	return runProgram(ctx.Context, vaultSet, func(ctx context.Context, p *application.Program) error {
		if err := waitFor(ctx, p, func(c *application.VaultSetController) bool {
			return c.Blockheight() > 0 || c.Warning() != nil
		}); err != nil {
			return err
		}
		return inspect(ctx, p, func(c *application.VaultSetController) {
			if c.Blockheight() <= 0 {
				fmt.Println(warningStyle.Render(c.Warning().Error()))
				return
			}
			fmt.Println(c.Blockheight())
		})
	})
}

func txsAction(ctx *cli.Context) error {
	outpoint, err := parseOutpointArg(ctx)
	if err != nil {
		return err
	}

	vaultSet := svc.VaultSet()
	return runProgram(ctx.Context, vaultSet, func(ctx context.Context, p *application.Program) error {
		if err := selectVault(ctx, p, vaultSet, outpoint); err != nil {
			return err
		}
		if err := waitFor(ctx, p, func(c *application.VaultSetController) bool {
			selected := c.Selected()
			return selected == nil || !selected.IsLoading()
		}); err != nil {
			return err
		}

		var warning error
		if err := inspect(ctx, p, func(c *application.VaultSetController) {
			vault := c.Selected()
			if vault == nil {
				warning = fmt.Errorf("vault %s not selected", outpoint)
				return
			}
			if vault.Transactions() == nil {
				warning = vault.Warning()
				return
			}
			fmt.Println(renderVaults([]domain.Vault{vault.Vault()}))
			fmt.Println()
			fmt.Println(renderTransactions(vault.Transactions()))
		}); err != nil {
			return err
		}
		return warning
	})
}

func activityAction(ctx *cli.Context) error {
	var outpoint *domain.Outpoint
	if ctx.NArg() > 0 {
		op, err := parseOutpointArg(ctx)
		if err != nil {
			return err
		}
		outpoint = &op
	}

	activities, err := svc.Activities(ctx.Context, outpoint)
	if err != nil {
		return err
	}
	fmt.Println(renderActivities(activities))
	return nil
}

// loadVaults lists the vaults in the given statuses, all current ones if
// empty, and hands the loaded controller to show.
func loadVaults(
	ctx context.Context, statuses []domain.VaultStatus,
	show func(*application.VaultSetController),
) error {
	vaultSet := svc.VaultSet()
	return runProgram(ctx, vaultSet, func(ctx context.Context, p *application.Program) error {
		if len(statuses) > 0 {
			if err := p.Do(ctx, func() application.Cmd {
				return vaultSet.ApplyFilter(statuses)
			}); err != nil {
				return err
			}
		}
		if err := waitLoaded(ctx, p); err != nil {
			return err
		}
		return inspect(ctx, p, show)
	})
}

// waitLoaded waits for the last vault listing and fails with its error, if
// any.
func waitLoaded(ctx context.Context, p *application.Program) error {
	if err := waitFor(ctx, p, func(c *application.VaultSetController) bool {
		return !c.IsLoading()
	}); err != nil {
		return err
	}
	var warning error
	if err := inspect(ctx, p, func(c *application.VaultSetController) {
		if c.Vaults() == nil {
			warning = c.Warning()
		}
	}); err != nil {
		return err
	}
	return warning
}

// selectVault waits for the vaults to be loaded and selects the one at
// outpoint.
func selectVault(
	ctx context.Context, p *application.Program,
	vaultSet *application.VaultSetController, outpoint domain.Outpoint,
) error {
	if err := waitLoaded(ctx, p); err != nil {
		return err
	}
	return act(ctx, p, func() (application.Cmd, error) {
		if selected := vaultSet.Selected(); selected != nil && selected.Outpoint() == outpoint {
			return nil, nil
		}
		cmd := vaultSet.SelectVault(outpoint)
		if vaultSet.Selected() == nil {
			return nil, fmt.Errorf("vault %s not found", outpoint)
		}
		return cmd, nil
	})
}
