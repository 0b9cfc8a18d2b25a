package main

import (
	"context"
	"fmt"

	"github.com/ark-network/vault/internal/core/application"
	"github.com/ark-network/vault/internal/core/domain"
	"github.com/urfave/cli/v2"
)

var ackCommand = cli.Command{
	Name:      "ack",
	Usage:     "Sign the revocation transactions of a vault",
	ArgsUsage: "<txid:vout>",
	Action:    ackAction,
	Flags:     []cli.Flag{directFlag},
}

var delegateCommand = cli.Command{
	Name:      "delegate",
	Usage:     "Sign the unvault transaction of a vault to delegate it to the managers",
	ArgsUsage: "<txid:vout>",
	Action:    delegateAction,
	Flags:     []cli.Flag{directFlag},
}

func ackAction(ctx *cli.Context) error {
	outpoint, err := parseOutpointArg(ctx)
	if err != nil {
		return err
	}
	direct := ctx.Bool(directFlag.Name)

	vaultSet := svc.VaultSet()
	return runProgram(ctx.Context, vaultSet, func(ctx context.Context, p *application.Program) error {
		if err := selectVault(ctx, p, vaultSet, outpoint); err != nil {
			return err
		}
		if err := openSection(ctx, p, vaultSet, application.Acknowledge, func() application.Cmd {
			return vaultSet.Acknowledge(outpoint)
		}); err != nil {
			return err
		}

		chain := func() *application.RevocationChain {
			return vaultSet.Selected().RevocationChain()
		}
		for _, kind := range []domain.TransactionKind{
			domain.Emergency, domain.EmergencyUnvault, domain.Cancel,
		} {
			kind := kind
			s := signer{
				collector: func(application.Model) *application.SignatureCollector {
					return chain().Collector(kind)
				},
				changeMethod: func() { vaultSet.Selected().ChangeMethod() },
				submit: func(input string) (application.Cmd, error) {
					return vaultSet.Selected().Submit(input)
				},
				request: func() (application.Cmd, error) {
					return vaultSet.Selected().RequestSignature()
				},
			}
			if err := s.sign(ctx, p, direct); err != nil {
				return err
			}
		}

		return waitShared(ctx, p, vaultSet, func() bool {
			return chain().IsComplete()
		})
	})
}

func delegateAction(ctx *cli.Context) error {
	outpoint, err := parseOutpointArg(ctx)
	if err != nil {
		return err
	}
	direct := ctx.Bool(directFlag.Name)

	vaultSet := svc.VaultSet()
	return runProgram(ctx.Context, vaultSet, func(ctx context.Context, p *application.Program) error {
		if err := selectVault(ctx, p, vaultSet, outpoint); err != nil {
			return err
		}
		if err := openSection(ctx, p, vaultSet, application.Delegate, func() application.Cmd {
			return vaultSet.Delegate(outpoint)
		}); err != nil {
			return err
		}

		s := signer{
			collector: func(application.Model) *application.SignatureCollector {
				return vaultSet.Selected().UnvaultCollector()
			},
			changeMethod: func() { vaultSet.Selected().ChangeMethod() },
			submit: func(input string) (application.Cmd, error) {
				return vaultSet.Selected().Submit(input)
			},
			request: func() (application.Cmd, error) {
				return vaultSet.Selected().RequestSignature()
			},
		}
		if err := s.sign(ctx, p, direct); err != nil {
			return err
		}

		return waitShared(ctx, p, vaultSet, func() bool {
			return vaultSet.Selected().UnvaultCollector().IsShared()
		})
	})
}

// openSection enters the given section of the selected vault and waits for
// its transactions to be fetched.
func openSection(
	ctx context.Context, p *application.Program,
	vaultSet *application.VaultSetController, section application.VaultSection,
	open func() application.Cmd,
) error {
	if err := p.Do(ctx, open); err != nil {
		return err
	}
	if err := waitFor(ctx, p, func(c *application.VaultSetController) bool {
		return !c.Selected().IsLoading()
	}); err != nil {
		return err
	}

	var warning error
	if err := inspect(ctx, p, func(c *application.VaultSetController) {
		if c.Selected().Section() != section {
			warning = c.Selected().Warning()
			if warning == nil {
				warning = fmt.Errorf("vault %s cannot enter %s", c.Selected().Outpoint(), section)
			}
		}
	}); err != nil {
		return err
	}
	return warning
}

// waitShared waits for the signed transactions to be shared with the daemon,
// offering to retry on failure.
func waitShared(
	ctx context.Context, p *application.Program,
	vaultSet *application.VaultSetController, shared func() bool,
) error {
	for {
		if err := waitFor(ctx, p, func(c *application.VaultSetController) bool {
			return !c.Selected().IsSubmitting()
		}); err != nil {
			return err
		}

		var (
			done    bool
			warning error
		)
		if err := inspect(ctx, p, func(c *application.VaultSetController) {
			done = shared()
			warning = c.Selected().Warning()
		}); err != nil {
			return err
		}
		if done {
			fmt.Println(successStyle.Render("transactions shared with the daemon"))
			return nil
		}
		if warning == nil {
			return fmt.Errorf("transactions not shared")
		}

		fmt.Println(warningStyle.Render(warning.Error()))
		answer, err := prompt("retry? [y/N] ")
		if err != nil || (answer != "y" && answer != "Y") {
			return warning
		}
		if err := p.Do(ctx, func() application.Cmd {
			return vaultSet.Selected().Retry()
		}); err != nil {
			return err
		}
	}
}
