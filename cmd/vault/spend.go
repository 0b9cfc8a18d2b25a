package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/ark-network/vault/internal/core/application"
	"github.com/ark-network/vault/internal/core/domain"
	"github.com/urfave/cli/v2"
)

var (
	inputFlag = &cli.StringSliceFlag{
		Name:     "input",
		Usage:    "outpoint of an active vault to spend",
		Required: true,
	}
	outputFlag = &cli.StringSliceFlag{
		Name:     "output",
		Usage:    "output in the form address=amount, amount in BTC",
		Required: true,
	}
	feerateFlag = &cli.UintFlag{
		Name:  "feerate",
		Usage: "feerate in sat/vbyte, defaults to VAULT_DEFAULT_FEERATE",
	}
)

var spendCommand = cli.Command{
	Name:  "spend",
	Usage: "Create, import, list and sign spend transactions",
	Subcommands: []*cli.Command{
		{
			Name:   "create",
			Usage:  "Build a spend transaction from active vaults and sign it",
			Action: spendCreateAction,
			Flags:  []cli.Flag{inputFlag, outputFlag, feerateFlag, directFlag},
		},
		{
			Name:   "import",
			Usage:  "Import a spend transaction built elsewhere",
			Action: spendImportAction,
		},
		{
			Name:   "list",
			Usage:  "List the spend transactions known to the daemon",
			Action: spendListAction,
		},
		{
			Name:      "sign",
			Usage:     "Sign a spend transaction known to the daemon",
			ArgsUsage: "<txid>",
			Action:    spendSignAction,
			Flags:     []cli.Flag{directFlag},
		},
	},
}

func spendCreateAction(ctx *cli.Context) error {
	inputs := make([]domain.Outpoint, 0)
	for _, str := range ctx.StringSlice(inputFlag.Name) {
		outpoint, err := domain.ParseOutpoint(str)
		if err != nil {
			return err
		}
		inputs = append(inputs, outpoint)
	}
	outputs := make([][2]string, 0)
	for _, str := range ctx.StringSlice(outputFlag.Name) {
		parts := strings.Split(str, "=")
		if len(parts) != 2 {
			return fmt.Errorf("invalid output %q, must be in the form address=amount", str)
		}
		outputs = append(outputs, [2]string{parts[0], parts[1]})
	}
	feerate := uint32(ctx.Uint(feerateFlag.Name))
	direct := ctx.Bool(directFlag.Name)

	builder := svc.SpendProposal()
	return runProgram(ctx.Context, builder, func(ctx context.Context, p *application.Program) error {
		if err := waitFor(ctx, p, func(b *application.SpendProposalBuilder) bool {
			return !b.IsLoading()
		}); err != nil {
			return err
		}

		if err := act(ctx, p, func() (application.Cmd, error) {
			for i, out := range outputs {
				if i > 0 {
					builder.AddOutput()
				}
				builder.EditOutputAddress(i, out[0])
				builder.EditOutputAmount(i, out[1])
			}
			if err := builder.Next(); err != nil {
				return nil, outputsError(builder, err)
			}
			for _, outpoint := range inputs {
				builder.SelectInput(outpoint, true)
			}
			if len(builder.SelectedInputs()) != len(inputs) {
				return nil, fmt.Errorf("some inputs are not active vaults")
			}
			if err := builder.Next(); err != nil {
				return nil, err
			}
			if feerate > 0 {
				if err := builder.EditFeerate(feerate); err != nil {
					return nil, err
				}
			}
			return builder.Generate()
		}); err != nil {
			return err
		}

		if err := waitFor(ctx, p, func(b *application.SpendProposalBuilder) bool {
			return !b.IsProcessing()
		}); err != nil {
			return err
		}
		if err := act(ctx, p, func() (application.Cmd, error) {
			if builder.Proposal() == nil {
				return nil, builder.Warning()
			}
			fmt.Printf(
				"spending %s to %s at %d sat/vbyte\n",
				formatBtc(builder.InputAmount()), formatBtc(builder.OutputAmount()),
				builder.Proposal().Feerate,
			)
			return nil, builder.Next()
		}); err != nil {
			return err
		}

		s := signer{
			collector: func(application.Model) *application.SignatureCollector {
				return builder.Collector()
			},
			changeMethod: builder.ChangeMethod,
			submit:       builder.Submit,
			request:      builder.RequestSignature,
		}
		if err := s.sign(ctx, p, direct); err != nil {
			return err
		}

		for {
			if err := waitFor(ctx, p, func(b *application.SpendProposalBuilder) bool {
				return !b.IsSubmitting()
			}); err != nil {
				return err
			}
			var (
				done    bool
				warning error
			)
			if err := inspect(ctx, p, func(b *application.SpendProposalBuilder) {
				done = b.Step() == application.Success
				warning = b.Warning()
			}); err != nil {
				return err
			}
			if done {
				fmt.Println(successStyle.Render("spend transaction shared with the daemon"))
				return nil
			}
			if warning == nil {
				return fmt.Errorf("spend transaction not shared")
			}
			fmt.Println(warningStyle.Render(warning.Error()))
			answer, err := prompt("retry? [y/N] ")
			if err != nil || (answer != "y" && answer != "Y") {
				return warning
			}
			if err := p.Do(ctx, builder.Retry); err != nil {
				return err
			}
		}
	})
}

// outputsError reports the per field warnings of the outputs.
func outputsError(builder *application.SpendProposalBuilder, err error) error {
	for i, out := range builder.Outputs() {
		if out.AddressWarning != nil {
			return fmt.Errorf("output %d: %w", i, out.AddressWarning)
		}
		if out.AmountWarning != nil {
			return fmt.Errorf("output %d: %w", i, out.AmountWarning)
		}
	}
	return err
}

func spendImportAction(ctx *cli.Context) error {
	input, err := prompt("spend psbt: ")
	if err != nil {
		return err
	}

	importer := svc.SpendImporter()
	return runProgram(ctx.Context, importer, func(ctx context.Context, p *application.Program) error {
		if err := act(ctx, p, func() (application.Cmd, error) {
			return importer.Import(input)
		}); err != nil {
			return err
		}
		if err := waitFor(ctx, p, func(i *application.SpendImporter) bool {
			return !i.IsProcessing()
		}); err != nil {
			return err
		}

		var warning error
		if err := inspect(ctx, p, func(i *application.SpendImporter) {
			if i.Imported() == nil {
				warning = i.Warning()
				return
			}
			fmt.Println(successStyle.Render(
				fmt.Sprintf("imported spend transaction %s", domain.Txid(i.Imported())),
			))
		}); err != nil {
			return err
		}
		return warning
	})
}

func spendListAction(ctx *cli.Context) error {
	txs := svc.SpendTransactions()
	return runProgram(ctx.Context, txs, func(ctx context.Context, p *application.Program) error {
		if err := waitSpendTransactions(ctx, p); err != nil {
			return err
		}
		return inspect(ctx, p, func(s *application.SpendTransactions) {
			fmt.Println(renderSpendTransactions(s.Transactions()))
		})
	})
}

func spendSignAction(ctx *cli.Context) error {
	if ctx.NArg() != 1 {
		return fmt.Errorf("missing spend txid argument")
	}
	txid := ctx.Args().First()
	direct := ctx.Bool(directFlag.Name)

	txs := svc.SpendTransactions()
	return runProgram(ctx.Context, txs, func(ctx context.Context, p *application.Program) error {
		if err := waitSpendTransactions(ctx, p); err != nil {
			return err
		}
		if err := act(ctx, p, func() (application.Cmd, error) {
			txs.Select(txid)
			if txs.Selected() == nil {
				return nil, fmt.Errorf("spend transaction %s not found", txid)
			}
			return nil, nil
		}); err != nil {
			return err
		}

		s := signer{
			collector: func(application.Model) *application.SignatureCollector {
				return txs.Collector()
			},
			changeMethod: txs.ChangeMethod,
			submit:       txs.Submit,
			request:      txs.RequestSignature,
		}
		if err := s.sign(ctx, p, direct); err != nil {
			return err
		}

		if err := waitFor(ctx, p, func(s *application.SpendTransactions) bool {
			return !s.IsSubmitting()
		}); err != nil {
			return err
		}
		var warning error
		if err := inspect(ctx, p, func(s *application.SpendTransactions) {
			if c := s.Collector(); c == nil || !c.IsShared() {
				warning = s.Warning()
				return
			}
			fmt.Println(successStyle.Render("spend transaction shared with the daemon"))
		}); err != nil {
			return err
		}
		return warning
	})
}

func waitSpendTransactions(ctx context.Context, p *application.Program) error {
	if err := waitFor(ctx, p, func(s *application.SpendTransactions) bool {
		return !s.IsLoading()
	}); err != nil {
		return err
	}
	var warning error
	if err := inspect(ctx, p, func(s *application.SpendTransactions) {
		if s.Transactions() == nil {
			warning = s.Warning()
		}
	}); err != nil {
		return err
	}
	return warning
}
