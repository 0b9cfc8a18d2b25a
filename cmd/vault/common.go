package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/ark-network/vault/internal/core/application"
	"github.com/ark-network/vault/internal/core/domain"
	"github.com/urfave/cli/v2"
	"golang.org/x/term"
)

var (
	directFlag = &cli.BoolFlag{
		Name:  "direct",
		Usage: "sign with the signing module at VAULT_SIGNER_URL instead of pasting signed psbts",
	}

	stdin = bufio.NewReader(os.Stdin)
)

// runProgram runs model in a Program for the duration of fn.
func runProgram(
	ctx context.Context, model application.Model,
	fn func(ctx context.Context, p *application.Program) error,
) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := application.NewProgram(model)
	errCh := make(chan error, 1)
	go func() {
		errCh <- svc.Run(ctx, p)
	}()

	err := fn(ctx, p)
	p.Quit()
	if runErr := <-errCh; err == nil && runErr != nil && !errors.Is(runErr, context.Canceled) {
		err = runErr
	}
	return err
}

// act runs fn on the loop goroutine and returns its error once done.
func act(
	ctx context.Context, p *application.Program,
	fn func() (application.Cmd, error),
) error {
	errCh := make(chan error, 1)
	if err := p.Do(ctx, func() application.Cmd {
		cmd, err := fn()
		errCh <- err
		return cmd
	}); err != nil {
		return err
	}
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// inspect reads the model of type T from the loop goroutine.
func inspect[T application.Model](
	ctx context.Context, p *application.Program, fn func(T),
) error {
	return p.Inspect(ctx, func(m application.Model) { fn(m.(T)) })
}

func waitFor[T application.Model](
	ctx context.Context, p *application.Program, cond func(T) bool,
) error {
	return p.WaitFor(ctx, func(m application.Model) bool { return cond(m.(T)) })
}

func prompt(msg string) (string, error) {
	if term.IsTerminal(int(os.Stdin.Fd())) {
		fmt.Print(msg)
	}
	line, err := stdin.ReadString('\n')
	if err != nil && len(line) <= 0 {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// signer abstracts the signing of one transaction by the state machine
// that owns its collector.
type signer struct {
	collector    func(application.Model) *application.SignatureCollector
	changeMethod func()
	submit       func(input string) (application.Cmd, error)
	request      func() (application.Cmd, error)
}

// sign collects the signature of the transaction held by s. In indirect mode
// the operator is prompted for the signed psbt until one is admitted.
func (s signer) sign(ctx context.Context, p *application.Program, direct bool) error {
	var (
		kind     domain.TransactionKind
		original string
		method   application.SignMethod
	)
	if err := p.Inspect(ctx, func(m application.Model) {
		c := s.collector(m)
		kind, method = c.Kind(), c.Method()
		original, _ = domain.EncodePsbt(c.Original())
	}); err != nil {
		return err
	}

	want := application.Indirect
	if direct {
		want = application.Direct
	}
	if method != want {
		if err := act(ctx, p, func() (application.Cmd, error) {
			s.changeMethod()
			return nil, nil
		}); err != nil {
			return err
		}
	}

	if direct {
		fmt.Printf("requesting %s signature to the signing module...\n", kind)
		if err := act(ctx, p, s.request); err != nil {
			return err
		}
		if err := p.WaitFor(ctx, func(m application.Model) bool {
			return !s.collector(m).IsAwaiting()
		}); err != nil {
			return err
		}
		var warning error
		if err := p.Inspect(ctx, func(m application.Model) {
			if c := s.collector(m); !c.IsSigned() {
				warning = c.Warning()
			}
		}); err != nil {
			return err
		}
		return warning
	}

	fmt.Println(titleStyle.Render(fmt.Sprintf("%s transaction to sign", kind)))
	fmt.Println(original)
	for {
		input, err := prompt(fmt.Sprintf("signed %s psbt: ", kind))
		if err != nil {
			return err
		}
		err = act(ctx, p, func() (application.Cmd, error) {
			return s.submit(input)
		})
		if err == nil {
			return nil
		}
		if errors.Is(err, application.ErrAlreadyShared) ||
			errors.Is(err, application.ErrWrongMethod) {
			return err
		}
		// Invalid payloads are reported and the operator can try again.
		var warning error
		if err := p.Inspect(ctx, func(m application.Model) {
			warning = s.collector(m).Warning()
		}); err != nil {
			return err
		}
		if warning == nil {
			warning = err
		}
		fmt.Println(warningStyle.Render(warning.Error()))
	}
}

func parseOutpointArg(ctx *cli.Context) (domain.Outpoint, error) {
	if ctx.NArg() != 1 {
		return domain.Outpoint{}, fmt.Errorf("missing vault outpoint argument")
	}
	return domain.ParseOutpoint(ctx.Args().First())
}
