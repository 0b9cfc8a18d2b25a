package application

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Msg is the result of a daemon call, or any other event, delivered back to
// the loop.
type Msg interface{}

// Cmd is a unit of asynchronous work. Its returned Msg is fed to the model's
// Update once the work is done.
type Cmd func(ctx context.Context) Msg

type batchMsg []Cmd

// Batch runs cmds concurrently, nil ones are skipped.
func Batch(cmds ...Cmd) Cmd {
	valid := make([]Cmd, 0, len(cmds))
	for _, cmd := range cmds {
		if cmd != nil {
			valid = append(valid, cmd)
		}
	}
	switch len(valid) {
	case 0:
		return nil
	case 1:
		return valid[0]
	default:
		return func(context.Context) Msg {
			return batchMsg(valid)
		}
	}
}

// Model is a state machine driven by the Program. Update is never called
// concurrently.
type Model interface {
	Init() Cmd
	Update(msg Msg) Cmd
}

type quitMsg struct{}

type waiter struct {
	cond func(Model) bool
	done chan struct{}
}

// Program owns a Model and serializes every mutation of it on a single
// goroutine. Cmds run on their own goroutines and report back with a Msg.
type Program struct {
	model   Model
	msgs    chan Msg
	actions chan func() Cmd
	waiters chan waiter
	done    chan struct{}
}

func NewProgram(model Model) *Program {
	return &Program{
		model:   model,
		msgs:    make(chan Msg),
		actions: make(chan func() Cmd),
		waiters: make(chan waiter),
		done:    make(chan struct{}),
	}
}

// Run starts the loop and blocks until ctx is done or Quit is called.
// Pending cmds are given the chance to return before Run does.
func (p *Program) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer close(p.done)

	g, gctx := errgroup.WithContext(ctx)
	pending := make([]waiter, 0)

	dispatch := func(cmd Cmd) {
		if cmd == nil {
			return
		}
		g.Go(func() error {
			p.exec(gctx, g, cmd)
			return nil
		})
	}
	notify := func() {
		left := pending[:0]
		for _, w := range pending {
			if w.cond(p.model) {
				close(w.done)
				continue
			}
			left = append(left, w)
		}
		pending = left
	}

	dispatch(p.model.Init())

	for {
		select {
		case <-ctx.Done():
			_ = g.Wait()
			return ctx.Err()
		case msg := <-p.msgs:
			if _, ok := msg.(quitMsg); ok {
				cancel()
				_ = g.Wait()
				return nil
			}
			log.Debugf("loop: handling %T", msg)
			dispatch(p.model.Update(msg))
			notify()
		case action := <-p.actions:
			dispatch(action())
			notify()
		case w := <-p.waiters:
			if w.cond(p.model) {
				close(w.done)
				continue
			}
			pending = append(pending, w)
		}
	}
}

func (p *Program) exec(ctx context.Context, g *errgroup.Group, cmd Cmd) {
	msg := cmd(ctx)
	if batch, ok := msg.(batchMsg); ok {
		for _, c := range batch {
			c := c
			g.Go(func() error {
				p.exec(ctx, g, c)
				return nil
			})
		}
		return
	}
	if msg == nil {
		return
	}
	select {
	case p.msgs <- msg:
	case <-ctx.Done():
	case <-p.done:
	}
}

// Send delivers msg to the model as if it were returned by a Cmd.
func (p *Program) Send(msg Msg) {
	select {
	case p.msgs <- msg:
	case <-p.done:
	}
}

func (p *Program) Quit() {
	p.Send(quitMsg{})
}

// Do runs action on the loop goroutine and dispatches the returned Cmd.
// Use it to drive user operations of the model.
func (p *Program) Do(ctx context.Context, action func() Cmd) error {
	select {
	case p.actions <- action:
		return nil
	case <-p.done:
		return fmt.Errorf("program is not running")
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Inspect runs fn on the loop goroutine and waits for it to return.
func (p *Program) Inspect(ctx context.Context, fn func(Model)) error {
	ran := make(chan struct{})
	if err := p.Do(ctx, func() Cmd {
		fn(p.model)
		close(ran)
		return nil
	}); err != nil {
		return err
	}
	select {
	case <-ran:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// WaitFor blocks until cond holds for the model. cond is evaluated on the
// loop goroutine after every handled event.
func (p *Program) WaitFor(ctx context.Context, cond func(Model) bool) error {
	w := waiter{cond, make(chan struct{})}
	select {
	case p.waiters <- w:
	case <-p.done:
		return fmt.Errorf("program is not running")
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-w.done:
		return nil
	case <-p.done:
		return fmt.Errorf("program is not running")
	case <-ctx.Done():
		return ctx.Err()
	}
}
