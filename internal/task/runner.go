package task

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"time"

	"github.com/go-logr/logr"
	"golang.org/x/sync/errgroup"

	"taskdeck/internal/progress"
)

// Runner executes tasks and reports their progress through indicators.
type Runner struct {
	log     logr.Logger
	emitter Emitter
	pty     PTY
}

// NewRunner returns a Runner that logs to log and emits events to emitter.
// A nil emitter discards events; a nil pty uses the real creack/pty one.
func NewRunner(log logr.Logger, emitter Emitter, pty PTY) *Runner {
	if emitter == nil {
		emitter = NopEmitter{}
	}
	if pty == nil {
		pty = CreackPTY{}
	}
	return &Runner{log: log, emitter: emitter, pty: pty}
}

// Run executes t, reporting through ind. It blocks until the task has
// finished and its progress display has been released.
func (r *Runner) Run(ctx context.Context, t Task, ind progress.Indicator) error {
	r.emitter.Emit(Event{Task: t.Name, Scope: t.Scope, Status: StatusRunning, Message: "started"})
	r.log.V(1).Info("task started", "task", t.Name, "scope", t.Scope)

	var err error
	switch t.Kind {
	case KindDeterminate:
		err = r.runDeterminate(ctx, t, ind)
	case KindIndeterminate:
		err = r.runIndeterminate(ctx, t, ind)
	case KindCommand:
		err = r.runCommand(ctx, t, ind)
	default:
		err = fmt.Errorf("task %q: unknown kind %d", t.Name, t.Kind)
	}

	if err != nil {
		r.emitter.Emit(Event{Task: t.Name, Scope: t.Scope, Status: StatusFailed, Message: err.Error(), Err: err})
		r.log.Error(err, "task failed", "task", t.Name)
		return err
	}
	r.emitter.Emit(Event{Task: t.Name, Scope: t.Scope, Status: StatusSucceeded, Message: "finished"})
	r.log.V(1).Info("task finished", "task", t.Name)
	return nil
}

// RunAll executes tasks concurrently, one goroutine per task, each reporting
// to the indicator indFor returns for its scope. The first failure cancels
// the remaining tasks through the group context.
func (r *Runner) RunAll(ctx context.Context, tasks []Task, indFor func(scope string) progress.Indicator) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, t := range tasks {
		t := t
		g.Go(func() error {
			return r.Run(gctx, t, indFor(t.Scope))
		})
	}
	return g.Wait()
}

func (r *Runner) runDeterminate(ctx context.Context, t Task, ind progress.Indicator) error {
	h := ind.ShowDeterminate(t.Steps, t.RevealDelay)
	defer h.Done()
	for i := 0; i < t.Steps; i++ {
		if err := sleepCtx(ctx, t.StepInterval); err != nil {
			return err
		}
		h.Worked(1)
		r.emitter.Emit(Event{Task: t.Name, Scope: t.Scope, Status: StatusRunning, Message: fmt.Sprintf("step %d/%d", i+1, t.Steps)})
	}
	return nil
}

func (r *Runner) runIndeterminate(ctx context.Context, t Task, ind progress.Indicator) error {
	op := progress.NewOperation()
	released := ind.ShowWhile(op, t.RevealDelay)
	err := sleepCtx(ctx, t.Duration)
	op.Settle()
	<-released
	return err
}

func (r *Runner) runCommand(ctx context.Context, t Task, ind progress.Indicator) error {
	if len(t.Command) == 0 {
		return fmt.Errorf("task %q: empty command", t.Name)
	}
	cmd := exec.CommandContext(ctx, t.Command[0], t.Command[1:]...)
	f, err := r.pty.Start(cmd, Size{Rows: 24, Cols: 80})
	if err != nil {
		return fmt.Errorf("start %q: %w", t.Command[0], err)
	}

	op := progress.NewOperation()
	released := ind.ShowWhile(op, t.RevealDelay)

	// Reads return EOF (or EIO on Linux ptys) once the child exits.
	r.streamLines(t, f)
	f.Close()
	err = cmd.Wait()

	op.Settle()
	<-released

	if err != nil {
		return fmt.Errorf("command %q: %w", strings.Join(t.Command, " "), err)
	}
	return nil
}

// streamLines emits one running event per output line until the stream ends.
func (r *Runner) streamLines(t Task, f io.Reader) {
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		r.emitter.Emit(Event{Task: t.Name, Scope: t.Scope, Status: StatusRunning, Message: scanner.Text()})
	}
}

// sleepCtx waits for d or for ctx cancellation, whichever comes first. A
// non-positive duration still observes cancellation so zero-interval
// simulations remain interruptible.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			return nil
		}
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
