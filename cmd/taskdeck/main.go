package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/bombsimon/logrusr/v3"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/go-logr/logr"
	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"

	"taskdeck/internal/progress"
	"taskdeck/internal/task"
	"taskdeck/internal/trace"
	"taskdeck/internal/ui"
)

const version = "0.1.0"

// config holds the parsed CLI configuration for a taskdeck run.
type config struct {
	tasksFile   string
	logFile     string
	traceListen string
	showVersion bool
}

func parseFlags() config {
	var cfg config

	flag.StringVar(&cfg.tasksFile, "tasks", "", "JSONL task file (defaults to the built-in demo set)")
	flag.StringVar(&cfg.logFile, "log", "", "append debug logs to this file")
	flag.StringVar(&cfg.traceListen, "trace-listen", "", "serve the trace ingest API on this address (e.g. :9721)")
	flag.BoolVar(&cfg.showVersion, "version", false, "print version and exit")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: taskdeck [flags]\n\n")
		fmt.Fprintf(os.Stderr, "Taskdeck runs a set of tasks and shows their progress in a deck of\n")
		fmt.Fprintf(os.Stderr, "panes, one scope per pane. Only the visible pane draws; hidden scopes\n")
		fmt.Fprintf(os.Stderr, "keep recording and replay their state when switched back to.\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
	}

	flag.Parse()
	return cfg
}

func main() {
	cfg := parseFlags()
	if cfg.showVersion {
		fmt.Println("taskdeck " + version)
		return
	}
	if err := run(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "taskdeck: %v\n", err)
		os.Exit(1)
	}
}

func run(cfg config) error {
	if !isatty.IsTerminal(os.Stdout.Fd()) {
		return errors.New("stdout is not a terminal (use loadsim for headless runs)")
	}

	log, closeLog, err := newLogger(cfg.logFile)
	if err != nil {
		return err
	}
	defer closeLog()

	tasks := demoTasks()
	if cfg.tasksFile != "" {
		if tasks, err = task.LoadFile(cfg.tasksFile); err != nil {
			return err
		}
	}
	if len(tasks) == 0 {
		return errors.New("no tasks to run")
	}

	// The repaint channel coalesces widget notifications from task
	// goroutines; sending into the program directly from a reporter could
	// block against the update loop.
	repaint := make(chan struct{}, 1)
	notify := func() {
		select {
		case repaint <- struct{}{}:
		default:
		}
	}

	// One pane and one scoped reporter per scope, in first-seen task order.
	notifier := &progress.ScopeNotifier{}
	var panes []*ui.TaskPane
	indicators := make(map[string]progress.Indicator)
	for _, t := range tasks {
		if _, ok := indicators[t.Scope]; ok {
			continue
		}
		pane := ui.NewTaskPane(t.Scope, t.Scope, notify)
		ind := progress.NewScopedIndicator(pane.Widget(), t.Scope, notifier)
		defer ind.Close()
		panes = append(panes, pane)
		indicators[t.Scope] = ind
	}

	recorder := trace.NewRecorder(0)
	defer recorder.Shutdown(context.Background())
	if cfg.traceListen != "" {
		srv := trace.NewServer(recorder, cfg.traceListen)
		srv.Start()
		defer srv.Stop(context.Background())
		log.Info("trace server listening", "addr", srv.Addr())
	}

	app := ui.NewApp(ui.NewDeck(notifier, panes...))
	p := tea.NewProgram(app, tea.WithAltScreen())

	events := make(chan task.Event, 64)
	go func() {
		for range repaint {
			p.Send(ui.WidgetUpdatedMsg{})
		}
	}()
	go func() {
		for ev := range events {
			p.Send(ev)
		}
	}()

	emitter := trace.NewBridge(recorder, &task.ChanEmitter{Ch: events}, log)
	runner := task.NewRunner(log, emitter, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		err := runner.RunAll(ctx, tasks, func(scope string) progress.Indicator {
			return indicators[scope]
		})
		p.Send(ui.TasksFinishedMsg{Err: err})
	}()

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run ui: %w", err)
	}
	return nil
}

// newLogger builds the logr sink. The TUI owns stdout, so logs go to the
// given file or nowhere.
func newLogger(path string) (logr.Logger, func(), error) {
	logrusLog := logrus.New()
	logrusLog.SetFormatter(&logrus.TextFormatter{})
	if path == "" {
		logrusLog.SetOutput(io.Discard)
		return logrusr.New(logrusLog), func() {}, nil
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return logr.Logger{}, nil, fmt.Errorf("open log file: %w", err)
	}
	logrusLog.SetOutput(f)
	logrusLog.SetLevel(logrus.DebugLevel)
	return logrusr.New(logrusLog), func() { f.Close() }, nil
}

// demoTasks is the built-in task set: three scopes, all three kinds, with
// enough overlap to show while-joining and background replay.
func demoTasks() []task.Task {
	return []task.Task{
		{Name: "compile", Scope: "build", Kind: task.KindDeterminate, Steps: 20, StepInterval: 150 * time.Millisecond},
		{Name: "lint", Scope: "build", Kind: task.KindCommand, Command: []string{"sh", "-c", "for i in 1 2 3; do echo lint pass $i; sleep 1; done"}},
		{Name: "unit", Scope: "test", Kind: task.KindDeterminate, Steps: 15, StepInterval: 200 * time.Millisecond, RevealDelay: 500 * time.Millisecond},
		{Name: "integration", Scope: "test", Kind: task.KindIndeterminate, Duration: 5 * time.Second, RevealDelay: time.Second},
		{Name: "upload", Scope: "deploy", Kind: task.KindIndeterminate, Duration: 3 * time.Second},
		{Name: "warm-cache", Scope: "deploy", Kind: task.KindIndeterminate, Duration: 6 * time.Second},
		{Name: "rollout", Scope: "deploy", Kind: task.KindDeterminate, Steps: 10, StepInterval: 800 * time.Millisecond, RevealDelay: 2 * time.Second},
	}
}
