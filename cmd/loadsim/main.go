package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/bombsimon/logrusr/v3"
	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"

	"taskdeck/internal/progress"
	"taskdeck/internal/task"
	"taskdeck/internal/termbar"
	"taskdeck/internal/trace"
)

// config holds the parsed CLI configuration for a simulation run.
type config struct {
	ops           int
	steps         int
	interval      time.Duration
	indeterminate int
	listen        string
	post          string
	verbose       bool
}

func parseFlags() config {
	var cfg config

	flag.IntVar(&cfg.ops, "ops", 2, "number of determinate workloads")
	flag.IntVar(&cfg.steps, "steps", 20, "steps per determinate workload")
	flag.DurationVar(&cfg.interval, "interval", 100*time.Millisecond, "pause between steps")
	flag.IntVar(&cfg.indeterminate, "indeterminate", 3, "number of overlapping indeterminate workloads")
	flag.StringVar(&cfg.listen, "listen", "", "serve the trace ingest API on this address while the simulation runs")
	flag.StringVar(&cfg.post, "post", "", "post op events to a running trace server instead of recording locally")
	flag.BoolVar(&cfg.verbose, "verbose", false, "log task events to stderr")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: loadsim [flags]\n\n")
		fmt.Fprintf(os.Stderr, "Loadsim drives overlapping workloads through a single terminal\n")
		fmt.Fprintf(os.Stderr, "progress bar. Indeterminate workloads settle at staggered times, so\n")
		fmt.Fprintf(os.Stderr, "the spinner keeps running until the last one finishes.\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
	}

	flag.Parse()
	return cfg
}

func main() {
	cfg := parseFlags()
	if err := run(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "loadsim: %v\n", err)
		os.Exit(1)
	}
}

func run(cfg config) error {
	if cfg.ops < 0 || cfg.indeterminate < 0 {
		return errors.New("workload counts cannot be negative")
	}
	if cfg.ops == 0 && cfg.indeterminate == 0 {
		return errors.New("nothing to simulate")
	}

	logrusLog := logrus.New()
	logrusLog.SetOutput(os.Stderr)
	logrusLog.SetFormatter(&logrus.TextFormatter{})
	if cfg.verbose {
		logrusLog.SetLevel(logrus.DebugLevel)
	}
	log := logrusr.New(logrusLog)

	if !isatty.IsTerminal(os.Stdout.Fd()) {
		log.Info("stdout is not a terminal; bar redraws will pile up")
	}

	recorder := trace.NewRecorder(0)
	defer recorder.Shutdown(context.Background())
	if cfg.listen != "" {
		srv := trace.NewServer(recorder, cfg.listen)
		srv.Start()
		defer srv.Stop(context.Background())
		log.Info("trace server listening", "addr", srv.Addr())
	}

	var sink trace.EventSink = recorder
	if cfg.post != "" {
		client := trace.NewClient(cfg.post, log)
		defer client.Close()
		sink = client
	}

	// Every workload reports into the same bar, which is what makes the
	// joining visible: the spinner survives until the last while settles.
	bar := termbar.New(os.Stdout, "sim")
	ind := progress.NewWidgetIndicator(bar)
	runner := task.NewRunner(log, trace.NewBridge(sink, nil, log), nil)

	err := runner.RunAll(context.Background(), simTasks(cfg), func(string) progress.Indicator {
		return ind
	})

	if cfg.post == "" {
		fmt.Println()
		for _, span := range recorder.Recent() {
			fmt.Printf("%-12s %10s  %s\n", span.Name, span.Duration().Round(time.Millisecond), span.Detail["status"])
		}
	}
	if err != nil {
		return fmt.Errorf("simulation: %w", err)
	}
	return nil
}

// simTasks builds the synthetic workload set: cfg.ops determinate tasks plus
// cfg.indeterminate background tasks with staggered settlement.
func simTasks(cfg config) []task.Task {
	var tasks []task.Task
	for i := 0; i < cfg.ops; i++ {
		tasks = append(tasks, task.Task{
			Name:         fmt.Sprintf("op-%d", i+1),
			Scope:        "sim",
			Kind:         task.KindDeterminate,
			Steps:        cfg.steps,
			StepInterval: cfg.interval,
		})
	}
	for i := 0; i < cfg.indeterminate; i++ {
		tasks = append(tasks, task.Task{
			Name:     fmt.Sprintf("bg-%d", i+1),
			Scope:    "sim",
			Kind:     task.KindIndeterminate,
			Duration: time.Duration(i+1) * 5 * cfg.interval,
		})
	}
	return tasks
}
