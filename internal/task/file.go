package task

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"taskdeck/internal/jsonutil"
)

// taskSpec is the JSONL wire form of a Task. Kinds are spelled out and
// durations use time.ParseDuration syntax.
type taskSpec struct {
	Name         string   `json:"name"`
	Scope        string   `json:"scope"`
	Kind         string   `json:"kind"`
	Steps        int      `json:"steps,omitempty"`
	StepInterval string   `json:"step_interval,omitempty"`
	Duration     string   `json:"duration,omitempty"`
	Command      []string `json:"command,omitempty"`
	RevealDelay  string   `json:"reveal_delay,omitempty"`
}

// LoadFile reads a JSONL task file: one task per line. Blank lines and
// #-prefixed comment lines are skipped.
func LoadFile(path string) ([]Task, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open task file: %w", err)
	}
	defer f.Close()

	var tasks []Task
	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		var spec taskSpec
		if err := jsonutil.UnmarshalLine(line, &spec); err != nil {
			return nil, fmt.Errorf("%s:%d: %w", path, lineNo, err)
		}
		t, err := spec.task()
		if err != nil {
			return nil, fmt.Errorf("%s:%d: %w", path, lineNo, err)
		}
		tasks = append(tasks, t)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read task file: %w", err)
	}
	return tasks, nil
}

func (s taskSpec) task() (Task, error) {
	var t Task
	if s.Name == "" {
		return t, fmt.Errorf("task needs a name")
	}
	kind, err := parseKind(s.Kind)
	if err != nil {
		return t, err
	}
	t = Task{Name: s.Name, Scope: s.Scope, Kind: kind, Steps: s.Steps, Command: s.Command}
	if t.StepInterval, err = parseDuration(s.StepInterval); err != nil {
		return t, fmt.Errorf("step_interval: %w", err)
	}
	if t.Duration, err = parseDuration(s.Duration); err != nil {
		return t, fmt.Errorf("duration: %w", err)
	}
	if t.RevealDelay, err = parseDuration(s.RevealDelay); err != nil {
		return t, fmt.Errorf("reveal_delay: %w", err)
	}

	switch kind {
	case KindDeterminate:
		if t.Steps <= 0 {
			return t, fmt.Errorf("determinate task %q needs steps", t.Name)
		}
	case KindCommand:
		if len(t.Command) == 0 {
			return t, fmt.Errorf("command task %q needs a command", t.Name)
		}
	}
	return t, nil
}

func parseKind(s string) (Kind, error) {
	switch s {
	case "determinate":
		return KindDeterminate, nil
	case "indeterminate":
		return KindIndeterminate, nil
	case "command":
		return KindCommand, nil
	default:
		return 0, fmt.Errorf("unknown task kind %q", s)
	}
}

func parseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	return time.ParseDuration(s)
}
