package task

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeTaskFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tasks.jsonl")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write task file: %v", err)
	}
	return path
}

func TestLoadFile(t *testing.T) {
	path := writeTaskFile(t, `# demo tasks
{"name":"compile","scope":"build","kind":"determinate","steps":10,"step_interval":"50ms"}

{"name":"migrate","scope":"db","kind":"indeterminate","duration":"2s","reveal_delay":"500ms"}
{"name":"lint","scope":"build","kind":"command","command":["sh","-c","true"]}
`)

	tasks, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if len(tasks) != 3 {
		t.Fatalf("expected 3 tasks, got %d", len(tasks))
	}

	compile := tasks[0]
	if compile.Kind != KindDeterminate || compile.Steps != 10 || compile.StepInterval != 50*time.Millisecond {
		t.Errorf("compile: unexpected fields %+v", compile)
	}
	migrate := tasks[1]
	if migrate.Kind != KindIndeterminate || migrate.Duration != 2*time.Second || migrate.RevealDelay != 500*time.Millisecond {
		t.Errorf("migrate: unexpected fields %+v", migrate)
	}
	lint := tasks[2]
	if lint.Kind != KindCommand || len(lint.Command) != 3 {
		t.Errorf("lint: unexpected fields %+v", lint)
	}
}

func TestLoadFile_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "unknown kind",
			content: `{"name":"x","kind":"mystery"}`,
			wantErr: "unknown task kind",
		},
		{
			name:    "bad duration",
			content: `{"name":"x","kind":"indeterminate","duration":"fast"}`,
			wantErr: "duration",
		},
		{
			name:    "determinate without steps",
			content: `{"name":"x","kind":"determinate"}`,
			wantErr: "needs steps",
		},
		{
			name:    "command without argv",
			content: `{"name":"x","kind":"command"}`,
			wantErr: "needs a command",
		},
		{
			name:    "missing name",
			content: `{"kind":"indeterminate"}`,
			wantErr: "needs a name",
		},
		{
			name:    "broken json",
			content: `{"name":`,
			wantErr: "tasks.jsonl:1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeTaskFile(t, tt.content+"\n")
			_, err := LoadFile(path)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got %q", tt.wantErr, err.Error())
			}
		})
	}
}

func TestLoadFile_MissingFile(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "nope.jsonl"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if !strings.Contains(err.Error(), "open task file") {
		t.Errorf("expected open context in error, got %q", err.Error())
	}
}

func TestLoadFile_ErrorNamesLine(t *testing.T) {
	path := writeTaskFile(t, `{"name":"ok","kind":"indeterminate","duration":"1s"}
{"name":"bad","kind":"mystery"}
`)

	_, err := LoadFile(path)
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !strings.Contains(err.Error(), ":2:") {
		t.Errorf("expected line 2 in error, got %q", err.Error())
	}
}
