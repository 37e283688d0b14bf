package script

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dshills/revert/internal/widget"
)

func newEditor(t *testing.T, initial string) *widget.TextEditor {
	t.Helper()
	e, err := widget.NewTextEditor(initial, widget.WithDebounce(0))
	if err != nil {
		t.Fatalf("NewTextEditor failed: %v", err)
	}
	t.Cleanup(e.Close)
	return e
}

func newRunner(t *testing.T, doc Document, opts ...Option) *Runner {
	t.Helper()
	r := NewRunner(doc, opts...)
	t.Cleanup(r.Close)
	return r
}

func TestRunnerEditsDocument(t *testing.T) {
	e := newEditor(t, "")
	r := newRunner(t, e)

	err := r.Run(context.Background(), `
doc.set("hello")
doc.insert(" world")
`)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if e.Value() != "hello world" {
		t.Errorf("Value() = %q", e.Value())
	}
	if got := e.Pipeline().History().Len(); got != 3 {
		t.Errorf("Len() = %d, want 3", got)
	}
}

func TestRunnerUndoRedo(t *testing.T) {
	e := newEditor(t, "start")
	var out bytes.Buffer
	r := newRunner(t, e, WithOutput(&out))

	err := r.Run(context.Background(), `
print(doc.can_undo())
doc.set("a")
doc.set("b")
assert(doc.undo())
print(doc.text(), doc.can_redo())
assert(doc.redo())
print(doc.text())
`)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	want := "false\na\ttrue\nb\n"
	if out.String() != want {
		t.Errorf("output = %q, want %q", out.String(), want)
	}
}

func TestRunnerUndoAtInitialState(t *testing.T) {
	e := newEditor(t, "only")
	var out bytes.Buffer
	r := newRunner(t, e, WithOutput(&out))

	if err := r.Run(context.Background(), `print(doc.undo())`); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if strings.TrimSpace(out.String()) != "false" {
		t.Errorf("output = %q, want false", out.String())
	}
	if e.Value() != "only" {
		t.Errorf("Value() = %q", e.Value())
	}
}

func TestRunnerSandbox(t *testing.T) {
	tests := []struct {
		name string
		code string
	}{
		{"dofile", `dofile("/etc/passwd")`},
		{"loadstring", `loadstring("return 1")()`},
		{"require", `require("os")`},
		{"os", `os.exit(1)`},
		{"io", `io.open("/etc/passwd")`},
	}

	r := newRunner(t, newEditor(t, ""))
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := r.Run(context.Background(), tt.code)
			var serr *Error
			if !errors.As(err, &serr) {
				t.Errorf("Run(%q) = %v, want *Error", tt.code, err)
			}
		})
	}
}

func TestRunnerSafeLibraries(t *testing.T) {
	var out bytes.Buffer
	r := newRunner(t, newEditor(t, ""), WithOutput(&out))

	err := r.Run(context.Background(), `
local t = {}
table.insert(t, string.upper("x"))
print(t[1], math.max(1, 2))
`)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if out.String() != "X\t2\n" {
		t.Errorf("output = %q", out.String())
	}
}

func TestRunnerSyntaxError(t *testing.T) {
	r := newRunner(t, newEditor(t, ""))

	err := r.Run(context.Background(), `doc.set(`)
	var serr *Error
	if !errors.As(err, &serr) {
		t.Fatalf("error = %v, want *Error", err)
	}
	if serr.Name != "<string>" {
		t.Errorf("Name = %q", serr.Name)
	}
}

func TestRunnerArgumentError(t *testing.T) {
	e := newEditor(t, "keep")
	r := newRunner(t, e)

	if err := r.Run(context.Background(), `doc.set()`); err == nil {
		t.Error("doc.set() without an argument should fail")
	}
	if e.Value() != "keep" {
		t.Errorf("Value() = %q", e.Value())
	}
}

func TestRunnerTimeout(t *testing.T) {
	r := newRunner(t, newEditor(t, ""), WithTimeout(50*time.Millisecond))

	err := r.Run(context.Background(), `while true do end`)
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("error = %v, want ErrTimeout", err)
	}

	// The state is still usable after a timeout.
	if err := r.Run(context.Background(), `x = 1`); err != nil {
		t.Errorf("Run after timeout failed: %v", err)
	}
}

func TestRunnerCancelled(t *testing.T) {
	r := newRunner(t, newEditor(t, ""), WithTimeout(0))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := r.Run(ctx, `while true do end`); !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}

func TestRunnerGlobalsPersist(t *testing.T) {
	var out bytes.Buffer
	r := newRunner(t, newEditor(t, ""), WithOutput(&out))

	if err := r.Run(context.Background(), `counter = 41`); err != nil {
		t.Fatal(err)
	}
	if err := r.Run(context.Background(), `print(counter + 1)`); err != nil {
		t.Fatal(err)
	}
	if out.String() != "42\n" {
		t.Errorf("output = %q", out.String())
	}
}

func TestRunFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "edit.lua")
	if err := os.WriteFile(path, []byte(`doc.set("from file")`), 0o644); err != nil {
		t.Fatal(err)
	}

	e := newEditor(t, "")
	r := newRunner(t, e)

	if err := r.RunFile(context.Background(), path); err != nil {
		t.Fatalf("RunFile failed: %v", err)
	}
	if e.Value() != "from file" {
		t.Errorf("Value() = %q", e.Value())
	}

	if err := r.RunFile(context.Background(), filepath.Join(t.TempDir(), "missing.lua")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("RunFile(missing) = %v, want os.ErrNotExist", err)
	}
}

func TestRunnerClosed(t *testing.T) {
	r := NewRunner(newEditor(t, ""))
	r.Close()
	r.Close()

	if err := r.Run(context.Background(), `x = 1`); !errors.Is(err, ErrRunnerClosed) {
		t.Errorf("error = %v, want ErrRunnerClosed", err)
	}
}
