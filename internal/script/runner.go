package script

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/revert/internal/logging"
)

// DefaultTimeout bounds a single Run.
const DefaultTimeout = 5 * time.Second

// Document is the undoable text a script edits.
type Document interface {
	Value() string
	SetValue(v string)
	InsertText(text string)
	Commit()
	Undo() bool
	Redo() bool
	CanUndo() bool
	CanRedo() bool
}

// Runner executes Lua scripts against a document.
//
// gopher-lua states are not goroutine-safe; Runner serializes all access.
type Runner struct {
	mu sync.Mutex
	L  *lua.LState

	doc     Document
	timeout time.Duration
	out     io.Writer
	logger  *logging.Logger

	closed bool
}

// Option configures a Runner.
type Option func(*Runner)

// WithTimeout sets the per-run execution limit. Zero disables it.
func WithTimeout(d time.Duration) Option {
	return func(r *Runner) {
		if d >= 0 {
			r.timeout = d
		}
	}
}

// WithOutput redirects print. The default discards output.
func WithOutput(w io.Writer) Option {
	return func(r *Runner) {
		if w != nil {
			r.out = w
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(r *Runner) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewRunner creates a sandboxed runner bound to doc.
func NewRunner(doc Document, opts ...Option) *Runner {
	r := &Runner{
		doc:     doc,
		timeout: DefaultTimeout,
		out:     io.Discard,
		logger:  logging.Discard(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.WithComponent("script")

	r.L = lua.NewState(lua.Options{SkipOpenLibs: true})
	openSafeLibraries(r.L)
	removeUnsafeGlobals(r.L)
	r.L.SetGlobal("print", r.L.NewFunction(r.print))
	r.L.SetGlobal("doc", r.docModule())
	return r
}

// openSafeLibraries opens the libraries that cannot reach the host.
func openSafeLibraries(L *lua.LState) {
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)
}

// removeUnsafeGlobals drops base functions that load code from disk or
// strings.
func removeUnsafeGlobals(L *lua.LState) {
	for _, name := range []string{"dofile", "loadfile", "load", "loadstring", "require", "module"} {
		L.SetGlobal(name, lua.LNil)
	}
}

// Run executes code. Globals set by earlier runs remain visible.
func (r *Runner) Run(ctx context.Context, code string) error {
	return r.run(ctx, "<string>", strings.NewReader(code))
}

// RunFile executes the script at path.
func (r *Runner) RunFile(ctx context.Context, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open script: %w", err)
	}
	defer f.Close()
	return r.run(ctx, path, f)
}

func (r *Runner) run(ctx context.Context, name string, src io.Reader) (err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return ErrRunnerClosed
	}

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	fn, err := r.L.Load(src, name)
	if err != nil {
		return &Error{Name: name, Err: err}
	}

	r.logger.Debug("running %s", name)
	start := time.Now()

	r.L.SetContext(ctx)
	defer r.L.RemoveContext()
	defer r.L.SetTop(0)

	defer func() {
		if p := recover(); p != nil {
			err = &Error{Name: name, Err: fmt.Errorf("lua panic: %v", p)}
		}
	}()

	r.L.Push(fn)
	if callErr := r.L.PCall(0, lua.MultRet, nil); callErr != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			if errors.Is(ctxErr, context.DeadlineExceeded) {
				return fmt.Errorf("%s: %w", name, ErrTimeout)
			}
			return ctxErr
		}
		return &Error{Name: name, Err: callErr}
	}

	r.logger.Debug("finished %s in %s", name, time.Since(start))
	return nil
}

// Close releases the Lua state. It is safe to call more than once.
func (r *Runner) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return
	}
	r.L.Close()
	r.closed = true
}

func (r *Runner) print(L *lua.LState) int {
	n := L.GetTop()
	parts := make([]string, n)
	for i := 1; i <= n; i++ {
		parts[i-1] = L.ToStringMeta(L.Get(i)).String()
	}
	fmt.Fprintln(r.out, strings.Join(parts, "\t"))
	return 0
}

func (r *Runner) docModule() *lua.LTable {
	return r.L.SetFuncs(r.L.NewTable(), map[string]lua.LGFunction{
		"text": func(L *lua.LState) int {
			L.Push(lua.LString(r.doc.Value()))
			return 1
		},
		"set": func(L *lua.LState) int {
			r.doc.SetValue(L.CheckString(1))
			return 0
		},
		"insert": func(L *lua.LState) int {
			r.doc.InsertText(L.CheckString(1))
			return 0
		},
		"commit": func(L *lua.LState) int {
			r.doc.Commit()
			return 0
		},
		"undo": func(L *lua.LState) int {
			L.Push(lua.LBool(r.doc.Undo()))
			return 1
		},
		"redo": func(L *lua.LState) int {
			L.Push(lua.LBool(r.doc.Redo()))
			return 1
		},
		"can_undo": func(L *lua.LState) int {
			L.Push(lua.LBool(r.doc.CanUndo()))
			return 1
		},
		"can_redo": func(L *lua.LState) int {
			L.Push(lua.LBool(r.doc.CanRedo()))
			return 1
		},
	})
}
