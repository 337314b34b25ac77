// interpreter.go — PUBLIC API SURFACE of the Schem interpreter.
//
// OVERVIEW
// ========
// This file holds the exported entry points of the engine. The evaluator loop
// itself lives in interpreter_exec.go; the value model in types.go; the
// builtins in builtin_*.go.
//
// What you get in this file:
//   • The **Interpreter** type and its functional options.
//   • `Arep` — read, evaluate and print a source string against the root
//     environment, with temporary host overrides.
//   • `ArepAsync` — the same, delivered through a one-shot channel.
//   • `EvalString` — read and evaluate, returning the Value.
//   • `Evaluate` — evaluate a form in an explicit environment (see
//     interpreter_exec.go).
//   • `Apply` / `MacroExpand` — function application and macro expansion for
//     hosts and builtins.
//   • `InstallBridgeFunctions` — the host extension point.
//
// EXECUTION & SCOPING SEMANTICS
// -----------------------------
// Every interpreter owns one root environment (`Root`) holding the builtins,
// the prelude and everything the user `def`s at top level. Top-level entry
// points evaluate directly in Root, so definitions persist across calls.
//
// The first Arep/EvalString call evaluates the bundled prelude (prelude.schem)
// into Root exactly once. Hosts that want a bare environment pass
// WithoutPrelude; hosts that want their own pass WithPrelude.
//
// One top-level evaluation runs at a time per interpreter (guarded by a
// mutex). Builtins that re-enter the evaluator (eval, apply, map, swap!) call
// Evaluate/Apply directly and never take the lock again. Independent
// interpreters share no state.
//
// SUSPENSION
// ----------
// Evaluation is an ordinary blocking call. A bridge function that waits on a
// timer, the network or a user simply blocks; the host stays responsive on its
// other goroutines, and ArepAsync gives promise-style callers a future. The
// context passed to Arep flows to every bridge function.
//
// A step hook (WithStepHook) runs before every trampoline step. Debuggers use
// it to pause evaluation until resumed, or to abort it by returning an error.
// It is a debugging aid; the core has no other cancellation mechanism.
//
// ERRORS
// ------
// All entry points return typed errors (errors.go) unchanged: *SyntaxError,
// *UnboundSymbolError, *ArityError, *TypeError, *UserError. A failed
// evaluation does not roll back `def`s that completed before the failure.
package schem

import (
	"context"
	"io"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
)

////////////////////////////////////////////////////////////////////////////////
//                              PUBLIC TYPES & CTORS
////////////////////////////////////////////////////////////////////////////////

// StepHook is called with the form about to be evaluated and its environment.
// A non-nil error aborts the evaluation with that error.
type StepHook func(ctx context.Context, ast Value, env *Env) error

// Result is delivered by ArepAsync.
type Result struct {
	Output string
	Err    error
}

// Interpreter is one independent Schem instance.
type Interpreter struct {
	Root *Env // builtins, prelude and top-level definitions

	logger   *slog.Logger
	stepHook StepHook
	stdout   io.Writer

	preludeName string
	preludeSrc  string
	noPrelude   bool
	preludeOnce sync.Once
	preludeErr  error

	osBuiltins bool

	// pending holds the override names whose previous Root binding is still
	// to be restored. A def of one of them in Root removes it.
	pending map[Symbol]bool

	mu     sync.Mutex
	gensym atomic.Uint64
}

// Option configures an Interpreter.
type Option func(*Interpreter)

// WithLogger sets the structured logger. Evaluation steps, macro expansions
// and tail calls are logged at debug level.
func WithLogger(l *slog.Logger) Option {
	return func(ip *Interpreter) {
		if l != nil {
			ip.logger = l
		}
	}
}

// WithStepHook installs a hook run before every evaluation step.
func WithStepHook(h StepHook) Option {
	return func(ip *Interpreter) { ip.stepHook = h }
}

// WithStdout redirects the output of println and prn.
func WithStdout(w io.Writer) Option {
	return func(ip *Interpreter) {
		if w != nil {
			ip.stdout = w
		}
	}
}

// WithPrelude replaces the bundled prelude with src. name appears in errors.
func WithPrelude(name, src string) Option {
	return func(ip *Interpreter) {
		ip.preludeName, ip.preludeSrc, ip.noPrelude = name, src, false
	}
}

// WithoutPrelude disables prelude loading.
func WithoutPrelude() Option {
	return func(ip *Interpreter) { ip.noPrelude = true }
}

// NewInterpreter constructs an engine with the standard builtins installed in
// Root. The prelude is loaded lazily by the first Arep/EvalString call, or
// explicitly with LoadPrelude.
func NewInterpreter(opts ...Option) *Interpreter {
	ip := &Interpreter{
		Root:        NewEnv(nil),
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		stdout:      os.Stdout,
		preludeName: "prelude.schem",
		preludeSrc:  preludeSource,
	}
	for _, opt := range opts {
		opt(ip)
	}

	registerCoreBuiltins(ip)
	registerCollectionBuiltins(ip)
	registerStringBuiltins(ip)
	registerRegexBuiltins(ip)
	registerAtomBuiltins(ip)
	registerIntrospectionBuiltins(ip)
	registerJSONBuiltins(ip)
	registerTimeBuiltins(ip)
	if ip.osBuiltins {
		registerOsBuiltins(ip)
	}
	return ip
}

////////////////////////////////////////////////////////////////////////////////
//                                PUBLIC METHODS
////////////////////////////////////////////////////////////////////////////////

// Logger returns the interpreter's logger.
func (ip *Interpreter) Logger() *slog.Logger { return ip.logger }

// Arep reads src (several top-level forms are wrapped in an implicit do),
// evaluates it in Root and returns the escaped printed result.
//
// overrides are installed into Root for the duration of the call, replacing
// any existing bindings of the same names, and the previous bindings are
// restored afterwards. Entries take any form AddMap accepts.
func (ip *Interpreter) Arep(ctx context.Context, src string, overrides map[string]any) (string, error) {
	v, err := ip.evalTop(ctx, src, overrides)
	if err != nil {
		return "", err
	}
	return Print(v, true), nil
}

// ArepAsync runs Arep on a new goroutine and delivers its outcome on the
// returned channel, which receives exactly one Result.
func (ip *Interpreter) ArepAsync(ctx context.Context, src string, overrides map[string]any) <-chan Result {
	ch := make(chan Result, 1)
	go func() {
		out, err := ip.Arep(ctx, src, overrides)
		ch <- Result{Output: out, Err: err}
	}()
	return ch
}

// EvalString is Arep without printing: it returns the resulting Value.
func (ip *Interpreter) EvalString(ctx context.Context, src string) (Value, error) {
	return ip.evalTop(ctx, src, nil)
}

// LoadPrelude evaluates the prelude into Root if that has not happened yet.
// It is safe to call repeatedly; the outcome of the first load is returned.
func (ip *Interpreter) LoadPrelude(ctx context.Context) error {
	ip.preludeOnce.Do(func() {
		if ip.noPrelude {
			return
		}
		ip.logger.DebugContext(ctx, "loading prelude", "name", ip.preludeName)
		ast, err := ReadAll(ip.preludeSrc)
		if err != nil {
			ip.preludeErr = WrapErrorWithName(err, ip.preludeName, ip.preludeSrc)
			return
		}
		if _, err := ip.Evaluate(ctx, ast, ip.Root); err != nil {
			ip.preludeErr = err
		}
	})
	return ip.preludeErr
}

// InstallBridgeFunctions adds host functions (or values) to Root. It is the
// extension point for host layers. A name that is already bound rejects the
// whole batch.
func (ip *Interpreter) InstallBridgeFunctions(bindings map[string]any) error {
	return ip.Root.AddMap(bindings, false)
}

// Apply calls fn with already-evaluated arguments. fn may be any callable
// value: a function, a keyword, a number or a vector.
func (ip *Interpreter) Apply(ctx context.Context, fn Value, args []Value) (Value, error) {
	if f, ok := fn.(*Function); ok && !f.IsBridge() {
		env, err := ip.closureEnv(ctx, f, args)
		if err != nil {
			return nil, err
		}
		return ip.Evaluate(ctx, f.Body, env)
	}
	return ip.applyLeaf(ctx, fn, args)
}

// MacroExpand expands form until its head is no longer a macro call and
// returns the result without evaluating it.
func (ip *Interpreter) MacroExpand(ctx context.Context, form Value, env *Env) (Value, error) {
	return ip.macroExpand(ctx, form, env)
}

//// END_OF_PUBLIC

func (ip *Interpreter) evalTop(ctx context.Context, src string, overrides map[string]any) (Value, error) {
	ip.mu.Lock()
	defer ip.mu.Unlock()

	if err := ip.LoadPrelude(ctx); err != nil {
		return nil, err
	}
	if len(overrides) > 0 {
		restore, err := ip.installOverrides(overrides)
		if err != nil {
			return nil, err
		}
		defer restore()
	}
	ast, err := ReadAll(src)
	if err != nil {
		return nil, err
	}
	return ip.Evaluate(ctx, ast, ip.Root)
}

// installOverrides binds overrides in Root and returns a func restoring what
// was there before. Names defined by the evaluated code keep their new value.
func (ip *Interpreter) installOverrides(overrides map[string]any) (func(), error) {
	type saved struct {
		v   Value
		had bool
	}
	prev := make(map[Symbol]saved, len(overrides))
	for name := range overrides {
		v, had := ip.Root.Lookup(Symbol(name))
		prev[Symbol(name)] = saved{v, had}
	}
	if err := ip.Root.AddMap(overrides, true); err != nil {
		return nil, err
	}
	ip.pending = make(map[Symbol]bool, len(prev))
	for name := range prev {
		ip.pending[name] = true
	}
	return func() {
		pending := ip.pending
		ip.pending = nil
		for name, s := range prev {
			if !pending[name] {
				continue
			}
			if s.had {
				ip.Root.Set(name, s.v)
			} else {
				ip.Root.Remove(name)
			}
		}
	}, nil
}
