package schem

import (
	"context"
	"log/slog"
)

// ---- atoms --------------------------------------------------------------
//
// After every reset! or swap!, the atom's watches are called as
// (f key atom old new) in registration order. A watch may itself reset the
// atom it watches; that triggers a nested round of notifications. A failing
// watch is logged and does not fail the update.

func registerAtomBuiltins(ip *Interpreter) {
	ip.register(
		Bridge{Name: "atom", ParamHint: "[x]", Doc: "New atom holding x.",
			Fn: func(args []Value) (Value, error) {
				if err := wantArity("atom", args, 1, 1); err != nil {
					return nil, err
				}
				return NewAtom(args[0]), nil
			}},
		Bridge{Name: "deref", ParamHint: "[a]", Doc: "Current value of atom a. @a reads as (deref a).",
			Fn: func(args []Value) (Value, error) {
				if err := wantArity("deref", args, 1, 1); err != nil {
					return nil, err
				}
				a, err := argAtom("deref", args, 0)
				if err != nil {
					return nil, err
				}
				return a.Deref(), nil
			}},
		Bridge{Name: "reset!", ParamHint: "[a x]", Doc: "Sets atom a to x and returns x.",
			Fn: func(ctx context.Context, args []Value) (Value, error) {
				if err := wantArity("reset!", args, 2, 2); err != nil {
					return nil, err
				}
				a, err := argAtom("reset!", args, 0)
				if err != nil {
					return nil, err
				}
				ip.resetAtom(ctx, a, args[1])
				return args[1], nil
			}},
		Bridge{Name: "swap!", ParamHint: "[a f & args]", Doc: "Sets atom a to (f @a args...) and returns the new value.",
			Fn: func(ctx context.Context, args []Value) (Value, error) {
				if err := wantArity("swap!", args, 2, -1); err != nil {
					return nil, err
				}
				a, err := argAtom("swap!", args, 0)
				if err != nil {
					return nil, err
				}
				callArgs := append([]Value{a.Deref()}, args[2:]...)
				v, err := ip.Apply(ctx, args[1], callArgs)
				if err != nil {
					return nil, err
				}
				ip.resetAtom(ctx, a, v)
				return v, nil
			}},
		Bridge{Name: "add-watch", ParamHint: "[a key f]", Doc: "Calls (f key a old new) after each change of a. Re-adding a key replaces its callback.",
			Fn: func(args []Value) (Value, error) {
				if err := wantArity("add-watch", args, 3, 3); err != nil {
					return nil, err
				}
				a, err := argAtom("add-watch", args, 0)
				if err != nil {
					return nil, err
				}
				a.AddWatch(args[1], args[2])
				return a, nil
			}},
		Bridge{Name: "remove-watch", ParamHint: "[a key]", Fn: func(args []Value) (Value, error) {
			if err := wantArity("remove-watch", args, 2, 2); err != nil {
				return nil, err
			}
			a, err := argAtom("remove-watch", args, 0)
			if err != nil {
				return nil, err
			}
			a.RemoveWatch(args[1])
			return a, nil
		}},
	)
}

func (ip *Interpreter) resetAtom(ctx context.Context, a *Atom, v Value) {
	old := a.value
	a.value = v
	watches := append([]atomWatch(nil), a.watches...)
	for _, w := range watches {
		if _, err := ip.Apply(ctx, w.fn, []Value{w.key, a, old, v}); err != nil {
			ip.logger.WarnContext(ctx, "atom watch failed",
				slog.String("key", Print(w.key, true)),
				slog.String("error", err.Error()))
		}
	}
}
