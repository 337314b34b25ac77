// builtin_time.go
//
// Builtins surfaced:
//  1. (now-ms)            milliseconds since the Unix epoch
//  2. (sleep ms)          suspends the evaluation; returns nil
//  3. (time-format ms)    RFC 3339 text (UTC) for a millisecond timestamp
//  4. (time-parse s)      millisecond timestamp for RFC 3339 text
//
// sleep is the reference suspending bridge function: it blocks the evaluating
// goroutine and gives up early with the context's error when the context
// passed to Arep is cancelled.
package schem

import (
	"context"
	"time"
)

func registerTimeBuiltins(ip *Interpreter) {
	ip.register(
		Bridge{Name: "now-ms", ParamHint: "[]", Doc: "Current wall-clock time in milliseconds since the Unix epoch.",
			Fn: func(args []Value) (Value, error) {
				if err := wantArity("now-ms", args, 0, 0); err != nil {
					return nil, err
				}
				return Number(time.Now().UnixMilli()), nil
			}},
		Bridge{Name: "sleep", ParamHint: "[ms]", Fn: func(ctx context.Context, args []Value) (Value, error) {
			if err := wantArity("sleep", args, 1, 1); err != nil {
				return nil, err
			}
			ms, err := argNumber("sleep", args, 0)
			if err != nil {
				return nil, err
			}
			t := time.NewTimer(time.Duration(ms * float64(time.Millisecond)))
			defer t.Stop()
			select {
			case <-t.C:
				return NilValue, nil
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}},
		Bridge{Name: "time-format", ParamHint: "[ms]", Fn: func(args []Value) (Value, error) {
			if err := wantArity("time-format", args, 1, 1); err != nil {
				return nil, err
			}
			ms, err := argNumber("time-format", args, 0)
			if err != nil {
				return nil, err
			}
			t := time.UnixMilli(int64(ms)).UTC()
			return String(t.Format(time.RFC3339Nano)), nil
		}},
		Bridge{Name: "time-parse", ParamHint: "[s]", Fn: func(args []Value) (Value, error) {
			if err := wantArity("time-parse", args, 1, 1); err != nil {
				return nil, err
			}
			s, err := argString("time-parse", args, 0)
			if err != nil {
				return nil, err
			}
			t, err := time.Parse(time.RFC3339Nano, s)
			if err != nil {
				return nil, &TypeError{Msg: "time-parse: invalid RFC 3339 time: " + err.Error()}
			}
			return Number(t.UnixMilli()), nil
		}},
	)
	setBuiltinDoc(ip, "sleep", `Suspend evaluation for ms milliseconds.

Params:
	ms: number of milliseconds

Returns:
	nil, or fails with the context error when the evaluation is cancelled`)
}
