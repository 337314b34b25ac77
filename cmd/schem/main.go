package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/peterh/liner"
	"github.com/sergi/go-diff/diffmatchpatch"

	schem "github.com/karl-rathmanner/golem-sub000"
)

const (
	appName       = "schem"
	defaultConfig = "~/.schem.yaml"
	promptCont    = "...... "
)

var (
	banner   = fmt.Sprintf("Schem %s REPL\nCtrl+C cancels input, Ctrl+D exits. Type :quit to exit, :help for commands.", schem.Version)
	helpText = `
REPL commands:
  :quit         Exit the REPL
  :doc <name>   Show documentation for a name
  :help         Show this help
`
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	cmd := os.Args[1]
	switch cmd {
	case "run":
		os.Exit(cmdRun(os.Args[2:]))
	case "repl":
		os.Exit(cmdRepl(os.Args[2:]))
	case "eval":
		os.Exit(cmdEval(os.Args[2:]))
	case "fmt":
		os.Exit(cmdFmt(os.Args[2:]))
	case "version":
		fmt.Println(schem.Version)
		return
	case "-h", "--help", "help":
		usage()
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "%s: unknown command %q\n", appName, cmd)
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Printf(`Schem %s (built %s)

Usage:
  %s run [flags] <file.schem> [--] [args...]   Run a script.
  %s repl [flags]                              Start the REPL.
  %s eval [flags] <expr>                       Evaluate an expression and print the result.
  %s fmt [--check] <file.schem>...             Pretty-print file(s) in place.
  %s version                                   Print the compiled version

Flags:
  -config <path>   YAML config file (default %s if present)
  -debug           Log every evaluation step to stderr

`, schem.Version, schem.BuildDate, appName, appName, appName, appName, appName, defaultConfig)
}

// -----------------------------------------------------------------------------
// shared setup
// -----------------------------------------------------------------------------

type commonFlags struct {
	config string
	debug  bool
}

func (c *commonFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&c.config, "config", "", "YAML config file")
	fs.BoolVar(&c.debug, "debug", false, "log evaluation steps to stderr")
}

// loadConfig reads -config, or the default file when it exists.
func (c *commonFlags) loadConfig() (*schem.Config, error) {
	path := c.config
	if path == "" {
		if cfg, err := schem.LoadConfig(defaultConfig); err == nil {
			return c.applyDebug(cfg), nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	}
	cfg, err := schem.LoadConfig(path)
	if err != nil {
		return nil, err
	}
	return c.applyDebug(cfg), nil
}

func (c *commonFlags) applyDebug(cfg *schem.Config) *schem.Config {
	if c.debug {
		cfg.Log.Level = "debug"
	}
	return cfg
}

func newInterpreter(cfg *schem.Config) (*schem.Interpreter, error) {
	opts, err := cfg.Options(os.Stderr)
	if err != nil {
		return nil, err
	}
	opts = append(opts, schem.WithOSBuiltins())
	return schem.NewInterpreter(opts...), nil
}

// interruptible returns a context cancelled by Ctrl+C.
func interruptible() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// -----------------------------------------------------------------------------
// run
// -----------------------------------------------------------------------------

func cmdRun(args []string) int {
	var cf commonFlags
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	cf.register(fs)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	rest := fs.Args()
	if len(rest) < 1 {
		fmt.Fprintf(os.Stderr, "usage: %s run [flags] <file.schem> [--] [args...]\n", appName)
		return 2
	}
	file := rest[0]
	argv := rest[1:]
	if len(argv) > 0 && argv[0] == "--" {
		argv = argv[1:]
	}

	src, err := os.ReadFile(file)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: cannot read %s: %v\n", appName, file, err)
		return 1
	}
	cfg, err := cf.loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", appName, err)
		return 1
	}
	ip, err := newInterpreter(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", appName, err)
		return 1
	}
	if err := ip.InstallBridgeFunctions(map[string]any{
		"*argv*": argv,
		"*file*": fileAbsOrOrig(file),
	}); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", appName, err)
		return 1
	}

	ctx, stop := interruptible()
	defer stop()
	if _, err := ip.EvalString(ctx, string(src)); err != nil {
		fmt.Fprintln(os.Stderr, schem.WrapErrorWithName(err, file, string(src)).Error())
		return 1
	}
	return 0
}

func fileAbsOrOrig(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return p
}

// -----------------------------------------------------------------------------
// eval
// -----------------------------------------------------------------------------

func cmdEval(args []string) int {
	var cf commonFlags
	fs := flag.NewFlagSet("eval", flag.ContinueOnError)
	cf.register(fs)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() == 0 {
		fmt.Fprintf(os.Stderr, "usage: %s eval [flags] <expr>\n", appName)
		return 2
	}
	src := strings.Join(fs.Args(), " ")

	cfg, err := cf.loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", appName, err)
		return 1
	}
	ip, err := newInterpreter(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", appName, err)
		return 1
	}

	ctx, stop := interruptible()
	defer stop()
	out, err := ip.Arep(ctx, src, nil)
	if err != nil {
		fmt.Fprintln(os.Stderr, schem.WrapErrorWithSource(err, src).Error())
		return 1
	}
	fmt.Println(out)
	return 0
}

// -----------------------------------------------------------------------------
// repl
// -----------------------------------------------------------------------------

func cmdRepl(args []string) (ret int) {
	var cf commonFlags
	fs := flag.NewFlagSet("repl", flag.ContinueOnError)
	cf.register(fs)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	cfg, err := cf.loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", appName, err)
		return 1
	}
	ip, err := newInterpreter(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", appName, err)
		return 1
	}
	schem.EnableColor = cfg.ColorEnabled()

	fmt.Println(banner)

	histPath := cfg.HistoryPath()

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)
	ln.SetWordCompleter(func(line string, pos int) (string, []string, string) {
		start := pos
		for start > 0 && !isWordBreak(line[start-1]) {
			start--
		}
		return line[:start], ip.Completions(line[start:pos]), line[pos:]
	})

	defer func() {
		if f, err := os.Create(histPath); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
	}()

	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}

	if err := ip.LoadPrelude(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, schem.FormatError(err.Error()))
		return 1
	}

	for {
		code, ok := readByParseProbe(ln, cfg.REPL.Prompt, promptCont)
		if !ok {
			fmt.Println()
			break
		}
		trimmed := strings.TrimSpace(code)
		if trimmed == "" {
			continue
		}

		switch cmd, arg := replCommand(trimmed); cmd {
		case ":quit":
			return 0
		case ":help":
			fmt.Print(helpText)
			continue
		case ":doc":
			showDoc(ip, arg)
			continue
		}

		ln.AppendHistory(strings.ReplaceAll(code, "\n", " "))

		ctx, stop := interruptible()
		v, err := ip.EvalString(ctx, code)
		stop()
		if err != nil {
			fmt.Fprintln(os.Stderr, schem.FormatError(schem.WrapErrorWithSource(err, code).Error()))
			continue
		}
		fmt.Println(schem.FormatValue(v))
	}

	return 0
}

// replCommand recognizes :quit, :help and :doc <name>. Any other input,
// including a bare keyword such as :foo, is evaluated.
func replCommand(line string) (cmd, arg string) {
	fields := strings.Fields(line)
	switch {
	case len(fields) == 1 && (fields[0] == ":quit" || fields[0] == ":help"):
		return fields[0], ""
	case len(fields) == 2 && fields[0] == ":doc":
		return fields[0], fields[1]
	}
	return "", ""
}

func showDoc(ip *schem.Interpreter, name string) {
	info, ok := ip.Root.SymbolInfo(schem.Symbol(name))
	if !ok {
		fmt.Fprintln(os.Stderr, schem.FormatError("unbound symbol: "+name))
		return
	}
	fmt.Println(schem.DocText(info))
}

func isWordBreak(b byte) bool {
	switch b {
	case ' ', '\t', '(', ')', '[', ']', '{', '}', '\'', '`', '~', '@', '"', ',':
		return true
	}
	return false
}

// readByParseProbe keeps prompting for continuation lines while the buffer
// reads as incomplete.
func readByParseProbe(ln *liner.State, prompt, cont string) (string, bool) {
	var b strings.Builder

	for {
		var line string
		var err error
		if b.Len() == 0 {
			line, err = ln.Prompt(prompt)
		} else {
			line, err = ln.Prompt(cont)
		}
		if errors.Is(err, io.EOF) {
			return "", false
		}
		if errors.Is(err, liner.ErrPromptAborted) {
			return "", true
		}
		if err != nil {
			return "", false
		}

		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)

		src := b.String()
		if _, perr := schem.ReadAll(src); perr != nil && schem.IsIncomplete(perr) {
			continue
		}
		return src, true
	}
}

// -----------------------------------------------------------------------------
// fmt
// -----------------------------------------------------------------------------

// cmdFmt rewrites each file as its top-level forms printed by schem.Pretty,
// separated by blank lines. Comments are not preserved.
func cmdFmt(args []string) int {
	fs := flag.NewFlagSet("fmt", flag.ContinueOnError)
	check := fs.Bool("check", false, "print a diff and exit 1 if any file would change")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() == 0 {
		fmt.Fprintf(os.Stderr, "usage: %s fmt [--check] <file.schem>...\n", appName)
		return 2
	}

	status := 0
	for _, file := range fs.Args() {
		src, err := os.ReadFile(file)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: cannot read %s: %v\n", appName, file, err)
			return 1
		}
		formatted, err := formatSource(string(src))
		if err != nil {
			fmt.Fprintln(os.Stderr, schem.WrapErrorWithName(err, file, string(src)).Error())
			return 1
		}
		if formatted == string(src) {
			continue
		}
		if *check {
			dmp := diffmatchpatch.New()
			diffs := dmp.DiffMain(string(src), formatted, false)
			fmt.Printf("%s:\n%s\n", file, dmp.DiffPrettyText(dmp.DiffCleanupSemantic(diffs)))
			status = 1
			continue
		}
		if err := os.WriteFile(file, []byte(formatted), 0o644); err != nil {
			fmt.Fprintf(os.Stderr, "%s: cannot write %s: %v\n", appName, file, err)
			return 1
		}
	}
	return status
}

func formatSource(src string) (string, error) {
	r := schem.NewReader(src)
	var parts []string
	for {
		form, err := r.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", err
		}
		parts = append(parts, schem.Pretty(form))
	}
	if len(parts) == 0 {
		return "", nil
	}
	return strings.Join(parts, "\n\n") + "\n", nil
}
