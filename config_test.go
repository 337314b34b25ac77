package schem

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func parseConfig(t *testing.T, src string) *Config {
	t.Helper()
	cfg, err := ParseConfig(strings.NewReader(src))
	if err != nil {
		t.Fatalf("ParseConfig: %v\nsource:\n%s", err, src)
	}
	return cfg
}

func Test_Config_Empty_Yields_Defaults(t *testing.T) {
	cfg := parseConfig(t, "")
	def := DefaultConfig()
	if cfg.Log != def.Log || cfg.REPL.Prompt != def.REPL.Prompt || !cfg.ColorEnabled() {
		t.Fatalf("want defaults, got %+v", cfg)
	}
}

func Test_Config_Partial_Is_Merged_With_Defaults(t *testing.T) {
	cfg := parseConfig(t, "log:\n  level: debug\nrepl:\n  color: false\n")
	if cfg.Log.Level != "debug" || cfg.Log.Format != "text" {
		t.Fatalf("unexpected log section %+v", cfg.Log)
	}
	if cfg.ColorEnabled() {
		t.Fatal("explicit color: false was overridden by the default")
	}
	if cfg.REPL.Prompt != "schem> " {
		t.Fatalf("prompt default lost: %q", cfg.REPL.Prompt)
	}
}

func Test_Config_Rejects_Bad_Input(t *testing.T) {
	cases := []string{
		"logs:\n  level: debug\n",
		"log:\n  format: xml\n",
		"log:\n  level: loud\n",
		"repl: [1, 2]\n",
	}
	for _, src := range cases {
		if _, err := ParseConfig(strings.NewReader(src)); err == nil {
			t.Errorf("expected error for:\n%s", src)
		}
	}
}

func Test_Config_LoadConfig_Resolves_Prelude_Relative_To_File(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "schem.yaml")
	if err := os.WriteFile(path, []byte("prelude:\n  path: lib/prelude.schem\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join(dir, "lib", "prelude.schem"); cfg.Prelude.Path != want {
		t.Fatalf("want %s, got %s", want, cfg.Prelude.Path)
	}

	if _, err := LoadConfig(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Fatal("missing file must fail")
	}
	if cfg, err := LoadConfig(""); err != nil || cfg.Log.Level != "warn" {
		t.Fatalf("empty path should give defaults: %v %v", cfg, err)
	}
}

func Test_Config_Options_Build_Interpreter(t *testing.T) {
	dir := t.TempDir()
	prelude := filepath.Join(dir, "p.schem")
	if err := os.WriteFile(prelude, []byte(`(def from-file :yes)`), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := parseConfig(t, "prelude:\n  path: "+prelude+"\nlog:\n  level: debug\n  format: json\n")
	var logs bytes.Buffer
	opts, err := cfg.Options(&logs)
	if err != nil {
		t.Fatal(err)
	}
	ip := NewInterpreter(opts...)
	wantOut(t, arep(t, ip, `from-file`), `:yes`)
	if !strings.Contains(logs.String(), `"msg":"loading prelude"`) {
		t.Fatalf("want JSON debug logs, got:\n%s", logs.String())
	}

	off := parseConfig(t, "prelude:\n  disabled: true\n")
	opts, err = off.Options(&logs)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := NewInterpreter(opts...).Arep(context.Background(), `(inc 1)`, nil); err == nil {
		t.Fatal("prelude should be disabled")
	}
}

func Test_Config_Missing_Prelude_File(t *testing.T) {
	ip := NewInterpreter(WithPreludeFile(filepath.Join(t.TempDir(), "nope.schem")))
	err := ip.LoadPrelude(context.Background())
	if err == nil || !strings.Contains(err.Error(), "prelude") {
		t.Fatalf("want prelude read error, got %v", err)
	}
	if _, err := ip.Arep(context.Background(), `1`, nil); err == nil {
		t.Fatal("evaluation must report the prelude failure")
	}
}

func Test_Config_HistoryPath_Expands_Home(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	cfg := DefaultConfig()
	if got := cfg.HistoryPath(); got != filepath.Join(home, ".schem_history") {
		t.Fatalf("unexpected history path %s", got)
	}
}
