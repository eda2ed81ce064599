package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/gorewood/echopost/internal/output"
)

func TestRootCommand_Version(t *testing.T) {
	version = "1.2.3"

	cmd := newRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"--version"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "1.2.3") {
		t.Errorf("--version output should contain version: %q", out)
	}
	if !strings.Contains(out, "echopost") {
		t.Errorf("--version output should contain 'echopost': %q", out)
	}
}

func TestRootCommand_Help(t *testing.T) {
	cmd := newRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"--help"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	out := buf.String()
	for _, expected := range []string{"echopost", "Usage:", "--json", "--server", "publish", "draft", "Publishing Commands:"} {
		if !strings.Contains(out, expected) {
			t.Errorf("--help output should contain %q: %q", expected, out)
		}
	}
}

func TestRootCommand_JSONFlag_NoSubcommand(t *testing.T) {
	t.Setenv("ECHOPOST_CONFIG_HOME", t.TempDir())
	cmd := newRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"--json"})

	err := cmd.Execute()
	if err == nil {
		t.Fatal("expected error when running with --json but no subcommand")
	}
	if code := output.GetExitCode(err); code != output.ExitUserError {
		t.Errorf("exit code = %d, want %d", code, output.ExitUserError)
	}

	var result map[string]any
	if err := json.Unmarshal(buf.Bytes(), &result); err != nil {
		t.Fatalf("output is not valid JSON: %v\n%s", err, buf.String())
	}
	if _, ok := result["error"]; !ok {
		t.Errorf("JSON output should contain 'error': %v", result)
	}
}

func TestBuildVersion(t *testing.T) {
	defer func(v, c, d string) { version, commit, date = v, c, d }(version, commit, date)

	version, commit, date = "1.0.0", "none", "unknown"
	if got := buildVersion(); got != "1.0.0" {
		t.Errorf("buildVersion() = %q", got)
	}

	commit, date = "abcdef123456", "2026-10-01"
	if got := buildVersion(); got != "1.0.0 (abcdef1, 2026-10-01)" {
		t.Errorf("buildVersion() = %q", got)
	}
}

func TestRootCommand_Groups(t *testing.T) {
	cmd := newRootCmd()
	want := map[string]string{
		"compose":  "write",
		"edit":     "write",
		"draft":    "write",
		"attach":   "write",
		"refine":   "write",
		"publish":  "publish",
		"schedule": "publish",
		"history":  "publish",
		"serve":    "agent",
	}
	for _, sub := range cmd.Commands() {
		group, ok := want[sub.Name()]
		if !ok {
			continue
		}
		if sub.GroupID != group {
			t.Errorf("%s group = %q, want %q", sub.Name(), sub.GroupID, group)
		}
		delete(want, sub.Name())
	}
	for name := range want {
		t.Errorf("command %s not registered", name)
	}
}
