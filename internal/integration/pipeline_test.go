//go:build integration

package integration

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/scbrown/dispatch/internal/argv"
	"github.com/scbrown/dispatch/internal/model"
)

func TestSmokeHelp(t *testing.T) {
	e := newEnv(t)
	stdout := e.mustDSP("--help")
	if !strings.Contains(stdout, "dispatch") {
		t.Errorf("expected help to mention dispatch, got:\n%s", stdout)
	}
}

func TestGreetRecordsHistory(t *testing.T) {
	e := newEnv(t)

	if out := e.mustGreet("greet", "world", "--loud"); out != "HELLO, WORLD!\n" {
		t.Errorf("greet output = %q", out)
	}
	e.mustGreet("bu", "app")

	var invs []model.Invocation
	if err := json.Unmarshal([]byte(e.mustDSP("history", "--json")), &invs); err != nil {
		t.Fatalf("parse history JSON: %v", err)
	}
	if len(invs) != 2 {
		t.Fatalf("got %d invocations, want 2", len(invs))
	}
	if invs[0].Command != "bu" || invs[0].Resolved != "build" {
		t.Errorf("newest invocation = %+v, want bu -> build", invs[0])
	}
	if invs[1].Program != "greet" {
		t.Errorf("program = %q, want greet", invs[1].Program)
	}
}

func TestMissThenAlias(t *testing.T) {
	e := newEnv(t)

	stdout, _, err := e.greet("wave", "sam")
	if exitCode(err) != 1 {
		t.Fatalf("unknown command exit = %v, want 1", err)
	}
	if !strings.Contains(stdout, `unknown command "wave"`) {
		t.Errorf("expected unknown command notice, got:\n%s", stdout)
	}

	var misses []model.Miss
	if err := json.Unmarshal([]byte(e.mustDSP("misses", "--json")), &misses); err != nil {
		t.Fatalf("parse misses JSON: %v", err)
	}
	if len(misses) != 1 || misses[0].Command != "wave" {
		t.Fatalf("misses = %+v", misses)
	}

	e.mustDSP("alias", "wave", "greet")
	if out := e.mustGreet("wave", "sam"); out != "Hello, sam!\n" {
		t.Errorf("aliased output = %q", out)
	}

	var paths []model.Path
	if err := json.Unmarshal([]byte(e.mustDSP("paths", "--json")), &paths); err != nil {
		t.Fatalf("parse paths JSON: %v", err)
	}
	if len(paths) != 1 || paths[0].Count != 2 || paths[0].AliasTo != "greet" {
		t.Errorf("paths = %+v", paths)
	}
}

func TestGreetDryRun(t *testing.T) {
	e := newEnv(t)
	if out := e.mustGreet("build", "app", "--dry-run"); out != "dry run: build app\n" {
		t.Errorf("dry run output = %q", out)
	}
	if out := e.mustDSP("history"); !strings.Contains(out, "No invocations found.") {
		t.Errorf("dry run should not be recorded, got:\n%s", out)
	}
}

func TestGreetHandlerError(t *testing.T) {
	e := newEnv(t)
	_, stderr, err := e.greet("build")
	if exitCode(err) != 1 {
		t.Fatalf("exit = %v, want 1", err)
	}
	if !strings.Contains(stderr, "build: no target given") {
		t.Errorf("stderr = %q", stderr)
	}
	if out := e.mustDSP("history", "--errors"); !strings.Contains(out, "no target given") {
		t.Errorf("failed run should be recorded, got:\n%s", out)
	}
}

func TestConfigDrivesBothBinaries(t *testing.T) {
	e := newEnv(t)
	e.mustDSP("config", "flag_aliases", "l=loud")
	e.mustDSP("config", "default_flags", "name=team")

	if out := e.mustGreet("greet", "-l"); out != "HELLO, TEAM!\n" {
		t.Errorf("greet output = %q", out)
	}

	e.writeConfig("default_format = \"json\"\n[flag_aliases]\nl = \"loud\"\n")
	var p argv.Parsed
	if err := json.Unmarshal([]byte(e.mustDSP("parse", "deploy", "-l", "--n=2")), &p); err != nil {
		t.Fatalf("parse JSON: %v", err)
	}
	if !p.Flags["loud"].Equal(argv.Bool(true)) || !p.Flags["n"].Equal(argv.Number(2)) {
		t.Errorf("flags = %v", p.Flags)
	}
}

func TestHistoryOff(t *testing.T) {
	e := newEnv(t)
	e.writeConfig("history = \"off\"\n")
	e.mustGreet("greet")
	if out := e.mustDSP("stats", "--json"); !strings.Contains(out, `"total_invocations": 0`) {
		t.Errorf("history off should record nothing, got:\n%s", out)
	}
}

func TestStatsAfterRuns(t *testing.T) {
	e := newEnv(t)
	e.mustGreet("greet")
	e.greet("nope")

	var st map[string]any
	if err := json.Unmarshal([]byte(e.mustDSP("stats", "--json")), &st); err != nil {
		t.Fatalf("parse stats JSON: %v", err)
	}
	if st["total_invocations"].(float64) != 1 || st["total_misses"].(float64) != 1 {
		t.Errorf("stats = %v", st)
	}
}

func TestDSPErrorExit(t *testing.T) {
	e := newEnv(t)
	_, stderr, err := e.dsp("alias", "--delete", "missing")
	if exitCode(err) != 1 {
		t.Fatalf("exit = %v, want 1", err)
	}
	if !strings.Contains(stderr, `alias "missing" not found`) {
		t.Errorf("stderr = %q", stderr)
	}
}
