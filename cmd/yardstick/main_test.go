package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spachava753/yardstick/internal/output"
)

const planConfig = `variations:
  - name: prompt
    variations:
      - value_type: str
        value: short prompt
        variation_id: short
      - value_type: str
        value: long prompt
        variation_id: long
  - name: temperature
    variations:
      - value_type: float
        value: 0.1
      - value_type: float
        value: 0.9
`

const experimentJSON = `{
  "results": [
    {"input_data": {"content": {"q": "a"}}, "combination": {"prompt": "short", "temperature": "0"},
     "raw_output": "x", "latency": 1, "token_usage": 3,
     "evaluator_outputs": [{"name": "accuracy", "result": 1}]},
    {"input_data": {"content": {"q": "b"}}, "combination": {"prompt": "long", "temperature": "0"},
     "raw_output": "y", "latency": 1, "token_usage": 3,
     "evaluator_outputs": [{"name": "accuracy", "result": 0}]}
  ],
  "aggregated_metrics": {"stale": {"average_stale": {"name": "average_stale", "value": 9}}}
}`

func writeFile(t *testing.T, dir, name, data string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatalf("writing %s: %v", name, err)
	}
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := buildRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--log-level", "error"}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestBuildRootCmdIncludesSubcommands(t *testing.T) {
	cmd := buildRootCmd()
	names := map[string]bool{}
	for _, sub := range cmd.Commands() {
		names[sub.Name()] = true
	}
	for _, name := range []string{"validate", "plan", "summarize"} {
		if !names[name] {
			t.Fatalf("expected subcommand %q to be registered", name)
		}
	}
}

func TestValidateCommand(t *testing.T) {
	dir := t.TempDir()
	good := writeFile(t, dir, "good.yaml", planConfig)
	bad := writeFile(t, dir, "bad.yaml", "variations: []\n")

	out, err := run(t, "validate", good)
	if err != nil {
		t.Fatalf("validate good config: %v\n%s", err, out)
	}
	if !strings.Contains(out, "ok   "+good) {
		t.Errorf("unexpected output:\n%s", out)
	}

	out, err = run(t, "validate", good, bad)
	if err == nil {
		t.Fatal("expected failure for bad config")
	}
	if !strings.Contains(out, "FAIL "+bad) || !strings.Contains(out, "ok   "+good) {
		t.Errorf("unexpected output:\n%s", out)
	}
}

func TestPlanCommand(t *testing.T) {
	path := writeFile(t, t.TempDir(), "experiment.yaml", planConfig)

	out, err := run(t, "plan", path)
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected 4 combinations, got %d:\n%s", len(lines), out)
	}
	if lines[0] != "prompt=short,temperature=0" {
		t.Errorf("first combination = %q", lines[0])
	}
}

func TestSummarizeCommand(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeFile(t, dir, "experiment.yaml", planConfig)
	expPath := writeFile(t, dir, "experiment.json", experimentJSON)
	outPath := filepath.Join(dir, "out", "summary.json")

	out, err := run(t, "summarize", expPath, "--config", cfgPath, "--by-combination", "-o", outPath)
	if err != nil {
		t.Fatalf("summarize: %v\n%s", err, out)
	}
	if !strings.Contains(out, "accuracy\taverage_accuracy\t0.5000") {
		t.Errorf("missing overall average:\n%s", out)
	}
	if !strings.Contains(out, "[prompt=long,temperature=0]") {
		t.Errorf("missing per-combination section:\n%s", out)
	}

	written, err := output.LoadFromPath(outPath)
	if err != nil {
		t.Fatalf("loading written experiment: %v", err)
	}
	if _, ok := written.AggregatedMetrics["stale"]; ok {
		t.Error("stale metrics should have been replaced")
	}
	if m, ok := written.AggregatedMetrics.Get("accuracy", "average_accuracy"); !ok || m.Value != 0.5 {
		t.Errorf("written metrics = %+v", written.AggregatedMetrics)
	}
}

func TestSummarizeRequiresExperiment(t *testing.T) {
	if _, err := run(t, "summarize"); err == nil {
		t.Error("expected error without experiment location")
	}
}
