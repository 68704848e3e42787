package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/matzehuels/logtower/internal/config"
	"github.com/matzehuels/logtower/pkg/graph"
)

// writeTestLog writes main (m3 m2 m1 base) and feature (f2 f1, forked at
// m1) as a JSON log file and returns its path.
func writeTestLog(t *testing.T) string {
	t.Helper()
	l := &graph.Log{
		Commits: []graph.Commit{
			{Hash: "f2", Parents: []string{"f1"}, Subject: "feature: finish"},
			{Hash: "m3", Parents: []string{"m2"}, Subject: "main: three"},
			{Hash: "f1", Parents: []string{"m1"}, Subject: "feature: start"},
			{Hash: "m2", Parents: []string{"m1"}, Subject: "main: two"},
			{Hash: "m1", Parents: []string{"base"}, Subject: "main: one"},
			{Hash: "base", Subject: "initial"},
		},
		Refs: []graph.Ref{
			{Name: "main", Hash: "m3"},
			{Name: "feature", Hash: "f2"},
		},
	}
	path := filepath.Join(t.TempDir(), "history.json")
	if err := graph.WriteLogFile(l, path); err != nil {
		t.Fatal(err)
	}
	return path
}

// run executes the CLI with a fresh configuration and a private cache.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Cleanup(config.ResetForTesting(t))
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	t.Setenv("XDG_STATE_HOME", t.TempDir())

	var stdout, stderr bytes.Buffer
	err := Execute(context.Background(), args, &stdout, &stderr)
	return stdout.String(), err
}

func TestRootCommandRegistersCommands(t *testing.T) {
	root := New(&bytes.Buffer{}, LogInfo).RootCommand()

	want := []string{"browse", "cache", "completion", "containing", "dot", "focus", "rows", "serve"}
	var got []string
	for _, cmd := range root.Commands() {
		got = append(got, cmd.Name())
	}
	slices.Sort(got)
	for _, name := range want {
		if !slices.Contains(got, name) {
			t.Errorf("root command is missing %q (have %v)", name, got)
		}
	}

	for _, flag := range []string{"config", "no-cache", "cache-dir", "redis", "git"} {
		if root.PersistentFlags().Lookup(flag) == nil {
			t.Errorf("missing persistent flag --%s", flag)
		}
	}
}

func TestRowsJSON(t *testing.T) {
	path := writeTestLog(t)

	out, err := run(t, "rows", path, "--json", "--limit", "0")
	if err != nil {
		t.Fatalf("rows: %v", err)
	}
	var rows []graph.Row
	if err := json.Unmarshal([]byte(out), &rows); err != nil {
		t.Fatalf("decode rows: %v\n%s", err, out)
	}
	if len(rows) != 6 {
		t.Fatalf("rows = %d, want 6", len(rows))
	}
	if rows[1].Hash != "m3" || !slices.Equal(rows[1].Refs, []string{"main"}) {
		t.Errorf("row 1 = %+v, want m3 with ref main", rows[1])
	}
}

func TestRowsBranchSelection(t *testing.T) {
	path := writeTestLog(t)

	out, err := run(t, "rows", path, "--json", "--branches", "feature")
	if err != nil {
		t.Fatalf("rows: %v", err)
	}
	var rows []graph.Row
	if err := json.Unmarshal([]byte(out), &rows); err != nil {
		t.Fatal(err)
	}
	var hashes []string
	for _, r := range rows {
		hashes = append(hashes, r.Hash)
	}
	if want := []string{"f2", "f1", "m1", "base"}; !slices.Equal(hashes, want) {
		t.Errorf("feature rows = %v, want %v", hashes, want)
	}
}

func TestRowsFilterSwitchesView(t *testing.T) {
	path := writeTestLog(t)

	out, err := run(t, "rows", path, "--json", "--filter", "m")
	if err != nil {
		t.Fatalf("rows: %v", err)
	}
	var rows []graph.Row
	if err := json.Unmarshal([]byte(out), &rows); err != nil {
		t.Fatal(err)
	}
	for _, r := range rows {
		if !strings.HasPrefix(r.Hash, "m") {
			t.Errorf("filtered rows contain %s", r.Hash)
		}
	}
	if len(rows) != 3 {
		t.Errorf("filtered rows = %d, want 3", len(rows))
	}
}

func TestRowsPriority(t *testing.T) {
	path := writeTestLog(t)

	headOfM1 := func(args ...string) string {
		t.Helper()
		out, err := run(t, append([]string{"rows", path, "--json", "--limit", "0"}, args...)...)
		if err != nil {
			t.Fatalf("rows: %v", err)
		}
		var rows []graph.Row
		if err := json.Unmarshal([]byte(out), &rows); err != nil {
			t.Fatal(err)
		}
		if len(rows) != 6 || rows[4].Hash != "m1" {
			t.Fatalf("rows = %+v", rows)
		}
		return rows[4].Head
	}
	if got := headOfM1(); got != "f2" {
		t.Errorf("m1 head = %q, want f2", got)
	}
	if got := headOfM1("--priority", "main"); got != "m3" {
		t.Errorf("m1 head with --priority main = %q, want m3", got)
	}
}

func TestRowsInvertedFilter(t *testing.T) {
	path := writeTestLog(t)

	out, err := run(t, "rows", path, "--json", "--filter", "!m")
	if err != nil {
		t.Fatalf("rows: %v", err)
	}
	var rows []graph.Row
	if err := json.Unmarshal([]byte(out), &rows); err != nil {
		t.Fatal(err)
	}
	var hashes []string
	for _, r := range rows {
		hashes = append(hashes, r.Hash)
	}
	if want := []string{"f2", "f1", "base"}; !slices.Equal(hashes, want) {
		t.Errorf("rows = %v, want %v", hashes, want)
	}
}

func TestRowsUnknownBranch(t *testing.T) {
	path := writeTestLog(t)

	if _, err := run(t, "rows", path, "--branches", "nope"); err == nil {
		t.Error("rows with an unknown branch should fail")
	}
}

func TestContaining(t *testing.T) {
	path := writeTestLog(t)

	tests := []struct {
		commit string
		want   []string
	}{
		{"m1", []string{"feature", "main"}},
		{"f1", []string{"feature"}},
		{"main", []string{"main"}},
	}
	for _, tt := range tests {
		t.Run(tt.commit, func(t *testing.T) {
			out, err := run(t, "containing", tt.commit, path, "--json")
			if err != nil {
				t.Fatalf("containing: %v", err)
			}
			var got struct {
				Branches []string `json:"branches"`
			}
			if err := json.Unmarshal([]byte(out), &got); err != nil {
				t.Fatal(err)
			}
			if !slices.Equal(got.Branches, tt.want) {
				t.Errorf("containing %s = %v, want %v", tt.commit, got.Branches, tt.want)
			}
		})
	}
}

func TestFocusJSON(t *testing.T) {
	path := writeTestLog(t)

	out, err := run(t, "focus", "main", path, "--json")
	if err != nil {
		t.Fatalf("focus: %v", err)
	}
	var order []string
	if err := json.Unmarshal([]byte(out), &order); err != nil {
		t.Fatal(err)
	}
	if want := []string{"f2", "f1", "m3", "m2", "m1", "base"}; !slices.Equal(order, want) {
		t.Errorf("focus main = %v, want %v", order, want)
	}
}

func TestFocusLookbackOverride(t *testing.T) {
	path := writeTestLog(t)

	out, err := run(t, "focus", "main", path, "--json", "--max-lookback", "1", "--no-cache")
	if err != nil {
		t.Fatalf("focus: %v", err)
	}
	var order []string
	if err := json.Unmarshal([]byte(out), &order); err != nil {
		t.Fatal(err)
	}
	if want := []string{"m3", "f2", "f1", "m2", "m1", "base"}; !slices.Equal(order, want) {
		t.Errorf("focus main with lookback 1 = %v, want %v", order, want)
	}
}

func TestDotWritesFiles(t *testing.T) {
	path := writeTestLog(t)
	base := filepath.Join(t.TempDir(), "graph")

	if _, err := run(t, "dot", path, "-f", "dot,json", "-o", base+".svg"); err != nil {
		t.Fatalf("dot: %v", err)
	}

	src, err := os.ReadFile(base + ".dot")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(src), "digraph") {
		t.Errorf("dot output does not start with digraph:\n%s", src)
	}
	if _, err := os.Stat(base + ".json"); err != nil {
		t.Errorf("json output missing: %v", err)
	}
}

func TestDotStdout(t *testing.T) {
	path := writeTestLog(t)

	out, err := run(t, "dot", path, "-f", "dot", "-o", "-")
	if err != nil {
		t.Fatalf("dot: %v", err)
	}
	if !strings.Contains(out, `"m3"`) {
		t.Errorf("dot output should mention m3:\n%s", out)
	}

	if _, err := run(t, "dot", path, "-f", "dot,json", "-o", "-"); err == nil {
		t.Error("two formats to stdout should fail")
	}
}

func TestDotInvalidFormat(t *testing.T) {
	path := writeTestLog(t)

	if _, err := run(t, "dot", path, "-f", "gif"); err == nil {
		t.Error("dot -f gif should fail")
	}
}

func TestMissingSource(t *testing.T) {
	if _, err := run(t, "rows", filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("rows on a missing file should fail")
	}
}
