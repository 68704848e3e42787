package graph

import (
	"bytes"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/matzehuels/logtower/pkg/errors"
)

func sampleLog() *Log {
	return &Log{
		Commits: []Commit{
			{Hash: "9fceb02d", Parents: []string{"3b18e51a"}, Author: "ada", Time: 1700000100, Subject: "fix parser"},
			{Hash: "7c4a8d09", Parents: []string{"3b18e51a"}, Subject: "start feature"},
			{Hash: "3b18e51a", Parents: []string{"0000aaaa"}},
		},
		Refs: []Ref{
			{Name: "main", Hash: "9fceb02d"},
			{Name: "feature/x", Hash: "7c4a8d09", Kind: RefBranch},
			{Name: "v1.0", Hash: "3b18e51a", Kind: RefTag},
		},
	}
}

func TestRoundTrip(t *testing.T) {
	for _, format := range []Format{FormatJSON, FormatTOML} {
		t.Run(string(format), func(t *testing.T) {
			data, err := MarshalLog(sampleLog(), format)
			if err != nil {
				t.Fatalf("MarshalLog: %v", err)
			}
			got, err := ReadLog(bytes.NewReader(data), format)
			if err != nil {
				t.Fatalf("ReadLog: %v", err)
			}

			want := sampleLog()
			if len(got.Commits) != len(want.Commits) || len(got.Refs) != len(want.Refs) {
				t.Fatalf("got %v, want %v", got, want)
			}
			for i := range want.Commits {
				g, w := got.Commits[i], want.Commits[i]
				if g.Hash != w.Hash || !slices.Equal(g.Parents, w.Parents) || g.Subject != w.Subject || g.Time != w.Time {
					t.Errorf("commit %d = %+v, want %+v", i, g, w)
				}
			}
			for i := range want.Refs {
				if got.Refs[i] != want.Refs[i] {
					t.Errorf("ref %d = %+v, want %+v", i, got.Refs[i], want.Refs[i])
				}
			}
		})
	}
}

func TestReadLogFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "log.toml")
	if err := WriteLogFile(sampleLog(), path); err != nil {
		t.Fatalf("WriteLogFile: %v", err)
	}

	l, err := ReadLogFile(path)
	if err != nil {
		t.Fatalf("ReadLogFile: %v", err)
	}
	if len(l.Commits) != 3 {
		t.Errorf("commits = %d, want 3", len(l.Commits))
	}

	if _, err := ReadLogFile(filepath.Join(dir, "missing.json")); !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("missing file error = %v, want FILE_NOT_FOUND", err)
	}

	yaml := filepath.Join(dir, "log.yaml")
	if err := os.WriteFile(yaml, []byte("commits: []"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadLogFile(yaml); !errors.Is(err, errors.ErrCodeUnsupported) {
		t.Errorf("yaml error = %v, want UNSUPPORTED", err)
	}
}

func TestReadLogInvalid(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"malformed json", `{"commits": [`},
		{"bad ref name", `{"commits": [], "refs": [{"name": "a..b", "hash": "abcd"}]}`},
		{"duplicate ref", `{"commits": [], "refs": [{"name": "a", "hash": "abcd"}, {"name": "a", "hash": "abcd"}]}`},
		{"ref without target", `{"commits": [], "refs": [{"name": "a"}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadLog(strings.NewReader(tt.input), FormatJSON)
			if err == nil {
				t.Fatal("ReadLog should fail")
			}
		})
	}
}

func TestLogGraph(t *testing.T) {
	l := sampleLog()
	g, err := l.Graph()
	if err != nil {
		t.Fatalf("Graph: %v", err)
	}
	if g.NodeCount() != 3 {
		t.Errorf("NodeCount() = %d, want 3", g.NodeCount())
	}

	heads := l.BranchHeads(g)
	if !slices.Equal(heads, []int{0, 1}) {
		t.Errorf("BranchHeads() = %v, want [0 1]", heads)
	}
	if refs := l.RefsByNode(g)[2]; !slices.Equal(refs, []string{"v1.0"}) {
		t.Errorf("RefsByNode()[2] = %v, want [v1.0]", refs)
	}

	bad := &Log{Commits: []Commit{{Hash: "aaaa"}, {Hash: "bbbb", Parents: []string{"aaaa"}}}}
	if _, err := bad.Graph(); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("Graph() on parent-first log error = %v, want INVALID_INPUT", err)
	}
}

func TestResolveHead(t *testing.T) {
	l := sampleLog()
	l.Commits = append(l.Commits[:2:2], Commit{Hash: "7c4a0000"}, l.Commits[2])
	g, err := l.Graph()
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		input   string
		want    int
		wantErr errors.Code
	}{
		{"ref", "main", 0, ""},
		{"full hash", "7c4a8d09", 1, ""},
		{"prefix", "9fce", 0, ""},
		{"longer prefix", "7c4a8", 1, ""},
		{"ambiguous prefix", "7c4a", 0, errors.ErrCodeInvalidRequest},
		{"too short", "7c4", 0, errors.ErrCodeNotFound},
		{"unknown", "nope", 0, errors.ErrCodeNotFound},
		{"unknown prefix", "ffff", 0, errors.ErrCodeNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := l.ResolveHead(g, tt.input)
			if tt.wantErr != "" {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("ResolveHead(%q) error = %v, want %s", tt.input, err, tt.wantErr)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Errorf("ResolveHead(%q) = %d, %v, want %d", tt.input, got, err, tt.want)
			}
		})
	}
}

func TestShortHash(t *testing.T) {
	if got := ShortHash("3b18e512dba79e4c"); got != "3b18e51" {
		t.Errorf("ShortHash = %s", got)
	}
	if got := ShortHash("abc"); got != "abc" {
		t.Errorf("ShortHash = %s", got)
	}
}
