package cli

import (
	"slices"
	"testing"

	"github.com/spf13/cobra"

	"github.com/matzehuels/logtower/internal/config"
)

func TestParseList(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{"main", []string{"main"}},
		{"main, feature ,", []string{"main", "feature"}},
	}
	for _, tt := range tests {
		if got := parseList(tt.in); !slices.Equal(got, tt.want) {
			t.Errorf("parseList(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestParseFormats(t *testing.T) {
	if got := parseFormats(""); !slices.Equal(got, []string{"svg"}) {
		t.Errorf("parseFormats(\"\") = %v, want [svg]", got)
	}
	if got := parseFormats("dot,png"); !slices.Equal(got, []string{"dot", "png"}) {
		t.Errorf("parseFormats(dot,png) = %v", got)
	}
}

func TestChangedOverrides(t *testing.T) {
	cmd := &cobra.Command{Use: "test"}
	registerFocusFlags(cmd)
	cmd.Flags().String("unmapped", "", "")
	if err := cmd.ParseFlags([]string{"--max-lookback", "7", "--unmapped", "x"}); err != nil {
		t.Fatal(err)
	}

	got := changedOverrides(cmd)
	if len(got) != 1 || got[config.KeyFocusMaxLookback] != "7" {
		t.Errorf("changedOverrides() = %v, want only %s=7", got, config.KeyFocusMaxLookback)
	}
}

func TestBaseOptionsFromConfig(t *testing.T) {
	t.Cleanup(config.ResetForTesting(t))
	if err := config.ApplyOverrides(map[string]any{
		config.KeyViewMinFragment: 5,
		config.KeyGitMaxCount:     100,
	}); err != nil {
		t.Fatal(err)
	}

	opts := baseOptions("repo")
	if opts.Source != "repo" || opts.MinFragment != 5 || opts.MaxCount != 100 {
		t.Errorf("baseOptions() = %+v", opts)
	}
	if opts.MaxLookback != 50 || opts.MaxLayoutJump != 10 || opts.View != "collapsed" {
		t.Errorf("baseOptions() defaults = %+v", opts)
	}
}
