package render

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func fakeConverter(t *testing.T, script string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rsvg-convert")
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatalf("write script: %v", err)
	}
	old := rsvgBinary
	rsvgBinary = path
	t.Cleanup(func() { rsvgBinary = old })
}

func TestToPDF(t *testing.T) {
	// Echo the format flag followed by stdin.
	fakeConverter(t, "#!/bin/sh\necho \"$2\"\ncat\n")

	out, err := ToPDF(context.Background(), []byte("<svg/>"))
	if err != nil {
		t.Fatalf("ToPDF: %v", err)
	}
	if got := string(out); got != "pdf\n<svg/>" {
		t.Errorf("ToPDF() = %q, want %q", got, "pdf\n<svg/>")
	}
}

func TestToPNGScale(t *testing.T) {
	fakeConverter(t, "#!/bin/sh\necho \"$@\"\n")

	out, err := ToPNG(context.Background(), []byte("<svg/>"), 2)
	if err != nil {
		t.Fatalf("ToPNG: %v", err)
	}
	if got := strings.TrimSpace(string(out)); got != "-f png -z 2.00" {
		t.Errorf("args = %q, want %q", got, "-f png -z 2.00")
	}
}

func TestConvertFailure(t *testing.T) {
	fakeConverter(t, "#!/bin/sh\necho broken >&2\nexit 1\n")

	_, err := ToPDF(context.Background(), []byte("<svg/>"))
	if err == nil || !strings.Contains(err.Error(), "broken") {
		t.Errorf("ToPDF() error = %v, want stderr in message", err)
	}
}

func TestConvertMissingBinary(t *testing.T) {
	old := rsvgBinary
	rsvgBinary = filepath.Join(t.TempDir(), "missing")
	t.Cleanup(func() { rsvgBinary = old })

	_, err := ToPNG(context.Background(), []byte("<svg/>"), 1)
	if err == nil || !strings.Contains(err.Error(), "librsvg") {
		t.Errorf("ToPNG() error = %v, want install hint", err)
	}
}
