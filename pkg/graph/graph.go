package graph

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/logtower/pkg/errors"
)

// Format is a log file encoding.
type Format string

// Supported formats.
const (
	FormatJSON Format = "json"
	FormatTOML Format = "toml"
)

// FormatFromPath picks the format from the file extension.
// Unknown extensions fail with errors.ErrCodeUnsupported.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".toml":
		return FormatTOML, nil
	}
	return "", errors.New(errors.ErrCodeUnsupported, "unsupported log format: %s", path)
}

// =============================================================================
// Log Serialization API
// =============================================================================

// MarshalLog encodes a log in the given format.
func MarshalLog(l *Log, format Format) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteLog(l, format, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteLog writes a log to w in the given format.
func WriteLog(l *Log, format Format, w io.Writer) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(l); err != nil {
			return fmt.Errorf("encode: %w", err)
		}
	case FormatTOML:
		if err := toml.NewEncoder(w).Encode(l); err != nil {
			return fmt.Errorf("encode: %w", err)
		}
	default:
		return errors.New(errors.ErrCodeUnsupported, "unsupported log format: %s", format)
	}
	return nil
}

// WriteLogFile writes a log to path, picking the format from the extension.
// The file is created with 0644 permissions.
func WriteLogFile(l *Log, path string) error {
	format, err := FormatFromPath(path)
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return WriteLog(l, format, f)
}

// ReadLog decodes a log from r and validates its refs.
// Malformed input fails with errors.ErrCodeInvalidInput.
func ReadLog(r io.Reader, format Format) (*Log, error) {
	var l Log
	switch format {
	case FormatJSON:
		if err := json.NewDecoder(r).Decode(&l); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode json log")
		}
	case FormatTOML:
		if _, err := toml.NewDecoder(r).Decode(&l); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode toml log")
		}
	default:
		return nil, errors.New(errors.ErrCodeUnsupported, "unsupported log format: %s", format)
	}
	if err := l.Validate(); err != nil {
		return nil, err
	}
	return &l, nil
}

// ReadLogFile reads a log file, picking the format from the extension.
// A missing file fails with errors.ErrCodeFileNotFound.
func ReadLogFile(path string) (*Log, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "open %s", path)
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadLog(f, format)
}
