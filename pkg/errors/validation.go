package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// hashRegex matches full or abbreviated hex object names (SHA-1 or SHA-256).
var hashRegex = regexp.MustCompile(`^[0-9a-f]{4,64}$`)

// ValidateHash validates a commit hash or hash prefix.
//
// Hashes are lowercase hexadecimal, between 4 and 64 characters, which
// covers abbreviated names as well as full SHA-1 and SHA-256 object names.
func ValidateHash(hash string) error {
	if hash == "" {
		return New(ErrCodeInvalidHash, "commit hash cannot be empty")
	}
	if !hashRegex.MatchString(hash) {
		return New(ErrCodeInvalidHash, "invalid commit hash: %q", hash)
	}
	return nil
}

// ValidateRefName validates a branch or tag name.
//
// The rules are a conservative subset of git check-ref-format:
//   - No empty names and at most 256 characters
//   - No control characters, spaces or any of ~^:?*[\
//   - No "..", "@{" or "//" sequences
//   - No leading or trailing "/" and no trailing "." or ".lock"
func ValidateRefName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidRef, "ref name cannot be empty")
	}

	if len(name) > 256 {
		return New(ErrCodeInvalidRef, "ref name too long (max 256 characters)")
	}

	for _, r := range name {
		if unicode.IsControl(r) || r == ' ' {
			return New(ErrCodeInvalidRef, "ref name contains invalid characters")
		}
	}

	if strings.ContainsAny(name, "~^:?*[\\") {
		return New(ErrCodeInvalidRef, "ref name contains invalid characters: %q", name)
	}

	for _, pattern := range []string{"..", "@{", "//"} {
		if strings.Contains(name, pattern) {
			return New(ErrCodeInvalidRef, "ref name contains invalid sequence: %q", pattern)
		}
	}

	if strings.HasPrefix(name, "/") || strings.HasSuffix(name, "/") {
		return New(ErrCodeInvalidRef, "ref name cannot start or end with /")
	}

	if strings.HasSuffix(name, ".") || strings.HasSuffix(name, ".lock") {
		return New(ErrCodeInvalidRef, "ref name cannot end with . or .lock")
	}

	return nil
}

// ValidatePath validates a file path within a repository for safety.
// It prevents path traversal attacks and ensures reasonable path length.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
//   - No absolute paths (must be relative)
//   - No path traversal sequences (..)
//   - No backslashes (Windows-style paths)
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 500
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}

	if strings.HasPrefix(path, "/") {
		return New(ErrCodeInvalidPath, "path must be relative (cannot start with /)")
	}

	if strings.Contains(path, "..") {
		return New(ErrCodeInvalidPath, "path cannot contain path traversal sequences (..)")
	}

	// No backslashes (potential Windows path injection)
	if strings.Contains(path, "\\") {
		return New(ErrCodeInvalidPath, "path cannot contain backslashes")
	}

	return nil
}
