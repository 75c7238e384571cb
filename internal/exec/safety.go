// Package exec validates executable names and paths supplied through
// configuration before they are resolved on the search path.
package exec

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"unicode"
)

// Rejection reasons returned by SanitizeExecutableValue.
var (
	ErrEmptyValue           = errors.New("executable value is empty")
	ErrNullByte             = errors.New("executable value contains null byte")
	ErrControlChar          = errors.New("executable value contains control characters")
	ErrShellMetachar        = errors.New("executable value contains shell metacharacters")
	ErrQuoteChar            = errors.New("executable value contains quote characters")
	ErrOptionInjection      = errors.New("executable value starts with dash (option injection)")
	ErrInvalidBareNameChars = errors.New("executable value contains invalid characters for bare name")
	ErrDirectory            = errors.New("executable value names a directory")
)

const (
	shellMetachars = ";&|`$<>"
	quoteChars     = `"'`
)

// contentRules apply to every value, bare or path, in order.
var contentRules = []struct {
	reject func(string) bool
	err    error
}{
	{func(v string) bool { return strings.ContainsRune(v, 0) }, ErrNullByte},
	{func(v string) bool { return strings.IndexFunc(v, unicode.IsControl) >= 0 }, ErrControlChar},
	{func(v string) bool { return strings.ContainsAny(v, shellMetachars) }, ErrShellMetachar},
	{func(v string) bool { return strings.ContainsAny(v, quoteChars) }, ErrQuoteChar},
}

// IsLikelyPath reports whether value looks like a file path rather than a bare name.
func IsLikelyPath(value string) bool {
	if value == "" {
		return false
	}
	return strings.HasPrefix(value, ".") || strings.HasPrefix(value, "~") ||
		strings.ContainsRune(value, '/')
}

// SanitizeExecutableValue validates an executable name or path and returns
// the value to hand to exec.LookPath: trimmed, with a leading "~/" expanded
// to the home directory. Bare names are limited to letters, digits and
// "._+-" and may not start with a dash.
func SanitizeExecutableValue(value string) (string, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return "", ErrEmptyValue
	}
	for _, rule := range contentRules {
		if rule.reject(trimmed) {
			return "", rule.err
		}
	}

	if IsLikelyPath(trimmed) {
		if strings.HasSuffix(trimmed, "/") {
			return "", ErrDirectory
		}
		return expandHome(trimmed), nil
	}
	if strings.HasPrefix(trimmed, "-") {
		return "", ErrOptionInjection
	}
	if strings.IndexFunc(trimmed, notBareNameRune) >= 0 {
		return "", ErrInvalidBareNameChars
	}
	return trimmed, nil
}

func notBareNameRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return false
	case r == '.', r == '_', r == '+', r == '-':
		return false
	}
	return true
}

// expandHome rewrites "~/x" against the current user's home directory. Other
// "~" forms and lookup failures are returned unchanged.
func expandHome(path string) string {
	rest, ok := strings.CutPrefix(path, "~/")
	if !ok {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return path
	}
	return filepath.Join(home, rest)
}
