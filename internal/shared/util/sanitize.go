package util

import (
	"errors"
	"path"
	"strings"
	"unicode"
)

// ErrInvalidFileName is returned for names that are empty or try to escape a directory.
var ErrInvalidFileName = errors.New("invalid file name")

const maxFileNameRunes = 255

// SanitizeFileName reduces a client-supplied upload name to a single safe
// path element. Separators become underscores and control characters are dropped.
func SanitizeFileName(name string) (string, error) {
	if strings.Contains(name, "..") {
		return "", ErrInvalidFileName
	}
	var b strings.Builder
	for _, r := range strings.TrimSpace(name) {
		switch {
		case r == '/' || r == '\\':
			b.WriteRune('_')
		case unicode.IsControl(r):
		default:
			b.WriteRune(r)
		}
	}
	s := b.String()
	if s == "" || s == "." {
		return "", ErrInvalidFileName
	}
	if r := []rune(s); len(r) > maxFileNameRunes {
		// keep the extension, it drives type detection
		ext := []rune(path.Ext(s))
		if len(ext) >= maxFileNameRunes {
			ext = nil
		}
		s = string(r[:maxFileNameRunes-len(ext)]) + string(ext)
	}
	return s, nil
}
