package util

import (
	"errors"
	"path"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	maxFileNameRunes = 120
	maxExtRunes      = 10
)

var ErrInvalidFileName = errors.New("invalid file name")

// SanitizeFileName turns an uploaded file name into a single object key
// segment: separators become "_", control characters are dropped and long
// names are cut while keeping the extension. Traversal patterns are rejected.
func SanitizeFileName(name string) (string, error) {
	if strings.Contains(name, "..") {
		return "", ErrInvalidFileName
	}
	var b strings.Builder
	for _, r := range strings.TrimSpace(name) {
		switch {
		case r == '/' || r == '\\':
			b.WriteByte('_')
		case unicode.IsControl(r):
		default:
			b.WriteRune(r)
		}
	}
	s := strings.TrimSpace(b.String())
	if s == "" {
		return "", ErrInvalidFileName
	}
	return truncateKeepExt(s, maxFileNameRunes), nil
}

func truncateKeepExt(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	ext := path.Ext(s)
	if utf8.RuneCountInString(ext) > maxExtRunes {
		ext = ""
	}
	base := []rune(strings.TrimSuffix(s, ext))
	keep := max - utf8.RuneCountInString(ext)
	if keep > len(base) {
		keep = len(base)
	}
	return string(base[:keep]) + ext
}
