package util

import (
	"path/filepath"
	"strings"
	"unicode"
)

// SafeExt returns the lowercased extension of name, dot included, keeping
// only ASCII letters and digits. It returns "" when nothing usable remains.
func SafeExt(name string) string {
	ext := strings.ToLower(filepath.Ext(BaseName(name)))
	var b strings.Builder
	for _, r := range strings.TrimPrefix(ext, ".") {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return ""
	}
	return "." + b.String()
}

// BaseName strips any directory part from a client supplied file name,
// accepting both slash styles.
func BaseName(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	name = SanitizeString(name)
	if name == "." || name == ".." {
		return ""
	}
	return name
}

// SanitizeString trims s and drops control characters.
func SanitizeString(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, strings.TrimSpace(s))
}
