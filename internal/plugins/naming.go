package plugins

import (
	"path/filepath"
	"strings"
	"unicode"
	"unicode/utf8"
)

// ClassNameFromPath derives the class a plugin source must export from its
// file name: the base name without extension, converted from snake_case.
func ClassNameFromPath(path string) string {
	base := filepath.Base(path)
	return SnakeToPascal(strings.TrimSuffix(base, filepath.Ext(base)))
}

// SnakeToPascal capitalizes every underscore-separated part of word and
// lowercases the rest of it. Empty parts become a single underscore.
func SnakeToPascal(word string) string {
	var b strings.Builder
	b.Grow(len(word))
	for _, part := range strings.Split(word, "_") {
		if part == "" {
			b.WriteByte('_')
			continue
		}
		first, size := utf8.DecodeRuneInString(part)
		b.WriteRune(unicode.ToTitle(first))
		b.WriteString(strings.ToLower(part[size:]))
	}
	return b.String()
}
