package infrastructure

import (
	"path/filepath"
	"strings"
	"unicode"
	"unicode/utf8"
)

// PlaceholderName is used when sanitizing leaves nothing usable
const PlaceholderName = "untitled"

// reservedNames are device names Windows refuses as file names
var reservedNames = map[string]bool{
	"CON": true, "PRN": true, "AUX": true, "NUL": true,
	"COM1": true, "COM2": true, "COM3": true, "COM4": true, "COM5": true,
	"COM6": true, "COM7": true, "COM8": true, "COM9": true,
	"LPT1": true, "LPT2": true, "LPT3": true, "LPT4": true, "LPT5": true,
	"LPT6": true, "LPT7": true, "LPT8": true, "LPT9": true,
}

// SanitizeFileName turns an arbitrary remote string into a safe file name component.
// The result never contains < > : " / \ | ? *, control characters or whitespace,
// never starts or ends with a dot, and is at most maxLen bytes long.
// SanitizeFileName(SanitizeFileName(x)) == SanitizeFileName(x).
func SanitizeFileName(name string, maxLen int) string {
	if maxLen <= 0 {
		maxLen = 255
	}

	var sb strings.Builder
	sb.Grow(len(name))
	pendingSpace := false
	for _, r := range strings.ToValidUTF8(name, "") {
		switch {
		case isIllegalFileRune(r):
			flushSpace(&sb, &pendingSpace)
			sb.WriteRune('_')
		case unicode.IsSpace(r):
			pendingSpace = true
		case unicode.IsControl(r), r == unicode.ReplacementChar:
			// dropped
		default:
			flushSpace(&sb, &pendingSpace)
			sb.WriteRune(r)
		}
	}

	result := trimEdges(sb.String())
	result = truncateBytes(result, maxLen)
	result = trimEdges(result)

	if reservedNames[strings.ToUpper(strings.SplitN(result, ".", 2)[0])] {
		result = trimEdges(truncateBytes("_"+result, maxLen))
	}
	if result == "" {
		return truncateBytes(PlaceholderName, maxLen)
	}
	return result
}

func flushSpace(sb *strings.Builder, pending *bool) {
	if *pending {
		if sb.Len() > 0 {
			sb.WriteRune('_')
		}
		*pending = false
	}
}

func isIllegalFileRune(r rune) bool {
	switch r {
	case '<', '>', ':', '"', '/', '\\', '|', '?', '*':
		return true
	}
	return false
}

// trimEdges removes leading and trailing dots and whitespace
func trimEdges(s string) string {
	return strings.TrimFunc(s, func(r rune) bool {
		return r == '.' || unicode.IsSpace(r)
	})
}

// truncateBytes cuts s to at most n bytes without splitting a rune
func truncateBytes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	cut := n
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

// IsPathSafe reports whether candidate, resolved relative to root, stays strictly inside root.
// Absolute candidates are always rejected.
func IsPathSafe(candidate, root string) bool {
	if candidate == "" || filepath.IsAbs(candidate) || strings.HasPrefix(candidate, "/") || strings.HasPrefix(candidate, "\\") {
		return false
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return false
	}
	resolved := filepath.Join(absRoot, candidate)

	rel, err := filepath.Rel(absRoot, resolved)
	if err != nil {
		return false
	}
	if rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return false
	}
	return true
}
