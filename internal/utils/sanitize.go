package utils

import (
	"regexp"
	"strings"
)

// illegalChars are characters not allowed in filenames on common filesystems.
var illegalChars = regexp.MustCompile(`[<>:"/\\|?*\x00-\x1f]`)

// multiSpace matches multiple consecutive spaces.
var multiSpace = regexp.MustCompile(`\s+`)

// nonASCII matches anything outside the printable ASCII range.
var nonASCII = regexp.MustCompile(`[^\x20-\x7e]`)

// SanitizeFilename derives a filesystem-safe, header-safe name from an
// untrusted title. It first applies a general filesystem pass, then strips
// non-ASCII and the remaining reserved characters so the result can be used
// verbatim in a Content-Disposition header. Falls back to "video" when
// nothing survives.
func SanitizeFilename(name string) string {
	// General pass: drop null bytes, neutralize path separators and
	// characters illegal on common filesystems.
	name = strings.ReplaceAll(name, "\x00", "")
	name = strings.ReplaceAll(name, "/", " ")
	name = strings.ReplaceAll(name, "\\", " ")
	name = illegalChars.ReplaceAllString(name, " ")

	// Header pass: generic sanitization alone does not guarantee
	// ASCII-only output.
	name = nonASCII.ReplaceAllString(name, "")
	name = multiSpace.ReplaceAllString(name, " ")
	name = strings.TrimSpace(name)

	if name == "" {
		return "video"
	}
	return name
}
