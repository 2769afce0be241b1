package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeFilename(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "clean title unchanged",
			input:    "My Holiday Video",
			expected: "My Holiday Video",
		},
		{
			name:     "path separators removed",
			input:    "a/b\\c",
			expected: "a b c",
		},
		{
			name:     "reserved characters removed",
			input:    `re:port <v2> "final" | draft?*`,
			expected: "re port v2 final draft",
		},
		{
			name:     "non-ascii stripped",
			input:    "días de café ☕",
			expected: "das de caf",
		},
		{
			name:     "surrounding whitespace trimmed",
			input:    "   trimmed title   ",
			expected: "trimmed title",
		},
		{
			name:     "empty input falls back",
			input:    "",
			expected: "video",
		},
		{
			name:     "all-hostile input falls back",
			input:    `<>:"/\|?*`,
			expected: "video",
		},
		{
			name:     "control characters removed",
			input:    "a\x00b\x1fc",
			expected: "ab c",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, SanitizeFilename(tc.input))
		})
	}
}

func TestSanitizeFilenameProperties(t *testing.T) {
	hostile := "  naïve/path\\to:file  "
	out := SanitizeFilename(hostile)

	assert.NotContains(t, out, "/")
	assert.NotContains(t, out, "\\")
	assert.NotContains(t, out, ":")
	assert.Equal(t, strings.TrimSpace(out), out)
	for _, r := range out {
		assert.Less(t, r, rune(128))
	}
}

func TestSanitizeFilenameIdempotent(t *testing.T) {
	inputs := []string{
		"My Holiday Video",
		"a/b\\c:d",
		"días de café",
		"",
		"   spaced   out   ",
	}

	for _, in := range inputs {
		once := SanitizeFilename(in)
		twice := SanitizeFilename(once)
		assert.Equal(t, once, twice, "sanitizing %q twice changed the result", in)
	}
}
