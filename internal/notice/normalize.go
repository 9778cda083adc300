package notice

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/hanul-clinic/clinicboard/internal/richtext"
)

// slugRegex is the accepted shape of a category slug.
var slugRegex = regexp.MustCompile(`^[a-z0-9][a-z0-9-]{0,62}$`)

// NormalizeTitle trims a title and collapses internal whitespace.
func NormalizeTitle(s string) string {
	return richtext.CollapseSpace(s)
}

// NormalizeSlug lowercases a slug and turns whitespace and underscores into hyphens.
func NormalizeSlug(s string) string {
	s = strings.ToLower(richtext.CollapseSpace(s))
	s = strings.NewReplacer(" ", "-", "_", "-").Replace(s)
	return s
}

// ValidSlug reports whether a normalized slug is acceptable.
func ValidSlug(s string) bool {
	return slugRegex.MatchString(s)
}

// CountChars returns the character count as runes (not bytes).
func CountChars(text string) int {
	return utf8.RuneCountInString(text)
}
