package richtext

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// Placeholder tokens stand in for media in plain text so a reader can tell
// that an image or video was present.
const (
	ImagePlaceholder = "[이미지]"
	VideoPlaceholder = "[동영상]"
)

// Ellipsis is appended to excerpts that were cut short.
const Ellipsis = "..."

// DefaultExcerptChars is the excerpt budget used by listing views.
const DefaultExcerptChars = 150

// whitespaceRegex matches runs of whitespace, including no-break and
// ideographic spaces that editors insert.
var whitespaceRegex = regexp.MustCompile(`[\s\p{Zs}]+`)

// mediaPrefixRegex matches "image:..." style references left behind by older
// editors when an embed was serialized to text.
var mediaPrefixRegex = regexp.MustCompile(`(?i)\b(?:image|video|img):\S*`)

// CollapseSpace collapses whitespace runs to single spaces and trims both ends.
func CollapseSpace(s string) string {
	return strings.TrimSpace(whitespaceRegex.ReplaceAllString(s, " "))
}

// Excerpt derives a listing preview from plain text. Placeholder tokens and
// media prefixes are removed, whitespace is collapsed, and the result is cut to
// maxChars runes. The ellipsis is added only when the cleaned text exceeded
// the budget.
func Excerpt(plain string, maxChars int) string {
	if maxChars <= 0 {
		maxChars = DefaultExcerptChars
	}

	s := strings.ReplaceAll(plain, ImagePlaceholder, " ")
	s = strings.ReplaceAll(s, VideoPlaceholder, " ")
	s = mediaPrefixRegex.ReplaceAllString(s, " ")
	s = CollapseSpace(s)

	if utf8.RuneCountInString(s) <= maxChars {
		return s
	}

	return string([]rune(s)[:maxChars]) + Ellipsis
}
