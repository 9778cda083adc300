package web

import (
	"html/template"
	"regexp"

	"github.com/microcosm-cc/bluemonday"
)

// Sanitizer cleans stored notice HTML before it reaches a template. Notices
// rendered from content are escaped already; rows imported from the old
// board carry arbitrary HTML.
type Sanitizer struct {
	policy *bluemonday.Policy
}

// NewSanitizer builds the UGC policy extended for the converter's output:
// paragraph alignment, video embeds, code languages and list starts.
func NewSanitizer() *Sanitizer {
	p := bluemonday.UGCPolicy()

	p.AllowStyles("text-align").Matching(bluemonday.CellAlign).Globally()

	p.AllowElements("iframe")
	p.AllowAttrs("class").Matching(regexp.MustCompile(`^ql-video$`)).OnElements("iframe")
	p.AllowAttrs("src").Matching(regexp.MustCompile(`^https://`)).OnElements("iframe")
	p.AllowAttrs("frameborder").Matching(bluemonday.Integer).OnElements("iframe")
	p.AllowAttrs("allowfullscreen").Matching(regexp.MustCompile(`^(true|allowfullscreen)?$`)).OnElements("iframe")

	p.AllowAttrs("class").Matching(regexp.MustCompile(`^language-[A-Za-z0-9+#_-]+$`)).OnElements("code")
	p.AllowAttrs("start").Matching(bluemonday.Integer).OnElements("ol")
	p.AllowAttrs("colspan", "rowspan").Matching(bluemonday.Integer).OnElements("td", "th")

	p.AddTargetBlankToFullyQualifiedLinks(true)
	p.RequireNoReferrerOnFullyQualifiedLinks(true)

	return &Sanitizer{policy: p}
}

// HTML returns the sanitized fragment ready for a template.
func (s *Sanitizer) HTML(fragment string) template.HTML {
	return template.HTML(s.policy.Sanitize(fragment)) //nolint:gosec
}
