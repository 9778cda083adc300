// Package richtext holds the pieces shared by both notice content formats:
// the inline-mark contract, URL filtering, placeholder tokens, whitespace
// normalization and excerpt derivation.
package richtext

import "html"

// Marks is the inline formatting applied to a run of text.
type Marks struct {
	Bold      bool
	Italic    bool
	Underline bool
	Strike    bool
	Code      bool
	Link      string
}

// IsZero reports whether no mark is set.
func (m Marks) IsZero() bool {
	return m == Marks{}
}

// Escape escapes text for inclusion in HTML element content or a quoted attribute.
func Escape(s string) string {
	return html.EscapeString(s)
}

// Wrap wraps already-escaped inner HTML in the tags for m.
// Nesting order is fixed: bold is innermost, followed by italic, underline,
// strike and code; the link anchor is always outermost. A link whose URL is
// not safe to emit is dropped and the text stays unlinked.
func Wrap(inner string, m Marks) string {
	if m.Bold {
		inner = "<strong>" + inner + "</strong>"
	}
	if m.Italic {
		inner = "<em>" + inner + "</em>"
	}
	if m.Underline {
		inner = "<u>" + inner + "</u>"
	}
	if m.Strike {
		inner = "<s>" + inner + "</s>"
	}
	if m.Code {
		inner = "<code>" + inner + "</code>"
	}
	if href, ok := SafeURL(m.Link); ok {
		inner = `<a href="` + Escape(href) + `" target="_blank" rel="noopener noreferrer nofollow">` + inner + "</a>"
	}
	return inner
}
