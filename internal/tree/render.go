package tree

import (
	"strconv"
	"strings"

	"github.com/hanul-clinic/clinicboard/internal/richtext"
)

const (
	// DefaultMaxDepth is the nesting depth beyond which subtrees are
	// flattened to text.
	DefaultMaxDepth = 64

	// DefaultImageAlt is used when an image node carries no alt text.
	DefaultImageAlt = "이미지"
)

// Options controls Render.
type Options struct {
	// MaxDepth caps recursion. Zero means DefaultMaxDepth.
	MaxDepth int

	// ImageAlt is the alt fallback for images. Empty means DefaultImageAlt.
	ImageAlt string
}

func (o Options) withDefaults() Options {
	if o.MaxDepth <= 0 {
		o.MaxDepth = DefaultMaxDepth
	}
	if o.ImageAlt == "" {
		o.ImageAlt = DefaultImageAlt
	}
	return o
}

var alignments = map[string]bool{"left": true, "center": true, "right": true, "justify": true}

type renderer struct {
	b    strings.Builder
	opts Options
}

// Render renders n as an HTML fragment. Unknown node types contribute their
// children (or their escaped text) and no markup of their own.
func Render(n Node, opts Options) string {
	r := &renderer{opts: opts.withDefaults()}
	r.node(n, 0)
	return r.b.String()
}

func (r *renderer) node(n Node, depth int) {
	if depth >= r.opts.MaxDepth {
		r.b.WriteString(richtext.Escape(PlainText(n)))
		return
	}

	switch n.Type {
	case "doc":
		r.inner(n, depth)

	case "paragraph":
		r.b.WriteString("<p" + alignStyle(n.Attrs) + ">")
		if r.isEmpty(n) {
			r.b.WriteString("<br>")
		} else {
			r.inner(n, depth)
		}
		r.b.WriteString("</p>")

	case "heading":
		tag := "h" + strconv.Itoa(headingLevel(n.Attrs))
		r.b.WriteString("<" + tag + alignStyle(n.Attrs) + ">")
		r.inner(n, depth)
		r.b.WriteString("</" + tag + ">")

	case "text":
		r.b.WriteString(richtext.Wrap(richtext.Escape(n.Text), marksOf(n.Marks)))

	case "hardBreak":
		r.b.WriteString("<br>")

	case "horizontalRule":
		r.b.WriteString("<hr>")

	case "table":
		r.b.WriteString(`<div class="table-wrapper"><table><tbody>`)
		r.inner(n, depth)
		r.b.WriteString("</tbody></table></div>")

	case "tableRow":
		r.wrap("tr", "", n, depth)

	case "tableCell":
		r.wrap("td", spanAttrs(n.Attrs), n, depth)

	case "tableHeader":
		r.wrap("th", ` scope="col"`+spanAttrs(n.Attrs), n, depth)

	case "bulletList":
		r.wrap("ul", "", n, depth)

	case "orderedList":
		extra := ""
		if start := attrInt(n.Attrs, "start"); start > 1 {
			extra = ` start="` + strconv.Itoa(start) + `"`
		}
		r.wrap("ol", extra, n, depth)

	case "listItem":
		r.wrap("li", "", n, depth)

	case "blockquote":
		r.wrap("blockquote", "", n, depth)

	case "codeBlock":
		class := ""
		if lang := attrString(n.Attrs, "language"); lang != "" && isLanguageName(lang) {
			class = ` class="language-` + lang + `"`
		}
		r.b.WriteString("<pre><code" + class + ">")
		r.b.WriteString(richtext.Escape(codeText(n)))
		r.b.WriteString("</code></pre>")

	case "image":
		r.image(n)

	default:
		r.inner(n, depth)
	}
}

func (r *renderer) wrap(tag, attrs string, n Node, depth int) {
	r.b.WriteString("<" + tag + attrs + ">")
	r.inner(n, depth)
	r.b.WriteString("</" + tag + ">")
}

// inner renders the children of n in order, or its escaped text when it has none.
func (r *renderer) inner(n Node, depth int) {
	if len(n.Content) == 0 {
		if n.Text != "" {
			r.b.WriteString(richtext.Escape(n.Text))
		}
		return
	}
	for _, child := range n.Content {
		r.node(child, depth+1)
	}
}

func (r *renderer) isEmpty(n Node) bool {
	return len(n.Content) == 0 && n.Text == ""
}

func (r *renderer) image(n Node) {
	src, ok := richtext.SafeMediaURL(attrString(n.Attrs, "src"))
	if !ok {
		return
	}
	alt := strings.TrimSpace(attrString(n.Attrs, "alt"))
	if alt == "" {
		alt = r.opts.ImageAlt
	}
	r.b.WriteString(`<img src="` + richtext.Escape(src) + `" alt="` + richtext.Escape(alt) + `"`)
	if title := attrString(n.Attrs, "title"); title != "" {
		r.b.WriteString(` title="` + richtext.Escape(title) + `"`)
	}
	r.b.WriteString(">")
}

// codeText joins the text children of a code block verbatim.
func codeText(n Node) string {
	if len(n.Content) == 0 {
		return n.Text
	}
	var b strings.Builder
	for _, child := range n.Content {
		if child.Type == "hardBreak" {
			b.WriteByte('\n')
			continue
		}
		b.WriteString(child.Text)
	}
	return b.String()
}

func marksOf(marks []Mark) richtext.Marks {
	var m richtext.Marks
	for _, mark := range marks {
		switch mark.Type {
		case "bold", "strong":
			m.Bold = true
		case "italic", "em":
			m.Italic = true
		case "underline":
			m.Underline = true
		case "strike", "strikethrough":
			m.Strike = true
		case "code":
			m.Code = true
		case "link":
			m.Link = attrString(mark.Attrs, "href")
		}
	}
	return m
}

func headingLevel(attrs map[string]any) int {
	level := attrInt(attrs, "level")
	switch {
	case level < 1:
		return 1
	case level > 6:
		return 6
	}
	return level
}

func alignStyle(attrs map[string]any) string {
	align := attrString(attrs, "textAlign")
	if align == "" || align == "left" || !alignments[align] {
		return ""
	}
	return ` style="text-align:` + align + `"`
}

func spanAttrs(attrs map[string]any) string {
	var s string
	if n := attrInt(attrs, "colspan"); n > 1 {
		s += ` colspan="` + strconv.Itoa(n) + `"`
	}
	if n := attrInt(attrs, "rowspan"); n > 1 {
		s += ` rowspan="` + strconv.Itoa(n) + `"`
	}
	return s
}

func isLanguageName(s string) bool {
	for _, r := range s {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '-' || r == '_' || r == '+') {
			return false
		}
	}
	return true
}
