package delta

import (
	"strconv"
	"strings"

	"github.com/hanul-clinic/clinicboard/internal/richtext"
)

// blockKind is the block a line turns into, decided by the attributes of the
// op carrying its "\n".
type blockKind int

const (
	blockParagraph blockKind = iota
	blockHeader
	blockList
	blockQuote
	blockCode
)

// MaxHeader is the deepest heading level the editor produces.
const MaxHeader = 4

var alignments = map[string]bool{"left": true, "center": true, "right": true, "justify": true}

func blockOf(a Attributes) blockKind {
	switch {
	case a.Header >= 1 && a.Header <= MaxHeader:
		return blockHeader
	case a.List != "":
		return blockList
	case a.Blockquote:
		return blockQuote
	case a.CodeBlock:
		return blockCode
	default:
		return blockParagraph
	}
}

// run is a piece of the line being buffered: marked text or a prebuilt embed.
type run struct {
	text  string
	marks richtext.Marks
	embed string
}

// listFrame is one open <ul>/<ol>. itemOpen is set while its last <li> has
// not been closed, so that a deeper list can be nested inside it.
type listFrame struct {
	typ      ListType
	itemOpen bool
}

// converter is the accumulator folded over the ops of one document.
// codeOpen is set while consecutive code-block lines share one <pre>.
type converter struct {
	out      strings.Builder
	line     []run
	lists    []listFrame
	codeOpen bool
}

// ToHTML converts doc to an HTML fragment. It never fails: invalid ops are
// skipped and unknown attributes are ignored.
func ToHTML(doc Document) string {
	c := &converter{}
	for _, op := range doc.Ops {
		c.apply(op)
	}
	c.finish()
	return c.out.String()
}

func (c *converter) apply(op Op) {
	switch op.Insert.Kind {
	case InsertText:
		segments := strings.Split(op.Insert.Text, "\n")
		for i, seg := range segments {
			c.appendText(seg, op.Attributes.Marks())
			if i < len(segments)-1 {
				c.endLine(op.Attributes)
			}
		}
	case InsertEmbed:
		if h := embedHTML(op.Insert.Embed); h != "" {
			c.line = append(c.line, run{embed: h})
		}
	}
}

func (c *converter) appendText(s string, m richtext.Marks) {
	if s == "" {
		return
	}
	if n := len(c.line); n > 0 && c.line[n-1].embed == "" && c.line[n-1].marks == m {
		c.line[n-1].text += s
		return
	}
	c.line = append(c.line, run{text: s, marks: m})
}

func (c *converter) endLine(a Attributes) {
	kind := blockOf(a)
	if kind != blockCode {
		c.closeCode()
	}
	if kind != blockList {
		c.closeLists(0)
	}

	switch kind {
	case blockHeader:
		tag := "h" + strconv.Itoa(a.Header)
		c.out.WriteString("<" + tag + ">" + c.inline() + "</" + tag + ">")
	case blockList:
		c.listItem(a.List, a.Indent)
	case blockQuote:
		c.out.WriteString("<blockquote><p>" + c.inline() + "</p></blockquote>")
	case blockCode:
		if c.codeOpen {
			c.out.WriteString("\n")
		} else {
			c.out.WriteString("<pre><code>")
			c.codeOpen = true
		}
		c.out.WriteString(c.literal())
	default:
		if alignments[a.Align] {
			c.out.WriteString(`<p style="text-align:` + a.Align + `">` + c.inline() + "</p>")
		} else {
			c.out.WriteString("<p>" + c.inline() + "</p>")
		}
	}
	c.line = c.line[:0]
}

// listItem opens an <li> at depth indent, adjusting the stack of open lists.
// A depth more than one level below the current nesting is clamped.
func (c *converter) listItem(typ ListType, indent int) {
	depth := indent
	if depth > len(c.lists) {
		depth = len(c.lists)
	}
	c.closeLists(depth + 1)

	if len(c.lists) == depth+1 {
		top := &c.lists[depth]
		if top.typ != typ {
			c.closeLists(depth)
		} else if top.itemOpen {
			c.out.WriteString("</li>")
			top.itemOpen = false
		}
	}
	if len(c.lists) == depth {
		c.out.WriteString("<" + listTag(typ) + ">")
		c.lists = append(c.lists, listFrame{typ: typ})
	}

	c.out.WriteString("<li>" + c.inline())
	c.lists[depth].itemOpen = true
}

// closeLists closes open lists until only depth remain.
func (c *converter) closeLists(depth int) {
	for len(c.lists) > depth {
		top := c.lists[len(c.lists)-1]
		if top.itemOpen {
			c.out.WriteString("</li>")
		}
		c.out.WriteString("</" + listTag(top.typ) + ">")
		c.lists = c.lists[:len(c.lists)-1]
	}
}

func (c *converter) closeCode() {
	if c.codeOpen {
		c.out.WriteString("</code></pre>")
		c.codeOpen = false
	}
}

func (c *converter) finish() {
	if len(c.line) > 0 {
		c.endLine(Attributes{})
	}
	c.closeCode()
	c.closeLists(0)
}

// inline renders the buffered line. An empty line renders a <br> so the
// block keeps its height.
func (c *converter) inline() string {
	if len(c.line) == 0 {
		return "<br>"
	}
	var b strings.Builder
	for _, r := range c.line {
		if r.embed != "" {
			b.WriteString(r.embed)
			continue
		}
		b.WriteString(richtext.Wrap(richtext.Escape(r.text), r.marks))
	}
	return b.String()
}

// literal renders the buffered line as escaped text with no marks or embeds.
func (c *converter) literal() string {
	var b strings.Builder
	for _, r := range c.line {
		if r.embed == "" {
			b.WriteString(richtext.Escape(r.text))
		}
	}
	return b.String()
}

func listTag(t ListType) string {
	if t == ListOrdered {
		return "ol"
	}
	return "ul"
}

func embedHTML(e Embed) string {
	switch e.Kind {
	case EmbedImage:
		if src, ok := richtext.SafeMediaURL(e.URL); ok {
			return `<img src="` + richtext.Escape(src) + `">`
		}
	case EmbedVideo:
		if src, ok := richtext.SafeURL(e.URL); ok {
			return `<iframe class="ql-video" frameborder="0" allowfullscreen="true" src="` + richtext.Escape(src) + `"></iframe>`
		}
	}
	return ""
}
