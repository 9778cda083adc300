package richtext

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// blockElements get a separating space so adjacent blocks do not run together.
var blockElements = map[string]bool{
	"p": true, "div": true, "br": true, "li": true, "ul": true, "ol": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"blockquote": true, "pre": true, "table": true, "tr": true, "td": true, "th": true,
}

// FromHTML extracts plain text from an HTML fragment, with the same
// placeholder and whitespace rules as the document extractors. It is used
// for rows that only carry cached html_content. Unparseable input yields "".
func FromHTML(fragment string) string {
	nodes, err := html.ParseFragment(strings.NewReader(fragment), &html.Node{
		Type:     html.ElementNode,
		Data:     "body",
		DataAtom: atom.Body,
	})
	if err != nil {
		return ""
	}

	var b strings.Builder
	for _, n := range nodes {
		walkText(n, &b)
	}
	return CollapseSpace(b.String())
}

func walkText(n *html.Node, b *strings.Builder) {
	switch n.Type {
	case html.TextNode:
		b.WriteString(n.Data)
		return
	case html.ElementNode:
		switch n.Data {
		case "script", "style":
			return
		case "img":
			b.WriteString(" " + ImagePlaceholder + " ")
			return
		case "iframe", "video":
			b.WriteString(" " + VideoPlaceholder + " ")
			return
		}
		if blockElements[n.Data] {
			b.WriteString(" ")
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walkText(c, b)
	}
	if n.Type == html.ElementNode && blockElements[n.Data] {
		b.WriteString(" ")
	}
}
