package tree

import (
	"strings"

	"github.com/hanul-clinic/clinicboard/internal/richtext"
)

// blockTypes are separated from their neighbours by a space in plain text.
var blockTypes = map[string]bool{
	"paragraph": true, "heading": true, "blockquote": true, "codeBlock": true,
	"bulletList": true, "orderedList": true, "listItem": true,
	"table": true, "tableRow": true, "tableCell": true, "tableHeader": true,
	"hardBreak": true, "horizontalRule": true,
}

// PlainText returns the text of the tree with images replaced by the image
// placeholder and whitespace collapsed. It walks the tree with an explicit
// stack, so input depth is not limited.
func PlainText(n Node) string {
	return richtext.CollapseSpace(rawText(n))
}

// rawText concatenates text leaves in document order without normalizing.
func rawText(root Node) string {
	type frame struct {
		node  *Node
		close bool
	}

	var b strings.Builder
	stack := []frame{{node: &root}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		n := f.node

		if f.close {
			b.WriteByte(' ')
			continue
		}
		if n.Type == "image" {
			b.WriteString(" " + richtext.ImagePlaceholder + " ")
			continue
		}

		block := blockTypes[n.Type]
		if block {
			b.WriteByte(' ')
			stack = append(stack, frame{node: n, close: true})
		}
		if len(n.Content) == 0 {
			b.WriteString(n.Text)
			continue
		}
		for i := len(n.Content) - 1; i >= 0; i-- {
			stack = append(stack, frame{node: &n.Content[i]})
		}
	}
	return b.String()
}
