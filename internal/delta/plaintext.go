package delta

import (
	"strings"

	"github.com/hanul-clinic/clinicboard/internal/richtext"
)

// PlainText concatenates the text of doc, replaces embeds with placeholder
// tokens and collapses whitespace. Formatting is ignored.
func PlainText(doc Document) string {
	var b strings.Builder
	for _, op := range doc.Ops {
		switch op.Insert.Kind {
		case InsertText:
			b.WriteString(op.Insert.Text)
		case InsertEmbed:
			b.WriteByte(' ')
			b.WriteString(placeholder(op.Insert.Embed.Kind))
			b.WriteByte(' ')
		}
	}
	return richtext.CollapseSpace(b.String())
}

func placeholder(kind EmbedKind) string {
	if kind == EmbedVideo {
		return richtext.VideoPlaceholder
	}
	return richtext.ImagePlaceholder
}
