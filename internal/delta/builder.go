package delta

// Builder assembles a document op by op.
//
//	doc := delta.NewBuilder().
//		Text("진료 시간", delta.Attributes{Bold: true}).
//		Line(delta.Attributes{Header: 2}).
//		Image("/uploads/hours.png").
//		Line(delta.Attributes{}).
//		Document()
type Builder struct {
	ops []Op
}

// NewBuilder returns an empty builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Text appends a text insert with inline attributes.
func (b *Builder) Text(s string, attrs Attributes) *Builder {
	b.ops = append(b.ops, Op{Insert: TextInsert(s), Attributes: attrs})
	return b
}

// Image appends an image embed.
func (b *Builder) Image(url string) *Builder {
	b.ops = append(b.ops, Op{Insert: EmbedInsert(EmbedImage, url)})
	return b
}

// Video appends a video embed.
func (b *Builder) Video(url string) *Builder {
	b.ops = append(b.ops, Op{Insert: EmbedInsert(EmbedVideo, url)})
	return b
}

// Line terminates the current line with block attributes.
func (b *Builder) Line(attrs Attributes) *Builder {
	b.ops = append(b.ops, Op{Insert: TextInsert("\n"), Attributes: attrs})
	return b
}

// Document returns the ops appended so far.
func (b *Builder) Document() Document {
	ops := make([]Op, len(b.ops))
	copy(ops, b.ops)
	return Document{Ops: ops}
}
