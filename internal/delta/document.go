// Package delta implements the flat, operation-based document format written by
// the notice editor, and converts it to HTML and plain text.
//
// A document is a sequence of insert operations. Block structure is implied:
// the attributes on the op that carries a "\n" describe the block that newline
// terminates.
package delta

import (
	"bytes"
	"encoding/json"

	"github.com/hanul-clinic/clinicboard/internal/richtext"
)

// EmbedKind identifies a non-text insert.
type EmbedKind string

const (
	EmbedImage EmbedKind = "image"
	EmbedVideo EmbedKind = "video"
)

// Embed is an image or video addressed by URL.
type Embed struct {
	Kind EmbedKind
	URL  string
}

// InsertKind tags the variant held by an Insert.
type InsertKind int

const (
	// InsertInvalid is anything that is neither text nor a known embed.
	// Every consumer skips it.
	InsertInvalid InsertKind = iota
	InsertText
	InsertEmbed
)

// Insert is the payload of an op: text, an embed, or invalid.
type Insert struct {
	Kind  InsertKind
	Text  string
	Embed Embed
}

// TextInsert returns a text insert.
func TextInsert(s string) Insert {
	return Insert{Kind: InsertText, Text: s}
}

// EmbedInsert returns an embed insert.
func EmbedInsert(kind EmbedKind, url string) Insert {
	return Insert{Kind: InsertEmbed, Embed: Embed{Kind: kind, URL: url}}
}

// UnmarshalJSON never fails. Values it does not recognize become InsertInvalid.
func (in *Insert) UnmarshalJSON(data []byte) error {
	*in = Insert{}
	if isNull(data) {
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*in = TextInsert(s)
		return nil
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil {
		return nil
	}
	for _, kind := range []EmbedKind{EmbedImage, EmbedVideo} {
		raw, ok := obj[string(kind)]
		if !ok {
			continue
		}
		var url string
		if err := json.Unmarshal(raw, &url); err == nil && url != "" {
			*in = EmbedInsert(kind, url)
		}
		return nil
	}
	return nil
}

// MarshalJSON emits a string for text and {"image": url} / {"video": url} for embeds.
func (in Insert) MarshalJSON() ([]byte, error) {
	switch in.Kind {
	case InsertText:
		return json.Marshal(in.Text)
	case InsertEmbed:
		return json.Marshal(map[string]string{string(in.Embed.Kind): in.Embed.URL})
	default:
		return []byte("null"), nil
	}
}

// Op is one element of a document.
type Op struct {
	Insert     Insert
	Attributes Attributes
}

// UnmarshalJSON never fails. Ops without an insert (retain, delete, garbage)
// decode as InsertInvalid.
func (op *Op) UnmarshalJSON(data []byte) error {
	*op = Op{}
	var raw struct {
		Insert     json.RawMessage `json:"insert"`
		Attributes json.RawMessage `json:"attributes"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil
	}
	if len(raw.Insert) > 0 {
		_ = op.Insert.UnmarshalJSON(raw.Insert)
	}
	if len(raw.Attributes) > 0 {
		_ = op.Attributes.UnmarshalJSON(raw.Attributes)
	}
	return nil
}

// MarshalJSON omits empty attributes.
func (op Op) MarshalJSON() ([]byte, error) {
	if op.Attributes.IsZero() {
		return json.Marshal(struct {
			Insert Insert `json:"insert"`
		}{op.Insert})
	}
	return json.Marshal(struct {
		Insert     Insert     `json:"insert"`
		Attributes Attributes `json:"attributes"`
	}{op.Insert, op.Attributes})
}

// Document is an ordered sequence of ops.
type Document struct {
	Ops []Op
}

// MarshalJSON emits the canonical {"ops": [...]} form. Invalid ops are dropped.
func (d Document) MarshalJSON() ([]byte, error) {
	ops := make([]Op, 0, len(d.Ops))
	for _, op := range d.Ops {
		if op.Insert.Kind != InsertInvalid {
			ops = append(ops, op)
		}
	}
	return json.Marshal(struct {
		Ops []Op `json:"ops"`
	}{ops})
}

// UnmarshalJSON accepts every shape Parse accepts.
func (d *Document) UnmarshalJSON(data []byte) error {
	doc, err := Parse(data)
	if err != nil {
		return err
	}
	*d = doc
	return nil
}

// IsEmpty reports whether the document has no visible content: no embeds and
// no text other than newlines.
func (d Document) IsEmpty() bool {
	for _, op := range d.Ops {
		switch op.Insert.Kind {
		case InsertEmbed:
			return false
		case InsertText:
			for _, r := range op.Insert.Text {
				if r != '\n' {
					return false
				}
			}
		}
	}
	return true
}

func isNull(data []byte) bool {
	return bytes.Equal(bytes.TrimSpace(data), []byte("null"))
}

// Marks returns the inline formatting carried by a.
func (a Attributes) Marks() richtext.Marks {
	return richtext.Marks{
		Bold:      a.Bold,
		Italic:    a.Italic,
		Underline: a.Underline,
		Strike:    a.Strike,
		Code:      a.Code,
		Link:      a.Link,
	}
}
