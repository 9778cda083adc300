// Package notice defines notices, categories and the two content shapes a
// notice body can be stored in.
package notice

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hanul-clinic/clinicboard/internal/delta"
	"github.com/hanul-clinic/clinicboard/internal/tree"
)

// Format tags the shape of stored content.
type Format string

const (
	FormatEmpty Format = ""
	FormatDelta Format = "delta"
	FormatTree  Format = "tree"
)

// ErrUnknownFormat is returned when content matches neither shape.
var ErrUnknownFormat = errors.New("unrecognized content format")

// ParseFormat validates a format name. An empty name means "detect".
func ParseFormat(s string) (Format, bool) {
	switch Format(s) {
	case FormatEmpty, FormatDelta, FormatTree:
		return Format(s), true
	}
	return "", false
}

// Content is a notice body: a delta document or a content tree. The two are
// kept apart; rendering dispatches on Format.
type Content struct {
	Format Format
	Delta  delta.Document
	Tree   tree.Node
}

// ParseContent decodes raw content. hint is the stored content_format; when
// empty the shape is detected from the JSON. Empty or null input yields empty
// content without error.
func ParseContent(raw []byte, hint Format) (Content, error) {
	if isBlank(raw) {
		return Content{}, nil
	}

	format := hint
	if format == FormatEmpty {
		format = DetectFormat(raw)
	}

	switch format {
	case FormatDelta:
		doc, err := delta.Parse(raw)
		if err != nil {
			return Content{}, err
		}
		return Content{Format: FormatDelta, Delta: doc}, nil
	case FormatTree:
		n, err := tree.Parse(raw)
		if err != nil {
			return Content{}, err
		}
		return Content{Format: FormatTree, Tree: n}, nil
	}
	return Content{}, ErrUnknownFormat
}

// DetectFormat guesses the shape of raw content: an "ops" key or an array of
// ops means delta, a "type" key or an array of typed nodes means tree.
// A JSON string is unwrapped once first.
func DetectFormat(raw []byte) Format {
	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '"' {
		var inner string
		if err := json.Unmarshal(raw, &inner); err != nil {
			return FormatEmpty
		}
		raw = bytes.TrimSpace([]byte(inner))
	}
	if len(raw) == 0 {
		return FormatEmpty
	}

	var probe map[string]json.RawMessage
	switch raw[0] {
	case '{':
		if err := json.Unmarshal(raw, &probe); err != nil {
			return FormatEmpty
		}
	case '[':
		var items []map[string]json.RawMessage
		if err := json.Unmarshal(raw, &items); err != nil {
			return FormatEmpty
		}
		if len(items) == 0 {
			return FormatDelta
		}
		probe = items[0]
		if _, ok := probe["insert"]; ok {
			return FormatDelta
		}
	default:
		return FormatEmpty
	}

	if _, ok := probe["ops"]; ok {
		return FormatDelta
	}
	if _, ok := probe["type"]; ok {
		return FormatTree
	}
	return FormatEmpty
}

// HTML renders the content. opts applies to tree content only.
func (c Content) HTML(opts tree.Options) string {
	switch c.Format {
	case FormatDelta:
		return delta.ToHTML(c.Delta)
	case FormatTree:
		return tree.Render(c.Tree, opts)
	}
	return ""
}

// PlainText extracts the text of the content.
func (c Content) PlainText() string {
	switch c.Format {
	case FormatDelta:
		return delta.PlainText(c.Delta)
	case FormatTree:
		return tree.PlainText(c.Tree)
	}
	return ""
}

// IsEmpty reports whether the content has nothing to show.
func (c Content) IsEmpty() bool {
	switch c.Format {
	case FormatDelta:
		return c.Delta.IsEmpty()
	case FormatTree:
		return c.PlainText() == ""
	}
	return true
}

// MarshalJSON emits the canonical form of the held document, or null.
func (c Content) MarshalJSON() ([]byte, error) {
	switch c.Format {
	case FormatDelta:
		return json.Marshal(c.Delta)
	case FormatTree:
		return json.Marshal(c.Tree)
	}
	return []byte("null"), nil
}

// Canonical returns the JSON to persist for c.
func (c Content) Canonical() ([]byte, error) {
	if c.Format == FormatEmpty {
		return nil, nil
	}
	b, err := c.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("encode %s content: %w", c.Format, err)
	}
	return b, nil
}

func isBlank(raw []byte) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) == 0 || bytes.Equal(raw, []byte("null"))
}
