package tree

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// MaxNestingDepth is the deepest node nesting Parse accepts.
const MaxNestingDepth = 256

// ErrMalformed is returned by Parse when the input is not a content tree.
var ErrMalformed = errors.New("malformed content tree")

// Parse decodes a content tree. It accepts a root node object, a bare array
// of top-level nodes (wrapped in a doc node), or a JSON string holding either.
func Parse(data []byte) (Node, error) {
	return parse(data, true)
}

// ParseLenient is Parse for read paths: malformed input yields an empty doc.
func ParseLenient(data []byte) Node {
	n, err := Parse(data)
	if err != nil {
		return Node{Type: "doc"}
	}
	return n
}

func parse(data []byte, allowString bool) (Node, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return Node{}, fmt.Errorf("%w: empty input", ErrMalformed)
	}

	switch data[0] {
	case '"':
		if !allowString {
			return Node{}, fmt.Errorf("%w: nested string encoding", ErrMalformed)
		}
		var inner string
		if err := json.Unmarshal(data, &inner); err != nil {
			return Node{}, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		return parse([]byte(inner), false)

	case '[', '{':
		var v any
		if err := json.Unmarshal(data, &v); err != nil {
			return Node{}, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		var n Node
		var tooDeep bool
		if items, ok := v.([]any); ok {
			n.Type = "doc"
			n.Content, tooDeep = nodesFrom(items, 1)
		} else {
			n, tooDeep = nodeFrom(v, 0)
			if n.Type == "" {
				return Node{}, fmt.Errorf("%w: missing type", ErrMalformed)
			}
		}
		if tooDeep {
			return Node{}, fmt.Errorf("%w: nested deeper than %d", ErrMalformed, MaxNestingDepth)
		}
		return n, nil

	default:
		return Node{}, fmt.Errorf("%w: unexpected %q", ErrMalformed, data[0])
	}
}
