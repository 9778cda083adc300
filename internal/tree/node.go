// Package tree handles the tree-shaped notice content written by the newer
// table-capable editor: a recursive node structure in the TipTap JSON shape.
package tree

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Node is one node of the content tree. A node holds either child nodes or
// text, never both.
type Node struct {
	Type    string
	Attrs   map[string]any
	Content []Node
	Text    string
	Marks   []Mark
}

// Mark is inline formatting on a text node (bold, link, ...).
type Mark struct {
	Type  string         `json:"type"`
	Attrs map[string]any `json:"attrs,omitempty"`
}

// UnmarshalJSON is lenient: fields of the wrong type are dropped, and a
// non-object value decodes to a node with an empty type. Subtrees nested
// deeper than MaxNestingDepth are dropped.
func (n *Node) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		*n = Node{}
		return nil
	}
	*n, _ = nodeFrom(v, 0)
	return nil
}

// nodeFrom builds a Node from a decoded JSON value in one pass. The bool
// result reports whether some subtree exceeded MaxNestingDepth.
func nodeFrom(v any, depth int) (Node, bool) {
	obj, ok := v.(map[string]any)
	if !ok {
		return Node{}, false
	}

	var n Node
	n.Type, _ = obj["type"].(string)
	n.Text, _ = obj["text"].(string)
	n.Attrs, _ = obj["attrs"].(map[string]any)

	tooDeep := false
	switch c := obj["content"].(type) {
	case []any:
		if depth >= MaxNestingDepth {
			tooDeep = len(c) > 0
			break
		}
		n.Content, tooDeep = nodesFrom(c, depth+1)
	case string:
		if n.Text == "" {
			n.Text = c
		}
	}

	if items, ok := obj["marks"].([]any); ok {
		for _, item := range items {
			m, ok := item.(map[string]any)
			if !ok {
				continue
			}
			typ, _ := m["type"].(string)
			if typ == "" {
				continue
			}
			attrs, _ := m["attrs"].(map[string]any)
			n.Marks = append(n.Marks, Mark{Type: typ, Attrs: attrs})
		}
	}
	return n, tooDeep
}

func nodesFrom(items []any, depth int) ([]Node, bool) {
	nodes := make([]Node, 0, len(items))
	tooDeep := false
	for _, item := range items {
		child, deep := nodeFrom(item, depth)
		nodes = append(nodes, child)
		tooDeep = tooDeep || deep
	}
	return nodes, tooDeep
}

// MarshalJSON emits the TipTap shape, omitting empty fields.
func (n Node) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type    string         `json:"type"`
		Attrs   map[string]any `json:"attrs,omitempty"`
		Content []Node         `json:"content,omitempty"`
		Text    string         `json:"text,omitempty"`
		Marks   []Mark         `json:"marks,omitempty"`
	}{n.Type, n.Attrs, n.Content, n.Text, n.Marks})
}

// attrString safely extracts a string attribute.
func attrString(attrs map[string]any, key string) string {
	if attrs == nil {
		return ""
	}
	s, _ := attrs[key].(string)
	return s
}

// attrInt safely extracts an integer attribute. JSON numbers arrive as
// float64; numeric strings are accepted too.
func attrInt(attrs map[string]any, key string) int {
	if attrs == nil {
		return 0
	}
	switch v := attrs[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	case string:
		n, _ := strconv.Atoi(strings.TrimSpace(v))
		return n
	}
	return 0
}
