package delta

import (
	"encoding/json"
	"strconv"
	"strings"
)

// ListType is the value of the list attribute.
type ListType string

const (
	ListOrdered ListType = "ordered"
	ListBullet  ListType = "bullet"
)

// Attributes is the formatting attached to an op. Inline keys apply to the
// op's own text; block keys apply to the line its "\n" terminates.
// Keys outside the known set are kept verbatim in Other.
type Attributes struct {
	Bold      bool
	Italic    bool
	Underline bool
	Strike    bool
	Code      bool
	Link      string

	Header     int
	List       ListType
	Indent     int
	Blockquote bool
	CodeBlock  bool
	Align      string

	Other map[string]json.RawMessage
}

// IsZero reports whether no attribute is set.
func (a Attributes) IsZero() bool {
	return !a.Bold && !a.Italic && !a.Underline && !a.Strike && !a.Code && a.Link == "" &&
		a.Header == 0 && a.List == "" && a.Indent == 0 && !a.Blockquote && !a.CodeBlock &&
		a.Align == "" && len(a.Other) == 0
}

// UnmarshalJSON never fails. Known keys holding a value of the wrong type are
// coerced when the intent is unambiguous and dropped otherwise.
func (a *Attributes) UnmarshalJSON(data []byte) error {
	*a = Attributes{}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(data, &m); err != nil {
		return nil
	}

	for key, raw := range m {
		switch key {
		case "bold":
			a.Bold = decodeBool(raw)
		case "italic":
			a.Italic = decodeBool(raw)
		case "underline":
			a.Underline = decodeBool(raw)
		case "strike":
			a.Strike = decodeBool(raw)
		case "code":
			a.Code = decodeBool(raw)
		case "link":
			a.Link = decodeString(raw)
		case "header":
			a.Header = decodeInt(raw)
		case "list":
			switch ListType(decodeString(raw)) {
			case ListOrdered:
				a.List = ListOrdered
			case ListBullet:
				a.List = ListBullet
			}
		case "indent":
			if n := decodeInt(raw); n > 0 {
				a.Indent = n
			}
		case "blockquote":
			a.Blockquote = decodeBool(raw)
		case "code-block":
			// Newer editors store the language name instead of true.
			a.CodeBlock = decodeBool(raw) || decodeString(raw) != ""
		case "align":
			a.Align = decodeString(raw)
		default:
			if a.Other == nil {
				a.Other = make(map[string]json.RawMessage)
			}
			a.Other[key] = raw
		}
	}
	return nil
}

// MarshalJSON emits only the keys that are set.
func (a Attributes) MarshalJSON() ([]byte, error) {
	m := make(map[string]any, len(a.Other)+4)
	for k, v := range a.Other {
		m[k] = v
	}
	setBool := func(key string, v bool) {
		if v {
			m[key] = true
		}
	}
	setBool("bold", a.Bold)
	setBool("italic", a.Italic)
	setBool("underline", a.Underline)
	setBool("strike", a.Strike)
	setBool("code", a.Code)
	setBool("blockquote", a.Blockquote)
	setBool("code-block", a.CodeBlock)
	if a.Link != "" {
		m["link"] = a.Link
	}
	if a.Header != 0 {
		m["header"] = a.Header
	}
	if a.List != "" {
		m["list"] = a.List
	}
	if a.Indent != 0 {
		m["indent"] = a.Indent
	}
	if a.Align != "" {
		m["align"] = a.Align
	}
	return json.Marshal(m)
}

func decodeBool(raw json.RawMessage) bool {
	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		return b
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.EqualFold(strings.TrimSpace(s), "true")
	}
	return false
}

func decodeString(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return ""
}

func decodeInt(raw json.RawMessage) int {
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return int(f)
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if n, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			return n
		}
	}
	return 0
}
