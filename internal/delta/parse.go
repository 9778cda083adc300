package delta

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrMalformed is returned by Parse when the input is not a delta document.
var ErrMalformed = errors.New("malformed delta document")

// Parse decodes a document from {"ops": [...]}, a bare op array, or a JSON
// string holding either of those (rows that were encoded twice).
// Individual ops never cause an error; unrecognized ops are kept as invalid
// and skipped by the converters.
func Parse(data []byte) (Document, error) {
	return parse(data, true)
}

// ParseLenient is Parse for read paths: malformed input yields an empty document.
func ParseLenient(data []byte) Document {
	doc, err := Parse(data)
	if err != nil {
		return Document{}
	}
	return doc
}

func parse(data []byte, allowString bool) (Document, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return Document{}, fmt.Errorf("%w: empty input", ErrMalformed)
	}

	switch data[0] {
	case '"':
		if !allowString {
			return Document{}, fmt.Errorf("%w: nested string encoding", ErrMalformed)
		}
		var inner string
		if err := json.Unmarshal(data, &inner); err != nil {
			return Document{}, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		return parse([]byte(inner), false)

	case '[':
		return parseOps(data)

	case '{':
		var envelope struct {
			Ops json.RawMessage `json:"ops"`
		}
		if err := json.Unmarshal(data, &envelope); err != nil {
			return Document{}, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		ops := bytes.TrimSpace(envelope.Ops)
		if len(ops) == 0 || isNull(ops) {
			return Document{}, fmt.Errorf("%w: missing ops", ErrMalformed)
		}
		if ops[0] != '[' {
			return Document{}, fmt.Errorf("%w: ops is not an array", ErrMalformed)
		}
		return parseOps(ops)

	default:
		return Document{}, fmt.Errorf("%w: unexpected %q", ErrMalformed, data[0])
	}
}

func parseOps(data []byte) (Document, error) {
	var ops []Op
	if err := json.Unmarshal(data, &ops); err != nil {
		return Document{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return Document{Ops: ops}, nil
}
