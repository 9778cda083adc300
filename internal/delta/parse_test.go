package delta

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Shapes(t *testing.T) {
	envelope := `{"ops":[{"insert":"hi\n"}]}`
	doubled, err := json.Marshal(envelope)
	require.NoError(t, err)

	for name, input := range map[string]string{
		"envelope":       envelope,
		"bare array":     `[{"insert":"hi\n"}]`,
		"double encoded": string(doubled),
		"padded":         "  \n" + envelope + "\n",
	} {
		t.Run(name, func(t *testing.T) {
			doc, err := Parse([]byte(input))
			require.NoError(t, err)
			require.Len(t, doc.Ops, 1)
			assert.Equal(t, InsertText, doc.Ops[0].Insert.Kind)
			assert.Equal(t, "hi\n", doc.Ops[0].Insert.Text)
		})
	}
}

func TestParse_Malformed(t *testing.T) {
	inputs := map[string]string{
		"empty":             "",
		"not json":          "hello",
		"missing ops":       `{"type":"doc"}`,
		"null ops":          `{"ops":null}`,
		"object ops":        `{"ops":{"insert":"x"}}`,
		"broken json":       `{"ops":[{"insert":"x"}`,
		"number":            `42`,
		"empty string":      `""`,
		"triple encoded":    `"\"[]\""`,
		"string of garbage": `"not a document"`,
	}
	for name, input := range inputs {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(input))
			if !errors.Is(err, ErrMalformed) {
				t.Errorf("Parse(%q) error = %v, want ErrMalformed", input, err)
			}
			if doc := ParseLenient([]byte(input)); len(doc.Ops) != 0 {
				t.Errorf("ParseLenient(%q) returned %d ops", input, len(doc.Ops))
			}
		})
	}
}

func TestAttributes_Coercion(t *testing.T) {
	doc, err := Parse([]byte(`[{"insert":"\n","attributes":{
		"header":"2","bold":"true","italic":1,"code-block":"javascript",
		"list":"checked","indent":-2,"color":"#f00"}}]`))
	require.NoError(t, err)
	require.Len(t, doc.Ops, 1)

	a := doc.Ops[0].Attributes
	assert.Equal(t, 2, a.Header)
	assert.True(t, a.Bold)
	assert.False(t, a.Italic)
	assert.True(t, a.CodeBlock)
	assert.Equal(t, ListType(""), a.List)
	assert.Equal(t, 0, a.Indent)
	assert.JSONEq(t, `"#f00"`, string(a.Other["color"]))
}

func TestDocument_MarshalCanonical(t *testing.T) {
	doc, err := Parse([]byte(`[{"insert":"hi"},{"insert":7},{"insert":"\n","attributes":{"header":2}},{"insert":{"image":"/a.png"}}]`))
	require.NoError(t, err)

	out, err := json.Marshal(doc)
	require.NoError(t, err)
	assert.Equal(t, `{"ops":[{"insert":"hi"},{"insert":"\n","attributes":{"header":2}},{"insert":{"image":"/a.png"}}]}`, string(out))

	again, err := Parse(out)
	require.NoError(t, err)
	out2, err := json.Marshal(again)
	require.NoError(t, err)
	assert.Equal(t, string(out), string(out2))
}

func TestDocument_MarshalKeepsUnknownAttributes(t *testing.T) {
	doc := ParseLenient([]byte(`[{"insert":"x","attributes":{"color":"#f00","bold":true}}]`))
	out, err := json.Marshal(doc)
	require.NoError(t, err)
	assert.JSONEq(t, `{"ops":[{"insert":"x","attributes":{"bold":true,"color":"#f00"}}]}`, string(out))
}

func TestDocument_UnmarshalJSON(t *testing.T) {
	var req struct {
		Content Document `json:"content"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"content":{"ops":[{"insert":"a\n"}]}}`), &req))
	assert.Equal(t, "<p>a</p>", ToHTML(req.Content))

	err := json.Unmarshal([]byte(`{"content":{"nope":1}}`), &req)
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestDocument_IsEmpty(t *testing.T) {
	assert.True(t, Document{}.IsEmpty())
	assert.True(t, ParseLenient([]byte(`[{"insert":"\n\n"},{"insert":5}]`)).IsEmpty())
	assert.False(t, NewBuilder().Image("/a.png").Document().IsEmpty())
	assert.False(t, NewBuilder().Text(" ", Attributes{}).Document().IsEmpty())
}

func TestBuilder_DocumentIsCopy(t *testing.T) {
	b := NewBuilder().Text("a", Attributes{})
	doc := b.Document()
	b.Text("b", Attributes{})
	assert.Len(t, doc.Ops, 1)
	assert.Len(t, b.Document().Ops, 2)
}
