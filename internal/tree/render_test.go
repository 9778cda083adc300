package tree

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name: "heading and paragraphs",
			input: `{"type":"doc","content":[
				{"type":"heading","attrs":{"level":2},"content":[{"type":"text","text":"진료 시간"}]},
				{"type":"paragraph","content":[{"type":"text","text":"평일 "},{"type":"text","text":"09:00","marks":[{"type":"bold"}]}]},
				{"type":"paragraph"}]}`,
			want: "<h2>진료 시간</h2><p>평일 <strong>09:00</strong></p><p><br></p>",
		},
		{
			name: "table with header cells",
			input: `{"type":"table","content":[
				{"type":"tableRow","content":[
					{"type":"tableHeader","content":[{"type":"paragraph","content":[{"type":"text","text":"요일"}]}]},
					{"type":"tableHeader","attrs":{"colspan":2},"content":[{"type":"paragraph","content":[{"type":"text","text":"시간"}]}]}]},
				{"type":"tableRow","content":[
					{"type":"tableCell","attrs":{"colspan":1,"rowspan":1},"content":[{"type":"paragraph","content":[{"type":"text","text":"월"}]}]}]}]}`,
			want: `<div class="table-wrapper"><table><tbody><tr><th scope="col"><p>요일</p></th><th scope="col" colspan="2"><p>시간</p></th></tr><tr><td><p>월</p></td></tr></tbody></table></div>`,
		},
		{
			name: "nested lists",
			input: `{"type":"orderedList","attrs":{"start":3},"content":[{"type":"listItem","content":[
				{"type":"paragraph","content":[{"type":"text","text":"a"}]},
				{"type":"bulletList","content":[{"type":"listItem","content":[{"type":"paragraph","content":[{"type":"text","text":"b"}]}]}]}]}]}`,
			want: `<ol start="3"><li><p>a</p><ul><li><p>b</p></li></ul></li></ol>`,
		},
		{
			name:  "bold link",
			input: `{"type":"text","text":"x","marks":[{"type":"bold"},{"type":"link","attrs":{"href":"https://x"}}]}`,
			want:  `<a href="https://x" target="_blank" rel="noopener noreferrer nofollow"><strong>x</strong></a>`,
		},
		{
			name:  "script link dropped",
			input: `{"type":"text","text":"x","marks":[{"type":"link","attrs":{"href":"javascript:alert(1)"}}]}`,
			want:  "x",
		},
		{
			name:  "text escaped",
			input: `{"type":"paragraph","content":[{"type":"text","text":"<script>"}]}`,
			want:  "<p>&lt;script&gt;</p>",
		},
		{
			name:  "heading level clamped",
			input: `{"type":"heading","attrs":{"level":9},"content":[{"type":"text","text":"h"}]}`,
			want:  "<h6>h</h6>",
		},
		{
			name:  "heading without level",
			input: `{"type":"heading","content":[{"type":"text","text":"h"}]}`,
			want:  "<h1>h</h1>",
		},
		{
			name:  "aligned paragraph",
			input: `{"type":"paragraph","attrs":{"textAlign":"center"},"content":[{"type":"text","text":"c"}]}`,
			want:  `<p style="text-align:center">c</p>`,
		},
		{
			name:  "code block with language",
			input: `{"type":"codeBlock","attrs":{"language":"go"},"content":[{"type":"text","text":"a < b"}]}`,
			want:  `<pre><code class="language-go">a &lt; b</code></pre>`,
		},
		{
			name:  "code block with hostile language",
			input: `{"type":"codeBlock","attrs":{"language":"x\" onclick=\"y"},"content":[{"type":"text","text":"z"}]}`,
			want:  `<pre><code>z</code></pre>`,
		},
		{
			name:  "image alt fallback",
			input: `{"type":"image","attrs":{"src":"/uploads/a.png"}}`,
			want:  `<img src="/uploads/a.png" alt="이미지">`,
		},
		{
			name:  "image with alt and title",
			input: `{"type":"image","attrs":{"src":"/a.png","alt":"원내 사진","title":"로비"}}`,
			want:  `<img src="/a.png" alt="원내 사진" title="로비">`,
		},
		{
			name:  "image with script src",
			input: `{"type":"image","attrs":{"src":"javascript:alert(1)"}}`,
			want:  "",
		},
		{
			name:  "blockquote hard break and rule",
			input: `{"type":"doc","content":[{"type":"blockquote","content":[{"type":"paragraph","content":[{"type":"text","text":"a"},{"type":"hardBreak"},{"type":"text","text":"b"}]}]},{"type":"horizontalRule"}]}`,
			want:  "<blockquote><p>a<br>b</p></blockquote><hr>",
		},
		{
			name:  "string content",
			input: `{"type":"paragraph","content":"raw <text>"}`,
			want:  "<p>raw &lt;text&gt;</p>",
		},
		{
			name:  "unknown type renders children only",
			input: `{"type":"mystery","attrs":{"x":1},"content":[{"type":"text","text":"hi"}]}`,
			want:  "hi",
		},
		{
			name:  "unknown empty type renders nothing",
			input: `{"type":"spoiler"}`,
			want:  "",
		},
		{
			name:  "unknown type with string content",
			input: `{"type":"callout","content":"<b>x</b>"}`,
			want:  "&lt;b&gt;x&lt;/b&gt;",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, err := Parse([]byte(tt.input))
			require.NoError(t, err)
			assert.Equal(t, tt.want, Render(n, Options{}))
		})
	}
}

func nestedQuotes(levels int) Node {
	n := Node{Type: "paragraph", Content: []Node{{Type: "text", Text: "deep", Marks: []Mark{{Type: "bold"}}}}}
	for i := 0; i < levels; i++ {
		n = Node{Type: "blockquote", Content: []Node{n}}
	}
	return n
}

func TestRender_DepthCap(t *testing.T) {
	out := Render(nestedQuotes(100), Options{})

	assert.Equal(t, DefaultMaxDepth, strings.Count(out, "<blockquote>"))
	assert.Equal(t, DefaultMaxDepth, strings.Count(out, "</blockquote>"))
	assert.Contains(t, out, "deep")
	assert.NotContains(t, out, "<strong>")
}

func TestRender_DepthCapFlattensEscapedText(t *testing.T) {
	n := Node{Type: "doc", Content: []Node{
		{Type: "paragraph", Content: []Node{{Type: "text", Text: "<x>", Marks: []Mark{{Type: "bold"}}}}},
	}}
	assert.Equal(t, "<p>&lt;x&gt;</p>", Render(n, Options{MaxDepth: 2}))
}

func TestRender_VeryDeepInput(t *testing.T) {
	n := nestedQuotes(20000)
	out := Render(n, Options{})
	assert.Contains(t, out, "deep")
	assert.Equal(t, "deep", PlainText(n))
}

func TestRender_CustomImageAlt(t *testing.T) {
	n := Node{Type: "image", Attrs: map[string]any{"src": "/a.png"}}
	assert.Equal(t, `<img src="/a.png" alt="사진">`, Render(n, Options{ImageAlt: "사진"}))
}
