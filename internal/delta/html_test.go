package delta

import (
	"strings"
	"testing"
)

func TestToHTML(t *testing.T) {
	tests := []struct {
		name string
		ops  string
		want string
	}{
		{
			name: "plain paragraph",
			ops:  `[{"insert":"hello\n"}]`,
			want: "<p>hello</p>",
		},
		{
			name: "unterminated trailing line",
			ops:  `[{"insert":"hello"}]`,
			want: "<p>hello</p>",
		},
		{
			name: "empty line keeps height",
			ops:  `[{"insert":"a\n\nb\n"}]`,
			want: "<p>a</p><p><br></p><p>b</p>",
		},
		{
			name: "text is escaped",
			ops:  `[{"insert":"<b>&</b>\n"}]`,
			want: "<p>&lt;b&gt;&amp;&lt;/b&gt;</p>",
		},
		{
			name: "list grouping",
			ops:  `[{"insert":"a"},{"insert":"\n","attributes":{"list":"bullet"}},{"insert":"b"},{"insert":"\n","attributes":{"list":"bullet"}}]`,
			want: "<ul><li>a</li><li>b</li></ul>",
		},
		{
			name: "list closed before header",
			ops:  `[{"insert":"a"},{"insert":"\n","attributes":{"list":"bullet"}},{"insert":"Title"},{"insert":"\n","attributes":{"header":2}}]`,
			want: "<ul><li>a</li></ul><h2>Title</h2>",
		},
		{
			name: "list type change opens new list",
			ops:  `[{"insert":"a"},{"insert":"\n","attributes":{"list":"bullet"}},{"insert":"b"},{"insert":"\n","attributes":{"list":"ordered"}}]`,
			want: "<ul><li>a</li></ul><ol><li>b</li></ol>",
		},
		{
			name: "nested list inside parent item",
			ops: `[{"insert":"a"},{"insert":"\n","attributes":{"list":"bullet"}},` +
				`{"insert":"b"},{"insert":"\n","attributes":{"list":"bullet","indent":1}},` +
				`{"insert":"c"},{"insert":"\n","attributes":{"list":"bullet"}}]`,
			want: "<ul><li>a<ul><li>b</li></ul></li><li>c</li></ul>",
		},
		{
			name: "indent jump is clamped",
			ops:  `[{"insert":"a"},{"insert":"\n","attributes":{"list":"ordered","indent":3}}]`,
			want: "<ol><li>a</li></ol>",
		},
		{
			name: "list closed before trailing text",
			ops:  `[{"insert":"a"},{"insert":"\n","attributes":{"list":"bullet"}},{"insert":"tail"}]`,
			want: "<ul><li>a</li></ul><p>tail</p>",
		},
		{
			name: "bold link nests anchor outside",
			ops:  `[{"insert":"x","attributes":{"bold":true,"link":"https://x"}},{"insert":"\n"}]`,
			want: `<p><a href="https://x" target="_blank" rel="noopener noreferrer nofollow"><strong>x</strong></a></p>`,
		},
		{
			name: "adjacent runs with same marks merge",
			ops:  `[{"insert":"a","attributes":{"bold":true}},{"insert":"b","attributes":{"bold":true}},{"insert":"c\n"}]`,
			want: "<p><strong>ab</strong>c</p>",
		},
		{
			name: "header out of range degrades",
			ops:  `[{"insert":"x"},{"insert":"\n","attributes":{"header":7}}]`,
			want: "<p>x</p>",
		},
		{
			name: "blockquote",
			ops:  `[{"insert":"q"},{"insert":"\n","attributes":{"blockquote":true}}]`,
			want: "<blockquote><p>q</p></blockquote>",
		},
		{
			name: "code block is literal",
			ops:  `[{"insert":"if a < b","attributes":{"bold":true}},{"insert":"\n","attributes":{"code-block":true}}]`,
			want: "<pre><code>if a &lt; b</code></pre>",
		},
		{
			name: "consecutive code lines share one block",
			ops:  `[{"insert":"x<y"},{"insert":"\n","attributes":{"code-block":true}},{"insert":"z"},{"insert":"\n","attributes":{"code-block":true}}]`,
			want: "<pre><code>x&lt;y\nz</code></pre>",
		},
		{
			name: "code block closed by paragraph",
			ops:  `[{"insert":"a"},{"insert":"\n","attributes":{"code-block":true}},{"insert":"b\n"},{"insert":"c"},{"insert":"\n","attributes":{"code-block":true}}]`,
			want: "<pre><code>a</code></pre><p>b</p><pre><code>c</code></pre>",
		},
		{
			name: "code block then list",
			ops:  `[{"insert":"a"},{"insert":"\n","attributes":{"code-block":true}},{"insert":"b"},{"insert":"\n","attributes":{"list":"bullet"}}]`,
			want: "<pre><code>a</code></pre><ul><li>b</li></ul>",
		},
		{
			name: "align",
			ops:  `[{"insert":"c"},{"insert":"\n","attributes":{"align":"center"}}]`,
			want: `<p style="text-align:center">c</p>`,
		},
		{
			name: "unknown align ignored",
			ops:  `[{"insert":"c"},{"insert":"\n","attributes":{"align":"x;color:red"}}]`,
			want: "<p>c</p>",
		},
		{
			name: "image embed",
			ops:  `[{"insert":{"image":"/uploads/a.png"},"attributes":{"bold":true}},{"insert":"\n"}]`,
			want: `<p><img src="/uploads/a.png"></p>`,
		},
		{
			name: "video embed",
			ops:  `[{"insert":{"video":"https://www.youtube.com/embed/x"}},{"insert":"\n"}]`,
			want: `<p><iframe class="ql-video" frameborder="0" allowfullscreen="true" src="https://www.youtube.com/embed/x"></iframe></p>`,
		},
		{
			name: "script image dropped",
			ops:  `[{"insert":{"image":"javascript:alert(1)"}},{"insert":"\n"}]`,
			want: "<p><br></p>",
		},
		{
			name: "invalid ops skipped",
			ops:  `[{"insert":5},{"retain":3},{"insert":{"formula":"x"}},{"insert":"ok\n"}]`,
			want: "<p>ok</p>",
		},
		{
			name: "malformed attributes treated as empty",
			ops:  `[{"insert":"ok","attributes":"bold"},{"insert":"\n","attributes":[1]}]`,
			want: "<p>ok</p>",
		},
		{
			name: "empty document",
			ops:  `[]`,
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := Parse([]byte(tt.ops))
			if err != nil {
				t.Fatalf("Parse: %v", err)
			}
			if got := ToHTML(doc); got != tt.want {
				t.Errorf("ToHTML() =\n  %s\nwant\n  %s", got, tt.want)
			}
		})
	}
}

func TestToHTML_NoItemLeftOpenAcrossBlocks(t *testing.T) {
	doc := NewBuilder().
		Text("one", Attributes{}).Line(Attributes{List: ListBullet}).
		Text("two", Attributes{}).Line(Attributes{List: ListBullet, Indent: 1}).
		Text("quote", Attributes{}).Line(Attributes{Blockquote: true}).
		Text("three", Attributes{}).Line(Attributes{List: ListOrdered}).
		Text("code", Attributes{}).Line(Attributes{CodeBlock: true}).
		Document()

	got := ToHTML(doc)
	if strings.Count(got, "<li>") != strings.Count(got, "</li>") {
		t.Errorf("unbalanced <li> in %s", got)
	}
	if strings.Count(got, "<ul>") != strings.Count(got, "</ul>") || strings.Count(got, "<ol>") != strings.Count(got, "</ol>") {
		t.Errorf("unbalanced list wrappers in %s", got)
	}
	want := "<ul><li>one<ul><li>two</li></ul></li></ul><blockquote><p>quote</p></blockquote><ol><li>three</li></ol><pre><code>code</code></pre>"
	if got != want {
		t.Errorf("ToHTML() =\n  %s\nwant\n  %s", got, want)
	}
}

func TestToHTML_Deterministic(t *testing.T) {
	doc := NewBuilder().
		Text("a", Attributes{Italic: true, Underline: true, Strike: true}).
		Text("b", Attributes{Code: true, Link: "https://clinic.example"}).
		Line(Attributes{Header: 3}).
		Document()

	first := ToHTML(doc)
	for i := 0; i < 3; i++ {
		if got := ToHTML(doc); got != first {
			t.Fatalf("run %d differs: %s vs %s", i, got, first)
		}
	}
	want := `<h3><s><u><em>a</em></u></s><a href="https://clinic.example" target="_blank" rel="noopener noreferrer nofollow"><code>b</code></a></h3>`
	if first != want {
		t.Errorf("ToHTML() = %s, want %s", first, want)
	}
}
