package wordfilter

import (
	"strings"
	"testing"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

func parseBody(t *testing.T, s string) *html.Node {
	t.Helper()
	root := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(s), root)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	for _, n := range nodes {
		root.AppendChild(n)
	}
	return root
}

func TestRenderChildren(t *testing.T) {
	tests := []struct {
		name     string
		html     string
		maxDepth int
		want     string
	}{
		{
			name:     "attributes sorted and quoted",
			html:     `<table><tr><td rowspan=2 align=right colspan=3>x</td></tr></table>`,
			maxDepth: 10,
			want:     `<table><tbody><tr><td align="right" colspan="3" rowspan="2">x</td></tr></tbody></table>`,
		},
		{
			name:     "text escaped",
			html:     `<p>a &amp; b &lt;c&gt; "q" 'r'</p>`,
			maxDepth: 10,
			want:     `<p>a &amp; b &lt;c&gt; &#34;q&#34; &#39;r&#39;</p>`,
		},
		{
			name:     "nbsp written as entity",
			html:     "<p>&nbsp;a\u00a0b</p>",
			maxDepth: 10,
			want:     "<p>&nbsp;a&nbsp;b</p>",
		},
		{
			name:     "attribute values escaped",
			html:     `<a title="say &quot;hi&quot; &amp; go" href="/x?a=1&amp;b=2">l</a>`,
			maxDepth: 10,
			want:     `<a href="/x?a=1&amp;b=2" title="say &#34;hi&#34; &amp; go">l</a>`,
		},
		{
			name:     "void elements self-closed",
			html:     `<p>a<br>b</p><hr>`,
			maxDepth: 10,
			want:     `<p>a<br />b</p><hr />`,
		},
		{
			name:     "comments dropped",
			html:     `<p>a<!-- c -->b</p>`,
			maxDepth: 10,
			want:     `<p>ab</p>`,
		},
		{
			name:     "leading newline in pre survives",
			html:     "<pre>\n\nx</pre>",
			maxDepth: 10,
			want:     "<pre>\n\nx</pre>",
		},
		{
			name:     "below max depth only text",
			html:     `<p><strong><em>deep</em></strong></p>`,
			maxDepth: 2,
			want:     `<p><strong>deep</strong></p>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := renderChildren(parseBody(t, tt.html), tt.maxDepth)
			if got != tt.want {
				t.Errorf("got  %q\nwant %q", got, tt.want)
			}
		})
	}
}

func TestRenderRoundTrip(t *testing.T) {
	inputs := []string{
		`<p align="center">a &amp; b</p>`,
		"<pre>\n  indented\n</pre>",
		`<table border="1"><tbody><tr><td colspan="2">x</td></tr></tbody></table>`,
		`<p><img alt="a &#34;b&#34;" src="https://example.com/a.png" /></p>`,
	}
	for _, in := range inputs {
		once := renderChildren(parseBody(t, in), DefaultMaxDepth)
		twice := renderChildren(parseBody(t, once), DefaultMaxDepth)
		if once != twice {
			t.Errorf("round trip changed output\nonce  %q\ntwice %q", once, twice)
		}
	}
}
