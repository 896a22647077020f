package wordfilter

import (
	"testing"
)

func TestStripJunk(t *testing.T) {
	localImages := DefaultConfig()
	localImages.DropLocalImages = false

	tests := []struct {
		name   string
		html   string
		config *Config
		want   string
	}{
		{
			name: "comments removed",
			html: `<p>a<!-- note -->b</p><!--EndFragment-->`,
			want: "<p>ab</p>",
		},
		{
			name: "empty o:p removed",
			html: `<p>x<o:p></o:p></p>`,
			want: "<p>x</p>",
		},
		{
			name: "nbsp o:p unwrapped",
			html: `<p>x</p><p><o:p>&nbsp;</o:p></p>`,
			want: "<p>x</p><p>&nbsp;</p>",
		},
		{
			name: "content control unwrapped",
			html: `<w:Sdt><p>inside</p></w:Sdt>`,
			want: "<p>inside</p>",
		},
		{
			name: "smart tag unwrapped",
			html: `<p>in <st1:place w:st="on">Leeds</st1:place></p>`,
			want: "<p>in Leeds</p>",
		},
		{
			name: "vml container removed",
			html: `<v:shapetype id="x" coordsize="21600,21600"><v:stroke joinstyle="miter"></v:stroke><v:path gradientshapeok="t"></v:path></v:shapetype><p>a</p>`,
			want: "<p>a</p>",
		},
		{
			name: "style and script in body removed",
			html: `<style>p{color:red}</style><p>a</p><script>x()</script>`,
			want: "<p>a</p>",
		},
		{
			name: "line break fallback removed",
			html: `<p>a<![if !supportLineBreakNewLine]><br><![endif]>b</p>`,
			want: "<p>ab</p>",
		},
		{
			name: "hidden attribute removed",
			html: `<p hidden>h</p><p>v</p>`,
			want: "<p>v</p>",
		},
		{
			name: "bookmark anchor unwrapped",
			html: `<p><a name="_Toc1">Heading</a></p>`,
			want: "<p>Heading</p>",
		},
		{
			name: "fragment link kept",
			html: `<p><a href="#_Toc1" onclick="go()">Jump</a></p>`,
			want: `<p><a href="#_Toc1">Jump</a></p>`,
		},
		{
			name: "empty link unwrapped",
			html: `<p><a href="">x</a><a href="a b">y</a></p>`,
			want: "<p>xy</p>",
		},
		{
			name: "inline png kept",
			html: `<p><img src="data:image/png;base64,iVBORw0KGgo=" alt="dot"></p>`,
			want: `<p><img alt="dot" src="data:image/png;base64,iVBORw0KGgo=" /></p>`,
		},
		{
			name: "corrupt inline image dropped",
			html: `<p>a<img src="data:image/png;base64,!!!"></p>`,
			want: "<p>a</p>",
		},
		{
			name: "svg data uri dropped",
			html: `<p>a<img src="data:image/svg+xml;base64,PHN2Zz4="></p>`,
			want: "<p>a</p>",
		},
		{
			name: "local image dropped by default",
			html: `<p>a<img src="clip_image001.png"></p>`,
			want: "<p>a</p>",
		},
		{
			name:   "local image kept when allowed",
			html:   `<p><img src="clip_image001.png" width=120 height="x"></p>`,
			config: localImages,
			want:   `<p><img src="clip_image001.png" width="120" /></p>`,
		},
		{
			name: "remote image kept",
			html: `<p><img src="https://example.com/a.png" v:shapes="_x0000_i1025" title="t"></p>`,
			want: `<p><img src="https://example.com/a.png" title="t" /></p>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := New(tt.config).Normalize(tt.html)
			if got != tt.want {
				t.Errorf("got  %s\nwant %s", got, tt.want)
			}
		})
	}
}

func TestSafeLink(t *testing.T) {
	tests := []struct {
		href string
		want bool
	}{
		{"https://example.com", true},
		{"HTTP://example.com", true},
		{"mailto:a@example.com", true},
		{"tel:+441234", true},
		{"/relative/path", true},
		{"#anchor", true},
		{"javascript:alert(1)", false},
		{"vbscript:x", false},
		{"data:text/html,x", false},
		{"", false},
		{"a b", false},
		{"java\tscript:x", false},
	}
	for _, tt := range tests {
		t.Run(tt.href, func(t *testing.T) {
			if got := safeLink(tt.href); got != tt.want {
				t.Errorf("safeLink(%q) = %v, want %v", tt.href, got, tt.want)
			}
		})
	}
}

func TestJunkStats(t *testing.T) {
	result := New(nil).NormalizeWithStats(`<p>a<!-- x --><!-- y --><o:p></o:p></p><script></script>`)
	if result.Stats.CommentsRemoved != 2 {
		t.Errorf("expected 2 comments removed, got %d", result.Stats.CommentsRemoved)
	}
	if result.Stats.ElementsRemoved["script"] != 1 || result.Stats.ElementsRemoved["o:p"] != 1 {
		t.Errorf("unexpected removals %v", result.Stats.ElementsRemoved)
	}
}
