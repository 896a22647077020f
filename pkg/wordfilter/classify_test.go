package wordfilter

import (
	"encoding/json"
	"testing"
)

func TestDetect(t *testing.T) {
	tests := []struct {
		name   string
		signal Signal
		html   string
		want   bool
	}{
		{"namespace", SignalNamespace, `<html xmlns:o="urn:schemas-microsoft-com:office:office">`, true},
		{"namespace single quotes", SignalNamespace, `<html xmlns:w='urn:schemas-microsoft-com:office:word'>`, true},
		{"namespace in text", SignalNamespace, `<p>xmlns:o=urn:schemas-microsoft-com:office</p>`, false},
		{"other namespace", SignalNamespace, `<svg xmlns:xlink="http://www.w3.org/1999/xlink">`, false},

		{"mso style attribute", SignalMsoStyle, `<p style="margin:0;mso-line-height-rule:exactly">x</p>`, true},
		{"mso style single quotes", SignalMsoStyle, `<p style='mso-list:l0 level1 lfo1'>x</p>`, true},
		{"mso style block", SignalMsoStyle, "<style><!--\np.MsoNormal {mso-style-parent:\"\";}\n--></style>", true},
		{"mso after quoted font", SignalMsoStyle, `<span style='font-family:"Calibri",sans-serif;mso-fareast-language:EN-US'>x</span>`, true},
		{"mso after single-quoted font", SignalMsoStyle, `<span style="font-family:'Arial';mso-bidi-font-weight:bold">x</span>`, true},
		{"mso in a later attribute", SignalMsoStyle, `<span style='color:red' title="mso-list:l0">x</span>`, false},
		{"mso in text", SignalMsoStyle, `<p>set mso-list: l0 in the dialog</p>`, false},
		{"plain style", SignalMsoStyle, `<p style="color:red">x</p>`, false},

		{"downlevel-hidden conditional", SignalConditional, `<!--[if gte mso 9]><xml></xml><![endif]-->`, true},
		{"downlevel-revealed conditional", SignalConditional, `<p><![if !supportLists]>1.<![endif]>x</p>`, true},
		{"ordinary comment", SignalConditional, `<!-- note --><p>x</p>`, false},

		{"word online", SignalOfficeOnline, `<div class="OutlineElement Ltr">x</div>`, true},
		{"word online in text", SignalOfficeOnline, `<p>class OutlineElement</p>`, false},

		{"generator meta", SignalGenerator, `<meta name=Generator content="Microsoft Word 15">`, true},
		{"progid meta", SignalGenerator, `<meta name=ProgId content=Word.Document>`, true},
		{"other generator", SignalGenerator, `<meta name="generator" content="Hugo 0.120">`, false},

		{"mso class", SignalMsoClass, `<p class=MsoNormal>x</p>`, true},
		{"mso class among others", SignalMsoClass, `<p class="lead MsoListParagraph">x</p>`, true},
		{"class mentioning mso", SignalMsoClass, `<p class="msonormal-like">x</p>`, true},
		{"plain class", SignalMsoClass, `<p class="lead">x</p>`, false},

		{"vendor paragraph", SignalVendorTag, `<p>x<o:p></o:p></p>`, true},
		{"vendor smart tag", SignalVendorTag, `<st1:place w:st="on">Leeds</st1:place>`, true},
		{"no vendor tag", SignalVendorTag, `<p>ratio 3:1</p>`, false},

		{"google docs", SignalGoogleDocs, `<b style="font-weight:normal;" id="docs-internal-guid-abc">x</b>`, true},
		{"google docs in text", SignalGoogleDocs, `<p>docs-internal-guid-abc</p>`, false},

		{"office font", SignalFontFace, `<font face="Times New Roman">x</font>`, true},
		{"panose in style block", SignalFontFace, "<style>@font-face {font-family:Calibri; panose-1:2 15 5 2;}</style>", true},
		{"web font", SignalFontFace, `<font face="Verdana">x</font>`, false},

		{"out of range signal", Signal(99), `<p class=MsoNormal>x</p>`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Detect(tt.html, tt.signal); got != tt.want {
				t.Errorf("Detect(%s) = %v, want %v", tt.signal, got, tt.want)
			}
		})
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name   string
		html   string
		want   bool
		strong bool
		score  float64
	}{
		{
			name:   "conditional block with mso styles",
			html:   `<!--[if gte mso 9]><xml><w:WordDocument></w:WordDocument></xml><![endif]--><p style="mso-margin-top-alt:auto">x</p>`,
			want:   true,
			strong: true,
			score:  1,
		},
		{
			name: "plain paragraph",
			html: `<p>Hello</p>`,
			want: false,
		},
		{
			name: "empty string",
			html: "",
			want: false,
		},
		{
			name: "text without markup",
			html: "mso-list: l0 level1 lfo1",
			want: false,
		},
		{
			name:  "weak signals reach the threshold",
			html:  `<p class=MsoNormal>x<o:p></o:p></p>`,
			want:  true,
			score: 0.9,
		},
		{
			name:  "class plus office font meets the threshold exactly",
			html:  `<p class=MsoNormal><font face="Calibri">x</font></p>`,
			want:  true,
			score: 0.8,
		},
		{
			name:  "single weak signal",
			html:  `<p class=MsoNormal>x</p>`,
			want:  false,
			score: 0.5,
		},
		{
			name:  "google docs wrapper",
			html:  `<b id="docs-internal-guid-1234">x</b>`,
			want:  true,
			score: 0.8,
		},
		{
			name:   "quoted font before mso declaration",
			html:   `<p class=MsoNormal><span style='font-size:11.0pt;font-family:"Calibri",sans-serif;mso-fareast-language:EN-US'>Hello</span></p>`,
			want:   true,
			strong: true,
			score:  0.5,
		},
		{
			name:   "quoted font without class",
			html:   `<p><span style='font-family:"Arial";mso-bidi-font-weight:bold'>x</span></p>`,
			want:   true,
			strong: true,
		},
		{
			name:   "single quote inside double-quoted style",
			html:   `<p style="font-family:'Times New Roman';mso-margin-top-alt:auto">x</p>`,
			want:   true,
			strong: true,
		},
		{
			name: "escaped word markup",
			html: `<p>&lt;p class=&#34;MsoNormal&#34; style=&#34;mso-list:l0&#34;&gt;</p>`,
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := Classify(tt.html)
			if v.IsWord != tt.want {
				t.Errorf("IsWord = %v, want %v (signals %v)", v.IsWord, tt.want, v.Signals)
			}
			if v.Strong != tt.strong {
				t.Errorf("Strong = %v, want %v", v.Strong, tt.strong)
			}
			if v.Score != tt.score {
				t.Errorf("Score = %v, want %v", v.Score, tt.score)
			}
			if IsWordContent(tt.html) != tt.want {
				t.Errorf("IsWordContent disagrees with Classify")
			}
		})
	}
}

func TestClassifyThreshold(t *testing.T) {
	html := `<p class=MsoNormal>x</p>`

	cfg := DefaultConfig()
	cfg.ClassifierThreshold = 0.5
	if !New(cfg).IsWordContent(html) {
		t.Error("expected a lowered threshold to accept a single class signal")
	}

	cfg.ClassifierThreshold = 2
	if New(cfg).IsWordContent(`<p class=MsoNormal>x<o:p></o:p></p>`) {
		t.Error("expected a raised threshold to reject weak signals")
	}
	if !New(cfg).IsWordContent(`<p style="mso-list:l0 level1 lfo1">x</p>`) {
		t.Error("expected a strong signal to ignore the threshold")
	}
}

func TestSignal(t *testing.T) {
	strong := []Signal{SignalNamespace, SignalMsoStyle, SignalConditional, SignalOfficeOnline}
	for _, s := range strong {
		if !s.Strong() || s.Weight() != 0 {
			t.Errorf("%s: expected strong signal with no weight", s)
		}
	}
	weak := []Signal{SignalGenerator, SignalMsoClass, SignalVendorTag, SignalGoogleDocs, SignalFontFace}
	for _, s := range weak {
		if s.Strong() || s.Weight() <= 0 {
			t.Errorf("%s: expected weak signal with positive weight", s)
		}
	}

	if Signal(-1).String() != "unknown" || Signal(-1).Strong() || Signal(-1).Weight() != 0 {
		t.Error("expected invalid signal to be unknown and inert")
	}

	data, err := json.Marshal(Verdict{Signals: []Signal{SignalMsoStyle, SignalMsoClass}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := `{"signals":["mso-style","mso-class"],"score":0,"strong":false,"is_word":false}`
	if string(data) != want {
		t.Errorf("got %s, want %s", data, want)
	}
}

func TestVerdictHas(t *testing.T) {
	v := Classify(`<p class=MsoNormal style="mso-x:1">x</p>`)
	if !v.Has(SignalMsoStyle) || !v.Has(SignalMsoClass) {
		t.Errorf("expected mso-style and mso-class, got %v", v.Signals)
	}
	if v.Has(SignalGoogleDocs) {
		t.Error("did not expect google-docs")
	}
}
