package wordfilter

import (
	"strings"
	"testing"
)

func TestDefaultRules(t *testing.T) {
	rs := DefaultRules()
	if len(rs.Styles) == 0 || len(rs.Classes) == 0 {
		t.Fatal("expected built-in style and class rules")
	}
	if DefaultRules() != rs {
		t.Error("expected DefaultRules to return a shared instance")
	}
}

func TestMatchStyle(t *testing.T) {
	tests := []struct {
		property string
		value    string
		actions  []Action
		tag      string
	}{
		{"font-weight", "bold", []Action{ActionWrap}, "strong"},
		{"font-weight", "700", []Action{ActionWrap}, "strong"},
		{"font-weight", "normal", nil, ""},
		{"FONT-STYLE", "Italic", []Action{ActionWrap}, "em"},
		{"text-decoration", "underline line-through", []Action{ActionWrap, ActionWrap}, "u"},
		{"text-underline", "single", []Action{ActionWrap}, "u"},
		{"vertical-align", "super", []Action{ActionWrap}, "sup"},
		{"vertical-align", "sub", []Action{ActionWrap}, "sub"},
		{"vertical-align", "baseline", nil, ""},
		{"text-align", "center", []Action{ActionAlign}, ""},
		{"text-align", "left", nil, ""},
		{"mso-list", "l0 level1 lfo1", []Action{ActionList}, ""},
		{"mso-list", "Ignore", []Action{ActionList}, ""},
		{"margin-left", "36.0pt", []Action{ActionIndent}, ""},
		{"display", "none", []Action{ActionHide}, ""},
		{"mso-hide", "all", []Action{ActionHide}, ""},
		{"border", "solid windowtext 1.0pt", []Action{ActionDecor}, ""},
		{"border-top", "none", nil, ""},
		{"mso-border-alt", "solid windowtext .5pt", []Action{ActionDecor}, ""},
		{"background", "yellow", []Action{ActionDecor}, ""},
		{"background", "white", nil, ""},
		{"background-color", "#FFFF00", []Action{ActionDecor, ActionRetain}, ""},
		{"mso-cell-special", "placeholder", []Action{ActionPlaceholder}, ""},
		{"color", "#C00000", []Action{ActionRetain}, ""},
		{"color", "expression(alert(1))", nil, ""},
		{"font-size", "11.0pt", []Action{ActionRetain}, ""},
		{"font-family", "Calibri", nil, ""},
		{"mso-bidi-font-weight", "normal", nil, ""},
	}

	rs := DefaultRules()
	for _, tt := range tests {
		t.Run(tt.property+":"+tt.value, func(t *testing.T) {
			got := rs.MatchStyle(tt.property, tt.value)
			if len(got) != len(tt.actions) {
				t.Fatalf("expected %d rules, got %d: %+v", len(tt.actions), len(got), got)
			}
			for i, a := range tt.actions {
				if got[i].Action != a {
					t.Errorf("rule %d: expected action %s, got %s", i, a, got[i].Action)
				}
			}
			if tt.tag != "" && got[0].Tag != tt.tag {
				t.Errorf("expected tag %s, got %s", tt.tag, got[0].Tag)
			}
		})
	}
}

func TestMatchClass(t *testing.T) {
	tests := []struct {
		class  string
		ok     bool
		action Action
		tag    string
		kind   string
	}{
		{"MsoTitle", true, ActionRename, "h1", ""},
		{"MsoSubtitle", true, ActionRename, "h2", ""},
		{"MsoQuote", true, ActionRename, "blockquote", ""},
		{"MsoIntenseQuote", true, ActionRename, "blockquote", ""},
		{"MsoListBullet2", true, ActionList, "", "unordered"},
		{"MsoListNumber", true, ActionList, "", "ordered"},
		{"MsoListParagraphCxSpFirst", true, ActionList, "", ""},
		{"MsoListParagraph", true, ActionList, "", ""},
		{"MsoNormal", false, "", "", ""},
		{"MsoTitleChar", false, "", "", ""},
	}

	rs := DefaultRules()
	for _, tt := range tests {
		t.Run(tt.class, func(t *testing.T) {
			rule, ok := rs.MatchClass(tt.class)
			if ok != tt.ok {
				t.Fatalf("expected ok=%v, got %v", tt.ok, ok)
			}
			if !ok {
				return
			}
			if rule.Action != tt.action || rule.Tag != tt.tag || rule.Kind != tt.kind {
				t.Errorf("got %+v", rule)
			}
		})
	}
}

func TestClassLevel(t *testing.T) {
	tests := []struct {
		class    string
		level    int
		explicit bool
	}{
		{"MsoListBullet", 1, false},
		{"MsoListBullet2", 2, true},
		{"MsoListNumber5", 5, true},
		{"MsoListBullet12", 1, false},
		{"MsoListParagraphCxSpFirst", 1, false},
	}

	for _, tt := range tests {
		t.Run(tt.class, func(t *testing.T) {
			level, explicit := classLevel(tt.class)
			if level != tt.level || explicit != tt.explicit {
				t.Errorf("classLevel(%q) = %d, %v; want %d, %v", tt.class, level, explicit, tt.level, tt.explicit)
			}
		})
	}
}

func TestLoadRules(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name: "valid rules",
			yaml: `
styles:
  - property: font-variant
    match: '^small-caps$'
    action: wrap
    tag: strong
classes:
  - match: '^Heading1Custom$'
    action: rename
    tag: h1
`,
		},
		{
			name:    "malformed yaml",
			yaml:    "styles: [",
			wantErr: "failed to parse rules",
		},
		{
			name:    "unknown action",
			yaml:    "styles:\n  - property: color\n    match: red\n    action: paint\n",
			wantErr: "invalid rules",
		},
		{
			name:    "wrap without tag",
			yaml:    "styles:\n  - property: color\n    match: red\n    action: wrap\n",
			wantErr: "wrap needs a tag",
		},
		{
			name:    "rename without tag",
			yaml:    "classes:\n  - match: '^X$'\n    action: rename\n",
			wantErr: "rename needs a tag",
		},
		{
			name:    "disallowed wrap tag",
			yaml:    "styles:\n  - property: color\n    match: red\n    action: wrap\n    tag: script\n",
			wantErr: "invalid rules",
		},
		{
			name:    "bad pattern",
			yaml:    "styles:\n  - property: color\n    match: '(['\n    action: retain\n",
			wantErr: "style rule 0",
		},
		{
			name:    "missing match",
			yaml:    "styles:\n  - property: color\n    action: retain\n",
			wantErr: "invalid rules",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rs, err := LoadRules(strings.NewReader(tt.yaml))
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if len(rs.Styles) != 1 || len(rs.Classes) != 1 {
					t.Errorf("unexpected rule counts %d/%d", len(rs.Styles), len(rs.Classes))
				}
				return
			}
			if err == nil {
				t.Fatalf("expected error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestLoadRulesFileMissing(t *testing.T) {
	if _, err := LoadRulesFile("testdata/does-not-exist.yaml"); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestExtend(t *testing.T) {
	extra, err := LoadRules(strings.NewReader(`
classes:
  - match: '^MsoTitle$'
    action: rename
    tag: h2
`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	base := DefaultRules()
	rs := base.Extend(extra)

	rule, ok := rs.MatchClass("MsoTitle")
	if !ok || rule.Tag != "h2" {
		t.Errorf("expected extra rule to take precedence, got %+v", rule)
	}
	if len(rs.Styles) != len(base.Styles) {
		t.Errorf("expected built-in styles to be kept")
	}
	if rule, _ := base.MatchClass("MsoTitle"); rule.Tag != "h1" {
		t.Error("expected Extend not to modify the receiver")
	}
	if base.Extend(nil) != base {
		t.Error("expected Extend(nil) to return the receiver")
	}

	cfg := DefaultConfig()
	cfg.Rules = rs
	if got := New(cfg).Normalize(`<p class=MsoTitle>T</p>`); got != "<h2>T</h2>" {
		t.Errorf("expected extended rules in use, got %q", got)
	}
}
