package wordfilter

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/aymerick/douceur/css"
	"github.com/aymerick/douceur/parser"
	"golang.org/x/net/html"
)

// wrapOrder fixes the nesting order of generated formatting elements,
// outermost first, so repeated runs produce the same markup.
var wrapOrder = [...]string{"strong", "em", "u", "s", "sup", "sub"}

// wrapSet is a bit set over wrapOrder.
type wrapSet uint8

// underBoldBlock marks a subtree inside a heading or header cell.
const underBoldBlock wrapSet = 1 << 7

func wrapBit(tag string) wrapSet {
	for i, t := range wrapOrder {
		if t == tag {
			return 1 << i
		}
	}
	return 0
}

var tagRenames = map[string]string{
	"b":      "strong",
	"i":      "em",
	"strike": "s",
	"del":    "s",
	"ins":    "u",
}

var alignValues = map[string]bool{
	"center": true, "right": true, "justify": true,
}

var alignTags = map[string]bool{
	"p": true, "h1": true, "h2": true, "h3": true, "h4": true, "h5": true,
	"h6": true, "td": true, "th": true, "div": true,
}

// strongSuppressors already render their text bold.
var strongSuppressors = map[string]bool{
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true, "th": true,
}

var msoListValue = regexp.MustCompile(`(?i)\bl(\d+)\s+level(\d+)\s+lfo(\d+)`)

// resets cancel the formatting of the element carrying them, as on the
// <b style="font-weight:normal"> wrapper around a Google Docs paste.
var resets = map[string]struct {
	tag   string
	value *regexp.Regexp
}{
	"font-weight": {"strong", regexp.MustCompile(`(?i)^(normal|lighter|[1-4]00)$`)},
	"font-style":  {"em", regexp.MustCompile(`(?i)^normal$`)},
}

// mapStyles translates inline styles, classes and presentational tags into
// semantic markup, recording list marks and table decoration for the later
// passes.
func (r *run) mapStyles(root *html.Node) {
	for _, c := range children(root) {
		if c.Type == html.ElementNode {
			r.styleWalk(c, 1, 0, 0)
		}
	}
}

// styleWalk processes n and its subtree. above holds formatting already
// guaranteed by ancestors; pending holds formatting an ancestor could not
// apply itself because it has block children.
func (r *run) styleWalk(n *html.Node, depth int, above, pending wrapSet) {
	if r.tooDeep(depth) {
		return
	}

	own, removed := r.styleElement(n)
	if removed {
		return
	}

	want := (own | pending) &^ above &^ wrapBit(n.Data) &^ underBoldBlock
	if strongSuppressors[n.Data] || above&underBoldBlock != 0 {
		want &^= wrapBit("strong")
	}
	if only := soleElementChild(n); only != nil {
		want &^= wrapBit(canonicalTag(only.Data))
	}
	if voidTags[n.Data] {
		want = 0
	}

	inner := above | wrapBit(n.Data)
	if strongSuppressors[n.Data] {
		inner |= underBoldBlock
	}
	var down wrapSet
	if isPhrasingOnly(n) {
		inner |= want
	} else {
		down = want
		want = 0
	}

	for _, c := range children(n) {
		if c.Type == html.ElementNode {
			r.styleWalk(c, depth+1, inner, down)
		}
	}

	if want != 0 {
		r.applyWraps(n, want)
	}
}

// canonicalTag is the tag an element will have after renaming.
func canonicalTag(tag string) string {
	if to, ok := tagRenames[tag]; ok {
		return to
	}
	return tag
}

// applyWraps moves n's children into nested formatting elements.
func (r *run) applyWraps(n *html.Node, set wrapSet) {
	target := n
	for i, tag := range wrapOrder {
		if set&(1<<i) == 0 {
			continue
		}
		w := newElement(tag)
		moveChildren(w, target)
		target.AppendChild(w)
		target = w
	}
}

// styleElement rewrites one element's tag, class and style attributes. It
// returns the formatting the element asks for, or removed when a hide rule
// deleted it.
func (r *run) styleElement(n *html.Node) (wraps wrapSet, removed bool) {
	if to, ok := tagRenames[n.Data]; ok {
		rename(n, to)
	}

	var retained []string
	if n.Data == "font" {
		if decl := r.fontToSpan(n); decl != "" {
			retained = append(retained, decl)
		}
	}

	if v, ok := getAttr(n, "align"); ok {
		v = strings.ToLower(strings.TrimSpace(v))
		if alignValues[v] && alignTags[n.Data] {
			setAttr(n, "align", v)
		} else {
			removeAttr(n, "align")
			r.result.Stats.AttributesRemoved++
		}
	}

	hint := r.classHint(n)

	var (
		mark     *listMark
		indentPt float64
	)
	if style, ok := getAttr(n, "style"); ok {
		removeAttr(n, "style")

		decls, err := parseStyle(style)
		if err != nil {
			r.result.Stats.StylesDropped++
			decls = nil
		}

		for _, d := range decls {
			prop := strings.ToLower(strings.TrimSpace(d.Property))
			val := strings.TrimSpace(d.Value)

			if rs, ok := resets[prop]; ok && n.Data == rs.tag && rs.value.MatchString(val) {
				rename(n, "span")
				r.result.Stats.StylesMapped++
				continue
			}

			matched := r.rules.MatchStyle(prop, val)
			if len(matched) == 0 {
				r.result.Stats.StylesDropped++
				continue
			}
			r.result.Stats.StylesMapped++

			for _, rule := range matched {
				switch rule.Action {
				case ActionWrap:
					wraps |= wrapBit(rule.Tag)
				case ActionAlign:
					if alignTags[n.Data] {
						setAttr(n, "align", strings.ToLower(val))
					}
				case ActionList:
					if strings.EqualFold(val, "ignore") {
						r.glyphs[n] = true
					} else if m := msoListValue.FindStringSubmatch(val); m != nil {
						mark = &listMark{
							level: clampLevel(m[2]),
							id:    "l" + m[1] + "-lfo" + m[3],
						}
					}
				case ActionIndent:
					if pt, ok := toPoints(val); ok {
						indentPt = pt
					}
				case ActionHide:
					r.result.Stats.HiddenElementRemovals++
					r.result.Stats.RecordRemoval(n.Data)
					remove(n)
					return 0, true
				case ActionDecor:
					r.decorated[n] = true
				case ActionPlaceholder:
					r.placeholders[n] = true
				case ActionRetain:
					if r.cfg.RetainStyles {
						retained = append(retained, prop+": "+strings.ToLower(val))
					}
				}
			}
		}
	}

	if r.cfg.RetainStyles && len(retained) > 0 {
		setAttr(n, "style", strings.Join(retained, "; "))
	}

	if n.Data == "p" || n.Data == "div" {
		switch {
		case mark != nil:
			if hint != nil {
				mark.hint = hint.kind
			}
			r.marks[n] = mark
		case hint != nil:
			level := hint.level
			if !hint.explicit && indentPt > 0 {
				level = indentLevel(indentPt)
			}
			r.marks[n] = &listMark{level: level, hint: hint.kind}
		}
	}

	return wraps, false
}

type classHint struct {
	kind     listKind
	level    int
	explicit bool
}

// classHint applies class rules and removes the class attribute. It returns
// the list hint carried by a list class, if any.
func (r *run) classHint(n *html.Node) *classHint {
	cls, ok := getAttr(n, "class")
	if !ok {
		return nil
	}
	removeAttr(n, "class")
	r.result.Stats.AttributesRemoved++

	var hint *classHint
	for _, tok := range strings.Fields(cls) {
		rule, ok := r.rules.MatchClass(tok)
		if !ok {
			continue
		}
		switch rule.Action {
		case ActionRename:
			if r.cfg.MapClassRoles && (n.Data == "p" || n.Data == "div") {
				rename(n, rule.Tag)
				r.result.Stats.StylesMapped++
			}
		case ActionList:
			level, explicit := classLevel(tok)
			hint = &classHint{kind: parseKind(rule.Kind), level: level, explicit: explicit}
		}
	}
	return hint
}

// fontToSpan turns a font element into a span. The colour is returned as a
// declaration for retention; face and size are dropped.
func (r *run) fontToSpan(n *html.Node) string {
	rename(n, "span")
	var decl string
	if color, ok := getAttr(n, "color"); ok {
		color = strings.ToLower(strings.TrimSpace(color))
		for _, rule := range r.rules.MatchStyle("color", color) {
			if rule.Action == ActionRetain {
				decl = "color: " + color
				break
			}
		}
	}
	for _, key := range []string{"color", "face", "size"} {
		if removeAttr(n, key) {
			r.result.Stats.AttributesRemoved++
		}
	}
	return decl
}

func clampLevel(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 1
	}
	if n > 9 {
		return 9
	}
	return n
}

// pointsPer converts CSS length units to points.
var pointsPer = map[string]float64{
	"pt": 1,
	"in": 72,
	"cm": 28.3465,
	"mm": 2.83465,
	"pc": 12,
	"px": 0.75,
}

var lengthValue = regexp.MustCompile(`(?i)^(-?[0-9]*\.?[0-9]+)(pt|in|cm|mm|pc|px)$`)

func toPoints(val string) (float64, bool) {
	m := lengthValue.FindStringSubmatch(strings.TrimSpace(val))
	if m == nil {
		return 0, false
	}
	f, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, false
	}
	return f * pointsPer[strings.ToLower(m[2])], true
}

// indentLevel maps a left margin to a list level using Word's default
// half-inch step.
func indentLevel(pt float64) int {
	level := int(pt/36 + 0.5)
	if level < 1 {
		return 1
	}
	if level > 9 {
		return 9
	}
	return level
}

// parseStyle parses an inline style attribute. douceur drops the value of a
// final declaration that has no terminating semicolon, which is how Word
// writes every style, so one is added when missing.
func parseStyle(style string) ([]*css.Declaration, error) {
	style = strings.TrimSpace(style)
	if style == "" {
		return nil, nil
	}
	if !strings.HasSuffix(style, ";") {
		style += ";"
	}
	return parser.ParseDeclarations(style)
}
