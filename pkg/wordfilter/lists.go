package wordfilter

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/net/html"
)

type listKind int

const (
	kindUnknown listKind = iota
	kindUnordered
	kindOrdered
)

func parseKind(s string) listKind {
	switch s {
	case "ordered":
		return kindOrdered
	case "unordered":
		return kindUnordered
	}
	return kindUnknown
}

func (k listKind) tag() string {
	if k == kindOrdered {
		return "ol"
	}
	return "ul"
}

// listMark is the list signal the style pass found on a paragraph.
type listMark struct {
	level int
	// id identifies the Word list instance (definition and override); empty
	// when the mark came from a class name only.
	id string
	// hint is the kind suggested by the paragraph class.
	hint listKind
}

// listFrame is one open list level.
type listFrame struct {
	level int
	kind  listKind
	id    string
	list  *html.Node
	item  *html.Node
}

// listContext is the state machine for one container scan. An empty frame
// stack is the Outside state; otherwise the top frame is InList(level, kind).
type listContext struct {
	frames []listFrame
	// lastKind remembers the kind of the previous item per open level for
	// ambiguous glyphs.
	lastKind map[int]listKind
}

func newListContext() *listContext {
	return &listContext{lastKind: make(map[int]listKind)}
}

func (lc *listContext) outside() bool { return len(lc.frames) == 0 }

func (lc *listContext) top() *listFrame { return &lc.frames[len(lc.frames)-1] }

// closeAll pops every level and returns to Outside.
func (lc *listContext) closeAll() {
	lc.frames = lc.frames[:0]
	clear(lc.lastKind)
}

// popTo closes every level deeper than level, keeping the root, and forgets
// the item kinds seen below level so a later sublist starts fresh.
func (lc *listContext) popTo(level int) {
	for len(lc.frames) > 1 && lc.top().level > level {
		lc.frames = lc.frames[:len(lc.frames)-1]
	}
	for l := range lc.lastKind {
		if l > level {
			delete(lc.lastKind, l)
		}
	}
}

// buildLists turns runs of marked paragraphs into nested ul/ol markup.
func (r *run) buildLists(root *html.Node) {
	if len(r.marks) == 0 {
		return
	}
	r.scanContainer(root, 0)
}

// scanContainer runs the state machine over n's children, recursing into
// children that are not list paragraphs.
func (r *run) scanContainer(n *html.Node, depth int) {
	if r.tooDeep(depth) {
		return
	}

	lc := newListContext()
	for _, c := range children(n) {
		switch {
		case c.Type == html.TextNode && isBlankText(c.Data):
			// Whitespace between list paragraphs does not end the list.
			if !lc.outside() {
				n.RemoveChild(c)
			}
			continue
		case c.Type == html.ElementNode && r.marks[c] != nil:
			r.addItem(lc, n, c, r.marks[c])
			continue
		}

		lc.closeAll()
		if c.Type == html.ElementNode {
			r.scanContainer(c, depth+1)
		}
	}
	lc.closeAll()
}

// addItem applies one list paragraph to the state machine.
func (r *run) addItem(lc *listContext, parent, para *html.Node, mark *listMark) {
	glyph := r.takeGlyph(para)
	kind, first := glyphKind(glyph)
	level := mark.level

	resolve := func() listKind {
		if kind != kindUnknown {
			return kind
		}
		if k, ok := lc.lastKind[level]; ok {
			return k
		}
		if mark.hint != kindUnknown {
			return mark.hint
		}
		return kindUnordered
	}

	switch {
	case lc.outside():
		r.openRoot(lc, parent, para, level, resolve(), mark.id, first)

	case level > lc.top().level:
		r.openNested(lc, level, resolve(), mark.id, first)

	default:
		// Pop to the requested level. When only the root remains and it is
		// deeper than this item, the root adopts the shallower level.
		lc.popTo(level)
		top := lc.top()
		if top.level > level {
			top.level = level
		}

		k := resolve()
		switch {
		case top.level < level:
			r.openNested(lc, level, k, mark.id, first)
		case len(lc.frames) == 1 && mark.id != "" && top.id != "" && mark.id != top.id:
			// A different Word list at the outer level is a new list.
			lc.closeAll()
			r.openRoot(lc, parent, para, level, k, mark.id, first)
		case k != top.kind:
			if len(lc.frames) == 1 {
				lc.closeAll()
				r.openRoot(lc, parent, para, level, k, mark.id, first)
			} else {
				lc.frames = lc.frames[:len(lc.frames)-1]
				r.openNested(lc, level, k, mark.id, first)
			}
		default:
			r.appendItem(lc)
		}
	}

	top := lc.top()
	lc.lastKind[level] = top.kind
	moveChildren(top.item, para)
	remove(para)
	r.result.Stats.ListItems++
}

// openRoot starts a list in place of para.
func (r *run) openRoot(lc *listContext, parent, para *html.Node, level int, kind listKind, id, first string) {
	list := r.newList(kind, first)
	parent.InsertBefore(list, para)
	li := newElement("li")
	list.AppendChild(li)
	lc.frames = append(lc.frames, listFrame{level: level, kind: kind, id: id, list: list, item: li})
}

// openNested starts a list inside the current item.
func (r *run) openNested(lc *listContext, level int, kind listKind, id, first string) {
	list := r.newList(kind, first)
	lc.top().item.AppendChild(list)
	li := newElement("li")
	list.AppendChild(li)
	lc.frames = append(lc.frames, listFrame{level: level, kind: kind, id: id, list: list, item: li})
}

func (r *run) appendItem(lc *listContext) {
	top := lc.top()
	li := newElement("li")
	top.list.AppendChild(li)
	top.item = li
}

func (r *run) newList(kind listKind, first string) *html.Node {
	r.result.Stats.ListsBuilt++
	list := newElement(kind.tag())
	if kind == kindOrdered {
		if typ, start := counterStyle(first); typ != "" || start > 1 {
			if typ != "" {
				setAttr(list, "type", typ)
			}
			if start > 1 {
				setAttr(list, "start", strconv.Itoa(start))
			}
		}
	}
	return list
}

// takeGlyph removes the generated counter from a list paragraph and returns
// its text. Glyph nodes recorded by earlier passes are preferred; otherwise
// a leading counter is cut from the first text.
func (r *run) takeGlyph(para *html.Node) string {
	var (
		sb    strings.Builder
		found []*html.Node
	)
	var walk func(n *html.Node, depth int)
	walk = func(n *html.Node, depth int) {
		if depth > r.cfg.maxDepth() {
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if r.glyphs[c] {
				found = append(found, c)
				sb.WriteString(textContent(c))
				continue
			}
			if c.Type == html.ElementNode {
				walk(c, depth+1)
			}
		}
	}
	walk(para, 0)

	if len(found) > 0 {
		for _, g := range found {
			remove(g)
		}
		return strings.TrimFunc(sb.String(), isGlyphSpace)
	}
	return cutLeadingGlyph(para)
}

func isGlyphSpace(r rune) bool {
	return isASCIISpace(r) || r == nbsp
}

// leadingGlyph matches a counter or bullet typed as text at the start of a
// list paragraph.
var leadingGlyph = regexp.MustCompile(`^[\s\x{00A0}]*(\(?(?:[0-9]+(?:\.[0-9]+)*|[a-zA-Z]|[ivxlcdmIVXLCDM]+)[.)]|[•·▪■□◦●○§Øü\-–*\x{F000}-\x{F0FF}])[\s\x{00A0}]+`)

func cutLeadingGlyph(para *html.Node) string {
	t := firstText(para)
	if t == nil {
		return ""
	}
	loc := leadingGlyph.FindStringSubmatchIndex(t.Data)
	if loc == nil {
		return ""
	}
	glyph := t.Data[loc[2]:loc[3]]
	t.Data = t.Data[loc[1]:]
	return glyph
}

// firstText returns the first non-blank text node below n.
func firstText(n *html.Node) *html.Node {
	stack := []*html.Node{n}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if cur.Type == html.TextNode && !isBlankText(cur.Data) {
			return cur
		}
		for c := cur.LastChild; c != nil; c = c.PrevSibling {
			stack = append(stack, c)
		}
	}
	return nil
}

var (
	orderedGlyph = regexp.MustCompile(`^\(?([0-9]+|[a-zA-Z]|[ivxlcdmIVXLCDM]+)[.)]$`)
	outlineGlyph = regexp.MustCompile(`^[0-9]+(\.[0-9]+)+\.?$`)
)

// bulletGlyphs are the characters Word and its Symbol, Wingdings and
// Courier New bullet fonts emit for unordered lists.
var bulletGlyphs = map[rune]bool{
	'•': true, '·': true, '▪': true, '■': true, '□': true, '◦': true,
	'●': true, '○': true, '§': true, 'Ø': true, 'ü': true, 'v': true,
	'o': true, '-': true, '–': true, '*': true, '>': true, '➢': true,
}

// glyphKind infers the list kind from counter text. first is the counter
// value used for type and start attributes.
func glyphKind(glyph string) (listKind, string) {
	g := strings.TrimFunc(glyph, isGlyphSpace)
	if g == "" {
		return kindUnknown, ""
	}
	if m := orderedGlyph.FindStringSubmatch(g); m != nil {
		return kindOrdered, m[1]
	}
	if outlineGlyph.MatchString(g) {
		return kindOrdered, ""
	}
	runes := []rune(g)
	if len(runes) == 1 {
		r := runes[0]
		if bulletGlyphs[r] || (r >= 0xF000 && r <= 0xF0FF) || unicode.Is(unicode.Co, r) {
			return kindUnordered, ""
		}
	}
	return kindUnknown, ""
}

// counterStyle returns the ol type and start for the first counter of a list.
func counterStyle(first string) (typ string, start int) {
	if first == "" {
		return "", 1
	}
	if n, err := strconv.Atoi(first); err == nil {
		return "", n
	}
	if isRoman(first) && (len(first) > 1 || first == "i" || first == "I") {
		if strings.ToLower(first) == first {
			typ = "i"
		} else {
			typ = "I"
		}
		return typ, romanValue(first)
	}
	if len(first) == 1 {
		c := first[0]
		switch {
		case c >= 'a' && c <= 'z':
			return "a", int(c-'a') + 1
		case c >= 'A' && c <= 'Z':
			return "A", int(c-'A') + 1
		}
	}
	return "", 1
}

func isRoman(s string) bool {
	for _, c := range strings.ToLower(s) {
		if !strings.ContainsRune("ivxlcdm", c) {
			return false
		}
	}
	return s != ""
}

func romanValue(s string) int {
	values := map[byte]int{'i': 1, 'v': 5, 'x': 10, 'l': 50, 'c': 100, 'd': 500, 'm': 1000}
	s = strings.ToLower(s)
	total := 0
	for i := 0; i < len(s); i++ {
		v := values[s[i]]
		if i+1 < len(s) && values[s[i+1]] > v {
			total -= v
		} else {
			total += v
		}
	}
	if total < 1 {
		return 1
	}
	return total
}
