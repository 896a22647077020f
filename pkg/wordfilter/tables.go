package wordfilter

import (
	"strconv"
	"strings"

	"golang.org/x/net/html"
)

const maxSpan = 1000

var tableTags = map[string]bool{
	"table": true, "caption": true, "thead": true, "tbody": true, "tfoot": true,
	"tr": true, "td": true, "th": true, "colgroup": true, "col": true,
}

// cleanTables strips layout attributes from table markup, removes phantom
// cells and collapses single-cell layout tables. Tables are handled deepest
// first so nested layout tables collapse completely.
func (r *run) cleanTables(root *html.Node) {
	r.tableWalk(root, 0)
}

func (r *run) tableWalk(n *html.Node, depth int) {
	if r.tooDeep(depth) {
		return
	}

	for _, c := range children(n) {
		if c.Type != html.ElementNode {
			continue
		}
		r.tableWalk(c, depth+1)

		if !tableTags[c.Data] {
			continue
		}
		switch c.Data {
		case "colgroup", "col":
			r.result.Stats.RecordRemoval(c.Data)
			n.RemoveChild(c)
		case "td", "th":
			if r.placeholders[c] {
				r.result.Stats.CellsDropped++
				r.result.Stats.RecordRemoval(c.Data)
				n.RemoveChild(c)
				continue
			}
			r.cleanCell(c)
			r.markTable(c)
		case "table":
			r.cleanTable(c)
		default:
			r.stripTableAttrs(c, nil)
			r.markTable(c)
		}
	}
}

// markTable carries a part's decoration to its table, so a table with a
// bordered cell keeps border="1" and is never collapsed on a later run.
func (r *run) markTable(part *html.Node) {
	if !r.decorated[part] {
		return
	}
	for p := part.Parent; p != nil; p = p.Parent {
		if isElement(p, "table") {
			r.decorated[p] = true
			return
		}
	}
}

// stripTableAttrs removes every attribute not listed in keep.
func (r *run) stripTableAttrs(n *html.Node, keep map[string]bool) {
	kept := n.Attr[:0]
	for _, a := range n.Attr {
		if keep[a.Key] {
			kept = append(kept, a)
			continue
		}
		if a.Key == "bgcolor" && decorativeColor(a.Val) {
			r.decorated[n] = true
		}
		r.result.Stats.AttributesRemoved++
	}
	n.Attr = kept
}

var cellAttrs = map[string]bool{"colspan": true, "rowspan": true, "align": true}

func (r *run) cleanCell(n *html.Node) {
	r.stripTableAttrs(n, cellAttrs)
	for _, key := range []string{"colspan", "rowspan"} {
		v, ok := getAttr(n, key)
		if !ok {
			continue
		}
		if span, ok := normalizeSpan(v); ok {
			setAttr(n, key, span)
		} else {
			removeAttr(n, key)
		}
	}
}

// normalizeSpan parses a span attribute. Values that are not integers or
// equal to 1 are dropped; the rest are clamped to 1..1000.
func normalizeSpan(v string) (string, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || n <= 1 {
		return "", false
	}
	if n > maxSpan {
		n = maxSpan
	}
	return strconv.Itoa(n), true
}

func (r *run) cleanTable(t *html.Node) {
	bordered := r.decorated[t]
	if v, ok := getAttr(t, "border"); ok {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && n > 0 {
			bordered = true
		}
	}
	r.stripTableAttrs(t, nil)
	if r.decorated[t] {
		bordered = true
	}
	if bordered {
		setAttr(t, "border", "1")
	}

	if !r.cfg.CollapseLayoutTables || bordered {
		return
	}
	if cell := r.layoutCell(t); cell != nil {
		parent := t.Parent
		for c := cell.FirstChild; c != nil; {
			next := c.NextSibling
			cell.RemoveChild(c)
			parent.InsertBefore(c, t)
			c = next
		}
		parent.RemoveChild(t)
		r.result.Stats.TablesCollapsed++
	}
}

// layoutCell returns the single cell of a one-row, one-cell table without
// caption, or nil when the table carries real structure. Rows without
// cells and empty captions are ignored because pruning removes them.
func (r *run) layoutCell(t *html.Node) *html.Node {
	var cells []*html.Node
	addRow := func(tr *html.Node) {
		for c := tr.FirstChild; c != nil; c = c.NextSibling {
			if isElement(c, "td", "th") {
				cells = append(cells, c)
			}
		}
	}
	for c := t.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			if c.Type == html.TextNode && !isBlankText(c.Data) {
				return nil
			}
			continue
		}
		switch c.Data {
		case "caption":
			if hasContent(c) {
				return nil
			}
		case "tr":
			addRow(c)
		case "thead", "tbody", "tfoot":
			for tr := c.FirstChild; tr != nil; tr = tr.NextSibling {
				if isElement(tr, "tr") {
					addRow(tr)
				}
			}
		default:
			return nil
		}
	}
	if len(cells) != 1 {
		return nil
	}
	return cells[0]
}

// decorativeColor reports whether a bgcolor value paints something visible.
func decorativeColor(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "", "transparent", "white", "#fff", "#ffffff", "none", "auto":
		return false
	}
	return true
}
