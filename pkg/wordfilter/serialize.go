package wordfilter

import (
	"sort"
	"strings"

	"golang.org/x/net/html"
)

// serializer renders a tree in the canonical form: lower-case tags,
// attributes sorted by name and double-quoted, NBSP written as &nbsp;, void
// elements self-closed. Below maxDepth only text is written.
type serializer struct {
	sb       strings.Builder
	maxDepth int
}

// renderChildren serializes the children of root.
func renderChildren(root *html.Node, maxDepth int) string {
	s := &serializer{maxDepth: maxDepth}
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		s.node(c, 1)
	}
	return s.sb.String()
}

func (s *serializer) node(n *html.Node, depth int) {
	switch n.Type {
	case html.TextNode:
		writeEscaped(&s.sb, n.Data)
	case html.ElementNode:
		if depth > s.maxDepth {
			writeEscaped(&s.sb, textContent(n))
			return
		}
		s.element(n, depth)
	case html.DocumentNode:
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			s.node(c, depth)
		}
	}
	// Comments and doctypes are never emitted.
}

func (s *serializer) element(n *html.Node, depth int) {
	tag := strings.ToLower(n.Data)
	s.sb.WriteByte('<')
	s.sb.WriteString(tag)

	attrs := make([]html.Attribute, 0, len(n.Attr))
	for _, a := range n.Attr {
		if a.Namespace != "" {
			continue
		}
		a.Key = strings.ToLower(a.Key)
		attrs = append(attrs, a)
	}
	sort.SliceStable(attrs, func(i, j int) bool { return attrs[i].Key < attrs[j].Key })
	for _, a := range attrs {
		s.sb.WriteByte(' ')
		s.sb.WriteString(a.Key)
		s.sb.WriteString(`="`)
		writeEscaped(&s.sb, a.Val)
		s.sb.WriteByte('"')
	}

	if voidTags[tag] {
		s.sb.WriteString(" />")
		return
	}
	s.sb.WriteByte('>')

	// The parser drops a newline directly after <pre>; write one back so
	// the content survives a round trip.
	if tag == "pre" || tag == "textarea" || tag == "listing" {
		if c := n.FirstChild; c != nil && c.Type == html.TextNode && strings.HasPrefix(c.Data, "\n") {
			s.sb.WriteByte('\n')
		}
	}

	// Text is always escaped, raw text elements included.
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		s.node(c, depth+1)
	}

	s.sb.WriteString("</")
	s.sb.WriteString(tag)
	s.sb.WriteByte('>')
}

// writeEscaped escapes &, <, >, both quote characters and NBSP. Quotes are
// escaped in text too, so no attribute-shaped fingerprint survives in the
// output.
func writeEscaped(sb *strings.Builder, s string) {
	for _, r := range s {
		switch r {
		case '&':
			sb.WriteString("&amp;")
		case '<':
			sb.WriteString("&lt;")
		case '>':
			sb.WriteString("&gt;")
		case nbsp:
			sb.WriteString("&nbsp;")
		case '"':
			sb.WriteString("&#34;")
		case '\'':
			sb.WriteString("&#39;")
		default:
			sb.WriteRune(r)
		}
	}
}
