package wordfilter

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/text/unicode/norm"
)

// inlineWrappers are removed when empty and unwrapped when whitespace-only.
var inlineWrappers = map[string]bool{
	"strong": true, "em": true, "u": true, "s": true, "sub": true, "sup": true,
	"span": true, "a": true,
}

// textBlocks cannot nest inside each other in parsed HTML.
var textBlocks = map[string]bool{
	"p": true, "h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
}

// prune removes what the earlier passes left empty or meaningless and
// normalizes whitespace. Each step assumes the previous one ran.
func (r *run) prune(root *html.Node) {
	// 1. Attributes outside the vocabulary
	r.filterAttributes(root, 0)

	// 2. Wrappers that carry nothing
	r.unwrapBare(root, 0, 0, false)

	// 3. Empty inline wrappers
	r.removeEmptyInline(root, 0)

	// 4. Empty structural elements
	r.removeEmptyContainers(root, 0)

	// 5. Blank paragraph policy, which may empty a container again
	if r.cfg.blankPolicy() != BlankKeep {
		r.applyBlankPolicy(root, 0)
		r.removeEmptyContainers(root, 0)
	}

	// 6. Text normalization
	r.normalizeText(root, 0, false)

	// 7. Whitespace at block edges
	r.trimBlocks(root, 0)

	r.countKept(root)
}

// settle repeats the local clean-up steps on the re-parsed output. Subtrees
// below the depth guard reach the policy unprocessed, and the policy leaves
// bare spans and untrimmed text behind that a second run would remove.
func (r *run) settle(root *html.Node) {
	r.unwrapBare(root, 0, 0, false)
	r.removeEmptyInline(root, 0)
	r.normalizeText(root, 0, false)
	r.trimBlocks(root, 0)
}

// filterAttributes keeps only vocabulary attributes with valid values and
// drops images without a loadable source.
func (r *run) filterAttributes(n *html.Node, depth int) {
	if r.tooDeep(depth) {
		return
	}
	for _, c := range children(n) {
		if c.Type != html.ElementNode {
			continue
		}

		allowed := vocabularyAttrs[c.Data]
		kept := c.Attr[:0]
		var src string
		for _, a := range c.Attr {
			switch {
			case a.Namespace != "":
			case a.Key == "style" && r.cfg.RetainStyles && vocabulary[c.Data]:
				if strings.TrimSpace(a.Val) != "" {
					kept = append(kept, a)
					continue
				}
			case a.Key == "src" && c.Data == "img":
				src = a.Val
				kept = append(kept, a)
				continue
			case allowed[a.Key] != nil && allowed[a.Key](a.Val):
				kept = append(kept, a)
				continue
			}
			r.result.Stats.AttributesRemoved++
		}
		c.Attr = kept

		if c.Data == "img" && !r.loadableImage(src) {
			r.result.Stats.ImagesDropped++
			r.result.Stats.RecordRemoval("img")
			n.RemoveChild(c)
			continue
		}

		r.filterAttributes(c, depth+1)
	}
}

// unwrapBare replaces with their children: elements outside the vocabulary,
// spans without attributes, anchors without href, formatting nested in the
// same formatting, and paragraphs nested in paragraphs.
func (r *run) unwrapBare(n *html.Node, depth int, inside wrapSet, inText bool) {
	if r.tooDeep(depth) {
		return
	}
	for _, c := range children(n) {
		if c.Type != html.ElementNode {
			continue
		}

		bit := wrapBit(c.Data)
		drop := !vocabulary[c.Data] ||
			(c.Data == "span" && len(c.Attr) == 0) ||
			(c.Data == "a" && !hasHref(c)) ||
			(bit != 0 && inside&bit != 0) ||
			(textBlocks[c.Data] && inText)

		childInside, childText := inside, inText
		if !drop {
			childInside |= bit
			childText = childText || textBlocks[c.Data]
		}
		r.unwrapBare(c, depth+1, childInside, childText)

		if drop {
			unwrap(c)
			r.result.Stats.ElementsUnwrapped++
		}
	}
}

func hasHref(n *html.Node) bool {
	_, ok := getAttr(n, "href")
	return ok
}

func (r *run) removeEmptyInline(n *html.Node, depth int) {
	if r.tooDeep(depth) {
		return
	}
	for _, c := range children(n) {
		if c.Type != html.ElementNode {
			continue
		}
		r.removeEmptyInline(c, depth+1)

		if !inlineWrappers[c.Data] {
			continue
		}
		switch {
		case c.FirstChild == nil:
			r.result.Stats.EmptyElementRemovals++
			r.result.Stats.RecordRemoval(c.Data)
			n.RemoveChild(c)
		case onlyWhitespace(c):
			unwrap(c)
			r.result.Stats.ElementsUnwrapped++
		}
	}
}

// onlyWhitespace reports whether n has only whitespace text children.
func onlyWhitespace(n *html.Node) bool {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.TextNode || !isBlankText(c.Data) {
			return false
		}
	}
	return true
}

// removeEmptyContainers drops lists, items, rows, tables, quotes and
// headings with no content. Empty paragraphs and cells are kept.
func (r *run) removeEmptyContainers(n *html.Node, depth int) {
	if r.tooDeep(depth) {
		return
	}
	for _, c := range children(n) {
		if c.Type != html.ElementNode {
			continue
		}
		r.removeEmptyContainers(c, depth+1)

		empty := false
		switch c.Data {
		case "ul", "ol":
			empty = !hasChildElement(c, "li")
		case "tr":
			empty = !hasChildElement(c, "td", "th")
		case "thead", "tbody", "tfoot":
			empty = !hasChildElement(c, "tr")
		case "table":
			empty = !hasChildElement(c, "tr", "thead", "tbody", "tfoot")
		case "li", "blockquote", "caption", "h1", "h2", "h3", "h4", "h5", "h6":
			empty = !hasContent(c)
		}
		if empty {
			r.result.Stats.EmptyElementRemovals++
			r.result.Stats.RecordRemoval(c.Data)
			n.RemoveChild(c)
		}
	}
}

func hasChildElement(n *html.Node, tags ...string) bool {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if isElement(c, tags...) {
			return true
		}
	}
	return false
}

// isBlankParagraph reports whether p shows nothing but spaces: no text other
// than whitespace and NBSP, and no image.
func isBlankParagraph(p *html.Node) bool {
	if !isElement(p, "p") {
		return false
	}
	stack := []*html.Node{p}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for c := cur.FirstChild; c != nil; c = c.NextSibling {
			switch c.Type {
			case html.TextNode:
				if !isBlankOrNbsp(c.Data) {
					return false
				}
			case html.ElementNode:
				if c.Data == "img" || c.Data == "hr" || c.Data == "table" {
					return false
				}
				stack = append(stack, c)
			}
		}
	}
	return true
}

// applyBlankPolicy collapses or removes runs of blank paragraphs.
func (r *run) applyBlankPolicy(n *html.Node, depth int) {
	if r.tooDeep(depth) {
		return
	}
	policy := r.cfg.blankPolicy()
	inRun := false
	for _, c := range children(n) {
		if c.Type == html.TextNode && isBlankText(c.Data) {
			continue
		}
		if isBlankParagraph(c) {
			if inRun || policy == BlankRemove {
				r.result.Stats.BlankParagraphs++
				n.RemoveChild(c)
			}
			inRun = true
			continue
		}
		inRun = false
		if c.Type == html.ElementNode {
			r.applyBlankPolicy(c, depth+1)
		}
	}
}

// normalizeText merges adjacent text nodes, collapses whitespace outside
// pre and applies NFC.
func (r *run) normalizeText(n *html.Node, depth int, inPre bool) {
	if r.tooDeep(depth) {
		return
	}
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		switch c.Type {
		case html.TextNode:
			for next != nil && next.Type == html.TextNode {
				c.Data += next.Data
				after := next.NextSibling
				n.RemoveChild(next)
				next = after
			}
			if !inPre {
				c.Data = collapseSpace(c.Data)
			}
			c.Data = norm.NFC.String(c.Data)
		case html.ElementNode:
			r.normalizeText(c, depth+1, inPre || c.Data == "pre")
		}
		c = next
	}
}

// collapseSpace replaces each run of ASCII whitespace with one space.
func collapseSpace(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))
	space := false
	for _, r := range s {
		if isASCIISpace(r) {
			if !space {
				sb.WriteByte(' ')
			}
			space = true
			continue
		}
		space = false
		sb.WriteRune(r)
	}
	return sb.String()
}

// structural elements hold only other elements; text in them is noise.
var structural = map[string]bool{
	"ul": true, "ol": true, "table": true, "thead": true, "tbody": true,
	"tfoot": true, "tr": true,
}

// trimBlocks removes whitespace that only separates blocks and trims
// whitespace at the inner edges of blocks.
func (r *run) trimBlocks(n *html.Node, depth int) {
	if r.tooDeep(depth) {
		return
	}
	if isElement(n, "pre") {
		return
	}

	// A missing sibling is an edge only when n itself is a block.
	inBlock := n.Type != html.ElementNode || !phrasingTags[n.Data]
	isBlockEdge := func(c *html.Node) bool {
		if c == nil {
			return inBlock
		}
		return c.Type == html.ElementNode && blockTags[c.Data]
	}

	for _, c := range children(n) {
		if c.Type == html.ElementNode {
			r.trimBlocks(c, depth+1)
			continue
		}
		if c.Type != html.TextNode {
			continue
		}
		if structural[n.Data] && isBlankText(c.Data) {
			n.RemoveChild(c)
			continue
		}
		if isBlockEdge(c.PrevSibling) {
			c.Data = strings.TrimLeftFunc(c.Data, isASCIISpace)
		}
		if isBlockEdge(c.NextSibling) {
			c.Data = strings.TrimRightFunc(c.Data, isASCIISpace)
		}
		if c.Data == "" {
			n.RemoveChild(c)
		}
	}
}

func (r *run) countKept(root *html.Node) {
	stack := []*html.Node{root}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for c := cur.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode {
				r.result.Stats.ElementsKept++
				stack = append(stack, c)
			}
		}
	}
}
