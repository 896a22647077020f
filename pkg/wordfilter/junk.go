package wordfilter

import (
	"encoding/base64"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
)

// dropSelector matches elements removed together with their subtree.
var dropSelector = cascadia.MustCompile(strings.Join([]string{
	"xml", "meta", "link", "style", "title", "base",
	"script", "noscript", "template",
	"iframe", "frame", "frameset", "object", "embed", "applet", "param",
	"form", "input", "button", "select", "textarea", "option", "optgroup", "datalist",
	"svg", "math", "canvas", "audio", "video", "source", "track", "map", "area",
	"[hidden]",
}, ", "))

// vendorContainers are namespaced elements that never hold document content.
var vendorContainers = map[string]bool{
	"o:documentproperties":       true,
	"o:customdocumentproperties": true,
	"o:officedocumentsettings":   true,
	"o:shapedefaults":            true,
	"o:shapelayout":              true,
	"o:lock":                     true,
	"w:worddocument":             true,
	"w:latentstyles":             true,
	"w:lsdexception":             true,
	"w:wrap":                     true,
	"v:shapetype":                true,
	"v:formulas":                 true,
	"v:path":                     true,
	"v:stroke":                   true,
	"v:imagedata":                true,
	"v:background":               true,
	"m:mathpr":                   true,
}

// conditionMarker matches the data of a revealed conditional marker such as
// <![if !supportLists]> or <!--[if !supportLists]-->.
var conditionMarker = regexp.MustCompile(`(?i)^\[if\s+([^\]]+)\]$`)

const glyphCondition = "!supportlists"

// dropConditions hold content Word only shows to renderers lacking a feature.
var dropConditions = map[string]bool{
	"!supportlinebreaknewline":  true,
	"!supportmisalignedcolumns": true,
	"!supportannotations":       true,
	"!supportfootnotes":         true,
	"!supportnestedanchors":     true,
}

// stripJunk removes comments, conditional markup, vendor elements and
// vendor attributes.
func (r *run) stripJunk(root *html.Node) {
	r.stripComments(root, 0)

	goquery.NewDocumentFromNode(root).FindMatcher(dropSelector).Each(func(_ int, s *goquery.Selection) {
		r.result.Stats.RecordRemoval(goquery.NodeName(s))
		s.Remove()
	})

	r.stripNamespaced(root, 0)
	r.stripAttributes(root, 0)
}

// stripComments removes every comment below n. Nodes between revealed
// conditional markers are recorded as list glyphs or dropped depending on
// the condition.
func (r *run) stripComments(n *html.Node, depth int) {
	if r.tooDeep(depth) {
		return
	}

	cond := ""
	for _, c := range children(n) {
		if c.Type == html.CommentNode {
			data := strings.TrimSpace(c.Data)
			if m := conditionMarker.FindStringSubmatch(data); m != nil {
				cond = strings.ToLower(strings.Join(strings.Fields(m[1]), " "))
			} else if strings.EqualFold(data, "[endif]") {
				cond = ""
			}
			n.RemoveChild(c)
			r.result.Stats.CommentsRemoved++
			continue
		}

		switch {
		case cond == glyphCondition:
			r.glyphs[c] = true
		case dropConditions[cond]:
			n.RemoveChild(c)
			if c.Type == html.ElementNode {
				r.result.Stats.RecordRemoval(c.Data)
			}
			continue
		}

		if c.Type == html.ElementNode {
			r.stripComments(c, depth+1)
		}
	}
}

// stripNamespaced removes or hoists prefixed elements such as o:p and
// w:sdt, deepest first so a wrapper sees its already-cleaned children.
func (r *run) stripNamespaced(n *html.Node, depth int) {
	if r.tooDeep(depth) {
		return
	}

	for _, c := range children(n) {
		if c.Type != html.ElementNode {
			continue
		}
		r.stripNamespaced(c, depth+1)

		if !strings.Contains(c.Data, ":") {
			continue
		}
		if vendorContainers[c.Data] || !holdsContent(c) {
			r.result.Stats.RecordRemoval(c.Data)
			n.RemoveChild(c)
			continue
		}
		unwrap(c)
		r.result.Stats.ElementsUnwrapped++
	}
}

// holdsContent reports whether a namespaced wrapper has text (NBSP
// included) or an element child worth hoisting.
func holdsContent(n *html.Node) bool {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		switch c.Type {
		case html.ElementNode:
			return true
		case html.TextNode:
			if !isBlankText(c.Data) {
				return true
			}
		}
	}
	return false
}

// vendorAttrs are plain attributes that only carry producer metadata.
var vendorAttrs = map[string]bool{
	"lang":     true,
	"id":       true,
	"name":     true,
	"xmlns":    true,
	"clear":    true,
	"link":     true,
	"vlink":    true,
	"tabindex": true,
}

// stripAttributes drops namespaced, event and metadata attributes, unsafe
// links, and images an editor cannot load.
func (r *run) stripAttributes(n *html.Node, depth int) {
	if r.tooDeep(depth) {
		return
	}

	for _, c := range children(n) {
		if c.Type != html.ElementNode {
			continue
		}

		kept := c.Attr[:0]
		for _, a := range c.Attr {
			key := strings.ToLower(a.Key)
			drop := a.Namespace != "" ||
				strings.Contains(key, ":") ||
				strings.HasPrefix(key, "on") ||
				vendorAttrs[key]
			if !drop && key == "href" && !safeLink(a.Val) {
				drop = true
			}
			if drop {
				r.result.Stats.AttributesRemoved++
				continue
			}
			kept = append(kept, a)
		}
		c.Attr = kept

		if c.Data == "img" {
			src, _ := getAttr(c, "src")
			if !r.loadableImage(src) {
				r.result.Stats.ImagesDropped++
				r.result.Stats.RecordRemoval("img")
				n.RemoveChild(c)
				continue
			}
		}

		r.stripAttributes(c, depth+1)
	}
}

var linkSchemes = map[string]bool{
	"http": true, "https": true, "mailto": true, "tel": true, "ftp": true,
}

// safeLink accepts relative references and a small set of URL schemes.
// Empty values and values with inner whitespace are rejected, as the output
// policy would strip them.
func safeLink(raw string) bool {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.ContainsAny(raw, " \t\n\r\f") {
		return false
	}
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return u.Scheme == "" || linkSchemes[strings.ToLower(u.Scheme)]
}

var dataImage = regexp.MustCompile(`^data:image/(png|jpeg|gif|webp);base64,`)

// loadableImage accepts remote and inline images. Local references
// (file://, relative clip_image paths) are accepted only when local images
// are kept.
func (r *run) loadableImage(src string) bool {
	src = strings.TrimSpace(src)
	if src == "" {
		return false
	}
	if strings.HasPrefix(strings.ToLower(src), "data:") {
		loc := dataImage.FindStringIndex(src)
		if loc == nil {
			return false
		}
		_, err := base64.StdEncoding.DecodeString(src[loc[1]:])
		return err == nil
	}
	if strings.ContainsAny(src, " \t\n\r\f") {
		return false
	}
	u, err := url.Parse(src)
	if err != nil {
		return false
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		return true
	case "", "file":
		return !r.cfg.DropLocalImages
	}
	return false
}
