package wordfilter

import (
	"regexp"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

// vocabulary is the complete set of elements the filter emits.
var vocabulary = map[string]bool{
	"p": true, "h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"blockquote": true, "pre": true, "hr": true, "br": true,
	"ul": true, "ol": true, "li": true,
	"table": true, "caption": true, "thead": true, "tbody": true, "tfoot": true,
	"tr": true, "td": true, "th": true,
	"strong": true, "em": true, "u": true, "s": true, "sub": true, "sup": true,
	"span": true, "a": true, "img": true,
}

var (
	alignPattern    = regexp.MustCompile(`^(center|right|justify)$`)
	listTypePattern = regexp.MustCompile(`^[1aAiI]$`)
	borderPattern   = regexp.MustCompile(`^1$`)
)

type attrCheck func(string) bool

func anyValue(string) bool { return true }

func isInteger(v string) bool { return bluemonday.Integer.MatchString(v) }

func isSpan(v string) bool {
	s, ok := normalizeSpan(v)
	return ok && s == v
}

// vocabularyAttrs lists the attributes kept per element and how their
// values are checked. img src and style are handled by the prune pass.
var vocabularyAttrs = map[string]map[string]attrCheck{
	"a":     {"href": safeLink, "title": anyValue},
	"img":   {"alt": anyValue, "title": anyValue, "width": isInteger, "height": isInteger},
	"p":     {"align": alignPattern.MatchString},
	"h1":    {"align": alignPattern.MatchString},
	"h2":    {"align": alignPattern.MatchString},
	"h3":    {"align": alignPattern.MatchString},
	"h4":    {"align": alignPattern.MatchString},
	"h5":    {"align": alignPattern.MatchString},
	"h6":    {"align": alignPattern.MatchString},
	"td":    {"align": alignPattern.MatchString, "colspan": isSpan, "rowspan": isSpan},
	"th":    {"align": alignPattern.MatchString, "colspan": isSpan, "rowspan": isSpan},
	"ol":    {"type": listTypePattern.MatchString, "start": isInteger},
	"table": {"border": borderPattern.MatchString},
}

var retainedProperties = []string{"color", "background-color", "font-size"}

// newPolicy builds the bluemonday policy mirroring the vocabulary. It runs
// over the serialized output as a final guard; for output of the passes it
// is a no-op.
func newPolicy(retainStyles, localImages bool) *bluemonday.Policy {
	p := bluemonday.NewPolicy()

	elements := make([]string, 0, len(vocabulary))
	for tag := range vocabulary {
		elements = append(elements, tag)
	}
	p.AllowElements(elements...)

	p.AllowAttrs("href").OnElements("a")
	p.AllowAttrs("title").OnElements("a", "img")
	p.AllowAttrs("src", "alt").OnElements("img")
	p.AllowAttrs("width", "height").Matching(bluemonday.Integer).OnElements("img")
	p.AllowAttrs("align").Matching(alignPattern).OnElements("p", "h1", "h2", "h3", "h4", "h5", "h6", "td", "th")
	p.AllowAttrs("colspan", "rowspan").Matching(bluemonday.Integer).OnElements("td", "th")
	p.AllowAttrs("type").Matching(listTypePattern).OnElements("ol")
	p.AllowAttrs("start").Matching(bluemonday.Integer).OnElements("ol")
	p.AllowAttrs("border").Matching(borderPattern).OnElements("table")

	p.RequireParseableURLs(true)
	p.AllowRelativeURLs(true)
	p.AllowURLSchemes("http", "https", "mailto", "tel", "ftp")
	if localImages {
		p.AllowURLSchemes("file")
	}
	p.AllowDataURIImages()

	if retainStyles {
		p.AllowStyles(retainedProperties...).Globally()
	}
	return p
}

var (
	policyOnce  [2][2]sync.Once
	policyCache [2][2]*bluemonday.Policy
)

// policyFor returns the shared policy for a configuration.
func policyFor(cfg *Config) *bluemonday.Policy {
	i, j := 0, 0
	if cfg.RetainStyles {
		i = 1
	}
	if !cfg.DropLocalImages {
		j = 1
	}
	policyOnce[i][j].Do(func() {
		policyCache[i][j] = newPolicy(i == 1, j == 1)
	})
	return policyCache[i][j]
}
