package cleaner

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

var (
	spaceRegex     = regexp.MustCompile(`[ \t\r\n\f]+`)
	blankLineRegex = regexp.MustCompile(`\n{3,}`)
)

// textBreaks are elements rendered on their own line.
var textBreaks = map[string]bool{
	"p": true, "h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"blockquote": true, "pre": true, "li": true, "tr": true, "caption": true,
	"ul": true, "ol": true, "table": true, "hr": true, "div": true,
}

// TextCleaner extracts plain text from HTML, one block per line. List items
// are prefixed with "- " and table cells are separated by tabs.
type TextCleaner struct{}

// NewText creates a new plain-text cleaner.
func NewText() *TextCleaner {
	return &TextCleaner{}
}

// Clean extracts the text of html.
func (c *TextCleaner) Clean(content string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	doc.Find("body").Each(func(_ int, s *goquery.Selection) {
		for _, n := range s.Nodes {
			writeText(&sb, n, false)
		}
	})

	lines := strings.Split(sb.String(), "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	text := blankLineRegex.ReplaceAllString(strings.Join(lines, "\n"), "\n\n")
	return strings.TrimSpace(text), nil
}

func writeText(sb *strings.Builder, n *html.Node, inPre bool) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		switch c.Type {
		case html.TextNode:
			text := strings.ReplaceAll(c.Data, "\u00a0", " ")
			if !inPre {
				text = spaceRegex.ReplaceAllString(text, " ")
				if atLineStart(sb) {
					text = strings.TrimLeft(text, " ")
				}
			}
			sb.WriteString(text)
		case html.ElementNode:
			tag := c.Data
			switch {
			case tag == "br":
				sb.WriteString("\n")
				continue
			case tag == "td" || tag == "th":
				if c.PrevSibling != nil {
					sb.WriteString("\t")
				}
			case textBreaks[tag]:
				newLine(sb)
			}
			if tag == "li" {
				sb.WriteString("- ")
			}
			before := sb.Len()
			writeText(sb, c, inPre || tag == "pre")
			if tag == "p" && sb.Len() == before {
				// A blank paragraph is a blank line.
				sb.WriteString("\n")
			}
			if textBreaks[tag] {
				newLine(sb)
			}
		}
	}
}

func atLineStart(sb *strings.Builder) bool {
	return sb.Len() == 0 || strings.HasSuffix(sb.String(), "\n") || strings.HasSuffix(sb.String(), "\t")
}

func newLine(sb *strings.Builder) {
	if sb.Len() > 0 && !strings.HasSuffix(sb.String(), "\n") {
		sb.WriteString("\n")
	}
}

// Name returns the cleaner type.
func (c *TextCleaner) Name() string {
	return "text"
}
