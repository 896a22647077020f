package cleaner

import (
	"strings"

	"github.com/yosssi/gohtml"
)

// PrettyCleaner indents HTML for reading. The result is for display only:
// it adds whitespace the word filter would remove again.
type PrettyCleaner struct{}

// NewPretty creates a new pretty-printing cleaner.
func NewPretty() *PrettyCleaner {
	return &PrettyCleaner{}
}

// Clean formats html with one element per line.
func (c *PrettyCleaner) Clean(html string) (string, error) {
	if strings.TrimSpace(html) == "" {
		return "", nil
	}
	return gohtml.Format(html), nil
}

// Name returns the cleaner type.
func (c *PrettyCleaner) Name() string {
	return "pretty"
}
