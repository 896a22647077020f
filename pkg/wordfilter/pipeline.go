package wordfilter

import (
	"fmt"

	"golang.org/x/net/html"
)

// run holds the state of one normalization. It owns the tree and every
// side table keyed by its nodes; nothing here outlives the call.
type run struct {
	cfg    *Config
	rules  *RuleSet
	result *Result

	// glyphs are nodes holding generated list counter text.
	glyphs map[*html.Node]bool
	// marks are list paragraphs found by the style pass.
	marks map[*html.Node]*listMark
	// decorated are table elements with visible borders or shading.
	decorated map[*html.Node]bool
	// placeholders are phantom merge cells.
	placeholders map[*html.Node]bool

	depthWarned bool
}

func newRun(cfg *Config, rules *RuleSet, result *Result) *run {
	return &run{
		cfg:          cfg,
		rules:        rules,
		result:       result,
		glyphs:       make(map[*html.Node]bool),
		marks:        make(map[*html.Node]*listMark),
		decorated:    make(map[*html.Node]bool),
		placeholders: make(map[*html.Node]bool),
	}
}

// tooDeep reports whether a pass must stop descending at depth. The first
// hit per run is recorded as a warning.
func (r *run) tooDeep(depth int) bool {
	if depth <= r.cfg.maxDepth() {
		return false
	}
	r.result.Stats.DepthGuardHits++
	if !r.depthWarned {
		r.depthWarned = true
		r.result.AddWarning("depth", "nesting exceeds max depth, subtree left unprocessed",
			fmt.Sprintf("max_depth=%d", r.cfg.maxDepth()))
	}
	return true
}

// transform applies every pass to the body in order.
func (r *run) transform(root *html.Node) {
	// Order matters: junk removal exposes the real structure, styles feed
	// list marks and table decoration, pruning runs last.

	// 1. Vendor markup, comments, namespaced elements
	r.stripJunk(root)

	// 2. Inline styles and classes
	r.mapStyles(root)

	// 3. Flat list paragraphs into nested lists
	if r.cfg.ListsAsStructure {
		r.buildLists(root)
	}

	// 4. Table attributes and layout tables
	r.cleanTables(root)

	// 5. Empty wrappers, whitespace, blank paragraphs, vocabulary
	r.prune(root)
}
