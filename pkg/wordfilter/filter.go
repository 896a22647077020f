package wordfilter

import (
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/jmylchreest/wordpaste/internal/logger"
)

// Filter classifies and normalizes pasted word-processor HTML.
// It implements the cleaner.Cleaner interface and is safe for concurrent use.
type Filter struct {
	config *Config
	rules  *RuleSet
	policy *bluemonday.Policy

	// setup holds warnings from construction, copied into every result.
	setup []Warning
}

// New creates a Filter with the given configuration.
// If config is nil, DefaultConfig() is used. An invalid config or an
// unreadable rules file falls back to defaults and is reported as a warning
// on every result.
func New(config *Config) *Filter {
	if config == nil {
		config = DefaultConfig()
	}

	f := &Filter{}
	if err := config.Validate(); err != nil {
		logger.Warn("invalid word filter config, using defaults", "error", err)
		f.setup = append(f.setup, Warning{
			Phase:   "config",
			Message: "invalid configuration, using defaults",
			Context: err.Error(),
		})
		fallback := DefaultConfig()
		fallback.RetainStyles = config.RetainStyles
		fallback.ListsAsStructure = config.ListsAsStructure
		config = fallback
	}

	rules := config.Rules
	if rules == nil {
		rules = DefaultRules()
	}
	if config.RulesFile != "" {
		extra, err := LoadRulesFile(config.RulesFile)
		if err != nil {
			logger.Warn("failed to load rules file, using built-in rules", "path", config.RulesFile, "error", err)
			f.setup = append(f.setup, Warning{
				Phase:   "config",
				Message: "rules file ignored",
				Context: err.Error(),
			})
		} else {
			rules = rules.Extend(extra)
		}
	}

	f.config = config
	f.rules = rules
	f.policy = policyFor(config)
	return f
}

// Name returns the cleaner name for logging.
func (f *Filter) Name() string {
	return "wordfilter"
}

// Config returns the effective configuration.
func (f *Filter) Config() *Config {
	return f.config
}

// Classify evaluates every signal using the configured threshold.
func (f *Filter) Classify(raw string) Verdict {
	return classify(raw, f.config.threshold())
}

// IsWordContent reports whether raw looks like word-processor output.
func (f *Filter) IsWordContent(raw string) bool {
	return f.Classify(raw).IsWord
}

// Clean normalizes raw when it is word-processor content and returns it
// unchanged otherwise. The error is always nil.
// This method implements the cleaner.Cleaner interface.
func (f *Filter) Clean(raw string) (string, error) {
	return f.Process(raw).Content, nil
}

// Process classifies raw and normalizes it only on a positive verdict.
func (f *Filter) Process(raw string) *Result {
	verdict := f.Classify(raw)
	if !verdict.IsWord {
		result := f.newResult(raw)
		result.Verdict = verdict
		result.Content = raw
		result.Stats.OutputBytes = len(raw)
		logger.Debug("word filter skipped", "reason", "not word content", "bytes", len(raw))
		return result
	}
	result := f.NormalizeWithStats(raw)
	result.Verdict = verdict
	return result
}

// Normalize rewrites raw into the safe vocabulary regardless of verdict.
func (f *Filter) Normalize(raw string) string {
	return f.NormalizeWithStats(raw).Content
}

// NormalizeWithStats performs normalization and returns detailed stats.
func (f *Filter) NormalizeWithStats(raw string) *Result {
	startTime := time.Now()
	result := f.newResult(raw)
	result.Normalized = true

	// Parse
	parseStart := time.Now()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	result.Stats.ParseDuration = time.Since(parseStart)

	if err != nil {
		// Graceful degradation: the vocabulary policy alone still yields
		// safe output.
		result.AddWarning("parse", "HTML parse failed, returning sanitized input", err.Error())
		result.Content = f.policy.Sanitize(raw)
		result.Stats.OutputBytes = len(result.Content)
		result.Stats.TotalDuration = time.Since(startTime)
		return result
	}

	root := doc.Find("body").Get(0)
	if root == nil {
		root = doc.Get(0)
	}

	// Transform
	transformStart := time.Now()
	r := newRun(f.config, f.rules, result)
	r.transform(root)
	result.Stats.TransformDuration = time.Since(transformStart)

	// Generate output
	outputStart := time.Now()
	result.Content = f.render(r, root)
	result.Stats.OutputDuration = time.Since(outputStart)

	result.Stats.OutputBytes = len(result.Content)
	result.Stats.TotalDuration = time.Since(startTime)

	logger.Debug("word filter normalized",
		"source", result.Source,
		"mode", result.Mode,
		"input_bytes", result.Stats.InputBytes,
		"output_bytes", result.Stats.OutputBytes,
		"lists", result.Stats.ListsBuilt,
		"tables_collapsed", result.Stats.TablesCollapsed,
		"warnings", len(result.Warnings),
	)
	if f.config.Debug {
		logger.Debug("word filter stats", "stats", result.Stats.String())
	}

	return result
}

func (f *Filter) newResult(raw string) *Result {
	result := &Result{
		Stats:  NewStats(),
		Source: f.config.Source,
		Mode:   f.config.Mode,
	}
	if result.Source == "" {
		result.Source = SourceExternal
	}
	if result.Mode == "" {
		result.Mode = ModeHTML
	}
	result.Warnings = append(result.Warnings, f.setup...)
	result.Stats.InputBytes = len(raw)
	return result
}

// render serializes the tree, runs the policy over it and re-serializes the
// parsed policy output so the result is in canonical form.
func (f *Filter) render(r *run, root *html.Node) string {
	maxDepth := f.config.maxDepth()
	sanitized := f.policy.Sanitize(renderChildren(root, maxDepth))

	body := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(sanitized), body)
	if err != nil {
		r.result.AddWarning("output", "reparse failed, returning sanitized output", err.Error())
		return sanitized
	}
	for _, n := range nodes {
		body.AppendChild(n)
	}
	r.settle(body)
	return renderChildren(body, maxDepth)
}

// Normalize rewrites raw with the default configuration and the host options.
func Normalize(raw string, opts Options) string {
	return New(DefaultConfig().WithOptions(opts)).Normalize(raw)
}
