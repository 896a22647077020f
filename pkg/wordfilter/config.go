// Package wordfilter detects HTML produced by word processors (Microsoft Word,
// Word Online, Google Docs exports) and rewrites it into a small, editor-safe
// HTML dialect: paragraphs, headings, lists, tables, inline formatting, links
// and images, with vendor markup removed.
package wordfilter

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Source tells the normalizer where the paste came from. It is context
// supplied by the host and is never inferred.
type Source string

const (
	SourceInternal Source = "internal"
	SourceExternal Source = "external"
)

// Mode is the paste mode the host editor is in.
type Mode string

const (
	ModeHTML Mode = "html"
	ModeText Mode = "text"
)

// BlankParagraphPolicy controls how empty and &nbsp;-only paragraphs are handled.
type BlankParagraphPolicy string

const (
	// BlankCollapse keeps the first blank paragraph of each consecutive run.
	BlankCollapse BlankParagraphPolicy = "collapse"
	// BlankRemove drops every blank paragraph.
	BlankRemove BlankParagraphPolicy = "remove"
	// BlankKeep leaves blank paragraphs untouched.
	BlankKeep BlankParagraphPolicy = "keep"
)

const (
	// DefaultMaxDepth bounds every recursive pass.
	DefaultMaxDepth = 200

	// DefaultClassifierThreshold is the weak-signal score at which content
	// is considered word-processor output.
	DefaultClassifierThreshold = 0.8
)

// Options is the host-facing subset of the configuration passed on each paste.
type Options struct {
	Source           Source `json:"source" yaml:"source"`
	Mode             Mode   `json:"mode" yaml:"mode"`
	RetainStyles     bool   `json:"retain_styles" yaml:"retain_styles"`
	ListsAsStructure bool   `json:"lists_as_structure" yaml:"lists_as_structure"`
}

// Config defines all configuration options for the word filter.
type Config struct {
	// === Host context ===

	// Source is recorded on the result; "external" when empty.
	Source Source `json:"source" yaml:"source" mapstructure:"source" validate:"omitempty,oneof=internal external"`

	// Mode is recorded on the result; "html" when empty.
	Mode Mode `json:"mode" yaml:"mode" mapstructure:"mode" validate:"omitempty,oneof=html text"`

	// === Mapping ===

	// RetainStyles keeps a small set of safe inline declarations
	// (colour, background colour, font size) instead of deleting them.
	RetainStyles bool `json:"retain_styles" yaml:"retain_styles" mapstructure:"retain_styles"`

	// ListsAsStructure turns list paragraphs into ul/ol/li markup. When false
	// list paragraphs stay paragraphs and keep their counter text.
	ListsAsStructure bool `json:"lists_as_structure" yaml:"lists_as_structure" mapstructure:"lists_as_structure"`

	// MapClassRoles maps paragraph classes such as MsoTitle or MsoQuote to
	// headings and blockquotes.
	MapClassRoles bool `json:"map_class_roles" yaml:"map_class_roles" mapstructure:"map_class_roles"`

	// === Tables and images ===

	// CollapseLayoutTables replaces borderless single-cell tables with their content.
	CollapseLayoutTables bool `json:"collapse_layout_tables" yaml:"collapse_layout_tables" mapstructure:"collapse_layout_tables"`

	// DropLocalImages removes images whose source is a local file reference
	// (file://, clip_image temp files) that an editor cannot load.
	DropLocalImages bool `json:"drop_local_images" yaml:"drop_local_images" mapstructure:"drop_local_images"`

	// === Pruning ===

	// BlankParagraphs selects the blank paragraph policy.
	BlankParagraphs BlankParagraphPolicy `json:"blank_paragraphs" yaml:"blank_paragraphs" mapstructure:"blank_paragraphs" validate:"omitempty,oneof=collapse remove keep"`

	// === Limits ===

	// MaxDepth is the deepest element nesting any pass descends into.
	// Zero means DefaultMaxDepth.
	MaxDepth int `json:"max_depth" yaml:"max_depth" mapstructure:"max_depth" validate:"gte=0,lte=100000"`

	// ClassifierThreshold is the weak-signal score needed for a positive
	// verdict when no strong signal is present. Zero means DefaultClassifierThreshold.
	ClassifierThreshold float64 `json:"classifier_threshold" yaml:"classifier_threshold" mapstructure:"classifier_threshold" validate:"gte=0,lte=100"`

	// === Rules ===

	// RulesFile is an optional YAML file with extra style and class rules.
	// Rules in the file take precedence over the built-in ones.
	RulesFile string `json:"rules_file,omitempty" yaml:"rules_file,omitempty" mapstructure:"rules_file"`

	// Rules overrides the rule set entirely. Nil means DefaultRules().
	Rules *RuleSet `json:"-" yaml:"-" mapstructure:"-" validate:"-"`

	// Debug enables per-pass debug logging.
	Debug bool `json:"debug" yaml:"debug" mapstructure:"debug"`
}

// DefaultConfig returns the configuration used for an ordinary external paste.
func DefaultConfig() *Config {
	return &Config{
		Source:               SourceExternal,
		Mode:                 ModeHTML,
		RetainStyles:         false,
		ListsAsStructure:     true,
		MapClassRoles:        true,
		CollapseLayoutTables: true,
		DropLocalImages:      true,
		BlankParagraphs:      BlankCollapse,
		MaxDepth:             DefaultMaxDepth,
		ClassifierThreshold:  DefaultClassifierThreshold,
	}
}

// PresetStrict returns a config that removes every blank paragraph and never
// retains styles. Useful for plain content fields.
func PresetStrict() *Config {
	cfg := DefaultConfig()
	cfg.BlankParagraphs = BlankRemove
	cfg.RetainStyles = false
	return cfg
}

// PresetFaithful keeps safe inline styles and blank paragraphs, staying as
// close to the pasted document as the safe vocabulary allows.
func PresetFaithful() *Config {
	cfg := DefaultConfig()
	cfg.RetainStyles = true
	cfg.BlankParagraphs = BlankKeep
	return cfg
}

// WithOptions returns a copy of the config with the host options applied.
func (c *Config) WithOptions(o Options) *Config {
	merged := *c
	if o.Source != "" {
		merged.Source = o.Source
	}
	if o.Mode != "" {
		merged.Mode = o.Mode
	}
	merged.RetainStyles = o.RetainStyles
	merged.ListsAsStructure = o.ListsAsStructure
	return &merged
}

// Options returns the host-facing view of the config.
func (c *Config) Options() Options {
	return Options{
		Source:           c.Source,
		Mode:             c.Mode,
		RetainStyles:     c.RetainStyles,
		ListsAsStructure: c.ListsAsStructure,
	}
}

// Merge merges another config into this one.
// Non-zero values from other override this config; booleans are OR-ed.
func (c *Config) Merge(other *Config) *Config {
	if other == nil {
		return c
	}

	merged := *c

	if other.Source != "" {
		merged.Source = other.Source
	}
	if other.Mode != "" {
		merged.Mode = other.Mode
	}
	if other.RetainStyles {
		merged.RetainStyles = true
	}
	if other.ListsAsStructure {
		merged.ListsAsStructure = true
	}
	if other.MapClassRoles {
		merged.MapClassRoles = true
	}
	if other.CollapseLayoutTables {
		merged.CollapseLayoutTables = true
	}
	if other.DropLocalImages {
		merged.DropLocalImages = true
	}
	if other.BlankParagraphs != "" {
		merged.BlankParagraphs = other.BlankParagraphs
	}
	if other.MaxDepth > 0 {
		merged.MaxDepth = other.MaxDepth
	}
	if other.ClassifierThreshold > 0 {
		merged.ClassifierThreshold = other.ClassifierThreshold
	}
	if other.RulesFile != "" {
		merged.RulesFile = other.RulesFile
	}
	if other.Rules != nil {
		merged.Rules = other.Rules
	}
	if other.Debug {
		merged.Debug = true
	}

	return &merged
}

var validate = validator.New()

// Validate checks enum fields and numeric ranges.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid word filter config: %w", err)
	}
	return nil
}

func (c *Config) maxDepth() int {
	if c.MaxDepth <= 0 {
		return DefaultMaxDepth
	}
	return c.MaxDepth
}

func (c *Config) threshold() float64 {
	if c.ClassifierThreshold <= 0 {
		return DefaultClassifierThreshold
	}
	return c.ClassifierThreshold
}

func (c *Config) blankPolicy() BlankParagraphPolicy {
	if c.BlankParagraphs == "" {
		return BlankCollapse
	}
	return c.BlankParagraphs
}
