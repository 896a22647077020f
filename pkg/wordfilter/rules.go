package wordfilter

import (
	_ "embed"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed rules.yaml
var defaultRulesYAML []byte

// Action is what a matching rule does to its element.
type Action string

const (
	// ActionWrap wraps the element content in Tag (strong, em, u, s, sup, sub).
	ActionWrap Action = "wrap"
	// ActionAlign sets align on block elements.
	ActionAlign Action = "align"
	// ActionList marks the element as a list paragraph.
	ActionList Action = "list"
	// ActionIndent records a margin used as a list level fallback.
	ActionIndent Action = "indent"
	// ActionHide removes the element and its subtree.
	ActionHide Action = "hide"
	// ActionDecor flags table elements as visually decorated.
	ActionDecor Action = "decor"
	// ActionPlaceholder flags phantom merge cells.
	ActionPlaceholder Action = "placeholder"
	// ActionRetain keeps the declaration when styles are retained.
	ActionRetain Action = "retain"
	// ActionRename changes the element tag (class rules only).
	ActionRename Action = "rename"
)

// StyleRule maps a producer style declaration to a semantic action.
type StyleRule struct {
	// Property is the CSS property name. A trailing "*" matches by prefix.
	Property string `yaml:"property" validate:"required"`
	// Match is a case-insensitive RE2 pattern tested against the value.
	Match string `yaml:"match" validate:"required"`
	// Negate inverts the value match.
	Negate bool   `yaml:"negate,omitempty"`
	Action Action `yaml:"action" validate:"required,oneof=wrap align list indent hide decor placeholder retain"`
	// Tag is the wrapping element for wrap rules.
	Tag string `yaml:"tag,omitempty" validate:"omitempty,oneof=strong em u s sup sub"`

	re *regexp.Regexp
}

// ClassRule maps a producer paragraph class to a tag rename or list hint.
type ClassRule struct {
	// Match is a case-insensitive RE2 pattern tested against one class token.
	Match  string `yaml:"match" validate:"required"`
	Action Action `yaml:"action" validate:"required,oneof=rename list"`
	// Tag is the new element name for rename rules.
	Tag string `yaml:"tag,omitempty" validate:"omitempty,oneof=p h1 h2 h3 h4 h5 h6 blockquote"`
	// Kind is the list kind hint for list rules; empty leaves it to glyph inference.
	Kind string `yaml:"kind,omitempty" validate:"omitempty,oneof=ordered unordered"`

	re *regexp.Regexp
}

// RuleSet is an immutable, compiled set of style and class rules.
// It is safe for concurrent use once returned by DefaultRules or LoadRules.
type RuleSet struct {
	Styles  []StyleRule `yaml:"styles" validate:"dive"`
	Classes []ClassRule `yaml:"classes" validate:"dive"`
}

var (
	defaultRules    *RuleSet
	defaultRulesErr error
	defaultOnce     sync.Once
)

// DefaultRules returns the built-in rule set. It panics if the embedded
// rules are invalid, which is a build defect.
func DefaultRules() *RuleSet {
	defaultOnce.Do(func() {
		defaultRules, defaultRulesErr = parseRules(defaultRulesYAML)
	})
	if defaultRulesErr != nil {
		panic(fmt.Sprintf("wordfilter: embedded rules: %v", defaultRulesErr))
	}
	return defaultRules
}

// LoadRules reads a YAML rule set.
func LoadRules(r io.Reader) (*RuleSet, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules: %w", err)
	}
	return parseRules(data)
}

// LoadRulesFile reads a YAML rule set from disk.
func LoadRulesFile(path string) (*RuleSet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open rules file: %w", err)
	}
	defer f.Close()

	rs, err := LoadRules(f)
	if err != nil {
		return nil, fmt.Errorf("rules file %s: %w", path, err)
	}
	return rs, nil
}

func parseRules(data []byte) (*RuleSet, error) {
	var rs RuleSet
	if err := yaml.Unmarshal(data, &rs); err != nil {
		return nil, fmt.Errorf("failed to parse rules: %w", err)
	}
	if err := rs.compile(); err != nil {
		return nil, err
	}
	return &rs, nil
}

func (rs *RuleSet) compile() error {
	if err := validate.Struct(rs); err != nil {
		return fmt.Errorf("invalid rules: %w", err)
	}
	for i := range rs.Styles {
		r := &rs.Styles[i]
		r.Property = strings.ToLower(strings.TrimSpace(r.Property))
		if r.Action == ActionWrap && r.Tag == "" {
			return fmt.Errorf("style rule %d (%s): wrap needs a tag", i, r.Property)
		}
		re, err := regexp.Compile("(?i)" + r.Match)
		if err != nil {
			return fmt.Errorf("style rule %d (%s): %w", i, r.Property, err)
		}
		r.re = re
	}
	for i := range rs.Classes {
		r := &rs.Classes[i]
		if r.Action == ActionRename && r.Tag == "" {
			return fmt.Errorf("class rule %d: rename needs a tag", i)
		}
		re, err := regexp.Compile("(?i)" + r.Match)
		if err != nil {
			return fmt.Errorf("class rule %d: %w", i, err)
		}
		r.re = re
	}
	return nil
}

// Extend returns a new rule set with extra's rules ahead of the receiver's.
// Class rules are first-match, so extra takes precedence there.
func (rs *RuleSet) Extend(extra *RuleSet) *RuleSet {
	if extra == nil {
		return rs
	}
	out := &RuleSet{
		Styles:  make([]StyleRule, 0, len(extra.Styles)+len(rs.Styles)),
		Classes: make([]ClassRule, 0, len(extra.Classes)+len(rs.Classes)),
	}
	out.Styles = append(out.Styles, extra.Styles...)
	out.Styles = append(out.Styles, rs.Styles...)
	out.Classes = append(out.Classes, extra.Classes...)
	out.Classes = append(out.Classes, rs.Classes...)
	return out
}

func (r *StyleRule) matchesProperty(prop string) bool {
	if strings.HasSuffix(r.Property, "*") {
		return strings.HasPrefix(prop, strings.TrimSuffix(r.Property, "*"))
	}
	return prop == r.Property
}

// MatchStyle returns every rule that applies to the declaration.
func (rs *RuleSet) MatchStyle(property, value string) []StyleRule {
	property = strings.ToLower(strings.TrimSpace(property))
	value = strings.TrimSpace(value)

	var out []StyleRule
	for _, r := range rs.Styles {
		if r.re == nil || !r.matchesProperty(property) {
			continue
		}
		if r.re.MatchString(value) != r.Negate {
			out = append(out, r)
		}
	}
	return out
}

// MatchClass returns the first rule matching a class token.
func (rs *RuleSet) MatchClass(class string) (ClassRule, bool) {
	for _, r := range rs.Classes {
		if r.re != nil && r.re.MatchString(class) {
			return r, true
		}
	}
	return ClassRule{}, false
}

var trailingDigits = regexp.MustCompile(`([0-9]+)$`)

// classLevel returns the list level encoded in a class name suffix such as
// MsoListBullet2. explicit is false when the class carries no level.
func classLevel(class string) (level int, explicit bool) {
	m := trailingDigits.FindStringSubmatch(class)
	if m == nil {
		return 1, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n < 1 || n > 9 {
		return 1, false
	}
	return n, true
}
