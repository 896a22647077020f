package wordfilter

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Stats captures metrics about what the filter did.
type Stats struct {
	// Size metrics
	InputBytes  int `json:"input_bytes" yaml:"input_bytes"`
	OutputBytes int `json:"output_bytes" yaml:"output_bytes"`

	// Element counts
	ElementsRemoved map[string]int `json:"elements_removed" yaml:"elements_removed"` // tag -> count
	ElementsKept    int            `json:"elements_kept" yaml:"elements_kept"`

	// Junk pass
	CommentsRemoved   int `json:"comments_removed" yaml:"comments_removed"`
	AttributesRemoved int `json:"attributes_removed" yaml:"attributes_removed"`
	ImagesDropped     int `json:"images_dropped" yaml:"images_dropped"`

	// Style pass
	StylesMapped          int `json:"styles_mapped" yaml:"styles_mapped"`
	StylesDropped         int `json:"styles_dropped" yaml:"styles_dropped"`
	HiddenElementRemovals int `json:"hidden_element_removals" yaml:"hidden_element_removals"`

	// Lists and tables
	ListsBuilt      int `json:"lists_built" yaml:"lists_built"`
	ListItems       int `json:"list_items" yaml:"list_items"`
	TablesCollapsed int `json:"tables_collapsed" yaml:"tables_collapsed"`
	CellsDropped    int `json:"cells_dropped" yaml:"cells_dropped"`

	// Pruning
	EmptyElementRemovals int `json:"empty_element_removals" yaml:"empty_element_removals"`
	ElementsUnwrapped    int `json:"elements_unwrapped" yaml:"elements_unwrapped"`
	BlankParagraphs      int `json:"blank_paragraphs_removed" yaml:"blank_paragraphs_removed"`

	// Limits
	DepthGuardHits int `json:"depth_guard_hits" yaml:"depth_guard_hits"`

	// Timing
	ParseDuration     time.Duration `json:"parse_duration_ms" yaml:"parse_duration_ms"`
	TransformDuration time.Duration `json:"transform_duration_ms" yaml:"transform_duration_ms"`
	OutputDuration    time.Duration `json:"output_duration_ms" yaml:"output_duration_ms"`
	TotalDuration     time.Duration `json:"total_duration_ms" yaml:"total_duration_ms"`
}

// NewStats creates a new Stats instance with initialized maps.
func NewStats() *Stats {
	return &Stats{
		ElementsRemoved: make(map[string]int),
	}
}

// ReductionPercent returns the percentage reduction in size.
func (s *Stats) ReductionPercent() float64 {
	if s.InputBytes == 0 {
		return 0
	}
	return float64(s.InputBytes-s.OutputBytes) / float64(s.InputBytes) * 100
}

// TotalElementsRemoved returns the sum of all removed elements.
func (s *Stats) TotalElementsRemoved() int {
	total := 0
	for _, count := range s.ElementsRemoved {
		total += count
	}
	return total
}

// RecordRemoval records that an element was removed.
func (s *Stats) RecordRemoval(tag string) {
	s.ElementsRemoved[strings.ToLower(tag)]++
}

// String returns a human-readable summary of the stats.
func (s *Stats) String() string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Size: %d -> %d bytes (%.1f%% reduction)\n",
		s.InputBytes, s.OutputBytes, s.ReductionPercent()))

	sb.WriteString(fmt.Sprintf("Elements: %d removed, %d unwrapped, %d kept\n",
		s.TotalElementsRemoved(), s.ElementsUnwrapped, s.ElementsKept))

	if len(s.ElementsRemoved) > 0 {
		sb.WriteString("Removed by tag: ")
		tags := make([]string, 0, len(s.ElementsRemoved))
		for tag := range s.ElementsRemoved {
			tags = append(tags, tag)
		}
		sort.Strings(tags)
		parts := make([]string, 0, len(tags))
		for _, tag := range tags {
			parts = append(parts, fmt.Sprintf("%s=%d", tag, s.ElementsRemoved[tag]))
		}
		sb.WriteString(strings.Join(parts, ", "))
		sb.WriteString("\n")
	}

	if s.AttributesRemoved > 0 {
		sb.WriteString(fmt.Sprintf("Attributes removed: %d\n", s.AttributesRemoved))
	}

	if s.StylesMapped > 0 || s.StylesDropped > 0 {
		sb.WriteString(fmt.Sprintf("Styles: %d mapped, %d dropped\n", s.StylesMapped, s.StylesDropped))
	}

	if s.ListsBuilt > 0 {
		sb.WriteString(fmt.Sprintf("Lists: %d built, %d items\n", s.ListsBuilt, s.ListItems))
	}

	if s.TablesCollapsed > 0 || s.CellsDropped > 0 {
		sb.WriteString(fmt.Sprintf("Tables: %d collapsed, %d cells dropped\n", s.TablesCollapsed, s.CellsDropped))
	}

	if s.ImagesDropped > 0 {
		sb.WriteString(fmt.Sprintf("Images dropped: %d\n", s.ImagesDropped))
	}

	if s.DepthGuardHits > 0 {
		sb.WriteString(fmt.Sprintf("Depth guard hits: %d\n", s.DepthGuardHits))
	}

	sb.WriteString(fmt.Sprintf("Timing: parse=%v, transform=%v, output=%v, total=%v\n",
		s.ParseDuration.Round(time.Microsecond),
		s.TransformDuration.Round(time.Microsecond),
		s.OutputDuration.Round(time.Microsecond),
		s.TotalDuration.Round(time.Microsecond)))

	return sb.String()
}

// Warning represents a non-fatal issue encountered during normalization.
type Warning struct {
	Phase   string `json:"phase" yaml:"phase"`     // "config", "parse", "transform", "output"
	Message string `json:"message" yaml:"message"` // Human-readable description
	Context string `json:"context" yaml:"context"` // Element or setting that caused the issue
}

// String returns a formatted warning message.
func (w Warning) String() string {
	if w.Context != "" {
		return fmt.Sprintf("[%s] %s (context: %s)", w.Phase, w.Message, w.Context)
	}
	return fmt.Sprintf("[%s] %s", w.Phase, w.Message)
}

// Result contains the output of a normalization.
type Result struct {
	// Content is the normalized HTML. It is always safe to insert.
	Content string `json:"content" yaml:"content"`

	// Verdict is the classifier result for the input.
	Verdict Verdict `json:"verdict" yaml:"verdict"`

	// Normalized is false when the input was returned untouched because it
	// was not word-processor content.
	Normalized bool `json:"normalized" yaml:"normalized"`

	// Source and Mode echo the host context the call was made with.
	Source Source `json:"source" yaml:"source"`
	Mode   Mode   `json:"mode" yaml:"mode"`

	// Stats contains metrics about what was done.
	Stats *Stats `json:"stats" yaml:"stats"`

	// Warnings contains non-fatal issues encountered.
	Warnings []Warning `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

// AddWarning adds a warning to the result.
func (r *Result) AddWarning(phase, message, context string) {
	r.Warnings = append(r.Warnings, Warning{
		Phase:   phase,
		Message: message,
		Context: context,
	})
}

// HasWarnings returns true if any warnings were recorded.
func (r *Result) HasWarnings() bool {
	return len(r.Warnings) > 0
}
