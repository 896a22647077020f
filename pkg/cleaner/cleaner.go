// Package cleaner provides interfaces and implementations for post-processing
// normalized paste HTML. Cleaners turn the filter's output into the format a
// host wants to insert: HTML, pretty-printed HTML, Markdown or plain text.
package cleaner

// Cleaner transforms HTML content into another representation.
// The word filter itself implements Cleaner, so it can head a chain.
type Cleaner interface {
	// Clean transforms the input HTML.
	// The output format depends on the implementation (markdown, plain text, etc.).
	Clean(html string) (string, error)

	// Name returns the cleaner type for logging/debugging.
	Name() string
}
