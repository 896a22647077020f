package cleaner

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jmylchreest/wordpaste/pkg/wordfilter"
)

// The word filter heads every production chain.
var _ Cleaner = (*wordfilter.Filter)(nil)

// readTestdata reads a file from the testdata directory
func readTestdata(t *testing.T, filename string) string {
	t.Helper()
	path := filepath.Join("testdata", filename)
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read testdata %s: %v", filename, err)
	}
	return string(data)
}

// --- NoopCleaner Tests ---

func TestNoopCleaner_Clean(t *testing.T) {
	c := NewNoop()

	tests := []struct {
		name  string
		input string
	}{
		{"empty_string", ""},
		{"plain_text", "Hello, World!"},
		{"html_content", "<p><strong>Title</strong></p>"},
		{"whitespace", "  \n\t  "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := c.Clean(tt.input)
			if err != nil {
				t.Errorf("Clean() error = %v, want nil", err)
			}
			if got != tt.input {
				t.Errorf("Clean() = %q, want %q", got, tt.input)
			}
		})
	}
}

func TestNoopCleaner_Name(t *testing.T) {
	c := NewNoop()
	if got := c.Name(); got != "noop" {
		t.Errorf("Name() = %q, want %q", got, "noop")
	}
}

// --- ChainCleaner Tests ---

func TestChainCleaner_Empty(t *testing.T) {
	c := NewChain()

	input := "unchanged content"
	got, err := c.Clean(input)
	if err != nil {
		t.Fatalf("Clean() error = %v", err)
	}

	if got != input {
		t.Errorf("Clean() = %q, want %q", got, input)
	}
	if c.Len() != 0 {
		t.Errorf("Len() = %d, want 0", c.Len())
	}
}

func TestChainCleaner_WordFilterThenMarkdown(t *testing.T) {
	c := NewChain(wordfilter.New(nil), NewMarkdown())

	raw := `<p class=MsoTitle style="mso-margin-top-alt:auto">Title<o:p></o:p></p>` +
		`<p class=MsoNormal><b>Content</b></p>`
	got, err := c.Clean(raw)
	if err != nil {
		t.Fatalf("Clean() error = %v", err)
	}

	if got != "# Title\n\n**Content**" {
		t.Errorf("unexpected markdown %q", got)
	}
}

func TestChainCleaner_NonWordPassesThrough(t *testing.T) {
	c := NewChain(wordfilter.New(nil), NewNoop())

	raw := `<p class="intro" style="color:red">web page</p>`
	got, err := c.Clean(raw)
	if err != nil {
		t.Fatalf("Clean() error = %v", err)
	}
	if got != raw {
		t.Errorf("expected non-word content untouched, got %q", got)
	}
}

// errorCleaner is a test cleaner that always returns an error
type errorCleaner struct{}

func (c *errorCleaner) Clean(html string) (string, error) {
	return "", errors.New("test error")
}

func (c *errorCleaner) Name() string {
	return "error"
}

func TestChainCleaner_ErrorPropagation(t *testing.T) {
	c := NewChain(NewNoop(), &errorCleaner{}, NewMarkdown())

	_, err := c.Clean("test")
	if err == nil {
		t.Fatal("expected error to propagate")
	}

	if err.Error() != "error: test error" {
		t.Errorf("expected error naming the cleaner, got %v", err)
	}
}

func TestChainCleaner_Name(t *testing.T) {
	tests := []struct {
		name     string
		cleaners []Cleaner
		want     string
	}{
		{"empty", []Cleaner{}, "chain()"},
		{"single", []Cleaner{NewNoop()}, "chain(noop)"},
		{"double", []Cleaner{NewNoop(), NewMarkdown()}, "chain(noop->markdown)"},
		{"production", []Cleaner{wordfilter.New(nil), NewText()}, "chain(wordfilter->text)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewChain(tt.cleaners...)
			if got := c.Name(); got != tt.want {
				t.Errorf("Name() = %q, want %q", got, tt.want)
			}
		})
	}
}

// --- TextCleaner Tests ---

func TestTextCleaner_Clean(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", ""},
		{"paragraphs on their own lines", "<p>a</p><p>b</p>", "a\nb"},
		{"inline elements joined", "<p><strong>bold</strong> and <em>it</em></p>", "bold and it"},
		{"blank paragraph is a blank line", "<p>a</p><p>&nbsp;</p><p>b</p>", "a\n\nb"},
		{"line breaks", "<p>a<br />b</p>", "a\nb"},
		{"list items prefixed", "<ul><li>x</li><li>y</li></ul>", "- x\n- y"},
		{"table cells tab separated", "<table><tbody><tr><td>a</td><td>b</td></tr></tbody></table>", "a\tb"},
		{"pre kept", "<pre>a  b\n  c</pre>", "a  b\n  c"},
		{"whitespace collapsed", "<p>  a \n b </p>", "a b"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewText().Clean(tt.input)
			if err != nil {
				t.Fatalf("Clean() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Clean() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTextCleaner_FromTestdata(t *testing.T) {
	got, err := NewText().Clean(readTestdata(t, "normalized.html"))
	if err != nil {
		t.Fatalf("Clean() error = %v", err)
	}

	want := "Quarterly Report\n" +
		"The Revenue figures are final. See the full report.\n" +
		"\n" +
		"- Apples\n" +
		"- Green\n" +
		"- Pears\n" +
		"Region\tRevenue\n" +
		"North\t42\n" +
		"Closing paragraph."
	if got != want {
		t.Errorf("got  %q\nwant %q", got, want)
	}
}

func TestTextCleaner_Name(t *testing.T) {
	if got := NewText().Name(); got != "text" {
		t.Errorf("Name() = %q, want %q", got, "text")
	}
}

// --- PrettyCleaner Tests ---

func TestPrettyCleaner_Clean(t *testing.T) {
	c := NewPretty()

	got, err := c.Clean("<ul><li>a</li><li>b</li></ul>")
	if err != nil {
		t.Fatalf("Clean() error = %v", err)
	}
	if strings.Count(got, "\n") < 3 {
		t.Errorf("expected one element per line, got %q", got)
	}
	for _, want := range []string{"<ul>", "<li>", "a", "b", "</ul>"} {
		if !strings.Contains(got, want) {
			t.Errorf("expected %q in output, got %q", want, got)
		}
	}

	got, err = c.Clean("  ")
	if err != nil || got != "" {
		t.Errorf("expected empty output for blank input, got %q, %v", got, err)
	}
}

func TestPrettyCleaner_Name(t *testing.T) {
	if got := NewPretty().Name(); got != "pretty" {
		t.Errorf("Name() = %q, want %q", got, "pretty")
	}
}
