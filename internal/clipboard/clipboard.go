// Package clipboard reads paste payloads saved from a clipboard or piped in
// on stdin. It unwraps the Windows CF_HTML envelope, decodes legacy
// charsets to UTF-8 and rejects payloads that are not text.
package clipboard

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/gabriel-vasile/mimetype"
	"golang.org/x/net/html/charset"

	"github.com/jmylchreest/wordpaste/internal/logger"
)

// DefaultMaxSize bounds a single payload.
const DefaultMaxSize = 32 << 20

// ErrNotHTML is returned for payloads that cannot be HTML (images, PDFs,
// RTF, office archives).
var ErrNotHTML = errors.New("payload is not HTML")

// Payload is a decoded paste.
type Payload struct {
	// HTML is the document context: the CF_HTML StartHTML..EndHTML range,
	// or the whole payload when there is no envelope.
	HTML string `json:"-" yaml:"-"`

	// Fragment is the selected part. Without an envelope it equals HTML.
	Fragment string `json:"-" yaml:"-"`

	// SourceURL is the CF_HTML SourceURL header, if any.
	SourceURL string `json:"source_url,omitempty" yaml:"source_url,omitempty"`

	// MIME is the detected media type of the raw payload.
	MIME string `json:"mime" yaml:"mime"`

	// Charset is the encoding the payload was decoded from.
	Charset string `json:"charset" yaml:"charset"`

	// Envelope is true when a CF_HTML header was found.
	Envelope bool `json:"cf_html" yaml:"cf_html"`

	// Size is the raw payload size in bytes.
	Size int `json:"size" yaml:"size"`
}

// Content returns what should be handed to the filter: the full document
// context, which carries the generator metadata and Word stylesheet the
// classifier looks for.
func (p *Payload) Content() string {
	if p.HTML != "" {
		return p.HTML
	}
	return p.Fragment
}

// Reader reads payloads with a size limit.
type Reader struct {
	maxSize int64
}

// NewReader creates a payload reader. A maxSize of zero or less selects
// DefaultMaxSize.
func NewReader(maxSize int64) *Reader {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	return &Reader{maxSize: maxSize}
}

// ReadFile reads a payload from a file; "-" reads stdin.
func (r *Reader) ReadFile(path string) (*Payload, error) {
	if path == "-" {
		return r.Read(os.Stdin)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open payload: %w", err)
	}
	defer func() { _ = f.Close() }()
	return r.Read(f)
}

// Read reads and decodes a payload.
func (r *Reader) Read(in io.Reader) (*Payload, error) {
	data, err := io.ReadAll(io.LimitReader(in, r.maxSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read payload: %w", err)
	}
	if int64(len(data)) > r.maxSize {
		return nil, fmt.Errorf("payload exceeds %s limit", humanize.IBytes(uint64(r.maxSize)))
	}
	return Decode(data)
}

// Decode turns raw clipboard bytes into a Payload.
func Decode(data []byte) (*Payload, error) {
	if env, ok := ParseEnvelope(data); ok {
		// CF_HTML is UTF-8 by definition.
		p := &Payload{
			HTML:      env.HTML,
			Fragment:  env.Fragment,
			SourceURL: env.SourceURL,
			MIME:      "text/html",
			Charset:   "utf-8",
			Envelope:  true,
			Size:      len(data),
		}
		logger.Debug("clipboard envelope decoded",
			"version", env.Version,
			"fragment_bytes", len(env.Fragment),
			"source_url", env.SourceURL,
		)
		return p, nil
	}

	mt := mimetype.Detect(data)
	if !isText(mt) {
		return nil, fmt.Errorf("%w: detected %s", ErrNotHTML, mt.String())
	}

	enc, name, _ := charset.DetermineEncoding(data, "text/html")
	if isASCII(data) {
		// Every supported charset agrees on ASCII.
		name = "utf-8"
	}
	decoded := data
	if name != "utf-8" {
		out, err := enc.NewDecoder().Bytes(data)
		if err != nil {
			return nil, fmt.Errorf("failed to decode %s payload: %w", name, err)
		}
		decoded = out
	}
	text := string(bytes.TrimPrefix(decoded, []byte("\xef\xbb\xbf")))

	logger.Debug("clipboard payload decoded",
		"mime", mt.String(),
		"charset", name,
		"size", humanize.Bytes(uint64(len(data))),
	)

	return &Payload{
		HTML:     text,
		Fragment: text,
		MIME:     mimeType(mt),
		Charset:  name,
		Size:     len(data),
	}, nil
}

func isASCII(data []byte) bool {
	for _, b := range data {
		if b >= 0x80 {
			return false
		}
	}
	return true
}

// isText reports whether mt is text that is not another document format.
func isText(mt *mimetype.MIME) bool {
	if mt.Is("text/rtf") {
		return false
	}
	for m := mt; m != nil; m = m.Parent() {
		if m.Is("text/plain") {
			return true
		}
	}
	return false
}

// mimeType strips parameters from the detected type.
func mimeType(mt *mimetype.MIME) string {
	s := mt.String()
	if i := strings.IndexByte(s, ';'); i >= 0 {
		s = s[:i]
	}
	return s
}
