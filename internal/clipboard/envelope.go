package clipboard

import (
	"bytes"
	"strconv"
	"strings"
)

// Envelope is a parsed Windows CF_HTML clipboard header. Offsets are byte
// positions in the whole payload; -1 means absent.
type Envelope struct {
	Version       string
	StartHTML     int
	EndHTML       int
	StartFragment int
	EndFragment   int
	SourceURL     string

	HTML     string
	Fragment string
}

const (
	startMarker = "<!--StartFragment-->"
	endMarker   = "<!--EndFragment-->"
)

// ParseEnvelope parses a CF_HTML header at the start of data. It reports
// false when data does not start with one. Offsets that do not fit the
// payload are replaced by the StartFragment/EndFragment comment markers,
// which several producers write more reliably than the numbers.
func ParseEnvelope(data []byte) (*Envelope, bool) {
	if !bytes.HasPrefix(data, []byte("Version:")) {
		return nil, false
	}

	env := &Envelope{StartHTML: -1, EndHTML: -1, StartFragment: -1, EndFragment: -1}
	headerEnd := 0
	rest := data
	for len(rest) > 0 && rest[0] != '<' {
		line := rest
		next := len(rest)
		if i := bytes.IndexAny(rest, "\r\n"); i >= 0 {
			line = rest[:i]
			next = i + 1
			if rest[i] == '\r' && i+1 < len(rest) && rest[i+1] == '\n' {
				next++
			}
		}
		headerEnd += next
		rest = rest[next:]

		key, value, ok := strings.Cut(string(line), ":")
		if !ok {
			continue
		}
		switch key {
		case "Version":
			env.Version = value
		case "StartHTML":
			env.StartHTML = offset(value)
		case "EndHTML":
			env.EndHTML = offset(value)
		case "StartFragment":
			env.StartFragment = offset(value)
		case "EndFragment":
			env.EndFragment = offset(value)
		case "SourceURL":
			env.SourceURL = value
		}
	}

	body := data[headerEnd:]

	if validRange(env.StartFragment, env.EndFragment, headerEnd, len(data)) {
		env.Fragment = string(data[env.StartFragment:env.EndFragment])
	} else if frag, ok := betweenMarkers(body); ok {
		env.Fragment = frag
	} else {
		env.Fragment = string(body)
	}

	if validRange(env.StartHTML, env.EndHTML, headerEnd, len(data)) {
		env.HTML = string(data[env.StartHTML:env.EndHTML])
	} else {
		env.HTML = string(body)
	}

	return env, true
}

// offset parses a header number. Producers zero-pad to ten digits.
func offset(v string) int {
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || n < 0 {
		return -1
	}
	return n
}

func validRange(start, end, min, size int) bool {
	return start >= min && end >= start && end <= size
}

func betweenMarkers(body []byte) (string, bool) {
	start := bytes.Index(body, []byte(startMarker))
	if start < 0 {
		return "", false
	}
	start += len(startMarker)
	end := bytes.Index(body[start:], []byte(endMarker))
	if end < 0 {
		return "", false
	}
	return string(body[start : start+end]), true
}
