package wordfilter

import (
	"regexp"
	"strings"
)

// Signal is one word-processor fingerprint.
type Signal int

const (
	// SignalNamespace is an Office XML namespace declaration inside a tag.
	SignalNamespace Signal = iota
	// SignalMsoStyle is an mso- declaration in a style attribute or block.
	SignalMsoStyle
	// SignalConditional is Office conditional markup (<!--[if ...]> or <![if ...]>).
	SignalConditional
	// SignalOfficeOnline is the OutlineElement class of Word Online exports.
	SignalOfficeOnline
	// SignalGenerator is Word generator or ProgId metadata.
	SignalGenerator
	// SignalMsoClass is an Mso* class name.
	SignalMsoClass
	// SignalVendorTag is an o:, w:, v: or st1: element tag.
	SignalVendorTag
	// SignalGoogleDocs is the docs-internal-guid wrapper id.
	SignalGoogleDocs
	// SignalFontFace is a font tag or Office font stack typical of Word output.
	SignalFontFace

	signalCount
)

var signalNames = [signalCount]string{
	SignalNamespace:    "namespace",
	SignalMsoStyle:     "mso-style",
	SignalConditional:  "conditional",
	SignalOfficeOnline: "office-online",
	SignalGenerator:    "generator",
	SignalMsoClass:     "mso-class",
	SignalVendorTag:    "vendor-tag",
	SignalGoogleDocs:   "google-docs",
	SignalFontFace:     "font-face",
}

// String returns the signal name used in reports.
func (s Signal) String() string {
	if s < 0 || s >= signalCount {
		return "unknown"
	}
	return signalNames[s]
}

// MarshalText lets signals appear by name in JSON and YAML reports.
func (s Signal) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Strong reports whether the signal alone is enough for a positive verdict.
func (s Signal) Strong() bool {
	if s < 0 || s >= signalCount {
		return false
	}
	return detectors[s].weight == 0
}

// Weight is the score a weak signal contributes. Strong signals report 0.
func (s Signal) Weight() float64 {
	if s < 0 || s >= signalCount {
		return 0
	}
	return detectors[s].weight
}

type detector struct {
	// weight is 0 for strong signals.
	weight float64
	re     *regexp.Regexp
}

// Every pattern requires a tag or attribute context so that text which
// merely talks about Word markup (escaped in normalized output) never matches.
var detectors = [signalCount]detector{
	SignalNamespace: {
		re: regexp.MustCompile(`(?i)<[^>]*\sxmlns:[a-z0-9]+\s*=\s*["']urn:schemas-microsoft-com:office`),
	},
	SignalMsoStyle: {
		// Each attribute quote style is matched separately: Word single-quotes
		// style attributes that contain double-quoted font names.
		re: regexp.MustCompile(`(?i)(style\s*=\s*"[^"]*\bmso-[a-z-]+\s*:|style\s*=\s*'[^']*\bmso-[a-z-]+\s*:|<style[^>]*>(?:[^<]|<!--)*mso-[a-z-]+\s*:)`),
	},
	SignalConditional: {
		re: regexp.MustCompile(`(?i)(<!--\s*\[if\s[^\]]*\]|<!\[if\s[^\]]*\]>|<!\[endif\]>|<!\[endif\]-->)`),
	},
	SignalOfficeOnline: {
		re: regexp.MustCompile(`(?i)class\s*=\s*["']OutlineElement`),
	},
	SignalGenerator: {
		weight: 0.6,
		re:     regexp.MustCompile(`(?i)(<meta[^>]*content\s*=\s*["']?(Microsoft Word|Word\.Document)|<w:WordDocument)`),
	},
	SignalMsoClass: {
		weight: 0.5,
		re:     regexp.MustCompile(`(?i)<[a-z][a-z0-9]*\s[^>]*class\s*=\s*["']?[^"'>]*\bMso[A-Za-z]+[0-9]*`),
	},
	SignalVendorTag: {
		weight: 0.4,
		re:     regexp.MustCompile(`(?i)</?(o|w|v|st1|m):[a-z]+[\s>/]`),
	},
	SignalGoogleDocs: {
		weight: 0.8,
		re:     regexp.MustCompile(`(?i)\sid\s*=\s*["']docs-internal-guid-`),
	},
	SignalFontFace: {
		weight: 0.3,
		re:     regexp.MustCompile(`(?i)(<font[^>]*\sface\s*=\s*["']?(Times New Roman|Calibri|Cambria|Symbol|Wingdings)|<style[^>]*>(?:[^<]|<!--)*panose-1\s*:)`),
	},
}

// Detect reports whether a single signal is present in raw.
func Detect(raw string, s Signal) bool {
	if s < 0 || s >= signalCount {
		return false
	}
	return detectors[s].re.MatchString(raw)
}

// Verdict is the result of classifying a fragment.
type Verdict struct {
	// Signals lists every signal found, in enumeration order.
	Signals []Signal `json:"signals" yaml:"signals"`
	// Score is the sum of weak signal weights.
	Score float64 `json:"score" yaml:"score"`
	// Strong is true when a strong signal fired.
	Strong bool `json:"strong" yaml:"strong"`
	// IsWord is the final decision.
	IsWord bool `json:"is_word" yaml:"is_word"`
}

// Has reports whether the verdict includes a signal.
func (v Verdict) Has(s Signal) bool {
	for _, got := range v.Signals {
		if got == s {
			return true
		}
	}
	return false
}

// Classify evaluates every signal against raw and combines them with the
// default threshold.
func Classify(raw string) Verdict {
	return classify(raw, DefaultClassifierThreshold)
}

// IsWordContent reports whether raw looks like word-processor output.
func IsWordContent(raw string) bool {
	return Classify(raw).IsWord
}

func classify(raw string, threshold float64) Verdict {
	var v Verdict
	if raw == "" || !strings.Contains(raw, "<") {
		return v
	}

	for s := Signal(0); s < signalCount; s++ {
		if !detectors[s].re.MatchString(raw) {
			continue
		}
		v.Signals = append(v.Signals, s)
		if s.Strong() {
			v.Strong = true
		} else {
			v.Score += detectors[s].weight
		}
	}

	// Round away float noise so 0.5+0.3 meets a 0.8 threshold.
	v.Score = float64(int(v.Score*1000+0.5)) / 1000
	v.IsWord = v.Strong || v.Score >= threshold
	return v
}
