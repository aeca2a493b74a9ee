// Package transcript turns the caption lines of a host transcript panel into
// one clean string: empty lines and adjacent repeats dropped, whitespace
// collapsed, punctuation spacing and the lowercase pronoun fixed.
package transcript

import (
	"regexp"
	"strings"
	"unicode"
)

// Segment is one caption line as rendered by the host. Timestamp is carried
// for completeness and never used by Normalize.
type Segment struct {
	Text      string `json:"text"`
	Timestamp string `json:"timestamp,omitempty"`
}

var (
	// Same class as the JavaScript \s escape.
	whitespaceRun = regexp.MustCompile(`[\s\v\p{Z}\x{FEFF}]+`)
	// A punctuation mark glued to the next character.
	gluedPunct = regexp.MustCompile(`([,.!?])([^ ])`)
	// The standalone lowercase pronoun.
	lowerI = regexp.MustCompile(`\bi\b`)
)

// Normalize builds the transcript string from segments in order. It is a
// pure function of its input.
func Normalize(segments []Segment) string {
	texts := make([]string, len(segments))
	for i, s := range segments {
		texts[i] = s.Text
	}
	return NormalizeText(texts)
}

// NormalizeText is Normalize over bare fragments.
func NormalizeText(fragments []string) string {
	kept := make([]string, 0, len(fragments))
	prev := ""
	for _, f := range fragments {
		f = trimSpace(f)
		if f == "" || f == prev {
			continue
		}
		prev = f
		kept = append(kept, f)
	}

	out := strings.Join(kept, " ")
	out = whitespaceRun.ReplaceAllString(out, " ")
	out = gluedPunct.ReplaceAllString(out, "$1 $2")
	out = lowerI.ReplaceAllString(out, "I")
	return out
}

func trimSpace(s string) string {
	return strings.TrimFunc(s, isSpace)
}

// isSpace matches whitespaceRun's class. U+0085 is not whitespace here.
func isSpace(r rune) bool {
	switch r {
	case '\t', '\n', '\v', '\f', '\r', '\uFEFF':
		return true
	}
	return unicode.Is(unicode.Z, r)
}
