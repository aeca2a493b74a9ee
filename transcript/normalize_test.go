package transcript

import (
	"strings"
	"testing"
)

func TestNormalize_Example(t *testing.T) {
	got := NormalizeText([]string{"Hello", "Hello", "world.", "i think"})
	if want := "Hello world. I think"; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestNormalize_DropsEmpty(t *testing.T) {
	got := NormalizeText([]string{"", "  ", "a", "\n\t", "b"})
	if got != "a b" {
		t.Fatalf("got %q", got)
	}
}

func TestNormalize_AdjacentDedupOnly(t *testing.T) {
	// Non-adjacent repeats survive; an empty line between repeats does not
	// break adjacency because empty lines are never retained.
	got := NormalizeText([]string{"yes", "no", "yes", "", "yes"})
	if want := "yes no yes"; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestNormalize_DedupComparesTrimmedText(t *testing.T) {
	got := NormalizeText([]string{"  same ", "same"})
	if got != "same" {
		t.Fatalf("got %q", got)
	}
}

func TestNormalize_DedupIsExact(t *testing.T) {
	got := NormalizeText([]string{"Hello", "hello"})
	if got != "Hello hello" {
		t.Fatalf("got %q", got)
	}
}

func TestNormalize_TrimMatchesJavaScript(t *testing.T) {
	// NEL is not trimmed, so "\u0085a" is not a repeat of "a".
	got := NormalizeText([]string{"a", "\u0085a", "b\u0085"})
	if want := "a \u0085a b\u0085"; got != want {
		t.Fatalf("NEL: got %q, want %q", got, want)
	}
	got = NormalizeText([]string{"a", "\u00a0a\uFEFF", "\u2028b\v"})
	if got != "a b" {
		t.Fatalf("no-break space, BOM, line separator: got %q", got)
	}
}

func TestNormalize_CollapsesWhitespace(t *testing.T) {
	got := NormalizeText([]string{"a  b", "c\n\nd"})
	if got != "a b c d" {
		t.Fatalf("got %q", got)
	}
}

func TestNormalize_PunctuationSpacing(t *testing.T) {
	cases := map[string]string{
		"one,two":     "one, two",
		"stop.Go":     "stop. Go",
		"wow!really?": "wow! really?",
		"end.":        "end.",
		"wait...":     "wait. ..",
		"3.14":        "3. 14",
	}
	for in, want := range cases {
		if got := NormalizeText([]string{in}); got != want {
			t.Errorf("%q: got %q, want %q", in, got, want)
		}
	}
}

func TestNormalize_Pronoun(t *testing.T) {
	cases := map[string]string{
		"i am here":    "I am here",
		"so i'm told":  "so I'm told",
		"it is":        "it is",
		"hi there":     "hi there",
		"I already am": "I already am",
		"and i":        "and I",
	}
	for in, want := range cases {
		if got := NormalizeText([]string{in}); got != want {
			t.Errorf("%q: got %q, want %q", in, got, want)
		}
	}
}

func TestNormalize_Deterministic(t *testing.T) {
	in := []Segment{{Text: "a"}, {Text: "a"}, {Text: "b,c"}, {Text: "i"}}
	first := Normalize(in)
	for i := 0; i < 10; i++ {
		if got := Normalize(in); got != first {
			t.Fatalf("run %d: got %q, want %q", i, got, first)
		}
	}
}

func TestNormalize_IgnoresTimestamp(t *testing.T) {
	a := Normalize([]Segment{{Text: "x", Timestamp: "0:01"}, {Text: "x", Timestamp: "0:02"}})
	if a != "x" {
		t.Fatalf("got %q", a)
	}
}

func TestNormalize_NoAdjacentRetainedDuplicates(t *testing.T) {
	inputs := [][]string{
		{"a", "a", "a"},
		{"a", " a", "a ", "b", "b", "a"},
		{"", "x", "", "x", "y", "", "y"},
	}
	for _, in := range inputs {
		var kept []string
		prev := ""
		for _, f := range in {
			f = strings.TrimSpace(f)
			if f == "" || f == prev {
				continue
			}
			prev = f
			kept = append(kept, f)
		}
		for i := 1; i < len(kept); i++ {
			if kept[i] == kept[i-1] {
				t.Fatalf("%v: adjacent duplicate %q retained", in, kept[i])
			}
		}
		if got, want := NormalizeText(in), strings.Join(kept, " "); got != want {
			t.Errorf("%v: got %q, want %q", in, got, want)
		}
	}
}
