package pretokenize

import (
	"unicode"
	"unicode/utf8"

	"github.com/dlclark/regexp2"
)

// Whitespace keeps runs of word characters and runs of punctuation,
// dropping the whitespace between them.
type Whitespace struct {
	re *regexp2.Regexp
}

func NewWhitespace() *Whitespace {
	return &Whitespace{re: regexp2.MustCompile(`\w+|[^\w\s]+`, regexp2.None)}
}

func (w *Whitespace) PreTokenize(text string) ([]Split, error) {
	found, err := matches(w.re, text)
	if err != nil {
		return nil, err
	}
	out := make([]Split, 0, len(found))
	for _, o := range found {
		out = append(out, newSplit(text[o.Start:o.End], o.Start))
	}
	return out, nil
}

// WhitespaceSplit splits on unicode whitespace only.
type WhitespaceSplit struct{}

func (WhitespaceSplit) PreTokenize(text string) ([]Split, error) {
	var out []Split
	start := -1
	for i := 0; i < len(text); {
		r, size := utf8.DecodeRuneInString(text[i:])
		if unicode.IsSpace(r) {
			if start >= 0 {
				out = append(out, newSplit(text[start:i], start))
				start = -1
			}
		} else if start < 0 {
			start = i
		}
		i += size
	}
	if start >= 0 {
		out = append(out, newSplit(text[start:], start))
	}
	return out, nil
}
