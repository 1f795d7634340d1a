// Package pretokenize splits raw text into words before they reach a model.
// Every word remembers where each of its bytes came from, so offsets
// produced by a model can be mapped back onto the original text.
package pretokenize

import (
	"errors"

	"github.com/dlclark/regexp2"

	"github.com/samcharles93/subword/internal/encoding"
)

// ErrUnsupported is returned when a serialized pre-tokenizer names a type
// this package does not implement.
var ErrUnsupported = errors.New("unsupported pre-tokenizer")

// PreTokenizer splits text into words.
type PreTokenizer interface {
	PreTokenize(text string) ([]Split, error)
}

// Split is one word and the byte range of the source text it covers.
type Split struct {
	Value   string
	Offsets encoding.Offsets

	// align holds, for every byte of Value plus the end position, the
	// source byte it was produced from.
	align []int
}

func newSplit(value string, start int) Split {
	align := make([]int, len(value)+1)
	for i := range align {
		align[i] = start + i
	}
	return Split{Value: value, Offsets: encoding.Offsets{Start: start, End: start + len(value)}, align: align}
}

// Map converts offsets relative to Value into offsets in the source text.
func (s Split) Map(o encoding.Offsets) encoding.Offsets {
	if len(s.align) == 0 {
		return encoding.Offsets{Start: s.Offsets.Start + o.Start, End: s.Offsets.Start + o.End}
	}
	last := len(s.align) - 1
	clamp := func(i int) int { return min(max(i, 0), last) }
	return encoding.Offsets{Start: s.align[clamp(o.Start)], End: s.align[clamp(o.End)]}
}

// sub returns the part of s covering Value[start:end], still aligned with
// the source text.
func (s Split) sub(start, end int) Split {
	align := s.align[start : end+1]
	return Split{
		Value:   s.Value[start:end],
		Offsets: encoding.Offsets{Start: align[0], End: align[len(align)-1]},
		align:   align,
	}
}

// Whole returns text as a single split.
func Whole(text string) []Split {
	if text == "" {
		return nil
	}
	return []Split{newSplit(text, 0)}
}

// matches returns the byte ranges of every match of re in text. regexp2
// reports positions in runes, so they are translated back to bytes.
func matches(re *regexp2.Regexp, text string) ([]encoding.Offsets, error) {
	runes := []rune(text)
	byteAt := make([]int, 0, len(runes)+1)
	for i := range text {
		byteAt = append(byteAt, i)
	}
	byteAt = append(byteAt, len(text))

	var out []encoding.Offsets
	m, err := re.FindRunesMatch(runes)
	for m != nil && err == nil {
		out = append(out, encoding.Offsets{Start: byteAt[m.Index], End: byteAt[m.Index+m.Length]})
		m, err = re.FindNextMatch(m)
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}
