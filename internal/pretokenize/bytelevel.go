package pretokenize

import (
	"strings"

	"github.com/dlclark/regexp2"
)

// gpt2Pattern is the split pattern of byte-level BPE vocabularies.
const gpt2Pattern = `'s|'t|'re|'ve|'m|'ll|'d| ?\p{L}+| ?\p{N}+| ?[^\s\p{L}\p{N}]+|\s+(?!\S)|\s+`

var byteChars = bytesToUnicode()

// ByteLevel splits text with the GPT-2 pattern and rewrites every byte as a
// printable character, so vocabularies never see raw whitespace or control
// bytes. A space becomes "Ġ".
type ByteLevel struct {
	AddPrefixSpace bool
	UseRegex       bool

	re *regexp2.Regexp
}

func NewByteLevel(addPrefixSpace, useRegex bool) *ByteLevel {
	return &ByteLevel{
		AddPrefixSpace: addPrefixSpace,
		UseRegex:       useRegex,
		re:             regexp2.MustCompile(gpt2Pattern, regexp2.RE2),
	}
}

func (b *ByteLevel) PreTokenize(text string) ([]Split, error) {
	if text == "" {
		return nil, nil
	}
	whole := newSplit(text, 0)
	if b.AddPrefixSpace && !strings.HasPrefix(text, " ") {
		whole = Split{
			Value:   " " + text,
			Offsets: whole.Offsets,
			align:   append([]int{0}, whole.align...),
		}
	}

	parts := []Split{whole}
	if b.UseRegex {
		found, err := matches(b.re, whole.Value)
		if err != nil {
			return nil, err
		}
		parts = parts[:0]
		for _, o := range found {
			parts = append(parts, whole.sub(o.Start, o.End))
		}
	}

	out := make([]Split, 0, len(parts))
	for _, p := range parts {
		out = append(out, encodeBytes(p))
	}
	return out, nil
}

// encodeBytes maps every byte of s to its printable character, keeping the
// alignment of each produced byte with the byte it came from.
func encodeBytes(s Split) Split {
	var sb strings.Builder
	align := make([]int, 0, 2*len(s.Value)+1)
	for i := 0; i < len(s.Value); i++ {
		n, _ := sb.WriteRune(byteChars[s.Value[i]])
		for range n {
			align = append(align, s.align[i])
		}
	}
	align = append(align, s.align[len(s.Value)])
	return Split{Value: sb.String(), Offsets: s.Offsets, align: align}
}

// bytesToUnicode maps bytes to unicode characters to make BPE reversible.
// Printable latin-1 bytes map to themselves; the rest are shifted past 255.
func bytesToUnicode() [256]rune {
	var table [256]rune
	var mapped [256]bool
	for _, r := range [][2]rune{{'!', '~'}, {'¡', '¬'}, {'®', 'ÿ'}} {
		for c := r[0]; c <= r[1]; c++ {
			table[c] = c
			mapped[c] = true
		}
	}
	n := rune(0)
	for b := range 256 {
		if !mapped[b] {
			table[b] = 256 + n
			n++
		}
	}
	return table
}

// DecodeByteLevel reverses the byte to character mapping. Characters outside
// the table are kept as their UTF-8 encoding.
func DecodeByteLevel(s string) string {
	var out []byte
	for _, r := range s {
		if b, ok := byteOf[r]; ok {
			out = append(out, b)
			continue
		}
		out = append(out, string(r)...)
	}
	return string(out)
}

var byteOf = func() map[rune]byte {
	m := make(map[rune]byte, 256)
	for b, r := range byteChars {
		m[r] = byte(b)
	}
	return m
}()
