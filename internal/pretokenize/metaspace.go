package pretokenize

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/samcharles93/subword/internal/encoding"
)

// PrependScheme controls when Metaspace adds a leading replacement.
type PrependScheme string

const (
	PrependAlways PrependScheme = "always"
	// PrependFirst only prefixes the first section of an input. Each call
	// sees one section, so it behaves like PrependAlways here.
	PrependFirst PrependScheme = "first"
	PrependNever PrependScheme = "never"
)

// DefaultReplacement is the SentencePiece word boundary marker.
const DefaultReplacement = '▁'

// Metaspace replaces spaces with a visible marker and, when Split is set,
// cuts the text in front of every marker so each word keeps its leading
// boundary. This is the layout of SentencePiece vocabularies.
type Metaspace struct {
	Replacement   rune
	PrependScheme PrependScheme
	Split         bool
}

func NewMetaspace() *Metaspace {
	return &Metaspace{Replacement: DefaultReplacement, PrependScheme: PrependAlways, Split: true}
}

func parsePrependScheme(s string, addPrefixSpace *bool) (PrependScheme, error) {
	switch PrependScheme(s) {
	case PrependAlways, PrependFirst, PrependNever:
		return PrependScheme(s), nil
	case "":
		if addPrefixSpace != nil && !*addPrefixSpace {
			return PrependNever, nil
		}
		return PrependAlways, nil
	default:
		return "", fmt.Errorf("unknown prepend scheme %q", s)
	}
}

func (m *Metaspace) PreTokenize(text string) ([]Split, error) {
	if text == "" {
		return nil, nil
	}
	repl := m.Replacement
	if repl == 0 {
		repl = DefaultReplacement
	}
	marker := string(repl)

	var sb strings.Builder
	align := make([]int, 0, len(text)+2*utf8.UTFMax)
	if m.PrependScheme != PrependNever && text[0] != ' ' {
		sb.WriteString(marker)
		for range len(marker) {
			align = append(align, 0)
		}
	}
	for i := 0; i < len(text); i++ {
		if text[i] == ' ' {
			sb.WriteString(marker)
			for range len(marker) {
				align = append(align, i)
			}
			continue
		}
		sb.WriteByte(text[i])
		align = append(align, i)
	}
	align = append(align, len(text))

	whole := Split{Value: sb.String(), Offsets: encoding.Offsets{Start: 0, End: len(text)}, align: align}
	if !m.Split {
		return []Split{whole}, nil
	}

	var out []Split
	start := 0
	for start < len(whole.Value) {
		next := strings.Index(whole.Value[start+1:], marker)
		if next < 0 {
			break
		}
		end := start + 1 + next
		out = append(out, whole.sub(start, end))
		start = end
	}
	return append(out, whole.sub(start, len(whole.Value))), nil
}
