package pretokenize

import (
	"bytes"
	"fmt"
	"unicode/utf8"

	json "github.com/goccy/go-json"
)

type preTokenizerJSON struct {
	Type           string            `json:"type"`
	AddPrefixSpace *bool             `json:"add_prefix_space"`
	UseRegex       *bool             `json:"use_regex"`
	Replacement    string            `json:"replacement"`
	PrependScheme  string            `json:"prepend_scheme"`
	Split          *bool             `json:"split"`
	PreTokenizers  []json.RawMessage `json:"pretokenizers"`
}

// Unmarshal builds a pre-tokenizer from its serialized "type"-tagged form.
// A null or empty document yields nil, meaning the text is not split.
func Unmarshal(data []byte) (PreTokenizer, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil, nil
	}
	var in preTokenizerJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return nil, fmt.Errorf("decode pre-tokenizer: %w", err)
	}

	switch in.Type {
	case "Whitespace":
		return NewWhitespace(), nil
	case "WhitespaceSplit":
		return WhitespaceSplit{}, nil
	case "ByteLevel":
		return NewByteLevel(boolOr(in.AddPrefixSpace, true), boolOr(in.UseRegex, true)), nil
	case "Metaspace":
		return unmarshalMetaspace(in)
	case "Sequence":
		seq := make(Sequence, 0, len(in.PreTokenizers))
		for i, raw := range in.PreTokenizers {
			pt, err := Unmarshal(raw)
			if err != nil {
				return nil, fmt.Errorf("pretokenizers[%d]: %w", i, err)
			}
			if pt != nil {
				seq = append(seq, pt)
			}
		}
		return seq, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupported, in.Type)
	}
}

// Name returns the serialized type name of pt.
func Name(pt PreTokenizer) string {
	switch pt.(type) {
	case nil:
		return "none"
	case *Whitespace:
		return "Whitespace"
	case WhitespaceSplit:
		return "WhitespaceSplit"
	case *ByteLevel:
		return "ByteLevel"
	case *Metaspace:
		return "Metaspace"
	case Sequence:
		return "Sequence"
	default:
		return fmt.Sprintf("%T", pt)
	}
}

func unmarshalMetaspace(in preTokenizerJSON) (PreTokenizer, error) {
	m := NewMetaspace()
	if in.Replacement != "" {
		r, size := utf8.DecodeRuneInString(in.Replacement)
		if size != len(in.Replacement) {
			return nil, fmt.Errorf("metaspace replacement %q must be a single character", in.Replacement)
		}
		m.Replacement = r
	}
	scheme, err := parsePrependScheme(in.PrependScheme, in.AddPrefixSpace)
	if err != nil {
		return nil, err
	}
	m.PrependScheme = scheme
	m.Split = boolOr(in.Split, true)
	return m, nil
}

func boolOr(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}
