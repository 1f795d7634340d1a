package processor

import (
	"strings"

	json "github.com/goccy/go-json"
)

// Template is an ordered list of pieces.
type Template []Piece

// ParseTemplate reads a whitespace separated list of pieces.
func ParseTemplate(s string) (Template, error) {
	return TemplateFromStrings(strings.Fields(s))
}

// TemplateFromStrings parses each element as a piece.
func TemplateFromStrings(items []string) (Template, error) {
	t := make(Template, 0, len(items))
	for _, item := range items {
		p, err := ParsePiece(item)
		if err != nil {
			return nil, err
		}
		t = append(t, p)
	}
	return t, nil
}

// MustParseTemplate is ParseTemplate for literals known to be valid.
func MustParseTemplate(s string) Template {
	t, err := ParseTemplate(s)
	if err != nil {
		panic(err)
	}
	return t
}

func (t Template) String() string {
	parts := make([]string, len(t))
	for i, p := range t {
		parts[i] = p.String()
	}
	return strings.Join(parts, " ")
}

// uses reports whether the template references sequence s.
func (t Template) uses(s Sequence) bool {
	for _, p := range t {
		if p.Kind == SequencePiece && p.Sequence == s {
			return true
		}
	}
	return false
}

// UnmarshalJSON accepts a list of pieces or a single template string.
func (t *Template) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		parsed, err := ParseTemplate(s)
		if err != nil {
			return err
		}
		*t = parsed
		return nil
	}
	var pieces []Piece
	if err := json.Unmarshal(data, &pieces); err != nil {
		return err
	}
	*t = pieces
	return nil
}
