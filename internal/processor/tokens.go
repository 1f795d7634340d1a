package processor

import (
	"maps"
	"slices"

	json "github.com/goccy/go-json"
)

// SpecialToken is a named run of token ids and strings inserted by a
// template, such as [CLS] or a multi-token prompt prefix.
type SpecialToken struct {
	ID     string   `json:"id"`
	IDs    []uint32 `json:"ids"`
	Tokens []string `json:"tokens"`
}

// NewSpecialToken fails when ids and tokens differ in length.
func NewSpecialToken(id string, ids []uint32, tokens []string) (SpecialToken, error) {
	if len(ids) != len(tokens) {
		return SpecialToken{}, newTemplateError("special token %q: ids and tokens must be of the same length", id)
	}
	return SpecialToken{ID: id, IDs: slices.Clone(ids), Tokens: slices.Clone(tokens)}, nil
}

// SingleToken is a special token made of one token whose key is its text.
func SingleToken(token string, id uint32) SpecialToken {
	return SpecialToken{ID: token, IDs: []uint32{id}, Tokens: []string{token}}
}

func (t *SpecialToken) UnmarshalJSON(data []byte) error {
	type raw SpecialToken
	var in raw
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	tok, err := NewSpecialToken(in.ID, in.IDs, in.Tokens)
	if err != nil {
		return err
	}
	*t = tok
	return nil
}

// Tokens is the table of special tokens keyed by their id.
type Tokens map[string]SpecialToken

// NewTokens indexes tokens by id; later duplicates replace earlier ones.
func NewTokens(tokens ...SpecialToken) Tokens {
	out := make(Tokens, len(tokens))
	for _, t := range tokens {
		out[t.ID] = t
	}
	return out
}

// Keys returns the token ids in sorted order.
func (t Tokens) Keys() []string {
	return slices.Sorted(maps.Keys(t))
}

// UnmarshalJSON accepts an id keyed object or a list of special tokens.
func (t *Tokens) UnmarshalJSON(data []byte) error {
	var list []SpecialToken
	if err := json.Unmarshal(data, &list); err == nil {
		*t = NewTokens(list...)
		return nil
	}
	var m map[string]SpecialToken
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	*t = Tokens(m)
	return nil
}
