package tokenizer

import (
	"slices"
	"strings"

	"github.com/samcharles93/subword/internal/encoding"
)

// AddedToken is a token matched verbatim in the input before
// pre-tokenization, such as "<|endoftext|>".
type AddedToken struct {
	ID      uint32 `json:"id"`
	Content string `json:"content"`
	Special bool   `json:"special"`
}

type fragment struct {
	text  string
	start int
	// token is set when the fragment is an added token.
	token *AddedToken
}

// addedVocab finds added tokens in text, preferring the longest match at
// each position.
type addedVocab struct {
	tokens []AddedToken
}

func newAddedVocab(tokens []AddedToken) addedVocab {
	sorted := slices.Clone(tokens)
	sorted = slices.DeleteFunc(sorted, func(t AddedToken) bool { return t.Content == "" })
	slices.SortStableFunc(sorted, func(a, b AddedToken) int { return len(b.Content) - len(a.Content) })
	return addedVocab{tokens: sorted}
}

func (a addedVocab) lookup(content string) (AddedToken, bool) {
	for _, t := range a.tokens {
		if t.Content == content {
			return t, true
		}
	}
	return AddedToken{}, false
}

func (a addedVocab) split(text string) []fragment {
	if len(a.tokens) == 0 || text == "" {
		return []fragment{{text: text}}
	}
	var parts []fragment
	pending := 0
	for i := 0; i < len(text); {
		match := -1
		for j := range a.tokens {
			if strings.HasPrefix(text[i:], a.tokens[j].Content) {
				match = j
				break
			}
		}
		if match < 0 {
			i++
			continue
		}
		if pending < i {
			parts = append(parts, fragment{text: text[pending:i], start: pending})
		}
		tok := a.tokens[match]
		parts = append(parts, fragment{text: tok.Content, start: i, token: &tok})
		i += len(tok.Content)
		pending = i
	}
	if pending < len(text) {
		parts = append(parts, fragment{text: text[pending:], start: pending})
	}
	return parts
}

func (f fragment) encode(typeID uint32) encoding.Encoding {
	e := encoding.FromTokens([]encoding.Token{{
		ID:      f.token.ID,
		Value:   f.token.Content,
		Offsets: encoding.Offsets{Start: f.start, End: f.start + len(f.text)},
	}}, typeID)
	if f.token.Special {
		e.SpecialTokensMask[0] = 1
	}
	return e
}
