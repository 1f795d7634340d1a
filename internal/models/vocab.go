package models

import (
	"cmp"
	"maps"
	"slices"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Vocab maps token strings to ids.
type Vocab map[string]uint32

func (v Vocab) reverse() map[uint32]string {
	r := make(map[uint32]string, len(v))
	for tok, id := range v {
		r[id] = tok
	}
	return r
}

// byID returns the tokens sorted by id, ties broken by the token itself so
// that output is stable for vocabularies with duplicate ids.
func (v Vocab) byID() []string {
	toks := slices.Collect(maps.Keys(v))
	slices.SortFunc(toks, func(a, b string) int {
		if c := cmp.Compare(v[a], v[b]); c != 0 {
			return c
		}
		return cmp.Compare(a, b)
	})
	return toks
}

// ordered returns the vocabulary as an id-ordered map for serialization.
func (v Vocab) ordered() *orderedmap.OrderedMap[string, uint32] {
	om := orderedmap.New[string, uint32]()
	for _, tok := range v.byID() {
		om.Set(tok, v[tok])
	}
	return om
}

// Clone returns a copy that can be handed to callers.
func (v Vocab) Clone() Vocab {
	return maps.Clone(v)
}
