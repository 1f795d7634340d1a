// Package processor assembles model output into final encodings using a
// small template language of sequences and special tokens.
package processor

import (
	"fmt"
	"slices"
	"strings"

	"github.com/samcharles93/subword/internal/encoding"
)

// Default templates used when none is given.
var (
	DefaultSingle = Template{Seq(SequenceA, 0)}
	DefaultPair   = Template{Seq(SequenceA, 0), Seq(SequenceB, 1)}
)

// TemplateProcessing applies the single or pair template to one or two
// encodings. It is immutable once built.
type TemplateProcessing struct {
	single        Template
	pair          Template
	specialTokens Tokens

	addedSingle int
	addedPair   int
}

// NewTemplateProcessing validates the templates against the declared special
// tokens. A nil template takes its default. The pair template is checked for
// both sequences first; missing special tokens are reported after.
func NewTemplateProcessing(single, pair Template, tokens Tokens) (*TemplateProcessing, error) {
	if single == nil {
		single = slices.Clone(DefaultSingle)
	}
	if pair == nil {
		pair = slices.Clone(DefaultPair)
	}
	if tokens == nil {
		tokens = Tokens{}
	}

	if !pair.uses(SequenceA) || !pair.uses(SequenceB) {
		return nil, newTemplateError("template for `pair` must use both sequences")
	}

	var missing []string
	for _, t := range []Template{single, pair} {
		for _, p := range t {
			if p.Kind != SpecialTokenPiece {
				continue
			}
			if _, ok := tokens[p.ID]; !ok && !slices.Contains(missing, p.ID) {
				missing = append(missing, p.ID)
			}
		}
	}
	if len(missing) > 0 {
		slices.Sort(missing)
		return nil, newTemplateError("missing SpecialToken(s) with id(s) `%s`", strings.Join(missing, ", "))
	}

	return &TemplateProcessing{
		single:        single,
		pair:          pair,
		specialTokens: tokens,
		addedSingle:   countAdded(single, tokens),
		addedPair:     countAdded(pair, tokens),
	}, nil
}

// countAdded sums the token count of each special token the template
// references.
func countAdded(t Template, tokens Tokens) int {
	n := 0
	for _, p := range t {
		if p.Kind == SpecialTokenPiece {
			n += len(tokens[p.ID].IDs)
		}
	}
	return n
}

func (tp *TemplateProcessing) Single() Template { return slices.Clone(tp.single) }

func (tp *TemplateProcessing) Pair() Template { return slices.Clone(tp.pair) }

func (tp *TemplateProcessing) SpecialTokens() Tokens {
	out := make(Tokens, len(tp.specialTokens))
	for k, v := range tp.specialTokens {
		out[k] = v
	}
	return out
}

// AddedTokens is the number of special tokens the single or pair template
// inserts, for callers reserving room before truncation.
func (tp *TemplateProcessing) AddedTokens(isPair bool) int {
	if isPair {
		return tp.addedPair
	}
	return tp.addedSingle
}

// Process stamps each input with its sequence index, applies the matching
// template and merges the result. The inputs are not modified.
func (tp *TemplateProcessing) Process(enc encoding.Encoding, pair *encoding.Encoding, addSpecialTokens bool) (encoding.Encoding, error) {
	encs := []encoding.Encoding{enc.Clone()}
	if pair != nil {
		encs = append(encs, pair.Clone())
	}
	for i := range encs {
		encs[i].SetSequenceID(i)
		for j := range encs[i].Overflowing {
			encs[i].Overflowing[j].SetSequenceID(i)
		}
		encs[i].SetTypeIDs(uint32(i))
	}

	parts, err := tp.ProcessEncodings(encs, addSpecialTokens)
	if err != nil {
		return encoding.Encoding{}, err
	}
	return encoding.Merge(parts, false), nil
}

// ProcessEncodings returns the template fragments for one or two encodings,
// in template order. Sequence fragments keep their overflow encodings so
// that merging them expands every overflow combination.
func (tp *TemplateProcessing) ProcessEncodings(encs []encoding.Encoding, addSpecialTokens bool) ([]encoding.Encoding, error) {
	var t Template
	switch len(encs) {
	case 1:
		t = tp.single
	case 2:
		t = tp.pair
	default:
		return nil, fmt.Errorf("%w: expected 1 or 2 encodings, got %d", ErrInvalidInput, len(encs))
	}
	return tp.apply(t, encs, addSpecialTokens)
}

func (tp *TemplateProcessing) apply(t Template, encs []encoding.Encoding, addSpecialTokens bool) ([]encoding.Encoding, error) {
	out := make([]encoding.Encoding, 0, len(t))
	for _, p := range t {
		switch p.Kind {
		case SequencePiece:
			i := p.Sequence.Index()
			if i >= len(encs) {
				return nil, fmt.Errorf("%w: template references sequence %s but %d encoding(s) were given", ErrInvalidInput, p.Sequence, len(encs))
			}
			e := &encs[i]
			e.SetTypeIDs(p.TypeID)
			e.SetSequenceID(i)
			out = append(out, e.Clone())
		case SpecialTokenPiece:
			if !addSpecialTokens {
				continue
			}
			out = append(out, specialFragment(tp.specialTokens[p.ID], p.TypeID))
		}
	}
	return out, nil
}

func specialFragment(tok SpecialToken, typeID uint32) encoding.Encoding {
	n := len(tok.IDs)
	e := encoding.Encoding{
		IDs:               slices.Clone(tok.IDs),
		TypeIDs:           make([]uint32, n),
		Tokens:            slices.Clone(tok.Tokens),
		Words:             make([]int, n),
		Offsets:           make([]encoding.Offsets, n),
		SpecialTokensMask: make([]uint32, n),
		AttentionMask:     make([]uint32, n),
		SequenceRanges:    map[int]encoding.Range{},
	}
	for i := range n {
		e.TypeIDs[i] = typeID
		e.Words[i] = encoding.NoWord
		e.SpecialTokensMask[i] = 1
		e.AttentionMask[i] = 1
	}
	return e
}
