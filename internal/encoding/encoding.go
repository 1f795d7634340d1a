// Package encoding holds the annotated token sequences exchanged between the
// models, the post-processors and the tokenizer pipeline.
package encoding

import (
	"errors"
	"fmt"
	"maps"
	"slices"
)

// ErrInvalidTruncation is returned when truncation parameters cannot produce
// progress through the sequence.
var ErrInvalidTruncation = errors.New("invalid truncation")

// NoWord marks positions that do not belong to any input word.
const NoWord = -1

// Offsets is a byte range [Start, End) in the source text.
type Offsets struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Range is a half-open token index range [Start, End).
type Range struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Len returns the number of token positions covered by r.
func (r Range) Len() int { return r.End - r.Start }

// Contains reports whether token index i falls inside r.
func (r Range) Contains(i int) bool { return i >= r.Start && i < r.End }

// Token is a single model output.
type Token struct {
	ID      uint32  `json:"id"`
	Value   string  `json:"value"`
	Offsets Offsets `json:"offsets"`
}

// Direction selects which end of an encoding is kept when truncating.
type Direction int

const (
	Right Direction = iota
	Left
)

func (d Direction) String() string {
	if d == Left {
		return "left"
	}
	return "right"
}

// ParseDirection maps "left"/"right" to a Direction.
func ParseDirection(s string) (Direction, error) {
	switch s {
	case "", "right", "Right":
		return Right, nil
	case "left", "Left":
		return Left, nil
	default:
		return Right, fmt.Errorf("%w: unknown direction %q", ErrInvalidTruncation, s)
	}
}

// Encoding is a set of parallel arrays describing one tokenized input,
// possibly assembled from several sequences and special tokens.
type Encoding struct {
	IDs               []uint32   `json:"ids"`
	TypeIDs           []uint32   `json:"type_ids"`
	Tokens            []string   `json:"tokens"`
	Words             []int      `json:"words"`
	Offsets           []Offsets  `json:"offsets"`
	SpecialTokensMask []uint32   `json:"special_tokens_mask"`
	AttentionMask     []uint32   `json:"attention_mask"`
	Overflowing       []Encoding `json:"overflowing"`
	// SequenceRanges maps a sequence index (0 or 1) to the token range it
	// occupies.
	SequenceRanges map[int]Range `json:"sequence_ranges"`
}

// WithCapacity returns an empty encoding whose arrays can hold n tokens.
func WithCapacity(n int) Encoding {
	return Encoding{
		IDs:               make([]uint32, 0, n),
		TypeIDs:           make([]uint32, 0, n),
		Tokens:            make([]string, 0, n),
		Words:             make([]int, 0, n),
		Offsets:           make([]Offsets, 0, n),
		SpecialTokensMask: make([]uint32, 0, n),
		AttentionMask:     make([]uint32, 0, n),
		SequenceRanges:    map[int]Range{},
	}
}

// FromTokens builds an encoding from model output. Every position gets the
// given type id, no word index, and is attended to.
func FromTokens(tokens []Token, typeID uint32) Encoding {
	e := WithCapacity(len(tokens))
	for _, tok := range tokens {
		e.IDs = append(e.IDs, tok.ID)
		e.TypeIDs = append(e.TypeIDs, typeID)
		e.Tokens = append(e.Tokens, tok.Value)
		e.Words = append(e.Words, NoWord)
		e.Offsets = append(e.Offsets, tok.Offsets)
		e.SpecialTokensMask = append(e.SpecialTokensMask, 0)
		e.AttentionMask = append(e.AttentionMask, 1)
	}
	return e
}

// Len returns the number of token positions.
func (e *Encoding) Len() int { return len(e.IDs) }

// IsEmpty reports whether the encoding holds no tokens.
func (e *Encoding) IsEmpty() bool { return len(e.IDs) == 0 }

// Clone returns a deep copy, including nested overflow encodings.
func (e *Encoding) Clone() Encoding {
	c := Encoding{
		IDs:               slices.Clone(e.IDs),
		TypeIDs:           slices.Clone(e.TypeIDs),
		Tokens:            slices.Clone(e.Tokens),
		Words:             slices.Clone(e.Words),
		Offsets:           slices.Clone(e.Offsets),
		SpecialTokensMask: slices.Clone(e.SpecialTokensMask),
		AttentionMask:     slices.Clone(e.AttentionMask),
		SequenceRanges:    maps.Clone(e.SequenceRanges),
	}
	if c.SequenceRanges == nil {
		c.SequenceRanges = map[int]Range{}
	}
	if len(e.Overflowing) > 0 {
		c.Overflowing = make([]Encoding, len(e.Overflowing))
		for i := range e.Overflowing {
			c.Overflowing[i] = e.Overflowing[i].Clone()
		}
	}
	return c
}

// SetTypeIDs overwrites every position's type id.
func (e *Encoding) SetTypeIDs(typeID uint32) {
	for i := range e.TypeIDs {
		e.TypeIDs[i] = typeID
	}
}

// SetWord assigns the same word index to every position.
func (e *Encoding) SetWord(word int) {
	for i := range e.Words {
		e.Words[i] = word
	}
}

// SetSequenceID records that the whole encoding belongs to sequence id.
func (e *Encoding) SetSequenceID(id int) {
	if e.SequenceRanges == nil {
		e.SequenceRanges = map[int]Range{}
	}
	e.SequenceRanges[id] = Range{Start: 0, End: e.Len()}
}

// NSequences returns how many sequences were merged into the encoding.
func (e *Encoding) NSequences() int {
	if len(e.SequenceRanges) == 0 {
		return 1
	}
	return len(e.SequenceRanges)
}

// SequenceIDs returns, per position, the sequence index it belongs to or -1
// for positions outside every sequence (special tokens).
func (e *Encoding) SequenceIDs() []int {
	ids := make([]int, e.Len())
	for i := range ids {
		ids[i] = -1
	}
	for seq, r := range e.SequenceRanges {
		for i := r.Start; i < r.End && i < len(ids); i++ {
			ids[i] = seq
		}
	}
	return ids
}

// TokenToSequence returns the sequence containing the given token index.
// An encoding without recorded ranges is a single sequence 0.
func (e *Encoding) TokenToSequence(token int) (int, bool) {
	if token < 0 || token > e.Len() {
		return 0, false
	}
	if len(e.SequenceRanges) == 0 {
		return 0, true
	}
	for seq, r := range e.SequenceRanges {
		if r.Contains(token) {
			return seq, true
		}
	}
	return 0, false
}

// TakeOverflowing detaches and returns the overflow encodings.
func (e *Encoding) TakeOverflowing() []Encoding {
	o := e.Overflowing
	e.Overflowing = nil
	return o
}

// MergeWith appends pair to e. Overflow encodings on both sides are combined
// so that every continuation of e is joined with pair and with each of the
// continuations of pair, and e itself is joined with each continuation of
// pair. With growingOffsets the offsets of pair are shifted past the last
// offset of e.
func (e *Encoding) MergeWith(pair Encoding, growingOffsets bool) {
	var overflowings []Encoding

	for i := range e.Overflowing {
		selfO := &e.Overflowing[i]

		n := selfO.Clone()
		n.MergeWith(pair.Clone(), growingOffsets)
		overflowings = append(overflowings, n)

		for j := range pair.Overflowing {
			n := selfO.Clone()
			n.MergeWith(pair.Overflowing[j].Clone(), growingOffsets)
			overflowings = append(overflowings, n)
		}
	}
	for j := range pair.Overflowing {
		n := e.Clone()
		n.MergeWith(pair.Overflowing[j].Clone(), growingOffsets)
		overflowings = append(overflowings, n)
	}

	originalLen := e.Len()
	if e.SequenceRanges == nil {
		e.SequenceRanges = map[int]Range{}
	}
	for seq, r := range pair.SequenceRanges {
		e.SequenceRanges[seq] = Range{Start: r.Start + originalLen, End: r.End + originalLen}
	}

	e.IDs = append(e.IDs, pair.IDs...)
	e.TypeIDs = append(e.TypeIDs, pair.TypeIDs...)
	e.Tokens = append(e.Tokens, pair.Tokens...)
	e.Words = append(e.Words, pair.Words...)

	shift := 0
	if growingOffsets && len(e.Offsets) > 0 {
		shift = e.Offsets[len(e.Offsets)-1].End
	}
	for _, o := range pair.Offsets {
		e.Offsets = append(e.Offsets, Offsets{Start: o.Start + shift, End: o.End + shift})
	}

	e.SpecialTokensMask = append(e.SpecialTokensMask, pair.SpecialTokensMask...)
	e.AttentionMask = append(e.AttentionMask, pair.AttentionMask...)
	e.Overflowing = overflowings
}

// Merge folds encodings left to right into a single encoding.
func Merge(encodings []Encoding, growingOffsets bool) Encoding {
	out := WithCapacity(0)
	for _, enc := range encodings {
		out.MergeWith(enc, growingOffsets)
	}
	return out
}

// Truncate keeps at most maxLen tokens and moves the remainder into overflow
// encodings. Consecutive parts share stride tokens. A maxLen of zero moves
// the whole encoding into a single overflow entry.
func (e *Encoding) Truncate(maxLen, stride int, direction Direction) error {
	n := e.Len()
	if maxLen >= n {
		return nil
	}
	if maxLen == 0 {
		moved := *e
		*e = WithCapacity(0)
		e.Overflowing = []Encoding{moved}
		return nil
	}
	if stride >= maxLen {
		return fmt.Errorf("%w: stride %d must be smaller than max length %d", ErrInvalidTruncation, stride, maxLen)
	}

	step := maxLen - stride
	var parts []Range
	switch direction {
	case Left:
		for stop := n; stop > 0; stop -= step {
			start := max(stop-maxLen, 0)
			parts = append(parts, Range{Start: start, End: stop})
			if start == 0 {
				break
			}
		}
	default:
		for start := 0; start < n; start += step {
			stop := min(start+maxLen, n)
			parts = append(parts, Range{Start: start, End: stop})
			if stop == n {
				break
			}
		}
	}

	head := e.slice(parts[0])
	for _, p := range parts[1:] {
		head.Overflowing = append(head.Overflowing, e.slice(p))
	}
	*e = head
	return nil
}

func (e *Encoding) slice(r Range) Encoding {
	return Encoding{
		IDs:               slices.Clone(e.IDs[r.Start:r.End]),
		TypeIDs:           slices.Clone(e.TypeIDs[r.Start:r.End]),
		Tokens:            slices.Clone(e.Tokens[r.Start:r.End]),
		Words:             slices.Clone(e.Words[r.Start:r.End]),
		Offsets:           slices.Clone(e.Offsets[r.Start:r.End]),
		SpecialTokensMask: slices.Clone(e.SpecialTokensMask[r.Start:r.End]),
		AttentionMask:     slices.Clone(e.AttentionMask[r.Start:r.End]),
		SequenceRanges:    map[int]Range{},
	}
}
