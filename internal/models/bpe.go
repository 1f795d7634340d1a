package models

import (
	"cmp"
	"fmt"
	"maps"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/samcharles93/subword/internal/encoding"
)

// MergePair is a merge rule expressed as the two token strings it joins.
type MergePair [2]string

// BPEConfig holds the parameters of a byte-pair model.
type BPEConfig struct {
	// Vocab and Merges must be given together or not at all.
	Vocab  Vocab
	Merges []MergePair
	// CacheCapacity of zero selects DefaultCacheCapacity; a negative value
	// disables the cache.
	CacheCapacity           int
	Dropout                 float32
	UnkToken                string
	ContinuingSubwordPrefix string
	EndOfWordSuffix         string
	FuseUnk                 bool
	ByteFallback            bool
	IgnoreMerges            bool
}

// BPE tokenizes words by repeatedly joining the adjacent pair with the
// lowest merge rank.
type BPE struct {
	vocab  Vocab
	vocabR map[uint32]string
	merges map[Pair]mergeRule
	cache  *Cache[string, []encoding.Token]

	dropout                 float32
	unkToken                string
	continuingSubwordPrefix string
	endOfWordSuffix         string
	fuseUnk                 bool
	byteFallback            bool
	ignoreMerges            bool
}

// NewBPE validates cfg and builds the merge table.
func NewBPE(cfg BPEConfig) (*BPE, error) {
	if (cfg.Vocab == nil) != (cfg.Merges == nil) {
		return nil, newConfigError("vocab and merges must be both specified")
	}
	if err := checkDropout(cfg.Dropout); err != nil {
		return nil, err
	}
	vocab := cfg.Vocab
	if vocab == nil {
		vocab = Vocab{}
	}

	merges := make(map[Pair]mergeRule, len(cfg.Merges))
	for rank, m := range cfg.Merges {
		a, ok := vocab[m[0]]
		if !ok {
			return nil, newConfigError("merge token %q is out of vocabulary", m[0])
		}
		b, ok := vocab[m[1]]
		if !ok {
			return nil, newConfigError("merge token %q is out of vocabulary", m[1])
		}
		joined := m[0] + strings.TrimPrefix(m[1], cfg.ContinuingSubwordPrefix)
		id, ok := vocab[joined]
		if !ok {
			return nil, newConfigError("merge token %q is out of vocabulary", joined)
		}
		merges[Pair{a, b}] = mergeRule{rank: uint32(rank), id: id}
	}

	capacity := cfg.CacheCapacity
	if capacity == 0 {
		capacity = DefaultCacheCapacity
	}

	return &BPE{
		vocab:                   vocab,
		vocabR:                  vocab.reverse(),
		merges:                  merges,
		cache:                   NewCache[string, []encoding.Token](capacity),
		dropout:                 cfg.Dropout,
		unkToken:                cfg.UnkToken,
		continuingSubwordPrefix: cfg.ContinuingSubwordPrefix,
		endOfWordSuffix:         cfg.EndOfWordSuffix,
		fuseUnk:                 cfg.FuseUnk,
		byteFallback:            cfg.ByteFallback,
		ignoreMerges:            cfg.IgnoreMerges,
	}, nil
}

func cacheCapacityConfig(capacity int) int {
	if capacity == 0 {
		return -1
	}
	return capacity
}

func checkDropout(p float32) error {
	if p < 0 || p > 1 {
		return newConfigError("dropout must be between 0 and 1, got %v", p)
	}
	return nil
}

// Config returns the parameters the model was built with. Merges are listed
// in rank order.
func (b *BPE) Config() BPEConfig {
	return BPEConfig{
		Vocab:                   b.vocab.Clone(),
		Merges:                  b.orderedMerges(),
		CacheCapacity:           cacheCapacityConfig(b.cache.Capacity()),
		Dropout:                 b.dropout,
		UnkToken:                b.unkToken,
		ContinuingSubwordPrefix: b.continuingSubwordPrefix,
		EndOfWordSuffix:         b.endOfWordSuffix,
		FuseUnk:                 b.fuseUnk,
		ByteFallback:            b.byteFallback,
		IgnoreMerges:            b.ignoreMerges,
	}
}

func (b *BPE) orderedMerges() []MergePair {
	pairs := slices.Collect(maps.Keys(b.merges))
	slices.SortFunc(pairs, func(x, y Pair) int {
		return cmp.Compare(b.merges[x].rank, b.merges[y].rank)
	})
	out := make([]MergePair, len(pairs))
	for i, p := range pairs {
		out[i] = MergePair{b.vocabR[p.A], b.vocabR[p.B]}
	}
	return out
}

// byteFallbackToken names the vocabulary entry for a raw byte.
func byteFallbackToken(c byte) string {
	return fmt.Sprintf("<0x%02X>", c)
}

// mergeWord splits w into its initial symbols, resolving characters missing
// from the vocabulary through byte fallback or the unknown token.
func (b *BPE) mergeWord(w string) (*word, error) {
	out := newWord(len(w))

	var (
		unkID      uint32
		unkLen     int
		pendingUnk bool
	)
	flush := func() {
		if pendingUnk {
			out.add(unkID, unkLen)
			pendingUnk = false
		}
	}

	for i := 0; i < len(w); {
		_, size := utf8.DecodeRuneInString(w[i:])
		end := i + size
		char := w[i:end]

		s := char
		if i > 0 {
			s = b.continuingSubwordPrefix + s
		}
		if end == len(w) {
			s += b.endOfWordSuffix
		}
		i = end

		if id, ok := b.vocab[s]; ok {
			flush()
			out.add(id, size)
			continue
		}

		if b.byteFallback {
			if ids, ok := b.byteIDs(char); ok {
				flush()
				for _, id := range ids {
					out.add(id, 1)
				}
				continue
			}
		}

		if b.unkToken == "" {
			continue
		}
		id, ok := b.vocab[b.unkToken]
		if !ok {
			return nil, errMissingUnk(b.unkToken)
		}
		if pendingUnk && b.fuseUnk {
			unkLen += size
			continue
		}
		flush()
		unkID, unkLen, pendingUnk = id, size, true
	}
	flush()
	return out, nil
}

func (b *BPE) byteIDs(s string) ([]uint32, bool) {
	ids := make([]uint32, 0, len(s))
	for i := 0; i < len(s); i++ {
		id, ok := b.vocab[byteFallbackToken(s[i])]
		if !ok {
			return nil, false
		}
		ids = append(ids, id)
	}
	return ids, true
}

// Tokenize splits a single pre-tokenized word into tokens with offsets
// relative to the word.
func (b *BPE) Tokenize(seq string) ([]encoding.Token, error) {
	if seq == "" {
		return nil, nil
	}
	if b.ignoreMerges {
		if id, ok := b.vocab[seq]; ok {
			return []encoding.Token{{ID: id, Value: seq, Offsets: encoding.Offsets{Start: 0, End: len(seq)}}}, nil
		}
	}

	// Dropout makes the output random; never cache it.
	if b.dropout > 0 {
		w, err := b.mergeWord(seq)
		if err != nil {
			return nil, err
		}
		w.mergeAll(b.merges, b.dropout)
		return w.tokens(b.vocabR), nil
	}

	if toks, ok := b.cache.Get(seq); ok {
		return slices.Clone(toks), nil
	}
	w, err := b.mergeWord(seq)
	if err != nil {
		return nil, err
	}
	w.mergeAll(b.merges, 0)
	toks := w.tokens(b.vocabR)
	if len(seq) < maxCachedLen {
		b.cache.Set(seq, slices.Clone(toks))
	}
	return toks, nil
}

func (b *BPE) TokenToID(token string) (uint32, bool) {
	id, ok := b.vocab[token]
	return id, ok
}

func (b *BPE) IDToToken(id uint32) (string, bool) {
	tok, ok := b.vocabR[id]
	return tok, ok
}

func (b *BPE) Vocab() Vocab { return b.vocab.Clone() }

func (b *BPE) VocabSize() int { return len(b.vocab) }

func (b *BPE) setDropout(p float32) error {
	if err := checkDropout(p); err != nil {
		return err
	}
	b.dropout = p
	return nil
}

func (b *BPE) trainer() TrainerConfig {
	return TrainerConfig{
		Kind:                    BPETrainer,
		VocabSize:               len(b.vocab),
		SpecialTokens:           specialTokens(b.unkToken),
		ContinuingSubwordPrefix: b.continuingSubwordPrefix,
		EndOfWordSuffix:         b.endOfWordSuffix,
	}
}
