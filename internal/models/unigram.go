package models

import (
	"math"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/samcharles93/subword/internal/encoding"
)

// unkPenalty lowers the score of unknown pieces below every real piece.
const unkPenalty = 10.0

// ScoredToken is a vocabulary piece with its log probability.
type ScoredToken struct {
	Token string
	Score float64
}

// UnigramConfig holds the parameters of a lattice model. UnkID, when set,
// must index into Vocab.
type UnigramConfig struct {
	Vocab         []ScoredToken
	UnkID         *int
	ByteFallback  bool
	CacheCapacity int
}

// Unigram segments a word along the maximum likelihood path through the
// lattice of all vocabulary pieces it contains.
type Unigram struct {
	vocab      []ScoredToken
	tokenToIDs Vocab
	trie       trie
	cache      *Cache[string, []string]

	unkID        int
	bosID        int
	eosID        int
	minScore     float64
	fuseUnk      bool
	byteFallback bool
}

func NewUnigram(cfg UnigramConfig) (*Unigram, error) {
	unkID := -1
	if cfg.UnkID != nil {
		if len(cfg.Vocab) == 0 {
			return nil, newConfigError("unigram vocabulary is empty")
		}
		if *cfg.UnkID < 0 || *cfg.UnkID >= len(cfg.Vocab) {
			return nil, newConfigError("unk id %d is not in the vocabulary", *cfg.UnkID)
		}
		unkID = *cfg.UnkID
	}

	u := &Unigram{
		vocab:        slices.Clone(cfg.Vocab),
		tokenToIDs:   make(Vocab, len(cfg.Vocab)),
		unkID:        unkID,
		bosID:        len(cfg.Vocab) + 1,
		eosID:        len(cfg.Vocab) + 2,
		minScore:     math.Inf(1),
		fuseUnk:      true,
		byteFallback: cfg.ByteFallback,
	}
	for id, p := range cfg.Vocab {
		u.tokenToIDs[p.Token] = uint32(id)
		u.trie.insert(p.Token)
		u.minScore = min(u.minScore, p.Score)
	}

	capacity := cfg.CacheCapacity
	if capacity == 0 {
		capacity = DefaultCacheCapacity
	}
	u.cache = NewCache[string, []string](capacity)
	return u, nil
}

func (u *Unigram) Config() UnigramConfig {
	cfg := UnigramConfig{
		Vocab:         slices.Clone(u.vocab),
		ByteFallback:  u.byteFallback,
		CacheCapacity: cacheCapacityConfig(u.cache.Capacity()),
	}
	if u.unkID >= 0 {
		id := u.unkID
		cfg.UnkID = &id
	}
	return cfg
}

// MinScore is the lowest piece score; unknown pieces score below it.
func (u *Unigram) MinScore() float64 { return u.minScore }

// PopulateNodes inserts every vocabulary piece found in the lattice
// sentence. Character positions without a single-character piece get an
// unknown node when an unknown id is configured.
func (u *Unigram) PopulateNodes(l *Lattice) {
	unkScore := u.minScore - unkPenalty
	s := l.sentence
	for pos := 0; pos < len(s); {
		_, mblen := utf8.DecodeRuneInString(s[pos:])
		single := false
		for _, n := range u.trie.prefixes(s[pos:]) {
			id := u.tokenToIDs[s[pos:pos+n]]
			l.Insert(pos, n, u.vocab[id].Score, int(id))
			if n == mblen {
				single = true
			}
		}
		if !single && u.unkID >= 0 {
			l.Insert(pos, mblen, unkScore, u.unkID)
		}
		pos += mblen
	}
}

// encode returns the best segmentation of sentence as piece strings.
// Adjacent unknown pieces are joined.
func (u *Unigram) encode(sentence string) []string {
	if sentence == "" {
		return nil
	}
	if pieces, ok := u.cache.Get(sentence); ok {
		return pieces
	}

	l := NewLattice(sentence, u.bosID, u.eosID)
	u.PopulateNodes(l)

	var (
		out []string
		unk strings.Builder
	)
	for _, node := range l.Viterbi() {
		p := l.piece(node)
		if u.fuseUnk && u.unkID >= 0 && node.id == u.unkID {
			unk.WriteString(p)
			continue
		}
		if unk.Len() > 0 {
			out = append(out, unk.String())
			unk.Reset()
		}
		out = append(out, p)
	}
	if unk.Len() > 0 {
		out = append(out, unk.String())
	}

	if len(sentence) < maxCachedLen {
		u.cache.Set(sentence, out)
	}
	return out
}

// Tokenize segments sentence. Pieces missing from the vocabulary fall back
// to byte tokens, then to the unknown id. Without either fallback an
// uncoverable sentence yields no tokens.
func (u *Unigram) Tokenize(sentence string) ([]encoding.Token, error) {
	pieces := u.encode(sentence)
	out := make([]encoding.Token, 0, len(pieces))
	offset := 0
	for _, p := range pieces {
		if id, ok := u.tokenToIDs[p]; ok {
			out = append(out, encoding.Token{ID: id, Value: p, Offsets: encoding.Offsets{Start: offset, End: offset + len(p)}})
			offset += len(p)
			continue
		}
		if u.byteFallback {
			if toks, ok := u.byteTokens(p, offset); ok {
				out = append(out, toks...)
				offset += len(p)
				continue
			}
		}
		if u.unkID < 0 {
			return nil, nil
		}
		out = append(out, encoding.Token{ID: uint32(u.unkID), Value: p, Offsets: encoding.Offsets{Start: offset, End: offset + len(p)}})
		offset += len(p)
	}
	return out, nil
}

func (u *Unigram) byteTokens(p string, offset int) ([]encoding.Token, bool) {
	toks := make([]encoding.Token, 0, len(p))
	for i := 0; i < len(p); i++ {
		name := byteFallbackToken(p[i])
		id, ok := u.tokenToIDs[name]
		if !ok {
			return nil, false
		}
		toks = append(toks, encoding.Token{ID: id, Value: name, Offsets: encoding.Offsets{Start: offset + i, End: offset + i + 1}})
	}
	return toks, true
}

func (u *Unigram) TokenToID(token string) (uint32, bool) {
	id, ok := u.tokenToIDs[token]
	return id, ok
}

func (u *Unigram) IDToToken(id uint32) (string, bool) {
	if int(id) >= len(u.vocab) {
		return "", false
	}
	return u.vocab[id].Token, true
}

func (u *Unigram) Vocab() Vocab { return u.tokenToIDs.Clone() }

func (u *Unigram) VocabSize() int { return len(u.vocab) }

func (u *Unigram) trainer() TrainerConfig {
	cfg := TrainerConfig{
		Kind:      UnigramTrainer,
		VocabSize: len(u.vocab),
	}
	if u.unkID >= 0 {
		cfg.UnkToken = u.vocab[u.unkID].Token
		cfg.SpecialTokens = specialTokens(cfg.UnkToken)
	}
	return cfg
}
