package models

import "github.com/samcharles93/subword/internal/encoding"

// WordLevelConfig holds the parameters of a direct lookup model. An empty
// UnkToken means words missing from the vocabulary produce no token.
type WordLevelConfig struct {
	Vocab    Vocab
	UnkToken string
}

func DefaultWordLevelConfig() WordLevelConfig {
	return WordLevelConfig{Vocab: Vocab{}, UnkToken: "<unk>"}
}

// WordLevel maps each word to a single vocabulary entry.
type WordLevel struct {
	vocab    Vocab
	vocabR   map[uint32]string
	unkToken string
}

func NewWordLevel(cfg WordLevelConfig) *WordLevel {
	vocab := cfg.Vocab
	if vocab == nil {
		vocab = Vocab{}
	}
	return &WordLevel{vocab: vocab, vocabR: vocab.reverse(), unkToken: cfg.UnkToken}
}

func (w *WordLevel) Config() WordLevelConfig {
	return WordLevelConfig{Vocab: w.vocab.Clone(), UnkToken: w.unkToken}
}

func (w *WordLevel) Tokenize(seq string) ([]encoding.Token, error) {
	offsets := encoding.Offsets{Start: 0, End: len(seq)}
	if id, ok := w.vocab[seq]; ok {
		return []encoding.Token{{ID: id, Value: seq, Offsets: offsets}}, nil
	}
	if w.unkToken == "" {
		return nil, nil
	}
	id, ok := w.vocab[w.unkToken]
	if !ok {
		return nil, errMissingUnk(w.unkToken)
	}
	return []encoding.Token{{ID: id, Value: w.unkToken, Offsets: offsets}}, nil
}

func (w *WordLevel) TokenToID(token string) (uint32, bool) {
	id, ok := w.vocab[token]
	return id, ok
}

func (w *WordLevel) IDToToken(id uint32) (string, bool) {
	tok, ok := w.vocabR[id]
	return tok, ok
}

func (w *WordLevel) Vocab() Vocab { return w.vocab.Clone() }

func (w *WordLevel) VocabSize() int { return len(w.vocab) }

func (w *WordLevel) trainer() TrainerConfig {
	return TrainerConfig{
		Kind:          WordLevelTrainer,
		VocabSize:     len(w.vocab),
		SpecialTokens: specialTokens(w.unkToken),
	}
}
