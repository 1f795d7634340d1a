package models

import (
	"unicode/utf8"

	"github.com/samcharles93/subword/internal/encoding"
)

// WordPieceConfig holds the parameters of a greedy longest-match model.
type WordPieceConfig struct {
	Vocab                   Vocab
	UnkToken                string
	ContinuingSubwordPrefix string
	MaxInputCharsPerWord    int
}

// DefaultWordPieceConfig returns the BERT conventions.
func DefaultWordPieceConfig() WordPieceConfig {
	return WordPieceConfig{
		Vocab:                   Vocab{},
		UnkToken:                "[UNK]",
		ContinuingSubwordPrefix: "##",
		MaxInputCharsPerWord:    100,
	}
}

// WordPiece matches the longest known prefix at each position, left to
// right. Any unmatched position resolves the whole word to the unknown
// token.
type WordPiece struct {
	vocab                   Vocab
	vocabR                  map[uint32]string
	unkToken                string
	continuingSubwordPrefix string
	maxInputCharsPerWord    int
}

func NewWordPiece(cfg WordPieceConfig) *WordPiece {
	vocab := cfg.Vocab
	if vocab == nil {
		vocab = Vocab{}
	}
	return &WordPiece{
		vocab:                   vocab,
		vocabR:                  vocab.reverse(),
		unkToken:                cfg.UnkToken,
		continuingSubwordPrefix: cfg.ContinuingSubwordPrefix,
		maxInputCharsPerWord:    cfg.MaxInputCharsPerWord,
	}
}

func (w *WordPiece) Config() WordPieceConfig {
	return WordPieceConfig{
		Vocab:                   w.vocab.Clone(),
		UnkToken:                w.unkToken,
		ContinuingSubwordPrefix: w.continuingSubwordPrefix,
		MaxInputCharsPerWord:    w.maxInputCharsPerWord,
	}
}

func (w *WordPiece) unk(seq string) ([]encoding.Token, error) {
	id, ok := w.vocab[w.unkToken]
	if !ok {
		return nil, errMissingUnk(w.unkToken)
	}
	return []encoding.Token{{ID: id, Value: w.unkToken, Offsets: encoding.Offsets{Start: 0, End: len(seq)}}}, nil
}

func (w *WordPiece) Tokenize(seq string) ([]encoding.Token, error) {
	if utf8.RuneCountInString(seq) > w.maxInputCharsPerWord {
		return w.unk(seq)
	}

	var out []encoding.Token
	for start := 0; start < len(seq); {
		end := len(seq)
		matched := false
		for start < end {
			sub := seq[start:end]
			if start > 0 {
				sub = w.continuingSubwordPrefix + sub
			}
			if id, ok := w.vocab[sub]; ok {
				out = append(out, encoding.Token{ID: id, Value: sub, Offsets: encoding.Offsets{Start: start, End: end}})
				matched = true
				break
			}
			_, size := utf8.DecodeLastRuneInString(seq[start:end])
			end -= size
		}
		if !matched {
			return w.unk(seq)
		}
		start = end
	}
	return out, nil
}

func (w *WordPiece) TokenToID(token string) (uint32, bool) {
	id, ok := w.vocab[token]
	return id, ok
}

func (w *WordPiece) IDToToken(id uint32) (string, bool) {
	tok, ok := w.vocabR[id]
	return tok, ok
}

func (w *WordPiece) Vocab() Vocab { return w.vocab.Clone() }

func (w *WordPiece) VocabSize() int { return len(w.vocab) }

func (w *WordPiece) trainer() TrainerConfig {
	return TrainerConfig{
		Kind:                    WordPieceTrainer,
		VocabSize:               len(w.vocab),
		SpecialTokens:           specialTokens(w.unkToken),
		ContinuingSubwordPrefix: w.continuingSubwordPrefix,
	}
}
