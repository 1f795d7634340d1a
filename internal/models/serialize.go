package models

import (
	"fmt"
	"strings"

	json "github.com/goccy/go-json"
)

// orderedVocab encodes a vocabulary with entries sorted by id.
type orderedVocab Vocab

func (v orderedVocab) MarshalJSON() ([]byte, error) {
	return json.Marshal(Vocab(v).ordered())
}

// mergeList decodes merges written either as ["a", "b"] pairs or as
// legacy "a b" strings.
type mergeList []MergePair

func (l *mergeList) UnmarshalJSON(data []byte) error {
	var raw []any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(mergeList, 0, len(raw))
	for i, item := range raw {
		switch v := item.(type) {
		case string:
			parts := strings.Split(v, " ")
			if len(parts) != 2 {
				return fmt.Errorf("merge %d: %q is not a pair", i, v)
			}
			out = append(out, MergePair{parts[0], parts[1]})
		case []any:
			if len(v) != 2 {
				return fmt.Errorf("merge %d: expected 2 tokens, got %d", i, len(v))
			}
			a, aok := v[0].(string)
			b, bok := v[1].(string)
			if !aok || !bok {
				return fmt.Errorf("merge %d: tokens must be strings", i)
			}
			out = append(out, MergePair{a, b})
		default:
			return fmt.Errorf("merge %d: unexpected %T", i, item)
		}
	}
	*l = out
	return nil
}

// MarshalJSON encodes a scored piece as [token, score].
func (s ScoredToken) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{s.Token, s.Score})
}

func (s *ScoredToken) UnmarshalJSON(data []byte) error {
	var raw []any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if len(raw) != 2 {
		return fmt.Errorf("scored token: expected [token, score], got %d items", len(raw))
	}
	tok, ok := raw[0].(string)
	if !ok {
		return fmt.Errorf("scored token: token must be a string")
	}
	score, ok := raw[1].(float64)
	if !ok {
		return fmt.Errorf("scored token: score must be a number")
	}
	s.Token, s.Score = tok, score
	return nil
}

type bpeJSON struct {
	Type                    string       `json:"type"`
	Dropout                 *float32     `json:"dropout"`
	UnkToken                *string      `json:"unk_token"`
	ContinuingSubwordPrefix *string      `json:"continuing_subword_prefix"`
	EndOfWordSuffix         *string      `json:"end_of_word_suffix"`
	FuseUnk                 bool         `json:"fuse_unk"`
	ByteFallback            bool         `json:"byte_fallback"`
	IgnoreMerges            bool         `json:"ignore_merges"`
	Vocab                   orderedVocab `json:"vocab"`
	Merges                  mergeList    `json:"merges"`
}

type wordPieceJSON struct {
	Type                    string       `json:"type"`
	UnkToken                *string      `json:"unk_token"`
	ContinuingSubwordPrefix *string      `json:"continuing_subword_prefix"`
	MaxInputCharsPerWord    *int         `json:"max_input_chars_per_word"`
	Vocab                   orderedVocab `json:"vocab"`
}

type wordLevelJSON struct {
	Type     string       `json:"type"`
	Vocab    orderedVocab `json:"vocab"`
	UnkToken *string      `json:"unk_token"`
}

type unigramJSON struct {
	Type         string        `json:"type"`
	UnkID        *int          `json:"unk_id"`
	Vocab        []ScoredToken `json:"vocab"`
	ByteFallback bool          `json:"byte_fallback"`
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func marshalVariant(v Variant) ([]byte, error) {
	switch v := v.(type) {
	case *BPE:
		cfg := v.Config()
		out := bpeJSON{
			Type:                    string(KindBPE),
			UnkToken:                optional(cfg.UnkToken),
			ContinuingSubwordPrefix: optional(cfg.ContinuingSubwordPrefix),
			EndOfWordSuffix:         optional(cfg.EndOfWordSuffix),
			FuseUnk:                 cfg.FuseUnk,
			ByteFallback:            cfg.ByteFallback,
			IgnoreMerges:            cfg.IgnoreMerges,
			Vocab:                   orderedVocab(cfg.Vocab),
			Merges:                  cfg.Merges,
		}
		if cfg.Dropout > 0 {
			out.Dropout = &cfg.Dropout
		}
		return json.Marshal(out)
	case *WordPiece:
		cfg := v.Config()
		return json.Marshal(wordPieceJSON{
			Type:                    string(KindWordPiece),
			UnkToken:                &cfg.UnkToken,
			ContinuingSubwordPrefix: &cfg.ContinuingSubwordPrefix,
			MaxInputCharsPerWord:    &cfg.MaxInputCharsPerWord,
			Vocab:                   orderedVocab(cfg.Vocab),
		})
	case *WordLevel:
		cfg := v.Config()
		return json.Marshal(wordLevelJSON{
			Type:     string(KindWordLevel),
			Vocab:    orderedVocab(cfg.Vocab),
			UnkToken: &cfg.UnkToken,
		})
	case *Unigram:
		cfg := v.Config()
		return json.Marshal(unigramJSON{
			Type:         string(KindUnigram),
			UnkID:        cfg.UnkID,
			Vocab:        cfg.Vocab,
			ByteFallback: cfg.ByteFallback,
		})
	default:
		return nil, fmt.Errorf("%w: cannot serialize %T", ErrUnsupported, v)
	}
}

// MarshalJSON encodes the model tagged by its "type".
func (m *Model) MarshalJSON() ([]byte, error) {
	var data []byte
	err := m.read(func(v Variant) error {
		var err error
		data, err = marshalVariant(v)
		return err
	})
	return data, err
}

// Unmarshal decodes a model serialized by MarshalJSON. Documents without a
// "type" tag are recognised by their fields.
func Unmarshal(data []byte) (*Model, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("%w: decode model: %w", ErrInvalidConfig, err)
	}

	kind := Kind("")
	if raw, ok := fields["type"]; ok {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, fmt.Errorf("%w: decode model type: %w", ErrInvalidConfig, err)
		}
		kind = Kind(s)
	}
	if kind == "" {
		kind = inferKind(fields)
	}

	v, err := unmarshalVariant(kind, data)
	if err != nil {
		return nil, err
	}
	return New(v), nil
}

func inferKind(fields map[string]json.RawMessage) Kind {
	if _, ok := fields["merges"]; ok {
		return KindBPE
	}
	if _, ok := fields["max_input_chars_per_word"]; ok {
		return KindWordPiece
	}
	if raw, ok := fields["vocab"]; ok && strings.HasPrefix(strings.TrimSpace(string(raw)), "[") {
		return KindUnigram
	}
	return KindWordLevel
}

func unmarshalVariant(kind Kind, data []byte) (Variant, error) {
	switch kind {
	case KindBPE:
		var in bpeJSON
		if err := json.Unmarshal(data, &in); err != nil {
			return nil, fmt.Errorf("%w: decode BPE: %w", ErrInvalidConfig, err)
		}
		cfg := BPEConfig{
			Vocab:        Vocab(in.Vocab),
			Merges:       in.Merges,
			FuseUnk:      in.FuseUnk,
			ByteFallback: in.ByteFallback,
			IgnoreMerges: in.IgnoreMerges,
		}
		if cfg.Vocab == nil && cfg.Merges == nil {
			cfg.Vocab, cfg.Merges = Vocab{}, []MergePair{}
		}
		if in.Dropout != nil {
			cfg.Dropout = *in.Dropout
		}
		if in.UnkToken != nil {
			cfg.UnkToken = *in.UnkToken
		}
		if in.ContinuingSubwordPrefix != nil {
			cfg.ContinuingSubwordPrefix = *in.ContinuingSubwordPrefix
		}
		if in.EndOfWordSuffix != nil {
			cfg.EndOfWordSuffix = *in.EndOfWordSuffix
		}
		return NewBPE(cfg)
	case KindWordPiece:
		var in wordPieceJSON
		if err := json.Unmarshal(data, &in); err != nil {
			return nil, fmt.Errorf("%w: decode WordPiece: %w", ErrInvalidConfig, err)
		}
		cfg := DefaultWordPieceConfig()
		if in.Vocab != nil {
			cfg.Vocab = Vocab(in.Vocab)
		}
		if in.UnkToken != nil {
			cfg.UnkToken = *in.UnkToken
		}
		if in.ContinuingSubwordPrefix != nil {
			cfg.ContinuingSubwordPrefix = *in.ContinuingSubwordPrefix
		}
		if in.MaxInputCharsPerWord != nil {
			cfg.MaxInputCharsPerWord = *in.MaxInputCharsPerWord
		}
		return NewWordPiece(cfg), nil
	case KindWordLevel:
		var in wordLevelJSON
		if err := json.Unmarshal(data, &in); err != nil {
			return nil, fmt.Errorf("%w: decode WordLevel: %w", ErrInvalidConfig, err)
		}
		cfg := DefaultWordLevelConfig()
		if in.Vocab != nil {
			cfg.Vocab = Vocab(in.Vocab)
		}
		if in.UnkToken != nil {
			cfg.UnkToken = *in.UnkToken
		}
		return NewWordLevel(cfg), nil
	case KindUnigram:
		var in unigramJSON
		if err := json.Unmarshal(data, &in); err != nil {
			return nil, fmt.Errorf("%w: decode Unigram: %w", ErrInvalidConfig, err)
		}
		return NewUnigram(UnigramConfig{Vocab: in.Vocab, UnkID: in.UnkID, ByteFallback: in.ByteFallback})
	default:
		return nil, newConfigError("unknown model type %q", kind)
	}
}
