package gguf

import (
	"fmt"
	"strings"
)

// Metadata keys of the embedded tokenizer.
const (
	KeyTokenizerModel = "tokenizer.ggml.model"
	KeyTokenizerPre   = "tokenizer.ggml.pre"
	KeyTokens         = "tokenizer.ggml.tokens"
	KeyScores         = "tokenizer.ggml.scores"
	KeyMerges         = "tokenizer.ggml.merges"
	KeyTokenTypes     = "tokenizer.ggml.token_type"
	KeyUnknownID      = "tokenizer.ggml.unknown_token_id"
	KeyBOSID          = "tokenizer.ggml.bos_token_id"
	KeyEOSID          = "tokenizer.ggml.eos_token_id"
	KeySeparatorID    = "tokenizer.ggml.seperator_token_id"
	KeyPaddingID      = "tokenizer.ggml.padding_token_id"
	KeyCLSID          = "tokenizer.ggml.cls_token_id"
	KeyAddBOS         = "tokenizer.ggml.add_bos_token"
	KeyAddEOS         = "tokenizer.ggml.add_eos_token"
)

// TokenType classifies vocabulary entries.
type TokenType int32

const (
	TokenNormal      TokenType = 1
	TokenUnknown     TokenType = 2
	TokenControl     TokenType = 3
	TokenUserDefined TokenType = 4
	TokenUnused      TokenType = 5
	TokenByte        TokenType = 6
)

// Vocabulary is the tokenizer embedded in a GGUF file.
type Vocabulary struct {
	// Model is the tokenizer family: "gpt2" (byte-level BPE), "llama"
	// (SentencePiece), "bert" (WordPiece) or "t5" (Unigram).
	Model      string
	Pre        string
	Tokens     []string
	Scores     []float32
	Merges     []string
	TokenTypes []TokenType

	UnknownID   *uint32
	BOSID       *uint32
	EOSID       *uint32
	SeparatorID *uint32
	CLSID       *uint32
	PaddingID   *uint32

	AddBOS bool
	AddEOS bool
}

// Vocabulary extracts the embedded tokenizer. Token ids index Tokens.
func (md *Metadata) Vocabulary() (Vocabulary, error) {
	var v Vocabulary
	var err error
	if v.Model, err = MustGetString(md.KV, KeyTokenizerModel); err != nil {
		return v, err
	}
	v.Model = strings.ToLower(v.Model)
	v.Pre, _ = GetString(md.KV, KeyTokenizerPre)

	var ok bool
	if v.Tokens, ok = GetArray[string](md.KV, KeyTokens); !ok || len(v.Tokens) == 0 {
		return v, missing(KeyTokens)
	}
	if _, present := md.KV[KeyScores]; present {
		if v.Scores, ok = GetArray[float32](md.KV, KeyScores); !ok || len(v.Scores) != len(v.Tokens) {
			return v, fmt.Errorf("%s must hold one f32 per token", KeyScores)
		}
	}
	if _, present := md.KV[KeyMerges]; present {
		if v.Merges, ok = GetArray[string](md.KV, KeyMerges); !ok {
			return v, missing(KeyMerges)
		}
	}
	if _, present := md.KV[KeyTokenTypes]; present {
		types, ok := GetArray[int32](md.KV, KeyTokenTypes)
		if !ok || len(types) != len(v.Tokens) {
			return v, fmt.Errorf("%s must hold one i32 per token", KeyTokenTypes)
		}
		v.TokenTypes = make([]TokenType, len(types))
		for i, t := range types {
			v.TokenTypes[i] = TokenType(t)
		}
	}

	for key, dst := range map[string]**uint32{
		KeyUnknownID:   &v.UnknownID,
		KeyBOSID:       &v.BOSID,
		KeyEOSID:       &v.EOSID,
		KeySeparatorID: &v.SeparatorID,
		KeyCLSID:       &v.CLSID,
		KeyPaddingID:   &v.PaddingID,
	} {
		id, ok := GetUint64(md.KV, key)
		if !ok {
			continue
		}
		if id >= uint64(len(v.Tokens)) {
			return v, fmt.Errorf("%s %d is out of range", key, id)
		}
		id32 := uint32(id)
		*dst = &id32
	}
	v.AddBOS, _ = GetBool(md.KV, KeyAddBOS)
	v.AddEOS, _ = GetBool(md.KV, KeyAddEOS)
	return v, nil
}

// Type returns the type of token id, TokenNormal when types are absent.
func (v Vocabulary) Type(id int) TokenType {
	if id < 0 || id >= len(v.TokenTypes) {
		return TokenNormal
	}
	return v.TokenTypes[id]
}
