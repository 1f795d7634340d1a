package tokenizer

import (
	"context"
	"fmt"
	"strings"

	"github.com/samcharles93/subword/internal/gguf"
	"github.com/samcharles93/subword/internal/logger"
	"github.com/samcharles93/subword/internal/models"
	"github.com/samcharles93/subword/internal/pretokenize"
	"github.com/samcharles93/subword/internal/processor"
)

// LoadGGUF builds the tokenizer embedded in a GGUF model file.
func LoadGGUF(ctx context.Context, path string) (*Tokenizer, error) {
	md, err := gguf.Open(path)
	if err != nil {
		return nil, err
	}
	vocab, err := md.Vocabulary()
	if err != nil {
		return nil, fmt.Errorf("load %s: %w: %w", path, ErrInvalidFile, err)
	}
	tok, err := FromGGUF(ctx, vocab)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return tok, nil
}

// FromGGUF maps a GGUF vocabulary onto a model and pipeline:
//
//	gpt2        byte-level BPE from tokens and merges
//	llama, t5   Unigram over the token scores with a Metaspace pre-tokenizer
//	bert        WordPiece with a [CLS] $A [SEP] template
//
// Control and user-defined tokens become added tokens.
func FromGGUF(ctx context.Context, v gguf.Vocabulary) (*Tokenizer, error) {
	var (
		model *models.Model
		pre   pretokenize.PreTokenizer
		post  *processor.TemplateProcessing
		err   error
	)
	switch v.Model {
	case "gpt2":
		model, err = ggufBPE(v)
		pre = pretokenize.NewByteLevel(false, true)
		if err == nil {
			post, err = ggufBOSTemplate(v)
		}
	case "llama", "t5":
		model, err = ggufUnigram(v)
		pre = pretokenize.NewMetaspace()
		if err == nil {
			post, err = ggufBOSTemplate(v)
		}
	case "bert":
		model = ggufWordPiece(v)
		pre = pretokenize.NewWhitespace()
		post, err = ggufBertTemplate(v)
	default:
		return nil, fmt.Errorf("%w: gguf tokenizer model %q", models.ErrUnsupported, v.Model)
	}
	if err != nil {
		return nil, err
	}

	tok := New(model)
	tok.SetPreTokenizer(pre)
	tok.SetPostProcessor(post)
	added := ggufAddedTokens(v)
	tok.SetAddedTokens(added)

	logger.FromContext(ctx).Debug("loaded gguf tokenizer",
		"model", v.Model,
		"kind", model.Kind(),
		"vocab_size", len(v.Tokens),
		"merges", len(v.Merges),
		"added_tokens", len(added),
	)
	return tok, nil
}

func ggufVocab(v gguf.Vocabulary) models.Vocab {
	vocab := make(models.Vocab, len(v.Tokens))
	for id, token := range v.Tokens {
		if _, dup := vocab[token]; !dup {
			vocab[token] = uint32(id)
		}
	}
	return vocab
}

func ggufBPE(v gguf.Vocabulary) (*models.Model, error) {
	merges := make([]models.MergePair, 0, len(v.Merges))
	for i, m := range v.Merges {
		a, b, ok := strings.Cut(m, " ")
		if !ok {
			return nil, fmt.Errorf("%w: merge %d %q is not a pair", ErrInvalidFile, i, m)
		}
		merges = append(merges, models.MergePair{a, b})
	}
	cfg := models.BPEConfig{Vocab: ggufVocab(v), Merges: merges}
	if v.UnknownID != nil {
		cfg.UnkToken = v.Tokens[*v.UnknownID]
	}
	bpe, err := models.NewBPE(cfg)
	if err != nil {
		return nil, err
	}
	return models.New(bpe), nil
}

func ggufUnigram(v gguf.Vocabulary) (*models.Model, error) {
	if v.Scores == nil {
		return nil, fmt.Errorf("%w: %s needs %s", ErrInvalidFile, v.Model, gguf.KeyScores)
	}
	cfg := models.UnigramConfig{Vocab: make([]models.ScoredToken, len(v.Tokens))}
	for i, token := range v.Tokens {
		cfg.Vocab[i] = models.ScoredToken{Token: token, Score: float64(v.Scores[i])}
		if v.Type(i) == gguf.TokenByte {
			cfg.ByteFallback = true
		}
	}
	if v.UnknownID != nil {
		id := int(*v.UnknownID)
		cfg.UnkID = &id
	}
	u, err := models.NewUnigram(cfg)
	if err != nil {
		return nil, err
	}
	return models.New(u), nil
}

func ggufWordPiece(v gguf.Vocabulary) *models.Model {
	cfg := models.DefaultWordPieceConfig()
	cfg.Vocab = ggufVocab(v)
	if v.UnknownID != nil {
		cfg.UnkToken = v.Tokens[*v.UnknownID]
	}
	return models.New(models.NewWordPiece(cfg))
}

// ggufBOSTemplate adds the BOS and EOS tokens the file asks for around each
// sequence. It returns nil when neither is requested.
func ggufBOSTemplate(v gguf.Vocabulary) (*processor.TemplateProcessing, error) {
	var bos, eos *processor.SpecialToken
	if v.AddBOS && v.BOSID != nil {
		t := processor.SingleToken(v.Tokens[*v.BOSID], *v.BOSID)
		bos = &t
	}
	if v.AddEOS && v.EOSID != nil {
		t := processor.SingleToken(v.Tokens[*v.EOSID], *v.EOSID)
		eos = &t
	}
	if bos == nil && eos == nil {
		return nil, nil
	}

	var single, pair processor.Template
	var tokens []processor.SpecialToken
	wrap := func(t processor.Template, seq processor.Sequence, typeID uint32) processor.Template {
		if bos != nil {
			t = append(t, processor.Special(bos.ID, typeID))
		}
		t = append(t, processor.Seq(seq, typeID))
		if eos != nil {
			t = append(t, processor.Special(eos.ID, typeID))
		}
		return t
	}
	single = wrap(single, processor.SequenceA, 0)
	pair = wrap(wrap(pair, processor.SequenceA, 0), processor.SequenceB, 1)
	for _, t := range []*processor.SpecialToken{bos, eos} {
		if t != nil {
			tokens = append(tokens, *t)
		}
	}
	return processor.NewTemplateProcessing(single, pair, processor.NewTokens(tokens...))
}

func ggufBertTemplate(v gguf.Vocabulary) (*processor.TemplateProcessing, error) {
	cls, sep := v.CLSID, v.SeparatorID
	if cls == nil {
		cls = v.BOSID
	}
	if sep == nil {
		sep = v.EOSID
	}
	if cls == nil || sep == nil {
		return nil, fmt.Errorf("%w: bert vocabulary needs cls and separator token ids", ErrInvalidFile)
	}
	return bertTemplate(
		tokenRef{Token: v.Tokens[*cls], ID: *cls},
		tokenRef{Token: v.Tokens[*sep], ID: *sep},
	)
}

func ggufAddedTokens(v gguf.Vocabulary) []AddedToken {
	var added []AddedToken
	for id, token := range v.Tokens {
		switch v.Type(id) {
		case gguf.TokenControl:
			added = append(added, AddedToken{ID: uint32(id), Content: token, Special: true})
		case gguf.TokenUserDefined:
			added = append(added, AddedToken{ID: uint32(id), Content: token})
		}
	}
	return added
}
