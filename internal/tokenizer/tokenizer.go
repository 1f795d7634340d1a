// Package tokenizer wires a pre-tokenizer, a model and a post-processor into
// the encode pipeline, and loads the whole arrangement from tokenizer.json.
package tokenizer

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/samcharles93/subword/internal/encoding"
	"github.com/samcharles93/subword/internal/models"
	"github.com/samcharles93/subword/internal/pretokenize"
	"github.com/samcharles93/subword/internal/processor"
)

// Tokenizer encodes text into Encodings. The Set methods configure it and
// must be called before the tokenizer is shared; encoding is safe for
// concurrent use.
type Tokenizer struct {
	model   *models.Model
	pre     pretokenize.PreTokenizer
	post    *processor.TemplateProcessing
	added   addedVocab
	workers int
}

// defaultPost only merges and stamps type ids 0 and 1.
var defaultPost = mustDefaultPost()

func mustDefaultPost() *processor.TemplateProcessing {
	tp, err := processor.NewTemplateProcessing(nil, nil, nil)
	if err != nil {
		panic(err)
	}
	return tp
}

func New(model *models.Model) *Tokenizer {
	return &Tokenizer{model: model, workers: runtime.GOMAXPROCS(0)}
}

func (t *Tokenizer) Model() *models.Model { return t.model }

func (t *Tokenizer) PreTokenizer() pretokenize.PreTokenizer { return t.pre }

// PostProcessor returns the configured template, or nil when encodings are
// only merged.
func (t *Tokenizer) PostProcessor() *processor.TemplateProcessing { return t.post }

func (t *Tokenizer) AddedTokens() []AddedToken {
	return append([]AddedToken(nil), t.added.tokens...)
}

// SetPreTokenizer installs pt; nil feeds each text to the model whole.
func (t *Tokenizer) SetPreTokenizer(pt pretokenize.PreTokenizer) { t.pre = pt }

func (t *Tokenizer) SetPostProcessor(tp *processor.TemplateProcessing) { t.post = tp }

func (t *Tokenizer) SetAddedTokens(tokens []AddedToken) { t.added = newAddedVocab(tokens) }

// SetBatchWorkers bounds EncodeBatch concurrency; n <= 0 uses GOMAXPROCS.
func (t *Tokenizer) SetBatchWorkers(n int) {
	if n <= 0 {
		n = runtime.GOMAXPROCS(0)
	}
	t.workers = n
}

func (t *Tokenizer) BatchWorkers() int { return t.workers }

// EncodeOptions controls special tokens and truncation. A MaxLength of zero
// disables truncation.
type EncodeOptions struct {
	AddSpecialTokens bool
	MaxLength        int
	Stride           int
	Direction        encoding.Direction
}

// Input is one element of a batch.
type Input struct {
	Text string
	Pair *string
}

// TokenizeWords runs the model on each word as is, without pre-tokenization
// or post-processing.
func (t *Tokenizer) TokenizeWords(words []string) ([][]encoding.Token, error) {
	out := make([][]encoding.Token, len(words))
	for i, w := range words {
		toks, err := t.model.Tokenize(w)
		if err != nil {
			return nil, fmt.Errorf("word %d: %w", i, err)
		}
		out[i] = toks
	}
	return out, nil
}

// Encode tokenizes text and the optional pair, truncates them to fit
// MaxLength once special tokens are accounted for, and applies the
// post-processor.
func (t *Tokenizer) Encode(ctx context.Context, text string, pair *string, opts EncodeOptions) (encoding.Encoding, error) {
	var first, second encoding.Encoding
	var g errgroup.Group
	g.Go(func() error {
		var err error
		first, err = t.encodeSequence(ctx, text, 0)
		return err
	})
	if pair != nil {
		g.Go(func() error {
			var err error
			second, err = t.encodeSequence(ctx, *pair, 1)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return encoding.Encoding{}, err
	}

	post := t.post
	if post == nil {
		post = defaultPost
	}

	if opts.MaxLength > 0 {
		reserved := 0
		if opts.AddSpecialTokens {
			reserved = post.AddedTokens(pair != nil)
		}
		budget := max(opts.MaxLength-reserved, 0)
		var err error
		if pair == nil {
			err = first.Truncate(budget, opts.Stride, opts.Direction)
		} else {
			err = truncatePair(&first, &second, budget, opts.Stride, opts.Direction)
		}
		if err != nil {
			return encoding.Encoding{}, err
		}
	}

	if pair == nil {
		return post.Process(first, nil, opts.AddSpecialTokens)
	}
	return post.Process(first, &second, opts.AddSpecialTokens)
}

// EncodeBatch encodes inputs concurrently, keeping their order. The first
// failure cancels the remaining work.
func (t *Tokenizer) EncodeBatch(ctx context.Context, inputs []Input, opts EncodeOptions) ([]encoding.Encoding, error) {
	out := make([]encoding.Encoding, len(inputs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(t.workers, 1))
	for i, in := range inputs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			enc, err := t.Encode(ctx, in.Text, in.Pair, opts)
			if err != nil {
				return fmt.Errorf("input %d: %w", i, err)
			}
			out[i] = enc
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// encodeSequence splits out added tokens, pre-tokenizes the remaining text
// and runs the model on every word. Offsets refer to text.
func (t *Tokenizer) encodeSequence(ctx context.Context, text string, typeID uint32) (encoding.Encoding, error) {
	var parts []encoding.Encoding
	word := 0
	for _, frag := range t.added.split(text) {
		if err := ctx.Err(); err != nil {
			return encoding.Encoding{}, err
		}
		if frag.token != nil {
			parts = append(parts, frag.encode(typeID))
			continue
		}

		splits, err := t.preTokenize(frag.text)
		if err != nil {
			return encoding.Encoding{}, fmt.Errorf("pre-tokenize: %w", err)
		}
		for _, s := range splits {
			toks, err := t.model.Tokenize(s.Value)
			if err != nil {
				return encoding.Encoding{}, err
			}
			for i := range toks {
				o := s.Map(toks[i].Offsets)
				toks[i].Offsets = encoding.Offsets{Start: o.Start + frag.start, End: o.End + frag.start}
			}
			e := encoding.FromTokens(toks, typeID)
			e.SetWord(word)
			word++
			parts = append(parts, e)
		}
	}
	return encoding.Merge(parts, false), nil
}

func (t *Tokenizer) preTokenize(text string) ([]pretokenize.Split, error) {
	if t.pre == nil {
		return pretokenize.Whole(text), nil
	}
	return t.pre.PreTokenize(text)
}

// truncatePair shares maxLen between two sequences, shortening the longer
// one first. When both exceed half of maxLen each keeps half.
func truncatePair(a, b *encoding.Encoding, maxLen, stride int, dir encoding.Direction) error {
	n1, n2 := a.Len(), b.Len()
	if n1+n2 <= maxLen {
		return nil
	}
	swap := n1 > n2
	if swap {
		n1, n2 = n2, n1
	}
	if n1 > maxLen {
		n2 = n1
	} else {
		n2 = max(n1, maxLen-n1)
	}
	if n1+n2 > maxLen {
		n1 = maxLen / 2
		n2 = n1 + maxLen%2
	}
	if swap {
		n1, n2 = n2, n1
	}
	return errors.Join(a.Truncate(n1, stride, dir), b.Truncate(n2, stride, dir))
}

// TokenToID resolves added tokens first, then the model vocabulary.
func (t *Tokenizer) TokenToID(token string) (uint32, bool, error) {
	if at, ok := t.added.lookup(token); ok {
		return at.ID, true, nil
	}
	return t.model.TokenToID(token)
}

func (t *Tokenizer) IDToToken(id uint32) (string, bool, error) {
	for _, at := range t.added.tokens {
		if at.ID == id {
			return at.Content, true, nil
		}
	}
	return t.model.IDToToken(id)
}

// Info summarizes a tokenizer for inspection.
type Info struct {
	Kind         models.Kind        `json:"kind"`
	VocabSize    int                `json:"vocab_size"`
	PreTokenizer string             `json:"pre_tokenizer"`
	Template     bool               `json:"template"`
	AddedSingle  int                `json:"added_single"`
	AddedPair    int                `json:"added_pair"`
	AddedTokens  int                `json:"added_tokens"`
	Cache        *models.CacheStats `json:"cache,omitempty"`
}

func (t *Tokenizer) Info() (Info, error) {
	size, err := t.model.VocabSize()
	if err != nil {
		return Info{}, err
	}
	info := Info{
		Kind:         t.model.Kind(),
		VocabSize:    size,
		PreTokenizer: pretokenize.Name(t.pre),
		Template:     t.post != nil,
		AddedTokens:  len(t.added.tokens),
	}
	post := t.post
	if post == nil {
		post = defaultPost
	}
	info.AddedSingle = post.AddedTokens(false)
	info.AddedPair = post.AddedTokens(true)

	stats, err := t.model.CacheStats()
	switch {
	case err == nil:
		info.Cache = &stats
	case !errors.Is(err, models.ErrUnsupported):
		return Info{}, err
	}
	return info, nil
}
