package tokenizer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/samcharles93/subword/internal/logger"
	"github.com/samcharles93/subword/internal/models"
	"github.com/samcharles93/subword/internal/pretokenize"
	"github.com/samcharles93/subword/internal/processor"
)

// ErrInvalidFile reports a tokenizer.json that is missing required sections.
var ErrInvalidFile = errors.New("invalid_tokenizer_file")

type fileJSON struct {
	Version       string          `json:"version"`
	AddedTokens   []AddedToken    `json:"added_tokens"`
	PreTokenizer  json.RawMessage `json:"pre_tokenizer"`
	PostProcessor json.RawMessage `json:"post_processor"`
	Model         json.RawMessage `json:"model"`
}

// Open loads the tokenizer embedded in a .gguf model file, or a
// tokenizer.json for any other extension.
func Open(ctx context.Context, path string) (*Tokenizer, error) {
	if strings.EqualFold(filepath.Ext(path), ".gguf") {
		return LoadGGUF(ctx, path)
	}
	return LoadFile(ctx, path)
}

// LoadFile reads a tokenizer.json from disk.
func LoadFile(ctx context.Context, path string) (*Tokenizer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	tok, err := Load(ctx, data)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return tok, nil
}

// Load builds a tokenizer from the model, pre_tokenizer, post_processor and
// added_tokens sections of a tokenizer.json document. Normalizers and
// decoders are ignored.
func Load(ctx context.Context, data []byte) (*Tokenizer, error) {
	log := logger.FromContext(ctx)

	var f fileJSON
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidFile, err)
	}
	if isNull(f.Model) {
		return nil, fmt.Errorf("%w: missing model section", ErrInvalidFile)
	}

	model, err := models.Unmarshal(f.Model)
	if err != nil {
		return nil, fmt.Errorf("model: %w", err)
	}
	pre, err := pretokenize.Unmarshal(f.PreTokenizer)
	if err != nil {
		return nil, fmt.Errorf("pre_tokenizer: %w", err)
	}
	post, err := loadPostProcessor(log, f.PostProcessor)
	if err != nil {
		return nil, fmt.Errorf("post_processor: %w", err)
	}

	tok := New(model)
	tok.SetPreTokenizer(pre)
	tok.SetPostProcessor(post)
	tok.SetAddedTokens(f.AddedTokens)

	size, _ := model.VocabSize()
	log.Debug("loaded tokenizer",
		"model", model.Kind(),
		"vocab_size", size,
		"pre_tokenizer", pretokenize.Name(pre),
		"template", post != nil,
		"added_tokens", len(f.AddedTokens),
	)
	return tok, nil
}

type postJSON struct {
	Type       string            `json:"type"`
	Processors []json.RawMessage `json:"processors"`
	Sep        *tokenRef         `json:"sep"`
	Cls        *tokenRef         `json:"cls"`
}

// tokenRef is the ["[SEP]", 102] form used by Bert and Roberta processors.
type tokenRef struct {
	Token string
	ID    uint32
}

func (r *tokenRef) UnmarshalJSON(data []byte) error {
	var raw [2]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if err := json.Unmarshal(raw[0], &r.Token); err != nil {
		return err
	}
	return json.Unmarshal(raw[1], &r.ID)
}

// loadPostProcessor returns the template the document describes. Bert and
// Roberta processors are rewritten as templates; processors that only touch
// offsets are skipped.
func loadPostProcessor(log logger.Logger, data json.RawMessage) (*processor.TemplateProcessing, error) {
	if isNull(data) {
		return nil, nil
	}
	var p postJSON
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, err
	}

	switch p.Type {
	case processor.TypeTemplateProcessing:
		return processor.Unmarshal(data)
	case "BertProcessing":
		if p.Sep == nil || p.Cls == nil {
			return nil, fmt.Errorf("%w: BertProcessing needs sep and cls", ErrInvalidFile)
		}
		return bertTemplate(*p.Cls, *p.Sep)
	case "RobertaProcessing":
		if p.Sep == nil || p.Cls == nil {
			return nil, fmt.Errorf("%w: RobertaProcessing needs sep and cls", ErrInvalidFile)
		}
		return processor.NewTemplateProcessing(
			processor.Template{processor.Special(p.Cls.Token, 0), processor.Seq(processor.SequenceA, 0), processor.Special(p.Sep.Token, 0)},
			processor.Template{
				processor.Special(p.Cls.Token, 0), processor.Seq(processor.SequenceA, 0), processor.Special(p.Sep.Token, 0),
				processor.Special(p.Sep.Token, 0), processor.Seq(processor.SequenceB, 0), processor.Special(p.Sep.Token, 0),
			},
			processor.NewTokens(processor.SingleToken(p.Cls.Token, p.Cls.ID), processor.SingleToken(p.Sep.Token, p.Sep.ID)),
		)
	case "Sequence":
		var found *processor.TemplateProcessing
		for i, raw := range p.Processors {
			tp, err := loadPostProcessor(log, raw)
			if err != nil {
				return nil, fmt.Errorf("processors[%d]: %w", i, err)
			}
			if tp == nil {
				continue
			}
			if found != nil {
				log.Warn("ignoring additional template post-processor", "index", i)
				continue
			}
			found = tp
		}
		return found, nil
	default:
		log.Debug("ignoring post-processor", "type", p.Type)
		return nil, nil
	}
}

// bertTemplate is "cls $A sep" for one sequence and "cls $A sep $B:1 sep:1"
// for two.
func bertTemplate(cls, sep tokenRef) (*processor.TemplateProcessing, error) {
	return processor.NewTemplateProcessing(
		processor.Template{processor.Special(cls.Token, 0), processor.Seq(processor.SequenceA, 0), processor.Special(sep.Token, 0)},
		processor.Template{
			processor.Special(cls.Token, 0), processor.Seq(processor.SequenceA, 0), processor.Special(sep.Token, 0),
			processor.Seq(processor.SequenceB, 1), processor.Special(sep.Token, 1),
		},
		processor.NewTokens(processor.SingleToken(cls.Token, cls.ID), processor.SingleToken(sep.Token, sep.ID)),
	)
}

func isNull(data json.RawMessage) bool {
	data = bytes.TrimSpace(data)
	return len(data) == 0 || bytes.Equal(data, []byte("null"))
}
