// Package models implements the subword tokenization algorithms and the
// lock-guarded Model that dispatches to them.
package models

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/samcharles93/subword/internal/encoding"
)

// Kind identifies a model variant.
type Kind string

const (
	KindBPE       Kind = "BPE"
	KindWordPiece Kind = "WordPiece"
	KindWordLevel Kind = "WordLevel"
	KindUnigram   Kind = "Unigram"
)

// Variant is one of *BPE, *WordPiece, *WordLevel or *Unigram.
type Variant interface {
	Tokenize(seq string) ([]encoding.Token, error)
	TokenToID(token string) (uint32, bool)
	IDToToken(id uint32) (string, bool)
	Vocab() Vocab
	VocabSize() int

	trainer() TrainerConfig
}

var (
	_ Variant = (*BPE)(nil)
	_ Variant = (*WordPiece)(nil)
	_ Variant = (*WordLevel)(nil)
	_ Variant = (*Unigram)(nil)
)

// Model guards a variant with a reader/writer lock. Tokenization and lookups
// share the lock; setters and cache administration hold it exclusively.
// A panic inside an exclusive section poisons the model.
type Model struct {
	mu       sync.RWMutex
	poisoned atomic.Bool
	v        Variant
}

// New wraps a variant.
func New(v Variant) *Model {
	return &Model{v: v}
}

func (m *Model) read(fn func(v Variant) error) error {
	if m.poisoned.Load() {
		return ErrPoisoned
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return fn(m.v)
}

func (m *Model) write(fn func(v Variant) error) error {
	if m.poisoned.Load() {
		return ErrPoisoned
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	defer func() {
		if r := recover(); r != nil {
			m.poisoned.Store(true)
			panic(r)
		}
	}()
	return fn(m.v)
}

func kindOf(v Variant) Kind {
	switch v.(type) {
	case *BPE:
		return KindBPE
	case *WordPiece:
		return KindWordPiece
	case *WordLevel:
		return KindWordLevel
	case *Unigram:
		return KindUnigram
	default:
		panic(fmt.Sprintf("models: unknown variant %T", v))
	}
}

func (m *Model) Kind() Kind {
	return kindOf(m.v)
}

// Tokenize splits one pre-tokenized word. Offsets are relative to seq.
func (m *Model) Tokenize(seq string) ([]encoding.Token, error) {
	var toks []encoding.Token
	err := m.read(func(v Variant) error {
		var err error
		toks, err = v.Tokenize(seq)
		return err
	})
	return toks, err
}

// TokenToID reports the id of token. The error is only set when the model
// is poisoned.
func (m *Model) TokenToID(token string) (uint32, bool, error) {
	var (
		id uint32
		ok bool
	)
	err := m.read(func(v Variant) error {
		id, ok = v.TokenToID(token)
		return nil
	})
	return id, ok, err
}

func (m *Model) IDToToken(id uint32) (string, bool, error) {
	var (
		tok string
		ok  bool
	)
	err := m.read(func(v Variant) error {
		tok, ok = v.IDToToken(id)
		return nil
	})
	return tok, ok, err
}

// Vocab returns a snapshot of the vocabulary.
func (m *Model) Vocab() (Vocab, error) {
	var vocab Vocab
	err := m.read(func(v Variant) error {
		vocab = v.Vocab()
		return nil
	})
	return vocab, err
}

func (m *Model) VocabSize() (int, error) {
	var n int
	err := m.read(func(v Variant) error {
		n = v.VocabSize()
		return nil
	})
	return n, err
}

// Trainer describes the trainer matching this model.
func (m *Model) Trainer() (TrainerConfig, error) {
	var cfg TrainerConfig
	err := m.read(func(v Variant) error {
		cfg = v.trainer()
		return nil
	})
	return cfg, err
}

// ClearCache empties the word cache of BPE and Unigram models.
func (m *Model) ClearCache() error {
	return m.write(func(v Variant) error {
		switch v := v.(type) {
		case *BPE:
			v.cache.Clear()
		case *Unigram:
			v.cache.Clear()
		default:
			return fmt.Errorf("%w: %s has no cache", ErrUnsupported, kindOf(v))
		}
		return nil
	})
}

// ResizeCache sets the cache capacity, dropping entries that no longer fit.
func (m *Model) ResizeCache(capacity int) error {
	return m.write(func(v Variant) error {
		switch v := v.(type) {
		case *BPE:
			v.cache.Resize(capacity)
		case *Unigram:
			v.cache.Resize(capacity)
		default:
			return fmt.Errorf("%w: %s has no cache", ErrUnsupported, kindOf(v))
		}
		return nil
	})
}

func (m *Model) CacheStats() (CacheStats, error) {
	var stats CacheStats
	err := m.read(func(v Variant) error {
		switch v := v.(type) {
		case *BPE:
			stats = v.cache.Stats()
		case *Unigram:
			stats = v.cache.Stats()
		default:
			return fmt.Errorf("%w: %s has no cache", ErrUnsupported, kindOf(v))
		}
		return nil
	})
	return stats, err
}

// View runs fn with shared access to the variant. fn must not retain v.
func (m *Model) View(fn func(v Variant) error) error {
	return m.read(fn)
}
