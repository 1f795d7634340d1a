package api

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/samcharles93/subword/internal/logger"
	"github.com/samcharles93/subword/internal/models"
	"github.com/samcharles93/subword/internal/tokenizer"
)

// TokenizerProvider resolves tokenizers by name.
type TokenizerProvider interface {
	Names() []string
	Default() string
	Loaded(name string) bool
	Get(ctx context.Context, name string) (*tokenizer.Tokenizer, error)
}

type RegistryConfig struct {
	// Paths maps tokenizer names to tokenizer.json or .gguf files.
	Paths map[string]string
	// DefaultName is used when a request names no tokenizer.
	DefaultName string
	// CacheCapacity, when non-zero, resizes model caches after loading.
	// Negative disables caching.
	CacheCapacity int
	BatchWorkers  int
}

// Registry loads tokenizers on first use and keeps them for the life of the
// process.
type Registry struct {
	cfg   RegistryConfig
	mu    sync.Mutex
	cache map[string]*registryEntry
}

type registryEntry struct {
	once sync.Once
	tok  *tokenizer.Tokenizer
	err  error
}

func NewRegistry(cfg RegistryConfig) *Registry {
	if cfg.Paths == nil {
		cfg.Paths = map[string]string{}
	}
	return &Registry{cfg: cfg, cache: make(map[string]*registryEntry)}
}

// Add registers an already built tokenizer under name.
func (r *Registry) Add(name string, tok *tokenizer.Tokenizer) {
	entry := &registryEntry{tok: tok}
	entry.once.Do(func() {})
	r.mu.Lock()
	r.cache[name] = entry
	r.mu.Unlock()
}

func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := maps.Clone(r.cfg.Paths)
	for name := range r.cache {
		names[name] = ""
	}
	return slices.Sorted(maps.Keys(names))
}

func (r *Registry) Default() string {
	if r.cfg.DefaultName != "" {
		return r.cfg.DefaultName
	}
	if names := r.Names(); len(names) == 1 {
		return names[0]
	}
	return ""
}

// Loaded reports whether name has been loaded successfully.
func (r *Registry) Loaded(name string) bool {
	r.mu.Lock()
	entry, ok := r.cache[name]
	r.mu.Unlock()
	return ok && entry.tok != nil
}

func (r *Registry) Get(ctx context.Context, name string) (*tokenizer.Tokenizer, error) {
	if name == "" {
		name = r.Default()
	}
	r.mu.Lock()
	entry, ok := r.cache[name]
	if !ok {
		if _, known := r.cfg.Paths[name]; !known {
			r.mu.Unlock()
			return nil, fmt.Errorf("%w: %q", ErrTokenizerNotFound, name)
		}
		entry = &registryEntry{}
		r.cache[name] = entry
	}
	r.mu.Unlock()

	entry.once.Do(func() {
		entry.tok, entry.err = r.load(ctx, name)
	})
	return entry.tok, entry.err
}

func (r *Registry) load(ctx context.Context, name string) (*tokenizer.Tokenizer, error) {
	log := logger.FromContext(ctx).With("tokenizer", name)
	path := r.cfg.Paths[name]

	tok, err := tokenizer.Open(ctx, path)
	if err != nil {
		return nil, err
	}
	if r.cfg.CacheCapacity != 0 {
		capacity := max(r.cfg.CacheCapacity, 0)
		if err := tok.Model().ResizeCache(capacity); err != nil && !errors.Is(err, models.ErrUnsupported) {
			return nil, err
		}
	}
	tok.SetBatchWorkers(r.cfg.BatchWorkers)
	log.Info("tokenizer loaded", "path", path, "kind", tok.Model().Kind())
	return tok, nil
}
