package main

import (
	"context"
	"errors"

	"github.com/samcharles93/subword/internal/logger"
	"github.com/samcharles93/subword/internal/models"
	"github.com/samcharles93/subword/internal/tokenizer"
)

// loadTokenizer resolves --tokenizer against the config file and applies the
// configured cache capacity and batch worker count.
func loadTokenizer(ctx context.Context) (*tokenizer.Tokenizer, error) {
	path, err := resolveTokenizer(tokenizerPath, config)
	if err != nil {
		return nil, err
	}
	tok, err := tokenizer.Open(ctx, path)
	if err != nil {
		return nil, err
	}
	if config.CacheCapacity != nil {
		err := tok.Model().ResizeCache(max(*config.CacheCapacity, 0))
		if err != nil && !errors.Is(err, models.ErrUnsupported) {
			return nil, err
		}
	}
	if config.BatchWorkers != nil {
		tok.SetBatchWorkers(*config.BatchWorkers)
	}
	logger.FromContext(ctx).Debug("tokenizer ready", "path", path, "kind", tok.Model().Kind())
	return tok, nil
}
