package main

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v5"
	"github.com/labstack/echo/v5/middleware"
	"github.com/urfave/cli/v3"

	"github.com/samcharles93/subword/internal/api"
	"github.com/samcharles93/subword/internal/logger"
)

func serveCmd() *cli.Command {
	var (
		addr          string
		readTimeout   time.Duration
		cacheCapacity int
		batchWorkers  int
	)

	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the tokenizers from the config file over HTTP",
		Flags: []cli.Flag{
			tokenizerFlag(),
			&cli.StringFlag{
				Name:        "addr",
				Usage:       "listen address",
				Value:       "127.0.0.1:8080",
				Destination: &addr,
			},
			&cli.DurationFlag{
				Name:        "read-timeout",
				Usage:       "read timeout",
				Value:       30 * time.Second,
				Destination: &readTimeout,
			},
			&cli.IntFlag{
				Name:        "cache-capacity",
				Usage:       "word cache capacity for BPE and Unigram models (0 keeps the model's, negative disables)",
				Destination: &cacheCapacity,
			},
			&cli.IntFlag{
				Name:        "batch-workers",
				Usage:       "concurrent encodes per batch request (0 uses GOMAXPROCS)",
				Destination: &batchWorkers,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log := logger.FromContext(ctx)
			applyServeConfig(cmd, config, &addr, &cacheCapacity, &batchWorkers)

			cfg := serveRegistryConfig(config, tokenizerPath)
			cfg.CacheCapacity = cacheCapacity
			cfg.BatchWorkers = batchWorkers
			registry := api.NewRegistry(cfg)

			server := api.NewServer(registry, log)
			e := echo.New()
			e.Use(middleware.RequestLogger())
			e.Use(middleware.Recover())
			server.Register(e)
			log.Info("starting server", "address", addr, "tokenizers", registry.Names())
			sc := echo.StartConfig{
				Address: addr,
				BeforeServeFunc: func(srv *http.Server) error {
					srv.ReadHeaderTimeout = readTimeout
					return nil
				},
			}
			return sc.Start(ctx, e)
		},
	}
}

// serveRegistryConfig exposes the configured tokenizers. A --tokenizer path
// is served as "default" alongside them.
func serveRegistryConfig(cfg Config, path string) api.RegistryConfig {
	paths := make(map[string]string, len(cfg.Tokenizers)+1)
	for name, p := range cfg.Tokenizers {
		paths[name] = p
	}
	def := cfg.DefaultTokenizer
	if path != "" {
		if _, named := cfg.Tokenizers[path]; named {
			def = path
		} else {
			paths["default"] = path
			def = "default"
		}
	}
	return api.RegistryConfig{Paths: paths, DefaultName: def}
}
