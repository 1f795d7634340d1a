package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/subword/internal/logger"
)

func saveCmd() *cli.Command {
	var (
		outDir string
		prefix string
	)

	return &cli.Command{
		Name:  "save",
		Usage: "Write the model's vocabulary files (vocab.json, merges.txt, vocab.txt or unigram.json)",
		Flags: []cli.Flag{
			tokenizerFlag(),
			&cli.StringFlag{
				Name:        "out",
				Aliases:     []string{"o"},
				Usage:       "output directory",
				Value:       ".",
				Destination: &outDir,
			},
			&cli.StringFlag{
				Name:        "prefix",
				Usage:       "file name prefix",
				Destination: &prefix,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			tok, err := loadTokenizer(ctx)
			if err != nil {
				return err
			}
			if err := os.MkdirAll(outDir, 0o755); err != nil {
				return err
			}
			files, err := tok.Model().Save(outDir, prefix)
			if err != nil {
				return err
			}
			logger.FromContext(ctx).Info("model saved", "dir", outDir, "files", len(files))
			w := stdout(cmd)
			for _, f := range files {
				_, _ = fmt.Fprintln(w, f)
			}
			return nil
		},
	}
}
