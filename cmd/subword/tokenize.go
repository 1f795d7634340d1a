package main

import (
	"context"
	"errors"

	"github.com/urfave/cli/v3"
)

func tokenizeCmd() *cli.Command {
	return &cli.Command{
		Name:      "tokenize",
		Usage:     "Run the model on each argument as a single word",
		ArgsUsage: "WORD...",
		Flags: []cli.Flag{
			tokenizerFlag(),
			&cli.BoolFlag{Name: "json", Usage: "print JSON instead of a table", Destination: &jsonOutput},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			words := cmd.Args().Slice()
			if len(words) == 0 {
				return errors.New("at least one word is required")
			}
			tok, err := loadTokenizer(ctx)
			if err != nil {
				return err
			}
			tokens, err := tok.TokenizeWords(words)
			if err != nil {
				return err
			}
			w := stdout(cmd)
			if jsonOutput {
				return writeJSON(w, tokens)
			}
			writeTokensTable(w, words, tokens)
			return nil
		},
	}
}
