package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/subword/internal/logger"
	"github.com/samcharles93/subword/internal/tokenizer"
)

func encodeCmd() *cli.Command {
	var (
		pair  string
		input string
	)

	return &cli.Command{
		Name:      "encode",
		Usage:     "Encode text, optionally with a pair sequence, through the full pipeline",
		ArgsUsage: "TEXT",
		Flags: append(encodeFlags(),
			&cli.StringFlag{
				Name:        "pair",
				Aliases:     []string{"p"},
				Usage:       "second sequence",
				Destination: &pair,
			},
			&cli.StringFlag{
				Name:        "input",
				Aliases:     []string{"i"},
				Usage:       "encode every line of a file as a batch (\"-\" for stdin); a tab separates a pair",
				Destination: &input,
			},
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			opts, err := encodeOptions()
			if err != nil {
				return err
			}
			tok, err := loadTokenizer(ctx)
			if err != nil {
				return err
			}
			w := stdout(cmd)

			if input != "" {
				return encodeBatch(ctx, w, tok, input, opts)
			}

			text := strings.Join(cmd.Args().Slice(), " ")
			if text == "" {
				return errors.New("text is required")
			}
			var p *string
			if cmd.IsSet("pair") {
				p = &pair
			}
			enc, err := tok.Encode(ctx, text, p, opts)
			if err != nil {
				return err
			}
			if jsonOutput {
				return writeJSON(w, enc)
			}
			writeEncodingTable(w, enc)
			return nil
		},
	}
}

func encodeBatch(ctx context.Context, w io.Writer, tok *tokenizer.Tokenizer, path string, opts tokenizer.EncodeOptions) error {
	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer func() { _ = f.Close() }()
		r = f
	}
	inputs, err := readInputs(r)
	if err != nil {
		return err
	}
	logger.FromContext(ctx).Debug("encoding batch", "inputs", len(inputs), "workers", tok.BatchWorkers())

	encs, err := tok.EncodeBatch(ctx, inputs, opts)
	if err != nil {
		return err
	}
	if jsonOutput {
		return writeJSON(w, encs)
	}
	for i, enc := range encs {
		if i > 0 {
			_, _ = fmt.Fprintln(w)
		}
		_, _ = fmt.Fprintf(w, "input %d:\n", i)
		writeEncodingTable(w, enc)
	}
	return nil
}

// readInputs reads one input per non-empty line. A tab splits the line into
// a sequence and its pair.
func readInputs(r io.Reader) ([]tokenizer.Input, error) {
	var inputs []tokenizer.Input
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		text, pair, found := strings.Cut(line, "\t")
		in := tokenizer.Input{Text: text}
		if found {
			in.Pair = &pair
		}
		inputs = append(inputs, in)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return inputs, nil
}
