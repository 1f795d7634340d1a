package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/subword/internal/processor"
)

func templateCmd() *cli.Command {
	var (
		single   string
		pair     string
		specials []string
	)

	return &cli.Command{
		Name:  "template",
		Usage: "Validate a TemplateProcessing post-processor and print its JSON",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "single",
				Usage:       "template for one sequence, e.g. \"[CLS] $A [SEP]\"",
				Destination: &single,
			},
			&cli.StringFlag{
				Name:        "pair",
				Usage:       "template for two sequences, e.g. \"[CLS] $A [SEP] $B:1 [SEP]:1\"",
				Destination: &pair,
			},
			&cli.StringSliceFlag{
				Name:        "special",
				Aliases:     []string{"s"},
				Usage:       "special token as TOKEN=ID (repeatable)",
				Destination: &specials,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			tp, err := buildTemplate(single, pair, specials)
			if err != nil {
				return err
			}
			return writeJSON(stdout(cmd), tp)
		},
	}
}

func buildTemplate(single, pair string, specials []string) (*processor.TemplateProcessing, error) {
	var tokens []processor.SpecialToken
	for _, s := range specials {
		tok, err := parseSpecial(s)
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, tok)
	}
	var singleT, pairT processor.Template
	var err error
	if single != "" {
		if singleT, err = processor.ParseTemplate(single); err != nil {
			return nil, err
		}
	}
	if pair != "" {
		if pairT, err = processor.ParseTemplate(pair); err != nil {
			return nil, err
		}
	}
	return processor.NewTemplateProcessing(singleT, pairT, processor.NewTokens(tokens...))
}

// parseSpecial reads TOKEN=ID. The last "=" separates the id so tokens may
// contain "=" themselves.
func parseSpecial(s string) (processor.SpecialToken, error) {
	i := strings.LastIndexByte(s, '=')
	if i <= 0 {
		return processor.SpecialToken{}, fmt.Errorf("special token %q: expected TOKEN=ID", s)
	}
	id, err := strconv.ParseUint(s[i+1:], 10, 32)
	if err != nil {
		return processor.SpecialToken{}, fmt.Errorf("special token %q: %w", s, err)
	}
	return processor.SingleToken(s[:i], uint32(id)), nil
}
