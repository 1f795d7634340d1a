package main

import (
	"cmp"
	"context"
	"fmt"
	"io"
	"slices"
	"strconv"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/subword/internal/models"
	"github.com/samcharles93/subword/internal/tokenizer"
)

type inspectReport struct {
	tokenizer.Info
	Single  string                 `json:"single,omitempty"`
	Pair    string                 `json:"pair,omitempty"`
	Added   []tokenizer.AddedToken `json:"added,omitempty"`
	Trainer models.TrainerConfig   `json:"trainer"`
}

func inspectCmd() *cli.Command {
	var vocabLimit int

	return &cli.Command{
		Name:  "inspect",
		Usage: "Describe a tokenizer.json: model, pre-tokenizer, template and caches",
		Flags: []cli.Flag{
			tokenizerFlag(),
			&cli.IntFlag{
				Name:        "vocab",
				Usage:       "also list the first N vocabulary entries by id",
				Destination: &vocabLimit,
			},
			&cli.BoolFlag{Name: "json", Usage: "print JSON", Destination: &jsonOutput},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			tok, err := loadTokenizer(ctx)
			if err != nil {
				return err
			}
			report, err := buildReport(tok)
			if err != nil {
				return err
			}
			w := stdout(cmd)
			if jsonOutput {
				return writeJSON(w, report)
			}
			writeReport(w, report)
			if vocabLimit > 0 {
				vocab, err := tok.Model().Vocab()
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintln(w)
				writeVocab(w, vocab, vocabLimit)
			}
			return nil
		},
	}
}

func buildReport(tok *tokenizer.Tokenizer) (inspectReport, error) {
	info, err := tok.Info()
	if err != nil {
		return inspectReport{}, err
	}
	trainer, err := tok.Model().Trainer()
	if err != nil {
		return inspectReport{}, err
	}
	report := inspectReport{Info: info, Added: tok.AddedTokens(), Trainer: trainer}
	if post := tok.PostProcessor(); post != nil {
		report.Single = post.Single().String()
		report.Pair = post.Pair().String()
	}
	return report, nil
}

func writeReport(w io.Writer, r inspectReport) {
	table := newTable(w, []string{"FIELD", "VALUE"})
	table.Append([]string{"model", string(r.Kind)})
	table.Append([]string{"vocab size", strconv.Itoa(r.VocabSize)})
	table.Append([]string{"pre-tokenizer", r.PreTokenizer})
	if r.Template {
		table.Append([]string{"single", r.Single})
		table.Append([]string{"pair", r.Pair})
	}
	table.Append([]string{"added (single)", strconv.Itoa(r.AddedSingle)})
	table.Append([]string{"added (pair)", strconv.Itoa(r.AddedPair)})
	table.Append([]string{"added tokens", strconv.Itoa(r.AddedTokens)})
	if r.Cache != nil {
		table.Append([]string{"cache", fmt.Sprintf("%d/%d entries, %d hits, %d misses",
			r.Cache.Entries, r.Cache.Capacity, r.Cache.Hits, r.Cache.Misses)})
	}
	table.Append([]string{"trainer", string(r.Trainer.Kind)})
	table.Render()
}

func writeVocab(w io.Writer, vocab models.Vocab, limit int) {
	type entry struct {
		token string
		id    uint32
	}
	entries := make([]entry, 0, len(vocab))
	for token, id := range vocab {
		entries = append(entries, entry{token, id})
	}
	slices.SortFunc(entries, func(a, b entry) int { return cmp.Compare(a.id, b.id) })

	table := newTable(w, []string{"ID", "TOKEN"})
	for _, e := range entries[:min(limit, len(entries))] {
		table.Append([]string{strconv.FormatUint(uint64(e.id), 10), strconv.Quote(e.token)})
	}
	table.Render()
}
