package main

import (
	"fmt"
	"io"
	"os"
	"strconv"

	json "github.com/goccy/go-json"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli/v3"

	"github.com/samcharles93/subword/internal/encoding"
)

func stdout(cmd *cli.Command) io.Writer {
	if w := cmd.Root().Writer; w != nil {
		return w
	}
	return os.Stdout
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newTable(w io.Writer, header []string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetAutoFormatHeaders(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetNoWhiteSpace(true)
	table.SetTablePadding("  ")
	return table
}

// writeEncodingTable prints one row per token, followed by each overflow
// part under its own heading.
func writeEncodingTable(w io.Writer, enc encoding.Encoding) {
	table := newTable(w, []string{"POS", "ID", "TOKEN", "TYPE", "WORD", "OFFSETS", "SPECIAL"})
	for i := range enc.IDs {
		word := "-"
		if enc.Words[i] != encoding.NoWord {
			word = strconv.Itoa(enc.Words[i])
		}
		table.Append([]string{
			strconv.Itoa(i),
			strconv.FormatUint(uint64(enc.IDs[i]), 10),
			strconv.Quote(enc.Tokens[i]),
			strconv.FormatUint(uint64(enc.TypeIDs[i]), 10),
			word,
			fmt.Sprintf("%d:%d", enc.Offsets[i].Start, enc.Offsets[i].End),
			strconv.FormatUint(uint64(enc.SpecialTokensMask[i]), 10),
		})
	}
	table.Render()

	for i, o := range enc.Overflowing {
		_, _ = fmt.Fprintf(w, "\noverflow %d:\n", i)
		writeEncodingTable(w, o)
	}
}

func writeTokensTable(w io.Writer, words []string, tokens [][]encoding.Token) {
	table := newTable(w, []string{"WORD", "ID", "TOKEN", "OFFSETS"})
	for i, word := range words {
		for _, tok := range tokens[i] {
			table.Append([]string{
				word,
				strconv.FormatUint(uint64(tok.ID), 10),
				strconv.Quote(tok.Value),
				fmt.Sprintf("%d:%d", tok.Offsets.Start, tok.Offsets.End),
			})
		}
	}
	table.Render()
}
