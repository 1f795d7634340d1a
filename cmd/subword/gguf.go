package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/subword/internal/gguf"
)

func ggufCmd() *cli.Command {
	var showKV bool

	return &cli.Command{
		Name:      "gguf",
		Usage:     "Show the tokenizer metadata embedded in a GGUF model file",
		ArgsUsage: "PATH.gguf",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "kv", Usage: "show all metadata key/values", Destination: &showKV},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.Args().Len() != 1 {
				return errors.New("exactly one GGUF path is required")
			}
			path := cmd.Args().First()
			md, err := gguf.Open(path)
			if err != nil {
				return err
			}
			w := stdout(cmd)
			_, _ = fmt.Fprintf(w, "File: %s\n", path)
			_, _ = fmt.Fprintf(w, "GGUF v%d | tensors=%d | kv=%d\n\n", md.Header.Version, md.Header.TensorCount, md.Header.KVCount)
			writeMetadata(w, md, showKV)
			return nil
		},
	}
}

// writeMetadata prints the tokenizer.* keys, or every key when all is set.
func writeMetadata(w io.Writer, md *gguf.Metadata, all bool) {
	table := newTable(w, []string{"KEY", "TYPE", "VALUE"})
	for _, k := range slices.Sorted(maps.Keys(md.KV)) {
		if !all && !strings.HasPrefix(k, "tokenizer.") {
			continue
		}
		v := md.KV[k]
		table.Append([]string{k, v.Type.String(), formatValue(v)})
	}
	table.Render()
}

func formatValue(v gguf.Value) string {
	switch val := v.Value.(type) {
	case string:
		return val
	case gguf.ArrayValue:
		return fmt.Sprintf("array(%s) len=%d", val.ElemType.String(), len(val.Values))
	default:
		return fmt.Sprintf("%v", val)
	}
}
