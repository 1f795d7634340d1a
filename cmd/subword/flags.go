package main

import (
	"github.com/urfave/cli/v3"

	"github.com/samcharles93/subword/internal/encoding"
	"github.com/samcharles93/subword/internal/tokenizer"
)

var (
	configFile    string
	tokenizerPath string
	logLevel      string
	logFormat     string
	debug         bool

	addSpecial bool
	maxLength  int
	stride     int
	direction  string
	jsonOutput bool

	// config holds the file loaded by the root Before hook.
	config Config
)

func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:        "config",
		Usage:       "path to config.yaml (default: $SUBWORD_CONFIG or the user config dir)",
		Destination: &configFile,
	}
}

func tokenizerFlag() cli.Flag {
	return &cli.StringFlag{
		Name:        "tokenizer",
		Aliases:     []string{"t"},
		Usage:       "path to tokenizer.json or .gguf, or a tokenizer name from the config file",
		Destination: &tokenizerPath,
	}
}

func encodeFlags() []cli.Flag {
	return []cli.Flag{
		tokenizerFlag(),
		&cli.BoolFlag{
			Name:        "special",
			Usage:       "add the post-processor's special tokens",
			Value:       true,
			Destination: &addSpecial,
		},
		&cli.IntFlag{
			Name:        "max-length",
			Usage:       "truncate encodings to this many tokens (0 disables)",
			Destination: &maxLength,
		},
		&cli.IntFlag{
			Name:        "stride",
			Usage:       "tokens shared between consecutive overflow parts",
			Destination: &stride,
		},
		&cli.StringFlag{
			Name:        "direction",
			Usage:       "truncation direction (right, left)",
			Value:       "right",
			Destination: &direction,
		},
		&cli.BoolFlag{
			Name:        "json",
			Usage:       "print JSON instead of a table",
			Destination: &jsonOutput,
		},
	}
}

func encodeOptions() (tokenizer.EncodeOptions, error) {
	dir, err := encoding.ParseDirection(direction)
	if err != nil {
		return tokenizer.EncodeOptions{}, err
	}
	return tokenizer.EncodeOptions{
		AddSpecialTokens: addSpecial,
		MaxLength:        maxLength,
		Stride:           stride,
		Direction:        dir,
	}, nil
}

func loggingFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "log level (debug, info, warn, error)",
			Value:       "info",
			Destination: &logLevel,
		},
		&cli.StringFlag{
			Name:        "log-format",
			Usage:       "log format (pretty, json, text)",
			Value:       "pretty",
			Destination: &logFormat,
		},
		&cli.BoolFlag{
			Name:        "debug",
			Usage:       "enable debug logging (shorthand for --log-level=debug)",
			Destination: &debug,
		},
	}
}
