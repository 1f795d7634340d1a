package models

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"

	json "github.com/goccy/go-json"
)

func saveName(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "-" + name
}

// Save writes the model files into dir and returns their paths. BPE writes
// vocab.json and merges.txt, WordPiece vocab.txt, WordLevel vocab.json and
// Unigram unigram.json, each optionally prefixed with "<prefix>-".
func (m *Model) Save(dir, prefix string) ([]string, error) {
	var files []string
	err := m.read(func(v Variant) error {
		if err := checkWritable(dir); err != nil {
			return err
		}
		var err error
		files, err = saveVariant(v, dir, prefix)
		return err
	})
	return files, err
}

func saveVariant(v Variant, dir, prefix string) ([]string, error) {
	switch v := v.(type) {
	case *BPE:
		vocabPath := filepath.Join(dir, saveName(prefix, "vocab.json"))
		if err := writeVocabJSON(vocabPath, v.vocab); err != nil {
			return nil, err
		}
		mergesPath := filepath.Join(dir, saveName(prefix, "merges.txt"))
		if err := writeLines(mergesPath, "#version: 0.2", func(emit func(string)) {
			for _, m := range v.orderedMerges() {
				emit(m[0] + " " + m[1])
			}
		}); err != nil {
			return nil, err
		}
		return []string{vocabPath, mergesPath}, nil
	case *WordPiece:
		path := filepath.Join(dir, saveName(prefix, "vocab.txt"))
		if err := writeLines(path, "", func(emit func(string)) {
			for _, tok := range v.vocab.byID() {
				emit(tok)
			}
		}); err != nil {
			return nil, err
		}
		return []string{path}, nil
	case *WordLevel:
		path := filepath.Join(dir, saveName(prefix, "vocab.json"))
		if err := writeVocabJSON(path, v.vocab); err != nil {
			return nil, err
		}
		return []string{path}, nil
	case *Unigram:
		path := filepath.Join(dir, saveName(prefix, "unigram.json"))
		data, err := marshalVariant(v)
		if err != nil {
			return nil, err
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrSave, err)
		}
		return []string{path}, nil
	default:
		return nil, fmt.Errorf("%w: cannot save %T", ErrUnsupported, v)
	}
}

func writeVocabJSON(path string, vocab Vocab) error {
	data, err := json.Marshal(orderedVocab(vocab))
	if err != nil {
		return fmt.Errorf("%w: encode vocab: %w", ErrSave, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("%w: %w", ErrSave, err)
	}
	return nil
}

func writeLines(path, header string, lines func(emit func(string))) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSave, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("%w: %w", ErrSave, cerr)
		}
	}()

	w := bufio.NewWriter(f)
	if header != "" {
		_, _ = w.WriteString(header + "\n")
	}
	lines(func(s string) {
		_, _ = w.WriteString(s + "\n")
	})
	if err := w.Flush(); err != nil {
		return fmt.Errorf("%w: %w", ErrSave, err)
	}
	return nil
}
