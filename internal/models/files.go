package models

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	json "github.com/goccy/go-json"
)

// ReadVocabJSON loads a token to id table.
func ReadVocabJSON(path string) (Vocab, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var vocab Vocab
	if err := json.Unmarshal(data, &vocab); err != nil {
		return nil, fmt.Errorf("%w: parse %s: %w", ErrInvalidConfig, path, err)
	}
	return vocab, nil
}

// ReadMerges loads a merges.txt file. Lines starting with "#version" are
// skipped; every other line must hold exactly two space separated tokens.
func ReadMerges(path string) ([]MergePair, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	merges := []MergePair{}
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimRight(sc.Text(), "\r")
		if strings.HasPrefix(text, "#version") {
			continue
		}
		parts := strings.Split(text, " ")
		if len(parts) != 2 {
			return nil, newConfigError("merges file %s: line %d is not a pair", path, line)
		}
		merges = append(merges, MergePair{parts[0], parts[1]})
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return merges, nil
}

// ReadBPEFiles loads the vocab.json and merges.txt pair written by Save.
func ReadBPEFiles(vocabPath, mergesPath string) (Vocab, []MergePair, error) {
	vocab, err := ReadVocabJSON(vocabPath)
	if err != nil {
		return nil, nil, err
	}
	merges, err := ReadMerges(mergesPath)
	if err != nil {
		return nil, nil, err
	}
	return vocab, merges, nil
}

// ReadWordPieceVocab loads a vocab.txt file; each line's index is its id.
func ReadWordPieceVocab(path string) (Vocab, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	vocab := Vocab{}
	sc := bufio.NewScanner(f)
	var id uint32
	for sc.Scan() {
		vocab[strings.TrimRight(sc.Text(), " \t\r")] = id
		id++
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return vocab, nil
}
