package models

// TrainerKind names the trainer able to produce a model variant.
type TrainerKind string

const (
	BPETrainer       TrainerKind = "BpeTrainer"
	WordPieceTrainer TrainerKind = "WordPieceTrainer"
	WordLevelTrainer TrainerKind = "WordLevelTrainer"
	UnigramTrainer   TrainerKind = "UnigramTrainer"
)

// TrainerConfig describes how to train a model like the one it came from.
// Training itself lives outside this package.
type TrainerConfig struct {
	Kind                    TrainerKind `json:"type"`
	VocabSize               int         `json:"vocab_size"`
	SpecialTokens           []string    `json:"special_tokens,omitempty"`
	UnkToken                string      `json:"unk_token,omitempty"`
	ContinuingSubwordPrefix string      `json:"continuing_subword_prefix,omitempty"`
	EndOfWordSuffix         string      `json:"end_of_word_suffix,omitempty"`
}

func specialTokens(unk string) []string {
	if unk == "" {
		return nil
	}
	return []string{unk}
}
