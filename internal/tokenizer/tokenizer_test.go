package tokenizer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/samcharles93/subword/internal/encoding"
	"github.com/samcharles93/subword/internal/logger"
	"github.com/samcharles93/subword/internal/models"
	"github.com/samcharles93/subword/internal/pretokenize"
)

const bertJSON = `{
	"version": "1.0",
	"added_tokens": [
		{"id": 0, "content": "[PAD]", "special": true},
		{"id": 1, "content": "[UNK]", "special": true},
		{"id": 2, "content": "[CLS]", "special": true},
		{"id": 3, "content": "[SEP]", "special": true}
	],
	"normalizer": null,
	"pre_tokenizer": {"type": "Whitespace"},
	"post_processor": {
		"type": "TemplateProcessing",
		"single": [
			{"SpecialToken": {"id": "[CLS]", "type_id": 0}},
			{"Sequence": {"id": "A", "type_id": 0}},
			{"SpecialToken": {"id": "[SEP]", "type_id": 0}}
		],
		"pair": [
			{"SpecialToken": {"id": "[CLS]", "type_id": 0}},
			{"Sequence": {"id": "A", "type_id": 0}},
			{"SpecialToken": {"id": "[SEP]", "type_id": 0}},
			{"Sequence": {"id": "B", "type_id": 1}},
			{"SpecialToken": {"id": "[SEP]", "type_id": 1}}
		],
		"special_tokens": {
			"[CLS]": {"id": "[CLS]", "ids": [2], "tokens": ["[CLS]"]},
			"[SEP]": {"id": "[SEP]", "ids": [3], "tokens": ["[SEP]"]}
		}
	},
	"decoder": null,
	"model": {
		"type": "WordPiece",
		"unk_token": "[UNK]",
		"continuing_subword_prefix": "##",
		"max_input_chars_per_word": 100,
		"vocab": {"[PAD]": 0, "[UNK]": 1, "[CLS]": 2, "[SEP]": 3, "hello": 4, "world": 5, "!": 6, "play": 7, "##ing": 8}
	}
}`

func ctx(t *testing.T) context.Context {
	t.Helper()
	return logger.WithContext(context.Background(), logger.Discard())
}

func loadBert(t *testing.T) *Tokenizer {
	t.Helper()
	tok, err := Load(ctx(t), []byte(bertJSON))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	return tok
}

func TestEncodeSingle(t *testing.T) {
	t.Parallel()
	tok := loadBert(t)

	got, err := tok.Encode(ctx(t), "hello playing world!", nil, EncodeOptions{AddSpecialTokens: true})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	want := encoding.Encoding{
		IDs:               []uint32{2, 4, 7, 8, 5, 6, 3},
		TypeIDs:           []uint32{0, 0, 0, 0, 0, 0, 0},
		Tokens:            []string{"[CLS]", "hello", "play", "##ing", "world", "!", "[SEP]"},
		Words:             []int{-1, 0, 1, 1, 2, 3, -1},
		Offsets:           []encoding.Offsets{{Start: 0, End: 0}, {Start: 0, End: 5}, {Start: 6, End: 10}, {Start: 10, End: 13}, {Start: 14, End: 19}, {Start: 19, End: 20}, {Start: 0, End: 0}},
		SpecialTokensMask: []uint32{1, 0, 0, 0, 0, 0, 1},
		AttentionMask:     []uint32{1, 1, 1, 1, 1, 1, 1},
		SequenceRanges:    map[int]encoding.Range{0: {Start: 1, End: 6}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("encoding mismatch (-want +got):\n%s", diff)
	}
}

func TestEncodePair(t *testing.T) {
	t.Parallel()
	tok := loadBert(t)

	pair := "play"
	got, err := tok.Encode(ctx(t), "hello world", &pair, EncodeOptions{AddSpecialTokens: true})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if diff := cmp.Diff([]uint32{2, 4, 5, 3, 7, 3}, got.IDs); diff != "" {
		t.Fatalf("ids mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]uint32{0, 0, 0, 0, 1, 1}, got.TypeIDs); diff != "" {
		t.Fatalf("type ids mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{-1, 0, 1, -1, 0, -1}, got.Words); diff != "" {
		t.Fatalf("words mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(map[int]encoding.Range{0: {Start: 1, End: 3}, 1: {Start: 4, End: 5}}, got.SequenceRanges); diff != "" {
		t.Fatalf("ranges mismatch (-want +got):\n%s", diff)
	}
	if got.Offsets[4] != (encoding.Offsets{Start: 0, End: 4}) {
		t.Fatalf("pair offsets must refer to the pair text, got %+v", got.Offsets[4])
	}
}

func TestEncodeAddedTokensInText(t *testing.T) {
	t.Parallel()
	tok := loadBert(t)

	got, err := tok.Encode(ctx(t), "hello [SEP] world", nil, EncodeOptions{})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if diff := cmp.Diff([]uint32{4, 3, 5}, got.IDs); diff != "" {
		t.Fatalf("ids mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]uint32{0, 1, 0}, got.SpecialTokensMask); diff != "" {
		t.Fatalf("special mask mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]encoding.Offsets{{Start: 0, End: 5}, {Start: 6, End: 11}, {Start: 12, End: 17}}, got.Offsets); diff != "" {
		t.Fatalf("offsets mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{0, -1, 1}, got.Words); diff != "" {
		t.Fatalf("words mismatch (-want +got):\n%s", diff)
	}
}

func TestEncodeUnknownWord(t *testing.T) {
	t.Parallel()
	tok := loadBert(t)
	got, err := tok.Encode(ctx(t), "xyz", nil, EncodeOptions{})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if diff := cmp.Diff([]string{"[UNK]"}, got.Tokens); diff != "" {
		t.Fatalf("tokens mismatch (-want +got):\n%s", diff)
	}
}

func TestEncodeTruncatesAroundSpecialTokens(t *testing.T) {
	t.Parallel()
	tok := loadBert(t)

	got, err := tok.Encode(ctx(t), "hello playing world!", nil, EncodeOptions{AddSpecialTokens: true, MaxLength: 5})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if diff := cmp.Diff([]uint32{2, 4, 7, 8, 3}, got.IDs); diff != "" {
		t.Fatalf("ids mismatch (-want +got):\n%s", diff)
	}
	if len(got.Overflowing) != 1 {
		t.Fatalf("expected one overflow, got %d", len(got.Overflowing))
	}
	if diff := cmp.Diff([]uint32{2, 5, 6, 3}, got.Overflowing[0].IDs); diff != "" {
		t.Fatalf("overflow mismatch (-want +got):\n%s", diff)
	}

	if _, err := tok.Encode(ctx(t), "hello playing world!", nil, EncodeOptions{MaxLength: 2, Stride: 2}); !errors.Is(err, encoding.ErrInvalidTruncation) {
		t.Fatalf("expected ErrInvalidTruncation, got %v", err)
	}
}

func TestTruncatePair(t *testing.T) {
	t.Parallel()

	seq := func(n int) encoding.Encoding {
		toks := make([]encoding.Token, n)
		for i := range toks {
			toks[i] = encoding.Token{ID: uint32(i)}
		}
		return encoding.FromTokens(toks, 0)
	}

	tests := []struct {
		name         string
		a, b, max    int
		wantA, wantB int
	}{
		{name: "fits", a: 2, b: 2, max: 5, wantA: 2, wantB: 2},
		{name: "longest first", a: 6, b: 2, max: 5, wantA: 3, wantB: 2},
		{name: "longest second", a: 1, b: 7, max: 4, wantA: 1, wantB: 3},
		{name: "both long", a: 4, b: 4, max: 5, wantA: 2, wantB: 3},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			a, b := seq(tc.a), seq(tc.b)
			if err := truncatePair(&a, &b, tc.max, 0, encoding.Right); err != nil {
				t.Fatalf("truncatePair: %v", err)
			}
			if a.Len() != tc.wantA || b.Len() != tc.wantB {
				t.Fatalf("got lengths %d/%d, want %d/%d", a.Len(), b.Len(), tc.wantA, tc.wantB)
			}
		})
	}
}

func TestEncodeBatchKeepsOrder(t *testing.T) {
	t.Parallel()
	tok := loadBert(t)
	tok.SetBatchWorkers(2)

	pair := "play"
	inputs := []Input{{Text: "hello"}, {Text: "world !"}, {Text: "playing", Pair: &pair}, {Text: ""}}
	opts := EncodeOptions{AddSpecialTokens: true}

	got, err := tok.EncodeBatch(ctx(t), inputs, opts)
	if err != nil {
		t.Fatalf("EncodeBatch: %v", err)
	}
	if len(got) != len(inputs) {
		t.Fatalf("expected %d encodings, got %d", len(inputs), len(got))
	}
	for i, in := range inputs {
		want, err := tok.Encode(ctx(t), in.Text, in.Pair, opts)
		if err != nil {
			t.Fatalf("Encode(%d): %v", i, err)
		}
		if diff := cmp.Diff(want, got[i]); diff != "" {
			t.Fatalf("input %d mismatch (-want +got):\n%s", i, diff)
		}
	}
}

func TestEncodeBatchCancelled(t *testing.T) {
	t.Parallel()
	tok := loadBert(t)
	c, cancel := context.WithCancel(ctx(t))
	cancel()
	if _, err := tok.EncodeBatch(c, []Input{{Text: "hello"}}, EncodeOptions{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestTokenizeWords(t *testing.T) {
	t.Parallel()
	tok := loadBert(t)
	got, err := tok.TokenizeWords([]string{"playing", "hello"})
	if err != nil {
		t.Fatalf("TokenizeWords: %v", err)
	}
	want := [][]encoding.Token{
		{{ID: 7, Value: "play", Offsets: encoding.Offsets{Start: 0, End: 4}}, {ID: 8, Value: "##ing", Offsets: encoding.Offsets{Start: 4, End: 7}}},
		{{ID: 4, Value: "hello", Offsets: encoding.Offsets{Start: 0, End: 5}}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("tokens mismatch (-want +got):\n%s", diff)
	}
}

func TestLookupsPreferAddedTokens(t *testing.T) {
	t.Parallel()
	tok := New(mustWordLevel(t))
	tok.SetAddedTokens([]AddedToken{{ID: 40, Content: "<mask>", Special: true}})

	if id, ok, err := tok.TokenToID("<mask>"); err != nil || !ok || id != 40 {
		t.Fatalf("TokenToID(<mask>) = %d, %v, %v", id, ok, err)
	}
	if id, ok, err := tok.TokenToID("a"); err != nil || !ok || id != 0 {
		t.Fatalf("TokenToID(a) = %d, %v, %v", id, ok, err)
	}
	if s, ok, err := tok.IDToToken(40); err != nil || !ok || s != "<mask>" {
		t.Fatalf("IDToToken(40) = %q, %v, %v", s, ok, err)
	}
}

func mustWordLevel(t *testing.T) *models.Model {
	t.Helper()
	return models.New(models.NewWordLevel(models.WordLevelConfig{
		Vocab:    models.Vocab{"a": 0, "b": 1, "<unk>": 2},
		UnkToken: "<unk>",
	}))
}

func TestByteLevelBPE(t *testing.T) {
	t.Parallel()

	data := `{
		"pre_tokenizer": {"type": "ByteLevel", "add_prefix_space": false, "trim_offsets": true, "use_regex": true},
		"post_processor": {"type": "ByteLevel", "trim_offsets": false},
		"model": {
			"type": "BPE",
			"dropout": null,
			"unk_token": null,
			"vocab": {"h": 0, "e": 1, "l": 2, "o": 3, "Ġ": 4, "w": 5, "r": 6, "d": 7,
				"he": 8, "ll": 9, "hell": 10, "hello": 11, "Ġw": 12},
			"merges": ["h e", "l l", "he ll", "hell o", "Ġ w"]
		}
	}`
	tok, err := Load(ctx(t), []byte(data))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if tok.PostProcessor() != nil {
		t.Fatal("byte level post-processor must be skipped")
	}

	got, err := tok.Encode(ctx(t), "hello world", nil, EncodeOptions{AddSpecialTokens: true})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if diff := cmp.Diff([]string{"hello", "Ġw", "o", "r", "l", "d"}, got.Tokens); diff != "" {
		t.Fatalf("tokens mismatch (-want +got):\n%s", diff)
	}
	wantOffsets := []encoding.Offsets{{Start: 0, End: 5}, {Start: 5, End: 7}, {Start: 7, End: 8}, {Start: 8, End: 9}, {Start: 9, End: 10}, {Start: 10, End: 11}}
	if diff := cmp.Diff(wantOffsets, got.Offsets); diff != "" {
		t.Fatalf("offsets mismatch (-want +got):\n%s", diff)
	}
	if _, ok := tok.PreTokenizer().(*pretokenize.ByteLevel); !ok {
		t.Fatalf("unexpected pre-tokenizer %T", tok.PreTokenizer())
	}
}

func TestLoadPostProcessors(t *testing.T) {
	t.Parallel()

	model := `"model": {"type": "WordLevel", "vocab": {"[CLS]": 0, "[SEP]": 1, "a": 2}, "unk_token": "a"}`
	tests := []struct {
		name       string
		post       string
		wantPair   string
		wantSingle int
	}{
		{
			name:       "bert",
			post:       `{"type": "BertProcessing", "sep": ["[SEP]", 1], "cls": ["[CLS]", 0]}`,
			wantPair:   "[CLS]:0 $A:0 [SEP]:0 $B:1 [SEP]:1",
			wantSingle: 2,
		},
		{
			name:       "roberta",
			post:       `{"type": "RobertaProcessing", "sep": ["[SEP]", 1], "cls": ["[CLS]", 0], "trim_offsets": true}`,
			wantPair:   "[CLS]:0 $A:0 [SEP]:0 [SEP]:0 $B:0 [SEP]:0",
			wantSingle: 2,
		},
		{
			name: "sequence",
			post: `{"type": "Sequence", "processors": [
				{"type": "ByteLevel", "trim_offsets": false},
				{"type": "TemplateProcessing", "single": "[CLS] $A", "pair": "[CLS] $A $B:1",
				 "special_tokens": {"[CLS]": {"id": "[CLS]", "ids": [0], "tokens": ["[CLS]"]}}}
			]}`,
			wantPair:   "[CLS]:0 $A:0 $B:1",
			wantSingle: 1,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			tok, err := Load(ctx(t), []byte(`{"post_processor": `+tc.post+`, `+model+`}`))
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			post := tok.PostProcessor()
			if post == nil {
				t.Fatal("expected a template post-processor")
			}
			if got := post.Pair().String(); got != tc.wantPair {
				t.Fatalf("pair template = %q, want %q", got, tc.wantPair)
			}
			if got := post.AddedTokens(false); got != tc.wantSingle {
				t.Fatalf("single added tokens = %d, want %d", got, tc.wantSingle)
			}
		})
	}
}

func TestLoadErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		data string
		want error
	}{
		{name: "not json", data: `{`, want: ErrInvalidFile},
		{name: "no model", data: `{"pre_tokenizer": null}`, want: ErrInvalidFile},
		{name: "bad model", data: `{"model": {"type": "BPE", "vocab": {"a": 0}, "merges": ["a b"]}}`, want: models.ErrInvalidConfig},
		{name: "bad pre-tokenizer", data: `{"pre_tokenizer": {"type": "BertPreTokenizer"}, "model": {"type": "WordLevel", "vocab": {}}}`, want: pretokenize.ErrUnsupported},
		{name: "bert without sep", data: `{"post_processor": {"type": "BertProcessing", "cls": ["[CLS]", 0]}, "model": {"type": "WordLevel", "vocab": {}}}`, want: ErrInvalidFile},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if _, err := Load(ctx(t), []byte(tc.data)); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestDefaultPostMergesWithoutSpecialTokens(t *testing.T) {
	t.Parallel()
	post := mustDefaultPost()
	if n := post.AddedTokens(true); n != 0 {
		t.Fatalf("expected no added tokens, got %d", n)
	}

	tok := New(mustWordLevel(t))
	pair := "a"
	got, err := tok.Encode(ctx(t), "a", &pair, EncodeOptions{AddSpecialTokens: true})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if diff := cmp.Diff([]uint32{0, 1}, got.TypeIDs); diff != "" {
		t.Fatalf("type ids mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadMetaspace(t *testing.T) {
	t.Parallel()
	data := `{
		"pre_tokenizer": {"type": "Metaspace", "replacement": "▁", "prepend_scheme": "always", "split": true},
		"model": {"type": "WordLevel", "vocab": {"▁hi": 0, "▁there": 1}}
	}`
	tok, err := Load(ctx(t), []byte(data))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, ok := tok.PreTokenizer().(*pretokenize.Metaspace); !ok {
		t.Fatalf("unexpected pre-tokenizer %T", tok.PreTokenizer())
	}
	got, err := tok.Encode(ctx(t), "hi there", nil, EncodeOptions{})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if diff := cmp.Diff([]uint32{0, 1}, got.IDs); diff != "" {
		t.Fatalf("ids mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadFile(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "tokenizer.json")
	if err := os.WriteFile(path, []byte(bertJSON), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	tok, err := LoadFile(ctx(t), path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}

	info, err := tok.Info()
	if err != nil {
		t.Fatalf("Info: %v", err)
	}
	want := Info{
		Kind:         models.KindWordPiece,
		VocabSize:    9,
		PreTokenizer: "Whitespace",
		Template:     true,
		AddedSingle:  2,
		AddedPair:    3,
		AddedTokens:  4,
	}
	if diff := cmp.Diff(want, info); diff != "" {
		t.Fatalf("info mismatch (-want +got):\n%s", diff)
	}

	if _, err := LoadFile(ctx(t), filepath.Join(t.TempDir(), "missing.json")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected os.ErrNotExist, got %v", err)
	}
}
