package tokenizer

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/samcharles93/subword/internal/gguf"
	"github.com/samcharles93/subword/internal/models"
)

func u32(v uint32) *uint32 { return &v }

func gpt2Vocabulary() gguf.Vocabulary {
	return gguf.Vocabulary{
		Model:      "gpt2",
		Tokens:     []string{"<|endoftext|>", "h", "e", "l", "o", "he", "ll", "hell", "hello"},
		Merges:     []string{"h e", "l l", "he ll", "hell o"},
		TokenTypes: []gguf.TokenType{3, 1, 1, 1, 1, 1, 1, 1, 1},
		BOSID:      u32(0),
		AddBOS:     true,
	}
}

func TestFromGGUFByteLevelBPE(t *testing.T) {
	t.Parallel()

	tok, err := FromGGUF(ctx(t), gpt2Vocabulary())
	if err != nil {
		t.Fatalf("FromGGUF: %v", err)
	}
	if tok.Model().Kind() != models.KindBPE {
		t.Fatalf("unexpected kind %s", tok.Model().Kind())
	}
	got, err := tok.Encode(ctx(t), "hello<|endoftext|>", nil, EncodeOptions{AddSpecialTokens: true})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if diff := cmp.Diff([]uint32{0, 8, 0}, got.IDs); diff != "" {
		t.Fatalf("ids mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]uint32{1, 0, 1}, got.SpecialTokensMask); diff != "" {
		t.Fatalf("special mask mismatch (-want +got):\n%s", diff)
	}
	if tok.PostProcessor().Pair().String() != "<|endoftext|>:0 $A:0 <|endoftext|>:1 $B:1" {
		t.Fatalf("unexpected pair template %q", tok.PostProcessor().Pair().String())
	}
}

func TestFromGGUFSentencePiece(t *testing.T) {
	t.Parallel()

	v := gguf.Vocabulary{
		Model:      "llama",
		Tokens:     []string{"<unk>", "<s>", "</s>", "▁hello", "▁", "hello", "▁wor", "ld"},
		Scores:     []float32{0, 0, 0, -1, -3, -2, -2, -2},
		TokenTypes: []gguf.TokenType{2, 3, 3, 1, 1, 1, 1, 1},
		UnknownID:  u32(0),
		BOSID:      u32(1),
		EOSID:      u32(2),
		AddBOS:     true,
	}
	tok, err := FromGGUF(ctx(t), v)
	if err != nil {
		t.Fatalf("FromGGUF: %v", err)
	}
	got, err := tok.Encode(ctx(t), "hello world", nil, EncodeOptions{AddSpecialTokens: true})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if diff := cmp.Diff([]string{"<s>", "▁hello", "▁wor", "ld"}, got.Tokens); diff != "" {
		t.Fatalf("tokens mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]uint32{1, 3, 6, 7}, got.IDs); diff != "" {
		t.Fatalf("ids mismatch (-want +got):\n%s", diff)
	}

	v.Scores = nil
	if _, err := FromGGUF(ctx(t), v); !errors.Is(err, ErrInvalidFile) {
		t.Fatalf("expected ErrInvalidFile without scores, got %v", err)
	}
}

func TestFromGGUFWordPiece(t *testing.T) {
	t.Parallel()

	v := gguf.Vocabulary{
		Model:       "bert",
		Tokens:      []string{"[PAD]", "[UNK]", "[CLS]", "[SEP]", "hello", "##s"},
		TokenTypes:  []gguf.TokenType{3, 2, 3, 3, 1, 1},
		UnknownID:   u32(1),
		CLSID:       u32(2),
		SeparatorID: u32(3),
	}
	tok, err := FromGGUF(ctx(t), v)
	if err != nil {
		t.Fatalf("FromGGUF: %v", err)
	}
	got, err := tok.Encode(ctx(t), "hellos zz", nil, EncodeOptions{AddSpecialTokens: true})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if diff := cmp.Diff([]uint32{2, 4, 5, 1, 3}, got.IDs); diff != "" {
		t.Fatalf("ids mismatch (-want +got):\n%s", diff)
	}

	v.CLSID, v.SeparatorID = nil, nil
	if _, err := FromGGUF(ctx(t), v); !errors.Is(err, ErrInvalidFile) {
		t.Fatalf("expected ErrInvalidFile without cls/sep, got %v", err)
	}
}

func TestFromGGUFUnsupported(t *testing.T) {
	t.Parallel()
	if _, err := FromGGUF(ctx(t), gguf.Vocabulary{Model: "rwkv", Tokens: []string{"a"}}); !errors.Is(err, models.ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported, got %v", err)
	}
}

func TestLoadGGUF(t *testing.T) {
	t.Parallel()

	v := gpt2Vocabulary()
	path := filepath.Join(t.TempDir(), "model.gguf")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	err = gguf.Write(f, []gguf.KV{
		{Key: gguf.KeyTokenizerModel, Value: gguf.String(v.Model)},
		{Key: gguf.KeyTokens, Value: gguf.Array(gguf.TypeString, v.Tokens)},
		{Key: gguf.KeyMerges, Value: gguf.Array(gguf.TypeString, v.Merges)},
	})
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		t.Fatalf("write gguf: %v", err)
	}

	tok, err := Open(ctx(t), path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if tok.PostProcessor() != nil {
		t.Fatal("expected no template without add_bos_token")
	}
	if id, ok, err := tok.TokenToID("hello"); err != nil || !ok || id != 8 {
		t.Fatalf("TokenToID(hello) = %d %v %v", id, ok, err)
	}

	bad := filepath.Join(t.TempDir(), "bad.gguf")
	if err := os.WriteFile(bad, []byte("not gguf"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := LoadGGUF(ctx(t), bad); !errors.Is(err, gguf.ErrInvalidFile) {
		t.Fatalf("expected gguf.ErrInvalidFile, got %v", err)
	}
}
