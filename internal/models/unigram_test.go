package models

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/samcharles93/subword/internal/encoding"
)

func intPtr(v int) *int { return &v }

func TestLatticeViterbi(t *testing.T) {
	t.Parallel()
	l := NewLattice("ABC", 1, 2)
	if path := l.Viterbi(); path != nil {
		t.Fatalf("expected no path through an empty lattice, got %d nodes", len(path))
	}

	l.Insert(0, 1, 0.0, 3)
	l.Insert(1, 1, 0.0, 4)
	l.Insert(2, 1, 0.0, 5)
	if diff := cmp.Diff([]string{"A", "B", "C"}, l.Tokens()); diff != "" {
		t.Fatalf("tokens mismatch (-want +got):\n%s", diff)
	}
	l.Insert(0, 2, 2.0, 6)
	if diff := cmp.Diff([]string{"AB", "C"}, l.Tokens()); diff != "" {
		t.Fatalf("tokens mismatch (-want +got):\n%s", diff)
	}
	l.Insert(1, 2, 5.0, 7)
	if diff := cmp.Diff([]string{"A", "BC"}, l.Tokens()); diff != "" {
		t.Fatalf("tokens mismatch (-want +got):\n%s", diff)
	}
	l.Insert(0, 3, 10.0, 8)
	if diff := cmp.Diff([]string{"ABC"}, l.Tokens()); diff != "" {
		t.Fatalf("tokens mismatch (-want +got):\n%s", diff)
	}
}

func TestUnigramPopulateNodes(t *testing.T) {
	t.Parallel()
	u, err := NewUnigram(UnigramConfig{
		Vocab: []ScoredToken{{"<unk>", 0}, {"a", 0.1}, {"b", 0.2}, {"ab", 0.3}, {"bc", 0.4}},
		UnkID: intPtr(0),
	})
	if err != nil {
		t.Fatalf("NewUnigram: %v", err)
	}
	l := NewLattice("abc", u.bosID, u.eosID)
	u.PopulateNodes(l)

	ids := func(pos int) []int {
		var out []int
		for _, n := range l.beginNodes[pos] {
			out = append(out, n.id)
		}
		return out
	}
	if diff := cmp.Diff([]int{1, 3}, ids(0)); diff != "" {
		t.Fatalf("nodes at 0 mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{2, 4}, ids(1)); diff != "" {
		t.Fatalf("nodes at 1 mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{0}, ids(2)); diff != "" {
		t.Fatalf("nodes at 2 mismatch (-want +got):\n%s", diff)
	}
	if got := l.beginNodes[2][0].score; got != -10 {
		t.Fatalf("expected unknown score -10, got %v", got)
	}
}

func TestUnigramEncode(t *testing.T) {
	t.Parallel()
	u, err := NewUnigram(UnigramConfig{
		Vocab: []ScoredToken{
			{"<unk>", 0}, {"ab", 0}, {"cd", -0.1}, {"abc", -0.2}, {"a", -0.3},
			{"b", -0.4}, {"c", -0.5}, {"ABC", -0.5}, {"abcdabcd", 20.0},
			{"q", 20.5}, {"r", 20.5}, {"qr", -0.5},
		},
		UnkID: intPtr(0),
	})
	if err != nil {
		t.Fatalf("NewUnigram: %v", err)
	}

	tests := map[string][]string{
		"":        nil,
		"abc":     {"abc"},
		"AB":      {"AB"},
		"abcd":    {"ab", "cd"},
		"abcc":    {"abc", "c"},
		"xyz東京":   {"xyz東京"},
		"ABC":     {"ABC"},
		"abABCcd": {"ab", "ABC", "cd"},
		"qr":      {"q", "r"},
	}
	for in, want := range tests {
		if diff := cmp.Diff(want, u.encode(in)); diff != "" {
			t.Fatalf("encode(%q) mismatch (-want +got):\n%s", in, diff)
		}
	}
}

func TestUnigramTokenizeUnknown(t *testing.T) {
	t.Parallel()
	u, err := NewUnigram(UnigramConfig{
		Vocab: []ScoredToken{{"<unk>", 0}, {"a", -1}},
		UnkID: intPtr(0),
	})
	if err != nil {
		t.Fatalf("NewUnigram: %v", err)
	}
	toks, err := u.Tokenize("axy")
	if err != nil {
		t.Fatalf("Tokenize: %v", err)
	}
	want := []encoding.Token{
		{ID: 1, Value: "a", Offsets: encoding.Offsets{Start: 0, End: 1}},
		{ID: 0, Value: "xy", Offsets: encoding.Offsets{Start: 1, End: 3}},
	}
	if diff := cmp.Diff(want, toks); diff != "" {
		t.Fatalf("tokens mismatch (-want +got):\n%s", diff)
	}
}

func TestUnigramSetFuseUnkClearsCache(t *testing.T) {
	t.Parallel()
	u, err := NewUnigram(UnigramConfig{
		Vocab: []ScoredToken{{"<unk>", 0}, {"a", -1}},
		UnkID: intPtr(0),
	})
	if err != nil {
		t.Fatalf("NewUnigram: %v", err)
	}
	m := New(u)
	if toks, err := m.Tokenize("axy"); err != nil || len(toks) != 2 {
		t.Fatalf("expected fused unknown run, got %+v %v", toks, err)
	}

	if err := m.SetFuseUnk(false); err != nil {
		t.Fatalf("SetFuseUnk: %v", err)
	}
	if fuse, err := m.FuseUnk(); err != nil || fuse {
		t.Fatalf("FuseUnk = %v, %v", fuse, err)
	}
	toks, err := m.Tokenize("axy")
	if err != nil {
		t.Fatalf("Tokenize: %v", err)
	}
	want := []encoding.Token{
		{ID: 1, Value: "a", Offsets: encoding.Offsets{Start: 0, End: 1}},
		{ID: 0, Value: "x", Offsets: encoding.Offsets{Start: 1, End: 2}},
		{ID: 0, Value: "y", Offsets: encoding.Offsets{Start: 2, End: 3}},
	}
	if diff := cmp.Diff(want, toks); diff != "" {
		t.Fatalf("tokens mismatch (-want +got):\n%s", diff)
	}
}

func TestUnigramByteFallback(t *testing.T) {
	t.Parallel()
	u, err := NewUnigram(UnigramConfig{
		Vocab:        []ScoredToken{{"<unk>", 0}, {"<0xC3>", -0.01}, {"<0xA9>", -0.03}},
		UnkID:        intPtr(0),
		ByteFallback: true,
	})
	if err != nil {
		t.Fatalf("NewUnigram: %v", err)
	}

	toks, err := u.Tokenize("é")
	if err != nil {
		t.Fatalf("Tokenize: %v", err)
	}
	want := []encoding.Token{
		{ID: 1, Value: "<0xC3>", Offsets: encoding.Offsets{Start: 0, End: 1}},
		{ID: 2, Value: "<0xA9>", Offsets: encoding.Offsets{Start: 1, End: 2}},
	}
	if diff := cmp.Diff(want, toks); diff != "" {
		t.Fatalf("byte tokens mismatch (-want +got):\n%s", diff)
	}

	toks, err = u.Tokenize("?é")
	if err != nil {
		t.Fatalf("Tokenize: %v", err)
	}
	want = []encoding.Token{{ID: 0, Value: "?é", Offsets: encoding.Offsets{Start: 0, End: 3}}}
	if diff := cmp.Diff(want, toks); diff != "" {
		t.Fatalf("unknown fallback mismatch (-want +got):\n%s", diff)
	}
}

func TestUnigramWithoutUnkYieldsNothingForUncovered(t *testing.T) {
	t.Parallel()
	u, err := NewUnigram(UnigramConfig{Vocab: []ScoredToken{{"a", 0}}})
	if err != nil {
		t.Fatalf("NewUnigram: %v", err)
	}
	toks, err := u.Tokenize("ab")
	if err != nil || len(toks) != 0 {
		t.Fatalf("expected no tokens, got %v %v", toks, err)
	}
	toks, err = u.Tokenize("aa")
	if err != nil {
		t.Fatalf("Tokenize: %v", err)
	}
	if diff := cmp.Diff([]uint32{0, 0}, tokenIDs(toks)); diff != "" {
		t.Fatalf("ids mismatch (-want +got):\n%s", diff)
	}
}

func TestNewUnigramRejectsInvalidUnk(t *testing.T) {
	t.Parallel()
	if _, err := NewUnigram(UnigramConfig{UnkID: intPtr(0)}); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig for empty vocab, got %v", err)
	}
	if _, err := NewUnigram(UnigramConfig{Vocab: []ScoredToken{{"a", 0}}, UnkID: intPtr(1)}); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig for out of range unk, got %v", err)
	}
}
