package pretokenize

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/samcharles93/subword/internal/encoding"
)

type word struct {
	Value   string
	Offsets encoding.Offsets
}

func words(t *testing.T, pt PreTokenizer, text string) []word {
	t.Helper()
	splits, err := pt.PreTokenize(text)
	if err != nil {
		t.Fatalf("PreTokenize(%q): %v", text, err)
	}
	var out []word
	for _, s := range splits {
		out = append(out, word{Value: s.Value, Offsets: s.Offsets})
	}
	return out
}

func TestPreTokenizers(t *testing.T) {
	t.Parallel()

	const text = "Hey friend!     How are you?!?"
	tests := []struct {
		name string
		pt   PreTokenizer
		text string
		want []word
	}{
		{
			name: "whitespace",
			pt:   NewWhitespace(),
			text: text,
			want: []word{
				{"Hey", encoding.Offsets{Start: 0, End: 3}},
				{"friend", encoding.Offsets{Start: 4, End: 10}},
				{"!", encoding.Offsets{Start: 10, End: 11}},
				{"How", encoding.Offsets{Start: 16, End: 19}},
				{"are", encoding.Offsets{Start: 20, End: 23}},
				{"you", encoding.Offsets{Start: 24, End: 27}},
				{"?!?", encoding.Offsets{Start: 27, End: 30}},
			},
		},
		{
			name: "whitespace split",
			pt:   WhitespaceSplit{},
			text: text,
			want: []word{
				{"Hey", encoding.Offsets{Start: 0, End: 3}},
				{"friend!", encoding.Offsets{Start: 4, End: 11}},
				{"How", encoding.Offsets{Start: 16, End: 19}},
				{"are", encoding.Offsets{Start: 20, End: 23}},
				{"you?!?", encoding.Offsets{Start: 24, End: 30}},
			},
		},
		{
			name: "whitespace multibyte",
			pt:   NewWhitespace(),
			text: "東京 is",
			want: []word{
				{"東京", encoding.Offsets{Start: 0, End: 6}},
				{"is", encoding.Offsets{Start: 7, End: 9}},
			},
		},
		{
			name: "byte level",
			pt:   NewByteLevel(false, true),
			text: "Hello world",
			want: []word{
				{"Hello", encoding.Offsets{Start: 0, End: 5}},
				{"Ġworld", encoding.Offsets{Start: 5, End: 11}},
			},
		},
		{
			name: "byte level prefix space",
			pt:   NewByteLevel(true, true),
			text: "Hello world",
			want: []word{
				{"ĠHello", encoding.Offsets{Start: 0, End: 5}},
				{"Ġworld", encoding.Offsets{Start: 5, End: 11}},
			},
		},
		{
			name: "byte level trailing spaces",
			pt:   NewByteLevel(false, true),
			text: "a  b",
			want: []word{
				{"a", encoding.Offsets{Start: 0, End: 1}},
				{"Ġ", encoding.Offsets{Start: 1, End: 2}},
				{"Ġb", encoding.Offsets{Start: 2, End: 4}},
			},
		},
		{
			name: "byte level without regex",
			pt:   NewByteLevel(false, false),
			text: "a b",
			want: []word{{"aĠb", encoding.Offsets{Start: 0, End: 3}}},
		},
		{
			name: "sequence",
			pt:   Sequence{WhitespaceSplit{}, NewWhitespace()},
			text: "Hey friend!",
			want: []word{
				{"Hey", encoding.Offsets{Start: 0, End: 3}},
				{"friend", encoding.Offsets{Start: 4, End: 10}},
				{"!", encoding.Offsets{Start: 10, End: 11}},
			},
		},
		{
			name: "empty",
			pt:   NewWhitespace(),
			text: "",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if diff := cmp.Diff(tc.want, words(t, tc.pt, tc.text)); diff != "" {
				t.Fatalf("splits mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSplitMapThroughByteLevel(t *testing.T) {
	t.Parallel()

	splits, err := NewByteLevel(true, true).PreTokenize("Hello é")
	if err != nil {
		t.Fatalf("PreTokenize: %v", err)
	}
	if len(splits) != 2 {
		t.Fatalf("expected 2 splits, got %d", len(splits))
	}

	hello := splits[0]
	if got := hello.Map(encoding.Offsets{Start: 2, End: 7}); got != (encoding.Offsets{Start: 0, End: 5}) {
		t.Fatalf("unexpected mapping for Hello: %+v", got)
	}
	if got := hello.Map(encoding.Offsets{Start: 0, End: 2}); got != (encoding.Offsets{Start: 0, End: 0}) {
		t.Fatalf("prefix space must map to an empty range, got %+v", got)
	}

	accent := splits[1]
	if accent.Value != "ĠÃ©" {
		t.Fatalf("unexpected byte level value %q", accent.Value)
	}
	// "Ã" is the first byte of "é"; it maps to the first source byte only.
	if got := accent.Map(encoding.Offsets{Start: 2, End: 4}); got != (encoding.Offsets{Start: 6, End: 7}) {
		t.Fatalf("unexpected mapping for first byte: %+v", got)
	}
	if got := accent.Map(encoding.Offsets{Start: 2, End: 6}); got != (encoding.Offsets{Start: 6, End: 8}) {
		t.Fatalf("unexpected mapping for whole char: %+v", got)
	}
}

func TestSequenceComposesOffsets(t *testing.T) {
	t.Parallel()
	splits, err := Sequence{WhitespaceSplit{}, NewByteLevel(false, true)}.PreTokenize("hi  there")
	if err != nil {
		t.Fatalf("PreTokenize: %v", err)
	}
	got := make([]word, 0, len(splits))
	for _, s := range splits {
		got = append(got, word{Value: s.Value, Offsets: s.Offsets})
	}
	want := []word{
		{"hi", encoding.Offsets{Start: 0, End: 2}},
		{"there", encoding.Offsets{Start: 4, End: 9}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("splits mismatch (-want +got):\n%s", diff)
	}
	if m := splits[1].Map(encoding.Offsets{Start: 1, End: 3}); m != (encoding.Offsets{Start: 5, End: 7}) {
		t.Fatalf("unexpected composed mapping %+v", m)
	}
}

func TestDecodeByteLevel(t *testing.T) {
	t.Parallel()
	if got := DecodeByteLevel("ĠHelloĠÃ©"); got != " Hello é" {
		t.Fatalf("unexpected decode %q", got)
	}
	table := bytesToUnicode()
	seen := map[rune]bool{}
	for _, r := range table {
		if seen[r] {
			t.Fatalf("rune %q mapped twice", r)
		}
		seen[r] = true
	}
	if table[' '] != 'Ġ' || table['\n'] != 'Ċ' || table['a'] != 'a' {
		t.Fatalf("unexpected mapping: %q %q %q", table[' '], table['\n'], table['a'])
	}
}

func TestUnmarshal(t *testing.T) {
	t.Parallel()

	pt, err := Unmarshal([]byte(`{"type":"Sequence","pretokenizers":[{"type":"WhitespaceSplit"},{"type":"ByteLevel","add_prefix_space":false,"trim_offsets":true}]}`))
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	seq, ok := pt.(Sequence)
	if !ok || len(seq) != 2 {
		t.Fatalf("expected a two element sequence, got %#v", pt)
	}
	bl, ok := seq[1].(*ByteLevel)
	if !ok || bl.AddPrefixSpace || !bl.UseRegex {
		t.Fatalf("unexpected byte level settings %#v", seq[1])
	}
	if Name(pt) != "Sequence" || Name(seq[0]) != "WhitespaceSplit" {
		t.Fatalf("unexpected names %q %q", Name(pt), Name(seq[0]))
	}

	pt, err = Unmarshal([]byte(`null`))
	if err != nil || pt != nil {
		t.Fatalf("expected nil pre-tokenizer for null, got %v %v", pt, err)
	}

	if _, err := Unmarshal([]byte(`{"type":"Digits"}`)); !errors.Is(err, ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported, got %v", err)
	}
}

func TestMetaspace(t *testing.T) {
	t.Parallel()

	got := words(t, NewMetaspace(), "Hello world")
	want := []word{
		{"▁Hello", encoding.Offsets{Start: 0, End: 5}},
		{"▁world", encoding.Offsets{Start: 5, End: 11}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("split mismatch (-want +got):\n%s", diff)
	}

	splits, err := NewMetaspace().PreTokenize("Hello world")
	if err != nil {
		t.Fatalf("PreTokenize: %v", err)
	}
	if got := splits[1].Map(encoding.Offsets{Start: 0, End: 3}); got != (encoding.Offsets{Start: 5, End: 6}) {
		t.Fatalf("marker should map onto the space, got %+v", got)
	}

	joined := &Metaspace{Replacement: DefaultReplacement, PrependScheme: PrependNever}
	if diff := cmp.Diff([]word{{"Hello▁world", encoding.Offsets{Start: 0, End: 11}}}, words(t, joined, "Hello world")); diff != "" {
		t.Fatalf("unsplit mismatch (-want +got):\n%s", diff)
	}

	if diff := cmp.Diff([]word{{"▁a", encoding.Offsets{Start: 0, End: 2}}}, words(t, NewMetaspace(), " a")); diff != "" {
		t.Fatalf("leading space mismatch (-want +got):\n%s", diff)
	}
}

func TestUnmarshalMetaspace(t *testing.T) {
	t.Parallel()

	pt, err := Unmarshal([]byte(`{"type":"Metaspace","replacement":"_","prepend_scheme":"never","split":false}`))
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	want := &Metaspace{Replacement: '_', PrependScheme: PrependNever, Split: false}
	if diff := cmp.Diff(want, pt); diff != "" {
		t.Fatalf("metaspace mismatch (-want +got):\n%s", diff)
	}
	if Name(pt) != "Metaspace" {
		t.Fatalf("unexpected name %q", Name(pt))
	}

	pt, err = Unmarshal([]byte(`{"type":"Metaspace","replacement":"▁","add_prefix_space":false}`))
	if err != nil {
		t.Fatalf("Unmarshal legacy: %v", err)
	}
	if m := pt.(*Metaspace); m.PrependScheme != PrependNever || !m.Split {
		t.Fatalf("unexpected legacy settings %+v", m)
	}

	for _, bad := range []string{
		`{"type":"Metaspace","replacement":"ab"}`,
		`{"type":"Metaspace","prepend_scheme":"sometimes"}`,
	} {
		if _, err := Unmarshal([]byte(bad)); err == nil {
			t.Fatalf("expected error for %s", bad)
		}
	}
}
