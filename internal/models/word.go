package models

import (
	"cmp"
	"math/rand/v2"

	heap "github.com/emirpasic/gods/v2/trees/binaryheap"

	"github.com/samcharles93/subword/internal/encoding"
)

// Pair is an adjacent pair of token ids.
type Pair struct {
	A, B uint32
}

// mergeRule is the rank and resulting id of a merge.
type mergeRule struct {
	rank uint32
	id   uint32
}

type symbol struct {
	id   uint32
	prev int
	next int
	// len is the byte length covered; zero marks a symbol merged away.
	len int
}

// word is a doubly linked list of symbols laid over a slice.
type word struct {
	symbols []symbol
}

func newWord(capacity int) *word {
	return &word{symbols: make([]symbol, 0, capacity)}
}

func (w *word) add(id uint32, byteLen int) {
	prev := -1
	if n := len(w.symbols); n > 0 {
		w.symbols[n-1].next = n
		prev = n - 1
	}
	w.symbols = append(w.symbols, symbol{id: id, prev: prev, next: -1, len: byteLen})
}

type candidate struct {
	pos  int
	rank uint32
	id   uint32
}

// mergeAll applies merges lowest rank first, leftmost first among equal
// ranks. With a positive dropout each popped merge is skipped with that
// probability; skipped merges return to the queue after the next applied
// merge.
func (w *word) mergeAll(merges map[Pair]mergeRule, dropout float32) {
	queue := heap.NewWith(func(a, b candidate) int {
		if c := cmp.Compare(a.rank, b.rank); c != 0 {
			return c
		}
		return cmp.Compare(a.pos, b.pos)
	})

	for i := 0; i+1 < len(w.symbols); i++ {
		if m, ok := merges[Pair{w.symbols[i].id, w.symbols[i+1].id}]; ok {
			queue.Push(candidate{pos: i, rank: m.rank, id: m.id})
		}
	}

	var skipped []candidate
	for !queue.Empty() {
		top, _ := queue.Pop()

		if dropout > 0 && rand.Float32() < dropout {
			skipped = append(skipped, top)
			continue
		}
		for _, s := range skipped {
			queue.Push(s)
		}
		skipped = skipped[:0]

		cur := w.symbols[top.pos]
		if cur.len == 0 || cur.next == -1 {
			continue
		}
		right := w.symbols[cur.next]
		if m, ok := merges[Pair{cur.id, right.id}]; !ok || m.id != top.id {
			continue
		}

		// Absorb the right symbol into the left one.
		w.symbols[top.pos].id = top.id
		w.symbols[top.pos].len += right.len
		w.symbols[top.pos].next = right.next
		w.symbols[cur.next].len = 0
		if right.next >= 0 && right.next < len(w.symbols) {
			w.symbols[right.next].prev = top.pos
		}

		cur = w.symbols[top.pos]
		if cur.prev >= 0 {
			prev := w.symbols[cur.prev]
			if m, ok := merges[Pair{prev.id, cur.id}]; ok {
				queue.Push(candidate{pos: cur.prev, rank: m.rank, id: m.id})
			}
		}
		if cur.next >= 0 && cur.next < len(w.symbols) {
			next := w.symbols[cur.next]
			if m, ok := merges[Pair{cur.id, next.id}]; ok {
				queue.Push(candidate{pos: top.pos, rank: m.rank, id: m.id})
			}
		}
	}

	kept := w.symbols[:0]
	for _, s := range w.symbols {
		if s.len != 0 {
			kept = append(kept, s)
		}
	}
	w.symbols = kept
}

func (w *word) tokens(vocabR map[uint32]string) []encoding.Token {
	out := make([]encoding.Token, 0, len(w.symbols))
	pos := 0
	for _, s := range w.symbols {
		out = append(out, encoding.Token{
			ID:      s.id,
			Value:   vocabR[s.id],
			Offsets: encoding.Offsets{Start: pos, End: pos + s.len},
		})
		pos += s.len
	}
	return out
}
