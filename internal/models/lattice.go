package models

import (
	"slices"
	"unicode/utf8"
)

type latticeNode struct {
	id     int
	nodeID int
	pos    int
	length int
	score  float64

	prev           *latticeNode
	backtraceScore float64
}

// Lattice holds every vocabulary piece found in a sentence, indexed by the
// byte positions where each piece begins and ends.
type Lattice struct {
	sentence   string
	nodes      []*latticeNode
	beginNodes [][]*latticeNode
	endNodes   [][]*latticeNode
}

// NewLattice creates a lattice with its sentinel nodes. bosID and eosID are
// ids that do not collide with vocabulary entries.
func NewLattice(sentence string, bosID, eosID int) *Lattice {
	n := len(sentence)
	l := &Lattice{
		sentence:   sentence,
		beginNodes: make([][]*latticeNode, n+1),
		endNodes:   make([][]*latticeNode, n+1),
	}
	bos := &latticeNode{id: bosID, nodeID: 0}
	eos := &latticeNode{id: eosID, nodeID: 1, pos: n}
	l.nodes = append(l.nodes, bos, eos)
	l.endNodes[0] = append(l.endNodes[0], bos)
	l.beginNodes[n] = append(l.beginNodes[n], eos)
	return l
}

func (l *Lattice) Len() int { return len(l.sentence) }

// Insert adds a piece covering sentence[pos:pos+length].
func (l *Lattice) Insert(pos, length int, score float64, id int) {
	node := &latticeNode{id: id, nodeID: len(l.nodes), pos: pos, length: length, score: score}
	l.nodes = append(l.nodes, node)
	l.beginNodes[pos] = append(l.beginNodes[pos], node)
	l.endNodes[pos+length] = append(l.endNodes[pos+length], node)
}

// Viterbi returns the highest scoring path from the first to the last byte,
// excluding sentinels. The first node reaching a score wins ties. A nil
// result means some character position cannot be reached.
func (l *Lattice) Viterbi() []*latticeNode {
	n := len(l.sentence)
	for pos := 0; pos <= n; {
		if len(l.beginNodes[pos]) == 0 {
			return nil
		}
		for _, r := range l.beginNodes[pos] {
			r.prev = nil
			var best *latticeNode
			bestScore := 0.0
			for _, left := range l.endNodes[pos] {
				score := left.backtraceScore + r.score
				if best == nil || score > bestScore {
					best, bestScore = left, score
				}
			}
			if best == nil {
				return nil
			}
			r.prev = best
			r.backtraceScore = bestScore
		}
		if pos == n {
			break
		}
		_, size := utf8.DecodeRuneInString(l.sentence[pos:])
		pos += size
	}

	eos := l.beginNodes[n][0]
	if eos.prev == nil {
		return nil
	}
	var path []*latticeNode
	for node := eos.prev; node.prev != nil; node = node.prev {
		path = append(path, node)
	}
	slices.Reverse(path)
	return path
}

func (l *Lattice) piece(node *latticeNode) string {
	return l.sentence[node.pos : node.pos+node.length]
}

// Tokens returns the pieces along the best path.
func (l *Lattice) Tokens() []string {
	path := l.Viterbi()
	out := make([]string, len(path))
	for i, node := range path {
		out[i] = l.piece(node)
	}
	return out
}
