package models

// trie indexes vocabulary pieces by their bytes.
type trie struct {
	root trieNode
}

type trieNode struct {
	leaf     bool
	children map[byte]*trieNode
}

func (t *trie) insert(s string) {
	n := &t.root
	for i := 0; i < len(s); i++ {
		if n.children == nil {
			n.children = make(map[byte]*trieNode)
		}
		next, ok := n.children[s[i]]
		if !ok {
			next = &trieNode{}
			n.children[s[i]] = next
		}
		n = next
	}
	n.leaf = true
}

// prefixes returns the byte lengths of every entry that is a prefix of s,
// shortest first.
func (t *trie) prefixes(s string) []int {
	var out []int
	n := &t.root
	for i := 0; i < len(s); i++ {
		next, ok := n.children[s[i]]
		if !ok {
			break
		}
		n = next
		if n.leaf {
			out = append(out, i+1)
		}
	}
	return out
}
