package pretokenize

// Sequence applies each pre-tokenizer to the words produced by the previous
// one.
type Sequence []PreTokenizer

func (s Sequence) PreTokenize(text string) ([]Split, error) {
	splits := Whole(text)
	for _, pt := range s {
		var next []Split
		for _, parent := range splits {
			children, err := pt.PreTokenize(parent.Value)
			if err != nil {
				return nil, err
			}
			for _, c := range children {
				next = append(next, parent.compose(c))
			}
		}
		splits = next
	}
	return splits, nil
}

// compose re-anchors child, whose offsets are relative to s.Value, onto
// the text s came from.
func (s Split) compose(child Split) Split {
	align := make([]int, len(child.align))
	for i, a := range child.align {
		align[i] = s.align[min(max(a, 0), len(s.align)-1)]
	}
	return Split{
		Value:   child.Value,
		Offsets: s.Map(child.Offsets),
		align:   align,
	}
}
