package models

import "fmt"

func unsupported(v Variant, param string) error {
	return fmt.Errorf("%w: %s has no %s", ErrUnsupported, kindOf(v), param)
}

// getParam reads a parameter under the shared lock.
func getParam[T any](m *Model, get func(v Variant) (T, error)) (T, error) {
	var out T
	err := m.read(func(v Variant) error {
		var err error
		out, err = get(v)
		return err
	})
	return out, err
}

func (m *Model) UnkToken() (string, error) {
	return getParam(m, func(v Variant) (string, error) {
		switch v := v.(type) {
		case *BPE:
			return v.unkToken, nil
		case *WordPiece:
			return v.unkToken, nil
		case *WordLevel:
			return v.unkToken, nil
		default:
			return "", unsupported(v, "unk_token")
		}
	})
}

func (m *Model) SetUnkToken(token string) error {
	return m.write(func(v Variant) error {
		switch v := v.(type) {
		case *BPE:
			v.unkToken = token
			v.cache.Clear()
		case *WordPiece:
			v.unkToken = token
		case *WordLevel:
			v.unkToken = token
		default:
			return unsupported(v, "unk_token")
		}
		return nil
	})
}

func (m *Model) ContinuingSubwordPrefix() (string, error) {
	return getParam(m, func(v Variant) (string, error) {
		switch v := v.(type) {
		case *BPE:
			return v.continuingSubwordPrefix, nil
		case *WordPiece:
			return v.continuingSubwordPrefix, nil
		default:
			return "", unsupported(v, "continuing_subword_prefix")
		}
	})
}

func (m *Model) SetContinuingSubwordPrefix(prefix string) error {
	return m.write(func(v Variant) error {
		switch v := v.(type) {
		case *BPE:
			v.continuingSubwordPrefix = prefix
			v.cache.Clear()
		case *WordPiece:
			v.continuingSubwordPrefix = prefix
		default:
			return unsupported(v, "continuing_subword_prefix")
		}
		return nil
	})
}

func (m *Model) Dropout() (float32, error) {
	return getParam(m, func(v Variant) (float32, error) {
		if b, ok := v.(*BPE); ok {
			return b.dropout, nil
		}
		return 0, unsupported(v, "dropout")
	})
}

func (m *Model) SetDropout(p float32) error {
	return m.write(func(v Variant) error {
		if b, ok := v.(*BPE); ok {
			return b.setDropout(p)
		}
		return unsupported(v, "dropout")
	})
}

func (m *Model) EndOfWordSuffix() (string, error) {
	return getParam(m, func(v Variant) (string, error) {
		if b, ok := v.(*BPE); ok {
			return b.endOfWordSuffix, nil
		}
		return "", unsupported(v, "end_of_word_suffix")
	})
}

func (m *Model) SetEndOfWordSuffix(suffix string) error {
	return m.write(func(v Variant) error {
		if b, ok := v.(*BPE); ok {
			b.endOfWordSuffix = suffix
			b.cache.Clear()
			return nil
		}
		return unsupported(v, "end_of_word_suffix")
	})
}

func (m *Model) FuseUnk() (bool, error) {
	return getParam(m, func(v Variant) (bool, error) {
		switch v := v.(type) {
		case *BPE:
			return v.fuseUnk, nil
		case *Unigram:
			return v.fuseUnk, nil
		default:
			return false, unsupported(v, "fuse_unk")
		}
	})
}

func (m *Model) SetFuseUnk(fuse bool) error {
	return m.write(func(v Variant) error {
		switch v := v.(type) {
		case *BPE:
			v.fuseUnk = fuse
			v.cache.Clear()
		case *Unigram:
			// Cached segmentations already have unknown runs joined.
			v.fuseUnk = fuse
			v.cache.Clear()
		default:
			return unsupported(v, "fuse_unk")
		}
		return nil
	})
}

func (m *Model) ByteFallback() (bool, error) {
	return getParam(m, func(v Variant) (bool, error) {
		switch v := v.(type) {
		case *BPE:
			return v.byteFallback, nil
		case *Unigram:
			return v.byteFallback, nil
		default:
			return false, unsupported(v, "byte_fallback")
		}
	})
}

func (m *Model) SetByteFallback(enabled bool) error {
	return m.write(func(v Variant) error {
		switch v := v.(type) {
		case *BPE:
			v.byteFallback = enabled
			v.cache.Clear()
		case *Unigram:
			// Cached entries are piece strings; byte fallback applies after
			// the cache so nothing is invalidated.
			v.byteFallback = enabled
		default:
			return unsupported(v, "byte_fallback")
		}
		return nil
	})
}

func (m *Model) IgnoreMerges() (bool, error) {
	return getParam(m, func(v Variant) (bool, error) {
		if b, ok := v.(*BPE); ok {
			return b.ignoreMerges, nil
		}
		return false, unsupported(v, "ignore_merges")
	})
}

func (m *Model) SetIgnoreMerges(ignore bool) error {
	return m.write(func(v Variant) error {
		if b, ok := v.(*BPE); ok {
			b.ignoreMerges = ignore
			return nil
		}
		return unsupported(v, "ignore_merges")
	})
}

func (m *Model) MaxInputCharsPerWord() (int, error) {
	return getParam(m, func(v Variant) (int, error) {
		if w, ok := v.(*WordPiece); ok {
			return w.maxInputCharsPerWord, nil
		}
		return 0, unsupported(v, "max_input_chars_per_word")
	})
}

func (m *Model) SetMaxInputCharsPerWord(n int) error {
	return m.write(func(v Variant) error {
		if w, ok := v.(*WordPiece); ok {
			w.maxInputCharsPerWord = n
			return nil
		}
		return unsupported(v, "max_input_chars_per_word")
	})
}

// UnkID returns the unknown piece id of a Unigram model, or false when none
// is configured.
func (m *Model) UnkID() (int, bool, error) {
	type result struct {
		id int
		ok bool
	}
	r, err := getParam(m, func(v Variant) (result, error) {
		if u, ok := v.(*Unigram); ok {
			return result{u.unkID, u.unkID >= 0}, nil
		}
		return result{}, unsupported(v, "unk_id")
	})
	return r.id, r.ok, err
}
