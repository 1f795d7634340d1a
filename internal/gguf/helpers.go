package gguf

import "fmt"

func lookup[T any](kv map[string]Value, key string) (T, bool) {
	v, ok := kv[key]
	if !ok {
		var zero T
		return zero, false
	}
	t, ok := v.Value.(T)
	return t, ok
}

func GetString(kv map[string]Value, key string) (string, bool) {
	return lookup[string](kv, key)
}

func GetBool(kv map[string]Value, key string) (bool, bool) {
	return lookup[bool](kv, key)
}

// GetUint64 accepts any non-negative integer value.
func GetUint64(kv map[string]Value, key string) (uint64, bool) {
	v, ok := kv[key]
	if !ok {
		return 0, false
	}
	return asUint64(v.Value)
}

func GetFloat64(kv map[string]Value, key string) (float64, bool) {
	v, ok := kv[key]
	if !ok {
		return 0, false
	}
	switch f := v.Value.(type) {
	case float32:
		return float64(f), true
	case float64:
		return f, true
	}
	return 0, false
}

// GetArray returns the array stored under key when every element has type T.
func GetArray[T any](kv map[string]Value, key string) ([]T, bool) {
	arr, ok := lookup[ArrayValue](kv, key)
	if !ok {
		return nil, false
	}
	out := make([]T, len(arr.Values))
	for i, item := range arr.Values {
		if out[i], ok = item.(T); !ok {
			return nil, false
		}
	}
	return out, true
}

func missing(key string) error {
	return fmt.Errorf("missing or invalid %s", key)
}

func MustGetString(kv map[string]Value, key string) (string, error) {
	s, ok := GetString(kv, key)
	if !ok {
		return "", missing(key)
	}
	return s, nil
}

func MustGetUint64(kv map[string]Value, key string) (uint64, error) {
	n, ok := GetUint64(kv, key)
	if !ok {
		return 0, missing(key)
	}
	return n, nil
}
