// Package gguf reads the key/value metadata of GGUF model files. Tensor
// data is never touched; only the header and metadata are decoded.
package gguf

import (
	"errors"
	"fmt"
	"io"
	"os"
)

const magicGGUF = "GGUF"

// ErrInvalidFile reports a file that is not GGUF or is truncated.
var ErrInvalidFile = errors.New("invalid_gguf_file")

type ValueType uint32

const (
	TypeUint8   ValueType = 0
	TypeInt8    ValueType = 1
	TypeUint16  ValueType = 2
	TypeInt16   ValueType = 3
	TypeUint32  ValueType = 4
	TypeInt32   ValueType = 5
	TypeFloat32 ValueType = 6
	TypeBool    ValueType = 7
	TypeString  ValueType = 8
	TypeArray   ValueType = 9
	TypeUint64  ValueType = 10
	TypeInt64   ValueType = 11
	TypeFloat64 ValueType = 12
)

func (t ValueType) String() string {
	switch t {
	case TypeUint8:
		return "u8"
	case TypeInt8:
		return "i8"
	case TypeUint16:
		return "u16"
	case TypeInt16:
		return "i16"
	case TypeUint32:
		return "u32"
	case TypeInt32:
		return "i32"
	case TypeUint64:
		return "u64"
	case TypeInt64:
		return "i64"
	case TypeFloat32:
		return "f32"
	case TypeFloat64:
		return "f64"
	case TypeBool:
		return "bool"
	case TypeString:
		return "string"
	case TypeArray:
		return "array"
	default:
		return fmt.Sprintf("type(%d)", uint32(t))
	}
}

type ArrayValue struct {
	ElemType ValueType
	Values   []any
}

type Value struct {
	Type  ValueType
	Value any
}

type Header struct {
	Version     uint32
	TensorCount uint64
	KVCount     uint64
}

// Metadata is the decoded header and key/value section of a GGUF file.
type Metadata struct {
	Header Header
	KV     map[string]Value
}

// Open reads the metadata of the GGUF file at path.
func Open(path string) (*Metadata, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	st, err := f.Stat()
	if err != nil {
		return nil, err
	}
	md, err := read(newDecoder(f, st.Size()))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return md, nil
}

// Read decodes metadata from r. The stream is consumed up to the end of the
// key/value section.
func Read(r io.Reader) (*Metadata, error) {
	return read(newDecoder(r, 0))
}

func read(d *decoder) (*Metadata, error) {
	magic, err := d.fixed(4)
	if err != nil {
		return nil, invalid(err)
	}
	if string(magic) != magicGGUF {
		return nil, fmt.Errorf("%w: magic %q", ErrInvalidFile, string(magic))
	}

	var h Header
	if h.Version, err = d.u32(); err != nil {
		return nil, invalid(err)
	}
	if h.Version < 2 {
		return nil, fmt.Errorf("%w: version %d is not supported", ErrInvalidFile, h.Version)
	}
	if h.TensorCount, err = d.u64(); err != nil {
		return nil, invalid(err)
	}
	if h.KVCount, err = d.u64(); err != nil {
		return nil, invalid(err)
	}

	kv := make(map[string]Value, min(h.KVCount, 1024))
	for i := range h.KVCount {
		key, err := d.str()
		if err != nil {
			return nil, invalid(fmt.Errorf("key %d: %w", i, err))
		}
		t, err := d.u32()
		if err != nil {
			return nil, invalid(fmt.Errorf("%s: value type: %w", key, err))
		}
		v, err := d.value(ValueType(t))
		if err != nil {
			return nil, invalid(fmt.Errorf("%s: %w", key, err))
		}
		kv[key] = Value{Type: ValueType(t), Value: v}
	}
	return &Metadata{Header: h, KV: kv}, nil
}

func invalid(err error) error {
	if errors.Is(err, ErrInvalidFile) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrInvalidFile, err)
}

func asUint64(v any) (uint64, bool) {
	var signed int64
	switch n := v.(type) {
	case uint8:
		return uint64(n), true
	case uint16:
		return uint64(n), true
	case uint32:
		return uint64(n), true
	case uint64:
		return n, true
	case int8:
		signed = int64(n)
	case int16:
		signed = int64(n)
	case int32:
		signed = int64(n)
	case int64:
		signed = n
	default:
		return 0, false
	}
	if signed < 0 {
		return 0, false
	}
	return uint64(signed), true
}
