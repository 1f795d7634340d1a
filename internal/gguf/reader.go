package gguf

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
)

const (
	maxStringLen = 1 << 30
	// maxPrealloc caps slice capacity taken from untrusted counts.
	maxPrealloc = 1 << 16
)

// decoder pulls little-endian values off a buffered stream. remaining is the
// number of unread bytes, or -1 when the stream length is unknown.
type decoder struct {
	r         *bufio.Reader
	remaining int64
	scratch   [8]byte
}

func newDecoder(r io.Reader, size int64) *decoder {
	br, ok := r.(*bufio.Reader)
	if !ok {
		br = bufio.NewReader(r)
	}
	if size <= 0 {
		size = -1
	}
	return &decoder{r: br, remaining: size}
}

func (d *decoder) take(n int64) error {
	if d.remaining < 0 {
		return nil
	}
	if n > d.remaining {
		return io.ErrUnexpectedEOF
	}
	d.remaining -= n
	return nil
}

// fixed reads n <= 8 bytes into the scratch buffer.
func (d *decoder) fixed(n int) ([]byte, error) {
	if err := d.take(int64(n)); err != nil {
		return nil, err
	}
	b := d.scratch[:n]
	if _, err := io.ReadFull(d.r, b); err != nil {
		return nil, err
	}
	return b, nil
}

func (d *decoder) bytes(n uint64) ([]byte, error) {
	if n > maxStringLen || (d.remaining >= 0 && n > uint64(d.remaining)) {
		return nil, fmt.Errorf("length %d exceeds the input", n)
	}
	if err := d.take(int64(n)); err != nil {
		return nil, err
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(d.r, b); err != nil {
		return nil, err
	}
	return b, nil
}

func (d *decoder) u8() (uint8, error) {
	b, err := d.fixed(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (d *decoder) u16() (uint16, error) {
	b, err := d.fixed(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

func (d *decoder) u32() (uint32, error) {
	b, err := d.fixed(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (d *decoder) u64() (uint64, error) {
	b, err := d.fixed(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

func (d *decoder) str() (string, error) {
	n, err := d.u64()
	if err != nil {
		return "", err
	}
	b, err := d.bytes(n)
	if err != nil {
		return "", fmt.Errorf("string: %w", err)
	}
	return string(b), nil
}

// value decodes one value of type t. Signed integers and floats share the
// unsigned reads and are reinterpreted.
func (d *decoder) value(t ValueType) (any, error) {
	switch t {
	case TypeUint8, TypeInt8, TypeBool:
		v, err := d.u8()
		if err != nil {
			return nil, err
		}
		switch t {
		case TypeInt8:
			return int8(v), nil
		case TypeBool:
			return v != 0, nil
		}
		return v, nil
	case TypeUint16, TypeInt16:
		v, err := d.u16()
		if err != nil {
			return nil, err
		}
		if t == TypeInt16 {
			return int16(v), nil
		}
		return v, nil
	case TypeUint32, TypeInt32, TypeFloat32:
		v, err := d.u32()
		if err != nil {
			return nil, err
		}
		switch t {
		case TypeInt32:
			return int32(v), nil
		case TypeFloat32:
			return math.Float32frombits(v), nil
		}
		return v, nil
	case TypeUint64, TypeInt64, TypeFloat64:
		v, err := d.u64()
		if err != nil {
			return nil, err
		}
		switch t {
		case TypeInt64:
			return int64(v), nil
		case TypeFloat64:
			return math.Float64frombits(v), nil
		}
		return v, nil
	case TypeString:
		return d.str()
	case TypeArray:
		return d.array()
	default:
		return nil, fmt.Errorf("unsupported value type %d", uint32(t))
	}
}

func (d *decoder) array() (ArrayValue, error) {
	et, err := d.u32()
	if err != nil {
		return ArrayValue{}, err
	}
	elem := ValueType(et)
	if elem == TypeArray {
		return ArrayValue{}, errors.New("nested arrays are not supported")
	}
	count, err := d.u64()
	if err != nil {
		return ArrayValue{}, err
	}
	values := make([]any, 0, min(count, maxPrealloc))
	for i := range count {
		v, err := d.value(elem)
		if err != nil {
			return ArrayValue{}, fmt.Errorf("element %d: %w", i, err)
		}
		values = append(values, v)
	}
	return ArrayValue{ElemType: elem, Values: values}, nil
}
