package gguf

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// KV is one metadata entry in write order.
type KV struct {
	Key   string
	Value Value
}

// Write encodes a version 3 GGUF header and the given metadata, with no
// tensors.
func Write(w io.Writer, kvs []KV) error {
	bw := bufio.NewWriter(w)
	e := &writer{w: bw}
	e.bytes([]byte(magicGGUF))
	e.u32(3)
	e.u64(0)
	e.u64(uint64(len(kvs)))
	for _, kv := range kvs {
		e.str(kv.Key)
		e.u32(uint32(kv.Value.Type))
		e.value(kv.Value.Type, kv.Value.Value)
	}
	if e.err != nil {
		return e.err
	}
	return bw.Flush()
}

func String(s string) Value { return Value{Type: TypeString, Value: s} }

func Uint32(v uint32) Value { return Value{Type: TypeUint32, Value: v} }

func Bool(v bool) Value { return Value{Type: TypeBool, Value: v} }

// Array wraps items as an array of elem values.
func Array[T any](elem ValueType, items []T) Value {
	values := make([]any, len(items))
	for i, v := range items {
		values[i] = v
	}
	return Value{Type: TypeArray, Value: ArrayValue{ElemType: elem, Values: values}}
}

type writer struct {
	w   io.Writer
	err error
}

func (e *writer) bytes(b []byte) {
	if e.err != nil {
		return
	}
	_, e.err = e.w.Write(b)
}

func (e *writer) u32(v uint32) { e.bytes(binary.LittleEndian.AppendUint32(nil, v)) }

func (e *writer) u64(v uint64) { e.bytes(binary.LittleEndian.AppendUint64(nil, v)) }

func (e *writer) str(s string) {
	e.u64(uint64(len(s)))
	e.bytes([]byte(s))
}

func (e *writer) value(t ValueType, v any) {
	if e.err != nil {
		return
	}
	switch x := v.(type) {
	case uint8:
		e.bytes([]byte{x})
	case int8:
		e.bytes([]byte{byte(x)})
	case uint16:
		e.bytes(binary.LittleEndian.AppendUint16(nil, x))
	case int16:
		e.bytes(binary.LittleEndian.AppendUint16(nil, uint16(x)))
	case uint32:
		e.u32(x)
	case int32:
		e.u32(uint32(x))
	case uint64:
		e.u64(x)
	case int64:
		e.u64(uint64(x))
	case float32:
		e.u32(math.Float32bits(x))
	case float64:
		e.u64(math.Float64bits(x))
	case bool:
		b := byte(0)
		if x {
			b = 1
		}
		e.bytes([]byte{b})
	case string:
		e.str(x)
	case ArrayValue:
		e.u32(uint32(x.ElemType))
		e.u64(uint64(len(x.Values)))
		for _, item := range x.Values {
			e.value(x.ElemType, item)
		}
	default:
		e.err = fmt.Errorf("cannot encode %T as %s", v, t)
	}
}
