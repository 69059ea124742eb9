package message

import (
	"math"

	"github.com/arloliu/minipb/arena"
)

// Value is a type-erased field value, interpreted through the type of the
// field, element or map entry it is used with.
//
// Scalars are stored as raw bits. String, bytes and message values are either
// arena-backed (read from storage, or created with NewStringValue,
// NewBytesValue or ValueOfMessage) or unowned (created with ValueOfString or
// ValueOfBytes). Operations that may allocate copy unowned data into the arena;
// SetField, which never allocates, requires arena-backed values.
type Value struct {
	bits uint64
	a    *arena.Arena
	raw  []byte
}

// ValueOfBool returns a bool value.
func ValueOfBool(v bool) Value {
	if v {
		return Value{bits: 1}
	}

	return Value{}
}

// ValueOfInt32 returns an int32 value.
func ValueOfInt32(v int32) Value { return Value{bits: uint64(uint32(v))} }

// ValueOfInt64 returns an int64 value.
func ValueOfInt64(v int64) Value { return Value{bits: uint64(v)} }

// ValueOfUInt32 returns a uint32 value.
func ValueOfUInt32(v uint32) Value { return Value{bits: uint64(v)} }

// ValueOfUInt64 returns a uint64 value.
func ValueOfUInt64(v uint64) Value { return Value{bits: v} }

// ValueOfFloat returns a float value.
func ValueOfFloat(v float32) Value { return Value{bits: uint64(math.Float32bits(v))} }

// ValueOfDouble returns a double value.
func ValueOfDouble(v float64) Value { return Value{bits: math.Float64bits(v)} }

// ValueOfEnum returns an enum value.
func ValueOfEnum(v int32) Value { return ValueOfInt32(v) }

// ValueOfString returns an unowned string value.
func ValueOfString(s string) Value { return Value{raw: []byte(s)} }

// ValueOfBytes returns an unowned bytes value. b is not copied until the value is stored.
func ValueOfBytes(b []byte) Value { return Value{raw: b} }

// ValueOfMessage returns a value referring to m. A nil m yields the null message.
func ValueOfMessage(m *Message) Value {
	if m == nil {
		return Value{}
	}

	return Value{bits: uint64(m.ref), a: m.a}
}

// NewStringValue copies s into a and returns an arena-backed value.
func NewStringValue(a *arena.Arena, s string) (Value, error) {
	return NewBytesValue(a, []byte(s))
}

// NewBytesValue copies b into a and returns an arena-backed value.
func NewBytesValue(a *arena.Arena, b []byte) (Value, error) {
	ref, err := newBytes(a, b)
	if err != nil {
		return Value{}, err
	}

	return Value{bits: uint64(ref), a: a}, nil
}

// Bits returns the raw bits of the value. For arena-backed string, bytes and
// message values these are the arena handle.
func (v Value) Bits() uint64 { return v.bits }

// IsArenaBacked reports whether the value refers to arena memory.
func (v Value) IsArenaBacked() bool { return v.a != nil }

// Bool returns the value as a bool.
func (v Value) Bool() bool { return v.bits != 0 }

// Int32 returns the value as an int32.
func (v Value) Int32() int32 { return int32(uint32(v.bits)) }

// Int64 returns the value as an int64.
func (v Value) Int64() int64 { return int64(v.bits) }

// UInt32 returns the value as a uint32.
func (v Value) UInt32() uint32 { return uint32(v.bits) }

// UInt64 returns the value as a uint64.
func (v Value) UInt64() uint64 { return v.bits }

// Float returns the value as a float32.
func (v Value) Float() float32 { return math.Float32frombits(uint32(v.bits)) }

// Double returns the value as a float64.
func (v Value) Double() float64 { return math.Float64frombits(v.bits) }

// Enum returns the value as an enum number.
func (v Value) Enum() int32 { return v.Int32() }

// Bytes returns the value as bytes. Arena-backed bytes alias arena memory and
// must not be modified.
func (v Value) Bytes() []byte {
	if v.a == nil {
		return v.raw
	}

	return v.a.Block(arena.Ref(v.bits))
}

// String returns the value as a string.
func (v Value) String() string {
	return string(v.Bytes())
}

// Message returns the message the value refers to, or nil.
func (v Value) Message() *Message {
	if v.a == nil {
		return nil
	}

	return messageAt(v.a, arena.Ref(v.bits))
}

// ownBits returns the bits to store for v in storage owned by a, copying
// unowned string and bytes data into a.
func ownBits(a *arena.Arena, isRef bool, v Value) (uint64, error) {
	if !isRef {
		return v.bits, nil
	}

	if v.a == nil {
		ref, err := newBytes(a, v.raw)
		return uint64(ref), err
	}
	adopt(a, v.a)

	return v.bits, nil
}
