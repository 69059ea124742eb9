package message

import (
	"math"

	"github.com/arloliu/minipb/arena"
	"github.com/arloliu/minipb/minitable"
)

// GetBool returns the value of a bool field, or def when the field is unset.
//
// A field is unset when its presence bit is clear, when another member of its
// oneof is active, or, for implicit-presence fields, when it stores zero.
func GetBool(m *Message, f *minitable.Field, def bool) bool {
	if !m.present(f) {
		return def
	}

	return m.loadSlot(f) != 0
}

// GetInt32 returns the value of an int32 field, or def when the field is unset.
func GetInt32(m *Message, f *minitable.Field, def int32) int32 {
	if !m.present(f) {
		return def
	}

	return int32(uint32(m.loadSlot(f)))
}

// GetInt64 returns the value of an int64 field, or def when the field is unset.
func GetInt64(m *Message, f *minitable.Field, def int64) int64 {
	if !m.present(f) {
		return def
	}

	return int64(m.loadSlot(f))
}

// GetUInt32 returns the value of a uint32 field, or def when the field is unset.
func GetUInt32(m *Message, f *minitable.Field, def uint32) uint32 {
	if !m.present(f) {
		return def
	}

	return uint32(m.loadSlot(f))
}

// GetUInt64 returns the value of a uint64 field, or def when the field is unset.
func GetUInt64(m *Message, f *minitable.Field, def uint64) uint64 {
	if !m.present(f) {
		return def
	}

	return m.loadSlot(f)
}

// GetFloat returns the value of a float field, or def when the field is unset.
func GetFloat(m *Message, f *minitable.Field, def float32) float32 {
	if !m.present(f) {
		return def
	}

	return math.Float32frombits(uint32(m.loadSlot(f)))
}

// GetDouble returns the value of a double field, or def when the field is unset.
func GetDouble(m *Message, f *minitable.Field, def float64) float64 {
	if !m.present(f) {
		return def
	}

	return math.Float64frombits(m.loadSlot(f))
}

// GetEnum returns the number stored in an enum field, or def when the field is unset.
func GetEnum(m *Message, f *minitable.Field, def int32) int32 {
	return GetInt32(m, f, def)
}

// GetString returns the value of a string field, or def when the field is unset.
func GetString(m *Message, f *minitable.Field, def string) string {
	if !m.present(f) {
		return def
	}

	return string(m.a.Block(arena.Ref(m.loadSlot(f))))
}

// GetBytes returns the value of a bytes field, or def when the field is unset.
// The result aliases arena memory and must not be modified.
func GetBytes(m *Message, f *minitable.Field, def []byte) []byte {
	if !m.present(f) {
		return def
	}

	return m.a.Block(arena.Ref(m.loadSlot(f)))
}

// SetBool stores v in a bool field and marks it present.
func SetBool(m *Message, f *minitable.Field, v bool) {
	m.setBits(f, ValueOfBool(v).bits)
}

// SetInt32 stores v in an int32 field and marks it present.
func SetInt32(m *Message, f *minitable.Field, v int32) {
	m.setBits(f, uint64(uint32(v)))
}

// SetInt64 stores v in an int64 field and marks it present.
func SetInt64(m *Message, f *minitable.Field, v int64) {
	m.setBits(f, uint64(v))
}

// SetUInt32 stores v in a uint32 field and marks it present.
func SetUInt32(m *Message, f *minitable.Field, v uint32) {
	m.setBits(f, uint64(v))
}

// SetUInt64 stores v in a uint64 field and marks it present.
func SetUInt64(m *Message, f *minitable.Field, v uint64) {
	m.setBits(f, v)
}

// SetFloat stores v in a float field and marks it present.
func SetFloat(m *Message, f *minitable.Field, v float32) {
	m.setBits(f, uint64(math.Float32bits(v)))
}

// SetDouble stores v in a double field and marks it present.
func SetDouble(m *Message, f *minitable.Field, v float64) {
	m.setBits(f, math.Float64bits(v))
}

// SetEnum stores the enum number v and marks the field present.
// Open enum semantics apply: numbers are not validated.
func SetEnum(m *Message, f *minitable.Field, v int32) {
	SetInt32(m, f, v)
}

// SetString copies s into the message's arena and stores it.
func SetString(m *Message, f *minitable.Field, s string) error {
	return SetBytes(m, f, []byte(s))
}

// SetBytes copies b into the message's arena and stores it.
func SetBytes(m *Message, f *minitable.Field, b []byte) error {
	ref, err := newBytes(m.a, b)
	if err != nil {
		return err
	}
	m.setBits(f, uint64(ref))

	return nil
}

// GetField returns the raw value stored in a field without applying defaults.
// For repeated and map fields the value carries the container handle.
// An inactive oneof member yields the zero Value.
func GetField(m *Message, f *minitable.Field) Value {
	if f.InOneof() && !m.present(f) {
		return Value{}
	}

	v := Value{bits: m.loadSlot(f)}
	if f.IsRef() {
		v.a = m.a
	}

	return v
}

// SetField stores v in a singular field and marks it present. It never allocates.
//
// The value's bits are written with the field's declared width; no type check
// is done. String, bytes and message fields require an arena-backed value.
func SetField(m *Message, f *minitable.Field, v Value) {
	if f.IsRef() {
		if v.a == nil && len(v.raw) > 0 {
			panic("message: SetField requires an arena-backed value for " + f.Type().String() + " fields")
		}
		adopt(m.a, v.a)
	}
	m.setBits(f, v.bits)
}

func (m *Message) setBits(f *minitable.Field, bits uint64) {
	if f.InOneof() {
		// Members share one slot; narrower members must not leave stale high bytes.
		clear(m.data[f.Offset() : f.Offset()+oneofSlotSize])
	}
	m.storeSlot(f, bits)
	m.markPresent(f)
}

// WhichOneof returns the active member of the oneof f belongs to, or nil.
func WhichOneof(m *Message, mt *minitable.MiniTable, f *minitable.Field) *minitable.Field {
	off, ok := f.OneofCaseOffset()
	if !ok {
		return nil
	}

	number := m.oneofCase(off)
	if number == 0 {
		return nil
	}

	return mt.FieldByNumber(number)
}

// GetMessage returns the sub-message stored in a message field, or nil when unset.
func GetMessage(m *Message, f *minitable.Field) *Message {
	if !m.present(f) {
		return nil
	}

	return messageAt(m.a, arena.Ref(m.loadSlot(f)))
}

// MutableMessage returns the sub-message of a message field, allocating an
// empty one from a when the field is unset. A nil a allocates from m's arena.
func MutableMessage(m *Message, f *minitable.Field, a *arena.Arena) (*Message, error) {
	if sub := GetMessage(m, f); sub != nil {
		return sub, nil
	}
	if a == nil {
		a = m.a
	}

	sub, err := New(f.SubMessage(), a)
	if err != nil {
		return nil, err
	}
	SetMessage(m, f, sub)

	return sub, nil
}

// SetMessage attaches sub to a message field. sub's arena is fused with m's.
// A nil sub clears the field.
func SetMessage(m *Message, f *minitable.Field, sub *Message) {
	if sub == nil {
		ClearField(m, f)
		return
	}
	adopt(m.a, sub.a)
	m.setBits(f, uint64(sub.ref))
}
