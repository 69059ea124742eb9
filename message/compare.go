package message

import (
	"bytes"
	"math"

	"github.com/arloliu/minipb/arena"
	"github.com/arloliu/minipb/minitable"
)

// CompareOption is a bit set tuning IsEqual.
type CompareOption uint32

const (
	// CompareUnsetAsDefault treats an absent field as equal to a present field
	// holding the zero value (or an empty message).
	CompareUnsetAsDefault CompareOption = 1 << iota
	// CompareBitExactFloats compares float and double values by bit pattern:
	// -0 and 0 differ and identical NaNs are equal.
	CompareBitExactFloats
)

// IsEqual reports whether m1 and m2, both of type mt, hold the same contents.
//
// Presence matters unless CompareUnsetAsDefault is given. Absent and empty
// repeated or map fields are always equal. Float fields compare numerically by
// default, so NaN is unequal to itself unless both sides are the same message.
// Extensions set on either side are compared as well.
func IsEqual(m1, m2 *Message, mt *minitable.MiniTable, opts CompareOption) bool {
	return messageEqual(m1, m2, mt, opts)
}

func messageEqual(m1, m2 *Message, mt *minitable.MiniTable, opts CompareOption) bool {
	if m1 == nil && m2 == nil {
		return true
	}
	if m1 != nil && m2 != nil && m1.ref == m2.ref {
		return true
	}
	if opts&CompareUnsetAsDefault == 0 && (m1 == nil || m2 == nil) {
		return false
	}

	for f := range mt.Fields() {
		if !fieldEqual(m1, m2, f, opts) {
			return false
		}
	}

	return extensionsEqual(m1, m2, opts)
}

func fieldEqual(m1, m2 *Message, f *minitable.Field, opts CompareOption) bool {
	switch f.Mode() {
	case minitable.ModeArray:
		return arrayEqual(fieldArray(m1, f), fieldArray(m2, f), f.SubMessage(), opts)
	case minitable.ModeMap:
		return mapEqual(fieldMap(m1, f), fieldMap(m2, f), f, opts)
	}

	b1, p1 := fieldBits(m1, f)
	b2, p2 := fieldBits(m2, f)
	if p1 != p2 && opts&CompareUnsetAsDefault == 0 {
		return false
	}
	if !p1 && !p2 {
		return true
	}

	return valueEqual(f.Type(), f.SubMessage(), arenaOf(m1), b1, arenaOf(m2), b2, opts)
}

// fieldBits returns the stored bits of a singular field and whether it is
// present. Implicit-presence fields count as present; absent fields read as zero.
func fieldBits(m *Message, f *minitable.Field) (uint64, bool) {
	if m == nil {
		return 0, !f.HasPresence()
	}
	if !f.HasPresence() {
		return m.loadSlot(f), true
	}
	if !m.present(f) {
		return 0, false
	}

	return m.loadSlot(f), true
}

func fieldArray(m *Message, f *minitable.Field) *Array {
	if m == nil {
		return nil
	}

	return GetArray(m, f)
}

func fieldMap(m *Message, f *minitable.Field) *Map {
	if m == nil {
		return nil
	}

	return GetMap(m, f)
}

func arenaOf(m *Message) *arena.Arena {
	if m == nil {
		return nil
	}

	return m.a
}

func valueEqual(typ minitable.FieldType, sub *minitable.MiniTable, a1 *arena.Arena, b1 uint64, a2 *arena.Arena, b2 uint64, opts CompareOption) bool {
	switch typ {
	case minitable.TypeMessage:
		return messageEqual(messageAt(a1, arena.Ref(b1)), messageAt(a2, arena.Ref(b2)), sub, opts)
	case minitable.TypeString, minitable.TypeBytes:
		return bytes.Equal(blockOf(a1, b1), blockOf(a2, b2))
	case minitable.TypeFloat:
		if opts&CompareBitExactFloats != 0 {
			return uint32(b1) == uint32(b2)
		}

		return math.Float32frombits(uint32(b1)) == math.Float32frombits(uint32(b2))
	case minitable.TypeDouble:
		if opts&CompareBitExactFloats != 0 {
			return b1 == b2
		}

		return math.Float64frombits(b1) == math.Float64frombits(b2)
	case minitable.TypeBool:
		return (b1 != 0) == (b2 != 0)
	default:
		return truncate(typ, b1) == truncate(typ, b2)
	}
}

// truncate drops bits beyond the storage width of typ.
func truncate(typ minitable.FieldType, bits uint64) uint64 {
	if typ.Size() == 4 {
		return uint64(uint32(bits))
	}

	return bits
}

func blockOf(a *arena.Arena, bits uint64) []byte {
	if bits == 0 {
		return nil
	}

	return a.Block(arena.Ref(bits))
}

func arrayEqual(x, y *Array, sub *minitable.MiniTable, opts CompareOption) bool {
	if x.Len() != y.Len() {
		return false
	}

	for i := range x.Len() {
		if !valueEqual(x.typ, sub, x.a, x.Get(i).bits, y.a, y.Get(i).bits, opts) {
			return false
		}
	}

	return true
}

func mapEqual(x, y *Map, f *minitable.Field, opts CompareOption) bool {
	if x.Len() != y.Len() {
		return false
	}
	if x.Len() == 0 {
		return true
	}

	val := f.MapValue()
	for k, xb := range x.rep.entries {
		yb, ok := y.rep.entries[k]
		if !ok {
			return false
		}
		if !valueEqual(val.Type(), val.SubMessage(), x.a, xb, y.a, yb, opts) {
			return false
		}
	}

	return true
}

func extensionsEqual(m1, m2 *Message, opts CompareOption) bool {
	var e1, e2 []extensionEntry
	if m1 != nil {
		if set := m1.extensions(); set != nil {
			e1 = set.entries
		}
	}
	if m2 != nil {
		if set := m2.extensions(); set != nil {
			e2 = set.entries
		}
	}

	for len(e1) > 0 || len(e2) > 0 {
		switch {
		case len(e2) == 0 || (len(e1) > 0 && e1[0].ext.Number() < e2[0].ext.Number()):
			if !extensionEqual(e1[0].ext, m1, e1[0].bits, true, m2, 0, false, opts) {
				return false
			}
			e1 = e1[1:]
		case len(e1) == 0 || e2[0].ext.Number() < e1[0].ext.Number():
			if !extensionEqual(e2[0].ext, m1, 0, false, m2, e2[0].bits, true, opts) {
				return false
			}
			e2 = e2[1:]
		default:
			if !extensionEqual(e1[0].ext, m1, e1[0].bits, true, m2, e2[0].bits, true, opts) {
				return false
			}
			e1, e2 = e1[1:], e2[1:]
		}
	}

	return true
}

func extensionEqual(ext *minitable.Extension, m1 *Message, b1 uint64, p1 bool, m2 *Message, b2 uint64, p2 bool, opts CompareOption) bool {
	f := ext.Field()
	a1, a2 := arenaOf(m1), arenaOf(m2)

	if f.IsArray() {
		return arrayEqual(arrayAt(a1, arena.Ref(b1), f.Type()), arrayAt(a2, arena.Ref(b2), f.Type()), f.SubMessage(), opts)
	}
	if p1 != p2 && opts&CompareUnsetAsDefault == 0 {
		return false
	}

	return valueEqual(f.Type(), f.SubMessage(), a1, b1, a2, b2, opts)
}
