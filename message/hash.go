package message

import (
	"math"

	"github.com/arloliu/minipb/arena"
	"github.com/arloliu/minipb/internal/hash"
	"github.com/arloliu/minipb/internal/pool"
	"github.com/arloliu/minipb/minitable"
)

// Hash returns a 64-bit digest of m's contents.
//
// Messages that are IsEqual with no options hash to the same value, provided
// they contain no NaN. Absent fields, implicit zero values and empty repeated
// or map fields do not contribute. Map entries are visited in key order and
// extensions in number order, so the digest does not depend on insertion order.
func Hash(m *Message, mt *minitable.MiniTable) uint64 {
	d := pool.GetDigest()
	defer pool.PutDigest(d)

	w := hash.NewWriter(d)
	hashMessage(w, m, mt)

	return w.Sum64()
}

func hashMessage(w *hash.Writer, m *Message, mt *minitable.MiniTable) {
	w.Tag(hash.TagMessage)
	w.Uint64(hash.ID(mt.Name()))

	for f := range mt.Fields() {
		hashField(w, m, f)
	}
	RangeExtensions(m, func(ext *minitable.Extension, v Value) bool {
		hashExtension(w, m, ext, v.bits)
		return true
	})

	w.Tag(hash.TagEnd)
}

func hashField(w *hash.Writer, m *Message, f *minitable.Field) {
	switch f.Mode() {
	case minitable.ModeArray:
		hashArray(w, f.Number(), GetArray(m, f), f.SubMessage())
		return
	case minitable.ModeMap:
		hashMap(w, f, GetMap(m, f))
		return
	}

	if f.HasPresence() && !m.present(f) {
		return
	}
	bits := m.loadSlot(f)
	if !f.HasPresence() && isZero(f.Type(), m.a, bits) {
		return
	}

	w.Tag(hash.TagField)
	w.Uint64(uint64(f.Number()))
	hashValue(w, f.Type(), f.SubMessage(), m.a, bits)
}

func hashExtension(w *hash.Writer, m *Message, ext *minitable.Extension, bits uint64) {
	f := ext.Field()
	if f.IsArray() {
		hashArray(w, f.Number(), arrayAt(m.a, arena.Ref(bits), f.Type()), f.SubMessage())
		return
	}

	w.Tag(hash.TagExtension)
	w.Uint64(uint64(f.Number()))
	hashValue(w, f.Type(), f.SubMessage(), m.a, bits)
}

func hashArray(w *hash.Writer, number int32, arr *Array, sub *minitable.MiniTable) {
	if arr.Len() == 0 {
		return
	}

	w.Tag(hash.TagArray)
	w.Uint64(uint64(number))
	w.Uint64(uint64(arr.Len()))
	for i := range arr.Len() {
		hashValue(w, arr.typ, sub, arr.a, arr.Get(i).bits)
	}
}

func hashMap(w *hash.Writer, f *minitable.Field, mp *Map) {
	if mp.Len() == 0 {
		return
	}

	w.Tag(hash.TagMap)
	w.Uint64(uint64(f.Number()))
	w.Uint64(uint64(mp.Len()))

	keys, release := mp.sortedKeys()
	defer release()

	val := f.MapValue()
	for _, k := range keys {
		w.Bytes([]byte(k))
		hashValue(w, val.Type(), val.SubMessage(), mp.a, mp.rep.entries[k])
	}
}

func hashValue(w *hash.Writer, typ minitable.FieldType, sub *minitable.MiniTable, a *arena.Arena, bits uint64) {
	switch typ {
	case minitable.TypeMessage:
		if sm := messageAt(a, arena.Ref(bits)); sm != nil {
			hashMessage(w, sm, sub)
		} else {
			w.Tag(hash.TagEnd)
		}
	case minitable.TypeString, minitable.TypeBytes:
		w.Bytes(blockOf(a, bits))
	case minitable.TypeFloat:
		w.Float64(float64(math.Float32frombits(uint32(bits))))
	case minitable.TypeDouble:
		w.Float64(math.Float64frombits(bits))
	case minitable.TypeBool:
		if bits != 0 {
			w.Uint64(1)
		} else {
			w.Uint64(0)
		}
	default:
		w.Uint64(truncate(typ, bits))
	}
}

// isZero reports whether an implicit-presence slot holds a value equal to zero.
func isZero(typ minitable.FieldType, a *arena.Arena, bits uint64) bool {
	switch typ {
	case minitable.TypeFloat:
		return math.Float32frombits(uint32(bits)) == 0
	case minitable.TypeDouble:
		return math.Float64frombits(bits) == 0
	case minitable.TypeString, minitable.TypeBytes:
		return len(blockOf(a, bits)) == 0
	default:
		return truncate(typ, bits) == 0
	}
}
