package message

import (
	"github.com/arloliu/minipb/arena"
	"github.com/arloliu/minipb/minitable"
)

// DeepCopy makes dst a deep copy of src. Both must be of type mt.
//
// dst is cleared first. Strings, sub-messages, arrays and maps of the copy are
// allocated from a, which is fused into dst's arena when the two differ; a nil
// a allocates from dst's arena. The copy shares no mutable state with src.
// On error dst is left cleared or partially copied.
func DeepCopy(dst, src *Message, mt *minitable.MiniTable, a *arena.Arena) error {
	if dst.ref == src.ref {
		return nil
	}
	if a == nil {
		a = dst.a
	}
	adopt(dst.a, a)

	size := mt.Size()
	copy(dst.data[:size], src.data[:size])
	dst.setExtensionRef(arena.NullRef)

	// dst must never hold a handle of src, even after a failed clone.
	for f := range mt.Fields() {
		if f.IsRef() && (!f.InOneof() || src.present(f)) {
			dst.storeSlot(f, 0)
		}
	}

	for f := range mt.Fields() {
		if !f.IsRef() || (f.InOneof() && !src.present(f)) {
			continue
		}

		bits := src.loadSlot(f)
		if bits == 0 {
			continue
		}
		cloned, err := cloneSlot(src.a, f, bits, a)
		if err != nil {
			return err
		}
		dst.storeSlot(f, cloned)
	}

	return copyExtensions(dst, src, a)
}

// DeepClone returns a deep copy of m allocated from a.
func DeepClone(m *Message, mt *minitable.MiniTable, a *arena.Arena) (*Message, error) {
	out, err := New(mt, a)
	if err != nil {
		return nil, err
	}
	if err := DeepCopy(out, m, mt, a); err != nil {
		return nil, err
	}

	return out, nil
}

func copyExtensions(dst, src *Message, a *arena.Arena) error {
	set := src.extensions()
	if set == nil {
		return nil
	}

	for _, e := range set.entries {
		cloned, err := cloneExtension(src.a, e.ext, e.bits, a)
		if err != nil {
			return err
		}
		if err := dst.setExtensionBits(e.ext, cloned, a); err != nil {
			return err
		}
	}

	return nil
}

// cloneSlot deep-copies the contents of a ref-typed field slot into a and
// returns the bits of the copy. ctx resolves bits.
func cloneSlot(ctx *arena.Arena, f *minitable.Field, bits uint64, a *arena.Arena) (uint64, error) {
	switch f.Mode() {
	case minitable.ModeArray:
		return cloneArray(arrayAt(ctx, arena.Ref(bits), f.Type()), f.SubMessage(), a)
	case minitable.ModeMap:
		return cloneMap(mapAt(ctx, arena.Ref(bits), f), f, a)
	default:
		return cloneElem(ctx, f.Type(), f.SubMessage(), bits, a)
	}
}

func cloneExtension(ctx *arena.Arena, ext *minitable.Extension, bits uint64, a *arena.Arena) (uint64, error) {
	f := ext.Field()
	if f.IsArray() {
		return cloneArray(arrayAt(ctx, arena.Ref(bits), f.Type()), f.SubMessage(), a)
	}

	return cloneElem(ctx, f.Type(), f.SubMessage(), bits, a)
}

// cloneElem deep-copies a single value of type typ.
func cloneElem(ctx *arena.Arena, typ minitable.FieldType, sub *minitable.MiniTable, bits uint64, a *arena.Arena) (uint64, error) {
	if bits == 0 {
		return 0, nil
	}

	switch typ {
	case minitable.TypeString, minitable.TypeBytes:
		ref, err := newBytes(a, blockOf(ctx, bits))
		return uint64(ref), err
	case minitable.TypeMessage:
		m, err := DeepClone(messageAt(ctx, arena.Ref(bits)), sub, a)
		if err != nil {
			return 0, err
		}

		return uint64(m.ref), nil
	default:
		return bits, nil
	}
}

func cloneArray(src *Array, sub *minitable.MiniTable, a *arena.Arena) (uint64, error) {
	if src == nil {
		return 0, nil
	}

	out, err := newArray(a, src.typ)
	if err != nil {
		return 0, err
	}
	if err := out.appendFrom(src, sub, a); err != nil {
		return 0, err
	}

	return uint64(out.ref), nil
}

func cloneMap(src *Map, f *minitable.Field, a *arena.Arena) (uint64, error) {
	if src == nil {
		return 0, nil
	}

	out, err := newMap(a, f)
	if err != nil {
		return 0, err
	}
	if err := out.mergeFrom(src, a); err != nil {
		return 0, err
	}

	return uint64(out.ref), nil
}

// appendFrom appends deep copies of the elements of src, allocating from a
// (the array's arena when nil). src may be arr itself; only its elements at
// call time are appended.
func (arr *Array) appendFrom(src *Array, sub *minitable.MiniTable, a *arena.Arena) error {
	n := src.Len()
	if n == 0 {
		return nil
	}
	if a == nil {
		a = arr.a
	}
	if err := arr.reserve(arr.rep.size+n, a); err != nil {
		return err
	}

	es := arr.elemSize()
	for i := range n {
		bits, err := cloneElem(src.a, src.typ, sub, src.Get(i).bits, a)
		if err != nil {
			return err
		}
		store(arr.rep.data, arr.rep.size*es, es, bits)
		arr.rep.size++
	}

	return nil
}

// mergeFrom stores deep copies of the entries of src, replacing existing keys.
// New data is allocated from a, or from the map's arena when a is nil.
func (mp *Map) mergeFrom(src *Map, a *arena.Arena) error {
	if a == nil {
		a = mp.a
	}
	keys, release := src.sortedKeys()
	defer release()

	val := mp.value
	for _, k := range keys {
		bits, err := cloneElem(src.a, val.Type(), val.SubMessage(), src.rep.entries[k], a)
		if err != nil {
			return err
		}
		if err := mp.setBits(k, bits, a); err != nil {
			return err
		}
	}

	return nil
}
