package message

import (
	"github.com/arloliu/minipb/arena"
	"github.com/arloliu/minipb/minitable"
)

// MergeFrom merges the contents of src into dst. Both must be of type mt.
//
// Singular scalars and strings present in src overwrite dst; implicit-presence
// fields holding zero are skipped. Sub-messages present in both are merged
// recursively, otherwise the src sub-message is cloned. Repeated fields are
// concatenated and map entries of src replace those of dst with the same key.
// Extensions of src are merged only when reg resolves them for mt; a nil reg
// drops them.
//
// New data is allocated from a, fused into dst's arena when different; a nil
// a allocates from dst's arena. On error dst is left partially merged.
func MergeFrom(dst, src *Message, mt *minitable.MiniTable, reg *minitable.ExtensionRegistry, a *arena.Arena) error {
	if a == nil {
		a = dst.a
	}
	adopt(dst.a, a)

	if dst.ref == src.ref {
		snapshot, err := DeepClone(src, mt, a)
		if err != nil {
			return err
		}
		src = snapshot
	}

	for f := range mt.Fields() {
		if err := mergeField(dst, src, f, reg, a); err != nil {
			return err
		}
	}

	return mergeExtensions(dst, src, mt, reg, a)
}

func mergeField(dst, src *Message, f *minitable.Field, reg *minitable.ExtensionRegistry, a *arena.Arena) error {
	switch f.Mode() {
	case minitable.ModeArray:
		srcArr := GetArray(src, f)
		if srcArr.Len() == 0 {
			return nil
		}
		dstArr, err := MutableArray(dst, f, a)
		if err != nil {
			return err
		}

		return dstArr.appendFrom(srcArr, f.SubMessage(), a)
	case minitable.ModeMap:
		srcMap := GetMap(src, f)
		if srcMap.Len() == 0 {
			return nil
		}
		dstMap, err := MutableMap(dst, f, a)
		if err != nil {
			return err
		}

		return dstMap.mergeFrom(srcMap, a)
	}

	bits := src.loadSlot(f)
	if f.HasPresence() {
		if !src.present(f) {
			return nil
		}
	} else if truncate(f.Type(), bits) == 0 {
		return nil
	}

	if f.Type() == minitable.TypeMessage {
		srcSub := messageAt(src.a, arena.Ref(bits))
		if srcSub == nil {
			return nil
		}
		if dstSub := GetMessage(dst, f); dstSub != nil {
			return MergeFrom(dstSub, srcSub, f.SubMessage(), reg, a)
		}
	}

	cloned, err := cloneElem(src.a, f.Type(), f.SubMessage(), bits, a)
	if err != nil {
		return err
	}
	dst.setBits(f, cloned)

	return nil
}

func mergeExtensions(dst, src *Message, mt *minitable.MiniTable, reg *minitable.ExtensionRegistry, a *arena.Arena) error {
	set := src.extensions()
	if set == nil || reg == nil {
		return nil
	}

	for _, e := range set.entries {
		ext := reg.Lookup(mt, e.ext.Number())
		if ext == nil {
			continue
		}
		if err := mergeExtension(dst, src, ext, e.bits, reg, a); err != nil {
			return err
		}
	}

	return nil
}

func mergeExtension(dst, src *Message, ext *minitable.Extension, bits uint64, reg *minitable.ExtensionRegistry, a *arena.Arena) error {
	f := ext.Field()

	if f.IsArray() {
		srcArr := arrayAt(src.a, arena.Ref(bits), f.Type())
		if srcArr.Len() == 0 {
			return nil
		}
		dstArr, err := MutableExtensionArray(dst, ext, a)
		if err != nil {
			return err
		}

		return dstArr.appendFrom(srcArr, f.SubMessage(), a)
	}

	if f.Type() == minitable.TypeMessage {
		if dstBits, ok := dst.extensionBits(ext); ok && dstBits != 0 {
			return MergeFrom(messageAt(dst.a, arena.Ref(dstBits)), messageAt(src.a, arena.Ref(bits)), f.SubMessage(), reg, a)
		}
	}

	cloned, err := cloneElem(src.a, f.Type(), f.SubMessage(), bits, a)
	if err != nil {
		return err
	}

	return dst.setExtensionBits(ext, cloned, a)
}
