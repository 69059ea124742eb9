package pbbridge

import (
	"fmt"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protoreflect"

	"github.com/arloliu/minipb/arena"
	"github.com/arloliu/minipb/errs"
	"github.com/arloliu/minipb/message"
	"github.com/arloliu/minipb/minitable"
)

// FromProto copies src into a new engine message allocated from a.
//
// Extensions set on src are converted through the loader. Unknown fields are
// not carried over.
func (l *Loader) FromProto(src proto.Message, a *arena.Arena) (*message.Message, error) {
	pm := src.ProtoReflect()
	mt, err := l.Load(pm.Descriptor())
	if err != nil {
		return nil, err
	}

	m, err := message.New(mt, a)
	if err != nil {
		return nil, err
	}
	if err := l.copyIn(m, mt, pm); err != nil {
		return nil, err
	}

	return m, nil
}

// ToProto copies m into dst. m must have been allocated against the table the
// loader builds for dst's descriptor. dst is not reset first, so set fields
// of m overwrite dst and repeated fields append.
func (l *Loader) ToProto(m *message.Message, dst proto.Message) error {
	pm := dst.ProtoReflect()
	mt, err := l.Load(pm.Descriptor())
	if err != nil {
		return err
	}

	return l.copyOut(pm, m, mt)
}

func (l *Loader) copyIn(m *message.Message, mt *minitable.MiniTable, pm protoreflect.Message) error {
	var err error
	pm.Range(func(fd protoreflect.FieldDescriptor, v protoreflect.Value) bool {
		if fd.IsExtension() {
			err = l.extensionIn(m, fd, v)
		} else {
			err = l.fieldIn(m, mt.FieldByNumber(int32(fd.Number())), fd, v)
		}

		return err == nil
	})

	return err
}

func (l *Loader) fieldIn(m *message.Message, f *minitable.Field, fd protoreflect.FieldDescriptor, v protoreflect.Value) error {
	if f == nil {
		return fmt.Errorf("%w: field %s", errs.ErrSchemaNotFound, fd.FullName())
	}

	switch {
	case fd.IsMap():
		return l.mapIn(m, f, fd, v.Map())
	case fd.IsList():
		arr, err := message.MutableArray(m, f, nil)
		if err != nil {
			return err
		}

		return l.listIn(arr, f.SubMessage(), fd, v.List())
	case fd.Message() != nil:
		sub, err := message.MutableMessage(m, f, nil)
		if err != nil {
			return err
		}

		return l.copyIn(sub, f.SubMessage(), v.Message())
	case fd.Kind() == protoreflect.StringKind:
		return message.SetString(m, f, v.String())
	case fd.Kind() == protoreflect.BytesKind:
		return message.SetBytes(m, f, v.Bytes())
	default:
		message.SetField(m, f, scalarIn(fd, v))
		return nil
	}
}

func (l *Loader) listIn(arr *message.Array, sub *minitable.MiniTable, fd protoreflect.FieldDescriptor, list protoreflect.List) error {
	for i := range list.Len() {
		if fd.Message() != nil {
			elem, err := arr.AppendMessage(sub)
			if err != nil {
				return err
			}
			if err := l.copyIn(elem, sub, list.Get(i).Message()); err != nil {
				return err
			}

			continue
		}
		if err := arr.Append(scalarIn(fd, list.Get(i))); err != nil {
			return err
		}
	}

	return nil
}

func (l *Loader) mapIn(m *message.Message, f *minitable.Field, fd protoreflect.FieldDescriptor, pmap protoreflect.Map) error {
	mp, err := message.MutableMap(m, f, nil)
	if err != nil {
		return err
	}

	keyFD, valFD := fd.MapKey(), fd.MapValue()
	valTable := f.MapValue().SubMessage()
	pmap.Range(func(k protoreflect.MapKey, v protoreflect.Value) bool {
		val := scalarIn(valFD, v)
		if valFD.Message() != nil {
			var sub *message.Message
			if sub, err = message.New(valTable, m.Arena()); err != nil {
				return false
			}
			if err = l.copyIn(sub, valTable, v.Message()); err != nil {
				return false
			}
			val = message.ValueOfMessage(sub)
		}
		err = mp.Set(scalarIn(keyFD, k.Value()), val)

		return err == nil
	})

	return err
}

func (l *Loader) extensionIn(m *message.Message, fd protoreflect.FieldDescriptor, v protoreflect.Value) error {
	ext, err := l.Extension(fd)
	if err != nil {
		return err
	}
	f := ext.Field()

	switch {
	case fd.IsList():
		arr, err := message.MutableExtensionArray(m, ext, nil)
		if err != nil {
			return err
		}

		return l.listIn(arr, f.SubMessage(), fd, v.List())
	case fd.Message() != nil:
		sub, err := message.MutableExtensionMessage(m, ext, nil)
		if err != nil {
			return err
		}

		return l.copyIn(sub, f.SubMessage(), v.Message())
	default:
		return message.SetExtension(m, ext, scalarIn(fd, v))
	}
}

// scalarIn converts a non-message protoreflect value. Strings and bytes come
// back unowned.
func scalarIn(fd protoreflect.FieldDescriptor, v protoreflect.Value) message.Value {
	switch fd.Kind() {
	case protoreflect.BoolKind:
		return message.ValueOfBool(v.Bool())
	case protoreflect.Int32Kind, protoreflect.Sint32Kind, protoreflect.Sfixed32Kind:
		return message.ValueOfInt32(int32(v.Int()))
	case protoreflect.Int64Kind, protoreflect.Sint64Kind, protoreflect.Sfixed64Kind:
		return message.ValueOfInt64(v.Int())
	case protoreflect.Uint32Kind, protoreflect.Fixed32Kind:
		return message.ValueOfUInt32(uint32(v.Uint()))
	case protoreflect.Uint64Kind, protoreflect.Fixed64Kind:
		return message.ValueOfUInt64(v.Uint())
	case protoreflect.FloatKind:
		return message.ValueOfFloat(float32(v.Float()))
	case protoreflect.DoubleKind:
		return message.ValueOfDouble(v.Float())
	case protoreflect.EnumKind:
		return message.ValueOfEnum(int32(v.Enum()))
	case protoreflect.StringKind:
		return message.ValueOfString(v.String())
	case protoreflect.BytesKind:
		return message.ValueOfBytes(v.Bytes())
	default:
		return message.Value{}
	}
}

func (l *Loader) copyOut(pm protoreflect.Message, m *message.Message, mt *minitable.MiniTable) error {
	fields := pm.Descriptor().Fields()
	for i := range fields.Len() {
		fd := fields.Get(i)
		f := mt.FieldByNumber(int32(fd.Number()))
		if f == nil {
			return fmt.Errorf("%w: field %s", errs.ErrSchemaNotFound, fd.FullName())
		}
		if err := l.fieldOut(pm, fd, m, f); err != nil {
			return err
		}
	}

	var err error
	message.RangeExtensions(m, func(ext *minitable.Extension, v message.Value) bool {
		err = l.extensionOut(pm, m, ext, v)
		return err == nil
	})

	return err
}

func (l *Loader) fieldOut(pm protoreflect.Message, fd protoreflect.FieldDescriptor, m *message.Message, f *minitable.Field) error {
	switch {
	case fd.IsMap():
		mp := message.GetMap(m, f)
		if mp.Len() == 0 {
			return nil
		}

		return l.mapOut(pm.Mutable(fd).Map(), fd, f, mp)
	case fd.IsList():
		arr := message.GetArray(m, f)
		if arr.Len() == 0 {
			return nil
		}

		return l.listOut(pm.Mutable(fd).List(), fd, f.SubMessage(), arr)
	}

	if f.HasPresence() && !message.Has(m, f) {
		return nil
	}
	v := message.GetField(m, f)
	if !f.HasPresence() && v.Bits() == 0 {
		return nil
	}

	if fd.Message() != nil {
		return l.copyOut(pm.Mutable(fd).Message(), v.Message(), f.SubMessage())
	}
	pm.Set(fd, scalarOut(fd, v))

	return nil
}

func (l *Loader) listOut(list protoreflect.List, fd protoreflect.FieldDescriptor, sub *minitable.MiniTable, arr *message.Array) error {
	for i := range arr.Len() {
		if fd.Message() == nil {
			list.Append(scalarOut(fd, arr.Get(i)))
			continue
		}

		elem := list.NewElement()
		if err := l.copyOut(elem.Message(), arr.Get(i).Message(), sub); err != nil {
			return err
		}
		list.Append(elem)
	}

	return nil
}

func (l *Loader) mapOut(pmap protoreflect.Map, fd protoreflect.FieldDescriptor, f *minitable.Field, mp *message.Map) error {
	keyFD, valFD := fd.MapKey(), fd.MapValue()
	valTable := f.MapValue().SubMessage()

	var err error
	mp.Range(func(k, v message.Value) bool {
		key := scalarOut(keyFD, k).MapKey()
		if valFD.Message() == nil {
			pmap.Set(key, scalarOut(valFD, v))
			return true
		}

		nv := pmap.NewValue()
		if sub := v.Message(); sub != nil {
			if err = l.copyOut(nv.Message(), sub, valTable); err != nil {
				return false
			}
		}
		pmap.Set(key, nv)

		return true
	})

	return err
}

func (l *Loader) extensionOut(pm protoreflect.Message, m *message.Message, ext *minitable.Extension, v message.Value) error {
	xt, ok := l.extTypes[ext]
	if !ok {
		return fmt.Errorf("%w: extension %d of %s was not loaded by this loader",
			errs.ErrSchemaNotFound, ext.Number(), ext.Extendee().Name())
	}
	fd := xt.TypeDescriptor()
	f := ext.Field()

	switch {
	case fd.IsList():
		arr := message.GetExtensionArray(m, ext)
		if arr.Len() == 0 {
			return nil
		}

		return l.listOut(pm.Mutable(fd).List(), fd, f.SubMessage(), arr)
	case fd.Message() != nil:
		return l.copyOut(pm.Mutable(fd).Message(), v.Message(), f.SubMessage())
	default:
		pm.Set(fd, scalarOut(fd, v))
		return nil
	}
}

// scalarOut converts a non-message engine value. Bytes are copied out of the arena.
func scalarOut(fd protoreflect.FieldDescriptor, v message.Value) protoreflect.Value {
	switch fd.Kind() {
	case protoreflect.BoolKind:
		return protoreflect.ValueOfBool(v.Bool())
	case protoreflect.Int32Kind, protoreflect.Sint32Kind, protoreflect.Sfixed32Kind:
		return protoreflect.ValueOfInt32(v.Int32())
	case protoreflect.Int64Kind, protoreflect.Sint64Kind, protoreflect.Sfixed64Kind:
		return protoreflect.ValueOfInt64(v.Int64())
	case protoreflect.Uint32Kind, protoreflect.Fixed32Kind:
		return protoreflect.ValueOfUint32(v.UInt32())
	case protoreflect.Uint64Kind, protoreflect.Fixed64Kind:
		return protoreflect.ValueOfUint64(v.UInt64())
	case protoreflect.FloatKind:
		return protoreflect.ValueOfFloat32(v.Float())
	case protoreflect.DoubleKind:
		return protoreflect.ValueOfFloat64(v.Double())
	case protoreflect.EnumKind:
		return protoreflect.ValueOfEnum(protoreflect.EnumNumber(v.Enum()))
	case protoreflect.StringKind:
		return protoreflect.ValueOfString(v.String())
	case protoreflect.BytesKind:
		return protoreflect.ValueOfBytes(append([]byte{}, v.Bytes()...))
	default:
		return protoreflect.Value{}
	}
}
