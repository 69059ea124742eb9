package pbbridge

import (
	"fmt"

	"github.com/rs/zerolog"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/dynamicpb"

	"github.com/arloliu/minipb/errs"
	"github.com/arloliu/minipb/internal/options"
	"github.com/arloliu/minipb/message"
	"github.com/arloliu/minipb/minitable"
)

// Loader builds mini tables from protobuf descriptors.
type Loader struct {
	cfg      *config
	tables   map[protoreflect.FullName]*minitable.MiniTable
	exts     map[protoreflect.FullName]*minitable.Extension
	extTypes map[*minitable.Extension]protoreflect.ExtensionType
	defaults map[*minitable.Field]message.Value
}

// NewLoader creates an empty loader.
func NewLoader(opts ...Option) *Loader {
	cfg := &config{logger: zerolog.Nop()}
	_ = options.Apply(cfg, opts...)

	return &Loader{
		cfg:      cfg,
		tables:   make(map[protoreflect.FullName]*minitable.MiniTable),
		exts:     make(map[protoreflect.FullName]*minitable.Extension),
		extTypes: make(map[*minitable.Extension]protoreflect.ExtensionType),
		defaults: make(map[*minitable.Field]message.Value),
	}
}

// Load returns the mini table of md, building it and every message type it
// references on first use.
//
// Returns an error wrapping errs.ErrUnsupportedKind or errs.ErrInvalidSchema
// when a field cannot be represented.
func (l *Loader) Load(md protoreflect.MessageDescriptor) (*minitable.MiniTable, error) {
	if mt, ok := l.tables[md.FullName()]; ok {
		return mt, nil
	}

	b := minitable.NewBuilder(string(md.FullName()))
	fields := md.Fields()
	for i := range fields.Len() {
		fd := fields.Get(i)
		if od := fd.ContainingOneof(); od != nil && !od.IsSynthetic() {
			continue
		}
		def, err := fieldDef(fd)
		if err != nil {
			return nil, err
		}
		b.Add(def)
	}

	oneofs := md.Oneofs()
	for i := range oneofs.Len() {
		od := oneofs.Get(i)
		if od.IsSynthetic() {
			continue
		}
		members := od.Fields()
		defs := make([]minitable.FieldDef, 0, members.Len())
		for j := range members.Len() {
			def, err := fieldDef(members.Get(j))
			if err != nil {
				return nil, err
			}
			defs = append(defs, def)
		}
		b.AddOneof(string(od.Name()), defs...)
	}

	mt, err := b.Build()
	if err != nil {
		return nil, err
	}
	// Cached before linking so recursive references resolve to this table.
	l.tables[md.FullName()] = mt
	for i := range fields.Len() {
		fd := fields.Get(i)
		l.recordDefault(mt.FieldByNumber(int32(fd.Number())), fd)
	}

	for i := range fields.Len() {
		if err := l.link(mt, fields.Get(i)); err != nil {
			delete(l.tables, md.FullName())
			return nil, err
		}
	}

	l.cfg.logger.Debug().
		Str("message", mt.Name()).
		Int("size", mt.Size()).
		Int("fields", mt.NumFields()).
		Msg("mini table built")

	return mt, nil
}

func (l *Loader) link(mt *minitable.MiniTable, fd protoreflect.FieldDescriptor) error {
	sub := subMessage(fd)
	if sub == nil {
		return nil
	}

	st, err := l.Load(sub)
	if err != nil {
		return err
	}

	return mt.SetSubMessage(int32(fd.Number()), st)
}

// Extension returns the extension built from xd, loading its extendee and
// message type on first use.
func (l *Loader) Extension(xd protoreflect.ExtensionDescriptor) (*minitable.Extension, error) {
	if ext, ok := l.exts[xd.FullName()]; ok {
		return ext, nil
	}

	extendee, err := l.Load(xd.ContainingMessage())
	if err != nil {
		return nil, err
	}
	def, err := fieldDef(xd)
	if err != nil {
		return nil, err
	}
	ext, err := minitable.NewExtension(extendee, def)
	if err != nil {
		return nil, err
	}
	if xd.Message() != nil {
		sub, err := l.Load(xd.Message())
		if err != nil {
			return nil, err
		}
		if err := ext.SetSubMessage(sub); err != nil {
			return nil, err
		}
	}

	l.exts[xd.FullName()] = ext
	l.extTypes[ext] = extensionType(xd)
	l.recordDefault(ext.Field(), xd)

	return ext, nil
}

// Default returns the declared default of a field of a table or extension
// built by this loader, such as a proto2 [default = ...] option. String and
// bytes defaults are unowned values.
//
// Returns false when the field declares no default; callers then use the
// zero value.
//
// Example:
//
//	def, _ := l.Default(f)
//	limit := message.GetInt32(m, f, def.Int32())
func (l *Loader) Default(f *minitable.Field) (message.Value, bool) {
	v, ok := l.defaults[f]
	return v, ok
}

func (l *Loader) recordDefault(f *minitable.Field, fd protoreflect.FieldDescriptor) {
	if f == nil || !fd.HasDefault() {
		return
	}

	v := fd.Default()
	if fd.Kind() == protoreflect.BytesKind {
		v = protoreflect.ValueOfBytes(append([]byte(nil), v.Bytes()...))
	}
	l.defaults[f] = scalarIn(fd, v)
}

// Registry loads every given extension into a new registry.
func (l *Loader) Registry(xds ...protoreflect.ExtensionDescriptor) (*minitable.ExtensionRegistry, error) {
	reg := minitable.NewExtensionRegistry()
	for _, xd := range xds {
		ext, err := l.Extension(xd)
		if err != nil {
			return nil, err
		}
		if err := reg.Add(ext); err != nil {
			return nil, err
		}
	}

	return reg, nil
}

// FileRegistry loads every extension declared in fd, including those nested
// in its messages.
func (l *Loader) FileRegistry(fd protoreflect.FileDescriptor) (*minitable.ExtensionRegistry, error) {
	var xds []protoreflect.ExtensionDescriptor
	xds = appendExtensions(xds, fd.Extensions())

	var walk func(protoreflect.MessageDescriptors)
	walk = func(mds protoreflect.MessageDescriptors) {
		for i := range mds.Len() {
			md := mds.Get(i)
			xds = appendExtensions(xds, md.Extensions())
			walk(md.Messages())
		}
	}
	walk(fd.Messages())

	return l.Registry(xds...)
}

func appendExtensions(dst []protoreflect.ExtensionDescriptor, xds protoreflect.ExtensionDescriptors) []protoreflect.ExtensionDescriptor {
	for i := range xds.Len() {
		dst = append(dst, xds.Get(i))
	}

	return dst
}

func extensionType(xd protoreflect.ExtensionDescriptor) protoreflect.ExtensionType {
	if xtd, ok := xd.(protoreflect.ExtensionTypeDescriptor); ok {
		return xtd.Type()
	}

	return dynamicpb.NewExtensionType(xd)
}

func subMessage(fd protoreflect.FieldDescriptor) protoreflect.MessageDescriptor {
	if fd.IsMap() {
		return fd.MapValue().Message()
	}

	return fd.Message()
}

func fieldDef(fd protoreflect.FieldDescriptor) (minitable.FieldDef, error) {
	def := minitable.FieldDef{
		Number: int32(fd.Number()),
		Name:   string(fd.Name()),
	}

	switch {
	case fd.IsMap():
		key, err := fieldType(fd.MapKey())
		if err != nil {
			return def, err
		}
		value, err := fieldType(fd.MapValue())
		if err != nil {
			return def, err
		}
		def.Mode, def.Key, def.Value = minitable.ModeMap, key, value

		return def, nil
	case fd.IsList():
		def.Mode = minitable.ModeArray
	default:
		def.Mode = minitable.ModeScalar
		def.Implicit = !fd.HasPresence()
	}

	typ, err := fieldType(fd)
	if err != nil {
		return def, err
	}
	def.Type = typ

	return def, nil
}

func fieldType(fd protoreflect.FieldDescriptor) (minitable.FieldType, error) {
	switch fd.Kind() {
	case protoreflect.BoolKind:
		return minitable.TypeBool, nil
	case protoreflect.Int32Kind, protoreflect.Sint32Kind, protoreflect.Sfixed32Kind:
		return minitable.TypeInt32, nil
	case protoreflect.Int64Kind, protoreflect.Sint64Kind, protoreflect.Sfixed64Kind:
		return minitable.TypeInt64, nil
	case protoreflect.Uint32Kind, protoreflect.Fixed32Kind:
		return minitable.TypeUInt32, nil
	case protoreflect.Uint64Kind, protoreflect.Fixed64Kind:
		return minitable.TypeUInt64, nil
	case protoreflect.FloatKind:
		return minitable.TypeFloat, nil
	case protoreflect.DoubleKind:
		return minitable.TypeDouble, nil
	case protoreflect.EnumKind:
		return minitable.TypeEnum, nil
	case protoreflect.StringKind:
		return minitable.TypeString, nil
	case protoreflect.BytesKind:
		return minitable.TypeBytes, nil
	case protoreflect.MessageKind, protoreflect.GroupKind:
		return minitable.TypeMessage, nil
	default:
		return 0, fmt.Errorf("%w: %s has kind %s", errs.ErrUnsupportedKind, fd.FullName(), fd.Kind())
	}
}
