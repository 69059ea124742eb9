package minitable

import (
	"fmt"
	"sort"

	"github.com/arloliu/minipb/errs"
)

// FieldDef is the input description of a field given to a Builder.
type FieldDef struct {
	Number int32
	Name   string
	// Type is the field type. For maps it is ignored in favour of Key and Value.
	Type FieldType
	// Mode defaults to ModeScalar when zero.
	Mode Mode
	// Implicit selects implicit (proto3-style) presence for singular scalar fields.
	// Message fields and oneof members always track presence explicitly.
	Implicit bool
	// Sub is the table of a message field, of repeated message elements, or of
	// message-typed map values. It may be left nil and linked later with
	// MiniTable.SetSubMessage.
	Sub *MiniTable
	// Key and Value are the key and value types of a map field.
	Key   FieldType
	Value FieldType
}

type oneofDef struct {
	name    string
	members []int32
}

// Builder assembles a MiniTable and computes its layout.
//
// A Builder is not reusable after Build.
type Builder struct {
	name   string
	defs   []FieldDef
	oneofs []oneofDef
	member map[int32]int // field number -> oneof index
}

// NewBuilder creates a builder for the message type with the given full name.
func NewBuilder(name string) *Builder {
	return &Builder{
		name:   name,
		member: make(map[int32]int),
	}
}

// Add appends a field definition.
func (b *Builder) Add(defs ...FieldDef) *Builder {
	b.defs = append(b.defs, defs...)

	return b
}

// AddOneof appends a oneof and its member fields. Members must be singular.
func (b *Builder) AddOneof(name string, defs ...FieldDef) *Builder {
	idx := len(b.oneofs)
	od := oneofDef{name: name}
	for _, def := range defs {
		od.members = append(od.members, def.Number)
		b.member[def.Number] = idx
	}
	b.oneofs = append(b.oneofs, od)
	b.defs = append(b.defs, defs...)

	return b
}

// Build validates the definitions and computes the layout.
//
// Returns an error wrapping errs.ErrInvalidSchema when a definition is malformed.
func (b *Builder) Build() (*MiniTable, error) {
	t := &MiniTable{name: b.name}
	if err := b.buildFields(t); err != nil {
		return nil, err
	}
	b.layout(t)

	return t, nil
}

func (b *Builder) buildFields(t *MiniTable) error {
	seen := make(map[int32]bool, len(b.defs))
	names := make(map[string]bool, len(b.defs))

	t.fields = make([]Field, 0, len(b.defs))
	for _, def := range b.defs {
		if def.Number <= 0 || def.Number > MaxFieldNumber {
			return fmt.Errorf("%w: %s: field number %d out of range", errs.ErrInvalidSchema, b.name, def.Number)
		}
		if seen[def.Number] {
			return fmt.Errorf("%w: %s: duplicate field number %d", errs.ErrInvalidSchema, b.name, def.Number)
		}
		seen[def.Number] = true

		if def.Name != "" {
			if names[def.Name] {
				return fmt.Errorf("%w: %s: duplicate field name %q", errs.ErrInvalidSchema, b.name, def.Name)
			}
			names[def.Name] = true
		}

		oneof, inOneof := b.member[def.Number]
		f, err := newField(b.name, def, inOneof)
		if err != nil {
			return err
		}
		f.oneof = -1
		if inOneof {
			f.oneof = oneof
		}
		t.fields = append(t.fields, f)
	}

	sort.Slice(t.fields, func(i, j int) bool { return t.fields[i].number < t.fields[j].number })

	return nil
}

func newField(owner string, def FieldDef, inOneof bool) (Field, error) {
	mode := def.Mode
	if mode == 0 {
		mode = ModeScalar
	}

	f := Field{
		number: def.Number,
		name:   def.Name,
		typ:    def.Type,
		mode:   mode,
		sub:    def.Sub,
	}

	switch mode {
	case ModeScalar:
		if !def.Type.IsValid() {
			return Field{}, fmt.Errorf("%w: %s.%d: invalid type %d", errs.ErrInvalidSchema, owner, def.Number, def.Type)
		}
		if def.Implicit && (def.Type == TypeMessage || inOneof) {
			return Field{}, fmt.Errorf("%w: %s.%d: %s field cannot have implicit presence",
				errs.ErrInvalidSchema, owner, def.Number, def.Type)
		}
	case ModeArray:
		if !def.Type.IsValid() {
			return Field{}, fmt.Errorf("%w: %s.%d: invalid type %d", errs.ErrInvalidSchema, owner, def.Number, def.Type)
		}
		if inOneof {
			return Field{}, fmt.Errorf("%w: %s.%d: repeated field in oneof", errs.ErrInvalidSchema, owner, def.Number)
		}
	case ModeMap:
		if inOneof {
			return Field{}, fmt.Errorf("%w: %s.%d: map field in oneof", errs.ErrInvalidSchema, owner, def.Number)
		}
		entry, err := newMapEntry(owner, def)
		if err != nil {
			return Field{}, err
		}
		f.typ = TypeMessage
		f.sub = entry
	default:
		return Field{}, fmt.Errorf("%w: %s.%d: invalid mode %d", errs.ErrInvalidSchema, owner, def.Number, mode)
	}

	if mode != ModeMap && def.Type != TypeMessage && def.Sub != nil {
		return Field{}, fmt.Errorf("%w: %s.%d: sub-message on %s field", errs.ErrInvalidSchema, owner, def.Number, def.Type)
	}

	// presence is placeholder-marked here and resolved to offsets in layout.
	if mode == ModeScalar && !def.Implicit {
		f.presence = 1
	}

	return f, nil
}

func newMapEntry(owner string, def FieldDef) (*MiniTable, error) {
	if !def.Key.IsMapKey() {
		return nil, fmt.Errorf("%w: %s.%d: invalid map key type %s", errs.ErrInvalidSchema, owner, def.Number, def.Key)
	}
	if !def.Value.IsValid() {
		return nil, fmt.Errorf("%w: %s.%d: invalid map value type %d", errs.ErrInvalidSchema, owner, def.Number, def.Value)
	}

	eb := NewBuilder(fmt.Sprintf("%s.%sEntry", owner, def.Name))
	eb.Add(FieldDef{Number: 1, Name: "key", Type: def.Key, Implicit: true})
	value := FieldDef{Number: 2, Name: "value", Type: def.Value, Implicit: def.Value != TypeMessage}
	if def.Value == TypeMessage {
		value.Sub = def.Sub
	}
	eb.Add(value)

	entry, err := eb.Build()
	if err != nil {
		return nil, err
	}
	entry.mapEntry = true

	return entry, nil
}

// slotGroup is one storage slot: a field or all members of a oneof.
type slotGroup struct {
	size   int
	number int32 // smallest field number, for stable ordering
	fields []int // indexes into t.fields
	oneof  int
}

func (b *Builder) layout(t *MiniTable) {
	offset := uint32(HeaderSize)

	// hasbits, in field number order
	hasbits := uint32(0)
	for i := range t.fields {
		f := &t.fields[i]
		if f.presence > 0 && f.oneof < 0 {
			f.presence = int32(HeaderSize*8+hasbits) + 1
			hasbits++
		}
	}
	t.hasbitSize = (hasbits + 7) / 8
	offset += t.hasbitSize

	// oneof case words
	offset = alignTo(offset, 4)
	t.oneofs = make([]Oneof, len(b.oneofs))
	for i, od := range b.oneofs {
		members := append([]int32(nil), od.members...)
		sort.Slice(members, func(x, y int) bool { return members[x] < members[y] })
		t.oneofs[i] = Oneof{Name: od.name, CaseOffset: offset, Numbers: members}
		offset += 4
	}

	// slots
	groups := make([]slotGroup, 0, len(t.fields))
	oneofGroup := make(map[int]int, len(t.oneofs))
	for i := range t.fields {
		f := &t.fields[i]
		if f.oneof >= 0 {
			if gi, ok := oneofGroup[f.oneof]; ok {
				groups[gi].fields = append(groups[gi].fields, i)
				continue
			}
			oneofGroup[f.oneof] = len(groups)
			groups = append(groups, slotGroup{size: 8, number: f.number, fields: []int{i}, oneof: f.oneof})

			continue
		}
		groups = append(groups, slotGroup{size: f.SlotSize(), number: f.number, fields: []int{i}, oneof: -1})
	}

	sort.SliceStable(groups, func(i, j int) bool {
		if groups[i].size != groups[j].size {
			return groups[i].size > groups[j].size
		}

		return groups[i].number < groups[j].number
	})

	for _, g := range groups {
		offset = alignTo(offset, uint32(g.size))
		for _, fi := range g.fields {
			t.fields[fi].offset = offset
		}
		if g.oneof >= 0 {
			o := &t.oneofs[g.oneof]
			o.DataOffset = offset
			for _, fi := range g.fields {
				t.fields[fi].presence = -int32(o.CaseOffset) - 1
			}
		}
		offset += uint32(g.size)
	}

	t.size = alignTo(offset, 8)
}

func alignTo(n, align uint32) uint32 {
	if align <= 1 {
		return n
	}

	return (n + align - 1) / align * align
}
