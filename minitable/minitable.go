package minitable

import (
	"fmt"
	"iter"
	"sort"

	"github.com/arloliu/minipb/errs"
)

// MiniTable is the immutable layout description of one message type.
type MiniTable struct {
	name       string
	size       uint32
	hasbitSize uint32 // bytes of hasbit region following the header
	fields     []Field
	oneofs     []Oneof
	mapEntry   bool
}

// Oneof describes a group of fields of which at most one is present.
type Oneof struct {
	Name       string
	CaseOffset uint32  // Offset of the uint32 word holding the active member number.
	DataOffset uint32  // Offset of the 8-byte slot shared by all members.
	Numbers    []int32 // Member field numbers in ascending order.
}

// Name returns the full name of the message type.
func (t *MiniTable) Name() string { return t.name }

// Size returns the size in bytes of a message block of this type.
func (t *MiniTable) Size() int { return int(t.size) }

// HasbitBytes returns the size of the hasbit region.
func (t *MiniTable) HasbitBytes() int { return int(t.hasbitSize) }

// NumFields returns the number of fields.
func (t *MiniTable) NumFields() int { return len(t.fields) }

// IsMapEntry reports whether the table describes the entries of a map field.
func (t *MiniTable) IsMapEntry() bool { return t.mapEntry }

// Field returns the i-th field in field number order.
func (t *MiniTable) Field(i int) *Field { return &t.fields[i] }

// Fields iterates over the fields in field number order.
func (t *MiniTable) Fields() iter.Seq[*Field] {
	return func(yield func(*Field) bool) {
		for i := range t.fields {
			if !yield(&t.fields[i]) {
				return
			}
		}
	}
}

// FieldByNumber returns the field with the given number, or nil.
func (t *MiniTable) FieldByNumber(number int32) *Field {
	i := sort.Search(len(t.fields), func(i int) bool { return t.fields[i].number >= number })
	if i < len(t.fields) && t.fields[i].number == number {
		return &t.fields[i]
	}

	return nil
}

// FieldByName returns the field with the given name, or nil.
func (t *MiniTable) FieldByName(name string) *Field {
	for i := range t.fields {
		if t.fields[i].name == name {
			return &t.fields[i]
		}
	}

	return nil
}

// Oneofs returns the oneofs of the table in declaration order.
func (t *MiniTable) Oneofs() []Oneof {
	out := make([]Oneof, len(t.oneofs))
	copy(out, t.oneofs)

	return out
}

// OneofOf returns the oneof the field belongs to.
func (t *MiniTable) OneofOf(f *Field) (Oneof, bool) {
	if f.oneof < 0 || f.oneof >= len(t.oneofs) {
		return Oneof{}, false
	}

	return t.oneofs[f.oneof], true
}

// SetSubMessage links the message-typed field with the given number to sub.
//
// For repeated message fields it sets the element table, for maps with message
// values it sets the value table of the entry. It must only be called while the
// schema is being constructed, before any message of the type is allocated.
func (t *MiniTable) SetSubMessage(number int32, sub *MiniTable) error {
	f := t.FieldByNumber(number)
	if f == nil {
		return fmt.Errorf("%w: %s has no field %d", errs.ErrInvalidSchema, t.name, number)
	}
	if sub == nil {
		return fmt.Errorf("%w: nil sub-message for %s.%d", errs.ErrInvalidSchema, t.name, number)
	}

	return linkSub(t.name, f, sub)
}

func linkSub(owner string, f *Field, sub *MiniTable) error {
	if f.mode == ModeMap {
		value := f.MapValue()
		if value.typ != TypeMessage {
			return fmt.Errorf("%w: map %s.%d does not hold messages", errs.ErrInvalidSchema, owner, f.number)
		}
		value.sub = sub

		return nil
	}

	if f.typ != TypeMessage {
		return fmt.Errorf("%w: %s.%d is a %s field, not a message", errs.ErrInvalidSchema, owner, f.number, f.typ)
	}
	f.sub = sub

	return nil
}
