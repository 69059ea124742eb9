package minitable

import (
	"fmt"

	"github.com/arloliu/minipb/errs"
)

// Extension describes an extension field of some extendee message type.
//
// Extension values are not stored at a fixed offset; they live in the
// extension set referenced from the message header.
type Extension struct {
	field    Field
	extendee *MiniTable
}

// NewExtension creates an extension of extendee described by def.
// Extensions may be singular or repeated but not maps, and singular
// extensions always track presence.
func NewExtension(extendee *MiniTable, def FieldDef) (*Extension, error) {
	if extendee == nil {
		return nil, fmt.Errorf("%w: extension %d has no extendee", errs.ErrInvalidSchema, def.Number)
	}
	if def.Mode == ModeMap {
		return nil, fmt.Errorf("%w: %s: map extension %d", errs.ErrInvalidSchema, extendee.name, def.Number)
	}
	if def.Number <= 0 || def.Number > MaxFieldNumber {
		return nil, fmt.Errorf("%w: %s: extension number %d out of range", errs.ErrInvalidSchema, extendee.name, def.Number)
	}

	def.Implicit = false
	f, err := newField(extendee.name, def, false)
	if err != nil {
		return nil, err
	}
	f.oneof = -1

	return &Extension{field: f, extendee: extendee}, nil
}

// Field returns the field description of the extension. Its offset is meaningless.
func (e *Extension) Field() *Field { return &e.field }

// Number returns the extension field number.
func (e *Extension) Number() int32 { return e.field.number }

// Extendee returns the table of the extended message type.
func (e *Extension) Extendee() *MiniTable { return e.extendee }

// SetSubMessage links a message-typed extension to its table.
func (e *Extension) SetSubMessage(sub *MiniTable) error {
	if sub == nil {
		return fmt.Errorf("%w: nil sub-message for extension %d", errs.ErrInvalidSchema, e.field.number)
	}

	return linkSub(e.extendee.name, &e.field, sub)
}
