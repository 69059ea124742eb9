package minitable

// Field is one entry of a MiniTable.
//
// Fields are owned by their table and must be handled by pointer; a *Field is
// only valid together with the table (or extension) it came from.
type Field struct {
	number int32
	name   string
	typ    FieldType
	mode   Mode
	offset uint32

	// presence > 0: absolute hasbit index + 1.
	// presence < 0: -(oneof case offset + 1).
	// presence == 0: implicit presence, or none for repeated and map fields.
	presence int32
	oneof    int // index into MiniTable.oneofs, -1 if none

	sub *MiniTable
}

// Number returns the field number.
func (f *Field) Number() int32 { return f.number }

// Name returns the field name; it may be empty.
func (f *Field) Name() string { return f.name }

// Type returns the logical type of the field, or of its elements for repeated fields.
// For map fields it is TypeMessage: the value type is found on MapValue.
func (f *Field) Type() FieldType { return f.typ }

// Mode returns whether the field is singular, repeated or a map.
func (f *Field) Mode() Mode { return f.mode }

// Offset returns the byte offset of the field slot within the message block.
func (f *Field) Offset() uint32 { return f.offset }

// SlotSize returns the number of bytes the field occupies at Offset.
func (f *Field) SlotSize() int {
	if f.mode != ModeScalar {
		return RefSize
	}

	return f.typ.Size()
}

// IsScalar reports whether the field is singular.
func (f *Field) IsScalar() bool { return f.mode == ModeScalar }

// IsArray reports whether the field is repeated.
func (f *Field) IsArray() bool { return f.mode == ModeArray }

// IsMap reports whether the field is a map.
func (f *Field) IsMap() bool { return f.mode == ModeMap }

// IsRef reports whether the slot stores an arena handle rather than an inline value.
func (f *Field) IsRef() bool { return f.mode != ModeScalar || f.typ.IsRef() }

// Presence returns the presence-tracking mechanism of the field.
func (f *Field) Presence() PresenceKind {
	switch {
	case f.mode != ModeScalar:
		return PresenceNone
	case f.presence > 0:
		return PresenceHasbit
	case f.presence < 0:
		return PresenceOneof
	default:
		return PresenceImplicit
	}
}

// HasPresence reports whether the field tracks presence explicitly.
func (f *Field) HasPresence() bool {
	return f.mode == ModeScalar && f.presence != 0
}

// Hasbit returns the absolute bit index of the field's hasbit within the block.
// The bit lives in byte index/8 under mask 1<<(index%8).
func (f *Field) Hasbit() (uint32, bool) {
	if f.presence <= 0 {
		return 0, false
	}

	return uint32(f.presence - 1), true
}

// OneofCaseOffset returns the offset of the case word of the field's oneof.
func (f *Field) OneofCaseOffset() (uint32, bool) {
	if f.presence >= 0 {
		return 0, false
	}

	return uint32(-f.presence - 1), true
}

// InOneof reports whether the field is a member of a oneof.
func (f *Field) InOneof() bool { return f.presence < 0 }

// SubMessage returns the table of a message-typed field or of the elements of
// a repeated message field. For map fields it returns the map entry table.
// It returns nil for fields that are not linked yet.
func (f *Field) SubMessage() *MiniTable { return f.sub }

// MapKey returns the key field of a map's entry table.
func (f *Field) MapKey() *Field {
	if f.mode != ModeMap || f.sub == nil {
		return nil
	}

	return &f.sub.fields[0]
}

// MapValue returns the value field of a map's entry table.
func (f *Field) MapValue() *Field {
	if f.mode != ModeMap || f.sub == nil {
		return nil
	}

	return &f.sub.fields[1]
}
