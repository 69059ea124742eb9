package minitable

type (
	// FieldType is the logical type of a field or of the elements of a repeated field.
	FieldType uint8
	// Mode tells whether a field is singular, repeated or a map.
	Mode uint8
	// PresenceKind is the presence-tracking mechanism of a field.
	PresenceKind uint8
)

const (
	TypeBool    FieldType = 0x1 // TypeBool is a 1-byte boolean.
	TypeInt32   FieldType = 0x2 // TypeInt32 covers int32, sint32 and sfixed32.
	TypeInt64   FieldType = 0x3 // TypeInt64 covers int64, sint64 and sfixed64.
	TypeUInt32  FieldType = 0x4 // TypeUInt32 covers uint32 and fixed32.
	TypeUInt64  FieldType = 0x5 // TypeUInt64 covers uint64 and fixed64.
	TypeFloat   FieldType = 0x6 // TypeFloat is an IEEE 754 binary32.
	TypeDouble  FieldType = 0x7 // TypeDouble is an IEEE 754 binary64.
	TypeEnum    FieldType = 0x8 // TypeEnum is an open enum stored as int32.
	TypeString  FieldType = 0x9 // TypeString is stored as a handle to arena bytes.
	TypeBytes   FieldType = 0xA // TypeBytes is stored as a handle to arena bytes.
	TypeMessage FieldType = 0xB // TypeMessage is stored as a handle to a sub-message block.

	ModeScalar Mode = 0x1 // ModeScalar is a singular field.
	ModeArray  Mode = 0x2 // ModeArray is a repeated field.
	ModeMap    Mode = 0x3 // ModeMap is a map field.

	PresenceImplicit PresenceKind = 0x1 // PresenceImplicit fields have no presence bit; zero means unset.
	PresenceHasbit   PresenceKind = 0x2 // PresenceHasbit fields track presence with a bit in the hasbit region.
	PresenceOneof    PresenceKind = 0x3 // PresenceOneof fields are present when their oneof case equals their number.
	PresenceNone     PresenceKind = 0x4 // PresenceNone is used by repeated and map fields.
)

const (
	// HeaderSize is the size of the block header holding the extension set handle.
	HeaderSize = 8
	// RefSize is the size of a slot that stores an arena handle.
	RefSize = 8
	// MaxFieldNumber is the largest valid protobuf field number.
	MaxFieldNumber = 1<<29 - 1
)

// Size returns the number of bytes one value of the type occupies in a slot
// or array element. String, bytes and message values are stored as handles.
func (t FieldType) Size() int {
	switch t {
	case TypeBool:
		return 1
	case TypeInt32, TypeUInt32, TypeFloat, TypeEnum:
		return 4
	case TypeInt64, TypeUInt64, TypeDouble:
		return 8
	case TypeString, TypeBytes, TypeMessage:
		return RefSize
	default:
		return 0
	}
}

// IsValid reports whether t is a known field type.
func (t FieldType) IsValid() bool {
	return t >= TypeBool && t <= TypeMessage
}

// IsRef reports whether values of the type are stored as arena handles.
func (t FieldType) IsRef() bool {
	return t == TypeString || t == TypeBytes || t == TypeMessage
}

// IsMapKey reports whether t may be used as a map key type.
func (t FieldType) IsMapKey() bool {
	switch t {
	case TypeBool, TypeInt32, TypeInt64, TypeUInt32, TypeUInt64, TypeString:
		return true
	default:
		return false
	}
}

func (t FieldType) String() string {
	switch t {
	case TypeBool:
		return "bool"
	case TypeInt32:
		return "int32"
	case TypeInt64:
		return "int64"
	case TypeUInt32:
		return "uint32"
	case TypeUInt64:
		return "uint64"
	case TypeFloat:
		return "float"
	case TypeDouble:
		return "double"
	case TypeEnum:
		return "enum"
	case TypeString:
		return "string"
	case TypeBytes:
		return "bytes"
	case TypeMessage:
		return "message"
	default:
		return "Unknown"
	}
}

// ParseFieldType returns the FieldType named s, as printed by FieldType.String.
func ParseFieldType(s string) (FieldType, bool) {
	for t := TypeBool; t <= TypeMessage; t++ {
		if t.String() == s {
			return t, true
		}
	}

	return 0, false
}

func (m Mode) String() string {
	switch m {
	case ModeScalar:
		return "scalar"
	case ModeArray:
		return "array"
	case ModeMap:
		return "map"
	default:
		return "Unknown"
	}
}

func (p PresenceKind) String() string {
	switch p {
	case PresenceImplicit:
		return "implicit"
	case PresenceHasbit:
		return "hasbit"
	case PresenceOneof:
		return "oneof"
	case PresenceNone:
		return "none"
	default:
		return "Unknown"
	}
}
