package message

import (
	"fmt"
	"sort"

	"github.com/arloliu/minipb/arena"
	"github.com/arloliu/minipb/minitable"
)

// extensionSetSize is charged to the arena for each extension set, plus
// extensionEntrySize per entry.
const (
	extensionSetSize   = 24
	extensionEntrySize = 16
)

type extensionEntry struct {
	ext  *minitable.Extension
	bits uint64
}

// extensionSet holds the extensions set on one message, sorted by number.
type extensionSet struct {
	entries []extensionEntry
}

func (s *extensionSet) find(number int32) (int, bool) {
	i := sort.Search(len(s.entries), func(i int) bool {
		return s.entries[i].ext.Number() >= number
	})

	return i, i < len(s.entries) && s.entries[i].ext.Number() == number
}

func (m *Message) extensions() *extensionSet {
	r := m.extensionRef()
	if r.IsNull() {
		return nil
	}
	set, ok := m.a.Object(r).(*extensionSet)
	if !ok {
		panic(fmt.Sprintf("message: %s is not an extension set", r))
	}

	return set
}

// mutableExtensions returns the extension set of m, registering a new one
// in a when missing. A nil a means m's arena.
func (m *Message) mutableExtensions(a *arena.Arena) (*extensionSet, error) {
	if set := m.extensions(); set != nil {
		return set, nil
	}
	if a == nil {
		a = m.a
	}

	set := &extensionSet{}
	ref, err := a.Register(set, extensionSetSize)
	if err != nil {
		return nil, err
	}
	adopt(m.a, a)
	m.setExtensionRef(ref)

	return set, nil
}

func (m *Message) extensionBits(ext *minitable.Extension) (uint64, bool) {
	set := m.extensions()
	if set == nil {
		return 0, false
	}
	i, ok := set.find(ext.Number())
	if !ok {
		return 0, false
	}

	return set.entries[i].bits, true
}

// setExtensionBits stores bits for ext. New bookkeeping is charged to a,
// or to m's arena when a is nil.
func (m *Message) setExtensionBits(ext *minitable.Extension, bits uint64, a *arena.Arena) error {
	if a == nil {
		a = m.a
	}
	set, err := m.mutableExtensions(a)
	if err != nil {
		return err
	}

	i, ok := set.find(ext.Number())
	if ok {
		set.entries[i] = extensionEntry{ext: ext, bits: bits}
		return nil
	}
	if err := a.Reserve(extensionEntrySize); err != nil {
		return err
	}
	set.entries = append(set.entries, extensionEntry{})
	copy(set.entries[i+1:], set.entries[i:])
	set.entries[i] = extensionEntry{ext: ext, bits: bits}

	return nil
}

// HasExtension reports whether ext is set on m.
func HasExtension(m *Message, ext *minitable.Extension) bool {
	_, ok := m.extensionBits(ext)
	return ok
}

// GetExtension returns the value of a singular extension and whether it is set.
// For repeated extensions the value carries the array handle; use GetExtensionArray.
func GetExtension(m *Message, ext *minitable.Extension) (Value, bool) {
	bits, ok := m.extensionBits(ext)
	if !ok {
		return Value{}, false
	}

	return extensionValue(m.a, ext, bits), true
}

// SetExtension stores v in a singular extension of m and marks it present.
// Unowned string and bytes values are copied into m's arena.
func SetExtension(m *Message, ext *minitable.Extension, v Value) error {
	f := ext.Field()
	if !f.IsScalar() {
		return fmt.Errorf("message: extension %d is repeated", ext.Number())
	}

	bits, err := ownBits(m.a, f.IsRef(), v)
	if err != nil {
		return err
	}

	return m.setExtensionBits(ext, bits, nil)
}

// ClearExtension removes ext from m.
func ClearExtension(m *Message, ext *minitable.Extension) {
	set := m.extensions()
	if set == nil {
		return
	}
	if i, ok := set.find(ext.Number()); ok {
		set.entries = append(set.entries[:i], set.entries[i+1:]...)
	}
}

// ExtensionCount returns the number of extensions set on m.
func ExtensionCount(m *Message) int {
	set := m.extensions()
	if set == nil {
		return 0
	}

	return len(set.entries)
}

// RangeExtensions calls fn for each extension set on m in ascending number
// order until fn returns false.
func RangeExtensions(m *Message, fn func(ext *minitable.Extension, v Value) bool) {
	set := m.extensions()
	if set == nil {
		return
	}

	for _, e := range set.entries {
		if !fn(e.ext, extensionValue(m.a, e.ext, e.bits)) {
			return
		}
	}
}

// MutableExtensionMessage returns the message stored in a message-typed
// extension, allocating an empty one from a when unset. A nil a allocates
// from m's arena.
func MutableExtensionMessage(m *Message, ext *minitable.Extension, a *arena.Arena) (*Message, error) {
	if bits, ok := m.extensionBits(ext); ok {
		return messageAt(m.a, arena.Ref(bits)), nil
	}
	if a == nil {
		a = m.a
	}

	sub, err := New(ext.Field().SubMessage(), a)
	if err != nil {
		return nil, err
	}
	adopt(m.a, a)
	if err := m.setExtensionBits(ext, uint64(sub.ref), a); err != nil {
		return nil, err
	}

	return sub, nil
}

// GetExtensionArray returns the storage of a repeated extension, or nil.
func GetExtensionArray(m *Message, ext *minitable.Extension) *Array {
	bits, ok := m.extensionBits(ext)
	if !ok {
		return nil
	}

	return arrayAt(m.a, arena.Ref(bits), ext.Field().Type())
}

// MutableExtensionArray returns the storage of a repeated extension,
// allocating it from a when missing. A nil a allocates from m's arena.
func MutableExtensionArray(m *Message, ext *minitable.Extension, a *arena.Arena) (*Array, error) {
	if !ext.Field().IsArray() {
		return nil, fmt.Errorf("message: extension %d is not repeated", ext.Number())
	}
	if arr := GetExtensionArray(m, ext); arr != nil {
		return arr, nil
	}
	if a == nil {
		a = m.a
	}

	arr, err := newArray(a, ext.Field().Type())
	if err != nil {
		return nil, err
	}
	adopt(m.a, a)
	if err := m.setExtensionBits(ext, uint64(arr.ref), a); err != nil {
		return nil, err
	}

	return arr, nil
}

func extensionValue(a *arena.Arena, ext *minitable.Extension, bits uint64) Value {
	v := Value{bits: bits}
	if ext.Field().IsRef() {
		v.a = a
	}

	return v
}
