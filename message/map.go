package message

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"sort"

	"github.com/arloliu/minipb/arena"
	"github.com/arloliu/minipb/internal/pool"
	"github.com/arloliu/minipb/minitable"
)

const (
	// mapHeaderSize is charged to the arena for each map representation.
	mapHeaderSize = 48
	// mapEntryOverhead is charged on top of the key length for each inserted entry.
	mapEntryOverhead = 16
)

// mapRep stores entries keyed by the encoded map key; values are raw slots.
type mapRep struct {
	entries map[string]uint64
}

// Map is a handle to the storage of a map field.
type Map struct {
	rep   *mapRep
	a     *arena.Arena
	ref   arena.Ref
	key   *minitable.Field
	value *minitable.Field
}

func newMap(a *arena.Arena, f *minitable.Field) (*Map, error) {
	rep := &mapRep{entries: make(map[string]uint64)}
	ref, err := a.Register(rep, mapHeaderSize)
	if err != nil {
		return nil, err
	}

	return &Map{rep: rep, a: a, ref: ref, key: f.MapKey(), value: f.MapValue()}, nil
}

func mapAt(ctx *arena.Arena, r arena.Ref, f *minitable.Field) *Map {
	if r.IsNull() {
		return nil
	}
	owner := ctx.Owner(r)
	rep, ok := owner.Object(r).(*mapRep)
	if !ok {
		panic(fmt.Sprintf("message: %s is not a map", r))
	}

	return &Map{rep: rep, a: owner, ref: r, key: f.MapKey(), value: f.MapValue()}
}

// GetMap returns the storage of a map field, or nil if none was allocated.
func GetMap(m *Message, f *minitable.Field) *Map {
	return mapAt(m.a, arena.Ref(m.loadSlot(f)), f)
}

// MutableMap returns the storage of a map field, allocating it from a when
// missing. A nil a allocates from m's arena.
func MutableMap(m *Message, f *minitable.Field, a *arena.Arena) (*Map, error) {
	if mp := GetMap(m, f); mp != nil {
		return mp, nil
	}
	if a == nil {
		a = m.a
	}

	mp, err := newMap(a, f)
	if err != nil {
		return nil, err
	}
	adopt(m.a, a)
	m.storeSlot(f, uint64(mp.ref))

	return mp, nil
}

// Len returns the number of entries. A nil map is empty.
func (mp *Map) Len() int {
	if mp == nil {
		return 0
	}

	return len(mp.rep.entries)
}

// KeyType returns the key type.
func (mp *Map) KeyType() minitable.FieldType { return mp.key.Type() }

// ValueType returns the value type.
func (mp *Map) ValueType() minitable.FieldType { return mp.value.Type() }

// Get returns the value stored under key.
func (mp *Map) Get(key Value) (Value, bool) {
	if mp == nil {
		return Value{}, false
	}

	bits, ok := mp.rep.entries[encodeKey(mp.key.Type(), key)]
	if !ok {
		return Value{}, false
	}

	return mp.valueOf(bits), true
}

// Set stores val under key, replacing any previous value.
// Unowned string and bytes values are copied into the arena.
func (mp *Map) Set(key, val Value) error {
	bits, err := ownBits(mp.a, mp.value.Type().IsRef(), val)
	if err != nil {
		return err
	}

	return mp.setBits(encodeKey(mp.key.Type(), key), bits, nil)
}

// Delete removes the entry under key and reports whether it existed.
func (mp *Map) Delete(key Value) bool {
	k := encodeKey(mp.key.Type(), key)
	if _, ok := mp.rep.entries[k]; !ok {
		return false
	}
	delete(mp.rep.entries, k)

	return true
}

// Clear removes all entries.
func (mp *Map) Clear() {
	clear(mp.rep.entries)
}

// Range calls fn for each entry in ascending key order until fn returns false.
// fn must not modify the map.
func (mp *Map) Range(fn func(key, val Value) bool) {
	if mp == nil {
		return
	}

	keys, release := mp.sortedKeys()
	defer release()

	for _, k := range keys {
		if !fn(decodeKey(mp.key.Type(), k), mp.valueOf(mp.rep.entries[k])) {
			return
		}
	}
}

// setBits stores bits under the encoded key k. New entries are charged to a,
// or to the map's arena when a is nil.
func (mp *Map) setBits(k string, bits uint64, a *arena.Arena) error {
	if a == nil {
		a = mp.a
	}
	if _, ok := mp.rep.entries[k]; !ok {
		if err := a.Reserve(len(k) + mapEntryOverhead); err != nil {
			return err
		}
	}
	mp.rep.entries[k] = bits

	return nil
}

func (mp *Map) valueOf(bits uint64) Value {
	v := Value{bits: bits}
	if mp.value.Type().IsRef() {
		v.a = mp.a
	}

	return v
}

// sortedKeys returns the encoded keys in ascending key order. The slice is
// pooled and only valid until release is called.
func (mp *Map) sortedKeys() (keys []string, release func()) {
	keys, release = pool.GetKeySlice(len(mp.rep.entries))
	for k := range mp.rep.entries {
		keys = append(keys, k)
	}

	typ := mp.key.Type()
	sort.Slice(keys, func(i, j int) bool { return keyLess(typ, keys[i], keys[j]) })

	return keys, release
}

func encodeKey(typ minitable.FieldType, key Value) string {
	switch typ {
	case minitable.TypeString:
		return string(key.Bytes())
	case minitable.TypeBool:
		if key.Bool() {
			return "\x01"
		}

		return "\x00"
	default:
		var b [8]byte
		binary.LittleEndian.PutUint64(b[:], normalizeKeyBits(typ, key.bits))

		return string(b[:])
	}
}

func normalizeKeyBits(typ minitable.FieldType, bits uint64) uint64 {
	switch typ {
	case minitable.TypeInt32, minitable.TypeUInt32:
		return uint64(uint32(bits))
	default:
		return bits
	}
}

func decodeKey(typ minitable.FieldType, k string) Value {
	switch typ {
	case minitable.TypeString:
		return ValueOfString(k)
	case minitable.TypeBool:
		return ValueOfBool(k == "\x01")
	default:
		return Value{bits: binary.LittleEndian.Uint64([]byte(k))}
	}
}

func keyLess(typ minitable.FieldType, a, b string) bool {
	switch typ {
	case minitable.TypeString, minitable.TypeBool:
		return a < b
	case minitable.TypeInt32:
		return decodeKey(typ, a).Int32() < decodeKey(typ, b).Int32()
	case minitable.TypeInt64:
		return decodeKey(typ, a).Int64() < decodeKey(typ, b).Int64()
	default:
		return bytes.Compare(reverse8(a), reverse8(b)) < 0
	}
}

// reverse8 turns an encoded little-endian unsigned key into big-endian bytes,
// which order the same way as the numbers.
func reverse8(k string) []byte {
	b := []byte(k)
	for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}

	return b
}
