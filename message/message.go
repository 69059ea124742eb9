package message

import (
	"encoding/binary"

	"github.com/arloliu/minipb/arena"
	"github.com/arloliu/minipb/minitable"
)

// oneofSlotSize is the width of the slot shared by oneof members.
const oneofSlotSize = 8

// Message is a handle to a message block living in an arena.
type Message struct {
	a    *arena.Arena
	ref  arena.Ref
	data []byte
}

// New allocates a zeroed message block for mt from a.
//
// Every field of the new message is absent. The only failure is arena exhaustion.
func New(mt *minitable.MiniTable, a *arena.Arena) (*Message, error) {
	ref, data, err := a.NewBlock(mt.Size())
	if err != nil {
		return nil, err
	}

	return &Message{a: a, ref: ref, data: data}, nil
}

// Arena returns the arena owning the message block.
func (m *Message) Arena() *arena.Arena { return m.a }

// Ref returns the arena handle of the message block.
func (m *Message) Ref() arena.Ref { return m.ref }

// Clear resets every field and extension of m to absent.
//
// No memory is reclaimed: dropped sub-objects stay allocated until the arena is freed.
func Clear(m *Message, mt *minitable.MiniTable) {
	clear(m.data[:mt.Size()])
}

// ClearField resets a single field to absent and its slot to zero.
//
// A oneof member is only cleared when it is the active member.
func ClearField(m *Message, f *minitable.Field) {
	switch f.Presence() {
	case minitable.PresenceHasbit:
		idx, _ := f.Hasbit()
		m.data[idx/8] &^= 1 << (idx % 8)
		m.storeSlot(f, 0)
	case minitable.PresenceOneof:
		off, _ := f.OneofCaseOffset()
		if m.oneofCase(off) != f.Number() {
			return
		}
		m.setOneofCase(off, 0)
		clear(m.data[f.Offset() : f.Offset()+oneofSlotSize])
	default:
		m.storeSlot(f, 0)
	}
}

// Has reports whether a field with explicit presence is set.
//
// For implicit-presence fields the result only tells whether the slot is non-zero;
// callers should not rely on it.
func Has(m *Message, f *minitable.Field) bool {
	return m.present(f)
}

func (m *Message) present(f *minitable.Field) bool {
	switch f.Presence() {
	case minitable.PresenceHasbit:
		idx, _ := f.Hasbit()
		return m.data[idx/8]&(1<<(idx%8)) != 0
	case minitable.PresenceOneof:
		off, _ := f.OneofCaseOffset()
		return m.oneofCase(off) == f.Number()
	default:
		return m.loadSlot(f) != 0
	}
}

func (m *Message) markPresent(f *minitable.Field) {
	switch f.Presence() {
	case minitable.PresenceHasbit:
		idx, _ := f.Hasbit()
		m.data[idx/8] |= 1 << (idx % 8)
	case minitable.PresenceOneof:
		off, _ := f.OneofCaseOffset()
		m.setOneofCase(off, f.Number())
	}
}

func (m *Message) oneofCase(off uint32) int32 {
	return int32(binary.LittleEndian.Uint32(m.data[off:]))
}

func (m *Message) setOneofCase(off uint32, number int32) {
	binary.LittleEndian.PutUint32(m.data[off:], uint32(number))
}

func (m *Message) loadSlot(f *minitable.Field) uint64 {
	return load(m.data, int(f.Offset()), f.SlotSize())
}

func (m *Message) storeSlot(f *minitable.Field, bits uint64) {
	store(m.data, int(f.Offset()), f.SlotSize(), bits)
}

func (m *Message) extensionRef() arena.Ref {
	return arena.Ref(binary.LittleEndian.Uint64(m.data))
}

func (m *Message) setExtensionRef(r arena.Ref) {
	binary.LittleEndian.PutUint64(m.data, uint64(r))
}

// load reads a little-endian slot of the given width.
func load(b []byte, off, size int) uint64 {
	switch size {
	case 1:
		return uint64(b[off])
	case 4:
		return uint64(binary.LittleEndian.Uint32(b[off:]))
	case 8:
		return binary.LittleEndian.Uint64(b[off:])
	default:
		panic("message: invalid slot size")
	}
}

func store(b []byte, off, size int, bits uint64) {
	switch size {
	case 1:
		b[off] = byte(bits)
	case 4:
		binary.LittleEndian.PutUint32(b[off:], uint32(bits))
	case 8:
		binary.LittleEndian.PutUint64(b[off:], bits)
	default:
		panic("message: invalid slot size")
	}
}

// messageAt resolves a message handle through ctx.
func messageAt(ctx *arena.Arena, r arena.Ref) *Message {
	if r.IsNull() {
		return nil
	}
	owner := ctx.Owner(r)

	return &Message{a: owner, ref: r, data: owner.Block(r)}
}

// adopt makes handles allocated by from resolvable through to.
func adopt(to, from *arena.Arena) {
	if from == nil || to == from {
		return
	}
	to.Fuse(from)
}

// newBytes copies b into a fresh arena block. Empty input yields the null handle.
func newBytes(a *arena.Arena, b []byte) (arena.Ref, error) {
	if len(b) == 0 {
		return arena.NullRef, nil
	}

	ref, blk, err := a.NewBlock(len(b))
	if err != nil {
		return arena.NullRef, err
	}
	copy(blk, b)

	return ref, nil
}
