package arena

import "fmt"

// Ref is an arena-scoped handle naming a block or object allocated by an arena.
//
// The zero Ref is the null handle. A Ref is only meaningful to the arena that
// produced it and to arenas fused with that arena.
type Ref uint64

// NullRef is the null handle.
const NullRef Ref = 0

const maxHandles = 1<<32 - 1

func makeRef(arenaID uint32, index int) Ref {
	return Ref(uint64(arenaID)<<32 | uint64(uint32(index+1)))
}

// IsNull reports whether r is the null handle.
func (r Ref) IsNull() bool {
	return r == NullRef
}

// ArenaID returns the id of the arena that produced r.
func (r Ref) ArenaID() uint32 {
	return uint32(r >> 32)
}

func (r Ref) index() int {
	return int(uint32(r)) - 1
}

// String implements fmt.Stringer.
func (r Ref) String() string {
	if r.IsNull() {
		return "ref(null)"
	}

	return fmt.Sprintf("ref(%d:%d)", r.ArenaID(), r.index())
}
