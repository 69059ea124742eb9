package arena

import (
	"fmt"
	"sync/atomic"

	"github.com/arloliu/minipb/errs"
	"github.com/arloliu/minipb/internal/options"
)

// alignment of every allocation in bytes.
const alignment = 8

var lastArenaID atomic.Uint32

type entry struct {
	block []byte
	obj   any
}

// Arena is a region allocator. See the package documentation for the handle
// and fusing model.
type Arena struct {
	id  uint32
	cfg *config

	chunk     []byte
	offset    int
	chunks    int
	capacity  int
	allocated int

	handles []entry
	freed   bool

	// union-find over fused arenas; members is only populated on the root.
	parent  *Arena
	rank    int
	members map[uint32]*Arena
}

// Stats reports arena usage.
type Stats struct {
	Allocated int // Bytes charged against the arena, including padding and object sizes.
	Capacity  int // Bytes of chunk memory obtained from the Go heap.
	Chunks    int // Number of chunks obtained so far.
	Handles   int // Number of live handles.
}

// New creates an arena configured by opts.
//
// Returns an error only if an option is invalid.
func New(opts ...Option) (*Arena, error) {
	cfg := defaultConfig()
	if err := options.Apply(cfg, opts...); err != nil {
		return nil, err
	}

	a := &Arena{
		id:  lastArenaID.Add(1),
		cfg: cfg,
	}
	a.members = map[uint32]*Arena{a.id: a}

	return a, nil
}

// ID returns the process-unique id of the arena. It is embedded in every Ref the arena produces.
func (a *Arena) ID() uint32 {
	return a.id
}

// Stats returns a snapshot of the arena usage.
func (a *Arena) Stats() Stats {
	return Stats{
		Allocated: a.allocated,
		Capacity:  a.capacity,
		Chunks:    a.chunks,
		Handles:   len(a.handles),
	}
}

// Alloc returns n zeroed bytes with no handle attached.
//
// The returned slice has capacity n so appends never spill into neighbouring
// allocations. A zero-sized request returns nil.
func (a *Arena) Alloc(n int) ([]byte, error) {
	if n < 0 {
		return nil, fmt.Errorf("arena: negative allocation size %d", n)
	}
	if n == 0 {
		return nil, a.checkLive()
	}

	size := alignUp(n)
	if err := a.charge(size); err != nil {
		return nil, err
	}

	if a.offset+size > len(a.chunk) {
		a.grow(size)
	}

	b := a.chunk[a.offset : a.offset+n : a.offset+n]
	a.offset += size

	return b, nil
}

// NewBlock allocates n zeroed bytes and a handle naming them.
func (a *Arena) NewBlock(n int) (Ref, []byte, error) {
	b, err := a.Alloc(n)
	if err != nil {
		return NullRef, nil, err
	}

	ref, err := a.addHandle(entry{block: b})
	if err != nil {
		return NullRef, nil, err
	}

	return ref, b, nil
}

// Register attaches obj to the arena and returns a handle naming it.
// The given size is charged against the arena limit.
func (a *Arena) Register(obj any, size int) (Ref, error) {
	if err := a.charge(size); err != nil {
		return NullRef, err
	}

	return a.addHandle(entry{obj: obj})
}

// Reserve charges n bytes against the arena limit without handing out memory.
// It is used for storage the arena cannot carve itself, such as Go map buckets.
func (a *Arena) Reserve(n int) error {
	return a.charge(n)
}

// Block returns the memory named by r. The null Ref yields nil.
//
// r must have been produced by a or by an arena fused with a; anything else panics.
func (a *Arena) Block(r Ref) []byte {
	if r.IsNull() {
		return nil
	}

	return a.resolve(r).block
}

// Object returns the object registered under r. The null Ref yields nil.
func (a *Arena) Object(r Ref) any {
	if r.IsNull() {
		return nil
	}

	return a.resolve(r).obj
}

// Owner returns the arena that produced r, searching the fused group of a.
// The null Ref yields nil.
func (a *Arena) Owner(r Ref) *Arena {
	if r.IsNull() {
		return nil
	}

	id := r.ArenaID()
	if id == a.id {
		return a
	}

	if owner := a.root().members[id]; owner != nil {
		return owner
	}

	panic(fmt.Sprintf("arena: %s does not belong to arena %d or any arena fused with it", r, a.id))
}

// Fuse joins the lifetimes of a and other. Afterwards handles produced by
// either arena (or anything previously fused with them) resolve through both.
func (a *Arena) Fuse(other *Arena) {
	if other == nil || a == other {
		return
	}

	ra, rb := a.root(), other.root()
	if ra == rb {
		return
	}

	if ra.rank < rb.rank {
		ra, rb = rb, ra
	}
	rb.parent = ra
	if ra.rank == rb.rank {
		ra.rank++
	}

	for id, m := range rb.members {
		ra.members[id] = m
	}
	rb.members = nil

	a.cfg.logger.Debug().
		Uint32("arena", a.id).
		Uint32("other", other.id).
		Int("group_size", len(ra.members)).
		Msg("arenas fused")
}

// IsFused reports whether a and other belong to the same fused group.
func (a *Arena) IsFused(other *Arena) bool {
	if other == nil {
		return false
	}

	return a.root() == other.root()
}

// Free releases the arena.
//
// Memory of a fused group is returned to the Go heap once every arena in
// the group has been freed; until then handles keep resolving for the
// remaining members. Allocating after Free fails with errs.ErrArenaFreed.
func (a *Arena) Free() {
	if a.freed {
		return
	}
	a.freed = true
	a.cfg.logger.Debug().
		Uint32("arena", a.id).
		Int("allocated", a.allocated).
		Int("chunks", a.chunks).
		Msg("arena freed")

	root := a.root()
	for _, m := range root.members {
		if !m.freed {
			return
		}
	}

	for _, m := range root.members {
		m.chunk = nil
		m.offset = 0
		m.handles = nil
	}
}

func (a *Arena) checkLive() error {
	if a.freed {
		return fmt.Errorf("%w: arena %d", errs.ErrArenaFreed, a.id)
	}

	return nil
}

func (a *Arena) charge(n int) error {
	if err := a.checkLive(); err != nil {
		return err
	}

	limit := a.cfg.maxBytes
	if limit > 0 && a.allocated+n > limit {
		a.cfg.logger.Warn().
			Uint32("arena", a.id).
			Int("requested", n).
			Int("allocated", a.allocated).
			Int("limit", limit).
			Msg("arena exhausted")

		return fmt.Errorf("%w: requested %d bytes, %d of %d in use",
			errs.ErrArenaExhausted, n, a.allocated, limit)
	}
	a.allocated += n

	return nil
}

func (a *Arena) grow(size int) {
	chunkSize := a.cfg.chunkSize
	if size > chunkSize {
		chunkSize = size
	}

	a.chunk = make([]byte, chunkSize)
	a.offset = 0
	a.chunks++
	a.capacity += chunkSize

	a.cfg.logger.Debug().
		Uint32("arena", a.id).
		Int("chunk_size", chunkSize).
		Int("chunks", a.chunks).
		Msg("arena chunk allocated")
}

func (a *Arena) addHandle(e entry) (Ref, error) {
	if len(a.handles) >= maxHandles {
		return NullRef, fmt.Errorf("%w: handle table full", errs.ErrArenaExhausted)
	}
	a.handles = append(a.handles, e)

	return makeRef(a.id, len(a.handles)-1), nil
}

func (a *Arena) resolve(r Ref) *entry {
	owner := a.Owner(r)
	idx := r.index()
	if idx >= len(owner.handles) {
		panic(fmt.Sprintf("arena: %s is not live in arena %d", r, owner.id))
	}

	return &owner.handles[idx]
}

// root walks to the representative of the fused group. Union by rank keeps
// the walk logarithmic; there is no path compression so lookups never write.
func (a *Arena) root() *Arena {
	r := a
	for r.parent != nil {
		r = r.parent
	}

	return r
}

func alignUp(n int) int {
	return (n + alignment - 1) &^ (alignment - 1)
}
