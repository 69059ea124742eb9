// Package arena provides the region allocator that owns every message and
// sub-object created by the message engine.
//
// An Arena hands out zeroed memory carved from large chunks. Memory is never
// freed individually: everything allocated from an arena lives until Free is
// called on it, at which point the whole region is released at once.
//
// # Handles
//
// Go's garbage collector does not scan raw byte blocks for pointers, so message
// blocks never store Go pointers. Instead a block that refers to another object
// (a sub-message, a string, a repeated field, a map) stores a Ref: a 64-bit
// arena-scoped handle. The high 32 bits identify the arena that produced the
// handle, the low 32 bits index its handle table. The zero Ref is null.
//
//	a, _ := arena.New(arena.WithMaxBytes(1 << 20))
//	defer a.Free()
//
//	ref, block, err := a.NewBlock(24)
//	if err != nil {
//	    // errs.ErrArenaExhausted
//	}
//	same := a.Block(ref) // same backing memory as block
//
// # Fusing
//
// Fuse joins the lifetimes of two arenas. After fusing, a handle produced by
// either arena resolves through both, which lets a message reference objects
// that were allocated somewhere else. Fusing is permanent.
//
// # Thread Safety
//
// An Arena is not safe for concurrent use. Callers that share an arena between
// goroutines must synchronize access themselves.
package arena
