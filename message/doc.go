// Package message implements the dynamic message object model.
//
// A Message is a fixed-size block of arena memory whose bytes mean nothing on
// their own: every operation takes the minitable.MiniTable (or the
// minitable.Field) the message was allocated against and interprets the block
// through it.
//
// # Core Operations
//
//   - New, Clear, ClearField: allocation and resetting
//   - Get*/Set*/Has: typed field access with default-value semantics
//   - GetField/SetField: the type-erased accessor pair working on Value
//   - IsEqual, Hash: structural comparison and hashing
//   - DeepCopy, DeepClone: copies sharing no mutable state with the source
//   - MergeFrom: field-wise merge concatenating repeated fields
//   - Array, Map: storage of repeated and map fields
//   - HasExtension, GetExtension, SetExtension: extension fields kept outside the block
//
// # Basic Usage
//
//	a, _ := arena.New()
//	defer a.Free()
//
//	m, err := message.New(pointTable, a)
//	if err != nil {
//	    return err // errs.ErrArenaExhausted
//	}
//	x := pointTable.FieldByName("x")
//	message.SetInt32(m, x, 42)
//	v := message.GetInt32(m, x, 0) // 42
//
// # Contracts
//
// A message must only be used with the table it was allocated against, and a
// field must belong to that table. These conditions are not checked; breaking
// them corrupts the message or panics. Allocation exhaustion is the only error
// the package reports, and operations that fail half way (DeepCopy, MergeFrom)
// leave the destination partially written.
//
// # Thread Safety
//
// Messages may be read concurrently as long as nothing mutates them or
// allocates from their arenas. Any mutation requires external synchronization.
package message
