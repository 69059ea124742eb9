// Package minitable describes message layouts for the message engine.
//
// A MiniTable is the runtime schema of one message type: the size of its
// memory block, and for each field its number, type, storage offset and
// presence mechanism. Message operations never inspect a block on their own;
// the MiniTable is always passed alongside the message.
//
// # Block Layout
//
// Every message block starts with an 8-byte header that holds the handle of
// the message's extension set. The header is followed by the hasbit region
// (one bit per explicit-presence field outside a oneof), the oneof case words
// (a uint32 per oneof holding the number of the active member), and finally
// the field slots. Slots are placed 8-byte wide first, then 4-byte, then 1-byte,
// so each slot is naturally aligned. All members of a oneof share one 8-byte
// slot. The block size is rounded up to a multiple of 8.
//
//	header | hasbits | oneof cases | 8-byte slots | 4-byte slots | 1-byte slots | pad
//
// # Building
//
// Tables are created with a Builder and are immutable afterwards, with one
// exception: SetSubMessage links message-typed fields to their sub-table and
// exists so recursive schemas can be wired up before the tables are shared.
//
//	b := minitable.NewBuilder("example.Point")
//	b.Add(minitable.FieldDef{Number: 1, Name: "x", Type: minitable.TypeInt32})
//	b.Add(minitable.FieldDef{Number: 2, Name: "y", Type: minitable.TypeInt32})
//	point, err := b.Build()
//
// Extensions are described by Extension values and collected in an
// ExtensionRegistry, which merge operations consult.
package minitable
