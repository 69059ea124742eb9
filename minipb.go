// Package minipb provides a schema-driven, arena-backed dynamic message engine for
// protobuf-shaped data.
//
// A message instance is a flat block of arena memory whose layout is described at
// runtime by a minitable.MiniTable. Every field operation is dispatched through the
// table, so no generated per-type code is needed.
//
// # Core Features
//
//   - Region allocation with arena fusing, limits and one-shot teardown
//   - Explicit and implicit presence, oneofs, repeated fields, maps and extensions
//   - Structural equality, hashing, deep copy and merge
//   - Tables built from TOML schema files or protobuf descriptors
//
// # Basic Usage
//
// Loading a schema and filling a message:
//
//	import "github.com/arloliu/minipb"
//
//	schema, _ := minipb.LoadSchema("shop.toml")
//	order, _ := schema.Table("shop.Order")
//
//	a, _ := minipb.NewArena()
//	defer a.Free()
//
//	m, _ := minipb.NewMessage(order, a)
//	message.SetInt64(m, order.FieldByName("id"), 42)
//
//	dup, _ := minipb.Clone(m, order, a)
//	fmt.Println(minipb.Equal(m, dup, order))
//
// # Package Structure
//
// This package provides convenient top-level wrappers around the arena, message,
// schemafile and pbbridge packages. For fine-grained control use them directly.
package minipb

import (
	"google.golang.org/protobuf/proto"

	"github.com/arloliu/minipb/arena"
	"github.com/arloliu/minipb/internal/hash"
	"github.com/arloliu/minipb/message"
	"github.com/arloliu/minipb/minitable"
	"github.com/arloliu/minipb/pbbridge"
	"github.com/arloliu/minipb/schemafile"
)

// NewArena creates an arena for message trees.
//
// Parameters:
//   - opts: Optional configuration functions (see arena.Option)
//
// Returns:
//   - *arena.Arena: The created arena.
//   - error: An error if an option is invalid.
//
// Available options:
//   - arena.WithChunkSize(n)
//   - arena.WithMaxBytes(n)
//   - arena.WithLogger(logger)
func NewArena(opts ...arena.Option) (*arena.Arena, error) {
	return arena.New(opts...)
}

// NewMessage allocates an empty message of type mt in a.
//
// Returns an error wrapping errs.ErrArenaExhausted when the arena limit is reached.
func NewMessage(mt *minitable.MiniTable, a *arena.Arena) (*message.Message, error) {
	return message.New(mt, a)
}

// LoadSchema reads a TOML schema file.
//
// Parameters:
//   - path: Path of the schema file
//
// Returns:
//   - *schemafile.Schema: The linked tables and extensions of the file.
//   - error: An error if the file cannot be read or is not a valid schema.
func LoadSchema(path string) (*schemafile.Schema, error) {
	return schemafile.Load(path)
}

// ParseSchema builds a schema from TOML source.
func ParseSchema(data []byte) (*schemafile.Schema, error) {
	return schemafile.Parse(data)
}

// NewLoader creates a loader that builds tables from protobuf descriptors.
func NewLoader(opts ...pbbridge.Option) *pbbridge.Loader {
	return pbbridge.NewLoader(opts...)
}

// FromProto copies a protobuf message into a new engine message allocated in a.
//
// The table of the message type is built on the fly. Use a Loader directly to
// reuse tables across calls.
//
// Returns:
//   - *message.Message: The copied message.
//   - *minitable.MiniTable: The table describing the copy.
//   - error: An error if the type cannot be represented or the arena is exhausted.
func FromProto(src proto.Message, a *arena.Arena) (*message.Message, *minitable.MiniTable, error) {
	l := pbbridge.NewLoader()
	mt, err := l.Load(src.ProtoReflect().Descriptor())
	if err != nil {
		return nil, nil, err
	}
	m, err := l.FromProto(src, a)
	if err != nil {
		return nil, nil, err
	}

	return m, mt, nil
}

// Equal reports whether m1 and m2 hold the same field values.
// Absent fields equal only absent fields and floats compare by value.
func Equal(m1, m2 *message.Message, mt *minitable.MiniTable) bool {
	return message.IsEqual(m1, m2, mt, 0)
}

// Clone returns a deep copy of m allocated in a.
func Clone(m *message.Message, mt *minitable.MiniTable, a *arena.Arena) (*message.Message, error) {
	return message.DeepClone(m, mt, a)
}

// Merge merges src into dst. Extensions merge only when reg knows them.
func Merge(dst, src *message.Message, mt *minitable.MiniTable, reg *minitable.ExtensionRegistry, a *arena.Arena) error {
	return message.MergeFrom(dst, src, mt, reg, a)
}

// TypeID returns the 64-bit identifier of a message type name.
// message.Hash mixes it into the digest of every message of that type.
//
// Example:
//
//	id := minipb.TypeID("shop.Order")
func TypeID(name string) uint64 {
	return hash.ID(name)
}
