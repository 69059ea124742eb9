package message

import (
	"fmt"

	"github.com/arloliu/minipb/arena"
	"github.com/arloliu/minipb/minitable"
)

// arrayHeaderSize is charged to the arena for each array representation.
const arrayHeaderSize = 32

const minArrayCapacity = 4

type arrayRep struct {
	data []byte // capacity*elemSize bytes
	size int
}

// Array is a handle to the storage of a repeated field.
type Array struct {
	rep *arrayRep
	a   *arena.Arena
	ref arena.Ref
	typ minitable.FieldType
}

func newArray(a *arena.Arena, typ minitable.FieldType) (*Array, error) {
	rep := &arrayRep{}
	ref, err := a.Register(rep, arrayHeaderSize)
	if err != nil {
		return nil, err
	}

	return &Array{rep: rep, a: a, ref: ref, typ: typ}, nil
}

func arrayAt(ctx *arena.Arena, r arena.Ref, typ minitable.FieldType) *Array {
	if r.IsNull() {
		return nil
	}
	owner := ctx.Owner(r)
	rep, ok := owner.Object(r).(*arrayRep)
	if !ok {
		panic(fmt.Sprintf("message: %s is not an array", r))
	}

	return &Array{rep: rep, a: owner, ref: r, typ: typ}
}

// GetArray returns the storage of a repeated field, or nil if none was allocated.
func GetArray(m *Message, f *minitable.Field) *Array {
	return arrayAt(m.a, arena.Ref(m.loadSlot(f)), f.Type())
}

// MutableArray returns the storage of a repeated field, allocating it from a when
// missing. A nil a allocates from m's arena.
func MutableArray(m *Message, f *minitable.Field, a *arena.Arena) (*Array, error) {
	if arr := GetArray(m, f); arr != nil {
		return arr, nil
	}
	if a == nil {
		a = m.a
	}

	arr, err := newArray(a, f.Type())
	if err != nil {
		return nil, err
	}
	adopt(m.a, a)
	m.storeSlot(f, uint64(arr.ref))

	return arr, nil
}

// Len returns the number of elements. A nil array is empty.
func (arr *Array) Len() int {
	if arr == nil {
		return 0
	}

	return arr.rep.size
}

// Type returns the element type.
func (arr *Array) Type() minitable.FieldType { return arr.typ }

// Get returns the i-th element. It panics if i is out of range.
func (arr *Array) Get(i int) Value {
	arr.checkIndex(i)

	v := Value{bits: load(arr.rep.data, i*arr.elemSize(), arr.elemSize())}
	if arr.typ.IsRef() {
		v.a = arr.a
	}

	return v
}

// Set replaces the i-th element. Unowned string and bytes values are copied into the arena.
func (arr *Array) Set(i int, v Value) error {
	arr.checkIndex(i)

	bits, err := ownBits(arr.a, arr.typ.IsRef(), v)
	if err != nil {
		return err
	}
	store(arr.rep.data, i*arr.elemSize(), arr.elemSize(), bits)

	return nil
}

// Append adds v after the last element.
func (arr *Array) Append(v Value) error {
	bits, err := ownBits(arr.a, arr.typ.IsRef(), v)
	if err != nil {
		return err
	}
	if err := arr.reserve(arr.rep.size+1, nil); err != nil {
		return err
	}

	store(arr.rep.data, arr.rep.size*arr.elemSize(), arr.elemSize(), bits)
	arr.rep.size++

	return nil
}

// AppendMessage allocates an empty message of type mt, appends it and returns it.
func (arr *Array) AppendMessage(mt *minitable.MiniTable) (*Message, error) {
	m, err := New(mt, arr.a)
	if err != nil {
		return nil, err
	}
	if err := arr.Append(ValueOfMessage(m)); err != nil {
		return nil, err
	}

	return m, nil
}

// Resize sets the number of elements to n. New elements are zero.
func (arr *Array) Resize(n int) error {
	if n < 0 {
		return fmt.Errorf("message: negative array size %d", n)
	}
	if err := arr.reserve(n, nil); err != nil {
		return err
	}

	if n > arr.rep.size {
		es := arr.elemSize()
		clear(arr.rep.data[arr.rep.size*es : n*es])
	}
	arr.rep.size = n

	return nil
}

// Clear removes all elements. The storage is kept.
func (arr *Array) Clear() {
	arr.rep.size = 0
}

func (arr *Array) elemSize() int {
	return arr.typ.Size()
}

func (arr *Array) capacity() int {
	return len(arr.rep.data) / arr.elemSize()
}

// reserve grows the storage to hold n elements. Grown storage comes from a,
// or from the array's arena when a is nil; a must be fused with it.
func (arr *Array) reserve(n int, a *arena.Arena) error {
	if n <= arr.capacity() {
		return nil
	}
	if a == nil {
		a = arr.a
	}

	newCap := max(minArrayCapacity, 2*arr.capacity(), n)
	buf, err := a.Alloc(newCap * arr.elemSize())
	if err != nil {
		return err
	}
	copy(buf, arr.rep.data[:arr.rep.size*arr.elemSize()])
	arr.rep.data = buf

	return nil
}

func (arr *Array) checkIndex(i int) {
	if i < 0 || i >= arr.rep.size {
		panic(fmt.Sprintf("message: array index %d out of range [0:%d]", i, arr.rep.size))
	}
}
