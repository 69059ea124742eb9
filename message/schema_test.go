package message

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/minipb/arena"
	"github.com/arloliu/minipb/minitable"
)

// testSchema is a recursive message type covering every field shape.
type testSchema struct {
	mt    *minitable.MiniTable
	point *minitable.MiniTable

	b, i32, i64, u32, u64, f32, f64, enum, str, bytes, child *minitable.Field
	implInt, implFloat, implStr                                *minitable.Field
	oneInt, oneStr, oneMsg                                     *minitable.Field
	repInt, repStr, repMsg                                     *minitable.Field
	mapIntStr, mapStrMsg, mapBoolInt                           *minitable.Field

	extInt, extStr, extMsg, extRep *minitable.Extension
	reg                            *minitable.ExtensionRegistry
}

func newTestSchema(t testing.TB) *testSchema {
	t.Helper()

	point, err := minitable.NewBuilder("test.Point").Add(
		minitable.FieldDef{Number: 1, Name: "x", Type: minitable.TypeInt32, Implicit: true},
		minitable.FieldDef{Number: 2, Name: "y", Type: minitable.TypeInt32, Implicit: true},
		minitable.FieldDef{Number: 3, Name: "label", Type: minitable.TypeString},
	).Build()
	require.NoError(t, err)

	mt, err := minitable.NewBuilder("test.All").
		Add(
			minitable.FieldDef{Number: 1, Name: "b", Type: minitable.TypeBool},
			minitable.FieldDef{Number: 2, Name: "i32", Type: minitable.TypeInt32},
			minitable.FieldDef{Number: 3, Name: "i64", Type: minitable.TypeInt64},
			minitable.FieldDef{Number: 4, Name: "u32", Type: minitable.TypeUInt32},
			minitable.FieldDef{Number: 5, Name: "u64", Type: minitable.TypeUInt64},
			minitable.FieldDef{Number: 6, Name: "f32", Type: minitable.TypeFloat},
			minitable.FieldDef{Number: 7, Name: "f64", Type: minitable.TypeDouble},
			minitable.FieldDef{Number: 8, Name: "enum", Type: minitable.TypeEnum},
			minitable.FieldDef{Number: 9, Name: "str", Type: minitable.TypeString},
			minitable.FieldDef{Number: 10, Name: "bytes", Type: minitable.TypeBytes},
			minitable.FieldDef{Number: 11, Name: "child", Type: minitable.TypeMessage},
			minitable.FieldDef{Number: 12, Name: "impl_int", Type: minitable.TypeInt32, Implicit: true},
			minitable.FieldDef{Number: 13, Name: "impl_float", Type: minitable.TypeDouble, Implicit: true},
			minitable.FieldDef{Number: 14, Name: "impl_str", Type: minitable.TypeString, Implicit: true},
			minitable.FieldDef{Number: 30, Name: "rep_int", Type: minitable.TypeInt32, Mode: minitable.ModeArray},
			minitable.FieldDef{Number: 31, Name: "rep_str", Type: minitable.TypeString, Mode: minitable.ModeArray},
			minitable.FieldDef{Number: 32, Name: "rep_msg", Type: minitable.TypeMessage, Mode: minitable.ModeArray, Sub: point},
			minitable.FieldDef{Number: 40, Name: "map_int_str", Mode: minitable.ModeMap,
				Key: minitable.TypeInt32, Value: minitable.TypeString},
			minitable.FieldDef{Number: 41, Name: "map_str_msg", Mode: minitable.ModeMap,
				Key: minitable.TypeString, Value: minitable.TypeMessage, Sub: point},
			minitable.FieldDef{Number: 42, Name: "map_bool_int", Mode: minitable.ModeMap,
				Key: minitable.TypeBool, Value: minitable.TypeInt64},
		).
		AddOneof("choice",
			minitable.FieldDef{Number: 20, Name: "one_int", Type: minitable.TypeInt32},
			minitable.FieldDef{Number: 21, Name: "one_str", Type: minitable.TypeString},
			minitable.FieldDef{Number: 22, Name: "one_msg", Type: minitable.TypeMessage, Sub: point},
		).
		Build()
	require.NoError(t, err)
	require.NoError(t, mt.SetSubMessage(11, mt))

	s := &testSchema{mt: mt, point: point}
	byName := func(name string) *minitable.Field {
		f := mt.FieldByName(name)
		require.NotNil(t, f, name)

		return f
	}
	s.b, s.i32, s.i64 = byName("b"), byName("i32"), byName("i64")
	s.u32, s.u64 = byName("u32"), byName("u64")
	s.f32, s.f64, s.enum = byName("f32"), byName("f64"), byName("enum")
	s.str, s.bytes, s.child = byName("str"), byName("bytes"), byName("child")
	s.implInt, s.implFloat, s.implStr = byName("impl_int"), byName("impl_float"), byName("impl_str")
	s.oneInt, s.oneStr, s.oneMsg = byName("one_int"), byName("one_str"), byName("one_msg")
	s.repInt, s.repStr, s.repMsg = byName("rep_int"), byName("rep_str"), byName("rep_msg")
	s.mapIntStr, s.mapStrMsg, s.mapBoolInt = byName("map_int_str"), byName("map_str_msg"), byName("map_bool_int")

	newExt := func(def minitable.FieldDef) *minitable.Extension {
		ext, err := minitable.NewExtension(mt, def)
		require.NoError(t, err)

		return ext
	}
	s.extInt = newExt(minitable.FieldDef{Number: 100, Name: "ext_int", Type: minitable.TypeInt64})
	s.extStr = newExt(minitable.FieldDef{Number: 101, Name: "ext_str", Type: minitable.TypeString})
	s.extMsg = newExt(minitable.FieldDef{Number: 102, Name: "ext_msg", Type: minitable.TypeMessage, Sub: point})
	s.extRep = newExt(minitable.FieldDef{Number: 103, Name: "ext_rep", Type: minitable.TypeUInt32, Mode: minitable.ModeArray})

	s.reg = minitable.NewExtensionRegistry()
	require.NoError(t, s.reg.Add(s.extInt, s.extStr, s.extMsg, s.extRep))

	return s
}

func newTestArena(t testing.TB, opts ...arena.Option) *arena.Arena {
	t.Helper()

	a, err := arena.New(opts...)
	require.NoError(t, err)
	t.Cleanup(a.Free)

	return a
}

func (s *testSchema) newMessage(t testing.TB, a *arena.Arena) *Message {
	t.Helper()

	m, err := New(s.mt, a)
	require.NoError(t, err)

	return m
}

func (s *testSchema) newPoint(t testing.TB, a *arena.Arena, x, y int32, label string) *Message {
	t.Helper()

	p, err := New(s.point, a)
	require.NoError(t, err)
	SetInt32(p, s.point.FieldByName("x"), x)
	SetInt32(p, s.point.FieldByName("y"), y)
	require.NoError(t, SetString(p, s.point.FieldByName("label"), label))

	return p
}

// populate sets every field of m, including one extension of each kind.
func (s *testSchema) populate(t testing.TB, m *Message) {
	t.Helper()

	SetBool(m, s.b, true)
	SetInt32(m, s.i32, -7)
	SetInt64(m, s.i64, -1<<40)
	SetUInt32(m, s.u32, 1<<31)
	SetUInt64(m, s.u64, 1<<63)
	SetFloat(m, s.f32, 1.5)
	SetDouble(m, s.f64, -2.25)
	SetEnum(m, s.enum, 3)
	require.NoError(t, SetString(m, s.str, "hello"))
	require.NoError(t, SetBytes(m, s.bytes, []byte{0, 1, 2}))
	SetInt32(m, s.implInt, 11)
	SetDouble(m, s.implFloat, 0.5)
	require.NoError(t, SetString(m, s.implStr, "implicit"))
	require.NoError(t, SetString(m, s.oneStr, "choice"))

	child, err := MutableMessage(m, s.child, nil)
	require.NoError(t, err)
	SetInt32(child, s.i32, 99)
	require.NoError(t, SetString(child, s.str, "nested"))

	ints, err := MutableArray(m, s.repInt, nil)
	require.NoError(t, err)
	for _, v := range []int32{3, 1, 2} {
		require.NoError(t, ints.Append(ValueOfInt32(v)))
	}

	strs, err := MutableArray(m, s.repStr, nil)
	require.NoError(t, err)
	require.NoError(t, strs.Append(ValueOfString("a")))
	require.NoError(t, strs.Append(ValueOfString("")))

	msgs, err := MutableArray(m, s.repMsg, nil)
	require.NoError(t, err)
	require.NoError(t, msgs.Append(ValueOfMessage(s.newPoint(t, m.Arena(), 1, 2, "p1"))))

	mis, err := MutableMap(m, s.mapIntStr, nil)
	require.NoError(t, err)
	require.NoError(t, mis.Set(ValueOfInt32(-1), ValueOfString("minus one")))
	require.NoError(t, mis.Set(ValueOfInt32(5), ValueOfString("five")))

	msm, err := MutableMap(m, s.mapStrMsg, nil)
	require.NoError(t, err)
	require.NoError(t, msm.Set(ValueOfString("origin"), ValueOfMessage(s.newPoint(t, m.Arena(), 0, 0, "o"))))

	require.NoError(t, SetExtension(m, s.extInt, ValueOfInt64(42)))
	require.NoError(t, SetExtension(m, s.extStr, ValueOfString("ext")))
	em, err := MutableExtensionMessage(m, s.extMsg, nil)
	require.NoError(t, err)
	SetInt32(em, s.point.FieldByName("x"), 8)
	er, err := MutableExtensionArray(m, s.extRep, nil)
	require.NoError(t, err)
	require.NoError(t, er.Append(ValueOfUInt32(9)))
}
