package message

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/minipb/arena"
	"github.com/arloliu/minipb/errs"
)

func TestDeepClone_Equivalent(t *testing.T) {
	s := newTestSchema(t)
	src := s.newMessage(t, newTestArena(t))
	s.populate(t, src)

	dstArena := newTestArena(t)
	clone, err := DeepClone(src, s.mt, dstArena)
	require.NoError(t, err)
	require.Equal(t, dstArena, clone.Arena())
	require.True(t, IsEqual(src, clone, s.mt, 0))
	require.True(t, IsEqual(clone, src, s.mt, CompareBitExactFloats))
	require.Equal(t, Hash(src, s.mt), Hash(clone, s.mt))
	require.False(t, dstArena.IsFused(src.Arena()), "a clone needs nothing from the source arena")
}

func TestDeepClone_EmptyMessage(t *testing.T) {
	s := newTestSchema(t)
	a := newTestArena(t)

	clone, err := DeepClone(s.newMessage(t, a), s.mt, a)
	require.NoError(t, err)
	require.True(t, IsEqual(clone, s.newMessage(t, a), s.mt, 0))
}

func TestDeepCopy_Independent(t *testing.T) {
	s := newTestSchema(t)
	a := newTestArena(t)
	src, dst := s.newMessage(t, a), s.newMessage(t, a)
	s.populate(t, src)

	require.NoError(t, DeepCopy(dst, src, s.mt, a))
	snapshot, err := DeepClone(dst, s.mt, a)
	require.NoError(t, err)

	SetInt32(GetMessage(src, s.child), s.i32, -1)
	require.NoError(t, GetArray(src, s.repInt).Set(0, ValueOfInt32(1000)))
	SetInt32(GetArray(src, s.repMsg).Get(0).Message(), s.point.FieldByName("x"), 77)
	require.NoError(t, GetMap(src, s.mapIntStr).Set(ValueOfInt32(5), ValueOfString("changed")))
	origin, _ := GetMap(src, s.mapStrMsg).Get(ValueOfString("origin"))
	SetInt32(origin.Message(), s.point.FieldByName("y"), 1)
	require.NoError(t, SetExtension(src, s.extInt, ValueOfInt64(0)))
	ext, _ := GetExtension(src, s.extMsg)
	SetInt32(ext.Message(), s.point.FieldByName("x"), 0)
	require.NoError(t, GetExtensionArray(src, s.extRep).Append(ValueOfUInt32(1)))

	require.Equal(t, int32(99), GetInt32(GetMessage(dst, s.child), s.i32, 0))
	require.True(t, IsEqual(dst, snapshot, s.mt, 0))
	require.False(t, IsEqual(dst, src, s.mt, 0))
}

func TestDeepCopy_OverwritesDestination(t *testing.T) {
	s := newTestSchema(t)
	a := newTestArena(t)
	src, dst := s.newMessage(t, a), s.newMessage(t, a)

	s.populate(t, dst)
	SetInt32(src, s.i32, 1)
	SetInt32(src, s.oneInt, 3)

	require.NoError(t, DeepCopy(dst, src, s.mt, nil))
	require.True(t, IsEqual(dst, src, s.mt, 0))
	require.False(t, Has(dst, s.str))
	require.Zero(t, GetArray(dst, s.repInt).Len())
	require.Zero(t, ExtensionCount(dst))
	require.Equal(t, s.oneInt, WhichOneof(dst, s.mt, s.oneStr))
}

func TestDeepCopy_SelfIsNoop(t *testing.T) {
	s := newTestSchema(t)
	a := newTestArena(t)
	m := s.newMessage(t, a)
	s.populate(t, m)
	want, err := DeepClone(m, s.mt, a)
	require.NoError(t, err)

	require.NoError(t, DeepCopy(m, m, s.mt, a))
	require.True(t, IsEqual(m, want, s.mt, 0))
}

func TestDeepCopy_ForeignArenaFuses(t *testing.T) {
	s := newTestSchema(t)
	a := newTestArena(t)
	other := newTestArena(t)
	src, dst := s.newMessage(t, a), s.newMessage(t, a)
	s.populate(t, src)

	require.NoError(t, DeepCopy(dst, src, s.mt, other))
	require.True(t, a.IsFused(other))
	require.Equal(t, other, GetMessage(dst, s.child).Arena())
	require.True(t, IsEqual(dst, src, s.mt, 0))
}

func TestDeepClone_Exhausted(t *testing.T) {
	s := newTestSchema(t)
	src := s.newMessage(t, newTestArena(t))
	s.populate(t, src)

	tight := newTestArena(t, arena.WithMaxBytes(s.mt.Size()*2))
	_, err := DeepClone(src, s.mt, tight)
	require.ErrorIs(t, err, errs.ErrArenaExhausted)

	none := newTestArena(t, arena.WithMaxBytes(8))
	_, err = DeepClone(src, s.mt, none)
	require.ErrorIs(t, err, errs.ErrArenaExhausted)
}

func TestDeepCopy_AllocatesFromSuppliedArena(t *testing.T) {
	s := newTestSchema(t)
	src := s.newMessage(t, newTestArena(t))
	s.populate(t, src)

	own := newTestArena(t)
	dst := s.newMessage(t, own)
	before := own.Stats().Allocated

	supplied := newTestArena(t)
	require.NoError(t, DeepCopy(dst, src, s.mt, supplied))

	require.Equal(t, before, own.Stats().Allocated)
	require.Positive(t, supplied.Stats().Allocated)
	require.Equal(t, 4, ExtensionCount(dst))
	require.True(t, IsEqual(dst, src, s.mt, 0))
}
