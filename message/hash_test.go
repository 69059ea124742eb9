package message

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHash_EqualMessagesHashEqual(t *testing.T) {
	s := newTestSchema(t)
	m1 := s.newMessage(t, newTestArena(t))
	m2 := s.newMessage(t, newTestArena(t))

	require.Equal(t, Hash(m1, s.mt), Hash(m2, s.mt))

	s.populate(t, m1)
	s.populate(t, m2)
	require.True(t, IsEqual(m1, m2, s.mt, 0))
	require.Equal(t, Hash(m1, s.mt), Hash(m2, s.mt))
	require.NotEqual(t, Hash(m1, s.mt), Hash(s.newMessage(t, m1.Arena()), s.mt))
}

func TestHash_InsertionOrderIndependent(t *testing.T) {
	s := newTestSchema(t)
	a := newTestArena(t)
	m1, m2 := s.newMessage(t, a), s.newMessage(t, a)

	mp1, err := MutableMap(m1, s.mapIntStr, nil)
	require.NoError(t, err)
	mp2, err := MutableMap(m2, s.mapIntStr, nil)
	require.NoError(t, err)
	for _, k := range []int32{1, 2, 3} {
		require.NoError(t, mp1.Set(ValueOfInt32(k), ValueOfString("v")))
	}
	for _, k := range []int32{3, 1, 2} {
		require.NoError(t, mp2.Set(ValueOfInt32(k), ValueOfString("v")))
	}

	require.NoError(t, SetExtension(m1, s.extInt, ValueOfInt64(1)))
	require.NoError(t, SetExtension(m1, s.extStr, ValueOfString("x")))
	require.NoError(t, SetExtension(m2, s.extStr, ValueOfString("x")))
	require.NoError(t, SetExtension(m2, s.extInt, ValueOfInt64(1)))

	require.Equal(t, Hash(m1, s.mt), Hash(m2, s.mt))
}

func TestHash_IgnoresEquivalentEncodings(t *testing.T) {
	s := newTestSchema(t)
	a := newTestArena(t)
	m1, m2 := s.newMessage(t, a), s.newMessage(t, a)

	SetDouble(m1, s.implFloat, math.Copysign(0, -1))
	SetInt32(m1, s.implInt, 0)
	_, err := MutableArray(m1, s.repInt, nil)
	require.NoError(t, err)
	SetDouble(m1, s.f64, math.Copysign(0, -1))
	SetDouble(m2, s.f64, 0)

	require.True(t, IsEqual(m1, m2, s.mt, 0))
	require.Equal(t, Hash(m1, s.mt), Hash(m2, s.mt))
}

func TestHash_DistinguishesFields(t *testing.T) {
	s := newTestSchema(t)
	a := newTestArena(t)
	m1, m2 := s.newMessage(t, a), s.newMessage(t, a)

	SetInt32(m1, s.i32, 1)
	SetUInt32(m2, s.u32, 1)
	require.NotEqual(t, Hash(m1, s.mt), Hash(m2, s.mt))
}
