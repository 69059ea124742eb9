package arena

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/arloliu/minipb/errs"
)

func TestNew_Defaults(t *testing.T) {
	a, err := New()
	require.NoError(t, err)
	require.NotZero(t, a.ID())

	stats := a.Stats()
	require.Zero(t, stats.Allocated)
	require.Zero(t, stats.Chunks)
	require.Zero(t, stats.Handles)
}

func TestNew_InvalidOptions(t *testing.T) {
	_, err := New(WithChunkSize(16))
	require.Error(t, err)

	_, err = New(WithMaxBytes(-1))
	require.Error(t, err)
}

func TestNew_UniqueIDs(t *testing.T) {
	a, err := New()
	require.NoError(t, err)
	b, err := New()
	require.NoError(t, err)

	require.NotEqual(t, a.ID(), b.ID())
}

func TestArena_Alloc(t *testing.T) {
	a, err := New(WithChunkSize(MinChunkSize))
	require.NoError(t, err)

	t.Run("zeroed and capped", func(t *testing.T) {
		b, err := a.Alloc(13)
		require.NoError(t, err)
		require.Len(t, b, 13)
		require.Equal(t, 13, cap(b))
		require.Equal(t, make([]byte, 13), b)
	})

	t.Run("aligned accounting", func(t *testing.T) {
		before := a.Stats().Allocated
		_, err := a.Alloc(1)
		require.NoError(t, err)
		require.Equal(t, before+8, a.Stats().Allocated)
	})

	t.Run("zero size", func(t *testing.T) {
		b, err := a.Alloc(0)
		require.NoError(t, err)
		require.Nil(t, b)
	})

	t.Run("negative size", func(t *testing.T) {
		_, err := a.Alloc(-1)
		require.Error(t, err)
	})

	t.Run("oversized request gets its own chunk", func(t *testing.T) {
		chunks := a.Stats().Chunks
		b, err := a.Alloc(4 * MinChunkSize)
		require.NoError(t, err)
		require.Len(t, b, 4*MinChunkSize)
		require.Equal(t, chunks+1, a.Stats().Chunks)
	})
}

func TestArena_AllocationsDoNotOverlap(t *testing.T) {
	a, err := New(WithChunkSize(MinChunkSize))
	require.NoError(t, err)

	blocks := make([][]byte, 0, 100)
	for i := range 100 {
		b, err := a.Alloc(24)
		require.NoError(t, err)
		for j := range b {
			b[j] = byte(i)
		}
		blocks = append(blocks, b)
	}

	for i, b := range blocks {
		require.Equal(t, bytes.Repeat([]byte{byte(i)}, 24), b)
	}
}

func TestArena_NewBlock(t *testing.T) {
	a, err := New()
	require.NoError(t, err)

	ref, b, err := a.NewBlock(16)
	require.NoError(t, err)
	require.False(t, ref.IsNull())
	require.Equal(t, a.ID(), ref.ArenaID())

	b[3] = 0xAB
	require.Equal(t, byte(0xAB), a.Block(ref)[3])
	require.Equal(t, a, a.Owner(ref))
	require.Equal(t, 1, a.Stats().Handles)
}

func TestArena_Register(t *testing.T) {
	a, err := New()
	require.NoError(t, err)

	obj := &struct{ n int }{n: 7}
	ref, err := a.Register(obj, 32)
	require.NoError(t, err)
	require.Same(t, obj, a.Object(ref))
	require.Nil(t, a.Block(ref))
	require.Equal(t, 32, a.Stats().Allocated)
}

func TestArena_NullRef(t *testing.T) {
	a, err := New()
	require.NoError(t, err)

	require.True(t, NullRef.IsNull())
	require.Nil(t, a.Block(NullRef))
	require.Nil(t, a.Object(NullRef))
	require.Nil(t, a.Owner(NullRef))
	require.Equal(t, "ref(null)", NullRef.String())
}

func TestArena_MaxBytes(t *testing.T) {
	a, err := New(WithMaxBytes(64))
	require.NoError(t, err)

	_, err = a.Alloc(48)
	require.NoError(t, err)

	_, err = a.Alloc(24)
	require.ErrorIs(t, err, errs.ErrArenaExhausted)

	// a failed allocation charges nothing
	_, err = a.Alloc(16)
	require.NoError(t, err)
	require.Equal(t, 64, a.Stats().Allocated)

	_, _, err = a.NewBlock(1)
	require.ErrorIs(t, err, errs.ErrArenaExhausted)

	require.ErrorIs(t, a.Reserve(1), errs.ErrArenaExhausted)

	_, err = a.Register(struct{}{}, 1)
	require.ErrorIs(t, err, errs.ErrArenaExhausted)
}

func TestArena_ForeignRefPanics(t *testing.T) {
	a, err := New()
	require.NoError(t, err)
	b, err := New()
	require.NoError(t, err)

	ref, _, err := b.NewBlock(8)
	require.NoError(t, err)

	require.Panics(t, func() { a.Block(ref) })
}

func TestArena_Fuse(t *testing.T) {
	a, err := New()
	require.NoError(t, err)
	b, err := New()
	require.NoError(t, err)
	c, err := New()
	require.NoError(t, err)

	refB, _, err := b.NewBlock(8)
	require.NoError(t, err)
	refC, _, err := c.NewBlock(8)
	require.NoError(t, err)

	require.False(t, a.IsFused(b))

	a.Fuse(b)
	require.True(t, a.IsFused(b))
	require.True(t, b.IsFused(a))
	require.False(t, a.IsFused(c))
	require.Equal(t, b, a.Owner(refB))

	// transitive
	c.Fuse(b)
	require.True(t, a.IsFused(c))
	require.Equal(t, c, a.Owner(refC))
	require.Equal(t, b, c.Owner(refB))

	// idempotent and nil-safe
	a.Fuse(c)
	a.Fuse(a)
	a.Fuse(nil)
	require.False(t, a.IsFused(nil))
}

func TestArena_Free(t *testing.T) {
	a, err := New()
	require.NoError(t, err)

	ref, _, err := a.NewBlock(8)
	require.NoError(t, err)

	a.Free()
	a.Free()

	_, err = a.Alloc(8)
	require.ErrorIs(t, err, errs.ErrArenaFreed)
	require.Panics(t, func() { a.Block(ref) })
}

func TestArena_FreeFusedGroup(t *testing.T) {
	a, err := New()
	require.NoError(t, err)
	b, err := New()
	require.NoError(t, err)
	a.Fuse(b)

	refB, _, err := b.NewBlock(8)
	require.NoError(t, err)

	b.Free()
	// memory stays alive while a fused member is still live
	require.NotNil(t, a.Block(refB))

	a.Free()
	require.Panics(t, func() { a.Block(refB) })
}

func TestArena_Logger(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf).Level(zerolog.DebugLevel)

	a, err := New(WithLogger(logger), WithMaxBytes(8))
	require.NoError(t, err)

	_, err = a.Alloc(8)
	require.NoError(t, err)
	_, err = a.Alloc(8)
	require.ErrorIs(t, err, errs.ErrArenaExhausted)

	require.Contains(t, buf.String(), "arena chunk allocated")
	require.Contains(t, buf.String(), "arena exhausted")
}

func TestRef_String(t *testing.T) {
	ref := makeRef(3, 4)
	require.Equal(t, uint32(3), ref.ArenaID())
	require.Equal(t, "ref(3:4)", ref.String())
}
