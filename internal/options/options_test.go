package options

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type limits struct {
	chunk int
	max   int
	calls []string
}

func withChunk(n int) Option[*limits] {
	return New(func(l *limits) error {
		if n <= 0 {
			return errors.New("chunk size must be positive")
		}
		l.chunk = n
		l.calls = append(l.calls, "chunk")

		return nil
	})
}

func withMax(n int) Option[*limits] {
	return NoError(func(l *limits) {
		l.max = n
		l.calls = append(l.calls, "max")
	})
}

func TestApply_Order(t *testing.T) {
	l := &limits{}

	err := Apply(l, withMax(10), withChunk(4), withMax(20))
	require.NoError(t, err)
	require.Equal(t, 4, l.chunk)
	require.Equal(t, 20, l.max)
	require.Equal(t, []string{"max", "chunk", "max"}, l.calls)
}

func TestApply_StopsAtFirstError(t *testing.T) {
	l := &limits{}

	err := Apply(l, withChunk(0), withMax(10))
	require.Error(t, err)
	require.Contains(t, err.Error(), "chunk size must be positive")
	require.Zero(t, l.max)
	require.Empty(t, l.calls)
}

func TestApply_SkipsNil(t *testing.T) {
	l := &limits{}

	err := Apply(l, nil, withMax(3))
	require.NoError(t, err)
	require.Equal(t, 3, l.max)
}

func TestApply_NoOptions(t *testing.T) {
	l := &limits{chunk: 8}

	require.NoError(t, Apply(l))
	require.Equal(t, 8, l.chunk)
}
