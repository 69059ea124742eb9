package hash

import (
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestID(t *testing.T) {
	tests := []struct {
		name string
		data string
		id   uint64
	}{
		{"empty string", "", 0xef46db3751d8e999},
		{"short string", "test", 0x4fdcca5ddb678139},
		{"long string", "this is a longer test string to hash", 0x69275f7f7ee59dbd},
		{"another string", "another test string", 0x212a22f593810bec},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.id, ID(tt.data))
		})
	}
}

func sum(fn func(w *Writer)) uint64 {
	w := NewWriter(xxhash.New())
	fn(w)

	return w.Sum64()
}

func TestWriter_Uint64(t *testing.T) {
	got := sum(func(w *Writer) { w.Uint64(0x0102030405060708) })
	want := xxhash.Sum64([]byte{8, 7, 6, 5, 4, 3, 2, 1})
	require.Equal(t, want, got)
}

func TestWriter_Float64_NegativeZero(t *testing.T) {
	pos := sum(func(w *Writer) { w.Float64(0) })
	neg := sum(func(w *Writer) { w.Float64(math.Copysign(0, -1)) })
	require.Equal(t, pos, neg)

	one := sum(func(w *Writer) { w.Float64(1) })
	require.NotEqual(t, pos, one)
}

func TestWriter_Bytes_LengthPrefixed(t *testing.T) {
	ab := sum(func(w *Writer) {
		w.Bytes([]byte("a"))
		w.Bytes([]byte("b"))
	})
	joined := sum(func(w *Writer) {
		w.Bytes([]byte("ab"))
		w.Bytes(nil)
	})
	require.NotEqual(t, ab, joined)
}

func TestWriter_Tag(t *testing.T) {
	a := sum(func(w *Writer) { w.Tag(TagField) })
	b := sum(func(w *Writer) { w.Tag(TagArray) })
	require.NotEqual(t, a, b)
	require.Equal(t, xxhash.Sum64([]byte{TagField}), a)
}

func randString(n int) string {
	const letters = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"
	b := make([]byte, n)
	seededRand := rand.New(rand.NewSource(time.Now().UnixNano()))
	for i := range b {
		b[i] = letters[seededRand.Intn(len(letters))]
	}

	return string(b)
}

func BenchmarkID(b *testing.B) {
	randStr := randString(20)
	b.ResetTimer()
	for b.Loop() {
		ID(randStr)
	}
}

func BenchmarkWriter_Bytes(b *testing.B) {
	data := []byte(randString(64))
	w := NewWriter(xxhash.New())
	b.ResetTimer()
	for b.Loop() {
		w.Bytes(data)
	}
}
