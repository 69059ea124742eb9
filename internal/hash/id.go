package hash

import (
	"math"

	"github.com/cespare/xxhash/v2"
)

// Tags separating the kinds of values written into a message digest.
const (
	TagField     byte = 0x01
	TagArray     byte = 0x02
	TagMap       byte = 0x03
	TagMessage   byte = 0x04
	TagExtension byte = 0x05
	TagEnd       byte = 0x06
)

// ID computes the xxHash64 of the given string.
func ID(data string) uint64 {
	return xxhash.Sum64String(data)
}

// Writer feeds fixed-width values into an xxHash64 digest.
type Writer struct {
	d   *xxhash.Digest
	buf [9]byte
}

// NewWriter returns a Writer over d.
func NewWriter(d *xxhash.Digest) *Writer {
	return &Writer{d: d}
}

// Tag writes a single tag byte.
func (w *Writer) Tag(t byte) {
	w.buf[0] = t
	_, _ = w.d.Write(w.buf[:1])
}

// Uint64 writes v as 8 little-endian bytes.
func (w *Writer) Uint64(v uint64) {
	for i := range 8 {
		w.buf[i] = byte(v >> (8 * i))
	}
	_, _ = w.d.Write(w.buf[:8])
}

// Float64 writes v with -0 folded into 0.
func (w *Writer) Float64(v float64) {
	if v == 0 {
		v = 0
	}
	w.Uint64(math.Float64bits(v))
}

// Bytes writes b prefixed by its length.
func (w *Writer) Bytes(b []byte) {
	w.Uint64(uint64(len(b)))
	_, _ = w.d.Write(b)
}

// Sum64 returns the current digest value.
func (w *Writer) Sum64() uint64 {
	return w.d.Sum64()
}
