package pool

import (
	"sync"

	"github.com/cespare/xxhash/v2"
)

var digestPool = sync.Pool{
	New: func() any { return xxhash.New() },
}

// GetDigest retrieves a reset xxHash64 digest from the pool.
func GetDigest() *xxhash.Digest {
	d, _ := digestPool.Get().(*xxhash.Digest)
	d.Reset()

	return d
}

// PutDigest returns a digest to the pool.
func PutDigest(d *xxhash.Digest) {
	if d == nil {
		return
	}
	digestPool.Put(d)
}
