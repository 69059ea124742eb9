package pool

import "sync"

var keySlicePool = sync.Pool{
	New: func() any { return &[]string{} },
}

// GetKeySlice retrieves an empty string slice with at least the given capacity.
//
// Map iteration collects encoded keys into it before sorting them. The caller
// must call the returned cleanup function to return the slice to the pool.
//
// Parameters:
//   - capacity: The minimum capacity of the slice
//
// Returns:
//   - []string: An empty slice with cap >= capacity
//   - func(): Cleanup function that must be called (typically with defer) to return the slice to the pool
//
// Example:
//
//	keys, cleanup := pool.GetKeySlice(len(entries))
//	defer cleanup()
//	for k := range entries {
//		keys = append(keys, k)
//	}
func GetKeySlice(capacity int) ([]string, func()) {
	ptr, _ := keySlicePool.Get().(*[]string)
	slice := (*ptr)[:0]

	if cap(slice) < capacity {
		slice = make([]string, 0, capacity)
	}
	*ptr = slice

	return slice, func() {
		clear((*ptr)[:cap(*ptr)])
		keySlicePool.Put(ptr)
	}
}
