package minitable

import (
	"fmt"

	"github.com/arloliu/minipb/errs"
)

type extensionKey struct {
	extendee *MiniTable
	number   int32
}

// ExtensionRegistry maps (extendee, field number) pairs to extensions.
//
// The zero value is not usable; create registries with NewExtensionRegistry.
// A registry is read-only once shared and then safe for concurrent lookups.
type ExtensionRegistry struct {
	exts map[extensionKey]*Extension
}

// NewExtensionRegistry creates an empty registry.
func NewExtensionRegistry() *ExtensionRegistry {
	return &ExtensionRegistry{exts: make(map[extensionKey]*Extension)}
}

// Add registers extensions. Registering the same extension twice is a no-op;
// registering a different extension under a taken key fails with
// errs.ErrDuplicateExtension and leaves the remaining extensions unregistered.
func (r *ExtensionRegistry) Add(exts ...*Extension) error {
	for _, ext := range exts {
		key := extensionKey{extendee: ext.extendee, number: ext.field.number}
		if existing, ok := r.exts[key]; ok {
			if existing == ext {
				continue
			}

			return fmt.Errorf("%w: %s extension %d", errs.ErrDuplicateExtension, ext.extendee.name, ext.field.number)
		}
		r.exts[key] = ext
	}

	return nil
}

// Lookup returns the extension of extendee with the given number, or nil.
// A nil registry finds nothing.
func (r *ExtensionRegistry) Lookup(extendee *MiniTable, number int32) *Extension {
	if r == nil {
		return nil
	}

	return r.exts[extensionKey{extendee: extendee, number: number}]
}

// Len returns the number of registered extensions.
func (r *ExtensionRegistry) Len() int {
	if r == nil {
		return 0
	}

	return len(r.exts)
}
