package collision

import (
	"fmt"

	"github.com/arloliu/minipb/errs"
	"github.com/arloliu/minipb/internal/hash"
)

// Tracker tracks message type names of one schema and detects type ID collisions.
// It maintains a map of ID-to-name mappings and the names in declaration order.
type Tracker struct {
	names        map[uint64]string // ID → name mapping for collision detection
	namesList    []string          // Declaration order
	hasCollision bool              // Whether two names share an ID
}

// NewTracker creates a new collision tracker.
func NewTracker() *Tracker {
	return &Tracker{
		names:     make(map[uint64]string),
		namesList: make([]string, 0),
	}
}

// Track records a message type name.
//
// Returns an error wrapping errs.ErrInvalidSchema if the name is empty or was
// tracked before.
//
// Note: ID collisions (different names, same ID) are NOT errors here. Both
// types stay usable; only their hashes share a seed.
func (t *Tracker) Track(name string) error {
	if name == "" {
		return fmt.Errorf("%w: message without name", errs.ErrInvalidSchema)
	}

	id := hash.ID(name)
	if existing, exists := t.names[id]; exists {
		if existing == name {
			return fmt.Errorf("%w: duplicate message %q", errs.ErrInvalidSchema, name)
		}
		t.hasCollision = true
	}

	t.names[id] = name
	t.namesList = append(t.namesList, name)

	return nil
}

// HasCollision returns true if two tracked names share a type ID.
func (t *Tracker) HasCollision() bool {
	return t.hasCollision
}

// Names returns the tracked names in the order Track was called.
func (t *Tracker) Names() []string {
	return t.namesList
}

// Count returns the number of tracked names.
func (t *Tracker) Count() int {
	return len(t.namesList)
}
