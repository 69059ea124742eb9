package arena

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/arloliu/minipb/internal/options"
)

const (
	// DefaultChunkSize is the size of each memory chunk requested from the Go heap.
	DefaultChunkSize = 64 * 1024 // 64KiB
	// MinChunkSize is the smallest accepted chunk size.
	MinChunkSize = 256
)

type config struct {
	chunkSize int
	maxBytes  int
	logger    zerolog.Logger
}

func defaultConfig() *config {
	return &config{
		chunkSize: DefaultChunkSize,
		logger:    zerolog.Nop(),
	}
}

// Option configures an Arena.
type Option = options.Option[*config]

// WithChunkSize sets the size of the chunks the arena carves allocations from.
//
// Allocations larger than the chunk size get a dedicated chunk.
func WithChunkSize(n int) Option {
	return options.New(func(c *config) error {
		if n < MinChunkSize {
			return fmt.Errorf("chunk size %d is below minimum %d", n, MinChunkSize)
		}
		c.chunkSize = n

		return nil
	})
}

// WithMaxBytes caps the total number of bytes the arena may hand out.
// Zero means unlimited. Exceeding the cap fails with errs.ErrArenaExhausted.
func WithMaxBytes(n int) Option {
	return options.New(func(c *config) error {
		if n < 0 {
			return fmt.Errorf("max bytes must not be negative: %d", n)
		}
		c.maxBytes = n

		return nil
	})
}

// WithLogger sets the logger used for chunk growth, fusing and exhaustion events.
func WithLogger(logger zerolog.Logger) Option {
	return options.NoError(func(c *config) {
		c.logger = logger
	})
}
