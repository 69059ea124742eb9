package pbbridge

import (
	"github.com/rs/zerolog"

	"github.com/arloliu/minipb/internal/options"
)

type config struct {
	logger zerolog.Logger
}

// Option configures a Loader.
type Option = options.Option[*config]

// WithLogger sets the logger reporting every mini table the loader builds.
func WithLogger(logger zerolog.Logger) Option {
	return options.NoError(func(c *config) {
		c.logger = logger
	})
}
