package engine

import (
	"fmt"
	"time"
)

// Config contains configuration for the admission engine.
type Config struct {
	// TickInterval is the fixed rate of the Run loop.
	// Default: 100ms.
	TickInterval time.Duration

	// QueueSize is the capacity of the cross-goroutine candidate queue
	// drained once per tick. Default: 1024.
	QueueSize int

	// MaxCandidatesPerTick caps the candidate batch a single tick will
	// consider. Default: 256.
	MaxCandidatesPerTick int

	// MaxRules caps the registry size to guard against runaway rule
	// generation. Default: 1000.
	MaxRules int
}

// DefaultConfig returns the default engine configuration.
func DefaultConfig() *Config {
	return &Config{
		TickInterval:         100 * time.Millisecond,
		QueueSize:            1024,
		MaxCandidatesPerTick: 256,
		MaxRules:             1000,
	}
}

// Validate validates the engine configuration.
func (c *Config) Validate() error {
	if c.TickInterval <= 0 {
		return fmt.Errorf("%w: tick interval must be positive", ErrInvalidConfig)
	}
	if c.QueueSize <= 0 {
		return fmt.Errorf("%w: queue size must be positive", ErrInvalidConfig)
	}
	if c.MaxCandidatesPerTick <= 0 {
		return fmt.Errorf("%w: max candidates per tick must be positive", ErrInvalidConfig)
	}
	if c.MaxRules <= 0 {
		return fmt.Errorf("%w: max rules must be positive", ErrInvalidConfig)
	}
	return nil
}
