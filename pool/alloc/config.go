package alloc

import (
	"fmt"
	"log/slog"

	"github.com/kelseyhightower/envconfig"
)

// Backing values select the system memory provider of a pool.
const (
	BackingHeap = "heap"
	BackingMmap = "mmap"
)

const (
	// DefaultBlockSize is the slot threshold and expansion granularity used when
	// none is configured.
	DefaultBlockSize = 10

	// DefaultName labels pool metrics when no name is configured.
	DefaultName = "default"

	// EnvPrefix is the environment prefix read by LoadConfig when called with "".
	EnvPrefix = "POOLKIT"
)

// Config describes a pool. The zero value of every field selects its default.
type Config struct {
	// Name labels the pool in logs and metrics.
	Name string `split_words:"true"`

	// BlockSize is the largest count served from the pool's free lists.
	// Larger requests go straight to the provider.
	BlockSize int `split_words:"true"`

	// Granularity is the number of runs reserved per expansion.
	// Zero means BlockSize.
	Granularity int `split_words:"true"`

	// Limit caps the bytes the provider may hold at once. Zero means no cap.
	Limit int64 `split_words:"true"`

	// Backing selects the provider: BackingHeap or BackingMmap.
	Backing string `split_words:"true"`
}

// DefaultConfig returns the configuration of the classic ten-slot pool.
func DefaultConfig() Config {
	return Config{
		Name:        DefaultName,
		BlockSize:   DefaultBlockSize,
		Granularity: DefaultBlockSize,
		Backing:     BackingHeap,
	}
}

// LoadConfig reads a Config from the environment, e.g. POOLKIT_BLOCK_SIZE.
// Unset variables keep their defaults. An empty prefix means EnvPrefix.
func LoadConfig(prefix string) (Config, error) {
	if prefix == "" {
		prefix = EnvPrefix
	}
	var cfg Config
	if err := envconfig.Process(prefix, &cfg); err != nil {
		return Config{}, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// withDefaults fills zero fields.
func (c Config) withDefaults() Config {
	if c.Name == "" {
		c.Name = DefaultName
	}
	if c.BlockSize == 0 {
		c.BlockSize = DefaultBlockSize
	}
	if c.Granularity == 0 {
		c.Granularity = c.BlockSize
	}
	if c.Backing == "" {
		c.Backing = BackingHeap
	}
	return c
}

// Validate reports the first problem with c, wrapped in ErrInvalidConfig.
func (c Config) Validate() error {
	switch {
	case c.BlockSize < 1:
		return fmt.Errorf("%w: block size %d, must be >= 1", ErrInvalidConfig, c.BlockSize)
	case c.Granularity < 1:
		return fmt.Errorf("%w: granularity %d, must be >= 1", ErrInvalidConfig, c.Granularity)
	case c.Limit < 0:
		return fmt.Errorf("%w: negative limit %d", ErrInvalidConfig, c.Limit)
	case c.Backing != BackingHeap && c.Backing != BackingMmap:
		return fmt.Errorf("%w: unknown backing %q", ErrInvalidConfig, c.Backing)
	}
	return nil
}

// Option configures the ambient dependencies of a pool.
type Option func(*options)

type options struct {
	logger  *slog.Logger
	metrics *Metrics
}

// WithLogger sets the logger for expansion and teardown events.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithMetrics records pool activity into m. A nil m disables metrics.
func WithMetrics(m *Metrics) Option {
	return func(o *options) { o.metrics = m }
}
