package streamly

import (
	"runtime"

	"github.com/ygrebnov/errorc"

	"github.com/Unisay/streamly/metrics"
	"github.com/Unisay/streamly/ratelimit"
)

// config holds per-stream construction parameters. There is no
// process-wide ambient configuration: every stream carries its own.
type config struct {
	// MaxWorkers caps the number of simultaneously running workers.
	// Default: GOMAXPROCS.
	MaxWorkers int

	// MaxBuffer caps the number of buffered output slots. Workers block
	// (and the dispatcher refuses to spawn) once the buffer is at
	// capacity. Default: 64.
	MaxBuffer int

	// Rate is the aggregate emission target in items per second shared
	// by all workers of one stream. Zero means unlimited.
	Rate float64

	// Metrics receives engine instrumentation. Default: no-op.
	Metrics metrics.Provider
}

func defaultConfig() config {
	return config{
		MaxWorkers: runtime.GOMAXPROCS(0),
		MaxBuffer:  64,
		Rate:       0,
		Metrics:    metrics.NewNoopProvider(),
	}
}

// validateConfig fails fast on capacity misconfiguration. Options
// already reject bad values at the call site; this guards the composed
// result.
func validateConfig(cfg *config) error {
	if cfg.MaxWorkers <= 0 {
		return errorc.With(ErrInvalidConfig, errorc.String("", "MaxWorkers must be positive"))
	}
	if cfg.MaxBuffer <= 0 {
		return errorc.With(ErrInvalidConfig, errorc.String("", "MaxBuffer must be positive"))
	}
	if cfg.Rate < 0 {
		return errorc.With(ErrInvalidConfig, errorc.String("", "rate must not be negative"))
	}
	if cfg.Metrics == nil {
		return errorc.With(ErrInvalidConfig, errorc.String("", "metrics provider must not be nil"))
	}
	return nil
}

func (cfg *config) limiter() ratelimit.Limiter {
	if cfg.Rate <= 0 {
		return ratelimit.Unlimited()
	}
	return ratelimit.New(cfg.Rate)
}

// Option configures a stream at construction. Invalid inputs are
// reported as errors wrapping ErrInvalidConfig rather than panics.
type Option func(*config) error

// WithMaxWorkers caps concurrent workers at n (must be > 0).
func WithMaxWorkers(n int) Option {
	return func(cfg *config) error {
		if n <= 0 {
			return errorc.With(ErrInvalidConfig, errorc.String("", "WithMaxWorkers requires n > 0"))
		}
		cfg.MaxWorkers = n
		return nil
	}
}

// WithMaxBuffer caps buffered output slots at n (must be > 0).
func WithMaxBuffer(n int) Option {
	return func(cfg *config) error {
		if n <= 0 {
			return errorc.With(ErrInvalidConfig, errorc.String("", "WithMaxBuffer requires n > 0"))
		}
		cfg.MaxBuffer = n
		return nil
	}
}

// WithRateLimit sets the aggregate emission target in items per second
// (must be > 0; omit the option for unlimited).
func WithRateLimit(perSecond float64) Option {
	return func(cfg *config) error {
		if perSecond <= 0 {
			return errorc.With(ErrInvalidConfig, errorc.String("", "WithRateLimit requires a positive rate"))
		}
		cfg.Rate = perSecond
		return nil
	}
}

// WithMetrics injects a metrics provider (must not be nil).
func WithMetrics(p metrics.Provider) Option {
	return func(cfg *config) error {
		if p == nil {
			return errorc.With(ErrInvalidConfig, errorc.String("", "WithMetrics requires a non-nil provider"))
		}
		cfg.Metrics = p
		return nil
	}
}
