package streamly

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Unisay/streamly/metrics"
)

func TestOptions_Invalid(t *testing.T) {
	tests := []struct {
		name string
		opt  Option
	}{
		{"zero workers", WithMaxWorkers(0)},
		{"negative workers", WithMaxWorkers(-3)},
		{"zero buffer", WithMaxBuffer(0)},
		{"negative buffer", WithMaxBuffer(-1)},
		{"zero rate", WithRateLimit(0)},
		{"negative rate", WithRateLimit(-2.5)},
		{"nil metrics", WithMetrics(nil)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			err := tt.opt(&cfg)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestOptions_Valid(t *testing.T) {
	cfg := defaultConfig()
	require.NoError(t, WithMaxWorkers(8)(&cfg))
	require.NoError(t, WithMaxBuffer(16)(&cfg))
	require.NoError(t, WithRateLimit(100)(&cfg))
	require.NoError(t, WithMetrics(metrics.NewBasicProvider())(&cfg))

	assert.Equal(t, 8, cfg.MaxWorkers)
	assert.Equal(t, 16, cfg.MaxBuffer)
	assert.Equal(t, 100.0, cfg.Rate)
	require.NoError(t, validateConfig(&cfg))
}

func TestDefaults_AreValid(t *testing.T) {
	cfg := defaultConfig()
	require.NoError(t, validateConfig(&cfg))
	assert.Positive(t, cfg.MaxWorkers)
	assert.Positive(t, cfg.MaxBuffer)
	assert.Zero(t, cfg.Rate)
	assert.NotNil(t, cfg.Metrics)
}

func TestNew_RejectsBadConstruction(t *testing.T) {
	ctx := context.Background()

	_, err := New[int](ctx, Eager, nil, WithMaxWorkers(0))
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = New[int](ctx, Policy(42), nil)
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = New[int](ctx, Ahead, nil, WithMaxBuffer(-1))
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestNew_NilOptionIgnored(t *testing.T) {
	s, err := New[int](context.Background(), Eager, []Producer[int]{FromSlice([]int{1})}, nil)
	require.NoError(t, err)
	got, err := Collect[int](context.Background(), s)
	require.NoError(t, err)
	assert.Equal(t, []int{1}, got)
}

func TestPolicy_String(t *testing.T) {
	names := map[Policy]string{
		Sequential: "sequential",
		Eager:      "eager",
		RoundRobin: "round-robin",
		Ahead:      "ahead",
		Policy(99): "unknown",
	}
	for p, want := range names {
		if got := p.String(); got != want {
			t.Fatalf("Policy(%d).String() = %q, want %q", p, got, want)
		}
	}
}

func TestErrorSentinels_AreDistinct(t *testing.T) {
	sentinels := []error{ErrEndOfStream, ErrCanceled, ErrStreamClosed, ErrInvalidConfig}
	for i, a := range sentinels {
		for j, b := range sentinels {
			if i != j && errors.Is(a, b) {
				t.Fatalf("sentinel %v unexpectedly matches %v", a, b)
			}
		}
	}
}
