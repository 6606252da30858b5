package delay

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"warmpool/internal/store"
)

func TestCalculateFloor(t *testing.T) {
	configs := []*store.DelayConfig{
		{Strategy: store.DelayFixed, FixedSeconds: 1},
		{Strategy: store.DelayRandom, MinSeconds: 1, MaxSeconds: 3},
		{Strategy: store.DelayHuman},
		{Strategy: store.DelayProgressive, MinSeconds: 1, MaxSeconds: 2},
		{Strategy: "bogus"},
		nil,
	}

	for _, cfg := range configs {
		for n := 0; n < 25; n++ {
			d := Calculate(cfg, n)
			assert.GreaterOrEqual(t, d, Minimum, "config %+v at n=%d", cfg, n)
		}
	}
}

func TestCalculateFixed(t *testing.T) {
	cfg := &store.DelayConfig{Strategy: store.DelayFixed, FixedSeconds: 45}
	assert.Equal(t, 45*time.Second, Calculate(cfg, 0))
	assert.Equal(t, 45*time.Second, Calculate(cfg, 100))
}

func TestCalculateRandomRange(t *testing.T) {
	cfg := &store.DelayConfig{Strategy: store.DelayRandom, MinSeconds: 20, MaxSeconds: 40}
	for i := 0; i < 50; i++ {
		d := Calculate(cfg, 0)
		assert.GreaterOrEqual(t, d, 20*time.Second)
		assert.LessOrEqual(t, d, 40*time.Second)
	}
}

func TestCalculateHumanRange(t *testing.T) {
	cfg := &store.DelayConfig{Strategy: store.DelayHuman}
	for i := 0; i < 50; i++ {
		d := Calculate(cfg, 0)
		assert.GreaterOrEqual(t, d, 60*time.Second)
		// 60 base + 60 variation + 180 distraction
		assert.LessOrEqual(t, d, 300*time.Second)
	}
}

func TestCalculateProgressiveRamp(t *testing.T) {
	cfg := &store.DelayConfig{Strategy: store.DelayProgressive, MinSeconds: 30, MaxSeconds: 300}

	// At n=0 the ramp starts at min, modulo +/- 15s jitter.
	for i := 0; i < 20; i++ {
		d := Calculate(cfg, 0)
		assert.GreaterOrEqual(t, d, 15*time.Second)
		assert.LessOrEqual(t, d, 45*time.Second)
	}

	// At and beyond 20 interactions the ramp is capped at max.
	for _, n := range []int{20, 50, 1000} {
		for i := 0; i < 20; i++ {
			d := Calculate(cfg, n)
			assert.GreaterOrEqual(t, d, 285*time.Second)
			assert.LessOrEqual(t, d, 315*time.Second)
		}
	}
}

func TestCalculateProgressiveMonotonicMidpoint(t *testing.T) {
	cfg := &store.DelayConfig{Strategy: store.DelayProgressive, MinSeconds: 30, MaxSeconds: 300}
	// Halfway through the ramp: 30 + 10*13.5 = 165, +/- 15s.
	d := Calculate(cfg, 10)
	assert.GreaterOrEqual(t, d, 150*time.Second)
	assert.LessOrEqual(t, d, 180*time.Second)
}

func TestTypingDurationClamps(t *testing.T) {
	assert.Equal(t, time.Second, TypingDuration(0))

	for i := 0; i < 20; i++ {
		d := TypingDuration(10)
		assert.GreaterOrEqual(t, d, time.Second)
		assert.LessOrEqual(t, d, 2*time.Second)
	}

	// Very long text clamps at the upper bound.
	assert.Equal(t, 15*time.Second, TypingDuration(10000))
}
