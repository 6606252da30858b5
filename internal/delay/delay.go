// Package delay computes inter-interaction wait durations from the configured
// pacing strategy. Pure: no clock, no storage, no goroutines.
package delay

import (
	"math/rand"
	"time"

	"warmpool/internal/store"
)

// Minimum enforced across every strategy so misconfiguration can never
// produce machine-gun pacing.
const Minimum = 10 * time.Second

// Calculate returns the wait before the next interaction, given the pacing
// configuration and the number of interactions already performed. The result
// is always >= Minimum and rounded down to whole milliseconds.
func Calculate(cfg *store.DelayConfig, interactionCount int) time.Duration {
	if cfg == nil {
		cfg = &store.DelayConfig{Strategy: store.DelayFixed}
	}

	var seconds float64

	switch cfg.Strategy {
	case store.DelayFixed:
		seconds = float64(orDefault(cfg.FixedSeconds, 60))

	case store.DelayRandom:
		min := orDefault(cfg.MinSeconds, 30)
		max := orDefault(cfg.MaxSeconds, 120)
		if max < min {
			min, max = max, min
		}
		seconds = float64(min + rand.Intn(max-min+1))

	case store.DelayHuman:
		// 1 minute base plus natural variation; 20% of the time a longer
		// pause simulating the user getting distracted.
		seconds = 60 + rand.Float64()*60
		if rand.Float64() < 0.2 {
			seconds += rand.Float64() * 180
		}

	case store.DelayProgressive:
		// Linear ramp from min to max over 20 interactions, then +/- 15s jitter.
		min := orDefault(cfg.MinSeconds, 30)
		max := orDefault(cfg.MaxSeconds, 300)
		increment := float64(max-min) / 20
		seconds = float64(min) + increment*float64(interactionCount)
		if seconds > float64(max) {
			seconds = float64(max)
		}
		seconds += rand.Float64()*30 - 15

	default:
		seconds = 60
	}

	if seconds < Minimum.Seconds() {
		seconds = Minimum.Seconds()
	}

	return time.Duration(seconds*1000) * time.Millisecond
}

// TypingDuration estimates how long a human would take to type text of the
// given length: 50-100ms per character plus up to a second of variance,
// clamped to [1s, 15s] so long templates don't look stuck.
func TypingDuration(textLen int) time.Duration {
	perChar := time.Duration(50+rand.Intn(51)) * time.Millisecond
	variance := time.Duration(rand.Intn(1000)) * time.Millisecond
	d := time.Duration(textLen)*perChar + variance
	if d < time.Second {
		d = time.Second
	}
	if d > 15*time.Second {
		d = 15 * time.Second
	}
	return d
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
