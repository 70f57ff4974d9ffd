package subpoll

import (
	rand "math/rand/v2"
	"time"
)

// retryBackoff produces the delays between failed polls.
//
// Delays use decorrelated jitter with a cap: each delay is drawn from
// [base, prev*multiplier) and clamped to max. See
// https://aws.amazon.com/blogs/architecture/exponential-backoff-and-jitter/
//
// Not safe for concurrent use; the poll loop owns it.
type retryBackoff struct {
	base time.Duration
	max  time.Duration
	mult float64
	rng  *rand.Rand
	prev time.Duration
}

func newRetryBackoff(cfg RetryConfig) *retryBackoff {
	return &retryBackoff{
		base: cfg.BaseBackoff,
		max:  cfg.MaxBackoff,
		mult: cfg.Multiplier,
		rng:  newRetryRNG(cfg.Seed),
	}
}

// Next returns the next delay and remembers it.
func (b *retryBackoff) Next() time.Duration {
	b.prev = jitterBackoff(b.prev, b.base, b.mult, b.max, b.rng)

	return b.prev
}

// Reset restarts the sequence at base.
func (b *retryBackoff) Reset() {
	b.prev = 0
}

func jitterBackoff(prev, base time.Duration, mult float64, capDur time.Duration, rng *rand.Rand) time.Duration {
	if base <= 0 {
		base = 50 * time.Millisecond
	}
	if mult < 1.0 {
		mult = 1.0
	}
	if capDur > 0 && capDur < base {
		return capDur
	}
	if prev <= 0 {
		return base
	}

	span := time.Duration(float64(prev)*mult) - base
	if span <= 0 {
		span = base
	}

	var jitter int64
	if rng != nil {
		jitter = rng.Int64N(int64(span))
	} else {
		jitter = rand.Int64N(int64(span)) //nolint:gosec // non-crypto backoff jitter
	}

	next := base + time.Duration(jitter)
	if capDur > 0 && next > capDur {
		return capDur
	}

	return next
}

// newRetryRNG returns a deterministic RNG only when a non-zero seed is provided.
// With seed == 0 it returns nil and the package-level PRNG is used.
//
//nolint:gosec
func newRetryRNG(seed int64) *rand.Rand {
	if seed == 0 {
		return nil
	}
	s1 := uint64(seed)
	s2 := s1 ^ 0x9e3779b97f4a7c15

	return rand.New(rand.NewPCG(s1, s2))
}
