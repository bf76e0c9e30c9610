// Package scoring computes the weighted pollution score for a measurement
// and classifies it into a risk bucket.
package scoring

import (
	"math"

	"github.com/haebin/sujil/internal/domain/model"
)

// Default scoring configuration constants.
const (
	// DefaultTpWeight weights total phosphorus, the primary indicator.
	DefaultTpWeight = 0.99
	// DefaultTnWeight weights total nitrogen, the secondary indicator.
	DefaultTnWeight = 0.01

	// Default bucket lower bounds. Each boundary belongs to the higher bucket.
	DefaultMediumThreshold   = 0.5
	DefaultHighThreshold     = 1.0
	DefaultVeryHighThreshold = 2.0
)

// Option applies a configuration option to the WeightedCalculator.
type Option func(*WeightedCalculator)

// WithWeights sets the Tp and Tn weights. Negative weights are ignored.
func WithWeights(tpWeight, tnWeight float64) Option {
	return func(c *WeightedCalculator) {
		if tpWeight >= 0 && tnWeight >= 0 {
			c.tpWeight = tpWeight
			c.tnWeight = tnWeight
		}
	}
}

// WithThresholds sets the lower bounds of the medium, high and very_high
// buckets. The option is ignored unless 0 <= medium < high < veryHigh.
func WithThresholds(medium, high, veryHigh float64) Option {
	return func(c *WeightedCalculator) {
		if medium >= 0 && medium < high && high < veryHigh {
			c.medium = medium
			c.high = high
			c.veryHigh = veryHigh
		}
	}
}

// Calculator scores measurements and classifies scores into risk buckets.
type Calculator interface {
	// Score returns the weighted score for a Tp/Tn pair. The second return
	// is false when the pair cannot be scored (either value absent or NaN).
	Score(tp, tn *float64) (float64, bool)

	// Classify maps a score onto a risk bucket. Scores outside [0, +inf)
	// are a contract violation and return ErrInvalidInput.
	Classify(score float64) (model.RiskBucket, error)
}

// WeightedCalculator implements Calculator with a two-term weighted sum.
type WeightedCalculator struct {
	tpWeight float64
	tnWeight float64

	// Bucket lower bounds, half-open intervals:
	// [0, medium) low, [medium, high) medium, [high, veryHigh) high,
	// [veryHigh, +inf) very_high.
	medium   float64
	high     float64
	veryHigh float64
}

// NewWeightedCalculator creates a calculator with default weights and
// thresholds, then applies options.
func NewWeightedCalculator(opts ...Option) *WeightedCalculator {
	c := &WeightedCalculator{
		tpWeight: DefaultTpWeight,
		tnWeight: DefaultTnWeight,
		medium:   DefaultMediumThreshold,
		high:     DefaultHighThreshold,
		veryHigh: DefaultVeryHighThreshold,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Score computes tp*tpWeight + tn*tnWeight with no intermediate rounding.
func (c *WeightedCalculator) Score(tp, tn *float64) (float64, bool) {
	if tp == nil || tn == nil {
		return 0, false
	}
	if math.IsNaN(*tp) || math.IsNaN(*tn) {
		return 0, false
	}
	return *tp*c.tpWeight + *tn*c.tnWeight, true
}

// Classify is total on [0, +inf). A negative or NaN score is rejected
// rather than silently bucketed.
func (c *WeightedCalculator) Classify(score float64) (model.RiskBucket, error) {
	if math.IsNaN(score) || score < 0 {
		return "", ErrInvalidInput
	}
	switch {
	case score < c.medium:
		return model.BucketLow, nil
	case score < c.high:
		return model.BucketMedium, nil
	case score < c.veryHigh:
		return model.BucketHigh, nil
	default:
		return model.BucketVeryHigh, nil
	}
}
