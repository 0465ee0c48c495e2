package stats

import (
	"errors"
	"math"
)

// DefaultDailyVolume is the assumed number of sends per day when estimating
// test duration.
const DefaultDailyVolume = 1000

var (
	ErrZeroLift       = errors.New("lift must be greater than zero")
	ErrRateOutOfRange = errors.New("conversion rate must be within (0, 100] percent")
	ErrInvalidVolume  = errors.New("daily volume must be greater than zero")
	ErrLiftTooSmall   = errors.New("lift is too small to estimate a sample size")
)

// TestConfig describes the A/B test being sized. Rates are percentages.
type TestConfig struct {
	TestType    string
	BaseRatePct float64
	LiftPct     float64
	Confidence  Confidence
	DailyVolume int // DefaultDailyVolume when zero
}

// SampleSizeResult is the required traffic for a test.
type SampleSizeResult struct {
	PerVariant   int
	DurationDays int
}

// EstimateSampleSize computes the per-variant sample size needed to detect
// the configured lift:
//
//	n = 2 * p̄ * (1 - p̄) * (z / (p2 - p1))^2
//
// where p1 is the base rate, p2 the base rate plus lift and p̄ their mean.
// n is truncated; duration is n divided by daily volume, rounded up, and is
// never less than one day.
func EstimateSampleSize(cfg TestConfig) (SampleSizeResult, error) {
	if cfg.LiftPct <= 0 || math.IsNaN(cfg.LiftPct) {
		return SampleSizeResult{}, ErrZeroLift
	}
	if !(cfg.BaseRatePct > 0 && cfg.BaseRatePct <= 100) {
		return SampleSizeResult{}, ErrRateOutOfRange
	}
	if cfg.BaseRatePct+cfg.LiftPct > 100 {
		return SampleSizeResult{}, ErrRateOutOfRange
	}

	z := cfg.Confidence.ZScore()
	if z == 0 {
		return SampleSizeResult{}, ErrUnsupportedConfidence
	}

	volume := cfg.DailyVolume
	if volume == 0 {
		volume = DefaultDailyVolume
	}
	if volume < 0 {
		return SampleSizeResult{}, ErrInvalidVolume
	}

	p1 := cfg.BaseRatePct / 100
	p2 := (cfg.BaseRatePct + cfg.LiftPct) / 100
	pooled := (p1 + p2) / 2

	ratio := z / (p2 - p1)
	n := 2 * pooled * (1 - pooled) * ratio * ratio
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return SampleSizeResult{}, ErrZeroLift
	}
	if n >= float64(math.MaxInt) {
		return SampleSizeResult{}, ErrLiftTooSmall
	}

	perVariant := int(n)
	days := int(math.Ceil(float64(perVariant) / float64(volume)))
	if days < 1 {
		days = 1
	}

	return SampleSizeResult{
		PerVariant:   perVariant,
		DurationDays: days,
	}, nil
}
