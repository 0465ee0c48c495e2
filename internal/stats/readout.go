package stats

import (
	"errors"
	"math"
)

var (
	ErrTooFewVariants = errors.New("need at least 2 variants")
	ErrInvalidCounts  = errors.New("conversions must be between 0 and sends")
)

// VariantCounts is the observed traffic for one arm of a running test.
// The first variant passed to Evaluate is the control.
type VariantCounts struct {
	Name        string
	Sends       int
	Conversions int
}

// Readout is the analysis of observed test traffic.
type Readout struct {
	Variants        []VariantReadout
	Leading         int
	ConfidenceLevel float64 // 0-1, leading arm vs control (or best challenger)
	Significant     bool    // ConfidenceLevel >= 95%
}

type VariantReadout struct {
	VariantCounts
	Rate    float64
	CILower float64
	CIUpper float64
}

// Evaluate computes rates, 95% Wilson intervals and the two-proportion
// z-test confidence for the leading variant.
func Evaluate(variants []VariantCounts) (*Readout, error) {
	if len(variants) < 2 {
		return nil, ErrTooFewVariants
	}

	out := &Readout{Variants: make([]VariantReadout, len(variants))}
	maxRate := 0.0
	for i, v := range variants {
		if v.Sends < 0 || v.Conversions < 0 || v.Conversions > v.Sends {
			return nil, ErrInvalidCounts
		}
		rate := 0.0
		if v.Sends > 0 {
			rate = float64(v.Conversions) / float64(v.Sends)
		}
		lo, hi := WilsonInterval(v.Conversions, v.Sends, Confidence95)
		out.Variants[i] = VariantReadout{VariantCounts: v, Rate: rate, CILower: lo, CIUpper: hi}

		if rate > maxRate {
			maxRate = rate
			out.Leading = i
		}
	}

	control := out.Variants[0]
	if out.Leading == 0 {
		// Control leads: compare against the best challenger.
		best := 1
		for i := 2; i < len(out.Variants); i++ {
			if out.Variants[i].Rate > out.Variants[best].Rate {
				best = i
			}
		}
		ch := out.Variants[best]
		out.ConfidenceLevel = ProportionConfidence(control.Conversions, control.Sends, ch.Conversions, ch.Sends)
	} else {
		lead := out.Variants[out.Leading]
		out.ConfidenceLevel = ProportionConfidence(lead.Conversions, lead.Sends, control.Conversions, control.Sends)
	}
	out.Significant = out.ConfidenceLevel >= 0.95

	return out, nil
}

// ProportionConfidence performs a two-proportion z-test and returns the
// confidence (0-1) that arm A converts better than arm B.
func ProportionConfidence(aConv, aSends, bConv, bSends int) float64 {
	if aSends == 0 || bSends == 0 {
		return 0.5
	}

	pA := float64(aConv) / float64(aSends)
	pB := float64(bConv) / float64(bSends)
	pooled := float64(aConv+bConv) / float64(aSends+bSends)

	se := math.Sqrt(pooled * (1 - pooled) * (1/float64(aSends) + 1/float64(bSends)))
	if se == 0 {
		switch {
		case pA > pB:
			return 1.0
		case pA < pB:
			return 0.0
		}
		return 0.5
	}

	return normalCDF((pA - pB) / se)
}

// normalCDF approximates the standard normal CDF
// (Abramowitz and Stegun, formula 7.1.26).
func normalCDF(x float64) float64 {
	const (
		a1 = 0.254829592
		a2 = -0.284496736
		a3 = 1.421413741
		a4 = -1.453152027
		a5 = 1.061405429
		p  = 0.3275911
	)

	sign := 1.0
	if x < 0 {
		sign = -1.0
	}
	x = math.Abs(x) / math.Sqrt2

	t := 1.0 / (1.0 + p*x)
	y := 1.0 - (((((a5*t+a4)*t)+a3)*t+a2)*t+a1)*t*math.Exp(-x*x)

	return 0.5 * (1.0 + sign*y)
}
