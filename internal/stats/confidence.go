package stats

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var ErrUnsupportedConfidence = errors.New("confidence must be one of 90%, 95% or 99%")

// Confidence is a supported two-sided confidence level, in percent.
type Confidence int

const (
	Confidence90 Confidence = 90
	Confidence95 Confidence = 95
	Confidence99 Confidence = 99
)

// ZScore returns the fixed z-score for the level, or 0 when unsupported.
//   - 90% -> 1.645
//   - 95% -> 1.96
//   - 99% -> 2.576
func (c Confidence) ZScore() float64 {
	switch c {
	case Confidence90:
		return 1.645
	case Confidence95:
		return 1.96
	case Confidence99:
		return 2.576
	}
	return 0
}

func (c Confidence) Valid() bool {
	return c.ZScore() != 0
}

func (c Confidence) String() string {
	return fmt.Sprintf("%d%%", int(c))
}

// ParseConfidence accepts "95%", "95" or "0.95".
func ParseConfidence(s string) (Confidence, error) {
	raw := strings.TrimSuffix(strings.TrimSpace(s), "%")
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedConfidence, s)
	}
	if f > 0 && f < 1 {
		f *= 100
	}
	c := Confidence(int(f + 0.5))
	if !c.Valid() || !nearlyEqual(float64(c), f) {
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedConfidence, s)
	}
	return c, nil
}

func nearlyEqual(a, b float64) bool {
	d := a - b
	return d < 1e-6 && d > -1e-6
}

// UnmarshalJSON accepts a number (95, 0.95) or a string ("95%").
func (c *Confidence) UnmarshalJSON(data []byte) error {
	v, err := ParseConfidence(strings.Trim(string(data), `"`))
	if err != nil {
		return err
	}
	*c = v
	return nil
}
