package kryptos

import (
	"fmt"
	"math"
)

// Percent is a display ratio expressed in percent (100 is everything).
type Percent float64

// AllocationTolerance is the drift accepted when allocation percentages are
// summed up.
const AllocationTolerance = 0.01

// Near reports whether p and q differ by at most tolerance.
func (p Percent) Near(q Percent, tolerance float64) bool {
	return math.Abs(float64(p-q)) <= tolerance
}

func (p Percent) String() string {
	return fmt.Sprintf("%.2f%%", float64(p))
}

func (p Percent) SignedString() string {
	res := fmt.Sprintf("%+.2f%%", float64(p))
	if res == "+0.00%" {
		return "-"
	}
	return res
}

// floatNear compares display values (prices, values) with an absolute and
// relative tolerance.
func floatNear(a, b float64) bool {
	const epsilon = 1e-6
	diff := math.Abs(a - b)
	if diff <= epsilon {
		return true
	}
	return diff <= epsilon*math.Max(math.Abs(a), math.Abs(b))
}
