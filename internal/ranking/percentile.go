package ranking

import "math"

// Percentile returns round(100 * |{x in set : x < v}| / |set|). It is 0 for
// an empty set.
func Percentile(v float64, set []float64) int {
	if len(set) == 0 {
		return 0
	}
	below := 0
	for _, x := range set {
		if x < v {
			below++
		}
	}
	return int(math.Round(100 * float64(below) / float64(len(set))))
}

// flat reports whether every value of set is equal within tolerance.
func flat(set []float64, tolerance float64) bool {
	if len(set) == 0 {
		return true
	}
	lo, hi := set[0], set[0]
	for _, x := range set[1:] {
		lo = math.Min(lo, x)
		hi = math.Max(hi, x)
	}
	return hi-lo <= tolerance
}
