package output

import (
	"math"
	"strconv"
	"strings"
)

// floatPrecision is the number of decimal places kept in reports.
const floatPrecision = 6

var floatScale = math.Pow(10, floatPrecision)

// RoundFloat rounds f to floatPrecision decimal places.
func RoundFloat(f float64) float64 {
	return math.Round(f*floatScale) / floatScale
}

// FormatFloat formats f rounded, without trailing zeros.
func FormatFloat(f float64) string {
	str := strconv.FormatFloat(RoundFloat(f), 'f', floatPrecision, 64)
	str = strings.TrimRight(str, "0")
	str = strings.TrimSuffix(str, ".")
	if str == "-0" {
		return "0"
	}
	return str
}
