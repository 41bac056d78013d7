package output

import (
	"sort"
)

// SortBySeverity sorts items by severity priority, then key ASC.
func SortBySeverity[T any](items []T, severity func(T) string, key func(T) string) {
	sort.SliceStable(items, func(i, j int) bool {
		si, sj := GetSeverityPriority(severity(items[i])), GetSeverityPriority(severity(items[j]))
		if si != sj {
			return si < sj
		}
		return key(items[i]) < key(items[j])
	})
}

// SortByRisk sorts items by risk priority, then key ASC.
func SortByRisk[T any](items []T, risk func(T) string, key func(T) string) {
	sort.SliceStable(items, func(i, j int) bool {
		ri, rj := GetRiskPriority(risk(items[i])), GetRiskPriority(risk(items[j]))
		if ri != rj {
			return ri < rj
		}
		return key(items[i]) < key(items[j])
	})
}

// SortByScore sorts items by score DESC, then key ASC. Scores are compared
// after rounding so float noise cannot reorder equal entries.
func SortByScore[T any](items []T, score func(T) float64, key func(T) string) {
	sort.SliceStable(items, func(i, j int) bool {
		si, sj := RoundFloat(score(items[i])), RoundFloat(score(items[j]))
		if si != sj {
			return si > sj
		}
		return key(items[i]) < key(items[j])
	})
}
