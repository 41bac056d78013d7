package testutil

import (
	"encoding/json"
	"os"
	"reflect"
	"regexp"
	"strings"
	"testing"

	"modplan/internal/output"
)

// volatileFields change between runs and are dropped before comparison.
var volatileFields = map[string]bool{
	"runId":       true,
	"startedAt":   true,
	"durationMs":  true,
	"duration":    true,
	"generatedAt": true,
	"timestamp":   true,
}

var tempDirPattern = regexp.MustCompile(`(?:/tmp/|/var/folders/[^/]+/[^/]+/[^/]+/)[^/"\s]+`)

// Normalize converts data to plain JSON values with volatile fields removed
// and temporary directories replaced by <tempdir>.
func Normalize(t testing.TB, data any) any {
	t.Helper()

	jsonBytes, err := output.DeterministicEncode(data)
	if err != nil {
		t.Fatalf("Failed to marshal data for normalization: %v", err)
	}

	var normalized any
	if err := json.Unmarshal(jsonBytes, &normalized); err != nil {
		t.Fatalf("Failed to unmarshal data for normalization: %v", err)
	}
	return normalizeValue(normalized)
}

func normalizeValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		result := make(map[string]any, len(val))
		for k, item := range val {
			if volatileFields[k] {
				continue
			}
			result[k] = normalizeValue(item)
		}
		return result
	case []any:
		result := make([]any, len(val))
		for i, item := range val {
			result[i] = normalizeValue(item)
		}
		return result
	case string:
		return normalizeString(val)
	default:
		return v
	}
}

func normalizeString(s string) string {
	if tmp := os.TempDir(); tmp != "" && tmp != "/tmp" {
		s = strings.ReplaceAll(s, tmp, "<tempdir>")
	}
	s = tempDirPattern.ReplaceAllString(s, "<tempdir>")
	return strings.ReplaceAll(s, "\\", "/")
}

// MarshalNormalized normalizes data and marshals it to stable JSON bytes
// with 2-space indentation and a trailing newline.
func MarshalNormalized(t testing.TB, data any) []byte {
	t.Helper()

	bytes, err := output.DeterministicEncodeIndented(Normalize(t, data), "  ")
	if err != nil {
		t.Fatalf("Failed to marshal normalized data: %v", err)
	}
	return append(bytes, '\n')
}

// DeepEqual compares two values for equality, ignoring volatile fields.
func DeepEqual(t testing.TB, a, b any) bool {
	t.Helper()
	return reflect.DeepEqual(Normalize(t, a), Normalize(t, b))
}
