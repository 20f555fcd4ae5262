package utils

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// sentinels are filter values that mean "no constraint"
var sentinels = map[string]bool{"": true, "any": true, "all": true}

// IsSentinel reports whether a filter value means "no constraint"
func IsSentinel(s string) bool {
	return sentinels[strings.ToLower(strings.TrimSpace(s))]
}

// ParseFilterNumber parses a numeric filter value. Sentinels and zero report
// ok=false; anything else that is not a finite number is an error.
func ParseFilterNumber(s string) (float64, bool, error) {
	if IsSentinel(s) {
		return 0, false, nil
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false, fmt.Errorf("%q is not a number", s)
	}
	if f == 0 {
		return 0, false, nil
	}
	return f, true, nil
}

// ToFloat coerces a loosely typed form value to a finite number, 0 otherwise
func ToFloat(v any) float64 {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case json.Number:
		f, _ = n.Float64()
	case string:
		f, _ = strconv.ParseFloat(strings.TrimSpace(n), 64)
	case bool:
		if n {
			f = 1
		}
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// ToBool coerces a loosely typed form value to a boolean
func ToBool(v any) bool {
	switch b := v.(type) {
	case bool:
		return b
	case string:
		switch strings.ToLower(strings.TrimSpace(b)) {
		case "true", "1", "on", "yes":
			return true
		}
		return false
	case nil:
		return false
	}
	return ToFloat(v) != 0
}

// ToString coerces a loosely typed form value to a trimmed string
func ToString(v any) string {
	switch s := v.(type) {
	case string:
		return strings.TrimSpace(s)
	case nil:
		return ""
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	}
	return strings.TrimSpace(fmt.Sprint(v))
}

// BoolToInt encodes a flag as 0 or 1
func BoolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
