// Package jsonutil decodes loosely typed JSON sent by external integrations.
package jsonutil

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// IsNull reports whether raw is absent or JSON null.
func IsNull(raw json.RawMessage) bool {
	return len(raw) == 0 || string(raw) == "null"
}

// FlexibleStringValue converts a json.RawMessage to a string, handling cases where
// integrations send numbers or booleans instead of strings. Returns empty string for null/empty.
func FlexibleStringValue(raw json.RawMessage) string {
	if IsNull(raw) {
		return ""
	}

	// Try string first
	var strVal string
	if err := json.Unmarshal(raw, &strVal); err == nil {
		return strVal
	}

	// Try number
	var numVal float64
	if err := json.Unmarshal(raw, &numVal); err == nil {
		if numVal == float64(int64(numVal)) {
			return fmt.Sprintf("%d", int64(numVal))
		}
		return fmt.Sprintf("%g", numVal)
	}

	// Try boolean
	var boolVal bool
	if err := json.Unmarshal(raw, &boolVal); err == nil {
		return fmt.Sprintf("%t", boolVal)
	}

	// Fallback: return raw string representation
	return string(raw)
}

// FlexibleInt64 converts a json.RawMessage holding a whole number, a numeric
// string, or null into an int64. Null and empty decode to 0.
// Fractional values are rejected rather than truncated.
func FlexibleInt64(raw json.RawMessage) (int64, error) {
	if IsNull(raw) {
		return 0, nil
	}

	var strVal string
	if err := json.Unmarshal(raw, &strVal); err == nil {
		strVal = strings.TrimSpace(strVal)
		if strVal == "" {
			return 0, nil
		}
		return parseWhole(strVal)
	}

	return parseWhole(string(raw))
}

// FlexibleInt64Slice decodes a JSON array whose elements are accepted by FlexibleInt64.
func FlexibleInt64Slice(raw json.RawMessage) ([]int64, error) {
	if IsNull(raw) {
		return nil, nil
	}

	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("expected an array: %w", err)
	}

	out := make([]int64, len(items))
	for i, item := range items {
		v, err := FlexibleInt64(item)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		out[i] = v
	}
	return out, nil
}

// FlexibleFloat64 converts a json.RawMessage holding a number, a numeric
// string, or null into a float64. Null and empty decode to 0.
func FlexibleFloat64(raw json.RawMessage) (float64, error) {
	if IsNull(raw) {
		return 0, nil
	}

	s := string(raw)
	var strVal string
	if err := json.Unmarshal(raw, &strVal); err == nil {
		s = strings.TrimSpace(strVal)
		if s == "" {
			return 0, nil
		}
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("not a number: %q", s)
	}
	return f, nil
}

// FlexibleFloat64Slice decodes a JSON array whose elements are accepted by FlexibleFloat64.
func FlexibleFloat64Slice(raw json.RawMessage) ([]float64, error) {
	if IsNull(raw) {
		return nil, nil
	}

	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("expected an array: %w", err)
	}

	out := make([]float64, len(items))
	for i, item := range items {
		v, err := FlexibleFloat64(item)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		out[i] = v
	}
	return out, nil
}

func parseWhole(s string) (int64, error) {
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return v, nil
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("not a number: %q", s)
	}
	if f != math.Trunc(f) {
		return 0, fmt.Errorf("not a whole number: %q", s)
	}
	// float64(math.MaxInt64) rounds up to 2^63, which does not fit.
	if f >= 0x1p63 || f < -0x1p63 {
		return 0, fmt.Errorf("out of range: %q", s)
	}
	return int64(f), nil
}
