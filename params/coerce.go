package params

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	intPattern   = regexp.MustCompile(`^-?\d+$`)
	floatPattern = regexp.MustCompile(`^-?\d+\.\d+$`)
)

// Coerce converts a string leaf into its scalar value:
//
//	""              -> nil
//	"true"/"false"  -> bool (case-insensitive)
//	"null"          -> nil
//	"42", "-7"      -> int
//	"3.14"          -> float64
//
// Anything else is returned unchanged.
func Coerce(s string) any {
	if s == "" {
		return nil
	}

	switch strings.ToLower(s) {
	case "true":
		return true
	case "false":
		return false
	}

	if s == "null" {
		return nil
	}

	if intPattern.MatchString(s) {
		if n, err := strconv.Atoi(s); err == nil {
			return n
		}
		// out of int range
		return s
	}

	if floatPattern.MatchString(s) {
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f
		}
	}

	return s
}

// coerceLeaf applies Coerce to strings and passes every other value through.
func coerceLeaf(v any) any {
	if s, ok := v.(string); ok {
		return Coerce(s)
	}
	return v
}
