// Package utils holds tiny parsing helpers shared by the HTTP layer.
package utils

import "strconv"

// AtoiDefault parses s as a base-10 integer and falls back to def when s is
// empty or malformed. Inputs are never trimmed; " 42" is malformed on
// purpose so sloppy query strings surface as defaults, not surprises.
func AtoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}
