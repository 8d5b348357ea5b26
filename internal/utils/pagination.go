// Package utils provides small parsing helpers for query parameters. They
// are independent of domain or business logic.
package utils

import (
	"strconv"
	"strings"
	"time"
)

// AtoiDefault parses s as an int, returning def when s is empty or invalid.
//
//	n := utils.AtoiDefault("42", 0) // 42
//	n = utils.AtoiDefault("", 10)   // 10
//	n = utils.AtoiDefault("x", 5)   // 5
func AtoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return def
}

// ParseCoins parses a whole number of coins. ok is false for empty or
// non-integer input; the sign is left to the caller.
func ParseCoins(s string) (n int64, ok bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// ParseTimeOpt parses an optional RFC 3339 timestamp. An empty string yields
// (nil, nil).
func ParseTimeOpt(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
