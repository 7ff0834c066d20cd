// Package seatkey canonicalizes seat identifiers coming from heterogeneous
// legacy formats into a single numeric string, and can reverse the mapping
// for backward-compatible lookups against rows written in the old format.
package seatkey

import (
	"fmt"
	"strconv"
	"strings"
)

const seatsPerRow = 10

// Normalize converts a raw seat value into its canonical decimal-string
// form in [1..capacity]. Accepted input forms, trimmed and upper-cased:
//
//	bare decimal        "38", "038" -> "38"
//	L-prefixed decimal   "L38"      -> "38"
//	legacy row/col       "D8"       -> "38" (row D = 4th letter, (4-1)*10+8)
func Normalize(raw string, capacity int) (string, error) {
	if capacity <= 0 {
		capacity = 50
	}

	s := strings.ToUpper(strings.TrimSpace(raw))
	if s == "" {
		return "", fmt.Errorf("seatkey: empty seat value")
	}

	var n int
	var err error

	switch {
	case isAllDigits(s):
		n, err = strconv.Atoi(s)
	case strings.HasPrefix(s, "L") && isAllDigits(s[1:]):
		n, err = strconv.Atoi(s[1:])
	case isLegacyRowCol(s):
		n, err = legacyToCanonicalInt(s)
	default:
		return "", fmt.Errorf("seatkey: unrecognized seat format %q", raw)
	}

	if err != nil {
		return "", fmt.Errorf("seatkey: invalid seat value %q: %w", raw, err)
	}
	if n < 1 || n > capacity {
		return "", fmt.Errorf("seatkey: seat %d out of range [1..%d]", n, capacity)
	}

	return strconv.Itoa(n), nil
}

// ToLegacy maps a canonical seat number back to its legacy
// "<row-letter><col 1..10>" spelling, for equality checks against old rows
// that were never migrated.
func ToLegacy(canonical string) (string, error) {
	n, err := strconv.Atoi(canonical)
	if err != nil || n < 1 {
		return "", fmt.Errorf("seatkey: invalid canonical seat %q", canonical)
	}

	row := (n - 1) / seatsPerRow
	col := (n-1)%seatsPerRow + 1
	return fmt.Sprintf("%c%d", 'A'+row, col), nil
}

func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func isLegacyRowCol(s string) bool {
	if len(s) < 2 {
		return false
	}
	row := s[0]
	if row < 'A' || row > 'Z' {
		return false
	}
	return isAllDigits(s[1:])
}

func legacyToCanonicalInt(s string) (int, error) {
	row := s[0]
	col, err := strconv.Atoi(s[1:])
	if err != nil {
		return 0, err
	}
	if col < 1 || col > seatsPerRow {
		return 0, fmt.Errorf("seatkey: legacy column %d out of range [1..%d]", col, seatsPerRow)
	}
	return int(row-'A')*seatsPerRow + col, nil
}
