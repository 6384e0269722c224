package domain

import (
	"strconv"
	"strings"
)

// Version is a dotted numeric version such as "13.2.0" or "2023.1".
type Version []int

// ParseVersion parses the leading dotted numeric part of s.
// Non-numeric suffixes on the last component ("1.2.3-rc1") are ignored.
// It returns false if s does not start with a number.
func ParseVersion(s string) (Version, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, false
	}

	var v Version
	for _, part := range strings.Split(s, ".") {
		end := 0
		for end < len(part) && part[end] >= '0' && part[end] <= '9' {
			end++
		}
		if end == 0 {
			break
		}
		n, err := strconv.Atoi(part[:end])
		if err != nil {
			return nil, false
		}
		v = append(v, n)
		if end != len(part) {
			break
		}
	}

	if len(v) == 0 {
		return nil, false
	}
	return v, true
}

// MustParseVersion parses s and panics on failure. It is meant for static tables.
func MustParseVersion(s string) Version {
	v, ok := ParseVersion(s)
	if !ok {
		panic("invalid version literal: " + s)
	}
	return v
}

// Compare returns -1, 0 or 1. Missing components compare as zero.
func (v Version) Compare(other Version) int {
	n := max(len(v), len(other))
	for i := range n {
		a, b := 0, 0
		if i < len(v) {
			a = v[i]
		}
		if i < len(other) {
			b = other[i]
		}
		switch {
		case a < b:
			return -1
		case a > b:
			return 1
		}
	}
	return 0
}

// Less reports whether v is older than other.
func (v Version) Less(other Version) bool {
	return v.Compare(other) < 0
}

// String renders the version in dotted form.
func (v Version) String() string {
	parts := make([]string, len(v))
	for i, n := range v {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, ".")
}
