package token

import (
	"strings"

	"golang.org/x/exp/slices"
)

// QualifiedName is a dotted name path such as Std.List.map, kept as
// its ordered segments.
type QualifiedName []string

// ParseQualifiedName splits a dotted path. Empty segments are dropped,
// so "A..B" and "A.B" are the same path.
func ParseQualifiedName(s string) QualifiedName {
	parts := strings.Split(s, ".")
	path := make(QualifiedName, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			path = append(path, p)
		}
	}
	return path
}

func NewQualifiedName(segments ...string) QualifiedName {
	return slices.Clone(QualifiedName(segments))
}

func (q QualifiedName) IsEmpty() bool {
	return len(q) == 0
}

func (q QualifiedName) HasBase() bool {
	return len(q) > 1
}

// Base returns every segment but the last.
func (q QualifiedName) Base() QualifiedName {
	if len(q) == 0 {
		return nil
	}
	return q[:len(q)-1]
}

// Last returns the final segment, or "" for an empty path.
func (q QualifiedName) Last() string {
	if len(q) == 0 {
		return ""
	}
	return q[len(q)-1]
}

// Append returns a new path; the receiver is never modified.
func (q QualifiedName) Append(segments ...string) QualifiedName {
	path := make(QualifiedName, 0, len(q)+len(segments))
	path = append(path, q...)
	return append(path, segments...)
}

// Upto returns the first i+1 segments rendered as a string.
func (q QualifiedName) Upto(i int) string {
	if i >= len(q) {
		i = len(q) - 1
	}
	if i < 0 {
		return ""
	}
	return strings.Join(q[:i+1], ".")
}

func (q QualifiedName) Equal(other QualifiedName) bool {
	return slices.Equal(q, other)
}

func (q QualifiedName) String() string {
	return strings.Join(q, ".")
}
