package token

import "fmt"

// Position is a point in a source file. Line and Column are zero-based;
// Offset is the byte offset from the start of the file.
type Position struct {
	Line   int
	Column int
	Offset int
}

func (p Position) Before(other Position) bool {
	return p.Offset < other.Offset
}

// Location is the source span a parser attaches to a type annotation.
// It is carried for diagnostics only.
type Location struct {
	File  string
	Start Position
	End   Position
}

func NewLocation(start, end Position) *Location {
	return &Location{Start: start, End: end}
}

// Length returns the span size in bytes.
func (l *Location) Length() int {
	if l == nil {
		return 0
	}
	return l.End.Offset - l.Start.Offset
}

// StartString renders the start position one-based, e.g. "line 3, col 7".
func (l *Location) StartString() string {
	if l == nil {
		return "unknown location"
	}
	return fmt.Sprintf("line %d, col %d", l.Start.Line+1, l.Start.Column+1)
}

// Union returns the smallest span covering both locations.
// A nil operand yields the other one.
func (l *Location) Union(other *Location) *Location {
	if l == nil {
		return other
	}
	if other == nil {
		return l
	}
	u := &Location{File: l.File, Start: l.Start, End: l.End}
	if other.Start.Before(u.Start) {
		u.Start = other.Start
	}
	if u.End.Before(other.End) {
		u.End = other.End
	}
	return u
}

func (l *Location) Equal(other *Location) bool {
	if l == nil || other == nil {
		return l == other
	}
	return l.File == other.File && l.Start == other.Start && l.End == other.End
}

func (l *Location) String() string {
	if l == nil {
		return "<no location>"
	}
	prefix := ""
	if l.File != "" {
		prefix = l.File + ":"
	}
	return fmt.Sprintf("%s%d:%d-%d:%d", prefix, l.Start.Line+1, l.Start.Column+1, l.End.Line+1, l.End.Column+1)
}
