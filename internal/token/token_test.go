package token

import "testing"

func TestLocationLength(t *testing.T) {
	loc := NewLocation(Position{Line: 0, Column: 4, Offset: 4}, Position{Line: 0, Column: 9, Offset: 9})
	if loc.Length() != 5 {
		t.Errorf("Length() = %d, want 5", loc.Length())
	}

	var missing *Location
	if missing.Length() != 0 {
		t.Errorf("nil Length() = %d, want 0", missing.Length())
	}
}

func TestLocationStartString(t *testing.T) {
	loc := NewLocation(Position{Line: 2, Column: 6, Offset: 30}, Position{Line: 2, Column: 9, Offset: 33})
	if got := loc.StartString(); got != "line 3, col 7" {
		t.Errorf("StartString() = %q, want %q", got, "line 3, col 7")
	}
}

func TestLocationUnion(t *testing.T) {
	a := NewLocation(Position{Offset: 10}, Position{Offset: 20})
	b := NewLocation(Position{Offset: 5}, Position{Offset: 12})

	u := a.Union(b)
	if u.Start.Offset != 5 || u.End.Offset != 20 {
		t.Errorf("Union = %d..%d, want 5..20", u.Start.Offset, u.End.Offset)
	}
	if u == a || u == b {
		t.Errorf("Union should allocate a new location")
	}
	if a.Union(nil) != a {
		t.Errorf("Union with nil should return receiver")
	}
	var none *Location
	if none.Union(b) != b {
		t.Errorf("nil Union should return argument")
	}
}

func TestQualifiedName(t *testing.T) {
	tests := []struct {
		input    string
		segments int
		base     string
		last     string
	}{
		{"A", 1, "", "A"},
		{"A.B.C", 3, "A.B", "C"},
		{"A..B", 2, "A", "B"},
		{"", 0, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			q := ParseQualifiedName(tt.input)
			if len(q) != tt.segments {
				t.Fatalf("len = %d, want %d", len(q), tt.segments)
			}
			if q.Base().String() != tt.base {
				t.Errorf("Base() = %q, want %q", q.Base().String(), tt.base)
			}
			if q.Last() != tt.last {
				t.Errorf("Last() = %q, want %q", q.Last(), tt.last)
			}
		})
	}
}

func TestQualifiedNameAppendDoesNotAlias(t *testing.T) {
	base := make(QualifiedName, 1, 4)
	base[0] = "A"
	x := base.Append("X")
	y := base.Append("Y")
	if x.String() != "A.X" || y.String() != "A.Y" {
		t.Errorf("Append aliased backing array: %s, %s", x, y)
	}
	if !x.Equal(NewQualifiedName("A", "X")) {
		t.Errorf("Equal failed for %s", x)
	}
	if got := ParseQualifiedName("A.B.C").Upto(1); got != "A.B" {
		t.Errorf("Upto(1) = %q, want A.B", got)
	}
}
