package ids

import "testing"

func TestIntervalOverlaps(t *testing.T) {
	tests := []struct {
		name  string
		a, b Interval
		want bool
	}{
		{"disjoint ascending", Interval{0, 10}, Interval{10, 10}, false},
		{"disjoint descending", Interval{10, 10}, Interval{0, 10}, false},
		{"partial overlap", Interval{0, 10}, Interval{5, 10}, true},
		{"identical", Interval{0, 10}, Interval{0, 10}, true},
		{"fully contained", Interval{0, 20}, Interval{5, 5}, true},
		{"gap", Interval{0, 10}, Interval{20, 10}, false},
		{"zero size a", Interval{0, 0}, Interval{0, 10}, false},
		{"zero size b", Interval{0, 10}, Interval{5, 0}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Overlaps(tt.b); got != tt.want {
				t.Errorf("Overlaps(%+v, %+v) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
			if got := tt.b.Overlaps(tt.a); got != tt.want {
				t.Errorf("Overlaps is not symmetric: (%+v, %+v) = %v, want %v", tt.b, tt.a, got, tt.want)
			}
		})
	}
}

func TestIntervalAdjacency(t *testing.T) {
	a := Interval{Offset: 0, Size: 10}
	b := Interval{Offset: 10, Size: 5}

	if !a.AdjacentBefore(b) {
		t.Errorf("expected %+v adjacent before %+v", a, b)
	}
	if !b.AdjacentAfter(a) {
		t.Errorf("expected %+v adjacent after %+v", b, a)
	}
	if a.AdjacentAfter(b) {
		t.Errorf("did not expect %+v adjacent after %+v", a, b)
	}
	if b.AdjacentBefore(a) {
		t.Errorf("did not expect %+v adjacent before %+v", b, a)
	}

	gapped := Interval{Offset: 11, Size: 5}
	if a.AdjacentBefore(gapped) {
		t.Errorf("did not expect %+v adjacent before %+v (gap present)", a, gapped)
	}
}

func TestIntervalCompare(t *testing.T) {
	low := Interval{Offset: 0, Size: 10}
	high := Interval{Offset: 10, Size: 10}

	if low.Compare(high) != -1 {
		t.Errorf("expected low < high")
	}
	if high.Compare(low) != 1 {
		t.Errorf("expected high > low")
	}
	if low.Compare(Interval{Offset: 0, Size: 999}) != 0 {
		t.Errorf("expected equal offsets to compare equal regardless of size")
	}
}

func TestIntervalEnd(t *testing.T) {
	iv := Interval{Offset: 100, Size: 50}
	if iv.End() != 150 {
		t.Errorf("End() = %d, want 150", iv.End())
	}
}
