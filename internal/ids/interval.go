package ids

// Interval is a half-open byte range [Offset, Offset+Size) within a file.
// A zero-size interval is degenerate and never overlaps anything, including
// itself; the adjacency checks still apply to it by its Offset alone.
type Interval struct {
	Offset int64
	Size   int64
}

// End returns the exclusive end of the interval (Offset + Size).
func (iv Interval) End() int64 {
	return iv.Offset + iv.Size
}

// Compare orders intervals by Offset, ascending. Returns -1, 0, or 1.
func (iv Interval) Compare(other Interval) int {
	switch {
	case iv.Offset < other.Offset:
		return -1
	case iv.Offset > other.Offset:
		return 1
	default:
		return 0
	}
}

// Overlaps reports whether iv and other share any byte.
func (iv Interval) Overlaps(other Interval) bool {
	if iv.Size <= 0 || other.Size <= 0 {
		return false
	}
	return iv.Offset < other.End() && other.Offset < iv.End()
}

// AdjacentBefore reports whether iv ends exactly where other begins, i.e.
// iv immediately precedes other with no gap and no overlap.
func (iv Interval) AdjacentBefore(other Interval) bool {
	return iv.End() == other.Offset
}

// AdjacentAfter reports whether iv begins exactly where other ends, i.e.
// iv immediately follows other with no gap and no overlap.
func (iv Interval) AdjacentAfter(other Interval) bool {
	return other.End() == iv.Offset
}
