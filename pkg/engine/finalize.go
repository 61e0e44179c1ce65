package engine

import "github.com/marmos91/deuce/internal/ids"

// BlockSpan is one row of the joined (block_id, offset, size) stream the
// finalization validator consumes. Callers must supply rows sorted by
// Offset ascending; the validator does not sort.
type BlockSpan struct {
	BlockID ids.BlockID
	Offset  int64
	Size    int64
}

// DiagnosticKind classifies a finalization diagnostic.
type DiagnosticKind int

const (
	// DiagnosticGap means a range of bytes between two neighbors (or at
	// the file's edges) is not covered by any assignment.
	DiagnosticGap DiagnosticKind = iota

	// DiagnosticOverlap means two neighboring assignments cover
	// overlapping byte ranges.
	DiagnosticOverlap
)

func (k DiagnosticKind) String() string {
	if k == DiagnosticOverlap {
		return "Overlap"
	}
	return "Gap"
}

// BlockRef names a block and the offset at which it begins. A nil
// BlockID means "no such neighbor" (the sentinel used at the edges of the
// assignment stream).
type BlockRef struct {
	BlockID *ids.BlockID
	Offset  *int64
}

func ref(blockID ids.BlockID, offset int64) BlockRef {
	b := blockID
	o := offset
	return BlockRef{BlockID: &b, Offset: &o}
}

// sentinelRef is the (None, None) neighbor used when there is no
// preceding or following assignment.
var sentinelRef = BlockRef{}

// Diagnostic is one Gap or Overlap found while validating a file's
// assignment stream, with the neighboring assignments that bound it.
type Diagnostic struct {
	Kind   DiagnosticKind
	After  BlockRef
	Before BlockRef
}

// Finalize validates an ordered assignment stream against the half-open
// interval invariants required for finalization:
//
//  1. the first assignment starts at offset 0;
//  2. each assignment ends exactly where the next begins (no gap, no
//     overlap);
//  3. if fileSize is supplied and positive, the last assignment ends
//     exactly at fileSize.
//
// Finalize runs in a single O(n) pass over rows, which must already be
// sorted by Offset ascending. An empty, non-nil Diagnostic slice is never
// returned: either the slice is nil (validation passed) or it has at
// least one entry.
func Finalize(rows []BlockSpan, fileSize *int64) []Diagnostic {
	if len(rows) == 0 {
		if fileSize == nil || *fileSize == 0 {
			return nil
		}
		return []Diagnostic{{Kind: DiagnosticGap, After: sentinelRef, Before: sentinelRef}}
	}

	var diagnostics []Diagnostic

	origin := ids.Interval{Offset: 0, Size: 0}
	first := ids.Interval{Offset: rows[0].Offset, Size: rows[0].Size}
	if !origin.AdjacentBefore(first) {
		kind := DiagnosticGap
		if first.Offset < 0 {
			kind = DiagnosticOverlap
		}
		diagnostics = append(diagnostics, Diagnostic{
			Kind:   kind,
			After:  sentinelRef,
			Before: ref(rows[0].BlockID, rows[0].Offset),
		})
	}

	for i := 0; i < len(rows)-1; i++ {
		l1, l2 := rows[i], rows[i+1]
		ivA := ids.Interval{Offset: l1.Offset, Size: l1.Size}
		ivB := ids.Interval{Offset: l2.Offset, Size: l2.Size}
		if ivA.AdjacentBefore(ivB) {
			continue
		}
		kind := DiagnosticGap
		if ivA.Overlaps(ivB) {
			kind = DiagnosticOverlap
		}
		diagnostics = append(diagnostics, Diagnostic{
			Kind:   kind,
			After:  ref(l1.BlockID, l1.Offset),
			Before: ref(l2.BlockID, l2.Offset),
		})
	}

	if fileSize != nil && *fileSize > 0 {
		last := rows[len(rows)-1]
		lastIv := ids.Interval{Offset: last.Offset, Size: last.Size}
		end := ids.Interval{Offset: *fileSize, Size: 0}
		if !lastIv.AdjacentBefore(end) {
			kind := DiagnosticGap
			if lastIv.End() > end.Offset {
				kind = DiagnosticOverlap
			}
			// The tail diagnostic's "after" neighbor is the last real
			// assignment; there is no assignment beyond it, so "before"
			// is the sentinel rather than a dereference of a
			// nonexistent next row.
			diagnostics = append(diagnostics, Diagnostic{
				Kind:   kind,
				After:  ref(last.BlockID, last.Offset),
				Before: sentinelRef,
			})
		}
	}

	return diagnostics
}
