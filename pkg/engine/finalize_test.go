package engine

import (
	"testing"

	"github.com/marmos91/deuce/internal/ids"
)

func int64ptr(n int64) *int64 { return &n }

func TestFinalizeEmptyNoSize(t *testing.T) {
	if diags := Finalize(nil, nil); diags != nil {
		t.Fatalf("expected Ok, got %+v", diags)
	}
	if diags := Finalize(nil, int64ptr(0)); diags != nil {
		t.Fatalf("expected Ok for zero declared size, got %+v", diags)
	}
}

func TestFinalizeEmptyWithSize(t *testing.T) {
	diags := Finalize(nil, int64ptr(100))
	if len(diags) != 1 {
		t.Fatalf("expected one diagnostic, got %d", len(diags))
	}
	if diags[0].Kind != DiagnosticGap {
		t.Errorf("expected Gap, got %v", diags[0].Kind)
	}
	if diags[0].After != sentinelRef || diags[0].Before != sentinelRef {
		t.Errorf("expected sentinel neighbors on both sides, got %+v", diags[0])
	}
}

func TestFinalizeThreeBlockSuccess(t *testing.T) {
	rows := []BlockSpan{
		{BlockID: "B1", Offset: 0, Size: 100},
		{BlockID: "B2", Offset: 100, Size: 100},
		{BlockID: "B3", Offset: 200, Size: 100},
	}
	if diags := Finalize(rows, int64ptr(300)); diags != nil {
		t.Fatalf("expected Ok, got %+v", diags)
	}
}

func TestFinalizeGap(t *testing.T) {
	rows := []BlockSpan{
		{BlockID: "B1", Offset: 0, Size: 100},
		{BlockID: "B2", Offset: 100, Size: 100},
		{BlockID: "B3", Offset: 300, Size: 100},
	}
	diags := Finalize(rows, int64ptr(400))
	if len(diags) != 1 {
		t.Fatalf("expected one diagnostic, got %d: %+v", len(diags), diags)
	}
	d := diags[0]
	if d.Kind != DiagnosticGap {
		t.Errorf("expected Gap, got %v", d.Kind)
	}
	if d.After.BlockID == nil || *d.After.BlockID != "B2" || *d.After.Offset != 100 {
		t.Errorf("expected after=(B2,100), got %+v", d.After)
	}
	if d.Before.BlockID == nil || *d.Before.BlockID != "B3" || *d.Before.Offset != 300 {
		t.Errorf("expected before=(B3,300), got %+v", d.Before)
	}
}

func TestFinalizeOverlap(t *testing.T) {
	rows := []BlockSpan{
		{BlockID: "B1", Offset: 0, Size: 100},
		{BlockID: "B2", Offset: 50, Size: 100},
		{BlockID: "B3", Offset: 150, Size: 100},
	}
	diags := Finalize(rows, nil)
	if len(diags) != 1 {
		t.Fatalf("expected one diagnostic, got %d: %+v", len(diags), diags)
	}
	d := diags[0]
	if d.Kind != DiagnosticOverlap {
		t.Errorf("expected Overlap, got %v", d.Kind)
	}
	if *d.After.BlockID != "B1" || *d.After.Offset != 0 {
		t.Errorf("expected after=(B1,0), got %+v", d.After)
	}
	if *d.Before.BlockID != "B2" || *d.Before.Offset != 50 {
		t.Errorf("expected before=(B2,50), got %+v", d.Before)
	}
}

func TestFinalizeFrontGap(t *testing.T) {
	rows := []BlockSpan{{BlockID: "B1", Offset: 10, Size: 90}}
	diags := Finalize(rows, int64ptr(100))
	if len(diags) != 1 || diags[0].Kind != DiagnosticGap {
		t.Fatalf("expected single front Gap, got %+v", diags)
	}
	if diags[0].After != sentinelRef {
		t.Errorf("expected sentinel 'after' at the front, got %+v", diags[0].After)
	}
	if *diags[0].Before.BlockID != "B1" || *diags[0].Before.Offset != 10 {
		t.Errorf("expected before=(B1,10), got %+v", diags[0].Before)
	}
}

func TestFinalizeTailGapUsesLastAssignmentAsAfter(t *testing.T) {
	// Regression test for the source's unbound-variable bug: the tail
	// diagnostic must reference the last real assignment as "after",
	// never a sentinel or an out-of-bounds row.
	rows := []BlockSpan{
		{BlockID: "B1", Offset: 0, Size: 100},
		{BlockID: "B2", Offset: 100, Size: 100},
	}
	diags := Finalize(rows, int64ptr(250))
	if len(diags) != 1 {
		t.Fatalf("expected one tail diagnostic, got %d: %+v", len(diags), diags)
	}
	d := diags[0]
	if d.Kind != DiagnosticGap {
		t.Errorf("expected Gap (declared size exceeds coverage), got %v", d.Kind)
	}
	if d.After.BlockID == nil || *d.After.BlockID != "B2" || *d.After.Offset != 100 {
		t.Fatalf("expected after=(B2,100), got %+v", d.After)
	}
	if d.Before != sentinelRef {
		t.Errorf("expected sentinel 'before' at the tail, got %+v", d.Before)
	}
}

func TestFinalizeTailOverlap(t *testing.T) {
	rows := []BlockSpan{{BlockID: "B1", Offset: 0, Size: 100}}
	diags := Finalize(rows, int64ptr(50))
	if len(diags) != 1 || diags[0].Kind != DiagnosticOverlap {
		t.Fatalf("expected tail Overlap (declared size smaller than coverage), got %+v", diags)
	}
}

func TestFinalizeNoDeclaredSizeSkipsTailCheck(t *testing.T) {
	rows := []BlockSpan{{BlockID: "B1", Offset: 0, Size: 100}}
	if diags := Finalize(rows, nil); diags != nil {
		t.Fatalf("expected Ok without a declared file size, got %+v", diags)
	}
}

// Gapless, non-overlapping blocks summing to the declared size finalize
// cleanly regardless of block count.
func TestFinalizeManyContiguousBlocks(t *testing.T) {
	var rows []BlockSpan
	var offset int64
	for i := 0; i < 50; i++ {
		rows = append(rows, BlockSpan{BlockID: ids.BlockID("b"), Offset: offset, Size: 37})
		offset += 37
	}
	if diags := Finalize(rows, &offset); diags != nil {
		t.Fatalf("expected Ok, got %+v", diags)
	}
}
