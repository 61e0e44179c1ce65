package metrics

import (
	"context"
	"testing"
	"time"

	"github.com/marmos91/deuce/pkg/engine"
	"github.com/marmos91/deuce/pkg/engine/store/memory"
)

// recordedOperation is one call observed by a fakeMetrics.
type recordedOperation struct {
	operation string
	err       error
}

// fakeMetrics is a BackendMetrics recorder used to assert Instrument
// calls RecordOperation/RecordRefCount for the operations it wraps,
// without depending on prometheus internals.
type fakeMetrics struct {
	operations []recordedOperation
	refCounts  map[string]int64
}

func newFakeMetrics() *fakeMetrics {
	return &fakeMetrics{refCounts: map[string]int64{}}
}

func (f *fakeMetrics) RecordOperation(operation string, _ time.Duration, err error) {
	f.operations = append(f.operations, recordedOperation{operation: operation, err: err})
}

func (f *fakeMetrics) RecordRefCount(blockID string, count int64) {
	f.refCounts[blockID] = count
}

func TestInstrument_NilMetricsReturnsBackendUnchanged(t *testing.T) {
	backend := memory.New(engine.Config{MaxReturnNum: 80})
	if got := Instrument(backend, nil); got != engine.Backend(backend) {
		t.Fatal("Instrument(backend, nil) should return backend unchanged")
	}
}

func TestInstrument_RecordsOperationsAndRefCount(t *testing.T) {
	ctx := context.Background()
	backend := memory.New(engine.Config{MaxReturnNum: 80})
	fm := newFakeMetrics()
	instrumented := Instrument(backend, fm)

	const project, vault = "proj-1", "vault-1"

	if err := instrumented.CreateVault(ctx, project, vault); err != nil {
		t.Fatalf("CreateVault failed: %v", err)
	}
	fileID, err := instrumented.CreateFile(ctx, project, vault)
	if err != nil {
		t.Fatalf("CreateFile failed: %v", err)
	}
	if err := instrumented.RegisterBlock(ctx, project, vault, "B1", "s1", 10); err != nil {
		t.Fatalf("RegisterBlock failed: %v", err)
	}
	if err := instrumented.AssignBlock(ctx, project, vault, fileID, "B1", 0); err != nil {
		t.Fatalf("AssignBlock failed: %v", err)
	}

	// The refcount read AssignBlock performs for RecordRefCount goes
	// through the raw backend, so it does not show up as an operation of
	// its own.
	wantOps := []string{"create_vault", "create_file", "register_block", "assign_block"}
	if len(fm.operations) != len(wantOps) {
		t.Fatalf("recorded %d operations, want %d: %+v", len(fm.operations), len(wantOps), fm.operations)
	}
	for i, op := range wantOps {
		if fm.operations[i].operation != op {
			t.Errorf("operation[%d] = %q, want %q", i, fm.operations[i].operation, op)
		}
		if fm.operations[i].err != nil {
			t.Errorf("operation[%d] (%s) recorded unexpected error: %v", i, op, fm.operations[i].err)
		}
	}

	if got := fm.refCounts["B1"]; got != 1 {
		t.Errorf("refCounts[B1] = %d, want 1", got)
	}
}

func TestInstrument_RecordsErrors(t *testing.T) {
	ctx := context.Background()
	backend := memory.New(engine.Config{MaxReturnNum: 80})
	fm := newFakeMetrics()
	instrumented := Instrument(backend, fm)

	if _, err := instrumented.CreateFile(ctx, "proj-1", "missing-vault"); err == nil {
		t.Fatal("expected CreateFile against a missing vault to fail")
	}

	if len(fm.operations) != 1 || fm.operations[0].operation != "create_file" {
		t.Fatalf("unexpected recorded operations: %+v", fm.operations)
	}
	if !engine.IsNotFound(fm.operations[0].err) {
		t.Errorf("expected a NotFound error recorded, got %v", fm.operations[0].err)
	}
}
