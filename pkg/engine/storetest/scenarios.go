package storetest

import (
	"context"
	"sort"
	"testing"

	"github.com/marmos91/deuce/internal/ids"
	"github.com/marmos91/deuce/pkg/engine"
)

func runScenarioTests(t *testing.T, factory BackendFactory) {
	t.Helper()

	t.Run("empty finalize", func(t *testing.T) {
		b := newBackendWithVault(t, factory)
		ctx := t.Context()

		fileID, err := b.CreateFile(ctx, testProject, testVault)
		if err != nil {
			t.Fatalf("CreateFile failed: %v", err)
		}
		diags, err := b.FinalizeFile(ctx, testProject, testVault, fileID, nil)
		if err != nil {
			t.Fatalf("FinalizeFile failed: %v", err)
		}
		if diags != nil {
			t.Fatalf("expected Ok, got %+v", diags)
		}
		finalized, err := b.IsFinalized(ctx, testProject, testVault, fileID)
		if err != nil {
			t.Fatalf("IsFinalized failed: %v", err)
		}
		if !finalized {
			t.Error("expected file to be finalized")
		}
	})

	t.Run("three block success", func(t *testing.T) {
		b := newBackendWithVault(t, factory)
		ctx := t.Context()

		fileID, err := b.CreateFile(ctx, testProject, testVault)
		if err != nil {
			t.Fatalf("CreateFile failed: %v", err)
		}
		for _, blockID := range []ids.BlockID{"B1", "B2", "B3"} {
			if err := b.RegisterBlock(ctx, testProject, testVault, blockID, ids.StorageID(blockID), 100); err != nil {
				t.Fatalf("RegisterBlock(%s) failed: %v", blockID, err)
			}
		}
		for i, blockID := range []ids.BlockID{"B1", "B2", "B3"} {
			if err := b.AssignBlock(ctx, testProject, testVault, fileID, blockID, int64(i)*100); err != nil {
				t.Fatalf("AssignBlock(%s) failed: %v", blockID, err)
			}
		}

		size := int64(300)
		diags, err := b.FinalizeFile(ctx, testProject, testVault, fileID, &size)
		if err != nil {
			t.Fatalf("FinalizeFile failed: %v", err)
		}
		if diags != nil {
			t.Fatalf("expected Ok, got %+v", diags)
		}

		assignments, err := b.ListFileBlocks(ctx, testProject, testVault, fileID, nil, 10)
		if err != nil {
			t.Fatalf("ListFileBlocks failed: %v", err)
		}
		if len(assignments) != 3 {
			t.Fatalf("expected 3 assignments, got %d", len(assignments))
		}
		wantOffsets := []int64{0, 100, 200}
		wantBlocks := []ids.BlockID{"B1", "B2", "B3"}
		for i, a := range assignments {
			if a.Offset != wantOffsets[i] || a.BlockID != wantBlocks[i] {
				t.Errorf("assignment[%d] = (%s, %d), want (%s, %d)", i, a.BlockID, a.Offset, wantBlocks[i], wantOffsets[i])
			}
		}
	})

	t.Run("missing block reconciliation", func(t *testing.T) {
		b := newBackendWithVault(t, factory)
		ctx := t.Context()

		fileID, err := b.CreateFile(ctx, testProject, testVault)
		if err != nil {
			t.Fatalf("CreateFile failed: %v", err)
		}
		if err := b.RegisterBlock(ctx, testProject, testVault, "B1", "s1", 10); err != nil {
			t.Fatalf("RegisterBlock(B1) failed: %v", err)
		}
		if err := b.RegisterBlock(ctx, testProject, testVault, "B2", "s2", 10); err != nil {
			t.Fatalf("RegisterBlock(B2) failed: %v", err)
		}
		if err := b.AssignBlock(ctx, testProject, testVault, fileID, "B1", 0); err != nil {
			t.Fatalf("AssignBlock(B1) failed: %v", err)
		}
		if err := b.AssignBlock(ctx, testProject, testVault, fileID, "B2", 10); err != nil {
			t.Fatalf("AssignBlock(B2) failed: %v", err)
		}
		if err := b.AssignBlock(ctx, testProject, testVault, fileID, "Bx", 20); err != nil {
			t.Fatalf("AssignBlock(Bx) failed: %v", err)
		}

		missing := missingBlocks(t, b, fileID)
		if len(missing) != 1 || missing[0] != "Bx" {
			t.Fatalf("expected missing=[Bx], got %v", missing)
		}

		if err := b.RegisterBlock(ctx, testProject, testVault, "Bx", "sx", 10); err != nil {
			t.Fatalf("RegisterBlock(Bx) failed: %v", err)
		}

		missing = missingBlocks(t, b, fileID)
		if len(missing) != 0 {
			t.Fatalf("expected no missing blocks after registering Bx, got %v", missing)
		}
	})

	t.Run("finalized immutability", func(t *testing.T) {
		b := newBackendWithVault(t, factory)
		ctx := t.Context()

		fileID, err := b.CreateFile(ctx, testProject, testVault)
		if err != nil {
			t.Fatalf("CreateFile failed: %v", err)
		}
		for _, blockID := range []ids.BlockID{"B1", "B2", "B3"} {
			if err := b.RegisterBlock(ctx, testProject, testVault, blockID, ids.StorageID(blockID), 100); err != nil {
				t.Fatalf("RegisterBlock(%s) failed: %v", blockID, err)
			}
		}
		for i, blockID := range []ids.BlockID{"B1", "B2", "B3"} {
			if err := b.AssignBlock(ctx, testProject, testVault, fileID, blockID, int64(i)*100); err != nil {
				t.Fatalf("AssignBlock(%s) failed: %v", blockID, err)
			}
		}
		size := int64(300)
		if diags, err := b.FinalizeFile(ctx, testProject, testVault, fileID, &size); err != nil || diags != nil {
			t.Fatalf("expected FinalizeFile to succeed, got diags=%+v err=%v", diags, err)
		}

		if err := b.RegisterBlock(ctx, testProject, testVault, "B4", "sB4", 100); err != nil {
			t.Fatalf("RegisterBlock(B4) failed: %v", err)
		}
		if err := b.AssignBlock(ctx, testProject, testVault, fileID, "B4", 300); err == nil {
			t.Fatal("expected AssignBlock on the finalized file to fail")
		} else if !engine.IsAlreadyFinalized(err) {
			t.Errorf("expected an AlreadyFinalized error, got %v", err)
		}
	})

	t.Run("refcount through deletes", func(t *testing.T) {
		b := newBackendWithVault(t, factory)
		ctx := t.Context()

		f1, err := b.CreateFile(ctx, testProject, testVault)
		if err != nil {
			t.Fatalf("CreateFile(F1) failed: %v", err)
		}
		f2, err := b.CreateFile(ctx, testProject, testVault)
		if err != nil {
			t.Fatalf("CreateFile(F2) failed: %v", err)
		}
		if err := b.RegisterBlock(ctx, testProject, testVault, "B1", "s1", 10); err != nil {
			t.Fatalf("RegisterBlock failed: %v", err)
		}
		if err := b.AssignBlock(ctx, testProject, testVault, f1, "B1", 0); err != nil {
			t.Fatalf("AssignBlock(F1) failed: %v", err)
		}
		if err := b.AssignBlock(ctx, testProject, testVault, f2, "B1", 0); err != nil {
			t.Fatalf("AssignBlock(F2) failed: %v", err)
		}

		assertRefCount(t, b, "B1", 2)

		if err := b.DeleteFile(ctx, testProject, testVault, f1); err != nil {
			t.Fatalf("DeleteFile(F1) failed: %v", err)
		}
		assertRefCount(t, b, "B1", 1)

		if err := b.UnregisterBlock(ctx, testProject, testVault, "B1"); err == nil {
			t.Fatal("expected UnregisterBlock to still fail with refcount 1")
		}

		if err := b.DeleteFile(ctx, testProject, testVault, f2); err != nil {
			t.Fatalf("DeleteFile(F2) failed: %v", err)
		}
		assertRefCount(t, b, "B1", 0)

		if err := b.UnregisterBlock(ctx, testProject, testVault, "B1"); err != nil {
			t.Fatalf("expected UnregisterBlock to succeed with refcount 0, got: %v", err)
		}
	})

	t.Run("assign before register", func(t *testing.T) {
		b := newBackendWithVault(t, factory)
		ctx := t.Context()

		fileID, err := b.CreateFile(ctx, testProject, testVault)
		if err != nil {
			t.Fatalf("CreateFile failed: %v", err)
		}

		// Assignments may reference a block_id that is not registered
		// yet; the refcount must count this reference regardless of
		// registration order.
		if err := b.AssignBlock(ctx, testProject, testVault, fileID, "Bpre", 0); err != nil {
			t.Fatalf("AssignBlock(Bpre) failed: %v", err)
		}

		if err := b.RegisterBlock(ctx, testProject, testVault, "Bpre", "spre", 10); err != nil {
			t.Fatalf("RegisterBlock(Bpre) failed: %v", err)
		}

		assertRefCount(t, b, "Bpre", 1)

		if err := b.UnregisterBlock(ctx, testProject, testVault, "Bpre"); err == nil {
			t.Fatal("expected UnregisterBlock to fail while Bpre is still referenced")
		} else if !engine.IsConstraint(err) {
			t.Errorf("expected a Constraint error, got %v", err)
		}

		if err := b.DeleteFile(ctx, testProject, testVault, fileID); err != nil {
			t.Fatalf("DeleteFile failed: %v", err)
		}
		assertRefCount(t, b, "Bpre", 0)

		if err := b.UnregisterBlock(ctx, testProject, testVault, "Bpre"); err != nil {
			t.Fatalf("expected UnregisterBlock to succeed with refcount 0, got: %v", err)
		}
	})
}

// missingBlocks returns the block ids assigned to file that are not
// currently registered, sorted for deterministic assertions.
func missingBlocks(t *testing.T, b engine.Backend, file ids.FileID) []ids.BlockID {
	t.Helper()
	ctx := context.Background()

	assignments, err := b.ListFileBlocks(ctx, testProject, testVault, file, nil, 1000)
	if err != nil {
		t.Fatalf("ListFileBlocks failed: %v", err)
	}

	var missing []ids.BlockID
	for _, a := range assignments {
		has, err := b.HasBlock(ctx, testProject, testVault, a.BlockID)
		if err != nil {
			t.Fatalf("HasBlock(%s) failed: %v", a.BlockID, err)
		}
		if !has {
			missing = append(missing, a.BlockID)
		}
	}
	sort.Slice(missing, func(i, j int) bool { return missing[i] < missing[j] })
	return missing
}

func assertRefCount(t *testing.T, b engine.Backend, block ids.BlockID, want int64) {
	t.Helper()

	count, err := b.BlockRefCount(context.Background(), testProject, testVault, block)
	if err != nil {
		t.Fatalf("BlockRefCount(%s) failed: %v", block, err)
	}
	if count == nil {
		t.Fatalf("expected refcount %d for %s, got nil", want, block)
	}
	if *count != want {
		t.Fatalf("expected refcount %d for %s, got %d", want, block, *count)
	}
}
