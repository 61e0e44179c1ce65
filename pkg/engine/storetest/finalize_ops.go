package storetest

import (
	"testing"

	"github.com/marmos91/deuce/internal/ids"
	"github.com/marmos91/deuce/pkg/engine"
)

func runFinalizationTests(t *testing.T, factory BackendFactory) {
	t.Helper()

	t.Run("gapless fully registered blocks finalize cleanly", func(t *testing.T) {
		b := newBackendWithVault(t, factory)
		ctx := t.Context()

		fileID, err := b.CreateFile(ctx, testProject, testVault)
		if err != nil {
			t.Fatalf("CreateFile failed: %v", err)
		}
		for i, size := range []int64{50, 50, 50} {
			blockID := []string{"B1", "B2", "B3"}[i]
			if err := b.RegisterBlock(ctx, testProject, testVault, ids.BlockID(blockID), ids.StorageID("s-"+blockID), size); err != nil {
				t.Fatalf("RegisterBlock(%s) failed: %v", blockID, err)
			}
		}
		offset := int64(0)
		for _, blockID := range []string{"B1", "B2", "B3"} {
			if err := b.AssignBlock(ctx, testProject, testVault, fileID, ids.BlockID(blockID), offset); err != nil {
				t.Fatalf("AssignBlock(%s) failed: %v", blockID, err)
			}
			offset += 50
		}

		size := int64(150)
		diags, err := b.FinalizeFile(ctx, testProject, testVault, fileID, &size)
		if err != nil {
			t.Fatalf("FinalizeFile failed: %v", err)
		}
		if diags != nil {
			t.Fatalf("expected no diagnostics, got %+v", diags)
		}

		finalized, err := b.IsFinalized(ctx, testProject, testVault, fileID)
		if err != nil {
			t.Fatalf("IsFinalized failed: %v", err)
		}
		if !finalized {
			t.Error("expected file to be finalized")
		}
	})

	t.Run("gap or overlap leaves the file open with diagnostics", func(t *testing.T) {
		b := newBackendWithVault(t, factory)
		ctx := t.Context()

		fileID, err := b.CreateFile(ctx, testProject, testVault)
		if err != nil {
			t.Fatalf("CreateFile failed: %v", err)
		}
		if err := b.RegisterBlock(ctx, testProject, testVault, "B1", "s1", 50); err != nil {
			t.Fatalf("RegisterBlock failed: %v", err)
		}
		if err := b.RegisterBlock(ctx, testProject, testVault, "B2", "s2", 50); err != nil {
			t.Fatalf("RegisterBlock failed: %v", err)
		}
		if err := b.AssignBlock(ctx, testProject, testVault, fileID, "B1", 0); err != nil {
			t.Fatalf("AssignBlock failed: %v", err)
		}
		if err := b.AssignBlock(ctx, testProject, testVault, fileID, "B2", 100); err != nil {
			t.Fatalf("AssignBlock failed: %v", err)
		}

		diags, err := b.FinalizeFile(ctx, testProject, testVault, fileID, nil)
		if err != nil {
			t.Fatalf("FinalizeFile returned an error instead of diagnostics: %v", err)
		}
		if len(diags) == 0 {
			t.Fatal("expected a non-empty diagnostic list for a gap")
		}

		finalized, err := b.IsFinalized(ctx, testProject, testVault, fileID)
		if err != nil {
			t.Fatalf("IsFinalized failed: %v", err)
		}
		if finalized {
			t.Error("a file with diagnostics must remain open")
		}
	})

	t.Run("finalize with an unregistered block fails", func(t *testing.T) {
		b := newBackendWithVault(t, factory)
		ctx := t.Context()

		fileID, err := b.CreateFile(ctx, testProject, testVault)
		if err != nil {
			t.Fatalf("CreateFile failed: %v", err)
		}
		if err := b.AssignBlock(ctx, testProject, testVault, fileID, "ghost", 0); err != nil {
			t.Fatalf("AssignBlock failed: %v", err)
		}

		if _, err := b.FinalizeFile(ctx, testProject, testVault, fileID, nil); err == nil {
			t.Fatal("expected FinalizeFile to fail while an assigned block is unregistered")
		}
	})

	t.Run("re-finalizing an already finalized file fails", func(t *testing.T) {
		b := newBackendWithVault(t, factory)
		ctx := t.Context()

		fileID, err := b.CreateFile(ctx, testProject, testVault)
		if err != nil {
			t.Fatalf("CreateFile failed: %v", err)
		}
		if _, err := b.FinalizeFile(ctx, testProject, testVault, fileID, nil); err != nil {
			t.Fatalf("first FinalizeFile failed: %v", err)
		}
		if _, err := b.FinalizeFile(ctx, testProject, testVault, fileID, nil); err == nil {
			t.Fatal("expected re-finalizing to fail")
		} else if !engine.IsAlreadyFinalized(err) {
			t.Errorf("expected an AlreadyFinalized error, got %v", err)
		}
	})
}
