package storetest

import (
	"testing"

	"github.com/marmos91/deuce/internal/ids"
)

func runBlockLifecycleTests(t *testing.T, factory BackendFactory) {
	t.Helper()

	t.Run("register then round-trip the storage id bijection", func(t *testing.T) {
		b := newBackendWithVault(t, factory)
		ctx := t.Context()

		if err := b.RegisterBlock(ctx, testProject, testVault, "B1", "s1", 100); err != nil {
			t.Fatalf("RegisterBlock failed: %v", err)
		}

		storageID, err := b.GetBlockStorageID(ctx, testProject, testVault, "B1")
		if err != nil {
			t.Fatalf("GetBlockStorageID failed: %v", err)
		}
		if storageID != "s1" {
			t.Errorf("expected storage id s1, got %q", storageID)
		}

		blockID, err := b.GetBlockMetadataID(ctx, testProject, testVault, "s1")
		if err != nil {
			t.Fatalf("GetBlockMetadataID failed: %v", err)
		}
		if blockID != "B1" {
			t.Errorf("expected block id B1, got %q", blockID)
		}
	})

	t.Run("register is idempotent with the same storage id", func(t *testing.T) {
		b := newBackendWithVault(t, factory)
		ctx := t.Context()

		if err := b.RegisterBlock(ctx, testProject, testVault, "B1", "s1", 100); err != nil {
			t.Fatalf("first RegisterBlock failed: %v", err)
		}
		if err := b.RegisterBlock(ctx, testProject, testVault, "B1", "s1", 100); err != nil {
			t.Fatalf("second RegisterBlock (identical) failed: %v", err)
		}
	})

	t.Run("re-register with a different storage id fails constraint", func(t *testing.T) {
		b := newBackendWithVault(t, factory)
		ctx := t.Context()

		if err := b.RegisterBlock(ctx, testProject, testVault, "B1", "s1", 100); err != nil {
			t.Fatalf("RegisterBlock failed: %v", err)
		}
		if err := b.RegisterBlock(ctx, testProject, testVault, "B1", "s2", 100); err == nil {
			t.Fatal("expected RegisterBlock with a differing storage id to fail")
		}
	})

	t.Run("unregister referenced block fails, succeeds once refcount drops to zero", func(t *testing.T) {
		b := newBackendWithVault(t, factory)
		ctx := t.Context()

		fileID, err := b.CreateFile(ctx, testProject, testVault)
		if err != nil {
			t.Fatalf("CreateFile failed: %v", err)
		}
		if err := b.RegisterBlock(ctx, testProject, testVault, "B1", "s1", 10); err != nil {
			t.Fatalf("RegisterBlock failed: %v", err)
		}
		if err := b.AssignBlock(ctx, testProject, testVault, fileID, "B1", 0); err != nil {
			t.Fatalf("AssignBlock failed: %v", err)
		}

		if err := b.UnregisterBlock(ctx, testProject, testVault, "B1"); err == nil {
			t.Fatal("expected UnregisterBlock to fail while referenced")
		}

		if err := b.DeleteFile(ctx, testProject, testVault, fileID); err != nil {
			t.Fatalf("DeleteFile failed: %v", err)
		}

		if err := b.UnregisterBlock(ctx, testProject, testVault, "B1"); err != nil {
			t.Fatalf("expected UnregisterBlock to succeed once unreferenced, got: %v", err)
		}
	})

	t.Run("block ref count is nil for unknown blocks", func(t *testing.T) {
		b := newBackendWithVault(t, factory)
		ctx := t.Context()

		count, err := b.BlockRefCount(ctx, testProject, testVault, "missing")
		if err != nil {
			t.Fatalf("BlockRefCount failed: %v", err)
		}
		if count != nil {
			t.Errorf("expected nil refcount for an unknown block, got %v", *count)
		}
	})

	t.Run("list blocks is lexicographic", func(t *testing.T) {
		b := newBackendWithVault(t, factory)
		ctx := t.Context()

		for _, id := range []string{"b3", "b1", "b2"} {
			if err := b.RegisterBlock(ctx, testProject, testVault, ids.BlockID(id), ids.StorageID("s-"+id), 1); err != nil {
				t.Fatalf("RegisterBlock(%s) failed: %v", id, err)
			}
		}

		blocks, next, err := b.ListBlocks(ctx, testProject, testVault, nil, 10)
		if err != nil {
			t.Fatalf("ListBlocks failed: %v", err)
		}
		if next != nil {
			t.Errorf("did not expect a next marker, got %v", *next)
		}
		want := []string{"b1", "b2", "b3"}
		for i, id := range blocks {
			if string(id) != want[i] {
				t.Errorf("ListBlocks[%d] = %q, want %q", i, id, want[i])
			}
		}
	})
}
