package storetest

import "testing"

func runFileLifecycleTests(t *testing.T, factory BackendFactory) {
	t.Helper()

	t.Run("create file starts open and unfinalized", func(t *testing.T) {
		b := newBackendWithVault(t, factory)
		ctx := t.Context()

		fileID, err := b.CreateFile(ctx, testProject, testVault)
		if err != nil {
			t.Fatalf("CreateFile failed: %v", err)
		}

		finalized, err := b.IsFinalized(ctx, testProject, testVault, fileID)
		if err != nil {
			t.Fatalf("IsFinalized failed: %v", err)
		}
		if finalized {
			t.Error("freshly created file must not be finalized")
		}
	})

	t.Run("delete file is idempotent", func(t *testing.T) {
		b := newBackendWithVault(t, factory)
		ctx := t.Context()

		fileID, err := b.CreateFile(ctx, testProject, testVault)
		if err != nil {
			t.Fatalf("CreateFile failed: %v", err)
		}
		if err := b.DeleteFile(ctx, testProject, testVault, fileID); err != nil {
			t.Fatalf("first DeleteFile failed: %v", err)
		}
		if err := b.DeleteFile(ctx, testProject, testVault, fileID); err != nil {
			t.Fatalf("second DeleteFile should be a no-op, got: %v", err)
		}
	})

	t.Run("assign block is idempotent at the same offset", func(t *testing.T) {
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
			t.Fatalf("first AssignBlock failed: %v", err)
		}
		if err := b.AssignBlock(ctx, testProject, testVault, fileID, "B1", 0); err != nil {
			t.Fatalf("second identical AssignBlock failed: %v", err)
		}

		count, err := b.BlockRefCount(ctx, testProject, testVault, "B1")
		if err != nil {
			t.Fatalf("BlockRefCount failed: %v", err)
		}
		if count == nil || *count != 1 {
			t.Fatalf("expected refcount 1 after repeated identical assignment, got %v", count)
		}
	})

	t.Run("replacement assignment shifts refcount between blocks", func(t *testing.T) {
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
		if err := b.AssignBlock(ctx, testProject, testVault, fileID, "B2", 0); err != nil {
			t.Fatalf("AssignBlock(B2) replacement failed: %v", err)
		}

		c1, err := b.BlockRefCount(ctx, testProject, testVault, "B1")
		if err != nil {
			t.Fatalf("BlockRefCount(B1) failed: %v", err)
		}
		if c1 == nil || *c1 != 0 {
			t.Errorf("expected B1 refcount 0 after replacement, got %v", c1)
		}

		c2, err := b.BlockRefCount(ctx, testProject, testVault, "B2")
		if err != nil {
			t.Fatalf("BlockRefCount(B2) failed: %v", err)
		}
		if c2 == nil || *c2 != 1 {
			t.Errorf("expected B2 refcount 1 after replacement, got %v", c2)
		}
	})

	t.Run("assign block on a finalized file fails", func(t *testing.T) {
		b := newBackendWithVault(t, factory)
		ctx := t.Context()

		fileID, err := b.CreateFile(ctx, testProject, testVault)
		if err != nil {
			t.Fatalf("CreateFile failed: %v", err)
		}
		if _, err := b.FinalizeFile(ctx, testProject, testVault, fileID, nil); err != nil {
			t.Fatalf("FinalizeFile (empty file) failed: %v", err)
		}

		if err := b.AssignBlock(ctx, testProject, testVault, fileID, "B1", 0); err == nil {
			t.Fatal("expected AssignBlock on a finalized file to fail")
		}
	})

	t.Run("list files filters by finalized state", func(t *testing.T) {
		b := newBackendWithVault(t, factory)
		ctx := t.Context()

		open, err := b.CreateFile(ctx, testProject, testVault)
		if err != nil {
			t.Fatalf("CreateFile failed: %v", err)
		}
		finalized, err := b.CreateFile(ctx, testProject, testVault)
		if err != nil {
			t.Fatalf("CreateFile failed: %v", err)
		}
		if _, err := b.FinalizeFile(ctx, testProject, testVault, finalized, nil); err != nil {
			t.Fatalf("FinalizeFile failed: %v", err)
		}

		openFiles, _, err := b.ListFiles(ctx, testProject, testVault, nil, 10, false)
		if err != nil {
			t.Fatalf("ListFiles(open) failed: %v", err)
		}
		if len(openFiles) != 1 || openFiles[0] != open {
			t.Errorf("expected exactly the open file, got %v", openFiles)
		}

		finalizedFiles, _, err := b.ListFiles(ctx, testProject, testVault, nil, 10, true)
		if err != nil {
			t.Fatalf("ListFiles(finalized) failed: %v", err)
		}
		if len(finalizedFiles) != 1 || finalizedFiles[0] != finalized {
			t.Errorf("expected exactly the finalized file, got %v", finalizedFiles)
		}
	})
}
