package storetest

import "testing"

func runVaultLifecycleTests(t *testing.T, factory BackendFactory) {
	t.Helper()

	t.Run("create then delete empty vault succeeds", func(t *testing.T) {
		b := factory(t)
		ctx := t.Context()

		if err := b.CreateVault(ctx, testProject, "v1"); err != nil {
			t.Fatalf("CreateVault failed: %v", err)
		}
		if err := b.DeleteVault(ctx, testProject, "v1"); err != nil {
			t.Fatalf("DeleteVault on empty vault failed: %v", err)
		}
	})

	t.Run("create vault is idempotent", func(t *testing.T) {
		// Creating the same vault twice yields exactly one vault.
		b := factory(t)
		ctx := t.Context()

		if err := b.CreateVault(ctx, testProject, "v1"); err != nil {
			t.Fatalf("first CreateVault failed: %v", err)
		}
		if err := b.CreateVault(ctx, testProject, "v1"); err != nil {
			t.Fatalf("second CreateVault failed: %v", err)
		}

		vaults, _, err := b.ListVaults(ctx, testProject, nil, 10)
		if err != nil {
			t.Fatalf("ListVaults failed: %v", err)
		}
		if len(vaults) != 1 {
			t.Fatalf("expected exactly one vault after two creates, got %d", len(vaults))
		}
	})

	t.Run("delete non-empty vault fails with constraint error", func(t *testing.T) {
		b := factory(t)
		ctx := t.Context()

		if err := b.CreateVault(ctx, testProject, "v1"); err != nil {
			t.Fatalf("CreateVault failed: %v", err)
		}
		if _, err := b.CreateFile(ctx, testProject, "v1"); err != nil {
			t.Fatalf("CreateFile failed: %v", err)
		}

		err := b.DeleteVault(ctx, testProject, "v1")
		if err == nil {
			t.Fatal("expected DeleteVault to fail on a non-empty vault")
		}
	})

	t.Run("vault statistics reflect files and registered blocks", func(t *testing.T) {
		b := newBackendWithVault(t, factory)
		ctx := t.Context()

		fileID, err := b.CreateFile(ctx, testProject, testVault)
		if err != nil {
			t.Fatalf("CreateFile failed: %v", err)
		}
		if err := b.RegisterBlock(ctx, testProject, testVault, "B1", "s1", 100); err != nil {
			t.Fatalf("RegisterBlock failed: %v", err)
		}
		if err := b.AssignBlock(ctx, testProject, testVault, fileID, "B1", 0); err != nil {
			t.Fatalf("AssignBlock failed: %v", err)
		}

		stats, err := b.VaultStatistics(ctx, testProject, testVault)
		if err != nil {
			t.Fatalf("VaultStatistics failed: %v", err)
		}
		if stats.FileCount != 1 {
			t.Errorf("expected FileCount=1, got %d", stats.FileCount)
		}
		if stats.BlockCount != 1 {
			t.Errorf("expected BlockCount=1, got %d", stats.BlockCount)
		}
		if stats.TotalSize != 100 {
			t.Errorf("expected TotalSize=100, got %d", stats.TotalSize)
		}
	})

	t.Run("operations on unknown vault fail not found", func(t *testing.T) {
		b := factory(t)
		ctx := t.Context()

		if _, err := b.CreateFile(ctx, testProject, "missing"); err == nil {
			t.Error("expected CreateFile against an unknown vault to fail")
		}
		if _, _, err := b.ListVaults(ctx, testProject, nil, 10); err != nil {
			t.Errorf("ListVaults against an empty project should not error: %v", err)
		}
	})
}
