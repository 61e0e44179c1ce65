package storetest

import (
	"testing"

	"github.com/marmos91/deuce/pkg/engine"
)

// BackendFactory creates a fresh, empty engine.Backend for each test. The
// factory receives *testing.T so it can use t.TempDir() for backends that
// need filesystem paths and t.Cleanup() for teardown.
type BackendFactory func(t *testing.T) engine.Backend

// RunConformanceSuite runs the full conformance test suite against the
// provided backend factory. Each test gets a fresh backend instance to
// ensure isolation.
//
// The suite covers:
//   - VaultLifecycle: create/delete/list/statistics, idempotence
//   - BlockLifecycle: register/unregister, the storage_id<->block_id bijection
//   - FileLifecycle: create/delete/list, assignment, refcount bookkeeping
//   - Finalization: the Gap/Overlap validator end-to-end
//   - Pagination: marker/limit completeness of ListFiles
//   - Scenarios: end-to-end flows spanning several operations
func RunConformanceSuite(t *testing.T, factory BackendFactory) {
	t.Helper()

	t.Run("VaultLifecycle", func(t *testing.T) {
		runVaultLifecycleTests(t, factory)
	})

	t.Run("BlockLifecycle", func(t *testing.T) {
		runBlockLifecycleTests(t, factory)
	})

	t.Run("FileLifecycle", func(t *testing.T) {
		runFileLifecycleTests(t, factory)
	})

	t.Run("Finalization", func(t *testing.T) {
		runFinalizationTests(t, factory)
	})

	t.Run("Pagination", func(t *testing.T) {
		runPaginationTests(t, factory)
	})

	t.Run("Scenarios", func(t *testing.T) {
		runScenarioTests(t, factory)
	})
}

const testProject = "proj-1"
const testVault = "vault-1"

// newBackendWithVault is a helper that builds a fresh backend and creates
// a single vault for tests that don't care about vault lifecycle itself.
func newBackendWithVault(t *testing.T, factory BackendFactory) engine.Backend {
	t.Helper()

	b := factory(t)
	ctx := t.Context()

	if err := b.CreateVault(ctx, testProject, testVault); err != nil {
		t.Fatalf("CreateVault(%q) failed: %v", testVault, err)
	}

	return b
}
