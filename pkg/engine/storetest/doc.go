// Package storetest provides a conformance test suite for engine.Backend
// implementations.
//
// Every backend (memory, sqlite, badger) should pass these tests. The
// suite verifies that every implementation satisfies the Backend
// behavioral contract -- lifecycle rules, refcount bookkeeping,
// finalization, pagination, and end-to-end scenarios -- catching
// regressions when backend code changes.
//
// Usage:
//
//	func TestConformance(t *testing.T) {
//	    storetest.RunConformanceSuite(t, func(t *testing.T) engine.Backend {
//	        return memory.New(engine.Config{})
//	    })
//	}
//
// The factory function receives *testing.T so it can call t.TempDir() for
// backends that need filesystem paths (e.g. the sqlite backend) and
// t.Cleanup for teardown.
package storetest
