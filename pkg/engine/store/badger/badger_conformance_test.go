package badger_test

import (
	"context"
	"testing"

	"github.com/marmos91/deuce/pkg/engine"
	"github.com/marmos91/deuce/pkg/engine/store/badger"
	"github.com/marmos91/deuce/pkg/engine/storetest"
)

func TestBadgerBackendConformance(t *testing.T) {
	storetest.RunConformanceSuite(t, func(t *testing.T) engine.Backend {
		store, err := badger.Open(context.Background(), badger.Config{InMemory: true}, engine.Config{})
		if err != nil {
			t.Fatalf("badger.Open: %v", err)
		}
		t.Cleanup(func() { store.Close() })
		return store
	})
}
