package memory_test

import (
	"context"
	"testing"

	"github.com/marmos91/deuce/pkg/engine"
	"github.com/marmos91/deuce/pkg/engine/store/memory"
)

func TestRegisterBlockRespectsMaxBlockSize(t *testing.T) {
	ctx := context.Background()
	s := memory.New(engine.Config{MaxBlockSize: 100})

	if err := s.CreateVault(ctx, "p", "v"); err != nil {
		t.Fatalf("CreateVault failed: %v", err)
	}

	if err := s.RegisterBlock(ctx, "p", "v", "B1", "s1", 100); err != nil {
		t.Fatalf("RegisterBlock at the cap should succeed, got: %v", err)
	}
	if err := s.RegisterBlock(ctx, "p", "v", "B2", "s2", 101); err == nil {
		t.Fatal("expected RegisterBlock above the cap to fail")
	} else if !engine.IsConstraint(err) {
		t.Errorf("expected a Constraint error, got %v", err)
	}
}

func TestRegisterBlockUncappedByDefault(t *testing.T) {
	ctx := context.Background()
	s := memory.New(engine.Config{})

	if err := s.CreateVault(ctx, "p", "v"); err != nil {
		t.Fatalf("CreateVault failed: %v", err)
	}
	if err := s.RegisterBlock(ctx, "p", "v", "B1", "s1", 1<<40); err != nil {
		t.Fatalf("RegisterBlock with no configured cap should succeed, got: %v", err)
	}
}
