package transport_test

import (
	"encoding/json"
	"testing"

	"github.com/marmos91/deuce/internal/ids"
	"github.com/marmos91/deuce/pkg/engine"
	"github.com/marmos91/deuce/pkg/engine/transport"
)

func TestAssignmentResponseMarshalsEmptyArrayNotNull(t *testing.T) {
	var resp transport.AssignmentResponse
	b, err := json.Marshal(resp)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if string(b) != "[]" {
		t.Fatalf("got %s, want []", b)
	}
}

func TestMarshalDiagnosticsGapShape(t *testing.T) {
	block := ids.BlockID("b2")
	offset := int64(100)
	diagnostics := []engine.Diagnostic{{
		Kind:   engine.DiagnosticGap,
		After:  engine.BlockRef{BlockID: &block, Offset: &offset},
		Before: engine.BlockRef{},
	}}

	b, err := transport.MarshalDiagnostics(diagnostics)
	if err != nil {
		t.Fatalf("MarshalDiagnostics: %v", err)
	}

	var decoded []map[string]struct {
		After  [2]any `json:"after"`
		Before [2]any `json:"before"`
	}
	if err := json.Unmarshal(b, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if len(decoded) != 1 {
		t.Fatalf("got %d diagnostics, want 1", len(decoded))
	}
	gap, ok := decoded[0]["Gap"]
	if !ok {
		t.Fatalf("missing Gap key: %v", decoded[0])
	}
	if gap.After[0] != "b2" {
		t.Fatalf("after[0] = %v, want b2", gap.After[0])
	}
	if gap.Before[0] != nil {
		t.Fatalf("before[0] = %v, want nil", gap.Before[0])
	}
}

func TestNextBatchHeader(t *testing.T) {
	if _, ok := transport.NextBatchHeader("https://example/v", nil); ok {
		t.Fatal("expected no header for nil marker")
	}
	marker := "vault-2"
	header, ok := transport.NextBatchHeader("https://example/v", &marker)
	if !ok {
		t.Fatal("expected header for non-nil marker")
	}
	if header != "https://example/v?marker=vault-2" {
		t.Fatalf("got %q", header)
	}
}
