// Package transport supplies the Go-level request/response shapes of the
// engine's wire contracts, so engine return values are directly
// serializable the way the assignment and finalization endpoints require
// without building the HTTP mux itself.
package transport

import (
	"encoding/json"
	"fmt"

	"github.com/marmos91/deuce/internal/ids"
	"github.com/marmos91/deuce/pkg/engine"
)

// BlockAssignmentEntry is one element of an assignment request body.
type BlockAssignmentEntry struct {
	ID     ids.BlockID `json:"id"`
	Size   int64       `json:"size"`
	Offset int64       `json:"offset"`
}

// AssignmentRequest is the JSON body of an assignment call:
// {"blocks": [{"id": "<hex>", "size": <int>, "offset": <int>}, …]}
type AssignmentRequest struct {
	Blocks []BlockAssignmentEntry `json:"blocks"`
}

// AssignmentResponse is the JSON array of block ids referenced by the
// file but not yet registered in the block store's metadata. An empty
// (non-nil) slice means every assigned block already exists.
type AssignmentResponse []ids.BlockID

// MarshalJSON always emits an array, never the JSON null a nil slice
// would otherwise produce, matching "empty array means all assigned
// blocks exist" in the wire contract.
func (r AssignmentResponse) MarshalJSON() ([]byte, error) {
	if r == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]ids.BlockID(r))
}

// diagnosticWire is the {"Gap": {...}} / {"Overlap": {...}} shape a
// Diagnostic marshals to: a single-key object keyed by the kind, whose
// value names the bounding (block_id, offset) neighbors.
type diagnosticWire struct {
	After  [2]any `json:"after"`
	Before [2]any `json:"before"`
}

func refPair(ref engine.BlockRef) [2]any {
	if ref.BlockID == nil {
		return [2]any{nil, nil}
	}
	return [2]any{string(*ref.BlockID), *ref.Offset}
}

// MarshalDiagnostic renders a finalization Diagnostic as the wire's
// single-key {"Gap": {...}} or {"Overlap": {...}} object.
func MarshalDiagnostic(d engine.Diagnostic) ([]byte, error) {
	body := diagnosticWire{After: refPair(d.After), Before: refPair(d.Before)}
	return json.Marshal(map[string]diagnosticWire{d.Kind.String(): body})
}

// MarshalDiagnostics renders a finalization failure body: a JSON array
// of single-key diagnostic objects, in diagnostic order.
func MarshalDiagnostics(diagnostics []engine.Diagnostic) ([]byte, error) {
	raw := make([]json.RawMessage, len(diagnostics))
	for i, d := range diagnostics {
		b, err := MarshalDiagnostic(d)
		if err != nil {
			return nil, fmt.Errorf("transport: marshal diagnostic %d: %w", i, err)
		}
		raw[i] = b
	}
	if raw == nil {
		raw = []json.RawMessage{}
	}
	return json.Marshal(raw)
}

// NextBatchHeader builds the X-Next-Batch continuation URL for a listing
// response. ok is false when marker is nil, meaning no header should be
// emitted.
func NextBatchHeader(vaultURL string, marker *string) (string, bool) {
	if marker == nil {
		return "", false
	}
	return fmt.Sprintf("%s?marker=%s", vaultURL, *marker), true
}
