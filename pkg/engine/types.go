// Package engine implements the content-addressed block storage metadata
// core: vaults, files, blocks, and the assignments that bind them together,
// behind a single pluggable Backend interface.
package engine

import (
	"github.com/marmos91/deuce/internal/ids"
)

// VaultStats summarizes the current contents of a vault.
type VaultStats struct {
	FileCount  int64
	BlockCount int64
	TotalSize  int64
}

// BlockAssignment binds a block to a byte offset within a file. The pair
// (FileID, Offset) is unique within a vault: re-assigning the same offset
// overwrites the previous assignment.
type BlockAssignment struct {
	FileID  ids.FileID
	BlockID ids.BlockID
	Offset  int64
}

// HealthStatus reports whether a backend is able to serve requests.
type HealthStatus struct {
	OK     bool
	Reason string
}
