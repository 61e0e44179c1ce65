// Package ids defines the typed identifiers used throughout the metadata
// engine. Keeping each identifier as a distinct type (rather than a bare
// string) prevents a project ID from being passed where a vault ID is
// expected, and vice versa -- a class of bug that is otherwise only caught
// at runtime.
package ids

import (
	"fmt"

	"github.com/google/uuid"
)

// ProjectID scopes a vault to a tenant. Caller-supplied; the engine never
// allocates one.
type ProjectID string

// VaultID names a namespace for files and blocks within a project.
// Caller-supplied: create_vault is idempotent on this value.
type VaultID string

// FileID identifies a file within a vault. Server-assigned at creation
// time, backed by a random UUID (v4).
type FileID uuid.UUID

// NewFileID allocates a fresh, random FileID.
func NewFileID() FileID {
	return FileID(uuid.New())
}

// ParseFileID parses a FileID from its canonical string form.
func ParseFileID(s string) (FileID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return FileID{}, fmt.Errorf("ids: invalid file id %q: %w", s, err)
	}
	return FileID(u), nil
}

func (f FileID) String() string {
	return uuid.UUID(f).String()
}

// IsZero reports whether f is the zero-value FileID.
func (f FileID) IsZero() bool {
	return f == FileID{}
}

// BlockID is the client-supplied content hash identifying a block's
// payload. Treated as an opaque string; the reference system uses hex
// SHA-1, but the engine never inspects its structure.
type BlockID string

// StorageID is the opaque key under which a block's payload lives in the
// object store. Forms a bijection with BlockID within a (project, vault).
type StorageID string

func (p ProjectID) String() string { return string(p) }
func (v VaultID) String() string   { return string(v) }
func (b BlockID) String() string   { return string(b) }
func (s StorageID) String() string { return string(s) }
