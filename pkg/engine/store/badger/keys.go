package badger

import (
	"encoding/binary"

	"github.com/marmos91/deuce/internal/ids"
)

// Every key is prefixed by a single-letter namespace so range scans
// stay cheap and collisions between record types are impossible.
//
// Every segment but the last is encoded via encSeg (a 4-byte big-endian
// length header followed by the raw bytes), so a literal ":" or any other
// byte inside a caller-supplied project/vault/file id can never be
// mistaken for a segment boundary. The trailing segment is left raw
// since nothing follows it in the key; decodeIDSuffix recovers it by
// slicing off the known prefix.
//
// vault record:      v:{project}{vault}
// file record:       f:{project}{vault}{file_id}
// block record:      b:{project}{vault}{block_id}
// assignment record: a:{project}{vault}{file_id}{offset_be64}
// reverse index:     r:{project}{vault}{storage_id}
// refcount counter:  c:{project}{vault}{block_id}
const (
	prefixVault      = "v:"
	prefixFile       = "f:"
	prefixBlock      = "b:"
	prefixAssignment = "a:"
	prefixReverse    = "r:"
	prefixRefcount   = "c:"
)

// encSeg length-prefixes s so it can be concatenated with other segments
// into a key without its contents being able to collide with a
// neighboring segment or the literal prefix bytes.
func encSeg(s string) []byte {
	buf := make([]byte, 4+len(s))
	binary.BigEndian.PutUint32(buf, uint32(len(s)))
	copy(buf[4:], s)
	return buf
}

// stem builds {prefix}{encSeg(segs[0])}{encSeg(segs[1])}... -- the
// unambiguous, collision-free key prefix shared by every record under a
// given namespace letter.
func stem(prefix string, segs ...string) []byte {
	buf := []byte(prefix)
	for _, s := range segs {
		buf = append(buf, encSeg(s)...)
	}
	return buf
}

func keyVault(project ids.ProjectID, vault ids.VaultID) []byte {
	return append(stem(prefixVault, string(project)), vault...)
}

func keyFile(project ids.ProjectID, vault ids.VaultID, file ids.FileID) []byte {
	return append(keyFilePrefix(project, vault), file.String()...)
}

func keyFilePrefix(project ids.ProjectID, vault ids.VaultID) []byte {
	return stem(prefixFile, string(project), string(vault))
}

func keyBlock(project ids.ProjectID, vault ids.VaultID, block ids.BlockID) []byte {
	return append(keyBlockPrefix(project, vault), block...)
}

func keyBlockPrefix(project ids.ProjectID, vault ids.VaultID) []byte {
	return stem(prefixBlock, string(project), string(vault))
}

// keyAssignmentPrefix returns the key prefix covering every assignment
// for one file. Because encodeOffset is a fixed-width big-endian
// encoding, a forward scan over this prefix visits assignments in
// ascending offset order.
func keyAssignmentPrefix(project ids.ProjectID, vault ids.VaultID, file ids.FileID) []byte {
	return stem(prefixAssignment, string(project), string(vault), file.String())
}

func keyAssignment(project ids.ProjectID, vault ids.VaultID, file ids.FileID, offset int64) []byte {
	return append(keyAssignmentPrefix(project, vault, file), encodeOffset(offset)...)
}

// keyAssignmentAt builds the seek key for an offset marker: the exact
// assignment key if it exists, or the first key greater than it.
func keyAssignmentAt(project ids.ProjectID, vault ids.VaultID, file ids.FileID, offset int64) []byte {
	return keyAssignment(project, vault, file, offset)
}

func keyReverse(project ids.ProjectID, vault ids.VaultID, storage ids.StorageID) []byte {
	return append(stem(prefixReverse, string(project), string(vault)), storage...)
}

// keyRefcount addresses a block's standalone refcount counter. This key
// exists independently of the block record itself, so a refcount
// accumulated by assignments made before RegisterBlock runs is never
// lost.
func keyRefcount(project ids.ProjectID, vault ids.VaultID, block ids.BlockID) []byte {
	return append(stem(prefixRefcount, string(project), string(vault)), block...)
}

// encodeOffset encodes offset as 8 big-endian bytes so lexicographic
// byte order matches numeric order. Deuce's offsets are always
// non-negative, so no sign-bit flip is needed.
func encodeOffset(offset int64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, uint64(offset))
	return buf
}

func decodeOffset(b []byte) int64 {
	return int64(binary.BigEndian.Uint64(b))
}

// decodeIDSuffix strips a known prefix and returns the remaining string,
// used to pull a file/block/vault id back out of a scanned key.
func decodeIDSuffix(key, prefix []byte) string {
	if len(key) <= len(prefix) {
		return ""
	}
	return string(key[len(prefix):])
}
