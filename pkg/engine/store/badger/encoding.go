package badger

import "encoding/json"

// fileRecord is the value stored at a file key. State lives entirely in
// Finalized; Deuce files carry no other server-side attributes.
type fileRecord struct {
	Finalized bool `json:"finalized"`
}

// blockRecord is the value stored at a block key.
type blockRecord struct {
	StorageID string `json:"storage_id"`
	Size      int64  `json:"size"`
}

// refcountRecord is the value stored at a block's standalone refcount
// key. It is kept independent of blockRecord and of whether the block is
// currently registered: every assignment referencing a block_id counts
// unconditionally, including assignments made before the corresponding
// RegisterBlock call.
type refcountRecord struct {
	Count    int64 `json:"count"`
	Modified int64 `json:"modified"`
}

// assignmentRecord is the value stored at an assignment key.
type assignmentRecord struct {
	BlockID string `json:"block_id"`
	Mtime   int64  `json:"mtime"`
}

func encodeFile(r fileRecord) []byte {
	b, _ := json.Marshal(r)
	return b
}

func decodeFile(b []byte) (fileRecord, error) {
	var r fileRecord
	err := json.Unmarshal(b, &r)
	return r, err
}

func encodeBlock(r blockRecord) []byte {
	b, _ := json.Marshal(r)
	return b
}

func decodeBlock(b []byte) (blockRecord, error) {
	var r blockRecord
	err := json.Unmarshal(b, &r)
	return r, err
}

func encodeAssignment(r assignmentRecord) []byte {
	b, _ := json.Marshal(r)
	return b
}

func decodeAssignment(b []byte) (assignmentRecord, error) {
	var r assignmentRecord
	err := json.Unmarshal(b, &r)
	return r, err
}

func encodeRefcount(r refcountRecord) []byte {
	b, _ := json.Marshal(r)
	return b
}

func decodeRefcount(b []byte) (refcountRecord, error) {
	var r refcountRecord
	err := json.Unmarshal(b, &r)
	return r, err
}
