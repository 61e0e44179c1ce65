package ids

import "testing"

func TestFileIDRoundTrip(t *testing.T) {
	f := NewFileID()
	if f.IsZero() {
		t.Fatal("freshly allocated FileID must not be zero")
	}

	parsed, err := ParseFileID(f.String())
	if err != nil {
		t.Fatalf("ParseFileID(%q) error: %v", f.String(), err)
	}
	if parsed != f {
		t.Errorf("ParseFileID round trip mismatch: got %v, want %v", parsed, f)
	}
}

func TestParseFileIDInvalid(t *testing.T) {
	if _, err := ParseFileID("not-a-uuid"); err == nil {
		t.Fatal("expected error parsing invalid file id")
	}
}

func TestZeroFileID(t *testing.T) {
	var f FileID
	if !f.IsZero() {
		t.Error("zero-value FileID should report IsZero")
	}
}

func TestIDStringers(t *testing.T) {
	if ProjectID("proj-1").String() != "proj-1" {
		t.Error("ProjectID.String mismatch")
	}
	if VaultID("vault-1").String() != "vault-1" {
		t.Error("VaultID.String mismatch")
	}
	if BlockID("abc123").String() != "abc123" {
		t.Error("BlockID.String mismatch")
	}
	if StorageID("s3://bucket/key").String() != "s3://bucket/key" {
		t.Error("StorageID.String mismatch")
	}
}
