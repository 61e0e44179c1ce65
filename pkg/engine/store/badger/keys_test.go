package badger

import (
	"bytes"
	"testing"
)

func TestEncodeOffsetPreservesNumericOrder(t *testing.T) {
	offsets := []int64{0, 1, 255, 256, 65535, 1 << 40}
	for i := 1; i < len(offsets); i++ {
		a := encodeOffset(offsets[i-1])
		b := encodeOffset(offsets[i])
		if bytes.Compare(a, b) >= 0 {
			t.Fatalf("encodeOffset(%d) did not sort before encodeOffset(%d)", offsets[i-1], offsets[i])
		}
	}
}

func TestVaultKeysShareListingPrefix(t *testing.T) {
	key := keyVault("p1", "v1")
	if !bytes.HasPrefix(key, vaultPrefix("p1")) {
		t.Fatalf("keyVault(p1, v1) = %q does not start with vaultPrefix(p1) = %q", key, vaultPrefix("p1"))
	}
	if bytes.HasPrefix(key, vaultPrefix("p")) {
		t.Fatalf("keyVault(p1, v1) = %q must not match vaultPrefix(p) = %q", key, vaultPrefix("p"))
	}
}

func TestKeySegmentsAreUnambiguous(t *testing.T) {
	if bytes.Equal(keyVault("p", "v:x"), keyVault("p:v", "x")) {
		t.Fatal("distinct (project, vault) pairs produced the same vault key")
	}
	if bytes.Equal(keyBlockPrefix("p", "v:x"), keyBlockPrefix("p:v", "x")) {
		t.Fatal("distinct (project, vault) pairs produced the same block prefix")
	}
}

func TestDecodeOffsetRoundTrips(t *testing.T) {
	for _, offset := range []int64{0, 42, 1 << 30} {
		if got := decodeOffset(encodeOffset(offset)); got != offset {
			t.Fatalf("decodeOffset(encodeOffset(%d)) = %d", offset, got)
		}
	}
}
