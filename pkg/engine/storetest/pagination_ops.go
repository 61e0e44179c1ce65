package storetest

import (
	"testing"

	"github.com/marmos91/deuce/internal/ids"
)

func runPaginationTests(t *testing.T, factory BackendFactory) {
	t.Helper()

	t.Run("concatenating pages yields every id exactly once, sorted", func(t *testing.T) {
		b := newBackendWithVault(t, factory)
		ctx := t.Context()

		created := make(map[string]struct{})
		for i := 0; i < 25; i++ {
			fileID, err := b.CreateFile(ctx, testProject, testVault)
			if err != nil {
				t.Fatalf("CreateFile failed: %v", err)
			}
			created[fileID.String()] = struct{}{}
		}

		seen := make(map[string]struct{})
		var marker *ids.FileID
		var lastSeenStr string
		for {
			page, next, err := b.ListFiles(ctx, testProject, testVault, marker, 7, false)
			if err != nil {
				t.Fatalf("ListFiles page failed: %v", err)
			}
			for _, id := range page {
				str := id.String()
				if _, dup := seen[str]; dup {
					t.Fatalf("id %s returned twice across pages", str)
				}
				if str <= lastSeenStr {
					t.Fatalf("pages are not monotonically advancing: %s after %s", str, lastSeenStr)
				}
				seen[str] = struct{}{}
				lastSeenStr = str
			}
			if next == nil {
				break
			}
			marker = next
		}

		if len(seen) != len(created) {
			t.Fatalf("pagination union has %d ids, want %d", len(seen), len(created))
		}
		for id := range created {
			if _, ok := seen[id]; !ok {
				t.Errorf("id %s from the created set was never returned", id)
			}
		}
	})

	// 120 files against the default cap of 80: first page 80 + marker,
	// second page 40 + no marker, union equals the created set.
	t.Run("80-cap pagination across 120 files", func(t *testing.T) {
		b := newBackendWithVault(t, factory)
		ctx := t.Context()

		created := make(map[string]struct{})
		for i := 0; i < 120; i++ {
			fileID, err := b.CreateFile(ctx, testProject, testVault)
			if err != nil {
				t.Fatalf("CreateFile failed: %v", err)
			}
			created[fileID.String()] = struct{}{}
		}

		first, marker, err := b.ListFiles(ctx, testProject, testVault, nil, 0, false)
		if err != nil {
			t.Fatalf("first ListFiles page failed: %v", err)
		}
		if len(first) != 80 {
			t.Fatalf("expected first page of 80, got %d", len(first))
		}
		if marker == nil {
			t.Fatal("expected a next marker after the first page")
		}

		second, marker2, err := b.ListFiles(ctx, testProject, testVault, marker, 0, false)
		if err != nil {
			t.Fatalf("second ListFiles page failed: %v", err)
		}
		if len(second) != 40 {
			t.Fatalf("expected second page of 40, got %d", len(second))
		}
		if marker2 != nil {
			t.Fatal("did not expect a third page")
		}

		union := make(map[string]struct{}, len(first)+len(second))
		for _, id := range first {
			union[id.String()] = struct{}{}
		}
		for _, id := range second {
			union[id.String()] = struct{}{}
		}
		if len(union) != len(created) {
			t.Fatalf("union has %d ids, want %d", len(union), len(created))
		}
	})
}
