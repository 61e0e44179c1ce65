package sqlite

import "testing"

func TestLoadMigrationsOrderedByVersion(t *testing.T) {
	migrations, err := loadMigrations()
	if err != nil {
		t.Fatalf("loadMigrations: %v", err)
	}
	if len(migrations) == 0 {
		t.Fatal("expected at least one migration")
	}
	for i := 1; i < len(migrations); i++ {
		if migrations[i-1].version >= migrations[i].version {
			t.Fatalf("migrations out of order: %d before %d", migrations[i-1].version, migrations[i].version)
		}
	}
}
