package model

import (
	"context"
	"database/sql"
	"testing"

	"github.com/openmediahub/searchsync/internal/db"
)

// newTestDB opens an in-memory database with the full schema installed.
func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	sdb, err := db.Open(":memory:", 0)
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { _ = sdb.Close() })
	if err := db.Migrate(context.Background(), sdb); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	return sdb
}

func seedRealmTree(t *testing.T, sdb *sql.DB) {
	t.Helper()
	stmts := []struct {
		id     int64
		parent any
		name   string
		path   string
	}{
		{1, nil, "Home", ""},
		{2, int64(1), "Lectures", "/lectures"},
		{3, int64(2), "Computer Science", "/lectures/cs"},
		{4, int64(3), "Algorithms", "/lectures/cs/algo"},
	}
	for _, s := range stmts {
		_, err := sdb.Exec(`INSERT INTO realms (id, parent, name, full_path) VALUES (?, ?, ?, ?)`,
			s.id, s.parent, s.name, s.path)
		if err != nil {
			t.Fatalf("failed to seed realm %d: %v", s.id, err)
		}
	}
}

func TestLoadRealmsByIDs(t *testing.T) {
	sdb := newTestDB(t)
	seedRealmTree(t, sdb)
	ctx := context.Background()

	realms, err := LoadRealmsByIDs(ctx, sdb, []Key{2, 4})
	if err != nil {
		t.Fatalf("LoadRealmsByIDs failed: %v", err)
	}
	if len(realms) != 2 {
		t.Fatalf("got %d realms, want 2", len(realms))
	}

	byID := make(map[Key]*Realm)
	for _, r := range realms {
		byID[r.ID] = r
	}

	lectures := byID[2]
	if lectures == nil || lectures.Name != "Lectures" || lectures.FullPath != "/lectures" {
		t.Fatalf("realm 2 loaded wrong: %+v", lectures)
	}
	// Direct child of the root: no ancestors besides the root, which is
	// excluded.
	if len(lectures.AncestorNames) != 0 {
		t.Errorf("realm 2 ancestor names = %v, want none", lectures.AncestorNames)
	}

	algo := byID[4]
	if algo == nil {
		t.Fatal("realm 4 missing from result")
	}
	wantAncestors := []string{"Lectures", "Computer Science"}
	if len(algo.AncestorNames) != len(wantAncestors) {
		t.Fatalf("realm 4 ancestor names = %v, want %v", algo.AncestorNames, wantAncestors)
	}
	for i, name := range wantAncestors {
		if algo.AncestorNames[i] != name {
			t.Errorf("ancestor[%d] = %q, want %q (root-first order)", i, algo.AncestorNames[i], name)
		}
	}
}

func TestLoadRealmsByIDsPartialPresence(t *testing.T) {
	sdb := newTestDB(t)
	seedRealmTree(t, sdb)

	realms, err := LoadRealmsByIDs(context.Background(), sdb, []Key{2, 99, 3})
	if err != nil {
		t.Fatalf("LoadRealmsByIDs failed: %v", err)
	}
	if len(realms) != 2 {
		t.Fatalf("got %d realms, want 2 (key 99 has no row)", len(realms))
	}
	for _, r := range realms {
		if r.ID == 99 {
			t.Error("nonexistent key 99 produced a realm")
		}
	}
}

func TestLoadRealmsByIDsEmpty(t *testing.T) {
	sdb := newTestDB(t)
	realms, err := LoadRealmsByIDs(context.Background(), sdb, nil)
	if err != nil {
		t.Fatalf("LoadRealmsByIDs(nil) failed: %v", err)
	}
	if len(realms) != 0 {
		t.Errorf("got %d realms for empty key set", len(realms))
	}
}
