package index

import (
	"context"
	"sort"
	"testing"

	"github.com/openmediahub/searchsync/internal/model"
)

func newMemTarget(t *testing.T, kind model.Kind) *bleveTarget {
	t.Helper()
	target, err := newBleveTarget(kind, BleveOptions{})
	if err != nil {
		t.Fatalf("failed to open memory index: %v", err)
	}
	t.Cleanup(func() { _ = target.Close() })
	return target
}

func realmDoc(id model.Key, name string) *model.Realm {
	return &model.Realm{ID: id, Name: name, FullPath: "/" + name}
}

func allIDsSorted(t *testing.T, target Target) []string {
	t.Helper()
	ids, err := target.AllIDs(context.Background())
	if err != nil {
		t.Fatalf("AllIDs failed: %v", err)
	}
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = string(id)
	}
	sort.Strings(out)
	return out
}

func TestBleveUpsertDeleteCount(t *testing.T) {
	target := newMemTarget(t, model.KindRealm)
	ctx := context.Background()

	docs := []model.Indexable{realmDoc(1, "lectures"), realmDoc(2, "seminars")}
	if err := target.Upsert(ctx, docs); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	if n, _ := target.DocCount(ctx); n != 2 {
		t.Fatalf("doc count = %d, want 2", n)
	}

	// Upserting the same documents again must replace, not duplicate.
	if err := target.Upsert(ctx, docs); err != nil {
		t.Fatalf("second Upsert failed: %v", err)
	}
	if n, _ := target.DocCount(ctx); n != 2 {
		t.Fatalf("doc count after re-upsert = %d, want 2", n)
	}

	if err := target.Delete(ctx, []model.SearchID{"1"}); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if n, _ := target.DocCount(ctx); n != 1 {
		t.Fatalf("doc count after delete = %d, want 1", n)
	}

	// Deleting an absent id is a no-op.
	if err := target.Delete(ctx, []model.SearchID{"999"}); err != nil {
		t.Fatalf("Delete of absent id failed: %v", err)
	}
	if got := allIDsSorted(t, target); len(got) != 1 || got[0] != "2" {
		t.Errorf("remaining ids = %v, want [2]", got)
	}
}

func TestBleveEmptyBatchesAreNoOps(t *testing.T) {
	target := newMemTarget(t, model.KindEvent)
	ctx := context.Background()

	if err := target.Upsert(ctx, nil); err != nil {
		t.Errorf("empty Upsert failed: %v", err)
	}
	if err := target.Delete(ctx, nil); err != nil {
		t.Errorf("empty Delete failed: %v", err)
	}
	if n, err := target.DocCount(ctx); err != nil || n != 0 {
		t.Errorf("DocCount = (%d, %v), want (0, nil)", n, err)
	}
}

func TestBleveEventDocuments(t *testing.T) {
	target := newMemTarget(t, model.KindEvent)
	ctx := context.Background()

	ev := &model.Event{
		ID:        7,
		Title:     "Graph Algorithms",
		Creators:  []string{"Edsger Dijkstra"},
		RealmPath: "/lectures/cs",
		Updated:   1700000000,
	}
	if err := target.Upsert(ctx, []model.Indexable{ev}); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	if got := allIDsSorted(t, target); len(got) != 1 || got[0] != "7" {
		t.Fatalf("ids = %v, want [7]", got)
	}
}

func TestBleveClosedTarget(t *testing.T) {
	target := newMemTarget(t, model.KindRealm)
	if err := target.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	// Close twice is fine.
	if err := target.Close(); err != nil {
		t.Fatalf("second Close failed: %v", err)
	}

	ctx := context.Background()
	if err := target.Upsert(ctx, []model.Indexable{realmDoc(1, "x")}); err == nil {
		t.Error("Upsert on closed target succeeded")
	}
	if err := target.Delete(ctx, []model.SearchID{"1"}); err == nil {
		t.Error("Delete on closed target succeeded")
	}
	if _, err := target.DocCount(ctx); err == nil {
		t.Error("DocCount on closed target succeeded")
	}
	if _, err := target.AllIDs(ctx); err == nil {
		t.Error("AllIDs on closed target succeeded")
	}
}

func TestBuildMappingRejectsUnknownKind(t *testing.T) {
	if _, err := buildMapping(model.Kind("series")); err == nil {
		t.Fatal("mapping built for unknown kind")
	}
}
