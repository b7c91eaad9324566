package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"testing"

	"github.com/openmediahub/searchsync/internal/db"
	"github.com/openmediahub/searchsync/internal/model"
)

// fakeDoc is the smallest possible indexable entity.
type fakeDoc model.Key

func (d fakeDoc) DatabaseKey() model.Key { return model.Key(d) }

// targetCall records one index mutation in arrival order.
type targetCall struct {
	op  string
	ids []model.SearchID
}

// mockTarget implements index.Target and records every mutation.
type mockTarget struct {
	calls     []targetCall
	upsertErr error
	deleteErr error
}

func (m *mockTarget) Upsert(_ context.Context, docs []model.Indexable) error {
	if m.upsertErr != nil {
		return m.upsertErr
	}
	ids := make([]model.SearchID, len(docs))
	for i, doc := range docs {
		ids[i] = doc.DatabaseKey().SearchID()
	}
	m.calls = append(m.calls, targetCall{op: "upsert", ids: ids})
	return nil
}

func (m *mockTarget) Delete(_ context.Context, ids []model.SearchID) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	m.calls = append(m.calls, targetCall{op: "delete", ids: slices.Clone(ids)})
	return nil
}

func (m *mockTarget) DocCount(context.Context) (uint64, error)         { return 0, nil }
func (m *mockTarget) AllIDs(context.Context) ([]model.SearchID, error) { return nil, nil }
func (m *mockTarget) Close() error                                     { return nil }

// staticLoader pretends exactly the given keys still exist.
func staticLoader(present ...model.Key) model.BulkLoader[fakeDoc] {
	exists := make(map[model.Key]struct{}, len(present))
	for _, key := range present {
		exists[key] = struct{}{}
	}
	return func(_ context.Context, _ db.Querier, ids []model.Key) ([]fakeDoc, error) {
		var out []fakeDoc
		for _, id := range ids {
			if _, ok := exists[id]; ok {
				out = append(out, fakeDoc(id))
			}
		}
		return out, nil
	}
}

func keys(ids ...int64) []model.Key {
	out := make([]model.Key, len(ids))
	for i, id := range ids {
		out[i] = model.Key(id)
	}
	return out
}

func searchIDs(ids ...string) []model.SearchID {
	out := make([]model.SearchID, len(ids))
	for i, id := range ids {
		out[i] = model.SearchID(id)
	}
	return out
}

func TestReconcileKindDeletesMissingThenUpsertsPresent(t *testing.T) {
	target := &mockTarget{}

	upserted, deleted, err := reconcileKind(
		context.Background(), slog.Default(), target, nil,
		keys(1, 2, 3), staticLoader(1, 3))
	if err != nil {
		t.Fatalf("reconcile failed: %v", err)
	}
	if upserted != 2 || deleted != 1 {
		t.Fatalf("got upserted=%d deleted=%d, want 2 and 1", upserted, deleted)
	}

	want := []targetCall{
		{op: "delete", ids: searchIDs("2")},
		{op: "upsert", ids: searchIDs("1", "3")},
	}
	if len(target.calls) != len(want) {
		t.Fatalf("got %d index calls, want %d: %+v", len(target.calls), len(want), target.calls)
	}
	for i, call := range target.calls {
		if call.op != want[i].op || !slices.Equal(call.ids, want[i].ids) {
			t.Fatalf("call %d: got %+v, want %+v", i, call, want[i])
		}
	}
}

func TestReconcileKindEmptyRequestSkipsBackend(t *testing.T) {
	target := &mockTarget{}

	upserted, deleted, err := reconcileKind(
		context.Background(), slog.Default(), target, nil,
		nil, staticLoader())
	if err != nil {
		t.Fatalf("reconcile failed: %v", err)
	}
	if upserted != 0 || deleted != 0 {
		t.Fatalf("got upserted=%d deleted=%d, want zeros", upserted, deleted)
	}
	if len(target.calls) != 0 {
		t.Fatalf("backend was called for an empty request: %+v", target.calls)
	}
}

func TestReconcileKindLoaderFailureLeavesIndexUntouched(t *testing.T) {
	target := &mockTarget{}
	failing := func(context.Context, db.Querier, []model.Key) ([]fakeDoc, error) {
		return nil, fmt.Errorf("database went away")
	}

	_, _, err := reconcileKind(
		context.Background(), slog.Default(), target, nil,
		keys(1, 2), model.BulkLoader[fakeDoc](failing))
	if err == nil {
		t.Fatal("expected loader failure to propagate")
	}
	if len(target.calls) != 0 {
		t.Fatalf("index was touched despite loader failure: %+v", target.calls)
	}
}

func TestReconcileKindDeleteFailureStopsUpsert(t *testing.T) {
	sentinel := errors.New("index unavailable")
	target := &mockTarget{deleteErr: sentinel}

	_, _, err := reconcileKind(
		context.Background(), slog.Default(), target, nil,
		keys(1, 2), staticLoader(1))
	if !errors.Is(err, sentinel) {
		t.Fatalf("got %v, want wrapped %v", err, sentinel)
	}
	for _, call := range target.calls {
		if call.op == "upsert" {
			t.Fatal("upsert ran after delete failed")
		}
	}
}

func TestReconcileKindUpsertFailurePropagates(t *testing.T) {
	sentinel := errors.New("index unavailable")
	target := &mockTarget{upsertErr: sentinel}

	_, _, err := reconcileKind(
		context.Background(), slog.Default(), target, nil,
		keys(1), staticLoader(1))
	if !errors.Is(err, sentinel) {
		t.Fatalf("got %v, want wrapped %v", err, sentinel)
	}
}

func TestReconcileKindAllVanished(t *testing.T) {
	target := &mockTarget{}

	upserted, deleted, err := reconcileKind(
		context.Background(), slog.Default(), target, nil,
		keys(7, 8), staticLoader())
	if err != nil {
		t.Fatalf("reconcile failed: %v", err)
	}
	if upserted != 0 || deleted != 2 {
		t.Fatalf("got upserted=%d deleted=%d, want 0 and 2", upserted, deleted)
	}
}
