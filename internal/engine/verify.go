package engine

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/openmediahub/searchsync/internal/db"
	"github.com/openmediahub/searchsync/internal/model"
	"github.com/openmediahub/searchsync/internal/queue"
)

// KindReport describes one kind's drift between database and index.
type KindReport struct {
	Kind model.Kind

	// Orphans are document ids present in the index with no matching
	// database row.
	Orphans []model.SearchID

	// Missing are database ids with no document in the index.
	Missing []model.Key

	// Entities and Documents are the raw counts on each side.
	Entities  int
	Documents int
}

// Clean reports whether the kind shows no drift.
func (r KindReport) Clean() bool {
	return len(r.Orphans) == 0 && len(r.Missing) == 0
}

// Report is the outcome of a full consistency check.
type Report struct {
	Kinds []KindReport
}

// Clean reports whether every kind is consistent.
func (r *Report) Clean() bool {
	for _, kr := range r.Kinds {
		if !kr.Clean() {
			return false
		}
	}
	return true
}

// Verify compares each kind's index contents against the database and
// reports the drift. Kinds are checked concurrently; they live in
// separate indexes and the queries are read-only.
func (e *Engine) Verify(ctx context.Context) (*Report, error) {
	kinds := model.Kinds()
	reports := make([]KindReport, len(kinds))

	g, gctx := errgroup.WithContext(ctx)
	for i, kind := range kinds {
		g.Go(func() error {
			rep, err := e.verifyKind(gctx, kind)
			if err != nil {
				return fmt.Errorf("failed to verify %ss: %w", kind, err)
			}
			reports[i] = rep
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &Report{Kinds: reports}, nil
}

func (e *Engine) verifyKind(ctx context.Context, kind model.Kind) (KindReport, error) {
	target, err := e.client.ForKind(kind)
	if err != nil {
		return KindReport{}, err
	}

	indexed, err := target.AllIDs(ctx)
	if err != nil {
		return KindReport{}, fmt.Errorf("failed to list index documents: %w", err)
	}
	entities, err := entityIDs(ctx, e.db, kind)
	if err != nil {
		return KindReport{}, err
	}

	inDB := make(map[model.SearchID]struct{}, len(entities))
	for _, id := range entities {
		inDB[id.SearchID()] = struct{}{}
	}

	inIndex := make(map[model.SearchID]struct{}, len(indexed))
	var orphans []model.SearchID
	for _, sid := range indexed {
		inIndex[sid] = struct{}{}
		if _, ok := inDB[sid]; !ok {
			orphans = append(orphans, sid)
		}
	}
	slices.Sort(orphans)

	var missing []model.Key
	for _, id := range entities {
		if _, ok := inIndex[id.SearchID()]; !ok {
			missing = append(missing, id)
		}
	}

	return KindReport{
		Kind:      kind,
		Orphans:   orphans,
		Missing:   missing,
		Entities:  len(entities),
		Documents: len(indexed),
	}, nil
}

// entityIDs lists every primary key the kind's table currently holds.
func entityIDs(ctx context.Context, q db.Querier, kind model.Kind) ([]model.Key, error) {
	var query string
	switch kind {
	case model.KindRealm:
		query = `SELECT id FROM realms ORDER BY id`
	case model.KindEvent:
		query = `SELECT id FROM events ORDER BY id`
	default:
		return nil, fmt.Errorf("no table for kind %q", kind)
	}

	rows, err := q.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s ids: %w", kind, err)
	}
	defer rows.Close()

	var ids []model.Key
	for rows.Next() {
		var id model.Key
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan %s id: %w", kind, err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Fix enqueues one marker per reported discrepancy and returns how
// many were queued. The next drain then heals the index through the
// ordinary reconcile path: missing entities load and get upserted,
// orphaned ids fail to load and get deleted. Fix never touches the
// index directly.
func (e *Engine) Fix(ctx context.Context, report *Report) (int64, error) {
	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var queued int64
	for _, kr := range report.Kinds {
		for _, id := range kr.Missing {
			if err := queue.Enqueue(ctx, tx, id, kr.Kind); err != nil {
				return 0, err
			}
			queued++
		}
		for _, sid := range kr.Orphans {
			id, err := model.ParseSearchID(sid)
			if err != nil {
				// A document id that is not a decimal key cannot have
				// come from this queue; leave it for manual cleanup.
				e.log.WarnContext(ctx, "skipping foreign document id",
					slog.String("kind", string(kr.Kind)),
					slog.String("id", string(sid)))
				continue
			}
			if err := queue.Enqueue(ctx, tx, id, kr.Kind); err != nil {
				return 0, err
			}
			queued++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return queued, nil
}
