package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/openmediahub/searchsync/internal/db"
	"github.com/openmediahub/searchsync/internal/model"
	"github.com/openmediahub/searchsync/internal/queue"
)

// Drain empties the queue in sub-cycles of at most ChunkSize markers.
// Each sub-cycle runs in its own database transaction under the write
// lock, so other writers only ever wait for one chunk, not for the
// whole backlog. Returns once a sub-cycle reads fewer markers than the
// chunk size, meaning the queue was empty at that point.
func (e *Engine) Drain(ctx context.Context) error {
	start := time.Now()
	err := e.drain(ctx)
	e.metrics.ObserveDrain(time.Since(start), err)
	e.refreshQueueDepth(ctx)
	return err
}

func (e *Engine) drain(ctx context.Context) error {
	for {
		done, err := e.drainChunk(ctx)
		if err != nil {
			return err
		}
		if done {
			return nil
		}
	}
}

// drainChunk processes a single sub-cycle: read one chunk of markers,
// reconcile every kind it touches, delete exactly the rows that were
// read, commit. Markers are deleted only after the index accepted the
// writes; a failure anywhere rolls the transaction back and leaves
// them queued for the next cycle.
func (e *Engine) drainChunk(ctx context.Context) (done bool, err error) {
	if err := e.lock.Acquire(ctx); err != nil {
		return false, err
	}
	defer e.lock.Release()

	start := time.Now()

	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	markers, err := queue.NextChunk(ctx, tx, e.chunkSize)
	if err != nil {
		return false, fmt.Errorf("failed to read queue: %w", err)
	}
	if len(markers) == 0 {
		if err := tx.Commit(); err != nil {
			return false, fmt.Errorf("failed to commit transaction: %w", err)
		}
		e.log.DebugContext(ctx, "queue empty, nothing to reconcile")
		return true, nil
	}

	byKind := partition(markers)

	var upserted, deleted int
	for _, kind := range model.Kinds() {
		ids := byKind[kind]
		if len(ids) == 0 {
			continue
		}
		target, err := e.client.ForKind(kind)
		if err != nil {
			return false, err
		}
		log := e.log.With(slog.String("kind", string(kind)))

		var up, del int
		switch kind {
		case model.KindRealm:
			up, del, err = reconcileKind(ctx, log, target, tx, ids, model.LoadRealmsByIDs)
		case model.KindEvent:
			up, del, err = reconcileKind(ctx, log, target, tx, ids, model.LoadEventsByIDs)
		default:
			err = fmt.Errorf("no loader for kind %q", kind)
		}
		if err != nil {
			return false, fmt.Errorf("failed to reconcile %ss: %w", kind, err)
		}
		upserted += up
		deleted += del

		e.metrics.Markers.WithLabelValues(string(kind)).Add(float64(len(ids)))
		e.metrics.Upserted.WithLabelValues(string(kind)).Add(float64(up))
		e.metrics.Deleted.WithLabelValues(string(kind)).Add(float64(del))
	}

	if err := e.deleteProcessed(ctx, tx, markers); err != nil {
		return false, err
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit transaction: %w", err)
	}

	e.metrics.Subcycles.Inc()
	e.log.InfoContext(ctx, "drained queue chunk",
		slog.Int("markers", len(markers)),
		slog.Int("upserted", upserted),
		slog.Int("deleted", deleted),
		slog.Duration("took", time.Since(start)))

	return len(markers) < e.chunkSize, nil
}

// deleteProcessed removes exactly the marker rows the sub-cycle read.
// Another writer racing some of them away is worth a warning but not a
// failure: the index writes were idempotent, so a marker consumed
// elsewhere only means the item gets reconciled once more.
func (e *Engine) deleteProcessed(ctx context.Context, q db.Querier, markers []queue.Marker) error {
	affected, err := queue.DeleteMarkers(ctx, q, markers)
	if err != nil {
		return fmt.Errorf("failed to delete queue markers: %w", err)
	}
	if affected != int64(len(markers)) {
		e.log.WarnContext(ctx, "queue markers vanished before deletion",
			slog.Int("read", len(markers)),
			slog.Int64("deleted", affected))
		e.metrics.Mismatches.Inc()
	}
	return nil
}

// partition groups marker item ids by kind, collapsing duplicates.
// Multiple markers for the same item within one chunk are the common
// case after a burst of updates; reconciling the item once is enough.
func partition(markers []queue.Marker) map[model.Kind][]model.Key {
	type entry struct {
		kind model.Kind
		id   model.Key
	}
	seen := make(map[entry]struct{}, len(markers))
	byKind := make(map[model.Kind][]model.Key)
	for _, m := range markers {
		e := entry{kind: m.Kind, id: m.ItemID}
		if _, ok := seen[e]; ok {
			continue
		}
		seen[e] = struct{}{}
		byKind[m.Kind] = append(byKind[m.Kind], m.ItemID)
	}
	return byKind
}

// refreshQueueDepth updates the depth gauge outside the drain
// transaction. Failures only cost gauge freshness, never the drain.
func (e *Engine) refreshQueueDepth(ctx context.Context) {
	depth, err := queue.Depth(ctx, e.db)
	if err != nil {
		e.log.DebugContext(ctx, "failed to read queue depth", slog.String("error", err.Error()))
		return
	}
	e.metrics.SetQueueDepth(depth)
}
