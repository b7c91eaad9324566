package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/openmediahub/searchsync/internal/db"
	"github.com/openmediahub/searchsync/internal/index"
	"github.com/openmediahub/searchsync/internal/model"
)

// reconcileKind mirrors one kind's requested ids into its index target.
// Ids whose entity still exists are upserted with a freshly loaded
// document; ids with no row left are deleted from the index, deletions
// first. The requested ids must already be deduplicated.
//
// Every path either completes both index calls or returns an error
// before the caller may delete markers, which is what keeps the queue
// at-least-once.
func reconcileKind[T model.Indexable](
	ctx context.Context,
	log *slog.Logger,
	target index.Target,
	q db.Querier,
	ids []model.Key,
	load model.BulkLoader[T],
) (upserted, deleted int, err error) {
	if len(ids) == 0 {
		log.DebugContext(ctx, "no markers for kind")
		return 0, 0, nil
	}

	items, err := load(ctx, q, ids)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to load entities: %w", err)
	}

	present := make(map[model.Key]struct{}, len(items))
	docs := make([]model.Indexable, len(items))
	for i, item := range items {
		present[item.DatabaseKey()] = struct{}{}
		docs[i] = item
	}

	var missing []model.SearchID
	for _, id := range ids {
		if _, ok := present[id]; !ok {
			missing = append(missing, id.SearchID())
		}
	}

	if err := target.Delete(ctx, missing); err != nil {
		return 0, 0, fmt.Errorf("failed to delete vanished documents: %w", err)
	}
	if err := target.Upsert(ctx, docs); err != nil {
		return 0, 0, fmt.Errorf("failed to upsert documents: %w", err)
	}

	log.DebugContext(ctx, "reconciled kind",
		slog.Int("requested", len(ids)),
		slog.Int("upserted", len(docs)),
		slog.Int("deleted", len(missing)))
	return len(docs), len(missing), nil
}
