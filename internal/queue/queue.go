// Package queue reads and mutates the search_index_queue table: the
// durable list of markers for entities whose search documents may be
// stale.
package queue

import (
	"context"
	"fmt"
	"strings"

	"github.com/openmediahub/searchsync/internal/db"
	"github.com/openmediahub/searchsync/internal/model"
)

// Marker is one queue row. RowID is the queue's own monotonically
// increasing id; deletion targets row ids so markers enqueued after a
// chunk was read are never consumed by that chunk.
type Marker struct {
	RowID  int64
	ItemID model.Key
	Kind   model.Kind
}

// NextChunk returns up to limit markers in insertion order. An empty
// result means the queue is drained.
func NextChunk(ctx context.Context, q db.Querier, limit int) ([]Marker, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT id, item_id, kind FROM search_index_queue ORDER BY id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to read queue chunk: %w", err)
	}
	defer rows.Close()

	var markers []Marker
	for rows.Next() {
		var m Marker
		var kind string
		if err := rows.Scan(&m.RowID, &m.ItemID, &kind); err != nil {
			return nil, fmt.Errorf("failed to scan queue row: %w", err)
		}
		if m.Kind, err = model.ParseKind(kind); err != nil {
			return nil, fmt.Errorf("queue row %d: %w", m.RowID, err)
		}
		markers = append(markers, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read queue rows: %w", err)
	}
	return markers, nil
}

// DeleteMarkers removes exactly the given rows and returns how many
// were actually deleted. A shortfall is not an error here; the caller
// decides whether it is an anomaly.
func DeleteMarkers(ctx context.Context, q db.Querier, markers []Marker) (int64, error) {
	if len(markers) == 0 {
		return 0, nil
	}

	args := make([]any, len(markers))
	for i, m := range markers {
		args[i] = m.RowID
	}
	res, err := q.ExecContext(ctx,
		fmt.Sprintf(`DELETE FROM search_index_queue WHERE id IN (%s)`, placeholders(len(markers))),
		args...)
	if err != nil {
		return 0, fmt.Errorf("failed to delete queue markers: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count deleted markers: %w", err)
	}
	return affected, nil
}

// Enqueue records a single marker. Entity changes normally enqueue via
// the database triggers; this path serves repair tooling and tests.
func Enqueue(ctx context.Context, q db.Querier, itemID model.Key, kind model.Kind) error {
	if !kind.Valid() {
		return fmt.Errorf("unknown entity kind %q", kind)
	}
	if _, err := q.ExecContext(ctx,
		`INSERT INTO search_index_queue (item_id, kind) VALUES (?, ?)`,
		int64(itemID), string(kind)); err != nil {
		return fmt.Errorf("failed to enqueue marker: %w", err)
	}
	return nil
}

// EnqueueKind records one marker per existing entity of the given kind
// and returns how many were enqueued. Used to rebuild the index through
// the regular drain path.
func EnqueueKind(ctx context.Context, q db.Querier, kind model.Kind) (int64, error) {
	var stmt string
	switch kind {
	case model.KindRealm:
		stmt = `INSERT INTO search_index_queue (item_id, kind) SELECT id, 'realm' FROM realms`
	case model.KindEvent:
		stmt = `INSERT INTO search_index_queue (item_id, kind) SELECT id, 'event' FROM events`
	default:
		return 0, fmt.Errorf("unknown entity kind %q", kind)
	}

	res, err := q.ExecContext(ctx, stmt)
	if err != nil {
		return 0, fmt.Errorf("failed to enqueue all %ss: %w", kind, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count enqueued markers: %w", err)
	}
	return affected, nil
}

// Depth reports the queue depth per kind. Kinds with no pending markers
// are present with a zero count.
func Depth(ctx context.Context, q db.Querier) (map[model.Kind]int64, error) {
	depth := make(map[model.Kind]int64, len(model.Kinds()))
	for _, k := range model.Kinds() {
		depth[k] = 0
	}

	rows, err := q.QueryContext(ctx,
		`SELECT kind, COUNT(*) FROM search_index_queue GROUP BY kind`)
	if err != nil {
		return nil, fmt.Errorf("failed to read queue depth: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var kind string
		var n int64
		if err := rows.Scan(&kind, &n); err != nil {
			return nil, fmt.Errorf("failed to scan queue depth: %w", err)
		}
		k, err := model.ParseKind(kind)
		if err != nil {
			return nil, err
		}
		depth[k] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read queue depth rows: %w", err)
	}
	return depth, nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}
