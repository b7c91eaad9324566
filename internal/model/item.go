package model

import (
	"context"
	"fmt"
	"strings"

	"github.com/openmediahub/searchsync/internal/db"
)

// Indexable is the capability every searchable entity provides: the
// database key its document id derives from. Everything else about an
// entity is plain data carried in its struct fields.
type Indexable interface {
	DatabaseKey() Key
}

// BulkLoader loads entities of one kind by key set, returning current
// database truth. Keys with no matching row are simply absent from the
// result; callers treat absence as deletion. Loaders never error on
// partial presence.
type BulkLoader[T Indexable] func(ctx context.Context, q db.Querier, ids []Key) ([]T, error)

// CountByKind returns how many entities of the kind the database holds.
func CountByKind(ctx context.Context, q db.Querier, kind Kind) (int64, error) {
	var query string
	switch kind {
	case KindRealm:
		query = `SELECT COUNT(*) FROM realms`
	case KindEvent:
		query = `SELECT COUNT(*) FROM events`
	default:
		return 0, fmt.Errorf("no table for kind %q", kind)
	}

	var n int64
	if err := q.QueryRowContext(ctx, query).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count %ss: %w", kind, err)
	}
	return n, nil
}

// placeholders returns n comma-joined SQL placeholders.
func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func keyArgs(ids []Key) []any {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = int64(id)
	}
	return args
}
