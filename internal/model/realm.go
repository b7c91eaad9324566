package model

import (
	"context"
	"fmt"

	"github.com/openmediahub/searchsync/internal/db"
)

// Realm is a page of the realm tree as it appears in the search index.
// The struct doubles as the search document; JSON tags name the index
// fields.
type Realm struct {
	ID       Key    `json:"id"`
	Name     string `json:"name"`
	FullPath string `json:"full_path"`

	// AncestorNames holds the names of the realm's ancestors root-first,
	// excluding the root realm itself. Search matches on a parent name
	// should surface the realms underneath it.
	AncestorNames []string `json:"ancestor_names"`
}

// DatabaseKey implements Indexable.
func (r *Realm) DatabaseKey() Key {
	return r.ID
}

const realmBaseQuery = `SELECT id, name, full_path FROM realms WHERE id IN (%s)`

// realmLineageQuery walks each requested realm's parent chain. The
// final filter drops the root realm (parent IS NULL); depth descends so
// names come out root-first per start id.
const realmLineageQuery = `
WITH RECURSIVE lineage(start_id, ancestor_id, depth) AS (
    SELECT id, parent, 1 FROM realms WHERE id IN (%s)
    UNION ALL
    SELECT l.start_id, r.parent, l.depth + 1
    FROM lineage l
    JOIN realms r ON r.id = l.ancestor_id
)
SELECT l.start_id, r.name
FROM lineage l
JOIN realms r ON r.id = l.ancestor_id
WHERE r.parent IS NOT NULL
ORDER BY l.start_id, l.depth DESC`

// LoadRealmsByIDs loads current realm rows for the given keys,
// including each realm's ancestor names. Keys with no row are absent
// from the result.
func LoadRealmsByIDs(ctx context.Context, q db.Querier, ids []Key) ([]*Realm, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	ph := placeholders(len(ids))
	args := keyArgs(ids)

	rows, err := q.QueryContext(ctx, fmt.Sprintf(realmBaseQuery, ph), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to load realms: %w", err)
	}

	var realms []*Realm
	byID := make(map[Key]*Realm, len(ids))
	for rows.Next() {
		r := &Realm{}
		if err := rows.Scan(&r.ID, &r.Name, &r.FullPath); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("failed to scan realm: %w", err)
		}
		realms = append(realms, r)
		byID[r.ID] = r
	}
	// Fully drain and release the connection before the ancestor query:
	// the pool is capped at one connection.
	err = rows.Err()
	_ = rows.Close()
	if err != nil {
		return nil, fmt.Errorf("failed to read realms: %w", err)
	}
	if len(realms) == 0 {
		return nil, nil
	}

	lineage, err := q.QueryContext(ctx, fmt.Sprintf(realmLineageQuery, ph), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to load realm ancestors: %w", err)
	}
	defer lineage.Close()

	for lineage.Next() {
		var startID int64
		var name string
		if err := lineage.Scan(&startID, &name); err != nil {
			return nil, fmt.Errorf("failed to scan realm ancestor: %w", err)
		}
		if r, ok := byID[Key(startID)]; ok {
			r.AncestorNames = append(r.AncestorNames, name)
		}
	}
	if err := lineage.Err(); err != nil {
		return nil, fmt.Errorf("failed to read realm ancestors: %w", err)
	}

	return realms, nil
}
