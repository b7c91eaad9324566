package model

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/openmediahub/searchsync/internal/db"
)

// Event is a video event as it appears in the search index. The struct
// doubles as the search document; JSON tags name the index fields.
type Event struct {
	ID          Key      `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Creators    []string `json:"creators"`
	Thumbnail   string   `json:"thumbnail"`

	// DurationMS is the video length in milliseconds, 0 for live events
	// without a known duration.
	DurationMS int64 `json:"duration"`
	IsLive     bool  `json:"is_live"`

	// Updated is the last modification time in unix seconds.
	Updated int64 `json:"updated"`

	// RealmPath is the full path of the hosting realm, empty while the
	// event is not mounted anywhere.
	RealmPath string `json:"realm_path"`
}

// DatabaseKey implements Indexable.
func (e *Event) DatabaseKey() Key {
	return e.ID
}

const eventQuery = `
SELECT e.id, e.title, e.description, e.creators, e.thumbnail_url,
       e.duration_ms, e.is_live, e.updated_at, COALESCE(r.full_path, '')
FROM events e
LEFT JOIN realms r ON r.id = e.realm_id
WHERE e.id IN (%s)`

// LoadEventsByIDs loads current event rows for the given keys with
// their hosting realm path resolved. Keys with no row are absent from
// the result.
func LoadEventsByIDs(ctx context.Context, q db.Querier, ids []Key) ([]*Event, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	rows, err := q.QueryContext(ctx, fmt.Sprintf(eventQuery, placeholders(len(ids))), keyArgs(ids)...)
	if err != nil {
		return nil, fmt.Errorf("failed to load events: %w", err)
	}
	defer rows.Close()

	var events []*Event
	for rows.Next() {
		e := &Event{}
		var creators string
		if err := rows.Scan(&e.ID, &e.Title, &e.Description, &creators, &e.Thumbnail,
			&e.DurationMS, &e.IsLive, &e.Updated, &e.RealmPath); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		if creators != "" {
			if err := json.Unmarshal([]byte(creators), &e.Creators); err != nil {
				return nil, fmt.Errorf("event %d has malformed creators: %w", e.ID, err)
			}
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read events: %w", err)
	}

	return events, nil
}
