package model

import (
	"context"
	"database/sql"
	"testing"
)

func seedEvent(t *testing.T, sdb *sql.DB, id int64, realm any, title, creators string, live bool) {
	t.Helper()
	isLive := 0
	if live {
		isLive = 1
	}
	_, err := sdb.Exec(`
		INSERT INTO events (id, realm_id, title, description, creators, thumbnail_url, duration_ms, is_live, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, realm, title, "about "+title, creators, "/thumbs/"+title+".jpg", 5400000, isLive, 1700000000)
	if err != nil {
		t.Fatalf("failed to seed event %d: %v", id, err)
	}
}

func TestLoadEventsByIDs(t *testing.T) {
	sdb := newTestDB(t)
	seedRealmTree(t, sdb)
	seedEvent(t, sdb, 10, int64(3), "Sorting Networks", `["Ada Lovelace","Alan Turing"]`, false)
	seedEvent(t, sdb, 11, nil, "Campus Stream", `[]`, true)

	events, err := LoadEventsByIDs(context.Background(), sdb, []Key{10, 11, 404})
	if err != nil {
		t.Fatalf("LoadEventsByIDs failed: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2 (key 404 has no row)", len(events))
	}

	byID := make(map[Key]*Event)
	for _, e := range events {
		byID[e.ID] = e
	}

	talk := byID[10]
	if talk == nil {
		t.Fatal("event 10 missing from result")
	}
	if talk.Title != "Sorting Networks" {
		t.Errorf("title = %q", talk.Title)
	}
	if len(talk.Creators) != 2 || talk.Creators[0] != "Ada Lovelace" {
		t.Errorf("creators = %v", talk.Creators)
	}
	if talk.RealmPath != "/lectures/cs" {
		t.Errorf("realm path = %q, want %q", talk.RealmPath, "/lectures/cs")
	}
	if talk.IsLive {
		t.Error("event 10 reported live")
	}
	if talk.DurationMS != 5400000 || talk.Updated != 1700000000 {
		t.Errorf("duration/updated = %d/%d", talk.DurationMS, talk.Updated)
	}

	stream := byID[11]
	if stream == nil {
		t.Fatal("event 11 missing from result")
	}
	if stream.RealmPath != "" {
		t.Errorf("unhosted event has realm path %q", stream.RealmPath)
	}
	if !stream.IsLive {
		t.Error("event 11 not reported live")
	}
	if len(stream.Creators) != 0 {
		t.Errorf("creators = %v, want empty", stream.Creators)
	}
}

func TestLoadEventsByIDsMalformedCreators(t *testing.T) {
	sdb := newTestDB(t)
	seedEvent(t, sdb, 20, nil, "Broken", `{not json`, false)

	if _, err := LoadEventsByIDs(context.Background(), sdb, []Key{20}); err == nil {
		t.Fatal("malformed creators column loaded without error")
	}
}

func TestLoadEventsByIDsEmpty(t *testing.T) {
	sdb := newTestDB(t)
	events, err := LoadEventsByIDs(context.Background(), sdb, []Key{})
	if err != nil {
		t.Fatalf("LoadEventsByIDs([]) failed: %v", err)
	}
	if len(events) != 0 {
		t.Errorf("got %d events for empty key set", len(events))
	}
}
