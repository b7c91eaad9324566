package model

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Key is the primary key of an indexable entity. The database assigns
// keys; the engine never inspects them beyond equality and derivation
// of document ids.
type Key int64

// SearchID is the document identifier used by index backends. A
// SearchID is always derived from a Key, never generated independently,
// so an entity keeps the same document id for its whole life and a
// marker alone is enough to delete the document of a vanished entity.
type SearchID string

// SearchID derives the document id for k.
func (k Key) SearchID() SearchID {
	return SearchID(strconv.FormatInt(int64(k), 10))
}

// ParseSearchID recovers the Key a document id was derived from.
func ParseSearchID(id SearchID) (Key, error) {
	n, err := strconv.ParseInt(string(id), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("malformed search id %q: %w", id, err)
	}
	return Key(n), nil
}

// SearchIDs derives document ids for a key list, preserving order.
func SearchIDs(keys []Key) []SearchID {
	ids := make([]SearchID, len(keys))
	for i, k := range keys {
		ids[i] = k.SearchID()
	}
	return ids
}

// MarshalJSON renders the key in its derived string form so documents
// carry the same id representation on every backend.
func (k Key) MarshalJSON() ([]byte, error) {
	return json.Marshal(strconv.FormatInt(int64(k), 10))
}

// UnmarshalJSON accepts both the string form and a bare number.
func (k *Key) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(s) >= 2 && s[0] == '"' {
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fmt.Errorf("malformed key %s: %w", data, err)
	}
	*k = Key(n)
	return nil
}
