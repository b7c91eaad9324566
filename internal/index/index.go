// Package index routes search index mutations to per-kind targets.
// Two backends implement the target contract: an embedded bleve index
// and a Meilisearch HTTP client.
package index

import (
	"context"
	"errors"
	"fmt"

	"github.com/openmediahub/searchsync/internal/model"
)

// Backend names accepted by Options.Backend.
const (
	BackendBleve = "bleve"
	BackendMeili = "meili"
)

// Target is one kind's slice of the search index. Operations are
// idempotent: Upsert replaces documents by id, Delete ignores ids that
// are already gone. Both properties let a drain repeat work after a
// crash without harm.
type Target interface {
	Upsert(ctx context.Context, docs []model.Indexable) error
	Delete(ctx context.Context, ids []model.SearchID) error
	DocCount(ctx context.Context) (uint64, error)
	AllIDs(ctx context.Context) ([]model.SearchID, error)
	Close() error
}

// Client owns one target per entity kind.
type Client struct {
	realms Target
	events Target
}

// NewClient builds a client from explicit targets. Production code goes
// through New; tests inject fakes here.
func NewClient(realms, events Target) *Client {
	return &Client{realms: realms, events: events}
}

// ForKind returns the target documents of the given kind live in.
func (c *Client) ForKind(kind model.Kind) (Target, error) {
	switch kind {
	case model.KindRealm:
		return c.realms, nil
	case model.KindEvent:
		return c.events, nil
	}
	return nil, fmt.Errorf("no index target for entity kind %q", kind)
}

// Close closes both targets.
func (c *Client) Close() error {
	return errors.Join(c.realms.Close(), c.events.Close())
}

// Options selects and configures the backend.
type Options struct {
	Backend string
	Bleve   BleveOptions
	Meili   MeiliOptions
}

// New opens the configured backend's target pair.
func New(opts Options) (*Client, error) {
	switch opts.Backend {
	case BackendBleve:
		realms, err := newBleveTarget(model.KindRealm, opts.Bleve)
		if err != nil {
			return nil, err
		}
		events, err := newBleveTarget(model.KindEvent, opts.Bleve)
		if err != nil {
			_ = realms.Close()
			return nil, err
		}
		return NewClient(realms, events), nil

	case BackendMeili:
		realms, err := newMeiliTarget(model.KindRealm, opts.Meili)
		if err != nil {
			return nil, err
		}
		events, err := newMeiliTarget(model.KindEvent, opts.Meili)
		if err != nil {
			_ = realms.Close()
			return nil, err
		}
		return NewClient(realms, events), nil
	}
	return nil, fmt.Errorf("unknown index backend %q", opts.Backend)
}

// indexName returns the backend-facing name for a kind's index.
func indexName(kind model.Kind) (string, error) {
	switch kind {
	case model.KindRealm:
		return "realms", nil
	case model.KindEvent:
		return "events", nil
	}
	return "", fmt.Errorf("no index name for entity kind %q", kind)
}
