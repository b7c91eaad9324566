package index

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"

	"github.com/openmediahub/searchsync/internal/model"
)

// BleveOptions configures the embedded backend.
type BleveOptions struct {
	// Dir holds one bleve index per kind. Empty means memory-only,
	// which tests use.
	Dir string
}

// bleveTarget wraps one bleve index. All mutations go through batches
// so a chunk's documents land in one commit.
type bleveTarget struct {
	mu     sync.RWMutex
	index  bleve.Index
	path   string
	closed bool
}

func newBleveTarget(kind model.Kind, opts BleveOptions) (*bleveTarget, error) {
	im, err := buildMapping(kind)
	if err != nil {
		return nil, err
	}

	var idx bleve.Index
	var path string
	if opts.Dir == "" {
		idx, err = bleve.NewMemOnly(im)
	} else {
		name, nameErr := indexName(kind)
		if nameErr != nil {
			return nil, nameErr
		}
		if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create index directory %s: %w", opts.Dir, err)
		}
		path = filepath.Join(opts.Dir, name+".bleve")
		idx, err = bleve.Open(path)
		if err == bleve.ErrorIndexPathDoesNotExist {
			idx, err = bleve.New(path, im)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open %s index: %w", kind, err)
	}

	return &bleveTarget{index: idx, path: path}, nil
}

// buildMapping builds the per-kind index mapping. Prose fields get the
// standard analyzer; paths stay unanalyzed so they match exactly.
func buildMapping(kind model.Kind) (mapping.IndexMapping, error) {
	im := bleve.NewIndexMapping()
	doc := bleve.NewDocumentMapping()

	text := func(field string) {
		fm := bleve.NewTextFieldMapping()
		fm.Analyzer = standard.Name
		doc.AddFieldMappingsAt(field, fm)
	}
	keyword := func(field string) {
		doc.AddFieldMappingsAt(field, bleve.NewKeywordFieldMapping())
	}

	switch kind {
	case model.KindRealm:
		text("name")
		text("ancestor_names")
		keyword("full_path")

	case model.KindEvent:
		text("title")
		text("description")
		text("creators")
		keyword("realm_path")
		doc.AddFieldMappingsAt("duration", bleve.NewNumericFieldMapping())
		doc.AddFieldMappingsAt("updated", bleve.NewNumericFieldMapping())
		doc.AddFieldMappingsAt("is_live", bleve.NewBooleanFieldMapping())
		thumb := bleve.NewTextFieldMapping()
		thumb.Index = false // stored for display, never searched
		doc.AddFieldMappingsAt("thumbnail", thumb)

	default:
		return nil, fmt.Errorf("no index mapping for entity kind %q", kind)
	}

	im.DefaultMapping = doc
	return im, nil
}

// Upsert adds or replaces documents by their derived id.
func (b *bleveTarget) Upsert(ctx context.Context, docs []model.Indexable) error {
	if len(docs) == 0 {
		return nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return fmt.Errorf("index is closed")
	}

	batch := b.index.NewBatch()
	for _, doc := range docs {
		id := string(doc.DatabaseKey().SearchID())
		if err := batch.Index(id, doc); err != nil {
			return fmt.Errorf("failed to index document %s: %w", id, err)
		}
	}
	if err := b.index.Batch(batch); err != nil {
		return fmt.Errorf("failed to execute index batch: %w", err)
	}
	return nil
}

// Delete removes documents by id. Absent ids are no-ops.
func (b *bleveTarget) Delete(ctx context.Context, ids []model.SearchID) error {
	if len(ids) == 0 {
		return nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return fmt.Errorf("index is closed")
	}

	batch := b.index.NewBatch()
	for _, id := range ids {
		batch.Delete(string(id))
	}
	if err := b.index.Batch(batch); err != nil {
		return fmt.Errorf("failed to execute delete batch: %w", err)
	}
	return nil
}

// DocCount reports how many documents the index holds.
func (b *bleveTarget) DocCount(ctx context.Context) (uint64, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return 0, fmt.Errorf("index is closed")
	}

	n, err := b.index.DocCount()
	if err != nil {
		return 0, fmt.Errorf("failed to count documents: %w", err)
	}
	return n, nil
}

// AllIDs returns every document id in the index. Used by verify.
func (b *bleveTarget) AllIDs(ctx context.Context) ([]model.SearchID, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return nil, fmt.Errorf("index is closed")
	}

	count, err := b.index.DocCount()
	if err != nil {
		return nil, fmt.Errorf("failed to count documents: %w", err)
	}

	req := bleve.NewSearchRequest(bleve.NewMatchAllQuery())
	req.Size = int(count)
	req.Fields = []string{}

	result, err := b.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to list document ids: %w", err)
	}

	ids := make([]model.SearchID, len(result.Hits))
	for i, hit := range result.Hits {
		ids[i] = model.SearchID(hit.ID)
	}
	return ids, nil
}

// Close flushes and closes the underlying index.
func (b *bleveTarget) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	if err := b.index.Close(); err != nil {
		return fmt.Errorf("failed to close index: %w", err)
	}
	return nil
}
