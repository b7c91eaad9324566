package index

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/openmediahub/searchsync/internal/model"
)

// Meilisearch defaults.
const (
	DefaultMeiliHost    = "http://127.0.0.1:7700"
	DefaultMeiliTimeout = 30 * time.Second

	// meiliPageSize bounds the per-request page when listing ids.
	meiliPageSize = 1000
)

// MeiliOptions configures the Meilisearch backend.
type MeiliOptions struct {
	Host   string
	APIKey string

	// Prefix is prepended to index uids so several deployments can
	// share one Meilisearch instance.
	Prefix  string
	Timeout time.Duration
}

// meiliTarget talks to one Meilisearch index over its REST API.
// Mutations are task-queued by the server; the client does not await
// task completion. A lost task is healed by the next marker for the
// same entity, which the at-least-once drain model already tolerates.
type meiliTarget struct {
	client    *http.Client
	transport *http.Transport
	host      string
	apiKey    string
	kind      model.Kind
	uid       string
	timeout   time.Duration

	mu      sync.Mutex
	ensured bool
}

func newMeiliTarget(kind model.Kind, opts MeiliOptions) (*meiliTarget, error) {
	name, err := indexName(kind)
	if err != nil {
		return nil, err
	}
	if opts.Host == "" {
		opts.Host = DefaultMeiliHost
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultMeiliTimeout
	}

	transport := &http.Transport{
		MaxIdleConns:        4,
		MaxIdleConnsPerHost: 4,
		IdleConnTimeout:     30 * time.Second,
	}
	return &meiliTarget{
		client:    &http.Client{Transport: transport},
		transport: transport,
		host:      strings.TrimSuffix(opts.Host, "/"),
		apiKey:    opts.APIKey,
		kind:      kind,
		uid:       opts.Prefix + name,
		timeout:   opts.Timeout,
	}, nil
}

// httpError carries the backend's status and response body.
type httpError struct {
	status int
	method string
	path   string
	body   string
}

func (e *httpError) Error() string {
	return fmt.Sprintf("search backend returned %d for %s %s: %s", e.status, e.method, e.path, e.body)
}

// do sends one JSON request. Responses outside 2xx become an *httpError
// carrying the body; out, when non-nil, receives the decoded response.
func (m *meiliTarget) do(ctx context.Context, method, path string, body, out any) error {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	var rdr io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		rdr = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, m.host+path, rdr)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if m.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+m.apiKey)
	}

	resp, err := m.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to reach search backend: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &httpError{
			status: resp.StatusCode,
			method: method,
			path:   path,
			body:   strings.TrimSpace(string(data)),
		}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

// ensure creates the index and pushes its settings once per process.
// Meilisearch would auto-create indexes on first write, but with a
// guessed primary key and default settings; creating explicitly pins
// both.
func (m *meiliTarget) ensure(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ensured {
		return nil
	}

	err := m.do(ctx, http.MethodGet, "/indexes/"+m.uid, nil, nil)
	var he *httpError
	if errors.As(err, &he) && he.status == http.StatusNotFound {
		create := map[string]string{"uid": m.uid, "primaryKey": "id"}
		if err := m.do(ctx, http.MethodPost, "/indexes", create, nil); err != nil {
			return fmt.Errorf("failed to create index %s: %w", m.uid, err)
		}
	} else if err != nil {
		return fmt.Errorf("failed to check index %s: %w", m.uid, err)
	}

	settings, err := m.settings()
	if err != nil {
		return err
	}
	if err := m.do(ctx, http.MethodPatch, "/indexes/"+m.uid+"/settings", settings, nil); err != nil {
		return fmt.Errorf("failed to push settings for %s: %w", m.uid, err)
	}

	m.ensured = true
	return nil
}

// settings returns the per-kind search configuration.
func (m *meiliTarget) settings() (map[string]any, error) {
	switch m.kind {
	case model.KindRealm:
		return map[string]any{
			"searchableAttributes": []string{"name", "ancestor_names"},
			"filterableAttributes": []string{"full_path"},
		}, nil
	case model.KindEvent:
		return map[string]any{
			"searchableAttributes": []string{"title", "creators", "description"},
			"filterableAttributes": []string{"is_live", "realm_path"},
		}, nil
	}
	return nil, fmt.Errorf("no index settings for entity kind %q", m.kind)
}

// Upsert adds or replaces documents by id.
func (m *meiliTarget) Upsert(ctx context.Context, docs []model.Indexable) error {
	if len(docs) == 0 {
		return nil
	}
	if err := m.ensure(ctx); err != nil {
		return err
	}
	if err := m.do(ctx, http.MethodPost, "/indexes/"+m.uid+"/documents", docs, nil); err != nil {
		return fmt.Errorf("failed to upsert %d documents into %s: %w", len(docs), m.uid, err)
	}
	return nil
}

// Delete removes documents by id. Absent ids are no-ops server-side.
func (m *meiliTarget) Delete(ctx context.Context, ids []model.SearchID) error {
	if len(ids) == 0 {
		return nil
	}
	if err := m.ensure(ctx); err != nil {
		return err
	}
	if err := m.do(ctx, http.MethodPost, "/indexes/"+m.uid+"/documents/delete-batch", ids, nil); err != nil {
		return fmt.Errorf("failed to delete %d documents from %s: %w", len(ids), m.uid, err)
	}
	return nil
}

// DocCount reports the backend's document count for this index.
func (m *meiliTarget) DocCount(ctx context.Context) (uint64, error) {
	var stats struct {
		NumberOfDocuments uint64 `json:"numberOfDocuments"`
	}
	err := m.do(ctx, http.MethodGet, "/indexes/"+m.uid+"/stats", nil, &stats)
	var he *httpError
	if errors.As(err, &he) && he.status == http.StatusNotFound {
		return 0, nil // index not created yet
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read stats for %s: %w", m.uid, err)
	}
	return stats.NumberOfDocuments, nil
}

// AllIDs pages through the index and returns every document id.
func (m *meiliTarget) AllIDs(ctx context.Context) ([]model.SearchID, error) {
	var ids []model.SearchID
	for offset := 0; ; offset += meiliPageSize {
		path := fmt.Sprintf("/indexes/%s/documents?%s", m.uid, url.Values{
			"fields": {"id"},
			"limit":  {fmt.Sprint(meiliPageSize)},
			"offset": {fmt.Sprint(offset)},
		}.Encode())

		var page struct {
			Results []struct {
				ID model.SearchID `json:"id"`
			} `json:"results"`
			Total int `json:"total"`
		}
		err := m.do(ctx, http.MethodGet, path, nil, &page)
		var he *httpError
		if errors.As(err, &he) && he.status == http.StatusNotFound {
			return nil, nil // index not created yet
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list documents of %s: %w", m.uid, err)
		}

		for _, r := range page.Results {
			ids = append(ids, r.ID)
		}
		if len(ids) >= page.Total || len(page.Results) == 0 {
			return ids, nil
		}
	}
}

// Close releases pooled connections. The server side needs no goodbye.
func (m *meiliTarget) Close() error {
	m.transport.CloseIdleConnections()
	return nil
}
