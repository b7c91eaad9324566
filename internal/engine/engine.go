// Package engine drains the search index queue. A drain cycle reads
// marker chunks inside a write-locked transaction, reconciles each
// chunk against current database truth, mirrors the outcome into the
// per-kind index targets and only then deletes the processed markers.
// The daemon loop and the consistency verifier live here too.
package engine

import (
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/openmediahub/searchsync/internal/index"
	"github.com/openmediahub/searchsync/internal/metrics"
)

// Defaults for the drain schedule.
const (
	// DefaultChunkSize bounds how many markers one sub-cycle consumes,
	// which also bounds how long the write lock is held.
	DefaultChunkSize = 5000

	// DefaultInterval is the pause between drain cycles.
	DefaultInterval = 30 * time.Second
)

// Options wires an Engine.
type Options struct {
	DB     *sql.DB
	Client *index.Client
	Logger *slog.Logger

	// Metrics may be nil; the engine then reports into unregistered
	// collectors.
	Metrics *metrics.Set

	ChunkSize int
	Interval  time.Duration

	// LockFile extends the write lock across processes when set.
	LockFile string
}

// Engine owns the drain machinery for one database and index client.
type Engine struct {
	db      *sql.DB
	client  *index.Client
	log     *slog.Logger
	metrics *metrics.Set
	lock    *WriteLock

	chunkSize int
	interval  time.Duration
}

// New validates the options and builds an Engine.
func New(opts Options) (*Engine, error) {
	if opts.DB == nil {
		return nil, fmt.Errorf("engine needs a database handle")
	}
	if opts.Client == nil {
		return nil, fmt.Errorf("engine needs an index client")
	}
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = DefaultChunkSize
	}
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.New(nil)
	}

	return &Engine{
		db:        opts.DB,
		client:    opts.Client,
		log:       opts.Logger,
		metrics:   opts.Metrics,
		lock:      NewWriteLock(opts.LockFile),
		chunkSize: opts.ChunkSize,
		interval:  opts.Interval,
	}, nil
}
