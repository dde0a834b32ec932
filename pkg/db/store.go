// Package db defines the contracts of the two stores used by fungidb:
// the document store that keeps species records and the object store
// that keeps rehosted images.
package db

import (
	"context"
	"io"
	"time"

	"github.com/gnames/fungidb/pkg/config"
	"github.com/gnames/fungidb/pkg/species"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store is the document store of species records.
// Records are keyed by scientific name and never deleted.
type Store interface {
	// Connect opens the store described by cfg.
	Connect(ctx context.Context, cfg *config.StoreConfig) error

	// Close releases connections.
	Close() error

	// Upsert inserts or replaces records by scientific name. Every record
	// is written independently: a rejected record is counted in the
	// stats and does not stop the rest.
	Upsert(ctx context.Context, recs []*species.Record) (UpsertStats, error)

	// Find returns records matching the query ordered by id.
	Find(ctx context.Context, q Query) ([]*species.Record, error)

	// UpdateImage replaces the image of a record.
	UpdateImage(ctx context.Context, id string, img *species.Image) error

	// Distinct returns sorted unique non-empty values of an indexed field.
	Distinct(ctx context.Context, field string) ([]string, error)

	// Count returns the number of records matching the query.
	// Limit and AfterID of the query are ignored.
	Count(ctx context.Context, q Query) (int, error)
}

// Pooler is implemented by stores backed by PostgreSQL. The pool is
// used by schema management.
type Pooler interface {
	Pool() *pgxpool.Pool
}

// Migrator is implemented by stores that create their collection
// without GORM.
type Migrator interface {
	EnsureCollection(ctx context.Context) error
}

// UpsertStats counts the outcome of an upsert.
type UpsertStats struct {
	Inserted   int
	Updated    int
	Duplicates int
	Failed     int
}

// Add sums two stats.
func (s UpsertStats) Add(o UpsertStats) UpsertStats {
	return UpsertStats{
		Inserted:   s.Inserted + o.Inserted,
		Updated:    s.Updated + o.Updated,
		Duplicates: s.Duplicates + o.Duplicates,
		Failed:     s.Failed + o.Failed,
	}
}

// Rejected returns the number of records that were not written.
func (s UpsertStats) Rejected() int {
	return s.Duplicates + s.Failed
}

// ImageFilter selects records by the acquisition state of their image.
type ImageFilter int

const (
	// AnyImage does not filter.
	AnyImage ImageFilter = iota
	// WithImage selects records that have an image url.
	WithImage
	// Rehosted selects records with rehosted images.
	Rehosted
	// Failed selects records whose last acquisition failed.
	Failed
	// Pending selects records waiting for acquisition: the image url
	// does not start with RehostPrefix, the source is not "rehosted",
	// and a failure, if any, happened before FailedBefore.
	Pending
)

// Query describes records to find or count.
type Query struct {
	// Names restricts results to these scientific names.
	Names []string

	Image ImageFilter
	// RehostPrefix is the public base URL of the object store.
	RehostPrefix string
	// FailedBefore is the end of the failure cooldown. Records that failed
	// later are not pending yet. Zero means no cooldown.
	FailedBefore time.Time

	// AfterID starts a keyset page after this id.
	AfterID string
	// Limit caps the number of results, zero means no limit.
	Limit int
}

// ObjectStore keeps uploaded images.
type ObjectStore interface {
	// Connect creates a client and checks that the bucket exists.
	Connect(ctx context.Context, cfg *config.ObjectStoreConfig) error

	// Put uploads an object and returns its public URL.
	Put(
		ctx context.Context,
		key string,
		r io.Reader,
		size int64,
		contentType string,
	) (string, error)
}
