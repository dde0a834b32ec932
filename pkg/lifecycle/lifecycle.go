// Package lifecycle defines the stages of a fungidb deployment:
// creating the collection, loading species records from CSV exports
// and acquiring their images.
package lifecycle

import (
	"context"

	"github.com/gnames/fungidb/pkg/config"
)

// SchemaManager creates the species collection and its indexes.
// Creation is idempotent.
type SchemaManager interface {
	Create(ctx context.Context, cfg *config.Config) error
}

// LoadSummary reports the outcome of a load.
type LoadSummary struct {
	// Species is the number of assembled records.
	Species  int
	Inserted int
	Updated  int
	// Rejected counts records refused by the store.
	Rejected int
	// RowErrors counts skipped input rows.
	RowErrors int
	Warnings  int
}

// Failed reports whether any row or record was lost.
func (s LoadSummary) Failed() bool {
	return s.Rejected > 0 || s.RowErrors > 0
}

// Loader runs the ETL from CSV exports to the document store.
type Loader interface {
	Load(ctx context.Context, cfg *config.Config) (LoadSummary, error)
}

// AcquireSummary reports the outcome of one acquirer pass.
type AcquireSummary struct {
	PassID      string
	Processed   int
	Rehosted    int
	Failed      int
	StoreErrors int
}

// Acquirer moves images of stored records to the object store.
type Acquirer interface {
	// Run makes one pass over pending records.
	Run(ctx context.Context) (AcquireSummary, error)
}
