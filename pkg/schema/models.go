// Package schema describes the table that keeps species documents.
// The same model drives GORM AutoMigrate on PostgreSQL and the DDL
// generator used for SQLite.
package schema

import (
	"time"
)

// DDLGenerator defines how a model generates SQLite DDL for a table
// with a configurable name.
type DDLGenerator interface {
	// TableDDL returns the CREATE TABLE statement.
	TableDDL(table string) string

	// IndexDDL returns CREATE INDEX statements.
	IndexDDL(table string) []string
}

// SpeciesRow is a row of the species collection. The document is kept
// whole in Doc, a few of its fields are projected into indexed columns
// used by queries. Indexes are named after the table and come from
// IndexDDL on both backends.
type SpeciesRow struct {
	// ID is UUID v5 of the scientific name.
	ID string `gorm:"type:uuid;primaryKey" db:"id" ddl:"TEXT PRIMARY KEY"`

	// ScientificName is the unique key of upserts (unique index in
	// IndexDDL).
	ScientificName string `gorm:"type:text;not null" db:"scientific_name" ddl:"TEXT NOT NULL"`

	CommonName string `gorm:"type:text" db:"common_name" ddl:"TEXT"`

	// Family is classification.family of the document.
	Family string `gorm:"type:text" db:"family" ddl:"TEXT"`

	ImageURL string `gorm:"type:text" db:"image_url" ddl:"TEXT"`

	// ImageSource is "upstream" or "rehosted".
	ImageSource string `gorm:"type:text" db:"image_source" ddl:"TEXT"`

	// ImageFailedAt is image.processing_failed_at. SQLite keeps it as
	// unix milliseconds.
	ImageFailedAt *time.Time `gorm:"type:timestamptz" db:"image_failed_at" ddl:"INTEGER"`

	// Doc is the JSON document.
	Doc []byte `gorm:"type:jsonb;not null" db:"doc" ddl:"TEXT NOT NULL"`

	CreatedAt time.Time `gorm:"type:timestamptz;not null;default:now()" db:"created_at" ddl:"INTEGER NOT NULL"`
	UpdatedAt time.Time `gorm:"type:timestamptz;not null;default:now()" db:"updated_at" ddl:"INTEGER NOT NULL"`
}

// Columns lists column names in the order used by the stores.
var Columns = []string{
	"id", "scientific_name", "common_name", "family", "image_url",
	"image_source", "image_failed_at", "doc", "created_at", "updated_at",
}

// IndexedFields are the projected columns that can be used for
// distinct lookups.
var IndexedFields = map[string]string{
	"scientific_name": "scientific_name",
	"common_name":     "common_name",
	"family":          "family",
	"image_source":    "image_source",
}
