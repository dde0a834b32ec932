// Package iodb implements the document store on PostgreSQL (pgx) and
// on an embedded SQLite file. This is an impure I/O package that
// implements contracts defined in pkg/db.
package iodb

import (
	"net/url"
	"strings"

	"github.com/gnames/fungidb/pkg/config"
	"github.com/gnames/fungidb/pkg/db"
)

// New returns a document store for the backend selected by the
// scheme of cfg.URI. The store is not connected.
func New(cfg *config.StoreConfig) (db.Store, error) {
	switch cfg.Backend() {
	case "postgres":
		return NewPostgres(cfg.Collection), nil
	case "sqlite":
		return NewSQLite(cfg.Collection), nil
	}
	return nil, UnsupportedStoreError(cfg.URI)
}

// redact hides the password of a connection URI.
func redact(uri string) string {
	u, err := url.Parse(uri)
	if err != nil {
		return uri
	}
	return u.Redacted()
}

// sqlitePath returns the file path of a sqlite:// URI.
func sqlitePath(uri string) string {
	for _, p := range []string{"sqlite://", "SQLITE://"} {
		if strings.HasPrefix(uri, p) {
			return strings.TrimPrefix(uri, p)
		}
	}
	return uri
}
