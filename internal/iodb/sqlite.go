package iodb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/gnames/fungidb/pkg/config"
	"github.com/gnames/fungidb/pkg/db"
	"github.com/gnames/fungidb/pkg/schema"
	"github.com/gnames/fungidb/pkg/species"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// sqliteStore implements db.Store on an embedded SQLite file.
type sqliteStore struct {
	table string
	db    *sql.DB
}

// NewSQLite creates an SQLite store for the table (without
// connecting).
func NewSQLite(table string) db.Store {
	return &sqliteStore{table: table}
}

// Connect opens the database file, creating it if needed.
func (s *sqliteStore) Connect(ctx context.Context, cfg *config.StoreConfig) error {
	path := sqlitePath(cfg.URI)
	if path == "" {
		return ConnectionError(cfg.URI, errors.New("empty sqlite path"))
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return ConnectionError(cfg.URI, err)
		}
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return ConnectionError(cfg.URI, err)
	}
	// a single writer avoids SQLITE_BUSY and keeps :memory: databases
	// on one connection
	conn.SetMaxOpenConns(1)

	if err = conn.PingContext(ctx); err != nil {
		conn.Close()
		return ConnectionError(cfg.URI, err)
	}
	if _, err = conn.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return ConnectionError(cfg.URI, err)
	}
	s.db = conn
	return nil
}

// Close closes the database.
func (s *sqliteStore) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// EnsureCollection creates the table and its indexes if they do not
// exist.
func (s *sqliteStore) EnsureCollection(ctx context.Context) error {
	if s.db == nil {
		return NotConnectedError()
	}
	var row schema.SpeciesRow
	stmts := append([]string{row.TableDDL(s.table)}, row.IndexDDL(s.table)...)
	for _, q := range stmts {
		if _, err := s.db.ExecContext(ctx, q); err != nil {
			return QueryError("create collection", err)
		}
	}
	return nil
}

// Upsert writes the batch in one transaction. A failed row does not
// abort the transaction in SQLite, so it is counted and skipped.
func (s *sqliteStore) Upsert(
	ctx context.Context,
	recs []*species.Record,
) (db.UpsertStats, error) {
	var res db.UpsertStats
	if s.db == nil {
		return res, NotConnectedError()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return res, QueryError("upsert", err)
	}
	defer tx.Rollback()

	exists := fmt.Sprintf(
		"SELECT count(*) FROM %s WHERE scientific_name = ?", s.table)
	upsert := fmt.Sprintf(`INSERT INTO %s
  (id, scientific_name, common_name, family, image_url, image_source,
   image_failed_at, doc, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (scientific_name) DO UPDATE SET
  common_name = excluded.common_name,
  family = excluded.family,
  image_url = excluded.image_url,
  image_source = excluded.image_source,
  image_failed_at = excluded.image_failed_at,
  doc = excluded.doc,
  updated_at = excluded.updated_at`, s.table)

	for _, r := range recs {
		if err = ctx.Err(); err != nil {
			return res, err
		}
		pr, err := project(r)
		if err != nil {
			res.Failed++
			slog.Warn("Cannot encode record",
				"name", r.ScientificName, "error", err)
			continue
		}

		var n int
		if err = tx.QueryRowContext(ctx, exists, pr.name).Scan(&n); err != nil {
			res.Failed++
			slog.Warn("Cannot upsert record", "name", pr.name, "error", err)
			continue
		}

		now := time.Now().UnixMilli()
		_, err = tx.ExecContext(ctx, upsert,
			pr.id, pr.name, pr.commonName, pr.family, pr.imageURL,
			pr.source, millis(pr.failedAt), string(pr.doc), now, now,
		)
		switch {
		case err == nil && n == 0:
			res.Inserted++
		case err == nil:
			res.Updated++
		case isSQLiteDuplicate(err):
			res.Duplicates++
			slog.Warn("Duplicate record", "name", pr.name, "id", pr.id)
		default:
			res.Failed++
			slog.Warn("Cannot upsert record", "name", pr.name, "error", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return db.UpsertStats{}, QueryError("upsert", err)
	}
	return res, nil
}

func isSQLiteDuplicate(err error) bool {
	var sErr *sqlite.Error
	if !errors.As(err, &sErr) {
		return false
	}
	switch sErr.Code() {
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		return true
	}
	return false
}

func millis(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UnixMilli()
}

// Find returns records matching the query ordered by id.
func (s *sqliteStore) Find(ctx context.Context, q db.Query) ([]*species.Record, error) {
	if s.db == nil {
		return nil, NotConnectedError()
	}
	query, args := selectSQL(sqliteDialect, s.table, q)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, QueryError("find", err)
	}
	defer rows.Close()

	var res []*species.Record
	for rows.Next() {
		var id, doc string
		if err = rows.Scan(&id, &doc); err != nil {
			return nil, QueryError("find", err)
		}
		rec, err := species.Decode(id, []byte(doc))
		if err != nil {
			return nil, QueryError("find", err)
		}
		res = append(res, rec)
	}
	if err = rows.Err(); err != nil {
		return nil, QueryError("find", err)
	}
	return res, nil
}

// UpdateImage replaces the image of the document and its projected
// columns in one statement.
func (s *sqliteStore) UpdateImage(
	ctx context.Context,
	id string,
	img *species.Image,
) error {
	if s.db == nil {
		return NotConnectedError()
	}
	doc, err := encodeImage(img)
	if err != nil {
		return QueryError("update image", err)
	}
	imgURL, source, failedAt := imageColumns(img)

	set := "json_set(doc, '$.image', json(?))"
	args := []any{string(doc)}
	if img == nil {
		set = "json_remove(doc, '$.image')"
		args = nil
	}
	args = append(args,
		imgURL, source, millis(failedAt), time.Now().UnixMilli(), id)
	q := fmt.Sprintf(`UPDATE %s SET
  doc = %s,
  image_url = ?,
  image_source = ?,
  image_failed_at = ?,
  updated_at = ?
WHERE id = ?`, s.table, set)

	sqlRes, err := s.db.ExecContext(ctx, q, args...)
	if err != nil {
		return QueryError("update image", err)
	}
	n, err := sqlRes.RowsAffected()
	if err != nil {
		return QueryError("update image", err)
	}
	if n == 0 {
		return NotFoundError(id)
	}
	return nil
}

// Distinct returns sorted unique values of an indexed field.
func (s *sqliteStore) Distinct(ctx context.Context, field string) ([]string, error) {
	if s.db == nil {
		return nil, NotConnectedError()
	}
	q, err := distinctSQL(s.table, field)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, QueryError("distinct", err)
	}
	defer rows.Close()

	var res []string
	for rows.Next() {
		var v string
		if err = rows.Scan(&v); err != nil {
			return nil, QueryError("distinct", err)
		}
		res = append(res, v)
	}
	if err = rows.Err(); err != nil {
		return nil, QueryError("distinct", err)
	}
	return res, nil
}

// Count returns the number of records matching the query.
func (s *sqliteStore) Count(ctx context.Context, q db.Query) (int, error) {
	if s.db == nil {
		return 0, NotConnectedError()
	}
	query, args := countSQL(sqliteDialect, s.table, q)
	var res int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&res); err != nil {
		return 0, QueryError("count", err)
	}
	return res, nil
}
