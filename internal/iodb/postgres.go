package iodb

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/gnames/fungidb/pkg/config"
	"github.com/gnames/fungidb/pkg/db"
	"github.com/gnames/fungidb/pkg/species"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// uniqueViolation is the PostgreSQL error code of a duplicate key.
const uniqueViolation = "23505"

// Pool is the part of pgxpool.Pool used by the store.
// It is satisfied by pgxmock in tests.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

// pgStore implements db.Store on PostgreSQL.
type pgStore struct {
	table string
	pool  Pool
	raw   *pgxpool.Pool
}

// NewPostgres creates a PostgreSQL store for the table (without
// connecting).
func NewPostgres(table string) db.Store {
	return &pgStore{table: table}
}

// NewPostgresWithPool creates a store on an existing pool.
func NewPostgresWithPool(table string, pool Pool) db.Store {
	return &pgStore{table: table, pool: pool}
}

// Connect establishes a connection pool. The database name from
// cfg.DB is used when the URI has no path.
func (p *pgStore) Connect(ctx context.Context, cfg *config.StoreConfig) error {
	dsn, err := pgDSN(cfg)
	if err != nil {
		return ConnectionError(cfg.URI, err)
	}

	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return ConnectionError(cfg.URI, err)
	}
	poolConfig.MaxConns = 10
	poolConfig.MinConns = 1

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return ConnectionError(cfg.URI, err)
	}
	if err = pool.Ping(ctx); err != nil {
		pool.Close()
		return ConnectionError(cfg.URI, err)
	}

	p.pool = pool
	p.raw = pool
	return nil
}

func pgDSN(cfg *config.StoreConfig) (string, error) {
	u, err := url.Parse(cfg.URI)
	if err != nil {
		return "", err
	}
	if (u.Path == "" || u.Path == "/") && cfg.DB != "" {
		u.Path = "/" + cfg.DB
	}
	return u.String(), nil
}

// Close releases all connections.
func (p *pgStore) Close() error {
	if p.pool != nil {
		p.pool.Close()
		p.pool = nil
		p.raw = nil
	}
	return nil
}

// Pool returns the underlying pgxpool.Pool for schema management.
// It is nil for stores created on a custom pool.
func (p *pgStore) Pool() *pgxpool.Pool {
	return p.raw
}

// Upsert writes every record with its own statement. Duplicate key
// violations and other row failures are counted, the rest of the
// batch continues.
func (p *pgStore) Upsert(
	ctx context.Context,
	recs []*species.Record,
) (db.UpsertStats, error) {
	var res db.UpsertStats
	if p.pool == nil {
		return res, NotConnectedError()
	}

	q := fmt.Sprintf(`INSERT INTO %s
  (id, scientific_name, common_name, family, image_url, image_source,
   image_failed_at, doc, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now(), now())
ON CONFLICT (scientific_name) DO UPDATE SET
  common_name = EXCLUDED.common_name,
  family = EXCLUDED.family,
  image_url = EXCLUDED.image_url,
  image_source = EXCLUDED.image_source,
  image_failed_at = EXCLUDED.image_failed_at,
  doc = EXCLUDED.doc,
  updated_at = now()
RETURNING (xmax = 0) AS inserted`, p.table)

	for _, r := range recs {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		pr, err := project(r)
		if err != nil {
			res.Failed++
			slog.Warn("Cannot encode record",
				"name", r.ScientificName, "error", err)
			continue
		}

		var inserted bool
		err = p.pool.QueryRow(ctx, q,
			pr.id, pr.name, pr.commonName, pr.family, pr.imageURL,
			pr.source, pr.failedAt, pr.doc,
		).Scan(&inserted)

		var pgErr *pgconn.PgError
		switch {
		case err == nil && inserted:
			res.Inserted++
		case err == nil:
			res.Updated++
		case errors.Is(err, context.Canceled),
			errors.Is(err, context.DeadlineExceeded):
			return res, err
		case errors.As(err, &pgErr) && pgErr.Code == uniqueViolation:
			res.Duplicates++
			slog.Warn("Duplicate record", "name", pr.name, "id", pr.id)
		default:
			res.Failed++
			slog.Warn("Cannot upsert record", "name", pr.name, "error", err)
		}
	}
	return res, nil
}

// Find returns records matching the query ordered by id.
func (p *pgStore) Find(ctx context.Context, q db.Query) ([]*species.Record, error) {
	if p.pool == nil {
		return nil, NotConnectedError()
	}
	sql, args := selectSQL(pgDialect, p.table, q)
	rows, err := p.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, QueryError("find", err)
	}
	defer rows.Close()

	var res []*species.Record
	for rows.Next() {
		var id string
		var doc []byte
		if err = rows.Scan(&id, &doc); err != nil {
			return nil, QueryError("find", err)
		}
		rec, err := species.Decode(id, doc)
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
func (p *pgStore) UpdateImage(
	ctx context.Context,
	id string,
	img *species.Image,
) error {
	if p.pool == nil {
		return NotConnectedError()
	}
	doc, err := encodeImage(img)
	if err != nil {
		return QueryError("update image", err)
	}
	imgURL, source, failedAt := imageColumns(img)

	set := "jsonb_set(doc, '{image}', $6::jsonb, true)"
	args := []any{id, imgURL, source, failedAt, time.Now().UTC(), doc}
	if img == nil {
		set = "doc - 'image'"
		args = args[:5]
	}
	q := fmt.Sprintf(`UPDATE %s SET
  doc = %s,
  image_url = $2,
  image_source = $3,
  image_failed_at = $4,
  updated_at = $5
WHERE id = $1`, p.table, set)

	tag, err := p.pool.Exec(ctx, q, args...)
	if err != nil {
		return QueryError("update image", err)
	}
	if tag.RowsAffected() == 0 {
		return NotFoundError(id)
	}
	return nil
}

// Distinct returns sorted unique values of an indexed field.
func (p *pgStore) Distinct(ctx context.Context, field string) ([]string, error) {
	if p.pool == nil {
		return nil, NotConnectedError()
	}
	q, err := distinctSQL(p.table, field)
	if err != nil {
		return nil, err
	}
	rows, err := p.pool.Query(ctx, q)
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
func (p *pgStore) Count(ctx context.Context, q db.Query) (int, error) {
	if p.pool == nil {
		return 0, NotConnectedError()
	}
	sql, args := countSQL(pgDialect, p.table, q)
	var res int
	if err := p.pool.QueryRow(ctx, sql, args...).Scan(&res); err != nil {
		return 0, QueryError("count", err)
	}
	return res, nil
}
