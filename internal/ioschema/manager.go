// Package ioschema implements the SchemaManager interface. On
// PostgreSQL it wraps GORM AutoMigrate, embedded stores create their
// collection themselves.
package ioschema

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/gnames/fungidb/pkg/config"
	"github.com/gnames/fungidb/pkg/db"
	"github.com/gnames/fungidb/pkg/lifecycle"
	"github.com/gnames/fungidb/pkg/schema"
	"github.com/jackc/pgx/v5/stdlib"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// manager implements the lifecycle.SchemaManager interface.
type manager struct {
	store db.Store
}

// NewManager creates a new SchemaManager for a connected store.
func NewManager(store db.Store) lifecycle.SchemaManager {
	return &manager{store: store}
}

// Create creates the species collection and its indexes. It is safe
// to run on an existing collection.
func (m *manager) Create(ctx context.Context, cfg *config.Config) error {
	table := cfg.Store.Collection

	if p, ok := m.store.(db.Pooler); ok {
		pool := p.Pool()
		if pool == nil {
			return NotConnectedError()
		}
		gormDB, err := gorm.Open(
			postgres.New(postgres.Config{Conn: stdlib.OpenDBFromPool(pool)}),
			&gorm.Config{Logger: logger.Default.LogMode(logger.Silent)},
		)
		if err != nil {
			return GORMConnectionError(err)
		}
		if err = schema.Migrate(gormDB, table); err != nil {
			return CreateSchemaError(err)
		}

		// scientific names sort in byte order
		q := collationSQL(table, "scientific_name")
		if _, err = pool.Exec(ctx, q); err != nil {
			return CollationError(table, "scientific_name", err)
		}

		for _, q := range (schema.SpeciesRow{}).IndexDDL(table) {
			if _, err = pool.Exec(ctx, q); err != nil {
				return CreateSchemaError(err)
			}
		}
		slog.Info("Collection is ready", "backend", "postgres", "table", table)
		return nil
	}

	if mg, ok := m.store.(db.Migrator); ok {
		if err := mg.EnsureCollection(ctx); err != nil {
			return CreateSchemaError(err)
		}
		slog.Info("Collection is ready", "backend", "sqlite", "table", table)
		return nil
	}

	return CreateSchemaError(
		fmt.Errorf("store %T cannot create collections", m.store),
	)
}
