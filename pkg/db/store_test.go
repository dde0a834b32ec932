package db_test

import (
	"testing"

	"github.com/gnames/fungidb/pkg/db"
	"github.com/stretchr/testify/assert"
)

func TestUpsertStats(t *testing.T) {
	s := db.UpsertStats{Inserted: 2, Failed: 1}
	s = s.Add(db.UpsertStats{Updated: 3, Duplicates: 1})
	assert.Equal(t, db.UpsertStats{Inserted: 2, Updated: 3, Duplicates: 1, Failed: 1}, s)
	assert.Equal(t, 2, s.Rejected())
}
