package iodb_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gnames/fungidb/internal/iodb"
	"github.com/gnames/fungidb/pkg/db"
	"github.com/gnames/fungidb/pkg/species"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMock(t *testing.T) (pgxmock.PgxPoolIface, db.Store) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })
	return mock, iodb.NewPostgresWithPool("species", mock)
}

func anyArgs(n int) []any {
	res := make([]any, n)
	for i := range res {
		res[i] = pgxmock.AnyArg()
	}
	return res
}

func TestPostgresUpsert(t *testing.T) {
	mock, st := newMock(t)

	mock.ExpectQuery("INSERT INTO species").
		WithArgs(anyArgs(8)...).
		WillReturnRows(pgxmock.NewRows([]string{"inserted"}).AddRow(true))
	mock.ExpectQuery("INSERT INTO species").
		WithArgs(anyArgs(8)...).
		WillReturnRows(pgxmock.NewRows([]string{"inserted"}).AddRow(false))
	mock.ExpectQuery("INSERT INTO species").
		WithArgs(anyArgs(8)...).
		WillReturnError(&pgconn.PgError{Code: "23505"})
	mock.ExpectQuery("INSERT INTO species").
		WithArgs(anyArgs(8)...).
		WillReturnError(errors.New("value too long"))

	stats, err := st.Upsert(context.Background(), []*species.Record{
		record("A a", "", ""),
		record("B b", "", ""),
		record("C c", "", ""),
		record("D d", "", ""),
	})
	require.NoError(t, err)
	assert.Equal(t, db.UpsertStats{
		Inserted: 1, Updated: 1, Duplicates: 1, Failed: 1,
	}, stats)
	assert.Equal(t, 2, stats.Rejected())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresFind(t *testing.T) {
	mock, st := newMock(t)
	id := species.RecordID("Amanita muscaria")
	rec := record("Amanita muscaria", "Amanitaceae", "https://mo.org/image/1")
	doc, err := rec.Encode()
	require.NoError(t, err)

	mock.ExpectQuery(`SELECT id, doc FROM species WHERE .* ORDER BY id LIMIT \$6`).
		WithArgs(species.SourceRehosted, len(publicBase), publicBase,
			pgxmock.AnyArg(), "abc", 10).
		WillReturnRows(pgxmock.NewRows([]string{"id", "doc"}).AddRow(id, doc))

	res, err := st.Find(context.Background(), db.Query{
		Image:        db.Pending,
		RehostPrefix: publicBase,
		FailedBefore: time.Now().Add(-time.Hour),
		AfterID:      "abc",
		Limit:        10,
	})
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, id, res[0].ID)
	assert.Equal(t, "Amanita muscaria", res[0].ScientificName)
	assert.Equal(t, species.StateUpstream, res[0].Image.State())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresUpdateImage(t *testing.T) {
	mock, st := newMock(t)
	img := &species.Image{URL: "https://mo.org/image/1",
		Source: species.SourceUpstream}
	img.Rehost(publicBase+"/mushrooms/a.jpg", time.Now())

	mock.ExpectExec("UPDATE species SET").
		WithArgs("id1", img.URL, species.SourceRehosted, pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec("UPDATE species SET").
		WithArgs("id2", img.URL, species.SourceRehosted, pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	ctx := context.Background()
	assert.NoError(t, st.UpdateImage(ctx, "id1", img))
	assert.Error(t, st.UpdateImage(ctx, "id2", img))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresCountDistinct(t *testing.T) {
	mock, st := newMock(t)
	mock.ExpectQuery(`SELECT count\(\*\) FROM species WHERE scientific_name IN`).
		WithArgs("A a", "B b").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(2))
	mock.ExpectQuery("SELECT DISTINCT family FROM species").
		WillReturnRows(pgxmock.NewRows([]string{"family"}).
			AddRow("Amanitaceae").AddRow("Boletaceae"))

	ctx := context.Background()
	n, err := st.Count(ctx, db.Query{Names: []string{"A a", "B b"}})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	fams, err := st.Distinct(ctx, "family")
	require.NoError(t, err)
	assert.Equal(t, []string{"Amanitaceae", "Boletaceae"}, fams)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresQueryError(t *testing.T) {
	mock, st := newMock(t)
	mock.ExpectQuery("SELECT id, doc FROM species").
		WillReturnError(errors.New("connection reset"))
	_, err := st.Find(context.Background(), db.Query{})
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
