package iodb

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gnames/fungidb/pkg/db"
	"github.com/gnames/fungidb/pkg/schema"
	"github.com/gnames/fungidb/pkg/species"
	"github.com/gnames/gnfmt"
)

// dialect hides differences of SQL between backends.
type dialect struct {
	// placeholder returns the n-th (1-based) bind parameter.
	placeholder func(n int) string
	// timestamp converts time to a bind value.
	timestamp func(t time.Time) any
}

var pgDialect = dialect{
	placeholder: func(n int) string { return fmt.Sprintf("$%d", n) },
	timestamp:   func(t time.Time) any { return t.UTC() },
}

var sqliteDialect = dialect{
	placeholder: func(int) string { return "?" },
	timestamp:   func(t time.Time) any { return t.UnixMilli() },
}

// where builds a WHERE clause with its arguments.
type where struct {
	d     dialect
	conds []string
	args  []any
}

func (w *where) arg(v any) string {
	w.args = append(w.args, v)
	return w.d.placeholder(len(w.args))
}

func (w *where) add(cond string) {
	w.conds = append(w.conds, cond)
}

func (w *where) String() string {
	if len(w.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.conds, " AND ")
}

// buildWhere converts a query into conditions on projected columns.
// Keyset fields are added only when page is true.
func buildWhere(d dialect, q db.Query, page bool) *where {
	w := &where{d: d}

	if len(q.Names) > 0 {
		ph := make([]string, len(q.Names))
		for i, n := range q.Names {
			ph[i] = w.arg(n)
		}
		w.add(fmt.Sprintf("scientific_name IN (%s)", strings.Join(ph, ", ")))
	}

	switch q.Image {
	case db.WithImage:
		w.add("image_url IS NOT NULL AND image_url <> ''")
	case db.Rehosted:
		w.add("image_source = " + w.arg(species.SourceRehosted))
	case db.Failed:
		w.add("image_failed_at IS NOT NULL")
		w.add("(image_source IS NULL OR image_source <> " +
			w.arg(species.SourceRehosted) + ")")
	case db.Pending:
		w.add("image_url IS NOT NULL AND image_url <> ''")
		w.add("(image_source IS NULL OR image_source <> " +
			w.arg(species.SourceRehosted) + ")")
		if q.RehostPrefix != "" {
			n := w.arg(utf8.RuneCountInString(q.RehostPrefix))
			w.add(fmt.Sprintf(
				"substr(image_url, 1, %s) <> %s", n, w.arg(q.RehostPrefix),
			))
		}
		if !q.FailedBefore.IsZero() {
			w.add("(image_failed_at IS NULL OR image_failed_at < " +
				w.arg(d.timestamp(q.FailedBefore)) + ")")
		}
	}

	if page && q.AfterID != "" {
		w.add("id > " + w.arg(q.AfterID))
	}
	return w
}

// selectSQL returns the query of Find.
func selectSQL(d dialect, table string, q db.Query) (string, []any) {
	w := buildWhere(d, q, true)
	sql := fmt.Sprintf("SELECT id, doc FROM %s%s ORDER BY id", table, w)
	if q.Limit > 0 {
		sql += " LIMIT " + w.arg(q.Limit)
	}
	return sql, w.args
}

// countSQL returns the query of Count.
func countSQL(d dialect, table string, q db.Query) (string, []any) {
	w := buildWhere(d, q, false)
	return fmt.Sprintf("SELECT count(*) FROM %s%s", table, w), w.args
}

// distinctSQL returns the query of Distinct.
func distinctSQL(table, field string) (string, error) {
	col, ok := schema.IndexedFields[field]
	if !ok {
		return "", FieldError(field)
	}
	return fmt.Sprintf(
		"SELECT DISTINCT %[2]s FROM %[1]s "+
			"WHERE %[2]s IS NOT NULL AND %[2]s <> '' ORDER BY %[2]s",
		table, col,
	), nil
}

// projection keeps values of indexed columns of a record.
type projection struct {
	id         string
	name       string
	commonName string
	family     string
	imageURL   string
	source     string
	failedAt   *time.Time
	doc        []byte
}

func project(r *species.Record) (projection, error) {
	doc, err := r.Encode()
	if err != nil {
		return projection{}, err
	}
	id := r.ID
	if id == "" {
		id = species.RecordID(r.ScientificName)
	}
	res := projection{
		id:         id,
		name:       r.ScientificName,
		commonName: r.CommonName,
		doc:        doc,
	}
	if r.Classification != nil {
		res.family = r.Classification.Family
	}
	res.imageURL, res.source, res.failedAt = imageColumns(r.Image)
	return res, nil
}

func imageColumns(img *species.Image) (string, string, *time.Time) {
	if img == nil {
		return "", "", nil
	}
	return img.URL, img.Source, img.ProcessingFailedAt
}

// encodeImage returns the JSON of an image, or nil for a nil image.
func encodeImage(img *species.Image) ([]byte, error) {
	if img == nil {
		return nil, nil
	}
	enc := gnfmt.GNjson{}
	return enc.Encode(img)
}
