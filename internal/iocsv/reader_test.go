package iocsv_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/gnames/fungidb/internal/iocsv"
	"github.com/gnames/fungidb/pkg/errcode"
	"github.com/gnames/gn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestRows(t *testing.T) {
	path := writeFile(t, "names.csv",
		"id\ttext_name\tauthor\tdeprecated\trank\n"+
			"1\tAmanita muscaria\t(L.) Lam.\t0\t4\n"+
			"2\tAmanita\tNULL\t0\t9\n"+
			"3\tbroken row\n"+
			"4\tBoletus \"king\" edulis\t\t1\t4\n",
	)
	r, err := iocsv.Open(path, '\t')
	require.NoError(t, err)
	defer r.Close()

	require.NoError(t, r.Require("id", "text_name", "author", "rank"))

	type name struct {
		id         int
		text       string
		author     string
		hasAuthor  bool
		deprecated bool
		line       int
	}
	var res []name
	for row := range r.Rows() {
		id, err := row.MustInt("id")
		require.NoError(t, err)
		author, ok := row.Get("author")
		res = append(res, name{
			id:         id,
			text:       row.String("text_name"),
			author:     author,
			hasAuthor:  ok,
			deprecated: row.Bool("deprecated"),
			line:       row.Line,
		})
	}
	require.NoError(t, r.Err())
	assert.Equal(t, 1, r.Skipped())
	require.Len(t, res, 3)

	assert.Equal(t, name{1, "Amanita muscaria", "(L.) Lam.", true, false, 2}, res[0])
	assert.Equal(t, name{2, "Amanita", "", false, false, 3}, res[1])
	assert.Equal(t, "Boletus \"king\" edulis", res[2].text)
	assert.False(t, res[2].hasAuthor)
	assert.True(t, res[2].deprecated)
	assert.Equal(t, 5, res[2].line)
}

func TestAliases(t *testing.T) {
	path := writeFile(t, "name_descriptions.csv",
		"id,name_id,gen_desc,diag_desc\n"+
			"7,1,General text,Diagnostic text\n",
	)
	r, err := iocsv.Open(path, ',')
	require.NoError(t, err)
	defer r.Close()

	require.NoError(t, r.Require("general", "diagnostic"))
	for row := range r.Rows() {
		assert.Equal(t, "General text", row.String("general"))
		assert.Equal(t, "Diagnostic text", row.String("diagnostic"))
		_, ok := row.Get("habitat")
		assert.False(t, ok)
	}
}

func TestTypedFields(t *testing.T) {
	path := writeFile(t, "observations.csv",
		"id\tvote_cache\tlat\n"+
			"1\t2.5\tNULL\n"+
			"x\tabc\t\n",
	)
	r, err := iocsv.Open(path, '\t')
	require.NoError(t, err)
	defer r.Close()

	var rows int
	for row := range r.Rows() {
		rows++
		switch rows {
		case 1:
			f, ok, err := row.Float("vote_cache")
			require.NoError(t, err)
			assert.True(t, ok)
			assert.InDelta(t, 2.5, f, 0.001)

			_, ok, err = row.Float("lat")
			assert.NoError(t, err)
			assert.False(t, ok)
		case 2:
			_, err := row.MustInt("id")
			assert.Error(t, err)
			_, _, err = row.Float("vote_cache")
			assert.Error(t, err)
			_, err = row.MustInt("lat")
			assert.Error(t, err)
		}
	}
	assert.Equal(t, 2, rows)
}

func TestStopEarly(t *testing.T) {
	path := writeFile(t, "images.csv", "id\n1\n2\n3\n")
	r, err := iocsv.Open(path, '\t')
	require.NoError(t, err)
	defer r.Close()

	var n int
	for range r.Rows() {
		n++
		if n == 2 {
			break
		}
	}
	assert.Equal(t, 2, n)
}

func TestOpenErrors(t *testing.T) {
	_, err := iocsv.Open(filepath.Join(t.TempDir(), "missing.csv"), '\t')
	var gnErr *gn.Error
	require.True(t, errors.As(err, &gnErr))
	assert.Equal(t, errcode.InputFileError, gnErr.Code)

	path := writeFile(t, "empty.csv", "")
	_, err = iocsv.Open(path, '\t')
	require.True(t, errors.As(err, &gnErr))
	assert.Equal(t, errcode.InputFileError, gnErr.Code)

	path = writeFile(t, "locations.csv", "\ufeffid\tNAME\n")
	r, err := iocsv.Open(path, '\t')
	require.NoError(t, err)
	defer r.Close()
	assert.Equal(t, []string{"id", "name"}, r.Header())

	err = r.Require("id", "name", "north", "south")
	require.True(t, errors.As(err, &gnErr))
	assert.Equal(t, errcode.InputHeaderError, gnErr.Code)
	assert.Contains(t, gnErr.Err.Error(), "north, south")
}

func TestLeadingQuote(t *testing.T) {
	path := writeFile(t, "name_descriptions.csv",
		"id\tname_id\tgen_desc\n"+
			"1\t10\t\"Mushroom Expert\":http://b.example/y plain\n"+
			"2\t20\tsecond row\n"+
			"3\t30\t\"Common Name: Fly Agaric\"\r\n"+
			"4\t40\tfourth \"row\n",
	)
	r, err := iocsv.Open(path, '\t')
	require.NoError(t, err)
	defer r.Close()

	var general []string
	var lines []int
	for row := range r.Rows() {
		general = append(general, row.String("general"))
		lines = append(lines, row.Line)
	}
	require.NoError(t, r.Err())
	assert.Equal(t, 0, r.Skipped())
	assert.Equal(t, []string{
		`"Mushroom Expert":http://b.example/y plain`,
		"second row",
		`"Common Name: Fly Agaric"`,
		`fourth "row`,
	}, general)
	assert.Equal(t, []int{2, 3, 4, 5}, lines)
}

func TestQuotedCommaField(t *testing.T) {
	path := writeFile(t, "locations.csv",
		"id,name\n"+
			"100,\"Albion, Mendocino Co., California, USA\"\n"+
			"102,Eugene\n",
	)
	r, err := iocsv.Open(path, ',')
	require.NoError(t, err)
	defer r.Close()

	var names []string
	for row := range r.Rows() {
		names = append(names, row.String("name"))
	}
	require.NoError(t, r.Err())
	assert.Equal(t, []string{
		"Albion, Mendocino Co., California, USA",
		"Eugene",
	}, names)
}
