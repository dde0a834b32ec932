// Package iocsv streams delimited exports of the observation site.
// Rows are read one at a time, the whole file is never kept in memory.
package iocsv

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Null is the value the exports use for missing data.
const Null = "NULL"

// aliases maps a column name to alternative names used by some
// exports.
var aliases = map[string][]string{
	"general":      {"gen_desc"},
	"diagnostic":   {"diag_desc"},
	"distribution": {"distribution_desc"},
	"look_alikes":  {"lookalikes", "look_alike"},
	"class":        {"class_name"},
	"text_name":    {"name"},
	"author":       {"authority"},
	"when":         {"observed_at", "date"},
	"vote_cache":   {"confidence"},
}

// Reader streams rows of one delimited file with a header.
// Every row is one line: the exports escape newlines inside fields,
// so quotes never join lines.
type Reader struct {
	path    string
	f       *os.File
	br      *bufio.Reader
	delim   rune
	line    int
	header  []string
	idx     map[string]int
	skipped int
	err     error
}

// Open opens a file and reads its header.
func Open(path string, delim rune) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, InputFileError(path, err)
	}
	r, err := newReader(path, f, delim)
	if err != nil {
		f.Close()
		return nil, err
	}
	r.f = f
	return r, nil
}

func newReader(path string, src io.Reader, delim rune) (*Reader, error) {
	res := &Reader{
		path:  path,
		br:    bufio.NewReaderSize(src, 1<<20),
		delim: delim,
	}

	line, err := res.readLine()
	if err != nil {
		if errors.Is(err, io.EOF) {
			err = errors.New("file is empty")
		}
		return nil, InputFileError(path, err)
	}
	header, err := res.split(line)
	if err != nil {
		return nil, InputFileError(path, err)
	}

	res.header = make([]string, len(header))
	res.idx = make(map[string]int, len(header))
	for i, h := range header {
		h = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		res.header[i] = h
		res.idx[h] = i
	}
	return res, nil
}

// readLine returns the next non-empty line without its line ending.
func (r *Reader) readLine() (string, error) {
	for {
		line, err := r.br.ReadString('\n')
		if err != nil && !(errors.Is(err, io.EOF) && line != "") {
			return "", err
		}
		r.line++
		line = strings.TrimRight(line, "\r\n")
		if line != "" {
			return line, nil
		}
	}
}

// split breaks a line into fields. Tab-delimited lines are split as
// they are, quotes belong to the text. Other delimiters allow quoted
// fields within the line.
func (r *Reader) split(line string) ([]string, error) {
	if r.delim == '\t' {
		return strings.Split(line, "\t"), nil
	}
	cr := csv.NewReader(strings.NewReader(line))
	cr.Comma = r.delim
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1
	return cr.Read()
}

// Name returns the base name of the file.
func (r *Reader) Name() string {
	return filepath.Base(r.path)
}

// Header returns normalized column names.
func (r *Reader) Header() []string {
	return r.header
}

// Require returns InputHeaderError if some columns are absent,
// taking aliases into account.
func (r *Reader) Require(cols ...string) error {
	var missing []string
	for _, c := range cols {
		if _, ok := r.column(c); !ok {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return InputHeaderError(r.path, missing)
	}
	return nil
}

func (r *Reader) column(name string) (int, bool) {
	if i, ok := r.idx[name]; ok {
		return i, true
	}
	for _, a := range aliases[name] {
		if i, ok := r.idx[a]; ok {
			return i, true
		}
	}
	return 0, false
}

// Rows yields rows of the file. A row is valid only until the next
// iteration. Malformed rows are logged and skipped. Iteration stops on
// an I/O error, which is then available from Err.
func (r *Reader) Rows() iter.Seq[Row] {
	return func(yield func(Row) bool) {
		for {
			line, err := r.readLine()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				r.err = InputFileError(r.path, err)
				return
			}
			rec, err := r.split(line)
			if err != nil {
				r.Skip(r.line, err)
				continue
			}
			if len(rec) != len(r.header) {
				r.Skip(r.line, fmt.Errorf(
					"expected %d fields, got %d", len(r.header), len(rec),
				))
				continue
			}
			if !yield(Row{Line: r.line, rec: rec, r: r}) {
				return
			}
		}
	}
}

// Skip logs a row error and counts the row as skipped.
func (r *Reader) Skip(line int, err error) {
	r.skipped++
	slog.Warn("Skipping row",
		"file", r.Name(), "line", line, "error", RowError(r.path, line, err))
}

// Skipped returns the number of rows skipped so far.
func (r *Reader) Skipped() int {
	return r.skipped
}

// Err returns the I/O error that stopped iteration, if any.
func (r *Reader) Err() error {
	return r.err
}

// Close closes the underlying file.
func (r *Reader) Close() error {
	if r.f == nil {
		return nil
	}
	return r.f.Close()
}

// Row is one record of a file.
type Row struct {
	Line int
	rec  []string
	r    *Reader
}

// Get returns a field value. Missing columns, empty strings and the
// NULL sentinel are absent.
func (row Row) Get(name string) (string, bool) {
	i, ok := row.r.column(name)
	if !ok {
		return "", false
	}
	v := row.rec[i]
	if v == "" || v == Null {
		return "", false
	}
	return v, true
}

// String returns a field value or an empty string.
func (row Row) String(name string) string {
	v, _ := row.Get(name)
	return v
}

// Int parses an integer field. Absent values return ok == false without
// an error.
func (row Row) Int(name string) (int, bool, error) {
	v, ok := row.Get(name)
	if !ok {
		return 0, false, nil
	}
	i, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0, false, fmt.Errorf("column %s: %w", name, err)
	}
	return i, true, nil
}

// Float parses a float field. Absent values return ok == false without
// an error.
func (row Row) Float(name string) (float64, bool, error) {
	v, ok := row.Get(name)
	if !ok {
		return 0, false, nil
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return 0, false, fmt.Errorf("column %s: %w", name, err)
	}
	return f, true, nil
}

// Bool parses a boolean field: 1, t, true, y, yes are true.
// Absent values are false.
func (row Row) Bool(name string) bool {
	v, ok := row.Get(name)
	if !ok {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "t", "true", "y", "yes":
		return true
	}
	return false
}

// MustInt parses a required integer field.
func (row Row) MustInt(name string) (int, error) {
	i, ok, err := row.Int(name)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, fmt.Errorf("column %s is empty", name)
	}
	return i, nil
}
