package iocsv

import (
	"fmt"
	"strings"

	"github.com/gnames/fungidb/pkg/errcode"
	"github.com/gnames/gn"
)

// InputFileError is returned when an input file cannot be opened or
// read.
func InputFileError(path string, err error) error {
	msg := `Cannot read input file <em>%s</em>

<em>How to fix:</em>
  1. Check that the file exists in input.dir
  2. Check file permissions`
	return &gn.Error{
		Code: errcode.InputFileError,
		Msg:  msg,
		Vars: []any{path},
		Err:  fmt.Errorf("cannot read %s: %w", path, err),
	}
}

// InputHeaderError is returned when required columns are missing.
func InputHeaderError(path string, missing []string) error {
	msg := `Input file <em>%s</em> has an unexpected header

<em>Missing columns:</em> %s`
	cols := strings.Join(missing, ", ")
	return &gn.Error{
		Code: errcode.InputHeaderError,
		Msg:  msg,
		Vars: []any{path, cols},
		Err:  fmt.Errorf("header of %s misses %s", path, cols),
	}
}

// RowError describes a skipped row. It is logged, never returned to the
// user.
func RowError(path string, line int, err error) error {
	return &gn.Error{
		Code: errcode.RowError,
		Msg:  "Skipped row %d of <em>%s</em>",
		Vars: []any{line, path},
		Err:  fmt.Errorf("%s:%d: %w", path, line, err),
	}
}
