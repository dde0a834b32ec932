package ioload

import (
	"errors"
	"fmt"

	"github.com/gnames/fungidb/pkg/errcode"
	"github.com/gnames/gn"
)

// NotConnectedError is returned when a load that writes records runs
// without a store.
func NotConnectedError() error {
	return &gn.Error{
		Code: errcode.StoreNotConnectedError,
		Msg:  "Load operation attempted without store connection",
		Err:  errors.New("not connected to document store"),
	}
}

// CancelledError is returned when the load is interrupted.
func CancelledError(err error) error {
	return &gn.Error{
		Code: errcode.CancelledError,
		Msg:  "Load was cancelled, written batches are kept",
		Err:  fmt.Errorf("load cancelled: %w", err),
	}
}

// UpsertError is returned when a batch cannot be written.
func UpsertError(batch int, err error) error {
	msg := `Cannot write batch <em>%d</em> to the document store`
	return &gn.Error{
		Code: errcode.UpsertError,
		Msg:  msg,
		Vars: []any{batch},
		Err:  fmt.Errorf("upsert of batch %d: %w", batch, err),
	}
}

// PartialFailureError is returned by the CLI when a load completed but
// some rows or records were not written.
func PartialFailureError(rowErrors, rejected int) error {
	msg := `Load finished with <em>%d</em> skipped rows and <em>%d</em> rejected records

<em>How to fix:</em>
  1. Check the log file for row numbers and keys
  2. Fix the export and run the load again`
	return &gn.Error{
		Code: errcode.PartialFailureError,
		Msg:  msg,
		Vars: []any{rowErrors, rejected},
		Err: fmt.Errorf("load: %d row errors, %d rejected records",
			rowErrors, rejected),
	}
}
