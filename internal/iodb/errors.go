package iodb

import (
	"errors"
	"fmt"

	"github.com/gnames/fungidb/pkg/errcode"
	"github.com/gnames/gn"
)

// ErrNotFound is wrapped by errors about absent records.
var ErrNotFound = errors.New("record not found")

// ConnectionError is returned when the document store cannot be opened.
func ConnectionError(uri string, err error) error {
	msg := `Cannot connect to the document store

<em>Possible causes:</em>
  - PostgreSQL is not running
  - SQLite file cannot be created
  - store.uri or store.db are incorrect

<em>How to fix:</em>
  1. Check that the database is reachable
  2. Review store settings in config.yaml

<em>Store:</em> %s`

	return &gn.Error{
		Code: errcode.StoreConnectionError,
		Msg:  msg,
		Vars: []any{redact(uri)},
		Err:  fmt.Errorf("failed to connect to %s: %w", redact(uri), err),
	}
}

// UnsupportedStoreError is returned for an unknown URI scheme.
func UnsupportedStoreError(uri string) error {
	msg := `Unsupported document store <em>%s</em>

Use postgres:// or sqlite:// in store.uri`

	return &gn.Error{
		Code: errcode.StoreConnectionError,
		Msg:  msg,
		Vars: []any{redact(uri)},
		Err:  fmt.Errorf("unsupported store uri %s", redact(uri)),
	}
}

// NotConnectedError is returned when an operation runs before Connect.
func NotConnectedError() error {
	return &gn.Error{
		Code: errcode.StoreNotConnectedError,
		Msg:  "Store operation attempted without connection",
		Err:  errors.New("not connected to document store"),
	}
}

// QueryError is returned when a store query fails.
func QueryError(op string, err error) error {
	msg := "Document store query <em>%s</em> failed"
	return &gn.Error{
		Code: errcode.StoreQueryError,
		Msg:  msg,
		Vars: []any{op},
		Err:  fmt.Errorf("%s: %w", op, err),
	}
}

// FieldError is returned for a distinct lookup of a field without an
// index.
func FieldError(field string) error {
	msg := "Field <em>%s</em> is not indexed"
	return &gn.Error{
		Code: errcode.StoreQueryError,
		Msg:  msg,
		Vars: []any{field},
		Err:  fmt.Errorf("field %s is not indexed", field),
	}
}

// NotFoundError is returned when a record with the id does not exist.
func NotFoundError(id string) error {
	msg := "Record <em>%s</em> not found"
	return &gn.Error{
		Code: errcode.StoreError,
		Msg:  msg,
		Vars: []any{id},
		Err:  fmt.Errorf("id %s: %w", id, ErrNotFound),
	}
}
