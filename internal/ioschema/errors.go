package ioschema

import (
	"errors"
	"fmt"

	"github.com/gnames/fungidb/pkg/errcode"
	"github.com/gnames/gn"
)

// NotConnectedError creates an error for when schema
// operation is attempted without store connection.
func NotConnectedError() error {
	msg := "Schema operation attempted without store connection"

	return &gn.Error{
		Code: errcode.StoreNotConnectedError,
		Msg:  msg,
		Err:  errors.New("not connected to document store"),
	}
}

// GORMConnectionError creates an error for GORM
// connection failures.
func GORMConnectionError(err error) error {
	msg := `Cannot connect to database with GORM

<em>How to fix:</em>
  1. Ensure the store is connected
  2. Check store settings in config.yaml`

	return &gn.Error{
		Code: errcode.StoreGORMConnectionError,
		Msg:  msg,
		Err:  fmt.Errorf("failed to connect with GORM: %w", err),
	}
}

// CreateSchemaError creates an error for collection
// creation failures.
func CreateSchemaError(err error) error {
	msg := `Cannot create species collection

<em>Possible causes:</em>
  - Insufficient database permissions
  - store.collection is used by an incompatible table

<em>How to fix:</em>
  1. Check that the user has CREATE permissions
  2. Choose another store.collection`

	return &gn.Error{
		Code: errcode.StoreSchemaError,
		Msg:  msg,
		Err:  fmt.Errorf("failed to create collection: %w", err),
	}
}

// CollationError creates an error for collation
// setting failures.
func CollationError(table, column string, err error) error {
	msg := `Cannot set collation on <em>%s.%s</em>`

	return &gn.Error{
		Code: errcode.StoreSchemaError,
		Msg:  msg,
		Vars: []any{table, column},
		Err: fmt.Errorf(
			"failed to set collation on %s.%s: %w",
			table, column, err),
	}
}
